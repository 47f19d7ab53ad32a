package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/user/seo-audit-service/internal/adapter/chromedp_browser"
	"github.com/user/seo-audit-service/internal/adapter/kafka"
	"github.com/user/seo-audit-service/internal/adapter/lighthouse"
	"github.com/user/seo-audit-service/internal/adapter/memory"
	"github.com/user/seo-audit-service/internal/adapter/postgres"
	redis_adapter "github.com/user/seo-audit-service/internal/adapter/redis"
	"github.com/user/seo-audit-service/internal/analyzer"
	"github.com/user/seo-audit-service/internal/browserpool"
	"github.com/user/seo-audit-service/internal/delivery/http/handler"
	"github.com/user/seo-audit-service/internal/delivery/http/router"
	"github.com/user/seo-audit-service/internal/performance"
	"github.com/user/seo-audit-service/internal/repository"
	"github.com/user/seo-audit-service/internal/usecase"
	"github.com/user/seo-audit-service/pkg/config"
	"github.com/user/seo-audit-service/pkg/logger"
	"go.uber.org/zap"
)

const (
	lighthouseTimeout = 2 * time.Minute
	shutdownTimeout   = 30 * time.Second
)

func main() {
	// --- Configuration ---
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	// --- Logger ---
	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	ctx := context.Background()
	var healthChecks []handler.HealthCheck

	// --- Job repository: PostgreSQL when configured, memory otherwise ---
	var jobRepo repository.JobRepository
	if cfg.PostgresURL != "" {
		dbpool, err := pgxpool.New(ctx, cfg.PostgresURL)
		if err != nil {
			log.Fatal("unable to connect to postgres", zap.Error(err))
		}
		defer dbpool.Close()
		pgRepo := postgres.NewAuditJobRepo(dbpool)
		if err := pgRepo.EnsureSchema(ctx); err != nil {
			log.Fatal("unable to prepare schema", zap.Error(err))
		}
		jobRepo = pgRepo
		healthChecks = append(healthChecks, handler.HealthCheck{Name: "postgres", Ping: dbpool.Ping})
		log.Info("postgres job repository ready")
	} else {
		jobRepo = memory.NewAuditJobRepo()
		log.Warn("POSTGRES_URL not set, audit jobs are kept in memory")
	}

	// --- Redis caches (optional) ---
	var statusCache repository.JobStatusCache
	var linkCache repository.LinkProbeCache
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Warn("redis unreachable, caches disabled", zap.String("addr", cfg.RedisAddr), zap.Error(err))
		} else {
			statusCache = redis_adapter.NewStatusCache(rdb, cfg.StatusCacheTTL())
			linkCache = redis_adapter.NewLinkCache(rdb)
			log.Info("redis caches ready", zap.String("addr", cfg.RedisAddr))
		}
		healthChecks = append(healthChecks, handler.HealthCheck{
			Name: "redis",
			Ping: func(ctx context.Context) error { return rdb.Ping(ctx).Err() },
		})
	}

	// --- Lifecycle events (optional) ---
	var events repository.EventPublisher = kafka.NoopPublisher{}
	if brokers := cfg.Brokers(); len(brokers) > 0 {
		events = kafka.NewEventPublisher(brokers, cfg.KafkaTopic)
		log.Info("publishing audit events to kafka", zap.Strings("brokers", brokers), zap.String("topic", cfg.KafkaTopic))
	}
	defer func() {
		if err := events.Close(); err != nil {
			log.Warn("closing event publisher", zap.Error(err))
		}
	}()

	// --- Browser pool and analyzers ---
	rotator := chromedp_browser.NewRotator(cfg.Proxies())
	launcher := chromedp_browser.NewLauncher(chromedp_browser.LauncherOptions{
		ChromePath: cfg.ChromePath,
		Headless:   true,
		Rotator:    rotator,
	}, log.Named("browser"))
	pool := browserpool.New(launcher, browserpool.Options{
		MaxBrowsers:       cfg.MaxBrowsers,
		MaxTabsPerBrowser: cfg.MaxTabsPerBrowser,
		NavigationTimeout: cfg.PageLoadTimeoutDuration(),
	}, log.Named("pool"))

	perf := performance.NewAuditor(
		lighthouse.NewRunner(cfg.LighthousePath, cfg.ChromePath, log.Named("lighthouse")),
		lighthouseTimeout,
		log.Named("performance"),
	)
	links := analyzer.NewLinkChecker(analyzer.LinkCheckerOptions{
		Timeout:        cfg.LinkProbeTimeoutDuration(),
		RequestsPerSec: cfg.LinkProbeRPS,
		Cache:          linkCache,
		CacheTTL:       cfg.LinkCacheTTL(),
		UserAgent:      rotator.UserAgent(),
	}, log.Named("links"))
	pageAnalyzer := analyzer.New(pool, links, perf, log.Named("analyzer"))

	// --- Use cases ---
	discoverer := usecase.NewDiscoverer(nil, cfg.SitemapSampleSize, log.Named("discovery"))
	processor := usecase.NewAuditProcessor(jobRepo, statusCache, events, pageAnalyzer, discoverer, cfg.MaxPagesPerAudit, log.Named("processor"))
	dispatcher := usecase.NewDispatcher(cfg.AuditWorkers, cfg.AuditQueueSize, processor.Handle, log.Named("dispatcher"))
	dispatcher.Start()
	auditManager := usecase.NewAuditManager(jobRepo, statusCache, dispatcher, cfg.AuditStartDelay(), log.Named("audits"))

	// --- HTTP Server ---
	apiHandler := handler.NewHandler(auditManager, pool, healthChecks, log.Named("http"))
	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router.New(apiHandler, log.Named("http")),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 65 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("could not start server", zap.Error(err))
		}
	}()
	log.Info("server started",
		zap.String("port", cfg.ServerPort),
		zap.Int("workers", cfg.AuditWorkers),
		zap.Int("max_browsers", cfg.MaxBrowsers),
	)

	// --- Graceful Shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("server forced to shutdown", zap.Error(err))
	}
	dispatcher.Stop(shutdownCtx)
	pool.Shutdown()

	log.Info("server exiting")
}
