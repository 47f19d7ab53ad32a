package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config stores all configuration for the application.
type Config struct {
	ServerPort string `mapstructure:"SERVER_PORT"`
	LogLevel   string `mapstructure:"LOG_LEVEL"`

	PostgresURL   string `mapstructure:"POSTGRES_URL"`
	RedisAddr     string `mapstructure:"REDIS_ADDR"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`
	RedisDB       int    `mapstructure:"REDIS_DB"`

	KafkaBrokers string `mapstructure:"KAFKA_BROKERS"`
	KafkaTopic   string `mapstructure:"KAFKA_TOPIC"`

	AuditWorkers      int `mapstructure:"AUDIT_WORKERS"`
	AuditQueueSize    int `mapstructure:"AUDIT_QUEUE_SIZE"`
	AuditStartDelayMS int `mapstructure:"AUDIT_START_DELAY_MS"`
	MaxPagesPerAudit  int `mapstructure:"MAX_PAGES_PER_AUDIT"`
	SitemapSampleSize int `mapstructure:"SITEMAP_SAMPLE_SIZE"`

	MaxBrowsers       int    `mapstructure:"MAX_BROWSERS"`
	MaxTabsPerBrowser int    `mapstructure:"MAX_TABS_PER_BROWSER"`
	PageLoadTimeout   int    `mapstructure:"PAGE_LOAD_TIMEOUT"` // in seconds
	ChromePath        string `mapstructure:"CHROME_PATH"`
	ProxyURLs         string `mapstructure:"PROXY_URLS"`

	LighthousePath string `mapstructure:"LIGHTHOUSE_PATH"`

	LinkProbeTimeout    int     `mapstructure:"LINK_PROBE_TIMEOUT"` // in seconds
	LinkProbeRPS        float64 `mapstructure:"LINK_PROBE_RPS"`
	LinkCacheTTLHours   int     `mapstructure:"LINK_CACHE_TTL_HOURS"`
	StatusCacheTTLHours int     `mapstructure:"STATUS_CACHE_TTL_HOURS"`
}

// Load reads configuration from file or environment variables.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()

	// The .env file is optional; production is configured purely through the environment.
	_ = v.ReadInConfig()

	setDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("SERVER_PORT", "8080")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("POSTGRES_URL", "")
	v.SetDefault("REDIS_ADDR", "")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("KAFKA_BROKERS", "")
	v.SetDefault("KAFKA_TOPIC", "audit-events")
	v.SetDefault("AUDIT_WORKERS", 4)
	v.SetDefault("AUDIT_QUEUE_SIZE", 100)
	v.SetDefault("AUDIT_START_DELAY_MS", 1000)
	v.SetDefault("MAX_PAGES_PER_AUDIT", 3)
	v.SetDefault("SITEMAP_SAMPLE_SIZE", 5)
	v.SetDefault("MAX_BROWSERS", 3)
	v.SetDefault("MAX_TABS_PER_BROWSER", 5)
	v.SetDefault("PAGE_LOAD_TIMEOUT", 30)
	v.SetDefault("CHROME_PATH", "")
	v.SetDefault("PROXY_URLS", "")
	v.SetDefault("LIGHTHOUSE_PATH", "lighthouse")
	v.SetDefault("LINK_PROBE_TIMEOUT", 10)
	v.SetDefault("LINK_PROBE_RPS", 10.0)
	v.SetDefault("LINK_CACHE_TTL_HOURS", 6)
	v.SetDefault("STATUS_CACHE_TTL_HOURS", 24)
}

// PageLoadTimeoutDuration returns the per-tab navigation timeout.
func (c *Config) PageLoadTimeoutDuration() time.Duration {
	return time.Duration(c.PageLoadTimeout) * time.Second
}

// LinkProbeTimeoutDuration returns the timeout of a single link probe.
func (c *Config) LinkProbeTimeoutDuration() time.Duration {
	return time.Duration(c.LinkProbeTimeout) * time.Second
}

func (c *Config) AuditStartDelay() time.Duration {
	return time.Duration(c.AuditStartDelayMS) * time.Millisecond
}

func (c *Config) LinkCacheTTL() time.Duration {
	return time.Duration(c.LinkCacheTTLHours) * time.Hour
}

func (c *Config) StatusCacheTTL() time.Duration {
	return time.Duration(c.StatusCacheTTLHours) * time.Hour
}

// Brokers splits KAFKA_BROKERS on commas. Empty means event publishing is disabled.
func (c *Config) Brokers() []string {
	return splitList(c.KafkaBrokers)
}

// Proxies splits PROXY_URLS on commas.
func (c *Config) Proxies() []string {
	return splitList(c.ProxyURLs)
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
