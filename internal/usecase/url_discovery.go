package usecase

import (
	"bufio"
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/user/seo-audit-service/internal/entity"
	"github.com/user/seo-audit-service/pkg/utils"
	"go.uber.org/zap"
)

const (
	maxSitemapBytes = 10 << 20
	maxRobotsBytes  = 512 << 10
)

// wellKnownSitemaps are tried on the seed origin after robots.txt.
var wellKnownSitemaps = []string{"/sitemap.xml", "/sitemap_index.xml"}

type sitemapURLSet struct {
	URLs []struct {
		Loc string `xml:"loc"`
	} `xml:"url"`
}

type sitemapIndex struct {
	Sitemaps []struct {
		Loc string `xml:"loc"`
	} `xml:"sitemap"`
}

// URLDiscoverer resolves the URLs an audit should analyze.
type URLDiscoverer interface {
	Discover(ctx context.Context, cfg entity.AuditConfig) []string
}

// Discoverer finds target URLs from the configuration or the seed site's sitemap.
type Discoverer struct {
	client     *http.Client
	sampleSize int
	logger     *zap.Logger
}

func NewDiscoverer(client *http.Client, sampleSize int, logger *zap.Logger) *Discoverer {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	if sampleSize <= 0 {
		sampleSize = 5
	}
	return &Discoverer{client: client, sampleSize: sampleSize, logger: logger}
}

// Discover returns the explicit pages when configured. Otherwise it samples
// the seed site's sitemap, falling back to the seed URL on any failure.
func (d *Discoverer) Discover(ctx context.Context, cfg entity.AuditConfig) []string {
	if len(cfg.Pages) > 0 {
		return append([]string(nil), cfg.Pages...)
	}
	seed := cfg.SeedURL()
	if cfg.URL == "" {
		return []string{seed}
	}

	urls, err := d.fromSitemaps(ctx, seed)
	if err != nil {
		d.logger.Debug("sitemap discovery failed, using seed", zap.String("seed", seed), zap.Error(err))
		return []string{seed}
	}
	if len(urls) == 0 {
		return []string{seed}
	}
	d.logger.Info("discovered URLs from sitemap", zap.String("seed", seed), zap.Int("count", len(urls)))
	return urls
}

func (d *Discoverer) fromSitemaps(ctx context.Context, seed string) ([]string, error) {
	origin, err := utils.Origin(seed)
	if err != nil {
		return nil, err
	}

	candidates := d.robotsSitemaps(ctx, origin)
	for _, p := range wellKnownSitemaps {
		candidates = append(candidates, origin+p)
	}

	var lastErr error
	for _, sm := range candidates {
		urls, err := d.readSitemap(ctx, sm, true)
		if err != nil {
			lastErr = err
			continue
		}
		if len(urls) > 0 {
			return urls, nil
		}
	}
	return nil, lastErr
}

// robotsSitemaps returns the Sitemap: entries of origin's robots.txt.
func (d *Discoverer) robotsSitemaps(ctx context.Context, origin string) []string {
	body, err := d.fetch(ctx, origin+"/robots.txt", maxRobotsBytes)
	if err != nil {
		return nil
	}
	var out []string
	sc := bufio.NewScanner(bytes.NewReader(body))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		key, value, ok := strings.Cut(line, ":")
		if !ok || !strings.EqualFold(strings.TrimSpace(key), "sitemap") {
			continue
		}
		if v := strings.TrimSpace(value); utils.IsHTTP(v) {
			out = append(out, v)
		}
	}
	return out
}

// readSitemap returns up to sampleSize page URLs. An index is followed one
// level when follow is set.
func (d *Discoverer) readSitemap(ctx context.Context, target string, follow bool) ([]string, error) {
	body, err := d.fetch(ctx, target, maxSitemapBytes)
	if err != nil {
		return nil, err
	}

	var index sitemapIndex
	if err := xml.Unmarshal(body, &index); err == nil && len(index.Sitemaps) > 0 {
		if !follow {
			return nil, nil
		}
		var out []string
		for _, sm := range index.Sitemaps {
			child := strings.TrimSpace(sm.Loc)
			if child == "" {
				continue
			}
			urls, err := d.readSitemap(ctx, child, false)
			if err != nil {
				d.logger.Debug("child sitemap failed", zap.String("sitemap", child), zap.Error(err))
				continue
			}
			out = append(out, urls...)
			if len(out) >= d.sampleSize {
				return out[:d.sampleSize], nil
			}
		}
		return out, nil
	}

	var set sitemapURLSet
	if err := xml.Unmarshal(body, &set); err != nil {
		return nil, fmt.Errorf("parse sitemap %s: %w", target, err)
	}
	out := make([]string, 0, d.sampleSize)
	for _, u := range set.URLs {
		loc := strings.TrimSpace(u.Loc)
		if !utils.IsHTTP(loc) {
			continue
		}
		out = append(out, loc)
		if len(out) == d.sampleSize {
			break
		}
	}
	return out, nil
}

func (d *Discoverer) fetch(ctx context.Context, target string, limit int64) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, err
	}
	resp, err := d.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch %s: unexpected status %d", target, resp.StatusCode)
	}
	return io.ReadAll(io.LimitReader(resp.Body, limit))
}
