package analyzer

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/user/seo-audit-service/internal/entity"
	"github.com/user/seo-audit-service/internal/repository"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

var errUnreachableCached = errors.New("unreachable (cached)")

// LinkSampleSize bounds how many links per page are probed.
const LinkSampleSize = 5

// LinkChecker probes link targets with HEAD requests, falling back to GET
// for servers that reject HEAD.
type LinkChecker struct {
	client  *http.Client
	limiter *rate.Limiter
	cache   repository.LinkProbeCache
	ttl     time.Duration
	logger  *zap.Logger
}

// LinkCheckerOptions configures a LinkChecker. Cache may be nil.
type LinkCheckerOptions struct {
	Timeout        time.Duration
	RequestsPerSec float64
	Cache          repository.LinkProbeCache
	CacheTTL       time.Duration
	UserAgent      string
}

func NewLinkChecker(opts LinkCheckerOptions, logger *zap.Logger) *LinkChecker {
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	limit := rate.Inf
	if opts.RequestsPerSec > 0 {
		limit = rate.Limit(opts.RequestsPerSec)
	}
	client := &http.Client{Timeout: opts.Timeout}
	if opts.UserAgent != "" {
		client.Transport = userAgentTransport{ua: opts.UserAgent, next: http.DefaultTransport}
	}
	return &LinkChecker{
		client:  client,
		limiter: rate.NewLimiter(limit, LinkSampleSize),
		cache:   opts.Cache,
		ttl:     opts.CacheTTL,
		logger:  logger,
	}
}

type userAgentTransport struct {
	ua   string
	next http.RoundTripper
}

func (t userAgentTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	req.Header.Set("User-Agent", t.ua)
	return t.next.RoundTrip(req)
}

// sampleLinks returns the first n distinct absolute http(s) link targets.
func sampleLinks(p *page, n int) []string {
	seen := map[string]bool{}
	var out []string
	p.doc.Find("a[href]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		href, _ := s.Attr("href")
		abs, ok := p.resolve(href)
		if !ok || seen[abs] {
			return true
		}
		seen[abs] = true
		out = append(out, abs)
		return len(out) < n
	})
	return out
}

// Check probes the sampled links of a page concurrently and returns the
// broken ones in document order.
func (c *LinkChecker) Check(ctx context.Context, p *page) ([]entity.BrokenLink, error) {
	links := sampleLinks(p, LinkSampleSize)
	results := make([]*entity.BrokenLink, len(links))

	g, gctx := errgroup.WithContext(ctx)
	for i, link := range links {
		g.Go(func() error {
			status, err := c.probe(gctx, link)
			switch {
			case err != nil:
				results[i] = &entity.BrokenLink{URL: link, Error: err.Error()}
			case status >= 400:
				results[i] = &entity.BrokenLink{URL: link, StatusCode: status}
			}
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	broken := []entity.BrokenLink{}
	for _, r := range results {
		if r != nil {
			broken = append(broken, *r)
		}
	}
	return broken, nil
}

// probe returns the status of link. A cached zero status means the last
// probe failed at the network level.
func (c *LinkChecker) probe(ctx context.Context, link string) (int, error) {
	if c.cache != nil {
		status, found, err := c.cache.Get(ctx, link)
		if err != nil {
			c.logger.Debug("link cache read failed", zap.String("url", link), zap.Error(err))
		} else if found {
			if status == 0 {
				return 0, errUnreachableCached
			}
			return status, nil
		}
	}

	status, err := c.fetchStatus(ctx, link)
	if ctx.Err() != nil {
		return 0, ctx.Err()
	}
	if c.cache != nil {
		if perr := c.cache.Put(ctx, link, status, c.ttl); perr != nil {
			c.logger.Debug("link cache write failed", zap.String("url", link), zap.Error(perr))
		}
	}
	return status, err
}

func (c *LinkChecker) fetchStatus(ctx context.Context, link string) (int, error) {
	status, err := c.do(ctx, http.MethodHead, link)
	if err == nil && (status == http.StatusMethodNotAllowed || status == http.StatusNotImplemented) {
		return c.do(ctx, http.MethodGet, link)
	}
	return status, err
}

func (c *LinkChecker) do(ctx context.Context, method, link string) (int, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return 0, err
	}
	req, err := http.NewRequestWithContext(ctx, method, link, nil)
	if err != nil {
		return 0, err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
	return resp.StatusCode, nil
}
