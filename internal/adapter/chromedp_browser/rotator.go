package chromedp_browser

import (
	"math/rand/v2"
	"sync"
)

var defaultUserAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36",
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36",
}

// Rotator hands out proxies in order and desktop user agents at random,
// one pick per browser launch.
type Rotator struct {
	proxies    []string
	userAgents []string
	mu         sync.Mutex
	proxyIndex int
}

// NewRotator creates a rotator. An empty proxy list disables proxying.
func NewRotator(proxies []string) *Rotator {
	return &Rotator{
		proxies:    proxies,
		userAgents: defaultUserAgents,
	}
}

// NextProxy returns a proxy URL from the list, rotating sequentially.
func (r *Rotator) NextProxy() string {
	if r == nil || len(r.proxies) == 0 {
		return ""
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	proxy := r.proxies[r.proxyIndex]
	r.proxyIndex = (r.proxyIndex + 1) % len(r.proxies)
	return proxy
}

// UserAgent returns a random desktop user agent string.
func (r *Rotator) UserAgent() string {
	if r == nil || len(r.userAgents) == 0 {
		return ""
	}
	return r.userAgents[rand.IntN(len(r.userAgents))]
}
