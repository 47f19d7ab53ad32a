package browserpool

import (
	"context"
	"time"
)

// Launcher starts a new browser process.
type Launcher interface {
	Launch(ctx context.Context) (Browser, error)
}

// Browser is a live browser process that can open tabs.
type Browser interface {
	NewTab(ctx context.Context, profile Profile) (Tab, error)
	// Tabs returns the open tabs, oldest first.
	Tabs() []Tab
	// Disconnected is closed once the process is gone.
	Disconnected() <-chan struct{}
	Close() error
}

// Tab is a single page of a browser. A tab is never shared between analyses.
type Tab interface {
	// Navigate loads url and returns the HTTP status of the main document.
	Navigate(ctx context.Context, url string) (int, error)
	// HTML returns the rendered document markup.
	HTML(ctx context.Context) (string, error)
	// Evaluate runs js in the page and unmarshals the result into out.
	Evaluate(ctx context.Context, js string, out any) error
	Close() error
}

// Resource types that can be blocked by request interception.
const (
	ResourceImage = "Image"
	ResourceFont  = "Font"
	ResourceMedia = "Media"
)

const (
	desktopUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36"
	mobileUserAgent  = "Mozilla/5.0 (iPhone; CPU iPhone OS 17_4 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.4 Mobile/15E148 Safari/604.1"
)

// Profile configures a tab before it is handed out.
type Profile struct {
	Name              string
	UserAgent         string
	Width             int64
	Height            int64
	Mobile            bool
	Touch             bool
	BlockResources    []string
	NavigationTimeout time.Duration
}

// Blocks reports whether requests of the given resource type are aborted.
func (p Profile) Blocks(resourceType string) bool {
	for _, r := range p.BlockResources {
		if r == resourceType {
			return true
		}
	}
	return false
}

// DesktopProfile is used for regular page analysis. Heavy assets are blocked.
func DesktopProfile(timeout time.Duration) Profile {
	return Profile{
		Name:              "desktop",
		UserAgent:         desktopUserAgent,
		Width:             1366,
		Height:            768,
		BlockResources:    []string{ResourceImage, ResourceFont, ResourceMedia},
		NavigationTimeout: timeout,
	}
}

// MobileProfile loads every asset so mobile layout checks see the real page.
func MobileProfile(timeout time.Duration) Profile {
	return Profile{
		Name:              "mobile",
		UserAgent:         mobileUserAgent,
		Width:             375,
		Height:            812,
		Mobile:            true,
		Touch:             true,
		NavigationTimeout: timeout,
	}
}
