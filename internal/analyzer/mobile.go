package analyzer

import (
	"context"
	"fmt"
	"strings"

	"github.com/user/seo-audit-service/internal/entity"
)

const mobileProbeJS = `(() => {
	const meta = document.querySelector('meta[name="viewport"]');
	const el = document.documentElement;
	return {
		hasViewport: !!meta,
		viewport: meta ? (meta.getAttribute('content') || '') : '',
		scrollWidth: el.scrollWidth,
		clientWidth: el.clientWidth
	};
})()`

type mobileProbe struct {
	HasViewport bool   `json:"hasViewport"`
	Viewport    string `json:"viewport"`
	ScrollWidth int    `json:"scrollWidth"`
	ClientWidth int    `json:"clientWidth"`
}

// checkMobile loads the page in a mobile tab and checks the viewport setup
// and horizontal overflow.
func (a *Analyzer) checkMobile(ctx context.Context, pageURL string) (*entity.MobileAnalysis, error) {
	tab, _, err := a.tabs.AcquireMobileTab(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire mobile tab: %w", err)
	}
	release := a.releaser(tab, pageURL)
	defer release()

	if _, err := tab.Navigate(ctx, pageURL); err != nil {
		return nil, err
	}
	var probe mobileProbe
	if err := tab.Evaluate(ctx, mobileProbeJS, &probe); err != nil {
		return nil, fmt.Errorf("evaluate mobile probe: %w", err)
	}
	return mobileResult(probe), nil
}

func mobileResult(probe mobileProbe) *entity.MobileAnalysis {
	res := &entity.MobileAnalysis{
		HasViewportMeta:  probe.HasViewport,
		ViewportContent:  probe.Viewport,
		HorizontalScroll: probe.ScrollWidth > probe.ClientWidth,
	}
	res.MobileFriendly = res.HasViewportMeta &&
		strings.Contains(strings.ReplaceAll(strings.ToLower(probe.Viewport), " ", ""), "width=device-width") &&
		!res.HorizontalScroll
	return res
}
