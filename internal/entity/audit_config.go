package entity

import (
	"errors"
	"fmt"
	"net/url"
)

// AuditType selects the focus of an audit. It is echoed in the report.
type AuditType string

const (
	AuditTypeTechnical     AuditType = "technical"
	AuditTypeContent       AuditType = "content"
	AuditTypePerformance   AuditType = "performance"
	AuditTypeAccessibility AuditType = "accessibility"
	AuditTypeFull          AuditType = "full"
)

// PlaceholderURL is audited when a job carries neither pages nor a seed URL.
const PlaceholderURL = "https://example.com"

var ErrInvalidConfig = errors.New("invalid audit configuration")

// AuditConfig is the configuration snapshot stored with a job.
type AuditConfig struct {
	URL                string         `json:"url,omitempty"`
	IncludeMobile      bool           `json:"include_mobile"`
	CheckAccessibility bool           `json:"check_accessibility"`
	AnalyzePerformance bool           `json:"analyze_performance"`
	CheckSEO           bool           `json:"check_seo"`
	CheckContent       bool           `json:"check_content"`
	CheckTechnical     bool           `json:"check_technical"`
	ValidateHTML       bool           `json:"validate_html"`
	CheckLinks         bool           `json:"check_links"`
	CheckImages        bool           `json:"check_images"`
	CheckMeta          bool           `json:"check_meta"`
	AuditType          AuditType      `json:"audit_type,omitempty"`
	Pages              []string       `json:"pages,omitempty"`
	MaxDepth           int            `json:"max_depth,omitempty"`
	CustomSettings     map[string]any `json:"custom_settings,omitempty"`
}

// SeedURL returns the configured seed, or PlaceholderURL when none is set.
func (c AuditConfig) SeedURL() string {
	if c.URL != "" {
		return c.URL
	}
	return PlaceholderURL
}

// Validate checks the parts of the configuration the engine relies on.
func (c AuditConfig) Validate() error {
	switch c.AuditType {
	case "", AuditTypeTechnical, AuditTypeContent, AuditTypePerformance, AuditTypeAccessibility, AuditTypeFull:
	default:
		return fmt.Errorf("%w: unknown audit_type %q", ErrInvalidConfig, c.AuditType)
	}
	if c.MaxDepth < 0 {
		return fmt.Errorf("%w: max_depth must not be negative", ErrInvalidConfig)
	}
	if c.URL != "" {
		if err := validateAbsoluteURL(c.URL); err != nil {
			return err
		}
	}
	for _, p := range c.Pages {
		if err := validateAbsoluteURL(p); err != nil {
			return err
		}
	}
	return nil
}

func validateAbsoluteURL(raw string) error {
	u, err := url.ParseRequestURI(raw)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return fmt.Errorf("%w: invalid URL %q", ErrInvalidConfig, raw)
	}
	return nil
}
