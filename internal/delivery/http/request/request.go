package request

import "github.com/user/seo-audit-service/internal/entity"

// SubmitAuditRequest is the body of POST /api/audits.
type SubmitAuditRequest struct {
	URL                string         `json:"url"`
	IncludeMobile      bool           `json:"include_mobile"`
	CheckAccessibility bool           `json:"check_accessibility"`
	AnalyzePerformance bool           `json:"analyze_performance"`
	CheckSEO           bool           `json:"check_seo"`
	CheckContent       bool           `json:"check_content"`
	CheckTechnical     bool           `json:"check_technical"` // accepted, echoed only
	ValidateHTML       bool           `json:"validate_html"`   // accepted, echoed only
	CheckLinks         bool           `json:"check_links"`
	CheckImages        bool           `json:"check_images"`
	CheckMeta          bool           `json:"check_meta"` // accepted, echoed only
	AuditType          string         `json:"audit_type"`
	Pages              []string       `json:"pages"`
	MaxDepth           int            `json:"max_depth"`
	CustomSettings     map[string]any `json:"custom_settings"`
}

func (r SubmitAuditRequest) ToConfig() entity.AuditConfig {
	return entity.AuditConfig{
		URL:                r.URL,
		IncludeMobile:      r.IncludeMobile,
		CheckAccessibility: r.CheckAccessibility,
		AnalyzePerformance: r.AnalyzePerformance,
		CheckSEO:           r.CheckSEO,
		CheckContent:       r.CheckContent,
		CheckTechnical:     r.CheckTechnical,
		ValidateHTML:       r.ValidateHTML,
		CheckLinks:         r.CheckLinks,
		CheckImages:        r.CheckImages,
		CheckMeta:          r.CheckMeta,
		AuditType:          entity.AuditType(r.AuditType),
		Pages:              r.Pages,
		MaxDepth:           r.MaxDepth,
		CustomSettings:     r.CustomSettings,
	}
}
