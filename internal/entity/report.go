package entity

// WCAG compliance labels derived from the mean SEO score.
const (
	WCAGLevelAA           = "AA"
	WCAGLevelA            = "A"
	WCAGLevelNonCompliant = "Non-compliant"
)

// AggregatedReport is the final audit output stored in JobResults.Report.
type AggregatedReport struct {
	AuditType     AuditType            `json:"audit_type"`
	Overview      Overview             `json:"overview"`
	TechnicalSEO  TechnicalSEOReport   `json:"technical_seo"`
	Content       ContentReport        `json:"content"`
	Performance   PerformanceReport    `json:"performance"`
	Accessibility AccessibilityReport  `json:"accessibility"`
	Pages         []PageAnalysisResult `json:"pages"`
}

type Overview struct {
	Score          int          `json:"score"`
	PagesAnalyzed  int          `json:"pages_analyzed"`
	TotalIssues    int          `json:"total_issues"`
	CriticalIssues int          `json:"critical_issues"`
	Warnings       int          `json:"warnings"`
	Notices        int          `json:"notices"`
	TotalLoadMS    int64        `json:"total_load_time_ms"`
	AvgLoadMS      int64        `json:"avg_load_time_ms"`
	CoreWebVitals  VitalsValues `json:"core_web_vitals"`
}

// VitalsValues are mean Core Web Vital values with their classification.
type VitalsValues struct {
	LCP    float64      `json:"lcp"`
	FID    float64      `json:"fid"`
	CLS    float64      `json:"cls"`
	Rating VitalsRating `json:"rating"`
}

type TechnicalSEOReport struct {
	Score                   int `json:"score"`
	PagesMissingTitle       int `json:"pages_missing_title"`
	PagesMissingMetaDesc    int `json:"pages_missing_meta_description"`
	PagesMissingH1          int `json:"pages_missing_h1"`
	PagesMissingCanonical   int `json:"pages_missing_canonical"`
	PagesNoIndex            int `json:"pages_noindex"`
	PagesWithStructuredData int `json:"pages_with_structured_data"`
	PagesWithHreflang       int `json:"pages_with_hreflang"`
	PagesWithErrorStatus    int `json:"pages_with_error_status"`
	BrokenLinks             int `json:"broken_links"`
}

type ContentReport struct {
	TotalWords            int      `json:"total_words"`
	AvgWordCount          int      `json:"avg_word_count"`
	ThinContentPages      int      `json:"thin_content_pages"`
	AvgReadability        float64  `json:"avg_readability"`
	DuplicateTitles       []string `json:"duplicate_titles"`
	DuplicateDescriptions []string `json:"duplicate_descriptions"`
}

type PerformanceReport struct {
	PagesMeasured     int           `json:"pages_measured"`
	AvgDesktopScore   int           `json:"avg_desktop_score"`
	AvgMobileScore    int           `json:"avg_mobile_score"`
	CoreWebVitals     VitalsValues  `json:"core_web_vitals"`
	ImagesMissingSize int           `json:"images_missing_dimensions"`
	TopOpportunities  []Opportunity `json:"top_opportunities"`
}

type AccessibilityReport struct {
	WCAGLevel          string `json:"wcag_level"`
	TotalIssues        int    `json:"total_issues"`
	Errors             int    `json:"errors"`
	Warnings           int    `json:"warnings"`
	ImagesMissingAlt   int    `json:"images_missing_alt"`
	AvgLighthouseScore int    `json:"avg_lighthouse_score"`
}
