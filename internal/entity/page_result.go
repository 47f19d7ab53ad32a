package entity

import "time"

// Severity and impact labels shared by SEO and accessibility issues.
const (
	SeverityError   = "error"
	SeverityWarning = "warning"
	SeverityInfo    = "info"

	ImpactHigh   = "high"
	ImpactMedium = "medium"
	ImpactLow    = "low"
)

// PageAnalysisResult is the denormalized record produced for one analyzed URL.
type PageAnalysisResult struct {
	URL           string               `json:"url"`
	StatusCode    int                  `json:"status_code"`
	LoadTimeMS    int64                `json:"load_time_ms"`
	SEO           SEOData              `json:"seo"`
	Desktop       *PerformanceResult   `json:"desktop,omitempty"`
	Mobile        *PerformanceResult   `json:"mobile,omitempty"`
	Accessibility []AccessibilityIssue `json:"accessibility"`
	BrokenLinks   []BrokenLink         `json:"broken_links"`
	ImageIssues   []ImageIssue         `json:"image_issues"`
	Content       ContentAnalysis      `json:"content"`
	MobileCheck   *MobileAnalysis      `json:"mobile_check,omitempty"`
	CheckErrors   map[string]string    `json:"check_errors,omitempty"`
	AnalyzedAt    time.Time            `json:"analyzed_at"`
}

// SEOData is the result of SEO markup extraction for a page.
type SEOData struct {
	Title            string            `json:"title"`
	MetaDescription  string            `json:"meta_description"`
	MetaKeywords     string            `json:"meta_keywords"`
	MetaRobots       string            `json:"meta_robots"`
	H1               []string          `json:"h1"`
	H2               []string          `json:"h2"`
	H3               []string          `json:"h3"`
	ImagesTotal      int               `json:"images_total"`
	ImagesWithoutAlt int               `json:"images_without_alt"`
	InternalLinks    int               `json:"internal_links"`
	ExternalLinks    int               `json:"external_links"`
	WordCount        int               `json:"word_count"`
	Canonical        string            `json:"canonical"`
	HreflangCount    int               `json:"hreflang_count"`
	JSONLDCount      int               `json:"json_ld_count"`
	OpenGraph        map[string]string `json:"open_graph"`
	TwitterCard      map[string]string `json:"twitter_card"`
	Issues           []SEOIssue        `json:"issues"`
	Score            int               `json:"score"`
}

// SEOIssue is one rule violation found by extraction.
type SEOIssue struct {
	Type     string `json:"type"`
	Severity string `json:"severity"`
	Impact   string `json:"impact"`
	Message  string `json:"message"`
}

// AccessibilityIssue is one heuristic accessibility finding.
type AccessibilityIssue struct {
	Type     string `json:"type"`
	Severity string `json:"severity"`
	Impact   string `json:"impact"`
	Message  string `json:"message"`
	Element  string `json:"element,omitempty"`
}

// BrokenLink is a sampled link whose existence probe failed.
type BrokenLink struct {
	URL        string `json:"url"`
	StatusCode int    `json:"status_code,omitempty"`
	Error      string `json:"error,omitempty"`
}

// ImageIssue flags an image problem. Category is "accessibility" or "performance".
type ImageIssue struct {
	Src      string `json:"src"`
	Type     string `json:"type"`
	Category string `json:"category"`
	Message  string `json:"message"`
}

// ContentAnalysis summarizes the rendered body text.
type ContentAnalysis struct {
	WordCount        int     `json:"word_count"`
	SentenceCount    int     `json:"sentence_count"`
	IsThinContent    bool    `json:"is_thin_content"`
	ReadabilityScore float64 `json:"readability_score"`
}

// MobileAnalysis is the result of loading the page in a mobile tab.
type MobileAnalysis struct {
	HasViewportMeta  bool   `json:"has_viewport_meta"`
	ViewportContent  string `json:"viewport_content,omitempty"`
	HorizontalScroll bool   `json:"horizontal_scroll"`
	MobileFriendly   bool   `json:"mobile_friendly"`
}
