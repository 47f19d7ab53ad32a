package entity

// Strategy names the emulation profile of a performance run.
type Strategy string

const (
	StrategyDesktop Strategy = "desktop"
	StrategyMobile  Strategy = "mobile"
)

// VitalRating classifies a Core Web Vital value.
type VitalRating string

const (
	RatingGood             VitalRating = "good"
	RatingNeedsImprovement VitalRating = "needs_improvement"
	RatingPoor             VitalRating = "poor"
)

// PerformanceResult is the normalized output of one Lighthouse run.
type PerformanceResult struct {
	Strategy       Strategy       `json:"strategy"`
	Scores         CategoryScores `json:"scores"`
	Metrics        CoreMetrics    `json:"metrics"`
	Opportunities  []Opportunity  `json:"opportunities"`
	Diagnostics    []Diagnostic   `json:"diagnostics"`
	MobileFriendly bool           `json:"mobile_friendly"`
	CoreWebVitals  VitalsRating   `json:"core_web_vitals"`
}

// CategoryScores are the five Lighthouse category scores on a 0-100 scale.
type CategoryScores struct {
	Performance   int `json:"performance"`
	Accessibility int `json:"accessibility"`
	BestPractices int `json:"best_practices"`
	SEO           int `json:"seo"`
	PWA           int `json:"pwa"`
}

// CoreMetrics holds lab metrics in milliseconds, except CLS which is unitless.
type CoreMetrics struct {
	FirstContentfulPaint   float64 `json:"first_contentful_paint"`
	LargestContentfulPaint float64 `json:"largest_contentful_paint"`
	FirstInputDelay        float64 `json:"first_input_delay"`
	CumulativeLayoutShift  float64 `json:"cumulative_layout_shift"`
	SpeedIndex             float64 `json:"speed_index"`
	TotalBlockingTime      float64 `json:"total_blocking_time"`
	TimeToInteractive      float64 `json:"time_to_interactive"`
}

// Opportunity is an audit with estimated savings.
type Opportunity struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Score       float64 `json:"score"`
	SavingsMS   float64 `json:"savings_ms"`
}

// Diagnostic is a failing informative audit.
type Diagnostic struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Score       float64 `json:"score"`
	Severity    int     `json:"severity"`
}

// VitalsRating classifies LCP, FID and CLS.
type VitalsRating struct {
	LCP VitalRating `json:"lcp"`
	FID VitalRating `json:"fid"`
	CLS VitalRating `json:"cls"`
}
