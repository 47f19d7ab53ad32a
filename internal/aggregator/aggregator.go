// Package aggregator folds per-page analysis results into the audit report.
package aggregator

import (
	"cmp"
	"math"
	"slices"
	"strings"

	"github.com/user/seo-audit-service/internal/entity"
	"github.com/user/seo-audit-service/internal/performance"
)

// Defaults used when no page carries desktop performance data.
const (
	DefaultPerformanceScore = 50
	DefaultLCP              = 2500
	DefaultFID              = 100
	DefaultCLS              = 0.1

	TopOpportunities = 5

	thinContentWords = 300
	missingDimension = "missing_dimensions"
)

// Aggregate builds the report for pages. It has no side effects and the
// output depends only on its inputs.
func Aggregate(pages []entity.PageAnalysisResult, cfg entity.AuditConfig) entity.AggregatedReport {
	meanSEO := meanSEOScore(pages)
	vitals := meanVitals(pages)

	report := entity.AggregatedReport{
		AuditType:     cfg.AuditType,
		TechnicalSEO:  technicalSEO(pages, meanSEO),
		Content:       content(pages),
		Performance:   performanceReport(pages, vitals),
		Accessibility: accessibility(pages, meanSEO),
		Pages:         slices.Clone(pages),
	}
	if report.Pages == nil {
		report.Pages = []entity.PageAnalysisResult{}
	}
	report.Overview = overview(pages, meanSEO, vitals)
	return report
}

func overview(pages []entity.PageAnalysisResult, meanSEO float64, vitals entity.VitalsValues) entity.Overview {
	meanPerf, ok := meanOf(pages, func(p entity.PageAnalysisResult) (float64, bool) {
		if p.Desktop == nil {
			return 0, false
		}
		return float64(p.Desktop.Scores.Performance), true
	})
	if !ok {
		meanPerf = DefaultPerformanceScore
	}

	ov := entity.Overview{
		Score:         int(math.Round((meanSEO + meanPerf) / 2)),
		PagesAnalyzed: len(pages),
		CoreWebVitals: vitals,
	}
	for _, p := range pages {
		ov.TotalLoadMS += p.LoadTimeMS
		for _, is := range p.SEO.Issues {
			countImpact(&ov, is.Impact)
		}
	}
	ov.TotalIssues = ov.CriticalIssues + ov.Warnings + ov.Notices
	if len(pages) > 0 {
		ov.AvgLoadMS = ov.TotalLoadMS / int64(len(pages))
	}
	return ov
}

func countImpact(ov *entity.Overview, impact string) {
	switch impact {
	case entity.ImpactHigh:
		ov.CriticalIssues++
	case entity.ImpactMedium:
		ov.Warnings++
	default:
		ov.Notices++
	}
}

func technicalSEO(pages []entity.PageAnalysisResult, meanSEO float64) entity.TechnicalSEOReport {
	r := entity.TechnicalSEOReport{Score: int(math.Round(meanSEO))}
	for _, p := range pages {
		s := p.SEO
		if s.Title == "" {
			r.PagesMissingTitle++
		}
		if s.MetaDescription == "" {
			r.PagesMissingMetaDesc++
		}
		if len(s.H1) == 0 {
			r.PagesMissingH1++
		}
		if s.Canonical == "" {
			r.PagesMissingCanonical++
		}
		if strings.Contains(strings.ToLower(s.MetaRobots), "noindex") {
			r.PagesNoIndex++
		}
		if s.JSONLDCount > 0 {
			r.PagesWithStructuredData++
		}
		if s.HreflangCount > 0 {
			r.PagesWithHreflang++
		}
		if p.StatusCode >= 400 {
			r.PagesWithErrorStatus++
		}
		r.BrokenLinks += len(p.BrokenLinks)
	}
	return r
}

func content(pages []entity.PageAnalysisResult) entity.ContentReport {
	r := entity.ContentReport{}
	titles := map[string]int{}
	descriptions := map[string]int{}
	for _, p := range pages {
		r.TotalWords += p.SEO.WordCount
		if p.SEO.WordCount < thinContentWords {
			r.ThinContentPages++
		}
		if p.SEO.Title != "" {
			titles[p.SEO.Title]++
		}
		if p.SEO.MetaDescription != "" {
			descriptions[p.SEO.MetaDescription]++
		}
	}
	if len(pages) > 0 {
		r.AvgWordCount = r.TotalWords / len(pages)
	}
	// Pages without a content check have no sentences and are left out.
	readability, _ := meanOf(pages, func(p entity.PageAnalysisResult) (float64, bool) {
		return p.Content.ReadabilityScore, p.Content.SentenceCount > 0
	})
	r.AvgReadability = math.Round(readability*10) / 10
	r.DuplicateTitles = duplicates(titles)
	r.DuplicateDescriptions = duplicates(descriptions)
	return r
}

func performanceReport(pages []entity.PageAnalysisResult, vitals entity.VitalsValues) entity.PerformanceReport {
	r := entity.PerformanceReport{CoreWebVitals: vitals}

	desktop, _ := meanOf(pages, func(p entity.PageAnalysisResult) (float64, bool) {
		if p.Desktop == nil {
			return 0, false
		}
		return float64(p.Desktop.Scores.Performance), true
	})
	mobile, _ := meanOf(pages, func(p entity.PageAnalysisResult) (float64, bool) {
		if p.Mobile == nil {
			return 0, false
		}
		return float64(p.Mobile.Scores.Performance), true
	})
	r.AvgDesktopScore = int(math.Round(desktop))
	r.AvgMobileScore = int(math.Round(mobile))

	best := map[string]entity.Opportunity{}
	for _, p := range pages {
		if p.Desktop != nil {
			r.PagesMeasured++
			for _, o := range p.Desktop.Opportunities {
				if cur, ok := best[o.ID]; !ok || o.SavingsMS > cur.SavingsMS {
					best[o.ID] = o
				}
			}
		}
		for _, img := range p.ImageIssues {
			if img.Type == missingDimension {
				r.ImagesMissingSize++
			}
		}
	}

	r.TopOpportunities = make([]entity.Opportunity, 0, len(best))
	for _, o := range best {
		r.TopOpportunities = append(r.TopOpportunities, o)
	}
	slices.SortFunc(r.TopOpportunities, func(a, b entity.Opportunity) int {
		if c := cmp.Compare(b.SavingsMS, a.SavingsMS); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
	if len(r.TopOpportunities) > TopOpportunities {
		r.TopOpportunities = r.TopOpportunities[:TopOpportunities]
	}
	return r
}

func accessibility(pages []entity.PageAnalysisResult, meanSEO float64) entity.AccessibilityReport {
	r := entity.AccessibilityReport{WCAGLevel: wcagLevel(meanSEO)}
	for _, p := range pages {
		r.ImagesMissingAlt += p.SEO.ImagesWithoutAlt
		for _, is := range p.Accessibility {
			r.TotalIssues++
			switch is.Severity {
			case entity.SeverityError:
				r.Errors++
			case entity.SeverityWarning:
				r.Warnings++
			}
		}
	}
	lh, _ := meanOf(pages, func(p entity.PageAnalysisResult) (float64, bool) {
		if p.Desktop == nil {
			return 0, false
		}
		return float64(p.Desktop.Scores.Accessibility), true
	})
	r.AvgLighthouseScore = int(math.Round(lh))
	return r
}

func wcagLevel(meanSEO float64) string {
	switch {
	case meanSEO > 80:
		return entity.WCAGLevelAA
	case meanSEO > 60:
		return entity.WCAGLevelA
	default:
		return entity.WCAGLevelNonCompliant
	}
}

// meanVitals averages desktop LCP, FID and CLS. Defaults apply when no page
// was measured.
func meanVitals(pages []entity.PageAnalysisResult) entity.VitalsValues {
	v := entity.VitalsValues{LCP: DefaultLCP, FID: DefaultFID, CLS: DefaultCLS}
	var n int
	var lcp, fid, cls float64
	for _, p := range pages {
		if p.Desktop == nil {
			continue
		}
		n++
		lcp += p.Desktop.Metrics.LargestContentfulPaint
		fid += p.Desktop.Metrics.FirstInputDelay
		cls += p.Desktop.Metrics.CumulativeLayoutShift
	}
	if n > 0 {
		v.LCP = lcp / float64(n)
		v.FID = fid / float64(n)
		v.CLS = cls / float64(n)
	}
	v.Rating = performance.ClassifyVitals(v.LCP, v.FID, v.CLS)
	return v
}

func meanSEOScore(pages []entity.PageAnalysisResult) float64 {
	m, _ := meanOf(pages, func(p entity.PageAnalysisResult) (float64, bool) {
		return float64(p.SEO.Score), true
	})
	return m
}

// meanOf averages the values pick accepts. ok is false when none were accepted.
func meanOf(pages []entity.PageAnalysisResult, pick func(entity.PageAnalysisResult) (float64, bool)) (mean float64, ok bool) {
	var sum float64
	var n int
	for _, p := range pages {
		if v, ok := pick(p); ok {
			sum += v
			n++
		}
	}
	if n == 0 {
		return 0, false
	}
	return sum / float64(n), true
}

func duplicates(counts map[string]int) []string {
	out := []string{}
	for s, n := range counts {
		if n > 1 {
			out = append(out, s)
		}
	}
	slices.Sort(out)
	return out
}
