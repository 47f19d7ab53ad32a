package performance

import (
	"errors"
	"math"
	"sort"

	"github.com/tidwall/gjson"
	"github.com/user/seo-audit-service/internal/entity"
)

var ErrInvalidReport = errors.New("invalid lighthouse report")

var metricAudits = map[string]func(*entity.CoreMetrics, float64){
	"first-contentful-paint":   func(m *entity.CoreMetrics, v float64) { m.FirstContentfulPaint = v },
	"largest-contentful-paint": func(m *entity.CoreMetrics, v float64) { m.LargestContentfulPaint = v },
	"max-potential-fid":        func(m *entity.CoreMetrics, v float64) { m.FirstInputDelay = v },
	"cumulative-layout-shift":  func(m *entity.CoreMetrics, v float64) { m.CumulativeLayoutShift = v },
	"speed-index":              func(m *entity.CoreMetrics, v float64) { m.SpeedIndex = v },
	"total-blocking-time":      func(m *entity.CoreMetrics, v float64) { m.TotalBlockingTime = v },
	"interactive":              func(m *entity.CoreMetrics, v float64) { m.TimeToInteractive = v },
}

// Normalize reduces a raw Lighthouse JSON report to a PerformanceResult.
func Normalize(raw []byte, strategy entity.Strategy) (*entity.PerformanceResult, error) {
	if !gjson.ValidBytes(raw) {
		return nil, ErrInvalidReport
	}
	report := gjson.ParseBytes(raw)
	if !report.Get("categories").Exists() {
		return nil, ErrInvalidReport
	}

	res := &entity.PerformanceResult{
		Strategy: strategy,
		Scores: entity.CategoryScores{
			Performance:   categoryScore(report, "performance"),
			Accessibility: categoryScore(report, "accessibility"),
			BestPractices: categoryScore(report, "best-practices"),
			SEO:           categoryScore(report, "seo"),
			PWA:           categoryScore(report, "pwa"),
		},
		Opportunities: []entity.Opportunity{},
		Diagnostics:   []entity.Diagnostic{},
	}

	audits := report.Get("audits")
	for id, set := range metricAudits {
		set(&res.Metrics, audits.Get(id+".numericValue").Float())
	}

	audits.ForEach(func(key, audit gjson.Result) bool {
		score := audit.Get("score")
		if score.Type == gjson.Null || !score.Exists() || score.Float() >= 1 {
			return true
		}
		if audit.Get("details.type").String() == "opportunity" {
			res.Opportunities = append(res.Opportunities, entity.Opportunity{
				ID:          key.String(),
				Title:       audit.Get("title").String(),
				Description: audit.Get("description").String(),
				Score:       score.Float(),
				SavingsMS:   audit.Get("details.overallSavingsMs").Float(),
			})
		}
		return true
	})

	report.Get(`categories.performance.auditRefs.#(group=="diagnostics")#.id`).ForEach(func(_, id gjson.Result) bool {
		audit := audits.Get(id.String())
		score := audit.Get("score")
		if score.Type == gjson.Null || !score.Exists() || score.Float() >= 1 {
			return true
		}
		res.Diagnostics = append(res.Diagnostics, entity.Diagnostic{
			ID:          id.String(),
			Title:       audit.Get("title").String(),
			Description: audit.Get("description").String(),
			Score:       score.Float(),
			Severity:    severity(score.Float()),
		})
		return true
	})

	sort.SliceStable(res.Opportunities, func(i, j int) bool {
		a, b := res.Opportunities[i], res.Opportunities[j]
		if a.SavingsMS != b.SavingsMS {
			return a.SavingsMS > b.SavingsMS
		}
		return a.ID < b.ID
	})
	sort.SliceStable(res.Diagnostics, func(i, j int) bool {
		a, b := res.Diagnostics[i], res.Diagnostics[j]
		if a.Severity != b.Severity {
			return a.Severity > b.Severity
		}
		return a.ID < b.ID
	})

	res.MobileFriendly = audits.Get("viewport.score").Float() == 1
	res.CoreWebVitals = ClassifyVitals(
		res.Metrics.LargestContentfulPaint,
		res.Metrics.FirstInputDelay,
		res.Metrics.CumulativeLayoutShift,
	)
	return res, nil
}

func categoryScore(report gjson.Result, id string) int {
	return int(math.Round(report.Get("categories." + id + ".score").Float() * 100))
}

// severity maps a failing audit score to 1 (minor) .. 3 (severe).
func severity(score float64) int {
	switch {
	case score < 0.5:
		return 3
	case score < 0.9:
		return 2
	default:
		return 1
	}
}
