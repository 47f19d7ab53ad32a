package performance

import "github.com/user/seo-audit-service/internal/entity"

// Core Web Vitals thresholds. A value equal to a bound belongs to the better class.
const (
	LCPGoodMS = 2500
	LCPPoorMS = 4000
	FIDGoodMS = 100
	FIDPoorMS = 300
	CLSGood   = 0.1
	CLSPoor   = 0.25
)

func classify(v, good, poor float64) entity.VitalRating {
	switch {
	case v <= good:
		return entity.RatingGood
	case v <= poor:
		return entity.RatingNeedsImprovement
	default:
		return entity.RatingPoor
	}
}

func ClassifyLCP(ms float64) entity.VitalRating { return classify(ms, LCPGoodMS, LCPPoorMS) }
func ClassifyFID(ms float64) entity.VitalRating { return classify(ms, FIDGoodMS, FIDPoorMS) }
func ClassifyCLS(v float64) entity.VitalRating  { return classify(v, CLSGood, CLSPoor) }

// ClassifyVitals rates LCP, FID and CLS together.
func ClassifyVitals(lcp, fid, cls float64) entity.VitalsRating {
	return entity.VitalsRating{
		LCP: ClassifyLCP(lcp),
		FID: ClassifyFID(fid),
		CLS: ClassifyCLS(cls),
	}
}
