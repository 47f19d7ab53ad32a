package analyzer

import (
	"fmt"
	"strings"

	"github.com/user/seo-audit-service/internal/entity"
)

const (
	minTitleLength       = 30
	maxTitleLength       = 60
	minDescriptionLength = 120
	maxDescriptionLength = 160
	thinContentWords     = 300
)

var impactPenalty = map[string]int{
	entity.ImpactHigh:   20,
	entity.ImpactMedium: 10,
	entity.ImpactLow:    5,
}

func issue(typ, severity, impact, msg string) entity.SEOIssue {
	return entity.SEOIssue{Type: typ, Severity: severity, Impact: impact, Message: msg}
}

// seoIssues applies the rule set to extracted data. Order is stable.
func seoIssues(d entity.SEOData) []entity.SEOIssue {
	issues := []entity.SEOIssue{}

	switch n := len([]rune(d.Title)); {
	case n == 0:
		issues = append(issues, issue("missing_title", entity.SeverityError, entity.ImpactHigh, "Page has no title tag"))
	case n < minTitleLength:
		issues = append(issues, issue("title_too_short", entity.SeverityWarning, entity.ImpactMedium,
			fmt.Sprintf("Title is %d characters, recommended %d-%d", n, minTitleLength, maxTitleLength)))
	case n > maxTitleLength:
		issues = append(issues, issue("title_too_long", entity.SeverityWarning, entity.ImpactMedium,
			fmt.Sprintf("Title is %d characters, recommended %d-%d", n, minTitleLength, maxTitleLength)))
	}

	switch n := len([]rune(d.MetaDescription)); {
	case n == 0:
		issues = append(issues, issue("missing_meta_description", entity.SeverityError, entity.ImpactHigh, "Page has no meta description"))
	case n < minDescriptionLength:
		issues = append(issues, issue("meta_description_too_short", entity.SeverityWarning, entity.ImpactLow,
			fmt.Sprintf("Meta description is %d characters, recommended %d-%d", n, minDescriptionLength, maxDescriptionLength)))
	case n > maxDescriptionLength:
		issues = append(issues, issue("meta_description_too_long", entity.SeverityWarning, entity.ImpactLow,
			fmt.Sprintf("Meta description is %d characters, recommended %d-%d", n, minDescriptionLength, maxDescriptionLength)))
	}

	switch len(d.H1) {
	case 0:
		issues = append(issues, issue("missing_h1", entity.SeverityError, entity.ImpactHigh, "Page has no H1 heading"))
	case 1:
	default:
		issues = append(issues, issue("multiple_h1", entity.SeverityWarning, entity.ImpactMedium,
			fmt.Sprintf("Page has %d H1 headings", len(d.H1))))
	}

	if d.ImagesWithoutAlt > 0 {
		issues = append(issues, issue("images_missing_alt", entity.SeverityWarning, entity.ImpactMedium,
			fmt.Sprintf("%d of %d images have no alt text", d.ImagesWithoutAlt, d.ImagesTotal)))
	}
	if strings.Contains(strings.ToLower(d.MetaRobots), "noindex") {
		issues = append(issues, issue("noindex", entity.SeverityWarning, entity.ImpactMedium, "Page is excluded from indexing by meta robots"))
	}
	if d.WordCount < thinContentWords {
		issues = append(issues, issue("thin_content", entity.SeverityWarning, entity.ImpactMedium,
			fmt.Sprintf("Page has %d words, below %d", d.WordCount, thinContentWords)))
	}
	if d.Canonical == "" {
		issues = append(issues, issue("missing_canonical", entity.SeverityInfo, entity.ImpactLow, "Page has no canonical link"))
	}
	if len(d.OpenGraph) == 0 {
		issues = append(issues, issue("missing_open_graph", entity.SeverityInfo, entity.ImpactLow, "Page has no Open Graph tags"))
	}
	if d.JSONLDCount == 0 {
		issues = append(issues, issue("missing_structured_data", entity.SeverityInfo, entity.ImpactLow, "Page has no JSON-LD structured data"))
	}
	return issues
}

// seoScore starts at 100 and subtracts a penalty per issue impact, floored at 0.
func seoScore(issues []entity.SEOIssue) int {
	score := 100
	for _, is := range issues {
		score -= impactPenalty[is.Impact]
	}
	if score < 0 {
		return 0
	}
	return score
}
