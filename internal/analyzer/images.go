package analyzer

import (
	"github.com/PuerkitoBio/goquery"
	"github.com/user/seo-audit-service/internal/entity"
)

// Image issue categories.
const (
	CategoryAccessibility = "accessibility"
	CategoryPerformance   = "performance"
)

func checkImages(p *page) ([]entity.ImageIssue, error) {
	issues := []entity.ImageIssue{}
	p.doc.Find("img").Each(func(_ int, s *goquery.Selection) {
		src, _ := s.Attr("src")
		if !hasAlt(s) {
			issues = append(issues, entity.ImageIssue{
				Src:      src,
				Type:     "missing_alt",
				Category: CategoryAccessibility,
				Message:  "Image has no alt text",
			})
		}
		_, hasWidth := s.Attr("width")
		_, hasHeight := s.Attr("height")
		if !hasWidth || !hasHeight {
			issues = append(issues, entity.ImageIssue{
				Src:      src,
				Type:     "missing_dimensions",
				Category: CategoryPerformance,
				Message:  "Image has no explicit width and height, which causes layout shift",
			})
		}
	})
	return issues, nil
}
