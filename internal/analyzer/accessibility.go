package analyzer

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/user/seo-audit-service/internal/entity"
)

func checkAccessibility(p *page) ([]entity.AccessibilityIssue, error) {
	doc := p.doc
	issues := []entity.AccessibilityIssue{}

	doc.Find("img").Each(func(i int, s *goquery.Selection) {
		if hasAlt(s) {
			return
		}
		src, _ := s.Attr("src")
		issues = append(issues, entity.AccessibilityIssue{
			Type:     "image_missing_alt",
			Severity: entity.SeverityError,
			Impact:   entity.ImpactHigh,
			Message:  "Image has no alternative text",
			Element:  fmt.Sprintf("img[%d] %s", i, src),
		})
	})

	switch n := doc.Find("h1").Length(); {
	case n == 0:
		issues = append(issues, entity.AccessibilityIssue{
			Type:     "missing_h1",
			Severity: entity.SeverityError,
			Impact:   entity.ImpactHigh,
			Message:  "Page has no H1 heading",
		})
	case n > 1:
		issues = append(issues, entity.AccessibilityIssue{
			Type:     "multiple_h1",
			Severity: entity.SeverityWarning,
			Impact:   entity.ImpactMedium,
			Message:  fmt.Sprintf("Page has %d H1 headings", n),
		})
	}

	if lang, _ := doc.Find("html").First().Attr("lang"); strings.TrimSpace(lang) == "" {
		issues = append(issues, entity.AccessibilityIssue{
			Type:     "missing_lang",
			Severity: entity.SeverityWarning,
			Impact:   entity.ImpactMedium,
			Message:  "The html element has no lang attribute",
		})
	}

	labelled := map[string]bool{}
	doc.Find("label[for]").Each(func(_ int, s *goquery.Selection) {
		id, _ := s.Attr("for")
		labelled[id] = true
	})
	doc.Find("input, select, textarea").Each(func(_ int, s *goquery.Selection) {
		if !needsLabel(s) || hasLabel(s, labelled) {
			return
		}
		name, _ := s.Attr("name")
		issues = append(issues, entity.AccessibilityIssue{
			Type:     "unlabeled_input",
			Severity: entity.SeverityWarning,
			Impact:   entity.ImpactMedium,
			Message:  "Form control has no associated label",
			Element:  fmt.Sprintf("%s[name=%q]", goquery.NodeName(s), name),
		})
	})

	return issues, nil
}

func needsLabel(s *goquery.Selection) bool {
	if goquery.NodeName(s) != "input" {
		return true
	}
	switch t, _ := s.Attr("type"); strings.ToLower(t) {
	case "hidden", "submit", "button", "reset", "image":
		return false
	}
	return true
}

func hasLabel(s *goquery.Selection, labelled map[string]bool) bool {
	if id, ok := s.Attr("id"); ok && labelled[id] {
		return true
	}
	for _, attr := range []string{"aria-label", "aria-labelledby", "title"} {
		if v, ok := s.Attr(attr); ok && strings.TrimSpace(v) != "" {
			return true
		}
	}
	return s.ParentsFiltered("label").Length() > 0
}
