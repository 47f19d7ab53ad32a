package analyzer

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/user/seo-audit-service/internal/entity"
)

func parsePage(t *testing.T, rawURL, html string) *page {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)
	return newPage(rawURL, doc)
}

func issueTypes(issues []entity.SEOIssue) []string {
	out := make([]string, 0, len(issues))
	for _, is := range issues {
		out = append(out, is.Type)
	}
	return out
}

func TestExtractSEO(t *testing.T) {
	p := parsePage(t, "https://shop.example.com/", samplePage)

	data, err := extractSEO(p)
	require.NoError(t, err)

	assert.Equal(t, "Handmade Ceramic Mugs and Bowls for Every Kitchen", data.Title)
	assert.Equal(t, "Shop handmade ceramic mugs and bowls.", data.MetaDescription)
	assert.Equal(t, "ceramics, mugs", data.MetaKeywords)
	assert.Equal(t, "index, follow", data.MetaRobots)
	assert.Equal(t, []string{"Ceramics"}, data.H1)
	assert.Equal(t, []string{"Mugs", "Bowls"}, data.H2)
	assert.Equal(t, []string{"Care"}, data.H3)
	assert.Equal(t, 2, data.ImagesTotal)
	assert.Equal(t, 1, data.ImagesWithoutAlt)
	assert.Equal(t, 2, data.InternalLinks)
	assert.Equal(t, 1, data.ExternalLinks)
	assert.Equal(t, 18, data.WordCount)
	assert.Equal(t, "https://shop.example.com/", data.Canonical)
	assert.Equal(t, 2, data.HreflangCount)
	assert.Equal(t, 1, data.JSONLDCount)
	assert.Equal(t, map[string]string{"og:title": "Handmade Ceramics"}, data.OpenGraph)
	assert.Equal(t, map[string]string{"twitter:card": "summary"}, data.TwitterCard)

	assert.Equal(t, []string{"meta_description_too_short", "images_missing_alt", "thin_content"}, issueTypes(data.Issues))
	assert.Equal(t, 75, data.Score)
}

func TestExtractSEOEmptyDocument(t *testing.T) {
	p := parsePage(t, "https://example.com/", "<html><head></head><body></body></html>")

	data, err := extractSEO(p)
	require.NoError(t, err)

	assert.Empty(t, data.H1)
	assert.NotNil(t, data.H1)
	assert.Equal(t, []string{
		"missing_title",
		"missing_meta_description",
		"missing_h1",
		"thin_content",
		"missing_canonical",
		"missing_open_graph",
		"missing_structured_data",
	}, issueTypes(data.Issues))
	// 3 high, 1 medium, 3 low
	assert.Equal(t, 15, data.Score)
}

func TestSEOIssueRules(t *testing.T) {
	long := strings.Repeat("a", 61)
	base := entity.SEOData{
		Title:           strings.Repeat("t", 45),
		MetaDescription: strings.Repeat("d", 140),
		H1:              []string{"one"},
		WordCount:       500,
		Canonical:       "https://example.com/",
		OpenGraph:       map[string]string{"og:title": "x"},
		JSONLDCount:     1,
	}
	assert.Empty(t, seoIssues(base))
	assert.Equal(t, 100, seoScore(seoIssues(base)))

	tests := []struct {
		name   string
		mutate func(*entity.SEOData)
		want   entity.SEOIssue
	}{
		{"long title", func(d *entity.SEOData) { d.Title = long }, entity.SEOIssue{Type: "title_too_long", Severity: entity.SeverityWarning, Impact: entity.ImpactMedium}},
		{"short title", func(d *entity.SEOData) { d.Title = "Home" }, entity.SEOIssue{Type: "title_too_short", Severity: entity.SeverityWarning, Impact: entity.ImpactMedium}},
		{"long description", func(d *entity.SEOData) { d.MetaDescription = strings.Repeat("d", 161) }, entity.SEOIssue{Type: "meta_description_too_long", Severity: entity.SeverityWarning, Impact: entity.ImpactLow}},
		{"two h1", func(d *entity.SEOData) { d.H1 = []string{"a", "b"} }, entity.SEOIssue{Type: "multiple_h1", Severity: entity.SeverityWarning, Impact: entity.ImpactMedium}},
		{"noindex", func(d *entity.SEOData) { d.MetaRobots = "NOINDEX, nofollow" }, entity.SEOIssue{Type: "noindex", Severity: entity.SeverityWarning, Impact: entity.ImpactMedium}},
		{"no canonical", func(d *entity.SEOData) { d.Canonical = "" }, entity.SEOIssue{Type: "missing_canonical", Severity: entity.SeverityInfo, Impact: entity.ImpactLow}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := base
			tt.mutate(&d)
			issues := seoIssues(d)
			require.Len(t, issues, 1)
			assert.Equal(t, tt.want.Type, issues[0].Type)
			assert.Equal(t, tt.want.Severity, issues[0].Severity)
			assert.Equal(t, tt.want.Impact, issues[0].Impact)
			assert.Equal(t, 100-impactPenalty[tt.want.Impact], seoScore(issues))
		})
	}
}

func TestCheckAccessibility(t *testing.T) {
	p := parsePage(t, "https://example.com/", `<html><body>
		<h1>A</h1><h1>B</h1>
		<img src="/x.png">
		<img src="/y.png" alt="  ">
		<img src="/z.png" alt="ok">
		<label for="email">Email</label><input id="email" name="email">
		<label>Name <input name="name"></label>
		<input name="q" aria-label="Search">
		<input type="hidden" name="token">
		<input name="orphan">
		<textarea name="notes"></textarea>
	</body></html>`)

	issues, err := checkAccessibility(p)
	require.NoError(t, err)

	var types []string
	for _, is := range issues {
		types = append(types, is.Type)
	}
	assert.Equal(t, []string{
		"image_missing_alt",
		"image_missing_alt",
		"multiple_h1",
		"missing_lang",
		"unlabeled_input",
		"unlabeled_input",
	}, types)
	assert.Equal(t, entity.SeverityError, issues[0].Severity)
	assert.Equal(t, `input[name="orphan"]`, issues[4].Element)
	assert.Equal(t, `textarea[name="notes"]`, issues[5].Element)
}

func TestCheckImages(t *testing.T) {
	p := parsePage(t, "https://example.com/", `<html><body>
		<img src="/full.png" alt="full" width="10" height="10">
		<img src="/noalt.png" width="10" height="10">
		<img src="/nosize.png" alt="x" width="10">
	</body></html>`)

	issues, err := checkImages(p)
	require.NoError(t, err)
	require.Len(t, issues, 2)
	assert.Equal(t, entity.ImageIssue{Src: "/noalt.png", Type: "missing_alt", Category: CategoryAccessibility, Message: "Image has no alt text"}, issues[0])
	assert.Equal(t, "/nosize.png", issues[1].Src)
	assert.Equal(t, CategoryPerformance, issues[1].Category)
}

func TestBodyTextSeparatesAdjacentElements(t *testing.T) {
	p := parsePage(t, "https://example.com/",
		`<html><body><h2>Mugs</h2><h2>Bowls</h2><ul><li>Red</li><li>Blue</li></ul><p>Glazed.</p><script>var x = "skip me";</script></body></html>`)

	assert.Equal(t, "Mugs Bowls Red Blue Glazed.", p.bodyText())

	data, err := extractSEO(p)
	require.NoError(t, err)
	assert.Equal(t, 5, data.WordCount)

	content, err := checkContent(p)
	require.NoError(t, err)
	assert.Equal(t, 5, content.WordCount)
}
