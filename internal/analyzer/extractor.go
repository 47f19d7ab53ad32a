package analyzer

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/user/seo-audit-service/internal/entity"
	"github.com/user/seo-audit-service/pkg/utils"
	"golang.org/x/net/html"
)

// page is the parsed view of a rendered document shared by all checks.
type page struct {
	url  string
	base *url.URL
	doc  *goquery.Document
}

func newPage(rawURL string, doc *goquery.Document) *page {
	base, err := url.Parse(rawURL)
	if err != nil {
		base = &url.URL{}
	}
	return &page{url: rawURL, base: base, doc: doc}
}

// bodyText returns the visible body text with scripts and styles stripped.
// Text nodes are joined with spaces so adjacent elements never merge into
// one word. The document itself is left untouched.
func (p *page) bodyText() string {
	body := p.doc.Find("body").First().Clone()
	body.Find("script, style, noscript, template").Remove()
	var b strings.Builder
	for _, n := range body.Nodes {
		collectText(n, &b)
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

func collectText(n *html.Node, b *strings.Builder) {
	if n.Type == html.TextNode {
		b.WriteString(n.Data)
		b.WriteByte(' ')
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectText(c, b)
	}
}

// resolve turns href into an absolute URL relative to the page.
func (p *page) resolve(href string) (string, bool) {
	href = strings.TrimSpace(href)
	if href == "" || strings.HasPrefix(href, "#") {
		return "", false
	}
	abs, err := utils.ToAbsoluteURL(p.base, href)
	if err != nil {
		return "", false
	}
	return abs, utils.IsHTTP(abs)
}

func hasAlt(s *goquery.Selection) bool {
	alt, ok := s.Attr("alt")
	return ok && strings.TrimSpace(alt) != ""
}

func textsOf(sel *goquery.Selection) []string {
	out := make([]string, 0, sel.Length())
	sel.Each(func(_ int, s *goquery.Selection) {
		out = append(out, strings.TrimSpace(s.Text()))
	})
	return out
}

// extractSEO parses the rendered markup into SEOData, then scores it.
func extractSEO(p *page) (entity.SEOData, error) {
	doc := p.doc
	data := entity.SEOData{
		Title:       strings.TrimSpace(doc.Find("head title").First().Text()),
		H1:          textsOf(doc.Find("h1")),
		H2:          textsOf(doc.Find("h2")),
		H3:          textsOf(doc.Find("h3")),
		OpenGraph:   map[string]string{},
		TwitterCard: map[string]string{},
	}
	if data.Title == "" {
		data.Title = strings.TrimSpace(doc.Find("title").First().Text())
	}

	doc.Find("meta").Each(func(_ int, s *goquery.Selection) {
		name, _ := s.Attr("name")
		property, _ := s.Attr("property")
		content, _ := s.Attr("content")
		content = strings.TrimSpace(content)

		switch strings.ToLower(name) {
		case "description":
			data.MetaDescription = content
		case "keywords":
			data.MetaKeywords = content
		case "robots":
			data.MetaRobots = content
		}
		key := property
		if key == "" {
			key = name
		}
		switch {
		case strings.HasPrefix(key, "og:") && content != "":
			data.OpenGraph[key] = content
		case strings.HasPrefix(key, "twitter:") && content != "":
			data.TwitterCard[key] = content
		}
	})

	imgs := doc.Find("img")
	data.ImagesTotal = imgs.Length()
	imgs.Each(func(_ int, s *goquery.Selection) {
		if !hasAlt(s) {
			data.ImagesWithoutAlt++
		}
	})

	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		abs, ok := p.resolve(href)
		if !ok {
			return
		}
		u, err := url.Parse(abs)
		if err != nil {
			return
		}
		if utils.SameHost(u.Hostname(), p.base.Hostname()) {
			data.InternalLinks++
		} else {
			data.ExternalLinks++
		}
	})

	data.WordCount = len(strings.Fields(p.bodyText()))
	data.Canonical, _ = doc.Find(`link[rel="canonical"]`).First().Attr("href")
	data.HreflangCount = doc.Find(`link[rel="alternate"][hreflang]`).Length()
	data.JSONLDCount = doc.Find(`script[type="application/ld+json"]`).Length()

	data.Issues = seoIssues(data)
	data.Score = seoScore(data.Issues)
	return data, nil
}
