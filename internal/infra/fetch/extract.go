package fetch

import (
	"bytes"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"

	"github.com/bryanwahyu/domain-intel/internal/domain/analysis"
)

const (
	maxHeadings = 20
	maxLinks    = 10
)

// Extract parses an HTML page into page content and metadata. Main text
// comes from readability, falling back to the stripped body text.
func Extract(body []byte, pageURL *url.URL, maxContent int) (*analysis.FetchResult, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	page := analysis.PageContent{
		URL:      pageURL.String(),
		Title:    squash(doc.Find("title").First().Text()),
		Language: strings.TrimSpace(doc.Find("html").AttrOr("lang", "")),
	}
	page.Description = metaContent(doc, `meta[name="description"]`)
	if page.Description == "" {
		page.Description = metaContent(doc, `meta[property="og:description"]`)
	}

	doc.Find("h1, h2, h3").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if t := squash(s.Text()); t != "" {
			page.Headings = append(page.Headings, t)
		}
		return len(page.Headings) < maxHeadings
	})

	seen := map[string]bool{}
	doc.Find("a[href]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		href, _ := s.Attr("href")
		if link, ok := internalLink(pageURL, href); ok && !seen[link] {
			seen[link] = true
			page.Links = append(page.Links, link)
		}
		return len(page.Links) < maxLinks
	})

	meta := analysis.PageMetadata{
		OGTags:      map[string]string{},
		TwitterTags: map[string]string{},
		Keywords:    metaContent(doc, `meta[name="keywords"]`),
	}
	doc.Find("meta").Each(func(_ int, s *goquery.Selection) {
		content := strings.TrimSpace(s.AttrOr("content", ""))
		if content == "" {
			return
		}
		if p := s.AttrOr("property", ""); strings.HasPrefix(p, "og:") {
			meta.OGTags[p] = content
		}
		if n := s.AttrOr("name", ""); strings.HasPrefix(n, "twitter:") {
			meta.TwitterTags[n] = content
		}
	})

	text := ""
	if article, err := readability.FromReader(bytes.NewReader(body), pageURL); err == nil {
		text = squash(article.TextContent)
	}
	if text == "" {
		sel := doc.Find("body").Clone()
		sel.Find("script, style, nav, footer, header, noscript").Remove()
		text = squash(sel.Text())
	}
	page.Content = truncateRunes(text, maxContent)

	return &analysis.FetchResult{Page: page, Metadata: meta}, nil
}

func metaContent(doc *goquery.Document, sel string) string {
	return strings.TrimSpace(doc.Find(sel).First().AttrOr("content", ""))
}

func internalLink(base *url.URL, href string) (string, bool) {
	href = strings.TrimSpace(href)
	if href == "" || strings.HasPrefix(href, "#") || strings.HasPrefix(href, "mailto:") || strings.HasPrefix(href, "javascript:") {
		return "", false
	}
	ref, err := url.Parse(href)
	if err != nil {
		return "", false
	}
	abs := base.ResolveReference(ref)
	if abs.Scheme != "http" && abs.Scheme != "https" {
		return "", false
	}
	if strings.TrimPrefix(abs.Hostname(), "www.") != strings.TrimPrefix(base.Hostname(), "www.") {
		return "", false
	}
	abs.Fragment = ""
	return abs.String(), true
}

func squash(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func truncateRunes(s string, n int) string {
	if n <= 0 {
		return s
	}
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
