// Package extract turns raw page HTML into a normalized markdown document.
//
// Extraction is readability-style but deliberately simple: strip the noise,
// find the main content region by trying semantic containers in order, and
// hand the surviving HTML to the markdown converter.
package extract

import (
	"bytes"
	"net/url"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/PuerkitoBio/goquery"
	"github.com/rotisserie/eris"

	"github.com/sells-group/websearch-cli/internal/model"
)

// Containers tried in order when locating the main content region. The first
// one with enough text wins.
var contentSelectors = []string{
	"article",
	"main",
	"[role='main']",
	"#content",
	".post-content",
	".entry-content",
	".article-body",
	".story-body",
	".main-content",
	".content",
}

// Elements that never contribute readable content.
const noiseSelector = "script, style, noscript, iframe, nav, aside, header, footer, form"

const (
	// Minimum text length for a candidate container to be accepted.
	minContentLen = 200
	// Minimum text length for the whole page to be worth keeping.
	minPageLen = 100
)

// FromHTML extracts the main content of a page and converts it to markdown.
// The markdown converter is created per call: it carries per-domain state for
// link resolution and is not shared across workers.
func FromHTML(html []byte, rawURL string) (*model.Document, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(html))
	if err != nil {
		return nil, eris.Wrap(err, "extract: parse html")
	}

	title := pageTitle(doc, rawURL)
	byline := firstAttr(doc, "meta[name='author']", "content")
	siteName := firstAttr(doc, "meta[property='og:site_name']", "content")
	excerpt := firstAttr(doc, "meta[property='og:description']", "content")
	if excerpt == "" {
		excerpt = firstAttr(doc, "meta[name='description']", "content")
	}

	doc.Find(noiseSelector).Remove()

	content := mainContent(doc)
	if content == nil {
		return nil, eris.New("extract: no usable content found")
	}

	conv := md.NewConverter(domainOf(rawURL), true, nil)
	markdown := strings.TrimSpace(conv.Convert(content))
	if markdown == "" {
		return nil, eris.New("extract: content converted to empty markdown")
	}

	return &model.Document{
		Title:    title,
		Byline:   byline,
		Excerpt:  strings.TrimSpace(excerpt),
		SiteName: siteName,
		Markdown: markdown,
		URL:      rawURL,
	}, nil
}

// mainContent returns the first content container with enough text, falling
// back to body when no candidate qualifies. Returns nil when even the body
// has nothing readable.
func mainContent(doc *goquery.Document) *goquery.Selection {
	for _, sel := range contentSelectors {
		candidate := doc.Find(sel).First()
		if candidate.Length() == 0 {
			continue
		}
		if len(strings.TrimSpace(candidate.Text())) >= minContentLen {
			return candidate
		}
	}

	body := doc.Find("body").First()
	if body.Length() == 0 {
		return nil
	}
	if len(strings.TrimSpace(body.Text())) < minPageLen {
		return nil
	}
	return body
}

func pageTitle(doc *goquery.Document, rawURL string) string {
	if t := firstAttr(doc, "meta[property='og:title']", "content"); t != "" {
		return t
	}
	if t := strings.TrimSpace(doc.Find("title").First().Text()); t != "" {
		return t
	}
	if t := strings.TrimSpace(doc.Find("h1").First().Text()); t != "" {
		return t
	}
	return domainOf(rawURL)
}

func firstAttr(doc *goquery.Document, selector, attr string) string {
	v, _ := doc.Find(selector).First().Attr(attr)
	return strings.TrimSpace(v)
}

func domainOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return u.Host
}
