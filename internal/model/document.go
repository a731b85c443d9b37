package model

import (
	"fmt"
	"strings"
)

// Document is the normalized output of content extraction for one page.
type Document struct {
	Title    string
	Byline   string
	Excerpt  string
	SiteName string
	Markdown string
	URL      string
}

// Render formats the document as a markdown artifact: YAML frontmatter for
// editor plugins, a title heading, a metadata block, the excerpt as a
// blockquote, then the body.
func (d Document) Render() string {
	var b strings.Builder
	b.Grow(len(d.Markdown) + 512)

	b.WriteString("---\n")
	fmt.Fprintf(&b, "title: %q\n", d.Title)
	fmt.Fprintf(&b, "url: %s\n", d.URL)
	if d.Byline != "" {
		fmt.Fprintf(&b, "author: %q\n", d.Byline)
	}
	if d.SiteName != "" {
		fmt.Fprintf(&b, "source: %q\n", d.SiteName)
	}
	b.WriteString("---\n\n")

	fmt.Fprintf(&b, "# %s\n\n", d.Title)

	if d.Byline != "" {
		fmt.Fprintf(&b, "**Author**: %s\n", d.Byline)
	}
	if d.SiteName != "" {
		fmt.Fprintf(&b, "**Source**: %s\n", d.SiteName)
	}
	fmt.Fprintf(&b, "**URL**: <%s>\n\n", d.URL)

	if d.Excerpt != "" {
		fmt.Fprintf(&b, "> %s\n\n", d.Excerpt)
	}

	b.WriteString("---\n\n")
	b.WriteString(d.Markdown)

	return b.String()
}
