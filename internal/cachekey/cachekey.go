// Package cachekey derives stable artifact filenames from search results.
//
// The key combines the page's domain, a short hash of the full URL, and a
// sanitized slice of the title: the domain and title keep directory listings
// human-scannable, the hash makes two different URLs essentially never collide
// and makes the key stable across runs regardless of result ordering.
package cachekey

import (
	"crypto/sha256"
	"encoding/hex"
	"net/url"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const (
	hashLen     = 8
	maxTitleLen = 40
)

// Key returns the artifact filename for a (url, title) pair, including the
// ".md" extension. Deterministic, no side effects.
func Key(rawURL, title string) string {
	var b strings.Builder

	if d := domain(rawURL); d != "" {
		b.WriteString(d)
		b.WriteByte('_')
	}

	sum := sha256.Sum256([]byte(rawURL))
	b.WriteString(hex.EncodeToString(sum[:])[:hashLen])

	if t := sanitize(title); t != "" {
		b.WriteByte('_')
		b.WriteString(t)
	}

	b.WriteString(".md")
	return b.String()
}

// domain extracts a filename-safe host, dropping the "www." prefix and port.
func domain(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	host := strings.TrimPrefix(u.Hostname(), "www.")
	return sanitize(host)
}

// sanitize maps text to a filesystem-safe token: accents folded, anything
// outside [a-zA-Z0-9-_] collapsed to a single underscore, trailing separators
// trimmed, length capped.
func sanitize(s string) string {
	folded := foldAccents(s)

	var b strings.Builder
	prevSep := false
	for _, r := range folded {
		switch {
		case r == '-' || r == '_' || unicode.IsLetter(r) && r < 128 || unicode.IsDigit(r) && r < 128:
			b.WriteRune(r)
			prevSep = false
		default:
			if !prevSep && b.Len() > 0 {
				b.WriteByte('_')
			}
			prevSep = true
		}
		if b.Len() >= maxTitleLen {
			break
		}
	}

	return strings.Trim(b.String(), "_")
}

// foldAccents decomposes accented characters and strips the combining marks,
// so "Café" keys the same as "Cafe".
func foldAccents(s string) string {
	t := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)))
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}
