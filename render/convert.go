// Package render turns editor text into HTML and applies the fixed article presentation.
package render

import (
	"regexp"
	"strings"
)

// DefaultTitle is returned by DeriveTitleFromContent when content has no text.
const DefaultTitle = "Articulo generado"

var htmlEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&#39;",
)

var headingMarker = regexp.MustCompile(`^#{1,2}\s+`)

// EscapeHTML escapes & < > " and ' so the text can sit inside an element.
func EscapeHTML(s string) string {
	return htmlEscaper.Replace(s)
}

// ToHTML converts the constrained line format (# and ## headings, "- " bullets,
// paragraphs) to an HTML fragment. Inline formatting is not parsed.
func ToHTML(content string) string {
	var (
		b      strings.Builder
		inList bool
	)
	closeList := func() {
		if inList {
			b.WriteString("</ul>")
			inList = false
		}
	}

	for _, raw := range strings.Split(content, "\n") {
		line := strings.TrimSpace(raw)
		switch {
		case line == "":
			closeList()
		case strings.HasPrefix(line, "# "):
			closeList()
			b.WriteString("<h1>" + EscapeHTML(strings.TrimSpace(line[2:])) + "</h1>")
		case strings.HasPrefix(line, "## "):
			closeList()
			b.WriteString("<h2>" + EscapeHTML(strings.TrimSpace(line[3:])) + "</h2>")
		case strings.HasPrefix(line, "- "):
			if !inList {
				b.WriteString("<ul>")
				inList = true
			}
			b.WriteString("<li>" + EscapeHTML(strings.TrimSpace(line[2:])) + "</li>")
		default:
			closeList()
			b.WriteString("<p>" + EscapeHTML(line) + "</p>")
		}
	}
	closeList()

	return b.String()
}

// DeriveTitleFromContent returns the first non-blank line without its heading marker.
func DeriveTitleFromContent(content string) string {
	for _, raw := range strings.Split(content, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "# ") || strings.HasPrefix(line, "## ") {
			return strings.TrimSpace(headingMarker.ReplaceAllString(line, ""))
		}
		return line
	}
	return DefaultTitle
}
