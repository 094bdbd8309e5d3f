package render

import (
	_ "embed"
	"strings"
)

// MarkerClass scopes every rule of the article stylesheet.
const MarkerClass = "ia-generated"

// StyleVersion is bumped whenever ia-generated.css changes.
const StyleVersion = "1"

// Stylesheet is the article CSS. The wrapper inlines it and the local preview
// serves the same bytes, so both render identically.
//
//go:embed ia-generated.css
var Stylesheet string

// Wrap places articleHTML inside the styled container. It does not detect
// already wrapped input; wrapping twice nests containers.
func Wrap(articleHTML string) string {
	var b strings.Builder
	b.Grow(len(Stylesheet) + len(articleHTML) + 96)
	b.WriteString("<style>\n")
	b.WriteString(Stylesheet)
	b.WriteString("</style>\n")
	b.WriteString(`<div class="` + MarkerClass + `" data-style-version="` + StyleVersion + `">` + "\n")
	b.WriteString(strings.TrimSpace(articleHTML))
	b.WriteString("\n</div>")
	return b.String()
}
