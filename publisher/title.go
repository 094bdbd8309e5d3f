package publisher

import (
	"html"
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var (
	h1Re        = regexp.MustCompile(`(?is)<h1[^>]*>(.*?)</h1>`)
	stripPolicy = bluemonday.StrictPolicy()
)

// ExtractTitle returns the text of the first <h1> in doc, or fallback when
// there is none or it is empty. Later <h1> elements are ignored.
func ExtractTitle(doc, fallback string) string {
	m := h1Re.FindStringSubmatch(doc)
	if m == nil {
		return fallback
	}
	text := html.UnescapeString(stripPolicy.Sanitize(m[1]))
	text = strings.Join(strings.Fields(text), " ")
	if text == "" {
		return fallback
	}
	return text
}

// MediaFilename derives the upload filename from the post title: whitespace
// runs become underscores, the result is lower-cased.
func MediaFilename(title, ext string) string {
	name := strings.ToLower(strings.Join(strings.Fields(title), "_"))
	name = strings.NewReplacer(`"`, "", "/", "_", `\`, "_").Replace(name)
	if name == "" {
		name = "imagen"
	}
	if ext == "" {
		ext = ".jpg"
	}
	return name + ext
}
