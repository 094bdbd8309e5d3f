package generator

import (
	"regexp"
	"strings"
)

// Some models wrap the whole answer in a ```html fence despite the prompt.
var fenceRe = regexp.MustCompile("(?s)^```[a-zA-Z]*\\s*\n(.*?)\n?```$")

// PostProcess trims the model answer and strips a surrounding code fence.
// An empty answer becomes fallback.
func PostProcess(raw, fallback string) string {
	out := strings.TrimSpace(raw)
	if m := fenceRe.FindStringSubmatch(out); m != nil {
		out = strings.TrimSpace(m[1])
	}
	if out == "" {
		if fallback == "" {
			fallback = DefaultFallbackArticle
		}
		return fallback
	}
	return out
}
