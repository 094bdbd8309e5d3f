package publisher

import (
	"fmt"
	"strings"

	"auto_wordpress_article_publisher/apperr"
	"auto_wordpress_article_publisher/render"
)

// Format names how PublishDraft content is turned into post HTML.
type Format string

const (
	// FormatText is the line format: # and ## headings, "- " bullets, paragraphs.
	FormatText     Format = "text"
	FormatMarkdown Format = "markdown"
	// FormatHTML passes content through, e.g. an article from the generate step.
	FormatHTML Format = "html"
)

// ParseFormat accepts an empty string as FormatText.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return FormatText, nil
	case FormatText, FormatMarkdown, FormatHTML:
		return f, nil
	default:
		return "", apperr.Validation("publish draft", fmt.Sprintf("unknown format %q (allowed: text, markdown, html)", s))
	}
}

// Render converts content to HTML according to f.
func (f Format) Render(content string) (string, error) {
	switch f {
	case "", FormatText:
		return render.ToHTML(content), nil
	case FormatMarkdown:
		out, err := render.Markdown(content)
		if err != nil {
			return "", fmt.Errorf("render markdown: %w", err)
		}
		return out, nil
	case FormatHTML:
		return content, nil
	default:
		return "", apperr.Validation("publish draft", fmt.Sprintf("unknown format %q", string(f)))
	}
}
