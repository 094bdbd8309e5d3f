package generator

import (
	"context"
	"fmt"
	"html"
	"net/url"
	"strings"
)

// MockLLM is a placeholder for local runs; it never calls an external model.
// It serves both the article and the image step.
type MockLLM struct{}

func (m MockLLM) Complete(_ context.Context, prompt Prompt) (string, error) {
	var sb strings.Builder
	sb.WriteString("<h1>Artículo de prueba</h1>\n")
	sb.WriteString("<section><p>Borrador generado localmente sin llamar al modelo.</p></section>\n")
	sb.WriteString("<h2>Tema</h2>\n")
	sb.WriteString("<p>" + html.EscapeString(prompt.Topic) + "</p>\n")
	sb.WriteString("<section><p>Fin del borrador.</p></section>")
	return sb.String(), nil
}

func (m MockLLM) Generate(_ context.Context, prompt string) (string, error) {
	return fmt.Sprintf("https://placehold.co/1024x1024.jpg?text=%s", url.QueryEscape(firstWords(prompt, 4))), nil
}

func firstWords(s string, n int) string {
	fields := strings.Fields(s)
	if len(fields) > n {
		fields = fields[:n]
	}
	return strings.Join(fields, " ")
}

// Unconfigured stands in for a client whose credentials are missing. Every
// call returns the configuration error it was built with.
type Unconfigured struct {
	Err error
}

func (u Unconfigured) Complete(context.Context, Prompt) (string, error) { return "", u.Err }

func (u Unconfigured) Generate(context.Context, string) (string, error) { return "", u.Err }
