package generator

import "context"

// LLMClient abstracts the text-generation model so it can be swapped or mocked.
type LLMClient interface {
	Complete(ctx context.Context, prompt Prompt) (string, error)
}

// ImageClient abstracts the image-generation model. It returns the location of
// the first generated image: an http(s) URL or a data: URI.
type ImageClient interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// LLMSettings is the base configuration handed to a concrete LLM client.
type LLMSettings struct {
	Provider    string
	Model       string
	APIKey      string
	BaseURL     string
	// Temperature is nil when unset; an explicit 0 is kept.
	Temperature *float64
}

// ImageSettings configures the image-generation client.
type ImageSettings struct {
	Model   string
	APIKey  string
	BaseURL string
	Size    string
}
