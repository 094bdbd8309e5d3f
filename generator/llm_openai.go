package generator

import (
	"context"
	"errors"

	openai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"auto_wordpress_article_publisher/apperr"
)

const (
	DefaultChatModel   = "gpt-4o-mini"
	DefaultImageModel  = "gpt-image-1"
	DefaultImageSize   = "1024x1024"
	DefaultTemperature = 0.7
)

// OpenAILLM implements LLMClient using the official openai-go SDK (chat completions).
type OpenAILLM struct {
	Model       string
	Temperature float64
	Opts        []option.RequestOption
}

func NewOpenAILLMFromConfig(cfg *LLMSettings) (*OpenAILLM, error) {
	if cfg == nil {
		return nil, errors.New("llm config is nil")
	}
	if cfg.APIKey == "" {
		return nil, apperr.Configuration("openai chat", "OPENAI_API_KEY")
	}
	model := cfg.Model
	if model == "" {
		model = DefaultChatModel
	}
	temperature := DefaultTemperature
	if cfg.Temperature != nil {
		temperature = *cfg.Temperature
	}
	return &OpenAILLM{
		Model:       model,
		Temperature: temperature,
		Opts:        clientOptions(cfg.APIKey, cfg.BaseURL),
	}, nil
}

func (o *OpenAILLM) Complete(ctx context.Context, prompt Prompt) (string, error) {
	client := openai.NewClient(o.Opts...)

	resp, err := client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(o.Model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(prompt.System),
			openai.UserMessage(prompt.User),
		},
		Temperature: openai.Float(o.Temperature),
	})
	if err != nil {
		return "", upstreamError("openai article generation", err)
	}
	if len(resp.Choices) == 0 {
		return "", nil
	}
	return resp.Choices[0].Message.Content, nil
}

// OpenAIImage implements ImageClient with the images endpoint.
type OpenAIImage struct {
	Model string
	Size  string
	Opts  []option.RequestOption
}

func NewOpenAIImageFromConfig(cfg *ImageSettings) (*OpenAIImage, error) {
	if cfg == nil {
		return nil, errors.New("image config is nil")
	}
	if cfg.APIKey == "" {
		return nil, apperr.Configuration("openai image", "OPENAI_IMAGE_API_KEY")
	}
	model := cfg.Model
	if model == "" {
		model = DefaultImageModel
	}
	size := cfg.Size
	if size == "" {
		size = DefaultImageSize
	}
	return &OpenAIImage{Model: model, Size: size, Opts: clientOptions(cfg.APIKey, cfg.BaseURL)}, nil
}

func (o *OpenAIImage) Generate(ctx context.Context, prompt string) (string, error) {
	client := openai.NewClient(o.Opts...)

	resp, err := client.Images.Generate(ctx, openai.ImageGenerateParams{
		Prompt: prompt,
		Model:  openai.ImageModel(o.Model),
		Size:   openai.ImageGenerateParamsSize(o.Size),
		N:      openai.Int(1),
	})
	if err != nil {
		return "", upstreamError("openai image generation", err)
	}
	if len(resp.Data) == 0 {
		return "", nil
	}
	img := resp.Data[0]
	if img.URL != "" {
		return img.URL, nil
	}
	// gpt-image-* models answer with base64 only.
	if img.B64JSON != "" {
		return "data:image/png;base64," + img.B64JSON, nil
	}
	return "", nil
}

func clientOptions(apiKey, baseURL string) []option.RequestOption {
	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	return opts
}

func upstreamError(op string, err error) error {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		return apperr.Upstream(op, apiErr.StatusCode, apiErr.RawJSON(), err)
	}
	return apperr.Upstream(op, 0, "", err)
}
