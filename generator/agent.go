package generator

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
)

const (
	DefaultDraftTimeout = 30 * time.Second
	DefaultImageTimeout = 60 * time.Second
)

// Options tunes the Agent. Zero values use the package defaults.
type Options struct {
	Prompts      Prompts
	DraftTimeout time.Duration
	ImageTimeout time.Duration
}

// Agent drafts articles and requests featured images for a topic.
type Agent struct {
	llm    LLMClient
	images ImageClient
	opts   Options
	logger *zap.Logger
}

func NewAgent(llm LLMClient, images ImageClient, opts Options, logger *zap.Logger) (*Agent, error) {
	if llm == nil {
		return nil, errors.New("llm client is required")
	}
	if images == nil {
		return nil, errors.New("image client is required")
	}
	if opts.DraftTimeout <= 0 {
		opts.DraftTimeout = DefaultDraftTimeout
	}
	if opts.ImageTimeout <= 0 {
		opts.ImageTimeout = DefaultImageTimeout
	}
	opts.Prompts = opts.Prompts.withDefaults()
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Agent{llm: llm, images: images, opts: opts, logger: logger}, nil
}

// Draft asks the text model for an HTML article about topic. An answer
// without content yields the fallback article rather than an error.
func (a *Agent) Draft(ctx context.Context, topic string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, a.opts.DraftTimeout)
	defer cancel()

	start := time.Now()
	raw, err := a.llm.Complete(ctx, BuildArticlePrompt(a.opts.Prompts, topic))
	if err != nil {
		return "", err
	}
	article := PostProcess(raw, a.opts.Prompts.FallbackArticle)
	a.logger.Debug("article drafted",
		zap.Int("bytes", len(article)),
		zap.Duration("took", time.Since(start)),
	)
	return article, nil
}

// RequestImage asks the image model for a featured image. It never fails:
// any error is logged and reported as an empty reference.
func (a *Agent) RequestImage(ctx context.Context, topic string) string {
	ctx, cancel := context.WithTimeout(ctx, a.opts.ImageTimeout)
	defer cancel()

	ref, err := a.images.Generate(ctx, BuildImagePrompt(a.opts.Prompts, topic))
	if err != nil {
		a.logger.Warn("image generation failed, continuing without image", zap.Error(err))
		return ""
	}
	if ref == "" {
		a.logger.Warn("image generation returned no image")
	}
	return ref
}
