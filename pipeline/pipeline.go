// Package pipeline sequences drafting, wrapping, image generation and publishing.
package pipeline

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"auto_wordpress_article_publisher/apperr"
	"auto_wordpress_article_publisher/metrics"
	"auto_wordpress_article_publisher/publisher"
	"auto_wordpress_article_publisher/render"
)

// Drafter produces the article body and the featured image reference.
type Drafter interface {
	Draft(ctx context.Context, topic string) (string, error)
	RequestImage(ctx context.Context, topic string) string
}

// Publisher pushes articles to the CMS.
type Publisher interface {
	Publish(ctx context.Context, html, imageRef string) (publisher.Result, error)
	PublishDraft(ctx context.Context, params publisher.DraftParams) (publisher.Post, error)
}

// ImageOutcome records whether the run got a featured image.
type ImageOutcome int

const (
	ImageGenerated ImageOutcome = iota + 1
	ImageUnavailable
)

func (o ImageOutcome) String() string {
	switch o {
	case ImageGenerated:
		return "generated"
	case ImageUnavailable:
		return "unavailable"
	default:
		return "unknown"
	}
}

func (o ImageOutcome) MarshalText() ([]byte, error) { return []byte(o.String()), nil }

// PublishOutcome records what happened at the publish step.
type PublishOutcome int

const (
	Published PublishOutcome = iota + 1
	SkippedNoConfig
	PublishFailed
)

func (o PublishOutcome) String() string {
	switch o {
	case Published:
		return "published"
	case SkippedNoConfig:
		return "skipped_no_config"
	case PublishFailed:
		return "failed"
	default:
		return "unknown"
	}
}

func (o PublishOutcome) MarshalText() ([]byte, error) { return []byte(o.String()), nil }

// Result is what a run produced. On a publish failure Article and ImageURL
// are still set.
type Result struct {
	Article  string `json:"article"`
	ImageURL string `json:"imageUrl"`
	// PostURL is nil unless a post was created.
	PostURL *string        `json:"wordpressUrl"`
	PostID  int            `json:"postId,omitempty"`
	MediaID int            `json:"mediaId,omitempty"`
	Image   ImageOutcome   `json:"imageStatus"`
	Publish PublishOutcome `json:"publishStatus"`
}

// Orchestrator runs the steps strictly one after another. It keeps no state
// between runs and is safe for concurrent use.
type Orchestrator struct {
	drafter   Drafter
	publisher Publisher
	metrics   metrics.Recorder
	logger    *zap.Logger
}

func New(drafter Drafter, pub Publisher, rec metrics.Recorder, logger *zap.Logger) *Orchestrator {
	if rec == nil {
		rec = metrics.Nop{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Orchestrator{drafter: drafter, publisher: pub, metrics: rec, logger: logger}
}

// Run drafts, wraps, illustrates and publishes an article about topic.
// Draft and publish failures abort; a missing image never does.
func (o *Orchestrator) Run(ctx context.Context, topic string) (Result, error) {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		o.metrics.RecordRun("rejected")
		return Result{}, apperr.Validation("workflow", "The request body must include input_as_text.")
	}
	log := o.logger.With(zap.String("run_id", uuid.NewString()), zap.String("topic", topic))
	log.Info("workflow started")

	article, err := o.draft(ctx, topic)
	if err != nil {
		log.Error("article generation failed", zap.Error(err))
		o.metrics.RecordRun("failed")
		return Result{}, err
	}
	res := Result{Article: render.Wrap(article)}

	start := time.Now()
	res.ImageURL = o.drafter.RequestImage(ctx, topic)
	o.metrics.RecordStep("image", time.Since(start), nil)
	res.Image = ImageGenerated
	if res.ImageURL == "" {
		res.Image = ImageUnavailable
		o.metrics.RecordImageDegraded()
	}

	start = time.Now()
	pub, err := o.publisher.Publish(ctx, res.Article, res.ImageURL)
	o.metrics.RecordStep("publish", time.Since(start), err)
	if err != nil {
		res.Publish = PublishFailed
		log.Error("publish failed", zap.Error(err))
		o.metrics.RecordRun(res.Publish.String())
		return res, err
	}

	switch pub.Outcome {
	case publisher.OutcomePublished:
		link := pub.Post.Link
		res.PostURL = &link
		res.PostID = pub.Post.ID
		res.MediaID = pub.MediaID
		res.Publish = Published
	default:
		res.Publish = SkippedNoConfig
	}
	o.metrics.RecordRun(res.Publish.String())
	log.Info("workflow finished",
		zap.Stringer("image", res.Image),
		zap.Stringer("publish", res.Publish),
	)
	return res, nil
}

// Generate drafts and wraps an article without publishing it, so a caller can
// review it before calling PublishDraft.
func (o *Orchestrator) Generate(ctx context.Context, topic string) (string, error) {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return "", apperr.Validation("generate", "The request body must include input_as_text.")
	}
	article, err := o.draft(ctx, topic)
	if err != nil {
		o.logger.Error("article generation failed", zap.String("topic", topic), zap.Error(err))
		return "", err
	}
	return render.Wrap(article), nil
}

// PublishDraft creates a post from reviewed content with the caller's status.
func (o *Orchestrator) PublishDraft(ctx context.Context, params publisher.DraftParams) (publisher.Post, error) {
	start := time.Now()
	post, err := o.publisher.PublishDraft(ctx, params)
	o.metrics.RecordStep("publish_draft", time.Since(start), err)
	return post, err
}

func (o *Orchestrator) draft(ctx context.Context, topic string) (string, error) {
	start := time.Now()
	article, err := o.drafter.Draft(ctx, topic)
	o.metrics.RecordStep("draft", time.Since(start), err)
	return article, err
}
