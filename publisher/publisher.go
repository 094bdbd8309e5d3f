package publisher

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"auto_wordpress_article_publisher/apperr"
	"auto_wordpress_article_publisher/render"
)

const (
	mediaPath = "/wp-json/wp/v2/media"
	postsPath = "/wp-json/wp/v2/posts"

	DefaultTimeout     = 15 * time.Second
	DefaultPostTitle   = "Nuevo artículo"
	DefaultPostStatus  = "publish"
	DefaultDraftStatus = "draft"

	maxResponseBytes = 4 << 20
)

// Statuses accepted for caller-chosen post creation.
var validStatuses = map[string]bool{"publish": true, "draft": true, "pending": true}

// Config holds the WordPress site credentials and posting defaults.
type Config struct {
	BaseURL     string
	Username    string
	AppPassword string
	// CategoryID is attached to workflow posts when non-zero.
	CategoryID int
	// Status is used for workflow posts; DraftStatus for PublishDraft without a status.
	Status       string
	DraftStatus  string
	DefaultTitle string
	Timeout      time.Duration
}

// Missing returns the environment names of absent credentials.
func (c Config) Missing() []string {
	var missing []string
	if strings.TrimSpace(c.BaseURL) == "" {
		missing = append(missing, "WORDPRESS_BASE_URL")
	}
	if strings.TrimSpace(c.Username) == "" {
		missing = append(missing, "WORDPRESS_USERNAME")
	}
	if strings.TrimSpace(c.AppPassword) == "" {
		missing = append(missing, "WORDPRESS_APP_PASSWORD")
	}
	return missing
}

// Outcome tells apart a created post from a skipped publish step.
type Outcome int

const (
	OutcomePublished Outcome = iota + 1
	OutcomeSkippedNoConfig
)

func (o Outcome) String() string {
	switch o {
	case OutcomePublished:
		return "published"
	case OutcomeSkippedNoConfig:
		return "skipped_no_config"
	default:
		return "unknown"
	}
}

// Post is the CMS resource returned on creation. Raw keeps the full JSON.
type Post struct {
	ID     int             `json:"id"`
	Link   string          `json:"link"`
	Status string          `json:"status"`
	Raw    json.RawMessage `json:"-"`
}

// Result describes one Publish call.
type Result struct {
	Outcome Outcome
	Post    Post
	// MediaID is zero when no featured image was attached.
	MediaID int
	Title   string
}

// DraftParams describes a caller-reviewed post.
type DraftParams struct {
	Title   string
	Content string
	Status  string
	Format  Format
}

type createPostPayload struct {
	Title         string `json:"title"`
	Content       string `json:"content"`
	Status        string `json:"status"`
	FeaturedMedia int    `json:"featured_media,omitempty"`
	Categories    []int  `json:"categories,omitempty"`
}

type mediaResp struct {
	ID int `json:"id"`
}

// Publisher creates posts on a WordPress site through its REST API.
type Publisher struct {
	cfg         Config
	client      *http.Client
	imageClient *http.Client
	logger      *zap.Logger
}

// Option customises a Publisher.
type Option func(*Publisher)

// WithImageClient replaces the SSRF-guarded client used to download images.
func WithImageClient(c *http.Client) Option {
	return func(p *Publisher) { p.imageClient = c }
}

// New builds a Publisher. Missing credentials are not an error here; Publish
// skips and PublishDraft reports them.
func New(cfg Config, client *http.Client, logger *zap.Logger, opts ...Option) *Publisher {
	cfg.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if cfg.Status == "" {
		cfg.Status = DefaultPostStatus
	}
	if cfg.DraftStatus == "" {
		cfg.DraftStatus = DefaultDraftStatus
	}
	if cfg.DefaultTitle == "" {
		cfg.DefaultTitle = DefaultPostTitle
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if client == nil {
		client = &http.Client{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	p := &Publisher{cfg: cfg, client: client, logger: logger}
	for _, opt := range opts {
		opt(p)
	}
	if p.imageClient == nil {
		p.imageClient = NewSafeImageClient(DefaultImageTimeout)
	}
	return p
}

// Configured reports whether all credentials are present.
func (p *Publisher) Configured() bool {
	return len(p.cfg.Missing()) == 0
}

// Publish creates a post from the wrapped article html. A non-empty imageRef
// is uploaded as the featured image; any failure there only drops the image.
// Missing credentials skip the step without error. Not idempotent: each call
// creates a new post.
func (p *Publisher) Publish(ctx context.Context, html, imageRef string) (Result, error) {
	if missing := p.cfg.Missing(); len(missing) > 0 {
		p.logger.Warn("wordpress configuration missing, skipping publish", zap.Strings("missing", missing))
		return Result{Outcome: OutcomeSkippedNoConfig}, nil
	}

	title := ExtractTitle(html, p.cfg.DefaultTitle)

	var mediaID int
	if imageRef != "" {
		id, err := p.attachImage(ctx, imageRef, title)
		if err != nil {
			p.logger.Warn("featured image skipped", zap.Error(err))
		} else {
			mediaID = id
			p.logger.Info("featured image uploaded", zap.Int("media_id", mediaID))
		}
	}

	payload := createPostPayload{
		Title:         title,
		Content:       html,
		Status:        p.cfg.Status,
		FeaturedMedia: mediaID,
	}
	if p.cfg.CategoryID > 0 {
		payload.Categories = []int{p.cfg.CategoryID}
	}

	post, err := p.createPost(ctx, payload)
	if err != nil {
		return Result{MediaID: mediaID, Title: title}, err
	}
	p.logger.Info("post published", zap.Int("post_id", post.ID), zap.String("link", post.Link))
	return Result{Outcome: OutcomePublished, Post: post, MediaID: mediaID, Title: title}, nil
}

// PublishDraft creates a post from caller-supplied content with a caller-chosen
// status. Unlike Publish, missing credentials are a configuration error.
func (p *Publisher) PublishDraft(ctx context.Context, params DraftParams) (Post, error) {
	if strings.TrimSpace(params.Content) == "" {
		return Post{}, apperr.Validation("publish draft", "Missing content payload.")
	}
	status := strings.TrimSpace(params.Status)
	if status == "" {
		status = p.cfg.DraftStatus
	}
	if !validStatuses[status] {
		return Post{}, apperr.Validation("publish draft", fmt.Sprintf("invalid status %q (allowed: publish, draft, pending)", status))
	}
	contentHTML, err := params.Format.Render(params.Content)
	if err != nil {
		return Post{}, err
	}
	if missing := p.cfg.Missing(); len(missing) > 0 {
		return Post{}, apperr.Configuration("publish draft", missing...)
	}

	title := strings.TrimSpace(params.Title)
	if title == "" {
		if params.Format == FormatHTML {
			title = ExtractTitle(params.Content, p.cfg.DefaultTitle)
		} else {
			title = render.DeriveTitleFromContent(params.Content)
		}
	}

	post, err := p.createPost(ctx, createPostPayload{Title: title, Content: contentHTML, Status: status})
	if err != nil {
		return Post{}, err
	}
	p.logger.Info("draft created", zap.Int("post_id", post.ID), zap.String("status", status))
	return post, nil
}

func (p *Publisher) createPost(ctx context.Context, payload createPostPayload) (Post, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return Post{}, fmt.Errorf("encode post: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, p.cfg.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.cfg.BaseURL+postsPath, bytes.NewReader(body))
	if err != nil {
		return Post{}, fmt.Errorf("create post request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.SetBasicAuth(p.cfg.Username, p.cfg.AppPassword)

	resp, err := p.client.Do(req)
	if err != nil {
		return Post{}, apperr.Publish("create post", 0, "", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return Post{}, apperr.Publish("create post", resp.StatusCode, "", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Post{}, apperr.Publish("create post", resp.StatusCode, string(raw), nil)
	}

	var post Post
	if err := json.Unmarshal(raw, &post); err != nil {
		return Post{}, apperr.Publish("create post", resp.StatusCode, string(raw), fmt.Errorf("decode post: %w", err))
	}
	post.Raw = json.RawMessage(raw)
	return post, nil
}

// attachImage downloads imageRef and uploads it to the media library.
func (p *Publisher) attachImage(ctx context.Context, imageRef, title string) (int, error) {
	img, err := p.fetchImage(ctx, imageRef)
	if err != nil {
		return 0, fmt.Errorf("download image: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, p.cfg.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.cfg.BaseURL+mediaPath, bytes.NewReader(img.data))
	if err != nil {
		return 0, fmt.Errorf("media request: %w", err)
	}
	req.Header.Set("Content-Type", img.contentType)
	req.Header.Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, MediaFilename(title, img.ext)))
	req.SetBasicAuth(p.cfg.Username, p.cfg.AppPassword)

	resp, err := p.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("upload media: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return 0, fmt.Errorf("read media response (status %d): %w", resp.StatusCode, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return 0, fmt.Errorf("upload media: status %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}
	var data mediaResp
	if err := json.Unmarshal(raw, &data); err != nil {
		return 0, fmt.Errorf("decode media: %w", err)
	}
	if data.ID == 0 {
		return 0, fmt.Errorf("upload media: response without id")
	}
	return data.ID, nil
}

// DescribeError extracts a human message and a structured detail from a CMS
// error body. Non-JSON bodies are returned verbatim.
func DescribeError(body string) (message string, detail any) {
	message = body
	if message == "" {
		message = "Unknown error"
	}
	if body == "" {
		return message, body
	}
	var parsed map[string]any
	if err := json.Unmarshal([]byte(body), &parsed); err != nil {
		return message, body
	}
	if m, ok := parsed["message"].(string); ok {
		message = m
	}
	return message, parsed
}
