package pipeline

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"auto_wordpress_article_publisher/apperr"
	"auto_wordpress_article_publisher/generator"
	"auto_wordpress_article_publisher/metrics"
	"auto_wordpress_article_publisher/publisher"
)

// stubs bundles fake OpenAI, image host and WordPress servers with call counters.
type stubs struct {
	mu sync.Mutex

	chatStatus  int
	chatContent string
	imageStatus int
	postStatus  int

	chatCalls, imageCalls, downloadCalls, mediaCalls, postCalls int
	lastPost                                                    map[string]any

	openai, images, wp *httptest.Server
}

func newStubs(t *testing.T) *stubs {
	t.Helper()
	s := &stubs{
		chatStatus:  http.StatusOK,
		chatContent: "<h1>Energía Solar</h1><p>...</p>",
		imageStatus: http.StatusOK,
		postStatus:  http.StatusCreated,
	}

	s.images = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		s.mu.Lock()
		s.downloadCalls++
		s.mu.Unlock()
		_, _ = w.Write([]byte("JPEG"))
	}))

	s.openai = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		defer s.mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		switch {
		case strings.HasSuffix(r.URL.Path, "/chat/completions"):
			s.chatCalls++
			if s.chatStatus != http.StatusOK {
				w.WriteHeader(s.chatStatus)
				_, _ = w.Write([]byte(`{"error":{"message":"invalid api key","type":"invalid_request_error"}}`))
				return
			}
			content, _ := json.Marshal(s.chatContent)
			_, _ = w.Write([]byte(`{"id":"c","object":"chat.completion","created":1,"model":"gpt-4o-mini","choices":[{"index":0,"finish_reason":"stop","message":{"role":"assistant","content":` + string(content) + `}}]}`))
		case strings.HasSuffix(r.URL.Path, "/images/generations"):
			s.imageCalls++
			if s.imageStatus != http.StatusOK {
				w.WriteHeader(s.imageStatus)
				_, _ = w.Write([]byte(`{"error":{"message":"rate limited","type":"rate_limit"}}`))
				return
			}
			_, _ = w.Write([]byte(`{"created":1,"data":[{"url":"` + s.images.URL + `/solar.jpg"}]}`))
		default:
			http.NotFound(w, r)
		}
	}))

	s.wp = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		defer s.mu.Unlock()
		switch r.URL.Path {
		case "/wp-json/wp/v2/media":
			s.mediaCalls++
			w.WriteHeader(http.StatusCreated)
			_, _ = w.Write([]byte(`{"id":42}`))
		case "/wp-json/wp/v2/posts":
			s.postCalls++
			s.lastPost = map[string]any{}
			_ = json.NewDecoder(r.Body).Decode(&s.lastPost)
			w.WriteHeader(s.postStatus)
			if s.postStatus == http.StatusUnauthorized {
				_, _ = w.Write([]byte(`{"code":"rest_cannot_create","message":"Sorry, you are not allowed to create posts as this user."}`))
				return
			}
			_, _ = w.Write([]byte(`{"id":1,"link":"https://example.com/p/1","status":"publish"}`))
		default:
			http.NotFound(w, r)
		}
	}))

	t.Cleanup(func() {
		s.openai.Close()
		s.images.Close()
		s.wp.Close()
	})
	return s
}

func (s *stubs) orchestrator(t *testing.T, wpConfigured bool, rec metrics.Recorder) *Orchestrator {
	t.Helper()
	llm, err := generator.NewOpenAILLMFromConfig(&generator.LLMSettings{APIKey: "sk", BaseURL: s.openai.URL + "/v1/"})
	require.NoError(t, err)
	img, err := generator.NewOpenAIImageFromConfig(&generator.ImageSettings{APIKey: "sk", BaseURL: s.openai.URL + "/v1/"})
	require.NoError(t, err)
	agent, err := generator.NewAgent(llm, img, generator.Options{}, zap.NewNop())
	require.NoError(t, err)

	cfg := publisher.Config{}
	if wpConfigured {
		cfg = publisher.Config{BaseURL: s.wp.URL, Username: "u", AppPassword: "p"}
	}
	pub := publisher.New(cfg, s.wp.Client(), zap.NewNop(), publisher.WithImageClient(s.images.Client()))
	return New(agent, pub, rec, zap.NewNop())
}

func TestRunEndToEnd(t *testing.T) {
	s := newStubs(t)
	o := s.orchestrator(t, true, nil)

	res, err := o.Run(context.Background(), "energía solar")
	require.NoError(t, err)

	assert.Contains(t, res.Article, "<h1>Energía Solar</h1>")
	assert.Contains(t, res.Article, `class="ia-generated"`)
	assert.Equal(t, s.images.URL+"/solar.jpg", res.ImageURL)
	require.NotNil(t, res.PostURL)
	assert.Equal(t, "https://example.com/p/1", *res.PostURL)
	assert.Equal(t, 42, res.MediaID)
	assert.Equal(t, ImageGenerated, res.Image)
	assert.Equal(t, Published, res.Publish)

	assert.Equal(t, 1, s.chatCalls)
	assert.Equal(t, 1, s.imageCalls)
	assert.Equal(t, 1, s.downloadCalls)
	assert.Equal(t, 1, s.mediaCalls)
	assert.Equal(t, 1, s.postCalls)
	assert.Equal(t, "Energía Solar", s.lastPost["title"])
	assert.Equal(t, res.Article, s.lastPost["content"])
	assert.EqualValues(t, 42, s.lastPost["featured_media"])
}

func TestRunEmptyTopicMakesNoCalls(t *testing.T) {
	s := newStubs(t)
	o := s.orchestrator(t, true, nil)

	for _, topic := range []string{"", "   \n\t"} {
		_, err := o.Run(context.Background(), topic)
		assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
	}
	assert.Zero(t, s.chatCalls+s.imageCalls+s.downloadCalls+s.mediaCalls+s.postCalls)
}

func TestRunImageFailureDegrades(t *testing.T) {
	s := newStubs(t)
	s.imageStatus = http.StatusTooManyRequests
	reg := prometheus.NewRegistry()
	o := s.orchestrator(t, true, metrics.NewCollector(reg))

	res, err := o.Run(context.Background(), "energía solar")
	require.NoError(t, err)
	assert.Equal(t, "", res.ImageURL)
	assert.Equal(t, ImageUnavailable, res.Image)
	require.NotNil(t, res.PostURL)
	assert.Equal(t, "https://example.com/p/1", *res.PostURL)
	assert.Equal(t, 0, s.mediaCalls)
	assert.NotContains(t, s.lastPost, "featured_media")

	count, err := testutil.GatherAndCount(reg, "articlepub_image_degraded_total")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestRunWithoutCMSConfig(t *testing.T) {
	s := newStubs(t)
	o := s.orchestrator(t, false, nil)

	res, err := o.Run(context.Background(), "energía solar")
	require.NoError(t, err)
	assert.Nil(t, res.PostURL)
	assert.Equal(t, SkippedNoConfig, res.Publish)
	assert.NotEmpty(t, res.Article)
	assert.Equal(t, 0, s.postCalls)
}

func TestRunDraftFailureAbortsBeforePublish(t *testing.T) {
	s := newStubs(t)
	s.chatStatus = http.StatusUnauthorized
	o := s.orchestrator(t, true, nil)

	res, err := o.Run(context.Background(), "energía solar")
	require.Error(t, err)
	e, ok := apperr.As(err)
	require.True(t, ok)
	assert.Equal(t, apperr.KindUpstream, e.Kind)
	assert.Contains(t, e.Body, "invalid api key")
	assert.Empty(t, res.Article)

	assert.Equal(t, 1, s.chatCalls)
	assert.Zero(t, s.imageCalls+s.mediaCalls+s.postCalls)
}

func TestRunPublishFailureKeepsArtifacts(t *testing.T) {
	s := newStubs(t)
	s.postStatus = http.StatusUnauthorized
	o := s.orchestrator(t, true, nil)

	res, err := o.Run(context.Background(), "energía solar")
	require.Error(t, err)
	e, ok := apperr.As(err)
	require.True(t, ok)
	assert.Equal(t, apperr.KindPublish, e.Kind)
	assert.Equal(t, http.StatusUnauthorized, e.StatusCode)
	assert.Contains(t, e.Body, "rest_cannot_create")

	assert.Contains(t, res.Article, "<h1>Energía Solar</h1>")
	assert.Equal(t, s.images.URL+"/solar.jpg", res.ImageURL)
	assert.Nil(t, res.PostURL)
	assert.Equal(t, PublishFailed, res.Publish)
}

func TestGenerateDoesNotPublish(t *testing.T) {
	s := newStubs(t)
	o := s.orchestrator(t, true, nil)

	article, err := o.Generate(context.Background(), "  energía solar ")
	require.NoError(t, err)
	assert.Contains(t, article, "<h1>Energía Solar</h1>")
	assert.Equal(t, 1, s.chatCalls)
	assert.Zero(t, s.imageCalls+s.postCalls)

	_, err = o.Generate(context.Background(), "")
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
}

func TestPublishDraftDelegates(t *testing.T) {
	s := newStubs(t)
	o := s.orchestrator(t, true, nil)

	post, err := o.PublishDraft(context.Background(), publisher.DraftParams{Content: "# Hola\ntexto", Status: "draft"})
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/p/1", post.Link)
	assert.Equal(t, "Hola", s.lastPost["title"])
	assert.Equal(t, "draft", s.lastPost["status"])
}

func TestOutcomeStrings(t *testing.T) {
	assert.Equal(t, "published", Published.String())
	assert.Equal(t, "skipped_no_config", SkippedNoConfig.String())
	assert.Equal(t, "failed", PublishFailed.String())
	assert.Equal(t, "unavailable", ImageUnavailable.String())
}

func TestResultJSON(t *testing.T) {
	link := "https://example.com/p/1"
	data, err := json.Marshal(Result{Article: "<p>x</p>", PostURL: &link, Image: ImageUnavailable, Publish: Published})
	require.NoError(t, err)
	assert.JSONEq(t, `{"article":"<p>x</p>","imageUrl":"","wordpressUrl":"https://example.com/p/1","imageStatus":"unavailable","publishStatus":"published"}`, string(data))
}
