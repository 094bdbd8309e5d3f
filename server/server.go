package server

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"auto_wordpress_article_publisher/apperr"
	"auto_wordpress_article_publisher/metrics"
	"auto_wordpress_article_publisher/pipeline"
	"auto_wordpress_article_publisher/publisher"
	"auto_wordpress_article_publisher/render"
)

const (
	maxBodyBytes   = 1 << 20
	successMessage = "Artículo publicado con éxito"
)

// Pipeline is the part of the orchestrator the HTTP layer needs.
type Pipeline interface {
	Run(ctx context.Context, topic string) (pipeline.Result, error)
	Generate(ctx context.Context, topic string) (string, error)
	PublishDraft(ctx context.Context, params publisher.DraftParams) (publisher.Post, error)
}

// Options configures the HTTP layer.
type Options struct {
	// AccessKey is compared with the ?key= parameter of /workflow.
	AccessKey string
	// Gatherer enables /metrics when set.
	Gatherer prometheus.Gatherer
	Logger   *zap.Logger
}

type Server struct {
	pipe      Pipeline
	accessKey string
	gatherer  prometheus.Gatherer
	logger    *zap.Logger
}

func New(pipe Pipeline, opts Options) (*Server, error) {
	if pipe == nil {
		return nil, errors.New("pipeline required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		pipe:      pipe,
		accessKey: opts.AccessKey,
		gatherer:  opts.Gatherer,
		logger:    logger,
	}, nil
}

func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(logMiddleware(s.logger))

	r.Post("/workflow", s.handleWorkflow)
	r.Post("/generate", s.handleGenerate)
	r.Post("/publish-draft", s.handlePublishDraft)

	r.Get("/assets/ia-generated.css", handleStylesheet)
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if s.gatherer != nil {
		r.Handle("/metrics", metrics.Handler(s.gatherer))
	}
	return r
}

// --- Handlers ---

type topicReq struct {
	InputAsText string `json:"input_as_text"`
}

type workflowResp struct {
	Success       bool    `json:"success"`
	Message       string  `json:"message"`
	Article       string  `json:"article"`
	ImageURL      string  `json:"imageUrl"`
	WordpressURL  *string `json:"wordpressUrl"`
	ImageStatus   string  `json:"imageStatus"`
	PublishStatus string  `json:"publishStatus"`
}

type generateResp struct {
	Article string `json:"article"`
}

type publishDraftReq struct {
	Title   string `json:"title"`
	Content string `json:"content"`
	Status  string `json:"status"`
	Format  string `json:"format"`
}

type publishDraftResp struct {
	Post json.RawMessage `json:"post"`
}

type errorResp struct {
	Error   string   `json:"error"`
	Message string   `json:"message,omitempty"`
	Detail  any      `json:"detail,omitempty"`
	Missing []string `json:"missing,omitempty"`
}

func (s *Server) handleWorkflow(w http.ResponseWriter, r *http.Request) {
	if s.accessKey == "" {
		http.Error(w, "Missing PUBLIC_EXPERIMENT_KEY.", http.StatusInternalServerError)
		return
	}
	provided := r.URL.Query().Get("key")
	if subtle.ConstantTimeCompare([]byte(provided), []byte(s.accessKey)) != 1 {
		http.Error(w, apperr.ErrAccessDenied.Message, http.StatusForbidden)
		return
	}

	var req topicReq
	if err := decodeJSON(w, r, &req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	res, err := s.pipe.Run(r.Context(), req.InputAsText)
	if err != nil {
		http.Error(w, err.Error(), apperr.HTTPStatus(err))
		return
	}
	writeJSON(w, http.StatusOK, workflowResp{
		Success:       true,
		Message:       successMessage,
		Article:       res.Article,
		ImageURL:      res.ImageURL,
		WordpressURL:  res.PostURL,
		ImageStatus:   res.Image.String(),
		PublishStatus: res.Publish.String(),
	})
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	var req topicReq
	if err := decodeJSON(w, r, &req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	article, err := s.pipe.Generate(r.Context(), req.InputAsText)
	if err != nil {
		http.Error(w, err.Error(), apperr.HTTPStatus(err))
		return
	}
	writeJSON(w, http.StatusOK, generateResp{Article: article})
}

func (s *Server) handlePublishDraft(w http.ResponseWriter, r *http.Request) {
	var req publishDraftReq
	if err := decodeJSON(w, r, &req); err != nil || strings.TrimSpace(req.Content) == "" {
		writeJSON(w, http.StatusBadRequest, errorResp{Error: "Missing content payload."})
		return
	}
	format, err := publisher.ParseFormat(req.Format)
	if err != nil {
		s.writeError(w, err)
		return
	}

	post, err := s.pipe.PublishDraft(r.Context(), publisher.DraftParams{
		Title:   req.Title,
		Content: req.Content,
		Status:  req.Status,
		Format:  format,
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	raw := post.Raw
	if len(raw) == 0 {
		raw = json.RawMessage("{}")
	}
	writeJSON(w, http.StatusOK, publishDraftResp{Post: raw})
}

func handleStylesheet(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/css; charset=utf-8")
	w.Header().Set("Cache-Control", "public, max-age=300")
	_, _ = w.Write([]byte(render.Stylesheet))
}

// --- Helpers ---

// writeError renders err as the JSON error body of /publish-draft.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := apperr.HTTPStatus(err)
	e, ok := apperr.As(err)
	if !ok {
		writeJSON(w, status, errorResp{Error: err.Error()})
		return
	}
	switch e.Kind {
	case apperr.KindConfiguration:
		writeJSON(w, status, errorResp{
			Error:   fmt.Sprintf("Missing WordPress configuration. Set %s.", strings.Join(e.Missing, ", ")),
			Missing: e.Missing,
		})
	case apperr.KindPublish:
		if e.StatusCode == 0 {
			writeJSON(w, status, errorResp{Error: "WordPress request failed", Message: e.Error()})
			return
		}
		message, detail := publisher.DescribeError(e.Body)
		writeJSON(w, status, errorResp{
			Error:   fmt.Sprintf("WordPress returned %d", e.StatusCode),
			Message: message,
			Detail:  detail,
		})
	default:
		writeJSON(w, status, errorResp{Error: e.Message, Message: e.Error()})
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("invalid JSON body: %w", err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (sr *statusRecorder) WriteHeader(code int) {
	sr.status = code
	sr.ResponseWriter.WriteHeader(code)
}

func logMiddleware(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)

			fields := []zap.Field{
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", rec.status),
				zap.Duration("duration", time.Since(start)),
				zap.String("request_id", middleware.GetReqID(r.Context())),
			}
			switch {
			case rec.status >= 500:
				logger.Error("http request", fields...)
			case rec.status >= 400:
				logger.Warn("http request", fields...)
			default:
				logger.Info("http request", fields...)
			}
		})
	}
}
