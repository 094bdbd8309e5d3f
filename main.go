package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	flag "github.com/spf13/pflag"
	"go.uber.org/zap"

	"auto_wordpress_article_publisher/apperr"
	"auto_wordpress_article_publisher/config"
	"auto_wordpress_article_publisher/generator"
	"auto_wordpress_article_publisher/logging"
	"auto_wordpress_article_publisher/metrics"
	"auto_wordpress_article_publisher/pipeline"
	"auto_wordpress_article_publisher/publisher"
	"auto_wordpress_article_publisher/server"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to optional YAML config")
	serve := flag.Bool("serve", false, "start web server")
	addr := flag.String("addr", "", "http listen address when --serve (overrides server.addr)")
	topic := flag.String("topic", "", "run the full workflow once for this topic")
	mdPath := flag.String("md", "", "publish this file as a post")
	title := flag.String("title", "", "post title for --md")
	status := flag.String("status", "", "post status for --md: publish, draft or pending")
	format := flag.String("format", "markdown", "content format for --md: text, markdown or html")
	verbose := flag.BoolP("verbose", "v", false, "enable debug logs")
	flag.Parse()

	if err := run(*configPath, *serve, *addr, *topic, *mdPath, *title, *status, *format, *verbose); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(configPath string, serve bool, addr, topic, mdPath, title, status, format string, verbose bool) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if verbose {
		cfg.Log.Level = "debug"
	}
	logger, err := logging.New(cfg.Log.Level, cfg.Log.Development)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	llm, err := buildLLM(cfg, logger)
	if err != nil {
		return err
	}
	images, err := buildImages(cfg, logger)
	if err != nil {
		return err
	}
	agent, err := generator.NewAgent(llm, images, cfg.GeneratorOptions(), logger.Named("generator"))
	if err != nil {
		return err
	}

	pubCfg := cfg.PublisherConfig()
	pub := publisher.New(pubCfg, &http.Client{Timeout: pubCfg.Timeout}, logger.Named("publisher"))
	if !pub.Configured() {
		logger.Warn("wordpress not configured, workflow runs will skip publishing",
			zap.Strings("missing", pubCfg.Missing()))
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	orch := pipeline.New(agent, pub, metrics.NewCollector(reg), logger.Named("pipeline"))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch {
	case serve:
		listen := cfg.Server.Addr
		if addr != "" {
			listen = addr
		}
		if cfg.Server.AccessKey == "" {
			logger.Warn("PUBLIC_EXPERIMENT_KEY not set, /workflow will reject every request")
		}
		srv, err := server.New(orch, server.Options{
			AccessKey: cfg.Server.AccessKey,
			Gatherer:  reg,
			Logger:    logger.Named("http"),
		})
		if err != nil {
			return err
		}
		return listenAndServe(ctx, listen, srv.Routes(), logger)

	case topic != "":
		res, err := orch.Run(ctx, topic)
		if err != nil {
			if res.Article != "" {
				_ = printJSON(res)
			}
			return err
		}
		return printJSON(res)

	case mdPath != "":
		content, err := os.ReadFile(mdPath)
		if err != nil {
			return fmt.Errorf("read %s: %w", mdPath, err)
		}
		f, err := publisher.ParseFormat(format)
		if err != nil {
			return err
		}
		post, err := orch.PublishDraft(ctx, publisher.DraftParams{
			Title:   title,
			Content: string(content),
			Status:  status,
			Format:  f,
		})
		if err != nil {
			return err
		}
		logger.Info("post created", zap.Int("id", post.ID), zap.String("status", post.Status))
		fmt.Println(post.Link)
		return nil

	default:
		return errors.New("one of --serve, --topic or --md is required")
	}
}

func listenAndServe(ctx context.Context, addr string, h http.Handler, logger *zap.Logger) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting web server", zap.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	logger.Info("shutting down web server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}

// buildLLM picks the text provider. A missing API key is not fatal: the
// process still starts and every draft request reports the configuration error.
func buildLLM(cfg config.Config, logger *zap.Logger) (generator.LLMClient, error) {
	switch cfg.LLM.Provider {
	case "mock":
		return generator.MockLLM{}, nil
	case "openai", "deepseek":
		// DeepSeek speaks the OpenAI API but needs an explicit base_url.
		if cfg.LLM.Provider == "deepseek" && cfg.LLM.BaseURL == "" {
			return nil, fmt.Errorf("llm provider deepseek requires base_url (OpenAI-compatible endpoint)")
		}
		llm, err := generator.NewOpenAILLMFromConfig(cfg.LLMSettings())
		if apperr.KindOf(err) == apperr.KindConfiguration {
			logger.Warn("text generation not configured", zap.Error(err))
			return generator.Unconfigured{Err: err}, nil
		}
		if err != nil {
			return nil, err
		}
		return llm, nil
	default:
		return nil, fmt.Errorf("llm provider %s not supported", cfg.LLM.Provider)
	}
}

func buildImages(cfg config.Config, logger *zap.Logger) (generator.ImageClient, error) {
	if cfg.LLM.Provider == "mock" {
		return generator.MockLLM{}, nil
	}
	img, err := generator.NewOpenAIImageFromConfig(cfg.ImageSettings())
	if apperr.KindOf(err) == apperr.KindConfiguration {
		// images are optional; RequestImage degrades to no image.
		logger.Warn("image generation not configured", zap.Error(err))
		return generator.Unconfigured{Err: err}, nil
	}
	if err != nil {
		return nil, err
	}
	return img, nil
}
