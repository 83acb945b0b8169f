package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"

	"github.com/robfig/cron/v3"

	"github.com/deusflow/maralert/internal/app"
	"github.com/deusflow/maralert/internal/config"
	"github.com/deusflow/maralert/internal/extract"
	"github.com/deusflow/maralert/internal/logger"
	"github.com/deusflow/maralert/internal/metrics"
	"github.com/deusflow/maralert/internal/rules"
	"github.com/deusflow/maralert/internal/slack"
	"github.com/deusflow/maralert/internal/summarize"
)

func main() {
	logger.Init()

	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
		os.Exit(2)
	}
	if cfg == nil { // --help
		return
	}

	if os.Getenv("ENABLE_HTTP_MONITORING") == "true" {
		go startMonitoringServer()
	}

	if err := run(cfg); err != nil {
		logger.Error("run failed", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	ctx := context.Background()

	pipeline, cleanup, err := buildPipeline(ctx, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	if cfg.Schedule == "" {
		return pipeline.Run(ctx)
	}

	// Daemon mode: the same pipeline runs on a cron schedule; each tick
	// reloads and re-persists state.
	c := cron.New()
	if _, err := c.AddFunc(cfg.Schedule, func() {
		if err := pipeline.Run(ctx); err != nil {
			logger.Error("scheduled run failed", "error", err)
		}
	}); err != nil {
		return fmt.Errorf("invalid schedule %q: %w", cfg.Schedule, err)
	}
	logger.Info("running on schedule", "cron", cfg.Schedule)
	c.Run()
	return nil
}

func buildPipeline(ctx context.Context, cfg *config.Config) (*app.Pipeline, func(), error) {
	cleanup := func() {}

	ruleSet := rules.Default()
	if cfg.RulesFile != "" {
		loaded, err := rules.Load(cfg.RulesFile)
		if err != nil {
			return nil, cleanup, fmt.Errorf("load rules: %w", err)
		}
		ruleSet = loaded
	}

	var chain []summarize.Generator
	if cfg.GeminiAPIKey != "" {
		gemini, err := summarize.NewGemini(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			return nil, cleanup, fmt.Errorf("gemini client: %w", err)
		}
		chain = append(chain, gemini)
		cleanup = gemini.Close
	}
	if cfg.OpenAIAPIKey != "" {
		chain = append(chain, summarize.NewOpenAI(cfg.OpenAIAPIKey, cfg.OpenAIModel))
	}

	deps := app.Deps{
		Rules:      ruleSet,
		Store:      app.NewSeenStore(cfg),
		Resolver:   extract.New(cfg.RequestTimeout),
		Summarizer: summarize.New(chain, cfg.MaxGenRequests, ruleSet.Fallbacks.NoSummary),
	}
	if cfg.SlackWebhookURL != "" {
		deps.Deliverer = slack.New(cfg.SlackWebhookURL)
	}

	return app.New(cfg, deps), cleanup, nil
}

func startMonitoringServer() {
	port := os.Getenv("MONITORING_PORT")
	if port == "" {
		port = "8080"
	}

	http.HandleFunc("/health", healthHandler)
	http.HandleFunc("/metrics", metricsHandler)

	log.Printf("Starting monitoring server on port %s", port)
	if err := http.ListenAndServe(":"+port, nil); err != nil {
		log.Printf("Monitoring server error: %v", err)
	}
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	stats := metrics.Global.GetStats()

	status := "ok"
	if !stats["is_healthy"].(bool) {
		status = "error"
		w.WriteHeader(http.StatusServiceUnavailable)
	}

	response := map[string]interface{}{
		"status":     status,
		"last_run":   stats["last_run_time"],
		"last_error": stats["last_error"],
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

func metricsHandler(w http.ResponseWriter, r *http.Request) {
	stats := metrics.Global.GetStats()

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(stats)
}
