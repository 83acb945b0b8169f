package config

import (
	"fmt"
	"time"

	"github.com/jessevdk/go-flags"
)

const defaultFeedURL = "https://www.marines.mil/DesktopModules/ArticleCS/RSS.ashx" +
	"?ContentType=6&Site=481&category=14336&max=10"

type rawConfig struct {
	FeedURL        string `long:"feed-url" env:"MARADMIN_FEED_URL" description:"MARADMIN RSS feed URL"`
	StateFile      string `long:"state-file" env:"STATE_FILE" default:".maradmin_state.json" description:"Path of the seen-id state file"`
	RulesFile      string `long:"rules-file" env:"RULES_FILE" description:"Optional YAML rules override file"`
	MaxItems       int    `long:"max" env:"MAX_ITEMS" default:"10" description:"Max feed entries to process per run"`
	DryRun         bool   `long:"dry-run" description:"Do not post to Slack; print output"`
	Force          bool   `long:"force" description:"Treat all fetched entries as new"`
	ShowRaw        bool   `long:"show-raw" description:"Print extracted message text instead of summarizing"`
	Schedule       string `long:"schedule" env:"CRON_SCHEDULE" description:"Cron expression; empty runs once and exits"`
	ChunkLimit     int    `long:"chunk-limit" env:"CHUNK_LIMIT" default:"35000" description:"Max characters per delivered chunk"`
	MaxGenRequests int    `long:"max-gen-requests" env:"MAX_GEN_REQUESTS" default:"25" description:"Max generation calls per run"`

	OpenAIModel string `long:"model" env:"OPENAI_MODEL" default:"gpt-4o-mini" description:"OpenAI model identifier"`
	GeminiModel string `long:"gemini-model" env:"GEMINI_MODEL" default:"gemini-1.5-flash" description:"Gemini model identifier"`

	SlackWebhookURL string `long:"slack-webhook-url" env:"SLACK_WEBHOOK_URL" description:"Slack incoming webhook URL"`
	GeminiAPIKey    string `long:"gemini-api-key" env:"GEMINI_API_KEY" description:"Gemini API key"`
	OpenAIAPIKey    string `long:"openai-api-key" env:"OPENAI_API_KEY" description:"OpenAI API key"`
	DatabaseURL     string `long:"database-url" env:"DATABASE_URL" description:"Optional Postgres URL for shared seen-id state"`
}

type Config struct {
	FeedURL        string
	StateFile      string
	RulesFile      string
	MaxItems       int
	DryRun         bool
	Force          bool
	ShowRaw        bool
	Schedule       string
	ChunkLimit     int
	MaxGenRequests int

	OpenAIModel string
	GeminiModel string

	SlackWebhookURL string
	GeminiAPIKey    string
	OpenAIAPIKey    string
	DatabaseURL     string

	RequestTimeout time.Duration
}

func Load(args []string) (*Config, error) {
	var raw rawConfig

	parser := flags.NewParser(&raw, flags.Default)
	if _, err := parser.ParseArgs(args); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	cfg := &Config{
		FeedURL:         raw.FeedURL,
		StateFile:       raw.StateFile,
		RulesFile:       raw.RulesFile,
		MaxItems:        raw.MaxItems,
		DryRun:          raw.DryRun,
		Force:           raw.Force,
		ShowRaw:         raw.ShowRaw,
		Schedule:        raw.Schedule,
		ChunkLimit:      raw.ChunkLimit,
		MaxGenRequests:  raw.MaxGenRequests,
		OpenAIModel:     raw.OpenAIModel,
		GeminiModel:     raw.GeminiModel,
		SlackWebhookURL: raw.SlackWebhookURL,
		GeminiAPIKey:    raw.GeminiAPIKey,
		OpenAIAPIKey:    raw.OpenAIAPIKey,
		DatabaseURL:     raw.DatabaseURL,
		RequestTimeout:  25 * time.Second,
	}

	if cfg.FeedURL == "" {
		cfg.FeedURL = defaultFeedURL
	}
	if cfg.MaxItems < 1 {
		cfg.MaxItems = 1
	}

	return cfg, cfg.Validate()
}

func (c *Config) Validate() error {
	if c.ChunkLimit < 1 {
		return fmt.Errorf("chunk-limit must be positive")
	}
	if c.ShowRaw {
		return nil
	}
	if c.GeminiAPIKey == "" && c.OpenAIAPIKey == "" {
		return fmt.Errorf("GEMINI_API_KEY or OPENAI_API_KEY is required (or use --show-raw)")
	}
	if c.SlackWebhookURL == "" && !c.DryRun {
		return fmt.Errorf("SLACK_WEBHOOK_URL is required (or use --dry-run)")
	}
	return nil
}
