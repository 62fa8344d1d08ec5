package cliparse

import (
	"fmt"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/danielhkuo/cleanplate/models"
)

// Classifier providers
const (
	ProviderOpenAI = "openai"
	ProviderStub   = "stub"
)

type Config struct {
	Port             int
	DatabaseURL      string
	DatabaseType     string
	ModeratorKeySalt string
	Environment      string

	// Vision classifier
	LLMProvider   string
	OpenAIAPIKey  string
	OpenAIModel   string
	OpenAIBaseURL string
	MaxTokens     int

	// Reveal cycle
	RetryAttempts    int
	RetryDelay       time.Duration
	CallPause        time.Duration
	RevealWorkers    int
	MaxInflightCalls int

	// Room defaults
	PhotoPolicy         string
	MaxPhotoBytes       int64
	PollIntervalSeconds int
	DefaultItems        []string
}

// ParseFlags reads configuration from args, then environment, then defaults.
// Every flag has an environment twin: --database-url is DATABASE_URL.
func ParseFlags(args []string) (Config, error) {
	fs := pflag.NewFlagSet("cleanplate", pflag.ContinueOnError)

	fs.IntP("port", "p", 3318, "Server port")
	fs.StringP("database-url", "d", "", "Database URL")
	fs.StringP("database-type", "t", "sqlite", "Database type (sqlite or postgres)")
	fs.String("moderator-key-salt", "", "Moderator key salt (prefer env)")
	fs.String("environment", "development", "Log environment (development or production)")

	fs.String("llm-provider", ProviderOpenAI, "Vision classifier provider (openai or stub)")
	fs.String("openai-api-key", "", "OpenAI API key (prefer env)")
	fs.String("openai-model", "gpt-4o-mini", "OpenAI vision model")
	fs.String("openai-base-url", "", "Override the OpenAI API base URL")
	fs.Int("max-tokens", 500, "Max completion tokens per classification")

	fs.Int("retry-attempts", 3, "Classifier attempts per photo")
	fs.Duration("retry-delay", 2*time.Second, "Fixed delay between attempts")
	fs.Duration("call-pause", time.Second, "Minimum spacing between classifier calls")
	fs.Int("reveal-workers", 1, "Participants analyzed in parallel per reveal")
	fs.Int("max-inflight-calls", 4, "Classifier calls in flight across all rooms")

	fs.String("photo-policy", models.PhotoPolicyReplace, "Second upload of a photo type: replace or reject")
	fs.Int64("max-photo-bytes", 10<<20, "Largest accepted photo upload")
	fs.Int("poll-interval", models.DefaultPollIntervalSeconds, "Default client polling interval in seconds")
	fs.String("items", "", "Comma-separated items seeded into new rooms")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	if err := v.BindPFlags(fs); err != nil {
		return Config{}, fmt.Errorf("viper.BindPFlags -> %w", err)
	}

	cfg := Config{
		Port:                v.GetInt("port"),
		DatabaseURL:         v.GetString("database-url"),
		DatabaseType:        v.GetString("database-type"),
		ModeratorKeySalt:    v.GetString("moderator-key-salt"),
		Environment:         v.GetString("environment"),
		LLMProvider:         v.GetString("llm-provider"),
		OpenAIAPIKey:        v.GetString("openai-api-key"),
		OpenAIModel:         v.GetString("openai-model"),
		OpenAIBaseURL:       v.GetString("openai-base-url"),
		MaxTokens:           v.GetInt("max-tokens"),
		RetryAttempts:       v.GetInt("retry-attempts"),
		RetryDelay:          v.GetDuration("retry-delay"),
		CallPause:           v.GetDuration("call-pause"),
		RevealWorkers:       v.GetInt("reveal-workers"),
		MaxInflightCalls:    v.GetInt("max-inflight-calls"),
		PhotoPolicy:         v.GetString("photo-policy"),
		MaxPhotoBytes:       v.GetInt64("max-photo-bytes"),
		PollIntervalSeconds: v.GetInt("poll-interval"),
		DefaultItems:        splitItems(v.GetString("items")),
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Validate checks required settings and allowed values.
func (c *Config) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
		validation.Field(&c.DatabaseURL, validation.Required),
		validation.Field(&c.DatabaseType, validation.Required, validation.In("sqlite", "postgres")),
		validation.Field(&c.ModeratorKeySalt, validation.Required),
		validation.Field(&c.LLMProvider, validation.Required, validation.In(ProviderOpenAI, ProviderStub)),
		validation.Field(&c.OpenAIAPIKey, validation.By(func(value interface{}) error {
			if c.LLMProvider == ProviderOpenAI && value.(string) == "" {
				return fmt.Errorf("required when llm provider is %s", ProviderOpenAI)
			}
			return nil
		})),
		validation.Field(&c.MaxTokens, validation.Required, validation.Min(1)),
		validation.Field(&c.RetryAttempts, validation.Required, validation.Min(1)),
		validation.Field(&c.RetryDelay, validation.Min(time.Duration(0))),
		validation.Field(&c.CallPause, validation.Min(time.Duration(0))),
		validation.Field(&c.RevealWorkers, validation.Required, validation.Min(1)),
		validation.Field(&c.MaxInflightCalls, validation.Required, validation.Min(1)),
		validation.Field(&c.PhotoPolicy, validation.Required, validation.In(models.PhotoPolicyReplace, models.PhotoPolicyReject)),
		validation.Field(&c.MaxPhotoBytes, validation.Required, validation.Min(int64(1))),
		validation.Field(&c.PollIntervalSeconds, validation.Required, validation.Min(1)),
	)
}

// splitItems parses the comma-separated item list, falling back to the
// built-in defaults when nothing usable is configured.
func splitItems(raw string) []string {
	var items []string
	for _, part := range strings.Split(raw, ",") {
		if name := strings.TrimSpace(part); name != "" {
			items = append(items, name)
		}
	}
	if len(items) == 0 {
		return append([]string(nil), models.DefaultItems...)
	}
	return items
}
