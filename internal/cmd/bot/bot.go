// Package bot parses bot command flags and launches the telegram dispatcher.
package bot

import (
	"context"
	"flag"
	"fmt"
	"time"

	"github.com/forgewatch/forgewatch/internal/linktoken"
	entrypoint "github.com/forgewatch/forgewatch/internal/platform/cmd"
	"github.com/forgewatch/forgewatch/internal/telegram"
)

// Config holds bot command configuration.
type Config struct {
	Port          int    `env:"FORGEWATCH_BOT_PORT" envDefault:"8090"`
	DBPath        string `env:"FORGEWATCH_BOT_DB_PATH" envDefault:"data/tracker.db"`
	BaseURL       string `env:"FORGEWATCH_BOT_API_URL"`
	Token         string `env:"FORGEWATCH_BOT_TOKEN"`
	GitHubBaseURL string `env:"FORGEWATCH_GITHUB_API_URL"`
	GitHubToken   string `env:"FORGEWATCH_GITHUB_TOKEN"`
	Language      string `env:"FORGEWATCH_BOT_LANGUAGE" envDefault:"en"`
}

// ParseConfig parses environment and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}
	fs.IntVar(&cfg.Port, "port", cfg.Port, "The bot health gRPC server port")
	fs.StringVar(&cfg.DBPath, "db-path", cfg.DBPath, "The tracker SQLite database path")
	fs.StringVar(&cfg.BaseURL, "api-url", cfg.BaseURL, "The telegram Bot API base URL")
	fs.StringVar(&cfg.GitHubBaseURL, "github-api-url", cfg.GitHubBaseURL, "The GitHub API base URL")
	fs.StringVar(&cfg.Language, "language", cfg.Language, "Reply language tag")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run starts the bot runtime.
func Run(ctx context.Context, cfg Config) error {
	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServiceBot, func(context.Context) error {
		tokens, err := linktoken.LoadConfigFromEnv(time.Now)
		if err != nil {
			return fmt.Errorf("load link token keys: %w", err)
		}
		return telegram.RunRuntime(ctx, telegram.RuntimeConfig{
			Port:          cfg.Port,
			DBPath:        cfg.DBPath,
			BaseURL:       cfg.BaseURL,
			Token:         cfg.Token,
			GitHubBaseURL: cfg.GitHubBaseURL,
			GitHubToken:   cfg.GitHubToken,
			Language:      cfg.Language,
			LinkTokens:    tokens,
		})
	})
}
