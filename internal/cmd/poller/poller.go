// Package poller parses poller command flags and launches the scan runtime.
package poller

import (
	"context"
	"flag"
	"time"

	entrypoint "github.com/forgewatch/forgewatch/internal/platform/cmd"
	pollerserver "github.com/forgewatch/forgewatch/internal/poller"
)

// Config holds poller command configuration.
type Config struct {
	Port            int           `env:"FORGEWATCH_POLLER_PORT" envDefault:"8091"`
	DBPath          string        `env:"FORGEWATCH_POLLER_DB_PATH" envDefault:"data/tracker.db"`
	GitHubBaseURL   string        `env:"FORGEWATCH_GITHUB_API_URL"`
	GitHubToken     string        `env:"FORGEWATCH_GITHUB_TOKEN"`
	TelegramBaseURL string        `env:"FORGEWATCH_BOT_API_URL"`
	TelegramToken   string        `env:"FORGEWATCH_BOT_TOKEN"`
	Language        string        `env:"FORGEWATCH_POLLER_LANGUAGE" envDefault:"en"`
	ScanInterval    time.Duration `env:"FORGEWATCH_POLLER_SCAN_INTERVAL" envDefault:"10m"`
	ReviewInterval  time.Duration `env:"FORGEWATCH_POLLER_REVIEW_INTERVAL" envDefault:"24h"`
}

// ParseConfig parses environment and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}
	fs.IntVar(&cfg.Port, "port", cfg.Port, "The poller health gRPC server port")
	fs.StringVar(&cfg.DBPath, "db-path", cfg.DBPath, "The tracker SQLite database path")
	fs.StringVar(&cfg.GitHubBaseURL, "github-api-url", cfg.GitHubBaseURL, "The GitHub API base URL")
	fs.StringVar(&cfg.TelegramBaseURL, "telegram-api-url", cfg.TelegramBaseURL, "The telegram Bot API base URL")
	fs.StringVar(&cfg.Language, "language", cfg.Language, "Notification language tag")
	fs.DurationVar(&cfg.ScanInterval, "scan-interval", cfg.ScanInterval, "Delay between repository scans")
	fs.DurationVar(&cfg.ReviewInterval, "review-interval", cfg.ReviewInterval, "Default review digest interval")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run starts the poller runtime.
func Run(ctx context.Context, cfg Config) error {
	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServicePoller, func(context.Context) error {
		return pollerserver.Run(ctx, pollerserver.RuntimeConfig{
			Port:            cfg.Port,
			DBPath:          cfg.DBPath,
			GitHubBaseURL:   cfg.GitHubBaseURL,
			GitHubToken:     cfg.GitHubToken,
			TelegramBaseURL: cfg.TelegramBaseURL,
			TelegramToken:   cfg.TelegramToken,
			Language:        cfg.Language,
			ScanInterval:    cfg.ScanInterval,
			ReviewInterval:  cfg.ReviewInterval,
		})
	})
}
