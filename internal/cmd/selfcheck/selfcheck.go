// Package selfcheck parses selfcheck command flags and runs the deployment
// verification checks.
package selfcheck

import (
	"context"
	"flag"

	entrypoint "github.com/forgewatch/forgewatch/internal/platform/cmd"
	"github.com/forgewatch/forgewatch/internal/selfcheck"
)

// Config holds selfcheck command configuration.
type Config struct {
	DBPath        string `env:"FORGEWATCH_DB_PATH" envDefault:"data/tracker.db"`
	StaticRoot    string `env:"FORGEWATCH_STATIC_ROOT" envDefault:"static"`
	GitHubToken   string `env:"FORGEWATCH_GITHUB_TOKEN"`
	TelegramToken string `env:"FORGEWATCH_BOT_TOKEN"`
}

// ParseConfig parses environment and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}
	fs.StringVar(&cfg.DBPath, "db-path", cfg.DBPath, "The tracker SQLite database path")
	fs.StringVar(&cfg.StaticRoot, "static-root", cfg.StaticRoot, "Directory collected static assets live in")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run executes every deployment check.
func Run(ctx context.Context, cfg Config) error {
	return selfcheck.Run(ctx, selfcheck.Config{
		DBPath:        cfg.DBPath,
		StaticRoot:    cfg.StaticRoot,
		GitHubToken:   cfg.GitHubToken,
		TelegramToken: cfg.TelegramToken,
	}, nil)
}
