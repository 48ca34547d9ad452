// Package web parses web command flags and launches the admin server, or
// collects the embedded static assets when run as the collect-static step.
package web

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/forgewatch/forgewatch/internal/linktoken"
	entrypoint "github.com/forgewatch/forgewatch/internal/platform/cmd"
	webserver "github.com/forgewatch/forgewatch/internal/web"
)

// Config holds web command configuration.
type Config struct {
	Addr             string `env:"FORGEWATCH_WEB_ADDR" envDefault:"0.0.0.0:8000"`
	DBPath           string `env:"FORGEWATCH_WEB_DB_PATH" envDefault:"data/tracker.db"`
	SessionSecret    string `env:"FORGEWATCH_WEB_SESSION_SECRET"`
	BotUsername      string `env:"FORGEWATCH_WEB_BOT_USERNAME"`
	BotHealthAddr    string `env:"FORGEWATCH_WEB_BOT_HEALTH_ADDR" envDefault:"127.0.0.1:8090"`
	PollerHealthAddr string `env:"FORGEWATCH_WEB_POLLER_HEALTH_ADDR" envDefault:"127.0.0.1:8091"`
	VerifyRepoLinks  bool   `env:"FORGEWATCH_WEB_VERIFY_REPO_LINKS"`
	StaticRoot       string `env:"FORGEWATCH_STATIC_ROOT" envDefault:"static"`
	CollectStatic    bool
}

// ParseConfig parses environment and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}
	fs.StringVar(&cfg.Addr, "addr", cfg.Addr, "The web server bind address")
	fs.StringVar(&cfg.DBPath, "db-path", cfg.DBPath, "The tracker SQLite database path")
	fs.StringVar(&cfg.BotUsername, "bot-username", cfg.BotUsername, "Bot username used in telegram deep links")
	fs.StringVar(&cfg.BotHealthAddr, "bot-health-addr", cfg.BotHealthAddr, "The bot gRPC health address")
	fs.StringVar(&cfg.PollerHealthAddr, "poller-health-addr", cfg.PollerHealthAddr, "The poller gRPC health address")
	fs.BoolVar(&cfg.VerifyRepoLinks, "verify-repo-links", cfg.VerifyRepoLinks, "Probe repository links before saving")
	fs.StringVar(&cfg.StaticRoot, "static-root", cfg.StaticRoot, "Directory collected static assets live in")
	fs.BoolVar(&cfg.CollectStatic, "collect-static", cfg.CollectStatic, "Copy embedded static assets to the static root and exit")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run collects static assets or starts the admin server.
func Run(ctx context.Context, cfg Config) error {
	if cfg.CollectStatic {
		count, err := webserver.CollectStatic(cfg.StaticRoot)
		if err != nil {
			return fmt.Errorf("collect static assets: %w", err)
		}
		log.Printf("collected %d static assets into %s", count, cfg.StaticRoot)
		return nil
	}

	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServiceWeb, func(context.Context) error {
		tokens, err := linktoken.LoadConfigFromEnv(time.Now)
		if err != nil {
			return fmt.Errorf("load link token keys: %w", err)
		}
		server, err := webserver.NewServer(ctx, webserver.Config{
			Addr:             cfg.Addr,
			DBPath:           cfg.DBPath,
			SessionSecret:    cfg.SessionSecret,
			BotUsername:      cfg.BotUsername,
			BotHealthAddr:    cfg.BotHealthAddr,
			PollerHealthAddr: cfg.PollerHealthAddr,
			VerifyRepoLinks:  cfg.VerifyRepoLinks,
			LinkTokens:       tokens,
		})
		if err != nil {
			return err
		}
		return server.ListenAndServe(ctx)
	})
}
