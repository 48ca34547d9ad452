// Package migrate parses migrate command flags and applies pending schema
// migrations by opening the store.
package migrate

import (
	"context"
	"flag"
	"fmt"
	"log"

	entrypoint "github.com/forgewatch/forgewatch/internal/platform/cmd"
	"github.com/forgewatch/forgewatch/internal/tracker/storage/sqlite"
)

// Config holds migrate command configuration.
type Config struct {
	DBPath string `env:"FORGEWATCH_DB_PATH" envDefault:"data/tracker.db"`
}

// ParseConfig parses environment and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}
	fs.StringVar(&cfg.DBPath, "db-path", cfg.DBPath, "The tracker SQLite database path")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run opens the store, which applies pending migrations, and closes it.
func Run(ctx context.Context, cfg Config) error {
	store, err := sqlite.Open(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}
	if err := store.Close(); err != nil {
		return fmt.Errorf("close store: %w", err)
	}
	log.Printf("migrations applied to %s", cfg.DBPath)
	return nil
}
