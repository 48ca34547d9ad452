package migrate

import (
	"context"
	"flag"
	"os"
	"path/filepath"
	"testing"
)

func TestParseConfig_Defaults(t *testing.T) {
	fs := flag.NewFlagSet("migrate", flag.ContinueOnError)

	cfg, err := ParseConfig(fs, nil)
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	if cfg.DBPath != "data/tracker.db" {
		t.Fatalf("db path = %q, want %q", cfg.DBPath, "data/tracker.db")
	}
}

func TestRun_AppliesMigrations(t *testing.T) {
	fs := flag.NewFlagSet("migrate", flag.ContinueOnError)
	path := filepath.Join(t.TempDir(), "tracker.db")

	cfg, err := ParseConfig(fs, []string{"-db-path", path})
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	if err := Run(context.Background(), cfg); err != nil {
		t.Fatalf("run migrate: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("database file missing: %v", err)
	}
}
