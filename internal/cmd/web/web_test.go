package web

import (
	"context"
	"flag"
	"testing"
)

func TestParseConfig_ParsesDefaultsAndFlags(t *testing.T) {
	fs := flag.NewFlagSet("web", flag.ContinueOnError)
	t.Setenv("FORGEWATCH_WEB_SESSION_SECRET", "session-secret")
	t.Setenv("FORGEWATCH_WEB_BOT_USERNAME", "forgewatch_bot")

	cfg, err := ParseConfig(fs, []string{"-addr", "127.0.0.1:9000", "-verify-repo-links"})
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	if cfg.Addr != "127.0.0.1:9000" {
		t.Fatalf("addr = %q, want %q", cfg.Addr, "127.0.0.1:9000")
	}
	if cfg.SessionSecret != "session-secret" {
		t.Fatalf("session secret = %q, want %q", cfg.SessionSecret, "session-secret")
	}
	if cfg.BotUsername != "forgewatch_bot" {
		t.Fatalf("bot username = %q, want %q", cfg.BotUsername, "forgewatch_bot")
	}
	if !cfg.VerifyRepoLinks {
		t.Fatalf("verify repo links = false, want true")
	}
}

func TestParseConfig_Defaults(t *testing.T) {
	fs := flag.NewFlagSet("web", flag.ContinueOnError)

	cfg, err := ParseConfig(fs, nil)
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	if cfg.Addr != "0.0.0.0:8000" {
		t.Fatalf("addr = %q, want %q", cfg.Addr, "0.0.0.0:8000")
	}
	if cfg.DBPath != "data/tracker.db" {
		t.Fatalf("db path = %q, want %q", cfg.DBPath, "data/tracker.db")
	}
	if cfg.StaticRoot != "static" {
		t.Fatalf("static root = %q, want %q", cfg.StaticRoot, "static")
	}
	if cfg.CollectStatic {
		t.Fatalf("collect static = true, want false")
	}
}

func TestRun_CollectStaticWritesAssets(t *testing.T) {
	fs := flag.NewFlagSet("web", flag.ContinueOnError)
	root := t.TempDir()

	cfg, err := ParseConfig(fs, []string{"-collect-static", "-static-root", root})
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	if err := Run(context.Background(), cfg); err != nil {
		t.Fatalf("run collect-static: %v", err)
	}
}
