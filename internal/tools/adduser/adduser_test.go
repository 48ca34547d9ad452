package adduser

import (
	"bytes"
	"context"
	"flag"
	"path/filepath"
	"strings"
	"testing"

	"github.com/forgewatch/forgewatch/internal/tracker/storage/sqlite"
)

func TestParseConfigDefaults(t *testing.T) {
	fs := flag.NewFlagSet("adduser", flag.ContinueOnError)
	cfg, err := ParseConfig(fs, nil)
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	if cfg.DBPath != "data/tracker.db" {
		t.Fatalf("db path = %q, want %q", cfg.DBPath, "data/tracker.db")
	}
	if cfg.Role != "project_lead" {
		t.Fatalf("role = %q, want %q", cfg.Role, "project_lead")
	}
}

func TestRunCreatesActiveAccount(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tracker.db")
	out := &bytes.Buffer{}

	cfg := Config{DBPath: path, Email: "Lead@Example.com", Role: "project_lead", Admin: true}
	if err := Run(context.Background(), cfg, strings.NewReader("hunter2\n"), out); err != nil {
		t.Fatalf("run: %v", err)
	}
	if !strings.Contains(out.String(), "created lead@example.com") {
		t.Fatalf("output = %q, want created confirmation", out.String())
	}

	store, err := sqlite.Open(path)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer store.Close()
	user, err := store.UserByEmail(context.Background(), "lead@example.com")
	if err != nil {
		t.Fatalf("load created user: %v", err)
	}
	if !user.Active || !user.Admin {
		t.Fatalf("user = %+v, want active admin", user)
	}
	if !user.CheckPassword("hunter2") {
		t.Fatalf("stored password does not match")
	}
}

func TestRunRejectsMissingEmail(t *testing.T) {
	err := Run(context.Background(), Config{DBPath: "x.db"}, strings.NewReader("pw\n"), &bytes.Buffer{})
	if err == nil {
		t.Fatal("expected error for missing email")
	}
}

func TestRunRejectsUnknownRole(t *testing.T) {
	cfg := Config{DBPath: filepath.Join(t.TempDir(), "tracker.db"), Email: "a@b.com", Role: "owner"}
	if err := Run(context.Background(), cfg, strings.NewReader("pw\n"), &bytes.Buffer{}); err == nil {
		t.Fatal("expected error for unknown role")
	}
}
