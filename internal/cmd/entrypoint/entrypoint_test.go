package entrypoint

import (
	"flag"
	"testing"
)

func TestParseConfig_SeparatesPassthrough(t *testing.T) {
	fs := flag.NewFlagSet("entrypoint", flag.ContinueOnError)
	t.Setenv("FORGEWATCH_ENTRYPOINT_BIN_DIR", "/opt/forgewatch")

	cfg, passthrough, err := ParseConfig(fs, []string{"-skip-steps", "sh", "-c", "sleep 1"})
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	if cfg.BinDir != "/opt/forgewatch" {
		t.Fatalf("bin dir = %q, want %q", cfg.BinDir, "/opt/forgewatch")
	}
	if !cfg.SkipSteps {
		t.Fatalf("skip steps = false, want true")
	}
	want := []string{"sh", "-c", "sleep 1"}
	if len(passthrough) != len(want) {
		t.Fatalf("passthrough = %v, want %v", passthrough, want)
	}
	for i := range want {
		if passthrough[i] != want[i] {
			t.Fatalf("passthrough[%d] = %q, want %q", i, passthrough[i], want[i])
		}
	}
}

func TestParseConfig_Defaults(t *testing.T) {
	fs := flag.NewFlagSet("entrypoint", flag.ContinueOnError)

	cfg, passthrough, err := ParseConfig(fs, nil)
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	if cfg.BinDir != "/app" {
		t.Fatalf("bin dir = %q, want %q", cfg.BinDir, "/app")
	}
	if cfg.StaticRoot != "static" {
		t.Fatalf("static root = %q, want %q", cfg.StaticRoot, "static")
	}
	if len(passthrough) != 0 {
		t.Fatalf("passthrough = %v, want empty", passthrough)
	}
}
