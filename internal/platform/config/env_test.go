package config

import "testing"

type envTarget struct {
	Addr     string `env:"CONFIG_TEST_ADDR" envDefault:"0.0.0.0:8000"`
	Interval int    `env:"CONFIG_TEST_INTERVAL" envDefault:"3600"`
}

func TestParseEnvUsesDefaults(t *testing.T) {
	var target envTarget
	if err := ParseEnv(&target); err != nil {
		t.Fatalf("parse env: %v", err)
	}
	if target.Addr != "0.0.0.0:8000" {
		t.Fatalf("addr = %q, want %q", target.Addr, "0.0.0.0:8000")
	}
	if target.Interval != 3600 {
		t.Fatalf("interval = %d, want 3600", target.Interval)
	}
}

func TestParseEnvReadsEnvironment(t *testing.T) {
	t.Setenv("CONFIG_TEST_ADDR", "127.0.0.1:9000")
	t.Setenv("CONFIG_TEST_INTERVAL", "60")

	var target envTarget
	if err := ParseEnv(&target); err != nil {
		t.Fatalf("parse env: %v", err)
	}
	if target.Addr != "127.0.0.1:9000" {
		t.Fatalf("addr = %q, want %q", target.Addr, "127.0.0.1:9000")
	}
	if target.Interval != 60 {
		t.Fatalf("interval = %d, want 60", target.Interval)
	}
}

func TestParseEnvRejectsMalformedValue(t *testing.T) {
	t.Setenv("CONFIG_TEST_INTERVAL", "not-a-number")

	var target envTarget
	if err := ParseEnv(&target); err == nil {
		t.Fatal("expected parse error for malformed int")
	}
}
