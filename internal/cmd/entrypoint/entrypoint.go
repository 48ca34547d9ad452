// Package entrypoint parses entrypoint command flags and builds the container
// startup sequence: setup steps, supervised services, and the passthrough
// command taken from the remaining arguments.
package entrypoint

import (
	"context"
	"flag"
	"path/filepath"

	"github.com/forgewatch/forgewatch/internal/entrypoint"
	platformcmd "github.com/forgewatch/forgewatch/internal/platform/cmd"
)

// Config holds entrypoint command configuration.
type Config struct {
	BinDir     string `env:"FORGEWATCH_ENTRYPOINT_BIN_DIR" envDefault:"/app"`
	StaticRoot string `env:"FORGEWATCH_STATIC_ROOT" envDefault:"static"`
	SkipSteps  bool   `env:"FORGEWATCH_ENTRYPOINT_SKIP_STEPS"`
}

// ParseConfig parses environment and flags into a Config. The arguments left
// after flag parsing are returned as the passthrough command.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, []string, error) {
	var cfg Config
	if err := platformcmd.ParseConfig(&cfg); err != nil {
		return Config{}, nil, err
	}
	fs.StringVar(&cfg.BinDir, "bin-dir", cfg.BinDir, "Directory holding the service binaries")
	fs.StringVar(&cfg.StaticRoot, "static-root", cfg.StaticRoot, "Directory collected static assets live in")
	fs.BoolVar(&cfg.SkipSteps, "skip-steps", cfg.SkipSteps, "Skip the setup steps and start the services directly")
	if err := platformcmd.ParseArgs(fs, args); err != nil {
		return Config{}, nil, err
	}
	return cfg, fs.Args(), nil
}

// Run executes the startup sequence and returns the process exit code.
func Run(ctx context.Context, cfg Config, passthrough []string) int {
	var steps []entrypoint.Step
	if !cfg.SkipSteps {
		steps = []entrypoint.Step{
			{Name: "collect-static", Args: []string{filepath.Join(cfg.BinDir, "web"), "-collect-static", "-static-root", cfg.StaticRoot}},
			{Name: "migrate", Args: []string{filepath.Join(cfg.BinDir, "migrate")}},
			{Name: "selfcheck", Args: []string{filepath.Join(cfg.BinDir, "selfcheck"), "-static-root", cfg.StaticRoot}},
		}
	}

	return entrypoint.Run(ctx, entrypoint.Config{
		Steps: steps,
		Children: []entrypoint.Child{
			{Name: "web", Args: []string{filepath.Join(cfg.BinDir, "web")}},
			{Name: "bot", Args: []string{filepath.Join(cfg.BinDir, "bot")}},
		},
		Passthrough: passthrough,
	})
}
