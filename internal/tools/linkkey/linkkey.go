// Package linkkey generates a signing key pair for telegram link tokens and
// prints it in env-file form.
package linkkey

import (
	"errors"
	"flag"
	"fmt"
	"io"

	"github.com/forgewatch/forgewatch/internal/linktoken"
)

// Config holds configuration for link key generation.
type Config struct {
	PublicOnly bool
}

// ParseConfig parses flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	fs.BoolVar(&cfg.PublicOnly, "public-only", cfg.PublicOnly, "print only the public key line")
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run generates a key pair and writes the env lines to out. Verify-only
// deployments (the bot) need only the public line.
func Run(cfg Config, out io.Writer) error {
	if out == nil {
		return errors.New("output is required")
	}

	public, private, err := linktoken.GenerateKeys()
	if err != nil {
		return fmt.Errorf("generate key pair: %w", err)
	}
	if !cfg.PublicOnly {
		if _, err := fmt.Fprintf(out, "FORGEWATCH_LINK_TOKEN_PRIVATE_KEY=%s\n", private); err != nil {
			return err
		}
	}
	_, err = fmt.Fprintf(out, "FORGEWATCH_LINK_TOKEN_PUBLIC_KEY=%s\n", public)
	return err
}
