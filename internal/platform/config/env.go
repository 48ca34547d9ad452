// Package config provides shared configuration loading for service commands.
package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// ParseEnv populates target from FORGEWATCH_* environment variables using
// `env` struct tags.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}
