// Package selfcheck verifies a deployment before the services come up: the
// database opens and migrates, collected static assets exist, and the
// credentials the bot and poller depend on are present.
package selfcheck

import (
	"context"
	"crypto/ed25519"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/forgewatch/forgewatch/internal/linktoken"
	"github.com/forgewatch/forgewatch/internal/tracker/storage/sqlite"
)

// Check is one named verification.
type Check struct {
	Name string
	Run  func(ctx context.Context) error
}

// Config carries the deployment surface the checks inspect.
type Config struct {
	DBPath        string
	StaticRoot    string
	GitHubToken   string
	TelegramToken string
}

// Checks builds the ordered verification list for a deployment.
func Checks(cfg Config) []Check {
	return []Check{
		{Name: "database", Run: checkDatabase(cfg.DBPath)},
		{Name: "static-root", Run: checkStaticRoot(cfg.StaticRoot)},
		{Name: "github-token", Run: checkToken("github", cfg.GitHubToken)},
		{Name: "telegram-token", Run: checkToken("telegram", cfg.TelegramToken)},
		{Name: "link-token-keys", Run: checkLinkTokenKeys},
	}
}

// Run executes every check, logging each outcome, and returns the combined
// failures. A nil error means the deployment passed.
func Run(ctx context.Context, cfg Config, logger *log.Logger) error {
	if logger == nil {
		logger = log.Default()
	}

	var failures []error
	for _, check := range Checks(cfg) {
		if err := check.Run(ctx); err != nil {
			logger.Printf("check %s failed: %v", check.Name, err)
			failures = append(failures, fmt.Errorf("%s: %w", check.Name, err))
			continue
		}
		logger.Printf("check %s ok", check.Name)
	}
	return errors.Join(failures...)
}

func checkDatabase(path string) func(context.Context) error {
	return func(ctx context.Context) error {
		if strings.TrimSpace(path) == "" {
			return errors.New("database path is not configured")
		}
		store, err := sqlite.Open(path)
		if err != nil {
			return fmt.Errorf("open database: %w", err)
		}
		return store.Close()
	}
}

func checkStaticRoot(root string) func(context.Context) error {
	return func(ctx context.Context) error {
		if strings.TrimSpace(root) == "" {
			return errors.New("static root is not configured")
		}
		entries, err := os.ReadDir(root)
		if err != nil {
			return fmt.Errorf("read static root: %w", err)
		}
		if len(entries) == 0 {
			return errors.New("static root is empty")
		}
		return nil
	}
}

func checkToken(name, token string) func(context.Context) error {
	return func(ctx context.Context) error {
		if strings.TrimSpace(token) == "" {
			return fmt.Errorf("%s token is not configured", name)
		}
		return nil
	}
}

func checkLinkTokenKeys(ctx context.Context) error {
	cfg, err := linktoken.LoadConfigFromEnv(nil)
	if err != nil {
		return err
	}
	if len(cfg.Private) != ed25519.PrivateKeySize && len(cfg.Public) != ed25519.PublicKeySize {
		return errors.New("no link token key material is configured")
	}
	return nil
}
