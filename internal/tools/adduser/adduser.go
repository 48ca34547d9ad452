// Package adduser creates tracker accounts from the command line, the way a
// fresh deployment gets its first project lead.
package adduser

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/forgewatch/forgewatch/internal/tracker/domain"
	"github.com/forgewatch/forgewatch/internal/tracker/storage/sqlite"
)

// Config holds configuration for account creation.
type Config struct {
	DBPath string
	Email  string
	Role   string
	Admin  bool
}

// ParseConfig parses flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	cfg := Config{DBPath: "data/tracker.db", Role: "project_lead"}
	fs.StringVar(&cfg.DBPath, "db-path", cfg.DBPath, "The tracker SQLite database path")
	fs.StringVar(&cfg.Email, "email", cfg.Email, "Account email address")
	fs.StringVar(&cfg.Role, "role", cfg.Role, "Account role (contributor or project_lead)")
	fs.BoolVar(&cfg.Admin, "admin", cfg.Admin, "Create the account with admin rights")
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run reads the password from in, creates the account, and reports it on out.
func Run(ctx context.Context, cfg Config, in io.Reader, out io.Writer) error {
	if strings.TrimSpace(cfg.Email) == "" {
		return errors.New("email is required")
	}
	if in == nil || out == nil {
		return errors.New("input and output are required")
	}

	role, err := domain.ParseRole(cfg.Role)
	if err != nil {
		return err
	}

	fmt.Fprint(out, "password: ")
	password, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("read password: %w", err)
	}
	password = strings.TrimRight(password, "\r\n")

	user, err := newUser(cfg, password, role)
	if err != nil {
		return err
	}

	store, err := sqlite.Open(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open tracker sqlite store: %w", err)
	}
	defer store.Close()

	if err := store.CreateUser(ctx, user); err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	fmt.Fprintf(out, "created %s (%s)\n", user.Email, user.Role)
	return nil
}

func newUser(cfg Config, password string, role domain.Role) (domain.User, error) {
	if cfg.Admin {
		return domain.NewAdmin(cfg.Email, password, role)
	}
	return domain.NewUser(cfg.Email, password, role)
}
