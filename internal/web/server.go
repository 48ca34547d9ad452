// Package web serves the tracker dashboard: account sign-in, repository
// management, telegram deep links, team administration, and a status page
// probing the other services.
package web

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gorilla/sessions"

	"github.com/forgewatch/forgewatch/internal/linktoken"
	platformgrpc "github.com/forgewatch/forgewatch/internal/platform/grpc"
	"github.com/forgewatch/forgewatch/internal/platform/timeouts"
	"github.com/forgewatch/forgewatch/internal/tracker/domain"
	"github.com/forgewatch/forgewatch/internal/tracker/storage/sqlite"
)

const sessionName = "forgewatch-session"

// DefaultAddr binds all interfaces so containerized deployments are reachable.
const DefaultAddr = "0.0.0.0:8000"

// Config controls web server startup.
type Config struct {
	Addr             string
	DBPath           string
	SessionSecret    string
	BotUsername      string
	BotHealthAddr    string
	PollerHealthAddr string
	VerifyRepoLinks  bool
	LinkTokens       linktoken.Config
}

// Store is the persistence surface the dashboard consumes.
type Store interface {
	UserByEmail(ctx context.Context, email string) (domain.User, error)
	UserByID(ctx context.Context, id string) (domain.User, error)
	CreateRepository(ctx context.Context, repo domain.Repository) error
	RepositoriesByUser(ctx context.Context, userID string) ([]domain.Repository, error)
	DeleteRepository(ctx context.Context, id string) error
	TelegramLinkByUserID(ctx context.Context, userID string) (domain.TelegramLink, error)
	CreateContributor(ctx context.Context, contributor domain.Contributor) error
	ListContributors(ctx context.Context) ([]domain.Contributor, error)
	CreateSupport(ctx context.Context, support domain.Support) error
}

// HealthProber reports whether a gRPC service at addr is serving.
type HealthProber func(ctx context.Context, addr string) bool

// Server is the tracker dashboard HTTP server.
type Server struct {
	httpAddr    string
	httpServer  *http.Server
	store       Store
	closeStore  func() error
	sessions    *sessions.CookieStore
	tokens      linktoken.Config
	botUsername string
	botAddr     string
	pollerAddr  string
	probe       HealthProber
	verifyLinks bool
}

// NewServer opens the sqlite store and builds a configured dashboard server.
func NewServer(ctx context.Context, cfg Config) (*Server, error) {
	if strings.TrimSpace(cfg.DBPath) == "" {
		return nil, errors.New("database path is required")
	}
	if dir := filepath.Dir(cfg.DBPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create storage dir: %w", err)
		}
	}
	store, err := sqlite.Open(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open tracker sqlite store: %w", err)
	}

	server, err := NewServerWithStore(cfg, store)
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	server.closeStore = store.Close
	return server, nil
}

// NewServerWithStore builds a dashboard server over an existing store.
func NewServerWithStore(cfg Config, store Store) (*Server, error) {
	if store == nil {
		return nil, errors.New("store is required")
	}
	if strings.TrimSpace(cfg.SessionSecret) == "" {
		return nil, errors.New("session secret is required")
	}
	addr := strings.TrimSpace(cfg.Addr)
	if addr == "" {
		addr = DefaultAddr
	}

	sessionStore := sessions.NewCookieStore([]byte(cfg.SessionSecret))
	sessionStore.Options = &sessions.Options{HttpOnly: true, Path: "/"}

	server := &Server{
		httpAddr:    addr,
		store:       store,
		sessions:    sessionStore,
		tokens:      cfg.LinkTokens,
		botUsername: strings.TrimSpace(cfg.BotUsername),
		botAddr:     strings.TrimSpace(cfg.BotHealthAddr),
		pollerAddr:  strings.TrimSpace(cfg.PollerHealthAddr),
		probe:       probeGRPCHealth,
		verifyLinks: cfg.VerifyRepoLinks,
	}
	server.httpServer = &http.Server{
		Addr:              addr,
		Handler:           server.Handler(),
		ReadHeaderTimeout: timeouts.ReadHeader,
	}
	return server, nil
}

// Handler returns the dashboard route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleIndex)
	mux.HandleFunc("/login", s.handleLogin)
	mux.HandleFunc("/logout", s.handleLogout)
	mux.HandleFunc("/dashboard", s.handleDashboard)
	mux.HandleFunc("/repositories", s.handleCreateRepository)
	mux.HandleFunc("/repositories/delete", s.handleDeleteRepository)
	mux.HandleFunc("/telegram/link", s.handleTelegramLink)
	mux.HandleFunc("/team", s.handleTeam)
	mux.HandleFunc("/contributors", s.handleCreateContributor)
	mux.HandleFunc("/supports", s.handleCreateSupport)
	mux.HandleFunc("/status", s.handleStatus)

	if assets, err := StaticFS(); err == nil {
		mux.Handle("/static/", http.StripPrefix("/static/", http.FileServer(http.FS(assets))))
	}
	return mux
}

// ListenAndServe runs the HTTP server until the context ends.
func (s *Server) ListenAndServe(ctx context.Context) error {
	if s == nil {
		return errors.New("web server is nil")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	serveErr := make(chan error, 1)
	log.Printf("web listening on %s", s.httpAddr)
	go func() {
		serveErr <- s.httpServer.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeouts.Shutdown)
		err := s.httpServer.Shutdown(shutdownCtx)
		cancel()
		if err != nil {
			return fmt.Errorf("shutdown http server: %w", err)
		}
		return nil
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve http: %w", err)
	}
}

// Close releases the store when the server owns it.
func (s *Server) Close() {
	if s == nil || s.closeStore == nil {
		return
	}
	if err := s.closeStore(); err != nil {
		log.Printf("close tracker store: %v", err)
	}
}

func probeGRPCHealth(ctx context.Context, addr string) bool {
	if strings.TrimSpace(addr) == "" {
		return false
	}
	dialCtx, cancel := context.WithTimeout(ctx, timeouts.GRPCDial)
	defer cancel()

	conn, err := platformgrpc.DialWithHealth(dialCtx, nil, addr, timeouts.GRPCDial, nil, platformgrpc.DefaultClientDialOptions()...)
	if err != nil {
		return false
	}
	defer conn.Close()

	serving, err := platformgrpc.CheckHealth(dialCtx, conn, "")
	return err == nil && serving
}
