package poller

import (
	"context"
	"fmt"
	"log"
	"net"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"golang.org/x/text/language"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	grpc_health_v1 "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/forgewatch/forgewatch/internal/github"
	"github.com/forgewatch/forgewatch/internal/telegram"
	"github.com/forgewatch/forgewatch/internal/telegram/render"
	"github.com/forgewatch/forgewatch/internal/tracker/storage/sqlite"
)

// RuntimeConfig controls poller startup, dependencies, and loop behavior.
type RuntimeConfig struct {
	Port            int
	DBPath          string
	GitHubBaseURL   string
	GitHubToken     string
	TelegramBaseURL string
	TelegramToken   string
	Language        string
	ScanInterval    time.Duration
	ReviewInterval  time.Duration
}

const (
	defaultPollerPort = 8091
	defaultPollerDB   = "data/tracker.db"
)

// Run starts poller runtime dependencies and the background loops.
func Run(ctx context.Context, cfg RuntimeConfig) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if strings.TrimSpace(cfg.TelegramToken) == "" {
		return fmt.Errorf("telegram bot token is required")
	}
	if cfg.Port <= 0 {
		cfg.Port = defaultPollerPort
	}
	if strings.TrimSpace(cfg.DBPath) == "" {
		cfg.DBPath = defaultPollerDB
	}

	if dir := filepath.Dir(cfg.DBPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create poller storage dir: %w", err)
		}
	}

	store, err := sqlite.Open(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open tracker sqlite store: %w", err)
	}
	defer func() {
		if closeErr := store.Close(); closeErr != nil {
			log.Printf("close tracker sqlite store: %v", closeErr)
		}
	}()

	githubClient := github.NewClient(cfg.GitHubBaseURL, cfg.GitHubToken, nil)
	telegramClient := telegram.NewClient(cfg.TelegramBaseURL, cfg.TelegramToken, nil)

	tag := language.English
	if trimmed := strings.TrimSpace(cfg.Language); trimmed != "" {
		parsed, err := language.Parse(trimmed)
		if err != nil {
			return fmt.Errorf("parse poller language %q: %w", trimmed, err)
		}
		tag = parsed
	}

	engine := New(
		store,
		githubClient,
		telegramClient,
		render.NewLocalizer(tag),
		nil,
		cfg.ScanInterval,
		cfg.ReviewInterval,
	)

	listener, err := net.Listen("tcp", fmt.Sprintf(":%d", cfg.Port))
	if err != nil {
		return fmt.Errorf("listen on poller port %d: %w", cfg.Port, err)
	}
	defer listener.Close()

	grpcServer := grpc.NewServer(grpc.StatsHandler(otelgrpc.NewServerHandler()))
	healthServer := health.NewServer()
	grpc_health_v1.RegisterHealthServer(grpcServer, healthServer)
	healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)
	healthServer.SetServingStatus("poller.runtime", grpc_health_v1.HealthCheckResponse_SERVING)

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- grpcServer.Serve(listener)
	}()
	defer func() {
		healthServer.Shutdown()
		grpcServer.GracefulStop()
		<-serveErr
	}()

	log.Printf("poller listening at %v", listener.Addr())
	return engine.Run(ctx)
}
