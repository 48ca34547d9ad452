package telegram

import (
	"context"
	"fmt"
	"log"
	"net"
	"os"
	"path/filepath"
	"strings"

	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"golang.org/x/text/language"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	grpc_health_v1 "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/forgewatch/forgewatch/internal/github"
	"github.com/forgewatch/forgewatch/internal/linktoken"
	"github.com/forgewatch/forgewatch/internal/telegram/render"
	"github.com/forgewatch/forgewatch/internal/tracker/storage/sqlite"
)

// RuntimeConfig controls bot startup and dependency wiring.
type RuntimeConfig struct {
	Port              int
	DBPath            string
	BaseURL           string
	Token             string
	GitHubBaseURL     string
	GitHubToken       string
	Language          string
	LinkTokens        linktoken.Config
}

const (
	defaultBotPort = 8090
	defaultBotDB   = "data/tracker.db"
)

// RunRuntime starts the bot dependencies, the health server, and the
// long-poll dispatch loop.
func RunRuntime(ctx context.Context, cfg RuntimeConfig) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if strings.TrimSpace(cfg.Token) == "" {
		return fmt.Errorf("telegram bot token is required")
	}
	if cfg.Port <= 0 {
		cfg.Port = defaultBotPort
	}
	if strings.TrimSpace(cfg.DBPath) == "" {
		cfg.DBPath = defaultBotDB
	}

	if len(cfg.LinkTokens.Public) == 0 {
		return fmt.Errorf("link token keys are required")
	}

	if dir := filepath.Dir(cfg.DBPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create bot storage dir: %w", err)
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
	telegramClient := NewClient(cfg.BaseURL, cfg.Token, nil)

	tag := language.English
	if trimmed := strings.TrimSpace(cfg.Language); trimmed != "" {
		parsed, err := language.Parse(trimmed)
		if err != nil {
			return fmt.Errorf("parse bot language %q: %w", trimmed, err)
		}
		tag = parsed
	}

	bot := NewBot(telegramClient, store, githubClient, cfg.LinkTokens, render.NewLocalizer(tag), nil)

	listener, err := net.Listen("tcp", fmt.Sprintf(":%d", cfg.Port))
	if err != nil {
		return fmt.Errorf("listen on bot port %d: %w", cfg.Port, err)
	}
	defer listener.Close()

	grpcServer := grpc.NewServer(grpc.StatsHandler(otelgrpc.NewServerHandler()))
	healthServer := health.NewServer()
	grpc_health_v1.RegisterHealthServer(grpcServer, healthServer)
	healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)
	healthServer.SetServingStatus("bot.runtime", grpc_health_v1.HealthCheckResponse_SERVING)

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- grpcServer.Serve(listener)
	}()
	defer func() {
		healthServer.Shutdown()
		grpcServer.GracefulStop()
		<-serveErr
	}()

	log.Printf("bot listening at %v", listener.Addr())
	return bot.Run(ctx)
}
