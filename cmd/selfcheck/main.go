// Package main verifies the deployment and exits non-zero on failure.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	selfcheckcmd "github.com/forgewatch/forgewatch/internal/cmd/selfcheck"
)

func main() {
	cfg, err := selfcheckcmd.ParseConfig(flag.CommandLine, os.Args[1:])
	if err != nil {
		log.Fatalf("parse flags: %v", err)
	}
	log.SetPrefix("[SELFCHECK] ")
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := selfcheckcmd.Run(ctx, cfg); err != nil {
		log.Fatalf("deployment checks failed: %v", err)
	}
}
