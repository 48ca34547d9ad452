// Package main starts the repository poller process lifecycle.
package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	pollercmd "github.com/forgewatch/forgewatch/internal/cmd/poller"
)

func main() {
	cfg, err := pollercmd.ParseConfig(flag.CommandLine, os.Args[1:])
	if err != nil {
		log.Fatalf("parse flags: %v", err)
	}
	log.SetPrefix("[POLLER] ")
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := pollercmd.Run(ctx, cfg); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatalf("failed to serve: %v", err)
	}
}
