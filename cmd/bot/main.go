// Package main starts the telegram bot process lifecycle.
package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	botcmd "github.com/forgewatch/forgewatch/internal/cmd/bot"
)

func main() {
	cfg, err := botcmd.ParseConfig(flag.CommandLine, os.Args[1:])
	if err != nil {
		log.Fatalf("parse flags: %v", err)
	}
	log.SetPrefix("[BOT] ")
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := botcmd.Run(ctx, cfg); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatalf("failed to serve: %v", err)
	}
}
