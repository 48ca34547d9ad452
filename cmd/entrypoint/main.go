// Package main sequences container startup: setup steps, then the web server
// and bot supervised together, then an optional passthrough command.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	entrypointcmd "github.com/forgewatch/forgewatch/internal/cmd/entrypoint"
)

func main() {
	cfg, passthrough, err := entrypointcmd.ParseConfig(flag.CommandLine, os.Args[1:])
	if err != nil {
		log.Fatalf("parse flags: %v", err)
	}
	log.SetPrefix("[ENTRYPOINT] ")
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	os.Exit(entrypointcmd.Run(ctx, cfg, passthrough))
}
