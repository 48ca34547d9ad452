// Package main generates a telegram link token key pair.
package main

import (
	"flag"
	"os"

	"github.com/forgewatch/forgewatch/internal/platform/config"
	"github.com/forgewatch/forgewatch/internal/tools/linkkey"
)

func main() {
	cfg, err := linkkey.ParseConfig(flag.CommandLine, os.Args[1:])
	if err != nil {
		config.Exitf("parse flags: %v", err)
	}
	if err := linkkey.Run(cfg, os.Stdout); err != nil {
		config.Exitf("generate key: %v", err)
	}
}
