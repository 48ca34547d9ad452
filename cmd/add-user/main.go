// Package main creates a tracker account.
package main

import (
	"context"
	"flag"
	"os"

	"github.com/forgewatch/forgewatch/internal/platform/config"
	"github.com/forgewatch/forgewatch/internal/tools/adduser"
)

func main() {
	cfg, err := adduser.ParseConfig(flag.CommandLine, os.Args[1:])
	if err != nil {
		config.Exitf("parse flags: %v", err)
	}
	if err := adduser.Run(context.Background(), cfg, os.Stdin, os.Stdout); err != nil {
		config.Exitf("add user: %v", err)
	}
}
