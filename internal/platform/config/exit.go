package config

import (
	"fmt"
	"os"
)

// Exitf writes a formatted error message to stderr and exits with code 1.
// It gives every command the same fatal-exit shape.
func Exitf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
