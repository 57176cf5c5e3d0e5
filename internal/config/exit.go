package config

import (
	"fmt"
	"os"
)

// Fail reports a fatal error on stderr and exits with status 1. Both
// commands end here on startup and batch errors.
func Fail(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}
