package main

import (
	"os"
	"strings"
)

// init runs before any style is rendered. Termenv may probe the terminal
// for its background color by writing OSC/DSR sequences to stdout, which
// corrupts JSON read by another program. Setting CI turns the probing off.
func init() {
	if os.Getenv("CI") != "" {
		return
	}
	if shouldSuppressTTYQueries(os.Args[1:], os.Getenv("QW_JSON") == "1") {
		_ = os.Setenv("CI", "1")
	}
}

func shouldSuppressTTYQueries(args []string, envJSON bool) bool {
	if envJSON {
		return true
	}
	for _, arg := range args {
		if arg == "--" {
			break
		}
		if arg == "--json" || strings.HasPrefix(arg, "--json=") {
			return true
		}
		switch arg {
		case "--version", "--help", "-h":
			return true
		}
	}
	return false
}
