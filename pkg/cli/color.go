package cli

import (
	"os"
	"strings"

	"github.com/mattn/go-isatty"
)

type colorizer struct {
	enabled bool
}

// newColorizer resolves the configured color mode ("auto", "always", "never")
// against the environment.
func newColorizer(mode string) colorizer {
	switch mode {
	case "always":
		return colorizer{enabled: true}
	case "never":
		return colorizer{enabled: false}
	default:
		return colorizer{enabled: stdoutSupportsColor()}
	}
}

func stdoutSupportsColor() bool {
	// NO_COLOR convention: https://no-color.org/
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		return false
	}
	if !isatty.IsTerminal(os.Stdout.Fd()) && !isatty.IsCygwinTerminal(os.Stdout.Fd()) {
		return false
	}
	term := os.Getenv("TERM")
	if term == "dumb" {
		return false
	}
	return true
}

func (c colorizer) wrap(code, s string) string {
	if !c.enabled || strings.TrimSpace(s) == "" {
		return s
	}
	return code + s + "\x1b[0m"
}

func (c colorizer) red(s string) string   { return c.wrap("\x1b[31m", s) }
func (c colorizer) green(s string) string { return c.wrap("\x1b[32m", s) }
