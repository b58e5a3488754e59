package probe

import (
	"fmt"
	"io"

	"github.com/okian/canmnt/pkg/logger"
)

// SetupLogging routes probe logs to w in the given format ("json" or "text").
func SetupLogging(w io.Writer, format string, verbose bool) error {
	if err := logger.InitWithWriter(w, format); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	if verbose {
		return logger.SetLevelString("debug")
	}
	return nil
}

// ShowHelp prints usage information for the probe.
func ShowHelp(w io.Writer) {
	_, _ = io.WriteString(w, `CanMNT War Room Probe
=====================

Polls a running war room and checks the roster board, live pulse and ledger
it serves. Exits non-zero when a view breaks a board rule or a poll fails.

Usage:
  go run ./cmd/probe [options]

Options:
  -url string
        Base URL of the service (default "http://localhost:8080")
  -rounds int
        Number of polling rounds (default 3)
  -interval duration
        Pause between rounds (default 5s)
  -timeout duration
        HTTP request timeout (default 10s)
  -log-format string
        Log format, json or text (default "text")
  -verbose
        Log every view on every round
  -help
        Show this help message

Examples:
  # Probe a local instance
  go run ./cmd/probe

  # Watch a deployed instance for a minute
  go run ./cmd/probe -url https://warroom.example.com -rounds 12 -interval 5s
`)
}
