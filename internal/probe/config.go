// Package probe polls a running war room and checks the roster board it serves.
package probe

import "time"

// Config holds configuration for a probe run.
type Config struct {
	BaseURL  string        // Base URL of the service
	Rounds   int           // Number of polling rounds
	Interval time.Duration // Pause between rounds
	Timeout  time.Duration // HTTP request timeout
	Verbose  bool          // Log every round
}

// Stats holds probe statistics.
type Stats struct {
	Rounds        int
	Requests      int
	Failures      int
	Violations    int
	Players       int
	LiveEvents    int
	LedgerEntries int
	StartTime     time.Time
	EndTime       time.Time
	Duration      time.Duration
}
