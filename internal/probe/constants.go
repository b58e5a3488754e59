package probe

import "time"

// Defaults used when Config fields are left zero.
const (
	DefaultBaseURL  = "http://localhost:8080"
	DefaultRounds   = 3
	DefaultInterval = 5 * time.Second
	DefaultTimeout  = 10 * time.Second
)

// Paths polled every round.
const (
	pathHealth      = "/healthz"
	pathRosterTiers = "/api/roster-tiers"
	pathLivePulse   = "/api/live-pulse"
	pathLedger      = "/api/ledger"
)

const maxBodyBytes = 4 << 20
