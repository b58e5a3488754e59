// Package countdown computes the time left until Canada's World Cup opener.
package countdown

import "time"

// Fixture labels shown under the timer.
const (
	FixtureTitle    = "Canada vs. UEFA Playoff Winner"
	FixtureSubtitle = "Group B Opener • BMO Field, Toronto"
)

// Countdown is the remaining time split into display units.
type Countdown struct {
	Days     int    `json:"days"`
	Hours    int    `json:"hours"`
	Minutes  int    `json:"minutes"`
	Seconds  int    `json:"seconds"`
	Kickoff  string `json:"kickoff"`
	Started  bool   `json:"started"`
	Title    string `json:"title"`
	Subtitle string `json:"subtitle"`
}

// Remaining returns the countdown from now to kickoff. Once kickoff is
// reached every unit is zero and Started is set.
func Remaining(now, kickoff time.Time) Countdown {
	c := Countdown{
		Kickoff:  kickoff.Format(time.RFC3339),
		Title:    FixtureTitle,
		Subtitle: FixtureSubtitle,
	}
	left := kickoff.Sub(now)
	if left <= 0 {
		c.Started = true
		return c
	}
	secs := int64(left / time.Second)
	c.Days = int(secs / 86400)
	c.Hours = int(secs / 3600 % 24)
	c.Minutes = int(secs / 60 % 60)
	c.Seconds = int(secs % 60)
	return c
}
