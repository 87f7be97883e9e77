package timer

import "fmt"

const (
	millisPerHour   = 60 * 60 * 1000
	millisPerMinute = 60 * 1000
)

// Countdown is the client-facing view of the running timer. Hours, minutes
// and seconds are zero-padded two-digit strings; TotalSeconds is omitted
// from the JSON output when the timer is inactive.
type Countdown struct {
	Active       bool   `json:"active"`
	Hours        string `json:"hours"`
	Minutes      string `json:"minutes"`
	Seconds      string `json:"seconds"`
	TotalSeconds int64  `json:"totalSeconds,omitempty"`
}

// CountdownAt derives the countdown view from a reconciled record at now
// (Unix milliseconds). It never mutates rec; clearing an elapsed EndTime is
// the caller's responsibility. Remaining time floors to whole seconds.
func CountdownAt(rec *Record, now int64) Countdown {
	if rec.EndTime == nil || *rec.EndTime <= now {
		return Countdown{Hours: "00", Minutes: "00", Seconds: "00"}
	}

	remaining := *rec.EndTime - now
	return Countdown{
		Active:       true,
		Hours:        fmt.Sprintf("%02d", remaining/millisPerHour),
		Minutes:      fmt.Sprintf("%02d", (remaining%millisPerHour)/millisPerMinute),
		Seconds:      fmt.Sprintf("%02d", (remaining%millisPerMinute)/1000),
		TotalSeconds: remaining / 1000,
	}
}
