package timer

import (
	"fmt"
	"time"
)

// StartInput carries the client-supplied start time of a schedule. Clients
// that can compute an absolute instant send Timestamp; older ones send a
// civil date, a time of day and their JavaScript getTimezoneOffset() value.
type StartInput struct {
	Timestamp *int64 // Unix milliseconds, used verbatim when present
	Date      string // "2006-01-02"
	TimeOfDay string // "15:04" or "15:04:05"

	// Minutes to add to local time to reach UTC, positive west of UTC
	// (the getTimezoneOffset convention). UTC+7 is -420.
	TZOffsetMinutes int
}

// ResolveStart converts in into an absolute Unix-millisecond instant.
//
// With the fast path absent, the instant is reconstructed as
// UTC = local + TZOffsetMinutes. Folding the offset into the minutes field
// lets time.Date normalize any overflow across hour, day, month and year
// boundaries; the server's own timezone never enters the computation.
func ResolveStart(in StartInput) (int64, error) {
	if in.Timestamp != nil {
		return *in.Timestamp, nil
	}

	if in.Date == "" || in.TimeOfDay == "" {
		return 0, fmt.Errorf("%w: start date and time are required", ErrInvalidInput)
	}

	d, err := time.Parse("2006-01-02", in.Date)
	if err != nil {
		return 0, fmt.Errorf("%w: invalid start date %q", ErrInvalidInput, in.Date)
	}

	t, err := time.Parse("15:04", in.TimeOfDay)
	if err != nil {
		t, err = time.Parse("15:04:05", in.TimeOfDay)
	}
	if err != nil {
		return 0, fmt.Errorf("%w: invalid start time %q", ErrInvalidInput, in.TimeOfDay)
	}

	utc := time.Date(
		d.Year(), d.Month(), d.Day(),
		t.Hour(), t.Minute()+in.TZOffsetMinutes, t.Second(), 0,
		time.UTC,
	)
	return utc.UnixMilli(), nil
}
