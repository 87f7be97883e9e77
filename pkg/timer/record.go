package timer

import "time"

// Status tracks the lifecycle of a schedule. Transitions are driven
// exclusively by Reconcile; expired and completed are terminal.
type Status string

const (
	StatusPending   Status = "pending"
	StatusActivated Status = "activated"
	StatusExpired   Status = "expired"
	StatusCompleted Status = "completed"
)

// Schedule is a planned activation of the countdown: at StartAt the timer
// starts running for DurationHours. All timestamps are Unix milliseconds,
// matching the persisted JSON document.
type Schedule struct {
	ID            string  `json:"id"`
	StartAt       int64   `json:"startAt"`
	DurationHours float64 `json:"duration"`
	Status        Status  `json:"status,omitempty"`
	CreatedAt     int64   `json:"createdAt"`
	ActivatedAt   *int64  `json:"activatedAt,omitempty"`
	CompletedAt   *int64  `json:"completedAt,omitempty"`
	ExpiredAt     *int64  `json:"expiredAt,omitempty"`

	// Active predates Status in the stored document. It is interpreted once
	// during reconciliation to derive a Status and then dropped.
	Active *bool `json:"active,omitempty"`
}

func (s Schedule) durationMillis() int64 {
	return int64(s.DurationHours * float64(time.Hour/time.Millisecond))
}

// Record is the single persisted document: at most one running countdown
// (EndTime, Unix milliseconds) plus every known schedule.
type Record struct {
	EndTime   *int64     `json:"endTime"`
	Schedules []Schedule `json:"scheduledTimers"`
}

// NewRecord returns the default record stored on first access.
func NewRecord() *Record {
	return &Record{Schedules: []Schedule{}}
}
