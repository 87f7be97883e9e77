package timer

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"sort"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"
)

// Failure taxonomy for timer operations. The HTTP layer maps these to
// status codes with errors.Is.
var (
	ErrUnauthorized = errors.New("invalid password")
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("schedule not found")
	ErrStorage      = errors.New("could not persist timer data")
)

// Store is the persistence boundary for the timer record.
//
// Load never fails: implementations fall back to a default record when the
// underlying store is unreachable, so read paths degrade instead of
// erroring. Save reports failure so mutations can refuse to claim success.
type Store interface {
	Load(ctx context.Context) *Record
	Save(ctx context.Context, rec *Record) error
}

// Service implements every timer operation over a Store. Each call runs a
// load, reconcile, act, persist sequence against a single captured "now".
//
// There is no concurrency control between callers: two overlapping
// mutations race last-writer-wins on the single stored record. Acceptable
// for the single-operator usage this serves; a version token on the record
// would be the fix if that ever changes.
type Service struct {
	store    Store
	clock    clock.Clock
	password string
}

func NewService(store Store, clk clock.Clock, password string) *Service {
	return &Service{store: store, clock: clk, password: password}
}

func (s *Service) now() int64 {
	return s.clock.Now().UnixMilli()
}

// loadReconciled loads the record and brings it up to date. Reconciliation
// changes are persisted best-effort: a failed write on a read path is
// logged and the request keeps going with the in-memory state.
func (s *Service) loadReconciled(ctx context.Context) (*Record, int64) {
	now := s.now()
	rec := s.store.Load(ctx)
	if Reconcile(rec, now) {
		if err := s.store.Save(ctx, rec); err != nil {
			log.Printf("timer: persisting reconciled record: %v", err)
		}
	}
	return rec, now
}

// Countdown reports the state of the running timer. An EndTime that has
// elapsed is cleared and persisted as a side effect of the read, so the
// stored document does not keep claiming an active timer.
func (s *Service) Countdown(ctx context.Context) Countdown {
	rec, now := s.loadReconciled(ctx)
	if rec.EndTime != nil && *rec.EndTime <= now {
		rec.EndTime = nil
		if err := s.store.Save(ctx, rec); err != nil {
			log.Printf("timer: clearing elapsed countdown: %v", err)
		}
	}
	return CountdownAt(rec, now)
}

// SetTimer starts a countdown of hours hours immediately, replacing
// whatever end time the schedules had produced.
func (s *Service) SetTimer(ctx context.Context, hours float64, password string) error {
	if password != s.password {
		return ErrUnauthorized
	}
	if err := requirePositive(hours, "hours"); err != nil {
		return err
	}

	rec, now := s.loadReconciled(ctx)
	end := now + int64(hours*float64(time.Hour/time.Millisecond))
	rec.EndTime = &end
	if err := s.store.Save(ctx, rec); err != nil {
		return fmt.Errorf("%w: %v", ErrStorage, err)
	}
	return nil
}

// CreateSchedule appends a pending schedule starting at the instant
// resolved from in. The start must be strictly in the future.
func (s *Service) CreateSchedule(ctx context.Context, in StartInput, durationHours float64, password string) (*Schedule, error) {
	if password != s.password {
		return nil, ErrUnauthorized
	}
	if err := requirePositive(durationHours, "duration"); err != nil {
		return nil, err
	}
	startAt, err := ResolveStart(in)
	if err != nil {
		return nil, err
	}

	rec, now := s.loadReconciled(ctx)
	if startAt <= now {
		return nil, fmt.Errorf("%w: start time must be in the future", ErrInvalidInput)
	}

	sched := Schedule{
		ID:            uuid.NewString(),
		StartAt:       startAt,
		DurationHours: durationHours,
		Status:        StatusPending,
		CreatedAt:     now,
	}
	rec.Schedules = append(rec.Schedules, sched)
	if err := s.store.Save(ctx, rec); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorage, err)
	}
	return &sched, nil
}

// DeleteSchedule removes the schedule with the given id. The record is only
// written when something was actually removed.
func (s *Service) DeleteSchedule(ctx context.Context, id, password string) error {
	if password != s.password {
		return ErrUnauthorized
	}

	rec, _ := s.loadReconciled(ctx)
	kept := rec.Schedules[:0]
	for _, sched := range rec.Schedules {
		if sched.ID != id {
			kept = append(kept, sched)
		}
	}
	if len(kept) == len(rec.Schedules) {
		return ErrNotFound
	}
	rec.Schedules = kept
	if err := s.store.Save(ctx, rec); err != nil {
		return fmt.Errorf("%w: %v", ErrStorage, err)
	}
	return nil
}

// ListSchedules returns every non-completed schedule, soonest first.
func (s *Service) ListSchedules(ctx context.Context) []Schedule {
	rec, _ := s.loadReconciled(ctx)
	out := make([]Schedule, 0, len(rec.Schedules))
	for _, sched := range rec.Schedules {
		if sched.Status != StatusCompleted {
			out = append(out, sched)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].StartAt < out[j].StartAt
	})
	return out
}

// Summary is the record overview reported by the health endpoint.
type Summary struct {
	TimerActive    bool `json:"timerActive"`
	ScheduledCount int  `json:"scheduledCount"`
}

func (s *Service) Summary(ctx context.Context) Summary {
	rec, _ := s.loadReconciled(ctx)
	return Summary{
		TimerActive:    rec.EndTime != nil,
		ScheduledCount: len(rec.Schedules),
	}
}

func requirePositive(v float64, field string) error {
	if math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
		return fmt.Errorf("%w: %s must be a positive number", ErrInvalidInput, field)
	}
	return nil
}
