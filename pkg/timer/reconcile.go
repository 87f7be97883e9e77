package timer

import "time"

const (
	// Pending schedules whose start time is at least this far in the past
	// never activate retroactively.
	staleAfter = 24 * time.Hour
	// Completed schedules stay in the record this long so a polling client
	// can observe the completion before the entry disappears.
	completedRetention = 60 * time.Second
	// Backfill applied to activation times lost to the legacy schema.
	legacyActivationBackfill = 5 * time.Second
)

// Reconcile advances every schedule in rec relative to now (Unix
// milliseconds) and reports whether the record changed, so the caller knows
// whether to persist. It is idempotent: a second pass at the same instant
// changes nothing.
//
// Entries are processed in list order. When several pending schedules are
// due in the same pass, each activation completes the previous winner, so
// the last one in the list ends up owning the countdown. That tie-break is
// historical behavior the client relies on; keep it.
func Reconcile(rec *Record, now int64) bool {
	changed := false
	for i := range rec.Schedules {
		s := &rec.Schedules[i]

		if s.Status == "" {
			migrateLegacy(s, now)
			changed = true
		}

		switch s.Status {
		case StatusExpired, StatusCompleted:
			// Terminal; only pruning below may touch these.

		case StatusPending:
			if s.StartAt <= now-staleAfter.Milliseconds() {
				s.Status = StatusExpired
				s.ExpiredAt = ptr(now)
				changed = true
				break
			}
			if s.StartAt <= now {
				activate(rec, i, now)
				changed = true
			}

		case StatusActivated:
			if rec.EndTime != nil && *rec.EndTime <= now {
				s.Status = StatusCompleted
				s.CompletedAt = ptr(now)
				changed = true
			}
		}
	}

	if pruneCompleted(rec, now) {
		changed = true
	}
	return changed
}

// migrateLegacy derives a Status for an entry written before the status
// field existed. The legacy active flag is read once and dropped.
func migrateLegacy(s *Schedule, now int64) {
	switch {
	case s.Active != nil && *s.Active:
		s.Status = StatusActivated
		// The original activation instant was never recorded.
		s.ActivatedAt = ptr(now - legacyActivationBackfill.Milliseconds())
	case s.StartAt <= now-staleAfter.Milliseconds():
		s.Status = StatusExpired
		s.ExpiredAt = ptr(now)
	default:
		s.Status = StatusPending
	}
	s.Active = nil
}

// activate makes the entry at idx the single running schedule. Any other
// activated entry is completed first, so at most one winner exists.
func activate(rec *Record, idx int, now int64) {
	for j := range rec.Schedules {
		if j == idx {
			continue
		}
		if rec.Schedules[j].Status == StatusActivated {
			rec.Schedules[j].Status = StatusCompleted
			rec.Schedules[j].CompletedAt = ptr(now)
		}
	}

	s := &rec.Schedules[idx]
	s.Status = StatusActivated
	s.ActivatedAt = ptr(now)
	end := now + s.durationMillis()
	rec.EndTime = &end
}

// pruneCompleted drops completed entries past the retention window and
// reports whether any were removed.
func pruneCompleted(rec *Record, now int64) bool {
	cutoff := now - completedRetention.Milliseconds()
	kept := rec.Schedules[:0]
	for _, s := range rec.Schedules {
		if s.Status == StatusCompleted && s.CompletedAt != nil && *s.CompletedAt < cutoff {
			continue
		}
		kept = append(kept, s)
	}
	if len(kept) == len(rec.Schedules) {
		return false
	}
	rec.Schedules = kept
	return true
}

func ptr(v int64) *int64 {
	return &v
}
