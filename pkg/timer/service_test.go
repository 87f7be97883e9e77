package timer

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testPassword = "sesame"

type memStore struct {
	rec     *Record
	saveErr error
	saves   int
}

func (m *memStore) Load(ctx context.Context) *Record {
	if m.rec == nil {
		m.rec = NewRecord()
	}
	return m.rec
}

func (m *memStore) Save(ctx context.Context, rec *Record) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.rec = rec
	m.saves++
	return nil
}

func newTestService(t *testing.T) (*Service, *memStore, *clock.Mock) {
	t.Helper()
	mock := clock.NewMock()
	mock.Set(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	store := &memStore{}
	return NewService(store, mock, testPassword), store, mock
}

func TestSetTimerThenCountdown(t *testing.T) {
	svc, _, mock := newTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.SetTimer(ctx, 2, testPassword))

	cd := svc.Countdown(ctx)
	assert.True(t, cd.Active)
	assert.Equal(t, "02", cd.Hours)
	assert.Equal(t, "00", cd.Minutes)
	assert.Equal(t, "00", cd.Seconds)
	assert.Equal(t, int64(7200), cd.TotalSeconds)

	mock.Add(30*time.Minute + 15*time.Second)
	cd = svc.Countdown(ctx)
	assert.True(t, cd.Active)
	assert.Equal(t, "01", cd.Hours)
	assert.Equal(t, "29", cd.Minutes)
	assert.Equal(t, "45", cd.Seconds)
	assert.Equal(t, int64(5385), cd.TotalSeconds)
}

func TestSetTimerWrongPassword(t *testing.T) {
	svc, store, _ := newTestService(t)

	err := svc.SetTimer(context.Background(), 2, "nope")
	assert.ErrorIs(t, err, ErrUnauthorized)
	assert.Zero(t, store.saves)
}

func TestSetTimerRejectsNonPositiveHours(t *testing.T) {
	svc, store, _ := newTestService(t)

	for _, hours := range []float64{0, -1.5} {
		err := svc.SetTimer(context.Background(), hours, testPassword)
		assert.ErrorIs(t, err, ErrInvalidInput)
	}
	assert.Zero(t, store.saves)
}

func TestSetTimerStorageFailure(t *testing.T) {
	svc, store, _ := newTestService(t)
	store.saveErr = errors.New("disk full")

	err := svc.SetTimer(context.Background(), 2, testPassword)
	assert.ErrorIs(t, err, ErrStorage)
}

func TestCountdownClearsElapsedEndTime(t *testing.T) {
	svc, store, mock := newTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.SetTimer(ctx, 1, testPassword))
	mock.Add(61 * time.Minute)

	cd := svc.Countdown(ctx)
	assert.False(t, cd.Active)
	assert.Equal(t, "00", cd.Hours)
	assert.Zero(t, cd.TotalSeconds)
	// The elapsed end time was removed from storage, not just the response
	assert.Nil(t, store.rec.EndTime)
}

func TestCreateScheduleRoundTrip(t *testing.T) {
	svc, store, mock := newTestService(t)
	ctx := context.Background()

	startAt := mock.Now().Add(2 * time.Hour).UnixMilli()
	sched, err := svc.CreateSchedule(ctx, StartInput{Timestamp: &startAt}, 3, testPassword)
	require.NoError(t, err)

	assert.NotEmpty(t, sched.ID)
	assert.Equal(t, startAt, sched.StartAt)
	assert.Equal(t, StatusPending, sched.Status)
	assert.Equal(t, mock.Now().UnixMilli(), sched.CreatedAt)

	require.Len(t, store.rec.Schedules, 1)
	assert.Equal(t, *sched, store.rec.Schedules[0])
}

func TestCreateScheduleWrongPassword(t *testing.T) {
	svc, store, mock := newTestService(t)

	startAt := mock.Now().Add(time.Hour).UnixMilli()
	_, err := svc.CreateSchedule(context.Background(), StartInput{Timestamp: &startAt}, 2, "nope")
	assert.ErrorIs(t, err, ErrUnauthorized)
	assert.Zero(t, store.saves)
}

func TestCreateScheduleRejectsPastStart(t *testing.T) {
	svc, store, mock := newTestService(t)

	startAt := mock.Now().UnixMilli()
	_, err := svc.CreateSchedule(context.Background(), StartInput{Timestamp: &startAt}, 2, testPassword)
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.Empty(t, store.rec.Schedules)
}

func TestCreateScheduleRejectsNonPositiveDuration(t *testing.T) {
	svc, _, mock := newTestService(t)

	startAt := mock.Now().Add(time.Hour).UnixMilli()
	_, err := svc.CreateSchedule(context.Background(), StartInput{Timestamp: &startAt}, 0, testPassword)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestCreateScheduleFromCivilTime(t *testing.T) {
	svc, _, _ := newTestService(t)

	// 21:00 at UTC+7 on the mock's current day: 14:00 UTC, two hours ahead
	sched, err := svc.CreateSchedule(context.Background(), StartInput{
		Date:            "2025-06-01",
		TimeOfDay:       "21:00",
		TZOffsetMinutes: -420,
	}, 2, testPassword)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 6, 1, 14, 0, 0, 0, time.UTC).UnixMilli(), sched.StartAt)
}

func TestScheduleActivatesOnRead(t *testing.T) {
	svc, store, mock := newTestService(t)
	ctx := context.Background()

	startAt := mock.Now().Add(time.Hour).UnixMilli()
	_, err := svc.CreateSchedule(ctx, StartInput{Timestamp: &startAt}, 2, testPassword)
	require.NoError(t, err)

	// Nothing touches the record until the next read, 90 minutes later
	mock.Add(90 * time.Minute)
	cd := svc.Countdown(ctx)

	assert.True(t, cd.Active)
	// Activation anchors at read time: the full 2 hours remain
	assert.Equal(t, int64(7200), cd.TotalSeconds)
	assert.Equal(t, StatusActivated, store.rec.Schedules[0].Status)
}

func TestDeleteSchedule(t *testing.T) {
	svc, store, mock := newTestService(t)
	ctx := context.Background()

	startAt := mock.Now().Add(time.Hour).UnixMilli()
	sched, err := svc.CreateSchedule(ctx, StartInput{Timestamp: &startAt}, 2, testPassword)
	require.NoError(t, err)

	require.NoError(t, svc.DeleteSchedule(ctx, sched.ID, testPassword))
	assert.Empty(t, store.rec.Schedules)
}

func TestDeleteScheduleNotFound(t *testing.T) {
	svc, store, mock := newTestService(t)
	ctx := context.Background()

	startAt := mock.Now().Add(time.Hour).UnixMilli()
	_, err := svc.CreateSchedule(ctx, StartInput{Timestamp: &startAt}, 2, testPassword)
	require.NoError(t, err)
	savesBefore := store.saves

	err = svc.DeleteSchedule(ctx, "no-such-id", testPassword)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Len(t, store.rec.Schedules, 1)
	assert.Equal(t, savesBefore, store.saves)
}

func TestDeleteScheduleWrongPassword(t *testing.T) {
	svc, _, _ := newTestService(t)

	err := svc.DeleteSchedule(context.Background(), "any", "nope")
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestListSchedulesSortedAndFiltered(t *testing.T) {
	svc, store, mock := newTestService(t)
	ctx := context.Background()

	now := mock.Now().UnixMilli()
	completedAt := now - 10_000
	store.rec = &Record{Schedules: []Schedule{
		{ID: "later", StartAt: now + 7_200_000, DurationHours: 1, Status: StatusPending, CreatedAt: now},
		{ID: "done", StartAt: now - 3_600_000, DurationHours: 1, Status: StatusCompleted, CreatedAt: now, CompletedAt: &completedAt},
		{ID: "sooner", StartAt: now + 3_600_000, DurationHours: 1, Status: StatusPending, CreatedAt: now},
	}}

	list := svc.ListSchedules(ctx)
	require.Len(t, list, 2)
	assert.Equal(t, "sooner", list[0].ID)
	assert.Equal(t, "later", list[1].ID)
}

func TestListSchedulesDropsCompletedAfterRetention(t *testing.T) {
	svc, store, mock := newTestService(t)
	ctx := context.Background()

	now := mock.Now().UnixMilli()
	completedAt := now - 30_000
	store.rec = &Record{Schedules: []Schedule{
		{ID: "done", StartAt: now - 3_600_000, DurationHours: 1, Status: StatusCompleted, CreatedAt: now, CompletedAt: &completedAt},
	}}

	// Inside the retention window: hidden from the list, still stored
	assert.Empty(t, svc.ListSchedules(ctx))
	assert.Len(t, store.rec.Schedules, 1)

	// Past the window: pruned from storage too
	mock.Add(31 * time.Second)
	assert.Empty(t, svc.ListSchedules(ctx))
	assert.Empty(t, store.rec.Schedules)
}

func TestSummary(t *testing.T) {
	svc, _, mock := newTestService(t)
	ctx := context.Background()

	sum := svc.Summary(ctx)
	assert.False(t, sum.TimerActive)
	assert.Zero(t, sum.ScheduledCount)

	require.NoError(t, svc.SetTimer(ctx, 1, testPassword))
	startAt := mock.Now().Add(time.Hour).UnixMilli()
	_, err := svc.CreateSchedule(ctx, StartInput{Timestamp: &startAt}, 2, testPassword)
	require.NoError(t, err)

	sum = svc.Summary(ctx)
	assert.True(t, sum.TimerActive)
	assert.Equal(t, 1, sum.ScheduledCount)
}
