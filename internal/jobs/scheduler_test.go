package jobs

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tvkcanada/tvk-be/internal/models"
	"github.com/tvkcanada/tvk-be/internal/services"
)

type recordedActivity struct {
	Type, Level, Message string
}

type fakeActivity struct {
	mu      sync.Mutex
	records []recordedActivity
}

func (f *fakeActivity) Record(_ context.Context, activityType, level, message string, _ *string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.records = append(f.records, recordedActivity{activityType, level, message})
	return nil
}

func (f *fakeActivity) Recent(context.Context, int) ([]models.Activity, error) { return nil, nil }

func (f *fakeActivity) all() []recordedActivity {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]recordedActivity(nil), f.records...)
}

func TestAddRejectsBadSpecAndDuplicates(t *testing.T) {
	s := NewScheduler(&fakeActivity{})
	noop := func(context.Context) (string, error) { return "", nil }

	require.Error(t, s.Add(Job{Name: "bad", Spec: "not a cron", Run: noop}))
	require.NoError(t, s.Add(Job{Name: "a", Spec: "*/5 * * * *", Run: noop}))
	require.Error(t, s.Add(Job{Name: "a", Spec: "0 * * * *", Run: noop}))

	// An empty spec disables the job.
	require.NoError(t, s.Add(Job{Name: "off", Spec: "", Run: noop}))
	list := s.List()
	require.Len(t, list, 1)
	assert.Equal(t, "a", list[0].Name)
}

func TestRunDueExecutesOnlyDueJobs(t *testing.T) {
	act := &fakeActivity{}
	s := NewScheduler(act)
	base := time.Date(2026, 3, 1, 12, 0, 30, 0, time.UTC)
	s.now = func() time.Time { return base }

	var hourly, minutely atomic.Int32
	require.NoError(t, s.Add(Job{Name: "hourly", Spec: "0 * * * *", Run: func(context.Context) (string, error) {
		hourly.Add(1)
		return "ok", nil
	}}))
	require.NoError(t, s.Add(Job{Name: "minutely", Spec: "* * * * *", Run: func(context.Context) (string, error) {
		minutely.Add(1)
		return "", errors.New("boom")
	}}))

	s.now = func() time.Time { return base.Add(time.Minute) }
	s.runDue(context.Background())
	s.wg.Wait()

	assert.Equal(t, int32(0), hourly.Load())
	assert.Equal(t, int32(1), minutely.Load())

	list := s.List()
	assert.Nil(t, list[0].LastRunAt)
	require.NotNil(t, list[1].LastRunAt)
	assert.Equal(t, "boom", list[1].LastError)
	assert.False(t, list[1].Running)
	assert.True(t, list[1].NextRunAt.After(base.Add(time.Minute)))

	records := act.all()
	require.Len(t, records, 1)
	assert.Equal(t, "job.failed", records[0].Type)
	assert.Equal(t, services.LevelError, records[0].Level)
}

func TestRunNow(t *testing.T) {
	s := NewScheduler(&fakeActivity{})
	require.NoError(t, s.Add(Job{Name: "count", Spec: "0 0 * * *", Run: func(context.Context) (string, error) {
		return "3 done", nil
	}}))

	st, err := s.RunNow(context.Background(), "count")
	require.NoError(t, err)
	assert.Equal(t, "3 done", st.LastResult)
	assert.Empty(t, st.LastError)
	assert.NotNil(t, st.LastRunAt)

	_, err = s.RunNow(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrUnknownJob)
}

func TestRunNowWhileRunning(t *testing.T) {
	s := NewScheduler(&fakeActivity{})
	started := make(chan struct{})
	release := make(chan struct{})
	require.NoError(t, s.Add(Job{Name: "slow", Spec: "0 0 * * *", Run: func(context.Context) (string, error) {
		close(started)
		<-release
		return "", nil
	}}))

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = s.RunNow(context.Background(), "slow")
	}()
	<-started

	_, err := s.RunNow(context.Background(), "slow")
	assert.ErrorIs(t, err, ErrJobRunning)
	close(release)
	<-done
}

func TestRunStopsOnContextCancel(t *testing.T) {
	s := NewScheduler(&fakeActivity{})
	s.interval = 10 * time.Millisecond
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("scheduler did not stop")
	}
}

func TestStopIsIdempotent(t *testing.T) {
	s := NewScheduler(&fakeActivity{})
	s.interval = 10 * time.Millisecond
	done := make(chan struct{})
	go func() {
		s.Run(context.Background())
		close(done)
	}()
	s.Stop()
	s.Stop()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("scheduler did not stop")
	}
}
