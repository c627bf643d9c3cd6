package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bryanwahyu/chat-insight/internal/domain/analysis"
	domain "github.com/bryanwahyu/chat-insight/internal/domain/schedule"
)

type fixedClock struct{ at time.Time }

func (c fixedClock) Now() time.Time { return c.at }

type profileList struct{ profiles []analysis.Profile }

func (p *profileList) Profiles() []analysis.Profile { return p.profiles }

type recordingBatch struct {
	calls [][]analysis.Profile
	flags []bool
	err   error
}

func (b *recordingBatch) Start(profiles []analysis.Profile, scheduled bool) (string, error) {
	b.calls = append(b.calls, profiles)
	b.flags = append(b.flags, scheduled)
	if b.err != nil {
		return "", b.err
	}
	return "job-1", nil
}

func newTestScheduler(profiles []analysis.Profile, batch *recordingBatch) *Scheduler {
	src := &profileList{profiles: profiles}
	clock := fixedClock{at: time.Date(2025, 6, 16, 9, 0, 0, 0, time.UTC)}
	return New(src, batch, clock)
}

func TestYesterdayRange(t *testing.T) {
	now := time.Date(2025, 6, 16, 9, 0, 0, 0, time.UTC)
	assert.Equal(t, "2025-06-15~2025-06-15", YesterdayRange(now))

	// month boundary
	now = time.Date(2025, 7, 1, 0, 30, 0, 0, time.UTC)
	assert.Equal(t, "2025-06-30~2025-06-30", YesterdayRange(now))

	// year boundary
	now = time.Date(2026, 1, 1, 6, 0, 0, 0, time.UTC)
	assert.Equal(t, "2025-12-31~2025-12-31", YesterdayRange(now))
}

func TestReconfigureDisabledInstallsNothing(t *testing.T) {
	batch := &recordingBatch{}
	s := newTestScheduler([]analysis.Profile{{ID: "p1", ConversationID: "c"}}, batch)

	err := s.Reconfigure(domain.Config{Enabled: false, CronExpression: "garbage"})
	require.NoError(t, err)

	st := s.Status()
	assert.False(t, st.Enabled)
	assert.True(t, st.NextRun.IsZero())
	assert.Empty(t, batch.calls)
}

func TestReconfigureRejectsInvalidCron(t *testing.T) {
	s := newTestScheduler(nil, &recordingBatch{})

	err := s.Reconfigure(domain.Config{Enabled: true, CronExpression: "0 9 * * *"})
	require.Error(t, err)
	assert.ErrorIs(t, err, analysis.ErrValidation)
	assert.True(t, s.Status().NextRun.IsZero(), "no trigger installed on failure")
}

func TestReconfigureRejectsInvalidTimezone(t *testing.T) {
	s := newTestScheduler(nil, &recordingBatch{})
	err := s.Reconfigure(domain.Config{Enabled: true, CronExpression: "0 0 9 * * *", Timezone: "Mars/Olympus"})
	assert.ErrorIs(t, err, analysis.ErrValidation)
}

func TestReconfigureInstallsTrigger(t *testing.T) {
	s := newTestScheduler(nil, &recordingBatch{})
	defer s.Stop()

	err := s.Reconfigure(domain.Config{Enabled: true, CronExpression: "0 0 9 * * *", Timezone: "UTC"})
	require.NoError(t, err)

	st := s.Status()
	assert.True(t, st.Enabled)
	assert.Equal(t, "0 0 9 * * *", st.CronExpression)
	assert.False(t, st.NextRun.IsZero())
}

func TestReconfigureReplacesTrigger(t *testing.T) {
	s := newTestScheduler(nil, &recordingBatch{})
	defer s.Stop()

	require.NoError(t, s.Reconfigure(domain.Config{Enabled: true, CronExpression: "0 0 9 * * *", Timezone: "UTC"}))
	first := s.Status().NextRun

	require.NoError(t, s.Reconfigure(domain.Config{Enabled: true, CronExpression: "0 30 23 * * *", Timezone: "UTC"}))
	second := s.Status().NextRun
	assert.NotEqual(t, first, second)

	// disabling retires the trigger entirely
	require.NoError(t, s.Reconfigure(domain.Config{Enabled: false}))
	assert.True(t, s.Status().NextRun.IsZero())
}

func TestTriggerNowOverridesWindowPerProfile(t *testing.T) {
	batch := &recordingBatch{}
	s := newTestScheduler([]analysis.Profile{
		{ID: "p1", DisplayName: "A", ConversationID: "c1", TimeRange: "2024-01-01~2024-12-31"},
		{ID: "p2", DisplayName: "B", ConversationID: "c2", TimeRange: ""},
	}, batch)
	defer s.Stop()

	require.NoError(t, s.Reconfigure(domain.Config{Enabled: true, CronExpression: "0 0 9 * * *", Timezone: "UTC"}))
	require.NoError(t, s.TriggerNow())

	require.Len(t, batch.calls, 1)
	require.Len(t, batch.calls[0], 2)
	for _, p := range batch.calls[0] {
		assert.Equal(t, "2025-06-15~2025-06-15", p.TimeRange)
	}
	assert.True(t, batch.flags[0], "scheduled flag set")
}

func TestTriggerNowReadsLiveProfiles(t *testing.T) {
	batch := &recordingBatch{}
	src := &profileList{profiles: []analysis.Profile{{ID: "p1", ConversationID: "c1"}}}
	s := New(src, batch, fixedClock{at: time.Date(2025, 6, 16, 9, 0, 0, 0, time.UTC)})

	require.NoError(t, s.TriggerNow())

	// profiles changed after install; the next fire sees the new set
	src.profiles = append(src.profiles, analysis.Profile{ID: "p2", ConversationID: "c2"})
	require.NoError(t, s.TriggerNow())

	require.Len(t, batch.calls, 2)
	assert.Len(t, batch.calls[0], 1)
	assert.Len(t, batch.calls[1], 2)
}

func TestTriggerNowWithNoProfiles(t *testing.T) {
	batch := &recordingBatch{}
	s := newTestScheduler(nil, batch)

	err := s.TriggerNow()
	require.Error(t, err)
	assert.Empty(t, batch.calls, "no batch started without profiles")
	assert.NotEmpty(t, s.Status().LastError)
}

func TestFireSkippedWhileBatchRunning(t *testing.T) {
	batch := &recordingBatch{err: analysis.ErrBatchRunning}
	s := newTestScheduler([]analysis.Profile{{ID: "p1", ConversationID: "c1"}}, batch)

	err := s.TriggerNow()
	assert.ErrorIs(t, err, analysis.ErrBatchRunning)
	assert.Len(t, batch.calls, 1, "start attempted exactly once, never queued")
	assert.NotEmpty(t, s.Status().LastError)

	// next fire proceeds normally once the batch is idle again
	batch.err = nil
	require.NoError(t, s.TriggerNow())
	assert.Empty(t, s.Status().LastError)
}
