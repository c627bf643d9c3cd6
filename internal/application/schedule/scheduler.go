package schedule

import (
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/bryanwahyu/chat-insight/internal/domain/analysis"
	domain "github.com/bryanwahyu/chat-insight/internal/domain/schedule"
)

// BatchStarter is the slice of the batch coordinator the scheduler needs.
type BatchStarter interface {
	Start(profiles []analysis.Profile, scheduled bool) (string, error)
}

// Clock abstraction so "yesterday" is testable
type Clock interface {
	Now() time.Time
}

// Status of the scheduler for the status endpoint.
type Status struct {
	Enabled        bool      `json:"enabled"`
	CronExpression string    `json:"cronExpression,omitempty"`
	Timezone       string    `json:"timezone,omitempty"`
	NextRun        time.Time `json:"nextRun,omitempty"`
	LastFire       time.Time `json:"lastFire,omitempty"`
	LastError      string    `json:"lastError,omitempty"`
	ProfileCount   int       `json:"profileCount"`
}

// Scheduler owns at most one live cron trigger. Reconfigure retires the old
// trigger before installing a new one, so handles never leak and a fire
// never runs twice. Each fire re-reads the live profile set; nothing is
// snapshotted at reconfigure time.
type Scheduler struct {
	profiles analysis.ProfileSource
	batch    BatchStarter
	clock    Clock

	mu       sync.Mutex
	cfg      domain.Config
	trigger  *cron.Cron
	lastFire time.Time
	lastErr  string
}

func New(profiles analysis.ProfileSource, batch BatchStarter, clock Clock) *Scheduler {
	return &Scheduler{profiles: profiles, batch: batch, clock: clock}
}

// Reconfigure replaces the current trigger with one for cfg. Safe to call
// repeatedly and concurrently with a still-running fire. On any failure no
// trigger is left installed.
func (s *Scheduler) Reconfigure(cfg domain.Config) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Stop and discard unconditionally before anything else; the old
	// trigger must never outlive this call.
	if s.trigger != nil {
		s.trigger.Stop()
		s.trigger = nil
	}
	s.cfg = cfg

	if !cfg.Enabled {
		log.Printf("scheduler: disabled")
		return nil
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("%w: %v", analysis.ErrValidation, err)
	}
	loc, err := cfg.Location()
	if err != nil {
		return fmt.Errorf("%w: %v", analysis.ErrValidation, err)
	}

	c := cron.New(cron.WithParser(domain.Parser), cron.WithLocation(loc))
	if _, err := c.AddFunc(cfg.CronExpression, func() { s.fire(loc) }); err != nil {
		return fmt.Errorf("%w: %v", analysis.ErrValidation, err)
	}
	c.Start()
	s.trigger = c

	log.Printf("scheduler: installed trigger %q (%s)", cfg.CronExpression, loc)
	return nil
}

// TriggerNow runs one scheduled pass immediately, outside the cron timer.
func (s *Scheduler) TriggerNow() error {
	s.mu.Lock()
	loc, err := s.cfg.Location()
	s.mu.Unlock()
	if err != nil {
		loc = time.Local
	}
	return s.fire(loc)
}

// fire re-reads the current profile set and starts a batch over yesterday's
// window. A fire that lands while another batch is still running is skipped
// and logged, never queued.
func (s *Scheduler) fire(loc *time.Location) error {
	profiles := s.profiles.Profiles()
	if len(profiles) == 0 {
		err := errors.New("scheduled fire: no analysis profiles configured")
		log.Print(err)
		s.record(err)
		return err
	}

	window := YesterdayRange(s.clock.Now().In(loc))
	queue := make([]analysis.Profile, len(profiles))
	for i, p := range profiles {
		p.TimeRange = window
		queue[i] = p
	}

	_, err := s.batch.Start(queue, true)
	switch {
	case errors.Is(err, analysis.ErrBatchRunning):
		log.Printf("scheduled fire skipped: %v", err)
	case err != nil:
		log.Printf("scheduled fire failed: %v", err)
	default:
		log.Printf("scheduled fire: batch started for %d profiles over %s", len(queue), window)
	}
	s.record(err)
	return err
}

func (s *Scheduler) record(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastFire = time.Now()
	if err != nil {
		s.lastErr = err.Error()
	} else {
		s.lastErr = ""
	}
}

// Status reports the current schedule and trigger state.
func (s *Scheduler) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := Status{
		Enabled:        s.cfg.Enabled,
		CronExpression: s.cfg.CronExpression,
		Timezone:       s.cfg.Timezone,
		LastFire:       s.lastFire,
		LastError:      s.lastErr,
		ProfileCount:   len(s.profiles.Profiles()),
	}
	if s.trigger != nil {
		if entries := s.trigger.Entries(); len(entries) > 0 {
			st.NextRun = entries[0].Next
		}
	}
	return st
}

// Stop retires the trigger on shutdown.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.trigger != nil {
		s.trigger.Stop()
		s.trigger = nil
	}
}

// YesterdayRange formats the previous calendar day as the closed range the
// chatlog service expects.
func YesterdayRange(now time.Time) string {
	d := now.AddDate(0, 0, -1).Format("2006-01-02")
	return d + "~" + d
}
