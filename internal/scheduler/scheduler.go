// internal/scheduler/scheduler.go
package scheduler

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// Handler is the callback invoked each time the schedule fires.
type Handler func()

// Scheduler fires a handler on a cron schedule evaluated in a fixed location.
type Scheduler struct {
	schedule string
	handler  Handler
	cron     *cron.Cron
}

// cronParser accepts both standard 5-field cron expressions and 6-field
// expressions with an optional seconds field.
var cronParser = cron.NewParser(
	cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

// Validate reports whether schedule parses.
func Validate(schedule string) error {
	if _, err := cronParser.Parse(schedule); err != nil {
		return fmt.Errorf("invalid schedule %q: %w", schedule, err)
	}
	return nil
}

// New creates a Scheduler that calls handler whenever schedule fires, with
// times interpreted in loc.
func New(schedule string, loc *time.Location, handler Handler) *Scheduler {
	return &Scheduler{
		schedule: schedule,
		handler:  handler,
		cron:     cron.New(cron.WithParser(cronParser), cron.WithLocation(loc)),
	}
}

// Start registers the schedule and starts the cron ticker.
func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(s.schedule, func() {
		slog.Info("schedule fired", "schedule", s.schedule)
		s.handler()
	}); err != nil {
		return fmt.Errorf("invalid schedule %q: %w", s.schedule, err)
	}
	s.cron.Start()
	slog.Info("scheduled daily log", "schedule", s.schedule, "next", s.Next())
	return nil
}

// Next returns the next fire time, or the zero time before Start.
func (s *Scheduler) Next() time.Time {
	entries := s.cron.Entries()
	if len(entries) == 0 {
		return time.Time{}
	}
	return entries[0].Next
}

// Stop stops the cron ticker and waits for a running handler to return.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}
