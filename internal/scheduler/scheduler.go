// Package scheduler provides scheduling for TripWeaver's geofence sweeps.
//
// It runs the periodic proximity sweep and the once-daily upcoming-trip
// sweep outside the message ingestion path.
package scheduler

import (
	"fmt"
	"time"

	"github.com/go-co-op/gocron/v2"
)

// Scheduler wraps a gocron scheduler for interval and daily jobs.
type Scheduler struct {
	scheduler gocron.Scheduler
}

// NewScheduler creates a scheduler. Jobs run only after Start is called.
func NewScheduler() (*Scheduler, error) {
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}
	return &Scheduler{scheduler: s}, nil
}

// AddInterval schedules task to run every interval.
func (s *Scheduler) AddInterval(interval time.Duration, task func()) error {
	if _, err := s.scheduler.NewJob(gocron.DurationJob(interval), gocron.NewTask(task)); err != nil {
		return fmt.Errorf("failed to schedule interval job: %w", err)
	}
	return nil
}

// AddDaily schedules task to run once a day at the given local time.
func (s *Scheduler) AddDaily(hour, minute uint, task func()) error {
	job := gocron.DailyJob(1, gocron.NewAtTimes(gocron.NewAtTime(hour, minute, 0)))
	if _, err := s.scheduler.NewJob(job, gocron.NewTask(task)); err != nil {
		return fmt.Errorf("failed to schedule daily job: %w", err)
	}
	return nil
}

// Start begins running scheduled jobs.
func (s *Scheduler) Start() {
	s.scheduler.Start()
}

// Stop shuts the scheduler down and waits for running jobs to finish.
func (s *Scheduler) Stop() error {
	return s.scheduler.Shutdown()
}
