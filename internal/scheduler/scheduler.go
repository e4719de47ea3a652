package scheduler

import (
	"context"
	"log"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/i474232898/flood-monitoring/internal/registry"
)

// Scheduler periodically refreshes the station registry so that station
// validation on a long-lived server does not go stale.
type Scheduler struct {
	scheduler *gocron.Scheduler
	registry  *registry.Registry
	source    registry.StationSource
	interval  time.Duration
}

// New creates a new Scheduler.
func New(reg *registry.Registry, source registry.StationSource, interval time.Duration) *Scheduler {
	return &Scheduler{
		scheduler: gocron.NewScheduler(time.UTC),
		registry:  reg,
		source:    source,
		interval:  interval,
	}
}

// Start schedules the periodic refresh job and starts the underlying
// scheduler.
func (s *Scheduler) Start() error {
	if s.interval <= 0 {
		log.Println("scheduler: refresh interval disabled; registry will not auto-update")
		return nil
	}

	_, err := s.scheduler.Every(s.interval).Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
		defer cancel()

		n, err := s.registry.Refresh(ctx, s.source)
		if err != nil {
			log.Printf("scheduler: registry refresh failed: %v", err)
			return
		}
		log.Printf("scheduler: registry refreshed with %d stations", n)
	})
	if err != nil {
		return err
	}

	s.scheduler.StartAsync()
	return nil
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}
