package events

import (
	"context"
	"log"
	"time"
)

// Scheduler periodically sweeps for events whose matching time has passed
// and runs the batch matchmaker for each.
type Scheduler struct {
	service  Service
	interval time.Duration
	stopCh   chan struct{}
}

func NewScheduler(service Service, interval time.Duration) *Scheduler {
	if interval == 0 {
		interval = 5 * time.Minute
	}
	return &Scheduler{
		service:  service,
		interval: interval,
		stopCh:   make(chan struct{}),
	}
}

func (s *Scheduler) Start(ctx context.Context) {
	log.Printf("Starting event matchmaking scheduler with interval: %v", s.interval)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	// Run immediately on start
	s.sweep(ctx)

	for {
		select {
		case <-ticker.C:
			s.sweep(ctx)
		case <-s.stopCh:
			log.Println("Event matchmaking scheduler stopped")
			return
		case <-ctx.Done():
			return
		}
	}
}

func (s *Scheduler) Stop() {
	close(s.stopCh)
}

func (s *Scheduler) sweep(ctx context.Context) {
	if err := s.service.ProcessDueEvents(ctx); err != nil {
		log.Printf("Event matchmaking sweep failed: %v", err)
	}
}
