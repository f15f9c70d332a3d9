package scheduler

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/robfig/cron/v3"
)

// Job is a named scheduled function.
type Job struct {
	Name string
	Spec string
	Run  func(ctx context.Context) error
}

// Scheduler runs the recurring jobs (nightly processing, weekly digest).
type Scheduler struct {
	cron   *cron.Cron
	ctx    context.Context
	cancel context.CancelFunc
}

func New() *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		cron:   cron.New(cron.WithLocation(time.UTC)),
		ctx:    ctx,
		cancel: cancel,
	}
}

func (s *Scheduler) Add(job Job) error {
	_, err := s.cron.AddFunc(job.Spec, func() {
		log.Printf("🕘 Triggered scheduled job %q", job.Name)
		if err := job.Run(s.ctx); err != nil {
			log.Printf("❌ Scheduled job %q failed: %v", job.Name, err)
		}
	})
	if err != nil {
		return fmt.Errorf("schedule %q (%s): %w", job.Name, job.Spec, err)
	}
	return nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
	log.Printf("📅 Scheduler started with %d job(s)", len(s.cron.Entries()))
}

func (s *Scheduler) Stop() {
	if s.cron != nil {
		ctx := s.cron.Stop()
		<-ctx.Done()
	}
	if s.cancel != nil {
		s.cancel()
	}
	log.Println("📅 Scheduler stopped")
}
