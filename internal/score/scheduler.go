package score

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/robfig/cron/v3"
)

type recomputer interface {
	RecomputeAll(ctx context.Context) (*RecomputeResult, error)
}

// Scheduler runs RecomputeAll on a cron schedule.
type Scheduler struct {
	cron    *cron.Cron
	svc     recomputer
	timeout time.Duration
}

// NewScheduler registers the recompute job. schedule uses the standard five-field
// cron syntax; descriptors such as "@hourly" are accepted too.
func NewScheduler(svc recomputer, schedule string, timeout time.Duration) (*Scheduler, error) {
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}
	s := &Scheduler{
		cron:    cron.New(cron.WithLocation(time.UTC)),
		svc:     svc,
		timeout: timeout,
	}
	if _, err := s.cron.AddFunc(schedule, s.runOnce); err != nil {
		return nil, fmt.Errorf("schedule score recompute %q: %w", schedule, err)
	}
	return s, nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
	log.Printf("[SCORE-SCHEDULER] started entries=%d", len(s.cron.Entries()))
}

// Stop halts scheduling and waits for a running job to finish or ctx to end.
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
	}
}

func (s *Scheduler) runOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	started := time.Now()
	res, err := s.svc.RecomputeAll(ctx)
	if err != nil {
		log.Printf("[SCORE-SCHEDULER] recompute failed after %s: %v", time.Since(started).Round(time.Millisecond), err)
		return
	}
	log.Printf("[SCORE-SCHEDULER] recompute done updated=%d skipped=%d in %s", res.Updated, res.Skipped, time.Since(started).Round(time.Millisecond))
}
