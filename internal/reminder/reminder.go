// Package reminder periodically checks how many words are due and announces
// changes in the backlog.
package reminder

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	rcron "github.com/robfig/cron/v3"
)

// Counter reports how many words are due now.
type Counter interface {
	DueCount(ctx context.Context) (int, error)
}

// Reminder runs a due-count check on a cron schedule. It notifies only when
// the count changes to a positive value.
type Reminder struct {
	counter  Counter
	schedule rcron.Schedule
	log      *slog.Logger

	// OnDue, when set, is called with the new due count.
	OnDue func(n int)

	mu     sync.Mutex
	last   int
	cron   *rcron.Cron
	cancel context.CancelFunc
}

// New parses spec (standard five-field cron or a descriptor such as
// "@every 1m") and returns a stopped Reminder.
func New(counter Counter, spec string, log *slog.Logger) (*Reminder, error) {
	sched, err := rcron.ParseStandard(spec)
	if err != nil {
		return nil, fmt.Errorf("reminder: parse schedule %q: %w", spec, err)
	}
	return &Reminder{
		counter:  counter,
		schedule: sched,
		log:      log,
	}, nil
}

// Check counts due words once and notifies if the count changed.
// It returns the count.
func (r *Reminder) Check(ctx context.Context) (int, error) {
	n, err := r.counter.DueCount(ctx)
	if err != nil {
		r.log.Error("reminder: count due words", "err", err)
		return 0, err
	}

	r.mu.Lock()
	changed := n != r.last
	r.last = n
	notify := r.OnDue
	r.mu.Unlock()

	if changed && n > 0 {
		r.log.Info("words due for review", "count", n)
		if notify != nil {
			notify(n)
		}
	}
	return n, nil
}

// Start schedules Check until ctx is cancelled or Stop is called.
func (r *Reminder) Start(ctx context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cron != nil {
		return
	}

	ctx, cancel := context.WithCancel(ctx)
	r.cancel = cancel
	r.cron = rcron.New()
	r.cron.Schedule(r.schedule, rcron.FuncJob(func() {
		_, _ = r.Check(ctx)
	}))
	r.cron.Start()
	r.log.Debug("reminder started")

	go func() {
		<-ctx.Done()
		r.Stop()
	}()
}

// Stop halts the schedule and waits for a running check to finish.
func (r *Reminder) Stop() {
	r.mu.Lock()
	c, cancel := r.cron, r.cancel
	r.cron, r.cancel = nil, nil
	r.mu.Unlock()

	if c == nil {
		return
	}
	cancel()
	<-c.Stop().Done()
	r.log.Debug("reminder stopped")
}
