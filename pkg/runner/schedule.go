package runner

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/robfig/cron/v3"
)

// parser accepts 5-field and 6-field (with seconds) specs plus descriptors
// such as "@every 15m".
var parser = cron.NewParser(cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// ParseSchedule validates a cron expression or descriptor.
func ParseSchedule(spec string) (cron.Schedule, error) {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		spec = DefaultSchedule
	}
	s, err := parser.Parse(spec)
	if err != nil {
		return nil, fmt.Errorf("parse schedule %q: %w", spec, err)
	}
	return s, nil
}

// Start runs one cycle immediately and then one per schedule tick until
// Stop is called. Ticks that land while a cycle is running are dropped.
func (r *Runner) Start(ctx context.Context, spec string) error {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		spec = DefaultSchedule
	}
	schedule, err := ParseSchedule(spec)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cron != nil {
		return errors.New("runner already started")
	}

	c := cron.New(cron.WithParser(parser))
	c.Schedule(schedule, cron.FuncJob(func() { r.tick(ctx) }))
	r.cron = c

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		r.tick(ctx)
	}()
	c.Start()

	r.logger.Info("scheduler started", "schedule", spec)
	return nil
}

// Stop halts scheduling and waits for an in-flight cycle, or for ctx. When ctx
// ends first, Stop returns and the waiter goroutine exits once that cycle
// returns; cycles observe the context passed to Start, so cancel it first.
func (r *Runner) Stop(ctx context.Context) {
	r.mu.Lock()
	c := r.cron
	r.cron = nil
	r.mu.Unlock()

	done := make(chan struct{})
	go func() {
		if c != nil {
			<-c.Stop().Done()
		}
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		r.logger.Info("scheduler stopped")
	case <-ctx.Done():
		r.logger.Warn("scheduler stop timed out", "error", ctx.Err())
	}
}

func (r *Runner) tick(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	// RunOnce logs its own outcome; errors end here.
	_, _ = r.RunOnce(ctx)
}
