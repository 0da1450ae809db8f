// Package runner drives the fetch, filter, cooldown and notify cycle.
package runner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/ogulcanaydogan/pool-watch/pkg/cooldown"
	"github.com/ogulcanaydogan/pool-watch/pkg/filter"
	"github.com/ogulcanaydogan/pool-watch/pkg/model"
	"github.com/ogulcanaydogan/pool-watch/pkg/notify"
	"github.com/ogulcanaydogan/pool-watch/pkg/storage"
)

// DefaultSchedule polls every fifteen minutes.
const DefaultSchedule = "@every 15m"

// ErrBusy is returned by RunOnce when another cycle is still in progress.
var ErrBusy = errors.New("previous cycle still running")

// Outcome labels the end state of a cycle.
type Outcome string

const (
	OutcomeBusy     Outcome = "busy"
	OutcomeEmpty    Outcome = "empty"
	OutcomeNotified Outcome = "notified"
	OutcomeFailed   Outcome = "failed"
)

// Fetcher retrieves every pool for one cycle.
type Fetcher interface {
	FetchAll(ctx context.Context) ([]model.Pool, error)
}

// Store is the notified-pool state the runner reads and writes.
type Store interface {
	cooldown.Lookup
	Set(key string, rec model.NotifyRecord)
	Persist() error
}

// Result summarizes one cycle.
type Result struct {
	Outcome  Outcome
	Fetched  int
	Matched  int
	Notified int
	Took     time.Duration
}

// Runner executes poll cycles one at a time.
type Runner struct {
	fetcher    Fetcher
	notifier   notify.Notifier
	store      Store
	engine     *cooldown.Engine
	thresholds model.Thresholds
	logger     *slog.Logger

	history storage.Storage
	metrics *Metrics
	now     func() time.Time

	running atomic.Bool

	mu   sync.Mutex
	cron *cron.Cron
	wg   sync.WaitGroup
}

// Option customizes a Runner.
type Option func(*Runner)

// WithHistory records every cycle in h. History failures are logged only.
func WithHistory(h storage.Storage) Option {
	return func(r *Runner) { r.history = h }
}

// WithMetrics sets the metrics sink.
func WithMetrics(m *Metrics) Option {
	return func(r *Runner) { r.metrics = m }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(r *Runner) { r.now = now }
}

// New creates a runner with the given collaborators.
func New(fetcher Fetcher, notifier notify.Notifier, store Store, engine *cooldown.Engine, thresholds model.Thresholds, logger *slog.Logger, opts ...Option) *Runner {
	r := &Runner{
		fetcher:    fetcher,
		notifier:   notifier,
		store:      store,
		engine:     engine,
		thresholds: thresholds,
		logger:     logger,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.metrics == nil {
		r.metrics = NewMetrics(nil)
	}
	return r
}

// Running reports whether a cycle is in progress.
func (r *Runner) Running() bool { return r.running.Load() }

// RunOnce executes a single cycle unless one is already running, in which
// case it returns ErrBusy without touching the upstream, notifier or store.
func (r *Runner) RunOnce(ctx context.Context) (Result, error) {
	if !r.running.CompareAndSwap(false, true) {
		r.metrics.skipped.Inc()
		r.logger.Info("skipping tick, previous cycle still running")
		return Result{Outcome: OutcomeBusy}, ErrBusy
	}
	defer r.running.Store(false)

	start := r.now()
	res, notified, err := r.cycle(ctx, start)
	res.Took = r.now().Sub(start)

	if err != nil {
		res.Outcome = OutcomeFailed
		r.logger.Error("poll cycle failed", "error", err, "took", res.Took)
	} else {
		r.metrics.lastSuccess.Set(float64(r.now().Unix()))
		r.logger.Info("poll cycle finished",
			"outcome", res.Outcome,
			"fetched", res.Fetched,
			"matched", res.Matched,
			"notified", res.Notified,
			"took", res.Took,
		)
	}
	r.metrics.cycles.WithLabelValues(string(res.Outcome)).Inc()
	r.metrics.duration.Observe(res.Took.Seconds())

	r.recordHistory(ctx, start, res, notified, err)
	return res, err
}

func (r *Runner) cycle(ctx context.Context, now time.Time) (Result, []storage.Notification, error) {
	var res Result

	pools, err := r.fetcher.FetchAll(ctx)
	if err != nil {
		return res, nil, fmt.Errorf("fetch pools: %w", err)
	}
	res.Fetched = len(pools)
	r.metrics.poolsFetched.Set(float64(len(pools)))

	matched := filter.Apply(pools, r.thresholds)
	res.Matched = len(matched)

	candidates := r.engine.Select(matched, r.store, now)
	if len(candidates) == 0 {
		res.Outcome = OutcomeEmpty
		r.logger.Info("no pools to notify", "fetched", res.Fetched, "matched", res.Matched)
		return res, nil, nil
	}

	batch := make([]model.Pool, len(candidates))
	for i, c := range candidates {
		batch[i] = c.Pool
	}
	if err := r.notifier.Send(ctx, batch); err != nil {
		return res, nil, fmt.Errorf("send notification: %w", err)
	}

	notifiedAt := r.now()
	items := make([]storage.Notification, len(candidates))
	for i, c := range candidates {
		volume := c.Pool.Volume.Float64()
		r.store.Set(c.Pool.Key(), model.NotifyRecord{NotifiedAt: notifiedAt, Volume: volume})
		items[i] = storage.Notification{
			Address:    c.Pool.Key(),
			ChainID:    string(c.Pool.ChainID),
			Exchange:   c.Pool.Exchange,
			APR:        finite(c.Pool.APR),
			EarnFee:    finite(c.Pool.EarnFee),
			Volume:     volume,
			Reason:     string(c.Reason),
			NotifiedAt: notifiedAt,
		}
	}
	res.Notified = len(candidates)
	r.metrics.poolsNotified.Add(float64(len(candidates)))

	if err := r.store.Persist(); err != nil {
		return res, items, fmt.Errorf("persist state: %w", err)
	}

	res.Outcome = OutcomeNotified
	return res, items, nil
}

func (r *Runner) recordHistory(ctx context.Context, start time.Time, res Result, items []storage.Notification, cycleErr error) {
	if r.history == nil {
		return
	}

	c := &storage.Cycle{
		StartedAt: start,
		TookMS:    res.Took.Milliseconds(),
		Fetched:   res.Fetched,
		Matched:   res.Matched,
		Notified:  res.Notified,
		Result:    string(res.Outcome),
	}
	if cycleErr != nil {
		c.Error = cycleErr.Error()
	}

	ctx = context.WithoutCancel(ctx)
	if err := r.history.RecordCycle(ctx, c); err != nil {
		r.logger.Error("record cycle history", "error", err)
		return
	}
	if err := r.history.RecordNotifications(ctx, c.ID, items); err != nil {
		r.logger.Error("record notification history", "cycle", c.ID, "error", err)
	}
}

// finite maps unparsable metrics to zero for storage.
func finite(m model.Metric) float64 {
	if !m.Valid() {
		return 0
	}
	return m.Float64()
}
