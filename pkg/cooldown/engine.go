// Package cooldown decides whether a pool that passed the thresholds should
// be notified again.
package cooldown

import (
	"math"
	"time"

	"github.com/ogulcanaydogan/pool-watch/pkg/model"
)

// DefaultGrowthRatio is the volume growth since the last notification that
// overrides the cooldown window.
const DefaultGrowthRatio = 0.2

// Reason explains a decision.
type Reason string

const (
	ReasonFirstSeen       Reason = "first_seen"
	ReasonGrowth          Reason = "growth"
	ReasonCooldownElapsed Reason = "cooldown_elapsed"
	ReasonSuppressed      Reason = "suppressed"
	ReasonNotifyOnce      Reason = "notify_once"
)

// Decision is the outcome for a single pool.
type Decision struct {
	Notify bool
	Reason Reason
}

// Lookup gives read access to previously notified pools.
type Lookup interface {
	Get(key string) (model.NotifyRecord, bool)
}

// Candidate is a pool selected for notification and why.
type Candidate struct {
	Pool   model.Pool
	Reason Reason
}

// Engine holds the cooldown policy. A zero or negative Cooldown means a pool
// is notified once and then only again on volume growth.
type Engine struct {
	Cooldown    time.Duration
	GrowthRatio float64
}

// New returns an engine; a negative growth ratio is replaced by the default.
func New(cooldown time.Duration, growthRatio float64) *Engine {
	if growthRatio < 0 || math.IsNaN(growthRatio) {
		growthRatio = DefaultGrowthRatio
	}
	return &Engine{Cooldown: cooldown, GrowthRatio: growthRatio}
}

// Decide evaluates one pool against its prior record. prior is nil when the
// pool has never been notified.
func (e *Engine) Decide(p model.Pool, prior *model.NotifyRecord, now time.Time) Decision {
	if prior == nil {
		return Decision{Notify: true, Reason: ReasonFirstSeen}
	}

	threshold := math.Max(prior.Volume, 0) * (1 + e.GrowthRatio)
	if p.Volume.Float64() >= threshold {
		return Decision{Notify: true, Reason: ReasonGrowth}
	}

	if e.Cooldown <= 0 {
		return Decision{Notify: false, Reason: ReasonNotifyOnce}
	}

	if now.Sub(prior.NotifiedAt) >= e.Cooldown {
		return Decision{Notify: true, Reason: ReasonCooldownElapsed}
	}
	return Decision{Notify: false, Reason: ReasonSuppressed}
}

// Select returns the pools that should be notified now, preserving order.
// A key seen more than once in pools is considered only at its first
// occurrence.
func (e *Engine) Select(pools []model.Pool, records Lookup, now time.Time) []Candidate {
	var out []Candidate
	seen := make(map[string]struct{}, len(pools))
	for _, p := range pools {
		key := p.Key()
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}

		var prior *model.NotifyRecord
		if rec, ok := records.Get(key); ok {
			prior = &rec
		}
		if d := e.Decide(p, prior, now); d.Notify {
			out = append(out, Candidate{Pool: p, Reason: d.Reason})
		}
	}
	return out
}
