// Package filter narrows fetched pools down to the ones worth reporting.
package filter

import "github.com/ogulcanaydogan/pool-watch/pkg/model"

// Match reports whether the pool meets every minimum in t. A metric that
// could not be parsed never meets a minimum.
func Match(p model.Pool, t model.Thresholds) bool {
	return atLeast(p.APR, t.MinAPR) &&
		atLeast(p.EarnFee, t.MinEarnFee) &&
		atLeast(p.Volume, t.MinVolume)
}

// Apply returns the pools that match t, in their original order.
func Apply(pools []model.Pool, t model.Thresholds) []model.Pool {
	var out []model.Pool
	for _, p := range pools {
		if Match(p, t) {
			out = append(out, p)
		}
	}
	return out
}

func atLeast(m model.Metric, floor float64) bool {
	return m.Valid() && m.Float64() >= floor
}
