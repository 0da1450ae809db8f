package model

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Metric is a numeric pool statistic. The analytics API sends some metrics as
// JSON numbers and others as numeric strings. Values that cannot be parsed
// decode to NaN, which fails every threshold comparison.
type Metric float64

// Float64 returns the metric as a float64.
func (m Metric) Float64() float64 { return float64(m) }

// Valid reports whether the metric holds a finite number.
func (m Metric) Valid() bool {
	f := float64(m)
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// UnmarshalJSON never fails; malformed input becomes NaN.
func (m *Metric) UnmarshalJSON(data []byte) error {
	raw := bytes.TrimSpace(data)
	if len(raw) > 0 && raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			*m = Metric(math.NaN())
			return nil
		}
		raw = []byte(strings.TrimSpace(s))
	}
	*m = ParseMetric(string(raw))
	return nil
}

// MarshalJSON writes invalid metrics as null.
func (m Metric) MarshalJSON() ([]byte, error) {
	if !m.Valid() {
		return []byte("null"), nil
	}
	return []byte(strconv.FormatFloat(float64(m), 'f', -1, 64)), nil
}

// ParseMetric parses a decimal string, returning NaN when it is malformed or
// out of float64 range.
func ParseMetric(s string) Metric {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return Metric(math.NaN())
	}
	f := d.InexactFloat64()
	if math.IsInf(f, 0) || math.IsNaN(f) {
		return Metric(math.NaN())
	}
	return Metric(f)
}

// ChainID identifies a chain. The API is not consistent about sending it as
// a number or a string.
type ChainID string

// UnmarshalJSON accepts a JSON string or number.
func (c *ChainID) UnmarshalJSON(data []byte) error {
	raw := bytes.TrimSpace(data)
	if bytes.Equal(raw, []byte("null")) {
		*c = ""
		return nil
	}
	if len(raw) > 0 && raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return err
		}
		*c = ChainID(strings.TrimSpace(s))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return err
	}
	*c = ChainID(n.String())
	return nil
}
