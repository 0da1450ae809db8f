package notify

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/ogulcanaydogan/pool-watch/pkg/chains"
	"github.com/ogulcanaydogan/pool-watch/pkg/model"
)

const title = "Pool Watch"

// NewFormatter returns the formatter registered under name.
func NewFormatter(name string, registry *chains.Registry) (Formatter, error) {
	if registry == nil {
		registry = chains.NewRegistry()
	}
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "lark", "feishu":
		return &LarkCard{chains: registry}, nil
	case "slack":
		return &SlackAttachments{chains: registry}, nil
	default:
		return nil, fmt.Errorf("unknown notify format %q", name)
	}
}

func headline(batch []model.Pool) string {
	if len(batch) == 1 {
		return fmt.Sprintf("%s: 1 pool matched", title)
	}
	return fmt.Sprintf("%s: %d pools matched", title, len(batch))
}

func label(p model.Pool) string {
	switch {
	case p.Name != "":
		return p.Name
	case p.Pair() != "":
		return p.Pair()
	default:
		return p.Address
	}
}

func money(m model.Metric) string {
	if !m.Valid() {
		return "n/a"
	}
	return "$" + humanize.CommafWithDigits(m.Float64(), 2)
}

func percent(m model.Metric) string {
	if !m.Valid() {
		return "n/a"
	}
	return humanize.CommafWithDigits(m.Float64(), 2) + "%"
}
