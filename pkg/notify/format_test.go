package notify_test

import (
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ogulcanaydogan/pool-watch/pkg/chains"
	"github.com/ogulcanaydogan/pool-watch/pkg/model"
	"github.com/ogulcanaydogan/pool-watch/pkg/notify"
)

var at = time.Date(2025, 3, 1, 12, 30, 0, 0, time.UTC)

func render(t *testing.T, format string, batch []model.Pool) map[string]any {
	t.Helper()
	f, err := notify.NewFormatter(format, chains.NewRegistry())
	require.NoError(t, err)
	data, err := json.Marshal(f.Payload(batch, at))
	require.NoError(t, err)
	var out map[string]any
	require.NoError(t, json.Unmarshal(data, &out))
	return out
}

func TestLarkCard_Payload(t *testing.T) {
	batch := append(testBatch(), model.Pool{
		Address: "0xPoolB",
		ChainID: "999",
		APR:     model.Metric(math.NaN()),
	})
	out := render(t, "lark", batch)

	card := out["card"].(map[string]any)
	header := card["header"].(map[string]any)
	assert.Equal(t, "Pool Watch: 2 pools matched", header["title"].(map[string]any)["content"])

	elements := card["elements"].([]any)
	// pool, hr, pool, note
	require.Len(t, elements, 4)

	first := elements[0].(map[string]any)["text"].(map[string]any)["content"].(string)
	assert.Contains(t, first, "**WBNB/USDT** · PancakeSwap · BSC")
	assert.Contains(t, first, "Volume: $150,000")
	assert.Contains(t, first, "TVL: $1,234,567.89")
	assert.Contains(t, first, "(https://bscscan.com/address/0xPoolA)")

	second := elements[2].(map[string]any)["text"].(map[string]any)["content"].(string)
	assert.Contains(t, second, "chain 999")
	assert.Contains(t, second, "APR: n/a")

	note := elements[3].(map[string]any)["elements"].([]any)[0].(map[string]any)
	assert.Equal(t, "2025-03-01 12:30:00 UTC", note["content"])
}

func TestSlackAttachments_Payload(t *testing.T) {
	out := render(t, "slack", testBatch())

	assert.Equal(t, "Pool Watch: 1 pool matched", out["text"])
	attachments := out["attachments"].([]any)
	require.Len(t, attachments, 1)

	a := attachments[0].(map[string]any)
	assert.Equal(t, "WBNB/USDT", a["title"])
	assert.Equal(t, "https://bscscan.com/address/0xPoolA", a["title_link"])
	assert.Equal(t, float64(at.Unix()), a["ts"])
}
