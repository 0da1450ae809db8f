package model_test

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ogulcanaydogan/pool-watch/pkg/model"
)

func TestNormalizeKey(t *testing.T) {
	assert.Equal(t, "0xabcdef", model.NormalizeKey("  0xAbCdEf "))
	assert.Equal(t, "", model.NormalizeKey(""))
}

func TestPool_Decode(t *testing.T) {
	data := []byte(`{
		"address": "0xABC",
		"chainId": 56,
		"exchange": "PancakeSwap",
		"tokens": [{"symbol": "WBNB"}, {"symbol": "USDT"}],
		"apr": "4000.5",
		"earnFee": 2000,
		"volume": "150000",
		"tvl": "not-a-number",
		"liquidity": null
	}`)

	var p model.Pool
	require.NoError(t, json.Unmarshal(data, &p))

	assert.Equal(t, "0xabc", p.Key())
	assert.Equal(t, model.ChainID("56"), p.ChainID)
	assert.Equal(t, "WBNB/USDT", p.Pair())
	assert.InDelta(t, 4000.5, p.APR.Float64(), 1e-9)
	assert.InDelta(t, 2000, p.EarnFee.Float64(), 1e-9)
	assert.InDelta(t, 150000, p.Volume.Float64(), 1e-9)
	assert.True(t, math.IsNaN(p.TVL.Float64()))
	assert.False(t, p.Liquidity.Valid())
}

func TestChainID_String(t *testing.T) {
	var c model.ChainID
	require.NoError(t, json.Unmarshal([]byte(`"8453"`), &c))
	assert.Equal(t, model.ChainID("8453"), c)
}

func TestMetric_MarshalInvalid(t *testing.T) {
	out, err := json.Marshal(struct {
		V model.Metric `json:"v"`
	}{V: model.ParseMetric("abc")})
	require.NoError(t, err)
	assert.JSONEq(t, `{"v": null}`, string(out))
}

func TestMetric_OutOfRangeIsInvalid(t *testing.T) {
	var v struct {
		A model.Metric `json:"a"`
		B model.Metric `json:"b"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"a": "1e400", "b": 1e400}`), &v))
	assert.False(t, v.A.Valid())
	assert.False(t, v.B.Valid())
	assert.True(t, math.IsNaN(v.A.Float64()))
	assert.True(t, math.IsNaN(v.B.Float64()))
}
