package upstream_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ogulcanaydogan/pool-watch/pkg/model"
	"github.com/ogulcanaydogan/pool-watch/pkg/upstream"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

func pageOf(n, page int) []map[string]any {
	out := make([]map[string]any, n)
	for i := range out {
		out[i] = map[string]any{
			"address": fmt.Sprintf("0x%02d%02d", page, i),
			"chainId": 56,
			"apr":     "4000",
			"earnFee": 2000,
			"volume":  "150000",
		}
	}
	return out
}

func writePools(w http.ResponseWriter, list []map[string]any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"code": 0,
		"msg":  "ok",
		"data": map[string]any{"list": list},
	})
}

func TestClient_Fetch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/pools", r.URL.Path)
		assert.Equal(t, "2", r.URL.Query().Get("page"))
		assert.Equal(t, "10", r.URL.Query().Get("limit"))
		assert.Equal(t, "56,1", r.URL.Query().Get("chainIds"))
		writePools(w, pageOf(3, 2))
	}))
	defer server.Close()

	c := upstream.NewClient(upstream.Options{BaseURL: server.URL + "/"}, discard)
	pools, err := c.Fetch(context.Background(), 2, 10, []string{"56", "1"})
	require.NoError(t, err)
	require.Len(t, pools, 3)
	assert.Equal(t, "0x0200", pools[0].Address)
	assert.Equal(t, model.ChainID("56"), pools[0].ChainID)
	assert.InDelta(t, 150000, pools[0].Volume.Float64(), 1e-9)
}

func TestClient_Fetch_BadStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	c := upstream.NewClient(upstream.Options{BaseURL: server.URL}, discard)
	_, err := c.Fetch(context.Background(), 1, 10, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, model.ErrFetch))
	assert.Contains(t, err.Error(), "status 502")
}

func TestClient_Fetch_ApplicationError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"code": 429, "msg": "too many requests"})
	}))
	defer server.Close()

	c := upstream.NewClient(upstream.Options{BaseURL: server.URL}, discard)
	_, err := c.Fetch(context.Background(), 1, 10, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, model.ErrFetch))
	assert.Contains(t, err.Error(), "too many requests")
}

func TestClient_FetchAll_StopsOnShortPage(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		switch r.URL.Query().Get("page") {
		case "1", "2":
			writePools(w, pageOf(2, int(calls.Load())))
		default:
			writePools(w, pageOf(1, 3))
		}
	}))
	defer server.Close()

	c := upstream.NewClient(upstream.Options{
		BaseURL:   server.URL,
		PageCount: 5,
		PageSize:  2,
	}, discard)

	pools, err := c.FetchAll(context.Background())
	require.NoError(t, err)
	assert.Len(t, pools, 5)
	assert.Equal(t, int32(3), calls.Load())
}

func TestClient_FetchAll_AbortsOnPageFailure(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		if r.URL.Query().Get("page") == "2" {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		writePools(w, pageOf(2, 1))
	}))
	defer server.Close()

	c := upstream.NewClient(upstream.Options{
		BaseURL:   server.URL,
		PageCount: 4,
		PageSize:  2,
	}, discard)

	pools, err := c.FetchAll(context.Background())
	require.Error(t, err)
	assert.Nil(t, pools)
	assert.True(t, errors.Is(err, model.ErrFetch))
	assert.Equal(t, int32(2), calls.Load())
}

func TestClient_FetchAll_PacesPages(t *testing.T) {
	var stamps []time.Time
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		stamps = append(stamps, time.Now())
		writePools(w, pageOf(1, 1))
	}))
	defer server.Close()

	delay := 50 * time.Millisecond
	c := upstream.NewClient(upstream.Options{
		BaseURL:   server.URL,
		PageCount: 3,
		PageSize:  1,
		PageDelay: delay,
	}, discard)

	_, err := c.FetchAll(context.Background())
	require.NoError(t, err)
	require.Len(t, stamps, 3)
	for i := 1; i < len(stamps); i++ {
		assert.GreaterOrEqual(t, stamps[i].Sub(stamps[i-1]), delay-5*time.Millisecond)
	}
}
