// Package upstream fetches pool snapshots from the analytics API.
package upstream

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/ogulcanaydogan/pool-watch/pkg/model"
)

// Options configures a Client.
type Options struct {
	BaseURL   string
	ChainIDs  []string
	PageCount int
	PageSize  int
	PageDelay time.Duration
	Timeout   time.Duration
}

// Client is a paginated pools API client. Pages are requested one at a time
// with at least PageDelay between requests.
type Client struct {
	opts    Options
	client  *http.Client
	limiter *rate.Limiter
	logger  *slog.Logger
}

// NewClient creates an API client.
func NewClient(opts Options, logger *slog.Logger) *Client {
	if opts.PageCount <= 0 {
		opts.PageCount = 1
	}
	if opts.PageSize <= 0 {
		opts.PageSize = 100
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	opts.BaseURL = strings.TrimRight(opts.BaseURL, "/")

	limit := rate.Inf
	if opts.PageDelay > 0 {
		limit = rate.Every(opts.PageDelay)
	}
	return &Client{
		opts: opts,
		client: &http.Client{
			Timeout: opts.Timeout,
		},
		limiter: rate.NewLimiter(limit, 1),
		logger:  logger,
	}
}

type poolsResponse struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
	Data struct {
		List []model.Pool `json:"list"`
	} `json:"data"`
}

// Fetch requests a single page.
func (c *Client) Fetch(ctx context.Context, page, limit int, chainIDs []string) ([]model.Pool, error) {
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	q.Set("limit", strconv.Itoa(limit))
	if len(chainIDs) > 0 {
		q.Set("chainIds", strings.Join(chainIDs, ","))
	}
	endpoint := c.opts.BaseURL + "/pools?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: create request: %w", model.ErrFetch, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "pool-watch/1.0")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: page %d: %w", model.ErrFetch, page, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("%w: page %d: api returned status %d", model.ErrFetch, page, resp.StatusCode)
	}

	var body poolsResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("%w: page %d: decode response: %w", model.ErrFetch, page, err)
	}
	if body.Code != 0 {
		return nil, fmt.Errorf("%w: page %d: api code %d: %s", model.ErrFetch, page, body.Code, body.Msg)
	}
	return body.Data.List, nil
}

// FetchAll walks pages 1..PageCount serially and returns every pool. It
// stops early on a short page. Any failed page fails the whole walk.
func (c *Client) FetchAll(ctx context.Context) ([]model.Pool, error) {
	var all []model.Pool
	for page := 1; page <= c.opts.PageCount; page++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("%w: wait for page %d: %w", model.ErrFetch, page, err)
		}

		pools, err := c.Fetch(ctx, page, c.opts.PageSize, c.opts.ChainIDs)
		if err != nil {
			return nil, err
		}
		c.logger.Debug("fetched page", "page", page, "pools", len(pools))
		all = append(all, pools...)

		if len(pools) < c.opts.PageSize {
			break
		}
	}
	return all, nil
}
