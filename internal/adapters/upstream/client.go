// Package upstream is the HTTP client for the stats API that feeds the war room.
package upstream

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/okian/canmnt/internal/domain/model"
	"github.com/okian/canmnt/pkg/logger"
)

// Endpoint names used in logs and metrics.
const (
	EndpointSeasonStats = "season-stats"
	EndpointLivePulse   = "live-pulse"
)

const (
	defaultTimeout  = 10 * time.Second
	maxBodyBytes    = 4 << 20
	requestIDHeader = "X-Request-ID"
)

// Fetcher reads the two upstream endpoints.
type Fetcher interface {
	SeasonStats(ctx context.Context, player string) (model.SeasonStatsResponse, error)
	LivePulse(ctx context.Context) (model.LivePulseResponse, error)
}

// ClientConfig configures a Client.
type ClientConfig struct {
	HTTPClient *http.Client
	BaseURL    string
	Timeout    time.Duration
	Logger     logger.Logger
}

// Client talks to the upstream REST API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	timeout    time.Duration
	logger     logger.Logger
	flight     singleflight.Group
}

var _ Fetcher = (*Client)(nil)

// NewClient creates an upstream client.
func NewClient(cfg ClientConfig) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	l := cfg.Logger
	if l == nil {
		l = logger.Get().Named("upstream")
	}
	return &Client{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
		timeout:    timeout,
		logger:     l,
	}
}

// SeasonStats fetches GET /api/season-stats, optionally for a single player.
func (c *Client) SeasonStats(ctx context.Context, player string) (model.SeasonStatsResponse, error) {
	var query url.Values
	if player = strings.TrimSpace(player); player != "" {
		query = url.Values{"player": []string{player}}
	}
	var out model.SeasonStatsResponse
	if err := c.getJSON(ctx, EndpointSeasonStats, "/api/season-stats", query, &out); err != nil {
		return model.SeasonStatsResponse{}, err
	}
	if out.Players == nil {
		out.Players = map[string]model.PlayerSeasonStats{}
	}
	return out, nil
}

// LivePulse fetches GET /api/live-pulse. Events with an unknown type are dropped.
func (c *Client) LivePulse(ctx context.Context) (model.LivePulseResponse, error) {
	var out model.LivePulseResponse
	if err := c.getJSON(ctx, EndpointLivePulse, "/api/live-pulse", nil, &out); err != nil {
		return model.LivePulseResponse{}, err
	}
	kept := make([]model.PlayerEvent, 0, len(out.Events))
	for _, e := range out.Events {
		if !e.Type.IsLive() {
			c.logger.Debug(ctx, "dropping live event with unknown type",
				logger.String("player", e.Player),
				logger.String("type", string(e.Type)),
			)
			continue
		}
		kept = append(kept, e)
	}
	out.Events = kept
	return out, nil
}

func (c *Client) getJSON(ctx context.Context, endpoint, path string, query url.Values, target any) error {
	fullURL := c.baseURL + path
	if encoded := query.Encode(); encoded != "" {
		fullURL += "?" + encoded
	}

	// The shared request must not die with whichever caller started it.
	flight := c.flight.DoChan(fullURL, func() (any, error) {
		return c.execute(context.WithoutCancel(ctx), fullURL)
	})
	var res singleflight.Result
	select {
	case <-ctx.Done():
		return crerr.Wrapf(ctx.Err(), "fetch %s", endpoint)
	case res = <-flight:
	}

	err := res.Err
	if err == nil {
		body, _ := res.Val.([]byte)
		if decErr := sonic.Unmarshal(body, target); decErr != nil {
			err = crerr.Mark(crerr.Wrapf(decErr, "decode %s payload", endpoint), ErrDecode)
		}
	}
	if err != nil {
		return crerr.Wrapf(err, "fetch %s", endpoint)
	}
	return nil
}

func (c *Client) execute(ctx context.Context, fullURL string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, crerr.Wrap(err, "build request")
	}
	reqID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set(requestIDHeader, reqID)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, crerr.Mark(crerr.Wrapf(err, "GET %s", fullURL), ErrRequest)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, crerr.Mark(crerr.Wrap(err, "read body"), ErrRequest)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.Warn(ctx, "upstream returned error status",
			logger.String("url", fullURL),
			logger.Int("status", resp.StatusCode),
			logger.String("request_id", reqID),
		)
		return nil, crerr.Wrapf(ErrUpstreamStatus, "GET %s: status %d", fullURL, resp.StatusCode)
	}
	return body, nil
}
