// Package scoringclient talks to a remote scoring service over HTTP.
package scoringclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/okian/balance/internal/domain/catalog"
	"github.com/okian/balance/internal/domain/model"
	"github.com/okian/balance/internal/domain/scoring"
	"github.com/okian/balance/pkg/logger"
)

const (
	predictPath = "/predict"
	columnsPath = "/columns"

	maxErrorBody    = 512
	defaultTimeout  = 10 * time.Second
	defaultRatePerS = 20
	defaultBurst    = 5
)

// PredictRequest is the body sent to the scorer.
type PredictRequest struct {
	Features model.FeatureVector `json:"features"`
}

// predictResponse uses pointers so a missing field is distinguishable from zero.
type predictResponse struct {
	Score *float64 `json:"score"`
	Label *string  `json:"label"`
}

type columnsResponse struct {
	Columns []string `json:"columns"`
}

// Option applies a configuration option to the Client.
type Option func(*Client)

// WithHTTPClient sets the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithRateLimit caps outbound requests per second. perSecond <= 0 disables the limit.
func WithRateLimit(perSecond float64, burst int) Option {
	return func(c *Client) {
		if perSecond <= 0 {
			c.limiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
	}
}

// WithLogger sets a custom logger.
func WithLogger(l logger.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// Client is a scoring.Scorer backed by a remote /predict endpoint. It also
// discovers the feature column order through /columns.
type Client struct {
	base    *url.URL
	http    *http.Client
	limiter *rate.Limiter
	logger  logger.Logger
}

var _ scoring.Scorer = (*Client)(nil)

// New creates a client for the scorer at baseURL. The logger must be initialized.
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(strings.TrimSpace(baseURL), "/"))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid scorer url %q", baseURL)
	}
	c := &Client{
		base:    u,
		http:    &http.Client{Timeout: defaultTimeout},
		limiter: rate.NewLimiter(defaultRatePerS, defaultBurst),
		logger:  logger.Get().Named("scoringclient"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Score posts features to /predict. It never retries.
func (c *Client) Score(ctx context.Context, features model.FeatureVector) (model.ScoreResult, error) {
	body, err := json.Marshal(PredictRequest{Features: features})
	if err != nil {
		return model.ScoreResult{}, fmt.Errorf("%w: %w", scoring.ErrInvalidInput, err)
	}

	var resp predictResponse
	if err := c.do(ctx, http.MethodPost, predictPath, body, &resp); err != nil {
		return model.ScoreResult{}, err
	}
	if resp.Score == nil || resp.Label == nil {
		return model.ScoreResult{}, fmt.Errorf("%w: score and label are required", scoring.ErrMalformedResponse)
	}
	return model.ScoreResult{Score: *resp.Score, Label: *resp.Label}, nil
}

// Columns fetches the scorer's feature order with sentinel columns removed.
func (c *Client) Columns(ctx context.Context) ([]string, error) {
	var resp columnsResponse
	if err := c.do(ctx, http.MethodGet, columnsPath, nil, &resp); err != nil {
		return nil, err
	}
	if resp.Columns == nil {
		return nil, fmt.Errorf("%w: columns are required", scoring.ErrMalformedResponse)
	}
	return catalog.StripSentinels(resp.Columns), nil
}

func (c *Client) do(ctx context.Context, method, path string, body []byte, out any) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("%w: rate limit: %w", scoring.ErrUnavailable, err)
		}
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base.JoinPath(path).String(), reader)
	if err != nil {
		return fmt.Errorf("%w: %w", scoring.ErrUnavailable, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	res, err := c.http.Do(req)
	if err != nil {
		c.logger.Warn(ctx, "scorer request failed", logger.String("path", path), logger.Error(err))
		return fmt.Errorf("%w: %w", scoring.ErrUnavailable, err)
	}
	defer res.Body.Close()

	c.logger.Debug(ctx, "scorer response",
		logger.String("path", path),
		logger.Int("status", res.StatusCode),
		logger.Duration("latency", time.Since(start)))

	if res.StatusCode < 200 || res.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(res.Body, maxErrorBody))
		return fmt.Errorf("%w: %s %s returned %d: %s",
			scoring.ErrRejected, method, path, res.StatusCode, strings.TrimSpace(string(snippet)))
	}

	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return fmt.Errorf("%w: %w", scoring.ErrUnavailable, err)
		}
		return fmt.Errorf("%w: %w", scoring.ErrMalformedResponse, err)
	}
	return nil
}
