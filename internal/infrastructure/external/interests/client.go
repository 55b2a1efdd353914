// Package interests implements the client for the course recommendation
// endpoints. Free-text interests go out to a primary and a secondary endpoint
// at the same time; the primary wins when it answers, the secondary is the
// fallback, and a round where both fail is repeated until the caller's
// context ends.
package interests

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/coursepath/planner/internal/infrastructure/metrics"
	"github.com/coursepath/planner/pkg/retry"
)

// ══════════════════════════════════════════════════════════════════════════════
// CONFIGURATION
// ══════════════════════════════════════════════════════════════════════════════

// ClientConfig contains configuration for the interest client.
type ClientConfig struct {
	// PrimaryURL is the preferred recommendation endpoint.
	PrimaryURL string

	// SecondaryURL is the fallback endpoint.
	SecondaryURL string

	// ConnectTimeout bounds establishing a connection to an endpoint.
	ConnectTimeout time.Duration

	// ReadTimeout bounds waiting for response headers and for each read of
	// the response body.
	ReadTimeout time.Duration

	// RaceTimeout bounds how long a round waits on each endpoint.
	RaceTimeout time.Duration

	// MaxBodyBytes caps the response size read from an endpoint.
	MaxBodyBytes int64

	// HTTPClient overrides the client built from the timeouts.
	HTTPClient *http.Client

	// Logger for structured logging
	Logger *slog.Logger
}

// DefaultClientConfig returns sensible defaults.
func DefaultClientConfig(primaryURL, secondaryURL string) ClientConfig {
	return ClientConfig{
		PrimaryURL:     primaryURL,
		SecondaryURL:   secondaryURL,
		ConnectTimeout: 20 * time.Second,
		ReadTimeout:    20 * time.Second,
		RaceTimeout:    20 * time.Second,
		MaxBodyBytes:   1 << 20,
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// CLIENT
// ══════════════════════════════════════════════════════════════════════════════

const (
	endpointPrimary   = "primary"
	endpointSecondary = "secondary"
)

var (
	errRoundFailed = errors.New("both interest endpoints failed")
	errReadTimeout = errors.New("response body read timed out")
)

// Client fetches candidate course codes for free-text interests.
// It is safe for concurrent use.
type Client struct {
	config     ClientConfig
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a new interest client.
func NewClient(config ClientConfig) *Client {
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	if config.MaxBodyBytes <= 0 {
		config.MaxBodyBytes = 1 << 20
	}
	if config.RaceTimeout <= 0 {
		config.RaceTimeout = 20 * time.Second
	}

	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{
			Transport: &http.Transport{
				Proxy: http.ProxyFromEnvironment,
				DialContext: (&net.Dialer{
					Timeout: config.ConnectTimeout,
				}).DialContext,
				ResponseHeaderTimeout: config.ReadTimeout,
				MaxIdleConnsPerHost:   4,
			},
		}
	}

	return &Client{
		config:     config,
		httpClient: httpClient,
		logger:     config.Logger.With("component", "interests"),
	}
}

// Fetch returns the candidate course codes for interests.
//
// A malformed response body yields an empty, non-nil result and no error.
// Rounds where both endpoints fail are repeated immediately; the only way
// out besides success is ctx, whose error is then returned.
func (c *Client) Fetch(ctx context.Context, interests string) ([]string, error) {
	interests = strings.TrimSpace(interests)

	var codes []string
	retrier := retry.InterestRoundRetrier(func(attempt int, err error, _ time.Duration) {
		c.logger.Warn("interest round failed, retrying",
			"attempt", attempt,
			"error", err,
		)
	})

	err := retrier.Do(ctx, func(ctx context.Context) error {
		var roundErr error
		codes, roundErr = c.round(ctx, interests)
		return roundErr
	})
	if err == nil {
		return codes, nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		metrics.RecordInterestRound("cancelled")
		return nil, ctxErr
	}
	return nil, fmt.Errorf("fetch interests: %w", err)
}

// Close releases idle connections held by the client.
func (c *Client) Close() {
	c.httpClient.CloseIdleConnections()
}

type response struct {
	body []byte
	err  error
}

// round races both endpoints once. The secondary is only consulted when the
// primary fails or misses its deadline; the losing request is cancelled
// when the round returns.
func (c *Client) round(ctx context.Context, interests string) ([]string, error) {
	roundCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	primary := make(chan response, 1)
	secondary := make(chan response, 1)

	go func() { primary <- c.get(roundCtx, endpointPrimary, c.config.PrimaryURL, interests) }()
	go func() { secondary <- c.get(roundCtx, endpointSecondary, c.config.SecondaryURL, interests) }()

	if body, ok := c.await(ctx, primary, endpointPrimary); ok {
		metrics.RecordInterestRound(endpointPrimary)
		return c.parse(body), nil
	}
	if body, ok := c.await(ctx, secondary, endpointSecondary); ok {
		metrics.RecordInterestRound(endpointSecondary)
		return c.parse(body), nil
	}

	if err := ctx.Err(); err != nil {
		return nil, retry.Permanent(err)
	}
	metrics.RecordInterestRound("failed")
	return nil, retry.Retryable(errRoundFailed)
}

func (c *Client) await(ctx context.Context, ch <-chan response, endpoint string) ([]byte, bool) {
	timer := time.NewTimer(c.config.RaceTimeout)
	defer timer.Stop()

	select {
	case r := <-ch:
		if r.err != nil {
			c.logger.Debug("interest endpoint failed", "endpoint", endpoint, "error", r.err)
			return nil, false
		}
		return r.body, true
	case <-timer.C:
		c.logger.Debug("interest endpoint timed out", "endpoint", endpoint, "timeout", c.config.RaceTimeout)
		return nil, false
	case <-ctx.Done():
		return nil, false
	}
}

// get performs one GET <endpoint>?interests=<text>. Anything but a 200 is a failure.
func (c *Client) get(ctx context.Context, endpoint, base, interests string) response {
	start := time.Now()
	body, err := c.doGet(ctx, base, interests)

	result := "ok"
	switch {
	case err == nil:
	case errors.Is(err, errReadTimeout):
		result = "timeout"
	case errors.Is(err, context.Canceled):
		result = "cancelled"
	case errors.Is(err, context.DeadlineExceeded) || isTimeout(err):
		result = "timeout"
	default:
		result = "error"
	}
	metrics.RecordInterestRequest(endpoint, result, time.Since(start))

	return response{body: body, err: err}
}

func (c *Client) doGet(ctx context.Context, base, interests string) ([]byte, error) {
	if base == "" {
		return nil, errors.New("endpoint not configured")
	}
	u, err := url.Parse(base)
	if err != nil {
		return nil, fmt.Errorf("parse endpoint: %w", err)
	}
	q := u.Query()
	q.Set("interests", interests)
	u.RawQuery = q.Encode()

	reqCtx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, c.config.MaxBodyBytes))
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	var reader io.Reader = resp.Body
	if c.config.ReadTimeout > 0 {
		timer := time.AfterFunc(c.config.ReadTimeout, func() { cancel(errReadTimeout) })
		defer timer.Stop()
		reader = &idleReader{r: resp.Body, timer: timer, timeout: c.config.ReadTimeout}
	}

	body, err := io.ReadAll(io.LimitReader(reader, c.config.MaxBodyBytes))
	if err != nil {
		if errors.Is(context.Cause(reqCtx), errReadTimeout) {
			return nil, fmt.Errorf("read response: %w", errReadTimeout)
		}
		return nil, fmt.Errorf("read response: %w", err)
	}
	return body, nil
}

// idleReader restarts timer after every read, so timeout bounds the gap
// between reads rather than the whole body.
type idleReader struct {
	r       io.Reader
	timer   *time.Timer
	timeout time.Duration
}

func (r *idleReader) Read(p []byte) (int, error) {
	n, err := r.r.Read(p)
	r.timer.Reset(r.timeout)
	return n, err
}

func isTimeout(err error) bool {
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// ══════════════════════════════════════════════════════════════════════════════
// PAYLOAD
// ══════════════════════════════════════════════════════════════════════════════

// recommendation is one element of the endpoint's JSON array.
type recommendation struct {
	CourseCode *string `json:"Course Code"`
}

func (c *Client) parse(body []byte) []string {
	codes, ok := ParseRecommendations(body)
	if !ok {
		metrics.InterestMalformedPayloads.Inc()
		c.logger.Warn("interest payload did not match schema", "bytes", len(body))
	}
	return codes
}

// ParseRecommendations extracts "Course Code" values from a JSON array of
// objects. Any structural mismatch yields an empty result and false.
func ParseRecommendations(body []byte) ([]string, bool) {
	var rows []recommendation
	if err := json.Unmarshal(body, &rows); err != nil {
		return []string{}, false
	}

	codes := make([]string, 0, len(rows))
	for _, r := range rows {
		if r.CourseCode == nil {
			return []string{}, false
		}
		if code := strings.ToUpper(strings.TrimSpace(*r.CourseCode)); code != "" {
			codes = append(codes, code)
		}
	}
	return codes, true
}
