// Package httpgateway implements the remote gateway contract over HTTP. It
// attaches the bearer token to every call, retries idempotent reads with
// exponential backoff, extracts the optional server message from error
// bodies, and tears the token down on authorization rejections.
package httpgateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"math/rand"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tidwall/gjson"
	"golang.org/x/time/rate"

	"github.com/PointDesk/loyalty_client/internal/app/domain/session"
	"github.com/PointDesk/loyalty_client/internal/app/gateway"
	"github.com/PointDesk/loyalty_client/pkg/logger"
)

// RetryConfig configures retry behaviour for idempotent reads.
type RetryConfig struct {
	MaxRetries        int
	InitialBackoff    time.Duration
	MaxBackoff        time.Duration
	BackoffMultiplier float64
	Jitter            float64
}

// DefaultRetryConfig returns sensible defaults.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:        3,
		InitialBackoff:    100 * time.Millisecond,
		MaxBackoff:        5 * time.Second,
		BackoffMultiplier: 2.0,
		Jitter:            0.1,
	}
}

// Config holds client configuration.
type Config struct {
	// BaseURL is the API root, e.g. http://localhost:8080/api.
	BaseURL string

	// Timeout bounds each HTTP request.
	Timeout time.Duration

	// Retry governs idempotent read retries. Zero MaxRetries disables them.
	Retry RetryConfig

	// RequestsPerSecond rate-limits outgoing calls. Zero disables limiting.
	RequestsPerSecond float64
	Burst             int
}

// Client implements gateway.Remote over HTTP.
type Client struct {
	cfg     Config
	http    *http.Client
	tokens  *TokenStore
	limiter *rate.Limiter
	log     *logger.Logger

	// onUnauthorized runs after a 401 clears the token; the application
	// wires it to the session store's logout.
	onUnauthorized func()
}

var _ gateway.Remote = (*Client)(nil)

// New constructs an HTTP gateway client.
func New(cfg Config, tokens *TokenStore, log *logger.Logger) (*Client, error) {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return nil, fmt.Errorf("base URL is required")
	}
	if _, err := url.Parse(cfg.BaseURL); err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if tokens == nil {
		tokens = NewTokenStore()
	}
	if log == nil {
		log = logger.NewDefault("httpgateway")
	}

	var limiter *rate.Limiter
	if cfg.RequestsPerSecond > 0 {
		burst := cfg.Burst
		if burst <= 0 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), burst)
	}

	return &Client{
		cfg:     cfg,
		http:    &http.Client{Timeout: cfg.Timeout},
		tokens:  tokens,
		limiter: limiter,
		log:     log,
	}, nil
}

// Tokens returns the token store backing this client.
func (c *Client) Tokens() *TokenStore { return c.tokens }

// SetUnauthorizedHook registers the callback invoked after an authorization
// rejection has cleared the stored token.
func (c *Client) SetUnauthorizedHook(fn func()) {
	c.onUnauthorized = fn
}

func (c *Client) Login(ctx context.Context, creds session.Credentials) (gateway.AuthResult, error) {
	var out gateway.AuthResult
	err := c.do(ctx, http.MethodPost, "/login", creds, &out)
	return out, err
}

func (c *Client) Register(ctx context.Context, reg session.Registration) (gateway.AuthResult, error) {
	var out gateway.AuthResult
	err := c.do(ctx, http.MethodPost, "/register", reg, &out)
	return out, err
}

func (c *Client) Balance(ctx context.Context) (int64, error) {
	var out struct {
		Balance int64 `json:"balance"`
	}
	err := c.do(ctx, http.MethodGet, "/balance", nil, &out)
	return out.Balance, err
}

func (c *Client) RewardTier(ctx context.Context) (gateway.TierSnapshot, error) {
	var out gateway.TierSnapshot
	err := c.do(ctx, http.MethodGet, "/rewardtier", nil, &out)
	return out, err
}

func (c *Client) History(ctx context.Context, cursor string) (gateway.HistoryPage, error) {
	path := "/history"
	if cursor != "" {
		path += "?cursor=" + url.QueryEscape(cursor)
	}
	var out gateway.HistoryPage
	err := c.do(ctx, http.MethodGet, path, nil, &out)
	return out, err
}

func (c *Client) EarnPoints(ctx context.Context, req gateway.EarnRequest) (gateway.MutationResult, error) {
	var out gateway.MutationResult
	err := c.do(ctx, http.MethodPost, "/earn", req, &out)
	return out, err
}

func (c *Client) RedeemPoints(ctx context.Context, req gateway.RedeemRequest) (gateway.MutationResult, error) {
	var out gateway.MutationResult
	err := c.do(ctx, http.MethodPost, "/redeem", req, &out)
	return out, err
}

// do performs one logical API call. GETs are retried on transient failures;
// writes are attempted exactly once.
func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limiter: %w", err)
		}
	}

	if token := c.tokens.Get(); token != "" && c.tokens.Expired(time.Now()) {
		c.log.Warn("stored token expired; clearing session")
		c.unauthorized()
		return &gateway.Error{StatusCode: http.StatusUnauthorized, Message: "Session expired"}
	}

	var payload []byte
	if body != nil {
		var err error
		if payload, err = json.Marshal(body); err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
	}

	attempts := 1
	if method == http.MethodGet && c.cfg.Retry.MaxRetries > 0 {
		attempts += c.cfg.Retry.MaxRetries
	}

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(c.backoff(attempt)):
			}
		}

		retryable, err := c.once(ctx, method, path, payload, out)
		if err == nil {
			return nil
		}
		lastErr = err
		if !retryable {
			return err
		}
		c.log.WithField("path", path).
			WithField("attempt", attempt+1).
			WithError(err).
			Debug("retrying gateway call")
	}
	return lastErr
}

// once performs a single HTTP round trip. It reports whether the failure is
// worth retrying for an idempotent request.
func (c *Client) once(ctx context.Context, method, path string, payload []byte, out interface{}) (retryable bool, err error) {
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.cfg.BaseURL+path, reader)
	if err != nil {
		return false, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token := c.tokens.Get(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		// Network-level failure; safe to retry idempotent reads.
		return true, &gateway.Error{StatusCode: 0, Message: ""}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return true, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		if resp.StatusCode == http.StatusUnauthorized {
			c.unauthorized()
		}
		gwErr := &gateway.Error{
			StatusCode: resp.StatusCode,
			Message:    gjson.GetBytes(raw, "message").String(),
		}
		return retryableStatus(resp.StatusCode), gwErr
	}

	if out != nil {
		if err := json.Unmarshal(raw, out); err != nil {
			return false, fmt.Errorf("decode response: %w", err)
		}
	}
	return false, nil
}

func (c *Client) unauthorized() {
	c.tokens.Clear()
	if c.onUnauthorized != nil {
		c.onUnauthorized()
	}
}

func (c *Client) backoff(attempt int) time.Duration {
	r := c.cfg.Retry
	if r.InitialBackoff <= 0 {
		r.InitialBackoff = 100 * time.Millisecond
	}
	if r.BackoffMultiplier < 1 {
		r.BackoffMultiplier = 2.0
	}
	d := float64(r.InitialBackoff) * math.Pow(r.BackoffMultiplier, float64(attempt-1))
	if r.MaxBackoff > 0 && d > float64(r.MaxBackoff) {
		d = float64(r.MaxBackoff)
	}
	if r.Jitter > 0 {
		d += d * r.Jitter * rand.Float64()
	}
	return time.Duration(d)
}

func retryableStatus(code int) bool {
	switch code {
	case http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	default:
		return false
	}
}
