// Package gateway is the REST client for the network API gateway that owns
// customers, devices, ONUs and CPE WiFi configuration.
package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/nocdesk/nocdesk/internal/platform/httpx"
)

var (
	// ErrUpstream covers transport failures and non-2xx gateway responses.
	ErrUpstream = fmt.Errorf("gateway: request failed: %w", httpx.ErrUpstream)
	// ErrDecode is returned when a gateway payload is malformed or fails validation.
	ErrDecode = fmt.Errorf("gateway: invalid payload: %w", httpx.ErrUpstream)
)

// Observer records the outcome of every gateway call.
type Observer interface {
	ObserveGateway(op, outcome string, elapsed time.Duration)
}

// Config configures the gateway client.
type Config struct {
	BaseURL    string
	Token      string
	Timeout    time.Duration
	Retries    int
	RPS        float64
	Logger     *slog.Logger
	Observer   Observer
	HTTPClient *http.Client
}

// Client talks to the gateway. It is safe for concurrent use.
type Client struct {
	http     *resty.Client
	limiter  *rate.Limiter
	validate *validator.Validate
	logger   *slog.Logger
	observer Observer
}

// New builds a Client.
func New(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New("gateway: base url required")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	var rc *resty.Client
	if cfg.HTTPClient != nil {
		rc = resty.NewWithClient(cfg.HTTPClient)
	} else {
		rc = resty.New()
	}
	rc.SetBaseURL(cfg.BaseURL).
		SetTimeout(cfg.Timeout).
		SetHeader("Accept", "application/json").
		SetHeader("Content-Type", "application/json").
		SetRetryCount(max(cfg.Retries, 0)).
		SetRetryWaitTime(100 * time.Millisecond).
		SetRetryMaxWaitTime(2 * time.Second).
		AddRetryCondition(retryCondition)
	if cfg.Token != "" {
		rc.SetAuthToken(cfg.Token)
	}

	limit := rate.Inf
	if cfg.RPS > 0 {
		limit = rate.Limit(cfg.RPS)
	}
	c := &Client{
		http:     rc,
		limiter:  rate.NewLimiter(limit, max(1, int(cfg.RPS))),
		validate: validator.New(),
		logger:   cfg.Logger,
		observer: cfg.Observer,
	}
	rc.OnBeforeRequest(func(_ *resty.Client, r *resty.Request) error {
		return c.limiter.Wait(r.Context())
	})
	return c, nil
}

// retryCondition retries reads on transport errors, 429 and 5xx. Writes are
// never retried here; callers own their retry policy.
func retryCondition(resp *resty.Response, err error) bool {
	if resp == nil || resp.Request == nil {
		return err != nil
	}
	if resp.Request.Method != http.MethodGet {
		return false
	}
	if err != nil {
		return true
	}
	code := resp.StatusCode()
	return code == http.StatusTooManyRequests || code >= http.StatusInternalServerError
}

type envelope[T any] struct {
	Data []T `json:"data"`
}

// List fetches a collection and validates every record. Any invalid record
// fails the whole fetch so the view never renders partial data.
func List[T any](ctx context.Context, c *Client, op, path string) ([]T, error) {
	start := time.Now()
	resp, err := c.http.R().SetContext(ctx).Get(path)
	if err := c.check(op, start, resp, err); err != nil {
		return nil, err
	}

	var env envelope[T]
	if err := json.Unmarshal(resp.Body(), &env); err != nil {
		c.observe(op, "decode_error", start)
		return nil, fmt.Errorf("%w: %s: %v", ErrDecode, op, err)
	}
	if env.Data == nil {
		env.Data = []T{}
	}
	for i := range env.Data {
		if err := c.validate.Struct(env.Data[i]); err != nil {
			c.observe(op, "decode_error", start)
			return nil, fmt.Errorf("%w: %s: record %d: %v", ErrDecode, op, i, err)
		}
	}
	c.observe(op, "ok", start)
	return env.Data, nil
}

// Mutate sends a write and decodes the single-record response into out when
// out is non-nil. Every write carries an Idempotency-Key; a fresh one is
// generated when key is empty.
func (c *Client) Mutate(ctx context.Context, op, method, path, key string, body, out any) error {
	if key == "" {
		key = uuid.NewString()
	}
	start := time.Now()
	req := c.http.R().
		SetContext(ctx).
		SetHeader("Idempotency-Key", key).
		SetBody(body)
	resp, err := req.Execute(method, path)
	if err := c.check(op, start, resp, err); err != nil {
		return err
	}
	if out == nil || len(resp.Body()) == 0 {
		c.observe(op, "ok", start)
		return nil
	}
	var env struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(resp.Body(), &env); err != nil || len(env.Data) == 0 {
		c.observe(op, "decode_error", start)
		return fmt.Errorf("%w: %s: missing data", ErrDecode, op)
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		c.observe(op, "decode_error", start)
		return fmt.Errorf("%w: %s: %v", ErrDecode, op, err)
	}
	if err := c.validate.Struct(out); err != nil {
		c.observe(op, "decode_error", start)
		return fmt.Errorf("%w: %s: %v", ErrDecode, op, err)
	}
	c.observe(op, "ok", start)
	return nil
}

func (c *Client) check(op string, start time.Time, resp *resty.Response, err error) error {
	if err != nil {
		c.observe(op, "transport_error", start)
		c.logger.Warn("gateway request failed", slog.String("op", op), slog.Any("error", err))
		return fmt.Errorf("%w: %s: %v", ErrUpstream, op, err)
	}
	if !resp.IsError() {
		return nil
	}
	code := resp.StatusCode()
	c.observe(op, strconv.Itoa(code), start)
	detail := problemDetail(resp.Body())
	switch code {
	case http.StatusNotFound:
		return fmt.Errorf("gateway: %s: %w", op, httpx.ErrNotFound)
	case http.StatusConflict:
		return fmt.Errorf("gateway: %s: %s: %w", op, detail, httpx.ErrConflict)
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return fmt.Errorf("gateway: %s: %s: %w", op, detail, httpx.ErrValidation)
	}
	c.logger.Warn("gateway error response", slog.String("op", op), slog.Int("status", code), slog.String("detail", detail))
	return fmt.Errorf("%w: %s: status %d", ErrUpstream, op, code)
}

func problemDetail(body []byte) string {
	var p httpx.ProblemDetail
	if err := json.Unmarshal(body, &p); err == nil {
		if p.Detail != "" {
			return p.Detail
		}
		if p.Title != "" {
			return p.Title
		}
	}
	return "rejected"
}

func (c *Client) observe(op, outcome string, start time.Time) {
	if c.observer != nil {
		c.observer.ObserveGateway(op, outcome, time.Since(start))
	}
}
