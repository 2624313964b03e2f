// Package httpclient wraps http.Client with logging, default headers and
// retry of transient failures. It satisfies the HttpClient interface of
// go-telegram/bot, so it can serve as the bot's transport.
package httpclient

import (
	"fmt"
	"io"
	"log/slog"
	randv2 "math/rand/v2"
	stdhttp "net/http"
	"strconv"
	"time"

	"morningbot/pkg/retry"
)

// Client wraps http.Client with logging and retries.
type Client struct {
	hc          *stdhttp.Client
	log         *slog.Logger
	retries     int
	baseBackoff time.Duration
	maxBackoff  time.Duration
	headers     map[string]string
}

// Option configures Client.
type Option func(*Client)

// WithTimeout sets request timeout.
func WithTimeout(t time.Duration) Option {
	return func(c *Client) { c.hc.Timeout = t }
}

// WithLogger sets logger used by client.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.log = l
		}
	}
}

// WithRetries enables retries with exponential backoff and jitter.
func WithRetries(n int, backoff time.Duration) Option {
	return func(c *Client) {
		c.retries = n
		if backoff > 0 {
			c.baseBackoff = backoff
		}
	}
}

// WithMaxBackoff limits exponential backoff growth.
func WithMaxBackoff(d time.Duration) Option {
	return func(c *Client) { c.maxBackoff = d }
}

// WithHeaders adds default headers to each request.
func WithHeaders(h map[string]string) Option {
	return func(c *Client) {
		for k, v := range h {
			if c.headers == nil {
				c.headers = make(map[string]string)
			}
			c.headers[k] = v
		}
	}
}

// WithTransport sets custom transport.
func WithTransport(rt stdhttp.RoundTripper) Option {
	return func(c *Client) {
		if rt != nil {
			c.hc.Transport = rt
		}
	}
}

// New creates configured Client.
func New(opts ...Option) *Client {
	tr := stdhttp.DefaultTransport.(*stdhttp.Transport).Clone()
	tr.MaxIdleConns = 100
	tr.MaxIdleConnsPerHost = 100
	tr.IdleConnTimeout = 90 * time.Second
	tr.TLSHandshakeTimeout = 10 * time.Second

	c := &Client{
		hc: &stdhttp.Client{
			Timeout:   60 * time.Second,
			Transport: tr,
		},
		log:         slog.Default(),
		baseBackoff: 200 * time.Millisecond,
		maxBackoff:  5 * time.Second,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Do sends the request with logging and retries. The request context bounds
// the whole exchange including backoff waits. Requests with a non-replayable
// body are never retried.
func (c *Client) Do(req *stdhttp.Request) (*stdhttp.Response, error) {
	for k, v := range c.headers {
		if req.Header.Get(k) == "" {
			req.Header.Set(k, v)
		}
	}

	canRetry := c.retries > 0 && (req.Body == nil || req.GetBody != nil)

	var resp *stdhttp.Response
	var lastErr error
	attempts := 1
	if canRetry {
		attempts = c.retries + 1
	}

	start := time.Now()
	for attempt := 1; attempt <= attempts; attempt++ {
		if attempt > 1 {
			if err := c.rewind(req); err != nil {
				return nil, err
			}
			delay := c.backoff(attempt - 1)
			select {
			case <-req.Context().Done():
				return nil, req.Context().Err()
			case <-time.After(delay):
			}
		}

		resp, lastErr = c.hc.Do(req)

		delay, shouldRetry := retryDecision(resp, lastErr)
		if !shouldRetry || attempt == attempts {
			break
		}
		if delay > c.backoff(attempt) {
			// Retry-After from the server wins over our own backoff
			select {
			case <-req.Context().Done():
				return nil, req.Context().Err()
			case <-time.After(delay - c.backoff(attempt)):
			}
		}
		c.log.Debug("retrying request",
			slog.String("url", req.URL.Redacted()),
			slog.Int("attempt", attempt),
			slog.Any("error", lastErr))
	}

	if lastErr != nil {
		return nil, fmt.Errorf("http: %s %s after %s: %w",
			req.Method, req.URL.Redacted(), time.Since(start).Round(time.Millisecond), lastErr)
	}
	return resp, nil
}

func (c *Client) rewind(req *stdhttp.Request) error {
	if req.Body == nil || req.GetBody == nil {
		return nil
	}
	body, err := req.GetBody()
	if err != nil {
		return err
	}
	req.Body = body
	return nil
}

func (c *Client) backoff(attempt int) time.Duration {
	d := c.baseBackoff << (attempt - 1)
	if c.maxBackoff > 0 && d > c.maxBackoff {
		d = c.maxBackoff
	}
	// full jitter
	if d > 0 {
		d = time.Duration(randv2.Int64N(int64(d))) + d/2
	}
	if c.maxBackoff > 0 && d > c.maxBackoff {
		d = c.maxBackoff
	}
	return d
}

// retryDecision reports whether the exchange should be retried and an
// optional server-requested delay.
func retryDecision(resp *stdhttp.Response, err error) (time.Duration, bool) {
	if err != nil {
		return 0, retry.DefaultRetryable(err)
	}
	switch {
	case resp.StatusCode == 429 || resp.StatusCode == 503:
		delay := retryAfter(resp.Header.Get("Retry-After"))
		drainAndClose(resp.Body)
		return delay, true
	case resp.StatusCode >= 500 || resp.StatusCode == 408:
		drainAndClose(resp.Body)
		return 0, true
	default:
		return 0, false
	}
}

// retryAfter parses Retry-After header value.
func retryAfter(h string) time.Duration {
	if h == "" {
		return 0
	}
	if secs, err := strconv.Atoi(h); err == nil {
		if secs < 0 {
			return 0
		}
		return time.Duration(secs) * time.Second
	}
	if t, err := stdhttp.ParseTime(h); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
	}
	return 0
}

// drainAndClose drains up to 512KB from body and closes it.
func drainAndClose(b io.ReadCloser) {
	if b == nil {
		return
	}
	_, _ = io.CopyN(io.Discard, b, 512<<10)
	_ = b.Close()
}
