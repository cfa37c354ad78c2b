// Package transport is the egress client that POSTs assembled batches to
// the ingestion API (§6's Egress format), built the way the teacher's
// internal/providers/http/client.Client wraps resty: a retryable-http
// transport underneath, a circuit breaker around every call, and a
// token-bucket rate limiter guarding outbound volume.
package transport

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/hashicorp/go-retryablehttp"
	"golang.org/x/time/rate"

	"github.com/tracelens/agent/internal/resilience"
)

// Client wraps resty with rate limiting and circuit breaker protection for
// the single egress endpoint this package talks to.
type Client struct {
	resty   *resty.Client
	limiter *rate.Limiter
	breaker *resilience.Breaker
	mu      sync.RWMutex
}

// NewClient builds a production-ready client: 3 retries with exponential
// backoff underneath, a breaker that trips on 10 consecutive failures or a
// >70% failure rate over 20+ requests (the ingestion endpoint is treated
// the same as any other external dependency — lenient, not fragile), and
// rps requests/second of outbound headroom (0 disables the limiter).
func NewClient(rps float64) *Client {
	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = 3
	retryClient.RetryWaitMin = 1 * time.Second
	retryClient.RetryWaitMax = 10 * time.Second
	retryClient.Logger = nil

	restyClient := resty.New()
	restyClient.
		SetTimeout(10 * time.Second).
		SetRetryCount(3).
		SetRetryWaitTime(1 * time.Second).
		SetRetryMaxWaitTime(10 * time.Second).
		SetHeader("User-Agent", "tracelens-agent/1.0").
		SetHeader("Content-Type", "application/json")
	restyClient.SetTransport(retryClient.HTTPClient.Transport)

	breaker := resilience.New("egress", resilience.Settings{
		MaxRequests: 5,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts resilience.Counts) bool {
			return counts.ConsecutiveFailures >= 10 ||
				(counts.Requests >= 20 && float64(counts.TotalFailures)/float64(counts.Requests) > 0.7)
		},
	})

	limiter := rate.NewLimiter(rate.Inf, 0)
	if rps > 0 {
		limiter = rate.NewLimiter(rate.Limit(rps), int(rps))
	}

	return &Client{resty: restyClient, limiter: limiter, breaker: breaker}
}

// SetHeader sets a default header applied to every request, used to
// install X-App-Id/X-App-Secret/X-Tenant-Id/X-App-Name once at startup.
func (c *Client) SetHeader(key, value string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.resty.SetHeader(key, value)
}

// Post issues a POST through the rate limiter and circuit breaker, body
// already encoded and optionally gzipped by the caller.
func (c *Client) Post(ctx context.Context, url string, body []byte, gzipped bool) (*resty.Response, error) {
	if c.breaker.State() == resilience.StateOpen {
		return nil, resilience.ErrCircuitOpen
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("transport: rate limit wait: %w", err)
	}

	result, err := c.breaker.Execute(func() (interface{}, error) {
		c.mu.RLock()
		req := c.resty.R().SetContext(ctx).SetBody(body)
		c.mu.RUnlock()
		if gzipped {
			req.SetHeader("Content-Encoding", "gzip")
		}
		resp, err := req.Post(url)
		if err != nil {
			return nil, err
		}
		if resp.IsError() {
			return nil, fmt.Errorf("transport: egress responded %d", resp.StatusCode())
		}
		return resp, nil
	})
	if err != nil {
		return nil, err
	}
	return result.(*resty.Response), nil
}

// BreakerState exposes the circuit breaker's current state for metrics and
// tests.
func (c *Client) BreakerState() resilience.State {
	return c.breaker.State()
}
