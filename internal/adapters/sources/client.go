// Package sources holds the concrete connectors the investigator fans out to.
// Web connectors own their HTTP client; link generators never touch the
// network.
package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"footprint/internal/domain"
)

const (
	defaultTimeout = 30 * time.Second
	maxBodyBytes   = 4 << 20

	// LinkedIn answers throttled clients with this non-standard code.
	statusLinkedInThrottled = 999
)

// Options is the HTTP behaviour shared by every web connector.
type Options struct {
	Timeout        time.Duration
	RateLimitDelay time.Duration
	UserAgents     []string
	MaxResults     int
}

// webClient is a connector-owned HTTP client: its own transport, its own
// politeness limiter and a rotating User-Agent.
type webClient struct {
	transport *http.Transport
	client    *http.Client
	limiter   *rate.Limiter
	agents    []string
	next      atomic.Uint32
}

func newWebClient(opts Options) *webClient {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	limit := rate.Inf
	if opts.RateLimitDelay > 0 {
		limit = rate.Every(opts.RateLimitDelay)
	}
	transport := http.DefaultTransport.(*http.Transport).Clone()
	return &webClient{
		transport: transport,
		client:    &http.Client{Transport: transport, Timeout: timeout},
		limiter:   rate.NewLimiter(limit, 1),
		agents:    opts.UserAgents,
	}
}

func (c *webClient) userAgent() string {
	if len(c.agents) == 0 {
		return "footprint/1.0"
	}
	n := c.next.Add(1)
	return c.agents[int(n)%len(c.agents)]
}

// do waits for the limiter and sends req. Throttling responses come back as
// domain.ErrRateLimited with the body already closed.
func (c *webClient) do(ctx context.Context, req *http.Request) (*http.Response, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	if req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", c.userAgent())
	}
	resp, err := c.client.Do(req.WithContext(ctx))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode == statusLinkedInThrottled {
		resp.Body.Close()
		return nil, fmt.Errorf("%s: HTTP %d: %w", req.URL.Host, resp.StatusCode, domain.ErrRateLimited)
	}
	return resp, nil
}

// head returns the status code of a HEAD request to url.
func (c *webClient) head(ctx context.Context, url string) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
	if err != nil {
		return 0, fmt.Errorf("new request: %w", err)
	}
	resp, err := c.do(ctx, req)
	if err != nil {
		return 0, err
	}
	resp.Body.Close()
	return resp.StatusCode, nil
}

// getJSON decodes a 200 response into out and returns the status code. Any
// other status leaves out untouched.
func (c *webClient) getJSON(ctx context.Context, url string, header http.Header, out any) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, fmt.Errorf("new request: %w", err)
	}
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	return c.decode(ctx, req, out)
}

func (c *webClient) decode(ctx context.Context, req *http.Request, out any) (int, error) {
	resp, err := c.do(ctx, req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))
		return resp.StatusCode, nil
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodyBytes)).Decode(out); err != nil {
		return resp.StatusCode, fmt.Errorf("decode %s: %w", req.URL.Host, err)
	}
	return resp.StatusCode, nil
}

// Close drops idle connections. The client stays usable.
func (c *webClient) Close() error {
	c.transport.CloseIdleConnections()
	return nil
}
