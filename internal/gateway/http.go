package gateway

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"biletmaster/internal/status"
	"biletmaster/utils"
)

const maxPageSize = 8 << 20

// NewHTTPClient returns a client tuned for scraping a single site.
func NewHTTPClient(timeout time.Duration) *http.Client {
	tr := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		DialContext:         (&net.Dialer{Timeout: 5 * time.Second, KeepAlive: 60 * time.Second}).DialContext,
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 16,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 5 * time.Second,
	}
	return &http.Client{Timeout: timeout, Transport: tr}
}

// HTTPGateway downloads pages. Every failure, including a rejection by the
// circuit breaker, is returned as a *status.TransportError.
type HTTPGateway struct {
	client    *http.Client
	breaker   *utils.CircuitBreaker
	userAgent string
}

func NewHTTPGateway(client *http.Client, breaker *utils.CircuitBreaker, userAgent string) *HTTPGateway {
	return &HTTPGateway{
		client:    client,
		breaker:   breaker,
		userAgent: userAgent,
	}
}

// Fetch returns the body of url.
func (g *HTTPGateway) Fetch(ctx context.Context, url string) ([]byte, error) {
	body, err := g.breaker.Execute(ctx, func() ([]byte, error) {
		return g.get(ctx, url)
	})
	if err != nil {
		return nil, &status.TransportError{URL: url, Err: err}
	}
	return body, nil
}

func (g *HTTPGateway) get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("fetch: http.NewRequestWithContext: %w", err)
	}
	if g.userAgent != "" {
		req.Header.Set("User-Agent", g.userAgent)
	}
	req.Header.Set("Accept", "text/html")

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch: client.Do: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4<<10))
		return nil, fmt.Errorf("%w: %d", status.ErrUnexpectedCode, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPageSize))
	if err != nil {
		return nil, fmt.Errorf("fetch: read body: %w", err)
	}
	return body, nil
}
