package gateway

import (
	"context"
	"log/slog"
	"net/http"
	"time"
)

// Prober reports whether the site is reachable. Any HTTP response counts
// as online; only transport failures count as offline.
type Prober struct {
	client   *http.Client
	url      string
	interval time.Duration
	log      *slog.Logger
}

func NewProber(client *http.Client, url string, interval time.Duration, log *slog.Logger) *Prober {
	if interval <= 0 {
		interval = 10 * time.Second
	}
	return &Prober{client: client, url: url, interval: interval, log: log}
}

// Watch emits the current state immediately and then every change. The
// channel is closed once ctx is done.
func (p *Prober) Watch(ctx context.Context) <-chan bool {
	out := make(chan bool)

	go func() {
		defer close(out)

		ticker := time.NewTicker(p.interval)
		defer ticker.Stop()

		first := true
		var last bool
		for {
			online := p.probe(ctx)
			if ctx.Err() != nil {
				return
			}
			if first || online != last {
				p.log.Debug("connectivity", "online", online, "url", p.url)
				select {
				case out <- online:
				case <-ctx.Done():
					return
				}
				first, last = false, online
			}

			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
		}
	}()

	return out
}

func (p *Prober) probe(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, p.url, nil)
	if err != nil {
		return false
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return false
	}
	resp.Body.Close()
	return true
}
