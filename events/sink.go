package events

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"
)

// DefaultSinkTimeout bounds a single submission
const DefaultSinkTimeout = 2 * time.Second

// Sink accepts events. Implementations report delivery failures via error,
// the caller decides what to do with it (the Dispatcher logs and drops).
type Sink interface {
	Submit(ctx context.Context, event Event) error
}

// SinkFunc is an adapter to allow the use of ordinary functions as Sink
type SinkFunc func(ctx context.Context, event Event) error

// Submit calls f(ctx, event)
func (f SinkFunc) Submit(ctx context.Context, event Event) error {
	return f(ctx, event)
}

// HTTPSink posts events as JSON to the backend API
type HTTPSink struct {
	url    string
	client *http.Client
}

// NewHTTPSink creates sink posting to url with given timeout (DefaultSinkTimeout if zero)
func NewHTTPSink(url string, timeout time.Duration) *HTTPSink {
	if timeout <= 0 {
		timeout = DefaultSinkTimeout
	}
	return &HTTPSink{
		url: url,
		client: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				DialContext: (&net.Dialer{
					Timeout:   timeout,
					KeepAlive: 30 * time.Second,
				}).DialContext,
				MaxIdleConns:        10,
				MaxIdleConnsPerHost: 2,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
}

// Submit sends event. Any status except 200 OK is an error
func (s *HTTPSink) Submit(ctx context.Context, event Event) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if event.ID != "" {
		req.Header.Set("Idempotency-Key", event.ID)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("api connection error: %w", err)
	}
	defer resp.Body.Close()
	// Drain so the connection can be reused
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64*1024))
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("failed to send event: status %d", resp.StatusCode)
	}
	return nil
}
