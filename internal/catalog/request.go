package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"platter/internal/services"
)

// Requester issues rate-limited JSON GET requests against one upstream.
type Requester struct {
	Service    string
	HTTPClient *http.Client
	Limiter    *rate.Limiter
	UserAgent  string
	Header     http.Header
}

// NewLimiter converts a per-second rate into a limiter with a burst of one.
// A non-positive rate disables limiting.
func NewLimiter(perSecond float64) *rate.Limiter {
	if perSecond <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Limit(perSecond), 1)
}

// GetJSON waits for the limiter, performs the request, and decodes a 200
// response into out. A 404 maps to services.ErrNotFound, 429 and 5xx to
// services.ErrTransient, and anything else non-200 to services.ErrUpstream.
func (r *Requester) GetJSON(ctx context.Context, endpoint string, out any) error {
	if r.Limiter != nil {
		if err := r.Limiter.Wait(ctx); err != nil {
			return services.Wrap(services.ErrTransient, r.Service, "rate limit", "wait interrupted", err)
		}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	for key, values := range r.Header {
		for _, v := range values {
			req.Header.Add(key, v)
		}
	}
	if r.UserAgent != "" {
		req.Header.Set("User-Agent", r.UserAgent)
	}
	req.Header.Set("Accept", "application/json")

	client := r.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}
	start := time.Now()
	resp, err := client.Do(req)
	latency := time.Since(start)
	if err != nil {
		return services.Wrap(services.ErrTransient, r.Service, "request",
			fmt.Sprintf("execute request (latency=%v)", latency), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		msg := fmt.Sprintf("%s returned %d (latency=%v): %s", req.URL.Path, resp.StatusCode, latency,
			strings.TrimSpace(string(snippet)))
		switch {
		case resp.StatusCode == http.StatusNotFound:
			return services.Wrap(services.ErrNotFound, r.Service, "request", msg, nil)
		case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
			return services.Wrap(services.ErrTransient, r.Service, "request", msg, nil)
		default:
			return services.Wrap(services.ErrUpstream, r.Service, "request", msg, nil)
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return services.Wrap(services.ErrUpstream, r.Service, "decode", "invalid response body", err)
	}
	return nil
}
