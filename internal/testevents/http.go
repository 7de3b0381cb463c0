package testevents

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/okian/vertexntuples/internal/domain/model"
	"github.com/okian/vertexntuples/pkg/logger"
	"golang.org/x/sync/errgroup"
)

// Submission outcomes.
const (
	outcomeAccepted  = "accepted"
	outcomeDuplicate = "duplicate"
	outcomeFailed    = "failed"
)

var errBackpressure = errors.New("service applied backpressure")

// HTTPClient wraps http.Client with timeout
type HTTPClient struct {
	client  *http.Client
	baseURL string
}

// newHTTPClient creates a new HTTP client with timeout
func newHTTPClient(baseURL string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		client:  &http.Client{Timeout: timeout},
		baseURL: baseURL,
	}
}

// Get performs a GET request and decodes a JSON body into out when out is non-nil.
func (c *HTTPClient) Get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, http.NoBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("GET %s: %w", path, err)
	}
	body, err := readResponseBody(resp)
	if err != nil {
		return fmt.Errorf("GET %s: %w", path, err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("GET %s: status %d", path, resp.StatusCode)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("GET %s: decode: %w", path, err)
	}
	return nil
}

// Post performs a POST request with JSON body
func (c *HTTPClient) Post(ctx context.Context, path string, body any) (int, []byte, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to marshal request body: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return 0, nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.client.Do(req)
	if err != nil {
		return 0, nil, err
	}
	respBody, err := readResponseBody(resp)
	return resp.StatusCode, respBody, err
}

// readResponseBody reads and closes the response body
func readResponseBody(resp *http.Response) ([]byte, error) {
	defer func() { _ = resp.Body.Close() }()
	return io.ReadAll(resp.Body)
}

// submitEvents posts every event with at most config.Workers requests in
// flight, then resubmits the leading DuplicateRate share to check dedupe.
// The returned slice marks the events the service accepted.
func submitEvents(ctx context.Context, config *Config, events []model.Event, stats *Stats) ([]bool, error) {
	logger.Get().Info(ctx, "submitting events",
		logger.Int("events", len(events)),
		logger.Int("workers", config.Workers))

	client := newHTTPClient(config.BaseURL, config.Timeout)

	var accepted, duplicate, failed, retried, submitted atomic.Int64
	accept := make([]bool, len(events))

	post := func(ctx context.Context, i int) {
		outcome, retries := submitWithRetry(ctx, client, &events[i])
		submitted.Add(1)
		retried.Add(int64(retries))
		switch outcome {
		case outcomeAccepted:
			accepted.Add(1)
			accept[i] = true
		case outcomeDuplicate:
			duplicate.Add(1)
		default:
			failed.Add(1)
			if config.Verbose {
				logger.Get().Warn(ctx, "event submission failed", logger.String("key", events[i].Key.String()))
			}
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(config.Workers, 1))
	for i := range events {
		i := i
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			post(gctx, i)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("submit: %w", err)
	}

	// Resubmissions must all come back as duplicates.
	resubmit := int(config.DuplicateRate * float64(len(events)))
	var unexpected atomic.Int64
	g, gctx = errgroup.WithContext(ctx)
	g.SetLimit(max(config.Workers, 1))
	for i := 0; i < resubmit && i < len(events); i++ {
		if !accept[i] {
			continue
		}
		i := i
		g.Go(func() error {
			outcome, _ := submitWithRetry(gctx, client, &events[i])
			submitted.Add(1)
			if outcome == outcomeDuplicate {
				duplicate.Add(1)
			} else {
				unexpected.Add(1)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("resubmit: %w", err)
	}

	stats.EventsSubmitted = submitted.Load()
	stats.EventsAccepted = accepted.Load()
	stats.EventsDuplicate = duplicate.Load()
	stats.EventsFailed = failed.Load() + unexpected.Load()
	stats.EventsRetried = retried.Load()

	logger.Get().Info(ctx, "event submission completed",
		logger.Int64("accepted", stats.EventsAccepted),
		logger.Int64("duplicate", stats.EventsDuplicate),
		logger.Int64("retried", stats.EventsRetried),
		logger.Int64("failed", stats.EventsFailed))

	if n := unexpected.Load(); n > 0 {
		return accept, fmt.Errorf("%d resubmitted events were not reported as duplicates", n)
	}
	return accept, nil
}

// submitWithRetry posts one event, backing off while the queue is full.
func submitWithRetry(ctx context.Context, client *HTTPClient, ev *model.Event) (string, int) {
	var retries int
	for attempt := 0; attempt < maxSubmitAttempts; attempt++ {
		outcome, err := submitSingleEvent(ctx, client, ev)
		if !errors.Is(err, errBackpressure) {
			return outcome, retries
		}
		retries++
		select {
		case <-ctx.Done():
			return outcomeFailed, retries
		case <-time.After(backoffBase << attempt):
		}
	}
	return outcomeFailed, retries
}

// submitSingleEvent submits a single event and returns the result
func submitSingleEvent(ctx context.Context, client *HTTPClient, ev *model.Event) (string, error) {
	status, body, err := client.Post(ctx, "/events", ev)
	if err != nil {
		return outcomeFailed, err
	}

	var ack AckResponse
	_ = json.Unmarshal(body, &ack)

	switch status {
	case http.StatusAccepted:
		return outcomeAccepted, nil
	case http.StatusOK:
		if ack.Status != outcomeDuplicate {
			return outcomeFailed, fmt.Errorf("unexpected ack %q", ack.Status)
		}
		return outcomeDuplicate, nil
	case http.StatusTooManyRequests:
		return outcomeFailed, errBackpressure
	default:
		return outcomeFailed, fmt.Errorf("status %d", status)
	}
}
