package delivery

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/bridgeworks/slackrelay/internal/logger"
	"github.com/bridgeworks/slackrelay/internal/utils"
)

const (
	// maxAttempts bounds the retry loop; the message is lost afterwards.
	maxAttempts = 5
	// successMarker is the acknowledgement body the peer service sends.
	// Anything else counts as a failed attempt.
	successMarker = "ok"
	// maxAckBytes caps how much of the acknowledgement we read.
	maxAckBytes = 4096
)

// ErrExhausted is returned after all delivery attempts have failed.
var ErrExhausted = errors.New("delivery attempts exhausted")

// Client posts payloads to incoming-webhook URLs.
type Client struct {
	http  *http.Client
	log   logger.Logger
	sleep func(time.Duration)
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// WithSleep replaces the backoff sleep. Tests use this to run the retry
// schedule without waiting.
func WithSleep(sleep func(time.Duration)) Option {
	return func(c *Client) { c.sleep = sleep }
}

func New(log logger.Logger, opts ...Option) *Client {
	c := &Client{
		http:  &http.Client{Timeout: 10 * time.Second},
		log:   log,
		sleep: time.Sleep,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Deliver posts the payload to url, retrying up to the attempt bound
// with linear backoff (attempt i waits 3*i+1 seconds before the next
// one). When the bound is exhausted, onExhausted (if non-nil) runs
// exactly once and the original message is considered lost.
func (c *Client) Deliver(ctx context.Context, url string, payload Payload, onExhausted func()) error {
	form, err := payload.Values()
	if err != nil {
		return fmt.Errorf("encode payload: %w", err)
	}
	body := form.Encode()

	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		lastErr = c.post(ctx, url, body)
		if lastErr == nil {
			c.log.Debug("payload delivered",
				logger.String("url", url),
				logger.Int("attempt", attempt+1))
			return nil
		}

		c.log.Error("posting payload failed",
			logger.String("url", url),
			logger.Int("attempt", attempt+1),
			logger.Error(lastErr))

		if attempt < maxAttempts-1 {
			c.sleep(time.Duration(3*attempt+1) * time.Second)
		}
	}

	c.log.Error("posting payload failed completely",
		logger.String("url", url),
		logger.Int("attempts", maxAttempts),
		logger.Error(lastErr))
	if onExhausted != nil {
		onExhausted()
	}
	return fmt.Errorf("%w after %d attempts: %v", ErrExhausted, maxAttempts, lastErr)
}

// post performs one attempt. Any transport error, non-2xx status or
// acknowledgement other than the success marker is a failure.
func (c *Client) post(ctx context.Context, url, body string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, strings.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer utils.Close(resp.Body)

	ack, err := io.ReadAll(io.LimitReader(resp.Body, maxAckBytes))
	if err != nil {
		return fmt.Errorf("read acknowledgement: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("status %d: %q", resp.StatusCode, ack)
	}
	if string(ack) != successMarker {
		return fmt.Errorf("unexpected acknowledgement %q", ack)
	}
	return nil
}
