package alert

import (
	"bytes"
	"context"
	"net/http"
	"time"

	"github.com/m-mizutani/goerr/v2"
)

const (
	requestTimeout = 5 * time.Second
	maxRetries     = 3
)

var httpClient = &http.Client{Timeout: requestTimeout}

// retryBackoff is the base delay between attempts; tests shorten it.
var retryBackoff = time.Second

// Send posts an alert event to a webhook endpoint with retry on 5xx.
func Send(cfg AlertConfig, event AlertEvent) error {
	return SendContext(context.Background(), cfg, event)
}

// SendContext is Send bounded by ctx.
func SendContext(ctx context.Context, cfg AlertConfig, event AlertEvent) error {
	body, err := FormatPayload(cfg.Format, event)
	if err != nil {
		return goerr.Wrap(err, "failed to format alert payload", goerr.V("format", cfg.Format))
	}

	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(time.Duration(attempt) * retryBackoff):
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, cfg.URL, bytes.NewReader(body))
		if err != nil {
			return goerr.Wrap(err, "failed to create webhook request", goerr.V("url", cfg.URL))
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("User-Agent", "compliancewatch")
		for k, v := range cfg.Headers {
			req.Header.Set(k, v)
		}

		resp, err := httpClient.Do(req)
		if err != nil {
			lastErr = err
			continue
		}
		resp.Body.Close()

		switch {
		case resp.StatusCode >= 200 && resp.StatusCode < 300:
			return nil
		case resp.StatusCode >= 400 && resp.StatusCode < 500:
			return goerr.New("webhook rejected", goerr.V("status", resp.StatusCode), goerr.V("url", cfg.URL))
		}
		lastErr = goerr.New("webhook server error", goerr.V("status", resp.StatusCode))
	}

	return goerr.Wrap(lastErr, "webhook failed", goerr.V("attempts", maxRetries), goerr.V("url", cfg.URL))
}
