// Package classifier provides the HTTP client for the external header
// classification model.
package classifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/supplyhub/backend/internal/domain/recognize"
	"go.uber.org/zap"
)

// Config holds the classifier endpoint configuration
type Config struct {
	// BaseURL is the classification service endpoint
	BaseURL string
	// APIKey is sent as a bearer token when set
	APIKey string
	// TimeoutSeconds is the per-attempt HTTP timeout
	TimeoutSeconds int
	// MaxRetries is the number of retries after the first attempt
	MaxRetries int
}

// DefaultConfig returns the standard classifier configuration
func DefaultConfig(baseURL, apiKey string) Config {
	return Config{
		BaseURL:        baseURL,
		APIKey:         apiKey,
		TimeoutSeconds: 10,
		MaxRetries:     2,
	}
}

// HTTPClassifier calls the external model over HTTP. One request carries the
// whole batch of unresolved headers. Transient failures are retried with a
// short backoff; after the retry budget is spent the error is returned and
// the recognizer degrades the batch to UNKNOWN.
type HTTPClassifier struct {
	config     Config
	httpClient *http.Client
	logger     *zap.Logger
	backoff    time.Duration
}

// NewHTTPClassifier creates a classifier client
func NewHTTPClassifier(config Config, zapLogger *zap.Logger) *HTTPClassifier {
	if config.TimeoutSeconds <= 0 {
		config.TimeoutSeconds = 10
	}
	if config.MaxRetries < 0 {
		config.MaxRetries = 0
	}
	if zapLogger == nil {
		zapLogger = zap.NewNop()
	}
	return &HTTPClassifier{
		config: config,
		httpClient: &http.Client{
			Timeout: time.Duration(config.TimeoutSeconds) * time.Second,
		},
		logger:  zapLogger.Named("classifier"),
		backoff: 500 * time.Millisecond,
	}
}

type classifyRequest struct {
	Headers []string `json:"headers"`
}

type classifyResponse struct {
	Guesses []recognize.HeaderGuess `json:"guesses"`
}

// ClassifyHeaders sends one batch of headers for classification
func (c *HTTPClassifier) ClassifyHeaders(ctx context.Context, headers []string) ([]recognize.HeaderGuess, error) {
	if len(headers) == 0 {
		return nil, nil
	}

	body, err := json.Marshal(classifyRequest{Headers: headers})
	if err != nil {
		return nil, fmt.Errorf("failed to encode classify request: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt <= c.config.MaxRetries; attempt++ {
		if attempt > 0 {
			c.logger.Warn("retrying header classification",
				zap.Int("attempt", attempt),
				zap.Error(lastErr))
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(c.backoff * time.Duration(attempt)):
			}
		}

		guesses, err := c.doRequest(ctx, body)
		if err == nil {
			return guesses, nil
		}
		lastErr = err

		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
	}

	return nil, fmt.Errorf("classifier unavailable after %d attempts: %w", c.config.MaxRetries+1, lastErr)
}

func (c *HTTPClassifier) doRequest(ctx context.Context, body []byte) ([]recognize.HeaderGuess, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.BaseURL+"/v1/classify/headers", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.config.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.config.APIKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("classifier returned %d: %s", resp.StatusCode, payload)
	}

	var parsed classifyResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("failed to decode classify response: %w", err)
	}
	return parsed.Guesses, nil
}

var _ recognize.TextClassifier = (*HTTPClassifier)(nil)
