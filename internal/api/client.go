package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"tariff-dashboard/internal/tariff"
)

// Client posts tariffs to the dashboard API, retrying transient failures
type Client struct {
	baseURL    string
	httpClient *http.Client
	config     *ClientConfig
}

// ClientConfig configures the API client behavior
type ClientConfig struct {
	BaseURL       string
	Timeout       time.Duration
	RetryCount    int
	RetryDelay    time.Duration
	UserAgent     string
	BackoffFactor float64
}

// ErrorResponse is a JSON error body. The server answers with plain text,
// so this is only tried first.
type ErrorResponse struct {
	Error string `json:"error"`
}

// NewClient creates a new API client
func NewClient(config *ClientConfig) *Client {
	if config == nil {
		config = &ClientConfig{
			BaseURL:       "http://localhost:8080",
			Timeout:       30 * time.Second,
			RetryCount:    3,
			RetryDelay:    1 * time.Second,
			UserAgent:     "tariff-import/1.0",
			BackoffFactor: 2.0,
		}
	}

	// Set defaults for missing fields
	if config.Timeout == 0 {
		config.Timeout = 30 * time.Second
	}
	if config.UserAgent == "" {
		config.UserAgent = "tariff-import/1.0"
	}
	if config.RetryCount == 0 {
		config.RetryCount = 3
	}
	if config.RetryDelay == 0 {
		config.RetryDelay = 1 * time.Second
	}
	if config.BackoffFactor == 0 {
		config.BackoffFactor = 2.0
	}

	return &Client{
		baseURL:    strings.TrimSuffix(config.BaseURL, "/"),
		httpClient: &http.Client{Timeout: config.Timeout},
		config:     config,
	}
}

// CreateTariff creates a tariff, retrying server errors and network failures
// with exponential backoff. Validation errors are returned immediately.
func (c *Client) CreateTariff(ctx context.Context, record *tariff.Record) (*tariff.Record, error) {
	url := fmt.Sprintf("%s/api/tariffs", c.baseURL)

	requestBody, err := json.Marshal(record)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt <= c.config.RetryCount; attempt++ {
		created, err := c.executeCreate(ctx, url, requestBody)
		if err == nil {
			return created, nil
		}

		lastErr = err

		if !c.isRetryableError(err) {
			return nil, err
		}

		// Don't sleep after the last attempt
		if attempt < c.config.RetryCount {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(c.calculateBackoffDelay(attempt)):
			}
		}
	}

	return nil, fmt.Errorf("failed to create tariff after %d attempts: %w", c.config.RetryCount+1, lastErr)
}

// executeCreate executes a single POST
func (c *Client) executeCreate(ctx context.Context, url string, body []byte) (*tariff.Record, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", c.config.UserAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, &RetryableError{Message: ctx.Err().Error(), Retryable: false}
		}
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	switch resp.StatusCode {
	case http.StatusCreated:
		var created tariff.Record
		if err := json.Unmarshal(respBody, &created); err != nil {
			return nil, fmt.Errorf("failed to parse success response: %w", err)
		}
		return &created, nil

	case http.StatusBadRequest:
		return nil, &RetryableError{
			Message:    fmt.Sprintf("bad request: %s", errorMessage(respBody)),
			StatusCode: resp.StatusCode,
		}

	case http.StatusInternalServerError, http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return nil, &RetryableError{
			Message:    fmt.Sprintf("server error: %s", errorMessage(respBody)),
			StatusCode: resp.StatusCode,
			Retryable:  true,
		}

	default:
		return nil, &RetryableError{
			Message:    fmt.Sprintf("API error (%d): %s", resp.StatusCode, errorMessage(respBody)),
			StatusCode: resp.StatusCode,
		}
	}
}

// errorMessage extracts the message from a JSON or plain text error body
func errorMessage(body []byte) string {
	var errorResp ErrorResponse
	if err := json.Unmarshal(body, &errorResp); err == nil && errorResp.Error != "" {
		return errorResp.Error
	}
	return strings.TrimSpace(string(body))
}

// HealthCheck verifies the API is accessible
func (c *Client) HealthCheck(ctx context.Context) error {
	url := fmt.Sprintf("%s/api/health", c.baseURL)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to create health check request: %w", err)
	}

	req.Header.Set("User-Agent", c.config.UserAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("health check request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("health check failed with status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	return nil
}

// isRetryableError determines if an error should trigger a retry
func (c *Client) isRetryableError(err error) bool {
	var retryableErr *RetryableError
	if errors.As(err, &retryableErr) {
		return retryableErr.Retryable
	}

	// Network errors are generally retryable
	return true
}

// calculateBackoffDelay calculates the delay for exponential backoff
func (c *Client) calculateBackoffDelay(attempt int) time.Duration {
	baseDelay := c.config.RetryDelay

	// Exponential backoff: delay = baseDelay * (backoffFactor ^ attempt)
	multiplier := 1.0
	for i := 0; i < attempt; i++ {
		multiplier *= c.config.BackoffFactor
	}

	delay := time.Duration(float64(baseDelay) * multiplier)

	// Cap the maximum delay at 30 seconds
	maxDelay := 30 * time.Second
	if delay > maxDelay {
		delay = maxDelay
	}

	return delay
}

// RetryableError is an API failure carrying the HTTP status and whether a
// retry may succeed
type RetryableError struct {
	Message    string
	StatusCode int
	Retryable  bool
}

func (e *RetryableError) Error() string {
	return e.Message
}

// GetBaseURL returns the configured base URL
func (c *Client) GetBaseURL() string {
	return c.baseURL
}
