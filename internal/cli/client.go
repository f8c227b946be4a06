package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"tariff-dashboard/internal/aggregator"
	"tariff-dashboard/internal/database"
	"tariff-dashboard/internal/tariff"
)

// Client represents an HTTP client for the tariff dashboard API
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a new API client
func NewClient(baseURL string) *Client {
	return NewClientWithTimeout(baseURL, 30*time.Second)
}

// NewClientWithTimeout creates a new API client with a custom request timeout
func NewClientWithTimeout(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// APIError represents an error from the API
type APIError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API error %d: %s", e.Code, e.Message)
}

// EquipmentOption is one equipment code offered by the server
type EquipmentOption struct {
	Code  tariff.Equipment `json:"code"`
	Label string           `json:"label"`
}

// doRequest performs an HTTP request and handles errors
func (c *Client) doRequest(method, path string, body interface{}) (*http.Response, error) {
	var reqBody io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		reqBody = bytes.NewBuffer(jsonData)
	}

	req, err := http.NewRequest(method, c.baseURL+path, reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}

	if resp.StatusCode >= 400 {
		defer resp.Body.Close()
		return nil, decodeAPIError(resp)
	}

	return resp, nil
}

// decodeAPIError reads a JSON error body, falling back to the plain text
// bodies written by http.Error
func decodeAPIError(resp *http.Response) *APIError {
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))

	var apiErr APIError
	if err := json.Unmarshal(data, &apiErr); err == nil && apiErr.Message != "" {
		if apiErr.Code == 0 {
			apiErr.Code = resp.StatusCode
		}
		return &apiErr
	}

	message := strings.TrimSpace(string(data))
	if message == "" {
		message = resp.Status
	}
	return &APIError{Code: resp.StatusCode, Message: message}
}

// getJSON issues a GET and decodes the response into v
func (c *Client) getJSON(path string, v interface{}) error {
	resp, err := c.doRequest("GET", path, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// withQuery appends encoded query parameters to path
func withQuery(path string, values url.Values) string {
	if len(values) == 0 {
		return path
	}
	return path + "?" + values.Encode()
}

// HealthCheck checks if the API server is healthy
func (c *Client) HealthCheck() error {
	resp, err := c.doRequest("GET", "/api/health", nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return nil
}

// ListTariffs returns the tariffs matching filter
func (c *Client) ListTariffs(filter tariff.Filter) ([]tariff.Record, error) {
	var records []tariff.Record
	if err := c.getJSON(withQuery("/api/tariffs", filter.Values()), &records); err != nil {
		return nil, err
	}
	return records, nil
}

// GetTariff returns a specific tariff by ID
func (c *Client) GetTariff(id int64) (*tariff.Record, error) {
	var record tariff.Record
	if err := c.getJSON("/api/tariffs/"+strconv.FormatInt(id, 10), &record); err != nil {
		return nil, err
	}
	return &record, nil
}

// CreateTariff creates a new tariff. The server fills in derived fields.
func (c *Client) CreateTariff(record *tariff.Record) (*tariff.Record, error) {
	resp, err := c.doRequest("POST", "/api/tariffs", record)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var created tariff.Record
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	return &created, nil
}

// DeleteTariff deletes a tariff
func (c *Client) DeleteTariff(id int64) error {
	resp, err := c.doRequest("DELETE", "/api/tariffs/"+strconv.FormatInt(id, 10), nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return nil
}

// GetTariffStats returns per-state counts and average all-in prices
func (c *Client) GetTariffStats() ([]database.StateGroup, error) {
	var groups []database.StateGroup
	if err := c.getJSON("/api/tariffs/stats", &groups); err != nil {
		return nil, err
	}
	return groups, nil
}

// GetDashboard returns the current dashboard snapshot. refresh forces the
// server to rebuild it.
func (c *Client) GetDashboard(refresh bool) (*aggregator.Snapshot, error) {
	path := "/api/dashboard"
	if refresh {
		path += "?refresh=true"
	}

	var snapshot aggregator.Snapshot
	if err := c.getJSON(path, &snapshot); err != nil {
		return nil, err
	}
	return &snapshot, nil
}

// GetTopGroups ranks the tariffs matching filter by dimension. n < 0 asks for
// every group; n == 0 uses the server default.
func (c *Client) GetTopGroups(dimension string, n int, filter tariff.Filter) ([]aggregator.GroupSummary, error) {
	values := filter.Values()
	if n != 0 {
		values.Set("n", strconv.Itoa(n))
	}

	var groups []aggregator.GroupSummary
	path := withQuery("/api/dashboard/top/"+url.PathEscape(dimension), values)
	if err := c.getJSON(path, &groups); err != nil {
		return nil, err
	}
	return groups, nil
}

// GetPartners returns forwarders and carriers. An empty kind returns both.
func (c *Client) GetPartners(kind database.PartnerKind) ([]database.Partner, error) {
	values := url.Values{}
	if kind != "" {
		values.Set("kind", string(kind))
	}

	var partners []database.Partner
	if err := c.getJSON(withQuery("/api/partners", values), &partners); err != nil {
		return nil, err
	}
	return partners, nil
}

// GetEquipment returns the equipment codes the server accepts
func (c *Client) GetEquipment() ([]EquipmentOption, error) {
	var options []EquipmentOption
	if err := c.getJSON("/api/equipment", &options); err != nil {
		return nil, err
	}
	return options, nil
}
