// Package client provides an HTTP client for the optqo daemon's API.
//
// Example usage:
//
//	c := client.New("http://127.0.0.1:8650")
//	status, err := c.Status(ctx)
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/optqo/optqo/activity"
	"github.com/optqo/optqo/catalog"
	"github.com/optqo/optqo/report"
	"github.com/optqo/optqo/server/handlers"
	"github.com/optqo/optqo/server/runner"
)

const defaultTimeout = 30 * time.Second

// APIError is a structured error response from the daemon.
type APIError struct {
	Status  int
	Kind    string
	Message string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return fmt.Sprintf("%s (%s)", e.Message, e.Kind)
}

// Client talks to a running optqo daemon.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// New creates a Client for the daemon at baseURL. The URL should
// include the scheme (e.g. "http://127.0.0.1:8650").
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Health checks daemon liveness.
func (c *Client) Health(ctx context.Context) error {
	return c.call(ctx, http.MethodGet, "/health", nil, nil)
}

// Contexts lists catalog contexts and the active one.
func (c *Client) Contexts(ctx context.Context) (handlers.ContextsResponse, error) {
	var resp handlers.ContextsResponse
	err := c.call(ctx, http.MethodGet, "/contexts", nil, &resp)
	return resp, err
}

// Initialize activates the named context, or the daemon's default
// when name is empty.
func (c *Client) Initialize(ctx context.Context, name string) (catalog.Context, error) {
	var active catalog.Context
	err := c.call(ctx, http.MethodPost, "/initialize", handlers.SessionRequest{Context: name}, &active)
	return active, err
}

// Switch changes the active context.
func (c *Client) Switch(ctx context.Context, name string) (catalog.Context, error) {
	var active catalog.Context
	err := c.call(ctx, http.MethodPost, "/context", handlers.SessionRequest{Context: name}, &active)
	return active, err
}

// Run executes one activity synchronously on the daemon.
func (c *Client) Run(ctx context.Context, name, target string, params map[string]string) (activity.Result, error) {
	var resp handlers.RunResponse
	err := c.call(ctx, http.MethodPost, "/run", handlers.RunRequest{
		Activity: name,
		Target:   target,
		Params:   params,
	}, &resp)
	return resp.Result, err
}

// StartPipeline starts a background pipeline run.
func (c *Client) StartPipeline(ctx context.Context, req runner.RunRequest) error {
	return c.call(ctx, http.MethodPost, "/pipeline", req, nil)
}

// Status returns the current or last run status.
func (c *Client) Status(ctx context.Context) (runner.RunStatus, error) {
	var status runner.RunStatus
	err := c.call(ctx, http.MethodGet, "/status", nil, &status)
	return status, err
}

// History returns completed runs, most recent first.
func (c *Client) History(ctx context.Context) ([]runner.RunSummary, error) {
	var history []runner.RunSummary
	err := c.call(ctx, http.MethodGet, "/history", nil, &history)
	return history, err
}

// HistoryLogs returns the step executions for one run.
func (c *Client) HistoryLogs(ctx context.Context, id string) ([]runner.StepExecution, error) {
	var steps []runner.StepExecution
	err := c.call(ctx, http.MethodGet, "/history/logs?id="+id, nil, &steps)
	return steps, err
}

// Report returns the last aggregated pipeline report.
func (c *Client) Report(ctx context.Context) (report.Payload, error) {
	var payload report.Payload
	err := c.call(ctx, http.MethodGet, "/report", nil, &payload)
	return payload, err
}

// Reload asks the daemon to reload its configuration.
func (c *Client) Reload(ctx context.Context) error {
	return c.call(ctx, http.MethodPost, "/reload", nil, nil)
}

// call performs one request. A non-2xx response is decoded into an
// APIError; a 2xx response body is decoded into out when out is
// non-nil.
func (c *Client) call(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var apiErr handlers.ErrorResponse
		if jerr := json.Unmarshal(data, &apiErr); jerr == nil && apiErr.Error != "" {
			return &APIError{Status: resp.StatusCode, Kind: apiErr.Kind, Message: apiErr.Error}
		}
		return &APIError{
			Status:  resp.StatusCode,
			Kind:    "internal",
			Message: strings.TrimSpace(string(data)),
		}
	}

	if out == nil {
		return nil
	}
	return json.Unmarshal(data, out)
}
