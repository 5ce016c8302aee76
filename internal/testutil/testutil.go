// Package testutil provides an HTTP client and assertion helpers for
// exercising the advisor stub in tests.
package testutil

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

// APIClient is an HTTP client for interacting with the stub in tests.
type APIClient struct {
	BaseURL    string
	HTTPClient *http.Client
	Token      string
	t          *testing.T
}

// NewAPIClient creates a client pointed at a test server.
func NewAPIClient(t *testing.T, server *httptest.Server) *APIClient {
	return &APIClient{
		BaseURL:    server.URL,
		HTTPClient: server.Client(),
		t:          t,
	}
}

// WithToken returns a copy of the client that sends a bearer token.
func (c *APIClient) WithToken(token string) *APIClient {
	clone := *c
	clone.Token = token
	return &clone
}

// Response wraps an HTTP response with helper methods.
type Response struct {
	StatusCode int
	Body       []byte
	Headers    http.Header
	t          *testing.T
}

// JSON unmarshals the response body into v.
func (r *Response) JSON(v any) {
	r.t.Helper()
	if err := json.Unmarshal(r.Body, v); err != nil {
		r.t.Fatalf("failed to unmarshal response: %v\nbody: %s", err, string(r.Body))
	}
}

// JSONMap returns the response body as a map.
func (r *Response) JSONMap() map[string]any {
	r.t.Helper()
	var m map[string]any
	r.JSON(&m)
	return m
}

// AssertStatus asserts the response has the expected status code.
func (r *Response) AssertStatus(expected int) *Response {
	r.t.Helper()
	if r.StatusCode != expected {
		r.t.Errorf("expected status %d, got %d\nbody: %s", expected, r.StatusCode, string(r.Body))
	}
	return r
}

// AssertBodyContains asserts the response body contains the given substring.
func (r *Response) AssertBodyContains(substr string) *Response {
	r.t.Helper()
	if !strings.Contains(string(r.Body), substr) {
		r.t.Errorf("expected body to contain %q, got: %s", substr, string(r.Body))
	}
	return r
}

// Get performs a GET request.
func (c *APIClient) Get(path string) *Response {
	c.t.Helper()
	return c.do("GET", path, nil)
}

// Post performs a POST request with a JSON body.
func (c *APIClient) Post(path string, body any) *Response {
	c.t.Helper()
	return c.do("POST", path, body)
}

// Put performs a PUT request with a JSON body.
func (c *APIClient) Put(path string, body any) *Response {
	c.t.Helper()
	return c.do("PUT", path, body)
}

// Delete performs a DELETE request.
func (c *APIClient) Delete(path string) *Response {
	c.t.Helper()
	return c.do("DELETE", path, nil)
}

func (c *APIClient) do(method, path string, body any) *Response {
	c.t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			c.t.Fatalf("failed to marshal request body: %v", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, c.BaseURL+path, reader)
	if err != nil {
		c.t.Fatalf("failed to create request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		c.t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		c.t.Fatalf("failed to read response body: %v", err)
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Body:       data,
		Headers:    resp.Header,
		t:          c.t,
	}
}

// Reset resets the stub state via the admin API.
func (c *APIClient) Reset() {
	c.t.Helper()
	c.Post("/admin/reset", nil).AssertStatus(http.StatusOK)
}

// AdvanceTime moves the stub's simulated clock forward.
func (c *APIClient) AdvanceTime(duration string) {
	c.t.Helper()
	c.Post("/admin/time/advance", map[string]string{"duration": duration}).AssertStatus(http.StatusOK)
}

// InjectFault registers a fault for an endpoint via the admin API.
func (c *APIClient) InjectFault(endpoint string, statusCode int, body string) {
	c.t.Helper()
	c.Post("/admin/fault/"+endpoint, map[string]any{
		"status_code": statusCode,
		"body":        body,
	}).AssertStatus(http.StatusOK)
}
