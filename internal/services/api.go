// Backend client for raw HTTP requests to the hosted backend's REST and auth endpoints
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// BackendClient sends requests to the hosted backend, attaching its API key to every call.
type BackendClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewBackendClient creates a client for baseURL. client defaults to [http.DefaultClient].
func NewBackendClient(baseURL, apiKey string, client *http.Client) *BackendClient {
	if baseURL == "" {
		baseURL = "http://localhost:54321"
	}
	if client == nil {
		client = http.DefaultClient
	}

	return &BackendClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: client,
	}
}

// BaseURL returns the backend root without a trailing slash.
func (b *BackendClient) BaseURL() string { return b.baseURL }

// HTTPClient returns the underlying client.
func (b *BackendClient) HTTPClient() *http.Client { return b.httpClient }

// APIResponse represents a raw API response with status and body.
type APIResponse struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
	IsJSON     bool
	JSONData   any
}

// OK reports a 2xx status.
func (r *APIResponse) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// ErrorMessage extracts the backend's error text from a JSON error body, falling back to the raw body.
func (r *APIResponse) ErrorMessage() string {
	if m, ok := r.JSONData.(map[string]any); ok {
		for _, k := range []string{"msg", "message", "error_description", "error"} {
			if s, ok := m[k].(string); ok && s != "" {
				return s
			}
		}
	}
	return strings.TrimSpace(string(r.Body))
}

// Get performs a GET request to the specified path and returns the raw response.
func (b *BackendClient) Get(ctx context.Context, path string) (*APIResponse, error) {
	return b.do(ctx, http.MethodGet, path, nil)
}

// Post performs a POST request with the given JSON data and returns the raw response.
func (b *BackendClient) Post(ctx context.Context, path string, data []byte) (*APIResponse, error) {
	return b.do(ctx, http.MethodPost, path, data)
}

// PostJSON marshals v and posts it.
func (b *BackendClient) PostJSON(ctx context.Context, path string, v any) (*APIResponse, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}
	return b.Post(ctx, path, data)
}

func (b *BackendClient) do(ctx context.Context, method, path string, data []byte) (*APIResponse, error) {
	var body io.Reader
	if data != nil {
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, b.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	if data != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if b.apiKey != "" {
		req.Header.Set("apikey", b.apiKey)
		req.Header.Set("Authorization", "Bearer "+b.apiKey)
	}

	resp, err := b.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	apiResp := &APIResponse{
		StatusCode: resp.StatusCode,
		Headers:    resp.Header,
		Body:       respBody,
	}

	var jsonData any
	if err := json.Unmarshal(respBody, &jsonData); err == nil {
		apiResp.IsJSON = true
		apiResp.JSONData = jsonData
	}

	return apiResp, nil
}

// apiKeyTransport adds the backend API key to requests made by libraries that build their own requests.
type apiKeyTransport struct {
	apiKey string
	base   http.RoundTripper
}

func (t *apiKeyTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	r := req.Clone(req.Context())
	if t.apiKey != "" {
		r.Header.Set("apikey", t.apiKey)
	}
	base := t.base
	if base == nil {
		base = http.DefaultTransport
	}
	return base.RoundTrip(r)
}
