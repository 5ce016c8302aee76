package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// DefaultTimeout bounds a request when the caller supplies no http.Client.
const DefaultTimeout = 30 * time.Second

// Client talks to one advisor backend. Token, when set, is attached both as
// a bearer header and as a `token` cookie — the web client mirrored its
// token into a cookie for route middleware, and some backend iterations
// read only the cookie. The cookie write is best-effort and unverified.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
	Token      string
}

// New creates a Client for the given base URL with the default timeout.
func New(baseURL string) *Client {
	return &Client{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		HTTPClient: &http.Client{Timeout: DefaultTimeout},
	}
}

// APIError is a non-2xx backend response. Message carries the backend's
// `error` field when present, otherwise the raw body.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("backend returned status %d", e.Status)
	}
	return fmt.Sprintf("backend returned status %d: %s", e.Status, e.Message)
}

// IsNotFound reports whether err is an APIError with status 404.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound
}

// do issues one request and returns the response body. There is no retry:
// a failure is reported once and it is up to the user to repeat the action.
func (c *Client) do(ctx context.Context, method, path string, body any) ([]byte, error) {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshaling request: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
		req.AddCookie(&http.Cookie{Name: "token", Value: c.Token})
	}

	httpClient := c.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: DefaultTimeout}
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode >= 400 {
		return nil, &APIError{Status: resp.StatusCode, Message: errorMessage(respBody)}
	}
	return respBody, nil
}

// doJSON issues a request and decodes the response into out (which may be
// nil when only the status matters).
func (c *Client) doJSON(ctx context.Context, method, path string, body, out any) error {
	respBody, err := c.do(ctx, method, path, body)
	if err != nil {
		return err
	}
	if out == nil || len(respBody) == 0 {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

// Register creates an account via POST /api/auth/register. Only the status
// is consumed; the user logs in afterwards.
func (c *Client) Register(ctx context.Context, name, email, password string) error {
	body := map[string]string{"name": name, "email": email, "password": password}
	return c.doJSON(ctx, http.MethodPost, "/api/auth/register", body, nil)
}

// Signup creates an account via POST /api/auth/signup and returns the
// registered email.
func (c *Client) Signup(ctx context.Context, name, email, password string) (string, error) {
	body := map[string]string{"name": name, "email": email, "password": password}
	var out struct {
		Email string `json:"email"`
	}
	if err := c.doJSON(ctx, http.MethodPost, "/api/auth/signup", body, &out); err != nil {
		return "", err
	}
	if out.Email == "" {
		out.Email = email
	}
	return out.Email, nil
}

// Login authenticates via POST /api/auth/login.
func (c *Client) Login(ctx context.Context, email, password string) (LoginResult, error) {
	body := map[string]string{"email": email, "password": password}
	var out LoginResult
	if err := c.doJSON(ctx, http.MethodPost, "/api/auth/login", body, &out); err != nil {
		return LoginResult{}, err
	}
	if out.Email == "" {
		out.Email = email
	}
	return out, nil
}

// LoginByEmail authenticates via the POST /api/user/login variant, which
// takes the email alone.
func (c *Client) LoginByEmail(ctx context.Context, email string) (LoginResult, error) {
	body := map[string]string{"email": email}
	var out LoginResult
	if err := c.doJSON(ctx, http.MethodPost, "/api/user/login", body, &out); err != nil {
		return LoginResult{}, err
	}
	if out.Email == "" {
		out.Email = email
	}
	return out, nil
}

// GetProfile fetches GET /api/user/{email}.
func (c *Client) GetProfile(ctx context.Context, email string) (Profile, error) {
	var p Profile
	err := c.doJSON(ctx, http.MethodGet, "/api/user/"+url.PathEscape(email), nil, &p)
	return p, err
}

// PutProfile saves the full profile via PUT /api/user/{email}. The backend
// replaces the stored profile wholesale; there are no partial-field
// semantics. It returns the profile as the backend stored it.
func (c *Client) PutProfile(ctx context.Context, p Profile) (Profile, error) {
	var updated Profile
	err := c.doJSON(ctx, http.MethodPut, "/api/user/"+url.PathEscape(p.Email), p, &updated)
	return updated, err
}

// GetSuggestions posts POST /api/get-card-suggestions. The response is
// decoded tolerantly: any missing field comes back zero-valued and the
// suggestion order is preserved exactly as sent by the backend.
func (c *Client) GetSuggestions(ctx context.Context, req SuggestionRequest) (SuggestionResponse, error) {
	respBody, err := c.do(ctx, http.MethodPost, "/api/get-card-suggestions", req)
	if err != nil {
		return SuggestionResponse{}, err
	}
	return decodeSuggestionResponse(respBody), nil
}

// DetectStores resolves nearby merchants via GET /api/google/detect-stores.
// Both observed response shapes ({stores: [...]} and a bare array) are
// accepted.
func (c *Client) DetectStores(ctx context.Context, latitude, longitude float64) ([]StoreCandidate, error) {
	q := url.Values{}
	q.Set("latitude", strconv.FormatFloat(latitude, 'f', -1, 64))
	q.Set("longitude", strconv.FormatFloat(longitude, 'f', -1, 64))
	respBody, err := c.do(ctx, http.MethodGet, "/api/google/detect-stores?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	return decodeStoreCandidates(respBody), nil
}

// Issuers fetches card issuer autocomplete entries.
func (c *Client) Issuers(ctx context.Context, search string) ([]string, error) {
	q := url.Values{}
	if search != "" {
		q.Set("search", search)
	}
	return c.getStrings(ctx, "/api/cards/issuers", q)
}

// Products fetches card product autocomplete entries, optionally scoped to
// an issuer.
func (c *Client) Products(ctx context.Context, issuer, search string) ([]string, error) {
	q := url.Values{}
	if issuer != "" {
		q.Set("issuer", issuer)
	}
	if search != "" {
		q.Set("search", search)
	}
	return c.getStrings(ctx, "/api/cards/products", q)
}

func (c *Client) getStrings(ctx context.Context, path string, q url.Values) ([]string, error) {
	if enc := q.Encode(); enc != "" {
		path += "?" + enc
	}
	var out []string
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}
