package resource

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/ManuelReschke/EduPay/internal/pkg/env"
)

// Options tune how a request outcome is reported.
type Options struct {
	// AllowNotFound turns a 404 into a nil result.
	AllowNotFound bool
	// AllowEmptyNotFound turns a 404 into an empty list.
	AllowEmptyNotFound bool
	// ErrorContext completes "Failed to <context>" in backend errors.
	ErrorContext string
	// Resource names the record in not found errors, e.g. "Application".
	Resource string
	// IfMatch makes a write conditional on the record version.
	IfMatch int64
}

// Config holds the ledger API connection settings
type Config struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// LoadConfig loads the client configuration from environment variables
func LoadConfig() Config {
	return Config{
		BaseURL: env.GetEnv("LEDGER_API_URL", "http://localhost:4001"),
		APIKey:  env.GetEnv("LEDGER_API_KEY", ""),
		Timeout: env.GetEnvDuration("LEDGER_API_TIMEOUT", 10*time.Second),
	}
}

// Client talks JSON to the ledger REST API.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// New creates a client. A nil httpClient gets one with cfg.Timeout.
func New(cfg Config, httpClient *http.Client) *Client {
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		httpClient: httpClient,
	}
}

// Response is a successful backend answer.
type Response struct {
	StatusCode int
	Body       []byte
	NotFound   bool
}

// Do performs one request. A 404 is reported through Response.NotFound when
// the options allow it, every other non-2xx status becomes an error.
func (c *Client) Do(ctx context.Context, method, path string, query url.Values, body interface{}, opts Options) (*Response, error) {
	// An empty id names no record. The backend would route "/plans/" to the
	// collection, so answer it like a 404 without a round trip.
	if hasEmptySegment(path) {
		return notFound(http.StatusNotFound, opts)
	}

	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}
	if opts.IfMatch > 0 {
		req.Header.Set("If-Match", strconv.Quote(strconv.FormatInt(opts.IfMatch, 10)))
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, newNetworkError(err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, newNetworkError(err)
	}

	if resp.StatusCode == http.StatusNotFound {
		return notFound(resp.StatusCode, opts)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, newBackendError(opts.ErrorContext, resp.StatusCode, statusText(resp), errorDetail(data))
	}

	return &Response{StatusCode: resp.StatusCode, Body: data}, nil
}

func notFound(status int, opts Options) (*Response, error) {
	if opts.AllowNotFound || opts.AllowEmptyNotFound {
		return &Response{StatusCode: status, NotFound: true}, nil
	}
	return nil, newNotFoundError(opts)
}

// hasEmptySegment reports whether a path built by Path carries an empty segment.
func hasEmptySegment(path string) bool {
	return strings.Contains(path, "//") || (len(path) > 1 && strings.HasSuffix(path, "/"))
}

func statusText(resp *http.Response) string {
	text := strings.TrimSpace(strings.TrimPrefix(resp.Status, strconv.Itoa(resp.StatusCode)))
	if text == "" {
		text = http.StatusText(resp.StatusCode)
	}
	return text
}

// errorDetail extracts the message of a {"error": ..., "message": ...} body.
func errorDetail(body []byte) string {
	var payload struct {
		Message string `json:"message"`
	}
	if json.Unmarshal(body, &payload) == nil {
		return payload.Message
	}
	return ""
}

func decode(data []byte, out interface{}, opts Options) error {
	if err := json.Unmarshal(data, out); err != nil {
		return newBackendError(opts.ErrorContext, http.StatusBadGateway, "Invalid JSON response", err.Error())
	}
	return nil
}

// Get fetches one record. With AllowNotFound a 404 returns nil, nil.
func Get[T any](ctx context.Context, c *Client, path string, query url.Values, opts Options) (*T, error) {
	resp, err := c.Do(ctx, http.MethodGet, path, query, nil, opts)
	if err != nil {
		return nil, err
	}
	if resp.NotFound {
		return nil, nil
	}
	out := new(T)
	if err := decode(resp.Body, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

// List fetches a collection. A tolerated 404 yields an empty slice.
func List[T any](ctx context.Context, c *Client, path string, query url.Values, opts Options) ([]T, error) {
	resp, err := c.Do(ctx, http.MethodGet, path, query, nil, opts)
	if err != nil {
		return nil, err
	}
	if resp.NotFound {
		return []T{}, nil
	}
	out := make([]T, 0)
	if err := decode(resp.Body, &out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

// Post creates a record or triggers an action and decodes the answer.
func Post[T any](ctx context.Context, c *Client, path string, body interface{}, opts Options) (*T, error) {
	return send[T](ctx, c, http.MethodPost, path, body, opts)
}

// Patch updates a record and decodes the stored result.
func Patch[T any](ctx context.Context, c *Client, path string, body interface{}, opts Options) (*T, error) {
	return send[T](ctx, c, http.MethodPatch, path, body, opts)
}

// Delete removes a record. With AllowNotFound deleting a missing record succeeds.
func Delete(ctx context.Context, c *Client, path string, opts Options) error {
	_, err := c.Do(ctx, http.MethodDelete, path, nil, nil, opts)
	return err
}

func send[T any](ctx context.Context, c *Client, method, path string, body interface{}, opts Options) (*T, error) {
	resp, err := c.Do(ctx, method, path, nil, body, opts)
	if err != nil {
		return nil, err
	}
	if resp.NotFound {
		return nil, nil
	}
	out := new(T)
	if err := decode(resp.Body, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

// Path joins escaped segments onto a collection path.
func Path(collection string, segments ...string) string {
	var b strings.Builder
	b.WriteString("/")
	b.WriteString(collection)
	for _, s := range segments {
		b.WriteString("/")
		b.WriteString(url.PathEscape(s))
	}
	return b.String()
}
