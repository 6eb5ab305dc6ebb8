// API service for making HTTP requests to the MovieMate backend
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/moviemate/internal/shared"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"
)

const defaultBaseURL = "http://localhost:8000/api"

// APIService performs JSON requests against the backend.
//
// Every request is paced by a token-bucket limiter, tagged with an X-Request-ID and, when a
// credential is held, carries it as a bearer token.
type APIService struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	tokens     oauth2.TokenSource
	logger     *log.Logger
}

// Option configures an [APIService].
type Option func(*APIService)

// WithTokenSource attaches the credential used for authenticated requests.
func WithTokenSource(ts oauth2.TokenSource) Option {
	return func(a *APIService) { a.tokens = ts }
}

// WithRateLimit caps outgoing requests per second. Values <= 0 disable pacing.
func WithRateLimit(rps float64) Option {
	return func(a *APIService) {
		if rps <= 0 {
			a.limiter = rate.NewLimiter(rate.Inf, 0)
			return
		}
		burst := int(rps)
		if burst < 1 {
			burst = 1
		}
		a.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// WithLogger sets the logger used for request tracing.
func WithLogger(l *log.Logger) Option {
	return func(a *APIService) { a.logger = l }
}

// NewAPIService creates a new API service instance for the backend at baseURL.
func NewAPIService(baseURL string, client *http.Client, opts ...Option) *APIService {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if client == nil {
		client = http.DefaultClient
	}

	a := &APIService{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: client,
		limiter:    rate.NewLimiter(rate.Inf, 0),
		logger:     log.New(io.Discard),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// APIResponse represents a raw API response with status and body.
type APIResponse struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
	IsJSON     bool
	JSONData   any
}

// APIError is a non-2xx response. The body is kept as the error payload.
type APIError struct {
	StatusCode int
	Body       []byte
}

func (e *APIError) Error() string {
	if detail := e.Detail(); detail != "" {
		return fmt.Sprintf("API request failed (status %d): %s", e.StatusCode, detail)
	}
	return fmt.Sprintf("API request failed (status %d)", e.StatusCode)
}

// Is maps 401 to [shared.ErrTokenExpired], 404 to [shared.ErrNotFound] and gateway or
// availability failures to [shared.ErrServiceUnavailable]. Every APIError is an
// [shared.ErrAPIRequest].
func (e *APIError) Is(target error) bool {
	switch target {
	case shared.ErrTokenExpired:
		return e.StatusCode == http.StatusUnauthorized
	case shared.ErrNotFound:
		return e.StatusCode == http.StatusNotFound
	case shared.ErrServiceUnavailable:
		switch e.StatusCode {
		case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
			return true
		}
		return false
	case shared.ErrAPIRequest:
		return true
	}
	return false
}

// Detail extracts a readable message from the body: the "detail" field, a flattened
// field-error map, or the raw text.
func (e *APIError) Detail() string {
	body := bytes.TrimSpace(e.Body)
	if len(body) == 0 {
		return ""
	}

	var payload map[string]any
	if err := json.Unmarshal(body, &payload); err != nil {
		return string(body)
	}

	if detail, ok := payload["detail"].(string); ok {
		return detail
	}

	keys := make([]string, 0, len(payload))
	for k := range payload {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		switch v := payload[k].(type) {
		case []any:
			msgs := make([]string, 0, len(v))
			for _, m := range v {
				msgs = append(msgs, fmt.Sprint(m))
			}
			parts = append(parts, fmt.Sprintf("%s: %s", k, strings.Join(msgs, " ")))
		default:
			parts = append(parts, fmt.Sprintf("%s: %v", k, v))
		}
	}
	return strings.Join(parts, "; ")
}

// Get performs a GET request to the specified path and returns the raw response.
func (a *APIService) Get(ctx context.Context, path string) (*APIResponse, error) {
	req, err := a.newRequest(ctx, http.MethodGet, path, nil, nil)
	if err != nil {
		return nil, err
	}
	return a.send(req)
}

// Post performs a POST request with the given JSON data and returns the raw response.
func (a *APIService) Post(ctx context.Context, path string, data []byte) (*APIResponse, error) {
	req, err := a.newRequest(ctx, http.MethodPost, path, nil, bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	return a.send(req)
}

// do sends body as JSON and decodes a 2xx response into result. Non-2xx responses become
// [*APIError].
func (a *APIService) do(ctx context.Context, method, path string, query url.Values, body, result any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := a.newRequest(ctx, method, path, query, reader)
	if err != nil {
		return err
	}

	resp, err := a.send(req)
	if err != nil {
		return err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &APIError{StatusCode: resp.StatusCode, Body: resp.Body}
	}

	if result != nil && len(bytes.TrimSpace(resp.Body)) > 0 {
		if err := json.Unmarshal(resp.Body, result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}

func (a *APIService) newRequest(ctx context.Context, method, path string, query url.Values, body io.Reader) (*http.Request, error) {
	if err := a.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	fullURL := a.baseURL + "/" + strings.TrimLeft(path, "/")
	if len(query) > 0 {
		fullURL += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, fullURL, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", shared.GenerateID())
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	if a.tokens != nil {
		tok, err := a.tokens.Token()
		switch {
		case err == nil:
			tok.SetAuthHeader(req)
		case !errors.Is(err, shared.ErrAuthRequired):
			return nil, fmt.Errorf("failed to load credential: %w", err)
		}
	}

	return req, nil
}

func (a *APIService) send(req *http.Request) (*APIResponse, error) {
	a.logger.Debug("request", "method", req.Method, "url", req.URL.Redacted(), "id", req.Header.Get("X-Request-ID"))

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	apiResp := &APIResponse{
		StatusCode: resp.StatusCode,
		Headers:    resp.Header,
		Body:       body,
	}

	var jsonData any
	if err := json.Unmarshal(body, &jsonData); err == nil {
		apiResp.IsJSON = true
		apiResp.JSONData = jsonData
	}

	return apiResp, nil
}
