package services

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/desertthunder/moviemate/internal/models"
	"github.com/desertthunder/moviemate/internal/shared"
	tu "github.com/desertthunder/moviemate/internal/testing"
	"golang.org/x/oauth2"
)

func TestAPIService(t *testing.T) {
	t.Run("New", func(t *testing.T) {
		t.Run("With Custom BaseURL and Client", func(t *testing.T) {
			customClient := &http.Client{}
			srv := NewAPIService("http://example.com/api/", customClient)

			if srv.baseURL != "http://example.com/api" {
				t.Errorf("expected trailing slash trimmed, got %s", srv.baseURL)
			}
			if srv.httpClient != customClient {
				t.Error("expected custom client to be used")
			}
		})

		t.Run("With Empty BaseURL", func(t *testing.T) {
			srv := NewAPIService("", nil)

			if srv.baseURL != defaultBaseURL {
				t.Errorf("expected default baseURL %s, got %s", defaultBaseURL, srv.baseURL)
			}
		})

		t.Run("With Nil Client", func(t *testing.T) {
			srv := NewAPIService("http://example.com", nil)

			if srv.httpClient != http.DefaultClient {
				t.Error("expected http.DefaultClient to be used")
			}
		})
	})

	t.Run("Get", func(t *testing.T) {
		t.Run("Successful Request With JSON Response", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.Method != http.MethodGet {
					t.Errorf("expected GET method, got %s", r.Method)
				}
				if r.URL.Path != "/test" {
					t.Errorf("expected path '/test', got %s", r.URL.Path)
				}
				if r.Header.Get("X-Request-ID") == "" {
					t.Error("expected X-Request-ID header")
				}

				w.Header().Set("Content-Type", "application/json")
				json.NewEncoder(w).Encode(map[string]string{"status": "success"})
			}))
			defer server.Close()

			srv := NewAPIService(server.URL, nil)
			resp, err := srv.Get(context.Background(), "/test")

			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if resp.StatusCode != http.StatusOK {
				t.Errorf("expected status 200, got %d", resp.StatusCode)
			}
			if !resp.IsJSON || resp.JSONData == nil {
				t.Error("expected JSON response to be decoded")
			}
		})

		t.Run("Successful Request With Non-JSON Response", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte("plain text response"))
			}))
			defer server.Close()

			srv := NewAPIService(server.URL, nil)
			resp, err := srv.Get(context.Background(), "/test")

			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if resp.IsJSON {
				t.Error("expected response to not be JSON")
			}
			if string(resp.Body) != "plain text response" {
				t.Errorf("expected body 'plain text response', got %s", string(resp.Body))
			}
		})

		t.Run("Failed Request Creation", func(t *testing.T) {
			srv := NewAPIService("http://example.com", nil)
			_, err := srv.Get(context.Background(), "/test\x00invalid")

			if err == nil || !strings.Contains(err.Error(), "failed to create request") {
				t.Errorf("expected 'failed to create request' error, got %v", err)
			}
		})

		t.Run("Failed HTTP Request", func(t *testing.T) {
			client := tu.StubClient(nil, errors.New("connection failed"))

			srv := NewAPIService("http://example.com", client)
			_, err := srv.Get(context.Background(), "/test")

			if err == nil || !strings.Contains(err.Error(), "request failed") {
				t.Errorf("expected 'request failed' error, got %v", err)
			}
		})

		t.Run("Failed Response Body Read", func(t *testing.T) {
			client := tu.StubClient(&http.Response{
				StatusCode: http.StatusOK,
				Body:       tu.BrokenBody{},
				Header:     http.Header{},
			}, nil)

			srv := NewAPIService("http://example.com", client)
			_, err := srv.Get(context.Background(), "/test")

			if err == nil || !strings.Contains(err.Error(), "failed to read response") {
				t.Errorf("expected 'failed to read response' error, got %v", err)
			}
		})

		t.Run("With Canceled Context", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
			}))
			defer server.Close()

			ctx, cancel := context.WithCancel(context.Background())
			cancel()

			srv := NewAPIService(server.URL, nil, WithRateLimit(5))
			if _, err := srv.Get(ctx, "/test"); err == nil {
				t.Error("expected error for canceled context")
			}
		})
	})

	t.Run("Post", func(t *testing.T) {
		t.Run("Sends JSON Body", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.Method != http.MethodPost {
					t.Errorf("expected POST method, got %s", r.Method)
				}
				if r.Header.Get("Content-Type") != "application/json" {
					t.Errorf("expected Content-Type 'application/json', got %s", r.Header.Get("Content-Type"))
				}

				body, _ := io.ReadAll(r.Body)
				var data map[string]string
				if err := json.Unmarshal(body, &data); err != nil {
					t.Errorf("failed to unmarshal request body: %v", err)
				}
				if data["test"] != "data" {
					t.Errorf("expected request data 'test:data', got %v", data)
				}

				w.WriteHeader(http.StatusCreated)
				json.NewEncoder(w).Encode(map[string]string{"id": "123"})
			}))
			defer server.Close()

			srv := NewAPIService(server.URL, nil)
			requestData, _ := json.Marshal(map[string]string{"test": "data"})
			resp, err := srv.Post(context.Background(), "/test", requestData)

			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if resp.StatusCode != http.StatusCreated {
				t.Errorf("expected status 201, got %d", resp.StatusCode)
			}
		})
	})

	t.Run("Authorization", func(t *testing.T) {
		t.Run("Attaches Bearer Token", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if got := r.Header.Get("Authorization"); got != "Bearer secret" {
					t.Errorf("expected bearer header, got %q", got)
				}
				w.Write([]byte(`{}`))
			}))
			defer server.Close()

			ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: "secret"})
			srv := NewAPIService(server.URL, nil, WithTokenSource(ts))
			if _, err := srv.Get(context.Background(), "/auth/me"); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
		})

		t.Run("Missing Credential Sends Anonymous Request", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if got := r.Header.Get("Authorization"); got != "" {
					t.Errorf("expected no authorization header, got %q", got)
				}
				w.Write([]byte(`{}`))
			}))
			defer server.Close()

			srv := NewAPIService(server.URL, nil, WithTokenSource(failingSource{shared.ErrAuthRequired}))
			if _, err := srv.Get(context.Background(), "/auth/login"); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
		})

		t.Run("Credential Load Failure", func(t *testing.T) {
			srv := NewAPIService("http://example.com", nil, WithTokenSource(failingSource{errors.New("disk gone")}))
			_, err := srv.Get(context.Background(), "/auth/me")
			if err == nil || !strings.Contains(err.Error(), "failed to load credential") {
				t.Errorf("expected credential error, got %v", err)
			}
		})
	})
}

type failingSource struct{ err error }

func (f failingSource) Token() (*oauth2.Token, error) { return nil, f.err }

func TestAPIError(t *testing.T) {
	t.Run("Status Mapping", func(t *testing.T) {
		tt := []struct {
			status      int
			expired     bool
			notFound    bool
			unavailable bool
		}{
			{status: http.StatusUnauthorized, expired: true},
			{status: http.StatusNotFound, notFound: true},
			{status: http.StatusBadRequest},
			{status: http.StatusInternalServerError},
			{status: http.StatusBadGateway, unavailable: true},
			{status: http.StatusServiceUnavailable, unavailable: true},
			{status: http.StatusGatewayTimeout, unavailable: true},
		}

		for _, tc := range tt {
			err := error(&APIError{StatusCode: tc.status})
			if errors.Is(err, shared.ErrTokenExpired) != tc.expired {
				t.Errorf("status %d: ErrTokenExpired match = %v", tc.status, !tc.expired)
			}
			if errors.Is(err, shared.ErrNotFound) != tc.notFound {
				t.Errorf("status %d: ErrNotFound match = %v", tc.status, !tc.notFound)
			}
			if errors.Is(err, shared.ErrServiceUnavailable) != tc.unavailable {
				t.Errorf("status %d: ErrServiceUnavailable match = %v", tc.status, !tc.unavailable)
			}
			if !errors.Is(err, shared.ErrAPIRequest) {
				t.Errorf("status %d: expected ErrAPIRequest match", tc.status)
			}
		}
	})

	t.Run("Detail", func(t *testing.T) {
		tt := []struct {
			name string
			body string
			want string
		}{
			{name: "empty", body: "", want: ""},
			{name: "detail field", body: `{"detail": "Not found."}`, want: "Not found."},
			{name: "field errors", body: `{"title": ["This field is required."], "rating": ["Too high."]}`, want: "rating: Too high.; title: This field is required."},
			{name: "plain text", body: "Bad Gateway", want: "Bad Gateway"},
		}

		for _, tc := range tt {
			t.Run(tc.name, func(t *testing.T) {
				e := &APIError{StatusCode: 400, Body: []byte(tc.body)}
				if got := e.Detail(); got != tc.want {
					t.Errorf("Detail() = %q, want %q", got, tc.want)
				}
			})
		}
	})

	t.Run("Returned For Non-2xx", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"detail": "Token is invalid or expired"}`))
		}))
		defer server.Close()

		srv := NewAPIService(server.URL, nil)
		_, err := srv.Me(context.Background())

		var apiErr *APIError
		if !errors.As(err, &apiErr) {
			t.Fatalf("expected *APIError, got %v", err)
		}
		if apiErr.StatusCode != http.StatusUnauthorized {
			t.Errorf("expected 401, got %d", apiErr.StatusCode)
		}
		if !strings.Contains(err.Error(), "Token is invalid or expired") {
			t.Errorf("expected detail in message, got %q", err.Error())
		}
	})
}

func TestMovieMateEndpoints(t *testing.T) {
	type call struct {
		method string
		path   string
		query  string
		body   map[string]any
	}

	record := func(t *testing.T, calls *[]call, response string) *httptest.Server {
		t.Helper()
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			c := call{method: r.Method, path: r.URL.Path, query: r.URL.RawQuery}
			data, _ := io.ReadAll(r.Body)
			if len(data) > 0 {
				json.Unmarshal(data, &c.body)
			}
			*calls = append(*calls, c)
			w.Write([]byte(response))
		}))
		t.Cleanup(server.Close)
		return server
	}

	t.Run("ListCatalog", func(t *testing.T) {
		var calls []call
		server := record(t, &calls, `{"count": 1, "next": null, "results": [{"id": 42, "title": "Foo", "platform": "Netflix"}]}`)
		srv := NewAPIService(server.URL, nil)

		page, err := srv.ListCatalog(context.Background(), models.ListOptions{Search: "foo", Page: 2})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(page.Results) != 1 || page.Results[0].ID != 42 {
			t.Errorf("unexpected page: %+v", page)
		}
		if calls[0].path != "/catalog" || calls[0].query != "page=2&search=foo" {
			t.Errorf("unexpected request: %+v", calls[0])
		}
	})

	t.Run("ListCollection Bare Array", func(t *testing.T) {
		var calls []call
		server := record(t, &calls, `[{"id": 901, "title": "Foo", "source_admin_id": 42}]`)
		srv := NewAPIService(server.URL, nil)

		page, err := srv.ListCollection(context.Background(), models.ListOptions{})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if page.Count != 1 || page.HasNext() {
			t.Errorf("unexpected page: %+v", page)
		}
	})

	t.Run("CreateFromCatalog", func(t *testing.T) {
		var calls []call
		server := record(t, &calls, `{"id": 901, "title": "Foo", "source_admin_id": 42}`)
		srv := NewAPIService(server.URL, nil)

		item, err := srv.CreateFromCatalog(context.Background(), 42)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if item.ID != 901 {
			t.Errorf("expected collection id 901, got %d", item.ID)
		}
		if calls[0].method != http.MethodPost || calls[0].path != "/collection/from-catalog/42" {
			t.Errorf("unexpected request: %+v", calls[0])
		}
	})

	t.Run("PatchCollection", func(t *testing.T) {
		var calls []call
		server := record(t, &calls, `{"id": 7, "title": "Foo", "episodes_watched": 4}`)
		srv := NewAPIService(server.URL, nil)

		item, err := srv.PatchCollection(context.Background(), 7, models.ProgressPatch{EpisodesWatched: 4})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if item.EpisodesWatched != 4 {
			t.Errorf("expected 4 episodes, got %d", item.EpisodesWatched)
		}
		if calls[0].method != http.MethodPatch || calls[0].path != "/collection/7" {
			t.Errorf("unexpected request: %+v", calls[0])
		}
		if _, ok := calls[0].body["status"]; ok {
			t.Error("status should be omitted when unset")
		}
	})

	t.Run("DeleteCollection", func(t *testing.T) {
		var calls []call
		server := record(t, &calls, "")
		srv := NewAPIService(server.URL, nil)

		if err := srv.DeleteCollection(context.Background(), 7); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if calls[0].method != http.MethodDelete || calls[0].path != "/collection/7" {
			t.Errorf("unexpected request: %+v", calls[0])
		}
	})

	t.Run("Login", func(t *testing.T) {
		var calls []call
		server := record(t, &calls, `{"access": "a", "refresh": "r"}`)
		srv := NewAPIService(server.URL, nil)

		tokens, err := srv.Login(context.Background(), models.Credentials{Username: "u@example.com", Password: "pw"})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if tokens.Access != "a" || tokens.Refresh != "r" {
			t.Errorf("unexpected tokens: %+v", tokens)
		}
		if calls[0].path != "/auth/login" || calls[0].body["username"] != "u@example.com" {
			t.Errorf("unexpected request: %+v", calls[0])
		}
	})

	t.Run("Signup", func(t *testing.T) {
		var calls []call
		server := record(t, &calls, `{"access": "a"}`)
		srv := NewAPIService(server.URL, nil)

		form := models.SignupForm{Email: "u@example.com", Password: "longenough", ConfirmPassword: "longenough"}
		if _, err := srv.Signup(context.Background(), form); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if calls[0].path != "/auth/signup" || calls[0].body["confirm_password"] != "longenough" {
			t.Errorf("unexpected request: %+v", calls[0])
		}
	})
}
