package services

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/desertthunder/mixtape/internal/shared"
	tu "github.com/desertthunder/mixtape/internal/testing"
)

func TestAPIService(t *testing.T) {
	t.Run("New", func(t *testing.T) {
		t.Run("With Custom BaseURL and Client", func(t *testing.T) {
			customClient := &http.Client{}
			srv := NewAPIService("http://example.com/", customClient)

			if srv.BaseURL() != "http://example.com" {
				t.Errorf("expected trailing slash to be trimmed, got %s", srv.BaseURL())
			}
			if srv.httpClient != customClient {
				t.Error("expected custom client to be used")
			}
		})

		t.Run("With Nil Client", func(t *testing.T) {
			srv := NewAPIService("http://example.com", nil)

			if srv.httpClient != http.DefaultClient {
				t.Error("expected http.DefaultClient to be used")
			}
		})

		t.Run("WithRateLimit", func(t *testing.T) {
			srv := NewAPIService("http://example.com", nil).WithRateLimit(0.5)
			if srv.limiter == nil {
				t.Fatal("expected limiter to be set")
			}
			if srv.limiter.Burst() != 1 {
				t.Errorf("expected burst of at least 1, got %d", srv.limiter.Burst())
			}

			srv.WithRateLimit(0)
			if srv.limiter != nil {
				t.Error("expected zero rate to disable the limiter")
			}
		})
	})

	t.Run("Get", func(t *testing.T) {
		t.Run("Sends Query And Headers", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.Method != http.MethodGet {
					t.Errorf("expected GET method, got %s", r.Method)
				}
				if r.URL.Path != "/test" {
					t.Errorf("expected path '/test', got %s", r.URL.Path)
				}
				if r.URL.Query().Get("term") != "daft punk" {
					t.Errorf("expected term query, got %s", r.URL.RawQuery)
				}
				if r.Header.Get("Accept") != "application/json" {
					t.Errorf("expected Accept header, got %s", r.Header.Get("Accept"))
				}

				w.Header().Set("X-Custom", "value")
				w.WriteHeader(http.StatusTeapot)
				w.Write([]byte("plain"))
			}))
			defer server.Close()

			srv := NewAPIService(server.URL, nil)
			resp, err := srv.Get(context.Background(), "/test", url.Values{"term": {"daft punk"}})
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if resp.StatusCode != http.StatusTeapot || resp.OK() {
				t.Errorf("expected raw non-2xx status, got %d", resp.StatusCode)
			}
			if string(resp.Body) != "plain" {
				t.Errorf("expected body 'plain', got %s", resp.Body)
			}
			if resp.Headers.Get("X-Custom") != "value" {
				t.Error("expected response headers to be preserved")
			}
		})

		t.Run("Failed HTTP Request", func(t *testing.T) {
			client := &http.Client{
				Transport: tu.NewMockRoundTripper(nil, errors.New("connection failed")),
			}

			srv := NewAPIService("http://example.com", client)
			_, err := srv.Get(context.Background(), "/test", nil)

			if !errors.Is(err, shared.ErrNetworkFailure) {
				t.Errorf("expected ErrNetworkFailure, got %v", err)
			}
		})

		t.Run("Failed Response Body Read", func(t *testing.T) {
			client := &http.Client{
				Transport: tu.NewMockRoundTripper(&http.Response{
					StatusCode: http.StatusOK,
					Body:       &tu.FCloser{},
					Header:     make(http.Header),
				}, nil),
			}

			srv := NewAPIService("http://example.com", client)
			_, err := srv.Get(context.Background(), "/test", nil)

			if !errors.Is(err, shared.ErrNetworkFailure) {
				t.Errorf("expected ErrNetworkFailure, got %v", err)
			}
		})

		t.Run("Failed Request Creation", func(t *testing.T) {
			srv := NewAPIService("http://[::1]:namedport", nil)
			_, err := srv.Get(context.Background(), "/test", nil)

			if !errors.Is(err, shared.ErrNetworkFailure) {
				t.Errorf("expected ErrNetworkFailure, got %v", err)
			}
		})

		t.Run("With Canceled Context", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
			}))
			defer server.Close()

			ctx, cancel := context.WithCancel(context.Background())
			cancel()

			srv := NewAPIService(server.URL, nil)
			_, err := srv.Get(ctx, "/test", nil)

			if !errors.Is(err, shared.ErrNetworkFailure) {
				t.Errorf("expected ErrNetworkFailure, got %v", err)
			}
			if !errors.Is(err, context.Canceled) {
				t.Errorf("expected context.Canceled to be preserved, got %v", err)
			}
		})

		t.Run("Rate Limited Request Honors Deadline", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
			}))
			defer server.Close()

			srv := NewAPIService(server.URL, nil).WithRateLimit(0.001)
			if _, err := srv.Get(context.Background(), "/first", nil); err != nil {
				t.Fatalf("first request should use the burst token: %v", err)
			}

			ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
			defer cancel()

			if _, err := srv.Get(ctx, "/second", nil); !errors.Is(err, shared.ErrNetworkFailure) {
				t.Errorf("expected ErrNetworkFailure from limiter, got %v", err)
			}
		})
	})

	t.Run("GetJSON", func(t *testing.T) {
		t.Run("Decodes Body", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				json.NewEncoder(w).Encode(map[string]string{"status": "success"})
			}))
			defer server.Close()

			var out struct {
				Status string `json:"status"`
			}
			srv := NewAPIService(server.URL, nil)
			if err := srv.GetJSON(context.Background(), "", nil, &out); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if out.Status != "success" {
				t.Errorf("expected status success, got %s", out.Status)
			}
		})

		t.Run("Invalid JSON", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte("{not json"))
			}))
			defer server.Close()

			var out map[string]any
			err := NewAPIService(server.URL, nil).GetJSON(context.Background(), "", nil, &out)
			if !errors.Is(err, shared.ErrNetworkFailure) {
				t.Errorf("expected ErrNetworkFailure, got %v", err)
			}
		})

		tc := []struct {
			name string
			body string
			want string
		}{
			{name: "detail", body: `{"detail": "proxy down"}`, want: "network failure"},
			{name: "error string", body: `{"error": "Query parameter required"}`, want: "network failure"},
			{name: "error object", body: `{"error": {"name": "session-expired", "message": "Token expired"}}`, want: "network failure"},
			{name: "no payload", body: ``, want: "network failure"},
		}

		for _, tt := range tc {
			t.Run("Status Error "+tt.name, func(t *testing.T) {
				server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					w.WriteHeader(http.StatusBadGateway)
					w.Write([]byte(tt.body))
				}))
				defer server.Close()

				err := NewAPIService(server.URL, nil).GetJSON(context.Background(), "", nil, nil)
				if Classify(err).String() != tt.want {
					t.Errorf("expected %s, got %v", tt.want, err)
				}
			})
		}
	})
}

func TestErrorMessage(t *testing.T) {
	tc := []struct {
		body string
		want string
	}{
		{body: `{"detail": "proxy down"}`, want: "proxy down"},
		{body: `{"errorMessage": "bad term"}`, want: "bad term"},
		{body: `{"error": "Method not allowed"}`, want: "Method not allowed"},
		{body: `{"error": {"name": "session-expired", "message": "Token expired"}}`, want: "Token expired"},
		{body: `{"error": {"name": "not-found"}}`, want: "not-found"},
		{body: `{"results": []}`, want: ""},
		{body: `<html>`, want: ""},
	}

	for _, tt := range tc {
		if got := errorMessage([]byte(tt.body)); got != tt.want {
			t.Errorf("errorMessage(%s) = %q, want %q", tt.body, got, tt.want)
		}
	}
}

func TestClassify(t *testing.T) {
	tc := []struct {
		name string
		err  error
		want ResolutionKind
	}{
		{name: "nil", err: nil, want: ResolutionOK},
		{name: "invalid link", err: shared.ErrInvalidLink, want: ResolutionInvalidLink},
		{name: "wrapped network", err: errors.Join(errors.New("ctx"), shared.ErrNetworkFailure), want: ResolutionNetworkFailure},
		{name: "empty", err: shared.ErrEmptyResult, want: ResolutionEmptyResult},
		{name: "other", err: errors.New("boom"), want: ResolutionUnknown},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.err); got != tt.want {
				t.Errorf("Classify() = %v, want %v", got, tt.want)
			}
		})
	}
}
