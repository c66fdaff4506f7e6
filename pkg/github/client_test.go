package github

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

const searchBody = `{
  "total_count": 2,
  "incomplete_results": false,
  "items": [
    {
      "name": "settings.yaml",
      "path": "config/settings.yaml",
      "html_url": "https://github.com/acme/api/blob/abc/config/settings.yaml",
      "repository": {
        "full_name": "acme/api",
        "created_at": "2019-05-01T10:00:00Z",
        "pushed_at": "2024-02-03T04:05:06Z"
      }
    },
    {
      "name": "main.go",
      "path": "main.go",
      "html_url": "https://github.com/acme/cli/blob/abc/main.go",
      "repository": {"full_name": "acme/cli"}
    }
  ]
}`

func TestClient_SearchCode_Success(t *testing.T) {
	var gotQuery, gotPage, gotPerPage, gotAuth, gotAccept string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/search/code" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		gotQuery = r.URL.Query().Get("q")
		gotPage = r.URL.Query().Get("page")
		gotPerPage = r.URL.Query().Get("per_page")
		gotAuth = r.Header.Get("Authorization")
		gotAccept = r.Header.Get("Accept")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(searchBody))
	}))
	defer server.Close()

	c := NewClient("ghp_test", WithBaseURL(server.URL))
	res, err := c.SearchCode(context.Background(), `"secret" in:file`, 2, 30)
	if err != nil {
		t.Fatalf("SearchCode() error = %v", err)
	}

	if gotQuery != `"secret" in:file` {
		t.Errorf("q = %q", gotQuery)
	}
	if gotPage != "2" || gotPerPage != "30" {
		t.Errorf("page=%s per_page=%s, want 2 and 30", gotPage, gotPerPage)
	}
	if gotAuth != "token ghp_test" {
		t.Errorf("Authorization = %q", gotAuth)
	}
	if gotAccept != "application/vnd.github.v3+json" {
		t.Errorf("Accept = %q", gotAccept)
	}

	if res.TotalCount != 2 || len(res.Items) != 2 {
		t.Fatalf("got total=%d items=%d, want 2 and 2", res.TotalCount, len(res.Items))
	}
	first := res.Items[0]
	if first.Repository.FullName != "acme/api" || first.Path != "config/settings.yaml" {
		t.Errorf("first item = %+v", first)
	}
	wantPushed := time.Date(2024, 2, 3, 4, 5, 6, 0, time.UTC)
	if !first.Repository.PushedAt.Equal(wantPushed) {
		t.Errorf("PushedAt = %v, want %v", first.Repository.PushedAt, wantPushed)
	}
}

func TestClient_SearchCode_ClampsParams(t *testing.T) {
	var gotPage, gotPerPage string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPage = r.URL.Query().Get("page")
		gotPerPage = r.URL.Query().Get("per_page")
		_, _ = w.Write([]byte(`{"total_count":0,"items":[]}`))
	}))
	defer server.Close()

	c := NewClient("", WithBaseURL(server.URL+"/"))
	if _, err := c.SearchCode(context.Background(), "x", 0, 500); err != nil {
		t.Fatalf("SearchCode() error = %v", err)
	}
	if gotPage != "1" {
		t.Errorf("page = %s, want 1", gotPage)
	}
	if gotPerPage != "100" {
		t.Errorf("per_page = %s, want 100", gotPerPage)
	}
}

func TestClient_SearchCode_StatusErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		want   error
	}{
		{"unauthorized", http.StatusUnauthorized, ErrUnauthorized},
		{"forbidden", http.StatusForbidden, ErrRateLimited},
		{"too many requests", http.StatusTooManyRequests, ErrRateLimited},
		{"unprocessable", http.StatusUnprocessableEntity, ErrInvalidQuery},
		{"server error", http.StatusInternalServerError, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("X-RateLimit-Remaining", "0")
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(`{"message":"nope"}`))
			}))
			defer server.Close()

			c := NewClient("t", WithBaseURL(server.URL))
			_, err := c.SearchCode(context.Background(), "x", 1, 10)
			if err == nil {
				t.Fatal("expected error")
			}

			var se *StatusError
			if !errors.As(err, &se) {
				t.Fatalf("expected *StatusError, got %T", err)
			}
			if se.StatusCode != tt.status {
				t.Errorf("StatusCode = %d, want %d", se.StatusCode, tt.status)
			}
			if se.RateLimitRemaining != "0" {
				t.Errorf("RateLimitRemaining = %q, want 0", se.RateLimitRemaining)
			}
			if tt.want != nil && !errors.Is(err, tt.want) {
				t.Errorf("errors.Is(%v, %v) = false", err, tt.want)
			}
			if tt.want == nil && (errors.Is(err, ErrRateLimited) || errors.Is(err, ErrInvalidQuery) || errors.Is(err, ErrUnauthorized)) {
				t.Errorf("unexpected classification for %d: %v", tt.status, err)
			}
		})
	}
}

func TestClient_SearchCode_InvalidJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`not json`))
	}))
	defer server.Close()

	c := NewClient("t", WithBaseURL(server.URL))
	if _, err := c.SearchCode(context.Background(), "x", 1, 10); err == nil {
		t.Error("expected decode error")
	}
}

func TestClient_SearchCode_ContextCanceled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		_, _ = w.Write([]byte(`{}`))
	}))
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	c := NewClient("t", WithBaseURL(server.URL))
	if _, err := c.SearchCode(ctx, "x", 1, 10); err == nil {
		t.Error("expected error for canceled context")
	}
}

func TestStatusError_Error(t *testing.T) {
	e := &StatusError{StatusCode: 422, kind: ErrInvalidQuery}
	if e.Error() != "github returned status 422: invalid search query" {
		t.Errorf("Error() = %q", e.Error())
	}
	e = &StatusError{StatusCode: 500}
	if e.Error() != "github returned status 500" {
		t.Errorf("Error() = %q", e.Error())
	}
}

func TestClient_RateLimits(t *testing.T) {
	var gotPath, gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		_, _ = w.Write([]byte(`{"resources":{"core":{"limit":5000,"remaining":4999,"reset":1700000000},"search":{"limit":30,"remaining":28,"reset":1700000060}}}`))
	}))
	defer server.Close()

	limits, err := NewClient("t0ken", WithBaseURL(server.URL+"/")).RateLimits(context.Background())
	if err != nil {
		t.Fatalf("RateLimits() error = %v", err)
	}
	if gotPath != "/rate_limit" {
		t.Errorf("path = %q, want /rate_limit", gotPath)
	}
	if gotAuth != "token t0ken" {
		t.Errorf("Authorization = %q", gotAuth)
	}

	search := limits.Resources.Search
	if search.Limit != 30 || search.Remaining != 28 {
		t.Errorf("search quota = %+v", search)
	}
	if want := time.Unix(1700000060, 0).UTC(); !search.ResetAt().Equal(want) {
		t.Errorf("ResetAt() = %v, want %v", search.ResetAt(), want)
	}
	if limits.Resources.Core.Remaining != 4999 {
		t.Errorf("core quota = %+v", limits.Resources.Core)
	}
}

func TestClient_RateLimits_BadToken(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"message":"Bad credentials"}`))
	}))
	defer server.Close()

	_, err := NewClient("nope", WithBaseURL(server.URL)).RateLimits(context.Background())
	if !errors.Is(err, ErrUnauthorized) {
		t.Errorf("RateLimits() error = %v, want ErrUnauthorized", err)
	}
}
