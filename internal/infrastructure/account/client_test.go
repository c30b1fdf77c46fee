package account

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/lokastream/mabar-queue/internal/usecase"
)

func TestVerifyAccessToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/auth/introspect" {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		raw, _ := io.ReadAll(r.Body)
		if !strings.Contains(string(raw), `"token":"valid-token"`) {
			t.Fatalf("unexpected body: %s", raw)
		}
		_, _ = w.Write([]byte(`{"active": true, "user_id": "streamer-raka", "username": "raka"}`))
	}))
	defer srv.Close()

	client := NewClient(srv.Client(), srv.URL, "/v1/auth/introspect", nil)
	principal, err := client.VerifyAccessToken(context.Background(), "valid-token")
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if principal.UserID != "streamer-raka" || principal.Username != "raka" {
		t.Fatalf("unexpected principal: %+v", principal)
	}
}

func TestVerifyAccessToken_Rejections(t *testing.T) {
	cases := []struct {
		name    string
		status  int
		body    string
		wantErr error
	}{
		{"denied", http.StatusUnauthorized, ``, usecase.ErrUnauthorized},
		{"inactive", http.StatusOK, `{"active": false}`, usecase.ErrUnauthorized},
	}

	for _, tc := range cases {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(tc.status)
			_, _ = w.Write([]byte(tc.body))
		}))

		client := NewClient(srv.Client(), srv.URL, "/v1/auth/introspect", nil)
		_, err := client.VerifyAccessToken(context.Background(), "some-token")
		if !errors.Is(err, tc.wantErr) {
			t.Fatalf("%s: expected %v, got %v", tc.name, tc.wantErr, err)
		}
		srv.Close()
	}
}

func TestVerifyAccessToken_EmptyToken(t *testing.T) {
	client := NewClient(nil, "http://localhost:0", "/v1/auth/introspect", nil)
	if _, err := client.VerifyAccessToken(context.Background(), "  "); !errors.Is(err, usecase.ErrUnauthorized) {
		t.Fatalf("expected unauthorized, got %v", err)
	}
}

func TestVerifyAccessToken_MissingUserID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"active": true, "user_id": ""}`))
	}))
	defer srv.Close()

	client := NewClient(srv.Client(), srv.URL, "/v1/auth/introspect", nil)
	if _, err := client.VerifyAccessToken(context.Background(), "some-token"); err == nil {
		t.Fatal("expected empty user_id to error")
	}
}

func TestBuildURL(t *testing.T) {
	cases := []struct {
		base, path, want string
	}{
		{"http://account:8081/", "/v1/auth/introspect", "http://account:8081/v1/auth/introspect"},
		{"http://account:8081", "v1/auth/introspect", "http://account:8081/v1/auth/introspect"},
		{"http://account:8081", "https://other/introspect", "https://other/introspect"},
		{"http://account:8081", "", "http://account:8081"},
	}
	for _, tc := range cases {
		if got := buildURL(tc.base, tc.path); got != tc.want {
			t.Fatalf("buildURL(%q, %q) = %q, want %q", tc.base, tc.path, got, tc.want)
		}
	}
}
