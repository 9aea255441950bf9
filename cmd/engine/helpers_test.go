package main

import (
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestShutdownHandlerGuards(t *testing.T) {
	tests := []struct {
		name   string
		method string
		remote string
		auth   string
		want   int
	}{
		{"bearer from loopback", http.MethodPost, "127.0.0.1:5000", "Bearer s3cret", http.StatusOK},
		{"ipv6 loopback", http.MethodPost, "[::1]:5000", "Bearer s3cret", http.StatusOK},
		{"wrong token", http.MethodPost, "127.0.0.1:5000", "Bearer nope", http.StatusUnauthorized},
		{"missing scheme", http.MethodPost, "127.0.0.1:5000", "s3cret", http.StatusUnauthorized},
		{"empty bearer", http.MethodPost, "127.0.0.1:5000", "Bearer ", http.StatusUnauthorized},
		{"no header", http.MethodPost, "127.0.0.1:5000", "", http.StatusUnauthorized},
		{"remote client", http.MethodPost, "203.0.113.7:5000", "Bearer s3cret", http.StatusForbidden},
		{"get", http.MethodGet, "127.0.0.1:5000", "Bearer s3cret", http.StatusMethodNotAllowed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := shutdownHandler("s3cret", &http.Server{}, slog.Default())

			req := httptest.NewRequest(tt.method, "/shutdown", nil)
			req.RemoteAddr = tt.remote
			if tt.auth != "" {
				req.Header.Set("Authorization", tt.auth)
			}
			rec := httptest.NewRecorder()
			h(rec, req)

			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}

func TestDataPath(t *testing.T) {
	if got := dataPath("/data", "jobs.json"); got != "/data/jobs.json" {
		t.Errorf("relative = %q", got)
	}
	if got := dataPath("/data", "/tmp/jobs.json"); got != "/tmp/jobs.json" {
		t.Errorf("absolute = %q", got)
	}
}
