package main

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func serve(status int, body string) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		w.Write([]byte(body))
	}))
}

func TestCheck(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr string
	}{
		{
			name:   "healthy",
			status: http.StatusOK,
			body:   `{"status":"ok","version":"1.0.0","services":{"database":{"status":"ok"}}}`,
		},
		{
			name:    "database down",
			status:  http.StatusServiceUnavailable,
			body:    `{"status":"error","services":{"database":{"status":"error","error":"connection refused"}}}`,
			wantErr: "connection refused",
		},
		{
			name:    "not json",
			status:  http.StatusBadGateway,
			body:    `<html>bad gateway</html>`,
			wantErr: "status 502",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := serve(tt.status, tt.body)
			defer srv.Close()

			health, err := check(srv.Client(), srv.URL)
			if tt.wantErr == "" {
				require.NoError(t, err)
				assert.Equal(t, "1.0.0", health.Version)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestCheck_Unreachable(t *testing.T) {
	srv := serve(http.StatusOK, "{}")
	url := srv.URL
	srv.Close()

	_, err := check(http.DefaultClient, url)
	assert.Error(t, err)
}
