package hqsagent

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"github.com/quantrunner/HQSAgent/internal/auth"
)

func signedToken(t *testing.T, exp time.Time) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(exp),
	}).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return token
}

// jobServer simulates the remote job API for one submission. Poll responses
// are served in order, sticking on the last one.
type jobServer struct {
	t            *testing.T
	accessToken  string
	pollStatuses []string
	results      map[string][]string
	polls        int
}

func (s *jobServer) handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		require.Equal(s.t, s.accessToken, r.Header.Get("Authorization"))
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/job":
			var req map[string]any
			require.NoError(s.t, json.NewDecoder(r.Body).Decode(&req))
			require.Equal(s.t, "OPENQASM 2.0", req["language"])
			json.NewEncoder(w).Encode(map[string]any{"job": "bf668869", "status": "queued"})
		case r.Method == http.MethodGet && r.URL.Path == "/job/bf668869":
			idx := s.polls
			if idx >= len(s.pollStatuses) {
				idx = len(s.pollStatuses) - 1
			}
			s.polls++
			resp := map[string]any{"job": "bf668869", "status": s.pollStatuses[idx]}
			if s.pollStatuses[idx] == StatusCompleted || s.pollStatuses[idx] == StatusCancelled {
				resp["results"] = s.results
			}
			json.NewEncoder(w).Encode(resp)
		default:
			http.NotFound(w, r)
		}
	}
}

func newExecuteDevice(t *testing.T, server *httptest.Server, token string) *Device {
	t.Helper()
	store := memStore{auth.KeyAccessToken: token}
	dev, err := NewDevice(DeviceConfig{
		Machine:       "SOME_MACHINE_NAME",
		Wires:         2,
		Shots:         10,
		RetryDelay:    time.Millisecond,
		User:          "user@example.com",
		BaseURL:       server.URL,
		Store:         store,
		DisableMirror: true,
	})
	require.NoError(t, err)
	return dev
}

func TestExecuteCompletedJob(t *testing.T) {
	token := signedToken(t, time.Now().Add(time.Hour))
	srv := &jobServer{
		t:            t,
		accessToken:  token,
		pollStatuses: []string{"running", StatusCompleted},
		results:      map[string][]string{"c": repeat("00", 10)},
	}
	ts := httptest.NewServer(srv.handler())
	defer ts.Close()

	dev := newExecuteDevice(t, ts, token)
	bitstrings, err := dev.Execute(context.Background(), "OPENQASM 2.0; qreg q[2];")
	require.NoError(t, err)
	require.Equal(t, repeat("00", 10), bitstrings)
	require.False(t, dev.Partial())

	samples := dev.LastSamples()
	require.Len(t, samples, 10)
	for _, row := range samples {
		require.Equal(t, []int{0, 0}, row)
	}
	require.Equal(t, 2, srv.polls)
}

func TestExecuteFailedJob(t *testing.T) {
	token := signedToken(t, time.Now().Add(time.Hour))
	srv := &jobServer{
		t:            t,
		accessToken:  token,
		pollStatuses: []string{StatusFailed},
	}
	ts := httptest.NewServer(srv.handler())
	defer ts.Close()

	dev := newExecuteDevice(t, ts, token)
	_, err := dev.Execute(context.Background(), "OPENQASM 2.0;")
	require.ErrorIs(t, err, ErrJobFailed)
	require.Nil(t, dev.Results())
}

func TestExecuteCancelledJobPartialResults(t *testing.T) {
	token := signedToken(t, time.Now().Add(time.Hour))
	srv := &jobServer{
		t:            t,
		accessToken:  token,
		pollStatuses: []string{StatusCancelled},
		results:      map[string][]string{"c": repeat("01", 3)},
	}
	ts := httptest.NewServer(srv.handler())
	defer ts.Close()

	dev := newExecuteDevice(t, ts, token)
	bitstrings, err := dev.Execute(context.Background(), "OPENQASM 2.0;")
	require.NoError(t, err)
	require.Len(t, bitstrings, 3)
	require.True(t, dev.Partial())
}

func TestExecuteCancelledJobNoResults(t *testing.T) {
	token := signedToken(t, time.Now().Add(time.Hour))
	srv := &jobServer{
		t:            t,
		accessToken:  token,
		pollStatuses: []string{StatusCancelled},
	}
	ts := httptest.NewServer(srv.handler())
	defer ts.Close()

	dev := newExecuteDevice(t, ts, token)
	_, err := dev.Execute(context.Background(), "OPENQASM 2.0;")
	require.ErrorIs(t, err, ErrJobCancelledNoResults)
}
