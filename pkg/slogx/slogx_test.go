package slogx_test

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/aussiebroadwan/expo/pkg/slogx"
	"github.com/stretchr/testify/require"
)

func TestHTTPMiddlewareInjectsRequestLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := slogx.New(slogx.Config{Service: "team", Env: "test", Format: "json", Output: &buf})

	h := slogx.HTTPMiddleware(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		slogx.FromContext(r.Context()).Info("inside")
		w.WriteHeader(http.StatusTeapot)
	}))

	req := httptest.NewRequest(http.MethodGet, "/v1/me", nil)
	req.Header.Set(slogx.RequestIDHeader, "abc")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	require.Equal(t, http.StatusTeapot, rr.Code)
	require.Equal(t, "abc", rr.Header().Get(slogx.RequestIDHeader))

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 2)

	var inner, access map[string]any
	require.NoError(t, json.Unmarshal(lines[0], &inner))
	require.NoError(t, json.Unmarshal(lines[1], &access))

	require.Equal(t, "inside", inner["msg"])
	require.Equal(t, "abc", inner["req_id"])
	require.Equal(t, "team", inner["service"])
	require.Equal(t, "http_request", access["msg"])
	require.EqualValues(t, http.StatusTeapot, access["status"])
}

func TestRequestIDGeneratedWhenMissing(t *testing.T) {
	h := slogx.HTTPMiddleware(slogx.Discard())(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

	require.Len(t, rr.Header().Get(slogx.RequestIDHeader), 26)
}

func TestParseLevel(t *testing.T) {
	require.Equal(t, slog.LevelDebug, slogx.ParseLevel("DEBUG"))
	require.Equal(t, slog.LevelWarn, slogx.ParseLevel("warning"))
	require.Equal(t, slog.LevelError, slogx.ParseLevel("error"))
	require.Equal(t, slog.LevelInfo, slogx.ParseLevel(""))
}
