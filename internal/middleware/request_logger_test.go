package middleware

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/matryer/is"
)

func TestRequestLogger(t *testing.T) {
	is := is.New(t)
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	h := NewRequestLogger(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		_, _ = w.Write([]byte("hello"))
	}))
	req := httptest.NewRequest("POST", "/v1/register", nil)
	req.Header.Set("Authorization", "Bearer secret-token")
	req.Header.Set("X-Test", "yes")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	is.Equal(rec.Code, http.StatusTeapot)
	is.Equal(rec.Body.String(), "hello")
	is.True(!strings.Contains(buf.String(), "secret-token"))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	is.Equal(len(lines), 2)
	var start map[string]any
	is.NoErr(json.Unmarshal([]byte(lines[0]), &start))
	is.Equal(start["msg"], "starting request")
	headers := start["headers"].(map[string]any)
	is.Equal(headers["Authorization"], "<redacted>")
	is.Equal(headers["X-Test"], "yes")

	var finish map[string]any
	is.NoErr(json.Unmarshal([]byte(lines[1]), &finish))
	is.Equal(finish["msg"], "finished request")
	is.Equal(finish["status"], float64(http.StatusTeapot))
	is.Equal(finish["bytes"], float64(5))
	is.Equal(finish["uri"], "/v1/register")
	_, ok := finish["headers"]
	is.True(!ok)
}

func TestRequestLoggerServerError(t *testing.T) {
	is := is.New(t)
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	h := NewRequestLogger(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/", nil))
	var finish map[string]any
	is.NoErr(json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &finish))
	is.Equal(finish["level"], "ERROR")
}
