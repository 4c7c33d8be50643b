package middleware

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/RubachokBoss/plagiarism-checker/workbench/internal/config"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecovery(t *testing.T) {
	h := Recovery(zerolog.Nop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"error": "Internal Server Error", "message": "Internal server error", "code": "INTERNAL_ERROR"}`, rec.Body.String())
}

func TestRecovery_UsesRequestLogger(t *testing.T) {
	var requestOut, fallbackOut bytes.Buffer
	chain := RequestLogger(zerolog.New(&requestOut))(
		Recovery(zerolog.New(&fallbackOut))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			panic("boom")
		})),
	)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(context.WithValue(req.Context(), chimw.RequestIDKey, "req-7"))
	chain.ServeHTTP(httptest.NewRecorder(), req)

	assert.Contains(t, requestOut.String(), `"message":"Panic recovered"`)
	assert.Contains(t, requestOut.String(), `"request_id":"req-7"`)
	assert.Empty(t, fallbackOut.String())
}

func TestTimeout_SetsDeadline(t *testing.T) {
	var deadline time.Time
	var ok bool
	h := Timeout(time.Minute)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		deadline, ok = r.Context().Deadline()
	}))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	assert.True(t, ok)
	assert.WithinDuration(t, time.Now().Add(time.Minute), deadline, 5*time.Second)
}

func TestRequestLogger_InjectsLogger(t *testing.T) {
	var out bytes.Buffer
	h := RequestLogger(zerolog.New(&out))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		zerolog.Ctx(r.Context()).Info().Msg("inside handler")
		w.WriteHeader(http.StatusTeapot)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/compare?x=1", nil))

	assert.Equal(t, http.StatusTeapot, rec.Code)
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], `"message":"inside handler"`)
	assert.Contains(t, lines[0], `"request_id":"unknown"`)
	assert.Contains(t, lines[1], `"status":418`)
	assert.Contains(t, lines[1], `"path":"/compare"`)
}

func TestCORS_AlwaysAllowsOperationHeader(t *testing.T) {
	h := NewCORS(config.CORSConfig{
		AllowedOrigins: []string{"http://page.local"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost},
		AllowedHeaders: []string{"Content-Type"},
	})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Operation-ID", "op-1")
	}))

	preflight := httptest.NewRequest(http.MethodOptions, "/api/v1/upload", nil)
	preflight.Header.Set("Origin", "http://page.local")
	preflight.Header.Set("Access-Control-Request-Method", http.MethodPost)
	preflight.Header.Set("Access-Control-Request-Headers", "X-Operation-ID")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, preflight)

	assert.Equal(t, "http://page.local", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, strings.ToLower(rec.Header().Get("Access-Control-Allow-Headers")), "x-operation-id")

	req := httptest.NewRequest(http.MethodGet, "/api/v1/state", nil)
	req.Header.Set("Origin", "http://page.local")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Contains(t, rec.Header().Get("Access-Control-Expose-Headers"), "X-Operation-Id")
}

func TestCORS_AddsDeleteForNotifications(t *testing.T) {
	assert.Equal(t, []string{"GET", "DELETE"}, withMethod([]string{"GET"}, http.MethodDelete))
	assert.Equal(t, []string{"GET", "DELETE"}, withMethod([]string{"GET", "DELETE"}, http.MethodDelete))
	assert.Nil(t, withMethod(nil, http.MethodDelete))

	assert.Equal(t, []string{"*"}, withHeader([]string{"*"}, "X-Operation-ID"))
	assert.Equal(t, []string{"x-operation-id"}, withHeader([]string{"x-operation-id"}, "X-Operation-ID"))
}
