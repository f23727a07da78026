package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"condoPortal/internal/logging"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecoveryMiddleware(t *testing.T) {
	app := &App{Logger: logging.Discard()}
	handler := app.RecoveryMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "Error interno del servidor")
}

func TestLoggingMiddlewareTagsRequestID(t *testing.T) {
	var buf bytes.Buffer
	app := &App{Logger: logging.New("INFO", &buf)}
	handler := app.RequestIDMiddleware(app.LoggingMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	})))

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(RequestIDHeader, "7c9e6679-7425-40de-944b-e07fc1f90ae7")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	var entry logging.Entry
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "HTTP request completed", entry.Message)
	assert.Equal(t, "7c9e6679-7425-40de-944b-e07fc1f90ae7", entry.RequestID)
	assert.EqualValues(t, http.StatusAccepted, entry.Fields["status_code"])
	assert.Equal(t, "/healthz", entry.Fields["path"])
}
