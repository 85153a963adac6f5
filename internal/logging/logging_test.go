package logging

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewParsesLevelAndFormat(t *testing.T) {
	assert.Equal(t, logrus.DebugLevel, New("debug", "json").GetLevel())
	assert.Equal(t, logrus.InfoLevel, New("loud", "json").GetLevel())

	_, isText := New("info", "text").Formatter.(*logrus.TextFormatter)
	assert.True(t, isText)
	_, isJSON := New("info", "").Formatter.(*logrus.JSONFormatter)
	assert.True(t, isJSON)
}

func TestRequestLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithOutput(&buf, "info", "json")

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(logger))
	r.Get("/missing", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusNotFound)
	})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/missing", nil))

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "GET", line["method"])
	assert.Equal(t, "/missing", line["path"])
	assert.Equal(t, float64(404), line["status"])
	assert.Equal(t, "warning", line["level"])
	assert.NotEmpty(t, line["request_id"])
}
