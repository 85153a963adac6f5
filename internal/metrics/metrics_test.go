package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMiddlewareLabelsByRoutePattern(t *testing.T) {
	m := New()
	r := chi.NewRouter()
	r.Use(m.Middleware)
	r.Get("/charts/{name}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	for _, path := range []string{"/charts/history", "/charts/forecast"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	got := testutil.ToFloat64(m.requestTotal.WithLabelValues("GET", "/charts/{name}", "418"))
	assert.Equal(t, 2.0, got)
}

func TestRecordRunAndExposition(t *testing.T) {
	m := New()
	m.RecordRun(OutcomeOK)
	m.RecordRun(OutcomeNoData)
	m.RecordRun(OutcomeNoData)
	m.ObserveFit(150 * time.Millisecond)
	m.SetSessions(3)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.pipelineRuns.WithLabelValues(OutcomeNoData)))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.sessionsActive))

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.True(t, strings.Contains(body, "forecast_studio_pipeline_runs_total"))
	assert.True(t, strings.Contains(body, "forecast_studio_fit_duration_seconds_bucket"))
}
