package api

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"mime/multipart"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"forecast-studio/internal/config"
	"forecast-studio/internal/metrics"
	"forecast-studio/internal/models"
	"forecast-studio/internal/service"
	"forecast-studio/internal/state"
)

type testServer struct {
	*httptest.Server
	handler *Handler
	client  *http.Client
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	cfg, err := config.Load("")
	require.NoError(t, err)
	cfg.Forecast.UncertaintySamples = 100

	logger := logrus.New()
	logger.SetOutput(io.Discard)
	m := metrics.New()

	pipeline := service.NewPipeline(service.PipelineConfig{
		Prepare: service.PrepareOptions{
			CategoryColumn: cfg.Data.CategoryColumn,
			DateColumn:     cfg.Data.DateColumn,
			Metrics:        cfg.Forecast.Metrics,
		},
		MaxPeriods: cfg.Forecast.MaxPeriods,
		Engine:     cfg.Forecast.EngineConfig(),
	}, logger, m)

	h := NewHandler(cfg, state.NewSessionStore(cfg.Session.TTL), pipeline, logger, m)
	srv := httptest.NewServer(NewRouter(h))
	t.Cleanup(srv.Close)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &testServer{Server: srv, handler: h, client: &http.Client{Jar: jar}}
}

func busCSV(n int) string {
	var b strings.Builder
	b.WriteString("industry,date,trips_per_day,total_trips\n")
	start := time.Date(2023, time.January, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < n; i++ {
		v := 100 + float64(i) + 10*math.Sin(2*math.Pi*float64(i)/7)
		fmt.Fprintf(&b, "bus,%s,%.3f,-5\n", start.AddDate(0, 0, i).Format("2006-01-02"), v)
	}
	return b.String()
}

func (s *testServer) upload(t *testing.T, path, name, content string) *http.Response {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("file", name)
	require.NoError(t, err)
	_, err = fw.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	resp, err := s.client.Post(s.URL+path, mw.FormDataContentType(), &body)
	require.NoError(t, err)
	return resp
}

func (s *testServer) get(t *testing.T, path string) (*http.Response, string) {
	t.Helper()
	resp, err := s.client.Get(s.URL + path)
	require.NoError(t, err)
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, string(b)
}

func (s *testServer) postJSON(t *testing.T, path string, v interface{}) (*http.Response, []byte) {
	t.Helper()
	payload, err := json.Marshal(v)
	require.NoError(t, err)
	resp, err := s.client.Post(s.URL+path, "application/json", bytes.NewReader(payload))
	require.NoError(t, err)
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, b
}

func TestPageAsksForUploadFirst(t *testing.T) {
	s := newTestServer(t)

	resp, body := s.get(t, "/")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, msgUploadFirst)

	resp, _ = s.get(t, "/charts/history")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestPageUploadAndDashboard(t *testing.T) {
	s := newTestServer(t)

	resp := s.upload(t, "/upload", "data.csv", busCSV(120))
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode) // followed the redirect

	resp, body := s.get(t, "/?category=bus&metric=trips_per_day&periods=15&freq=D")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "data.csv")
	assert.Contains(t, body, "/charts/forecast")
	assert.Contains(t, body, "predicciones.csv")
	assert.NotContains(t, body, msgNoData)

	resp, body = s.get(t, "/charts/forecast")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "Predicción para trips_per_day (bus)")

	resp, body = s.get(t, "/charts/components.png")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "image/png", resp.Header.Get("Content-Type"))
	assert.True(t, strings.HasPrefix(body, "\x89PNG"))

	resp, body = s.get(t, "/download/predicciones.csv")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "predicciones.csv")
	records, err := csv.NewReader(strings.NewReader(body)).ReadAll()
	require.NoError(t, err)
	assert.Len(t, records, 1+120+15)
	assert.Equal(t, "ds", records[0][0])
	assert.Equal(t, "yhat", records[0][len(records[0])-1])

	resp, _ = s.get(t, "/download/predicciones.xlsx")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestPageNoDataReplacesPreviousRun(t *testing.T) {
	s := newTestServer(t)
	s.upload(t, "/upload", "data.csv", busCSV(60)).Body.Close()

	resp, _ := s.get(t, "/?category=bus&metric=trips_per_day")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp, _ = s.get(t, "/download/predicciones.csv")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// Every total_trips value is negative.
	_, body := s.get(t, "/?category=bus&metric=total_trips")
	assert.Contains(t, body, msgNoData)
	assert.NotContains(t, body, "/charts/forecast")

	resp, _ = s.get(t, "/download/predicciones.csv")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestPageForecastFailureKeepsSessionUsable(t *testing.T) {
	s := newTestServer(t)
	s.upload(t, "/upload", "data.csv", busCSV(60)+"rail,2023-01-05,40,-5\n").Body.Close()

	resp, body := s.get(t, "/?category=rail&metric=trips_per_day")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "No se pudo generar la predicción")
	assert.NotContains(t, body, msgNoData)

	resp, _ = s.get(t, "/download/predicciones.csv")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, body = s.get(t, "/?category=bus&metric=trips_per_day")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotContains(t, body, "No se pudo generar la predicción")

	resp, _ = s.get(t, "/download/predicciones.csv")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestSessionCookieRefreshedOnEveryRequest(t *testing.T) {
	s := newTestServer(t)

	first, _ := s.get(t, "/health")
	assert.Empty(t, first.Cookies())

	resp, _ := s.get(t, "/")
	cookies := resp.Cookies()
	require.Len(t, cookies, 1)
	id := cookies[0].Value

	resp, _ = s.get(t, "/api/status")
	cookies = resp.Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, s.handler.cfg.Session.CookieName, cookies[0].Name)
	assert.Equal(t, id, cookies[0].Value)
	assert.Equal(t, int(s.handler.cfg.Session.TTL.Seconds()), cookies[0].MaxAge)
}

func TestPageUploadErrors(t *testing.T) {
	s := newTestServer(t)

	resp := s.upload(t, "/upload", "data.txt", busCSV(3))
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = s.upload(t, "/upload", "data.csv", "industry,value\nbus,1\n")
	b, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Contains(t, string(b), "date")
}

func TestAPIForecastFlow(t *testing.T) {
	s := newTestServer(t)

	resp, body := s.postJSON(t, "/api/forecast", models.SelectionRequest{})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	var apiErr models.ErrorResponse
	require.NoError(t, json.Unmarshal(body, &apiErr))
	assert.Equal(t, "no_file", apiErr.Kind)

	up := s.upload(t, "/api/upload", "data.csv", busCSV(400))
	var upload models.UploadResponse
	require.NoError(t, json.NewDecoder(up.Body).Decode(&upload))
	up.Body.Close()
	assert.Equal(t, 400, upload.Rows)

	resp, body = s.postJSON(t, "/api/forecast", models.Selection{Category: "bus", Metric: "trips_per_day", Periods: 30, Freq: "D"})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	var fc models.ForecastResponse
	require.NoError(t, json.Unmarshal(body, &fc))
	assert.Equal(t, 400, fc.InputRows)
	assert.Len(t, fc.Data, 430)
	assert.Equal(t, "ds", fc.Columns[0])
	assert.Contains(t, fc.Seasonalities, "monthly")
	require.NotNil(t, fc.Profile)
	assert.Equal(t, 400, fc.Profile.NonNullRows)

	resp, body = s.postJSON(t, "/api/forecast", models.Selection{Category: "rail", Metric: "trips_per_day", Periods: 30, Freq: "D"})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	require.NoError(t, json.Unmarshal(body, &apiErr))
	assert.Equal(t, "no_data", apiErr.Kind)

	resp, body = s.postJSON(t, "/api/forecast", models.Selection{Category: "bus", Metric: "trips_per_day", Periods: 500, Freq: "D"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	require.NoError(t, json.Unmarshal(body, &apiErr))
	assert.Equal(t, "invalid_selection", apiErr.Kind)

	resp, body = s.postJSON(t, "/api/forecast", map[string]interface{}{"category": "bus", "metric": "trips_per_day", "periods": 0})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	require.NoError(t, json.Unmarshal(body, &apiErr))
	assert.Equal(t, "invalid_selection", apiErr.Kind)

	_, statusBody := s.get(t, "/api/status")
	var status models.StatusResponse
	require.NoError(t, json.Unmarshal([]byte(statusBody), &status))
	assert.True(t, status.Loaded)
	assert.False(t, status.HasForecast)
}

func TestAPITableInspection(t *testing.T) {
	s := newTestServer(t)
	s.upload(t, "/api/upload", "data.csv", "industry,date,trips_per_day\nbus,2024-01-01,1\ntaxi,2024-01-02,2\nbus,2024-01-03,3\n").Body.Close()

	_, body := s.get(t, "/api/categories")
	var cats models.CategoriesResponse
	require.NoError(t, json.Unmarshal([]byte(body), &cats))
	assert.Equal(t, []string{"bus", "taxi"}, cats.Categories)

	_, body = s.get(t, "/api/preview?rows=2")
	var preview models.PreviewResponse
	require.NoError(t, json.Unmarshal([]byte(body), &preview))
	assert.Equal(t, 3, preview.Rows)
	assert.Len(t, preview.Data, 2)

	_, body = s.get(t, "/api/column-types")
	var types map[string]string
	require.NoError(t, json.Unmarshal([]byte(body), &types))
	assert.Equal(t, "numeric", types["trips_per_day"])
	assert.Equal(t, "datetime", types["date"])

	_, body = s.get(t, "/api/metrics")
	var ms models.MetricsResponse
	require.NoError(t, json.Unmarshal([]byte(body), &ms))
	assert.Equal(t, []string{"trips_per_day"}, ms.Available)
	assert.Len(t, ms.Allowed, 10)
}

func TestSessionsAreIsolated(t *testing.T) {
	s := newTestServer(t)
	s.upload(t, "/api/upload", "data.csv", busCSV(10)).Body.Close()

	other, err := cookiejar.New(nil)
	require.NoError(t, err)
	stranger := &http.Client{Jar: other}
	resp, err := stranger.Get(s.URL + "/api/preview")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, 2, s.handler.sessions.Len())
}

func TestAPIDBLoad(t *testing.T) {
	s := newTestServer(t)

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	mock.ExpectQuery("SELECT table_name FROM information_schema.tables").
		WillReturnRows(sqlmock.NewRows([]string{"table_name"}).AddRow("metrics"))
	mock.ExpectQuery(`SELECT \* FROM "metrics" LIMIT 50`).
		WillReturnRows(sqlmock.NewRows([]string{"industry", "date", "trips_per_day"}).
			AddRow("bus", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), 4.0))
	mock.ExpectClose()

	var got service.DataSourceConfig
	s.handler.connectDB = func(ctx context.Context, cfg service.DataSourceConfig) (service.DataSource, error) {
		got = cfg
		return service.NewPostgresDataSource(db), nil
	}

	resp, body := s.postJSON(t, "/api/db/load", models.DBLoadRequest{Host: "db.internal", Table: "metrics", Limit: 50})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	assert.Equal(t, "db.internal", got.Host)
	assert.Equal(t, 5432, got.Port)
	assert.Equal(t, "disable", got.SSLMode)

	var upload models.UploadResponse
	require.NoError(t, json.Unmarshal(body, &upload))
	assert.Equal(t, 1, upload.Rows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHealthAndMetrics(t *testing.T) {
	s := newTestServer(t)

	resp, body := s.get(t, "/health")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "OK", body)

	s.get(t, "/")
	_, body = s.get(t, "/metrics")
	assert.Contains(t, body, "forecast_studio_http_requests_total")
	assert.Contains(t, body, "forecast_studio_sessions_active")
}
