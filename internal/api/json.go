package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"slices"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"

	"forecast-studio/internal/analysis"
	"forecast-studio/internal/models"
	"forecast-studio/internal/service"
	"forecast-studio/internal/state"
)

// ============================================================================
// Upload
// ============================================================================

func (h *Handler) APIUpload(w http.ResponseWriter, r *http.Request) {
	df, err := h.readUpload(w, r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	sess := sessionFrom(r)
	sess.Lock()
	h.storeTable(sess, df)
	sess.Unlock()

	writeJSON(w, http.StatusOK, uploadResponse(df))
}

func uploadResponse(df *state.DataFrame) models.UploadResponse {
	return models.UploadResponse{
		Message:     fmt.Sprintf("File '%s' uploaded successfully", df.FileName),
		FileName:    df.FileName,
		Rows:        len(df.Rows),
		Columns:     len(df.Headers),
		ColumnNames: df.Headers,
	}
}

// ============================================================================
// Status
// ============================================================================

func (h *Handler) APIStatus(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	sess.Lock()
	defer sess.Unlock()

	resp := models.StatusResponse{}
	if df := sess.Table; df != nil {
		resp.Loaded = true
		resp.FileName = df.FileName
		resp.Rows = len(df.Rows)
		resp.Columns = len(df.Headers)
	}
	if run := sess.LastRun; run != nil {
		sel := run.Selection
		resp.Selection = &sel
		resp.HasForecast = run.OK()
	}
	writeJSON(w, http.StatusOK, resp)
}

// ============================================================================
// Table inspection
// ============================================================================

// withTable runs fn with the session's table, or answers 409 without one.
func (h *Handler) withTable(w http.ResponseWriter, r *http.Request, fn func(df *state.DataFrame)) {
	sess := sessionFrom(r)
	sess.Lock()
	df := sess.Table
	sess.Unlock()

	if df == nil {
		h.writeError(w, r, service.ErrNoTable)
		return
	}
	fn(df)
}

func (h *Handler) APIPreview(w http.ResponseWriter, r *http.Request) {
	rows := getIntParam(r, "rows", previewRows)
	h.withTable(w, r, func(df *state.DataFrame) {
		writeJSON(w, http.StatusOK, models.PreviewResponse{
			Columns: df.Headers,
			Rows:    len(df.Rows),
			Data:    df.Head(rows),
		})
	})
}

func (h *Handler) APIColumnTypes(w http.ResponseWriter, r *http.Request) {
	h.withTable(w, r, func(df *state.DataFrame) {
		writeJSON(w, http.StatusOK, analysis.ColumnTypes(df))
	})
}

func (h *Handler) APICategories(w http.ResponseWriter, r *http.Request) {
	h.withTable(w, r, func(df *state.DataFrame) {
		writeJSON(w, http.StatusOK, models.CategoriesResponse{
			Column:     h.cfg.Data.CategoryColumn,
			Categories: h.categories(df),
		})
	})
}

func (h *Handler) APIMetrics(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	sess.Lock()
	df := sess.Table
	sess.Unlock()

	resp := models.MetricsResponse{
		Allowed:   h.cfg.Forecast.Metrics,
		Available: []string{},
	}
	if df != nil {
		for _, m := range h.cfg.Forecast.Metrics {
			if slices.Contains(df.Headers, m) {
				resp.Available = append(resp.Available, m)
			}
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// ============================================================================
// Forecast
// ============================================================================

func (h *Handler) APIForecast(w http.ResponseWriter, r *http.Request) {
	var req models.SelectionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		h.writeError(w, r, fmt.Errorf("%w: invalid JSON: %v", models.ErrInvalidSelection, err))
		return
	}

	sess := sessionFrom(r)
	sess.Lock()
	defer sess.Unlock()

	if sess.Table == nil {
		h.writeError(w, r, service.ErrNoTable)
		return
	}
	run, err := h.run(r, sess, h.withDefaults(req, sess.Table))
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	res := run.Result
	resp := models.ForecastResponse{
		Selection:     run.Selection,
		InputRows:     len(run.Input),
		Columns:       res.Columns(),
		Seasonalities: res.Seasonalities(),
		Data:          make([]map[string]interface{}, res.Len()),
		DurationMS:    run.Duration.Milliseconds(),
	}
	rows := service.MatchingRows(sess.Table, h.cfg.Data.CategoryColumn, run.Selection.Category)
	if p, err := analysis.ProfileColumn(sess.Table, run.Selection.Metric, rows); err == nil {
		resp.Profile = &p
	}
	for i := 0; i < res.Len(); i++ {
		rec := res.Record(i)
		rec["ds"] = res.DS[i].Format(time.RFC3339)
		resp.Data[i] = rec
	}
	writeJSON(w, http.StatusOK, resp)
}

// ============================================================================
// Database source
// ============================================================================

func (h *Handler) APIDBLoad(w http.ResponseWriter, r *http.Request) {
	var req models.DBLoadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}
	if req.Table == "" {
		http.Error(w, "table is required", http.StatusBadRequest)
		return
	}

	db := h.cfg.Database
	dsc := service.DataSourceConfig{
		Host:     orDefault(req.Host, db.Host),
		Port:     req.Port,
		User:     orDefault(req.User, db.User),
		Password: orDefault(req.Password, db.Password),
		DBName:   orDefault(req.DBName, db.DBName),
		SSLMode:  orDefault(req.SSLMode, db.SSLMode),
	}
	if dsc.Port == 0 {
		dsc.Port = db.Port
	}
	limit := req.Limit
	if limit <= 0 || limit > db.MaxRows {
		limit = db.MaxRows
	}

	src, err := h.connectDB(r.Context(), dsc)
	if err != nil {
		h.logger.WithError(err).WithField("host", dsc.Host).Warn("database connect failed")
		http.Error(w, fmt.Sprintf("Failed to connect: %v", err), http.StatusBadGateway)
		return
	}
	defer src.Close()

	df, err := src.LoadTable(r.Context(), req.Table, limit)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := h.validateTable(df); err != nil {
		h.writeError(w, r, err)
		return
	}

	sess := sessionFrom(r)
	sess.Lock()
	h.storeTable(sess, df)
	sess.Unlock()

	h.logger.WithFields(logrus.Fields{"table": req.Table, "rows": len(df.Rows)}).Info("table loaded from database")
	writeJSON(w, http.StatusOK, uploadResponse(df))
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func getIntParam(r *http.Request, name string, defaultVal int) int {
	valStr := r.URL.Query().Get(name)
	if valStr == "" {
		return defaultVal
	}
	val, err := strconv.Atoi(valStr)
	if err != nil {
		return defaultVal
	}
	return val
}
