package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"forecast-studio/internal/analysis"
	"forecast-studio/internal/forecast"
	"forecast-studio/internal/models"
	"forecast-studio/internal/state"
)

// readUpload parses the multipart "file" field into a validated table.
func (h *Handler) readUpload(w http.ResponseWriter, r *http.Request) (*state.DataFrame, error) {
	limit := h.cfg.Server.MaxUploadBytes()
	r.Body = http.MaxBytesReader(w, r.Body, limit)
	if err := r.ParseMultipartForm(limit); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", analysis.ErrMalformedUpload, err)
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		return nil, fmt.Errorf("%w: no file uploaded", analysis.ErrMalformedUpload)
	}
	defer file.Close()

	if err := analysis.CheckExtension(header.Filename); err != nil {
		return nil, err
	}
	df, err := analysis.LoadCSV(file, header.Filename)
	if err != nil {
		return nil, err
	}
	if err := h.validateTable(df); err != nil {
		return nil, err
	}
	return df, nil
}

func (h *Handler) validateTable(df *state.DataFrame) error {
	return analysis.ValidateSchema(df, h.cfg.Data.CategoryColumn, h.cfg.Data.DateColumn)
}

// storeTable replaces the session's table. Callers hold the session lock.
func (h *Handler) storeTable(sess *state.Session, df *state.DataFrame) {
	sess.SetTable(df)
	h.metrics.ObserveUpload(len(df.Rows))
	h.logger.WithFields(logrus.Fields{
		"session": sess.ID,
		"file":    df.FileName,
		"rows":    len(df.Rows),
		"columns": len(df.Headers),
	}).Info("table loaded")
}

// selectionFromValues reads category, metric, periods and freq. Absent
// fields are filled with defaults from the table and config.
func (h *Handler) selectionFromValues(get func(string) string, df *state.DataFrame) (models.Selection, error) {
	req := models.SelectionRequest{
		Category: get("category"),
		Metric:   get("metric"),
		Freq:     forecast.Freq(strings.TrimSpace(get("freq"))),
	}
	if raw := strings.TrimSpace(get("periods")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return h.withDefaults(models.SelectionRequest{Category: req.Category, Metric: req.Metric, Freq: req.Freq}, df),
				fmt.Errorf("%w: periods must be an integer", models.ErrInvalidSelection)
		}
		req.Periods = &n
	}
	return h.withDefaults(req, df), nil
}

func (h *Handler) withDefaults(req models.SelectionRequest, df *state.DataFrame) models.Selection {
	return req.WithDefaults(h.categories(df), h.cfg.Forecast.Metrics, h.cfg.Forecast.DefaultPeriods)
}

func (h *Handler) categories(df *state.DataFrame) []string {
	if df == nil {
		return nil
	}
	return df.Distinct(h.cfg.Data.CategoryColumn)
}

// run executes the pipeline and makes the result the session's current
// output. Callers hold the session lock.
func (h *Handler) run(r *http.Request, sess *state.Session, sel models.Selection) (*state.Run, error) {
	run, err := h.pipeline.Execute(r.Context(), sess.Table, sel)
	sess.LastRun = run
	return run, err
}
