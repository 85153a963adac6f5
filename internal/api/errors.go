package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"forecast-studio/internal/analysis"
	"forecast-studio/internal/forecast"
	"forecast-studio/internal/models"
	"forecast-studio/internal/service"
)

const (
	msgUploadFirst = "Sube un archivo CSV para empezar."
	msgNoData      = "No se encontraron datos para esta combinación de industria y columna."
)

// classify maps an error to its HTTP status and a stable kind string.
func classify(err error) (int, string) {
	var (
		maxBytes   *http.MaxBytesError
		missing    *analysis.MissingColumnError
		invalidVal *service.InvalidValueError
		dateErr    *service.DateParseError
		fitErr     *forecast.FitError
	)
	switch {
	case errors.As(err, &maxBytes):
		return http.StatusRequestEntityTooLarge, "too_large"
	case errors.Is(err, analysis.ErrNotCSV):
		return http.StatusBadRequest, "not_csv"
	case errors.Is(err, analysis.ErrMalformedUpload):
		return http.StatusBadRequest, "malformed_upload"
	case errors.As(err, &missing):
		return http.StatusUnprocessableEntity, "missing_column"
	case errors.As(err, &invalidVal):
		return http.StatusUnprocessableEntity, "invalid_value"
	case errors.As(err, &dateErr):
		return http.StatusUnprocessableEntity, "invalid_date"
	case errors.Is(err, service.ErrNoData):
		return http.StatusNotFound, "no_data"
	case errors.As(err, &fitErr), errors.Is(err, forecast.ErrNotFitted):
		return http.StatusUnprocessableEntity, "forecast_failed"
	case errors.Is(err, models.ErrInvalidSelection), errors.Is(err, service.ErrUnknownMetric):
		return http.StatusBadRequest, "invalid_selection"
	case errors.Is(err, service.ErrNoTable):
		return http.StatusConflict, "no_file"
	case errors.Is(err, service.ErrUnknownTable):
		return http.StatusNotFound, "unknown_table"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable, "cancelled"
	}
	return http.StatusInternalServerError, "internal"
}

// pageMessage is the inline text shown on the dashboard for err.
func pageMessage(err error) string {
	var (
		missing *analysis.MissingColumnError
		fitErr  *forecast.FitError
	)
	switch {
	case errors.Is(err, service.ErrNoTable):
		return msgUploadFirst
	case errors.Is(err, service.ErrNoData):
		return msgNoData
	case errors.As(err, &missing):
		return fmt.Sprintf("Falta la columna requerida %q en el archivo.", missing.Column)
	case errors.Is(err, analysis.ErrNotCSV):
		return "Solo se aceptan archivos .csv."
	case errors.Is(err, analysis.ErrMalformedUpload):
		return fmt.Sprintf("No se pudo leer el archivo: %v", err)
	case errors.As(err, &fitErr):
		return fmt.Sprintf("No se pudo generar la predicción: %v", fitErr.Err)
	}
	return fmt.Sprintf("Error: %v", err)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, kind := classify(err)
	entry := h.logger.WithError(err).WithField("kind", kind).WithField("path", r.URL.Path)
	if status >= http.StatusInternalServerError {
		entry.Error("request failed")
	} else {
		entry.Debug("request rejected")
	}
	writeJSON(w, status, models.ErrorResponse{Error: err.Error(), Kind: kind})
}
