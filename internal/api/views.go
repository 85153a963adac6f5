package api

import (
	"bytes"
	"fmt"
	"io"
	"net/http"

	"forecast-studio/internal/render"
	"forecast-studio/internal/service"
	"forecast-studio/internal/state"
)

// currentRun returns the session's latest run when it has a history, and
// with a forecast when needResult is set.
func currentRun(r *http.Request, needResult bool) (*state.Run, bool) {
	sess := sessionFrom(r)
	sess.Lock()
	defer sess.Unlock()

	run := sess.LastRun
	if run == nil || len(run.Input) == 0 {
		return nil, false
	}
	if needResult && !run.OK() {
		return nil, false
	}
	return run, true
}

// serve renders into a buffer first so a failed render becomes a 500
// instead of a truncated body.
func (h *Handler) serve(w http.ResponseWriter, contentType string, headers map[string]string, fn func(io.Writer) error) {
	var buf bytes.Buffer
	if err := fn(&buf); err != nil {
		h.logger.WithError(err).Error("render failed")
		http.Error(w, "render failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", contentType)
	for k, v := range headers {
		w.Header().Set(k, v)
	}
	w.Write(buf.Bytes())
}

func (h *Handler) HistoryChart(w http.ResponseWriter, r *http.Request) {
	run, ok := currentRun(r, false)
	if !ok {
		http.Error(w, msgNoData, http.StatusNotFound)
		return
	}
	h.serve(w, "text/html; charset=utf-8", nil, func(out io.Writer) error {
		return render.History(out, run.Input, run.Selection.Metric)
	})
}

func (h *Handler) ForecastChart(w http.ResponseWriter, r *http.Request) {
	run, ok := currentRun(r, true)
	if !ok {
		http.Error(w, "no forecast available", http.StatusNotFound)
		return
	}
	h.serve(w, "text/html; charset=utf-8", nil, func(out io.Writer) error {
		return render.Forecast(out, run.Input, run.Result, run.Selection.Metric, run.Selection.Category)
	})
}

func (h *Handler) ComponentsImage(w http.ResponseWriter, r *http.Request) {
	run, ok := currentRun(r, true)
	if !ok {
		http.Error(w, "no forecast available", http.StatusNotFound)
		return
	}
	h.serve(w, "image/png", nil, func(out io.Writer) error {
		return render.Components(out, run.Components)
	})
}

func (h *Handler) DownloadCSV(w http.ResponseWriter, r *http.Request) {
	run, ok := currentRun(r, true)
	if !ok {
		http.Error(w, "no forecast available", http.StatusNotFound)
		return
	}
	h.serve(w, "text/csv; charset=utf-8", attachment(service.ExportFileName), func(out io.Writer) error {
		return service.ExportCSV(out, run.Result)
	})
}

func (h *Handler) DownloadXLSX(w http.ResponseWriter, r *http.Request) {
	run, ok := currentRun(r, true)
	if !ok {
		http.Error(w, "no forecast available", http.StatusNotFound)
		return
	}
	contentType := "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	h.serve(w, contentType, attachment(service.ExportWorkbookName), func(out io.Writer) error {
		return service.ExportXLSX(out, run.Result)
	})
}

func attachment(name string) map[string]string {
	return map[string]string{"Content-Disposition": fmt.Sprintf("attachment; filename=%q", name)}
}
