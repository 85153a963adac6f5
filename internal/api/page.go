package api

import (
	"embed"
	"errors"
	"html/template"
	"net/http"

	"forecast-studio/internal/analysis"
	"forecast-studio/internal/forecast"
	"forecast-studio/internal/models"
	"forecast-studio/internal/render"
	"forecast-studio/internal/service"
	"forecast-studio/internal/state"
)

//go:embed templates/*.html
var templateFS embed.FS

var pageTemplate = template.Must(template.ParseFS(templateFS, "templates/index.html"))

const previewRows = 10

type option struct {
	Value    string
	Label    string
	Selected bool
}

type pageData struct {
	Info  string
	Error string

	FileName   string
	Rows       int
	Headers    []string
	Preview    [][]string
	MaxPeriods int

	Categories []option
	Metrics    []option
	Freqs      []option
	Selection  models.Selection

	Filtered   []forecast.Point
	InputRows  int
	Profile    *models.ColumnProfile
	HasHistory bool
	HasResult  bool
	ChartTitle string
	Version    int64
}

// Page renders the upload form or, once a table is loaded, re-runs the
// pipeline for the selection in the query string and renders the dashboard.
func (h *Handler) Page(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	sess.Lock()
	defer sess.Unlock()

	if sess.Table == nil {
		h.renderPage(w, http.StatusOK, &pageData{Info: msgUploadFirst})
		return
	}

	sel, err := h.selectionFromValues(r.URL.Query().Get, sess.Table)
	if err != nil {
		sess.LastRun = &state.Run{Selection: sel, Err: err}
		data := h.dashboard(sess, sel)
		data.Error = pageMessage(err)
		h.renderPage(w, http.StatusOK, data)
		return
	}

	run, err := h.run(r, sess, sel)
	data := h.dashboard(sess, run.Selection)
	h.fillRun(data, sess.Table, run)
	if err != nil {
		if errors.Is(err, service.ErrNoData) {
			data.Info = pageMessage(err)
		} else {
			data.Error = pageMessage(err)
		}
	}
	h.renderPage(w, http.StatusOK, data)
}

// PageUpload stores the uploaded table and redirects to the dashboard.
func (h *Handler) PageUpload(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	df, err := h.readUpload(w, r)

	sess.Lock()
	defer sess.Unlock()
	if err != nil {
		status, _ := classify(err)
		data := &pageData{Error: pageMessage(err)}
		if sess.Table != nil {
			data = h.dashboard(sess, h.withDefaults(models.SelectionRequest{}, sess.Table))
			data.Error = pageMessage(err)
		}
		h.renderPage(w, status, data)
		return
	}
	h.storeTable(sess, df)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (h *Handler) dashboard(sess *state.Session, sel models.Selection) *pageData {
	df := sess.Table
	data := &pageData{
		FileName:   df.FileName,
		Rows:       len(df.Rows),
		Headers:    df.Headers,
		MaxPeriods: h.cfg.Forecast.MaxPeriods,
		Selection:  sel,
	}

	n := min(previewRows, len(df.Rows))
	for i := 0; i < n; i++ {
		row := make([]string, len(df.Headers))
		for j := range df.Headers {
			row[j] = df.Cell(i, j)
		}
		data.Preview = append(data.Preview, row)
	}

	for _, c := range h.categories(df) {
		data.Categories = append(data.Categories, option{Value: c, Label: c, Selected: c == sel.Category})
	}
	for _, m := range h.cfg.Forecast.Metrics {
		data.Metrics = append(data.Metrics, option{Value: m, Label: m, Selected: m == sel.Metric})
	}
	for _, f := range forecast.Freqs {
		data.Freqs = append(data.Freqs, option{Value: string(f), Label: f.Label(), Selected: f == sel.Freq})
	}
	return data
}

func (h *Handler) fillRun(data *pageData, df *state.DataFrame, run *state.Run) {
	data.InputRows = len(run.Input)
	data.Filtered = run.Input[:min(previewRows, len(run.Input))]
	data.HasHistory = len(run.Input) > 0
	data.HasResult = run.OK()
	data.ChartTitle = render.ForecastTitle(run.Selection.Metric, run.Selection.Category)
	data.Version = run.At.UnixNano()

	if df.HasColumn(run.Selection.Metric) {
		rows := service.MatchingRows(df, h.cfg.Data.CategoryColumn, run.Selection.Category)
		if p, err := analysis.ProfileColumn(df, run.Selection.Metric, rows); err == nil {
			data.Profile = &p
		}
	}
}

func (h *Handler) renderPage(w http.ResponseWriter, status int, data *pageData) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := pageTemplate.Execute(w, data); err != nil {
		h.logger.WithError(err).Error("render page")
	}
}
