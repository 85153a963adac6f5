package forecast

import "time"

// Result is the forecast table: one row per date, ordered columns.
type Result struct {
	DS []time.Time

	names    []string
	cols     map[string][]float64
	seasonal []string
}

func newResult(ds []time.Time) *Result {
	return &Result{
		DS:   ds,
		cols: make(map[string][]float64),
	}
}

func (r *Result) set(name string, values []float64) {
	if _, ok := r.cols[name]; !ok {
		r.names = append(r.names, name)
	}
	r.cols[name] = values
}

// Len returns the number of rows.
func (r *Result) Len() int { return len(r.DS) }

// Columns returns all column names in table order, starting with "ds".
func (r *Result) Columns() []string {
	return append([]string{"ds"}, r.names...)
}

// Column returns the values of a numeric column.
func (r *Result) Column(name string) ([]float64, bool) {
	v, ok := r.cols[name]
	return v, ok
}

// Value returns a single cell of a numeric column, or 0 if absent.
func (r *Result) Value(name string, row int) float64 {
	v, ok := r.cols[name]
	if !ok || row < 0 || row >= len(v) {
		return 0
	}
	return v[row]
}

// Seasonalities returns the seasonal component names in column order.
func (r *Result) Seasonalities() []string {
	return append([]string(nil), r.seasonal...)
}

func (r *Result) YHat() []float64  { return r.cols["yhat"] }
func (r *Result) Lower() []float64 { return r.cols["yhat_lower"] }
func (r *Result) Upper() []float64 { return r.cols["yhat_upper"] }
func (r *Result) Trend() []float64 { return r.cols["trend"] }

// Record returns row i as a column → value map, with ds as a time.Time.
func (r *Result) Record(i int) map[string]any {
	rec := make(map[string]any, len(r.names)+1)
	rec["ds"] = r.DS[i]
	for _, name := range r.names {
		rec[name] = r.cols[name][i]
	}
	return rec
}
