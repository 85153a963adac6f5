package models

// UploadResponse is returned after successful file upload
type UploadResponse struct {
	Message     string   `json:"message"`
	FileName    string   `json:"file_name"`
	Rows        int      `json:"rows"`
	Columns     int      `json:"columns"`
	ColumnNames []string `json:"column_names"`
}

// StatusResponse is returned by /api/status
type StatusResponse struct {
	Loaded      bool       `json:"loaded"`
	FileName    string     `json:"file_name,omitempty"`
	Rows        int        `json:"rows"`
	Columns     int        `json:"columns"`
	HasForecast bool       `json:"has_forecast"`
	Selection   *Selection `json:"selection,omitempty"`
}

// PreviewResponse is returned by /api/preview
type PreviewResponse struct {
	Columns []string            `json:"columns"`
	Rows    int                 `json:"rows"`
	Data    []map[string]string `json:"data"`
}

// ColumnProfile holds quality metrics for a column
type ColumnProfile struct {
	ColumnName    string  `json:"column_name"`
	TotalRows     int     `json:"total_rows"`
	NonNullRows   int     `json:"non_null_rows"`
	NullRate      float64 `json:"null_rate"`
	DistinctCount int     `json:"distinct_count"`
	NumericRows   int     `json:"numeric_rows"`
	NegativeRows  int     `json:"negative_rows"`
	Min           float64 `json:"min"`
	Max           float64 `json:"max"`
	Mean          float64 `json:"mean"`
	StdDev        float64 `json:"std_dev"`
	Entropy       float64 `json:"entropy"`
}

// MetricsResponse lists the allowed metrics and which of them the table has.
type MetricsResponse struct {
	Allowed   []string `json:"allowed"`
	Available []string `json:"available"`
}

// ForecastResponse is returned by /api/forecast
type ForecastResponse struct {
	Selection     Selection                `json:"selection"`
	InputRows     int                      `json:"input_rows"`
	Profile       *ColumnProfile           `json:"profile,omitempty"`
	Columns       []string                 `json:"columns"`
	Seasonalities []string                 `json:"seasonalities"`
	Data          []map[string]interface{} `json:"data"`
	DurationMS    int64                    `json:"duration_ms"`
}

// DBLoadRequest for /api/db/load
type DBLoadRequest struct {
	Host     string `json:"host"`
	Port     int    `json:"port"`
	User     string `json:"user"`
	Password string `json:"password"`
	DBName   string `json:"dbname"`
	SSLMode  string `json:"sslmode"`
	Table    string `json:"table"`
	Limit    int    `json:"limit"`
}

// ErrorResponse is the body of every failed API call.
type ErrorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
}

// CategoriesResponse is returned by /api/categories
type CategoriesResponse struct {
	Column     string   `json:"column"`
	Categories []string `json:"categories"`
}
