package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"time"

	"github.com/lib/pq"

	"forecast-studio/internal/state"
)

// ErrUnknownTable is returned when a table is not in the public schema.
var ErrUnknownTable = errors.New("table not found")

// DataSourceConfig holds connection details
type DataSourceConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string // "disable", "require"
}

// DSN renders the config as a lib/pq connection string.
func (c DataSourceConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}

// DataSource defines the interface for data sources
type DataSource interface {
	Close() error
	ListTables(ctx context.Context) ([]string, error)
	LoadTable(ctx context.Context, table string, limit int) (*state.DataFrame, error)
}

// PostgresDataSource implements DataSource for PostgreSQL
type PostgresDataSource struct {
	db *sql.DB
}

// NewPostgresDataSource wraps an open database handle.
func NewPostgresDataSource(db *sql.DB) *PostgresDataSource {
	return &PostgresDataSource{db: db}
}

// ConnectPostgres opens and pings a connection.
func ConnectPostgres(ctx context.Context, config DataSourceConfig) (*PostgresDataSource, error) {
	db, err := sql.Open("postgres", config.DSN())
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	return &PostgresDataSource{db: db}, nil
}

func (p *PostgresDataSource) Close() error {
	if p.db != nil {
		return p.db.Close()
	}
	return nil
}

func (p *PostgresDataSource) ListTables(ctx context.Context) ([]string, error) {
	query := `
		SELECT table_name
		FROM information_schema.tables
		WHERE table_schema = 'public'
		ORDER BY table_name;
	`
	rows, err := p.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tables []string
	for rows.Next() {
		var tableName string
		if err := rows.Scan(&tableName); err != nil {
			return nil, err
		}
		tables = append(tables, tableName)
	}
	return tables, rows.Err()
}

// LoadTable reads up to limit rows of a public table into a DataFrame.
// The table name must appear in ListTables.
func (p *PostgresDataSource) LoadTable(ctx context.Context, table string, limit int) (*state.DataFrame, error) {
	tables, err := p.ListTables(ctx)
	if err != nil {
		return nil, err
	}
	if !slices.Contains(tables, table) {
		return nil, fmt.Errorf("%w: %q", ErrUnknownTable, table)
	}

	query := fmt.Sprintf("SELECT * FROM %s LIMIT %d", pq.QuoteIdentifier(table), limit)
	rows, err := p.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	df := &state.DataFrame{
		Headers:  columns,
		Rows:     [][]string{},
		FileName: table,
		LoadedAt: time.Now(),
	}
	for rows.Next() {
		values := make([]interface{}, len(columns))
		valuePtrs := make([]interface{}, len(columns))
		for i := range values {
			valuePtrs[i] = &values[i]
		}
		if err := rows.Scan(valuePtrs...); err != nil {
			return nil, err
		}

		record := make([]string, len(columns))
		for i, val := range values {
			record[i] = cellString(val)
		}
		df.Rows = append(df.Rows, record)
	}
	return df, rows.Err()
}

// cellString renders a scanned value the way it would appear in a CSV.
func cellString(val interface{}) string {
	switch v := val.(type) {
	case nil:
		return ""
	case []byte:
		// Handle byte slices (common for strings in DB drivers)
		return string(v)
	case string:
		return v
	case int64:
		return strconv.FormatInt(v, 10)
	case float64:
		return strconv.FormatFloat(v, 'g', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	case time.Time:
		if h, m, s := v.Clock(); h == 0 && m == 0 && s == 0 && v.Nanosecond() == 0 {
			return v.Format("2006-01-02")
		}
		return v.UTC().Format(time.RFC3339)
	default:
		return fmt.Sprint(v)
	}
}
