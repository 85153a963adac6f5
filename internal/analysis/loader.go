package analysis

import (
	"bytes"
	"encoding/csv"
	"errors"
	"io"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"forecast-studio/internal/state"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// CheckExtension rejects file names that do not end in .csv.
func CheckExtension(name string) error {
	if !strings.EqualFold(filepath.Ext(name), ".csv") {
		return ErrNotCSV
	}
	return nil
}

// LoadCSV parses delimited text with a header row into a DataFrame.
// Semicolons are used as the separator when the header has no comma.
func LoadCSV(r io.Reader, name string) (*state.DataFrame, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, malformed("read: %v", err)
	}
	data = bytes.TrimPrefix(data, utf8BOM)
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, malformed("file is empty")
	}
	if bytes.IndexByte(data, 0) >= 0 || !utf8.Valid(data) {
		return nil, malformed("file is not UTF-8 text")
	}

	reader := csv.NewReader(bytes.NewReader(data))
	reader.Comma = detectSeparator(data)
	reader.FieldsPerRecord = -1 // Allow variable fields
	reader.LazyQuotes = true

	headers, err := reader.Read()
	if err != nil {
		return nil, malformed("failed to read headers: %v", err)
	}

	// Clean headers
	blank := true
	for i, h := range headers {
		headers[i] = strings.TrimSpace(h)
		if headers[i] != "" {
			blank = false
		}
	}
	if blank {
		return nil, malformed("header row is empty")
	}

	rows := [][]string{}
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, malformed("%v", err)
		}
		if len(record) == 1 && strings.TrimSpace(record[0]) == "" {
			continue
		}
		rows = append(rows, record)
	}

	return &state.DataFrame{
		Headers:  headers,
		Rows:     rows,
		FileName: name,
		LoadedAt: time.Now(),
	}, nil
}

func detectSeparator(data []byte) rune {
	line := data
	if i := bytes.IndexByte(data, '\n'); i >= 0 {
		line = data[:i]
	}
	if !bytes.ContainsRune(line, ',') && bytes.ContainsRune(line, ';') {
		return ';'
	}
	return ','
}

// ValidateSchema returns a *MissingColumnError for the first required
// column not present in df.
func ValidateSchema(df *state.DataFrame, required ...string) error {
	for _, col := range required {
		if !df.HasColumn(col) {
			return &MissingColumnError{Column: col}
		}
	}
	return nil
}
