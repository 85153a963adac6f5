package service

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/xuri/excelize/v2"

	"forecast-studio/internal/forecast"
)

const (
	// ExportFileName is the download name of the CSV table.
	ExportFileName = "predicciones.csv"
	// ExportWorkbookName is the download name of the XLSX table.
	ExportWorkbookName = "predicciones.xlsx"
	exportSheet        = "predicciones"
)

// ExportCSV writes every column and row of res with a header row and no
// index. Floats use the shortest representation that round-trips.
func ExportCSV(w io.Writer, res *forecast.Result) error {
	if res == nil {
		return fmt.Errorf("nothing to export")
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(res.Columns()); err != nil {
		return err
	}

	layout := dateLayout(res.DS)
	names := res.Columns()[1:]
	record := make([]string, len(names)+1)
	for i := 0; i < res.Len(); i++ {
		record[0] = res.DS[i].Format(layout)
		for j, name := range names {
			record[j+1] = strconv.FormatFloat(res.Value(name, i), 'g', -1, 64)
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// ExportXLSX writes the same table as ExportCSV to a single-sheet workbook.
func ExportXLSX(w io.Writer, res *forecast.Result) error {
	if res == nil {
		return fmt.Errorf("nothing to export")
	}
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", exportSheet); err != nil {
		return err
	}
	sw, err := f.NewStreamWriter(exportSheet)
	if err != nil {
		return err
	}

	columns := res.Columns()
	header := make([]interface{}, len(columns))
	for i, c := range columns {
		header[i] = c
	}
	if err := sw.SetRow("A1", header); err != nil {
		return err
	}

	layout := dateLayout(res.DS)
	row := make([]interface{}, len(columns))
	for i := 0; i < res.Len(); i++ {
		row[0] = res.DS[i].Format(layout)
		for j, name := range columns[1:] {
			row[j+1] = res.Value(name, i)
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := sw.SetRow(cell, row); err != nil {
			return err
		}
	}
	if err := sw.Flush(); err != nil {
		return err
	}
	_, err = f.WriteTo(w)
	return err
}

// dateLayout is a plain date unless any timestamp carries a time of day.
func dateLayout(ds []time.Time) string {
	for _, d := range ds {
		h, m, s := d.Clock()
		if h != 0 || m != 0 || s != 0 || d.Nanosecond() != 0 {
			return time.RFC3339
		}
	}
	return "2006-01-02"
}
