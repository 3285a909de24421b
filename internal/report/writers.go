package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/hocr-report/constants"
)

// Writer renders rows in one output format.
type Writer interface {
	Ext() string
	Write(w io.Writer, rows []Row) error
}

// WritersFor maps format names onto writers.
func WritersFor(formats []string) ([]Writer, error) {
	var out []Writer
	for _, f := range formats {
		switch constants.NormalizeExt(f) {
		case constants.FormatCSV:
			out = append(out, CSVWriter{})
		case constants.FormatXLSX:
			out = append(out, XLSXWriter{})
		default:
			return nil, fmt.Errorf("unknown report format %q", f)
		}
	}
	return out, nil
}

// FormatPercentage renders a confidence with the fewest digits that round-trip,
// keeping a ".0" on whole numbers so the column always reads as a decimal.
func FormatPercentage(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if math.IsInf(v, 0) || math.IsNaN(v) || strings.Contains(s, ".") {
		return s
	}
	return s + ".0"
}

// CSVWriter writes comma separated values with the fixed header.
type CSVWriter struct{}

func (CSVWriter) Ext() string { return constants.FormatCSV }

func (CSVWriter) Write(w io.Writer, rows []Row) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("csv header: %w", err)
	}
	for _, r := range rows {
		rec := []string{r.SourceFile, r.OutputDir, strconv.Itoa(r.PageNumber), FormatPercentage(r.TextPercentage)}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("csv row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// XLSXSheet names the worksheet holding the report.
const XLSXSheet = "Pages"

// XLSXWriter writes a single-sheet workbook with the fixed header and numeric cells.
type XLSXWriter struct{}

func (XLSXWriter) Ext() string { return constants.FormatXLSX }

func (XLSXWriter) Write(w io.Writer, rows []Row) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", XLSXSheet); err != nil {
		return fmt.Errorf("xlsx sheet: %w", err)
	}
	for i, h := range Header {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(XLSXSheet, cell, h)
	}

	row := 2
	for _, r := range rows {
		write := func(col int, v any) {
			cell, _ := excelize.CoordinatesToCellName(col, row)
			_ = f.SetCellValue(XLSXSheet, cell, v)
		}
		write(1, r.SourceFile)
		write(2, r.OutputDir)
		write(3, r.PageNumber)
		write(4, r.TextPercentage)
		row++
	}

	_ = f.SetColWidth(XLSXSheet, "A", "A", 32) // source
	_ = f.SetColWidth(XLSXSheet, "B", "B", 48) // scratch id
	_ = f.SetColWidth(XLSXSheet, "C", "D", 16)

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("xlsx write: %w", err)
	}
	return nil
}
