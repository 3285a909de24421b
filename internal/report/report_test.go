package report

import (
	"bytes"
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"
)

func TestTable_SortedByPage(t *testing.T) {
	var tbl Table
	tbl.Add(
		Row{SourceFile: "b.pdf", PageNumber: 3, TextPercentage: 10},
		Row{SourceFile: "a.pdf", PageNumber: 1, TextPercentage: 20},
		Row{SourceFile: "c.pdf", PageNumber: 2, TextPercentage: 30},
		Row{SourceFile: "d.pdf", PageNumber: 1, TextPercentage: 40},
	)

	got := tbl.Sorted()
	pages := []int{got[0].PageNumber, got[1].PageNumber, got[2].PageNumber, got[3].PageNumber}
	if pages[0] != 1 || pages[1] != 1 || pages[2] != 2 || pages[3] != 3 {
		t.Errorf("page order = %v", pages)
	}
	if tbl.Len() != 4 {
		t.Errorf("Len = %d", tbl.Len())
	}
	// Sorted must not reorder the accumulated rows.
	if tbl.rows[0].SourceFile != "b.pdf" {
		t.Error("Sorted mutated the table")
	}
}

func TestFormatPercentage(t *testing.T) {
	tests := map[float64]string{
		88.2:   "88.2",
		97.5:   "97.5",
		50:     "50.0",
		0:      "0.0",
		130.25: "130.25",
		-1.5:   "-1.5",
	}
	for in, want := range tests {
		if got := FormatPercentage(in); got != want {
			t.Errorf("FormatPercentage(%v) = %q, want %q", in, got, want)
		}
	}
}

func TestCSVWriter(t *testing.T) {
	var buf bytes.Buffer
	rows := []Row{{SourceFile: "a.pdf", OutputDir: "temp_dir_a.pdf_20240101000000", PageNumber: 1, TextPercentage: 88.2}}
	if err := (CSVWriter{}).Write(&buf, rows); err != nil {
		t.Fatalf("Write: %v", err)
	}
	recs, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("got %d records, want 2", len(recs))
	}
	if strings.Join(recs[0], ",") != "source file,output dir,page number,text percentage" {
		t.Errorf("header = %v", recs[0])
	}
	if strings.Join(recs[1], ",") != "a.pdf,temp_dir_a.pdf_20240101000000,1,88.2" {
		t.Errorf("row = %v", recs[1])
	}
}

func TestXLSXWriter(t *testing.T) {
	var buf bytes.Buffer
	rows := []Row{
		{SourceFile: "a.pdf", OutputDir: "temp_dir_a", PageNumber: 1, TextPercentage: 88.2},
		{SourceFile: "b.pdf", OutputDir: "temp_dir_b", PageNumber: 2, TextPercentage: 50},
	}
	if err := (XLSXWriter{}).Write(&buf, rows); err != nil {
		t.Fatalf("Write: %v", err)
	}

	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("OpenReader: %v", err)
	}
	defer f.Close()

	got, err := f.GetRows(XLSXSheet)
	if err != nil {
		t.Fatalf("GetRows: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("got %d rows, want 3", len(got))
	}
	if got[0][3] != "text percentage" {
		t.Errorf("header = %v", got[0])
	}
	if got[1][0] != "a.pdf" || got[1][2] != "1" || got[1][3] != "88.2" {
		t.Errorf("row 1 = %v", got[1])
	}
	if got[2][0] != "b.pdf" || got[2][3] != "50" {
		t.Errorf("row 2 = %v", got[2])
	}
}

func TestWritersFor(t *testing.T) {
	ws, err := WritersFor([]string{"csv", ".XLSX"})
	if err != nil {
		t.Fatalf("WritersFor: %v", err)
	}
	if len(ws) != 2 || ws[0].Ext() != "csv" || ws[1].Ext() != "xlsx" {
		t.Errorf("writers = %v", ws)
	}
	if _, err := WritersFor([]string{"pdf"}); err == nil {
		t.Error("expected an error for an unknown format")
	}
}

func TestFileName(t *testing.T) {
	now := time.Date(2024, 3, 9, 14, 5, 7, 0, time.UTC)
	if got, want := FileName(now, "csv"), "output_data_20240309_140507.csv"; got != want {
		t.Errorf("FileName = %q, want %q", got, want)
	}
}

func TestPublish_NeverOverwrites(t *testing.T) {
	dir := t.TempDir()
	now := time.Date(2024, 3, 9, 14, 5, 7, 0, time.UTC)
	rows := []Row{{SourceFile: "a.pdf", OutputDir: "x", PageNumber: 1, TextPercentage: 1}}

	first, err := Publish(dir, now, rows, []Writer{CSVWriter{}}, nil)
	if err != nil {
		t.Fatalf("Publish: %v", err)
	}
	second, err := Publish(dir, now, nil, []Writer{CSVWriter{}}, nil)
	if err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if first[0] == second[0] {
		t.Fatalf("second run reused %s", first[0])
	}
	if filepath.Base(second[0]) != "output_data_20240309_140507_1.csv" {
		t.Errorf("second name = %s", filepath.Base(second[0]))
	}

	b, err := os.ReadFile(first[0])
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(b), "a.pdf") {
		t.Error("first report was overwritten")
	}
}
