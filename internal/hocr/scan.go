package hocr

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/joseph-ayodele/hocr-report/constants"
	"github.com/joseph-ayodele/hocr-report/internal/common"
)

// Page is one hOCR report that yielded both a page number and a confidence.
type Page struct {
	Path       string
	Name       string
	PageNumber int
	Confidence float64
}

// ScanStats counts what a scan saw.
type ScanStats struct {
	Files   uint32 // regular files walked
	Reports uint32 // files carrying the report suffix
	Matched uint32 // reports with both values
	Missed  uint32 // reports skipped for a missing value
}

// Scanner walks expanded conversion output for hOCR reports.
type Scanner struct {
	logger *slog.Logger
}

func NewScanner(logger *slog.Logger) *Scanner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scanner{logger: logger}
}

// IsReport reports whether name carries the hOCR report suffix.
func IsReport(name string) bool {
	return strings.HasSuffix(name, constants.ReportSuffix)
}

// Scan walks root in lexical order and returns every report with both a page
// number and a confidence. Reports missing either are logged and skipped.
func (s *Scanner) Scan(ctx context.Context, root string) ([]Page, ScanStats, error) {
	var pages []Page
	var stats ScanStats
	logger := s.logger.With(common.LogAttrs(ctx)...)

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		stats.Files++
		name := d.Name()
		if !IsReport(name) {
			return nil
		}
		stats.Reports++

		page, miss := pageNumber(name)
		if miss != MissNone {
			stats.Missed++
			logger.Info("hocr.scan.miss", "file", name, "reason", string(miss))
			return nil
		}
		conf, miss, err := confidenceFile(path)
		if err != nil {
			return fmt.Errorf("read %s: %w", name, err)
		}
		if miss != MissNone {
			stats.Missed++
			logger.Info("hocr.scan.miss", "file", name, "reason", string(miss))
			return nil
		}

		stats.Matched++
		logger.Debug("hocr.scan.page", "file", name, "page", page, "confidence", conf)
		pages = append(pages, Page{Path: path, Name: name, PageNumber: page, Confidence: conf})
		return nil
	})
	if err != nil {
		return pages, stats, fmt.Errorf("scan %s: %w", root, err)
	}
	return pages, stats, nil
}
