package main

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/joseph-ayodele/hocr-report/internal/hocr"
	"github.com/joseph-ayodele/hocr-report/internal/report"
)

// hocrscan reads the page rows out of an already-expanded conversion directory.
func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if len(os.Args) != 2 {
		logger.Error("usage", "cmd", "hocrscan <expanded-dir>")
		os.Exit(2)
	}
	root := os.Args[1]

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	start := time.Now()
	pages, stats, err := hocr.NewScanner(logger).Scan(ctx, root)
	dur := time.Since(start)
	if err != nil {
		logger.Error("scan failed", "dir", root, "error", err, "duration_ms", dur.Milliseconds())
		os.Exit(1)
	}

	var table report.Table
	for _, pg := range pages {
		table.Add(report.Row{
			SourceFile:     pg.Name,
			OutputDir:      filepath.Base(root),
			PageNumber:     pg.PageNumber,
			TextPercentage: pg.Confidence,
		})
	}
	if err := (report.CSVWriter{}).Write(os.Stdout, table.Sorted()); err != nil {
		logger.Error("write rows", "error", err)
		os.Exit(1)
	}

	logger.Info("scan OK",
		"dir", root,
		"files", stats.Files,
		"reports", stats.Reports,
		"matched", stats.Matched,
		"missed", stats.Missed,
		"duration_ms", dur.Milliseconds())
}
