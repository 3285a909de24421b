package report

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/joseph-ayodele/hocr-report/constants"
	"github.com/joseph-ayodele/hocr-report/internal/common"
)

// maxNameAttempts bounds the _1, _2, ... suffixes tried when a report name is taken.
const maxNameAttempts = 1000

// FileName returns output_data_<YYYYmmdd_HHMMSS>.<ext>.
func FileName(now time.Time, ext string) string {
	return constants.ReportPrefix + now.Format(constants.ReportTimestampLayout) + "." + ext
}

// Publish writes rows once per writer into dir and returns the created paths.
// Existing files are never overwritten: a taken name gets a numeric suffix.
func Publish(dir string, now time.Time, rows []Row, writers []Writer, logger *slog.Logger) ([]string, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, reportErr("create output dir", err)
	}

	var paths []string
	for _, w := range writers {
		start := time.Now()
		f, path, err := createUnique(dir, FileName(now, w.Ext()))
		if err != nil {
			return paths, reportErr("create report", err)
		}
		if err := w.Write(f, rows); err != nil {
			f.Close()
			return paths, reportErr("write "+path, err)
		}
		if err := f.Close(); err != nil {
			return paths, reportErr("close "+path, err)
		}
		logger.Info("report.write.ok",
			"path", path,
			"format", w.Ext(),
			"rows", len(rows),
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		paths = append(paths, path)
	}
	return paths, nil
}

func createUnique(dir, name string) (*os.File, string, error) {
	ext := filepath.Ext(name)
	stem := name[:len(name)-len(ext)]
	for i := 0; i < maxNameAttempts; i++ {
		candidate := name
		if i > 0 {
			candidate = fmt.Sprintf("%s_%d%s", stem, i, ext)
		}
		path := filepath.Join(dir, candidate)
		f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
		if err == nil {
			return f, path, nil
		}
		if !errors.Is(err, fs.ErrExist) {
			return nil, "", err
		}
	}
	return nil, "", fmt.Errorf("no free name for %s after %d attempts", name, maxNameAttempts)
}

func reportErr(msg string, err error) error {
	return common.NewAppError(common.CodeReport, msg, fmt.Errorf("%w: %v", common.ErrReport, err))
}
