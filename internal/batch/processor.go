package batch

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/hocr-report/constants"
	"github.com/joseph-ayodele/hocr-report/internal/archive"
	"github.com/joseph-ayodele/hocr-report/internal/common"
	"github.com/joseph-ayodele/hocr-report/internal/convert"
	"github.com/joseph-ayodele/hocr-report/internal/hocr"
	"github.com/joseph-ayodele/hocr-report/internal/ledger"
	"github.com/joseph-ayodele/hocr-report/internal/report"
	"github.com/joseph-ayodele/hocr-report/internal/workspace"
)

// Submitter uploads one document and returns the conversion archive.
type Submitter interface {
	Submit(ctx context.Context, path string) (convert.Payload, error)
}

// Recorder persists a finished run. Optional.
type Recorder interface {
	RecordRun(ctx context.Context, run ledger.Run, rows []report.Row) error
}

type Config struct {
	SourceDir   string
	OutputDir   string
	ScratchDir  string
	KeepScratch bool
	Writers     []report.Writer
	Now         func() time.Time // defaults to time.Now
}

// WorkItem is the processing context of one input file.
type WorkItem struct {
	SourcePath string
	Scratch    *workspace.Scratch
	Files      []string // expanded archive contents
}

// FileResult is the outcome for one input file.
type FileResult struct {
	SourceFile string
	ScratchID  string
	Status     constants.FileStatus
	HTTPStatus int
	Rows       int
	Scan       hocr.ScanStats
	Err        string
}

// Summary describes a finished run.
type Summary struct {
	RunID       string
	StartedAt   time.Time
	FinishedAt  time.Time
	Scanned     int // regular files found in the source dir
	Submitted   int
	Skipped     int
	Files       []FileResult
	Rows        []report.Row // page ordered
	ReportPaths []string
}

// Processor runs submit -> expand -> scan -> aggregate for every file in a directory, one at a time.
type Processor struct {
	logger    *slog.Logger
	submitter Submitter
	scanner   *hocr.Scanner
	recorder  Recorder
	cfg       Config
}

func NewProcessor(logger *slog.Logger, submitter Submitter, recorder Recorder, cfg Config) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if len(cfg.Writers) == 0 {
		cfg.Writers = []report.Writer{report.CSVWriter{}}
	}
	return &Processor{
		logger:    logger,
		submitter: submitter,
		scanner:   hocr.NewScanner(logger),
		recorder:  recorder,
		cfg:       cfg,
	}
}

// Run processes every regular file directly inside the source directory and
// publishes the page-ordered report. A non-2xx conversion answer skips the
// file; any other failure stops the run.
func (p *Processor) Run(ctx context.Context) (*Summary, error) {
	sum := &Summary{RunID: uuid.New().String(), StartedAt: p.cfg.Now()}
	ctx = common.WithRunID(ctx, sum.RunID)
	logger := p.logger.With(common.LogAttrs(ctx)...)

	inputs, err := listInputs(p.cfg.SourceDir)
	if err != nil {
		logger.Error("batch.source.unavailable", "dir", p.cfg.SourceDir, "error", err)
		return sum, err
	}
	sum.Scanned = len(inputs)
	logger.Info("batch.run.start", "dir", p.cfg.SourceDir, "files", len(inputs))

	var table report.Table
	for _, path := range inputs {
		res, rows, err := p.ProcessFile(ctx, path)
		sum.Files = append(sum.Files, res)
		if err != nil {
			logger.Error("batch.file.failed", "file", res.SourceFile, "error", err)
			return sum, err
		}
		if res.Status == constants.FileStatusSkipped {
			sum.Skipped++
		} else {
			sum.Submitted++
		}
		table.Add(rows...)
	}

	sum.Rows = table.Sorted()
	sum.ReportPaths, err = report.Publish(p.cfg.OutputDir, p.cfg.Now(), sum.Rows, p.cfg.Writers, logger)
	if err != nil {
		return sum, err
	}
	sum.FinishedAt = p.cfg.Now()

	if p.recorder != nil {
		run := ledger.Run{
			ID:           sum.RunID,
			StartedAt:    sum.StartedAt,
			FinishedAt:   sum.FinishedAt,
			SourceDir:    p.cfg.SourceDir,
			ReportPaths:  sum.ReportPaths,
			FilesScanned: sum.Scanned,
			FilesSkipped: sum.Skipped,
		}
		// the report is already on disk; a ledger failure only loses history
		if err := p.recorder.RecordRun(ctx, run, sum.Rows); err != nil {
			logger.Warn("batch.ledger.record_failed", "error", err)
		}
	}

	logger.Info("batch.run.complete",
		"scanned", sum.Scanned,
		"submitted", sum.Submitted,
		"skipped", sum.Skipped,
		"rows", len(sum.Rows),
		"reports", sum.ReportPaths,
		"elapsed_ms", sum.FinishedAt.Sub(sum.StartedAt).Milliseconds(),
	)
	return sum, nil
}

// ProcessFile converts one document and returns its page rows. The scratch
// directory is released on every return path.
func (p *Processor) ProcessFile(ctx context.Context, path string) (FileResult, []report.Row, error) {
	name := filepath.Base(path)
	ctx = common.WithSourceFile(ctx, name)
	logger := p.logger.With(common.LogAttrs(ctx)...)
	res := FileResult{SourceFile: name}

	logger.Info("batch.file.start", "path", path)

	scratch, err := workspace.New(p.cfg.ScratchDir, name, p.cfg.Now(), p.cfg.KeepScratch, logger)
	if err != nil {
		return res, nil, err
	}
	defer scratch.Cleanup()
	item := WorkItem{SourcePath: path, Scratch: scratch}
	res.ScratchID = scratch.ID

	payload, err := p.submitter.Submit(ctx, item.SourcePath)
	if err != nil {
		if common.IsSkippable(err) {
			res.Status = constants.FileStatusSkipped
			res.HTTPStatus, _ = convert.IsStatus(err)
			res.Err = err.Error()
			logger.Warn("batch.file.skipped", "status", res.HTTPStatus, "error", err)
			return res, nil, nil
		}
		return res, nil, err
	}
	res.HTTPStatus = payload.Status

	zipPath, err := archive.Save(scratch.Path, payload.Body)
	if err != nil {
		return res, nil, err
	}
	item.Files, err = archive.Expand(zipPath, scratch.Path)
	if err != nil {
		return res, nil, err
	}
	logger.Debug("batch.file.expanded", "scratch", scratch.Path, "files", len(item.Files))

	pages, stats, err := p.scanner.Scan(ctx, scratch.Path)
	res.Scan = stats
	if err != nil {
		return res, nil, fmt.Errorf("scan output of %s: %w", name, err)
	}

	rows := make([]report.Row, 0, len(pages))
	for _, pg := range pages {
		rows = append(rows, report.Row{
			SourceFile:     name,
			OutputDir:      scratch.ID,
			PageNumber:     pg.PageNumber,
			TextPercentage: pg.Confidence,
		})
	}
	res.Rows = len(rows)
	res.Status = constants.FileStatusOK
	if len(rows) == 0 {
		res.Status = constants.FileStatusNoReports
	}

	logger.Info("batch.file.done",
		"status", res.Status,
		"scratch_id", scratch.ID,
		"scratch_kept", scratch.Kept(),
		"reports", stats.Reports,
		"rows", len(rows),
	)
	return res, rows, nil
}

// listInputs returns the regular files directly inside dir, in name order.
// Symlinks are followed; subdirectories are ignored.
func listInputs(dir string) ([]string, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, common.NewAppError(common.CodeSource, dir, fmt.Errorf("%w: %v", common.ErrSourceDir, err))
	}
	if !info.IsDir() {
		return nil, common.NewAppError(common.CodeSource, dir, fmt.Errorf("%w: not a directory", common.ErrSourceDir))
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, common.NewAppError(common.CodeSource, dir, fmt.Errorf("%w: %v", common.ErrSourceDir, err))
	}

	var out []string
	for _, e := range entries {
		path := filepath.Join(dir, e.Name())
		st, err := os.Stat(path)
		if err != nil || !st.Mode().IsRegular() {
			continue
		}
		out = append(out, path)
	}
	return out, nil
}
