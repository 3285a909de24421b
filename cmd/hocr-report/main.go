package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joseph-ayodele/hocr-report/internal/batch"
	"github.com/joseph-ayodele/hocr-report/internal/common"
	"github.com/joseph-ayodele/hocr-report/internal/convert"
	"github.com/joseph-ayodele/hocr-report/internal/ledger"
	"github.com/joseph-ayodele/hocr-report/internal/report"
)

// printError prints an error message to stderr, falling back to stdout if stderr fails
func printError(format string, args ...interface{}) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		fmt.Printf(format, args...)
	}
}

func main() {
	// Parse CLI flags
	var (
		dir         = flag.String("dir", "", "directory holding the documents to convert")
		out         = flag.String("out", "", "directory the report is written to")
		endpoint    = flag.String("endpoint", "", "conversion service URL")
		configPath  = flag.String("config", "", "optional JSON config file")
		formats     = flag.String("format", "", "report formats, comma separated (csv,xlsx)")
		keepScratch = flag.Bool("keep-scratch", false, "keep per-file scratch directories")
		timeout     = flag.Duration("timeout", 0, "per-request timeout for the conversion service")
	)
	flag.Parse()
	if flag.NArg() > 0 {
		printError("Error: unexpected arguments: %v\n", flag.Args())
		flag.Usage()
		os.Exit(2)
	}

	if err := common.LoadDotEnv(".env"); err != nil {
		printError("Error: %v\n", err)
		os.Exit(2)
	}
	cfg := common.LoadConfig()
	if *configPath != "" {
		if err := cfg.ApplyFile(*configPath); err != nil {
			printError("Error: %v\n", err)
			os.Exit(2)
		}
	}

	// Flags win over env and file, but only when given explicitly
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "dir":
			cfg.Paths.SourceDir = *dir
		case "out":
			cfg.Paths.OutputDir = *out
		case "endpoint":
			cfg.Convert.EndpointURL = *endpoint
		case "format":
			cfg.Report.Formats = common.SplitList(*formats)
		case "keep-scratch":
			cfg.Paths.KeepScratch = *keepScratch
		case "timeout":
			cfg.Convert.Timeout = *timeout
		}
	})
	if err := cfg.Validate(); err != nil {
		printError("Error: %v\n", err)
		os.Exit(2)
	}

	// Setup logger
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.SlogLevel(),
	}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	writers, err := report.WritersFor(cfg.Report.Formats)
	if err != nil {
		logger.Error("invalid report formats", "error", err)
		os.Exit(2)
	}

	client := convert.NewClient(convert.Config{
		EndpointURL: cfg.Convert.EndpointURL,
		Timeout:     cfg.Convert.Timeout,
	}, logger)

	// The ledger is optional; a nil Recorder disables it
	var recorder batch.Recorder
	if cfg.Ledger.DSN != "" {
		store, err := ledger.Open(ctx, ledger.Config{
			DSN:             cfg.Ledger.DSN,
			MaxConns:        cfg.Ledger.MaxConns,
			MinConns:        cfg.Ledger.MinConns,
			MaxConnLifetime: cfg.Ledger.MaxConnLifetime,
			DialTimeout:     cfg.Ledger.DialTimeout,
		}, logger)
		if err != nil {
			logger.Error("failed to open ledger", "error", err)
			os.Exit(1)
		}
		defer store.Close()
		if err := store.Migrate(ctx); err != nil {
			logger.Error("failed to migrate ledger", "error", err)
			os.Exit(1)
		}
		recorder = store
	}

	processor := batch.NewProcessor(logger, client, recorder, batch.Config{
		SourceDir:   cfg.Paths.SourceDir,
		OutputDir:   cfg.Paths.OutputDir,
		ScratchDir:  cfg.Paths.ScratchDir,
		KeepScratch: cfg.Paths.KeepScratch,
		Writers:     writers,
	})

	logger.Info("starting batch",
		"dir", cfg.Paths.SourceDir,
		"endpoint", client.Endpoint(),
		"formats", cfg.Report.Formats,
		"ledger", recorder != nil)

	sum, err := processor.Run(ctx)
	if err != nil {
		logger.Error("batch failed", "error", err)
		if sum != nil {
			printError("Batch failed after %d of %d files: %v\n", len(sum.Files), sum.Scanned, err)
		}
		os.Exit(1)
	}

	fmt.Printf("Batch processing complete!\n")
	fmt.Printf("- Run: %s\n", sum.RunID)
	fmt.Printf("- Files scanned: %d\n", sum.Scanned)
	fmt.Printf("- Files converted: %d\n", sum.Submitted)
	fmt.Printf("- Files skipped: %d\n", sum.Skipped)
	fmt.Printf("- Pages reported: %d\n", len(sum.Rows))
	fmt.Printf("- Elapsed: %s\n", sum.FinishedAt.Sub(sum.StartedAt).Round(time.Millisecond))
	for _, p := range sum.ReportPaths {
		fmt.Printf("- Output: %s\n", p)
	}
}
