package common

import (
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/joseph-ayodele/hocr-report/constants"
)

// Config holds all application configuration
type Config struct {
	Convert ConvertConfig
	Paths   PathsConfig
	Report  ReportConfig
	Ledger  LedgerConfig
	Log     LogConfig
}

// ConvertConfig holds conversion-service configuration
type ConvertConfig struct {
	EndpointURL string
	Timeout     time.Duration // 0 disables the client timeout
}

// PathsConfig holds the directories a run reads from and writes to
type PathsConfig struct {
	SourceDir   string
	OutputDir   string
	ScratchDir  string
	KeepScratch bool
}

// ReportConfig selects the report formats written per run
type ReportConfig struct {
	Formats []string
}

// LedgerConfig holds run-ledger configuration; an empty DSN disables it
type LedgerConfig struct {
	DSN             string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
	DialTimeout     time.Duration
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level string
}

// Defaults
const (
	DefaultEndpointURL = "http://localhost:9901/pdfbox-utilities/convert"
	DefaultSourceDir   = "src/test/results"
	DefaultTimeout     = 5 * time.Minute
)

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	return &Config{
		Convert: ConvertConfig{
			EndpointURL: getEnv("CONVERT_ENDPOINT_URL", DefaultEndpointURL),
			Timeout:     getEnvAsDuration("CONVERT_TIMEOUT", DefaultTimeout),
		},
		Paths: PathsConfig{
			SourceDir:   getEnv("SOURCE_DIR", DefaultSourceDir),
			OutputDir:   getEnv("OUTPUT_DIR", "."),
			ScratchDir:  getEnv("SCRATCH_DIR", "."),
			KeepScratch: getEnvAsBool("KEEP_SCRATCH", false),
		},
		Report: ReportConfig{
			Formats: getEnvAsList("REPORT_FORMATS", []string{constants.FormatCSV}),
		},
		Ledger: LedgerConfig{
			DSN:             getEnv("LEDGER_DSN", ""),
			MaxConns:        getEnvAsInt32("LEDGER_MAX_CONNS", 4),
			MinConns:        getEnvAsInt32("LEDGER_MIN_CONNS", 0),
			MaxConnLifetime: getEnvAsDuration("LEDGER_MAX_CONN_LIFETIME", 30*time.Minute),
			DialTimeout:     getEnvAsDuration("LEDGER_DIAL_TIMEOUT", 3*time.Second),
		},
		Log: LogConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
	}
}

// LoadDotEnv loads the given .env files into the process environment.
// Missing files are ignored; variables already set are never overridden.
func LoadDotEnv(paths ...string) error {
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return WrapError(err, "load "+p)
		}
	}
	return nil
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt32(key string, defaultValue int32) int32 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 32); err == nil {
			return int32(intVal)
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getEnvAsList(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		if list := SplitList(value); len(list) > 0 {
			return list
		}
	}
	return defaultValue
}

// SplitList splits a comma separated value, dropping blanks and lowercasing entries.
func SplitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		part = strings.ToLower(strings.TrimSpace(part))
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

// SlogLevel maps Log.Level onto a slog.Level, defaulting to info.
func (c *Config) SlogLevel() slog.Level {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(c.Log.Level)); err != nil {
		return slog.LevelInfo
	}
	return lvl
}

// Validate validates the loaded configuration
func (c *Config) Validate() error {
	v := NewValidator()
	v.Field("convert.endpoint_url", c.Convert.EndpointURL, Required, HTTPURL)
	v.Field("convert.timeout", c.Convert.Timeout, NonNegativeDuration)
	v.Field("paths.source_dir", c.Paths.SourceDir, Required)
	v.Field("paths.output_dir", c.Paths.OutputDir, Required)
	v.Field("paths.scratch_dir", c.Paths.ScratchDir, Required)
	v.Field("report.formats", c.Report.Formats, Required, OneOf(constants.FormatCSV, constants.FormatXLSX))
	v.Field("log.level", c.Log.Level, OneOf("debug", "info", "warn", "error"))
	return v.Error()
}
