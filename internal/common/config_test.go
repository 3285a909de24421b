package common

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"
)

func TestLoadConfig_Defaults(t *testing.T) {
	for _, k := range []string{"CONVERT_ENDPOINT_URL", "CONVERT_TIMEOUT", "SOURCE_DIR", "OUTPUT_DIR", "SCRATCH_DIR", "KEEP_SCRATCH", "REPORT_FORMATS", "LEDGER_DSN", "LOG_LEVEL"} {
		t.Setenv(k, "")
	}
	cfg := LoadConfig()

	if cfg.Convert.EndpointURL != DefaultEndpointURL {
		t.Errorf("endpoint = %q", cfg.Convert.EndpointURL)
	}
	if cfg.Convert.Timeout != DefaultTimeout {
		t.Errorf("timeout = %s", cfg.Convert.Timeout)
	}
	if cfg.Paths.SourceDir != DefaultSourceDir || cfg.Paths.OutputDir != "." || cfg.Paths.ScratchDir != "." {
		t.Errorf("paths = %+v", cfg.Paths)
	}
	if cfg.Paths.KeepScratch {
		t.Error("keep scratch should default to false")
	}
	if !reflect.DeepEqual(cfg.Report.Formats, []string{"csv"}) {
		t.Errorf("formats = %v", cfg.Report.Formats)
	}
	if cfg.Ledger.DSN != "" {
		t.Errorf("ledger dsn = %q", cfg.Ledger.DSN)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestLoadConfig_FromEnv(t *testing.T) {
	t.Setenv("CONVERT_ENDPOINT_URL", "https://convert.internal/api")
	t.Setenv("CONVERT_TIMEOUT", "90s")
	t.Setenv("SOURCE_DIR", "/data/in")
	t.Setenv("KEEP_SCRATCH", "true")
	t.Setenv("REPORT_FORMATS", " CSV, xlsx ,")
	t.Setenv("LEDGER_MAX_CONNS", "not-a-number")
	t.Setenv("LOG_LEVEL", "debug")

	cfg := LoadConfig()
	if cfg.Convert.EndpointURL != "https://convert.internal/api" || cfg.Convert.Timeout != 90*time.Second {
		t.Errorf("convert = %+v", cfg.Convert)
	}
	if cfg.Paths.SourceDir != "/data/in" || !cfg.Paths.KeepScratch {
		t.Errorf("paths = %+v", cfg.Paths)
	}
	if !reflect.DeepEqual(cfg.Report.Formats, []string{"csv", "xlsx"}) {
		t.Errorf("formats = %v", cfg.Report.Formats)
	}
	if cfg.Ledger.MaxConns != 4 {
		t.Errorf("unparsable int should fall back to default, got %d", cfg.Ledger.MaxConns)
	}
	if cfg.SlogLevel() != slog.LevelDebug {
		t.Errorf("level = %s", cfg.SlogLevel())
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "relative endpoint", mutate: func(c *Config) { c.Convert.EndpointURL = "/convert" }, wantErr: true},
		{name: "ftp endpoint", mutate: func(c *Config) { c.Convert.EndpointURL = "ftp://host/x" }, wantErr: true},
		{name: "negative timeout", mutate: func(c *Config) { c.Convert.Timeout = -time.Second }, wantErr: true},
		{name: "zero timeout", mutate: func(c *Config) { c.Convert.Timeout = 0 }},
		{name: "empty source", mutate: func(c *Config) { c.Paths.SourceDir = " " }, wantErr: true},
		{name: "unknown format", mutate: func(c *Config) { c.Report.Formats = []string{"csv", "pdf"} }, wantErr: true},
		{name: "no formats", mutate: func(c *Config) { c.Report.Formats = nil }, wantErr: true},
		{name: "bad level", mutate: func(c *Config) { c.Log.Level = "loud" }, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{
				Convert: ConvertConfig{EndpointURL: DefaultEndpointURL, Timeout: DefaultTimeout},
				Paths:   PathsConfig{SourceDir: "in", OutputDir: ".", ScratchDir: "."},
				Report:  ReportConfig{Formats: []string{"csv"}},
				Log:     LogConfig{Level: "info"},
			}
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				var appErr *AppError
				if !errors.As(err, &appErr) || appErr.Code != CodeConfig || !errors.Is(err, ErrInvalidInput) {
					t.Errorf("unexpected error shape: %v", err)
				}
			}
		})
	}
}

func TestApplyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hocr-report.json")
	body := `{"endpoint_url": "http://ocr:9901/convert", "timeout": "2m30s", "keep_scratch": true, "formats": ["xlsx"], "ledger_dsn": "sqlite://ledger.db"}`
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg := &Config{Paths: PathsConfig{SourceDir: "keep-me"}}
	if err := cfg.ApplyFile(path); err != nil {
		t.Fatalf("ApplyFile: %v", err)
	}
	if cfg.Convert.EndpointURL != "http://ocr:9901/convert" || cfg.Convert.Timeout != 150*time.Second {
		t.Errorf("convert = %+v", cfg.Convert)
	}
	if cfg.Paths.SourceDir != "keep-me" || !cfg.Paths.KeepScratch {
		t.Errorf("paths = %+v", cfg.Paths)
	}
	if !reflect.DeepEqual(cfg.Report.Formats, []string{"xlsx"}) || cfg.Ledger.DSN != "sqlite://ledger.db" {
		t.Errorf("report = %+v ledger = %+v", cfg.Report, cfg.Ledger)
	}
}

func TestApplyFile_SchemaViolations(t *testing.T) {
	tests := map[string]string{
		"unknown key":    `{"endpont_url": "http://x"}`,
		"bad format":     `{"formats": ["pdf"]}`,
		"bad timeout":    `{"timeout": "soon"}`,
		"wrong type":     `{"keep_scratch": "yes"}`,
		"not an object":  `["csv"]`,
		"invalid json":   `{`,
		"non http url":   `{"endpoint_url": "file:///tmp"}`,
		"empty formats":  `{"formats": []}`,
		"unknown level":  `{"log_level": "trace"}`,
		"empty dir name": `{"output_dir": ""}`,
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "cfg.json")
			if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
				t.Fatal(err)
			}
			err := (&Config{}).ApplyFile(path)
			if !errors.Is(err, ErrInvalidInput) {
				t.Fatalf("err = %v, want ErrInvalidInput", err)
			}
		})
	}
}

func TestApplyFile_Missing(t *testing.T) {
	err := (&Config{}).ApplyFile(filepath.Join(t.TempDir(), "absent.json"))
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("err = %v", err)
	}
}

func TestLoadDotEnv(t *testing.T) {
	const key = "HOCR_REPORT_DOTENV_TEST"
	// register cleanup, then start from an unset variable
	t.Setenv(key, "")
	os.Unsetenv(key)
	t.Setenv("SOURCE_DIR", "from-env")

	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	if err := os.WriteFile(envFile, []byte(key+"=from-file\nSOURCE_DIR=from-file\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	if err := LoadDotEnv(filepath.Join(dir, "missing.env"), envFile); err != nil {
		t.Fatalf("LoadDotEnv: %v", err)
	}
	if got := os.Getenv(key); got != "from-file" {
		t.Errorf("%s = %q", key, got)
	}
	if got := os.Getenv("SOURCE_DIR"); got != "from-env" {
		t.Errorf("existing variable overridden: %q", got)
	}
}

func TestSplitList(t *testing.T) {
	if got := SplitList(" a, ,B ,c"); !reflect.DeepEqual(got, []string{"a", "b", "c"}) {
		t.Errorf("SplitList = %v", got)
	}
	if got := SplitList(" , "); got != nil {
		t.Errorf("SplitList blanks = %v", got)
	}
}
