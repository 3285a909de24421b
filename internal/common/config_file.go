package common

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/joseph-ayodele/hocr-report/constants"
)

// FileConfig is the on-disk JSON form of the overridable settings.
// Unset fields leave the environment-derived values untouched.
type FileConfig struct {
	EndpointURL *string  `json:"endpoint_url,omitempty"`
	Timeout     *string  `json:"timeout,omitempty"`
	SourceDir   *string  `json:"source_dir,omitempty"`
	OutputDir   *string  `json:"output_dir,omitempty"`
	ScratchDir  *string  `json:"scratch_dir,omitempty"`
	KeepScratch *bool    `json:"keep_scratch,omitempty"`
	Formats     []string `json:"formats,omitempty"`
	LedgerDSN   *string  `json:"ledger_dsn,omitempty"`
	LogLevel    *string  `json:"log_level,omitempty"`
}

// ConfigFileSchema returns the JSON-Schema the config file must satisfy.
func ConfigFileSchema() map[string]any {
	str := map[string]any{"type": "string", "minLength": 1}
	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]any{
			"endpoint_url": map[string]any{"type": "string", "pattern": `^https?://`},
			"timeout":      map[string]any{"type": "string", "pattern": `^([0-9]+(\.[0-9]+)?(ns|us|µs|ms|s|m|h))+$`},
			"source_dir":   str,
			"output_dir":   str,
			"scratch_dir":  str,
			"keep_scratch": map[string]any{"type": "boolean"},
			"formats": map[string]any{
				"type":     "array",
				"minItems": 1,
				"items":    map[string]any{"type": "string", "enum": []string{constants.FormatCSV, constants.FormatXLSX}},
			},
			"ledger_dsn": map[string]any{"type": "string"},
			"log_level":  map[string]any{"type": "string", "enum": []string{"debug", "info", "warn", "error"}},
		},
	}
}

// ValidateJSONAgainstSchema validates "data" against "schemaMap".
func ValidateJSONAgainstSchema(schemaMap map[string]any, data []byte) error {
	b, err := json.Marshal(schemaMap)
	if err != nil {
		return fmt.Errorf("marshal schema: %w", err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("schema.json", bytes.NewReader(b)); err != nil {
		return fmt.Errorf("add schema: %w", err)
	}
	schema, err := compiler.Compile("schema.json")
	if err != nil {
		return fmt.Errorf("compile schema: %w", err)
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("unmarshal data: %w", err)
	}
	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("json does not match schema: %w", err)
	}
	return nil
}

// ApplyFile reads a JSON config file, validates it and overlays its values onto c.
func (c *Config) ApplyFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return NewAppError(CodeConfig, "read config file", err)
	}
	if err := ValidateJSONAgainstSchema(ConfigFileSchema(), data); err != nil {
		return NewAppError(CodeConfig, path, fmt.Errorf("%w: %v", ErrInvalidInput, err))
	}
	var fc FileConfig
	if err := json.Unmarshal(data, &fc); err != nil {
		return NewAppError(CodeConfig, "decode config file", err)
	}
	return c.apply(fc)
}

func (c *Config) apply(fc FileConfig) error {
	if fc.EndpointURL != nil {
		c.Convert.EndpointURL = *fc.EndpointURL
	}
	if fc.Timeout != nil {
		d, err := time.ParseDuration(*fc.Timeout)
		if err != nil {
			return NewAppError(CodeConfig, "timeout", err)
		}
		c.Convert.Timeout = d
	}
	if fc.SourceDir != nil {
		c.Paths.SourceDir = *fc.SourceDir
	}
	if fc.OutputDir != nil {
		c.Paths.OutputDir = *fc.OutputDir
	}
	if fc.ScratchDir != nil {
		c.Paths.ScratchDir = *fc.ScratchDir
	}
	if fc.KeepScratch != nil {
		c.Paths.KeepScratch = *fc.KeepScratch
	}
	if len(fc.Formats) > 0 {
		c.Report.Formats = fc.Formats
	}
	if fc.LedgerDSN != nil {
		c.Ledger.DSN = *fc.LedgerDSN
	}
	if fc.LogLevel != nil {
		c.Log.Level = *fc.LogLevel
	}
	return nil
}
