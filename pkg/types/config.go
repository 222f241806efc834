// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"errors"
	"fmt"
	"time"
)

// ErrUnknownFormat is returned for an output format other than mseed or seg2.
var ErrUnknownFormat = errors.New("unknown output format")

// LogConfig holds settings for the log file sink.
type LogConfig struct {
	// File is the append-only log file path (default "logs/app.log").
	File string `json:"file" yaml:"file"`

	// Level is the minimum level written: debug, info, warn, or error.
	Level string `json:"level" yaml:"level"`
}

// ConverterConfig holds settings for the external format converter.
type ConverterConfig struct {
	// Bin is the converter executable, resolved on PATH (default "seg2convert").
	Bin string `json:"bin" yaml:"bin"`

	// Args is the argument template. The placeholders {input}, {output}
	// and {format} are substituted per invocation.
	Args []string `json:"args" yaml:"args"`

	// Timeout bounds a single converter run. Zero waits indefinitely.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`
}

// MSEEDConfig holds settings for the MiniSEED writer.
type MSEEDConfig struct {
	// RecordLength is the record size in bytes, a power of two in [256, 65536].
	RecordLength int `json:"record_length" yaml:"record_length"`

	// Network, Location and Channel fill the SEED codes left blank by default.
	Network  string `json:"network" yaml:"network"`
	Location string `json:"location" yaml:"location"`
	Channel  string `json:"channel" yaml:"channel"`
}

// CatalogConfig holds settings for the optional output catalog.
type CatalogConfig struct {
	// Enabled turns on recording of runs and outputs.
	Enabled bool `json:"enabled" yaml:"enabled"`

	// Path is the SQLite database file (default "catalog/seg2mseed.db").
	Path string `json:"path" yaml:"path"`
}

// Config groups all settings for a generation run.
type Config struct {
	InputDir  string          `json:"input_dir" yaml:"input_dir"`
	OutputDir string          `json:"output_dir" yaml:"output_dir"`
	Format    OutputFormat    `json:"format" yaml:"format"`
	Log       LogConfig       `json:"log" yaml:"log"`
	Converter ConverterConfig `json:"converter" yaml:"converter"`
	MSEED     MSEEDConfig     `json:"mseed" yaml:"mseed"`
	Catalog   CatalogConfig   `json:"catalog" yaml:"catalog"`
}

// Defaults used when a setting is left empty.
const (
	DefaultLogFile      = "logs/app.log"
	DefaultLogLevel     = "info"
	DefaultConverterBin = "seg2convert"
	DefaultRecordLength = 4096
	DefaultCatalogPath  = "catalog/seg2mseed.db"
)

// DefaultConverterArgs is the argument template used when none is configured.
func DefaultConverterArgs() []string {
	return []string{"{input}", "{output}", "{format}"}
}

// DefaultConfig returns a Config with every default applied.
func DefaultConfig() Config {
	return Config{
		Format: FormatMSEED,
		Log:    LogConfig{File: DefaultLogFile, Level: DefaultLogLevel},
		Converter: ConverterConfig{
			Bin:  DefaultConverterBin,
			Args: DefaultConverterArgs(),
		},
		MSEED:   MSEEDConfig{RecordLength: DefaultRecordLength},
		Catalog: CatalogConfig{Path: DefaultCatalogPath},
	}
}

// ApplyDefaults fills zero-valued fields with their defaults.
func (c *Config) ApplyDefaults() {
	d := DefaultConfig()
	if c.Format == "" {
		c.Format = d.Format
	}
	if c.Log.File == "" {
		c.Log.File = d.Log.File
	}
	if c.Log.Level == "" {
		c.Log.Level = d.Log.Level
	}
	if c.Converter.Bin == "" {
		c.Converter.Bin = d.Converter.Bin
	}
	if len(c.Converter.Args) == 0 {
		c.Converter.Args = d.Converter.Args
	}
	if c.MSEED.RecordLength == 0 {
		c.MSEED.RecordLength = d.MSEED.RecordLength
	}
	if c.Catalog.Path == "" {
		c.Catalog.Path = d.Catalog.Path
	}
}

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	if _, err := ParseOutputFormat(string(c.Format)); err != nil {
		return err
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level: unknown level %q", c.Log.Level)
	}
	if n := c.MSEED.RecordLength; n < 256 || n > 65536 || n&(n-1) != 0 {
		return fmt.Errorf("mseed.record_length: %d is not a power of two in [256, 65536]", n)
	}
	if len(c.MSEED.Network) > 2 {
		return fmt.Errorf("mseed.network: %q longer than 2 characters", c.MSEED.Network)
	}
	if len(c.MSEED.Location) > 2 {
		return fmt.Errorf("mseed.location: %q longer than 2 characters", c.MSEED.Location)
	}
	if len(c.MSEED.Channel) > 3 {
		return fmt.Errorf("mseed.channel: %q longer than 3 characters", c.MSEED.Channel)
	}
	if c.Converter.Timeout < 0 {
		return fmt.Errorf("converter.timeout: negative duration %s", c.Converter.Timeout)
	}
	return nil
}
