// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"strings"

	"github.com/spf13/viper"

	"github.com/pdiddy/seg2mseed/pkg/types"
)

// envKeyReplacer maps nested keys to env names, e.g. SEG2MSEED_LOG_LEVEL.
var envKeyReplacer = strings.NewReplacer(".", "_")

// loadConfig reads the merged flag, env, and file settings from v, fills
// defaults, and validates the result.
func loadConfig(v *viper.Viper) (types.Config, error) {
	cfg := types.Config{
		InputDir:  v.GetString("input_dir"),
		OutputDir: v.GetString("output_dir"),
		Format:    types.OutputFormat(strings.ToLower(v.GetString("format"))),
		Log: types.LogConfig{
			File:  v.GetString("log.file"),
			Level: strings.ToLower(v.GetString("log.level")),
		},
		Converter: types.ConverterConfig{
			Bin:     v.GetString("converter.bin"),
			Args:    v.GetStringSlice("converter.args"),
			Timeout: v.GetDuration("converter.timeout"),
		},
		MSEED: types.MSEEDConfig{
			RecordLength: v.GetInt("mseed.record_length"),
			Network:      v.GetString("mseed.network"),
			Location:     v.GetString("mseed.location"),
			Channel:      v.GetString("mseed.channel"),
		},
		Catalog: types.CatalogConfig{
			Enabled: v.GetBool("catalog.enabled"),
			Path:    v.GetString("catalog.path"),
		},
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return types.Config{}, err
	}
	return cfg, nil
}
