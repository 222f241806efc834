// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the seg2mseed CLI.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/seg2mseed/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// rootCmd is the base command for the seg2mseed CLI.
var rootCmd = &cobra.Command{
	Use:   "seg2mseed",
	Short: "Convert SEG2 field recordings into per-channel MiniSEED outputs",
	Long: `seg2mseed groups the traces of a directory of SEG2 recordings by channel
and acquisition pass and writes one multi-trace output per group.

The ch subcommand writes the lateral (X, Y) outputs of a cross-hole survey;
dh writes the vertical output and then the lateral outputs of a downhole
survey. Outputs are MiniSEED, or SEG2 re-exported by an external converter.`,
	SilenceUsage: true,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./seg2mseed.yaml or ~/.config/seg2mseed/config.yaml)")
	rootCmd.PersistentFlags().String("log-file", "", "append-only log file (default logs/app.log)")
	rootCmd.PersistentFlags().String("log-level", "", "minimum log level: debug, info, warn, error")

	viper.BindPFlag("log.file", rootCmd.PersistentFlags().Lookup("log-file"))
	viper.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level"))
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("seg2mseed")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "seg2mseed"))
		}
	}

	d := types.DefaultConfig()
	viper.SetDefault("format", string(d.Format))
	viper.SetDefault("log.file", d.Log.File)
	viper.SetDefault("log.level", d.Log.Level)
	viper.SetDefault("converter.bin", d.Converter.Bin)
	viper.SetDefault("converter.args", d.Converter.Args)
	viper.SetDefault("mseed.record_length", d.MSEED.RecordLength)
	viper.SetDefault("catalog.enabled", d.Catalog.Enabled)
	viper.SetDefault("catalog.path", d.Catalog.Path)

	viper.SetEnvPrefix("SEG2MSEED")
	viper.SetEnvKeyReplacer(envKeyReplacer)
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
