// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/seg2mseed/internal/catalog"
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Inspect the catalog of recorded runs (list, export)",
	Long: `Catalog reads the SQLite record of generation runs kept when
catalog.enabled is set. Use subcommands to list runs or export them.`,
}

// --- list subcommand ---

var catalogListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recorded runs",
	RunE:  runCatalogList,
}

func runCatalogList(cmd *cobra.Command, args []string) error {
	store, err := openCatalog()
	if err != nil {
		return err
	}
	defer store.Close()

	runs, err := store.Runs(cmd.Context())
	if err != nil {
		return err
	}

	jsonOutput, _ := cmd.Flags().GetBool("json")
	return formatRuns(cmd.OutOrStdout(), runs, jsonOutput)
}

func formatRuns(w io.Writer, runs []catalog.Run, jsonOutput bool) error {
	if jsonOutput {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(runs)
	}

	if len(runs) == 0 {
		fmt.Fprintln(w, "No runs recorded.")
		return nil
	}

	fmt.Fprintf(w, "%-36s  %-6s  %-6s  %-20s  %7s  %9s  %7s  %6s  %s\n",
		"Run", "Survey", "Format", "Started", "Written", "Converted", "Skipped", "Failed", "Output")
	fmt.Fprintln(w, strings.Repeat("-", 120))
	for _, r := range runs {
		fmt.Fprintf(w, "%-36s  %-6s  %-6s  %-20s  %7d  %9d  %7d  %6d  %s\n",
			r.ID, r.Survey, r.Format, r.StartedAt.Format(time.RFC3339),
			r.Written, r.Converted, r.Skipped, r.Failed, r.OutputDir)
	}
	fmt.Fprintf(w, "\n%d runs\n", len(runs))
	return nil
}

// --- export subcommand ---

var catalogExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export every run and its outputs to YAML or JSON",
	Long: `Export writes the catalog to export.yaml (or export.json with --json)
in the catalog directory.`,
	RunE: runCatalogExport,
}

func runCatalogExport(cmd *cobra.Command, args []string) error {
	store, err := openCatalog()
	if err != nil {
		return err
	}
	defer store.Close()

	jsonOutput, _ := cmd.Flags().GetBool("json")
	var path string
	if jsonOutput {
		path, err = store.ExportJSON(cmd.Context())
	} else {
		path, err = store.ExportYAML(cmd.Context())
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Exported to %s\n", path)
	return nil
}

// --- shared helpers ---

func openCatalog() (*catalog.Store, error) {
	cfg, err := loadConfig(viper.GetViper())
	if err != nil {
		return nil, err
	}
	return catalog.Open(cfg.Catalog.Path)
}

func init() {
	catalogCmd.PersistentFlags().String("catalog-path", "", "catalog database (default catalog/seg2mseed.db)")
	viper.BindPFlag("catalog.path", catalogCmd.PersistentFlags().Lookup("catalog-path"))

	catalogListCmd.Flags().Bool("json", false, "output runs as JSON")
	catalogExportCmd.Flags().Bool("json", false, "export JSON instead of YAML")

	catalogCmd.AddCommand(catalogListCmd)
	catalogCmd.AddCommand(catalogExportCmd)

	rootCmd.AddCommand(catalogCmd)
}
