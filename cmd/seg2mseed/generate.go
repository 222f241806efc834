// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/seg2mseed/internal/catalog"
	"github.com/pdiddy/seg2mseed/internal/converter"
	"github.com/pdiddy/seg2mseed/internal/logging"
	"github.com/pdiddy/seg2mseed/internal/survey"
	"github.com/pdiddy/seg2mseed/pkg/types"
)

// errNoPaths is reported when either directory is left empty.
var errNoPaths = errors.New("select valid input and output directories")

func addGenerateFlags(cmd *cobra.Command) {
	cmd.Flags().String("input", "", "directory of SEG2 recordings")
	cmd.Flags().String("output", "", "directory for the generated files")
	cmd.Flags().String("format", "", "output format: mseed or seg2 (default mseed)")
	cmd.Flags().Bool("catalog", false, "record the run in the catalog")
}

// bindGenerateFlags binds the flags of the running command only; ch and dh
// share the same keys.
func bindGenerateFlags(cmd *cobra.Command) {
	viper.BindPFlag("input_dir", cmd.Flags().Lookup("input"))
	viper.BindPFlag("output_dir", cmd.Flags().Lookup("output"))
	viper.BindPFlag("format", cmd.Flags().Lookup("format"))
	viper.BindPFlag("catalog.enabled", cmd.Flags().Lookup("catalog"))
}

func runGenerate(cmd *cobra.Command, kind types.SurveyKind) error {
	bindGenerateFlags(cmd)
	cfg, err := loadConfig(viper.GetViper())
	if err != nil {
		return err
	}
	if cfg.InputDir == "" || cfg.OutputDir == "" {
		return errNoPaths
	}

	log, closer, err := logging.Open(cfg.Log.File, cfg.Log.Level)
	if err != nil {
		return err
	}
	defer closer.Close()

	runID := uuid.NewString()
	log = log.With("run", runID)

	conv := converter.New(cfg.Converter)
	if cfg.Format == types.FormatSEG2 && !conv.Available() {
		log.Warn("converter executable not found; seg2 outputs will keep their MiniSEED intermediates", "bin", conv.Name())
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	req := survey.Request{InputDir: cfg.InputDir, OutputDir: cfg.OutputDir, Format: cfg.Format}
	started := time.Now()
	proc := survey.New(cfg.MSEED, conv, log)

	var sum survey.Summary
	switch kind {
	case types.SurveyCH:
		sum, err = proc.GenerateCH(ctx, req)
	default:
		sum, err = proc.GenerateDH(ctx, req)
	}
	interrupted := errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
	if err != nil && !interrupted {
		return fmt.Errorf("error generating %s: %w", kind, err)
	}

	// An interrupted run still reports and records what it wrote.
	if cfg.Catalog.Enabled {
		recordRun(context.WithoutCancel(ctx), cfg.Catalog.Path, runID, req, sum, started, log, cmd.ErrOrStderr())
	}
	printSummary(cmd.OutOrStdout(), req, sum, interrupted)

	if interrupted {
		return fmt.Errorf("error generating %s: %w", kind, err)
	}
	return nil
}

// recordRun stores the run in the catalog. A catalog failure never fails the
// run itself.
func recordRun(ctx context.Context, path, runID string, req survey.Request, sum survey.Summary, started time.Time, log *slog.Logger, errOut io.Writer) {
	store, err := catalog.Open(path)
	if err != nil {
		log.Error("could not open catalog", "path", path, "err", err)
		fmt.Fprintf(errOut, "warning: catalog not updated: %v\n", err)
		return
	}
	defer store.Close()

	if _, err := store.Record(ctx, runID, req, sum, started); err != nil {
		log.Error("could not record run", "path", path, "err", err)
		fmt.Fprintf(errOut, "warning: catalog not updated: %v\n", err)
	}
}

func printSummary(w io.Writer, req survey.Request, sum survey.Summary, interrupted bool) {
	if interrupted {
		fmt.Fprintf(w, "%s generation interrupted, partial %s outputs in: %s\n", sum.Survey, sum.Format, req.OutputDir)
	} else {
		fmt.Fprintf(w, "%s outputs generated in %s format: %s\n", sum.Survey, sum.Format, req.OutputDir)
	}
	fmt.Fprintf(w, "written: %d, converted: %d, skipped: %d, failed: %d\n",
		sum.Written, sum.Converted, sum.Skipped, sum.Failed)
}
