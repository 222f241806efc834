// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/pdiddy/seg2mseed/internal/mseed"
	"github.com/pdiddy/seg2mseed/internal/seg2"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect FILE...",
	Short: "Print the traces of SEG2 or MiniSEED files",
	Long: `Inspect prints one line per trace with its channel or station label,
sampling rate, sample count, and start time. SEG2 files are recognized by
their descriptor block; anything else is read as MiniSEED.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runInspect,
}

func init() {
	rootCmd.AddCommand(inspectCmd)
}

func runInspect(cmd *cobra.Command, args []string) error {
	failed := 0
	for _, path := range args {
		if err := inspectFile(cmd.OutOrStdout(), path); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "failed  %s: %v\n", path, err)
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d file(s) could not be read", failed)
	}
	return nil
}

func inspectFile(w io.Writer, path string) error {
	f, err := seg2.ReadFile(path)
	if err == nil {
		printSEG2(w, path, f)
		return nil
	}
	if !errors.Is(err, seg2.ErrNotSEG2) {
		return err
	}

	traces, err := mseed.ReadFile(path)
	if err != nil {
		return err
	}
	printMSEED(w, path, traces)
	return nil
}

func printSEG2(w io.Writer, path string, f *seg2.File) {
	start := "-"
	if t, ok := f.AcquisitionTime(); ok {
		start = t.Format(time.RFC3339)
	}
	fmt.Fprintf(w, "%s: SEG2 rev %d, %d trace(s), acquired %s\n", filepath.Base(path), f.Revision, len(f.Traces), start)
	fmt.Fprintf(w, "  %-7s  %-10s  %-8s  %s\n", "Channel", "Rate (Hz)", "Samples", "Format")
	fmt.Fprintln(w, "  "+strings.Repeat("-", 40))
	for _, tr := range f.Traces {
		rate := "?"
		if r, err := tr.SamplingRate(); err == nil {
			rate = fmt.Sprintf("%g", r)
		}
		fmt.Fprintf(w, "  %-7s  %-10s  %-8d  %s\n", tr.ChannelNumber(), rate, len(tr.Samples), tr.Format.Kind())
	}
}

func printMSEED(w io.Writer, path string, traces []mseed.Trace) {
	fmt.Fprintf(w, "%s: MiniSEED, %d trace(s)\n", filepath.Base(path), len(traces))
	fmt.Fprintf(w, "  %-15s  %-10s  %-8s  %s\n", "Station", "Rate (Hz)", "Samples", "Start")
	fmt.Fprintln(w, "  "+strings.Repeat("-", 60))
	for _, tr := range traces {
		id := strings.Join([]string{tr.Network, tr.Station, tr.Location, tr.Channel}, ".")
		fmt.Fprintf(w, "  %-15s  %-10g  %-8d  %s\n", id, tr.SamplingRate, len(tr.Samples), tr.StartTime.Format(time.RFC3339Nano))
	}
}
