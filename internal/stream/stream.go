// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package stream assembles a channel group into a multi-trace stream and
// writes it out as MiniSEED, optionally handing the file to the external
// converter for the alternate output format.
package stream

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/pdiddy/seg2mseed/internal/channel"
	"github.com/pdiddy/seg2mseed/internal/converter"
	"github.com/pdiddy/seg2mseed/internal/mseed"
	"github.com/pdiddy/seg2mseed/pkg/types"
)

// Status is the outcome of writing one channel group.
type Status string

const (
	// StatusWritten means the MiniSEED file is the final artifact.
	StatusWritten Status = "written"
	// StatusConverted means the converter produced the final artifact and
	// the intermediate MiniSEED file was removed.
	StatusConverted Status = "converted"
	// StatusEmpty means the group had no readings and nothing was written.
	StatusEmpty Status = "empty"
	// StatusFailed means the MiniSEED file could not be written.
	StatusFailed Status = "failed"
	// StatusConvertFailed means the converter failed; the intermediate is kept.
	StatusConvertFailed Status = "convert_failed"
	// StatusSuspect means the converter exited zero but the files on disk
	// do not match a successful conversion.
	StatusSuspect Status = "suspect"
)

// Result describes what Write left on disk.
type Result struct {
	// Name is the MiniSEED output name, e.g. "DH_Channel_V_1.seg2.mseed".
	Name string `json:"name" yaml:"name"`

	// Path is the final artifact, empty when none was produced.
	Path string `json:"path,omitempty" yaml:"path,omitempty"`

	// Intermediate is the MiniSEED path written before any conversion.
	Intermediate string `json:"intermediate,omitempty" yaml:"intermediate,omitempty"`

	// IntermediateKept reports whether Intermediate still exists after Write
	// when a conversion was requested.
	IntermediateKept bool `json:"intermediate_kept" yaml:"intermediate_kept"`

	Traces       int     `json:"traces" yaml:"traces"`
	SamplingRate float64 `json:"sampling_rate" yaml:"sampling_rate"`
	Status       Status  `json:"status" yaml:"status"`
}

// Assemble builds one trace per reading with the filename as station label
// and the group's sampling configuration applied uniformly.
func Assemble(g channel.Group, codes types.MSEEDConfig) *mseed.Stream {
	rate := g.SamplingRate
	if g.SampleInterval > 0 {
		rate = 1 / g.SampleInterval
	}
	st := &mseed.Stream{}
	for _, r := range g.Readings {
		st.Append(mseed.Trace{
			Network:      codes.Network,
			Station:      r.Filename,
			Location:     codes.Location,
			Channel:      codes.Channel,
			StartTime:    r.StartTime,
			SamplingRate: rate,
			Kind:         r.Kind,
			Samples:      r.Samples,
		})
	}
	return st
}

// Writer serializes channel groups into output files.
type Writer struct {
	format types.OutputFormat
	codes  types.MSEEDConfig
	mseed  mseed.Writer
	conv   converter.Converter
	log    *slog.Logger
}

// NewWriter returns a Writer for format. conv may be nil when format is
// mseed.
func NewWriter(format types.OutputFormat, cfg types.MSEEDConfig, conv converter.Converter, log *slog.Logger) *Writer {
	return &Writer{
		format: format,
		codes:  cfg,
		mseed:  mseed.Writer{RecordLength: cfg.RecordLength},
		conv:   conv,
		log:    log,
	}
}

// Write stores g as outDir/<prefix>_<template>. An empty group produces no
// file and only a warning. A MiniSEED write failure is returned; every
// converter outcome is reported through Result and the log instead.
//
// Cleanup contract for the seg2 format: the intermediate MiniSEED file is
// removed only after the converter exits zero and its output exists. A
// failed conversion keeps the intermediate.
func (w *Writer) Write(ctx context.Context, g channel.Group, template string, prefix types.SurveyKind, outDir string) (Result, error) {
	name := string(prefix) + "_" + template
	res := Result{Name: name, Traces: len(g.Readings), SamplingRate: g.SamplingRate}

	if len(g.Readings) == 0 {
		w.log.Warn("no data found to create output", "file", name)
		res.Status = StatusEmpty
		return res, nil
	}

	path := filepath.Join(outDir, name)
	if err := w.mseed.WriteFile(path, Assemble(g, w.codes)); err != nil {
		res.Status = StatusFailed
		return res, err
	}
	res.Intermediate = path

	if w.format != types.FormatSEG2 {
		w.log.Info("MiniSEED file created", "path", path, "traces", res.Traces)
		res.Path = path
		res.Status = StatusWritten
		return res, nil
	}
	return w.convert(ctx, res), nil
}

func (w *Writer) convert(ctx context.Context, res Result) Result {
	target := strings.TrimSuffix(res.Intermediate, ".mseed") + w.format.Suffix()
	res.IntermediateKept = true

	if w.conv == nil {
		w.log.Error("conversion failed", "input", res.Intermediate, "err", converter.ErrConverterNotFound)
		res.Status = StatusConvertFailed
		return res
	}
	if err := w.conv.Convert(ctx, res.Intermediate, target, w.format); err != nil {
		w.log.Error("conversion failed", "input", res.Intermediate, "output", target, "err", err)
		res.Status = StatusConvertFailed
		return res
	}

	if _, err := os.Stat(target); err != nil {
		w.log.Error("converter reported success but produced no output", "output", target, "err", err)
		res.Status = StatusSuspect
		res.IntermediateKept = exists(res.Intermediate)
		return res
	}
	res.Path = target

	if !exists(res.Intermediate) {
		w.log.Error("converter reported success but the intermediate file is missing", "input", res.Intermediate)
		res.Status = StatusSuspect
		res.IntermediateKept = false
		return res
	}
	if err := os.Remove(res.Intermediate); err != nil {
		w.log.Warn("could not remove intermediate file", "input", res.Intermediate, "err", err)
	} else {
		res.IntermediateKept = false
	}

	w.log.Info("converted file created", "path", target, "format", string(w.format), "traces", res.Traces)
	res.Status = StatusConverted
	return res
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return !errors.Is(err, fs.ErrNotExist)
}
