// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package survey orchestrates CH and DH output generation: enumerate the
// recordings of each fixed extension, filter each channel, and write one
// output per channel group. A failure in one group is logged and skipped
// without affecting its siblings.
package survey

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/pdiddy/seg2mseed/internal/channel"
	"github.com/pdiddy/seg2mseed/internal/converter"
	"github.com/pdiddy/seg2mseed/internal/stream"
	"github.com/pdiddy/seg2mseed/pkg/types"
)

// ErrDirNotFound is returned when the input or output directory is missing.
var ErrDirNotFound = errors.New("directory not found")

// Request names the directories and format of one generation run.
type Request struct {
	InputDir  string
	OutputDir string
	Format    types.OutputFormat
}

// Skip records an extension that produced no outputs and why.
type Skip struct {
	Extension string `json:"extension" yaml:"extension"`
	Reason    string `json:"reason" yaml:"reason"`
}

// Summary holds the outcome of a generation run.
type Summary struct {
	Survey    types.SurveyKind   `json:"survey" yaml:"survey"`
	Format    types.OutputFormat `json:"format" yaml:"format"`
	Written   int                `json:"written" yaml:"written"`
	Converted int                `json:"converted" yaml:"converted"`
	Skipped   int                `json:"skipped" yaml:"skipped"`
	Failed    int                `json:"failed" yaml:"failed"`
	Skips     []Skip             `json:"skips,omitempty" yaml:"skips,omitempty"`
	Outputs   []stream.Result    `json:"outputs,omitempty" yaml:"outputs,omitempty"`
}

// Total returns the number of groups and extensions accounted for.
func (s Summary) Total() int {
	return s.Written + s.Converted + s.Skipped + s.Failed
}

// HasFailures reports whether any output failed to be written or converted.
func (s Summary) HasFailures() bool {
	return s.Failed > 0
}

func (s *Summary) skip(ext, reason string) {
	s.Skipped++
	s.Skips = append(s.Skips, Skip{Extension: ext, Reason: reason})
}

func (s *Summary) add(res stream.Result) {
	s.Outputs = append(s.Outputs, res)
	switch res.Status {
	case stream.StatusWritten:
		s.Written++
	case stream.StatusConverted:
		s.Converted++
	case stream.StatusEmpty:
		s.Skipped++
	default:
		s.Failed++
	}
}

// groupWriter is the part of stream.Writer the processors need.
type groupWriter interface {
	Write(ctx context.Context, g channel.Group, template string, prefix types.SurveyKind, outDir string) (stream.Result, error)
}

// Processor runs survey generations. It holds no state between runs.
type Processor struct {
	codes types.MSEEDConfig
	conv  converter.Converter
	log   *slog.Logger
}

// New returns a Processor that writes MiniSEED with codes and hands seg2
// requests to conv. conv may be nil when only mseed output is used.
func New(codes types.MSEEDConfig, conv converter.Converter, log *slog.Logger) *Processor {
	return &Processor{codes: codes, conv: conv, log: log}
}

func (p *Processor) newWriter(format types.OutputFormat) groupWriter {
	return stream.NewWriter(format, p.codes, p.conv, p.log)
}

// GenerateCH writes CH-prefixed X and Y outputs for each lateral extension.
func (p *Processor) GenerateCH(ctx context.Context, req Request) (Summary, error) {
	if err := p.check(req); err != nil {
		return Summary{}, err
	}
	p.log.Info("CH generation started", "input", req.InputDir, "output", req.OutputDir, "format", string(req.Format))

	s := Summary{Survey: types.SurveyCH, Format: req.Format}
	err := p.lateral(ctx, req, types.SurveyCH, p.newWriter(req.Format), &s)
	p.finish(s, err)
	return s, err
}

// GenerateDH writes the DH vertical output, then the DH lateral outputs.
// A failed vertical phase never blocks the lateral phase.
func (p *Processor) GenerateDH(ctx context.Context, req Request) (Summary, error) {
	if err := p.check(req); err != nil {
		return Summary{}, err
	}
	p.log.Info("DH generation started", "input", req.InputDir, "output", req.OutputDir, "format", string(req.Format))

	s := Summary{Survey: types.SurveyDH, Format: req.Format}
	w := p.newWriter(req.Format)
	err := p.vertical(ctx, req, w, &s)
	if err == nil {
		err = p.lateral(ctx, req, types.SurveyDH, w, &s)
	}
	p.finish(s, err)
	return s, err
}

func (p *Processor) vertical(ctx context.Context, req Request, w groupWriter, s *Summary) error {
	for _, ext := range []string{types.ExtVertical} {
		if err := ctx.Err(); err != nil {
			return err
		}
		files, ok := p.enumerate(req.InputDir, ext, s)
		if !ok {
			continue
		}
		gv, err := channel.Filter(files, types.ChannelV.Number, p.log)
		if err != nil {
			p.rejected(ext, err, s)
			continue
		}
		p.write(ctx, w, gv, types.OutputTemplate(types.ChannelV, ext), types.SurveyDH, req.OutputDir, s)
	}
	return nil
}

// lateral filters channels X and Y of each lateral extension. A validation
// failure on either channel skips the whole extension.
func (p *Processor) lateral(ctx context.Context, req Request, prefix types.SurveyKind, w groupWriter, s *Summary) error {
	for _, ext := range types.LateralExtensions() {
		if err := ctx.Err(); err != nil {
			return err
		}
		files, ok := p.enumerate(req.InputDir, ext, s)
		if !ok {
			continue
		}
		gx, err := channel.Filter(files, types.ChannelX.Number, p.log)
		if err != nil {
			p.rejected(ext, err, s)
			continue
		}
		gy, err := channel.Filter(files, types.ChannelY.Number, p.log)
		if err != nil {
			p.rejected(ext, err, s)
			continue
		}
		p.write(ctx, w, gx, types.OutputTemplate(types.ChannelX, ext), prefix, req.OutputDir, s)
		p.write(ctx, w, gy, types.OutputTemplate(types.ChannelY, ext), prefix, req.OutputDir, s)
	}
	return nil
}

func (p *Processor) enumerate(dir, ext string, s *Summary) ([]string, bool) {
	files, err := channel.ListFiles(dir, ext)
	if err != nil {
		p.log.Error("could not list files", "extension", ext, "dir", dir, "err", err)
		s.skip(ext, err.Error())
		return nil, false
	}
	if len(files) == 0 {
		p.log.Warn("no files found with extension", "extension", ext, "dir", dir)
		s.skip(ext, "no files found")
		return nil, false
	}
	return files, true
}

func (p *Processor) rejected(ext string, err error, s *Summary) {
	var verr *channel.ValidationError
	if errors.As(err, &verr) && verr.Empty() {
		p.log.Warn("error processing files with extension", "extension", ext, "err", err)
	} else {
		p.log.Error("error processing files with extension", "extension", ext, "err", err)
	}
	s.skip(ext, err.Error())
}

func (p *Processor) write(ctx context.Context, w groupWriter, g channel.Group, template string, prefix types.SurveyKind, outDir string, s *Summary) {
	res, err := w.Write(ctx, g, template, prefix, outDir)
	if err != nil {
		p.log.Error("could not write output", "file", res.Name, "err", err)
	}
	s.add(res)
}

func (p *Processor) finish(s Summary, err error) {
	attrs := []any{
		"written", s.Written, "converted", s.Converted,
		"skipped", s.Skipped, "failed", s.Failed,
	}
	if err != nil {
		p.log.Error(string(s.Survey)+" generation interrupted", append(attrs, "err", err)...)
		return
	}
	p.log.Info(string(s.Survey)+" generation completed", attrs...)
}

// check validates the request before any file is touched.
func (p *Processor) check(req Request) error {
	if _, err := types.ParseOutputFormat(string(req.Format)); err != nil {
		p.log.Error("invalid request", "err", err)
		return err
	}
	for _, d := range []struct{ role, path string }{
		{"input", req.InputDir},
		{"output", req.OutputDir},
	} {
		info, err := os.Stat(d.path)
		if err != nil || !info.IsDir() {
			err := fmt.Errorf("%w: %s directory %s", ErrDirNotFound, d.role, d.path)
			p.log.Error("invalid request", "err", err)
			return err
		}
	}
	return nil
}
