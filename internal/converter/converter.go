// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package converter runs the external format conversion executable.
// The executable is a black box: it receives an input path, an output path
// and a format selector, and exit status zero means success.
package converter

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"time"

	"github.com/pdiddy/seg2mseed/pkg/types"
)

// ErrConverterNotFound is returned when the executable is not on PATH.
var ErrConverterNotFound = errors.New("converter executable not found")

// maxStderr caps how much converter stderr is quoted in errors.
const maxStderr = 512

// Converter turns the file at input into output in the given format.
type Converter interface {
	Convert(ctx context.Context, input, output string, format types.OutputFormat) error
}

// executor abstracts command execution for testing.
type executor interface {
	LookPath(file string) (string, error)
	Run(ctx context.Context, name string, args []string, stdout, stderr io.Writer) error
}

// osExecutor is the production executor backed by os/exec.
type osExecutor struct{}

func (o *osExecutor) LookPath(file string) (string, error) {
	return exec.LookPath(file)
}

func (o *osExecutor) Run(ctx context.Context, name string, args []string, stdout, stderr io.Writer) error {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = stdout
	cmd.Stderr = stderr
	return cmd.Run()
}

// Process invokes a configured executable once per conversion.
type Process struct {
	bin     string
	args    []string
	timeout time.Duration
	exec    executor
}

var defaultExec = &osExecutor{}

// New returns a Process for cfg. Empty settings fall back to the defaults.
func New(cfg types.ConverterConfig) *Process {
	return newProcess(cfg, defaultExec)
}

func newProcess(cfg types.ConverterConfig, exec executor) *Process {
	bin := cfg.Bin
	if bin == "" {
		bin = types.DefaultConverterBin
	}
	args := cfg.Args
	if len(args) == 0 {
		args = types.DefaultConverterArgs()
	}
	return &Process{bin: bin, args: args, timeout: cfg.Timeout, exec: exec}
}

// Name returns the configured executable name.
func (p *Process) Name() string { return p.bin }

// Available reports whether the executable resolves on PATH.
func (p *Process) Available() bool {
	_, err := p.exec.LookPath(p.bin)
	return err == nil
}

// Convert runs the executable and waits for it to exit. A non-zero exit is
// returned as an error quoting the tail of the process's stderr.
func (p *Process) Convert(ctx context.Context, input, output string, format types.OutputFormat) error {
	path, err := p.exec.LookPath(p.bin)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrConverterNotFound, p.bin, err)
	}

	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	var stderr bytes.Buffer
	args := Expand(p.args, input, output, format)
	if err := p.exec.Run(ctx, path, args, io.Discard, &stderr); err != nil {
		if msg := tail(stderr.String()); msg != "" {
			return fmt.Errorf("running %s: %w: %s", p.bin, err, msg)
		}
		return fmt.Errorf("running %s: %w", p.bin, err)
	}
	return nil
}

// Expand substitutes {input}, {output} and {format} in each template argument.
func Expand(template []string, input, output string, format types.OutputFormat) []string {
	r := strings.NewReplacer("{input}", input, "{output}", output, "{format}", string(format))
	out := make([]string, len(template))
	for i, a := range template {
		out[i] = r.Replace(a)
	}
	return out
}

func tail(s string) string {
	s = strings.TrimSpace(s)
	if len(s) > maxStderr {
		s = "..." + s[len(s)-maxStderr:]
	}
	return s
}
