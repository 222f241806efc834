// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package converter

import (
	"context"
	"errors"
	"io"
	"os/exec"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/seg2mseed/pkg/types"
)

// mockExecutor records calls and returns configured responses.
type mockExecutor struct {
	availableBins map[string]bool
	runFunc       func(ctx context.Context, name string, args []string, stdout, stderr io.Writer) error

	gotName string
	gotArgs []string
}

func (m *mockExecutor) LookPath(file string) (string, error) {
	if m.availableBins[file] {
		return "/usr/local/bin/" + file, nil
	}
	return "", errors.New("not found: " + file)
}

func (m *mockExecutor) Run(ctx context.Context, name string, args []string, stdout, stderr io.Writer) error {
	m.gotName = name
	m.gotArgs = args
	if m.runFunc != nil {
		return m.runFunc(ctx, name, args, stdout, stderr)
	}
	return nil
}

func TestConvert(t *testing.T) {
	tests := []struct {
		name    string
		cfg     types.ConverterConfig
		exec    *mockExecutor
		wantErr error
		errMsg  string
	}{
		{
			name: "success with default arguments",
			exec: &mockExecutor{availableBins: map[string]bool{"seg2convert": true}},
		},
		{
			name:    "executable missing",
			exec:    &mockExecutor{availableBins: map[string]bool{}},
			wantErr: ErrConverterNotFound,
		},
		{
			name: "non-zero exit quotes stderr",
			exec: &mockExecutor{
				availableBins: map[string]bool{"seg2convert": true},
				runFunc: func(_ context.Context, _ string, _ []string, _, stderr io.Writer) error {
					io.WriteString(stderr, "unsupported input\n")
					return errors.New("exit status 2")
				},
			},
			errMsg: "unsupported input",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newProcess(tt.cfg, tt.exec)
			err := p.Convert(context.Background(), "/out/CH_Channel_X_2.seg2.mseed", "/out/CH_Channel_X_2.seg2.seg2", types.FormatSEG2)

			switch {
			case tt.wantErr != nil:
				assert.ErrorIs(t, err, tt.wantErr)
			case tt.errMsg != "":
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errMsg)
				assert.Contains(t, err.Error(), "exit status 2")
			default:
				require.NoError(t, err)
				assert.Equal(t, "/usr/local/bin/seg2convert", tt.exec.gotName)
				assert.Equal(t, []string{"/out/CH_Channel_X_2.seg2.mseed", "/out/CH_Channel_X_2.seg2.seg2", "seg2"}, tt.exec.gotArgs)
			}
		})
	}
}

func TestConvertTimeout(t *testing.T) {
	exec := &mockExecutor{
		availableBins: map[string]bool{"slow": true},
		runFunc: func(ctx context.Context, _ string, _ []string, _, _ io.Writer) error {
			<-ctx.Done()
			return ctx.Err()
		},
	}
	p := newProcess(types.ConverterConfig{Bin: "slow", Timeout: 10 * time.Millisecond}, exec)

	err := p.Convert(context.Background(), "in", "out", types.FormatSEG2)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestExpand(t *testing.T) {
	got := Expand([]string{"-i", "{input}", "--out={output}", "-f", "{format}", "--quiet"}, "a.mseed", "a.seg2", types.FormatSEG2)
	assert.Equal(t, []string{"-i", "a.mseed", "--out=a.seg2", "-f", "seg2", "--quiet"}, got)
}

func TestAvailableAndName(t *testing.T) {
	p := newProcess(types.ConverterConfig{Bin: "obspy-convert"}, &mockExecutor{availableBins: map[string]bool{"obspy-convert": true}})
	assert.True(t, p.Available())
	assert.Equal(t, "obspy-convert", p.Name())

	p = newProcess(types.ConverterConfig{}, &mockExecutor{})
	assert.False(t, p.Available())
	assert.Equal(t, types.DefaultConverterBin, p.Name())
}

func TestOSExecutor(t *testing.T) {
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
	p := New(types.ConverterConfig{Bin: "sh", Args: []string{"-c", "echo failed {format} >&2; exit 3"}})
	err := p.Convert(context.Background(), "in", "out", types.FormatSEG2)
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "failed seg2"), err.Error())

	p = New(types.ConverterConfig{Bin: "sh", Args: []string{"-c", "exit 0"}})
	assert.NoError(t, p.Convert(context.Background(), "in", "out", types.FormatSEG2))
}
