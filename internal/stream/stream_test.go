// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package stream

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/seg2mseed/internal/channel"
	"github.com/pdiddy/seg2mseed/internal/mseed"
	"github.com/pdiddy/seg2mseed/pkg/types"
)

// fakeConverter implements converter.Converter for testing.
type fakeConverter struct {
	err         error
	writeOutput bool
	removeInput bool
	calls       int
}

func (f *fakeConverter) Convert(_ context.Context, input, output string, _ types.OutputFormat) error {
	f.calls++
	if f.err != nil {
		return f.err
	}
	if f.writeOutput {
		if err := os.WriteFile(output, []byte("converted"), 0o644); err != nil {
			return err
		}
	}
	if f.removeInput {
		return os.Remove(input)
	}
	return nil
}

func testLogger() (*slog.Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	return slog.New(slog.NewTextHandler(&buf, nil)), &buf
}

func sampleGroup() channel.Group {
	start := time.Unix(0, 0).UTC()
	return channel.Group{
		Channel:        "2",
		SamplingRate:   1000,
		SampleInterval: 0.001,
		Readings: []channel.Reading{
			{Filename: "a2.seg2", StartTime: start, Kind: types.KindInt32, Samples: []float64{1, 2, 3}},
			{Filename: "b2.seg2", StartTime: start, Kind: types.KindInt32, Samples: []float64{4, 5}},
		},
	}
}

func TestAssemble(t *testing.T) {
	st := Assemble(sampleGroup(), types.MSEEDConfig{Network: "XX", Channel: "HHX"})
	require.Equal(t, 2, st.Len())
	assert.Equal(t, "a2.seg2", st.Traces[0].Station)
	assert.Equal(t, "b2.seg2", st.Traces[1].Station)
	for _, tr := range st.Traces {
		assert.Equal(t, "XX", tr.Network)
		assert.Equal(t, "HHX", tr.Channel)
		assert.InDelta(t, 1000, tr.SamplingRate, 1e-9)
		assert.InDelta(t, 0.001, tr.Delta(), 1e-15)
	}
}

func TestWriteMSEED(t *testing.T) {
	outDir := t.TempDir()
	log, buf := testLogger()
	w := NewWriter(types.FormatMSEED, types.MSEEDConfig{}, nil, log)

	res, err := w.Write(context.Background(), sampleGroup(), "Channel_X_2.seg2.mseed", types.SurveyCH, outDir)
	require.NoError(t, err)

	want := filepath.Join(outDir, "CH_Channel_X_2.seg2.mseed")
	assert.Equal(t, StatusWritten, res.Status)
	assert.Equal(t, want, res.Path)
	assert.Equal(t, 2, res.Traces)

	traces, err := mseed.ReadFile(want)
	require.NoError(t, err)
	assert.Len(t, traces, 2)
	assert.Contains(t, buf.String(), "MiniSEED file created")
}

func TestWriteEmptyGroup(t *testing.T) {
	outDir := t.TempDir()
	log, buf := testLogger()
	w := NewWriter(types.FormatMSEED, types.MSEEDConfig{}, nil, log)

	res, err := w.Write(context.Background(), channel.Group{Channel: "3"}, "Channel_Y_3.seg2.mseed", types.SurveyDH, outDir)
	require.NoError(t, err)
	assert.Equal(t, StatusEmpty, res.Status)

	entries, err := os.ReadDir(outDir)
	require.NoError(t, err)
	assert.Empty(t, entries)
	assert.Contains(t, buf.String(), "level=WARN")
}

func TestWriteSEG2Conversion(t *testing.T) {
	tests := []struct {
		name       string
		conv       *fakeConverter
		wantStatus Status
		wantKept   bool
		wantTarget bool
		wantLog    string
	}{
		{
			name:       "success removes intermediate",
			conv:       &fakeConverter{writeOutput: true},
			wantStatus: StatusConverted,
			wantTarget: true,
			wantLog:    "converted file created",
		},
		{
			name:       "converter failure keeps intermediate",
			conv:       &fakeConverter{err: errors.New("exit status 1")},
			wantStatus: StatusConvertFailed,
			wantKept:   true,
			wantLog:    "conversion failed",
		},
		{
			name:       "success without output is suspect",
			conv:       &fakeConverter{},
			wantStatus: StatusSuspect,
			wantKept:   true,
			wantLog:    "produced no output",
		},
		{
			name:       "success with intermediate gone is suspect",
			conv:       &fakeConverter{writeOutput: true, removeInput: true},
			wantStatus: StatusSuspect,
			wantTarget: true,
			wantLog:    "intermediate file is missing",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			outDir := t.TempDir()
			log, buf := testLogger()
			w := NewWriter(types.FormatSEG2, types.MSEEDConfig{}, tt.conv, log)

			res, err := w.Write(context.Background(), sampleGroup(), "Channel_X_2.seg2.mseed", types.SurveyCH, outDir)
			require.NoError(t, err)
			assert.Equal(t, 1, tt.conv.calls)
			assert.Equal(t, tt.wantStatus, res.Status)
			assert.Equal(t, tt.wantKept, res.IntermediateKept)

			intermediate := filepath.Join(outDir, "CH_Channel_X_2.seg2.mseed")
			target := filepath.Join(outDir, "CH_Channel_X_2.seg2.seg2")
			assert.Equal(t, tt.wantKept, fileExists(intermediate), "intermediate on disk")
			assert.Equal(t, tt.wantTarget, fileExists(target), "target on disk")
			assert.Contains(t, buf.String(), tt.wantLog)
		})
	}
}

func TestWriteSEG2WithoutConverter(t *testing.T) {
	outDir := t.TempDir()
	log, _ := testLogger()
	w := NewWriter(types.FormatSEG2, types.MSEEDConfig{}, nil, log)

	res, err := w.Write(context.Background(), sampleGroup(), "Channel_X_2.seg2.mseed", types.SurveyCH, outDir)
	require.NoError(t, err)
	assert.Equal(t, StatusConvertFailed, res.Status)
	assert.True(t, fileExists(filepath.Join(outDir, "CH_Channel_X_2.seg2.mseed")))
}

func TestWriteMSEEDFailure(t *testing.T) {
	log, _ := testLogger()
	w := NewWriter(types.FormatMSEED, types.MSEEDConfig{}, nil, log)

	res, err := w.Write(context.Background(), sampleGroup(), "Channel_X_2.seg2.mseed", types.SurveyCH, filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
	assert.Equal(t, StatusFailed, res.Status)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
