// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package seg2test builds SEG2 recordings on disk for tests.
package seg2test

import (
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/pdiddy/seg2mseed/internal/seg2"
)

// Channel describes one trace of a fixture recording.
type Channel struct {
	Number   string
	Interval float64
	Samples  []float64
}

// At returns an int32 channel sampled at rate Hz.
func At(number string, rate float64, samples ...float64) Channel {
	return Channel{Number: number, Interval: 1 / rate, Samples: samples}
}

// Write creates dir/name holding one trace per channel and returns its path.
func Write(t *testing.T, dir, name string, channels ...Channel) string {
	t.Helper()
	f := &seg2.File{
		Strings: seg2.Strings{
			{Key: "ACQUISITION_DATE", Value: "03/APR/2019"},
			{Key: "ACQUISITION_TIME", Value: "14:05:09"},
		},
	}
	for _, ch := range channels {
		f.Traces = append(f.Traces, seg2.Trace{
			Format: seg2.FormatInt32,
			Strings: seg2.Strings{
				{Key: "CHANNEL_NUMBER", Value: ch.Number},
				{Key: "SAMPLE_INTERVAL", Value: strconv.FormatFloat(ch.Interval, 'g', -1, 64)},
			},
			Samples: ch.Samples,
		})
	}
	path := filepath.Join(dir, name)
	if err := seg2.WriteFile(path, f); err != nil {
		t.Fatal(err)
	}
	return path
}

// WriteGarbage creates dir/name with content that is not a SEG2 file.
func WriteGarbage(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("this is not a seismic recording"), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}
