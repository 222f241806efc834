// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package channel

import (
	"bytes"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/seg2mseed/internal/seg2/seg2test"
	"github.com/pdiddy/seg2mseed/pkg/types"
)

func testLogger() (*slog.Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	return slog.New(slog.NewTextHandler(&buf, nil)), &buf
}

func TestListFiles(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b2.seg2", "a2.seg2", "a3.seg2", "a1.seg2", "notes.txt", "x2.seg2.bak"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), nil, 0o644))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "old2.seg2"), 0o755))

	tests := []struct {
		suffix string
		want   []string
	}{
		{suffix: "2.seg2", want: []string{"a2.seg2", "b2.seg2"}},
		{suffix: "3.seg2", want: []string{"a3.seg2"}},
		{suffix: "1.seg2", want: []string{"a1.seg2"}},
		{suffix: "9.seg2", want: nil},
	}
	for _, tt := range tests {
		t.Run(tt.suffix, func(t *testing.T) {
			got, err := ListFiles(dir, tt.suffix)
			require.NoError(t, err)

			var names []string
			for _, p := range got {
				assert.True(t, filepath.IsAbs(p), "%s should be absolute", p)
				names = append(names, filepath.Base(p))
			}
			assert.Equal(t, tt.want, names)
		})
	}
}

func TestListFilesEmptyAndMissing(t *testing.T) {
	got, err := ListFiles(t.TempDir(), "2.seg2")
	require.NoError(t, err)
	assert.Empty(t, got)

	_, err = ListFiles(filepath.Join(t.TempDir(), "missing"), "2.seg2")
	assert.Error(t, err)
}

func TestFilterUniformRate(t *testing.T) {
	dir := t.TempDir()
	a := seg2test.Write(t, dir, "a2.seg2",
		seg2test.At("1", 1000, 9, 9),
		seg2test.At("2", 1000, 1, 2, 3),
		seg2test.At("3", 1000, 4, 5),
	)
	b := seg2test.Write(t, dir, "b2.seg2", seg2test.At("2", 1000, 6, 7))
	log, _ := testLogger()

	g, err := Filter([]string{a, b}, "2", log)
	require.NoError(t, err)

	assert.Equal(t, "2", g.Channel)
	assert.InDelta(t, 1000, g.SamplingRate, 1e-9)
	assert.InDelta(t, 0.001, g.SampleInterval, 1e-15)
	require.Len(t, g.Readings, 2)
	assert.Equal(t, "a2.seg2", g.Readings[0].Filename)
	assert.Equal(t, []float64{1, 2, 3}, g.Readings[0].Samples)
	assert.Equal(t, "b2.seg2", g.Readings[1].Filename)
	assert.Equal(t, types.KindInt32, g.Readings[1].Kind)
	assert.True(t, g.Readings[0].StartTime.Equal(time.Date(2019, 4, 3, 14, 5, 9, 0, time.UTC)))
}

func TestFilterIntervalsSharingOneRate(t *testing.T) {
	// Adjacent float64 intervals whose reciprocals round to the same rate.
	short, long := 0.0038739219531133033, 0.0038739219531133038
	require.Equal(t, 1/short, 1/long)

	dir := t.TempDir()
	a := seg2test.Write(t, dir, "a2.seg2", seg2test.Channel{Number: "2", Interval: long, Samples: []float64{1}})
	b := seg2test.Write(t, dir, "b2.seg2", seg2test.Channel{Number: "2", Interval: short, Samples: []float64{2}})
	log, _ := testLogger()

	for _, files := range [][]string{{a, b}, {b, a}} {
		g, err := Filter(files, "2", log)
		require.NoError(t, err)
		assert.Len(t, g.Readings, 2)
		assert.Equal(t, short, g.SampleInterval)
	}
}

func TestFilterMixedRates(t *testing.T) {
	dir := t.TempDir()
	a := seg2test.Write(t, dir, "a2.seg2", seg2test.At("2", 1000, 1))
	b := seg2test.Write(t, dir, "b2.seg2", seg2test.At("2", 500, 2))
	c := seg2test.Write(t, dir, "c2.seg2", seg2test.At("2", 1000, 3))
	log, _ := testLogger()

	g, err := Filter([]string{a, b, c}, "2", log)
	require.Error(t, err)

	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "2", verr.Channel)
	assert.Equal(t, []float64{500, 1000}, verr.Rates)
	assert.False(t, verr.Empty())
	assert.Contains(t, err.Error(), "multiple sampling rates")
	assert.Empty(t, g.Readings, "no partial group on validation failure")
}

func TestFilterNoMatches(t *testing.T) {
	dir := t.TempDir()
	a := seg2test.Write(t, dir, "a2.seg2", seg2test.At("2", 1000, 1))
	log, _ := testLogger()

	_, err := Filter([]string{a}, "3", log)
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.True(t, verr.Empty())
	assert.Contains(t, err.Error(), "no traces found")
}

func TestFilterSkipsUnreadableFiles(t *testing.T) {
	dir := t.TempDir()
	good := seg2test.Write(t, dir, "a2.seg2", seg2test.At("2", 1000, 1, 2))
	bad := seg2test.WriteGarbage(t, dir, "b2.seg2")
	missing := filepath.Join(dir, "gone2.seg2")
	log, buf := testLogger()

	g, err := Filter([]string{bad, good, missing}, "2", log)
	require.NoError(t, err)
	require.Len(t, g.Readings, 1)
	assert.Equal(t, "a2.seg2", g.Readings[0].Filename)

	out := buf.String()
	assert.Contains(t, out, "level=ERROR")
	assert.Contains(t, out, "b2.seg2")
	assert.Contains(t, out, "gone2.seg2")
}

func TestFilterBadIntervalFailsFile(t *testing.T) {
	dir := t.TempDir()
	good := seg2test.Write(t, dir, "a2.seg2", seg2test.At("2", 1000, 1))
	bad := seg2test.Write(t, dir, "b2.seg2", seg2test.Channel{Number: "2", Interval: -1, Samples: []float64{1}})
	log, buf := testLogger()

	g, err := Filter([]string{good, bad}, "2", log)
	require.NoError(t, err)
	assert.Len(t, g.Readings, 1)
	assert.Contains(t, buf.String(), "SAMPLE_INTERVAL")
}
