// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package channel enumerates recording files and collects the traces of one
// channel across them, enforcing a single sampling configuration per group.
package channel

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/pdiddy/seg2mseed/internal/seg2"
	"github.com/pdiddy/seg2mseed/pkg/types"
)

// ListFiles returns the absolute paths of non-directory entries directly in dir
// whose name ends with suffix, sorted by name. No match is an empty result,
// not an error.
func ListFiles(dir, suffix string) ([]string, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolving %s: %w", dir, err)
	}
	entries, err := os.ReadDir(abs)
	if err != nil {
		return nil, fmt.Errorf("reading directory %s: %w", abs, err)
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), suffix) {
			continue
		}
		files = append(files, filepath.Join(abs, entry.Name()))
	}
	return files, nil
}

// Reading is one matched trace together with the file it came from.
type Reading struct {
	// Filename is the base name of the source recording, used as station label.
	Filename string

	// StartTime is the acquisition time of the source file, or the Unix epoch
	// when the file does not carry a parsable one.
	StartTime time.Time

	Kind    types.SampleKind
	Samples []float64
}

// Group is the validated set of readings sharing one channel number.
type Group struct {
	Channel        string
	Readings       []Reading
	SamplingRate   float64
	SampleInterval float64
}

// ValidationError reports a channel group without exactly one sampling rate.
type ValidationError struct {
	Channel string

	// Rates holds the distinct sampling rates observed, ascending. It is
	// empty when no trace matched the channel.
	Rates []float64
}

func (e *ValidationError) Error() string {
	if len(e.Rates) == 0 {
		return fmt.Sprintf("channel %s: no traces found", e.Channel)
	}
	parts := make([]string, len(e.Rates))
	for i, r := range e.Rates {
		parts[i] = strconv.FormatFloat(r, 'g', -1, 64)
	}
	return fmt.Sprintf("channel %s: found multiple sampling rates: {%s}", e.Channel, strings.Join(parts, ", "))
}

// Empty reports whether the group failed because nothing matched.
func (e *ValidationError) Empty() bool {
	return len(e.Rates) == 0
}

// Filter reads every file and keeps the traces whose CHANNEL_NUMBER equals
// channel. Unreadable files are logged and skipped. The result must carry
// exactly one sampling rate, otherwise Filter returns a *ValidationError.
func Filter(files []string, channel string, log *slog.Logger) (Group, error) {
	g := Group{Channel: channel}
	rates := make(map[float64]struct{})
	intervals := make(map[float64]struct{})

	for _, path := range files {
		readings, fileRates, err := readChannel(path, channel)
		if err != nil {
			log.Error("error reading file", "file", path, "err", err)
			continue
		}
		g.Readings = append(g.Readings, readings...)
		for iv := range fileRates {
			intervals[iv] = struct{}{}
			rates[1/iv] = struct{}{}
		}
	}

	if len(rates) != 1 {
		verr := &ValidationError{Channel: channel, Rates: sortedKeys(rates)}
		return Group{Channel: channel}, verr
	}
	for r := range rates {
		g.SamplingRate = r
	}
	// Distinct intervals can share one rate after rounding; keep the smallest.
	g.SampleInterval = sortedKeys(intervals)[0]
	return g, nil
}

// readChannel decodes one file and returns its matching readings and the set
// of sample intervals they declare. A matching trace with a bad interval
// fails the whole file.
func readChannel(path, channel string) ([]Reading, map[float64]struct{}, error) {
	f, err := seg2.ReadFile(path)
	if err != nil {
		return nil, nil, err
	}
	start, ok := f.AcquisitionTime()
	if !ok {
		start = time.Unix(0, 0).UTC()
	}
	name := filepath.Base(path)

	var readings []Reading
	intervals := make(map[float64]struct{})
	for i, tr := range f.Traces {
		if tr.ChannelNumber() != channel {
			continue
		}
		iv, err := tr.SampleInterval()
		if err != nil {
			return nil, nil, fmt.Errorf("trace %d: %w", i+1, err)
		}
		intervals[iv] = struct{}{}
		readings = append(readings, Reading{
			Filename:  name,
			StartTime: start,
			Kind:      tr.Format.Kind(),
			Samples:   tr.Samples,
		})
	}
	return readings, intervals, nil
}

func sortedKeys(m map[float64]struct{}) []float64 {
	out := make([]float64, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Float64s(out)
	return out
}
