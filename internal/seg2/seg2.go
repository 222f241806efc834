// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package seg2 reads and writes SEG2 seismic recording files.
//
// A SEG2 file is a 32-byte file descriptor block, a trace pointer
// sub-block, a list of free-form descriptor strings, and one trace
// descriptor block plus data block per trace. Both byte orders are
// accepted on read; writes are little-endian unless the File says
// otherwise.
package seg2

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pdiddy/seg2mseed/pkg/types"
)

const (
	fileBlockID  = 0x3a55
	traceBlockID = 0x4422

	headerSize = 32
	revision   = 1
)

var (
	// ErrNotSEG2 is returned when the file descriptor block ID does not match.
	ErrNotSEG2 = errors.New("not a SEG2 file")

	// ErrUnsupportedFormatCode is returned for data format codes the reader
	// cannot decode (20-bit packed floating point, or unknown codes).
	ErrUnsupportedFormatCode = errors.New("unsupported SEG2 data format code")

	// ErrTruncated is returned when a block runs past the end of the file.
	ErrTruncated = errors.New("truncated SEG2 file")
)

// FormatCode is the SEG2 data format code of a trace.
type FormatCode uint8

const (
	FormatInt16   FormatCode = 1
	FormatInt32   FormatCode = 2
	FormatFloat20 FormatCode = 3
	FormatFloat32 FormatCode = 4
	FormatFloat64 FormatCode = 5
)

// size returns the byte width of one sample, or 0 for unsupported codes.
func (c FormatCode) size() int {
	switch c {
	case FormatInt16:
		return 2
	case FormatInt32, FormatFloat32:
		return 4
	case FormatFloat64:
		return 8
	}
	return 0
}

// Kind maps a format code to the sample kind writers should reproduce.
func (c FormatCode) Kind() types.SampleKind {
	switch c {
	case FormatFloat32:
		return types.KindFloat32
	case FormatFloat64:
		return types.KindFloat64
	}
	return types.KindInt32
}

// String is one keyword/value descriptor string, e.g. CHANNEL_NUMBER 2.
type String struct {
	Key   string
	Value string
}

// Strings is an ordered list of descriptor strings.
type Strings []String

// Get returns the value for key, matched case-insensitively.
func (s Strings) Get(key string) (string, bool) {
	for _, kv := range s {
		if strings.EqualFold(kv.Key, key) {
			return kv.Value, true
		}
	}
	return "", false
}

// Trace is one channel recording inside a SEG2 file.
type Trace struct {
	Format  FormatCode
	Strings Strings
	Samples []float64
}

// ChannelNumber returns the CHANNEL_NUMBER label, or "" when absent.
func (t Trace) ChannelNumber() string {
	v, _ := t.Strings.Get("CHANNEL_NUMBER")
	return strings.TrimSpace(v)
}

// SampleInterval parses the SAMPLE_INTERVAL string as seconds.
func (t Trace) SampleInterval() (float64, error) {
	v, ok := t.Strings.Get("SAMPLE_INTERVAL")
	if !ok {
		return 0, errors.New("SAMPLE_INTERVAL missing")
	}
	iv, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil {
		return 0, fmt.Errorf("SAMPLE_INTERVAL %q: %w", v, err)
	}
	if iv <= 0 || math.IsInf(iv, 0) || math.IsNaN(iv) {
		return 0, fmt.Errorf("SAMPLE_INTERVAL %q is not a positive interval", v)
	}
	return iv, nil
}

// SamplingRate returns 1 / SAMPLE_INTERVAL in Hz.
func (t Trace) SamplingRate() (float64, error) {
	iv, err := t.SampleInterval()
	if err != nil {
		return 0, err
	}
	return 1 / iv, nil
}

// File is a decoded SEG2 file.
type File struct {
	// ByteOrder is the byte order the file was read in. Nil means little-endian.
	ByteOrder binary.ByteOrder
	Revision  uint16
	Strings   Strings
	Traces    []Trace
}

// dateLayouts are the ACQUISITION_DATE spellings seen in field instruments.
var dateLayouts = []string{"02/01/2006", "2/1/2006", "02/Jan/2006", "2/Jan/2006", "2006-01-02"}

// AcquisitionTime combines ACQUISITION_DATE and ACQUISITION_TIME into a UTC
// time. ok is false when either string is missing or unparsable.
func (f *File) AcquisitionTime() (t time.Time, ok bool) {
	date, okDate := f.Strings.Get("ACQUISITION_DATE")
	clock, okClock := f.Strings.Get("ACQUISITION_TIME")
	if !okDate || !okClock {
		return time.Time{}, false
	}
	date = titleMonth(strings.TrimSpace(date))
	clock = strings.TrimSpace(clock)
	for _, layout := range dateLayouts {
		for _, clockLayout := range []string{"15:04:05", "15:04:05.999999999"} {
			ts, err := time.Parse(layout+" "+clockLayout, date+" "+clock)
			if err == nil {
				return ts.UTC(), true
			}
		}
	}
	return time.Time{}, false
}

// titleMonth turns "03/APR/2019" into "03/Apr/2019" so time.Parse accepts it.
func titleMonth(date string) string {
	parts := strings.Split(date, "/")
	if len(parts) != 3 || len(parts[1]) != 3 {
		return date
	}
	m := strings.ToLower(parts[1])
	parts[1] = strings.ToUpper(m[:1]) + m[1:]
	return strings.Join(parts, "/")
}

// ReadFile reads and decodes the SEG2 file at path.
func ReadFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	f, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}
	return f, nil
}

// WriteFile encodes f and writes it to path.
func WriteFile(path string, f *File) error {
	data, err := Encode(f)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
