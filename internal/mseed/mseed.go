// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package mseed writes and reads MiniSEED (SEED 2.4 data-only) files.
//
// Records are big-endian with a 48-byte fixed header, blockette 1000, and
// optionally blockette 100 when the sampling rate cannot be expressed by the
// header's factor and multiplier. Samples are stored uncompressed as INT32,
// FLOAT32 or FLOAT64 according to the trace's sample kind.
package mseed

import (
	"errors"
	"math"
	"time"

	"github.com/pdiddy/seg2mseed/pkg/types"
)

// SEED data encoding codes used by this package.
const (
	EncodingInt32   = 3
	EncodingFloat32 = 4
	EncodingFloat64 = 5
)

const (
	fixedHeaderSize = 48
	b1000Size       = 8
	b100Size        = 12

	// DefaultRecordLength matches the record size most seismic tooling writes.
	DefaultRecordLength = 4096
)

var (
	// ErrBadRecordLength is returned for record lengths that are not a power
	// of two in [256, 65536].
	ErrBadRecordLength = errors.New("record length must be a power of two in [256, 65536]")

	// ErrNoBlockette1000 is returned when a record lacks the blockette that
	// declares its encoding and length.
	ErrNoBlockette1000 = errors.New("record has no blockette 1000")

	// ErrUnsupportedEncoding is returned for data encodings the reader does
	// not decode (Steim compression, text, legacy formats).
	ErrUnsupportedEncoding = errors.New("unsupported MiniSEED data encoding")
)

// Trace is one continuous run of samples from a single station.
type Trace struct {
	Network  string
	Station  string
	Location string
	Channel  string

	StartTime    time.Time
	SamplingRate float64
	Kind         types.SampleKind
	Samples      []float64
}

// Delta returns the sample interval in seconds.
func (t Trace) Delta() float64 {
	if t.SamplingRate == 0 {
		return 0
	}
	return 1 / t.SamplingRate
}

// EndTime returns the time of the last sample.
func (t Trace) EndTime() time.Time {
	if len(t.Samples) == 0 || t.SamplingRate == 0 {
		return t.StartTime
	}
	return t.StartTime.Add(sampleOffset(len(t.Samples)-1, t.SamplingRate))
}

// Stream is an ordered collection of traces written to one file.
type Stream struct {
	Traces []Trace
}

// Append adds a trace to the end of the stream.
func (s *Stream) Append(tr Trace) {
	s.Traces = append(s.Traces, tr)
}

// Len returns the number of traces.
func (s *Stream) Len() int {
	return len(s.Traces)
}

func encodingFor(k types.SampleKind) (code byte, width int) {
	switch k {
	case types.KindFloat32:
		return EncodingFloat32, 4
	case types.KindFloat64:
		return EncodingFloat64, 8
	}
	return EncodingInt32, 4
}

func sampleOffset(i int, rate float64) time.Duration {
	return time.Duration(math.Round(float64(i) / rate * float64(time.Second)))
}

// factorMultiplier expresses rate with the fixed header's two int16 fields.
// exact is false when only an approximation fits; writers then add
// blockette 100 with the float rate.
func factorMultiplier(rate float64) (factor, mult int16, exact bool) {
	if rate <= 0 || math.IsNaN(rate) || math.IsInf(rate, 0) {
		return 0, 0, rate == 0
	}
	near := func(v float64) bool {
		return math.Abs(v-math.Round(v)) <= 1e-9*math.Max(1, math.Abs(v))
	}

	if rate >= 1 {
		if near(rate) {
			for m := 1; m <= math.MaxInt16; m++ {
				f := rate / float64(m)
				if f <= math.MaxInt16 && near(f) {
					return int16(math.Round(f)), int16(m), true
				}
			}
		}
		for m := 2; m <= math.MaxInt16; m++ {
			f := rate * float64(m)
			if f > math.MaxInt16 {
				break
			}
			if near(f) {
				return int16(math.Round(f)), int16(-m), true
			}
		}
		return int16(math.Min(math.Round(rate), math.MaxInt16)), 1, false
	}

	period := 1 / rate
	if near(period) && math.Round(period) <= math.MaxInt16 {
		return int16(-math.Round(period)), 1, true
	}
	if period > math.MaxInt16 {
		return -math.MaxInt16, 1, false
	}
	return int16(-math.Round(period)), 1, false
}

// rateFromFactor reverses factorMultiplier per the SEED convention.
func rateFromFactor(factor, mult int16) float64 {
	f, m := float64(factor), float64(mult)
	switch {
	case factor == 0 || mult == 0:
		return 0
	case factor > 0 && mult > 0:
		return f * m
	case factor > 0 && mult < 0:
		return -f / m
	case factor < 0 && mult > 0:
		return -m / f
	default:
		return 1 / (f * m)
	}
}
