// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package mseed

import (
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"strings"
	"time"

	"github.com/pdiddy/seg2mseed/pkg/types"
)

// record is one decoded data record.
type record struct {
	network, station, location, channel string

	start   time.Time
	rate    float64
	kind    types.SampleKind
	samples []float64
	length  int
}

// ReadFile decodes every record in the file at path and merges contiguous
// records into traces.
func ReadFile(path string) ([]Trace, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	traces, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}
	return traces, nil
}

// Decode parses a sequence of records. A record continues the previous
// trace when its codes, rate and kind match and it starts within half a
// sample of where the previous trace ended.
func Decode(data []byte) ([]Trace, error) {
	var traces []Trace
	for pos := 0; pos < len(data); {
		rec, err := decodeRecord(data[pos:])
		if err != nil {
			return nil, fmt.Errorf("record at offset %d: %w", pos, err)
		}
		pos += rec.length

		if n := len(traces); n > 0 && continues(&traces[n-1], rec) {
			traces[n-1].Samples = append(traces[n-1].Samples, rec.samples...)
			continue
		}
		traces = append(traces, Trace{
			Network:      rec.network,
			Station:      rec.station,
			Location:     rec.location,
			Channel:      rec.channel,
			StartTime:    rec.start,
			SamplingRate: rec.rate,
			Kind:         rec.kind,
			Samples:      rec.samples,
		})
	}
	return traces, nil
}

func continues(tr *Trace, rec record) bool {
	if tr.Network != rec.network || tr.Station != rec.station ||
		tr.Location != rec.location || tr.Channel != rec.channel ||
		tr.Kind != rec.kind || tr.SamplingRate != rec.rate || rec.rate == 0 {
		return false
	}
	expected := tr.StartTime.Add(sampleOffset(len(tr.Samples), tr.SamplingRate))
	gap := rec.start.Sub(expected)
	if gap < 0 {
		gap = -gap
	}
	return gap.Seconds() < 0.5/rec.rate
}

func decodeRecord(data []byte) (record, error) {
	if len(data) < fixedHeaderSize {
		return record{}, fmt.Errorf("%d bytes is shorter than a fixed header", len(data))
	}
	be := binary.BigEndian
	var rec record
	rec.station = strings.TrimSpace(string(data[8:13]))
	rec.location = strings.TrimSpace(string(data[13:15]))
	rec.channel = strings.TrimSpace(string(data[15:18]))
	rec.network = strings.TrimSpace(string(data[18:20]))
	rec.start = readBTime(data[20:30])
	nsamples := int(be.Uint16(data[30:]))
	rec.rate = rateFromFactor(int16(be.Uint16(data[32:])), int16(be.Uint16(data[34:])))
	dataOffset := int(be.Uint16(data[44:]))

	var (
		encoding byte
		found    bool
	)
	next := int(be.Uint16(data[46:]))
	for hops := 0; next != 0 && hops < 16; hops++ {
		if next+4 > len(data) {
			return record{}, fmt.Errorf("blockette offset %d past end of data", next)
		}
		typ := be.Uint16(data[next:])
		switch typ {
		case 1000:
			if next+b1000Size > len(data) {
				return record{}, fmt.Errorf("blockette 1000 truncated")
			}
			encoding = data[next+4]
			if data[next+5] != 1 {
				return record{}, fmt.Errorf("little-endian word order is not supported")
			}
			exp := data[next+6]
			if exp < 8 || exp > 16 {
				return record{}, fmt.Errorf("%w: exponent %d", ErrBadRecordLength, exp)
			}
			rec.length = 1 << exp
			found = true
		case 100:
			if next+b100Size > len(data) {
				return record{}, fmt.Errorf("blockette 100 truncated")
			}
			rec.rate = float64(math.Float32frombits(be.Uint32(data[next+4:])))
		}
		next = int(be.Uint16(data[next+2:]))
	}
	if !found {
		return record{}, ErrNoBlockette1000
	}
	if rec.length > len(data) {
		return record{}, fmt.Errorf("record length %d exceeds remaining %d bytes", rec.length, len(data))
	}
	if dataOffset < fixedHeaderSize+b1000Size || dataOffset > rec.length {
		return record{}, fmt.Errorf("data offset %d outside a %d-byte record", dataOffset, rec.length)
	}

	var width int
	switch encoding {
	case EncodingInt32:
		rec.kind, width = types.KindInt32, 4
	case EncodingFloat32:
		rec.kind, width = types.KindFloat32, 4
	case EncodingFloat64:
		rec.kind, width = types.KindFloat64, 8
	default:
		return record{}, fmt.Errorf("%w: %d", ErrUnsupportedEncoding, encoding)
	}
	if dataOffset+nsamples*width > rec.length {
		return record{}, fmt.Errorf("%d samples overflow a %d-byte record", nsamples, rec.length)
	}

	rec.samples = make([]float64, nsamples)
	buf := data[dataOffset:]
	for i := range rec.samples {
		switch encoding {
		case EncodingInt32:
			rec.samples[i] = float64(int32(be.Uint32(buf[4*i:])))
		case EncodingFloat32:
			rec.samples[i] = float64(math.Float32frombits(be.Uint32(buf[4*i:])))
		case EncodingFloat64:
			rec.samples[i] = math.Float64frombits(be.Uint64(buf[8*i:]))
		}
	}
	return rec, nil
}

func readBTime(b []byte) time.Time {
	be := binary.BigEndian
	year := int(be.Uint16(b[0:]))
	doy := int(be.Uint16(b[2:]))
	return time.Date(year, 1, 1, int(b[4]), int(b[5]), int(b[6]), int(be.Uint16(b[8:]))*100000, time.UTC).
		AddDate(0, 0, doy-1)
}
