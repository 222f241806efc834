// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package mseed

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"math"
	"math/bits"
	"os"
	"time"
)

// Writer packs traces into fixed-length MiniSEED records.
type Writer struct {
	// RecordLength is the record size in bytes. Zero means DefaultRecordLength.
	RecordLength int
}

func (w Writer) recordLength() (int, error) {
	n := w.RecordLength
	if n == 0 {
		n = DefaultRecordLength
	}
	if n < 256 || n > 65536 || n&(n-1) != 0 {
		return 0, fmt.Errorf("%w: %d", ErrBadRecordLength, n)
	}
	return n, nil
}

// Encode writes every trace of st to dst. Sequence numbers run across the
// whole stream starting at 1. Output depends only on the traces, so equal
// streams produce identical bytes.
func (w Writer) Encode(dst io.Writer, st *Stream) error {
	reclen, err := w.recordLength()
	if err != nil {
		return err
	}
	seq := 1
	rec := make([]byte, reclen)
	for i, tr := range st.Traces {
		if tr.SamplingRate <= 0 || math.IsNaN(tr.SamplingRate) || math.IsInf(tr.SamplingRate, 0) {
			return fmt.Errorf("trace %d (%s): invalid sampling rate %g", i+1, tr.Station, tr.SamplingRate)
		}
		factor, mult, exact := factorMultiplier(tr.SamplingRate)
		encoding, width := encodingFor(tr.Kind)

		dataOffset := fixedHeaderSize + b1000Size
		if !exact {
			dataOffset += b100Size
		}
		dataOffset = (dataOffset + 63) &^ 63
		perRecord := (reclen - dataOffset) / width

		for start := 0; start == 0 || start < len(tr.Samples); start += perRecord {
			end := min(start+perRecord, len(tr.Samples))
			clear(rec)
			h := header{
				seq:        seq,
				trace:      &tr,
				start:      tr.StartTime.Add(sampleOffset(start, tr.SamplingRate)),
				nsamples:   end - start,
				factor:     factor,
				mult:       mult,
				exact:      exact,
				encoding:   encoding,
				reclenExp:  byte(bits.TrailingZeros(uint(reclen))),
				dataOffset: dataOffset,
			}
			h.put(rec)
			if err := putSamples(rec[dataOffset:], tr.Samples[start:end], encoding); err != nil {
				return fmt.Errorf("trace %d (%s): %w", i+1, tr.Station, err)
			}
			if _, err := dst.Write(rec); err != nil {
				return err
			}
			seq++
			if seq > 999999 {
				seq = 1
			}
			if len(tr.Samples) == 0 {
				break
			}
		}
	}
	return nil
}

// createFile opens the output of WriteFile. Tests swap it to inject write
// failures.
var createFile = func(path string) (io.WriteCloser, error) {
	return os.Create(path)
}

// WriteFile encodes st into a new file at path, replacing any existing file.
// A failed write leaves no file behind.
func (w Writer) WriteFile(path string, st *Stream) error {
	f, err := createFile(path)
	if err != nil {
		return err
	}
	bw := bufio.NewWriter(f)
	if err := w.Encode(bw, st); err != nil {
		return discard(f, path, fmt.Errorf("encoding %s: %w", path, err))
	}
	if err := bw.Flush(); err != nil {
		return discard(f, path, fmt.Errorf("writing %s: %w", path, err))
	}
	if err := f.Close(); err != nil {
		return discard(nil, path, fmt.Errorf("closing %s: %w", path, err))
	}
	return nil
}

// discard closes f when set, removes path, and returns err joined with any
// cleanup failure.
func discard(f io.Closer, path string, err error) error {
	var errs []error
	if f != nil {
		if cerr := f.Close(); cerr != nil {
			errs = append(errs, cerr)
		}
	}
	if rerr := os.Remove(path); rerr != nil && !errors.Is(rerr, fs.ErrNotExist) {
		errs = append(errs, rerr)
	}
	return errors.Join(append([]error{err}, errs...)...)
}

type header struct {
	seq        int
	trace      *Trace
	start      time.Time
	nsamples   int
	factor     int16
	mult       int16
	exact      bool
	encoding   byte
	reclenExp  byte
	dataOffset int
}

func (h header) put(rec []byte) {
	be := binary.BigEndian
	copy(rec[0:6], fmt.Sprintf("%06d", h.seq))
	rec[6] = 'D'
	rec[7] = ' '
	putCode(rec[8:13], h.trace.Station)
	putCode(rec[13:15], h.trace.Location)
	putCode(rec[15:18], h.trace.Channel)
	putCode(rec[18:20], h.trace.Network)
	putBTime(rec[20:30], h.start)
	be.PutUint16(rec[30:], uint16(h.nsamples))
	be.PutUint16(rec[32:], uint16(h.factor))
	be.PutUint16(rec[34:], uint16(h.mult))
	// activity, I/O and data quality flags stay zero; time correction is zero.
	nb := byte(1)
	if !h.exact {
		nb = 2
	}
	rec[39] = nb
	be.PutUint16(rec[44:], uint16(h.dataOffset))
	be.PutUint16(rec[46:], fixedHeaderSize)

	b := rec[fixedHeaderSize:]
	be.PutUint16(b[0:], 1000)
	if !h.exact {
		be.PutUint16(b[2:], fixedHeaderSize+b1000Size)
	}
	b[4] = h.encoding
	b[5] = 1 // big-endian word order
	b[6] = h.reclenExp

	if !h.exact {
		b = rec[fixedHeaderSize+b1000Size:]
		be.PutUint16(b[0:], 100)
		be.PutUint32(b[4:], math.Float32bits(float32(h.trace.SamplingRate)))
	}
}

// putCode left-justifies s in a space-padded field, truncating to fit.
func putCode(dst []byte, s string) {
	for i := range dst {
		dst[i] = ' '
	}
	copy(dst, s)
}

// putBTime writes t rounded to the 100 microsecond BTIME resolution.
func putBTime(dst []byte, t time.Time) {
	t = t.UTC().Round(100 * time.Microsecond)
	be := binary.BigEndian
	be.PutUint16(dst[0:], uint16(t.Year()))
	be.PutUint16(dst[2:], uint16(t.YearDay()))
	dst[4] = byte(t.Hour())
	dst[5] = byte(t.Minute())
	dst[6] = byte(t.Second())
	dst[7] = 0
	be.PutUint16(dst[8:], uint16(t.Nanosecond()/100000))
}

func putSamples(dst []byte, samples []float64, encoding byte) error {
	be := binary.BigEndian
	for i, v := range samples {
		switch encoding {
		case EncodingInt32:
			if v != math.Trunc(v) || v < math.MinInt32 || v > math.MaxInt32 {
				return fmt.Errorf("sample %d (%g) is not representable as int32", i, v)
			}
			be.PutUint32(dst[4*i:], uint32(int32(v)))
		case EncodingFloat32:
			be.PutUint32(dst[4*i:], math.Float32bits(float32(v)))
		case EncodingFloat64:
			be.PutUint64(dst[8*i:], math.Float64bits(v))
		}
	}
	return nil
}
