// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package seg2

import (
	"encoding/binary"
	"fmt"
	"math"
)

// Encode serializes f as a SEG2 revision 1 file. Descriptor strings are
// NUL-terminated and every block is padded to a 4-byte boundary.
func Encode(f *File) ([]byte, error) {
	order := f.ByteOrder
	if order == nil {
		order = binary.LittleEndian
	}
	n := len(f.Traces)
	if n > math.MaxUint16 {
		return nil, fmt.Errorf("%d traces exceed the SEG2 limit of %d", n, math.MaxUint16)
	}

	ptrSize := 4 * n
	fileStrings, err := encodeStrings(f.Strings, order)
	if err != nil {
		return nil, fmt.Errorf("file strings: %w", err)
	}

	blocks := make([][]byte, n)
	for i, tr := range f.Traces {
		b, err := encodeTrace(tr, order)
		if err != nil {
			return nil, fmt.Errorf("trace %d: %w", i+1, err)
		}
		blocks[i] = b
	}

	out := make([]byte, headerSize+ptrSize, headerSize+ptrSize+len(fileStrings))
	order.PutUint16(out[0:], fileBlockID)
	rev := f.Revision
	if rev == 0 {
		rev = revision
	}
	order.PutUint16(out[2:], rev)
	order.PutUint16(out[4:], uint16(ptrSize))
	order.PutUint16(out[6:], uint16(n))
	out[8] = 1  // string terminator size
	out[9] = 0  // string terminator
	out[11] = 1 // line terminator size
	out[12] = '\n'

	out = append(out, fileStrings...)
	for i, b := range blocks {
		order.PutUint32(out[headerSize+4*i:], uint32(len(out)))
		out = append(out, b...)
	}
	return out, nil
}

func encodeTrace(tr Trace, order binary.ByteOrder) ([]byte, error) {
	code := tr.Format
	if code == 0 {
		code = FormatFloat32
	}
	w := code.size()
	if w == 0 {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedFormatCode, code)
	}
	strs, err := encodeStrings(tr.Strings, order)
	if err != nil {
		return nil, err
	}
	descSize := headerSize + len(strs)
	if descSize > math.MaxUint16 {
		return nil, fmt.Errorf("descriptor of %d bytes exceeds %d", descSize, math.MaxUint16)
	}
	dataSize := len(tr.Samples) * w

	b := make([]byte, descSize+dataSize)
	order.PutUint16(b[0:], traceBlockID)
	order.PutUint16(b[2:], uint16(descSize))
	order.PutUint32(b[4:], uint32(dataSize))
	order.PutUint32(b[8:], uint32(len(tr.Samples)))
	b[12] = byte(code)
	copy(b[headerSize:], strs)

	if err := encodeSamples(b[descSize:], tr.Samples, code, order); err != nil {
		return nil, err
	}
	return b, nil
}

func encodeSamples(buf []byte, samples []float64, code FormatCode, order binary.ByteOrder) error {
	for i, v := range samples {
		switch code {
		case FormatInt16:
			if v != math.Trunc(v) || v < math.MinInt16 || v > math.MaxInt16 {
				return fmt.Errorf("sample %d (%g) is not representable as int16", i, v)
			}
			order.PutUint16(buf[2*i:], uint16(int16(v)))
		case FormatInt32:
			if v != math.Trunc(v) || v < math.MinInt32 || v > math.MaxInt32 {
				return fmt.Errorf("sample %d (%g) is not representable as int32", i, v)
			}
			order.PutUint32(buf[4*i:], uint32(int32(v)))
		case FormatFloat32:
			order.PutUint32(buf[4*i:], math.Float32bits(float32(v)))
		case FormatFloat64:
			order.PutUint64(buf[8*i:], math.Float64bits(v))
		}
	}
	return nil
}

// encodeStrings lays out a string sub-block terminated by a zero offset and
// padded to a multiple of four bytes.
func encodeStrings(ss Strings, order binary.ByteOrder) ([]byte, error) {
	var out []byte
	for _, kv := range ss {
		text := kv.Key
		if kv.Value != "" {
			text += " " + kv.Value
		}
		entry := 2 + len(text) + 1
		if entry > math.MaxUint16 {
			return nil, fmt.Errorf("string %s of %d bytes is too long", kv.Key, len(text))
		}
		var off [2]byte
		order.PutUint16(off[:], uint16(entry))
		out = append(out, off[:]...)
		out = append(out, text...)
		out = append(out, 0)
	}
	out = append(out, 0, 0)
	for len(out)%4 != 0 {
		out = append(out, 0)
	}
	return out, nil
}
