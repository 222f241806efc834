// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package seg2

import (
	"encoding/binary"
	"fmt"
	"math"
	"strings"
	"unicode"
)

// Decode parses a complete SEG2 file held in data.
func Decode(data []byte) (*File, error) {
	if len(data) < headerSize {
		return nil, fmt.Errorf("%w: %d bytes is shorter than the file descriptor", ErrTruncated, len(data))
	}

	var order binary.ByteOrder
	switch {
	case binary.LittleEndian.Uint16(data) == fileBlockID:
		order = binary.LittleEndian
	case binary.BigEndian.Uint16(data) == fileBlockID:
		order = binary.BigEndian
	default:
		return nil, fmt.Errorf("%w: block id %#04x", ErrNotSEG2, binary.LittleEndian.Uint16(data))
	}

	f := &File{
		ByteOrder: order,
		Revision:  order.Uint16(data[2:]),
	}
	ptrSize := int(order.Uint16(data[4:]))
	n := int(order.Uint16(data[6:]))
	if ptrSize < 4*n {
		return nil, fmt.Errorf("trace pointer sub-block of %d bytes cannot hold %d traces", ptrSize, n)
	}
	if headerSize+ptrSize > len(data) {
		return nil, fmt.Errorf("%w: trace pointer sub-block", ErrTruncated)
	}
	cutset := terminatorCutset(data)

	pointers := make([]int, n)
	stringsEnd := len(data)
	for i := range pointers {
		p := int(order.Uint32(data[headerSize+4*i:]))
		pointers[i] = p
		if p < stringsEnd {
			stringsEnd = p
		}
	}
	stringsStart := headerSize + ptrSize
	if stringsEnd < stringsStart {
		return nil, fmt.Errorf("trace pointer %d points into the file descriptor", stringsEnd)
	}

	fs, err := decodeStrings(data[stringsStart:stringsEnd], order, cutset)
	if err != nil {
		return nil, fmt.Errorf("file strings: %w", err)
	}
	f.Strings = fs

	f.Traces = make([]Trace, 0, n)
	for i, p := range pointers {
		tr, err := decodeTrace(data, p, order, cutset)
		if err != nil {
			return nil, fmt.Errorf("trace %d: %w", i+1, err)
		}
		f.Traces = append(f.Traces, tr)
	}
	return f, nil
}

// terminatorCutset returns the string terminator characters declared in the
// file descriptor, plus NUL.
func terminatorCutset(data []byte) string {
	cut := "\x00"
	size := int(data[8])
	if size > 2 {
		size = 2
	}
	for _, c := range data[9 : 9+size] {
		if c != 0 {
			cut += string(rune(c))
		}
	}
	return cut
}

func decodeTrace(data []byte, p int, order binary.ByteOrder, cutset string) (Trace, error) {
	if p < 0 || p+headerSize > len(data) {
		return Trace{}, fmt.Errorf("%w: descriptor at offset %d", ErrTruncated, p)
	}
	if id := order.Uint16(data[p:]); id != traceBlockID {
		return Trace{}, fmt.Errorf("bad trace descriptor block id %#04x at offset %d", id, p)
	}
	descSize := int(order.Uint16(data[p+2:]))
	dataSize := int(order.Uint32(data[p+4:]))
	ns := int(order.Uint32(data[p+8:]))
	code := FormatCode(data[p+12])

	if descSize < headerSize || p+descSize > len(data) {
		return Trace{}, fmt.Errorf("%w: descriptor of %d bytes at offset %d", ErrTruncated, descSize, p)
	}
	strs, err := decodeStrings(data[p+headerSize:p+descSize], order, cutset)
	if err != nil {
		return Trace{}, err
	}

	w := code.size()
	if w == 0 {
		return Trace{}, fmt.Errorf("%w: %d", ErrUnsupportedFormatCode, code)
	}
	need := ns * w
	if need > dataSize {
		return Trace{}, fmt.Errorf("data block of %d bytes cannot hold %d samples of format %d", dataSize, ns, code)
	}
	start := p + descSize
	if start+need > len(data) {
		return Trace{}, fmt.Errorf("%w: data block at offset %d", ErrTruncated, start)
	}

	return Trace{
		Format:  code,
		Strings: strs,
		Samples: decodeSamples(data[start:start+need], ns, code, order),
	}, nil
}

func decodeSamples(buf []byte, ns int, code FormatCode, order binary.ByteOrder) []float64 {
	out := make([]float64, ns)
	switch code {
	case FormatInt16:
		for i := range out {
			out[i] = float64(int16(order.Uint16(buf[2*i:])))
		}
	case FormatInt32:
		for i := range out {
			out[i] = float64(int32(order.Uint32(buf[4*i:])))
		}
	case FormatFloat32:
		for i := range out {
			out[i] = float64(math.Float32frombits(order.Uint32(buf[4*i:])))
		}
	case FormatFloat64:
		for i := range out {
			out[i] = math.Float64frombits(order.Uint64(buf[8*i:]))
		}
	}
	return out
}

// decodeStrings walks a string sub-block: each entry is a 2-byte offset to
// the next entry followed by the text and its terminator. A zero offset ends
// the list.
func decodeStrings(buf []byte, order binary.ByteOrder, cutset string) (Strings, error) {
	var out Strings
	pos := 0
	for pos+2 <= len(buf) {
		off := int(order.Uint16(buf[pos:]))
		if off == 0 {
			break
		}
		if off < 2 || pos+off > len(buf) {
			return nil, fmt.Errorf("%w: string entry of %d bytes at offset %d", ErrTruncated, off, pos)
		}
		text := strings.TrimRight(string(buf[pos+2:pos+off]), cutset)
		if kv, ok := parseString(text); ok {
			out = append(out, kv)
		}
		pos += off
	}
	return out, nil
}

// parseString splits "KEYWORD value..." on the first run of whitespace.
func parseString(text string) (String, bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return String{}, false
	}
	i := strings.IndexFunc(text, unicode.IsSpace)
	if i < 0 {
		return String{Key: strings.ToUpper(text)}, true
	}
	return String{
		Key:   strings.ToUpper(text[:i]),
		Value: strings.TrimSpace(text[i:]),
	}, true
}
