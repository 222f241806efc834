// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// SampleKind records the numeric type a trace was stored as. Samples are
// carried as float64, which holds every supported source type exactly; the
// kind tells writers which encoding reproduces the original values.
type SampleKind uint8

const (
	KindInt32 SampleKind = iota + 1
	KindFloat32
	KindFloat64
)

func (k SampleKind) String() string {
	switch k {
	case KindInt32:
		return "int32"
	case KindFloat32:
		return "float32"
	case KindFloat64:
		return "float64"
	}
	return "unknown"
}
