package codec

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"math/bits"

	"ami-data/internal/model"
)

var (
	// ErrFormat is returned when a buffer is shorter than a fixed record or header size.
	ErrFormat = errors.New("codec: buffer too short")
	// ErrFieldRange is returned when a timestamp field does not fit its bit width.
	ErrFieldRange = errors.New("codec: timestamp field out of range")
)

// Packed timestamp layout, most significant field first:
//
//	| year(12) | month(4) | day(5) | hour(5) | minute(6) | second(6) | milli(10) | micro(10) | reserved(3) | future(1) |
//	  63..52     51..48     47..43   42..38    37..32      31..26      25..16      15..6       3..1          0
//
// Bits 5..4 are unused. They are dropped on decode and written as zero, so
// re-encoding a record that had them set does not reproduce its bytes.
const (
	yearShift     = 52
	monthShift    = 48
	dayShift      = 43
	hourShift     = 38
	minuteShift   = 32
	secondShift   = 26
	milliShift    = 16
	microShift    = 6
	reservedShift = 1

	yearMask     = 0xFFF
	monthMask    = 0xF
	dayMask      = 0x1F
	hourMask     = 0x1F
	minuteMask   = 0x3F
	secondMask   = 0x3F
	milliMask    = 0x3FF
	microMask    = 0x3FF
	reservedMask = 0x7
)

// FieldRangeError reports which timestamp field overflowed its bit width.
type FieldRangeError struct {
	Field string
	Value uint64
	Max   uint64
}

func (e *FieldRangeError) Error() string {
	return fmt.Sprintf("codec: timestamp %s=%d exceeds max %d", e.Field, e.Value, e.Max)
}

func (e *FieldRangeError) Unwrap() error { return ErrFieldRange }

// DecodeTimestamp unpacks the little-endian 64-bit date field. It accepts any input.
func DecodeTimestamp(b [8]byte) model.Timestamp {
	v := binary.LittleEndian.Uint64(b[:])
	return model.Timestamp{
		Year:     uint16((v >> yearShift) & yearMask),
		Month:    uint8((v >> monthShift) & monthMask),
		Day:      uint8((v >> dayShift) & dayMask),
		Hour:     uint8((v >> hourShift) & hourMask),
		Minute:   uint8((v >> minuteShift) & minuteMask),
		Second:   uint8((v >> secondShift) & secondMask),
		Milli:    uint16((v >> milliShift) & milliMask),
		Micro:    uint16((v >> microShift) & microMask),
		Reserved: uint8((v >> reservedShift) & reservedMask),
		Future:   v&1 == 1,
	}
}

// EncodeTimestamp packs t into its 8-byte little-endian form.
// A field wider than its slot is rejected with a *FieldRangeError instead of
// being allowed to bleed into its neighbour.
func EncodeTimestamp(t model.Timestamp) ([8]byte, error) {
	var out [8]byte
	if err := checkTimestamp(t); err != nil {
		return out, err
	}
	v := uint64(t.Year)<<yearShift |
		uint64(t.Month)<<monthShift |
		uint64(t.Day)<<dayShift |
		uint64(t.Hour)<<hourShift |
		uint64(t.Minute)<<minuteShift |
		uint64(t.Second)<<secondShift |
		uint64(t.Milli)<<milliShift |
		uint64(t.Micro)<<microShift |
		uint64(t.Reserved)<<reservedShift
	if t.Future {
		v |= 1
	}
	binary.LittleEndian.PutUint64(out[:], v)
	return out, nil
}

func checkTimestamp(t model.Timestamp) error {
	fields := []struct {
		name  string
		value uint64
		max   uint64
	}{
		{"year", uint64(t.Year), yearMask},
		{"month", uint64(t.Month), monthMask},
		{"day", uint64(t.Day), dayMask},
		{"hour", uint64(t.Hour), hourMask},
		{"minute", uint64(t.Minute), minuteMask},
		{"second", uint64(t.Second), secondMask},
		{"milli", uint64(t.Milli), milliMask},
		{"micro", uint64(t.Micro), microMask},
		{"reserved", uint64(t.Reserved), reservedMask},
	}
	for _, f := range fields {
		if f.value > f.max {
			return &FieldRangeError{Field: f.name, Value: f.value, Max: f.max}
		}
	}
	return nil
}

// DecodeFloat32 reads a little-endian IEEE-754 single.
func DecodeFloat32(b [4]byte) float32 {
	return math.Float32frombits(binary.LittleEndian.Uint32(b[:]))
}

// EncodeFloat32 writes f as a little-endian IEEE-754 single.
func EncodeFloat32(f float32) [4]byte {
	var out [4]byte
	binary.LittleEndian.PutUint32(out[:], math.Float32bits(f))
	return out
}

// ReverseBits swaps bit 0 with bit 7, bit 1 with bit 6, and so on.
// Kept for tools that read the date field bit-reversed.
func ReverseBits(b byte) byte {
	return bits.Reverse8(b)
}
