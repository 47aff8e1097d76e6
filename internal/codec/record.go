package codec

import (
	"fmt"

	"ami-data/internal/model"
)

// RecordSize is the on-disk size of one quote record.
//
//	| date(8) | close(4) | open(4) | high(4) | low(4) | volume(4) | aux1(4) | aux2(4) | terminator(4) |
//
// Close precedes open; existing files depend on that order.
const RecordSize = 40

// DecodeQuote decodes the first RecordSize bytes of b.
func DecodeQuote(b []byte) (model.Quote, error) {
	if len(b) < RecordSize {
		return model.Quote{}, fmt.Errorf("decode quote: got %d bytes, want %d: %w", len(b), RecordSize, ErrFormat)
	}
	return decodeQuote(b), nil
}

func decodeQuote(b []byte) model.Quote {
	f := func(off int) float32 {
		return DecodeFloat32([4]byte(b[off : off+4]))
	}
	return model.Quote{
		Timestamp:  DecodeTimestamp([8]byte(b[0:8])),
		Close:      f(8),
		Open:       f(12),
		High:       f(16),
		Low:        f(20),
		Volume:     f(24),
		Aux1:       f(28),
		Aux2:       f(32),
		Terminator: f(36),
	}
}

// EncodeQuote is the inverse of DecodeQuote. It fails only when a timestamp
// field is out of range.
func EncodeQuote(q model.Quote) ([RecordSize]byte, error) {
	var out [RecordSize]byte
	ts, err := EncodeTimestamp(q.Timestamp)
	if err != nil {
		return out, err
	}
	copy(out[0:8], ts[:])
	for i, v := range [...]float32{q.Close, q.Open, q.High, q.Low, q.Volume, q.Aux1, q.Aux2, q.Terminator} {
		fb := EncodeFloat32(v)
		copy(out[8+4*i:], fb[:])
	}
	return out, nil
}

// DecodeQuotes decodes consecutive records from b. A trailing fragment shorter
// than RecordSize is dropped.
func DecodeQuotes(b []byte) []model.Quote {
	n := len(b) / RecordSize
	quotes := make([]model.Quote, 0, n)
	for i := 0; i < n; i++ {
		quotes = append(quotes, decodeQuote(b[i*RecordSize:(i+1)*RecordSize]))
	}
	return quotes
}

// EncodeQuotes encodes all quotes into one buffer. Nothing is returned if any
// quote fails to encode.
func EncodeQuotes(quotes []model.Quote) ([]byte, error) {
	buf := make([]byte, 0, len(quotes)*RecordSize)
	for i, q := range quotes {
		rec, err := EncodeQuote(q)
		if err != nil {
			return nil, fmt.Errorf("encode quote %d: %w", i, err)
		}
		buf = append(buf, rec[:]...)
	}
	return buf, nil
}
