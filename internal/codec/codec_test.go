package codec

import (
	"encoding/binary"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"ami-data/internal/model"
)

func TestTimestampRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		ts   model.Timestamp
	}{
		{"zero", model.Timestamp{}},
		{"daily", model.Timestamp{Year: 2017, Month: 9, Day: 29}},
		{"intraday", model.Timestamp{Year: 2024, Month: 12, Day: 31, Hour: 23, Minute: 59, Second: 58, Milli: 999, Micro: 500}},
		{"max widths", model.Timestamp{Year: 4095, Month: 15, Day: 31, Hour: 31, Minute: 63, Second: 63, Milli: 1023, Micro: 1023, Reserved: 7, Future: true}},
		{"future flag only", model.Timestamp{Future: true}},
		{"reserved only", model.Timestamp{Reserved: 5}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := EncodeTimestamp(tt.ts)
			require.NoError(t, err)
			require.Equal(t, tt.ts, DecodeTimestamp(b))
		})
	}
}

func TestEncodeTimestampLayout(t *testing.T) {
	b, err := EncodeTimestamp(model.Timestamp{Year: 2020, Month: 1, Day: 2})
	require.NoError(t, err)

	want := uint64(2020)<<52 | uint64(1)<<48 | uint64(2)<<43
	require.Equal(t, want, binary.LittleEndian.Uint64(b[:]))
}

func TestDecodeTimestampIsTotal(t *testing.T) {
	ts := DecodeTimestamp([8]byte{0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF})
	require.Equal(t, uint16(4095), ts.Year)
	require.Equal(t, uint8(15), ts.Month)
	require.Equal(t, uint8(31), ts.Day)
	require.Equal(t, uint8(7), ts.Reserved)
	require.True(t, ts.Future)
}

func TestUnusedTimestampBitsAreNotKept(t *testing.T) {
	var in [8]byte
	binary.LittleEndian.PutUint64(in[:], uint64(2020)<<52|0b11<<4)

	ts := DecodeTimestamp(in)
	require.Equal(t, model.Timestamp{Year: 2020}, ts)

	out, err := EncodeTimestamp(ts)
	require.NoError(t, err)
	require.Equal(t, uint64(2020)<<52, binary.LittleEndian.Uint64(out[:]))
}

func TestEncodeTimestampRejectsOverflow(t *testing.T) {
	tests := []struct {
		name  string
		ts    model.Timestamp
		field string
	}{
		{"year", model.Timestamp{Year: 4096}, "year"},
		{"month", model.Timestamp{Year: 2020, Month: 16}, "month"},
		{"day", model.Timestamp{Day: 32}, "day"},
		{"hour", model.Timestamp{Hour: 32}, "hour"},
		{"minute", model.Timestamp{Minute: 64}, "minute"},
		{"second", model.Timestamp{Second: 64}, "second"},
		{"milli", model.Timestamp{Milli: 1024}, "milli"},
		{"micro", model.Timestamp{Micro: 1024}, "micro"},
		{"reserved", model.Timestamp{Reserved: 8}, "reserved"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := EncodeTimestamp(tt.ts)
			require.ErrorIs(t, err, ErrFieldRange)

			var rangeErr *FieldRangeError
			require.True(t, errors.As(err, &rangeErr))
			require.Equal(t, tt.field, rangeErr.Field)
		})
	}
}

func TestFloat32(t *testing.T) {
	for _, f := range []float32{0, 1, -25, 102.5, math.MaxFloat32, float32(math.Inf(-1))} {
		require.Equal(t, f, DecodeFloat32(EncodeFloat32(f)))
	}
	require.Equal(t, [4]byte{0x00, 0x00, 0x80, 0x3F}, EncodeFloat32(1.0))
}

func TestReverseBits(t *testing.T) {
	require.Equal(t, byte(0x80), ReverseBits(0x01))
	require.Equal(t, byte(0x01), ReverseBits(0x80))
	require.Equal(t, byte(0xF0), ReverseBits(0x0F))
	require.Equal(t, byte(0b1010_0000), ReverseBits(0b0000_0101))
}

func TestQuoteRoundTrip(t *testing.T) {
	q := model.Quote{
		Timestamp:  model.Timestamp{Year: 2021, Month: 3, Day: 4, Hour: 9, Minute: 30, Reserved: 2, Future: true},
		Close:      102,
		Open:       100,
		High:       105,
		Low:        99,
		Volume:     1000,
		Aux1:       1.5,
		Aux2:       -2.5,
		Terminator: 7,
	}
	b, err := EncodeQuote(q)
	require.NoError(t, err)

	got, err := DecodeQuote(b[:])
	require.NoError(t, err)
	require.Equal(t, q, got)
}

func TestQuoteFieldOrder(t *testing.T) {
	q := model.Quote{Close: 1, Open: 2, High: 3, Low: 4, Volume: 5, Aux1: 6, Aux2: 7, Terminator: 8}
	b, err := EncodeQuote(q)
	require.NoError(t, err)

	for i, want := range []float32{1, 2, 3, 4, 5, 6, 7, 8} {
		off := 8 + 4*i
		require.Equal(t, want, DecodeFloat32([4]byte(b[off:off+4])), "offset %d", off)
	}
}

func TestDecodeQuoteShortBuffer(t *testing.T) {
	_, err := DecodeQuote(make([]byte, RecordSize-1))
	require.ErrorIs(t, err, ErrFormat)
}

func TestDecodeQuotesDropsTrailingFragment(t *testing.T) {
	buf, err := EncodeQuotes([]model.Quote{
		{Timestamp: model.Timestamp{Year: 2020, Month: 1, Day: 1}, Close: 1},
		{Timestamp: model.Timestamp{Year: 2020, Month: 1, Day: 2}, Close: 2},
	})
	require.NoError(t, err)
	buf = append(buf, 1, 2, 3, 4)

	quotes := DecodeQuotes(buf)
	require.Len(t, quotes, 2)
	require.Equal(t, float32(2), quotes[1].Close)
}

func TestEncodeQuotesFailsAtomically(t *testing.T) {
	buf, err := EncodeQuotes([]model.Quote{
		{Timestamp: model.Timestamp{Year: 2020, Month: 1, Day: 1}},
		{Timestamp: model.Timestamp{Year: 2020, Month: 16, Day: 1}},
	})
	require.ErrorIs(t, err, ErrFieldRange)
	require.Nil(t, buf)
}

func BenchmarkDecodeQuotes(b *testing.B) {
	quotes := make([]model.Quote, 0, 10000)
	for i := 0; i < 10000; i++ {
		quotes = append(quotes, model.Quote{
			Timestamp: model.Timestamp{Year: 2020, Month: uint8(i%12 + 1), Day: uint8(i%28 + 1)},
			Open:      100, High: 101, Low: 99, Close: 100.5, Volume: 1000,
		})
	}
	buf, err := EncodeQuotes(quotes)
	if err != nil {
		b.Fatal(err)
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = DecodeQuotes(buf)
	}
}

func BenchmarkEncodeQuote(b *testing.B) {
	q := model.Quote{Timestamp: model.Timestamp{Year: 2020, Month: 6, Day: 15}, Open: 100, High: 101, Low: 99, Close: 100.5, Volume: 1000}
	for i := 0; i < b.N; i++ {
		if _, err := EncodeQuote(q); err != nil {
			b.Fatal(err)
		}
	}
}
