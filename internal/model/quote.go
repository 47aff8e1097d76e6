package model

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Timestamp is the unpacked form of the 8-byte date field of a quote record.
// Field widths follow the packed layout: year 12 bits, month 4, day 5, hour 5,
// minute 6, second 6, milli 10, micro 10, reserved 3, future flag 1.
type Timestamp struct {
	Year     uint16
	Month    uint8
	Day      uint8
	Hour     uint8
	Minute   uint8
	Second   uint8
	Milli    uint16
	Micro    uint16
	Reserved uint8
	Future   bool
}

// Date returns the calendar part of the timestamp.
func (t Timestamp) Date() Date {
	return Date{Year: t.Year, Month: t.Month, Day: t.Day}
}

// Quote is one OHLCV record of a symbol file.
// Float fields are single precision, as stored on disk.
type Quote struct {
	Timestamp
	Close      float32
	Open       float32
	High       float32
	Low        float32
	Volume     float32
	Aux1       float32
	Aux2       float32
	Terminator float32
}

// Date is a (year, month, day) triple compared as one ordered key.
type Date struct {
	Year  uint16
	Month uint8
	Day   uint8
}

// Key returns y*10000 + m*100 + d, which orders dates chronologically.
func (d Date) Key() uint32 {
	return uint32(d.Year)*10000 + uint32(d.Month)*100 + uint32(d.Day)
}

// Before reports whether d is strictly earlier than o.
func (d Date) Before(o Date) bool { return d.Key() < o.Key() }

// After reports whether d is strictly later than o.
func (d Date) After(o Date) bool { return d.Key() > o.Key() }

func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, d.Month, d.Day)
}

// Time converts d to midnight UTC.
func (d Date) Time() time.Time {
	return time.Date(int(d.Year), time.Month(d.Month), int(d.Day), 0, 0, 0, 0, time.UTC)
}

// ParseDate parses YYYY-MM-DD. Components are only checked against the
// widths of the packed timestamp, not against the calendar.
func ParseDate(s string) (Date, error) {
	parts := strings.Split(strings.TrimSpace(s), "-")
	if len(parts) != 3 {
		return Date{}, fmt.Errorf("parse date %q: want YYYY-MM-DD", s)
	}
	y, err := strconv.ParseUint(parts[0], 10, 12)
	if err != nil {
		return Date{}, fmt.Errorf("parse date %q: year: %w", s, err)
	}
	m, err := strconv.ParseUint(parts[1], 10, 4)
	if err != nil {
		return Date{}, fmt.Errorf("parse date %q: month: %w", s, err)
	}
	d, err := strconv.ParseUint(parts[2], 10, 5)
	if err != nil {
		return Date{}, fmt.Errorf("parse date %q: day: %w", s, err)
	}
	return Date{Year: uint16(y), Month: uint8(m), Day: uint8(d)}, nil
}

// QuoteOnDate builds a daily quote with all time-of-day and auxiliary fields zeroed.
func QuoteOnDate(d Date, open, high, low, close, volume float32) Quote {
	return Quote{
		Timestamp: Timestamp{Year: d.Year, Month: d.Month, Day: d.Day},
		Open:      open,
		High:      high,
		Low:       low,
		Close:     close,
		Volume:    volume,
	}
}
