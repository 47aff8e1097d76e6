package saver

import "ami-data/internal/model"

// Bar is the export row for one quote. Time-of-day fields are kept so that
// intraday files survive the trip.
type Bar struct {
	Date   string  `json:"date" parquet:"date"`
	Year   int32   `json:"year" parquet:"year"`
	Month  int32   `json:"month" parquet:"month"`
	Day    int32   `json:"day" parquet:"day"`
	Hour   int32   `json:"hour,omitempty" parquet:"hour"`
	Minute int32   `json:"minute,omitempty" parquet:"minute"`
	Second int32   `json:"second,omitempty" parquet:"second"`
	Open   float32 `json:"open" parquet:"open"`
	High   float32 `json:"high" parquet:"high"`
	Low    float32 `json:"low" parquet:"low"`
	Close  float32 `json:"close" parquet:"close"`
	Volume float32 `json:"volume" parquet:"volume"`
	Aux1   float32 `json:"aux1,omitempty" parquet:"aux1"`
	Aux2   float32 `json:"aux2,omitempty" parquet:"aux2"`
}

// FromQuotes converts stored quotes to export rows, preserving order.
func FromQuotes(quotes []model.Quote) []Bar {
	rows := make([]Bar, len(quotes))
	for i, q := range quotes {
		rows[i] = Bar{
			Date:   q.Date().String(),
			Year:   int32(q.Year),
			Month:  int32(q.Month),
			Day:    int32(q.Day),
			Hour:   int32(q.Hour),
			Minute: int32(q.Minute),
			Second: int32(q.Second),
			Open:   q.Open,
			High:   q.High,
			Low:    q.Low,
			Close:  q.Close,
			Volume: q.Volume,
			Aux1:   q.Aux1,
			Aux2:   q.Aux2,
		}
	}
	return rows
}

// Columns is the column-oriented view of a symbol: one slice per field, all
// of equal length.
type Columns struct {
	Day    []int     `json:"Day"`
	Month  []int     `json:"Month"`
	Year   []int     `json:"Year"`
	Open   []float32 `json:"Open"`
	High   []float32 `json:"High"`
	Low    []float32 `json:"Low"`
	Close  []float32 `json:"Close"`
	Volume []float32 `json:"Volume"`
}

// ColumnsFromQuotes builds Columns from quotes. Empty input gives empty,
// non-nil slices so the JSON form is always a set of arrays.
func ColumnsFromQuotes(quotes []model.Quote) Columns {
	n := len(quotes)
	c := Columns{
		Day:    make([]int, 0, n),
		Month:  make([]int, 0, n),
		Year:   make([]int, 0, n),
		Open:   make([]float32, 0, n),
		High:   make([]float32, 0, n),
		Low:    make([]float32, 0, n),
		Close:  make([]float32, 0, n),
		Volume: make([]float32, 0, n),
	}
	for _, q := range quotes {
		c.Day = append(c.Day, int(q.Day))
		c.Month = append(c.Month, int(q.Month))
		c.Year = append(c.Year, int(q.Year))
		c.Open = append(c.Open, q.Open)
		c.High = append(c.High, q.High)
		c.Low = append(c.Low, q.Low)
		c.Close = append(c.Close, q.Close)
		c.Volume = append(c.Volume, q.Volume)
	}
	return c
}

// Len returns the number of rows.
func (c Columns) Len() int { return len(c.Day) }
