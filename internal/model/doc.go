// Package model defines the quote types shared by the codec, the store and the exporters.
//
// Conventions:
//   - Prices and volume: float32, as stored in symbol files
//   - Dates: (year, month, day) compared as y*10000+m*100+d
package model
