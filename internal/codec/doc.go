// Package codec converts quote records to and from their fixed-width binary form.
//
// All multi-byte values are little-endian. The 8-byte date field is a packed
// bit-field; see EncodeTimestamp for the layout.
package codec
