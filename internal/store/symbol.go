package store

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"ami-data/internal/codec"
	"ami-data/internal/model"
)

// HeaderSize is the size of the opaque block at the start of every symbol file.
const HeaderSize = 0x4A0

var (
	// ErrNotFound is returned when a symbol has no data file yet.
	ErrNotFound = errors.New("store: symbol file not found")
	// ErrSymbolName is returned for names that cannot be stored in the master index.
	ErrSymbolName = errors.New("store: invalid symbol name")
)

// SymbolFile is the decoded content of one symbol file.
type SymbolFile struct {
	Header [HeaderSize]byte
	Quotes []model.Quote
}

// DefaultSymbolHeader returns the header written to newly created symbol files.
// It matches what the charting application writes for an empty daily symbol.
// The header is never rewritten after creation.
func DefaultSymbolHeader() [HeaderSize]byte {
	var h [HeaderSize]byte
	copy(h[:], "BROKDAt5SPCE")
	h[500] = 2
	f := codec.EncodeFloat32(1.0)
	copy(h[512:516], f[:])
	binary.LittleEndian.PutUint32(h[HeaderSize-4:], 600)
	return h
}

// ReadSymbol reads a whole symbol file. No record is decoded until the full
// header has been consumed: a file shorter than HeaderSize is rejected with
// codec.ErrFormat. A trailing fragment shorter than one record is dropped.
func ReadSymbol(path string) (*SymbolFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("read symbol %s: %w: %w", path, ErrNotFound, err)
		}
		return nil, fmt.Errorf("read symbol %s: %w", path, err)
	}
	if len(data) < HeaderSize {
		return nil, fmt.Errorf("read symbol %s: header has %d of %d bytes: %w", path, len(data), HeaderSize, codec.ErrFormat)
	}
	sf := &SymbolFile{Quotes: codec.DecodeQuotes(data[HeaderSize:])}
	copy(sf.Header[:], data[:HeaderSize])
	return sf, nil
}

// CreateSymbol writes header to a new file at path, creating parent
// directories. An existing file is left untouched.
func CreateSymbol(path string, header [HeaderSize]byte) (err error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create symbol dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return nil
		}
		return fmt.Errorf("create symbol %s: %w", path, err)
	}
	defer closeFile(f, &err)
	if _, err := f.Write(header[:]); err != nil {
		return fmt.Errorf("write symbol header %s: %w", path, err)
	}
	return nil
}

// AppendQuotes appends quotes to the symbol file at path. A missing file is
// created with DefaultSymbolHeader in the same write as the first records, so
// a file never exists without a complete header. All quotes are encoded
// before anything is written.
func AppendQuotes(path string, quotes []model.Quote) (err error) {
	buf, err := codec.EncodeQuotes(quotes)
	if err != nil {
		return fmt.Errorf("append %s: %w", path, err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create symbol dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("open symbol %s: %w", path, err)
	}
	defer closeFile(f, &err)

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("stat symbol %s: %w", path, err)
	}
	switch size := info.Size(); {
	case size == 0:
		h := DefaultSymbolHeader()
		buf = append(h[:], buf...)
	case size < HeaderSize:
		return fmt.Errorf("append %s: header has %d of %d bytes: %w", path, size, HeaderSize, codec.ErrFormat)
	}
	if len(buf) == 0 {
		return nil
	}
	if _, err := f.Write(buf); err != nil {
		return fmt.Errorf("append %s: %w", path, err)
	}
	return nil
}

func closeFile(f *os.File, err *error) {
	if cerr := f.Close(); cerr != nil && *err == nil {
		*err = fmt.Errorf("close %s: %w", f.Name(), cerr)
	}
}
