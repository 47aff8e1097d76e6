package store

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"ami-data/internal/layout"
)

// Master index layout:
//
//	| header(8) | count(4, LE u32) | count × entry(1172) |
//
// entry:
//
//	| name(492, NUL padded) | reserved(16) | rest(664) |
const (
	MasterHeaderSize  = 8
	masterPrefixSize  = MasterHeaderSize + 4
	MasterEntrySize   = 1172
	SymbolNameSize    = 492
	EntryReservedSize = 16
	EntryRestSize     = MasterEntrySize - SymbolNameSize - EntryReservedSize
)

// defaultEntryReserved is what existing databases carry between the name and
// the metadata blob of every entry.
var defaultEntryReserved = [EntryReservedSize]byte{0x02, 14: 0x80, 15: 0x3F}

// MasterEntry is one symbol registration. Reserved and Rest are opaque and
// written back exactly as read.
type MasterEntry struct {
	Symbol   string
	Reserved [EntryReservedSize]byte
	Rest     [EntryRestSize]byte
}

// MasterIndex is the decoded broker.master file. Entry order is registration order.
type MasterIndex struct {
	Header  [MasterHeaderSize]byte
	Entries []MasterEntry
}

// NewMasterEntry returns an entry for symbol with default metadata.
func NewMasterEntry(symbol string) MasterEntry {
	return MasterEntry{Symbol: symbol, Reserved: defaultEntryReserved}
}

// ParseMaster decodes a master file. Input shorter than the fixed prefix
// yields an empty index. Entries past the declared count, or cut short by
// the end of data, are dropped.
func ParseMaster(data []byte) *MasterIndex {
	idx := &MasterIndex{}
	if len(data) < masterPrefixSize {
		return idx
	}
	copy(idx.Header[:], data[:MasterHeaderSize])
	count := int(binary.LittleEndian.Uint32(data[MasterHeaderSize:masterPrefixSize]))
	if avail := (len(data) - masterPrefixSize) / MasterEntrySize; count > avail {
		count = avail
	}
	idx.Entries = make([]MasterEntry, 0, count)
	for i := 0; i < count; i++ {
		off := masterPrefixSize + i*MasterEntrySize
		idx.Entries = append(idx.Entries, parseEntry(data[off:off+MasterEntrySize]))
	}
	return idx
}

func parseEntry(b []byte) MasterEntry {
	name := b[:SymbolNameSize]
	if i := bytes.IndexByte(name, 0); i >= 0 {
		name = name[:i]
	}
	e := MasterEntry{Symbol: string(name)}
	copy(e.Reserved[:], b[SymbolNameSize:SymbolNameSize+EntryReservedSize])
	copy(e.Rest[:], b[SymbolNameSize+EntryReservedSize:])
	return e
}

// ReadMaster loads the master index at path. A missing file is a valid empty
// database and returns an empty index without error.
func ReadMaster(path string) (*MasterIndex, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return &MasterIndex{}, nil
		}
		return nil, fmt.Errorf("read master %s: %w", path, err)
	}
	return ParseMaster(data), nil
}

// MarshalBinary encodes the index. The count field always equals len(Entries).
// Names longer than SymbolNameSize are cut, which AddSymbol never allows.
func (m *MasterIndex) MarshalBinary() ([]byte, error) {
	buf := make([]byte, masterPrefixSize, masterPrefixSize+len(m.Entries)*MasterEntrySize)
	copy(buf, m.Header[:])
	binary.LittleEndian.PutUint32(buf[MasterHeaderSize:], uint32(len(m.Entries)))
	for _, e := range m.Entries {
		var entry [MasterEntrySize]byte
		copy(entry[:SymbolNameSize], e.Symbol)
		copy(entry[SymbolNameSize:], e.Reserved[:])
		copy(entry[SymbolNameSize+EntryReservedSize:], e.Rest[:])
		buf = append(buf, entry[:]...)
	}
	return buf, nil
}

// WriteMaster persists idx to path, creating parent directories. The file is
// replaced by rename, so a failed write leaves the previous index intact.
func WriteMaster(path string, idx *MasterIndex) (err error) {
	data, err := idx.MarshalBinary()
	if err != nil {
		return fmt.Errorf("encode master: %w", err)
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create master dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create master temp: %w", err)
	}
	defer func() {
		if err != nil {
			os.Remove(tmp.Name())
		}
	}()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write master: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close master temp: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0644); err != nil {
		return fmt.Errorf("chmod master: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replace master: %w", err)
	}
	return nil
}

// AddSymbol registers name with default metadata. It reports false when the
// name is already present (case-sensitive); no file is touched either way.
func (m *MasterIndex) AddSymbol(name string) (bool, error) {
	if err := ValidateSymbol(name); err != nil {
		return false, err
	}
	if m.Has(name) {
		return false, nil
	}
	m.Entries = append(m.Entries, NewMasterEntry(name))
	return true, nil
}

// Has reports whether name is registered.
func (m *MasterIndex) Has(name string) bool {
	for _, e := range m.Entries {
		if e.Symbol == name {
			return true
		}
	}
	return false
}

// Symbols returns the registered names in registration order.
func (m *MasterIndex) Symbols() []string {
	out := make([]string, len(m.Entries))
	for i, e := range m.Entries {
		out[i] = e.Symbol
	}
	return out
}

// ValidateSymbol rejects names that cannot be registered or that would
// resolve outside their shard folder: path separators, "." and "..", and the
// master file name in any case.
func ValidateSymbol(name string) error {
	switch {
	case name == "":
		return fmt.Errorf("%w: empty", ErrSymbolName)
	case len(name) > SymbolNameSize:
		return fmt.Errorf("%w: %d bytes exceeds %d", ErrSymbolName, len(name), SymbolNameSize)
	case strings.IndexByte(name, 0) >= 0:
		return fmt.Errorf("%w: %q contains NUL", ErrSymbolName, name)
	case strings.ContainsAny(name, `/\`):
		return fmt.Errorf("%w: %q contains a path separator", ErrSymbolName, name)
	case name == "." || name == "..":
		return fmt.Errorf("%w: %q", ErrSymbolName, name)
	case strings.EqualFold(name, layout.MasterFile):
		return fmt.Errorf("%w: %q is reserved", ErrSymbolName, name)
	}
	return nil
}
