package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"ami-data/internal/amidb"
)

// DirSource reads <dir>/<symbol>.csv, or its .csv.gz / .csv.zst variant.
type DirSource struct {
	Dir string
}

// NewDirSource returns a DirSource rooted at dir.
func NewDirSource(dir string) *DirSource {
	return &DirSource{Dir: dir}
}

func (s *DirSource) Name() string { return "dir" }

func (s *DirSource) Fetch(ctx context.Context, symbol string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	for _, ext := range []string{".csv", ".csv.gz", ".csv.zst"} {
		path := filepath.Join(s.Dir, symbol+ext)
		f, err := os.Open(path)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", path, err)
		}
		rc, err := amidb.Decompress(f, path)
		if err != nil {
			f.Close()
			return nil, err
		}
		return rc, nil
	}
	return nil, fmt.Errorf("%s in %s: %w", symbol, s.Dir, ErrNoData)
}

func (s *DirSource) Close() error { return nil }
