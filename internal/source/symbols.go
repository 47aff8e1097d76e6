package source

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// LoadSymbols reads a symbol list: a JSON array of strings for .json files,
// otherwise one symbol per line with '#' comments. Blanks and duplicates are
// dropped; order and casing are kept.
func LoadSymbols(path string) ([]string, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read symbol list: %w", err)
	}

	var symbols []string
	if strings.EqualFold(filepath.Ext(path), ".json") {
		if err := json.Unmarshal(content, &symbols); err != nil {
			return nil, fmt.Errorf("parse symbol list %s: %w", path, err)
		}
	} else {
		for _, line := range strings.Split(string(content), "\n") {
			line = strings.TrimSpace(line)
			if line != "" && !strings.HasPrefix(line, "#") {
				symbols = append(symbols, line)
			}
		}
	}

	seen := make(map[string]bool, len(symbols))
	unique := symbols[:0]
	for _, s := range symbols {
		s = strings.TrimSpace(s)
		if s != "" && !seen[s] {
			seen[s] = true
			unique = append(unique, s)
		}
	}
	return unique, nil
}
