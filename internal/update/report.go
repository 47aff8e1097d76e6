package update

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ReportFile is the name of the run report written under the database root.
const ReportFile = ".lastrun.json"

// Report summarises one Run.
type Report struct {
	RunID    uuid.UUID      `json:"run_id"`
	Source   string         `json:"source"`
	Started  time.Time      `json:"started"`
	Finished time.Time      `json:"finished"`
	Success  []SymbolResult `json:"success"`
	Skipped  []string       `json:"skipped,omitempty"`
	Failed   []FailedEntry  `json:"failed,omitempty"`
}

// SymbolResult counts the quotes appended for one symbol. Zero means the
// symbol was already current.
type SymbolResult struct {
	Symbol   string `json:"symbol"`
	Appended int    `json:"appended"`
}

type FailedEntry struct {
	Symbol string `json:"symbol"`
	Reason string `json:"reason"`
}

// ReadReport loads the last run report under root.
func ReadReport(root string) (Report, error) {
	var r Report
	data, err := os.ReadFile(filepath.Join(root, ReportFile))
	if err != nil {
		return r, err
	}
	if err := json.Unmarshal(data, &r); err != nil {
		return r, fmt.Errorf("parse run report: %w", err)
	}
	return r, nil
}

func writeRunReport(root string, r Report) error {
	p := filepath.Join(root, ReportFile)
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(p, data, 0644); err != nil {
		return err
	}
	slog.Debug("report wrote", "path", p, "success", len(r.Success), "failed", len(r.Failed))
	return nil
}

func joinFailedReasons(failed []FailedEntry) string {
	var b strings.Builder
	for i, f := range failed {
		if i > 0 {
			b.WriteString("; ")
		}
		b.WriteString(f.Symbol)
		b.WriteString(": ")
		b.WriteString(f.Reason)
		if i >= 4 && len(failed) > 6 {
			fmt.Fprintf(&b, " (+%d more)", len(failed)-5)
			break
		}
	}
	return b.String()
}
