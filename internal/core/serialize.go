package core

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/gg7/gentoostats/internal/types"
)

// SerializeReport encodes v (a *types.Report or *types.Submission) as JSON.
// The compact form is what gets uploaded; human adds two-space indentation.
// Map keys are sorted either way, so equal reports encode identically.
func SerializeReport(v any, human bool) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if human {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(v); err != nil {
		return nil, fmt.Errorf("serialize report: %w", err)
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// PackageCount returns how many package records a report carries.
func PackageCount(report *types.Report) int {
	if report == nil {
		return 0
	}
	return len(report.Packages)
}
