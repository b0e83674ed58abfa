package core

import (
	"fmt"
	"strings"

	"github.com/gg7/gentoostats/internal/types"
)

// Pluralize returns the singular or plural form based on count.
// Examples:
//
//	Pluralize(1, "package", "packages") => "1 package"
//	Pluralize(2, "package", "packages") => "2 packages"
//	Pluralize(0, "package", "packages") => "0 packages"
func Pluralize(count int, singular, plural string) string {
	if count == 1 {
		return fmt.Sprintf("%d %s", count, singular)
	}
	return fmt.Sprintf("%d %s", count, plural)
}

// SummarizeReport describes a report in one line for normal output mode.
func SummarizeReport(report *types.Report) string {
	if report == nil {
		return "empty report"
	}

	parts := []string{Pluralize(len(report.Env), "variable", "variables")}
	if report.Packages != nil {
		parts = append(parts, Pluralize(len(report.Packages), "package", "packages"))
	}
	if report.SelectedSets != nil {
		parts = append(parts, Pluralize(len(report.SelectedSets), "set", "sets"))
	}
	return strings.Join(parts, ", ")
}
