package tui

import (
	"encoding/json"
	"fmt"

	"github.com/gg7/gentoostats/internal/core"
)

// NonInteractiveTUICallback handles output when stderr is not a terminal or
// when --quiet or --json is given.
type NonInteractiveTUICallback struct {
	flags core.CommonFlags
}

// NewNonInteractiveTUICallback creates a new non-interactive callback
func NewNonInteractiveTUICallback(flags core.CommonFlags) *NonInteractiveTUICallback {
	return &NonInteractiveTUICallback{flags: flags}
}

// ShowError displays an error message
func (n *NonInteractiveTUICallback) ShowError(title, message string) {
	switch n.flags.Mode {
	case core.OutputJSON:
		_ = n.FormatJSON(core.JSONOutput{
			Status: "error",
			Error: &core.JSONError{
				Title:   title,
				Message: message,
			},
		})
	case core.OutputQuiet:
	default:
		fmt.Fprintf(output, "Error: %s - %s\n", title, message)
	}
}

// ShowSuccess displays a success message
func (n *NonInteractiveTUICallback) ShowSuccess(message string) {
	n.emit("success", message, "")
}

// ShowWarning displays a warning message
func (n *NonInteractiveTUICallback) ShowWarning(title, message string) {
	n.emit("warning", fmt.Sprintf("%s: %s", title, message), fmt.Sprintf("Warning: %s - %s", title, message))
}

// ShowInfo displays an informational message
func (n *NonInteractiveTUICallback) ShowInfo(message string) {
	n.emit("info", message, "")
}

// emit writes a status line, or a JSON event in JSON mode. Quiet mode
// drops everything but errors. An empty text prints the message as-is.
func (n *NonInteractiveTUICallback) emit(status, message, text string) {
	switch n.flags.Mode {
	case core.OutputJSON:
		_ = n.FormatJSON(core.JSONOutput{Status: status, Message: message})
	case core.OutputQuiet:
	default:
		if text == "" {
			text = message
		}
		fmt.Fprintln(output, text)
	}
}

// StyleTitle returns a styled title (no styling in non-interactive mode)
func (n *NonInteractiveTUICallback) StyleTitle(title string) string {
	return title
}

// GetOutputMode returns the current output mode
func (n *NonInteractiveTUICallback) GetOutputMode() core.OutputMode {
	return n.flags.Mode
}

// FormatJSON writes one JSON event. Events share stderr with other status
// output so stdout carries only the command result.
func (n *NonInteractiveTUICallback) FormatJSON(out core.JSONOutput) error {
	return json.NewEncoder(output).Encode(out)
}
