package tui

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/gg7/gentoostats/internal/core"
)

var _ core.UICallback = (*NonInteractiveTUICallback)(nil)

func decodeEvents(t *testing.T, out string) []core.JSONOutput {
	t.Helper()
	var events []core.JSONOutput
	dec := json.NewDecoder(bytes.NewBufferString(out))
	for dec.More() {
		var ev core.JSONOutput
		if err := dec.Decode(&ev); err != nil {
			t.Fatalf("decode %q: %v", out, err)
		}
		events = append(events, ev)
	}
	return events
}

// ============================================================================
// Quiet mode
// ============================================================================

func TestNonInteractiveTUICallback_Quiet(t *testing.T) {
	cb := NewNonInteractiveTUICallback(core.CommonFlags{Mode: core.OutputQuiet})

	out := captureOutput(t, func() {
		cb.ShowError("Test Error", "not shown")
		cb.ShowSuccess("not shown")
		cb.ShowWarning("Warn", "not shown")
		cb.ShowInfo("not shown")
	})
	if out != "" {
		t.Errorf("expected no output in quiet mode, got: %q", out)
	}
}

// ============================================================================
// JSON mode
// ============================================================================

func TestNonInteractiveTUICallback_JSON(t *testing.T) {
	cb := NewNonInteractiveTUICallback(core.CommonFlags{Mode: core.OutputJSON})

	out := captureOutput(t, func() {
		cb.ShowError("Test Error", "Test message")
		cb.ShowSuccess("uploaded")
		cb.ShowWarning("Policy", "LANG withheld")
		cb.ShowInfo("812 packages")
	})

	events := decodeEvents(t, out)
	if len(events) != 4 {
		t.Fatalf("expected 4 events, got %d: %q", len(events), out)
	}

	if events[0].Status != "error" || events[0].Error == nil {
		t.Fatalf("first event = %+v", events[0])
	}
	if events[0].Error.Title != "Test Error" || events[0].Error.Message != "Test message" {
		t.Errorf("error details = %+v", events[0].Error)
	}

	tests := []struct {
		status  string
		message string
	}{
		{"success", "uploaded"},
		{"warning", "Policy: LANG withheld"},
		{"info", "812 packages"},
	}
	for i, tt := range tests {
		ev := events[i+1]
		if ev.Status != tt.status || ev.Message != tt.message {
			t.Errorf("event %d = %+v, want %s %q", i+1, ev, tt.status, tt.message)
		}
	}
}

// ============================================================================
// Normal mode
// ============================================================================

func TestNonInteractiveTUICallback_Normal(t *testing.T) {
	cb := NewNonInteractiveTUICallback(core.CommonFlags{Mode: core.OutputNormal})

	out := captureOutput(t, func() {
		cb.ShowError("Test Error", "Test message")
		cb.ShowSuccess("uploaded")
		cb.ShowWarning("Policy", "LANG withheld")
		cb.ShowInfo("812 packages")
	})

	want := strings.Join([]string{
		"Error: Test Error - Test message",
		"uploaded",
		"Warning: Policy - LANG withheld",
		"812 packages",
		"",
	}, "\n")
	if out != want {
		t.Errorf("output = %q, want %q", out, want)
	}
}

func TestNonInteractiveTUICallback_StyleTitle(t *testing.T) {
	cb := NewNonInteractiveTUICallback(core.CommonFlags{})
	if got := cb.StyleTitle("Plain"); got != "Plain" {
		t.Errorf("StyleTitle = %q, want unstyled text", got)
	}
}

func TestNonInteractiveTUICallback_GetOutputMode(t *testing.T) {
	for _, mode := range []core.OutputMode{core.OutputNormal, core.OutputQuiet, core.OutputJSON} {
		cb := NewNonInteractiveTUICallback(core.CommonFlags{Mode: mode})
		if cb.GetOutputMode() != mode {
			t.Errorf("GetOutputMode = %v, want %v", cb.GetOutputMode(), mode)
		}
	}
}
