// Package testutil provides shared test helpers for gentoostats packages:
// pointer constructors, JSON/YAML field assertions and filesystem fixtures.
package testutil

import (
	"encoding/json"
	"os"
	"path/filepath"
	"reflect"
	"sort"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"
)

// ============================================================================
// Pointer Helpers
// ============================================================================

// StrPtr creates a pointer to a string - useful for optional fields in tests.
func StrPtr(s string) *string {
	return &s
}

// Int64Ptr creates a pointer to an int64.
func Int64Ptr(i int64) *int64 {
	return &i
}

// BoolPtr creates a pointer to a bool.
func BoolPtr(b bool) *bool {
	return &b
}

// ============================================================================
// YAML Assertions
// ============================================================================

// AssertYAMLOmitsField verifies a field is not present in marshalled YAML output.
func AssertYAMLOmitsField(t *testing.T, v any, fieldName string) {
	t.Helper()
	data, err := yaml.Marshal(v)
	if err != nil {
		t.Fatalf("failed to marshal: %v", err)
	}
	if strings.Contains(string(data), fieldName+":") {
		t.Errorf("expected field %q to be omitted from YAML output, got:\n%s", fieldName, string(data))
	}
}

// AssertYAMLContainsField verifies a field is present in marshalled YAML output.
func AssertYAMLContainsField(t *testing.T, v any, fieldName string) {
	t.Helper()
	data, err := yaml.Marshal(v)
	if err != nil {
		t.Fatalf("failed to marshal: %v", err)
	}
	if !strings.Contains(string(data), fieldName+":") {
		t.Errorf("expected field %q to be present in YAML output, got:\n%s", fieldName, string(data))
	}
}

// ============================================================================
// JSON Assertions
// ============================================================================

// AssertJSONOmitsField verifies a field is not present in marshalled JSON output.
// Checks for "fieldName" (with quotes) pattern in the output.
func AssertJSONOmitsField(t *testing.T, v any, fieldName string) {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("failed to marshal: %v", err)
	}
	if strings.Contains(string(data), `"`+fieldName+`"`) {
		t.Errorf("expected field %q to be omitted from JSON output, got:\n%s", fieldName, string(data))
	}
}

// AssertJSONContainsField verifies a field is present in marshalled JSON output.
func AssertJSONContainsField(t *testing.T, v any, fieldName string) {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("failed to marshal: %v", err)
	}
	if !strings.Contains(string(data), `"`+fieldName+`"`) {
		t.Errorf("expected field %q to be present in JSON output, got:\n%s", fieldName, string(data))
	}
}

// JSONObjectKeys marshals v and returns the sorted top-level keys of the
// resulting object. Values that do not encode to an object fail the test.
func JSONObjectKeys(t *testing.T, v any) []string {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("failed to marshal: %v", err)
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(data, &obj); err != nil {
		t.Fatalf("not a JSON object: %v\n%s", err, data)
	}
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// ============================================================================
// Error Assertions
// ============================================================================

// AssertError fails the test if err is nil.
func AssertError(t *testing.T, err error, msg string) {
	t.Helper()
	if err == nil {
		t.Fatalf("%s: expected error, got nil", msg)
	}
}

// AssertNoError fails the test if err is not nil.
func AssertNoError(t *testing.T, err error, msg string) {
	t.Helper()
	if err != nil {
		t.Fatalf("%s: expected no error, got: %v", msg, err)
	}
}

// ============================================================================
// Equality Assertions
// ============================================================================

// AssertEqual fails the test if got != want using reflect.DeepEqual.
func AssertEqual[T any](t *testing.T, got, want T, msg string) {
	t.Helper()
	if !reflect.DeepEqual(got, want) {
		t.Errorf("%s: got %+v, want %+v", msg, got, want)
	}
}

// ============================================================================
// Filesystem Fixtures
// ============================================================================

// WriteFile writes content to root/rel, creating parent directories.
func WriteFile(t *testing.T, root, rel, content string) string {
	t.Helper()
	path := filepath.Join(root, rel)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

// Symlink creates root/rel pointing at target, creating parent directories.
func Symlink(t *testing.T, root, rel, target string) {
	t.Helper()
	path := filepath.Join(root, rel)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", filepath.Dir(path), err)
	}
	if err := os.Symlink(target, path); err != nil {
		t.Fatalf("symlink %s -> %s: %v", path, target, err)
	}
}
