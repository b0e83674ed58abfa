package sbom

import (
	"strings"
	"testing"
)

func TestPackageIdentity_HasRepo(t *testing.T) {
	tests := []struct {
		repo     string
		expected bool
	}{
		{"gentoo", true},
		{"Unknown", false},
		{"", false},
	}

	for _, tc := range tests {
		t.Run(tc.repo, func(t *testing.T) {
			if got := (PackageIdentity{CPV: "a/b-1", Repo: tc.repo}).HasRepo(); got != tc.expected {
				t.Errorf("HasRepo() = %v, want %v", got, tc.expected)
			}
		})
	}
}

func TestGenerateBOMRef(t *testing.T) {
	tests := []struct {
		name     string
		identity PackageIdentity
		expected string
	}{
		{
			name:     "with repository",
			identity: PackageIdentity{CPV: "dev-lang/python-3.11.4", Repo: "gentoo"},
			expected: "dev-lang/python-3.11.4::gentoo",
		},
		{
			name:     "unknown repository",
			identity: PackageIdentity{CPV: "app-misc/foo-1", Repo: "Unknown"},
			expected: "app-misc/foo-1",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			result := GenerateBOMRef(tc.identity)
			if result != tc.expected {
				t.Errorf("Expected %q, got %q", tc.expected, result)
			}
		})
	}
}

func TestGenerateBOMRef_Uniqueness(t *testing.T) {
	// Same package, different repositories = different BOM refs
	a := PackageIdentity{CPV: "app-misc/foo-1", Repo: "gentoo"}
	b := PackageIdentity{CPV: "app-misc/foo-1", Repo: "guru"}

	if GenerateBOMRef(a) == GenerateBOMRef(b) {
		t.Error("Different repositories should produce different BOM refs")
	}
}

func TestGenerateSPDXID(t *testing.T) {
	tests := []struct {
		name     string
		identity PackageIdentity
		expected string
	}{
		{"standard", PackageIdentity{CPV: "dev-lang/python-3.11.4"}, "Package-dev-lang-python-3.11.4"},
		{"plus sign", PackageIdentity{CPV: "x11-libs/gtk+-3.24.41"}, "Package-x11-libs-gtk--3.24.41"},
		{"underscore suffix", PackageIdentity{CPV: "net-misc/openssh-9.6_p1-r3"}, "Package-net-misc-openssh-9.6-p1-r3"},
		{"empty", PackageIdentity{}, "Package-unknown"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			result := GenerateSPDXID(tc.identity)
			if result != tc.expected {
				t.Errorf("Expected %q, got %q", tc.expected, result)
			}
		})
	}
}

func TestSanitizeSPDXID(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"simple", "simple"},
		{"with-dash", "with-dash"},
		{"with.dot", "with.dot"},
		{"with_underscore", "with-underscore"},
		{"cat/name", "cat-name"},
		{"@#$%", "----"},
		{"", "unknown"},
		{"日本語", "---"},
	}

	for _, tc := range tests {
		t.Run(tc.input, func(t *testing.T) {
			result := SanitizeSPDXID(tc.input)
			if result != tc.expected {
				t.Errorf("SanitizeSPDXID(%q) = %q, want %q", tc.input, result, tc.expected)
			}
		})
	}
}

func TestFormatSPDXRef(t *testing.T) {
	if got := FormatSPDXRef(SPDXDocumentID); got != "SPDXRef-DOCUMENT" {
		t.Errorf("got %q", got)
	}
	if got := FormatSPDXRef("Package-x"); got != "SPDXRef-Package-x" {
		t.Errorf("got %q", got)
	}
}

func TestMetadataComment(t *testing.T) {
	tests := []struct {
		name     string
		fields   map[string]string
		expected string
	}{
		{
			name:     "sorted keys",
			fields:   map[string]string{"use": "ssl X", "keyword": "amd64", "build_time": "1690000000"},
			expected: "build_time=1690000000, keyword=amd64, use=ssl X",
		},
		{
			name:     "empty values skipped",
			fields:   map[string]string{"keyword": "", "repo": "gentoo"},
			expected: "repo=gentoo",
		},
		{
			name:     "nothing",
			fields:   nil,
			expected: "",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := MetadataComment(tc.fields); got != tc.expected {
				t.Errorf("Expected %q, got %q", tc.expected, got)
			}
		})
	}
}

func TestValidateDocumentName(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"myhost", "myhost"},
		{"  trimmed  ", "trimmed"},
		{"", DefaultDocumentName},
		{"   ", DefaultDocumentName},
	}

	for _, tc := range tests {
		t.Run(tc.input, func(t *testing.T) {
			result := ValidateDocumentName(tc.input)
			if result != tc.expected {
				t.Errorf("Expected %q, got %q", tc.expected, result)
			}
		})
	}
}

func TestBuildSPDXNamespace(t *testing.T) {
	tests := []struct {
		name     string
		baseURL  string
		docName  string
		uuid     string
		expected string
	}{
		{
			name:     "custom base URL",
			baseURL:  "https://example.com/spdx",
			docName:  "myhost",
			uuid:     "abc-123",
			expected: "https://example.com/spdx/myhost/abc-123",
		},
		{
			name:     "default base URL",
			baseURL:  "",
			docName:  "myhost",
			uuid:     "abc-123",
			expected: "https://spdx.org/spdxdocs/myhost/abc-123",
		},
		{
			name:     "trailing slash in base URL",
			baseURL:  "https://example.com/spdx/",
			docName:  "host",
			uuid:     "xyz",
			expected: "https://example.com/spdx/host/xyz",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			result := BuildSPDXNamespace(tc.baseURL, tc.docName, tc.uuid)
			if result != tc.expected {
				t.Errorf("Expected %q, got %q", tc.expected, result)
			}
		})
	}
}

// Edge case: Very long package key
func TestSanitizeSPDXID_LongName(t *testing.T) {
	longName := strings.Repeat("a", 1000)
	result := SanitizeSPDXID(longName)
	if len(result) != 1000 {
		t.Errorf("Expected length 1000, got %d", len(result))
	}
}
