package types

import (
	"bytes"
	"encoding/json"
	"sort"
)

// ProtocolVersion is the PROTOCOL marker carried by every report so the
// collector can switch its parsing logic.
const ProtocolVersion = 2

// UnknownRepo is reported for packages whose repository was never recorded.
const UnknownRepo = "Unknown"

// Field is one reportable value. A field that was not included (disabled by
// policy) is omitted from JSON through omitzero; an included field with no
// known value is serialized as null.
type Field[T any] struct {
	Value    T
	Valid    bool
	Included bool
}

// Some returns an included field holding v.
func Some[T any](v T) Field[T] {
	return Field[T]{Value: v, Valid: true, Included: true}
}

// Null returns an included field with no value.
func Null[T any]() Field[T] {
	return Field[T]{Included: true}
}

// FromPtr returns Some(*p), or Null when p is nil.
func FromPtr[T any](p *T) Field[T] {
	if p == nil {
		return Null[T]()
	}
	return Some(*p)
}

// IsZero reports whether the field was left out of the report.
func (f Field[T]) IsZero() bool { return !f.Included }

// MarshalJSON implements json.Marshaler.
func (f Field[T]) MarshalJSON() ([]byte, error) {
	if !f.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(f.Value)
}

// UnmarshalJSON implements json.Unmarshaler. A key that is present is always
// included; a null value leaves the field invalid.
func (f *Field[T]) UnmarshalJSON(data []byte) error {
	f.Included = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		var zero T
		f.Value, f.Valid = zero, false
		return nil
	}
	if err := json.Unmarshal(data, &f.Value); err != nil {
		return err
	}
	f.Valid = true
	return nil
}

// EnvKind distinguishes the shapes an environment value can take.
type EnvKind int

const (
	EnvMissing EnvKind = iota // serialized as null
	EnvText
	EnvList
)

// EnvValue is one ENV entry: a plain string, a whitespace-split token list,
// or null when the provider had no value.
type EnvValue struct {
	Kind EnvKind
	Text string
	List []string
}

// TextValue wraps a scalar environment value.
func TextValue(s string) EnvValue { return EnvValue{Kind: EnvText, Text: s} }

// ListValue wraps a list environment value. A nil slice is kept as an empty list.
func ListValue(tokens []string) EnvValue {
	if tokens == nil {
		tokens = []string{}
	}
	return EnvValue{Kind: EnvList, List: tokens}
}

// MissingValue is the value of a tracked variable the provider does not know.
func MissingValue() EnvValue { return EnvValue{Kind: EnvMissing} }

// MarshalJSON implements json.Marshaler.
func (v EnvValue) MarshalJSON() ([]byte, error) {
	switch v.Kind {
	case EnvText:
		return json.Marshal(v.Text)
	case EnvList:
		if v.List == nil {
			return []byte("[]"), nil
		}
		return json.Marshal(v.List)
	default:
		return []byte("null"), nil
	}
}

// UnmarshalJSON implements json.Unmarshaler.
func (v *EnvValue) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	switch {
	case bytes.Equal(trimmed, []byte("null")):
		*v = MissingValue()
		return nil
	case len(trimmed) > 0 && trimmed[0] == '[':
		var list []string
		if err := json.Unmarshal(trimmed, &list); err != nil {
			return err
		}
		*v = ListValue(list)
		return nil
	default:
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return err
		}
		*v = TextValue(s)
		return nil
	}
}

// PackageRecord is the policy-filtered projection of one installed package.
type PackageRecord struct {
	Repo      Field[string]   `json:"REPO,omitzero"`
	Size      Field[int64]    `json:"SIZE,omitzero"`
	Keyword   Field[string]   `json:"KEYWORD,omitzero"`
	BuildTime Field[int64]    `json:"BUILD_TIME,omitzero"`
	IUse      Field[[]string] `json:"IUSE,omitzero"`
	PkgUse    Field[[]string] `json:"PKGUSE,omitzero"`
	Use       Field[[]string] `json:"USE,omitzero"`
}

// Report is the assembled payload. Packages is nil when package enumeration
// was skipped and SelectedSets is nil when set reporting is disabled; both are
// then omitted from JSON.
type Report struct {
	Protocol     int                      `json:"PROTOCOL"`
	Env          map[string]EnvValue      `json:"ENV"`
	Packages     map[string]PackageRecord `json:"PACKAGES,omitzero"`
	SelectedSets map[string][]string      `json:"SELECTEDSETS,omitzero"`
}

// NewReport returns an empty report carrying the current protocol marker.
func NewReport() *Report {
	return &Report{
		Protocol: ProtocolVersion,
		Env:      make(map[string]EnvValue),
	}
}

// PackageKeys returns the package-version keys of the report in sorted order.
func (r *Report) PackageKeys() []string {
	keys := make([]string, 0, len(r.Packages))
	for k := range r.Packages {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// PackageMetadata is the read-only view of one installed package.
type PackageMetadata struct {
	CPV       string
	Repo      string
	BuildTime *int64
	Size      *int64
	Keyword   *string
	IUse      []string
	PkgUse    []string
	Use       []string
}

// RepoOrUnknown returns the repository name, or UnknownRepo when unset.
func (m PackageMetadata) RepoOrUnknown() string {
	if m.Repo == "" {
		return UnknownRepo
	}
	return m.Repo
}

// Submission is the upload body: the report fields plus the host credentials
// under AUTH.
type Submission struct {
	*Report
	Auth *AuthConfig `json:"AUTH,omitempty"`
}
