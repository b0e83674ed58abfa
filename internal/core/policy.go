package core

import (
	"fmt"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Policy is the field-level opt-out mask: section -> field -> enabled.
// Names are case-insensitive. Anything not mentioned is enabled.
// A Policy never changes after construction.
type Policy struct {
	source   string
	sections map[string]map[string]bool
}

// NewPolicy builds a Policy from an in-memory mask.
func NewPolicy(mask map[string]map[string]bool) *Policy {
	p := &Policy{source: "<inline>", sections: make(map[string]map[string]bool, len(mask))}
	for section, fields := range mask {
		key := strings.ToUpper(section)
		if p.sections[key] == nil {
			p.sections[key] = make(map[string]bool, len(fields))
		}
		for field, enabled := range fields {
			p.sections[key][strings.ToUpper(field)] = enabled
		}
	}
	return p
}

// LoadPolicy reads and validates a policy file. Every entry is checked
// here so that lookups on the returned Policy cannot fail.
func LoadPolicy(path string) (*Policy, error) {
	data, err := NewYAMLStore[yaml.Node](path, false).read()
	if err != nil {
		return nil, NewConfigurationError(path, "cannot load policy", err).WithFix(PolicyFix)
	}
	return parsePolicy(path, data)
}

// parsePolicy validates a policy document held in memory.
func parsePolicy(source string, data []byte) (*Policy, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, NewConfigurationError(source, "cannot parse policy", err).WithFix(PolicyFix)
	}
	return parsePolicyNode(source, &doc)
}

func parsePolicyNode(source string, doc *yaml.Node) (*Policy, error) {
	p := &Policy{source: source, sections: make(map[string]map[string]bool)}

	root := doc
	if root.Kind == yaml.DocumentNode {
		if len(root.Content) == 0 {
			return p, nil
		}
		root = root.Content[0]
	}
	switch {
	case root.Kind == 0:
		return p, nil // empty file
	case root.Kind == yaml.ScalarNode && root.Tag == "!!null":
		return p, nil
	case root.Kind != yaml.MappingNode:
		return nil, NewConfigurationError(source, "top level must be a mapping of sections", nil).WithFix(PolicyFix)
	}

	for i := 0; i+1 < len(root.Content); i += 2 {
		section := strings.ToUpper(root.Content[i].Value)
		body := root.Content[i+1]
		if body.Kind != yaml.MappingNode {
			return nil, &ConfigurationError{Path: source, Section: section, Reason: "section must be a mapping of field: boolean", Fix: PolicyFix}
		}
		if _, dup := p.sections[section]; dup {
			return nil, &ConfigurationError{Path: source, Section: section, Reason: "duplicate section", Fix: PolicyFix}
		}

		fields := make(map[string]bool, len(body.Content)/2)
		for j := 0; j+1 < len(body.Content); j += 2 {
			field := strings.ToUpper(body.Content[j].Value)
			value := body.Content[j+1]

			if _, dup := fields[field]; dup {
				return nil, NewPolicyEntryError(source, section, field, "duplicate entry")
			}
			if value.Kind != yaml.ScalarNode || value.Tag == "!!null" {
				return nil, NewPolicyEntryError(source, section, field, "value must be a boolean")
			}
			enabled, err := ParseFlexibleBool(value.Value)
			if err != nil {
				return nil, NewPolicyEntryError(source, section, field, err.Error())
			}
			fields[field] = enabled
		}
		p.sections[section] = fields
	}

	return p, nil
}

// Source returns where the policy was loaded from.
func (p *Policy) Source() string { return p.source }

// IsEnabled returns the stored flag, or true when section or field is absent.
func (p *Policy) IsEnabled(section, field string) bool {
	fields, ok := p.sections[strings.ToUpper(section)]
	if !ok {
		return true
	}
	enabled, ok := fields[strings.ToUpper(field)]
	if !ok {
		return true
	}
	return enabled
}

// AnyEnabled reports whether at least one of fields is enabled in section.
func (p *Policy) AnyEnabled(section string, fields ...string) bool {
	for _, f := range fields {
		if p.IsEnabled(section, f) {
			return true
		}
	}
	return false
}

// Disabled lists the explicitly disabled entries as SECTION.FIELD, sorted.
func (p *Policy) Disabled() []string {
	var out []string
	for section, fields := range p.sections {
		for field, enabled := range fields {
			if !enabled {
				out = append(out, section+"."+field)
			}
		}
	}
	sort.Strings(out)
	return out
}

// ParseFlexibleBool accepts 1/y/yes/true/on and 0/n/no/false/off in any case.
func ParseFlexibleBool(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "y", "yes", "true", "on":
		return true, nil
	case "0", "n", "no", "false", "off":
		return false, nil
	}
	return false, fmt.Errorf("invalid boolean %q", s)
}

// DefaultPolicyDocument renders a policy with every known field enabled.
func DefaultPolicyDocument() []byte {
	var sb strings.Builder
	sb.WriteString("# gentoostats payload policy\n")
	sb.WriteString("# Set a field to false to keep it out of submitted reports.\n")
	sb.WriteString("# Fields not listed here are reported.\n\n")

	sb.WriteString(SectionEnv + ":\n")
	for _, name := range EnvScalarVars {
		fmt.Fprintf(&sb, "  %s: true\n", name)
	}
	for _, name := range EnvListVars {
		fmt.Fprintf(&sb, "  %s: true\n", name)
	}

	sb.WriteString("\n" + SectionPackages + ":\n")
	for _, name := range PackageFields {
		fmt.Fprintf(&sb, "  %s: true\n", name)
	}
	fmt.Fprintf(&sb, "  %s: true\n", FieldSelectedSets)

	return []byte(sb.String())
}
