package service

import (
	_ "embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"dynroute53/internal/apperr"
	"dynroute53/internal/model"
)

//go:embed settings.yaml
var defaultSchemaYAML []byte

const formatURL = "url"

// SchemaEntry declares one setting: its shape, constraints and default.
type SchemaEntry struct {
	Key         string
	Kind        model.SettingKind
	Min         int64
	Format      string
	System      bool
	Description string
	Default     model.SettingValue
}

type schemaDoc struct {
	Key         string    `yaml:"key"`
	Kind        string    `yaml:"kind"`
	Min         int64     `yaml:"min"`
	Format      string    `yaml:"format"`
	System      bool      `yaml:"system"`
	Description string    `yaml:"description"`
	Default     yaml.Node `yaml:"default"`
}

// Schema is the set of known settings, in declaration order.
type Schema struct {
	entries []SchemaEntry
	byKey   map[string]int
}

// ParseSchema reads a YAML list of setting declarations.  Every default
// must satisfy its own entry's constraints.
func ParseSchema(data []byte) (*Schema, error) {
	var docs []schemaDoc
	if err := yaml.Unmarshal(data, &docs); err != nil {
		return nil, fmt.Errorf("parse settings schema: %w", err)
	}

	s := &Schema{byKey: make(map[string]int, len(docs))}
	for _, d := range docs {
		if d.Key == "" {
			return nil, fmt.Errorf("settings schema: entry without key")
		}
		if _, dup := s.byKey[d.Key]; dup {
			return nil, fmt.Errorf("settings schema: duplicate key %q", d.Key)
		}
		e := SchemaEntry{
			Key:         d.Key,
			Kind:        model.SettingKind(d.Kind),
			Min:         d.Min,
			Format:      d.Format,
			System:      d.System,
			Description: d.Description,
		}
		switch e.Kind {
		case model.SettingKindInt:
			var n int64
			if err := d.Default.Decode(&n); err != nil {
				return nil, fmt.Errorf("settings schema: %s default: %w", d.Key, err)
			}
			e.Default = model.IntSetting(n)
		case model.SettingKindStringList:
			var items []string
			if err := d.Default.Decode(&items); err != nil {
				return nil, fmt.Errorf("settings schema: %s default: %w", d.Key, err)
			}
			e.Default = model.StringListSetting(items)
		default:
			return nil, fmt.Errorf("settings schema: %s has unknown kind %q", d.Key, d.Kind)
		}
		if err := e.Check(e.Default); err != nil {
			return nil, fmt.Errorf("settings schema: %s default: %w", d.Key, err)
		}
		s.byKey[e.Key] = len(s.entries)
		s.entries = append(s.entries, e)
	}
	return s, nil
}

// DefaultSchema returns the built-in settings.
func DefaultSchema() *Schema {
	s, err := ParseSchema(defaultSchemaYAML)
	if err != nil {
		panic(err)
	}
	return s
}

func (s *Schema) Lookup(key string) (SchemaEntry, bool) {
	i, ok := s.byKey[key]
	if !ok {
		return SchemaEntry{}, false
	}
	return s.entries[i], true
}

func (s *Schema) Entries() []SchemaEntry {
	return append([]SchemaEntry(nil), s.entries...)
}

// Check validates v against the entry's kind and constraints.  Integers are
// always at least 1.
func (e SchemaEntry) Check(v model.SettingValue) error {
	if v.Kind() != e.Kind {
		return apperr.Validation("setting %s expects a %s value", e.Key, kindLabel(e.Kind))
	}
	switch e.Kind {
	case model.SettingKindInt:
		floor := max(e.Min, 1)
		if v.Int() < floor {
			return apperr.Validation("setting %s must be at least %d", e.Key, floor)
		}
	case model.SettingKindStringList:
		if e.Format != formatURL {
			return nil
		}
		items := v.StringList()
		if len(items) == 0 {
			return apperr.Validation("setting %s must be a non-empty list of URLs", e.Key)
		}
		for _, u := range items {
			if !strings.HasPrefix(u, "http://") && !strings.HasPrefix(u, "https://") {
				return apperr.Validation("setting %s: invalid URL %q", e.Key, u)
			}
		}
	}
	return nil
}

func kindLabel(k model.SettingKind) string {
	if k == model.SettingKindInt {
		return "integer"
	}
	return "list of strings"
}
