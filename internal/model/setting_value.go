package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"
)

type SettingKind string

const (
	SettingKindInt        SettingKind = "int"
	SettingKindStringList SettingKind = "string_list"
)

func (k SettingKind) Valid() bool {
	return k == SettingKindInt || k == SettingKindStringList
}

// SettingValue holds either an integer or an ordered list of strings.  The
// zero value has no kind and is never stored.
type SettingValue struct {
	kind SettingKind
	n    int64
	list []string
}

func IntSetting(n int64) SettingValue {
	return SettingValue{kind: SettingKindInt, n: n}
}

func StringListSetting(items []string) SettingValue {
	return SettingValue{kind: SettingKindStringList, list: slices.Clone(items)}
}

func (v SettingValue) Kind() SettingKind { return v.kind }

func (v SettingValue) Int() int64 { return v.n }

func (v SettingValue) StringList() []string { return slices.Clone(v.list) }

func (v SettingValue) Equal(o SettingValue) bool {
	if v.kind != o.kind {
		return false
	}
	if v.kind == SettingKindInt {
		return v.n == o.n
	}
	return slices.Equal(v.list, o.list)
}

func (v SettingValue) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case SettingKindInt:
		return json.Marshal(v.n)
	case SettingKindStringList:
		if v.list == nil {
			return []byte("[]"), nil
		}
		return json.Marshal(v.list)
	default:
		return []byte("null"), nil
	}
}

// DecodeSettingValue parses raw JSON as a value of the given kind.  A value
// of any other shape is an error.
func DecodeSettingValue(kind SettingKind, raw []byte) (SettingValue, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return SettingValue{}, fmt.Errorf("value is required")
	}
	switch kind {
	case SettingKindInt:
		var n int64
		if err := json.Unmarshal(raw, &n); err != nil {
			return SettingValue{}, fmt.Errorf("expected an integer")
		}
		return IntSetting(n), nil
	case SettingKindStringList:
		var items []string
		if err := json.Unmarshal(raw, &items); err != nil {
			return SettingValue{}, fmt.Errorf("expected a list of strings")
		}
		return StringListSetting(items), nil
	default:
		return SettingValue{}, fmt.Errorf("unknown setting kind %q", kind)
	}
}
