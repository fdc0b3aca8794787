package catalog

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Kind identifies the dynamic type held by a Value.
type Kind uint8

const (
	KindAbsent Kind = iota
	KindBool
	KindNumber
	KindString
	KindList
)

func (k Kind) String() string {
	switch k {
	case KindBool:
		return "boolean"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindList:
		return "list"
	default:
		return "absent"
	}
}

// Value is a single attribute value of a distribution record. The zero Value
// is absent, which every consumer treats as non-matching.
type Value struct {
	kind Kind
	b    bool
	n    float64
	s    string
	list []string
}

// Bool returns a boolean Value.
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// Number returns a numeric Value.
func Number(n float64) Value { return Value{kind: KindNumber, n: n} }

// String returns a string Value. The text is NFC-normalized so that enum
// values compare equal regardless of how they were composed.
func String(s string) Value { return Value{kind: KindString, s: norm.NFC.String(s)} }

// List returns an ordered string sequence Value.
func List(items ...string) Value {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = norm.NFC.String(it)
	}
	return Value{kind: KindList, list: out}
}

// Kind reports the dynamic type of v.
func (v Value) Kind() Kind { return v.kind }

// Defined reports whether v holds a value.
func (v Value) Defined() bool { return v.kind != KindAbsent }

// AsBool returns the boolean and true when v is a boolean.
func (v Value) AsBool() (bool, bool) { return v.b, v.kind == KindBool }

// AsNumber returns the number and true when v is numeric.
func (v Value) AsNumber() (float64, bool) { return v.n, v.kind == KindNumber }

// AsString returns the string and true when v is a single string.
func (v Value) AsString() (string, bool) { return v.s, v.kind == KindString }

// Strings coerces v to a sequence: a string becomes a one-element slice, a
// list is returned as-is, anything else yields nil.
func (v Value) Strings() []string {
	switch v.kind {
	case KindString:
		return []string{v.s}
	case KindList:
		return v.list
	default:
		return nil
	}
}

// String renders v the way the comparison table displays it.
func (v Value) String() string {
	switch v.kind {
	case KindBool:
		if v.b {
			return "Yes"
		}
		return "No"
	case KindNumber:
		return strconv.FormatFloat(v.n, 'f', -1, 64)
	case KindString:
		return v.s
	case KindList:
		return strings.Join(v.list, ", ")
	default:
		return ""
	}
}

// Equal reports whether two values have the same kind and content.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindBool:
		return v.b == o.b
	case KindNumber:
		return v.n == o.n
	case KindString:
		return v.s == o.s
	case KindList:
		if len(v.list) != len(o.list) {
			return false
		}
		for i := range v.list {
			if v.list[i] != o.list[i] {
				return false
			}
		}
		return true
	}
	return true
}

// MarshalJSON encodes v as its natural JSON form; absent encodes as null.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindBool:
		return json.Marshal(v.b)
	case KindNumber:
		return json.Marshal(v.n)
	case KindString:
		return json.Marshal(v.s)
	case KindList:
		if v.list == nil {
			return []byte("[]"), nil
		}
		return json.Marshal(v.list)
	default:
		return []byte("null"), nil
	}
}

// UnmarshalJSON decodes booleans, numbers, strings and arrays. Objects and
// null decode to an absent Value instead of failing the whole record.
func (v *Value) UnmarshalJSON(data []byte) error {
	var raw any
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil {
		return err
	}
	val, err := valueOf(raw)
	if err != nil {
		return err
	}
	*v = val
	return nil
}

// valueOf converts a decoded JSON (or JSON5) value into a Value.
func valueOf(raw any) (Value, error) {
	switch t := raw.(type) {
	case nil:
		return Value{}, nil
	case bool:
		return Bool(t), nil
	case float64:
		return Number(t), nil
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return Value{}, fmt.Errorf("decode number %q: %w", t.String(), err)
		}
		return Number(f), nil
	case string:
		return String(t), nil
	case []any:
		items := make([]string, 0, len(t))
		for _, it := range t {
			switch e := it.(type) {
			case nil:
				continue
			case string:
				items = append(items, e)
			default:
				items = append(items, fmt.Sprint(e))
			}
		}
		return List(items...), nil
	default:
		return Value{}, nil
	}
}
