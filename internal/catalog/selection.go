package catalog

import (
	"encoding/json"
	"fmt"

	pkgcatalog "github.com/HerbHall/distrocompare/pkg/catalog"
)

// SelectionKind identifies which value control a Selection came from.
type SelectionKind uint8

const (
	SelectNone SelectionKind = iota
	SelectBool
	SelectRange
	SelectSet
)

// Range is an inclusive numeric interval.
type Range struct {
	Min float64
	Max float64
}

// Contains reports whether min <= v <= max.
func (r Range) Contains(v float64) bool { return r.Min <= v && v <= r.Max }

// Selection is the value chosen in an attribute's control: a checkbox, a
// [min,max] range or a set of enum values.
type Selection struct {
	Kind   SelectionKind
	Bool   bool
	Range  Range
	Values []string
}

// BoolSelection returns a checkbox selection.
func BoolSelection(b bool) Selection { return Selection{Kind: SelectBool, Bool: b} }

// RangeSelection returns a numeric range selection. Bounds are swapped if
// given in reverse.
func RangeSelection(lo, hi float64) Selection {
	if lo > hi {
		lo, hi = hi, lo
	}
	return Selection{Kind: SelectRange, Range: Range{Min: lo, Max: hi}}
}

// SetSelection returns an enum selection. Duplicate values are dropped.
func SetSelection(values ...string) Selection {
	seen := make(map[string]bool, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = pkgcatalog.String(v).String()
		if seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return Selection{Kind: SelectSet, Values: out}
}

// Active reports whether the selection narrows the record set for spec:
// a checked box, a range narrower than the domain, or at least one value.
func (s Selection) Active(spec pkgcatalog.AttributeSpec) bool {
	switch spec.Domain {
	case pkgcatalog.DomainBoolean:
		return s.Kind == SelectBool && s.Bool
	case pkgcatalog.DomainNumber, pkgcatalog.DomainScale:
		return s.Kind == SelectRange && (s.Range.Min > spec.Min || s.Range.Max < spec.Max)
	case pkgcatalog.DomainEnum, pkgcatalog.DomainEnumMulti:
		return s.Kind == SelectSet && len(s.Values) > 0
	}
	return false
}

// Compatible reports whether the selection kind fits the domain.
func (s Selection) Compatible(d pkgcatalog.Domain) bool {
	switch s.Kind {
	case SelectNone:
		return true
	case SelectBool:
		return d == pkgcatalog.DomainBoolean
	case SelectRange:
		return d.Numeric()
	case SelectSet:
		return d.Enumerable()
	}
	return false
}

// threshold is the lower bound used by the recommendation score. Without a
// range selection it falls back to the control's default position.
func (s Selection) threshold(spec pkgcatalog.AttributeSpec) float64 {
	if s.Kind == SelectRange {
		return s.Range.Min
	}
	return spec.Default
}

func (s Selection) clone() Selection {
	cp := s
	if s.Values != nil {
		cp.Values = append([]string(nil), s.Values...)
	}
	return cp
}

type selectionJSON struct {
	Bool   *bool       `json:"bool,omitempty"`
	Range  *[2]float64 `json:"range,omitempty"`
	Values []string    `json:"values,omitempty"`
}

// MarshalJSON encodes {"bool": b}, {"range": [min,max]} or {"values": [...]}.
func (s Selection) MarshalJSON() ([]byte, error) {
	var w selectionJSON
	switch s.Kind {
	case SelectBool:
		b := s.Bool
		w.Bool = &b
	case SelectRange:
		w.Range = &[2]float64{s.Range.Min, s.Range.Max}
	case SelectSet:
		w.Values = s.Values
	}
	return json.Marshal(w)
}

// UnmarshalJSON decodes the forms written by MarshalJSON. Exactly one field
// may be set; an empty object is no selection.
func (s *Selection) UnmarshalJSON(data []byte) error {
	var w selectionJSON
	if err := json.Unmarshal(data, &w); err != nil {
		return fmt.Errorf("decode selection: %w", err)
	}
	set := 0
	if w.Bool != nil {
		set++
	}
	if w.Range != nil {
		set++
	}
	if w.Values != nil {
		set++
	}
	if set > 1 {
		return fmt.Errorf("decode selection: only one of bool, range, values may be set")
	}
	switch {
	case w.Bool != nil:
		*s = BoolSelection(*w.Bool)
	case w.Range != nil:
		*s = RangeSelection(w.Range[0], w.Range[1])
	case w.Values != nil:
		*s = SetSelection(w.Values...)
	default:
		*s = Selection{}
	}
	return nil
}
