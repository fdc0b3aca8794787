package catalog

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/titanous/json5"
)

// Identity attributes. They describe a record but are never filterable.
const (
	AttrName        = "name"
	AttrDescription = "description"
	AttrWebsite     = "website"
	AttrBasedOn     = "based_on"
)

var identityAttrs = map[string]bool{
	AttrName:        true,
	AttrDescription: true,
	AttrWebsite:     true,
	AttrBasedOn:     true,
}

// IsIdentity reports whether attr is one of the reserved identity fields.
func IsIdentity(attr string) bool { return identityAttrs[attr] }

// isComment reports whether a template key is a comment entry.
func isComment(key string) bool {
	return strings.HasPrefix(key, "//") || strings.HasPrefix(key, "----")
}

// Domain is the value domain of a filterable attribute.
type Domain string

const (
	DomainBoolean   Domain = "boolean"
	DomainNumber    Domain = "number" // open numeric range
	DomainScale     Domain = "scale"  // 1-10 rating
	DomainEnum      Domain = "enum"   // single string value
	DomainEnumMulti Domain = "enum_multi"
)

// Numeric reports whether the domain is filtered by a [min,max] range.
func (d Domain) Numeric() bool { return d == DomainNumber || d == DomainScale }

// Enumerable reports whether the domain is filtered by a value set.
func (d Domain) Enumerable() bool { return d == DomainEnum || d == DomainEnumMulti }

// Scale and number control bounds.
const (
	ScaleMin     = 1
	ScaleMax     = 10
	ScaleDefault = 5

	NumberMin     = 0
	NumberMax     = 100
	NumberDefault = 50
)

// AttributeSpec describes one filterable attribute.
type AttributeSpec struct {
	Name     string  `json:"name"`
	Label    string  `json:"label"`
	Domain   Domain  `json:"domain"`
	Category string  `json:"category"`
	Min      float64 `json:"min,omitempty"`
	Max      float64 `json:"max,omitempty"`
	Default  float64 `json:"default,omitempty"`
}

// Template is the parsed attribute schema. It is immutable after parsing.
type Template struct {
	attrs   []AttributeSpec
	index   map[string]int
	skipped []string
	raw     []byte
}

// ParseTemplate parses a JSON5 template document. The type of each example
// value defines the attribute's domain. Attributes that do not belong to any
// display category are skipped and reported by Skipped.
func ParseTemplate(data []byte) (*Template, error) {
	var doc map[string]any
	if err := json5.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse template: %w", err)
	}
	if len(doc) == 0 {
		return nil, fmt.Errorf("parse template: no attributes")
	}

	groups, err := Categories()
	if err != nil {
		return nil, err
	}
	catOf := make(map[string]string)
	for _, g := range groups {
		for _, a := range g.Attributes {
			catOf[a] = g.ID
		}
	}

	keys := make([]string, 0, len(doc))
	for k := range doc {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	t := &Template{index: make(map[string]int), raw: append([]byte(nil), data...)}
	for _, k := range keys {
		if IsIdentity(k) || isComment(k) {
			continue
		}
		domain, ok := domainOf(doc[k])
		if !ok {
			t.skipped = append(t.skipped, k)
			continue
		}
		cat, ok := catOf[k]
		if !ok {
			t.skipped = append(t.skipped, k)
			continue
		}
		spec := AttributeSpec{
			Name:     k,
			Label:    Label(k),
			Domain:   domain,
			Category: cat,
		}
		switch domain {
		case DomainScale:
			spec.Min, spec.Max, spec.Default = ScaleMin, ScaleMax, ScaleDefault
		case DomainNumber:
			spec.Min, spec.Max, spec.Default = NumberMin, NumberMax, NumberDefault
		}
		t.index[k] = len(t.attrs)
		t.attrs = append(t.attrs, spec)
	}
	t.sortByCategory(groups)
	return t, nil
}

// domainOf maps a template example value to its domain.
func domainOf(v any) (Domain, bool) {
	switch t := v.(type) {
	case bool:
		return DomainBoolean, true
	case float64:
		if t <= ScaleMax {
			return DomainScale, true
		}
		return DomainNumber, true
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return "", false
		}
		return domainOf(f)
	case string:
		return DomainEnum, true
	case []any:
		return DomainEnumMulti, true
	default:
		return "", false
	}
}

// sortByCategory orders attributes by display group, then by their position
// inside the group.
func (t *Template) sortByCategory(groups []Category) {
	rank := make(map[string]int)
	n := 0
	for _, g := range groups {
		for _, a := range g.Attributes {
			rank[a] = n
			n++
		}
	}
	sort.SliceStable(t.attrs, func(i, j int) bool {
		return rank[t.attrs[i].Name] < rank[t.attrs[j].Name]
	})
	for i, a := range t.attrs {
		t.index[a.Name] = i
	}
}

// Attributes returns a copy of every filterable attribute in display order.
func (t *Template) Attributes() []AttributeSpec {
	out := make([]AttributeSpec, len(t.attrs))
	copy(out, t.attrs)
	return out
}

// Lookup returns the AttributeSpec for name.
func (t *Template) Lookup(name string) (AttributeSpec, bool) {
	i, ok := t.index[name]
	if !ok {
		return AttributeSpec{}, false
	}
	return t.attrs[i], true
}

// Names returns attribute names in display order.
func (t *Template) Names() []string {
	out := make([]string, len(t.attrs))
	for i, a := range t.attrs {
		out[i] = a.Name
	}
	return out
}

// Len returns the number of filterable attributes.
func (t *Template) Len() int { return len(t.attrs) }

// Skipped returns template keys that could not become filters.
func (t *Template) Skipped() []string { return append([]string(nil), t.skipped...) }

// Raw returns the original template document.
func (t *Template) Raw() []byte { return append([]byte(nil), t.raw...) }

// withObservedBounds returns a copy whose open numeric ranges are widened to
// cover every value present in records.
func (t *Template) withObservedBounds(records []Record) *Template {
	cp := &Template{
		attrs:   t.Attributes(),
		index:   t.index,
		skipped: t.skipped,
		raw:     t.raw,
	}
	for i := range cp.attrs {
		a := &cp.attrs[i]
		if a.Domain != DomainNumber {
			continue
		}
		for _, r := range records {
			n, ok := r.Get(a.Name).AsNumber()
			if !ok {
				continue
			}
			if n > a.Max {
				a.Max = math.Ceil(n)
			}
			if n < a.Min {
				a.Min = math.Floor(n)
			}
		}
	}
	return cp
}

// Label converts a snake_case attribute name to Title Case.
func Label(attr string) string {
	words := strings.Split(attr, "_")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.TrimSpace(strings.Join(words, " "))
}

// ParseDescriptions decodes a {"descriptions": {attr: text}} document.
func ParseDescriptions(data []byte) (map[string]string, error) {
	var doc struct {
		Descriptions map[string]string `json:"descriptions"`
	}
	if err := json5.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse descriptions: %w", err)
	}
	if doc.Descriptions == nil {
		doc.Descriptions = map[string]string{}
	}
	return doc.Descriptions, nil
}
