package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
)

// ErrMissingName is returned when a record document has no usable name.
var ErrMissingName = errors.New("record has no name")

// Record is one distribution: a flat mapping of attribute name to value.
// Records are never mutated after loading.
type Record struct {
	Name       string
	Attributes map[string]Value
}

// NewRecord builds a Record from attribute values. The name attribute is
// kept in sync with Name.
func NewRecord(name string, attrs map[string]Value) Record {
	cp := make(map[string]Value, len(attrs)+1)
	for k, v := range attrs {
		cp[k] = v
	}
	cp[AttrName] = String(name)
	return Record{Name: name, Attributes: cp}
}

// Get returns the value for attr, or an absent Value.
func (r Record) Get(attr string) Value {
	if r.Attributes == nil {
		return Value{}
	}
	return r.Attributes[attr]
}

// Keys returns the record's attribute names in sorted order.
func (r Record) Keys() []string {
	keys := make([]string, 0, len(r.Attributes))
	for k := range r.Attributes {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// MarshalJSON encodes the record as a flat attribute map.
func (r Record) MarshalJSON() ([]byte, error) {
	out := make(map[string]Value, len(r.Attributes)+1)
	for k, v := range r.Attributes {
		out[k] = v
	}
	out[AttrName] = String(r.Name)
	return json.Marshal(out)
}

// UnmarshalJSON decodes a flat attribute map. The document must carry a
// non-empty string name.
func (r *Record) UnmarshalJSON(data []byte) error {
	var attrs map[string]Value
	if err := json.Unmarshal(data, &attrs); err != nil {
		return fmt.Errorf("decode record: %w", err)
	}
	name, ok := attrs[AttrName].AsString()
	if !ok || name == "" {
		return ErrMissingName
	}
	r.Name = name
	r.Attributes = attrs
	return nil
}

// ParseRecord decodes a single record document.
func ParseRecord(data []byte) (Record, error) {
	var r Record
	if err := json.Unmarshal(data, &r); err != nil {
		return Record{}, err
	}
	return r, nil
}

// ParseRecords decodes a JSON array of record documents, such as a compiled
// distributions.json.
func ParseRecords(data []byte) ([]Record, error) {
	var rs []Record
	if err := json.Unmarshal(data, &rs); err != nil {
		return nil, fmt.Errorf("decode records: %w", err)
	}
	return rs, nil
}
