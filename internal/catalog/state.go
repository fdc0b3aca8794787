package catalog

import (
	"encoding/json"
	"sort"
)

// Score pseudo-keys accepted as sort keys.
const (
	SortOverall             = "overall"
	SortNonNegotiable       = "nonNegotiable"
	SortImportant           = "important"
	SortNiceToHave          = "niceToHave"
	SortRecommendationScore = "recommendationScore"
)

// DefaultSortKey is the sort key of a fresh FilterState.
const DefaultSortKey = SortOverall

// Toggles are the three summary switches that gate priority tiers.
type Toggles struct {
	NonNegotiable bool `json:"non_negotiable"`
	Important     bool `json:"important"`
	NiceToHave    bool `json:"nice_to_have"`
}

// DefaultToggles enforces the Non-negotiable tier only.
func DefaultToggles() Toggles {
	return Toggles{NonNegotiable: true}
}

// AttributeFilter is the per-attribute configuration.
type AttributeFilter struct {
	Priority  Priority  `json:"priority"`
	Selection Selection `json:"selection"`
}

// FilterState is a session's complete filter configuration. It is a plain
// value object and is not safe for concurrent mutation; sessions guard it.
type FilterState struct {
	eliminated map[string]struct{}
	Toggles    Toggles
	Attributes map[string]AttributeFilter
	SortKey    string
}

// NewFilterState returns a state with default toggles and sort key and no
// attribute configured.
func NewFilterState() *FilterState {
	return &FilterState{
		eliminated: make(map[string]struct{}),
		Toggles:    DefaultToggles(),
		Attributes: make(map[string]AttributeFilter),
		SortKey:    DefaultSortKey,
	}
}

// Priority returns attr's priority, DontCare when unset.
func (s *FilterState) Priority(attr string) Priority {
	if f, ok := s.Attributes[attr]; ok {
		return f.Priority
	}
	return DefaultPriority
}

// Selection returns attr's selection.
func (s *FilterState) Selection(attr string) Selection {
	return s.Attributes[attr].Selection
}

// SetPriority selects exactly one priority for attr, replacing the previous.
func (s *FilterState) SetPriority(attr string, p Priority) {
	s.ensure()
	f := s.Attributes[attr]
	f.Priority = p
	s.Attributes[attr] = f
}

// SetSelection stores attr's control value.
func (s *FilterState) SetSelection(attr string, sel Selection) {
	s.ensure()
	f, ok := s.Attributes[attr]
	if !ok {
		f.Priority = DefaultPriority
	}
	f.Selection = sel.clone()
	s.Attributes[attr] = f
}

// SetToggles replaces the summary toggles.
func (s *FilterState) SetToggles(t Toggles) { s.Toggles = t }

// SetSortKey sets the sort key. An empty key restores the default.
func (s *FilterState) SetSortKey(key string) {
	if key == "" {
		key = DefaultSortKey
	}
	s.SortKey = key
}

// Eliminate excludes a record by name. Eliminations only ever accumulate.
func (s *FilterState) Eliminate(name string) {
	s.ensure()
	s.eliminated[name] = struct{}{}
}

// IsEliminated reports whether name has been eliminated.
func (s *FilterState) IsEliminated(name string) bool {
	_, ok := s.eliminated[name]
	return ok
}

// Eliminated returns eliminated names in sorted order.
func (s *FilterState) Eliminated() []string {
	out := make([]string, 0, len(s.eliminated))
	for n := range s.eliminated {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// Reset restores priorities, selections, toggles and sort key to their
// defaults. Eliminated records stay eliminated for the session's lifetime.
func (s *FilterState) Reset() {
	s.ensure()
	s.Toggles = DefaultToggles()
	s.Attributes = make(map[string]AttributeFilter)
	s.SortKey = DefaultSortKey
}

// Clone returns a deep copy.
func (s *FilterState) Clone() *FilterState {
	cp := &FilterState{
		eliminated: make(map[string]struct{}, len(s.eliminated)),
		Toggles:    s.Toggles,
		Attributes: make(map[string]AttributeFilter, len(s.Attributes)),
		SortKey:    s.SortKey,
	}
	for n := range s.eliminated {
		cp.eliminated[n] = struct{}{}
	}
	for k, f := range s.Attributes {
		cp.Attributes[k] = AttributeFilter{Priority: f.Priority, Selection: f.Selection.clone()}
	}
	return cp
}

func (s *FilterState) ensure() {
	if s.eliminated == nil {
		s.eliminated = make(map[string]struct{})
	}
	if s.Attributes == nil {
		s.Attributes = make(map[string]AttributeFilter)
	}
}

type filterStateJSON struct {
	Eliminated []string                   `json:"eliminated"`
	Toggles    *Toggles                   `json:"toggles,omitempty"`
	Attributes map[string]AttributeFilter `json:"attributes"`
	SortKey    string                     `json:"sort_key,omitempty"`
}

// MarshalJSON encodes the state with eliminated names as a sorted list.
func (s *FilterState) MarshalJSON() ([]byte, error) {
	t := s.Toggles
	attrs := s.Attributes
	if attrs == nil {
		attrs = map[string]AttributeFilter{}
	}
	return json.Marshal(filterStateJSON{
		Eliminated: s.Eliminated(),
		Toggles:    &t,
		Attributes: attrs,
		SortKey:    s.SortKey,
	})
}

// UnmarshalJSON decodes a state. Omitted toggles and sort key take their
// defaults.
func (s *FilterState) UnmarshalJSON(data []byte) error {
	var w filterStateJSON
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	st := NewFilterState()
	for _, n := range w.Eliminated {
		st.Eliminate(n)
	}
	if w.Toggles != nil {
		st.Toggles = *w.Toggles
	}
	for k, f := range w.Attributes {
		st.Attributes[k] = f
	}
	if w.SortKey != "" {
		st.SortKey = w.SortKey
	}
	*s = *st
	return nil
}
