package catalog

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Priority is the user-assigned importance of an attribute.
type Priority int

const (
	NotImportant Priority = iota
	DontCare
	NiceToHave
	Important
	NonNegotiable
)

// DefaultPriority is the level every attribute starts at.
const DefaultPriority = DontCare

var priorityLabels = [...]string{
	NotImportant:  "Not important",
	DontCare:      "Don't care",
	NiceToHave:    "Nice to have",
	Important:     "Important",
	NonNegotiable: "Non-negotiable",
}

var prioritySlugs = map[string]Priority{
	"not_important":  NotImportant,
	"dont_care":      DontCare,
	"nice_to_have":   NiceToHave,
	"important":      Important,
	"non_negotiable": NonNegotiable,
}

// Valid reports whether p is one of the five levels.
func (p Priority) Valid() bool { return p >= NotImportant && p <= NonNegotiable }

func (p Priority) String() string {
	if !p.Valid() {
		return fmt.Sprintf("Priority(%d)", int(p))
	}
	return priorityLabels[p]
}

// Weight is the attribute's contribution weight in the recommendation score.
// Only Important and Nice to have carry weight.
func (p Priority) Weight() float64 {
	switch p {
	case Important:
		return 2
	case NiceToHave:
		return 1
	default:
		return 0
	}
}

// ParsePriority accepts an ordinal ("0".."4"), a display label
// ("Nice to have") or a slug ("nice_to_have").
func ParsePriority(s string) (Priority, error) {
	s = strings.TrimSpace(s)
	if n, err := strconv.Atoi(s); err == nil {
		p := Priority(n)
		if !p.Valid() {
			return 0, fmt.Errorf("priority %d out of range 0-4", n)
		}
		return p, nil
	}
	lower := strings.ToLower(s)
	for i, l := range priorityLabels {
		if strings.ToLower(l) == lower {
			return Priority(i), nil
		}
	}
	slug := strings.NewReplacer("-", "_", " ", "_", "'", "").Replace(lower)
	if p, ok := prioritySlugs[slug]; ok {
		return p, nil
	}
	return 0, fmt.Errorf("unknown priority %q", s)
}

// MarshalJSON encodes the ordinal.
func (p Priority) MarshalJSON() ([]byte, error) {
	return json.Marshal(int(p))
}

// UnmarshalJSON accepts either the ordinal or any form ParsePriority accepts.
func (p *Priority) UnmarshalJSON(data []byte) error {
	var n int
	if err := json.Unmarshal(data, &n); err == nil {
		v := Priority(n)
		if !v.Valid() {
			return fmt.Errorf("priority %d out of range 0-4", n)
		}
		*p = v
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("priority must be a number or string")
	}
	v, err := ParsePriority(s)
	if err != nil {
		return err
	}
	*p = v
	return nil
}

// gates reports whether a filter at priority p is enforced under toggles t.
// Priorities below Nice to have never gate a hard filter.
func (p Priority) gates(t Toggles) bool {
	switch p {
	case NonNegotiable:
		return t.NonNegotiable
	case Important:
		return t.Important
	case NiceToHave:
		return t.NiceToHave
	default:
		return false
	}
}
