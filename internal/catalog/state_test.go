package catalog

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewFilterState_Defaults(t *testing.T) {
	s := NewFilterState()
	assert.Equal(t, Toggles{NonNegotiable: true}, s.Toggles)
	assert.Equal(t, SortOverall, s.SortKey)
	assert.Equal(t, DontCare, s.Priority("anything"))
	assert.Empty(t, s.Eliminated())
}

func TestFilterState_SetPriorityReplaces(t *testing.T) {
	s := NewFilterState()
	s.SetSelection("stability", RangeSelection(3, 8))
	s.SetPriority("stability", Important)
	s.SetPriority("stability", NiceToHave)

	assert.Equal(t, NiceToHave, s.Priority("stability"))
	assert.Equal(t, RangeSelection(3, 8), s.Selection("stability"), "selection survives a priority change")
}

func TestFilterState_SetSortKeyEmpty(t *testing.T) {
	s := NewFilterState()
	s.SetSortKey("stability")
	s.SetSortKey("")
	assert.Equal(t, DefaultSortKey, s.SortKey)
}

func TestFilterState_ResetKeepsEliminations(t *testing.T) {
	s := NewFilterState()
	s.SetPriority("secure_boot", NonNegotiable)
	s.SetSelection("secure_boot", BoolSelection(true))
	s.SetToggles(Toggles{Important: true})
	s.SetSortKey("stability")
	s.Eliminate("Ubuntu")

	s.Reset()
	assert.Equal(t, DefaultToggles(), s.Toggles)
	assert.Equal(t, DefaultSortKey, s.SortKey)
	assert.Equal(t, DontCare, s.Priority("secure_boot"))
	assert.True(t, s.IsEliminated("Ubuntu"))
}

func TestFilterState_CloneIsDeep(t *testing.T) {
	s := NewFilterState()
	s.SetSelection("desktop_environments", SetSelection("GNOME"))
	s.Eliminate("Arch")

	cp := s.Clone()
	cp.Eliminate("Gentoo")
	cp.Attributes["desktop_environments"].Selection.Values[0] = "KDE"
	cp.SetPriority("wifi", Important)

	assert.False(t, s.IsEliminated("Gentoo"))
	assert.Equal(t, []string{"GNOME"}, s.Selection("desktop_environments").Values)
	assert.Equal(t, DontCare, s.Priority("wifi"))
}

func TestFilterState_ZeroValueUsable(t *testing.T) {
	var s FilterState
	s.Eliminate("A")
	s.SetPriority("wifi", Important)
	assert.True(t, s.IsEliminated("A"))
	assert.Equal(t, Important, s.Priority("wifi"))
}

func TestFilterState_JSON(t *testing.T) {
	s := NewFilterState()
	s.Eliminate("b")
	s.Eliminate("a")
	s.SetPriority("stability", Important)
	s.SetSelection("stability", RangeSelection(4, 9))
	s.SetSelection("desktop_environments", SetSelection("GNOME", "KDE"))
	s.SetSelection("secure_boot", BoolSelection(true))

	data, err := json.Marshal(s)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"eliminated":["a","b"]`)

	var got FilterState
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, s.Eliminated(), got.Eliminated())
	assert.Equal(t, s.Toggles, got.Toggles)
	assert.Equal(t, s.SortKey, got.SortKey)
	assert.Equal(t, s.Attributes, got.Attributes)
}

func TestFilterState_UnmarshalDefaults(t *testing.T) {
	var s FilterState
	require.NoError(t, json.Unmarshal([]byte(`{"attributes":{"wifi":{"priority":"important","selection":{"bool":true}}}}`), &s))
	assert.Equal(t, DefaultToggles(), s.Toggles)
	assert.Equal(t, DefaultSortKey, s.SortKey)
	assert.Equal(t, Important, s.Priority("wifi"))
	assert.Equal(t, BoolSelection(true), s.Selection("wifi"))
}
