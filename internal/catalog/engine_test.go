package catalog

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HerbHall/distrocompare/internal/testutil"
	pkgcatalog "github.com/HerbHall/distrocompare/pkg/catalog"
)

// abcSnapshot is the secure_boot/stability catalog used by several tests.
func abcSnapshot(t *testing.T) *pkgcatalog.Snapshot {
	t.Helper()
	return testutil.NewSnapshot(t, `{secure_boot: true, stability: 7}`,
		testutil.NewRecord("A", testutil.WithBool("secure_boot", true), testutil.WithNumber("stability", 9)),
		testutil.NewRecord("B", testutil.WithBool("secure_boot", false), testutil.WithNumber("stability", 9)),
		testutil.NewRecord("C", testutil.WithBool("secure_boot", true), testutil.WithNumber("stability", 3)),
	)
}

func TestEngine_SecureBootScenario(t *testing.T) {
	engine := NewEngine(abcSnapshot(t))

	state := NewFilterState()
	state.SetPriority("secure_boot", NonNegotiable)
	state.SetSelection("secure_boot", BoolSelection(true))
	state.SetSortKey("stability")

	view := engine.Evaluate(state)
	assert.Equal(t, []string{"A", "C"}, view.Names())
	assert.Equal(t, 2, view.Filtered)
	assert.Equal(t, 3, view.Total)
	assert.Equal(t, "stability", view.SortKey)
}

func TestEngine_Idempotent(t *testing.T) {
	engine := NewEngine(testutil.NewSnapshot(t, testutil.SampleTemplate, testutil.SampleRecords()...))

	state := NewFilterState()
	state.SetPriority("desktop_environments", Important)
	state.SetSelection("desktop_environments", SetSelection("KDE"))
	state.SetToggles(Toggles{NonNegotiable: true, Important: true})

	first := engine.Evaluate(state)
	second := engine.Evaluate(state)
	assert.Equal(t, first, second)
	assert.Equal(t, []string{"Fedora", "Gentoo"}, sortedNames(first))
}

func TestEngine_EliminationMonotonic(t *testing.T) {
	engine := NewEngine(testutil.NewSnapshot(t, testutil.SampleTemplate, testutil.SampleRecords()...))
	state := NewFilterState()

	require.Len(t, engine.Evaluate(state).Entries, 3)

	state.Eliminate("Ubuntu")
	edits := []func(){
		func() { state.SetSortKey("stability") },
		func() { state.SetPriority("secure_boot", NonNegotiable) },
		func() { state.SetToggles(Toggles{}) },
		func() { state.Reset() },
	}
	for i, edit := range edits {
		edit()
		view := engine.Evaluate(state)
		assert.NotContains(t, view.Names(), "Ubuntu", "after edit %d", i)
		assert.Equal(t, 2, view.Filtered, "after edit %d", i)
		assert.Equal(t, 3, view.Total, "after edit %d", i)
	}
}

func TestEngine_EliminatedRecordNotScored(t *testing.T) {
	engine := NewEngine(testutil.NewSnapshot(t, testutil.SampleTemplate, testutil.SampleRecords()...))
	state := NewFilterState()
	state.SetSortKey(SortRecommendationScore)
	state.SetPriority("stability", Important)
	state.SetSelection("stability", RangeSelection(9, 10))
	state.Eliminate("Ubuntu")

	view := engine.Evaluate(state)
	for _, e := range view.Entries {
		assert.NotEqual(t, "Ubuntu", e.Record.Name)
		assert.Zero(t, e.RecommendationScore, "%s has stability below 9", e.Record.Name)
	}
}

func TestEngine_Record(t *testing.T) {
	engine := NewEngine(abcSnapshot(t))

	rec, err := engine.Record("B")
	require.NoError(t, err)
	assert.Equal(t, "B", rec.Name)

	_, err = engine.Record("Z")
	assert.True(t, errors.Is(err, ErrRecordNotFound), "err = %v", err)
}

func TestEngine_EnumOptions(t *testing.T) {
	engine := NewEngine(testutil.NewSnapshot(t, testutil.SampleTemplate, testutil.SampleRecords()...))

	opts, err := engine.EnumOptions("desktop_environments")
	require.NoError(t, err)
	assert.Equal(t, []string{"GNOME", "KDE", "XFCE"}, opts)

	opts, err = engine.EnumOptions("package_manager")
	require.NoError(t, err)
	assert.Equal(t, []string{"dnf", "apt", "portage"}, opts)

	opts, err = engine.EnumOptions("stability")
	require.NoError(t, err)
	assert.Nil(t, opts)

	_, err = engine.EnumOptions("nope")
	assert.ErrorIs(t, err, ErrUnknownAttribute)
}

func TestEngine_Attributes(t *testing.T) {
	snap := testutil.NewSnapshot(t, testutil.SampleTemplate, testutil.SampleRecords()...)
	snap.Descriptions["secure_boot"] = "Supports UEFI Secure Boot"
	engine := NewEngine(snap)

	attrs := engine.Attributes()
	require.Len(t, attrs, 6)

	byName := map[string]AttributeInfo{}
	for _, a := range attrs {
		byName[a.Name] = a
	}
	assert.Equal(t, "Supports UEFI Secure Boot", byName["secure_boot"].Help)
	assert.Equal(t, "Non-Negotiable Criteria", byName["secure_boot"].Group)
	assert.Equal(t, []string{"GNOME", "KDE", "XFCE"}, byName["desktop_environments"].Options)
	assert.Equal(t, float64(4096), byName["ram_requirements_minimum"].Max)
}

func TestEngine_Badges(t *testing.T) {
	engine := NewEngine(testutil.NewSnapshot(t, testutil.SampleTemplate, testutil.SampleRecords()...))
	state := NewFilterState()
	assert.Empty(t, engine.Badges(state))

	state.SetPriority("secure_boot", NonNegotiable)
	state.SetPriority("privacy_rating", NotImportant)
	state.SetPriority("stability", DontCare)
	state.SetPriority("unknown_attr", Important)

	badges := engine.Badges(state)
	require.Len(t, badges, 2)
	assert.Equal(t, "secure_boot", badges[0].Attribute)
	assert.Equal(t, "Non-negotiable", badges[0].Level)
	assert.Equal(t, "privacy_rating", badges[1].Attribute)
	assert.Equal(t, "Not important", badges[1].Level)
}

func TestEngine_Validate(t *testing.T) {
	engine := NewEngine(testutil.NewSnapshot(t, testutil.SampleTemplate, testutil.SampleRecords()...))

	tests := []struct {
		name    string
		mutate  func(*FilterState)
		wantErr error
	}{
		{"default", func(*FilterState) {}, nil},
		{"unknown attribute", func(s *FilterState) { s.SetPriority("nope", Important) }, ErrUnknownAttribute},
		{"range on boolean", func(s *FilterState) { s.SetSelection("secure_boot", RangeSelection(1, 2)) }, ErrIncompatibleSelection},
		{"set on enum", func(s *FilterState) { s.SetSelection("package_manager", SetSelection("apt")) }, nil},
		{"attribute sort", func(s *FilterState) { s.SetSortKey("stability") }, nil},
		{"identity sort", func(s *FilterState) { s.SetSortKey("name") }, nil},
		{"unknown sort", func(s *FilterState) { s.SetSortKey("popularity") }, ErrUnknownSortKey},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			state := NewFilterState()
			tt.mutate(state)
			err := engine.Validate(state)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

type recordingObserver struct {
	calls    int
	filtered int
	total    int
}

func (o *recordingObserver) ObserveEvaluation(_ time.Duration, filtered, total int) {
	o.calls++
	o.filtered = filtered
	o.total = total
}

func TestEngine_Observer(t *testing.T) {
	obs := &recordingObserver{}
	engine := NewEngine(abcSnapshot(t), WithObserver(obs))

	state := NewFilterState()
	state.Eliminate("A")
	engine.Evaluate(state)

	assert.Equal(t, 1, obs.calls)
	assert.Equal(t, 2, obs.filtered)
	assert.Equal(t, 3, obs.total)
}

func TestEngine_SetSnapshot(t *testing.T) {
	engine := NewEngine(abcSnapshot(t))
	engine.SetSnapshot(testutil.NewSnapshot(t, testutil.SampleTemplate, testutil.SampleRecords()...))

	_, err := engine.Record("A")
	assert.ErrorIs(t, err, ErrRecordNotFound)
	assert.Equal(t, 3, engine.Evaluate(NewFilterState()).Total)
	assert.Len(t, engine.Records(), 3)
}

func sortedNames(v View) []string {
	names := v.Names()
	for i := 1; i < len(names); i++ {
		for j := i; j > 0 && names[j] < names[j-1]; j-- {
			names[j], names[j-1] = names[j-1], names[j]
		}
	}
	return names
}
