// Package catalog is the distribution comparison engine: it filters the
// record store by the user's priorities and selections, annotates each
// surviving record with category and recommendation scores, and sorts the
// result.
package catalog

import (
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	pkgcatalog "github.com/HerbHall/distrocompare/pkg/catalog"
)

var (
	// ErrRecordNotFound is returned when no record has the requested name.
	ErrRecordNotFound = errors.New("record not found")
	// ErrUnknownAttribute is returned for names missing from the template.
	ErrUnknownAttribute = errors.New("unknown attribute")
	// ErrIncompatibleSelection is returned when a selection does not fit the
	// attribute's domain, such as a range on a boolean.
	ErrIncompatibleSelection = errors.New("selection does not match attribute domain")
	// ErrUnknownSortKey is returned for a sort key that is neither a score nor
	// an attribute.
	ErrUnknownSortKey = errors.New("unknown sort key")
)

// Entry is one record in a view, annotated with its scores.
type Entry struct {
	Record              pkgcatalog.Record `json:"record"`
	Scores              Scores            `json:"scores"`
	RecommendationScore float64           `json:"recommendationScore"`
}

// View is the filtered, scored and sorted record list.
type View struct {
	Entries  []Entry `json:"entries"`
	Filtered int     `json:"filtered"`
	Total    int     `json:"total"`
	SortKey  string  `json:"sort_key"`
}

// Names returns the record names in view order.
func (v View) Names() []string {
	out := make([]string, len(v.Entries))
	for i := range v.Entries {
		out[i] = v.Entries[i].Record.Name
	}
	return out
}

// AttributeInfo describes a filterable attribute for clients building
// controls.
type AttributeInfo struct {
	pkgcatalog.AttributeSpec
	Group   string   `json:"group"`
	Help    string   `json:"help,omitempty"`
	Options []string `json:"options,omitempty"`
}

// Badge is an active filter indicator: an attribute with a priority other
// than Don't care.
type Badge struct {
	Attribute string   `json:"attribute"`
	Label     string   `json:"label"`
	Priority  Priority `json:"priority"`
	Level     string   `json:"level"`
}

// Observer receives timing for every evaluation.
type Observer interface {
	ObserveEvaluation(d time.Duration, filtered, total int)
}

// Option configures an Engine.
type Option func(*Engine)

// WithObserver sets the evaluation observer.
func WithObserver(o Observer) Option {
	return func(e *Engine) { e.observer = o }
}

// loaded is the immutable, indexed form of a snapshot.
type loaded struct {
	snap    *pkgcatalog.Snapshot
	byName  map[string]int
	options map[string][]string
	groups  map[string]string
}

// Engine evaluates filter states against a catalog snapshot. The snapshot
// may be replaced at runtime; evaluations in flight keep the one they began
// with.
type Engine struct {
	cur      atomic.Pointer[loaded]
	observer Observer
	now      func() time.Time
}

// NewEngine creates an engine over snap.
func NewEngine(snap *pkgcatalog.Snapshot, opts ...Option) *Engine {
	e := &Engine{now: time.Now}
	for _, o := range opts {
		o(e)
	}
	e.SetSnapshot(snap)
	return e
}

// SetSnapshot replaces the catalog.
func (e *Engine) SetSnapshot(snap *pkgcatalog.Snapshot) {
	e.cur.Store(index(snap))
}

// Snapshot returns the catalog in use.
func (e *Engine) Snapshot() *pkgcatalog.Snapshot { return e.cur.Load().snap }

// Template returns the attribute template in use.
func (e *Engine) Template() *pkgcatalog.Template { return e.cur.Load().snap.Template }

func index(snap *pkgcatalog.Snapshot) *loaded {
	l := &loaded{
		snap:    snap,
		byName:  make(map[string]int, len(snap.Records)),
		options: make(map[string][]string),
		groups:  make(map[string]string),
	}
	for i := range snap.Records {
		if _, dup := l.byName[snap.Records[i].Name]; !dup {
			l.byName[snap.Records[i].Name] = i
		}
	}

	// Enum options in first-seen order across the store.
	for _, spec := range snap.Template.Attributes() {
		if !spec.Domain.Enumerable() {
			continue
		}
		seen := make(map[string]bool)
		opts := []string{}
		for i := range snap.Records {
			for _, v := range snap.Records[i].Get(spec.Name).Strings() {
				if v == "" || seen[v] {
					continue
				}
				seen[v] = true
				opts = append(opts, v)
			}
		}
		l.options[spec.Name] = opts
	}

	if cats, err := pkgcatalog.Categories(); err == nil {
		for _, c := range cats {
			for _, a := range c.Attributes {
				l.groups[a] = c.Label
			}
		}
	}
	return l
}

// Evaluate runs a full filter, score and sort pass for state.
func (e *Engine) Evaluate(state *FilterState) View {
	start := e.now()
	l := e.cur.Load()
	tmpl := l.snap.Template

	filtered := Filter(tmpl, l.snap.Records, state)
	entries := make([]Entry, len(filtered))
	for i := range filtered {
		entries[i] = Entry{
			Record:              filtered[i],
			Scores:              CategoryScores(filtered[i]),
			RecommendationScore: RecommendationScore(tmpl, filtered[i], state),
		}
	}

	key := state.SortKey
	if key == "" {
		key = DefaultSortKey
	}
	Sort(entries, key)

	view := View{
		Entries:  entries,
		Filtered: len(entries),
		Total:    len(l.snap.Records),
		SortKey:  key,
	}
	if e.observer != nil {
		e.observer.ObserveEvaluation(e.now().Sub(start), view.Filtered, view.Total)
	}
	return view
}

// Record returns the record named name.
func (e *Engine) Record(name string) (pkgcatalog.Record, error) {
	l := e.cur.Load()
	i, ok := l.byName[name]
	if !ok {
		return pkgcatalog.Record{}, fmt.Errorf("%w: %q", ErrRecordNotFound, name)
	}
	return l.snap.Records[i], nil
}

// Records returns every record in store order.
func (e *Engine) Records() []pkgcatalog.Record {
	return append([]pkgcatalog.Record(nil), e.cur.Load().snap.Records...)
}

// EnumOptions returns the distinct values of an enumerable attribute across
// the store, in first-seen order.
func (e *Engine) EnumOptions(attr string) ([]string, error) {
	l := e.cur.Load()
	spec, ok := l.snap.Template.Lookup(attr)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownAttribute, attr)
	}
	if !spec.Domain.Enumerable() {
		return nil, nil
	}
	return append([]string(nil), l.options[attr]...), nil
}

// Attributes returns every filterable attribute with its group, help text
// and, for enumerables, the available options.
func (e *Engine) Attributes() []AttributeInfo {
	l := e.cur.Load()
	specs := l.snap.Template.Attributes()
	out := make([]AttributeInfo, 0, len(specs))
	for _, spec := range specs {
		out = append(out, AttributeInfo{
			AttributeSpec: spec,
			Group:         l.groups[spec.Name],
			Help:          l.snap.Descriptions[spec.Name],
			Options:       append([]string(nil), l.options[spec.Name]...),
		})
	}
	return out
}

// Badges lists the attributes whose priority differs from Don't care, in
// template order.
func (e *Engine) Badges(state *FilterState) []Badge {
	var out []Badge
	for _, spec := range e.Template().Attributes() {
		p := state.Priority(spec.Name)
		if p == DontCare {
			continue
		}
		out = append(out, Badge{
			Attribute: spec.Name,
			Label:     spec.Label,
			Priority:  p,
			Level:     p.String(),
		})
	}
	return out
}

// ValidateAttribute checks that attr exists and, when sel is set, that it
// fits the attribute's domain.
func (e *Engine) ValidateAttribute(attr string, sel *Selection) error {
	spec, ok := e.Template().Lookup(attr)
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownAttribute, attr)
	}
	if sel != nil && !sel.Compatible(spec.Domain) {
		return fmt.Errorf("%w: %s is %s", ErrIncompatibleSelection, attr, spec.Domain)
	}
	return nil
}

// ValidateSortKey accepts score keys, filterable attributes and identity
// fields.
func (e *Engine) ValidateSortKey(key string) error {
	if IsScoreKey(key) || pkgcatalog.IsIdentity(key) {
		return nil
	}
	if _, ok := e.Template().Lookup(key); ok {
		return nil
	}
	return fmt.Errorf("%w: %q", ErrUnknownSortKey, key)
}

// Validate checks every attribute and the sort key of state.
func (e *Engine) Validate(state *FilterState) error {
	for attr, f := range state.Attributes {
		if !f.Priority.Valid() {
			return fmt.Errorf("attribute %q: priority %d out of range", attr, int(f.Priority))
		}
		sel := f.Selection
		if err := e.ValidateAttribute(attr, &sel); err != nil {
			return err
		}
	}
	if state.SortKey != "" {
		return e.ValidateSortKey(state.SortKey)
	}
	return nil
}
