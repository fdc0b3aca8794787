package catalog

import (
	pkgcatalog "github.com/HerbHall/distrocompare/pkg/catalog"
)

// predicate is a gated, active attribute filter ready to apply.
type predicate struct {
	attr string
	spec pkgcatalog.AttributeSpec
	sel  Selection
}

// Filter reduces records to those that are not eliminated and pass every
// gated, active attribute filter in state. Filters combine with AND across
// attributes; an enum selection matches on any overlap. Attributes missing
// from the template are ignored. Input order is preserved.
func Filter(tmpl *pkgcatalog.Template, records []pkgcatalog.Record, state *FilterState) []pkgcatalog.Record {
	preds := activePredicates(tmpl, state)

	out := make([]pkgcatalog.Record, 0, len(records))
	for i := range records {
		if state.IsEliminated(records[i].Name) {
			continue
		}
		if matchesAll(records[i], preds) {
			out = append(out, records[i])
		}
	}
	return out
}

// activePredicates collects the filters that currently constrain the set,
// in template order so evaluation is deterministic.
func activePredicates(tmpl *pkgcatalog.Template, state *FilterState) []predicate {
	var preds []predicate
	for _, spec := range tmpl.Attributes() {
		f, ok := state.Attributes[spec.Name]
		if !ok || !f.Priority.gates(state.Toggles) {
			continue
		}
		if !f.Selection.Compatible(spec.Domain) || !f.Selection.Active(spec) {
			continue
		}
		preds = append(preds, predicate{attr: spec.Name, spec: spec, sel: f.Selection})
	}
	return preds
}

func matchesAll(r pkgcatalog.Record, preds []predicate) bool {
	for _, p := range preds {
		if !p.match(r.Get(p.attr)) {
			return false
		}
	}
	return true
}

func (p predicate) match(v pkgcatalog.Value) bool {
	switch p.spec.Domain {
	case pkgcatalog.DomainBoolean:
		b, ok := v.AsBool()
		return ok && b
	case pkgcatalog.DomainNumber, pkgcatalog.DomainScale:
		n, ok := v.AsNumber()
		return ok && p.sel.Range.Contains(n)
	case pkgcatalog.DomainEnum, pkgcatalog.DomainEnumMulti:
		return overlap(p.sel.Values, v.Strings()) > 0
	}
	return false
}

// overlap counts the selected values present in have.
func overlap(selected, have []string) int {
	if len(selected) == 0 || len(have) == 0 {
		return 0
	}
	set := make(map[string]struct{}, len(have))
	for _, h := range have {
		set[h] = struct{}{}
	}
	n := 0
	for _, s := range selected {
		if _, ok := set[s]; ok {
			n++
		}
	}
	return n
}
