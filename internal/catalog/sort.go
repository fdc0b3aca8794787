package catalog

import (
	"cmp"
	"slices"
	"strconv"
	"strings"

	pkgcatalog "github.com/HerbHall/distrocompare/pkg/catalog"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// IsScoreKey reports whether key names a computed score rather than a raw
// attribute.
func IsScoreKey(key string) bool {
	switch key {
	case SortOverall, SortNonNegotiable, SortImportant, SortNiceToHave, SortRecommendationScore:
		return true
	}
	return false
}

func (e Entry) score(key string) float64 {
	switch key {
	case SortNonNegotiable:
		return e.Scores.NonNegotiable
	case SortImportant:
		return e.Scores.Important
	case SortNiceToHave:
		return e.Scores.NiceToHave
	case SortRecommendationScore:
		return e.RecommendationScore
	default:
		return e.Scores.Overall
	}
}

// Sort orders entries in place by key. Score keys sort descending. Raw
// attributes sort strings ascending by English collation, numbers descending
// and true before false; undefined values go last. The sort is stable.
func Sort(entries []Entry, key string) {
	if key == "" {
		key = DefaultSortKey
	}
	if IsScoreKey(key) {
		slices.SortStableFunc(entries, func(a, b Entry) int {
			return cmp.Compare(b.score(key), a.score(key))
		})
		return
	}

	// Collators keep internal buffers; one per call.
	coll := collate.New(language.English)
	slices.SortStableFunc(entries, func(a, b Entry) int {
		return compareValues(coll, a.Record.Get(key), b.Record.Get(key))
	})
}

func compareValues(coll *collate.Collator, a, b pkgcatalog.Value) int {
	switch {
	case !a.Defined() && !b.Defined():
		return 0
	case !a.Defined():
		return 1
	case !b.Defined():
		return -1
	}

	if as, ok := a.AsString(); ok {
		if bs, ok := b.AsString(); ok {
			return coll.CompareString(as, bs)
		}
	}
	if an, ok := a.AsNumber(); ok {
		if bn, ok := b.AsNumber(); ok {
			return cmp.Compare(bn, an)
		}
	}
	if ab, ok := a.AsBool(); ok {
		if bb, ok := b.AsBool(); ok {
			return cmp.Compare(boolRank(bb), boolRank(ab))
		}
	}
	return strings.Compare(looseString(a), looseString(b))
}

func boolRank(b bool) int {
	if b {
		return 1
	}
	return 0
}

// looseString is the comparison form for values of mixed kinds.
func looseString(v pkgcatalog.Value) string {
	switch v.Kind() {
	case pkgcatalog.KindBool:
		b, _ := v.AsBool()
		return strconv.FormatBool(b)
	case pkgcatalog.KindNumber:
		n, _ := v.AsNumber()
		return strconv.FormatFloat(n, 'f', -1, 64)
	case pkgcatalog.KindString:
		s, _ := v.AsString()
		return s
	case pkgcatalog.KindList:
		return strings.Join(v.Strings(), ",")
	}
	return ""
}
