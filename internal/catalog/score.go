package catalog

import (
	pkgcatalog "github.com/HerbHall/distrocompare/pkg/catalog"
)

// Fixed attribute lists behind the three category scores.
var (
	NonNegotiableAttributes = []string{"free_software_ideology", "privacy_rating", "security_rating"}
	ImportantAttributes     = []string{"beginner_friendliness", "installer_difficulty", "post_install_setup"}
	NiceToHaveAttributes    = []string{"gaming_performance", "multimedia_codecs", "desktop_environments"}
)

// Overall score weights.
const (
	overallNonNegotiableWeight = 0.5
	overallImportantWeight     = 0.3
	overallNiceToHaveWeight    = 0.2
)

// Scores are the fixed category scores of a record, each in [0,100].
type Scores struct {
	NonNegotiable float64 `json:"nonNegotiable"`
	Important     float64 `json:"important"`
	NiceToHave    float64 `json:"niceToHave"`
	Overall       float64 `json:"overall"`
}

// CategoryScores computes the fixed category scores of r. Numbers add as-is
// (clamped to the 0-10 scale), true adds 10, anything else adds 0.
func CategoryScores(r pkgcatalog.Record) Scores {
	s := Scores{
		NonNegotiable: categoryScore(r, NonNegotiableAttributes),
		Important:     categoryScore(r, ImportantAttributes),
		NiceToHave:    categoryScore(r, NiceToHaveAttributes),
	}
	s.Overall = s.NonNegotiable*overallNonNegotiableWeight +
		s.Important*overallImportantWeight +
		s.NiceToHave*overallNiceToHaveWeight
	return s
}

func categoryScore(r pkgcatalog.Record, attrs []string) float64 {
	if len(attrs) == 0 {
		return 0
	}
	var sum float64
	for _, a := range attrs {
		sum += contribution(r.Get(a))
	}
	return sum / float64(len(attrs)*10) * 100
}

func contribution(v pkgcatalog.Value) float64 {
	if b, ok := v.AsBool(); ok {
		if b {
			return 10
		}
		return 0
	}
	if n, ok := v.AsNumber(); ok {
		return min(max(n, 0), 10)
	}
	return 0
}

// RecommendationScore is the weighted match of r against the user's
// priorities and selections, in [0,100]. Only Important (weight 2) and Nice
// to have (weight 1) attributes count. A number or scale attribute matches
// when the value reaches the selection's lower bound. The score is 0 when no
// weighted attribute is configured.
func RecommendationScore(tmpl *pkgcatalog.Template, r pkgcatalog.Record, state *FilterState) float64 {
	var total, weights float64
	for _, spec := range tmpl.Attributes() {
		f, ok := state.Attributes[spec.Name]
		if !ok || f.Priority == DontCare {
			continue
		}
		w := f.Priority.Weight()
		if w == 0 {
			continue
		}
		total += matchFraction(spec, f.Selection, r.Get(spec.Name)) * w
		weights += w
	}
	if weights == 0 {
		return 0
	}
	return total / weights * 100
}

func matchFraction(spec pkgcatalog.AttributeSpec, sel Selection, v pkgcatalog.Value) float64 {
	switch spec.Domain {
	case pkgcatalog.DomainBoolean:
		b, ok := v.AsBool()
		if sel.Kind == SelectBool && sel.Bool && ok && b {
			return 1
		}
		return 0
	case pkgcatalog.DomainNumber, pkgcatalog.DomainScale:
		n, ok := v.AsNumber()
		if ok && n >= sel.threshold(spec) {
			return 1
		}
		return 0
	case pkgcatalog.DomainEnum, pkgcatalog.DomainEnumMulti:
		if sel.Kind != SelectSet || len(sel.Values) == 0 {
			return 0
		}
		return float64(overlap(sel.Values, v.Strings())) / float64(len(sel.Values))
	}
	return 0
}
