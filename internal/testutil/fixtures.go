package testutil

import (
	"testing"

	"github.com/HerbHall/distrocompare/pkg/catalog"
)

// NewRecord returns a distribution record with the given name and no other
// attributes. Options add attribute values.
func NewRecord(name string, opts ...func(map[string]catalog.Value)) catalog.Record {
	attrs := make(map[string]catalog.Value)
	for _, opt := range opts {
		opt(attrs)
	}
	return catalog.NewRecord(name, attrs)
}

// WithBool sets a boolean attribute.
func WithBool(attr string, b bool) func(map[string]catalog.Value) {
	return func(m map[string]catalog.Value) { m[attr] = catalog.Bool(b) }
}

// WithNumber sets a numeric attribute.
func WithNumber(attr string, n float64) func(map[string]catalog.Value) {
	return func(m map[string]catalog.Value) { m[attr] = catalog.Number(n) }
}

// WithString sets a single-valued enum attribute.
func WithString(attr, s string) func(map[string]catalog.Value) {
	return func(m map[string]catalog.Value) { m[attr] = catalog.String(s) }
}

// WithList sets a multi-valued enum attribute.
func WithList(attr string, items ...string) func(map[string]catalog.Value) {
	return func(m map[string]catalog.Value) { m[attr] = catalog.List(items...) }
}

// NewTemplate parses a JSON5 template document, failing the test on error.
func NewTemplate(t *testing.T, doc string) *catalog.Template {
	t.Helper()
	tmpl, err := catalog.ParseTemplate([]byte(doc))
	if err != nil {
		t.Fatalf("testutil.NewTemplate: %v", err)
	}
	return tmpl
}

// NewSnapshot builds a catalog snapshot from a template document and
// records.
func NewSnapshot(t *testing.T, doc string, records ...catalog.Record) *catalog.Snapshot {
	t.Helper()
	return catalog.NewSnapshot(NewTemplate(t, doc), records, nil)
}

// SampleTemplate is a small template covering every attribute domain.
const SampleTemplate = `{
	name: "Example",
	description: "",
	secure_boot: true,
	stability: 7,
	ram_requirements_minimum: 2048,
	package_manager: "apt",
	desktop_environments: ["GNOME"],
	privacy_rating: 8,
}`

// SampleRecords returns three records shaped for SampleTemplate.
func SampleRecords() []catalog.Record {
	return []catalog.Record{
		NewRecord("Fedora",
			WithBool("secure_boot", true),
			WithNumber("stability", 8),
			WithNumber("ram_requirements_minimum", 2048),
			WithString("package_manager", "dnf"),
			WithList("desktop_environments", "GNOME", "KDE"),
			WithNumber("privacy_rating", 8),
		),
		NewRecord("Ubuntu",
			WithBool("secure_boot", true),
			WithNumber("stability", 9),
			WithNumber("ram_requirements_minimum", 4096),
			WithString("package_manager", "apt"),
			WithList("desktop_environments", "GNOME"),
			WithNumber("privacy_rating", 6),
		),
		NewRecord("Gentoo",
			WithBool("secure_boot", false),
			WithNumber("stability", 6),
			WithNumber("ram_requirements_minimum", 512),
			WithString("package_manager", "portage"),
			WithList("desktop_environments", "XFCE", "KDE"),
			WithNumber("privacy_rating", 9),
		),
	}
}
