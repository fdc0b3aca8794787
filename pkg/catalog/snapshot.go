// Package catalog defines the distribution catalog model shared by the
// engine, the loaders and the API: attribute templates, records and their
// values, and the display category table.
package catalog

import "time"

// Snapshot is an immutable, fully loaded catalog: the template, the records
// in manifest order and optional help texts.
type Snapshot struct {
	Template     *Template
	Records      []Record
	Descriptions map[string]string
	LoadedAt     time.Time
}

// NewSnapshot assembles a snapshot. Open numeric ranges in the template are
// widened so that every record value lies within the control bounds.
func NewSnapshot(t *Template, records []Record, descriptions map[string]string) *Snapshot {
	if descriptions == nil {
		descriptions = map[string]string{}
	}
	rs := make([]Record, len(records))
	copy(rs, records)
	return &Snapshot{
		Template:     t.withObservedBounds(rs),
		Records:      rs,
		Descriptions: descriptions,
		LoadedAt:     time.Now().UTC(),
	}
}
