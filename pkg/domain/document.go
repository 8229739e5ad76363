package domain

import "fmt"

// Document is the persisted checkpoint of a working set.
// Loading a document fully replaces the in-memory entities and markers.
type Document struct {
	Content  string   `json:"content" yaml:"content" mapstructure:"content"`
	Entities []Entity `json:"entities" yaml:"entities" mapstructure:"entities"`
	Markers  []Marker `json:"markers" yaml:"markers" mapstructure:"markers"`
}

// Clone returns a deep copy.
func (d *Document) Clone() *Document {
	out := &Document{Content: d.Content}
	if d.Entities != nil {
		out.Entities = make([]Entity, len(d.Entities))
		for i, e := range d.Entities {
			out.Entities[i] = e.Clone()
		}
	}
	if d.Markers != nil {
		out.Markers = make([]Marker, len(d.Markers))
		for i, m := range d.Markers {
			out.Markers[i] = m.Clone()
		}
	}
	return out
}

// Validate checks the structural integrity of a loaded document: unique, non-empty ids,
// non-negative positions and well-formed change records. Dangling entity references
// are tolerated.
func (d *Document) Validate() error {
	seen := make(map[string]bool, len(d.Entities))
	for _, e := range d.Entities {
		if e.ID == "" {
			return fmt.Errorf("%w: entity with empty id", ErrInvalidFormat)
		}
		if seen[e.ID] {
			return fmt.Errorf("%w: duplicate entity id %q", ErrInvalidFormat, e.ID)
		}
		seen[e.ID] = true
	}
	markers := make(map[string]bool, len(d.Markers))
	for _, m := range d.Markers {
		if m.ID == "" {
			return fmt.Errorf("%w: marker with empty id", ErrInvalidFormat)
		}
		if markers[m.ID] {
			return fmt.Errorf("%w: duplicate marker id %q", ErrInvalidFormat, m.ID)
		}
		markers[m.ID] = true
		if m.Position < 0 {
			return fmt.Errorf("%w: marker %q has negative position %d", ErrInvalidFormat, m.ID, m.Position)
		}
		for _, c := range m.Changes {
			if err := c.Validate(); err != nil {
				return fmt.Errorf("marker %q: %w", m.ID, err)
			}
		}
	}
	return nil
}
