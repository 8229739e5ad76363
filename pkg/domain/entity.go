package domain

// FieldMetadata tracks when a field path was first seen and last touched (epoch seconds).
type FieldMetadata struct {
	CreatedAt    int64 `json:"created_at" yaml:"created_at" mapstructure:"created_at"`
	LastModified int64 `json:"last_modified" yaml:"last_modified" mapstructure:"last_modified"`
}

// Entity is a tracked character or object.
type Entity struct {
	ID    string `json:"id" yaml:"id" mapstructure:"id"`
	Name  string `json:"name" yaml:"name" mapstructure:"name"`
	Color string `json:"color" yaml:"color" mapstructure:"color"`

	// Fields is the registry of known attribute paths, in first-seen order.
	Fields []string `json:"fields" yaml:"fields" mapstructure:"fields"`

	// FieldMetadata holds the timestamps of every registered path.
	FieldMetadata map[string]FieldMetadata `json:"field_metadata" yaml:"field_metadata" mapstructure:"field_metadata"`
}

// HasField reports whether path is registered.
func (e *Entity) HasField(path string) bool {
	for _, f := range e.Fields {
		if f == path {
			return true
		}
	}
	return false
}

// Clone returns a deep copy.
func (e Entity) Clone() Entity {
	out := e
	if e.Fields != nil {
		out.Fields = make([]string, len(e.Fields))
		copy(out.Fields, e.Fields)
	}
	if e.FieldMetadata != nil {
		out.FieldMetadata = make(map[string]FieldMetadata, len(e.FieldMetadata))
		for k, v := range e.FieldMetadata {
			out.FieldMetadata[k] = v
		}
	}
	return out
}

// EntityUpdate carries the optional fields of an entity update. Nil means unchanged.
type EntityUpdate struct {
	Name  *string `json:"name,omitempty"`
	Color *string `json:"color,omitempty"`
}
