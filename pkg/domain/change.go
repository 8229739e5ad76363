package domain

import "fmt"

// ChangeType is the kind of mutation a ChangeRecord applies.
// The wire names follow the serialized document format.
type ChangeType string

const (
	// ChangeSet assigns the coerced payload to the path (absolute change).
	ChangeSet ChangeType = "absolute"
	// ChangeAdd adds a numeric delta to the current value (relative change).
	ChangeAdd ChangeType = "relative"
	// ChangeRemove deletes the path.
	ChangeRemove ChangeType = "remove"
)

// Valid reports whether t is one of the known change types.
func (t ChangeType) Valid() bool {
	switch t {
	case ChangeSet, ChangeAdd, ChangeRemove:
		return true
	}
	return false
}

// ChangeRecord is a single typed mutation targeting one dotted path.
type ChangeRecord struct {
	FieldName  string     `json:"field_name" yaml:"field_name" mapstructure:"field_name"`
	ChangeType ChangeType `json:"change_type" yaml:"change_type" mapstructure:"change_type"`
	Value      string     `json:"value" yaml:"value" mapstructure:"value"`
}

// Set builds an absolute change.
func Set(field, value string) ChangeRecord {
	return ChangeRecord{FieldName: field, ChangeType: ChangeSet, Value: value}
}

// Add builds a relative change.
func Add(field, delta string) ChangeRecord {
	return ChangeRecord{FieldName: field, ChangeType: ChangeAdd, Value: delta}
}

// Remove builds a removal.
func Remove(field string) ChangeRecord {
	return ChangeRecord{FieldName: field, ChangeType: ChangeRemove}
}

// Validate checks the record shape. Payload text is never validated: malformed
// numbers degrade to text during replay.
func (c ChangeRecord) Validate() error {
	if c.FieldName == "" {
		return fmt.Errorf("%w: change field_name is empty", ErrInvalidFormat)
	}
	if !c.ChangeType.Valid() {
		return fmt.Errorf("%w: unknown change_type %q for field %q", ErrInvalidFormat, c.ChangeType, c.FieldName)
	}
	return nil
}

// CloneChanges returns an independent copy of a change list.
func CloneChanges(changes []ChangeRecord) []ChangeRecord {
	if changes == nil {
		return nil
	}
	out := make([]ChangeRecord, len(changes))
	copy(out, changes)
	return out
}
