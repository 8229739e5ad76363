package domain

// MarkerVisual describes how a marker is drawn in the editor.
type MarkerVisual struct {
	Icon  string `json:"icon" yaml:"icon" mapstructure:"icon"`
	Color string `json:"color" yaml:"color" mapstructure:"color"`
}

// Marker is a positioned event carrying field changes for one entity.
type Marker struct {
	ID          string         `json:"id" yaml:"id" mapstructure:"id"`
	Position    int            `json:"position" yaml:"position" mapstructure:"position"`
	EntityID    string         `json:"entity_id" yaml:"entity_id" mapstructure:"entity_id"`
	Changes     []ChangeRecord `json:"changes" yaml:"changes" mapstructure:"changes"`
	Visual      MarkerVisual   `json:"visual" yaml:"visual" mapstructure:"visual"`
	Description string         `json:"description" yaml:"description" mapstructure:"description"`
	CreatedAt   int64          `json:"created_at" yaml:"created_at" mapstructure:"created_at"`
	ModifiedAt  int64          `json:"modified_at" yaml:"modified_at" mapstructure:"modified_at"`
}

// Clone returns a deep copy.
func (m Marker) Clone() Marker {
	out := m
	out.Changes = CloneChanges(m.Changes)
	return out
}

// MarkerInput describes a marker to insert.
type MarkerInput struct {
	Position    int            `json:"position" mapstructure:"position"`
	EntityID    string         `json:"entity_id" mapstructure:"entity_id"`
	Changes     []ChangeRecord `json:"changes" mapstructure:"changes"`
	Visual      MarkerVisual   `json:"visual" mapstructure:"visual"`
	Description string         `json:"description,omitempty" mapstructure:"description"`
}

// MarkerUpdate carries the optional fields of a marker update. Nil means unchanged.
type MarkerUpdate struct {
	Position    *int            `json:"position,omitempty"`
	EntityID    *string         `json:"entity_id,omitempty"`
	Changes     *[]ChangeRecord `json:"changes,omitempty"`
	Visual      *MarkerVisual   `json:"visual,omitempty"`
	Description *string         `json:"description,omitempty"`
}

// Reposition moves one marker to a new position.
type Reposition struct {
	MarkerID string `json:"marker_id" mapstructure:"marker_id"`
	Position int    `json:"position" mapstructure:"position"`
}
