package loam

import "github.com/aretw0/questscribe/pkg/domain"

// Kind marks the frontmatter of documents written by this adapter so unrelated
// markdown files in the same directory are ignored.
const Kind = "questscribe/document"

// DocumentMetadata is the frontmatter of a stored document.
// It uses "mapstructure" tags so Loam's typed repository can decode it.
type DocumentMetadata struct {
	Kind     string          `json:"kind" mapstructure:"kind"`
	Content  string          `json:"content" mapstructure:"content"`
	Entities []domain.Entity `json:"entities" mapstructure:"entities"`
	Markers  []domain.Marker `json:"markers" mapstructure:"markers"`
}
