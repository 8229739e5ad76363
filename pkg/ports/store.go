package ports

import (
	"context"

	"github.com/aretw0/questscribe/pkg/domain"
)

// DocumentStore defines the interface for persisting document checkpoints by name.
type DocumentStore interface {
	// Save persists the document under name, replacing any previous version.
	Save(ctx context.Context, name string, doc *domain.Document) error

	// Load retrieves the document stored under name.
	// Returns domain.ErrDocumentNotFound if the name does not exist and
	// domain.ErrInvalidFormat if the stored payload cannot be decoded.
	Load(ctx context.Context, name string) (*domain.Document, error)

	// Delete removes the document stored under name. Deleting a missing name is not an error.
	Delete(ctx context.Context, name string) error

	// List returns the names of all stored documents.
	List(ctx context.Context) ([]string, error)
}
