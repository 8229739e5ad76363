package loam

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/aretw0/loam"
	"github.com/aretw0/loam/pkg/core"
	"github.com/aretw0/questscribe/pkg/domain"
)

// Store implements ports.DocumentStore on top of a Loam repository.
// Each document is a markdown file: the text is the body and the entities and
// markers live in the frontmatter, so stored documents stay readable in any editor.
type Store struct {
	root  string
	repo  core.Repository
	typed *loam.TypedRepository[DocumentMetadata]
}

// Open initializes a Loam repository rooted at dir.
func Open(dir string) (*Store, error) {
	absPath, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("invalid path: %w", err)
	}
	if err := os.MkdirAll(absPath, 0755); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrIOFailure, err)
	}
	repo, err := loam.Init(absPath, loam.WithVersioning(false), loam.WithForceTemp(false))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize loam: %w", err)
	}
	return New(absPath, repo), nil
}

// New wraps an existing repository rooted at root.
func New(root string, repo core.Repository) *Store {
	return &Store{
		root:  root,
		repo:  repo,
		typed: loam.NewTypedRepository[DocumentMetadata](repo),
	}
}

// Save writes the document as <name>.md.
func (s *Store) Save(ctx context.Context, name string, doc *domain.Document) error {
	if name == "" || strings.ContainsAny(name, `/\`) {
		return fmt.Errorf("%w: invalid document name %q", domain.ErrInvalidFormat, name)
	}
	meta, err := toMetadata(doc)
	if err != nil {
		return err
	}
	err = s.repo.Save(ctx, core.Document{
		ID:       name + ".md",
		Content:  doc.Content,
		Metadata: meta,
	})
	if err != nil {
		return fmt.Errorf("%w: loam save failed for %s: %v", domain.ErrIOFailure, name, err)
	}
	return nil
}

// toMetadata flattens the document into plain maps and slices so the frontmatter
// serializer sees only basic types.
func toMetadata(doc *domain.Document) (core.Metadata, error) {
	raw, err := json.Marshal(DocumentMetadata{
		Kind:     Kind,
		Content:  doc.Content,
		Entities: doc.Entities,
		Markers:  doc.Markers,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal document: %w", err)
	}
	var meta map[string]any
	if err := json.Unmarshal(raw, &meta); err != nil {
		return nil, fmt.Errorf("failed to convert document metadata: %w", err)
	}
	return core.Metadata(meta), nil
}

// Load reads <name>.md back.
func (s *Store) Load(ctx context.Context, name string) (*domain.Document, error) {
	if _, err := os.Stat(s.path(name)); errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", domain.ErrDocumentNotFound, name)
	}
	doc, err := s.typed.Get(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("%w: loam get failed for %s: %v", domain.ErrInvalidFormat, name, err)
	}
	if doc.Data.Kind != Kind {
		return nil, fmt.Errorf("%w: %s is not a questscribe document", domain.ErrInvalidFormat, name)
	}
	out := &domain.Document{
		Content:  doc.Data.Content,
		Entities: doc.Data.Entities,
		Markers:  doc.Data.Markers,
	}
	if out.Content == "" {
		out.Content = doc.Content
	}
	return out, nil
}

// Delete removes <name>.md from the repository directory.
func (s *Store) Delete(ctx context.Context, name string) error {
	if err := os.Remove(s.path(name)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("%w: failed to delete %s: %v", domain.ErrIOFailure, name, err)
	}
	return nil
}

// List returns the names of every questscribe document in the repository.
func (s *Store) List(ctx context.Context) ([]string, error) {
	docs, err := s.typed.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: loam list failed: %v", domain.ErrIOFailure, err)
	}
	names := []string{}
	for _, doc := range docs {
		if doc.Data.Kind != Kind {
			continue
		}
		names = append(names, trimExtension(doc.ID))
	}
	sort.Strings(names)
	return names, nil
}

func (s *Store) path(name string) string {
	return filepath.Join(s.root, name+".md")
}

func trimExtension(id string) string {
	return filepath.ToSlash(strings.TrimSuffix(id, filepath.Ext(id)))
}
