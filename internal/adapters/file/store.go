package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/aretw0/questscribe/pkg/domain"
	"gopkg.in/yaml.v3"
)

// Format selects the on-disk encoding of a document.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// Store implements ports.DocumentStore using the local filesystem.
// It stores one file per document in a configured directory.
type Store struct {
	BasePath string
	format   Format
}

// Option configures the Store.
type Option func(*Store)

// WithFormat selects JSON (default) or YAML files.
func WithFormat(f Format) Option {
	return func(s *Store) {
		if f == FormatYAML || f == FormatJSON {
			s.format = f
		}
	}
}

// New creates a new Store with the given base path.
// If basePath is empty, it defaults to ".questscribe/documents".
func New(basePath string, opts ...Option) *Store {
	if basePath == "" {
		basePath = filepath.Join(".questscribe", "documents")
	}
	s := &Store{BasePath: basePath, format: FormatJSON}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) ext() string {
	return "." + string(s.format)
}

func (s *Store) path(name string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("%w: document name cannot be empty", domain.ErrInvalidFormat)
	}
	if strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		return "", fmt.Errorf("%w: invalid document name %q", domain.ErrInvalidFormat, name)
	}
	return filepath.Join(s.BasePath, name+s.ext()), nil
}

func (s *Store) encode(doc *domain.Document) ([]byte, error) {
	if s.format == FormatYAML {
		return yaml.Marshal(doc)
	}
	return json.MarshalIndent(doc, "", "  ")
}

func (s *Store) decode(data []byte, doc *domain.Document) error {
	if s.format == FormatYAML {
		return yaml.Unmarshal(data, doc)
	}
	return json.Unmarshal(data, doc)
}

// Save persists the document atomically.
func (s *Store) Save(ctx context.Context, name string, doc *domain.Document) error {
	destPath, err := s.path(name)
	if err != nil {
		return err
	}
	data, err := s.encode(doc)
	if err != nil {
		return fmt.Errorf("failed to marshal document: %w", err)
	}
	return writeAtomic(destPath, data)
}

// writeAtomic writes to a temporary file first, syncs via fsync, and then renames it
// to the destination.
func writeAtomic(destPath string, data []byte) error {
	dir := filepath.Dir(destPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("%w: failed to ensure document directory: %v", domain.ErrIOFailure, err)
	}

	// Same directory as the destination so the rename stays on one filesystem.
	tmpFile, err := os.CreateTemp(dir, "tmp-"+filepath.Base(destPath)+"-*")
	if err != nil {
		return fmt.Errorf("%w: failed to create temp file: %v", domain.ErrIOFailure, err)
	}
	tmpPath := tmpFile.Name()
	defer func() {
		_ = tmpFile.Close()
		_ = os.Remove(tmpPath)
	}()

	if _, err := tmpFile.Write(data); err != nil {
		return fmt.Errorf("%w: failed to write temp file: %v", domain.ErrIOFailure, err)
	}
	if err := tmpFile.Sync(); err != nil {
		return fmt.Errorf("%w: failed to fsync temp file: %v", domain.ErrIOFailure, err)
	}
	// Windows cannot rename an open file.
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("%w: failed to close temp file: %v", domain.ErrIOFailure, err)
	}

	// os.Rename fails on Windows when the destination exists.
	if _, err := os.Stat(destPath); err == nil {
		if err := os.Remove(destPath); err != nil {
			return fmt.Errorf("%w: failed to replace document file: %v", domain.ErrIOFailure, err)
		}
	}
	if err := os.Rename(tmpPath, destPath); err != nil {
		return fmt.Errorf("%w: failed to rename temp file: %v", domain.ErrIOFailure, err)
	}
	return nil
}

// Load reads and decodes the document file.
func (s *Store) Load(ctx context.Context, name string) (*domain.Document, error) {
	filePath, err := s.path(name)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", domain.ErrDocumentNotFound, name)
		}
		return nil, fmt.Errorf("%w: failed to read document file: %v", domain.ErrIOFailure, err)
	}

	var doc domain.Document
	if err := s.decode(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", domain.ErrInvalidFormat, filePath, err)
	}
	return &doc, nil
}

// Delete removes the document file.
func (s *Store) Delete(ctx context.Context, name string) error {
	filePath, err := s.path(name)
	if err != nil {
		return err
	}
	if err := os.Remove(filePath); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("%w: failed to delete document file: %v", domain.ErrIOFailure, err)
	}
	return nil
}

// List returns the names of the documents stored in the configured format.
func (s *Store) List(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.BasePath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("%w: failed to list documents: %v", domain.ErrIOFailure, err)
	}

	names := []string{}
	for _, entry := range entries {
		n := entry.Name()
		if entry.IsDir() || filepath.Ext(n) != s.ext() || strings.HasPrefix(n, "tmp-") {
			continue
		}
		names = append(names, strings.TrimSuffix(n, s.ext()))
	}
	sort.Strings(names)
	return names, nil
}

// ReadFile decodes a single document file, picking the codec from its extension
// (.yaml/.yml, anything else is JSON).
func ReadFile(path string) (*domain.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", domain.ErrDocumentNotFound, path)
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrIOFailure, err)
	}
	s := &Store{format: formatFor(path)}
	var doc domain.Document
	if err := s.decode(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", domain.ErrInvalidFormat, path, err)
	}
	return &doc, nil
}

// WriteFile writes a single document file atomically, picking the codec from its extension.
func WriteFile(path string, doc *domain.Document) error {
	s := &Store{format: formatFor(path)}
	data, err := s.encode(doc)
	if err != nil {
		return fmt.Errorf("failed to marshal document: %w", err)
	}
	return writeAtomic(path, data)
}

func formatFor(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	}
	return FormatJSON
}
