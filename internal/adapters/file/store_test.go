package file_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/aretw0/questscribe/internal/adapters/file"
	"github.com/aretw0/questscribe/pkg/domain"
	"github.com/aretw0/questscribe/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ ports.DocumentStore = (*file.Store)(nil)

func TestFileStore_Contract_JSON(t *testing.T) {
	ports.RunDocumentStoreContract(t, file.New(t.TempDir()))
}

func TestFileStore_Contract_YAML(t *testing.T) {
	ports.RunDocumentStoreContract(t, file.New(t.TempDir(), file.WithFormat(file.FormatYAML)))
}

func TestFileStore_Layout(t *testing.T) {
	dir := t.TempDir()
	store := file.New(dir, file.WithFormat(file.FormatYAML))
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "campaign", ports.ContractDocument()))
	_, err := os.Stat(filepath.Join(dir, "campaign.yaml"))
	require.NoError(t, err)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temp files are left behind")
}

func TestFileStore_InvalidPayload(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.json"), []byte("{not json"), 0644))

	_, err := file.New(dir).Load(context.Background(), "broken")
	assert.ErrorIs(t, err, domain.ErrInvalidFormat)
}

func TestFileStore_RejectsUnsafeNames(t *testing.T) {
	store := file.New(t.TempDir())
	ctx := context.Background()

	assert.ErrorIs(t, store.Save(ctx, "", ports.ContractDocument()), domain.ErrInvalidFormat)
	assert.ErrorIs(t, store.Save(ctx, "../escape", ports.ContractDocument()), domain.ErrInvalidFormat)
}

func TestFileStore_ListMissingDir(t *testing.T) {
	store := file.New(filepath.Join(t.TempDir(), "nope"))
	names, err := store.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, names)
}

func TestReadWriteFile(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"story.json", "story.yml", "story.qsd"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(dir, name)
			require.NoError(t, file.WriteFile(path, ports.ContractDocument()))

			loaded, err := file.ReadFile(path)
			require.NoError(t, err)
			assert.Equal(t, ports.ContractDocument(), loaded)
		})
	}

	_, err := file.ReadFile(filepath.Join(dir, "missing.json"))
	assert.ErrorIs(t, err, domain.ErrDocumentNotFound)
}
