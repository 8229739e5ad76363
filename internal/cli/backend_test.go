package cli

import (
	"context"
	"encoding/base64"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aretw0/questscribe/internal/config"
	"github.com/aretw0/questscribe/internal/testutils"
	"github.com/aretw0/questscribe/pkg/domain"
	"github.com/aretw0/questscribe/pkg/persistence/middleware"
	"github.com/aretw0/questscribe/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T, kind string) config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Store.Kind = kind
	cfg.Store.Path = t.TempDir()
	cfg.Log.Level = "off"
	return cfg
}

func TestOpenBackend_Kinds(t *testing.T) {
	mr, _ := testutils.NewRedis(t)

	for _, kind := range []string{config.StoreMemory, config.StoreFile, config.StoreSQLite, config.StoreLoam, config.StoreRedis} {
		t.Run(kind, func(t *testing.T) {
			cfg := testConfig(t, kind)
			cfg.Redis.Addr = mr.Addr()

			b, err := OpenBackend(cfg)
			require.NoError(t, err)
			t.Cleanup(func() { _ = b.Close() })

			ports.RunDocumentStoreContract(t, b.Store)
			assert.Equal(t, kind == config.StoreRedis, b.Locker != nil)
		})
	}
}

func TestOpenBackend_SQLitePath(t *testing.T) {
	cfg := testConfig(t, config.StoreSQLite)
	b, err := OpenBackend(cfg)
	require.NoError(t, err)
	defer b.Close()

	_, err = os.Stat(filepath.Join(cfg.Store.Path, sqliteFile))
	assert.NoError(t, err)
}

func TestOpenBackend_UnknownKind(t *testing.T) {
	_, err := OpenBackend(testConfig(t, "s3"))
	assert.ErrorIs(t, err, domain.ErrUnsupportedFormat)
}

func TestOpenBackend_EncryptsAndRedacts(t *testing.T) {
	cfg := testConfig(t, config.StoreFile)
	cfg.Encryption.Key = base64.StdEncoding.EncodeToString([]byte(strings.Repeat("k", 32)))
	cfg.Redact.Patterns = []string{`^secrets\.`}

	b, err := OpenBackend(cfg)
	require.NoError(t, err)
	ctx := context.Background()

	doc := ports.ContractDocument()
	doc.Markers[0].Changes = append(doc.Markers[0].Changes, domain.Set("secrets.password", "hunter2"))
	require.NoError(t, b.Store.Save(ctx, "vault", doc))

	raw, err := os.ReadFile(filepath.Join(cfg.Store.Path, "vault.json"))
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "Aria")
	assert.NotContains(t, string(raw), "hunter2")

	got, err := b.Store.Load(ctx, "vault")
	require.NoError(t, err)
	assert.Equal(t, doc.Entities, got.Entities)
	changes := got.Markers[0].Changes
	assert.Equal(t, middleware.RedactedValue, changes[len(changes)-1].Value)
}
