package memory_test

import (
	"context"
	"testing"

	"github.com/aretw0/questscribe/pkg/adapters/memory"
	"github.com/aretw0/questscribe/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_Contract(t *testing.T) {
	store := memory.NewStore()
	ports.RunDocumentStoreContract(t, store)
}

func TestMemoryStore_Isolation(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()
	doc := ports.ContractDocument()
	require.NoError(t, store.Save(ctx, "doc", doc))

	doc.Markers[0].Changes[0].Value = "mutated after save"
	loaded, err := store.Load(ctx, "doc")
	require.NoError(t, err)
	assert.Equal(t, "10", loaded.Markers[0].Changes[0].Value)

	loaded.Entities[0].Name = "mutated after load"
	again, _ := store.Load(ctx, "doc")
	assert.Equal(t, "Aria", again.Entities[0].Name)
}
