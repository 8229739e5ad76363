package ports

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/aretw0/questscribe/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ContractDocument returns the fixture document used by RunDocumentStoreContract.
// It exercises nested paths, every change type, shared positions and unicode text.
func ContractDocument() *domain.Document {
	return &domain.Document{
		Content: "Chapter 1\n\nAria draws her sword. ⚔️",
		Entities: []domain.Entity{
			{
				ID:     "hero",
				Name:   "Aria",
				Color:  "#FFD700",
				Fields: []string{"stats.HP", "weapon", "alive"},
				FieldMetadata: map[string]domain.FieldMetadata{
					"stats.HP": {CreatedAt: 100, LastModified: 200},
					"weapon":   {CreatedAt: 100, LastModified: 100},
					"alive":    {CreatedAt: 150, LastModified: 150},
				},
			},
			{ID: "villain", Name: "Mor", Color: "#000000", Fields: []string{}, FieldMetadata: map[string]domain.FieldMetadata{}},
		},
		Markers: []domain.Marker{
			{
				ID:       "m1",
				Position: 0,
				EntityID: "hero",
				Changes: []domain.ChangeRecord{
					domain.Set("stats.HP", "10"),
					domain.Set("weapon", "Sword"),
				},
				Visual:     domain.MarkerVisual{Icon: "⭐", Color: "#FFD700"},
				CreatedAt:  100,
				ModifiedAt: 100,
			},
			{
				ID:          "m2",
				Position:    12,
				EntityID:    "hero",
				Changes:     []domain.ChangeRecord{domain.Add("stats.HP", "-2.5"), domain.Remove("weapon")},
				Visual:      domain.MarkerVisual{Icon: "⭐", Color: "#FFD700"},
				Description: "ambush",
				CreatedAt:   150,
				ModifiedAt:  200,
			},
			{
				ID:         "m3",
				Position:   12,
				EntityID:   "hero",
				Changes:    []domain.ChangeRecord{domain.Set("alive", "true")},
				Visual:     domain.MarkerVisual{Icon: "📋", Color: "#FFD700"},
				CreatedAt:  150,
				ModifiedAt: 150,
			},
		},
	}
}

// RunDocumentStoreContract runs a suite of tests to verify that a DocumentStore
// implementation adheres to the defined interface contract.
func RunDocumentStoreContract(t *testing.T, store DocumentStore) {
	ctx := context.Background()
	name := "contract-" + time.Now().Format("20060102150405")

	t.Run("Save and Load", func(t *testing.T) {
		doc := ContractDocument()
		require.NoError(t, store.Save(ctx, name, doc), "Save should not return error")

		loaded, err := store.Load(ctx, name)
		require.NoError(t, err, "Load should not return error")
		assert.Equal(t, doc, loaded, "round trip must be lossless, including marker order")
	})

	t.Run("Save Overwrites", func(t *testing.T) {
		doc := ContractDocument()
		doc.Content = "rewritten"
		doc.Markers = doc.Markers[:1]
		require.NoError(t, store.Save(ctx, name, doc))

		loaded, err := store.Load(ctx, name)
		require.NoError(t, err)
		assert.Equal(t, "rewritten", loaded.Content)
		assert.Len(t, loaded.Markers, 1)
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+name)
		assert.ErrorIs(t, err, domain.ErrDocumentNotFound)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, name, ContractDocument()))
		require.NoError(t, store.Delete(ctx, name), "Delete should not return error")

		_, err := store.Load(ctx, name)
		assert.ErrorIs(t, err, domain.ErrDocumentNotFound, "Load after Delete should return ErrDocumentNotFound")
	})

	t.Run("List", func(t *testing.T) {
		id1 := name + "-1"
		id2 := name + "-2"
		require.NoError(t, store.Save(ctx, id1, ContractDocument()))
		require.NoError(t, store.Save(ctx, id2, ContractDocument()))
		defer func() {
			_ = store.Delete(ctx, id1)
			_ = store.Delete(ctx, id2)
		}()

		names, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, names, id1)
		assert.Contains(t, names, id2)
	})

	t.Run("Empty Document", func(t *testing.T) {
		empty := name + "-empty"
		doc := &domain.Document{Entities: []domain.Entity{}, Markers: []domain.Marker{}}
		require.NoError(t, store.Save(ctx, empty, doc))
		defer func() { _ = store.Delete(ctx, empty) }()

		loaded, err := store.Load(ctx, empty)
		require.NoError(t, err)
		assert.Empty(t, loaded.Content)
		assert.Empty(t, loaded.Entities, fmt.Sprintf("store %T", store))
		assert.Empty(t, loaded.Markers)
	})
}
