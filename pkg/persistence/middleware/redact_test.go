package middleware_test

import (
	"context"
	"testing"

	"github.com/aretw0/questscribe/pkg/adapters/memory"
	"github.com/aretw0/questscribe/pkg/domain"
	"github.com/aretw0/questscribe/pkg/persistence/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedactionMiddleware_MasksMatchingFields(t *testing.T) {
	underlying := memory.NewStore()
	store := middleware.NewRedactionMiddleware([]string{`(?i)password`, `^secrets\.`})(underlying)
	ctx := context.Background()

	doc := &domain.Document{
		Entities: []domain.Entity{{ID: "e1", Name: "Spy"}},
		Markers: []domain.Marker{{
			ID:       "m1",
			EntityID: "e1",
			Changes: []domain.ChangeRecord{
				domain.Set("Password", "hunter2"),
				domain.Set("secrets.vault", "42"),
				domain.Set("stats.HP", "10"),
				domain.Remove("secrets.old"),
			},
		}},
	}
	require.NoError(t, store.Save(ctx, "doc", doc))

	loaded, err := store.Load(ctx, "doc")
	require.NoError(t, err)
	changes := loaded.Markers[0].Changes
	assert.Equal(t, middleware.RedactedValue, changes[0].Value)
	assert.Equal(t, middleware.RedactedValue, changes[1].Value)
	assert.Equal(t, "10", changes[2].Value)
	assert.Equal(t, "", changes[3].Value, "removals carry no payload to mask")

	assert.Equal(t, "hunter2", doc.Markers[0].Changes[0].Value, "the caller's document is untouched")
}
