package runtime_test

import (
	"context"
	"testing"

	"github.com/aretw0/questscribe/internal/runtime"
	"github.com/aretw0/questscribe/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateEntity(t *testing.T) {
	e := newTestEngine()
	ctx := context.Background()

	hero, err := e.CreateEntity(ctx, "Hero", "")
	require.NoError(t, err)
	assert.Equal(t, "id-1", hero.ID)
	assert.Equal(t, domain.DefaultEntityColor, hero.Color)
	assert.Empty(t, hero.Fields)

	villain, err := e.CreateEntity(ctx, "Villain", "#000000")
	require.NoError(t, err)
	assert.Equal(t, "#000000", villain.Color)

	list := e.ListEntities(ctx)
	require.Len(t, list, 2)
	assert.Equal(t, "Hero", list[0].Name, "creation order")
	assert.Equal(t, "Villain", list[1].Name)
}

func TestUpdateEntity_RecolorCascade(t *testing.T) {
	e := newTestEngine()
	ctx := context.Background()
	hero := mustEntity(t, e, "Hero")
	other := mustEntity(t, e, "Other")
	m1 := mustMarker(t, e, hero.ID, 1)
	m2 := mustMarker(t, e, hero.ID, 2)
	m3 := mustMarker(t, e, other.ID, 3)

	color := "#FF0000"
	name := "Renamed"
	updated, err := e.UpdateEntity(ctx, hero.ID, domain.EntityUpdate{Name: &name, Color: &color})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", updated.Name)
	assert.Equal(t, color, updated.Color)

	for _, id := range []string{m1.ID, m2.ID} {
		m, _ := e.GetMarker(ctx, id)
		assert.Equal(t, color, m.Visual.Color)
	}
	untouched, _ := e.GetMarker(ctx, m3.ID)
	assert.Equal(t, domain.DefaultEntityColor, untouched.Visual.Color)

	_, err = e.UpdateEntity(ctx, "ghost", domain.EntityUpdate{Name: &name})
	assert.ErrorIs(t, err, domain.ErrEntityNotFound)
}

func TestDeleteEntity_Cascade(t *testing.T) {
	e := newTestEngine()
	ctx := context.Background()
	hero := mustEntity(t, e, "Hero")
	other := mustEntity(t, e, "Other")
	mustMarker(t, e, hero.ID, 1)
	mustMarker(t, e, hero.ID, 2)
	keep := mustMarker(t, e, other.ID, 3)

	removed, err := e.DeleteEntity(ctx, hero.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, removed)
	assert.Equal(t, []string{keep.ID}, markerIDs(e.ListMarkers(ctx)))

	_, err = e.GetEntity(ctx, hero.ID)
	assert.ErrorIs(t, err, domain.ErrEntityNotFound)
	_, err = e.DeleteEntity(ctx, hero.ID)
	assert.ErrorIs(t, err, domain.ErrEntityNotFound)
	assert.Len(t, e.ListEntities(ctx), 1)
}

func TestMutationHooks(t *testing.T) {
	var kinds []domain.MutationKind
	e := newTestEngine(runtime.WithLifecycleHooks(domain.LifecycleHooks{
		OnMutation: func(_ context.Context, ev *domain.MutationEvent) {
			assert.Equal(t, domain.EventMutation, ev.Type)
			kinds = append(kinds, ev.Kind)
		},
	}))
	ctx := context.Background()
	hero := mustEntity(t, e, "Hero")
	m := mustMarker(t, e, hero.ID, 1, domain.Set("a", "1"))
	require.NoError(t, e.DeleteMarker(ctx, m.ID))
	_, err := e.DeleteEntity(ctx, hero.ID)
	require.NoError(t, err)

	assert.Equal(t, []domain.MutationKind{
		domain.MutationEntityCreated,
		domain.MutationMarkerInserted,
		domain.MutationMarkerDeleted,
		domain.MutationEntityDeleted,
	}, kinds)
}
