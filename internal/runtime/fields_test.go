package runtime_test

import (
	"context"
	"testing"

	"github.com/aretw0/questscribe/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeleteFieldCompletely(t *testing.T) {
	e := newTestEngine()
	ctx := context.Background()
	hero := mustEntity(t, e, "Hero")
	other := mustEntity(t, e, "Other")
	m1 := mustMarker(t, e, hero.ID, 1, domain.Set("stats.HP", "10"), domain.Set("gold", "1"))
	m2 := mustMarker(t, e, hero.ID, 2, domain.Add("stats.HP", "5"), domain.Remove("stats.HP"))
	m3 := mustMarker(t, e, other.ID, 3, domain.Set("stats.HP", "7"))

	touched, err := e.DeleteFieldCompletely(ctx, hero.ID, "stats.HP")
	require.NoError(t, err)
	assert.Equal(t, 2, touched)

	got1, _ := e.GetMarker(ctx, m1.ID)
	assert.Equal(t, []domain.ChangeRecord{domain.Set("gold", "1")}, got1.Changes)
	got2, _ := e.GetMarker(ctx, m2.ID)
	assert.Empty(t, got2.Changes, "the marker stays with no changes")
	got3, _ := e.GetMarker(ctx, m3.ID)
	assert.Len(t, got3.Changes, 1, "other entities are untouched")

	ent, _ := e.GetEntity(ctx, hero.ID)
	assert.Equal(t, []string{"gold"}, ent.Fields)
	assert.NotContains(t, ent.FieldMetadata, "stats.HP")

	_, ok := valueAt(t, e, hero.ID, 100, "stats.HP")
	assert.False(t, ok)

	_, err = e.DeleteFieldCompletely(ctx, "ghost", "x")
	assert.ErrorIs(t, err, domain.ErrEntityNotFound)
}

func TestDeleteFieldCompletely_CoversNestedPaths(t *testing.T) {
	e := newTestEngine()
	ctx := context.Background()
	hero := mustEntity(t, e, "Hero")
	mustMarker(t, e, hero.ID, 1, domain.Set("Level", "3"), domain.Set("Levels", "x"))
	mustMarker(t, e, hero.ID, 2, domain.Add("Level.bonus", "1"))

	touched, err := e.DeleteFieldCompletely(ctx, hero.ID, "Level")
	require.NoError(t, err)
	assert.Equal(t, 2, touched)

	tree, err := e.Reconstruct(ctx, hero.ID, 10)
	require.NoError(t, err)
	_, ok := tree.Get("Level")
	assert.False(t, ok, "purged field never replays")
	levels, ok := tree.Get("Levels")
	require.True(t, ok, "sibling with a shared prefix survives")
	assert.Equal(t, domain.Text("x"), levels)

	ent, _ := e.GetEntity(ctx, hero.ID)
	assert.Equal(t, []string{"Levels"}, ent.Fields)
	assert.NotContains(t, ent.FieldMetadata, "Level.bonus")
}

func TestRenameField(t *testing.T) {
	e := newTestEngine()
	ctx := context.Background()
	hero := mustEntity(t, e, "Hero")
	mustMarker(t, e, hero.ID, 1, domain.Set("hp", "10"), domain.Set("mp", "3"))
	mustMarker(t, e, hero.ID, 2, domain.Add("hp", "5"))

	touched, err := e.RenameField(ctx, hero.ID, "hp", "stats.HP")
	require.NoError(t, err)
	assert.Equal(t, 2, touched)

	ent, _ := e.GetEntity(ctx, hero.ID)
	assert.Equal(t, []string{"stats.HP", "mp"}, ent.Fields, "renamed field keeps its slot")
	assert.NotContains(t, ent.FieldMetadata, "hp")

	hp, _ := valueAt(t, e, hero.ID, 2, "stats.HP")
	assert.Equal(t, domain.Number(15), hp)
	_, ok := valueAt(t, e, hero.ID, 2, "hp")
	assert.False(t, ok)
}

func TestRenameField_MergesIntoExisting(t *testing.T) {
	e := newTestEngine()
	ctx := context.Background()
	hero := mustEntity(t, e, "Hero")
	mustMarker(t, e, hero.ID, 1, domain.Set("a", "1"), domain.Set("b", "2"))

	_, err := e.RenameField(ctx, hero.ID, "a", "b")
	require.NoError(t, err)

	ent, _ := e.GetEntity(ctx, hero.ID)
	assert.Equal(t, []string{"b"}, ent.Fields)

	b, _ := valueAt(t, e, hero.ID, 1, "b")
	assert.Equal(t, domain.Number(2), b, "change order is preserved, so the later record still wins")
}

func TestRenameField_Validation(t *testing.T) {
	e := newTestEngine()
	ctx := context.Background()
	hero := mustEntity(t, e, "Hero")

	_, err := e.RenameField(ctx, hero.ID, "", "x")
	assert.ErrorIs(t, err, domain.ErrInvalidFormat)

	n, err := e.RenameField(ctx, hero.ID, "x", "x")
	require.NoError(t, err)
	assert.Zero(t, n)

	_, err = e.RenameField(ctx, "ghost", "a", "b")
	assert.ErrorIs(t, err, domain.ErrEntityNotFound)
}
