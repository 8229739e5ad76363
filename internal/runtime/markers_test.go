package runtime_test

import (
	"context"
	"testing"

	"github.com/aretw0/questscribe/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func markerIDs(ms []domain.Marker) []string {
	out := make([]string, len(ms))
	for i, m := range ms {
		out[i] = m.ID
	}
	return out
}

func TestInsertMarker_Defaults(t *testing.T) {
	e := newTestEngine()
	ctx := context.Background()
	hero, err := e.CreateEntity(ctx, "Hero", "#112233")
	require.NoError(t, err)

	m := mustMarker(t, e, hero.ID, -4, domain.Set("hp", "1"))
	assert.Equal(t, 0, m.Position, "negative positions clamp to 0")
	assert.Equal(t, domain.DefaultMarkerIcon, m.Visual.Icon)
	assert.Equal(t, "#112233", m.Visual.Color)
	assert.Equal(t, fixedNow.Unix(), m.CreatedAt)
	assert.Equal(t, fixedNow.Unix(), m.ModifiedAt)
}

func TestInsertMarker_RejectsMalformedChange(t *testing.T) {
	e := newTestEngine()
	hero := mustEntity(t, e, "Hero")
	_, err := e.InsertMarker(context.Background(), domain.MarkerInput{
		EntityID: hero.ID,
		Changes:  []domain.ChangeRecord{domain.Set("ok", "1"), {FieldName: "bad", ChangeType: "bogus"}},
	})
	assert.ErrorIs(t, err, domain.ErrInvalidFormat)
	assert.Empty(t, e.ListMarkers(context.Background()), "nothing is stored on failure")

	got, _ := e.GetEntity(context.Background(), hero.ID)
	assert.Empty(t, got.Fields)
}

func TestInsertMarker_UnknownEntityIsStored(t *testing.T) {
	e := newTestEngine()
	m := mustMarker(t, e, "ghost", 3, domain.Set("x", "1"))

	got, err := e.GetMarker(context.Background(), m.ID)
	require.NoError(t, err)
	assert.Equal(t, "ghost", got.EntityID)
	assert.Equal(t, domain.DefaultEntityColor, got.Visual.Color)
}

func TestInsertMarker_RegistersFields(t *testing.T) {
	e := newTestEngine()
	hero := mustEntity(t, e, "Hero")
	mustMarker(t, e, hero.ID, 1, domain.Set("stats.HP", "1"), domain.Set("name", "x"))
	mustMarker(t, e, hero.ID, 2, domain.Add("stats.HP", "1"), domain.Set("gold", "3"))

	got, err := e.GetEntity(context.Background(), hero.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"stats.HP", "name", "gold"}, got.Fields)
	assert.Equal(t, domain.FieldMetadata{CreatedAt: fixedNow.Unix(), LastModified: fixedNow.Unix()}, got.FieldMetadata["gold"])
}

func TestMarkerQueries(t *testing.T) {
	e := newTestEngine()
	ctx := context.Background()
	a := mustEntity(t, e, "A")
	b := mustEntity(t, e, "B")
	m1 := mustMarker(t, e, a.ID, 10)
	m2 := mustMarker(t, e, b.ID, 5)
	m3 := mustMarker(t, e, a.ID, 5)
	m4 := mustMarker(t, e, a.ID, 0)

	assert.Equal(t, []string{m4.ID, m2.ID, m3.ID, m1.ID}, markerIDs(e.ListMarkers(ctx)))
	assert.Equal(t, []string{m2.ID, m3.ID}, markerIDs(e.MarkersAt(ctx, 5)))
	assert.Equal(t, []string{m4.ID, m3.ID, m1.ID}, markerIDs(e.MarkersFor(ctx, a.ID)))
	assert.Empty(t, e.MarkersAt(ctx, 7))
}

func TestUpdateMarker(t *testing.T) {
	e := newTestEngine()
	ctx := context.Background()
	hero := mustEntity(t, e, "Hero")
	m := mustMarker(t, e, hero.ID, 1, domain.Set("a", "1"))

	pos := 9
	changes := []domain.ChangeRecord{domain.Set("b", "2")}
	desc := "moved"
	got, err := e.UpdateMarker(ctx, m.ID, domain.MarkerUpdate{Position: &pos, Changes: &changes, Description: &desc})
	require.NoError(t, err)
	assert.Equal(t, 9, got.Position)
	assert.Equal(t, changes, got.Changes)
	assert.Equal(t, "moved", got.Description)
	assert.Equal(t, m.Visual, got.Visual, "omitted fields are unchanged")

	ent, _ := e.GetEntity(ctx, hero.ID)
	assert.Equal(t, []string{"a", "b"}, ent.Fields)

	_, err = e.UpdateMarker(ctx, "missing", domain.MarkerUpdate{})
	assert.ErrorIs(t, err, domain.ErrMarkerNotFound)

	bad := []domain.ChangeRecord{{FieldName: ""}}
	_, err = e.UpdateMarker(ctx, m.ID, domain.MarkerUpdate{Changes: &bad})
	assert.ErrorIs(t, err, domain.ErrInvalidFormat)
}

func TestUpdateMarker_MoveTakesOwnerColor(t *testing.T) {
	e := newTestEngine()
	ctx := context.Background()
	first, err := e.CreateEntity(ctx, "First", "#111111")
	require.NoError(t, err)
	second, err := e.CreateEntity(ctx, "Second", "#222222")
	require.NoError(t, err)
	m := mustMarker(t, e, first.ID, 1, domain.Set("a", "1"))
	require.Equal(t, "#111111", m.Visual.Color)

	got, err := e.UpdateMarker(ctx, m.ID, domain.MarkerUpdate{EntityID: &second.ID})
	require.NoError(t, err)
	assert.Equal(t, second.ID, got.EntityID)
	assert.Equal(t, "#222222", got.Visual.Color)

	visual := domain.MarkerVisual{Icon: "star", Color: "#333333"}
	got, err = e.UpdateMarker(ctx, m.ID, domain.MarkerUpdate{EntityID: &first.ID, Visual: &visual})
	require.NoError(t, err)
	assert.Equal(t, "#333333", got.Visual.Color, "explicit visual wins")
}

func TestUpdateMarker_KeepsTieBreakRank(t *testing.T) {
	e := newTestEngine()
	ctx := context.Background()
	hero := mustEntity(t, e, "Hero")
	first := mustMarker(t, e, hero.ID, 5, domain.Set("x", "first"))
	second := mustMarker(t, e, hero.ID, 5, domain.Set("x", "second"))

	desc := "edited"
	_, err := e.UpdateMarker(ctx, first.ID, domain.MarkerUpdate{Description: &desc})
	require.NoError(t, err)

	assert.Equal(t, []string{first.ID, second.ID}, markerIDs(e.MarkersAt(ctx, 5)))
	x, _ := valueAt(t, e, hero.ID, 5, "x")
	assert.Equal(t, domain.Text("second"), x)
}

func TestDeleteMarker(t *testing.T) {
	e := newTestEngine()
	ctx := context.Background()
	hero := mustEntity(t, e, "Hero")
	m := mustMarker(t, e, hero.ID, 1, domain.Set("a", "1"))

	require.NoError(t, e.DeleteMarker(ctx, m.ID))
	assert.ErrorIs(t, e.DeleteMarker(ctx, m.ID), domain.ErrMarkerNotFound)

	ent, _ := e.GetEntity(ctx, hero.ID)
	assert.Equal(t, []string{"a"}, ent.Fields, "registry is not pruned by marker deletion")
}

func TestRepositionMarkers(t *testing.T) {
	e := newTestEngine()
	ctx := context.Background()
	hero := mustEntity(t, e, "Hero")
	m1 := mustMarker(t, e, hero.ID, 1)
	m2 := mustMarker(t, e, hero.ID, 2)

	moved := e.RepositionMarkers(ctx, []domain.Reposition{
		{MarkerID: m1.ID, Position: 20},
		{MarkerID: "unknown", Position: 3},
		{MarkerID: m2.ID, Position: -5},
	})
	assert.Equal(t, 2, moved)

	got1, _ := e.GetMarker(ctx, m1.ID)
	got2, _ := e.GetMarker(ctx, m2.ID)
	assert.Equal(t, 20, got1.Position)
	assert.Equal(t, 0, got2.Position)
}

func TestGetMarker_ReturnsCopy(t *testing.T) {
	e := newTestEngine()
	ctx := context.Background()
	hero := mustEntity(t, e, "Hero")
	m := mustMarker(t, e, hero.ID, 1, domain.Set("a", "1"))

	got, _ := e.GetMarker(ctx, m.ID)
	got.Changes[0].Value = "tampered"

	again, _ := e.GetMarker(ctx, m.ID)
	assert.Equal(t, "1", again.Changes[0].Value)
}
