package runtime

import (
	"context"
	"fmt"

	"github.com/aretw0/questscribe/pkg/domain"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// DuplicateEntity copies an entity under a new name and bakes the source state as of
// position into a single SET-only marker on the copy, so the copy starts exactly where
// the source stood. When the source has no leaf values at position no marker is created.
// Empty objects in the source state are not carried over.
func (e *Engine) DuplicateEntity(ctx context.Context, id, newName string, position int) (domain.Entity, *domain.Marker, error) {
	ctx, span := e.tracer.Start(ctx, "runtime.Engine.DuplicateEntity")
	defer span.End()
	span.SetAttributes(attribute.String("entity_id", id), attribute.Int("position", position))

	position = clampPosition(position)
	now := e.now()

	e.entitiesMu.Lock()
	src, ok := e.entities[id]
	if !ok {
		e.entitiesMu.Unlock()
		err := fmt.Errorf("%w: %s", domain.ErrEntityNotFound, id)
		span.RecordError(err)
		span.SetStatus(codes.Error, "entity not found")
		return domain.Entity{}, nil, err
	}

	copied := src.Clone()
	copied.ID = e.newID()
	copied.Name = newName
	if copied.Fields == nil {
		copied.Fields = []string{}
	}
	if copied.FieldMetadata == nil {
		copied.FieldMetadata = make(map[string]domain.FieldMetadata)
	}

	e.markersMu.Lock()
	tree, _, _, _ := e.reconstructLocked(id, position)
	var baked *domain.Marker
	if leaves := tree.Flatten(); len(leaves) > 0 {
		changes := make([]domain.ChangeRecord, len(leaves))
		for i, leaf := range leaves {
			changes[i] = domain.Set(leaf.Path, leaf.Value.String())
		}
		m := domain.Marker{
			ID:          e.newID(),
			Position:    position,
			EntityID:    copied.ID,
			Changes:     changes,
			Visual:      domain.MarkerVisual{Icon: domain.DuplicateMarkerIcon, Color: copied.Color},
			Description: fmt.Sprintf("Duplicated from \"%s\" at position %d", src.Name, position),
			CreatedAt:   now,
			ModifiedAt:  now,
		}
		e.putLocked(m)
		out := m.Clone()
		baked = &out
	}
	e.markersMu.Unlock()
	e.addEntityLocked(&copied)
	out := copied.Clone()
	e.entitiesMu.Unlock()

	markerID := ""
	if baked != nil {
		markerID = baked.ID
		span.SetAttributes(attribute.Int("baked_changes", len(baked.Changes)))
	}
	e.logger.InfoContext(ctx, "entity duplicated", "entity_id", id, "copy_id", out.ID, "position", position, "marker_id", markerID)
	e.emitMutation(ctx, domain.MutationEntityDuplicated, out.ID, markerID, 1)
	return out, baked, nil
}
