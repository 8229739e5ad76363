package runtime

import (
	"context"
	"fmt"

	"github.com/aretw0/questscribe/pkg/domain"
)

// CreateEntity registers a new entity. An empty color falls back to the default.
func (e *Engine) CreateEntity(ctx context.Context, name, color string) (domain.Entity, error) {
	if color == "" {
		color = domain.DefaultEntityColor
	}
	ent := &domain.Entity{
		ID:            e.newID(),
		Name:          name,
		Color:         color,
		Fields:        []string{},
		FieldMetadata: make(map[string]domain.FieldMetadata),
	}

	e.entitiesMu.Lock()
	e.addEntityLocked(ent)
	out := ent.Clone()
	e.entitiesMu.Unlock()

	e.logger.DebugContext(ctx, "entity created", "entity_id", out.ID, "name", name)
	e.emitMutation(ctx, domain.MutationEntityCreated, out.ID, "", 0)
	return out, nil
}

func (e *Engine) addEntityLocked(ent *domain.Entity) {
	e.entities[ent.ID] = ent
	e.order = append(e.order, ent.ID)
}

// GetEntity returns a copy of the entity.
func (e *Engine) GetEntity(_ context.Context, id string) (domain.Entity, error) {
	e.entitiesMu.RLock()
	defer e.entitiesMu.RUnlock()
	ent, ok := e.entities[id]
	if !ok {
		return domain.Entity{}, fmt.Errorf("%w: %s", domain.ErrEntityNotFound, id)
	}
	return ent.Clone(), nil
}

// ListEntities returns every entity in creation order.
func (e *Engine) ListEntities(_ context.Context) []domain.Entity {
	e.entitiesMu.RLock()
	defer e.entitiesMu.RUnlock()
	out := make([]domain.Entity, 0, len(e.order))
	for _, id := range e.order {
		out = append(out, e.entities[id].Clone())
	}
	return out
}

// UpdateEntity renames and/or recolors an entity. A color change is cascaded to the
// visual color of every marker the entity owns.
func (e *Engine) UpdateEntity(ctx context.Context, id string, upd domain.EntityUpdate) (domain.Entity, error) {
	e.entitiesMu.Lock()
	ent, ok := e.entities[id]
	if !ok {
		e.entitiesMu.Unlock()
		return domain.Entity{}, fmt.Errorf("%w: %s", domain.ErrEntityNotFound, id)
	}
	if upd.Name != nil {
		ent.Name = *upd.Name
	}
	recolored := 0
	if upd.Color != nil && *upd.Color != "" {
		ent.Color = *upd.Color
		e.markersMu.Lock()
		now := e.now()
		for _, ix := range e.markers {
			if ix.marker.EntityID == id {
				ix.marker.Visual.Color = ent.Color
				ix.marker.ModifiedAt = now
				recolored++
			}
		}
		e.markersMu.Unlock()
	}
	out := ent.Clone()
	e.entitiesMu.Unlock()

	e.logger.DebugContext(ctx, "entity updated", "entity_id", id, "recolored_markers", recolored)
	e.emitMutation(ctx, domain.MutationEntityUpdated, id, "", recolored)
	return out, nil
}

// DeleteEntity removes the entity and every marker it owns. It returns the number of
// markers removed by the cascade.
func (e *Engine) DeleteEntity(ctx context.Context, id string) (int, error) {
	e.entitiesMu.Lock()
	if _, ok := e.entities[id]; !ok {
		e.entitiesMu.Unlock()
		return 0, fmt.Errorf("%w: %s", domain.ErrEntityNotFound, id)
	}
	delete(e.entities, id)
	for i, oid := range e.order {
		if oid == id {
			e.order = append(e.order[:i], e.order[i+1:]...)
			break
		}
	}
	e.markersMu.Lock()
	removed := 0
	for mid, ix := range e.markers {
		if ix.marker.EntityID == id {
			delete(e.markers, mid)
			removed++
		}
	}
	e.markersMu.Unlock()
	e.entitiesMu.Unlock()

	e.logger.InfoContext(ctx, "entity deleted", "entity_id", id, "markers_removed", removed)
	e.emitMutation(ctx, domain.MutationEntityDeleted, id, "", removed)
	return removed, nil
}

// registerFieldsLocked records the paths touched by changes in the entity registry.
// New paths are appended; known ones get a fresh last_modified. Caller holds entitiesMu.
func registerFieldsLocked(ent *domain.Entity, changes []domain.ChangeRecord, now int64) {
	if ent.FieldMetadata == nil {
		ent.FieldMetadata = make(map[string]domain.FieldMetadata)
	}
	for _, c := range changes {
		if !ent.HasField(c.FieldName) {
			ent.Fields = append(ent.Fields, c.FieldName)
			ent.FieldMetadata[c.FieldName] = domain.FieldMetadata{CreatedAt: now, LastModified: now}
			continue
		}
		meta := ent.FieldMetadata[c.FieldName]
		if meta.CreatedAt == 0 {
			meta.CreatedAt = now
		}
		meta.LastModified = now
		ent.FieldMetadata[c.FieldName] = meta
	}
}
