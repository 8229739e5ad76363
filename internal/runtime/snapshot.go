package runtime

import (
	"context"

	"github.com/aretw0/questscribe/pkg/domain"
)

// Snapshot captures a consistent copy of the working set: entities in creation order
// and markers in replay order.
func (e *Engine) Snapshot() *domain.Document {
	e.entitiesMu.RLock()
	e.markersMu.RLock()
	defer e.markersMu.RUnlock()
	defer e.entitiesMu.RUnlock()

	doc := &domain.Document{
		Content:  e.content,
		Entities: make([]domain.Entity, 0, len(e.order)),
		Markers:  e.selectLocked(nil),
	}
	for _, id := range e.order {
		doc.Entities = append(doc.Entities, e.entities[id].Clone())
	}
	return doc
}

// Restore replaces the whole working set with doc. Nothing is merged. Markers receive
// insertion sequences in document order, so a snapshot written by Snapshot replays
// identically after a round trip.
func (e *Engine) Restore(ctx context.Context, doc *domain.Document) error {
	if err := doc.Validate(); err != nil {
		return err
	}
	entities := make(map[string]*domain.Entity, len(doc.Entities))
	order := make([]string, 0, len(doc.Entities))
	for _, src := range doc.Entities {
		ent := src.Clone()
		if ent.Color == "" {
			ent.Color = domain.DefaultEntityColor
		}
		if ent.Fields == nil {
			ent.Fields = []string{}
		}
		if ent.FieldMetadata == nil {
			ent.FieldMetadata = make(map[string]domain.FieldMetadata)
		}
		entities[ent.ID] = &ent
		order = append(order, ent.ID)
	}

	e.entitiesMu.Lock()
	e.markersMu.Lock()
	e.entities = entities
	e.order = order
	e.markers = make(map[string]*indexed, len(doc.Markers))
	e.seq = 0
	for _, m := range doc.Markers {
		c := m.Clone()
		if c.Changes == nil {
			c.Changes = []domain.ChangeRecord{}
		}
		e.putLocked(c)
	}
	e.content = doc.Content
	e.hasContent = true
	e.markersMu.Unlock()
	e.entitiesMu.Unlock()

	e.logger.InfoContext(ctx, "working set restored", "entities", len(order), "markers", len(doc.Markers))
	e.emitMutation(ctx, domain.MutationRestored, "", "", len(doc.Markers))
	return nil
}
