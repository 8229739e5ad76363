package runtime

import (
	"context"
	"fmt"
	"sort"

	"github.com/aretw0/questscribe/pkg/domain"
)

// indexed pairs a marker with its insertion sequence, the first tie-breaker for
// markers sharing a position.
type indexed struct {
	marker domain.Marker
	seq    uint64
}

func less(a, b *indexed) bool {
	if a.marker.Position != b.marker.Position {
		return a.marker.Position < b.marker.Position
	}
	if a.seq != b.seq {
		return a.seq < b.seq
	}
	return a.marker.ID < b.marker.ID
}

// selectLocked returns copies of the markers accepted by keep, in replay order.
// Caller holds markersMu.
func (e *Engine) selectLocked(keep func(*domain.Marker) bool) []domain.Marker {
	hits := make([]*indexed, 0, len(e.markers))
	for _, ix := range e.markers {
		if keep == nil || keep(&ix.marker) {
			hits = append(hits, ix)
		}
	}
	sort.Slice(hits, func(i, j int) bool { return less(hits[i], hits[j]) })
	out := make([]domain.Marker, len(hits))
	for i, ix := range hits {
		out[i] = ix.marker.Clone()
	}
	return out
}

func (e *Engine) putLocked(m domain.Marker) {
	e.seq++
	e.markers[m.ID] = &indexed{marker: m, seq: e.seq}
}

func validateChanges(changes []domain.ChangeRecord) error {
	for _, c := range changes {
		if err := c.Validate(); err != nil {
			return err
		}
	}
	return nil
}

func clampPosition(p int) int {
	if p < 0 {
		return 0
	}
	return p
}

// InsertMarker stores a new marker and registers its field paths on the owning entity.
// A marker whose entity does not exist is still stored; the registry update is skipped.
func (e *Engine) InsertMarker(ctx context.Context, in domain.MarkerInput) (domain.Marker, error) {
	if err := validateChanges(in.Changes); err != nil {
		return domain.Marker{}, err
	}
	now := e.now()
	m := domain.Marker{
		ID:          e.newID(),
		Position:    clampPosition(in.Position),
		EntityID:    in.EntityID,
		Changes:     domain.CloneChanges(in.Changes),
		Visual:      in.Visual,
		Description: in.Description,
		CreatedAt:   now,
		ModifiedAt:  now,
	}
	if m.Changes == nil {
		m.Changes = []domain.ChangeRecord{}
	}
	if m.Visual.Icon == "" {
		m.Visual.Icon = domain.DefaultMarkerIcon
	}

	e.entitiesMu.Lock()
	ent, ok := e.entities[in.EntityID]
	if ok {
		registerFieldsLocked(ent, m.Changes, now)
		if m.Visual.Color == "" {
			m.Visual.Color = ent.Color
		}
	} else {
		e.logger.WarnContext(ctx, "marker references unknown entity", "entity_id", in.EntityID, "marker_id", m.ID)
	}
	if m.Visual.Color == "" {
		m.Visual.Color = domain.DefaultEntityColor
	}
	e.markersMu.Lock()
	e.putLocked(m)
	e.markersMu.Unlock()
	e.entitiesMu.Unlock()

	e.logger.DebugContext(ctx, "marker inserted", "marker_id", m.ID, "entity_id", m.EntityID, "position", m.Position)
	e.emitMutation(ctx, domain.MutationMarkerInserted, m.EntityID, m.ID, 1)
	return m.Clone(), nil
}

// UpdateMarker applies a partial update. modified_at is refreshed even when nothing changed.
// The insertion sequence is kept, so a marker keeps its rank among same-position peers.
func (e *Engine) UpdateMarker(ctx context.Context, id string, upd domain.MarkerUpdate) (domain.Marker, error) {
	if upd.Changes != nil {
		if err := validateChanges(*upd.Changes); err != nil {
			return domain.Marker{}, err
		}
	}
	now := e.now()

	e.entitiesMu.Lock()
	e.markersMu.Lock()
	ix, ok := e.markers[id]
	if !ok {
		e.markersMu.Unlock()
		e.entitiesMu.Unlock()
		return domain.Marker{}, fmt.Errorf("%w: %s", domain.ErrMarkerNotFound, id)
	}
	m := &ix.marker
	if upd.Position != nil {
		m.Position = clampPosition(*upd.Position)
	}
	if upd.EntityID != nil {
		m.EntityID = *upd.EntityID
	}
	if upd.Changes != nil {
		m.Changes = domain.CloneChanges(*upd.Changes)
		if m.Changes == nil {
			m.Changes = []domain.ChangeRecord{}
		}
	}
	if upd.Visual != nil {
		m.Visual = *upd.Visual
	}
	if upd.Description != nil {
		m.Description = *upd.Description
	}
	m.ModifiedAt = now
	if upd.Changes != nil || upd.EntityID != nil {
		if ent, ok := e.entities[m.EntityID]; ok {
			registerFieldsLocked(ent, m.Changes, now)
			// A marker moved to another entity takes its new owner's color.
			if upd.EntityID != nil && upd.Visual == nil {
				m.Visual.Color = ent.Color
			}
		}
	}
	out := m.Clone()
	e.markersMu.Unlock()
	e.entitiesMu.Unlock()

	e.emitMutation(ctx, domain.MutationMarkerUpdated, out.EntityID, id, 1)
	return out, nil
}

// DeleteMarker removes one marker. The entity field registry is left untouched.
func (e *Engine) DeleteMarker(ctx context.Context, id string) error {
	e.markersMu.Lock()
	ix, ok := e.markers[id]
	if !ok {
		e.markersMu.Unlock()
		return fmt.Errorf("%w: %s", domain.ErrMarkerNotFound, id)
	}
	entityID := ix.marker.EntityID
	delete(e.markers, id)
	e.markersMu.Unlock()

	e.emitMutation(ctx, domain.MutationMarkerDeleted, entityID, id, 1)
	return nil
}

// RepositionMarkers applies each move independently. Unknown ids are skipped and
// negative positions clamp to 0. It returns the number of markers moved.
func (e *Engine) RepositionMarkers(ctx context.Context, moves []domain.Reposition) int {
	now := e.now()
	moved := 0
	e.markersMu.Lock()
	for _, mv := range moves {
		ix, ok := e.markers[mv.MarkerID]
		if !ok {
			continue
		}
		ix.marker.Position = clampPosition(mv.Position)
		ix.marker.ModifiedAt = now
		moved++
	}
	e.markersMu.Unlock()

	if moved > 0 {
		e.emitMutation(ctx, domain.MutationMarkersMoved, "", "", moved)
	}
	return moved
}

// GetMarker returns a copy of the marker.
func (e *Engine) GetMarker(_ context.Context, id string) (domain.Marker, error) {
	e.markersMu.RLock()
	defer e.markersMu.RUnlock()
	ix, ok := e.markers[id]
	if !ok {
		return domain.Marker{}, fmt.Errorf("%w: %s", domain.ErrMarkerNotFound, id)
	}
	return ix.marker.Clone(), nil
}

// ListMarkers returns every marker in replay order.
func (e *Engine) ListMarkers(_ context.Context) []domain.Marker {
	e.markersMu.RLock()
	defer e.markersMu.RUnlock()
	return e.selectLocked(nil)
}

// MarkersAt returns the markers placed exactly at position.
func (e *Engine) MarkersAt(_ context.Context, position int) []domain.Marker {
	e.markersMu.RLock()
	defer e.markersMu.RUnlock()
	return e.selectLocked(func(m *domain.Marker) bool { return m.Position == position })
}

// MarkersFor returns the markers owned by entityID in replay order.
func (e *Engine) MarkersFor(_ context.Context, entityID string) []domain.Marker {
	e.markersMu.RLock()
	defer e.markersMu.RUnlock()
	return e.selectLocked(func(m *domain.Marker) bool { return m.EntityID == entityID })
}
