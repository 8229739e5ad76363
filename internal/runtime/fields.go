package runtime

import (
	"context"
	"fmt"
	"strings"

	"github.com/aretw0/questscribe/pkg/domain"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// DeleteFieldCompletely purges a field from an entity: the registry entries, their metadata
// and every change record targeting the field or a path below it (field "Level" also
// takes "Level.bonus"), so no replay can bring it back. History is rewritten; the purge
// cannot be undone. Returns the number of markers touched.
func (e *Engine) DeleteFieldCompletely(ctx context.Context, entityID, field string) (int, error) {
	ctx, span := e.tracer.Start(ctx, "runtime.Engine.DeleteFieldCompletely")
	defer span.End()
	span.SetAttributes(attribute.String("entity_id", entityID), attribute.String("field", field))

	e.entitiesMu.Lock()
	ent, ok := e.entities[entityID]
	if !ok {
		e.entitiesMu.Unlock()
		err := fmt.Errorf("%w: %s", domain.ErrEntityNotFound, entityID)
		span.RecordError(err)
		span.SetStatus(codes.Error, "entity not found")
		return 0, err
	}
	kept := ent.Fields[:0:0]
	for _, f := range ent.Fields {
		if within(f, field) {
			delete(ent.FieldMetadata, f)
			continue
		}
		kept = append(kept, f)
	}
	ent.Fields = kept
	delete(ent.FieldMetadata, field)

	now := e.now()
	touched := 0
	e.markersMu.Lock()
	for _, ix := range e.markers {
		if ix.marker.EntityID != entityID {
			continue
		}
		kept := ix.marker.Changes[:0:0]
		for _, c := range ix.marker.Changes {
			if !within(c.FieldName, field) {
				kept = append(kept, c)
			}
		}
		if len(kept) != len(ix.marker.Changes) {
			ix.marker.Changes = kept
			ix.marker.ModifiedAt = now
			touched++
		}
	}
	e.markersMu.Unlock()
	e.entitiesMu.Unlock()

	span.SetAttributes(attribute.Int("markers_touched", touched))
	e.logger.InfoContext(ctx, "field purged", "entity_id", entityID, "field", field, "markers_touched", touched)
	e.emitMutation(ctx, domain.MutationFieldPurged, entityID, "", touched)
	return touched, nil
}

// RenameField rewrites every change record of the entity targeting from so it targets to,
// and moves the registry entry. When to is already registered the two entries merge:
// to keeps its slot and the earliest created_at wins. Returns the number of markers touched.
func (e *Engine) RenameField(ctx context.Context, entityID, from, to string) (int, error) {
	ctx, span := e.tracer.Start(ctx, "runtime.Engine.RenameField")
	defer span.End()
	span.SetAttributes(
		attribute.String("entity_id", entityID),
		attribute.String("from", from),
		attribute.String("to", to),
	)

	if from == "" || to == "" {
		return 0, fmt.Errorf("%w: field names must not be empty", domain.ErrInvalidFormat)
	}
	if from == to {
		return 0, nil
	}

	e.entitiesMu.Lock()
	ent, ok := e.entities[entityID]
	if !ok {
		e.entitiesMu.Unlock()
		err := fmt.Errorf("%w: %s", domain.ErrEntityNotFound, entityID)
		span.RecordError(err)
		span.SetStatus(codes.Error, "entity not found")
		return 0, err
	}

	now := e.now()
	if ent.FieldMetadata == nil {
		ent.FieldMetadata = make(map[string]domain.FieldMetadata)
	}
	if ent.HasField(from) {
		src := ent.FieldMetadata[from]
		if ent.HasField(to) {
			dst := ent.FieldMetadata[to]
			if src.CreatedAt != 0 && (dst.CreatedAt == 0 || src.CreatedAt < dst.CreatedAt) {
				dst.CreatedAt = src.CreatedAt
			}
			dst.LastModified = now
			ent.FieldMetadata[to] = dst
			ent.Fields = without(ent.Fields, from)
		} else {
			for i, f := range ent.Fields {
				if f == from {
					ent.Fields[i] = to
				}
			}
			src.LastModified = now
			ent.FieldMetadata[to] = src
		}
		delete(ent.FieldMetadata, from)
	}

	touched := 0
	e.markersMu.Lock()
	for _, ix := range e.markers {
		if ix.marker.EntityID != entityID {
			continue
		}
		hit := false
		for i := range ix.marker.Changes {
			if ix.marker.Changes[i].FieldName == from {
				ix.marker.Changes[i].FieldName = to
				hit = true
			}
		}
		if hit {
			ix.marker.ModifiedAt = now
			touched++
		}
	}
	e.markersMu.Unlock()
	if touched > 0 && !ent.HasField(to) {
		ent.Fields = append(ent.Fields, to)
		ent.FieldMetadata[to] = domain.FieldMetadata{CreatedAt: now, LastModified: now}
	}
	e.entitiesMu.Unlock()

	e.logger.InfoContext(ctx, "field renamed", "entity_id", entityID, "from", from, "to", to, "markers_touched", touched)
	e.emitMutation(ctx, domain.MutationFieldRenamed, entityID, "", touched)
	return touched, nil
}

// within reports whether path is field itself or lies below it.
func within(path, field string) bool {
	return path == field || strings.HasPrefix(path, field+".")
}

func without(fields []string, field string) []string {
	out := fields[:0:0]
	for _, f := range fields {
		if f != field {
			out = append(out, f)
		}
	}
	return out
}
