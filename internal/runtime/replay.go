package runtime

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/aretw0/questscribe/pkg/domain"
	"github.com/aretw0/questscribe/pkg/pathtree"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// Apply folds one change into the tree.
//
// SET stores the coerced payload. ADD sums a numeric delta onto the current number,
// counting a missing or non-numeric current value as 0 and saturating instead of
// overflowing; a non-numeric delta degrades to SET. REMOVE deletes the path.
func Apply(tree *pathtree.Tree, c domain.ChangeRecord) {
	switch c.ChangeType {
	case domain.ChangeSet:
		tree.Set(c.FieldName, domain.ParseValue(c.Value))
	case domain.ChangeAdd:
		delta, ok := domain.ParseNumber(c.Value)
		if !ok {
			tree.Set(c.FieldName, domain.ParseValue(c.Value))
			return
		}
		var current float64
		if v, found := tree.Get(c.FieldName); found {
			current, _ = v.AsNumber()
		}
		tree.Set(c.FieldName, domain.Number(finiteSum(current, delta)))
	case domain.ChangeRemove:
		tree.Remove(c.FieldName)
	}
}

// finiteSum adds two finite numbers, saturating at ±math.MaxFloat64 so replayed
// state always stays encodable.
func finiteSum(a, b float64) float64 {
	sum := a + b
	switch {
	case math.IsInf(sum, 1):
		return math.MaxFloat64
	case math.IsInf(sum, -1):
		return -math.MaxFloat64
	}
	return sum
}

// Fold replays markers, already in replay order, into a fresh tree.
func Fold(markers []domain.Marker) *pathtree.Tree {
	tree := pathtree.New()
	for _, m := range markers {
		for _, c := range m.Changes {
			Apply(tree, c)
		}
	}
	return tree
}

// Reconstruct rebuilds the attribute state of an entity as of position by replaying
// every marker of that entity at or before it.
func (e *Engine) Reconstruct(ctx context.Context, entityID string, position int) (*pathtree.Tree, error) {
	ctx, span := e.tracer.Start(ctx, "runtime.Engine.Reconstruct")
	defer span.End()
	span.SetAttributes(
		attribute.String("entity_id", entityID),
		attribute.Int("position", position),
	)

	start := time.Now()
	e.entitiesMu.RLock()
	e.markersMu.RLock()
	tree, markers, changes, err := e.reconstructLocked(entityID, position)
	e.markersMu.RUnlock()
	e.entitiesMu.RUnlock()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "reconstruct failed")
		return nil, err
	}
	span.SetAttributes(attribute.Int("markers", markers), attribute.Int("changes", changes))

	if e.hooks.OnReplay != nil {
		e.hooks.OnReplay(ctx, &domain.ReplayEvent{
			EventBase: domain.EventBase{Timestamp: e.clock.Now(), Type: domain.EventReplay},
			EntityID:  entityID,
			Position:  position,
			Markers:   markers,
			Changes:   changes,
			Duration:  time.Since(start),
		})
	}
	return tree, nil
}

// reconstructLocked requires both read locks.
func (e *Engine) reconstructLocked(entityID string, position int) (*pathtree.Tree, int, int, error) {
	if _, ok := e.entities[entityID]; !ok {
		return nil, 0, 0, fmt.Errorf("%w: %s", domain.ErrEntityNotFound, entityID)
	}
	markers := e.selectLocked(func(m *domain.Marker) bool {
		return m.EntityID == entityID && m.Position <= position
	})
	changes := 0
	for _, m := range markers {
		changes += len(m.Changes)
	}
	return Fold(markers), len(markers), changes, nil
}
