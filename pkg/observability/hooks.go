package observability

import (
	"context"
	"log/slog"

	"github.com/aretw0/questscribe/pkg/domain"
)

// Combine fans every event out to each set of hooks in order.
func Combine(sets ...domain.LifecycleHooks) domain.LifecycleHooks {
	var out domain.LifecycleHooks
	for _, h := range sets {
		if h.OnMutation != nil {
			prev, next := out.OnMutation, h.OnMutation
			out.OnMutation = func(ctx context.Context, e *domain.MutationEvent) {
				if prev != nil {
					prev(ctx, e)
				}
				next(ctx, e)
			}
		}
		if h.OnReplay != nil {
			prev, next := out.OnReplay, h.OnReplay
			out.OnReplay = func(ctx context.Context, e *domain.ReplayEvent) {
				if prev != nil {
					prev(ctx, e)
				}
				next(ctx, e)
			}
		}
	}
	return out
}

// LogHooks logs mutations at info and replays at debug.
func LogHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnMutation: func(ctx context.Context, e *domain.MutationEvent) {
			logger.InfoContext(ctx, "mutation",
				"kind", e.Kind,
				"entity_id", e.EntityID,
				"marker_id", e.MarkerID,
				"count", e.Count,
			)
		},
		OnReplay: func(ctx context.Context, e *domain.ReplayEvent) {
			logger.DebugContext(ctx, "replay",
				"entity_id", e.EntityID,
				"position", e.Position,
				"markers", e.Markers,
				"changes", e.Changes,
				"duration", e.Duration,
			)
		},
	}
}
