package runtime_test

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aretw0/questscribe/internal/runtime"
	"github.com/aretw0/questscribe/pkg/domain"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Unix(1700000000, 0)

func sequentialIDs(prefix string) func() string {
	var n atomic.Int64
	return func() string {
		return fmt.Sprintf("%s%d", prefix, n.Add(1))
	}
}

func newTestEngine(opts ...runtime.EngineOption) *runtime.Engine {
	base := []runtime.EngineOption{
		runtime.WithClock(domain.FixedClock(fixedNow)),
		runtime.WithIDGenerator(sequentialIDs("id-")),
	}
	return runtime.NewEngine(append(base, opts...)...)
}

func mustEntity(t *testing.T, e *runtime.Engine, name string) domain.Entity {
	t.Helper()
	ent, err := e.CreateEntity(context.Background(), name, "")
	require.NoError(t, err)
	return ent
}

func mustMarker(t *testing.T, e *runtime.Engine, entityID string, pos int, changes ...domain.ChangeRecord) domain.Marker {
	t.Helper()
	m, err := e.InsertMarker(context.Background(), domain.MarkerInput{
		Position: pos,
		EntityID: entityID,
		Changes:  changes,
	})
	require.NoError(t, err)
	return m
}

func valueAt(t *testing.T, e *runtime.Engine, entityID string, pos int, path string) (domain.Value, bool) {
	t.Helper()
	tree, err := e.Reconstruct(context.Background(), entityID, pos)
	require.NoError(t, err)
	return tree.Get(path)
}
