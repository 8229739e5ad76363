package cli

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"testing"

	"github.com/aretw0/questscribe"
	"github.com/aretw0/questscribe/internal/config"
	"github.com/aretw0/questscribe/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("debug"))
	assert.Equal(t, slog.LevelWarn, ParseLevel(" WARN "))
	assert.Equal(t, slog.LevelInfo, ParseLevel("chatty"))
}

func TestWorkspace_CommitAndReopen(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t, config.StoreFile)
	cfg.Document = "campaign"

	ws, err := Open(ctx, Options{Config: cfg})
	require.NoError(t, err)
	assert.Empty(t, ws.Engine.ListEntities(ctx), "missing document starts empty")

	var heroID string
	require.NoError(t, ws.Mutate(ctx, func(ctx context.Context, eng *questscribe.Engine) error {
		hero, err := eng.CreateEntity(ctx, "Aria", "")
		if err != nil {
			return err
		}
		heroID = hero.ID
		_, err = eng.InsertMarker(ctx, domain.MarkerInput{
			Position: 3, EntityID: hero.ID, Changes: []domain.ChangeRecord{domain.Set("hp", "7")},
		})
		return err
	}))
	require.NoError(t, ws.Close())

	reopened, err := Open(ctx, Options{Config: cfg})
	require.NoError(t, err)
	defer reopened.Close()
	tree, err := reopened.Engine.Reconstruct(ctx, heroID, 3)
	require.NoError(t, err)
	v, ok := tree.Get("hp")
	require.True(t, ok)
	assert.Equal(t, domain.Number(7), v)
}

func TestWorkspace_Autosave(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t, config.StoreMemory)
	reg := prometheus.NewRegistry()

	ws, err := Open(ctx, Options{Config: cfg, Registry: reg, Autosave: true})
	require.NoError(t, err)
	defer ws.Close()

	_, err = ws.Engine.CreateEntity(ctx, "Aria", "")
	require.NoError(t, err)

	stored, err := ws.Backend.Store.Load(ctx, cfg.Document)
	require.NoError(t, err)
	require.Len(t, stored.Entities, 1)
	assert.Equal(t, "Aria", stored.Entities[0].Name)
	assert.Equal(t, 1, testutil.CollectAndCount(reg, "questscribe_mutations_total"))
}

func TestWorkspace_ConcurrentAutosaveKeepsEveryMutation(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t, config.StoreMemory)

	ws, err := Open(ctx, Options{Config: cfg, Autosave: true})
	require.NoError(t, err)
	defer ws.Close()

	const writers = 16
	var wg sync.WaitGroup
	for i := range writers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := ws.Engine.CreateEntity(ctx, fmt.Sprintf("npc-%d", i), "")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	stored, err := ws.Backend.Store.Load(ctx, cfg.Document)
	require.NoError(t, err)
	var names []string
	for _, ent := range stored.Entities {
		names = append(names, ent.Name)
	}
	want := make([]string, 0, writers)
	for i := range writers {
		want = append(want, fmt.Sprintf("npc-%d", i))
	}
	assert.ElementsMatch(t, want, names)
}

func TestOpen_InvalidConfig(t *testing.T) {
	cfg := testConfig(t, config.StoreFile)
	cfg.Store.Format = "toml"
	_, err := Open(context.Background(), Options{Config: cfg})
	assert.ErrorContains(t, err, "store.format")
}
