package http

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/aretw0/questscribe"
	"github.com/aretw0/questscribe/pkg/domain"
	"github.com/aretw0/questscribe/pkg/observability"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	engine  *questscribe.Engine
	handler http.Handler
	streams *StreamManager
	reg     *prometheus.Registry
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	reg := prometheus.NewRegistry()
	streams := NewStreamManager(logger)
	metrics := observability.NewMetrics(reg)

	eng := questscribe.New(questscribe.WithLifecycleHooks(observability.Combine(metrics.Hooks(), streams.Hooks())))
	return &fixture{
		engine:  eng,
		streams: streams,
		reg:     reg,
		handler: NewHandler(eng, WithLogger(logger), WithGatherer(reg), WithStreams(streams)),
	}
}

func (f *fixture) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, r)
	w := httptest.NewRecorder()
	f.handler.ServeHTTP(w, req)
	return w
}

func decodeBody[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func TestSpec_IsValid(t *testing.T) {
	doc, err := Spec()
	require.NoError(t, err)
	assert.Equal(t, "QuestScribe API", doc.Info.Title)
	assert.NotNil(t, doc.Paths.Find("/entities/{id}/state"))
}

func TestHealthAndInfo(t *testing.T) {
	f := newFixture(t)

	w := f.do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())

	info := decodeBody[map[string]string](t, f.do(t, http.MethodGet, "/info", nil))
	assert.Equal(t, "questscribe-http", info["app"])
	assert.Equal(t, "1.0.0", info["api_version"])
	assert.Equal(t, strings.TrimSpace(questscribe.Version), info["version"])

	w = f.do(t, http.MethodGet, "/openapi.yaml", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "openapi: 3.0.3")
}

func TestEntityAndMarkerFlow(t *testing.T) {
	f := newFixture(t)

	w := f.do(t, http.MethodPost, "/entities", map[string]string{"name": "Aria\x1b", "color": "#FFD700"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	hero := decodeBody[domain.Entity](t, w)
	assert.Equal(t, "Aria", hero.Name, "control characters are stripped")

	for _, in := range []domain.MarkerInput{
		{Position: 10, EntityID: hero.ID, Changes: []domain.ChangeRecord{domain.Add("stats.HP", "10")}},
		{Position: 5, EntityID: hero.ID, Changes: []domain.ChangeRecord{domain.Add("stats.HP", "5")}},
	} {
		w := f.do(t, http.MethodPost, "/markers", in)
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	}

	state := decodeBody[map[string]any](t, f.do(t, http.MethodGet, "/entities/"+hero.ID+"/state?position=7", nil))
	assert.Equal(t, map[string]any{"stats": map[string]any{"HP": 5.0}}, state)

	state = decodeBody[map[string]any](t, f.do(t, http.MethodGet, "/entities/"+hero.ID+"/state?position=10", nil))
	assert.Equal(t, map[string]any{"stats": map[string]any{"HP": 15.0}}, state)

	at := decodeBody[[]domain.Marker](t, f.do(t, http.MethodGet, "/markers?position=5", nil))
	require.Len(t, at, 1)

	w = f.do(t, http.MethodPost, "/markers/reposition", []domain.Reposition{{MarkerID: at[0].ID, Position: 20}})
	assert.JSONEq(t, `{"count":1}`, w.Body.String())

	state = decodeBody[map[string]any](t, f.do(t, http.MethodGet, "/entities/"+hero.ID+"/state?position=10", nil))
	assert.Equal(t, map[string]any{"stats": map[string]any{"HP": 10.0}}, state)

	req := httptest.NewRequest(http.MethodGet, "/entities/"+hero.ID+"/sheet?position=30", nil)
	req.Header.Set("Accept", "text/markdown")
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	assert.Contains(t, rec.Body.String(), "- **HP:** 15")

	w = f.do(t, http.MethodDelete, "/entities/"+hero.ID+"/fields/stats.HP", nil)
	assert.JSONEq(t, `{"count":2}`, w.Body.String())

	w = f.do(t, http.MethodDelete, "/entities/"+hero.ID, nil)
	assert.JSONEq(t, `{"count":2}`, w.Body.String())
	assert.Empty(t, decodeBody[[]domain.Marker](t, f.do(t, http.MethodGet, "/markers", nil)))
}

func TestDuplicateAndRename(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	hero, err := f.engine.CreateEntity(ctx, "Aria", "")
	require.NoError(t, err)
	_, err = f.engine.InsertMarker(ctx, domain.MarkerInput{EntityID: hero.ID, Changes: []domain.ChangeRecord{domain.Set("hp", "3")}})
	require.NoError(t, err)

	w := f.do(t, http.MethodPatch, "/entities/"+hero.ID+"/fields/hp", map[string]string{"to": "health"})
	assert.JSONEq(t, `{"count":1}`, w.Body.String())

	w = f.do(t, http.MethodPost, "/entities/"+hero.ID+"/duplicate", map[string]any{"name": "Aria II", "position": 0})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	dup := decodeBody[duplicateResult](t, w)
	assert.Equal(t, "Aria II", dup.Entity.Name)
	require.NotNil(t, dup.Marker)
	assert.Equal(t, []domain.ChangeRecord{domain.Set("health", "3")}, dup.Marker.Changes)

	color := "#123456"
	w = f.do(t, http.MethodPatch, "/entities/"+dup.Entity.ID, domain.EntityUpdate{Color: &color})
	assert.Equal(t, color, decodeBody[domain.Entity](t, w).Color)
}

func TestErrorMapping(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name   string
		method string
		path   string
		body   any
		status int
	}{
		{"unknown entity", http.MethodGet, "/entities/nope", nil, http.StatusNotFound},
		{"unknown marker", http.MethodDelete, "/markers/nope", nil, http.StatusNotFound},
		{"state of unknown entity", http.MethodGet, "/entities/nope/state?position=1", nil, http.StatusNotFound},
		{"missing position", http.MethodGet, "/entities/nope/state", nil, http.StatusBadRequest},
		{"negative position", http.MethodGet, "/markers?position=-1", nil, http.StatusBadRequest},
		{"non-numeric position", http.MethodGet, "/entities/nope/sheet?position=five", nil, http.StatusBadRequest},
		{"bad change type", http.MethodPost, "/markers", map[string]any{
			"position": 1, "entity_id": "x",
			"changes": []map[string]string{{"field_name": "hp", "change_type": "multiply", "value": "2"}},
		}, http.StatusBadRequest},
		{"unknown body field", http.MethodPost, "/entities", map[string]string{"nam": "typo"}, http.StatusBadRequest},
		{"invalid snapshot", http.MethodPut, "/document", map[string]any{
			"entities": []map[string]string{{"id": ""}},
		}, http.StatusBadRequest},
		{"negative edit offset", http.MethodPost, "/document/edits", map[string]any{"offset": -1, "removed": 5}, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := f.do(t, tt.method, tt.path, tt.body)
			assert.Equal(t, tt.status, w.Code, w.Body.String())
			assert.Contains(t, w.Body.String(), `"error"`)
		})
	}
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusUnsupportedMediaType, statusFor(domain.ErrUnsupportedFormat))
	assert.Equal(t, http.StatusInternalServerError, statusFor(domain.ErrIOFailure))
	assert.Equal(t, http.StatusNotFound, statusFor(domain.ErrDocumentNotFound))
}

func TestDocumentRoundTrip(t *testing.T) {
	f := newFixture(t)
	doc := &domain.Document{
		Content:  "Once upon a time",
		Entities: []domain.Entity{{ID: "e1", Name: "Aria", Fields: []string{"hp"}, FieldMetadata: map[string]domain.FieldMetadata{"hp": {CreatedAt: 1, LastModified: 1}}}},
		Markers:  []domain.Marker{{ID: "m1", Position: 5, EntityID: "e1", Changes: []domain.ChangeRecord{domain.Set("hp", "3")}}},
	}

	w := f.do(t, http.MethodPut, "/document", doc)
	require.Equal(t, http.StatusNoContent, w.Code, w.Body.String())

	w = f.do(t, http.MethodPost, "/document/edits", textEdit{Offset: 0, Removed: 0, Inserted: "Yes. "})
	assert.JSONEq(t, `{"count":1}`, w.Body.String())

	got := decodeBody[domain.Document](t, f.do(t, http.MethodGet, "/document", nil))
	assert.Equal(t, "Yes. Once upon a time", got.Content)
	require.Len(t, got.Markers, 1)
	assert.Equal(t, 10, got.Markers[0].Position)
}

func TestMetricsEndpoint(t *testing.T) {
	f := newFixture(t)
	_, err := f.engine.CreateEntity(context.Background(), "Aria", "")
	require.NoError(t, err)

	w := f.do(t, http.MethodGet, "/metrics", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `questscribe_mutations_total{kind="entity_created"} 1`)
}

func TestSubscribeEvents(t *testing.T) {
	f := newFixture(t)
	srv := httptest.NewServer(f.handler)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/events", nil)
	require.NoError(t, err)
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	lines := bufio.NewScanner(resp.Body)
	readUntil := func(prefix string) string {
		for lines.Scan() {
			if strings.HasPrefix(lines.Text(), prefix) {
				return lines.Text()
			}
		}
		t.Fatalf("stream ended before %q", prefix)
		return ""
	}

	readUntil("data: connected")
	_, err = f.engine.CreateEntity(context.Background(), "Aria", "")
	require.NoError(t, err)

	readUntil("event: mutation")
	data := readUntil("data: ")
	assert.Contains(t, data, `"kind":"entity_created"`)
}

func TestStreamManager_Unsubscribe(t *testing.T) {
	sm := NewStreamManager(slog.New(slog.NewTextHandler(io.Discard, nil)))
	ch, cancel := sm.Subscribe("e1")
	sm.Broadcast("e1", "hello")
	assert.Equal(t, "hello", <-ch)

	cancel()
	_, open := <-ch
	assert.False(t, open)
	sm.Broadcast("e1", "dropped")
}
