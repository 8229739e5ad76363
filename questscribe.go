package questscribe

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/aretw0/questscribe/internal/adapters/file"
	"github.com/aretw0/questscribe/internal/logging"
	"github.com/aretw0/questscribe/internal/runtime"
	"github.com/aretw0/questscribe/pkg/adapters/memory"
	"github.com/aretw0/questscribe/pkg/domain"
	"github.com/aretw0/questscribe/pkg/export"
	"github.com/aretw0/questscribe/pkg/pathtree"
	"github.com/aretw0/questscribe/pkg/ports"
	"github.com/aretw0/questscribe/pkg/session"
	"go.opentelemetry.io/otel/trace"
)

// Engine is the high-level entry point for the QuestScribe library.
// It wraps the internal runtime with persistence, export and sheet rendering.
type Engine struct {
	runtime     *runtime.Engine
	store       ports.DocumentStore
	sessions    *session.Manager
	locker      ports.DistributedLocker
	hooks       domain.LifecycleHooks
	logger      *slog.Logger
	runtimeOpts []runtime.EngineOption
}

// Option defines a functional option for configuring the Engine.
type Option func(*Engine)

// WithStore sets the document store used by SaveDocument and LoadDocument.
// Defaults to an in-memory store.
func WithStore(store ports.DocumentStore) Option {
	return func(e *Engine) {
		e.store = store
	}
}

// WithLocker serializes document saves and loads across processes.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(e *Engine) {
		e.locker = locker
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(e *Engine) {
		e.hooks = hooks
	}
}

// WithLogger sets a custom structured logger for the engine.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithClock replaces the wall clock used for timestamps.
func WithClock(clock domain.Clock) Option {
	return func(e *Engine) {
		e.runtimeOpts = append(e.runtimeOpts, runtime.WithClock(clock))
	}
}

// WithIDGenerator replaces the UUID generator for entity and marker ids.
func WithIDGenerator(gen func() string) Option {
	return func(e *Engine) {
		e.runtimeOpts = append(e.runtimeOpts, runtime.WithIDGenerator(gen))
	}
}

// WithTracer sets the OpenTelemetry tracer for engine spans.
func WithTracer(tracer trace.Tracer) Option {
	return func(e *Engine) {
		e.runtimeOpts = append(e.runtimeOpts, runtime.WithTracer(tracer))
	}
}

// New initializes an empty Engine.
func New(opts ...Option) *Engine {
	eng := &Engine{}
	for _, opt := range opts {
		opt(eng)
	}

	if eng.logger == nil {
		eng.logger = logging.NewNop()
	}
	if eng.store == nil {
		eng.store = memory.NewStore()
	}

	sessionOpts := []session.Option{session.WithLogger(eng.logger)}
	if eng.locker != nil {
		sessionOpts = append(sessionOpts, session.WithLocker(eng.locker))
	}
	eng.sessions = session.NewManager(eng.store, sessionOpts...)

	runtimeOpts := []runtime.EngineOption{
		runtime.WithLifecycleHooks(eng.hooks),
		runtime.WithLogger(eng.logger),
	}
	eng.runtime = runtime.NewEngine(append(runtimeOpts, eng.runtimeOpts...)...)
	return eng
}

// Store returns the document store.
func (e *Engine) Store() ports.DocumentStore { return e.store }

// Entities

func (e *Engine) CreateEntity(ctx context.Context, name, color string) (domain.Entity, error) {
	return e.runtime.CreateEntity(ctx, name, color)
}

func (e *Engine) GetEntity(ctx context.Context, id string) (domain.Entity, error) {
	return e.runtime.GetEntity(ctx, id)
}

// ListEntities returns entities in creation order.
func (e *Engine) ListEntities(ctx context.Context) []domain.Entity {
	return e.runtime.ListEntities(ctx)
}

// UpdateEntity renames or recolors an entity. A new color also recolors its markers.
func (e *Engine) UpdateEntity(ctx context.Context, id string, upd domain.EntityUpdate) (domain.Entity, error) {
	return e.runtime.UpdateEntity(ctx, id, upd)
}

// DeleteEntity removes the entity and all of its markers, returning how many markers went with it.
func (e *Engine) DeleteEntity(ctx context.Context, id string) (int, error) {
	return e.runtime.DeleteEntity(ctx, id)
}

// DuplicateEntity copies the state of id at position into a new entity, seeded by
// one marker at position. The marker is nil when the source state is empty.
func (e *Engine) DuplicateEntity(ctx context.Context, id, newName string, position int) (domain.Entity, *domain.Marker, error) {
	return e.runtime.DuplicateEntity(ctx, id, newName, position)
}

// DeleteFieldCompletely purges a field from the entity's registry and history.
func (e *Engine) DeleteFieldCompletely(ctx context.Context, entityID, field string) (int, error) {
	return e.runtime.DeleteFieldCompletely(ctx, entityID, field)
}

// RenameField rewrites a field's history under a new name.
func (e *Engine) RenameField(ctx context.Context, entityID, from, to string) (int, error) {
	return e.runtime.RenameField(ctx, entityID, from, to)
}

// Markers

func (e *Engine) InsertMarker(ctx context.Context, in domain.MarkerInput) (domain.Marker, error) {
	return e.runtime.InsertMarker(ctx, in)
}

func (e *Engine) UpdateMarker(ctx context.Context, id string, upd domain.MarkerUpdate) (domain.Marker, error) {
	return e.runtime.UpdateMarker(ctx, id, upd)
}

func (e *Engine) DeleteMarker(ctx context.Context, id string) error {
	return e.runtime.DeleteMarker(ctx, id)
}

// RepositionMarkers applies a batch of moves; unknown ids are skipped.
// Returns the number of markers moved.
func (e *Engine) RepositionMarkers(ctx context.Context, moves []domain.Reposition) int {
	return e.runtime.RepositionMarkers(ctx, moves)
}

func (e *Engine) GetMarker(ctx context.Context, id string) (domain.Marker, error) {
	return e.runtime.GetMarker(ctx, id)
}

// ListMarkers returns every marker in replay order.
func (e *Engine) ListMarkers(ctx context.Context) []domain.Marker {
	return e.runtime.ListMarkers(ctx)
}

func (e *Engine) MarkersAt(ctx context.Context, position int) []domain.Marker {
	return e.runtime.MarkersAt(ctx, position)
}

func (e *Engine) MarkersFor(ctx context.Context, entityID string) []domain.Marker {
	return e.runtime.MarkersFor(ctx, entityID)
}

// State

// Reconstruct replays the entity's markers up to and including position.
func (e *Engine) Reconstruct(ctx context.Context, entityID string, position int) (*pathtree.Tree, error) {
	return e.runtime.Reconstruct(ctx, entityID, position)
}

// RenderSheet reconstructs the entity at position as a label/value sheet.
func (e *Engine) RenderSheet(ctx context.Context, entityID string, position int) (export.Sheet, error) {
	ent, err := e.runtime.GetEntity(ctx, entityID)
	if err != nil {
		return export.Sheet{}, err
	}
	tree, err := e.runtime.Reconstruct(ctx, entityID, position)
	if err != nil {
		return export.Sheet{}, err
	}
	return export.BuildSheet(ent, position, tree), nil
}

// RenderSheets renders every entity at position, in creation order.
func (e *Engine) RenderSheets(ctx context.Context, position int) ([]export.Sheet, error) {
	var sheets []export.Sheet
	for _, ent := range e.runtime.ListEntities(ctx) {
		sheet, err := e.RenderSheet(ctx, ent.ID, position)
		if err != nil {
			return nil, err
		}
		sheets = append(sheets, sheet)
	}
	return sheets, nil
}

// Text

func (e *Engine) Content() string { return e.runtime.Content() }

func (e *Engine) SetContent(content string) { e.runtime.SetContent(content) }

// ApplyTextEdit moves markers to follow an edit of the document text.
func (e *Engine) ApplyTextEdit(ctx context.Context, offset, removed int, inserted string) (int, error) {
	return e.runtime.ApplyTextEdit(ctx, offset, removed, inserted)
}

// Snapshots and persistence

// Snapshot returns a consistent copy of the whole document.
func (e *Engine) Snapshot() *domain.Document { return e.runtime.Snapshot() }

// Restore replaces all state with doc.
func (e *Engine) Restore(ctx context.Context, doc *domain.Document) error {
	return e.runtime.Restore(ctx, doc)
}

// SaveDocument writes a snapshot to the store under name. The snapshot is taken
// while holding the document lock so concurrent saves land in mutation order.
func (e *Engine) SaveDocument(ctx context.Context, name string) error {
	var doc *domain.Document
	err := e.sessions.WithLock(ctx, name, func(ctx context.Context) error {
		doc = e.runtime.Snapshot()
		return e.store.Save(ctx, name, doc)
	})
	if err != nil {
		return fmt.Errorf("save document %q: %w", name, err)
	}
	e.logger.InfoContext(ctx, "document saved", "doc", name,
		"entities", len(doc.Entities), "markers", len(doc.Markers))
	return nil
}

// LoadDocument replaces all state with the stored document.
func (e *Engine) LoadDocument(ctx context.Context, name string) error {
	doc, err := e.sessions.Load(ctx, name)
	if err != nil {
		return fmt.Errorf("load document %q: %w", name, err)
	}
	if err := e.runtime.Restore(ctx, doc); err != nil {
		return fmt.Errorf("load document %q: %w", name, err)
	}
	e.logger.InfoContext(ctx, "document loaded", "doc", name,
		"entities", len(doc.Entities), "markers", len(doc.Markers))
	return nil
}

// SaveFile writes a snapshot to a single .json or .yaml file.
func (e *Engine) SaveFile(path string) error {
	return file.WriteFile(path, e.runtime.Snapshot())
}

// LoadFile replaces all state with the document in a .json or .yaml file.
func (e *Engine) LoadFile(ctx context.Context, path string) error {
	doc, err := file.ReadFile(path)
	if err != nil {
		return err
	}
	return e.runtime.Restore(ctx, doc)
}

// Export and import

// ExportSheets writes every entity's sheet at position to an .xlsx workbook.
func (e *Engine) ExportSheets(ctx context.Context, path string, position int) (err error) {
	sheets, err := e.RenderSheets(ctx, position)
	if err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrIOFailure, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("%w: %v", domain.ErrIOFailure, cerr)
		}
	}()
	return export.WriteSheetXLSX(f, sheets...)
}

// Export writes the document text to path. The format follows the extension.
func (e *Engine) Export(path string) error {
	return export.WriteFile(path, export.ParseMarkdown(e.runtime.Content()))
}

// Import replaces the document text with the contents of path, converted to
// Markdown. Markers keep their positions.
func (e *Engine) Import(path string) error {
	paras, err := export.ReadFile(path)
	if err != nil {
		return err
	}
	e.runtime.SetContent(export.ToMarkdown(paras))
	return nil
}
