package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"

	"github.com/aretw0/questscribe"
	"github.com/aretw0/questscribe/internal/config"
	"github.com/aretw0/questscribe/internal/logging"
	"github.com/aretw0/questscribe/pkg/domain"
	"github.com/aretw0/questscribe/pkg/observability"
	"github.com/prometheus/client_golang/prometheus"
)

// ParseLevel maps a log.level setting to a slog level. Unknown names fall back to info.
func ParseLevel(name string) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(name))); err != nil {
		return slog.LevelInfo
	}
	return level
}

// NewLogger builds the application logger for the configured level.
// "off" silences logging entirely.
func NewLogger(cfg config.Config) *slog.Logger {
	if strings.EqualFold(cfg.Log.Level, "off") {
		return logging.NewNop()
	}
	return logging.New(ParseLevel(cfg.Log.Level))
}

// Workspace is an engine bound to one named document in the configured store.
type Workspace struct {
	Engine  *questscribe.Engine
	Doc     string
	Backend *Backend
	Logger  *slog.Logger

	autosave atomic.Bool
}

// Options configures Open.
type Options struct {
	Config   config.Config
	Logger   *slog.Logger
	Hooks    []domain.LifecycleHooks
	Registry prometheus.Registerer
	// Autosave commits the document after every mutation.
	Autosave bool
}

// Open builds the backend and the engine, then loads the configured document.
// A document that does not exist yet starts empty.
func Open(ctx context.Context, opts Options) (*Workspace, error) {
	cfg := opts.Config
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	logger := opts.Logger
	if logger == nil {
		logger = NewLogger(cfg)
	}

	backend, err := OpenBackend(cfg)
	if err != nil {
		return nil, err
	}

	ws := &Workspace{
		Doc:     cfg.Document,
		Backend: backend,
		Logger:  logger,
	}

	hooks := append([]domain.LifecycleHooks{observability.LogHooks(logger)}, opts.Hooks...)
	if opts.Registry != nil {
		hooks = append(hooks, observability.NewMetrics(opts.Registry).Hooks())
	}
	if opts.Autosave {
		hooks = append(hooks, ws.autosaveHooks())
	}
	engOpts := []questscribe.Option{
		questscribe.WithStore(backend.Store),
		questscribe.WithLogger(logger),
		questscribe.WithLifecycleHooks(observability.Combine(hooks...)),
	}
	if backend.Locker != nil {
		engOpts = append(engOpts, questscribe.WithLocker(backend.Locker))
	}

	ws.Engine = questscribe.New(engOpts...)
	if err := ws.Engine.LoadDocument(ctx, ws.Doc); err != nil {
		if !errors.Is(err, domain.ErrDocumentNotFound) {
			return nil, errors.Join(err, backend.Close())
		}
		logger.DebugContext(ctx, "document not found, starting empty", "doc", ws.Doc)
	}
	ws.autosave.Store(opts.Autosave)
	return ws, nil
}

// Commit persists the engine state under the workspace document name.
func (w *Workspace) Commit(ctx context.Context) error {
	return w.Engine.SaveDocument(ctx, w.Doc)
}

// Close releases the backend.
func (w *Workspace) Close() error {
	return w.Backend.Close()
}

// Mutate runs fn against the engine and commits when it succeeds.
func (w *Workspace) Mutate(ctx context.Context, fn func(context.Context, *questscribe.Engine) error) error {
	if err := fn(ctx, w.Engine); err != nil {
		return err
	}
	return w.Commit(ctx)
}

// autosaveHooks commits the workspace after every mutation once the initial
// load is done. Failures are logged.
func (w *Workspace) autosaveHooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnMutation: func(ctx context.Context, e *domain.MutationEvent) {
			if !w.autosave.Load() {
				return
			}
			if err := w.Commit(context.WithoutCancel(ctx)); err != nil {
				w.Logger.ErrorContext(ctx, "autosave failed", "doc", w.Doc, "kind", e.Kind, "err", err)
			}
		},
	}
}
