package runtime

import (
	"context"
	"log/slog"
	"sync"

	"github.com/aretw0/questscribe/internal/logging"
	"github.com/aretw0/questscribe/pkg/domain"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/aretw0/questscribe/internal/runtime"

// Engine owns the entity registry and the marker index of one working set.
//
// The two aggregates are guarded by separate locks. Operations that touch both
// always acquire entitiesMu before markersMu.
type Engine struct {
	entitiesMu sync.RWMutex
	entities   map[string]*domain.Entity
	order      []string

	markersMu  sync.RWMutex
	markers    map[string]*indexed
	seq        uint64
	content    string
	hasContent bool

	clock  domain.Clock
	newID  func() string
	hooks  domain.LifecycleHooks
	logger *slog.Logger
	tracer trace.Tracer
}

// EngineOption configures the Engine.
type EngineOption func(*Engine)

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) EngineOption {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithClock injects the time source used for every timestamp.
func WithClock(clock domain.Clock) EngineOption {
	return func(e *Engine) {
		if clock != nil {
			e.clock = clock
		}
	}
}

// WithIDGenerator replaces the default UUID generator for entity and marker ids.
func WithIDGenerator(gen func() string) EngineOption {
	return func(e *Engine) {
		if gen != nil {
			e.newID = gen
		}
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) EngineOption {
	return func(e *Engine) {
		e.hooks = hooks
	}
}

// WithTracer overrides the OpenTelemetry tracer (default: the global provider).
func WithTracer(tracer trace.Tracer) EngineOption {
	return func(e *Engine) {
		if tracer != nil {
			e.tracer = tracer
		}
	}
}

// NewEngine creates an empty engine.
func NewEngine(opts ...EngineOption) *Engine {
	e := &Engine{
		entities: make(map[string]*domain.Entity),
		markers:  make(map[string]*indexed),
		clock:    domain.SystemClock,
		newID:    uuid.NewString,
		logger:   logging.NewNop(),
		tracer:   otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) now() int64 {
	return e.clock.Now().Unix()
}

func (e *Engine) emitMutation(ctx context.Context, kind domain.MutationKind, entityID, markerID string, count int) {
	if e.hooks.OnMutation == nil {
		return
	}
	e.hooks.OnMutation(ctx, &domain.MutationEvent{
		EventBase: domain.EventBase{Timestamp: e.clock.Now(), Type: domain.EventMutation},
		Kind:      kind,
		EntityID:  entityID,
		MarkerID:  markerID,
		Count:     count,
	})
}
