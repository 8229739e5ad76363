package http

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"

	"github.com/aretw0/questscribe"
	"github.com/aretw0/questscribe/pkg/domain"
	"github.com/aretw0/questscribe/pkg/export"
	"github.com/aretw0/questscribe/pkg/pathtree"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Engine is the part of questscribe.Engine the HTTP API drives.
type Engine interface {
	CreateEntity(ctx context.Context, name, color string) (domain.Entity, error)
	GetEntity(ctx context.Context, id string) (domain.Entity, error)
	ListEntities(ctx context.Context) []domain.Entity
	UpdateEntity(ctx context.Context, id string, upd domain.EntityUpdate) (domain.Entity, error)
	DeleteEntity(ctx context.Context, id string) (int, error)
	DuplicateEntity(ctx context.Context, id, newName string, position int) (domain.Entity, *domain.Marker, error)
	DeleteFieldCompletely(ctx context.Context, entityID, field string) (int, error)
	RenameField(ctx context.Context, entityID, from, to string) (int, error)

	InsertMarker(ctx context.Context, in domain.MarkerInput) (domain.Marker, error)
	UpdateMarker(ctx context.Context, id string, upd domain.MarkerUpdate) (domain.Marker, error)
	DeleteMarker(ctx context.Context, id string) error
	RepositionMarkers(ctx context.Context, moves []domain.Reposition) int
	GetMarker(ctx context.Context, id string) (domain.Marker, error)
	ListMarkers(ctx context.Context) []domain.Marker
	MarkersAt(ctx context.Context, position int) []domain.Marker
	MarkersFor(ctx context.Context, entityID string) []domain.Marker

	Reconstruct(ctx context.Context, entityID string, position int) (*pathtree.Tree, error)
	RenderSheet(ctx context.Context, entityID string, position int) (export.Sheet, error)
	ApplyTextEdit(ctx context.Context, offset, removed int, inserted string) (int, error)
	Snapshot() *domain.Document
	Restore(ctx context.Context, doc *domain.Document) error
}

var _ Engine = (*questscribe.Engine)(nil)

// Server serves the REST API.
type Server struct {
	Engine   Engine
	Streams  *StreamManager
	logger   *slog.Logger
	gatherer prometheus.Gatherer
}

// Option configures the Server.
type Option func(*Server)

// WithLogger sets the request logger. Defaults to JSON on stderr.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithGatherer serves /metrics from g instead of the default registry.
func WithGatherer(g prometheus.Gatherer) Option {
	return func(s *Server) {
		s.gatherer = g
	}
}

// WithStreams shares a StreamManager whose Hooks feed the engine.
func WithStreams(sm *StreamManager) Option {
	return func(s *Server) {
		s.Streams = sm
	}
}

// NewServer builds a Server without routing.
func NewServer(engine Engine, opts ...Option) *Server {
	s := &Server{
		Engine:   engine,
		logger:   slog.New(slog.NewJSONHandler(os.Stderr, nil)),
		gatherer: prometheus.DefaultGatherer,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.Streams == nil {
		s.Streams = NewStreamManager(s.logger)
	}
	return s
}

// NewHandler creates the HTTP handler for the engine.
func NewHandler(engine Engine, opts ...Option) http.Handler {
	return NewServer(engine, opts...).Routes()
}

// Routes mounts every endpoint on a chi router.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(enableCORS)

	r.Get("/health", s.GetHealth)
	r.Get("/info", s.GetInfo)
	r.Get("/openapi.yaml", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/yaml")
		_, _ = w.Write(rawSpec)
	})
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	r.Get("/events", s.SubscribeEvents)

	r.Route("/entities", func(r chi.Router) {
		r.Get("/", s.ListEntities)
		r.Post("/", s.CreateEntity)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.GetEntity)
			r.Patch("/", s.UpdateEntity)
			r.Delete("/", s.DeleteEntity)
			r.Post("/duplicate", s.DuplicateEntity)
			r.Delete("/fields/{field}", s.DeleteField)
			r.Patch("/fields/{field}", s.RenameField)
			r.Get("/state", s.GetEntityState)
			r.Get("/sheet", s.GetEntitySheet)
		})
	})

	r.Route("/markers", func(r chi.Router) {
		r.Get("/", s.ListMarkers)
		r.Post("/", s.InsertMarker)
		r.Post("/reposition", s.RepositionMarkers)
		r.Get("/{id}", s.GetMarker)
		r.Patch("/{id}", s.UpdateMarker)
		r.Delete("/{id}", s.DeleteMarker)
	})

	r.Get("/document", s.GetDocument)
	r.Put("/document", s.PutDocument)
	r.Post("/document/edits", s.ApplyTextEdit)
	return r
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// GetHealth handles GET /health.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles GET /info.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	apiVersion := "unknown"
	if doc, err := Spec(); err == nil && doc.Info != nil {
		apiVersion = doc.Info.Version
	} else if err != nil {
		s.logger.Error("openapi spec unavailable", "err", err)
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"app":         "questscribe-http",
		"version":     strings.TrimSpace(questscribe.Version),
		"api_version": apiVersion,
	})
}

// decode reads a JSON body into v, rejecting unknown fields.
func decode(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: invalid request body: %v", domain.ErrInvalidFormat, err)
	}
	return nil
}

type count struct {
	Count int `json:"count"`
}
