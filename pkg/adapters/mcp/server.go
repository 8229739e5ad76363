package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aretw0/questscribe"
	"github.com/aretw0/questscribe/pkg/domain"
	"github.com/aretw0/questscribe/pkg/export"
	"github.com/aretw0/questscribe/pkg/pathtree"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

const entitiesURI = "questscribe://entities"

// Engine is the part of questscribe.Engine exposed as MCP tools.
type Engine interface {
	ListEntities(ctx context.Context) []domain.Entity
	CreateEntity(ctx context.Context, name, color string) (domain.Entity, error)
	InsertMarker(ctx context.Context, in domain.MarkerInput) (domain.Marker, error)
	MarkersFor(ctx context.Context, entityID string) []domain.Marker
	Reconstruct(ctx context.Context, entityID string, position int) (*pathtree.Tree, error)
	RenderSheet(ctx context.Context, entityID string, position int) (export.Sheet, error)
	DeleteFieldCompletely(ctx context.Context, entityID, field string) (int, error)
	RenameField(ctx context.Context, entityID, from, to string) (int, error)
}

var _ Engine = (*questscribe.Engine)(nil)

// Server wraps the engine and exposes it as an MCP Server.
type Server struct {
	engine    Engine
	logger    *slog.Logger
	mcpServer *server.MCPServer
}

// Option configures the Server.
type Option func(*Server)

// WithLogger sets the logger used for rejected calls.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// NewServer creates a new MCP Server instance.
func NewServer(engine Engine, opts ...Option) *Server {
	s := &Server{
		engine: engine,
		logger: slog.Default(),
		mcpServer: server.NewMCPServer("questscribe-mcp", strings.TrimSpace(questscribe.Version),
			server.WithToolCapabilities(false),
			server.WithResourceCapabilities(false, false),
		),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.registerTools()
	s.registerResources()
	return s
}

// MCPServer returns the underlying protocol server.
func (s *Server) MCPServer() *server.MCPServer { return s.mcpServer }

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE starts the server on the given port using SSE and stops when ctx ends.
func (s *Server) ServeSSE(ctx context.Context, port int) error {
	addr := fmt.Sprintf(":%d", port)
	baseURL := fmt.Sprintf("http://localhost:%d", port)

	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", corsMiddleware(sseServer.SSEHandler()))
	mux.Handle("/message", corsMiddleware(sseServer.MessageHandler()))

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("MCP server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.NewTool("list_entities",
		mcp.WithDescription("List every tracked entity with its field registry."),
	), s.handleListEntities)

	s.mcpServer.AddTool(mcp.NewTool("create_entity",
		mcp.WithDescription("Create a new entity to track."),
		mcp.WithString("name", mcp.Required(), mcp.Description("Display name")),
		mcp.WithString("color", mcp.Description("Display color, e.g. #FFD700")),
	), s.handleCreateEntity)

	s.mcpServer.AddTool(mcp.NewTool("insert_marker",
		mcp.WithDescription("Insert a marker carrying attribute changes for an entity at a document position."),
		mcp.WithString("entity_id", mcp.Required(), mcp.Description("Entity the changes apply to")),
		mcp.WithNumber("position", mcp.Required(), mcp.Description("Byte offset in the document")),
		mcp.WithArray("changes", mcp.Required(),
			mcp.Description("Change records"),
			mcp.Items(map[string]any{
				"type": "object",
				"properties": map[string]any{
					"field_name":  map[string]any{"type": "string", "description": "Dotted attribute path"},
					"change_type": map[string]any{"type": "string", "enum": []string{"absolute", "relative", "remove"}},
					"value":       map[string]any{"type": "string"},
				},
				"required": []string{"field_name", "change_type"},
			}),
		),
		mcp.WithString("description", mcp.Description("Optional note shown with the marker")),
	), s.handleInsertMarker)

	s.mcpServer.AddTool(mcp.NewTool("list_markers",
		mcp.WithDescription("List the markers of one entity in replay order."),
		mcp.WithString("entity_id", mcp.Required()),
	), s.handleListMarkers)

	s.mcpServer.AddTool(mcp.NewTool("get_entity_state",
		mcp.WithDescription("Reconstruct an entity's attribute tree as of a document position."),
		mcp.WithString("entity_id", mcp.Required()),
		mcp.WithNumber("position", mcp.Required(), mcp.Description("Byte offset in the document")),
	), s.handleGetEntityState)

	s.mcpServer.AddTool(mcp.NewTool("render_sheet",
		mcp.WithDescription("Render an entity's state at a position as a markdown sheet."),
		mcp.WithString("entity_id", mcp.Required()),
		mcp.WithNumber("position", mcp.Required()),
	), s.handleRenderSheet)

	s.mcpServer.AddTool(mcp.NewTool("delete_field",
		mcp.WithDescription("Purge a field and every change record that targets it. History is rewritten."),
		mcp.WithString("entity_id", mcp.Required()),
		mcp.WithString("field", mcp.Required(), mcp.Description("Field path; paths below it are purged too")),
	), s.handleDeleteField)

	s.mcpServer.AddTool(mcp.NewTool("rename_field",
		mcp.WithDescription("Rename a field across the entity's whole history."),
		mcp.WithString("entity_id", mcp.Required()),
		mcp.WithString("from", mcp.Required()),
		mcp.WithString("to", mcp.Required()),
	), s.handleRenameField)
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource(entitiesURI, "Tracked entities",
		mcp.WithResourceDescription("Every entity with its field registry"),
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		data, err := json.Marshal(s.engine.ListEntities(ctx))
		if err != nil {
			return nil, fmt.Errorf("failed to encode entities: %w", err)
		}
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      entitiesURI,
				MIMEType: "application/json",
				Text:     string(data),
			},
		}, nil
	})
}

// jsonResult encodes v as the text payload of a tool result.
func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return mcp.NewToolResultText(string(data)), nil
}
