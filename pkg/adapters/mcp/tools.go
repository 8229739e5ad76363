package mcp

import (
	"context"
	"fmt"

	"github.com/aretw0/questscribe/pkg/domain"
	"github.com/aretw0/questscribe/pkg/input"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mitchellh/mapstructure"
)

type createEntityArgs struct {
	Name  string `mapstructure:"name"`
	Color string `mapstructure:"color"`
}

type entityArgs struct {
	EntityID string `mapstructure:"entity_id"`
}

type positionArgs struct {
	EntityID string `mapstructure:"entity_id"`
	Position int    `mapstructure:"position"`
}

type fieldArgs struct {
	EntityID string `mapstructure:"entity_id"`
	Field    string `mapstructure:"field"`
}

type renameArgs struct {
	EntityID string `mapstructure:"entity_id"`
	From     string `mapstructure:"from"`
	To       string `mapstructure:"to"`
}

// bind decodes tool arguments into T. Scalars are weakly typed so a numeric
// change value arrives as its text form.
func bind[T any](request mcp.CallToolRequest) (T, error) {
	var out T
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &out,
		WeaklyTypedInput: true,
		ErrorUnused:      true,
	})
	if err != nil {
		return out, err
	}
	if err := dec.Decode(request.GetArguments()); err != nil {
		return out, fmt.Errorf("%w: %v", domain.ErrInvalidFormat, err)
	}
	return out, nil
}

// fail logs the rejected call and reports the error to the client as a tool error.
func (s *Server) fail(ctx context.Context, request mcp.CallToolRequest, err error) (*mcp.CallToolResult, error) {
	s.logger.WarnContext(ctx, "MCP tool call rejected", "tool", request.Params.Name, "err", err)
	return mcp.NewToolResultError(err.Error()), nil
}

func checkPosition(pos int) error {
	if pos < 0 {
		return fmt.Errorf("%w: position must be non-negative, got %d", domain.ErrInvalidFormat, pos)
	}
	return nil
}

func (s *Server) handleListEntities(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(s.engine.ListEntities(ctx))
}

func (s *Server) handleCreateEntity(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := bind[createEntityArgs](request)
	if err != nil {
		return s.fail(ctx, request, err)
	}
	name, err := input.Sanitize(args.Name)
	if err != nil {
		return s.fail(ctx, request, err)
	}
	color, err := input.Sanitize(args.Color)
	if err != nil {
		return s.fail(ctx, request, err)
	}

	ent, err := s.engine.CreateEntity(ctx, name, color)
	if err != nil {
		return s.fail(ctx, request, err)
	}
	return jsonResult(ent)
}

func (s *Server) handleInsertMarker(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	in, err := bind[domain.MarkerInput](request)
	if err != nil {
		return s.fail(ctx, request, err)
	}
	if err := checkPosition(in.Position); err != nil {
		return s.fail(ctx, request, err)
	}
	if in.Description, err = input.Sanitize(in.Description); err != nil {
		return s.fail(ctx, request, err)
	}
	if err := input.SanitizeChanges(in.Changes); err != nil {
		return s.fail(ctx, request, err)
	}

	m, err := s.engine.InsertMarker(ctx, in)
	if err != nil {
		return s.fail(ctx, request, err)
	}
	return jsonResult(m)
}

func (s *Server) handleListMarkers(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := bind[entityArgs](request)
	if err != nil {
		return s.fail(ctx, request, err)
	}
	return jsonResult(s.engine.MarkersFor(ctx, args.EntityID))
}

func (s *Server) handleGetEntityState(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := bind[positionArgs](request)
	if err != nil {
		return s.fail(ctx, request, err)
	}
	if err := checkPosition(args.Position); err != nil {
		return s.fail(ctx, request, err)
	}
	tree, err := s.engine.Reconstruct(ctx, args.EntityID, args.Position)
	if err != nil {
		return s.fail(ctx, request, err)
	}
	return jsonResult(tree)
}

func (s *Server) handleRenderSheet(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := bind[positionArgs](request)
	if err != nil {
		return s.fail(ctx, request, err)
	}
	if err := checkPosition(args.Position); err != nil {
		return s.fail(ctx, request, err)
	}
	sheet, err := s.engine.RenderSheet(ctx, args.EntityID, args.Position)
	if err != nil {
		return s.fail(ctx, request, err)
	}
	return mcp.NewToolResultText(sheet.Markdown()), nil
}

func (s *Server) handleDeleteField(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := bind[fieldArgs](request)
	if err != nil {
		return s.fail(ctx, request, err)
	}
	touched, err := s.engine.DeleteFieldCompletely(ctx, args.EntityID, args.Field)
	if err != nil {
		return s.fail(ctx, request, err)
	}
	return mcp.NewToolResultText(fmt.Sprintf("field %q purged from %d marker(s)", args.Field, touched)), nil
}

func (s *Server) handleRenameField(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := bind[renameArgs](request)
	if err != nil {
		return s.fail(ctx, request, err)
	}
	to, err := input.Sanitize(args.To)
	if err != nil {
		return s.fail(ctx, request, err)
	}
	touched, err := s.engine.RenameField(ctx, args.EntityID, args.From, to)
	if err != nil {
		return s.fail(ctx, request, err)
	}
	return mcp.NewToolResultText(fmt.Sprintf("field %q renamed to %q in %d marker(s)", args.From, to, touched)), nil
}
