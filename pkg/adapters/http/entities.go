package http

import (
	"fmt"
	"net/http"

	"github.com/aretw0/questscribe/pkg/domain"
	"github.com/aretw0/questscribe/pkg/input"
	"github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/runtime"
)

type entityInput struct {
	Name  string `json:"name"`
	Color string `json:"color"`
}

type duplicateInput struct {
	Name     string `json:"name"`
	Position int    `json:"position"`
}

type renameInput struct {
	To string `json:"to"`
}

type duplicateResult struct {
	Entity domain.Entity  `json:"entity"`
	Marker *domain.Marker `json:"marker"`
}

// ListEntities handles GET /entities.
func (s *Server) ListEntities(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.Engine.ListEntities(r.Context()))
}

// CreateEntity handles POST /entities.
func (s *Server) CreateEntity(w http.ResponseWriter, r *http.Request) {
	var body entityInput
	if err := decode(r, &body); err != nil {
		s.writeError(w, r, err)
		return
	}
	name, err := input.Sanitize(body.Name)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	color, err := input.Sanitize(body.Color)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	ent, err := s.Engine.CreateEntity(r.Context(), name, color)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, ent)
}

// GetEntity handles GET /entities/{id}.
func (s *Server) GetEntity(w http.ResponseWriter, r *http.Request) {
	ent, err := s.Engine.GetEntity(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ent)
}

// UpdateEntity handles PATCH /entities/{id}.
func (s *Server) UpdateEntity(w http.ResponseWriter, r *http.Request) {
	var upd domain.EntityUpdate
	if err := decode(r, &upd); err != nil {
		s.writeError(w, r, err)
		return
	}
	for _, field := range []*string{upd.Name, upd.Color} {
		if field == nil {
			continue
		}
		clean, err := input.Sanitize(*field)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		*field = clean
	}

	ent, err := s.Engine.UpdateEntity(r.Context(), chi.URLParam(r, "id"), upd)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ent)
}

// DeleteEntity handles DELETE /entities/{id}.
func (s *Server) DeleteEntity(w http.ResponseWriter, r *http.Request) {
	removed, err := s.Engine.DeleteEntity(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, count{Count: removed})
}

// DuplicateEntity handles POST /entities/{id}/duplicate.
func (s *Server) DuplicateEntity(w http.ResponseWriter, r *http.Request) {
	var body duplicateInput
	if err := decode(r, &body); err != nil {
		s.writeError(w, r, err)
		return
	}
	name, err := input.Sanitize(body.Name)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	ent, marker, err := s.Engine.DuplicateEntity(r.Context(), chi.URLParam(r, "id"), name, body.Position)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, duplicateResult{Entity: ent, Marker: marker})
}

// DeleteField handles DELETE /entities/{id}/fields/{field}.
func (s *Server) DeleteField(w http.ResponseWriter, r *http.Request) {
	touched, err := s.Engine.DeleteFieldCompletely(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "field"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, count{Count: touched})
}

// RenameField handles PATCH /entities/{id}/fields/{field}.
func (s *Server) RenameField(w http.ResponseWriter, r *http.Request) {
	var body renameInput
	if err := decode(r, &body); err != nil {
		s.writeError(w, r, err)
		return
	}
	to, err := input.Sanitize(body.To)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	touched, err := s.Engine.RenameField(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "field"), to)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, count{Count: touched})
}

// GetEntityState handles GET /entities/{id}/state?position=.
func (s *Server) GetEntityState(w http.ResponseWriter, r *http.Request) {
	pos, err := positionParam(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	tree, err := s.Engine.Reconstruct(r.Context(), chi.URLParam(r, "id"), pos)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tree)
}

// GetEntitySheet handles GET /entities/{id}/sheet?position=. Markdown is
// returned when the client accepts text/markdown.
func (s *Server) GetEntitySheet(w http.ResponseWriter, r *http.Request) {
	pos, err := positionParam(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	sheet, err := s.Engine.RenderSheet(r.Context(), chi.URLParam(r, "id"), pos)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if r.Header.Get("Accept") == "text/markdown" {
		w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
		_, _ = w.Write([]byte(sheet.Markdown()))
		return
	}
	writeJSON(w, http.StatusOK, sheet)
}

// positionParam binds the required, non-negative position query parameter.
func positionParam(r *http.Request) (int, error) {
	var pos int
	if err := runtime.BindQueryParameter("form", true, true, "position", r.URL.Query(), &pos); err != nil {
		return 0, fmt.Errorf("%w: %v", domain.ErrInvalidFormat, err)
	}
	if pos < 0 {
		return 0, fmt.Errorf("%w: position must be non-negative, got %d", domain.ErrInvalidFormat, pos)
	}
	return pos, nil
}
