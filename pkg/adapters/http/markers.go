package http

import (
	"net/http"

	"github.com/aretw0/questscribe/pkg/domain"
	"github.com/aretw0/questscribe/pkg/input"
	"github.com/go-chi/chi/v5"
)

// ListMarkers handles GET /markers, optionally filtered by ?position= or ?entity_id=.
func (s *Server) ListMarkers(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	switch {
	case q.Has("position"):
		pos, err := positionParam(r)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, s.Engine.MarkersAt(r.Context(), pos))
	case q.Has("entity_id"):
		writeJSON(w, http.StatusOK, s.Engine.MarkersFor(r.Context(), q.Get("entity_id")))
	default:
		writeJSON(w, http.StatusOK, s.Engine.ListMarkers(r.Context()))
	}
}

// InsertMarker handles POST /markers.
func (s *Server) InsertMarker(w http.ResponseWriter, r *http.Request) {
	var in domain.MarkerInput
	if err := decode(r, &in); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := sanitizeMarker(&in.Description, in.Changes); err != nil {
		s.writeError(w, r, err)
		return
	}

	m, err := s.Engine.InsertMarker(r.Context(), in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, m)
}

// GetMarker handles GET /markers/{id}.
func (s *Server) GetMarker(w http.ResponseWriter, r *http.Request) {
	m, err := s.Engine.GetMarker(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

// UpdateMarker handles PATCH /markers/{id}.
func (s *Server) UpdateMarker(w http.ResponseWriter, r *http.Request) {
	var upd domain.MarkerUpdate
	if err := decode(r, &upd); err != nil {
		s.writeError(w, r, err)
		return
	}
	var changes []domain.ChangeRecord
	if upd.Changes != nil {
		changes = *upd.Changes
	}
	if err := sanitizeMarker(upd.Description, changes); err != nil {
		s.writeError(w, r, err)
		return
	}

	m, err := s.Engine.UpdateMarker(r.Context(), chi.URLParam(r, "id"), upd)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

// DeleteMarker handles DELETE /markers/{id}.
func (s *Server) DeleteMarker(w http.ResponseWriter, r *http.Request) {
	if err := s.Engine.DeleteMarker(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// RepositionMarkers handles POST /markers/reposition.
func (s *Server) RepositionMarkers(w http.ResponseWriter, r *http.Request) {
	var moves []domain.Reposition
	if err := decode(r, &moves); err != nil {
		s.writeError(w, r, err)
		return
	}
	moved := s.Engine.RepositionMarkers(r.Context(), moves)
	writeJSON(w, http.StatusOK, count{Count: moved})
}

func sanitizeMarker(description *string, changes []domain.ChangeRecord) error {
	if description != nil {
		clean, err := input.Sanitize(*description)
		if err != nil {
			return err
		}
		*description = clean
	}
	return input.SanitizeChanges(changes)
}
