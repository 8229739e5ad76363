package http

import (
	"net/http"

	"github.com/aretw0/questscribe/pkg/domain"
	"github.com/aretw0/questscribe/pkg/input"
)

type textEdit struct {
	Offset   int    `json:"offset"`
	Removed  int    `json:"removed"`
	Inserted string `json:"inserted"`
}

// GetDocument handles GET /document.
func (s *Server) GetDocument(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.Engine.Snapshot())
}

// PutDocument handles PUT /document. The snapshot replaces all state.
func (s *Server) PutDocument(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, int64(input.DefaultMaxDocumentSize)*4)
	var doc domain.Document
	if err := decode(r, &doc); err != nil {
		s.writeError(w, r, err)
		return
	}
	content, err := input.SanitizeDocument(doc.Content)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	doc.Content = content

	if err := s.Engine.Restore(r.Context(), &doc); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ApplyTextEdit handles POST /document/edits.
func (s *Server) ApplyTextEdit(w http.ResponseWriter, r *http.Request) {
	var edit textEdit
	if err := decode(r, &edit); err != nil {
		s.writeError(w, r, err)
		return
	}
	inserted, err := input.SanitizeDocument(edit.Inserted)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	moved, err := s.Engine.ApplyTextEdit(r.Context(), edit.Offset, edit.Removed, inserted)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, count{Count: moved})
}
