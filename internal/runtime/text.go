package runtime

import (
	"context"
	"fmt"

	"github.com/aretw0/questscribe/pkg/domain"
)

// Content returns the document text held by the engine.
func (e *Engine) Content() string {
	e.markersMu.RLock()
	defer e.markersMu.RUnlock()
	return e.content
}

// SetContent replaces the document text without touching markers.
func (e *Engine) SetContent(content string) {
	e.markersMu.Lock()
	e.content = content
	e.hasContent = true
	e.markersMu.Unlock()
}

// ApplyTextEdit keeps marker positions in step with an edit that replaced `removed` bytes
// at offset with inserted. Markers at or after the end of the removed range slide by the
// length difference; markers inside the range collapse to offset. When the engine holds
// the document text the edit is applied to it as well. Returns the number of markers moved.
func (e *Engine) ApplyTextEdit(ctx context.Context, offset, removed int, inserted string) (int, error) {
	if offset < 0 || removed < 0 {
		return 0, fmt.Errorf("%w: invalid edit range offset=%d removed=%d", domain.ErrInvalidFormat, offset, removed)
	}
	end := offset + removed
	delta := len(inserted) - removed
	now := e.now()

	e.markersMu.Lock()
	if e.hasContent {
		if end > len(e.content) {
			e.markersMu.Unlock()
			return 0, fmt.Errorf("%w: edit range %d..%d exceeds content length %d", domain.ErrInvalidFormat, offset, end, len(e.content))
		}
		e.content = e.content[:offset] + inserted + e.content[end:]
	}
	moved := 0
	for _, ix := range e.markers {
		pos := ix.marker.Position
		next := pos
		switch {
		case pos >= end:
			next = clampPosition(pos + delta)
		case pos > offset:
			next = offset
		}
		if next != pos {
			ix.marker.Position = next
			ix.marker.ModifiedAt = now
			moved++
		}
	}
	e.markersMu.Unlock()

	if moved > 0 {
		e.emitMutation(ctx, domain.MutationMarkersMoved, "", "", moved)
	}
	return moved, nil
}
