package middleware

import (
	"context"
	"regexp"

	"github.com/aretw0/questscribe/pkg/domain"
	"github.com/aretw0/questscribe/pkg/ports"
)

// RedactedValue replaces the payload of masked change records.
const RedactedValue = "***"

type redactionMiddleware struct {
	next     ports.DocumentStore
	patterns []*regexp.Regexp
}

// NewRedactionMiddleware creates a middleware that masks the payload of every change
// record whose field path matches one of the patterns. Masking happens on save only;
// the in-memory working set is never touched.
func NewRedactionMiddleware(patternStrings []string) Middleware {
	patterns := make([]*regexp.Regexp, len(patternStrings))
	for i, p := range patternStrings {
		patterns[i] = regexp.MustCompile(p)
	}
	return func(next ports.DocumentStore) ports.DocumentStore {
		return &redactionMiddleware{next: next, patterns: patterns}
	}
}

func (m *redactionMiddleware) Save(ctx context.Context, name string, doc *domain.Document) error {
	cloned := doc.Clone()
	for i := range cloned.Markers {
		changes := cloned.Markers[i].Changes
		for j := range changes {
			if changes[j].ChangeType != domain.ChangeRemove && m.matches(changes[j].FieldName) {
				changes[j].Value = RedactedValue
			}
		}
	}
	return m.next.Save(ctx, name, cloned)
}

func (m *redactionMiddleware) matches(field string) bool {
	for _, p := range m.patterns {
		if p.MatchString(field) {
			return true
		}
	}
	return false
}

func (m *redactionMiddleware) Load(ctx context.Context, name string) (*domain.Document, error) {
	return m.next.Load(ctx, name)
}

func (m *redactionMiddleware) Delete(ctx context.Context, name string) error {
	return m.next.Delete(ctx, name)
}

func (m *redactionMiddleware) List(ctx context.Context) ([]string, error) {
	return m.next.List(ctx)
}
