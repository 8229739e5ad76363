// Package input cleans text arriving from outer surfaces (HTTP, MCP, CLI)
// before it reaches the engine.
package input

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/aretw0/questscribe/pkg/domain"
)

var (
	// DefaultMaxInputSize applies to names, descriptions and change payloads.
	DefaultMaxInputSize = 4096
	// DefaultMaxDocumentSize applies to whole document text.
	DefaultMaxDocumentSize = 8 << 20

	// EnvMaxInputSize overrides DefaultMaxInputSize.
	EnvMaxInputSize = "QS_MAX_INPUT_SIZE"
	// EnvMaxDocumentSize overrides DefaultMaxDocumentSize.
	EnvMaxDocumentSize = "QS_MAX_DOCUMENT_SIZE"
)

var (
	ErrInputTooLarge = fmt.Errorf("%w: input exceeds maximum allowed size", domain.ErrInvalidFormat)
	ErrInvalidUTF8   = fmt.Errorf("%w: input contains invalid UTF-8 sequences", domain.ErrInvalidFormat)
)

// Sanitize cleans a short field by enforcing the input size limit,
// validating UTF-8 and stripping control characters other than \n, \t and \r.
// Oversized input is rejected, never truncated.
func Sanitize(s string) (string, error) {
	return sanitize(s, limitFromEnv(EnvMaxInputSize, DefaultMaxInputSize))
}

// SanitizeDocument is Sanitize with the document size limit.
func SanitizeDocument(s string) (string, error) {
	return sanitize(s, limitFromEnv(EnvMaxDocumentSize, DefaultMaxDocumentSize))
}

// SanitizeChanges sanitizes field names and payloads in place.
func SanitizeChanges(changes []domain.ChangeRecord) error {
	for i := range changes {
		field, err := Sanitize(changes[i].FieldName)
		if err != nil {
			return fmt.Errorf("field_name: %w", err)
		}
		value, err := Sanitize(changes[i].Value)
		if err != nil {
			return fmt.Errorf("value of %q: %w", field, err)
		}
		changes[i].FieldName = field
		changes[i].Value = value
	}
	return nil
}

func sanitize(s string, limit int) (string, error) {
	if len(s) > limit {
		return "", fmt.Errorf("%w: size=%d limit=%d", ErrInputTooLarge, len(s), limit)
	}
	if !utf8.ValidString(s) {
		return "", ErrInvalidUTF8
	}

	clean := true
	for _, r := range s {
		if unsafeControl(r) {
			clean = false
			break
		}
	}
	if clean {
		return s, nil
	}

	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if !unsafeControl(r) {
			b.WriteRune(r)
		}
	}
	return b.String(), nil
}

func unsafeControl(r rune) bool {
	return unicode.IsControl(r) && r != '\n' && r != '\t' && r != '\r'
}

func limitFromEnv(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		if size, err := strconv.Atoi(val); err == nil && size > 0 {
			return size
		}
	}
	return fallback
}
