package middleware

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aretw0/questscribe/pkg/domain"
	"github.com/aretw0/questscribe/pkg/ports"
)

// EncryptionConfig holds the keys for encryption and decryption.
type EncryptionConfig struct {
	// ActiveKey is the key used for encrypting new data.
	// Must be 32 bytes for AES-256.
	ActiveKey []byte

	// FallbackKeys is a list of old keys to try when decryption fails.
	// This enables zero-downtime key rotation.
	FallbackKeys [][]byte
}

// envelopePrefix tags the content of an encrypted envelope document.
const envelopePrefix = "qs-enc:v1:"

type encryptionMiddleware struct {
	next   ports.DocumentStore
	config EncryptionConfig
}

// NewEncryptionMiddleware creates a middleware that encrypts documents using AES-GCM (Envelope Encryption).
func NewEncryptionMiddleware(config EncryptionConfig) Middleware {
	if len(config.ActiveKey) != 32 {
		panic("active key must be 32 bytes (AES-256)")
	}
	return func(next ports.DocumentStore) ports.DocumentStore {
		return &encryptionMiddleware{
			next:   next,
			config: config,
		}
	}
}

func (m *encryptionMiddleware) Save(ctx context.Context, name string, doc *domain.Document) error {
	plainText, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to marshal document: %w", err)
	}

	ciphertext, err := encrypt(plainText, m.config.ActiveKey)
	if err != nil {
		return fmt.Errorf("failed to encrypt document: %w", err)
	}

	// The envelope hides text, entities and markers alike.
	envelope := &domain.Document{
		Content:  envelopePrefix + base64.StdEncoding.EncodeToString(ciphertext),
		Entities: []domain.Entity{},
		Markers:  []domain.Marker{},
	}
	return m.next.Save(ctx, name, envelope)
}

func (m *encryptionMiddleware) Load(ctx context.Context, name string) (*domain.Document, error) {
	envelope, err := m.next.Load(ctx, name)
	if err != nil {
		return nil, err
	}

	encoded, ok := strings.CutPrefix(envelope.Content, envelopePrefix)
	if !ok {
		// Fail secure: a plain document in an encrypted store is rejected.
		return nil, fmt.Errorf("%w: document is missing encrypted data envelope", domain.ErrInvalidFormat)
	}

	ciphertext, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to decode ciphertext base64: %v", domain.ErrInvalidFormat, err)
	}

	plainText, err := decryptWithRotation(ciphertext, m.config.ActiveKey, m.config.FallbackKeys)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt document: %w", err)
	}

	var doc domain.Document
	if err := json.Unmarshal(plainText, &doc); err != nil {
		return nil, fmt.Errorf("%w: failed to unmarshal decrypted document: %v", domain.ErrInvalidFormat, err)
	}
	return &doc, nil
}

func (m *encryptionMiddleware) Delete(ctx context.Context, name string) error {
	return m.next.Delete(ctx, name)
}

func (m *encryptionMiddleware) List(ctx context.Context) ([]string, error) {
	return m.next.List(ctx)
}

// Helpers

func encrypt(plaintext []byte, key []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}

	return gcm.Seal(nonce, nonce, plaintext, nil), nil
}

func decryptWithRotation(ciphertext []byte, activeKey []byte, fallbackKeys [][]byte) ([]byte, error) {
	// Try active key first
	if plain, err := decrypt(ciphertext, activeKey); err == nil {
		return plain, nil
	}

	// Try fallbacks in order
	for _, key := range fallbackKeys {
		if plain, err := decrypt(ciphertext, key); err == nil {
			return plain, nil
		}
	}

	return nil, errors.New("decryption failed with all available keys")
}

func decrypt(ciphertext []byte, key []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}

	if len(ciphertext) < gcm.NonceSize() {
		return nil, errors.New("ciphertext too short")
	}

	nonce := ciphertext[:gcm.NonceSize()]
	ciphertextBytes := ciphertext[gcm.NonceSize():]

	return gcm.Open(nil, nonce, ciphertextBytes, nil)
}
