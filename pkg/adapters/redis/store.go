package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/aretw0/questscribe/pkg/domain"
	backend "github.com/redis/go-redis/v9"
)

// DefaultPrefix namespaces every key written by the store.
const DefaultPrefix = "questscribe:doc:"

// noExpiryScore is the index score of documents saved without TTL (2100-01-01).
const noExpiryScore = 4102444800

// Store implements ports.DocumentStore using Redis.
// Documents are JSON strings; a sorted set indexes names by expiry time.
type Store struct {
	client *backend.Client
	prefix string
	ttl    time.Duration
	now    func() time.Time
}

// Option configures the Store.
type Option func(*Store)

// WithTTL sets the expiration for documents.
func WithTTL(ttl time.Duration) Option {
	return func(s *Store) {
		s.ttl = ttl
	}
}

// WithPrefix sets the key prefix for documents.
func WithPrefix(prefix string) Option {
	return func(s *Store) {
		s.prefix = prefix
	}
}

// WithClock sets the time source used to score the index.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// New creates a new Redis store with options.
func New(address, password string, db int, opts ...Option) *Store {
	rdb := backend.NewClient(&backend.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	})
	return NewFromClient(rdb, opts...)
}

// NewFromClient creates a new Redis store from an existing client.
func NewFromClient(client *backend.Client, opts ...Option) *Store {
	store := &Store{
		client: client,
		prefix: DefaultPrefix,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(store)
	}
	return store
}

// Client exposes the underlying client so a Locker can share the connection.
func (s *Store) Client() *backend.Client {
	return s.client
}

func (s *Store) key(name string) string {
	return s.prefix + name
}

func (s *Store) indexKey() string {
	return s.prefix + "index"
}

// Save persists the document and refreshes its index entry.
func (s *Store) Save(ctx context.Context, name string, doc *domain.Document) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to marshal document: %w", err)
	}

	score := float64(s.now().Add(s.ttl).Unix())
	if s.ttl == 0 {
		score = noExpiryScore
	}

	pipe := s.client.Pipeline()
	pipe.Set(ctx, s.key(name), data, s.ttl)
	pipe.ZAdd(ctx, s.indexKey(), backend.Z{Score: score, Member: name})
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("%w: failed to save to redis: %v", domain.ErrIOFailure, err)
	}
	return nil
}

// Load retrieves the document from Redis.
func (s *Store) Load(ctx context.Context, name string) (*domain.Document, error) {
	val, err := s.client.Get(ctx, s.key(name)).Bytes()
	if err != nil {
		if errors.Is(err, backend.Nil) {
			return nil, fmt.Errorf("%w: %s", domain.ErrDocumentNotFound, name)
		}
		return nil, fmt.Errorf("%w: failed to get from redis: %v", domain.ErrIOFailure, err)
	}

	var doc domain.Document
	if err := json.Unmarshal(val, &doc); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", domain.ErrInvalidFormat, name, err)
	}
	return &doc, nil
}

// Delete removes the document and its index entry.
func (s *Store) Delete(ctx context.Context, name string) error {
	pipe := s.client.Pipeline()
	pipe.Del(ctx, s.key(name))
	pipe.ZRem(ctx, s.indexKey(), name)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("%w: failed to delete from redis: %v", domain.ErrIOFailure, err)
	}
	return nil
}

// List returns the live document names. Expired entries are pruned from the index lazily.
func (s *Store) List(ctx context.Context) ([]string, error) {
	now := float64(s.now().Unix())
	if err := s.client.ZRemRangeByScore(ctx, s.indexKey(), "-inf", fmt.Sprintf("%f", now)).Err(); err != nil {
		return nil, fmt.Errorf("%w: failed to prune expired documents: %v", domain.ErrIOFailure, err)
	}

	names, err := s.client.ZRange(ctx, s.indexKey(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: failed to list documents: %v", domain.ErrIOFailure, err)
	}
	return names, nil
}

// Close closes the redis client.
func (s *Store) Close() error {
	return s.client.Close()
}
