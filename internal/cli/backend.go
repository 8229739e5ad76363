package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/aretw0/questscribe/internal/adapters/file"
	"github.com/aretw0/questscribe/internal/config"
	"github.com/aretw0/questscribe/pkg/adapters/loam"
	"github.com/aretw0/questscribe/pkg/adapters/memory"
	"github.com/aretw0/questscribe/pkg/adapters/redis"
	"github.com/aretw0/questscribe/pkg/adapters/sqlite"
	"github.com/aretw0/questscribe/pkg/domain"
	"github.com/aretw0/questscribe/pkg/persistence/middleware"
	"github.com/aretw0/questscribe/pkg/ports"
)

// sqliteFile names the database inside store.path when the path is a directory.
const sqliteFile = "questscribe.db"

// Backend is the document store selected by configuration, wrapped with the
// configured middlewares, plus the distributed locker when the store has one.
type Backend struct {
	Store  ports.DocumentStore
	Locker ports.DistributedLocker
	closer func() error
}

// Close releases connections held by the underlying store.
func (b *Backend) Close() error {
	if b.closer == nil {
		return nil
	}
	return b.closer()
}

// OpenBackend builds the store named by cfg.Store.Kind. Redaction runs before
// encryption so masked values never reach the envelope in clear.
func OpenBackend(cfg config.Config) (*Backend, error) {
	b := &Backend{}

	switch cfg.Store.Kind {
	case config.StoreMemory:
		b.Store = memory.NewStore()
	case config.StoreFile:
		b.Store = file.New(cfg.Store.Path, file.WithFormat(file.Format(cfg.Store.Format)))
	case config.StoreRedis:
		opts := []redis.Option{redis.WithPrefix(cfg.Redis.Prefix)}
		if cfg.Redis.TTL > 0 {
			opts = append(opts, redis.WithTTL(cfg.Redis.TTL))
		}
		rs := redis.New(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, opts...)
		b.Store = rs
		b.Locker = redis.NewLocker(rs.Client(), strings.TrimSuffix(cfg.Redis.Prefix, "doc:"))
		b.closer = rs.Close
	case config.StoreSQLite:
		path, err := sqlitePath(cfg.Store.Path)
		if err != nil {
			return nil, err
		}
		ss, err := sqlite.Open(path)
		if err != nil {
			return nil, err
		}
		b.Store = ss
		b.closer = ss.Close
	case config.StoreLoam:
		ls, err := loam.Open(cfg.Store.Path)
		if err != nil {
			return nil, err
		}
		b.Store = ls
	default:
		return nil, fmt.Errorf("%w: unknown store kind %q", domain.ErrUnsupportedFormat, cfg.Store.Kind)
	}

	var mws []middleware.Middleware
	if len(cfg.Redact.Patterns) > 0 {
		mws = append(mws, middleware.NewRedactionMiddleware(cfg.Redact.Patterns))
	}
	active, fallback, err := cfg.Encryption.Keys()
	if err != nil {
		return nil, errors.Join(err, b.Close())
	}
	if active != nil {
		mws = append(mws, middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{
			ActiveKey:    active,
			FallbackKeys: fallback,
		}))
	}
	b.Store = middleware.Chain(b.Store, mws...)
	return b, nil
}

// sqlitePath resolves store.path to a database file, creating its directory.
func sqlitePath(path string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".db", ".sqlite", ".sqlite3":
	default:
		path = filepath.Join(path, sqliteFile)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrIOFailure, err)
	}
	return path, nil
}
