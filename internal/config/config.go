// Package config loads questscribe settings from questscribe.yaml and QS_
// environment variables.
package config

import (
	"encoding/base64"
	"fmt"
	"slices"
	"time"
)

// Store kinds.
const (
	StoreFile   = "file"
	StoreMemory = "memory"
	StoreRedis  = "redis"
	StoreSQLite = "sqlite"
	StoreLoam   = "loam"
)

var storeKinds = []string{StoreFile, StoreMemory, StoreRedis, StoreSQLite, StoreLoam}

// Config is the full application configuration.
type Config struct {
	// Document is the default document name used by the CLI.
	Document   string           `mapstructure:"document"`
	Store      StoreConfig      `mapstructure:"store"`
	Redis      RedisConfig      `mapstructure:"redis"`
	HTTP       HTTPConfig       `mapstructure:"http"`
	Log        LogConfig        `mapstructure:"log"`
	Encryption EncryptionConfig `mapstructure:"encryption"`
	Redact     RedactConfig     `mapstructure:"redact"`
}

type StoreConfig struct {
	Kind   string `mapstructure:"kind"`
	Path   string `mapstructure:"path"`
	Format string `mapstructure:"format"`
}

type RedisConfig struct {
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	Prefix   string        `mapstructure:"prefix"`
	TTL      time.Duration `mapstructure:"ttl"`
}

type HTTPConfig struct {
	Port int `mapstructure:"port"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

// EncryptionConfig holds base64 AES-256 keys. An empty Key disables encryption.
type EncryptionConfig struct {
	Key          string   `mapstructure:"key"`
	FallbackKeys []string `mapstructure:"fallback_keys"`
}

type RedactConfig struct {
	Patterns []string `mapstructure:"patterns"`
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	return Config{
		Document: "default",
		Store: StoreConfig{
			Kind:   StoreFile,
			Path:   ".questscribe/documents",
			Format: "json",
		},
		Redis: RedisConfig{
			Addr:   "localhost:6379",
			Prefix: "questscribe:doc:",
		},
		HTTP: HTTPConfig{Port: 8080},
		Log:  LogConfig{Level: "info"},
	}
}

// Validate checks enumerations and key material.
func (c Config) Validate() error {
	if !slices.Contains(storeKinds, c.Store.Kind) {
		return fmt.Errorf("store.kind %q is not one of %v", c.Store.Kind, storeKinds)
	}
	if c.Store.Format != "json" && c.Store.Format != "yaml" {
		return fmt.Errorf("store.format %q must be json or yaml", c.Store.Format)
	}
	if c.HTTP.Port < 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port %d out of range", c.HTTP.Port)
	}
	if _, _, err := c.Encryption.Keys(); err != nil {
		return err
	}
	return nil
}

// Keys decodes the active and fallback keys. active is nil when encryption is off.
func (e EncryptionConfig) Keys() (active []byte, fallback [][]byte, err error) {
	if e.Key == "" {
		return nil, nil, nil
	}
	active, err = decodeKey("encryption.key", e.Key)
	if err != nil {
		return nil, nil, err
	}
	for i, k := range e.FallbackKeys {
		key, err := decodeKey(fmt.Sprintf("encryption.fallback_keys[%d]", i), k)
		if err != nil {
			return nil, nil, err
		}
		fallback = append(fallback, key)
	}
	return active, fallback, nil
}

func decodeKey(name, encoded string) ([]byte, error) {
	key, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("%s is not valid base64: %w", name, err)
	}
	if len(key) != 32 {
		return nil, fmt.Errorf("%s must decode to 32 bytes, got %d", name, len(key))
	}
	return key, nil
}
