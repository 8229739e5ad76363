package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix namespaces environment overrides: QS_STORE_KIND, QS_REDIS_ADDR, ...
const EnvPrefix = "QS"

// Load reads configuration. path may name a file or a directory holding
// questscribe.yaml; when empty the working directory and
// $HOME/.questscribe are searched. A missing file is not an error.
func Load(path string) (Config, error) {
	cfg := Default()

	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v, cfg)

	switch info, err := os.Stat(path); {
	case path == "":
		v.SetConfigName("questscribe")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(home + "/.questscribe")
		}
	case err == nil && info.IsDir():
		v.SetConfigName("questscribe")
		v.AddConfigPath(path)
	default:
		v.SetConfigFile(path)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !(path != "" && errors.Is(err, os.ErrNotExist)) {
			return cfg, fmt.Errorf("read config: %w", err)
		}
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("decode config: %w", err)
	}
	// Env lists are comma separated; drop blanks and surrounding spaces.
	cfg.Redact.Patterns = splitList(cfg.Redact.Patterns)
	cfg.Encryption.FallbackKeys = splitList(cfg.Encryption.FallbackKeys)

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// setDefaults registers every key so AutomaticEnv can override it during Unmarshal.
func setDefaults(v *viper.Viper, cfg Config) {
	v.SetDefault("document", cfg.Document)
	v.SetDefault("store.kind", cfg.Store.Kind)
	v.SetDefault("store.path", cfg.Store.Path)
	v.SetDefault("store.format", cfg.Store.Format)
	v.SetDefault("redis.addr", cfg.Redis.Addr)
	v.SetDefault("redis.password", cfg.Redis.Password)
	v.SetDefault("redis.db", cfg.Redis.DB)
	v.SetDefault("redis.prefix", cfg.Redis.Prefix)
	v.SetDefault("redis.ttl", cfg.Redis.TTL)
	v.SetDefault("http.port", cfg.HTTP.Port)
	v.SetDefault("log.level", cfg.Log.Level)
	v.SetDefault("encryption.key", cfg.Encryption.Key)
	v.SetDefault("encryption.fallback_keys", []string{})
	v.SetDefault("redact.patterns", []string{})
}

func splitList(in []string) []string {
	var out []string
	for _, item := range in {
		for _, part := range strings.Split(item, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
