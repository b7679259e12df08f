// Package config loads the YAML configuration used by the tendril CLI and server.
package config

import (
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"
)

// Storage backends.
const (
	BackendMemory = "memory"
	BackendFile   = "file"
	BackendRedis  = "redis"
	BackendBolt   = "bolt"
)

// Definition formats.
const (
	// FormatFiles reads YAML and JSON files, one component per file.
	FormatFiles = "files"
	// FormatLoam reads Markdown documents whose frontmatter is the definition.
	FormatLoam = "loam"
)

// ErrInvalidConfig wraps every validation failure.
var ErrInvalidConfig = errors.New("invalid config")

// Config is the root of tendril.yaml.
type Config struct {
	// Definitions is the directory component definitions are loaded from.
	Definitions string `yaml:"definitions" json:"definitions"`
	// Format selects how Definitions is read.
	Format  string        `yaml:"format" json:"format"`
	Log     LogConfig     `yaml:"log" json:"log"`
	Storage StorageConfig `yaml:"storage" json:"storage"`
	Server  ServerConfig  `yaml:"server" json:"server"`
	Script  ScriptConfig  `yaml:"script" json:"script"`
	// MaxDepth bounds nested component formula applications.
	MaxDepth int `yaml:"max_depth" json:"max_depth"`
}

type LogConfig struct {
	Level  string `yaml:"level" json:"level"`
	Format string `yaml:"format" json:"format"`
}

// StorageConfig selects the backend behind local (persistent) storage.
// Session storage is always in memory.
type StorageConfig struct {
	Backend string      `yaml:"backend" json:"backend"`
	Path    string      `yaml:"path" json:"path"`
	Bucket  string      `yaml:"bucket" json:"bucket"`
	Redis   RedisConfig `yaml:"redis" json:"redis"`

	// EncryptionKey is a hex-encoded 32-byte AES key. Empty disables encryption.
	EncryptionKey string `yaml:"encryption_key" json:"encryption_key"`
	// FallbackKeys are previous keys still accepted for reads.
	FallbackKeys []string `yaml:"fallback_keys" json:"fallback_keys"`
	// Mask lists field or key patterns whose values are never persisted.
	Mask []string `yaml:"mask" json:"mask"`
}

type RedisConfig struct {
	Addr     string        `yaml:"addr" json:"addr"`
	Password string        `yaml:"password" json:"password"`
	DB       int           `yaml:"db" json:"db"`
	Prefix   string        `yaml:"prefix" json:"prefix"`
	TTL      time.Duration `yaml:"ttl" json:"ttl"`
}

type ServerConfig struct {
	Addr    string `yaml:"addr" json:"addr"`
	Metrics bool   `yaml:"metrics" json:"metrics"`
	CORS    bool   `yaml:"cors" json:"cors"`
}

type ScriptConfig struct {
	Timeout time.Duration `yaml:"timeout" json:"timeout"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Definitions: ".",
		Format:      FormatFiles,
		Log:         LogConfig{Level: "info", Format: "text"},
		Storage: StorageConfig{
			Backend: BackendMemory,
			Redis:   RedisConfig{Addr: "localhost:6379"},
		},
		Server: ServerConfig{Addr: ":8080", Metrics: true},
		Script: ScriptConfig{Timeout: time.Second},
	}
}

// Load reads path over the defaults. An empty path returns the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return cfg, cfg.Validate()
}

// Validate checks backend selection and key material.
func (c Config) Validate() error {
	var errs []error
	switch c.Format {
	case FormatFiles, FormatLoam:
	default:
		errs = append(errs, fmt.Errorf("%w: unknown definition format %q", ErrInvalidConfig, c.Format))
	}
	switch c.Storage.Backend {
	case BackendMemory, BackendFile:
	case BackendBolt:
		if c.Storage.Path == "" {
			errs = append(errs, fmt.Errorf("%w: storage.path is required for bolt", ErrInvalidConfig))
		}
	case BackendRedis:
		if c.Storage.Redis.Addr == "" {
			errs = append(errs, fmt.Errorf("%w: storage.redis.addr is required", ErrInvalidConfig))
		}
	default:
		errs = append(errs, fmt.Errorf("%w: unknown storage backend %q", ErrInvalidConfig, c.Storage.Backend))
	}
	for _, p := range c.Storage.Mask {
		if _, err := regexp.Compile(p); err != nil {
			errs = append(errs, fmt.Errorf("%w: storage.mask %q: %v", ErrInvalidConfig, p, err))
		}
	}
	if _, _, err := c.Storage.Keys(); err != nil {
		errs = append(errs, err)
	}
	if c.Script.Timeout < 0 {
		errs = append(errs, fmt.Errorf("%w: script.timeout must not be negative", ErrInvalidConfig))
	}
	return errors.Join(errs...)
}

// Keys decodes the active and fallback encryption keys. A nil active key
// means encryption is off.
func (s StorageConfig) Keys() (active []byte, fallback [][]byte, err error) {
	if s.EncryptionKey == "" {
		if len(s.FallbackKeys) > 0 {
			return nil, nil, fmt.Errorf("%w: fallback_keys without encryption_key", ErrInvalidConfig)
		}
		return nil, nil, nil
	}
	if active, err = decodeKey("encryption_key", s.EncryptionKey); err != nil {
		return nil, nil, err
	}
	for i, k := range s.FallbackKeys {
		key, err := decodeKey(fmt.Sprintf("fallback_keys[%d]", i), k)
		if err != nil {
			return nil, nil, err
		}
		fallback = append(fallback, key)
	}
	return active, fallback, nil
}

func decodeKey(field, s string) ([]byte, error) {
	key, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("%w: storage.%s is not hex: %v", ErrInvalidConfig, field, err)
	}
	if len(key) != 32 {
		return nil, fmt.Errorf("%w: storage.%s must be 32 bytes, got %d", ErrInvalidConfig, field, len(key))
	}
	return key, nil
}
