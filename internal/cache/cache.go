package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/ppiankov/lexigraph/internal/model"
)

// Cache stores gloss lookup responses
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration) error
	Delete(key string) error
	Clear() error
}

// Key derives a stable cache key for a provider's answer about a lemma
func Key(provider, lemma string) string {
	hash := sha256.Sum256([]byte(provider + "\x00" + lemma))
	return "lexigraph:v1:" + hex.EncodeToString(hash[:])
}

// New builds the cache described by cfg: nil when disabled, memory only
// when no directory is set, memory in front of disk otherwise
func New(cfg model.CacheConfig) Cache {
	if !cfg.Enabled {
		return nil
	}
	if cfg.Dir == "" {
		return NewMemoryCache(cfg.MemoryTTL, 10*time.Minute)
	}
	return NewLayeredCache(
		NewMemoryCache(cfg.MemoryTTL, 10*time.Minute),
		NewDiskCache(cfg.Dir, cfg.DiskTTL),
	)
}
