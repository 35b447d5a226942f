package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/patrickmn/go-cache"
)

// EmbeddingMemo avoids redundant embedding-adapter calls for repeated text
// within one process lifetime, generalized from the teacher's
// internal/repository/memory/session_repository.go go-cache wrapper.
type EmbeddingMemo struct {
	cache *cache.Cache
}

func NewEmbeddingMemo(ttl time.Duration) *EmbeddingMemo {
	return &EmbeddingMemo{cache: cache.New(ttl, ttl*2)}
}

func (m *EmbeddingMemo) Get(text string) ([]float32, bool) {
	if v, found := m.cache.Get(memoKey(text)); found {
		return v.([]float32), true
	}
	return nil, false
}

func (m *EmbeddingMemo) Set(text string, embedding []float32) {
	m.cache.Set(memoKey(text), embedding, cache.DefaultExpiration)
}

func memoKey(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}
