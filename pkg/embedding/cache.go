package embedding

import (
	"crypto/sha256"
	"encoding/hex"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// CachedProvider memoizes embeddings per (task type, text) pair. Query texts
// repeat heavily across turns, and embedding calls dominate search latency.
type CachedProvider struct {
	inner EmbeddingProvider
	cache *gocache.Cache
}

func NewCachedProvider(inner EmbeddingProvider, ttl time.Duration) *CachedProvider {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &CachedProvider{
		inner: inner,
		cache: gocache.New(ttl, 10*time.Minute),
	}
}

func (p *CachedProvider) Generate(text string, taskType string) (*EmbeddingResponse, error) {
	key := cacheKey(taskType, text)
	if cached, found := p.cache.Get(key); found {
		return cached.(*EmbeddingResponse), nil
	}

	res, err := p.inner.Generate(text, taskType)
	if err != nil {
		return nil, err
	}

	p.cache.Set(key, res, gocache.DefaultExpiration)
	return res, nil
}

func cacheKey(taskType, text string) string {
	sum := sha256.Sum256([]byte(taskType + "\x00" + text))
	return hex.EncodeToString(sum[:])
}
