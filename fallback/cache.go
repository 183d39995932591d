package fallback

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"sync"
	"time"

	"casequery-backend/models"

	"github.com/google/uuid"
)

// answerKeyPrefix namespaces every cached answer so a reload can purge them together.
const answerKeyPrefix = "answer:"

// AnswerCache stores generated answers. Get returns ErrCacheMiss for absent or expired keys.
type AnswerCache interface {
	Get(ctx context.Context, key string) (models.Answer, error)
	Set(ctx context.Context, key string, answer models.Answer, ttl time.Duration) error
	DeleteByPrefix(ctx context.Context, prefix string) error
}

// CacheKey derives the key for a normalized question against a dataset version.
// Phrasings that normalize identically share an entry; a new dataset version never sees old entries.
func CacheKey(normalized string, version uuid.UUID) string {
	sum := sha256.Sum256([]byte(version.String() + "\x00" + normalized))
	return answerKeyPrefix + hex.EncodeToString(sum[:])
}

// PurgeAnswers drops every cached answer.
func PurgeAnswers(ctx context.Context, cache AnswerCache) error {
	return cache.DeleteByPrefix(ctx, answerKeyPrefix)
}

type memoryEntry struct {
	answer    models.Answer
	expiresAt time.Time
}

// MemoryCache is a process-local AnswerCache. Expired entries are dropped lazily.
type MemoryCache struct {
	mu      sync.RWMutex
	data    map[string]memoryEntry
	maxSize int
	now     func() time.Time
}

// NewMemoryCache creates a cache holding at most maxSize entries (10000 when non-positive).
func NewMemoryCache(maxSize int) *MemoryCache {
	if maxSize <= 0 {
		maxSize = 10000
	}
	return &MemoryCache{
		data:    make(map[string]memoryEntry),
		maxSize: maxSize,
		now:     time.Now,
	}
}

// Get implements AnswerCache.
func (c *MemoryCache) Get(ctx context.Context, key string) (models.Answer, error) {
	c.mu.RLock()
	entry, ok := c.data[key]
	c.mu.RUnlock()

	if !ok || !c.now().Before(entry.expiresAt) {
		return models.Answer{}, ErrCacheMiss
	}
	return entry.answer, nil
}

// Set implements AnswerCache. When full, expired entries go first, then the one closest to expiry.
func (c *MemoryCache) Set(ctx context.Context, key string, answer models.Answer, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if _, exists := c.data[key]; !exists && len(c.data) >= c.maxSize {
		c.evict(now)
	}
	c.data[key] = memoryEntry{answer: answer, expiresAt: now.Add(ttl)}
	return nil
}

// DeleteByPrefix implements AnswerCache.
func (c *MemoryCache) DeleteByPrefix(ctx context.Context, prefix string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for key := range c.data {
		if strings.HasPrefix(key, prefix) {
			delete(c.data, key)
		}
	}
	return nil
}

// Len returns the number of stored entries, expired ones included.
func (c *MemoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.data)
}

func (c *MemoryCache) evict(now time.Time) {
	var oldestKey string
	var oldest time.Time
	for key, entry := range c.data {
		if !now.Before(entry.expiresAt) {
			delete(c.data, key)
			continue
		}
		if oldestKey == "" || entry.expiresAt.Before(oldest) {
			oldestKey, oldest = key, entry.expiresAt
		}
	}
	if len(c.data) >= c.maxSize && oldestKey != "" {
		delete(c.data, oldestKey)
	}
}
