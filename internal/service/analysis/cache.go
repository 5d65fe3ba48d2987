package analysis

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// CachedSuggestion is the redis payload for one analyzed position.
type CachedSuggestion struct {
	Token      string `json:"token"`
	Ponder     string `json:"ponder,omitempty"`
	Depth      int    `json:"depth"`
	Nodes      int64  `json:"nodes,omitempty"`
	TimeMillis int64  `json:"time_ms,omitempty"`
}

// SuggestionCache keys engine replies by position so repeated queries of the
// same board skip the subprocess round trip. A nil redis client disables the
// cache entirely; every lookup is then a miss.
type SuggestionCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewSuggestionCache(rdb *redis.Client, ttl time.Duration) *SuggestionCache {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &SuggestionCache{rdb: rdb, ttl: ttl}
}

// key hashes the FEN so arbitrary position strings stay within redis key
// length conventions.
func (c *SuggestionCache) key(fen string, depth int) string {
	sum := sha256.Sum256([]byte(fen))
	return fmt.Sprintf("xq:suggest:%s:%d", hex.EncodeToString(sum[:16]), depth)
}

// Get returns the cached suggestion for the position, or nil on a miss.
func (c *SuggestionCache) Get(ctx context.Context, fen string, depth int) (*CachedSuggestion, error) {
	if c == nil || c.rdb == nil {
		return nil, nil
	}
	raw, err := c.rdb.Get(ctx, c.key(fen, depth)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("cache get: %w", err)
	}
	var s CachedSuggestion
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("cache decode: %w", err)
	}
	return &s, nil
}

// Put stores the suggestion with the configured TTL.
func (c *SuggestionCache) Put(ctx context.Context, fen string, depth int, s *CachedSuggestion) error {
	if c == nil || c.rdb == nil || s == nil {
		return nil
	}
	raw, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("cache encode: %w", err)
	}
	if err := c.rdb.Set(ctx, c.key(fen, depth), raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("cache set: %w", err)
	}
	return nil
}
