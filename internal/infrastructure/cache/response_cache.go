// Package cache implements the response cache port using dgraph-io/ristretto
// as an in-process cache of successful dispatch results.
package cache

import (
	"encoding/json"
	"time"

	"github.com/dgraph-io/ristretto/v2"

	"github.com/doeshing/mathool/internal/domain"
	"github.com/doeshing/mathool/internal/ports"
)

const minCounters = 100

// ResponseCache keeps serialized result records keyed by mode and number.
type ResponseCache struct {
	c   *ristretto.Cache[string, []byte]
	ttl time.Duration
}

// NewResponseCache creates a cache. maxCostBytes is the maximum total size of
// cached values in bytes.
func NewResponseCache(maxCostBytes int64, ttl time.Duration) (*ResponseCache, error) {
	c, err := ristretto.NewCache(&ristretto.Config[string, []byte]{
		NumCounters: max(maxCostBytes/10, minCounters), // ~10x expected items
		MaxCost:     maxCostBytes,
		BufferItems: 64,
	})
	if err != nil {
		return nil, err
	}
	return &ResponseCache{c: c, ttl: ttl}, nil
}

// Get implements ports.ResponseCache. The returned record never carries an ID;
// identity belongs to the history entry, not to the cached answer.
func (r *ResponseCache) Get(mode domain.Mode, number domain.Number) (domain.ResultRecord, bool) {
	raw, found := r.c.Get(key(mode, number))
	if !found {
		return domain.ResultRecord{}, false
	}
	var rec domain.ResultRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		r.c.Del(key(mode, number))
		return domain.ResultRecord{}, false
	}
	return rec, true
}

// Set implements ports.ResponseCache. It waits for the write buffer to drain
// so a following Get observes the value.
func (r *ResponseCache) Set(mode domain.Mode, number domain.Number, record domain.ResultRecord) {
	record.ID = ""
	raw, err := json.Marshal(record)
	if err != nil {
		return
	}
	r.c.SetWithTTL(key(mode, number), raw, int64(len(raw)), r.ttl)
	r.c.Wait()
}

// Clear implements ports.ResponseCache.
func (r *ResponseCache) Clear() {
	r.c.Clear()
}

// Close shuts down the cache and releases resources.
func (r *ResponseCache) Close() {
	r.c.Close()
}

func key(mode domain.Mode, number domain.Number) string {
	return string(mode) + ":" + number.String()
}

var _ ports.ResponseCache = (*ResponseCache)(nil)
