// Package history keeps the ordered list of query results in step with the
// persisted store.
//
// Every mutating operation writes the complete updated sequence to the store
// before it changes the in-memory copy. A failed write leaves both sides as
// they were, so no operation returns while the two disagree.
package history

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/doeshing/mathool/internal/domain"
	"github.com/doeshing/mathool/internal/pkg/logger"
	"github.com/doeshing/mathool/internal/ports"
)

// History is the in-memory result sequence plus the current result.
type History struct {
	store  ports.KeyValueStore
	key    string
	strict bool
	newID  func() string
	logger ports.Logger

	mu       sync.Mutex
	entries  []domain.ResultRecord
	current  *domain.ResultRecord
	hydrated bool
}

// Option customizes a History.
type Option func(*History)

// WithKey sets the store key (default "Results").
func WithKey(key string) Option {
	return func(h *History) {
		if key != "" {
			h.key = key
		}
	}
}

// WithStrictHydration makes Hydrate fail on a corrupt persisted value instead
// of starting empty.
func WithStrictHydration(strict bool) Option {
	return func(h *History) {
		h.strict = strict
	}
}

// WithIDGenerator replaces the UUID generator.
func WithIDGenerator(newID func() string) Option {
	return func(h *History) {
		if newID != nil {
			h.newID = newID
		}
	}
}

// WithLogger routes hydration diagnostics to log.
func WithLogger(log ports.Logger) Option {
	return func(h *History) {
		if log != nil {
			h.logger = log
		}
	}
}

// New creates an empty history backed by store. Call Hydrate once before use
// to load the persisted sequence.
func New(store ports.KeyValueStore, opts ...Option) *History {
	h := &History{
		store:  store,
		key:    domain.DefaultHistoryKey,
		newID:  uuid.NewString,
		logger: logger.Discard(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Key returns the store key the history is persisted under.
func (h *History) Key() string {
	return h.key
}

// Hydrate loads the persisted sequence. Only the first call reads the store.
// An absent key leaves the history empty. An undecodable value also leaves it
// empty (with a warning) unless strict hydration is on, in which case
// domain.ErrCorruptHistory is returned. Records persisted without an ID get
// one, and the sequence is written back so store and memory agree.
func (h *History) Hydrate(ctx context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.hydrated {
		return nil
	}

	raw, ok, err := h.store.Get(ctx, h.key)
	if err != nil {
		return fmt.Errorf("read history: %w", err)
	}
	h.hydrated = true
	if !ok {
		return nil
	}

	var records []domain.ResultRecord
	if err := json.Unmarshal(raw, &records); err != nil {
		if h.strict {
			return fmt.Errorf("%w: %w", domain.ErrCorruptHistory, err)
		}
		h.logger.Warn("ignoring unreadable history", map[string]interface{}{
			"key":   h.key,
			"error": err.Error(),
		})
		return nil
	}

	assigned := 0
	for i := range records {
		if records[i].ID == "" {
			records[i].ID = h.newID()
			assigned++
		}
	}
	if assigned > 0 {
		if err := h.persist(ctx, records); err != nil {
			return err
		}
		h.logger.Info("assigned ids to legacy history records", map[string]interface{}{"count": assigned})
	}
	h.entries = records
	return nil
}

// Append adds record at the end, persists, and makes it the current result.
// A record without an ID gets a fresh one. The stored copy is returned.
func (h *History) Append(ctx context.Context, record domain.ResultRecord) (domain.ResultRecord, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	rec := record.Clone()
	if rec.ID == "" {
		rec.ID = h.newID()
	}

	next := make([]domain.ResultRecord, len(h.entries), len(h.entries)+1)
	copy(next, h.entries)
	next = append(next, rec)
	if err := h.persist(ctx, next); err != nil {
		return domain.ResultRecord{}, err
	}

	h.entries = next
	current := rec.Clone()
	h.current = &current
	return rec.Clone(), nil
}

// UpdateAt applies patch to the entry at index and persists. Only the patch's
// set fields change; the number, the ID, and all other entries stay as they
// were. An index outside the sequence yields domain.ErrIndexOutOfRange.
func (h *History) UpdateAt(ctx context.Context, index int, patch domain.ResultPatch) (domain.ResultRecord, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if index < 0 || index >= len(h.entries) {
		return domain.ResultRecord{}, fmt.Errorf("%w: %d (have %d)", domain.ErrIndexOutOfRange, index, len(h.entries))
	}
	return h.updateLocked(ctx, index, patch)
}

// UpdateByID is UpdateAt addressed by stable identity. It yields
// domain.ErrStaleEntry when no entry carries id, e.g. after a clear.
func (h *History) UpdateByID(ctx context.Context, id string, patch domain.ResultPatch) (domain.ResultRecord, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	index := h.indexOfLocked(id)
	if index < 0 {
		return domain.ResultRecord{}, fmt.Errorf("%w: %s", domain.ErrStaleEntry, id)
	}
	return h.updateLocked(ctx, index, patch)
}

func (h *History) updateLocked(ctx context.Context, index int, patch domain.ResultPatch) (domain.ResultRecord, error) {
	if patch.Empty() {
		return h.entries[index].Clone(), nil
	}

	next := make([]domain.ResultRecord, len(h.entries))
	copy(next, h.entries)
	next[index] = patch.Apply(h.entries[index])
	if err := h.persist(ctx, next); err != nil {
		return domain.ResultRecord{}, err
	}

	h.entries = next
	if h.current != nil && h.current.ID == next[index].ID {
		current := next[index].Clone()
		h.current = &current
	}
	return next[index].Clone(), nil
}

// Clear empties the sequence, removes the persisted key, and clears the
// current result.
func (h *History) Clear(ctx context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if err := h.store.Remove(ctx, h.key); err != nil {
		return fmt.Errorf("remove history: %w", err)
	}
	h.entries = nil
	h.current = nil
	return nil
}

// Entries returns a copy of the sequence in insertion order.
func (h *History) Entries() []domain.ResultRecord {
	h.mu.Lock()
	defer h.mu.Unlock()

	out := make([]domain.ResultRecord, len(h.entries))
	for i, rec := range h.entries {
		out[i] = rec.Clone()
	}
	return out
}

// At returns the entry at index.
func (h *History) At(index int) (domain.ResultRecord, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if index < 0 || index >= len(h.entries) {
		return domain.ResultRecord{}, fmt.Errorf("%w: %d (have %d)", domain.ErrIndexOutOfRange, index, len(h.entries))
	}
	return h.entries[index].Clone(), nil
}

// Len returns the number of entries.
func (h *History) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.entries)
}

// Empty reports whether the history is in the Empty state.
func (h *History) Empty() bool {
	return h.Len() == 0
}

// Current returns the result most recently appended in this process.
func (h *History) Current() (domain.ResultRecord, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.current == nil {
		return domain.ResultRecord{}, false
	}
	return h.current.Clone(), true
}

func (h *History) indexOfLocked(id string) int {
	if id == "" {
		return -1
	}
	for i, rec := range h.entries {
		if rec.ID == id {
			return i
		}
	}
	return -1
}

func (h *History) persist(ctx context.Context, records []domain.ResultRecord) error {
	raw, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("encode history: %w", err)
	}
	if err := h.store.Set(ctx, h.key, raw); err != nil {
		return fmt.Errorf("write history: %w", err)
	}
	return nil
}
