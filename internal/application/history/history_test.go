package history

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/doeshing/mathool/internal/domain"
)

type fakeStore struct {
	values  map[string][]byte
	setErr  error
	getErr  error
	sets    int
	removes int
}

func newFakeStore() *fakeStore {
	return &fakeStore{values: make(map[string][]byte)}
}

func (f *fakeStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	if f.getErr != nil {
		return nil, false, f.getErr
	}
	v, ok := f.values[key]
	return v, ok, nil
}

func (f *fakeStore) Set(_ context.Context, key string, value []byte) error {
	if f.setErr != nil {
		return f.setErr
	}
	f.sets++
	f.values[key] = append([]byte(nil), value...)
	return nil
}

func (f *fakeStore) Remove(_ context.Context, key string) error {
	f.removes++
	delete(f.values, key)
	return nil
}

func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	}
}

func newTestHistory(t *testing.T, store *fakeStore, opts ...Option) *History {
	t.Helper()
	opts = append([]Option{WithIDGenerator(sequentialIDs())}, opts...)
	h := New(store, opts...)
	if err := h.Hydrate(context.Background()); err != nil {
		t.Fatalf("Hydrate error: %v", err)
	}
	return h
}

// persisted decodes what the store holds under the default key.
func persisted(t *testing.T, store *fakeStore) []domain.ResultRecord {
	t.Helper()
	raw, ok := store.values[domain.DefaultHistoryKey]
	if !ok {
		return nil
	}
	var records []domain.ResultRecord
	if err := json.Unmarshal(raw, &records); err != nil {
		t.Fatalf("persisted history undecodable: %v", err)
	}
	return records
}

func record(n uint64, prime *bool, factorial *string) domain.ResultRecord {
	return domain.ResultRecord{Number: domain.NewNumber(n), Prime: prime, Factorial: factorial}
}

func TestAppendKeepsOrderAndPersists(t *testing.T) {
	store := newFakeStore()
	h := newTestHistory(t, store)
	ctx := context.Background()

	for k := uint64(1); k <= 5; k++ {
		if _, err := h.Append(ctx, record(k, nil, nil)); err != nil {
			t.Fatalf("Append(%d) error: %v", k, err)
		}
		if diff := cmp.Diff(h.Entries(), persisted(t, store)); diff != "" {
			t.Fatalf("store diverged after append %d (-memory +store):\n%s", k, diff)
		}
	}

	entries := h.Entries()
	if len(entries) != 5 {
		t.Fatalf("len = %d, want 5", len(entries))
	}
	for i, rec := range entries {
		if rec.Number != domain.NewNumber(uint64(i+1)) {
			t.Errorf("entry %d has number %s", i, rec.Number)
		}
		if rec.ID != fmt.Sprintf("id-%d", i+1) {
			t.Errorf("entry %d has id %s", i, rec.ID)
		}
	}
}

func TestAppendSetsCurrent(t *testing.T) {
	h := newTestHistory(t, newFakeStore())

	if _, ok := h.Current(); ok {
		t.Fatal("fresh history has a current result")
	}

	want := record(7, domain.BoolPtr(true), domain.StringPtr("5040"))
	stored, err := h.Append(context.Background(), want)
	if err != nil {
		t.Fatalf("Append error: %v", err)
	}
	want.ID = "id-1"
	if diff := cmp.Diff(want, stored); diff != "" {
		t.Errorf("stored mismatch (-want +got):\n%s", diff)
	}

	current, ok := h.Current()
	if !ok {
		t.Fatal("no current result after append")
	}
	if diff := cmp.Diff(want, current); diff != "" {
		t.Errorf("current mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]domain.ResultRecord{want}, h.Entries()); diff != "" {
		t.Errorf("history mismatch (-want +got):\n%s", diff)
	}
}

func TestAppendKeepsGivenID(t *testing.T) {
	h := newTestHistory(t, newFakeStore())
	rec := record(3, nil, nil)
	rec.ID = "fixed"

	stored, err := h.Append(context.Background(), rec)
	if err != nil {
		t.Fatalf("Append error: %v", err)
	}
	if stored.ID != "fixed" {
		t.Errorf("id = %s, want fixed", stored.ID)
	}
}

func TestUpdateAtChangesOnlyTargetField(t *testing.T) {
	store := newFakeStore()
	h := newTestHistory(t, store)
	ctx := context.Background()

	for _, rec := range []domain.ResultRecord{
		record(4, domain.BoolPtr(false), domain.StringPtr("24")),
		record(10, nil, domain.StringPtr("3628800")),
		record(11, nil, nil),
	} {
		if _, err := h.Append(ctx, rec); err != nil {
			t.Fatalf("Append error: %v", err)
		}
	}
	before := h.Entries()

	updated, err := h.UpdateAt(ctx, 1, domain.PrimePatch(true))
	if err != nil {
		t.Fatalf("UpdateAt error: %v", err)
	}

	want := before[1]
	want.Prime = domain.BoolPtr(true)
	if diff := cmp.Diff(want, updated); diff != "" {
		t.Errorf("updated mismatch (-want +got):\n%s", diff)
	}

	after := h.Entries()
	if diff := cmp.Diff(before[0], after[0]); diff != "" {
		t.Errorf("entry 0 changed:\n%s", diff)
	}
	if diff := cmp.Diff(before[2], after[2]); diff != "" {
		t.Errorf("entry 2 changed:\n%s", diff)
	}
	if diff := cmp.Diff(after, persisted(t, store)); diff != "" {
		t.Errorf("store diverged (-memory +store):\n%s", diff)
	}
}

func TestUpdateAtOutOfRange(t *testing.T) {
	h := newTestHistory(t, newFakeStore())
	if _, err := h.Append(context.Background(), record(1, nil, nil)); err != nil {
		t.Fatalf("Append error: %v", err)
	}

	for _, index := range []int{-1, 1, 5} {
		_, err := h.UpdateAt(context.Background(), index, domain.PrimePatch(false))
		if !errors.Is(err, domain.ErrIndexOutOfRange) {
			t.Errorf("UpdateAt(%d) = %v, want ErrIndexOutOfRange", index, err)
		}
	}
}

func TestUpdateByIDAfterClearIsStale(t *testing.T) {
	store := newFakeStore()
	h := newTestHistory(t, store)
	ctx := context.Background()

	rec, err := h.Append(ctx, record(10, nil, nil))
	if err != nil {
		t.Fatalf("Append error: %v", err)
	}
	if err := h.Clear(ctx); err != nil {
		t.Fatalf("Clear error: %v", err)
	}
	if _, err := h.Append(ctx, record(20, nil, nil)); err != nil {
		t.Fatalf("Append error: %v", err)
	}

	_, err = h.UpdateByID(ctx, rec.ID, domain.PrimePatch(false))
	if !errors.Is(err, domain.ErrStaleEntry) {
		t.Fatalf("expected ErrStaleEntry, got %v", err)
	}
	entries := h.Entries()
	if len(entries) != 1 || entries[0].Prime != nil {
		t.Errorf("stale update leaked into %+v", entries)
	}
}

func TestUpdateRefreshesCurrent(t *testing.T) {
	h := newTestHistory(t, newFakeStore())
	ctx := context.Background()

	rec, err := h.Append(ctx, record(5, domain.BoolPtr(true), nil))
	if err != nil {
		t.Fatalf("Append error: %v", err)
	}
	if _, err := h.UpdateByID(ctx, rec.ID, domain.FactorialPatch("120")); err != nil {
		t.Fatalf("UpdateByID error: %v", err)
	}

	current, _ := h.Current()
	if current.Factorial == nil || *current.Factorial != "120" {
		t.Errorf("current not refreshed: %+v", current)
	}
}

func TestFailedPersistLeavesStateUnchanged(t *testing.T) {
	store := newFakeStore()
	h := newTestHistory(t, store)
	ctx := context.Background()

	if _, err := h.Append(ctx, record(1, nil, nil)); err != nil {
		t.Fatalf("Append error: %v", err)
	}
	before := h.Entries()
	store.setErr = errors.New("disk full")

	if _, err := h.Append(ctx, record(2, nil, nil)); err == nil {
		t.Fatal("expected append error")
	}
	if _, err := h.UpdateAt(ctx, 0, domain.PrimePatch(false)); err == nil {
		t.Fatal("expected update error")
	}

	if diff := cmp.Diff(before, h.Entries()); diff != "" {
		t.Errorf("memory changed despite failed writes:\n%s", diff)
	}
	if diff := cmp.Diff(before, persisted(t, store)); diff != "" {
		t.Errorf("store changed despite failed writes:\n%s", diff)
	}
	current, _ := h.Current()
	if current.Number != domain.NewNumber(1) {
		t.Errorf("current moved to %s", current.Number)
	}
}

func TestClearRemovesKeyAndNoResurrection(t *testing.T) {
	store := newFakeStore()
	h := newTestHistory(t, store)
	ctx := context.Background()

	if _, err := h.Append(ctx, record(3, domain.BoolPtr(true), nil)); err != nil {
		t.Fatalf("Append error: %v", err)
	}
	if err := h.Clear(ctx); err != nil {
		t.Fatalf("Clear error: %v", err)
	}

	if _, ok := store.values[domain.DefaultHistoryKey]; ok {
		t.Error("clear left the persisted key behind")
	}
	if !h.Empty() {
		t.Errorf("len = %d after clear", h.Len())
	}
	if _, ok := h.Current(); ok {
		t.Error("current survived clear")
	}

	fresh := New(store)
	if err := fresh.Hydrate(ctx); err != nil {
		t.Fatalf("Hydrate error: %v", err)
	}
	if !fresh.Empty() {
		t.Errorf("hydrate after clear resurrected %d entries", fresh.Len())
	}
}

func TestClearWhenEmptyStillRemovesKey(t *testing.T) {
	store := newFakeStore()
	h := newTestHistory(t, store)

	if err := h.Clear(context.Background()); err != nil {
		t.Fatalf("Clear error: %v", err)
	}
	if store.removes != 1 {
		t.Errorf("removes = %d, want 1", store.removes)
	}
}

func TestHydrate(t *testing.T) {
	tests := []struct {
		name      string
		stored    *string
		strict    bool
		wantErr   error
		wantLen   int
		wantSets  int
		wantFirst string
	}{
		{name: "absent key", stored: nil, wantLen: 0},
		{name: "records with ids", stored: domain.StringPtr(`[{"id":"a","number":7,"prime":true}]`), wantLen: 1, wantFirst: "a"},
		{name: "legacy records get ids", stored: domain.StringPtr(`[{"number":7,"prime":true,"factorial":"5040"},{"number":4}]`), wantLen: 2, wantSets: 1, wantFirst: "id-1"},
		{name: "corrupt falls back to empty", stored: domain.StringPtr(`{not json`), wantLen: 0},
		{name: "corrupt strict", stored: domain.StringPtr(`{not json`), strict: true, wantErr: domain.ErrCorruptHistory},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newFakeStore()
			if tt.stored != nil {
				store.values[domain.DefaultHistoryKey] = []byte(*tt.stored)
			}
			h := New(store, WithIDGenerator(sequentialIDs()), WithStrictHydration(tt.strict))

			err := h.Hydrate(context.Background())
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Hydrate = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Hydrate error: %v", err)
			}
			if h.Len() != tt.wantLen {
				t.Fatalf("len = %d, want %d", h.Len(), tt.wantLen)
			}
			if store.sets != tt.wantSets {
				t.Errorf("sets = %d, want %d", store.sets, tt.wantSets)
			}
			if tt.wantLen > 0 {
				first, _ := h.At(0)
				if first.ID != tt.wantFirst {
					t.Errorf("first id = %s, want %s", first.ID, tt.wantFirst)
				}
				if tt.wantSets > 0 {
					if diff := cmp.Diff(h.Entries(), persisted(t, store)); diff != "" {
						t.Errorf("store diverged after hydrate (-memory +store):\n%s", diff)
					}
				}
			}
		})
	}
}

func TestHydrateRunsOnce(t *testing.T) {
	store := newFakeStore()
	store.values[domain.DefaultHistoryKey] = []byte(`[{"id":"a","number":1}]`)
	h := New(store)
	ctx := context.Background()

	if err := h.Hydrate(ctx); err != nil {
		t.Fatalf("Hydrate error: %v", err)
	}
	store.values[domain.DefaultHistoryKey] = []byte(`[{"id":"a","number":1},{"id":"b","number":2}]`)
	if err := h.Hydrate(ctx); err != nil {
		t.Fatalf("second Hydrate error: %v", err)
	}
	if h.Len() != 1 {
		t.Errorf("second hydrate reloaded: len = %d", h.Len())
	}
}

func TestHydrateReadError(t *testing.T) {
	store := newFakeStore()
	store.getErr = errors.New("permission denied")

	if err := New(store).Hydrate(context.Background()); err == nil {
		t.Fatal("expected read error")
	}
}

func TestEntriesReturnsCopies(t *testing.T) {
	h := newTestHistory(t, newFakeStore())
	if _, err := h.Append(context.Background(), record(2, domain.BoolPtr(true), nil)); err != nil {
		t.Fatalf("Append error: %v", err)
	}

	entries := h.Entries()
	*entries[0].Prime = false

	again, _ := h.At(0)
	if !*again.Prime {
		t.Error("mutating a returned entry changed the history")
	}
}

func TestCustomKey(t *testing.T) {
	store := newFakeStore()
	h := newTestHistory(t, store, WithKey("Other"))
	if _, err := h.Append(context.Background(), record(1, nil, nil)); err != nil {
		t.Fatalf("Append error: %v", err)
	}
	if _, ok := store.values["Other"]; !ok {
		t.Error("history not stored under custom key")
	}
	if h.Key() != "Other" {
		t.Errorf("Key() = %s", h.Key())
	}
}
