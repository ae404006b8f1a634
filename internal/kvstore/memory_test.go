package kvstore

import (
	"context"
	"errors"
	"testing"
)

func TestMemorySetGet(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	if err := store.Set(ctx, "resume:1", "v1"); err != nil {
		t.Fatalf("set: %v", err)
	}
	got, err := store.Get(ctx, "resume:1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got != "v1" {
		t.Fatalf("unexpected value %q", got)
	}

	if err := store.Set(ctx, "resume:1", "v2"); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	got, err = store.Get(ctx, "resume:1")
	if err != nil {
		t.Fatalf("get after overwrite: %v", err)
	}
	if got != "v2" {
		t.Fatalf("expected overwrite, got %q", got)
	}
}

func TestMemoryGetMissing(t *testing.T) {
	store := NewMemoryStore()
	if _, err := store.Get(context.Background(), "resume:absent"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestMemoryListPattern(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	seed := map[string]string{
		"resume:a": "1",
		"resume:b": "2",
		"other:c":  "3",
	}
	for k, v := range seed {
		if err := store.Set(ctx, k, v); err != nil {
			t.Fatalf("set %s: %v", k, err)
		}
	}

	entries, err := store.List(ctx, "resume:*", true)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].Key != "resume:a" || entries[0].Value != "1" {
		t.Fatalf("unexpected first entry %+v", entries[0])
	}

	keysOnly, err := store.List(ctx, "resume:*", false)
	if err != nil {
		t.Fatalf("list keys: %v", err)
	}
	for _, e := range keysOnly {
		if e.Value != "" {
			t.Fatalf("expected empty value, got %+v", e)
		}
	}
}

func TestMemoryListNoMatchesIsEmptyNotError(t *testing.T) {
	store := NewMemoryStore()
	entries, err := store.List(context.Background(), "resume:*", true)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected empty list, got %d entries", len(entries))
	}
}

func TestMemoryDelete(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	if err := store.Set(ctx, "resume:1", "v1"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := store.Delete(ctx, "resume:1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := store.Get(ctx, "resume:1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
	if err := store.Delete(ctx, "resume:1"); err != nil {
		t.Fatalf("delete absent key: %v", err)
	}
}

func TestMemoryCancelledContext(t *testing.T) {
	store := NewMemoryStore()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := store.Set(ctx, "k", "v"); err == nil {
		t.Fatalf("expected context error")
	}
}
