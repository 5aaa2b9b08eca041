package cache

import (
	"context"
	"net/url"
	"testing"
	"time"
)

func testKey() Key {
	return Key{
		Path:   "/api/v2/dashboard/business",
		Params: url.Values{"business_id": []string{"b1"}},
	}
}

func TestNew_Panic(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Error("New should panic with nil store")
		}
	}()
	New(nil)
}

func TestCache_SetGet(t *testing.T) {
	c := New(NewMemoryStore())
	ctx := context.Background()
	payload := []byte(`{"name":"Acme Plumbing"}`)

	if err := c.Set(ctx, testKey(), payload, 5*time.Minute); err != nil {
		t.Fatalf("Set: %v", err)
	}

	entry, err := c.Get(ctx, testKey())
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(entry.Payload) != string(payload) {
		t.Errorf("Payload = %s, want %s", entry.Payload, payload)
	}
}

func TestCache_Miss(t *testing.T) {
	c := New(NewMemoryStore())

	_, err := c.Get(context.Background(), testKey())
	if err != ErrCacheMiss {
		t.Errorf("Get on empty cache = %v, want ErrCacheMiss", err)
	}
}

func TestCache_ExpiredEntryIsMissAndEvicted(t *testing.T) {
	store := NewMemoryStore()
	c := New(store)
	ctx := context.Background()

	base := time.Now()
	c.now = func() time.Time { return base }

	if err := c.Set(ctx, testKey(), []byte(`{}`), 5*time.Minute); err != nil {
		t.Fatalf("Set: %v", err)
	}

	// Advance exactly to expiry: must be a miss, not a hit.
	c.now = func() time.Time { return base.Add(5 * time.Minute) }

	if _, err := c.Get(ctx, testKey()); err != ErrCacheMiss {
		t.Errorf("Get at expiry = %v, want ErrCacheMiss", err)
	}

	if store.Len() != 0 {
		t.Errorf("Store length after eviction = %d, want 0", store.Len())
	}
}

func TestCache_SetOverwrites(t *testing.T) {
	c := New(NewMemoryStore())
	ctx := context.Background()

	if err := c.Set(ctx, testKey(), []byte(`{"v":1}`), time.Minute); err != nil {
		t.Fatalf("First Set: %v", err)
	}
	if err := c.Set(ctx, testKey(), []byte(`{"v":2}`), time.Minute); err != nil {
		t.Fatalf("Second Set: %v", err)
	}

	entry, err := c.Get(ctx, testKey())
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(entry.Payload) != `{"v":2}` {
		t.Errorf("Payload = %s, want second write", entry.Payload)
	}
}

func TestCache_SetRejectsNonPositiveTTL(t *testing.T) {
	c := New(NewMemoryStore())

	if err := c.Set(context.Background(), testKey(), []byte(`{}`), 0); err == nil {
		t.Error("Set with zero TTL should fail")
	}
}

func TestCache_Delete(t *testing.T) {
	c := New(NewMemoryStore())
	ctx := context.Background()

	if err := c.Set(ctx, testKey(), []byte(`{}`), time.Minute); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := c.Delete(ctx, testKey()); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := c.Get(ctx, testKey()); err != ErrCacheMiss {
		t.Errorf("Get after Delete = %v, want ErrCacheMiss", err)
	}
}

func TestCache_InvalidStoredEntry(t *testing.T) {
	store := NewMemoryStore()
	c := New(store)
	ctx := context.Background()

	if err := store.Set(ctx, testKey().String(), []byte("not json"), time.Minute); err != nil {
		t.Fatalf("store Set: %v", err)
	}

	_, err := c.Get(ctx, testKey())
	if err == nil || err == ErrCacheMiss {
		t.Errorf("Get of corrupted entry = %v, want decode error", err)
	}
}

func TestMemoryStore_GetEvictsExpired(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	if err := store.Set(ctx, "k", []byte("v"), time.Nanosecond); err != nil {
		t.Fatalf("Set: %v", err)
	}
	time.Sleep(time.Millisecond)

	_, ok, err := store.Get(ctx, "k")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if ok {
		t.Error("Expired item should be a miss")
	}
	if store.Len() != 0 {
		t.Errorf("Len() = %d, want 0 after lazy eviction", store.Len())
	}
}

func TestMemoryStore_DeleteAbsentKey(t *testing.T) {
	store := NewMemoryStore()

	if err := store.Delete(context.Background(), "absent"); err != nil {
		t.Errorf("Delete of absent key = %v, want nil", err)
	}
}
