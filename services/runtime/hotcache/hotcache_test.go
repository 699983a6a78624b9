package hotcache

import (
	"testing"
	"time"

	"github.com/bijux/atlas/pkg/model"
)

func mustDataset(t *testing.T) model.DatasetId {
	t.Helper()
	d, err := model.NewDatasetId("110", "homo_sapiens", "GRCh38")
	if err != nil {
		t.Fatalf("NewDatasetId: %v", err)
	}
	return d
}

func TestPutGetRoundTrip(t *testing.T) {
	c := New(4, time.Minute)
	ds := mustDataset(t)
	key := Key{Dataset: ds, QueryHash: "abc"}
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	c.Put(key, Entry{Body: []byte("hi"), ETag: "e1", CreatedAt: now}, now)
	got, ok := c.Get(key, now)
	if !ok || string(got.Body) != "hi" {
		t.Fatalf("expected cache hit with body 'hi', got %+v ok=%v", got, ok)
	}
}

func TestGetExpiresAfterTTL(t *testing.T) {
	c := New(4, time.Second)
	ds := mustDataset(t)
	key := Key{Dataset: ds, QueryHash: "abc"}
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c.Put(key, Entry{Body: []byte("hi")}, now)

	later := now.Add(2 * time.Second)
	if _, ok := c.Get(key, later); ok {
		t.Fatal("expected expired entry to miss")
	}
}

func TestEvictsLeastRecentlyUsedAtCapacity(t *testing.T) {
	c := New(2, time.Minute)
	ds := mustDataset(t)
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	k1 := Key{Dataset: ds, QueryHash: "q1"}
	k2 := Key{Dataset: ds, QueryHash: "q2"}
	k3 := Key{Dataset: ds, QueryHash: "q3"}

	c.Put(k1, Entry{Body: []byte("1")}, now)
	c.Put(k2, Entry{Body: []byte("2")}, now)
	c.Get(k1, now) // touch k1 so k2 becomes LRU
	c.Put(k3, Entry{Body: []byte("3")}, now)

	if _, ok := c.Get(k2, now); ok {
		t.Fatal("expected k2 to be evicted as least recently used")
	}
	if _, ok := c.Get(k1, now); !ok {
		t.Fatal("expected k1 to survive eviction")
	}
}

func TestInvalidateRemovesAllEntriesForDataset(t *testing.T) {
	c := New(4, time.Minute)
	ds := mustDataset(t)
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	k1 := Key{Dataset: ds, QueryHash: "q1"}
	k2 := Key{Dataset: ds, QueryHash: "q2"}
	c.Put(k1, Entry{Body: []byte("1")}, now)
	c.Put(k2, Entry{Body: []byte("2")}, now)

	c.Invalidate(ds)

	if _, ok := c.Get(k1, now); ok {
		t.Fatal("expected k1 to be invalidated")
	}
	if _, ok := c.Get(k2, now); ok {
		t.Fatal("expected k2 to be invalidated")
	}
}
