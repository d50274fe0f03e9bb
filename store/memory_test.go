package store

import (
	"context"
	"testing"
	"time"

	"github.com/goleaf/shoprec/core"
)

func TestMemoryStore_GetSetDelete(t *testing.T) {
	ms := NewMemoryStore()
	defer ms.Close()
	ctx := context.Background()

	if _, err := ms.Get(ctx, "missing"); !core.IsStoreNotFound(err) {
		t.Fatalf("missing key: err = %v, want store not found", err)
	}

	if err := ms.Set(ctx, "k", []byte("v")); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got, err := ms.Get(ctx, "k")
	if err != nil || string(got) != "v" {
		t.Fatalf("Get = %q, %v", got, err)
	}

	if err := ms.Delete(ctx, "k"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := ms.Get(ctx, "k"); !core.IsStoreNotFound(err) {
		t.Fatalf("deleted key: err = %v, want store not found", err)
	}
}

func TestMemoryStore_TTLExpiry(t *testing.T) {
	ms := NewMemoryStore()
	defer ms.Close()
	ctx := context.Background()

	// 直接注入已过期的条目，避免测试里 sleep
	ms.mu.Lock()
	ms.data["stale"] = memEntry{value: []byte("v"), expireAt: time.Now().Add(-time.Second)}
	ms.mu.Unlock()

	if _, err := ms.Get(ctx, "stale"); !core.IsStoreNotFound(err) {
		t.Fatalf("expired key: err = %v, want store not found", err)
	}
}

func TestMemoryStore_Batch(t *testing.T) {
	ms := NewMemoryStore()
	defer ms.Close()
	ctx := context.Background()

	if err := ms.BatchSet(ctx, map[string][]byte{"a": []byte("1"), "b": []byte("2")}); err != nil {
		t.Fatalf("BatchSet: %v", err)
	}
	got, err := ms.BatchGet(ctx, []string{"a", "b", "c"})
	if err != nil {
		t.Fatalf("BatchGet: %v", err)
	}
	if len(got) != 2 || string(got["a"]) != "1" || string(got["b"]) != "2" {
		t.Fatalf("BatchGet = %v", got)
	}
}

func TestMemoryStore_SortedSet(t *testing.T) {
	ms := NewMemoryStore()
	defer ms.Close()
	ctx := context.Background()

	_ = ms.ZAdd(ctx, "top", 3.0, "c")
	_ = ms.ZAdd(ctx, "top", 1.0, "a")
	_ = ms.ZAdd(ctx, "top", 2.0, "b")

	members, err := ms.ZRange(ctx, "top", 0, -1)
	if err != nil {
		t.Fatalf("ZRange: %v", err)
	}
	if len(members) != 3 || members[0] != "c" || members[1] != "b" || members[2] != "a" {
		t.Fatalf("ZRange = %v, want [c b a]", members)
	}

	members, _ = ms.ZRange(ctx, "top", 0, 1)
	if len(members) != 2 || members[0] != "c" {
		t.Fatalf("ZRange top2 = %v, want [c b]", members)
	}

	score, err := ms.ZScore(ctx, "top", "b")
	if err != nil || score != 2.0 {
		t.Fatalf("ZScore = %v, %v", score, err)
	}
	if _, err := ms.ZScore(ctx, "top", "x"); !core.IsStoreNotFound(err) {
		t.Fatalf("missing member: err = %v", err)
	}
}

func TestMemoryStore_Hash(t *testing.T) {
	ms := NewMemoryStore()
	defer ms.Close()
	ctx := context.Background()

	_ = ms.HSet(ctx, "h", "f1", []byte("v1"))
	_ = ms.HSet(ctx, "h", "f2", []byte("v2"))

	v, err := ms.HGet(ctx, "h", "f1")
	if err != nil || string(v) != "v1" {
		t.Fatalf("HGet = %q, %v", v, err)
	}
	all, err := ms.HGetAll(ctx, "h")
	if err != nil || len(all) != 2 {
		t.Fatalf("HGetAll = %v, %v", all, err)
	}
	if _, err := ms.HGet(ctx, "h", "missing"); !core.IsStoreNotFound(err) {
		t.Fatalf("missing field: err = %v", err)
	}
}
