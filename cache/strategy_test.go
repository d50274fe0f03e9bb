package cache

import (
	"context"
	"errors"
	"testing"

	"github.com/goleaf/shoprec/core"
	"github.com/goleaf/shoprec/store"
)

// countingStrategy 统计被调用次数，返回固定结果。
type countingStrategy struct {
	calls int
	items []int64
}

func (s *countingStrategy) Name() string { return "counting" }

func (s *countingStrategy) Recommend(_ context.Context, _ *core.RecommendContext) ([]*core.Item, error) {
	s.calls++
	items := make([]*core.Item, 0, len(s.items))
	for i, id := range s.items {
		it := core.NewItem(id)
		it.Score = 1.0 - float64(i)*0.1
		items = append(items, it)
	}
	return items, nil
}

// brokenStore 所有操作都报错，模拟缓存后端故障。
type brokenStore struct{}

func (brokenStore) Name() string                                         { return "broken" }
func (brokenStore) Get(context.Context, string) ([]byte, error)          { return nil, errors.New("down") }
func (brokenStore) Set(context.Context, string, []byte, ...int) error    { return errors.New("down") }
func (brokenStore) Delete(context.Context, string) error                 { return errors.New("down") }
func (brokenStore) BatchGet(context.Context, []string) (map[string][]byte, error) {
	return nil, errors.New("down")
}
func (brokenStore) BatchSet(context.Context, map[string][]byte, ...int) error {
	return errors.New("down")
}
func (brokenStore) Close() error { return nil }

func TestCachedStrategy_ReadThroughWriteBack(t *testing.T) {
	inner := &countingStrategy{items: []int64{1, 2, 3}}
	kv := store.NewMemoryStore()
	defer kv.Close()

	s := NewCachedStrategy(inner, kv, 60)
	rctx := &core.RecommendContext{UserID: 7, Scene: "home"}

	first, err := s.Recommend(context.Background(), rctx)
	if err != nil {
		t.Fatalf("Recommend: %v", err)
	}
	second, err := s.Recommend(context.Background(), rctx)
	if err != nil {
		t.Fatalf("Recommend: %v", err)
	}

	if inner.calls != 1 {
		t.Fatalf("inner called %d times, want 1 (second call served from cache)", inner.calls)
	}
	if len(first) != len(second) {
		t.Fatalf("cached result length differs: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i].ID != second[i].ID || first[i].Score != second[i].Score {
			t.Fatalf("cached result diverges at %d: %+v vs %+v", i, first[i], second[i])
		}
	}
	if WasHit(first) {
		t.Fatal("first call computed live, must not carry the hit label")
	}
	if !WasHit(second) {
		t.Fatal("second call served from cache, must carry the hit label")
	}
}

func TestCachedStrategy_DifferentContextsDoNotCollide(t *testing.T) {
	inner := &countingStrategy{items: []int64{1}}
	kv := store.NewMemoryStore()
	defer kv.Close()
	s := NewCachedStrategy(inner, kv, 60)

	_, _ = s.Recommend(context.Background(), &core.RecommendContext{UserID: 7})
	_, _ = s.Recommend(context.Background(), &core.RecommendContext{UserID: 8})
	if inner.calls != 2 {
		t.Fatalf("inner called %d times, want 2 (different users, different keys)", inner.calls)
	}
}

func TestCachedStrategy_BackendFailureIsAMiss(t *testing.T) {
	inner := &countingStrategy{items: []int64{1, 2}}
	s := NewCachedStrategy(inner, brokenStore{}, 60)

	items, err := s.Recommend(context.Background(), &core.RecommendContext{UserID: 7})
	if err != nil {
		t.Fatalf("backend failure must not fail the call: %v", err)
	}
	if len(items) != 2 || inner.calls != 1 {
		t.Fatalf("got %d items calls=%d, want live computation", len(items), inner.calls)
	}
}

func TestCachedStrategy_CorruptedPayloadIsAMiss(t *testing.T) {
	inner := &countingStrategy{items: []int64{1}}
	kv := store.NewMemoryStore()
	defer kv.Close()
	s := NewCachedStrategy(inner, kv, 60)

	rctx := &core.RecommendContext{UserID: 7}
	_ = kv.Set(context.Background(), Fingerprint("counting", rctx), []byte("not json"))

	items, err := s.Recommend(context.Background(), rctx)
	if err != nil || len(items) != 1 || inner.calls != 1 {
		t.Fatalf("corrupted payload: items=%d calls=%d err=%v, want live computation", len(items), inner.calls, err)
	}
}

func TestFingerprint(t *testing.T) {
	a := Fingerprint("hybrid", &core.RecommendContext{
		UserID: 7, ProductID: 3, Scene: "detail",
		Params: map[string]any{"x": 1, "y": "z"},
	})
	b := Fingerprint("hybrid", &core.RecommendContext{
		UserID: 7, ProductID: 3, Scene: "detail",
		Params: map[string]any{"y": "z", "x": 1},
	})
	if a != b {
		t.Fatalf("param order changed the fingerprint: %s vs %s", a, b)
	}

	c := Fingerprint("hybrid", &core.RecommendContext{
		UserID: 7, ProductID: 3, Scene: "detail",
		Params: map[string]any{"x": 2, "y": "z"},
	})
	if a == c {
		t.Fatal("different params must produce different fingerprints")
	}

	d := Fingerprint("popularity", nil)
	if d == "" {
		t.Fatal("nil context should still produce a key")
	}
}
