package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/goleaf/shoprec/core"
)

// 本文件提供领域数据接口（CatalogStore / InteractionStore / OrderStore /
// StatsStore / SimilarityStore）的内存实现，用于测试和本地开发。
// 生产环境使用 gormstore 包的数据库实现。

// MemCatalog 是 core.CatalogStore 的内存实现。
type MemCatalog struct {
	mu       sync.RWMutex
	products map[int64]*core.Product
}

func NewMemCatalog(products ...*core.Product) *MemCatalog {
	m := &MemCatalog{products: make(map[int64]*core.Product)}
	for _, p := range products {
		m.products[p.ID] = p
	}
	return m
}

func (m *MemCatalog) Add(p *core.Product) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.products[p.ID] = p
}

func (m *MemCatalog) GetProduct(_ context.Context, id int64) (*core.Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.products[id]
	if !ok {
		return nil, core.ErrProductNotFound
	}
	return p, nil
}

func (m *MemCatalog) GetProducts(_ context.Context, ids []int64) (map[int64]*core.Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[int64]*core.Product, len(ids))
	for _, id := range ids {
		if p, ok := m.products[id]; ok {
			out[id] = p
		}
	}
	return out, nil
}

func (m *MemCatalog) ListVisible(_ context.Context) ([]*core.Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*core.Product, 0, len(m.products))
	for _, p := range m.products {
		if p.Visible {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *MemCatalog) ListByCategories(
	_ context.Context,
	categoryIDs []int64,
	minPrice, maxPrice float64,
	limit int,
) ([]*core.Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	wanted := make(map[int64]struct{}, len(categoryIDs))
	for _, id := range categoryIDs {
		wanted[id] = struct{}{}
	}

	out := make([]*core.Product, 0)
	for _, p := range m.products {
		if !p.Visible {
			continue
		}
		if minPrice > 0 && p.Price < minPrice {
			continue
		}
		if maxPrice > 0 && p.Price > maxPrice {
			continue
		}
		match := false
		for _, cid := range p.CategoryIDs {
			if _, ok := wanted[cid]; ok {
				match = true
				break
			}
		}
		if match {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

type interactionKey struct {
	productID int64
	typ       core.InteractionType
}

// MemInteractions 是 core.InteractionStore 的内存实现。
type MemInteractions struct {
	mu     sync.RWMutex
	byUser map[int64]map[interactionKey]*core.Interaction

	typeWeights map[core.InteractionType]float64
	now         func() time.Time
}

func NewMemInteractions() *MemInteractions {
	return &MemInteractions{
		byUser:      make(map[int64]map[interactionKey]*core.Interaction),
		typeWeights: core.DefaultInteractionWeights(),
		now:         time.Now,
	}
}

// Seed 直接写入一条交互记录（测试数据装载用）。
func (m *MemInteractions) Seed(inter *core.Interaction) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.byUser[inter.UserID] == nil {
		m.byUser[inter.UserID] = make(map[interactionKey]*core.Interaction)
	}
	m.byUser[inter.UserID][interactionKey{inter.ProductID, inter.Type}] = inter
}

func (m *MemInteractions) UserRatings(_ context.Context, userID int64, minCount int) (map[int64]float64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	// 每个商品取权重最高的交互类型的评分
	best := make(map[int64]float64)    // productID -> 类型权重
	ratings := make(map[int64]float64) // productID -> 评分
	for key, inter := range m.byUser[userID] {
		if inter.Count < minCount {
			continue
		}
		w := m.typeWeights[key.typ]
		if cur, ok := best[key.productID]; !ok || w > cur {
			best[key.productID] = w
			ratings[key.productID] = inter.Rating
		}
	}
	return ratings, nil
}

func (m *MemInteractions) UserInteractions(_ context.Context, userID int64, minCount int) ([]*core.Interaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*core.Interaction, 0, len(m.byUser[userID]))
	for _, inter := range m.byUser[userID] {
		if inter.Count >= minCount {
			out = append(out, inter)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].ProductID != out[j].ProductID {
			return out[i].ProductID < out[j].ProductID
		}
		return out[i].Type < out[j].Type
	})
	return out, nil
}

func (m *MemInteractions) UsersForProducts(_ context.Context, productIDs []int64, minCount int) ([]int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	wanted := make(map[int64]struct{}, len(productIDs))
	for _, id := range productIDs {
		wanted[id] = struct{}{}
	}

	seen := make(map[int64]struct{})
	out := make([]int64, 0)
	for userID, inters := range m.byUser {
		for key, inter := range inters {
			if inter.Count < minCount {
				continue
			}
			if _, ok := wanted[key.productID]; !ok {
				continue
			}
			if _, dup := seen[userID]; !dup {
				seen[userID] = struct{}{}
				out = append(out, userID)
			}
			break
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out, nil
}

func (m *MemInteractions) UpsertInteraction(
	_ context.Context,
	userID, productID int64,
	typ core.InteractionType,
	rating float64,
) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.byUser[userID] == nil {
		m.byUser[userID] = make(map[interactionKey]*core.Interaction)
	}
	key := interactionKey{productID, typ}
	now := m.now()
	if inter, ok := m.byUser[userID][key]; ok {
		inter.Count++
		inter.Rating = rating
		inter.LastAt = now
		return nil
	}
	m.byUser[userID][key] = &core.Interaction{
		UserID:    userID,
		ProductID: productID,
		Type:      typ,
		Rating:    rating,
		Count:     1,
		FirstAt:   now,
		LastAt:    now,
	}
	return nil
}

// MemOrder 是一张内存订单（已完成状态），供共现统计使用。
type MemOrder struct {
	CustomerID int64
	At         time.Time
	Lines      []MemOrderLine
}

type MemOrderLine struct {
	ProductID int64
	Quantity  int
}

// MemOrders 是 core.OrderStore 的内存实现。
type MemOrders struct {
	mu     sync.RWMutex
	orders []MemOrder
}

func NewMemOrders(orders ...MemOrder) *MemOrders {
	return &MemOrders{orders: orders}
}

func (m *MemOrders) Add(order MemOrder) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.orders = append(m.orders, order)
}

func (m *MemOrders) CoPurchases(_ context.Context, productID int64, since time.Time) ([]*core.CoPurchaseStat, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	counts := make(map[int64]int)
	qtySums := make(map[int64]int)
	customers := make(map[int64]map[int64]struct{})
	for _, order := range m.orders {
		if order.At.Before(since) {
			continue
		}
		has := false
		for _, line := range order.Lines {
			if line.ProductID == productID {
				has = true
				break
			}
		}
		if !has {
			continue
		}
		for _, line := range order.Lines {
			if line.ProductID == productID {
				continue
			}
			counts[line.ProductID]++
			qtySums[line.ProductID] += line.Quantity
			if customers[line.ProductID] == nil {
				customers[line.ProductID] = make(map[int64]struct{})
			}
			customers[line.ProductID][order.CustomerID] = struct{}{}
		}
	}

	out := make([]*core.CoPurchaseStat, 0, len(counts))
	for pid, count := range counts {
		out = append(out, &core.CoPurchaseStat{
			ProductID:       pid,
			Count:           count,
			AvgQuantity:     float64(qtySums[pid]) / float64(count),
			UniqueCustomers: len(customers[pid]),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].ProductID < out[j].ProductID
	})
	return out, nil
}

func (m *MemOrders) TopCoPurchasePairs(_ context.Context, since time.Time, limit int) ([]*core.CoPurchasePair, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	type pairKey struct{ a, b int64 }
	counts := make(map[pairKey]int)
	for _, order := range m.orders {
		if order.At.Before(since) {
			continue
		}
		ids := make([]int64, 0, len(order.Lines))
		for _, line := range order.Lines {
			ids = append(ids, line.ProductID)
		}
		sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
		for i := 0; i < len(ids); i++ {
			for j := i + 1; j < len(ids); j++ {
				if ids[i] != ids[j] {
					counts[pairKey{ids[i], ids[j]}]++
				}
			}
		}
	}

	out := make([]*core.CoPurchasePair, 0, len(counts))
	for key, count := range counts {
		out = append(out, &core.CoPurchasePair{ProductA: key.a, ProductB: key.b, Count: count})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		if out[i].ProductA != out[j].ProductA {
			return out[i].ProductA < out[j].ProductA
		}
		return out[i].ProductB < out[j].ProductB
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *MemOrders) SalesQuantity(_ context.Context, productID int64, since time.Time) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	total := 0
	for _, order := range m.orders {
		if order.At.Before(since) {
			continue
		}
		for _, line := range order.Lines {
			if line.ProductID == productID {
				total += line.Quantity
			}
		}
	}
	return total, nil
}

// ActivityKind 是活动事件类型。
type ActivityKind string

const (
	ActivitySale     ActivityKind = "sale"
	ActivityView     ActivityKind = "view"
	ActivityReview   ActivityKind = "review"
	ActivityWishlist ActivityKind = "wishlist"
)

type activityEvent struct {
	productID int64
	kind      ActivityKind
	at        time.Time
}

// MemStats 是 core.StatsStore 的内存实现。
type MemStats struct {
	mu      sync.RWMutex
	events  []activityEvent
	reviews map[int64]*core.ReviewStat
}

func NewMemStats() *MemStats {
	return &MemStats{reviews: make(map[int64]*core.ReviewStat)}
}

// AddEvent 记录 n 次活动事件。
func (m *MemStats) AddEvent(productID int64, kind ActivityKind, at time.Time, n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := 0; i < n; i++ {
		m.events = append(m.events, activityEvent{productID: productID, kind: kind, at: at})
	}
}

// SetReview 设置商品的评论聚合。
func (m *MemStats) SetReview(productID int64, avgRating float64, count int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reviews[productID] = &core.ReviewStat{AvgRating: avgRating, Count: count}
}

func (m *MemStats) ActivityWindow(_ context.Context, from, to time.Time) (map[int64]*core.ActivityStat, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make(map[int64]*core.ActivityStat)
	for _, ev := range m.events {
		if ev.at.Before(from) || !ev.at.Before(to) {
			continue
		}
		st, ok := out[ev.productID]
		if !ok {
			st = &core.ActivityStat{}
			out[ev.productID] = st
		}
		switch ev.kind {
		case ActivitySale:
			st.Sales++
		case ActivityView:
			st.Views++
		case ActivityReview:
			st.Reviews++
		case ActivityWishlist:
			st.Wishlists++
		}
	}
	return out, nil
}

func (m *MemStats) ReviewStats(_ context.Context, productIDs []int64) (map[int64]*core.ReviewStat, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make(map[int64]*core.ReviewStat, len(productIDs))
	for _, id := range productIDs {
		if rs, ok := m.reviews[id]; ok {
			out[id] = rs
		}
	}
	return out, nil
}

type similarityKey struct {
	productID int64
	similarID int64
	algorithm string
}

// MemSimilarities 是 core.SimilarityStore 的内存实现。
type MemSimilarities struct {
	mu      sync.RWMutex
	records map[similarityKey]*core.SimilarityRecord
}

func NewMemSimilarities() *MemSimilarities {
	return &MemSimilarities{records: make(map[similarityKey]*core.SimilarityRecord)}
}

func (m *MemSimilarities) TopSimilar(
	_ context.Context,
	productID int64,
	algorithm string,
	minScore float64,
	freshSince time.Time,
	limit int,
) ([]*core.SimilarityRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*core.SimilarityRecord, 0)
	for key, rec := range m.records {
		if key.productID != productID || key.algorithm != algorithm {
			continue
		}
		if rec.Score < minScore || rec.CalculatedAt.Before(freshSince) {
			continue
		}
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].SimilarProductID < out[j].SimilarProductID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *MemSimilarities) UpsertSimilarities(_ context.Context, records []*core.SimilarityRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, rec := range records {
		key := similarityKey{rec.ProductID, rec.SimilarProductID, rec.Algorithm}
		m.records[key] = rec
	}
	return nil
}

// Len 返回当前记录数（测试断言用）。
func (m *MemSimilarities) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.records)
}
