// Package strategy 实现推荐打分策略族：内容相似、协同过滤、交叉销售、
// 向上销售、热门、趋势，以及把它们融合起来的 Hybrid 策略。
//
// 所有策略遵循同一契约：
//   - 缺少必需输入（用户/商品）时返回空结果而不是错误
//   - 结果数量不超过 MaxResults，分数不低于 MinScore（显式的 fallback 路径除外）
//   - 从不返回触发推荐的商品本身
package strategy

import (
	"context"
	"sort"
	"strconv"

	"github.com/goleaf/shoprec/core"
	"github.com/goleaf/shoprec/pipeline"
)

// Strategy 表示一个可复用的打分策略。
// 可以把它理解为"可并发 fan-out 的策略单元"（Hybrid 正是这样用的）。
type Strategy interface {
	Name() string
	Recommend(ctx context.Context, rctx *core.RecommendContext) ([]*core.Item, error)
}

// Node 把 Strategy 适配为 pipeline.Node，作为 Pipeline 的策略阶段使用。
type Node struct {
	Strategy Strategy
}

func (n *Node) Name() string        { return "strategy." + n.Strategy.Name() }
func (n *Node) Kind() pipeline.Kind { return pipeline.KindStrategy }

func (n *Node) Process(
	ctx context.Context,
	rctx *core.RecommendContext,
	_ []*core.Item,
) ([]*core.Item, error) {
	return n.Strategy.Recommend(ctx, rctx)
}

// sortItems 按分数降序稳定排序；同分时按 ID 升序，保证结果确定性。
func sortItems(items []*core.Item) {
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].Score != items[j].Score {
			return items[i].Score > items[j].Score
		}
		return items[i].ID < items[j].ID
	})
}

// truncateItems 把结果截断到 n 个；n <= 0 表示不截断。
func truncateItems(items []*core.Item, n int) []*core.Item {
	if n <= 0 || len(items) <= n {
		return items
	}
	return items[:n]
}

// hydrateVisible 按 ID 批量读取商品，剔除不存在或不可见的候选，保持原有顺序。
func hydrateVisible(ctx context.Context, catalog core.CatalogStore, items []*core.Item) ([]*core.Item, error) {
	if len(items) == 0 {
		return items, nil
	}
	ids := make([]int64, 0, len(items))
	for _, it := range items {
		ids = append(ids, it.ID)
	}
	products, err := catalog.GetProducts(ctx, ids)
	if err != nil {
		return nil, err
	}
	out := make([]*core.Item, 0, len(items))
	for _, it := range items {
		p, ok := products[it.ID]
		if !ok || !p.Visible {
			continue
		}
		out = append(out, it)
	}
	return out, nil
}

// hydrateVisibleFiltered 在 hydrateVisible 的基础上再应用 rctx.Filters，
// 剔除未通过调用方过滤器的候选，保持原有顺序。
func hydrateVisibleFiltered(
	ctx context.Context,
	catalog core.CatalogStore,
	rctx *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	if len(items) == 0 {
		return items, nil
	}
	ids := make([]int64, 0, len(items))
	for _, it := range items {
		ids = append(ids, it.ID)
	}
	products, err := catalog.GetProducts(ctx, ids)
	if err != nil {
		return nil, err
	}
	visible := make([]*core.Product, 0, len(items))
	for _, it := range items {
		if p, ok := products[it.ID]; ok && p.Visible {
			visible = append(visible, p)
		}
	}
	var filters []core.ProductFilter
	if rctx != nil {
		filters = rctx.Filters
	}
	kept := core.ApplyFilters(ctx, rctx, filters, visible)
	keep := make(map[int64]struct{}, len(kept))
	for _, p := range kept {
		keep[p.ID] = struct{}{}
	}
	out := make([]*core.Item, 0, len(kept))
	for _, it := range items {
		if _, ok := keep[it.ID]; ok {
			out = append(out, it)
		}
	}
	return out, nil
}

// keyedRatings 把 map[int64]float64 转为 simmath 使用的字符串 key 形式。
func keyedRatings(ratings map[int64]float64) map[string]float64 {
	out := make(map[string]float64, len(ratings))
	for id, r := range ratings {
		out[strconv.FormatInt(id, 10)] = r
	}
	return out
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
