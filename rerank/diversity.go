package rerank

import (
	"context"

	"github.com/goleaf/shoprec/core"
	"github.com/goleaf/shoprec/pipeline"
)

// DiversityNode 是类目多样性打散节点：限制相邻窗口内同类目商品的数量，
// 避免详情页/首页推荐被单一类目刷屏。
//
// 算法为贪心重排：按原有顺序扫描，若候选与最近 WindowSize 个已选商品
// 的主类目重复次数达到 MaxPerWindow，则推迟该候选；扫描结束后把被推迟
// 的候选按原顺序追加到尾部（不丢弃，只降位）。
type DiversityNode struct {
	Catalog core.CatalogStore

	// WindowSize 相邻窗口大小，默认 4
	WindowSize int

	// MaxPerWindow 窗口内同类目的最大数量，默认 2
	MaxPerWindow int
}

func (n *DiversityNode) Name() string {
	return "rerank.diversity"
}

func (n *DiversityNode) Kind() pipeline.Kind {
	return pipeline.KindReRank
}

func (n *DiversityNode) Process(
	ctx context.Context,
	_ *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	if n.Catalog == nil || len(items) < 3 {
		return items, nil
	}
	windowSize := n.WindowSize
	if windowSize <= 0 {
		windowSize = 4
	}
	maxPerWindow := n.MaxPerWindow
	if maxPerWindow <= 0 {
		maxPerWindow = 2
	}

	ids := make([]int64, 0, len(items))
	for _, it := range items {
		ids = append(ids, it.ID)
	}
	products, err := n.Catalog.GetProducts(ctx, ids)
	if err != nil {
		// 多样性是优化项，读取失败时保持原排序
		return items, nil
	}

	primary := func(id int64) int64 {
		p, ok := products[id]
		if !ok || len(p.CategoryIDs) == 0 {
			return 0
		}
		return p.CategoryIDs[0]
	}

	out := make([]*core.Item, 0, len(items))
	deferred := make([]*core.Item, 0)
	for _, it := range items {
		cat := primary(it.ID)
		if cat == 0 {
			out = append(out, it)
			continue
		}
		count := 0
		for i := len(out) - 1; i >= 0 && i >= len(out)-windowSize; i-- {
			if primary(out[i].ID) == cat {
				count++
			}
		}
		if count >= maxPerWindow {
			deferred = append(deferred, it)
			continue
		}
		out = append(out, it)
	}
	return append(out, deferred...), nil
}
