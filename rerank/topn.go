// Package rerank 提供排序后的重排节点：Top-N 截断与类目多样性打散。
package rerank

import (
	"context"
	"sort"

	"github.com/goleaf/shoprec/core"
	"github.com/goleaf/shoprec/pipeline"
)

// TopNNode 是 Top-N 截断节点，在策略/过滤之后限制最终返回数量。
//
// 示例：
//
//	pipeline := &pipeline.Pipeline{
//	    Nodes: []pipeline.Node{
//	        &strategy.Node{Strategy: hybrid}, // 打分
//	        &filter.Node{...},                // 过滤
//	        &rerank.TopNNode{N: 10},          // 截取 Top 10
//	    },
//	}
type TopNNode struct {
	// N 要保留的数量；N <= 0 表示不截断
	N int
}

func (n *TopNNode) Name() string {
	return "rerank.topn"
}

func (n *TopNNode) Kind() pipeline.Kind {
	return pipeline.KindReRank
}

func (n *TopNNode) Process(
	_ context.Context,
	_ *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	if n.N <= 0 || len(items) <= n.N {
		return items, nil
	}
	return items[:n.N], nil
}

// SortNode 按 Score 降序稳定排序（同分按 ID 升序，保证确定性）。
// 用于融合/过滤之后、截断之前。
type SortNode struct{}

func (n *SortNode) Name() string {
	return "rerank.sort"
}

func (n *SortNode) Kind() pipeline.Kind {
	return pipeline.KindReRank
}

func (n *SortNode) Process(
	_ context.Context,
	_ *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].Score != items[j].Score {
			return items[i].Score > items[j].Score
		}
		return items[i].ID < items[j].ID
	})
	return items, nil
}
