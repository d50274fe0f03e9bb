package filter

import (
	"context"

	"github.com/goleaf/shoprec/core"
	"github.com/goleaf/shoprec/pipeline"
	"github.com/goleaf/shoprec/pkg/utils"
)

// Node 把一组 Filter 组合成过滤阶段：任一过滤器命中即剔除该商品。
// 被剔除的商品会带上 filtered 标签（Source 记录命中的过滤器名）再丢弃，
// 方便 explain 链路回放剔除原因。
type Node struct {
	Filters []Filter
}

func (n *Node) Name() string        { return "filter.node" }
func (n *Node) Kind() pipeline.Kind { return pipeline.KindFilter }

func (n *Node) Process(
	ctx context.Context,
	rctx *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	if len(n.Filters) == 0 || len(items) == 0 {
		return items, nil
	}

	out := make([]*core.Item, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		if by, hit := n.hit(ctx, rctx, item); hit {
			item.PutLabel("filtered", utils.Label{Value: "true", Source: by})
			continue
		}
		out = append(out, item)
	}
	return out, nil
}

// hit 返回第一个命中的过滤器名。出错的过滤器按未命中跳过。
func (n *Node) hit(ctx context.Context, rctx *core.RecommendContext, item *core.Item) (string, bool) {
	for _, f := range n.Filters {
		ok, err := f.ShouldFilter(ctx, rctx, item)
		if err != nil {
			continue
		}
		if ok {
			return f.Name(), true
		}
	}
	return "", false
}
