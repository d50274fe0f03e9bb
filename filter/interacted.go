package filter

import (
	"context"

	"github.com/goleaf/shoprec/core"
	"github.com/goleaf/shoprec/pipeline"
	"github.com/goleaf/shoprec/pkg/utils"
)

// InteractedNode 剔除用户已交互过的商品。
// 与逐项过滤器不同，它在 Process 时一次性拉取用户的交互集合，避免 N+1 读取。
type InteractedNode struct {
	Interactions core.InteractionStore

	// MinInteractions 交互纳入排除集合的最小次数，默认 1
	MinInteractions int
}

func (n *InteractedNode) Name() string {
	return "filter.interacted"
}

func (n *InteractedNode) Kind() pipeline.Kind {
	return pipeline.KindFilter
}

func (n *InteractedNode) Process(
	ctx context.Context,
	rctx *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	if n.Interactions == nil || rctx == nil || rctx.UserID == 0 || len(items) == 0 {
		return items, nil
	}

	minCount := n.MinInteractions
	if minCount <= 0 {
		minCount = 1
	}
	ratings, err := n.Interactions.UserRatings(ctx, rctx.UserID, minCount)
	if err != nil {
		// 读取失败时放行全部：过滤是锦上添花，不能让主链路失败
		return items, nil
	}

	out := make([]*core.Item, 0, len(items))
	for _, item := range items {
		if _, seen := ratings[item.ID]; seen {
			item.PutLabel("filtered", utils.Label{Value: "true", Source: n.Name()})
			continue
		}
		out = append(out, item)
	}
	return out, nil
}
