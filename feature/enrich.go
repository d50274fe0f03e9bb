package feature

import (
	"context"

	"github.com/goleaf/shoprec/core"
	"github.com/goleaf/shoprec/pipeline"
)

// EnrichNode 是一个 PostProcess 之前的补充节点：在策略执行前，
// 从 RealtimeProvider 拉取用户实时特征并写入 rctx.Params（realtime_ 前缀）。
//
// 失败时静默跳过：实时特征是锦上添花，拉取失败不能影响推荐主链路。
type EnrichNode struct {
	Provider RealtimeProvider

	// Prefix 写入 Params 的 key 前缀，默认 "realtime_"
	Prefix string
}

func (n *EnrichNode) Name() string        { return "feature.enrich" }
func (n *EnrichNode) Kind() pipeline.Kind { return pipeline.KindPreProcess }

func (n *EnrichNode) Process(
	ctx context.Context,
	rctx *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	if n.Provider == nil || rctx == nil || rctx.UserID == 0 {
		return items, nil
	}

	features, err := n.Provider.UserFeatures(ctx, rctx.UserID)
	if err != nil || len(features) == 0 {
		return items, nil
	}

	prefix := n.Prefix
	if prefix == "" {
		prefix = "realtime_"
	}

	if rctx.Params == nil {
		rctx.Params = make(map[string]any, len(features))
	}
	for k, v := range features {
		key := k
		if len(key) < len(prefix) || key[:len(prefix)] != prefix {
			key = prefix + key
		}
		if _, exists := rctx.Params[key]; !exists {
			rctx.Params[key] = v
		}
	}
	return items, nil
}
