// Package filter 实现推荐结果的过滤阶段：排除列表、已交互商品、
// CEL 表达式约束，以及策略打分前使用的候选商品过滤器。
package filter

import (
	"context"

	"github.com/goleaf/shoprec/core"
)

// Filter 逐项判断一个结果是否要被剔除。
// 返回 true 表示剔除。出错的过滤器由 Node 跳过，不中断链路。
type Filter interface {
	Name() string
	ShouldFilter(ctx context.Context, rctx *core.RecommendContext, item *core.Item) (bool, error)
}
