package pipeline

import (
	"context"
	"fmt"

	"github.com/goleaf/shoprec/core"
)

// Pipeline 按顺序执行 Node 链，把上一个 Node 的输出作为下一个的输入。
// 推荐链路的标准编排是：前处理 → 策略 → 过滤 → 重排 → 后处理，
// 但 Pipeline 本身不强制阶段顺序，Kind 只是观测用的标记。
type Pipeline struct {
	Nodes []Node
}

// Run 执行整条链。任一 Node 报错即终止并返回带节点名的错误；
// 需要 best-effort 行为的 Node 应自行吞掉内部错误。
func (p *Pipeline) Run(
	ctx context.Context,
	rctx *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	cur := items
	for _, node := range p.Nodes {
		next, err := node.Process(ctx, rctx, cur)
		if err != nil {
			return nil, fmt.Errorf("node %s: %w", node.Name(), err)
		}
		cur = next
	}
	return cur, nil
}
