package dsl

import (
	"fmt"
	"sync"

	"github.com/google/cel-go/cel"

	"github.com/goleaf/shoprec/core"
)

var (
	// celEnv 是全局的 CEL 环境，线程安全，可复用
	celEnv     *cel.Env
	celEnvOnce sync.Once
)

func initCELEnv() (*cel.Env, error) {
	return cel.NewEnv(
		cel.Variable("item", cel.DynType),
		cel.Variable("product", cel.DynType),
		cel.Variable("label", cel.DynType),
		cel.Variable("rctx", cel.DynType),
	)
}

func getCELEnv() (*cel.Env, error) {
	var err error
	celEnvOnce.Do(func() {
		celEnv, err = initCELEnv()
	})
	return celEnv, err
}

// Eval 是候选过滤的 DSL 解释器，使用 CEL (Common Expression Language) 实现。
//
// 表达式语法（CEL 标准语法）：
//   - 商品维度：product.price < 100.0 / product.brand_id == 5
//   - 候选维度：item.score > 0.5
//   - 标签维度：label.algorithm == "content_based"
//   - 请求维度：rctx.scene == "detail_page"
//   - 逻辑组合：product.price < 100.0 && item.score > 0.3
//
// 表达式每次 Evaluate 时编译；调用方需要高频复用时应缓存 Eval 实例之外的
// 编译结果（当前规模下单次编译开销可接受）。
type Eval struct {
	item    *core.Item
	product *core.Product
	rctx    *core.RecommendContext
	env     *cel.Env
}

// NewEval 创建一个新的 DSL 解释器。item 与 product 允许为 nil（对应维度取默认值）。
func NewEval(item *core.Item, product *core.Product, rctx *core.RecommendContext) *Eval {
	env, _ := getCELEnv()
	return &Eval{
		item:    item,
		product: product,
		rctx:    rctx,
		env:     env,
	}
}

// Evaluate 解析并执行 DSL 表达式，返回布尔结果。空表达式恒为 true。
func (e *Eval) Evaluate(expr string) (bool, error) {
	if expr == "" {
		return true, nil
	}
	if e.env == nil {
		return false, fmt.Errorf("cel env not initialized")
	}

	ast, issues := e.env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return false, fmt.Errorf("compile error: %v", issues.Err())
	}

	prg, err := e.env.Program(ast)
	if err != nil {
		return false, fmt.Errorf("program error: %v", err)
	}

	out, _, err := prg.Eval(e.buildInput())
	if err != nil {
		return false, fmt.Errorf("eval error: %v", err)
	}

	result, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("expression must return boolean, got %T", out.Value())
	}
	return result, nil
}

// buildInput 构建 CEL 表达式的输入数据。
func (e *Eval) buildInput() map[string]any {
	labels := make(map[string]any)
	item := map[string]any{
		"id":    int64(0),
		"score": 0.0,
	}
	if e.item != nil {
		for k, v := range e.item.Labels {
			labels[k] = v.Value
		}
		item["id"] = e.item.ID
		item["score"] = e.item.Score
	}

	product := map[string]any{}
	if e.product != nil {
		categories := make([]int64, len(e.product.CategoryIDs))
		copy(categories, e.product.CategoryIDs)
		attrs := make([]int64, len(e.product.AttributeIDs))
		copy(attrs, e.product.AttributeIDs)
		product = map[string]any{
			"id":            e.product.ID,
			"price":         e.product.Price,
			"brand_id":      e.product.BrandID,
			"category_ids":  categories,
			"attribute_ids": attrs,
			"visible":       e.product.Visible,
		}
	}

	rctx := map[string]any{}
	if e.rctx != nil {
		rctx = map[string]any{
			"user_id":    e.rctx.UserID,
			"product_id": e.rctx.ProductID,
			"scene":      e.rctx.Scene,
			"params":     e.rctx.Params,
		}
	}

	return map[string]any{
		"item":    item,
		"product": product,
		"label":   labels,
		"rctx":    rctx,
	}
}
