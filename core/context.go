package core

import "github.com/goleaf/shoprec/pkg/utils"

// RecommendContext 承载一次推荐请求的用户/商品/场景信息，贯穿整个调用链透传。
//
// UserID 与 ProductID 均为可选（0 表示未提供）：
//   - 协同过滤要求 UserID，缺失时返回空结果（不是错误）
//   - 内容推荐/交叉销售/向上销售要求 ProductID，缺失时返回空结果
//   - 热门/趋势推荐两者都不要求
type RecommendContext struct {
	UserID    int64
	ProductID int64
	Scene     string

	// Filters 是调用方提供的候选商品过滤器，在策略打分前应用。
	Filters []ProductFilter

	// Labels 是请求级标签，可驱动整个调用链行为。
	Labels map[string]utils.Label

	// Params 请求级上下文参数，参与缓存指纹计算。
	// 例如：category_id、price_max、realtime_ctr（实时特征建议加 realtime_ 前缀）。
	Params map[string]any
}

// PutLabel 写入请求级 Label。
func (rctx *RecommendContext) PutLabel(key string, lbl utils.Label) {
	if rctx.Labels == nil {
		rctx.Labels = make(map[string]utils.Label)
	}
	if old, ok := rctx.Labels[key]; ok {
		rctx.Labels[key] = utils.MergeLabel(old, lbl)
		return
	}
	rctx.Labels[key] = lbl
}

// GetLabel 获取请求级 Label。
func (rctx *RecommendContext) GetLabel(key string) (utils.Label, bool) {
	if rctx.Labels == nil {
		return utils.Label{}, false
	}
	lbl, ok := rctx.Labels[key]
	return lbl, ok
}

// ParamFloat 从 Params 读取 float64 参数，缺失或类型不符时返回 defaultVal。
func (rctx *RecommendContext) ParamFloat(key string, defaultVal float64) float64 {
	if rctx.Params == nil {
		return defaultVal
	}
	switch v := rctx.Params[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	case int64:
		return float64(v)
	default:
		return defaultVal
	}
}
