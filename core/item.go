package core

import "github.com/goleaf/shoprec/pkg/utils"

// Item 是推荐链路中的统一承载结构：商品 ID、分数、子分数、标签。
// SubScores 保存算法特定的诊断分数（如 category/brand/price 子分）；
// Labels 用于解释与策略驱动；Score 用于排序决策。
type Item struct {
	ID        int64
	Score     float64
	SubScores map[string]float64
	Labels    map[string]utils.Label
}

func NewItem(id int64) *Item {
	return &Item{
		ID:        id,
		Score:     0,
		SubScores: make(map[string]float64),
		Labels:    make(map[string]utils.Label),
	}
}

// PutSubScore 记录一个算法特定的诊断子分数，仅用于 explain / 调试。
func (it *Item) PutSubScore(key string, score float64) {
	if it.SubScores == nil {
		it.SubScores = make(map[string]float64)
	}
	it.SubScores[key] = score
}

// PutLabel 写入 Label；若已存在同名 key，则按默认 Merge 规则累积。
func (it *Item) PutLabel(key string, lbl utils.Label) {
	if it.Labels == nil {
		it.Labels = make(map[string]utils.Label)
	}
	if old, ok := it.Labels[key]; ok {
		it.Labels[key] = utils.MergeLabel(old, lbl)
		return
	}
	it.Labels[key] = lbl
}
