// Package feature 负责把商品的离散属性（类目、品牌、价格带、规格属性）
// 转换为稀疏加权特征向量，供相似度计算使用。
package feature

import (
	"fmt"

	"github.com/goleaf/shoprec/core"
)

// 特征 key 前缀。相似度计算按前缀切分维度。
const (
	PrefixCategory   = "category_"
	PrefixBrand      = "brand_"
	PrefixPriceRange = "price_range_"
	PrefixAttribute  = "attr_"
)

// 价格带名称。五个互斥的有序区间，每个商品恰好落入一个。
const (
	PriceBandBudget  = "budget"  // < 10
	PriceBandLow     = "low"     // < 50
	PriceBandMedium  = "medium"  // < 100
	PriceBandHigh    = "high"    // < 500
	PriceBandPremium = "premium" // >= 500
)

// PriceBand 返回价格所属的价格带。阈值固定：10 / 50 / 100 / 500。
func PriceBand(price float64) string {
	switch {
	case price < 10:
		return PriceBandBudget
	case price < 50:
		return PriceBandLow
	case price < 100:
		return PriceBandMedium
	case price < 500:
		return PriceBandHigh
	default:
		return PriceBandPremium
	}
}

// Extract 把商品转换为稀疏特征向量。确定性的纯函数：
//   - 每个类目 -> category_<id> 权重 1.0
//   - 品牌（如有）-> brand_<id> 权重 1.0
//   - 价格带 -> price_range_<band> 权重 1.0（恰好一个）
//   - 每个属性 -> attr_<id> 权重 1.0
//
// 此处不做归一化，输出是原始指示权重；需要归一化时由调用方自行处理
// （见 simmath.NormalizeVector）。
func Extract(p *core.Product) map[string]float64 {
	if p == nil {
		return map[string]float64{}
	}

	features := make(map[string]float64, len(p.CategoryIDs)+len(p.AttributeIDs)+2)
	for _, id := range p.CategoryIDs {
		features[fmt.Sprintf("%s%d", PrefixCategory, id)] = 1.0
	}
	if p.BrandID != 0 {
		features[fmt.Sprintf("%s%d", PrefixBrand, p.BrandID)] = 1.0
	}
	features[PrefixPriceRange+PriceBand(p.Price)] = 1.0
	for _, id := range p.AttributeIDs {
		features[fmt.Sprintf("%s%d", PrefixAttribute, id)] = 1.0
	}
	return features
}
