// Package simmath 提供稀疏向量的相似度数学原语：余弦相似度、向量归一化、
// 皮尔逊相关系数、Jaccard 系数。多个推荐策略共享这些原语。
//
// 除零场景（空向量、零模长、零方差）一律返回 0.0 而不是报错：
// 稀疏数据下"算不出来"是常态，调用方把 0 当作"无相似度"处理即可。
package simmath

import "math"

// CosineSimilarity 计算两个稀疏向量的余弦相似度，取值 [-1, 1]。
//
// 只在两个向量 key 的交集上计算：未共享的维度贡献为零而不是惩罚项。
// 这样稀疏/部分重叠的向量仍能得到可用（可能偏低）的分数。
// 任一向量为空、交集为空或任一模长为零时返回 0。
func CosineSimilarity(a, b map[string]float64) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}

	var dot, normA, normB float64
	shared := false
	for k, va := range a {
		vb, ok := b[k]
		if !ok {
			continue
		}
		shared = true
		dot += va * vb
		normA += va * va
		normB += vb * vb
	}
	if !shared || normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// NormalizeVector 将向量按欧氏模长归一化。
// 模长为零时原样返回输入（不视为错误）。
func NormalizeVector(v map[string]float64) map[string]float64 {
	var sum float64
	for _, val := range v {
		sum += val * val
	}
	if sum == 0 {
		return v
	}
	norm := math.Sqrt(sum)
	out := make(map[string]float64, len(v))
	for k, val := range v {
		out[k] = val / norm
	}
	return out
}

// PearsonCorrelation 计算两组评分在公共 key 上的皮尔逊相关系数，取值 [-1, 1]。
// 公共 key 少于 2 个、或任一侧方差为零时返回 0。
func PearsonCorrelation(a, b map[string]float64) float64 {
	common := make([]string, 0, len(a))
	for k := range a {
		if _, ok := b[k]; ok {
			common = append(common, k)
		}
	}
	if len(common) < 2 {
		return 0
	}

	var meanA, meanB float64
	for _, k := range common {
		meanA += a[k]
		meanB += b[k]
	}
	n := float64(len(common))
	meanA /= n
	meanB /= n

	var cov, varA, varB float64
	for _, k := range common {
		da := a[k] - meanA
		db := b[k] - meanB
		cov += da * db
		varA += da * da
		varB += db * db
	}
	if varA == 0 || varB == 0 {
		return 0
	}
	return cov / math.Sqrt(varA*varB)
}

// JaccardIndex 计算两个 int64 集合的 Jaccard 系数（交集/并集），取值 [0, 1]。
// 两个集合都为空时返回 0。
func JaccardIndex(a, b []int64) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 0
	}
	setA := make(map[int64]struct{}, len(a))
	for _, v := range a {
		setA[v] = struct{}{}
	}
	union := make(map[int64]struct{}, len(a)+len(b))
	for v := range setA {
		union[v] = struct{}{}
	}
	var intersection int
	for _, v := range b {
		if _, ok := setA[v]; ok {
			intersection++
		}
		union[v] = struct{}{}
	}
	if len(union) == 0 {
		return 0
	}
	return float64(intersection) / float64(len(union))
}

// JaccardKeys 计算两个稀疏向量中带指定前缀的 key 集合的 Jaccard 系数。
// 内容推荐用它比较 category_* / attr_* 维度。
func JaccardKeys(a, b map[string]float64, prefix string) float64 {
	keysA := keysWithPrefix(a, prefix)
	keysB := keysWithPrefix(b, prefix)
	if len(keysA) == 0 && len(keysB) == 0 {
		return 0
	}
	union := make(map[string]struct{}, len(keysA)+len(keysB))
	for k := range keysA {
		union[k] = struct{}{}
	}
	var intersection int
	for k := range keysB {
		if _, ok := keysA[k]; ok {
			intersection++
		}
		union[k] = struct{}{}
	}
	if len(union) == 0 {
		return 0
	}
	return float64(intersection) / float64(len(union))
}

// HasSharedKey 判断两个稀疏向量是否存在带指定前缀的相同 key。
// 品牌/价格带的二元匹配用它实现。
func HasSharedKey(a, b map[string]float64, prefix string) bool {
	for k := range a {
		if len(k) < len(prefix) || k[:len(prefix)] != prefix {
			continue
		}
		if _, ok := b[k]; ok {
			return true
		}
	}
	return false
}

func keysWithPrefix(v map[string]float64, prefix string) map[string]struct{} {
	out := make(map[string]struct{})
	for k := range v {
		if len(k) >= len(prefix) && k[:len(prefix)] == prefix {
			out[k] = struct{}{}
		}
	}
	return out
}
