package simmath

import (
	"math"
	"testing"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestCosineSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a    map[string]float64
		b    map[string]float64
		want float64
	}{
		{
			name: "identical vector equals 1",
			a:    map[string]float64{"category_1": 1, "brand_5": 1, "attr_3": 2},
			b:    map[string]float64{"category_1": 1, "brand_5": 1, "attr_3": 2},
			want: 1.0,
		},
		{
			name: "empty vector equals 0",
			a:    map[string]float64{"category_1": 1},
			b:    map[string]float64{},
			want: 0,
		},
		{
			name: "disjoint keys equal 0",
			a:    map[string]float64{"category_1": 1},
			b:    map[string]float64{"category_2": 1},
			want: 0,
		},
		{
			name: "intersection only: unshared dimensions do not penalize",
			a:    map[string]float64{"category_1": 1, "category_2": 1},
			b:    map[string]float64{"category_1": 1, "category_9": 5},
			// 交集只有 category_1，两侧在交集上的向量都是 (1) -> 相似度 1
			want: 1.0,
		},
		{
			name: "opposite sign yields -1",
			a:    map[string]float64{"x": 1},
			b:    map[string]float64{"x": -1},
			want: -1.0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CosineSimilarity(tt.a, tt.b)
			if !almostEqual(got, tt.want) {
				t.Errorf("CosineSimilarity() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNormalizeVector(t *testing.T) {
	v := map[string]float64{"a": 3, "b": 4}
	got := NormalizeVector(v)
	if !almostEqual(got["a"], 0.6) || !almostEqual(got["b"], 0.8) {
		t.Errorf("NormalizeVector() = %v", got)
	}

	// 归一化后的模长应为 1
	var sum float64
	for _, val := range got {
		sum += val * val
	}
	if !almostEqual(sum, 1.0) {
		t.Errorf("norm after normalize = %v, want 1", math.Sqrt(sum))
	}

	// 零向量原样返回
	zero := map[string]float64{"a": 0}
	if got := NormalizeVector(zero); !almostEqual(got["a"], 0) {
		t.Errorf("NormalizeVector(zero) = %v", got)
	}
}

func TestPearsonCorrelation(t *testing.T) {
	tests := []struct {
		name string
		a    map[string]float64
		b    map[string]float64
		want float64
	}{
		{
			name: "perfect positive correlation",
			a:    map[string]float64{"p1": 1, "p2": 2, "p3": 3},
			b:    map[string]float64{"p1": 2, "p2": 4, "p3": 6},
			want: 1.0,
		},
		{
			name: "perfect negative correlation",
			a:    map[string]float64{"p1": 1, "p2": 2, "p3": 3},
			b:    map[string]float64{"p1": 3, "p2": 2, "p3": 1},
			want: -1.0,
		},
		{
			name: "fewer than two common keys returns 0",
			a:    map[string]float64{"p1": 1, "p2": 2},
			b:    map[string]float64{"p2": 4, "p9": 1},
			want: 0,
		},
		{
			name: "zero variance returns 0",
			a:    map[string]float64{"p1": 3, "p2": 3},
			b:    map[string]float64{"p1": 1, "p2": 5},
			want: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := PearsonCorrelation(tt.a, tt.b)
			if !almostEqual(got, tt.want) {
				t.Errorf("PearsonCorrelation() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestJaccardIndex(t *testing.T) {
	a := []int64{1, 2}
	b := []int64{2, 3}
	if got := JaccardIndex(a, b); !almostEqual(got, 1.0/3.0) {
		t.Errorf("JaccardIndex() = %v, want 1/3", got)
	}

	// 对称性
	if JaccardIndex(a, b) != JaccardIndex(b, a) {
		t.Error("JaccardIndex is not symmetric")
	}

	if got := JaccardIndex(nil, nil); got != 0 {
		t.Errorf("JaccardIndex(empty) = %v, want 0", got)
	}
	if got := JaccardIndex([]int64{1}, []int64{1}); !almostEqual(got, 1.0) {
		t.Errorf("JaccardIndex(identical) = %v, want 1", got)
	}
}

func TestJaccardKeys(t *testing.T) {
	a := map[string]float64{"category_1": 1, "category_2": 1, "brand_5": 1}
	b := map[string]float64{"category_2": 1, "category_3": 1, "brand_5": 1}

	if got := JaccardKeys(a, b, "category_"); !almostEqual(got, 1.0/3.0) {
		t.Errorf("JaccardKeys(category) = %v, want 1/3", got)
	}
	// 前缀过滤：brand 维度不参与 category 的计算
	if got := JaccardKeys(a, b, "brand_"); !almostEqual(got, 1.0) {
		t.Errorf("JaccardKeys(brand) = %v, want 1", got)
	}
	// 对称性
	if JaccardKeys(a, b, "category_") != JaccardKeys(b, a, "category_") {
		t.Error("JaccardKeys is not symmetric")
	}
	if got := JaccardKeys(a, b, "attr_"); got != 0 {
		t.Errorf("JaccardKeys(attr, both empty) = %v, want 0", got)
	}
}

func TestHasSharedKey(t *testing.T) {
	a := map[string]float64{"brand_5": 1, "price_range_low": 1}
	b := map[string]float64{"brand_5": 1, "price_range_medium": 1}

	if !HasSharedKey(a, b, "brand_") {
		t.Error("expected shared brand key")
	}
	if HasSharedKey(a, b, "price_range_") {
		t.Error("expected no shared price_range key")
	}
}
