package feature

import (
	"testing"

	"github.com/goleaf/shoprec/core"
)

func TestPriceBand(t *testing.T) {
	tests := []struct {
		price float64
		want  string
	}{
		{0, PriceBandBudget},
		{9.99, PriceBandBudget},
		{10, PriceBandLow},
		{49.99, PriceBandLow},
		{50, PriceBandMedium},
		{99.99, PriceBandMedium},
		{100, PriceBandHigh},
		{499.99, PriceBandHigh},
		{500, PriceBandPremium},
		{10000, PriceBandPremium},
	}

	for _, tt := range tests {
		if got := PriceBand(tt.price); got != tt.want {
			t.Errorf("PriceBand(%v) = %q, want %q", tt.price, got, tt.want)
		}
	}
}

func TestExtract(t *testing.T) {
	p := &core.Product{
		ID:           1,
		Price:        40,
		CategoryIDs:  []int64{1, 2},
		BrandID:      5,
		AttributeIDs: []int64{12},
		Visible:      true,
	}

	features := Extract(p)

	want := map[string]float64{
		"category_1":      1.0,
		"category_2":      1.0,
		"brand_5":         1.0,
		"price_range_low": 1.0,
		"attr_12":         1.0,
	}
	if len(features) != len(want) {
		t.Fatalf("Extract() returned %d features, want %d: %v", len(features), len(want), features)
	}
	for k, v := range want {
		if features[k] != v {
			t.Errorf("features[%q] = %v, want %v", k, features[k], v)
		}
	}
}

func TestExtractNoBrand(t *testing.T) {
	p := &core.Product{ID: 2, Price: 600, CategoryIDs: []int64{7}}
	features := Extract(p)

	if _, ok := features["brand_0"]; ok {
		t.Error("brand key must be absent when BrandID is 0")
	}
	if features["price_range_premium"] != 1.0 {
		t.Errorf("expected premium price band, got %v", features)
	}

	// 恰好一个价格带 key
	var priceKeys int
	for k := range features {
		if len(k) > len(PrefixPriceRange) && k[:len(PrefixPriceRange)] == PrefixPriceRange {
			priceKeys++
		}
	}
	if priceKeys != 1 {
		t.Errorf("expected exactly one price_range key, got %d", priceKeys)
	}
}

func TestExtractNil(t *testing.T) {
	if features := Extract(nil); len(features) != 0 {
		t.Errorf("Extract(nil) = %v, want empty", features)
	}
}
