// Package shoprec 是一个电商推荐打分引擎（Shop Recommender）。
//
// 设计要点：
// - Pipeline-first: 推荐逻辑通过 Node 串联（前处理 → 策略 → 过滤 → 重排 → 后处理）
// - Labels-first: labels 全链路透传与标准化 merge，支持 explain / 观测 / 降级标记
// - 策略族可组合: 内容相似 / 协同过滤 / 交叉销售 / 向上销售 / 热门 / 趋势，由 Hybrid 加权融合
package shoprec

import "github.com/goleaf/shoprec/pipeline"

// 轻量 facade：便于用户直接 import "shoprec" 使用核心抽象。
type Pipeline = pipeline.Pipeline
type Node = pipeline.Node
type Kind = pipeline.Kind

const (
	KindPreProcess  = pipeline.KindPreProcess
	KindStrategy    = pipeline.KindStrategy
	KindFilter      = pipeline.KindFilter
	KindReRank      = pipeline.KindReRank
	KindPostProcess = pipeline.KindPostProcess
)
