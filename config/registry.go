// Package config 提供配置驱动的 Pipeline 组装：
// 内置 Node 构建器（factory.go）+ 可扩展的全局注册表（registry.go）。
package config

import (
	"fmt"
	"sort"
	"sync"

	"github.com/goleaf/shoprec/pipeline"
)

// NodeBuilder 与 pipeline.NodeBuilder 一致：根据 config 构建 Node。
type NodeBuilder = pipeline.NodeBuilder

var (
	extraBuilders   = make(map[string]NodeBuilder)
	extraBuildersMu sync.RWMutex
)

// Register 注册自定义 Node 类型，供配置驱动使用。
// 建议在组件的 init 中调用，例如 config.Register("rerank.custom", buildCustomNode)。
func Register(typeName string, builder NodeBuilder) {
	if typeName == "" || builder == nil {
		return
	}
	extraBuildersMu.Lock()
	defer extraBuildersMu.Unlock()
	extraBuilders[typeName] = builder
}

// SupportedTypes 返回内置与已注册的 Node 类型列表（排序），用于错误提示与校验。
func SupportedTypes() []string {
	types := make([]string, 0, len(builtinTypes)+len(extraBuilders))
	types = append(types, builtinTypes...)

	extraBuildersMu.RLock()
	for t := range extraBuilders {
		types = append(types, t)
	}
	extraBuildersMu.RUnlock()

	sort.Strings(types)
	return types
}

// ValidatePipelineConfig 校验配置中所有 node 类型均可构建。
func ValidatePipelineConfig(cfg *pipeline.Config) error {
	if cfg == nil {
		return nil
	}
	known := make(map[string]struct{})
	for _, t := range SupportedTypes() {
		known[t] = struct{}{}
	}
	for _, nc := range cfg.Pipeline.Nodes {
		if nc.Type == "" {
			continue
		}
		if _, ok := known[nc.Type]; !ok {
			return fmt.Errorf("unsupported node type %q (supported: %v)", nc.Type, SupportedTypes())
		}
	}
	return nil
}

func applyExtraBuilders(f *pipeline.NodeFactory) {
	extraBuildersMu.RLock()
	defer extraBuildersMu.RUnlock()
	for typeName, builder := range extraBuilders {
		f.Register(typeName, builder)
	}
}
