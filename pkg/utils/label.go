// Package utils 提供标签等跨包共享的小工具。
package utils

// Label 是结果与请求上的可解释标记：Value 是内容，Source 是写入方
// （策略名 / 过滤器名 / fallback 来源）。链路各阶段只追加，不覆盖。
type Label struct {
	Value  string `json:"value"`
	Source string `json:"source"`
}

// MergeLabel 合并同 key 的两个 Label，保留双方历史：
// Value 以 '|' 连接，Source 以 ',' 连接。任一侧为空时直接取另一侧。
func MergeLabel(existing Label, incoming Label) Label {
	if existing.Value == "" {
		return incoming
	}
	if incoming.Value == "" {
		return existing
	}
	return Label{
		Value:  existing.Value + "|" + incoming.Value,
		Source: joinNonEmpty(existing.Source, incoming.Source),
	}
}

func joinNonEmpty(a, b string) string {
	switch {
	case a == "":
		return b
	case b == "":
		return a
	default:
		return a + "," + b
	}
}
