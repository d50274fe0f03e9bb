// Package cache 为策略结果提供读穿/回写的 KV 缓存层。
package cache

import (
	"encoding/json"
	"fmt"
	"hash/fnv"
	"sort"

	"github.com/goleaf/shoprec/core"
)

// Fingerprint 为一次推荐请求生成稳定的缓存 key：
//
//	rec:<算法名>:u<用户ID>:p<商品ID>:<上下文参数哈希>
//
// Params 序列化前按 key 排序，保证同一请求不同 map 遍历顺序下指纹一致。
func Fingerprint(algorithm string, rctx *core.RecommendContext) string {
	var userID, productID int64
	var scene string
	var params map[string]any
	if rctx != nil {
		userID = rctx.UserID
		productID = rctx.ProductID
		scene = rctx.Scene
		params = rctx.Params
	}
	return fmt.Sprintf("rec:%s:u%d:p%d:%s", algorithm, userID, productID, hashContext(scene, params))
}

func hashContext(scene string, params map[string]any) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	h := fnv.New64a()
	h.Write([]byte(scene))
	for _, k := range keys {
		h.Write([]byte(k))
		// 哈希输入不要求可逆，序列化失败的值按空白处理
		if data, err := json.Marshal(params[k]); err == nil {
			h.Write(data)
		}
	}
	return fmt.Sprintf("%016x", h.Sum64())
}
