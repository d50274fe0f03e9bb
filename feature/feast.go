package feature

import (
	"context"
	"fmt"
	"strconv"

	feastsdk "github.com/feast-dev/feast/sdk/go"
)

// RealtimeProvider 按用户提供实时特征（如 realtime_ctr、realtime_exposure），
// 用于在打分前补充 RecommendContext.Params。实现必须 best-effort：
// 取不到特征时返回空 map 而不是错误链路中断。
type RealtimeProvider interface {
	// UserFeatures 返回用户的实时特征字典
	UserFeatures(ctx context.Context, userID int64) (map[string]float64, error)
}

// FeastProvider 是基于官方 Feast Go SDK 的 RealtimeProvider 实现。
// Feast 是开源 Feature Store，在线存储提供低延迟特征读取。
type FeastProvider struct {
	client *feastsdk.GrpcClient

	// Project Feast 项目名
	Project string

	// EntityKey 实体 key 名，例如 "user_id"
	EntityKey string

	// Features 要拉取的特征列表，例如 ["user_stats:realtime_ctr"]
	Features []string
}

// NewFeastProvider 连接 Feast Feature Server（gRPC，默认端口 6565）。
func NewFeastProvider(host string, port int, project string, entityKey string, features []string) (*FeastProvider, error) {
	if port == 0 {
		port = 6565
	}
	client, err := feastsdk.NewGrpcClient(host, port)
	if err != nil {
		return nil, fmt.Errorf("feast grpc client: %w", err)
	}
	return &FeastProvider{
		client:    client,
		Project:   project,
		EntityKey: entityKey,
		Features:  features,
	}, nil
}

func (p *FeastProvider) UserFeatures(ctx context.Context, userID int64) (map[string]float64, error) {
	if p.client == nil || len(p.Features) == 0 {
		return map[string]float64{}, nil
	}

	entityKey := p.EntityKey
	if entityKey == "" {
		entityKey = "user_id"
	}

	req := &feastsdk.OnlineFeaturesRequest{
		Features: p.Features,
		Entities: []feastsdk.Row{
			{entityKey: feastsdk.Int64Val(userID)},
		},
		Project: p.Project,
	}

	resp, err := p.client.GetOnlineFeatures(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("feast get online features: %w", err)
	}

	rows := resp.Rows()
	if len(rows) == 0 {
		return map[string]float64{}, nil
	}

	out := make(map[string]float64, len(p.Features))
	row := rows[0]
	for _, name := range p.Features {
		val, ok := row[name]
		if !ok || val == nil {
			continue
		}
		if f, ok := valueToFloat(val); ok {
			out[name] = f
		}
	}
	return out, nil
}

// valueToFloat 把 SDK 返回的特征值转为 float64。
// SDK 的 Row 值是 protobuf Value，这里走字符串解析兜底，非数值特征被跳过。
func valueToFloat(val any) (float64, bool) {
	switch v := val.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int64:
		return float64(v), true
	case int32:
		return float64(v), true
	case int:
		return float64(v), true
	case bool:
		if v {
			return 1, true
		}
		return 0, true
	default:
		if f, err := strconv.ParseFloat(extractScalar(fmt.Sprintf("%v", val)), 64); err == nil {
			return f, true
		}
		return 0, false
	}
}

// extractScalar 从 protobuf Value 的文本形式（如 "double_val:0.42"）中提取标量。
func extractScalar(s string) string {
	for i := len(s) - 1; i >= 0; i-- {
		if s[i] == ':' {
			return trimSpaces(s[i+1:])
		}
	}
	return trimSpaces(s)
}

func trimSpaces(s string) string {
	start, end := 0, len(s)
	for start < end && (s[start] == ' ' || s[start] == '"') {
		start++
	}
	for end > start && (s[end-1] == ' ' || s[end-1] == '"' || s[end-1] == '}') {
		end--
	}
	return s[start:end]
}
