package strategy

import (
	"context"
	"fmt"
	"sort"

	"github.com/goleaf/shoprec/core"
	"github.com/goleaf/shoprec/pkg/simmath"
	"github.com/goleaf/shoprec/pkg/utils"
)

// CollaborativeConfig 协同过滤策略配置。
type CollaborativeConfig struct {
	MaxResults int     `yaml:"max_results" json:"max_results"`
	MinScore   float64 `yaml:"min_score" json:"min_score"`

	// MinInteractions 用户-商品交互纳入计算的最小次数
	MinInteractions int `yaml:"min_interactions" json:"min_interactions"`
	// NeighborThreshold 邻居相似度（Pearson）下限
	NeighborThreshold float64 `yaml:"neighbor_threshold" json:"neighbor_threshold"`
	// MaxNeighbors 参与打分的最大邻居数
	MaxNeighbors int `yaml:"max_neighbors" json:"max_neighbors"`

	// TypeWeights 各交互类型的权重，为空时取 core.DefaultInteractionWeights
	TypeWeights map[core.InteractionType]float64 `yaml:"type_weights" json:"type_weights"`
}

func DefaultCollaborativeConfig() CollaborativeConfig {
	return CollaborativeConfig{
		MaxResults:        10,
		MinScore:          0.1,
		MinInteractions:   1,
		NeighborThreshold: 0.3,
		MaxNeighbors:      50,
		TypeWeights:       core.DefaultInteractionWeights(),
	}
}

func (c CollaborativeConfig) withDefaults() CollaborativeConfig {
	def := DefaultCollaborativeConfig()
	if c.MaxResults <= 0 {
		c.MaxResults = def.MaxResults
	}
	if c.MinScore <= 0 {
		c.MinScore = def.MinScore
	}
	if c.MinInteractions <= 0 {
		c.MinInteractions = def.MinInteractions
	}
	if c.NeighborThreshold <= 0 {
		c.NeighborThreshold = def.NeighborThreshold
	}
	if c.MaxNeighbors <= 0 {
		c.MaxNeighbors = def.MaxNeighbors
	}
	if len(c.TypeWeights) == 0 {
		c.TypeWeights = def.TypeWeights
	}
	return c
}

// Collaborative 基于用户的协同过滤（user-kNN）：
//  1. 取目标用户的评分向量
//  2. 在与之有共同商品的用户中用 Pearson 相关挑选邻居
//  3. 邻居的交互按 rating * 相似度 * 交互类型权重贡献，按商品取平均
//
// 目标用户已交互过的商品从不出现在结果里。
type Collaborative struct {
	Catalog      core.CatalogStore
	Interactions core.InteractionStore
	Config       CollaborativeConfig
}

func NewCollaborative(catalog core.CatalogStore, interactions core.InteractionStore, cfg CollaborativeConfig) *Collaborative {
	return &Collaborative{
		Catalog:      catalog,
		Interactions: interactions,
		Config:       cfg.withDefaults(),
	}
}

func (s *Collaborative) Name() string { return core.AlgorithmCollaborative }

type neighbor struct {
	userID     int64
	similarity float64
}

func (s *Collaborative) Recommend(ctx context.Context, rctx *core.RecommendContext) ([]*core.Item, error) {
	if rctx == nil || rctx.UserID == 0 {
		return nil, nil
	}
	cfg := s.Config.withDefaults()

	userRatings, err := s.Interactions.UserRatings(ctx, rctx.UserID, cfg.MinInteractions)
	if err != nil {
		return nil, err
	}
	if len(userRatings) == 0 {
		// 冷启动用户：无交互历史，交给上层 fallback
		return nil, nil
	}

	neighbors, err := s.findNeighbors(ctx, rctx.UserID, userRatings, cfg)
	if err != nil {
		return nil, err
	}
	if len(neighbors) == 0 {
		return nil, nil
	}

	sums := make(map[int64]float64)
	counts := make(map[int64]int)
	for _, nb := range neighbors {
		interactions, err := s.Interactions.UserInteractions(ctx, nb.userID, cfg.MinInteractions)
		if err != nil {
			return nil, err
		}
		for _, inter := range interactions {
			if _, seen := userRatings[inter.ProductID]; seen {
				continue // 目标用户已交互过
			}
			if inter.ProductID == rctx.ProductID {
				continue
			}
			weight, ok := cfg.TypeWeights[inter.Type]
			if !ok {
				continue
			}
			sums[inter.ProductID] += inter.Rating * nb.similarity * weight
			counts[inter.ProductID]++
		}
	}

	scored := make([]*core.Item, 0, len(sums))
	for pid, sum := range sums {
		score := sum / float64(counts[pid])
		if score < cfg.MinScore {
			continue
		}
		it := core.NewItem(pid)
		it.Score = score
		it.PutSubScore("neighbor_votes", float64(counts[pid]))
		it.PutLabel("recall_source", utils.Label{Value: "user_knn", Source: s.Name()})
		scored = append(scored, it)
	}
	sortItems(scored)
	scored = truncateItems(scored, cfg.MaxResults)

	return hydrateVisible(ctx, s.Catalog, scored)
}

func (s *Collaborative) findNeighbors(
	ctx context.Context,
	userID int64,
	userRatings map[int64]float64,
	cfg CollaborativeConfig,
) ([]neighbor, error) {
	productIDs := make([]int64, 0, len(userRatings))
	for pid := range userRatings {
		productIDs = append(productIDs, pid)
	}
	candidateIDs, err := s.Interactions.UsersForProducts(ctx, productIDs, cfg.MinInteractions)
	if err != nil {
		return nil, err
	}

	target := keyedRatings(userRatings)
	neighbors := make([]neighbor, 0, len(candidateIDs))
	for _, cid := range candidateIDs {
		if cid == userID {
			continue
		}
		ratings, err := s.Interactions.UserRatings(ctx, cid, cfg.MinInteractions)
		if err != nil {
			return nil, err
		}
		sim := simmath.PearsonCorrelation(target, keyedRatings(ratings))
		if sim >= cfg.NeighborThreshold {
			neighbors = append(neighbors, neighbor{userID: cid, similarity: sim})
		}
	}

	sort.SliceStable(neighbors, func(i, j int) bool {
		if neighbors[i].similarity != neighbors[j].similarity {
			return neighbors[i].similarity > neighbors[j].similarity
		}
		return neighbors[i].userID < neighbors[j].userID
	})
	if len(neighbors) > cfg.MaxNeighbors {
		neighbors = neighbors[:cfg.MaxNeighbors]
	}
	return neighbors, nil
}

// UpdateInteraction 记录一次用户交互，供后续协同过滤使用。
// rating 为 nil 时按交互类型权重换算隐式评分（5 * 类型权重）。
func (s *Collaborative) UpdateInteraction(
	ctx context.Context,
	userID, productID int64,
	typ core.InteractionType,
	rating *float64,
) error {
	if !typ.Valid() {
		return core.NewDomainError(core.ModuleStrategy, core.ErrorCodeInvalidInput,
			fmt.Sprintf("unknown interaction type: %s", typ))
	}
	cfg := s.Config.withDefaults()

	r := 0.0
	if rating != nil {
		r = *rating
	} else if w, ok := cfg.TypeWeights[typ]; ok {
		r = 5 * w
	}
	return s.Interactions.UpsertInteraction(ctx, userID, productID, typ, r)
}
