package core

import "time"

// InteractionType 是用户-商品交互类型的封闭枚举。
// 不使用开放字符串分发：新类型必须在此处定义并补充权重表。
type InteractionType string

const (
	InteractionView     InteractionType = "view"
	InteractionClick    InteractionType = "click"
	InteractionCart     InteractionType = "cart"
	InteractionPurchase InteractionType = "purchase"
	InteractionWishlist InteractionType = "wishlist"
	InteractionReview   InteractionType = "review"
)

// InteractionTypes 返回所有合法的交互类型。
func InteractionTypes() []InteractionType {
	return []InteractionType{
		InteractionView,
		InteractionClick,
		InteractionCart,
		InteractionPurchase,
		InteractionWishlist,
		InteractionReview,
	}
}

// Valid 判断交互类型是否合法。
func (t InteractionType) Valid() bool {
	switch t {
	case InteractionView, InteractionClick, InteractionCart,
		InteractionPurchase, InteractionWishlist, InteractionReview:
		return true
	}
	return false
}

// DefaultInteractionWeights 返回协同过滤使用的默认交互类型权重。
// 购买 > 评价 > 加购 > 心愿单 > 点击 > 浏览。
func DefaultInteractionWeights() map[InteractionType]float64 {
	return map[InteractionType]float64{
		InteractionPurchase: 1.0,
		InteractionReview:   0.6,
		InteractionCart:     0.5,
		InteractionWishlist: 0.4,
		InteractionClick:    0.3,
		InteractionView:     0.1,
	}
}

// Interaction 是一条用户-商品交互记录。
// 每个 (UserID, ProductID, Type) 逻辑上只有一行：
// 重复交互时 Count 递增、Rating 覆盖为最新值、LastAt 更新；打分引擎从不删除它。
type Interaction struct {
	UserID    int64
	ProductID int64
	Type      InteractionType
	Rating    float64
	Count     int
	FirstAt   time.Time
	LastAt    time.Time
}
