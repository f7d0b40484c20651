package model

// TrendingItem is a post ranked by engagement.
type TrendingItem struct {
	PostID       int64   `json:"post_id"`
	Text         string  `json:"text"`
	PlatformName *string `json:"platform_name,omitempty"`
	Score        float64 `json:"score"`
	Rank         int     `json:"rank"`
	IsHot        bool    `json:"is_hot"`
}

// Stats is the aggregate activity snapshot.
type Stats struct {
	TotalPosts      int64   `json:"total_posts"`
	TotalMoneySpent float64 `json:"total_money_spent"`
	ActiveUsers     int64   `json:"active_users"`
}
