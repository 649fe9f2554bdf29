package models

import "time"

// AffiliateLink 推广短链
type AffiliateLink struct {
	ID           uint       `gorm:"primarykey" json:"id"`                                    // 主键
	ShortCode    string     `gorm:"type:varchar(64);not null;uniqueIndex" json:"short_code"` // 短码
	CreatorID    string     `gorm:"type:varchar(64);not null;index" json:"creator_id"`       // 达人ID
	OriginalURL  string     `gorm:"type:varchar(2048);not null" json:"original_url"`         // 商品原始链接
	AffiliateURL string     `gorm:"type:varchar(2048);not null" json:"affiliate_url"`        // 联盟跟踪链接
	PublicURL    string     `gorm:"type:varchar(512)" json:"public_url"`                     // 对外分享链接
	Platform     string     `gorm:"type:varchar(32);index" json:"platform"`                  // 联盟平台
	ProductTitle string     `gorm:"type:varchar(255)" json:"product_title"`                  // 商品标题
	ProductImage string     `gorm:"type:varchar(1024)" json:"product_image"`                 // 商品图片
	ClickCount   int64      `gorm:"not null;default:0" json:"click_count"`                   // 有效点击数
	IsActive     bool       `gorm:"not null;default:true" json:"is_active"`                  // 是否启用
	ExpiresAt    *time.Time `gorm:"index" json:"expires_at,omitempty"`                       // 过期时间
	CreatedAt    time.Time  `gorm:"index" json:"created_at"`                                 // 创建时间
	UpdatedAt    time.Time  `json:"updated_at"`                                              // 更新时间
}

// TableName 指定表名
func (AffiliateLink) TableName() string {
	return "affiliate_links"
}

// IsExpired 判断链接是否已过期
func (l *AffiliateLink) IsExpired(now time.Time) bool {
	return l.ExpiresAt != nil && !l.ExpiresAt.After(now)
}
