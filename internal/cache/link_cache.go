package cache

import (
	"context"
	"time"

	"github.com/oneinfo/affiliate-backend/internal/models"
)

const linkCacheTTL = 5 * time.Minute

// LinkSnapshot 跳转所需的短链快照，仅用于 Redis 缓存
type LinkSnapshot struct {
	ShortCode    string     `json:"short_code"`
	CreatorID    string     `json:"creator_id"`
	AffiliateURL string     `json:"affiliate_url"`
	IsActive     bool       `json:"is_active"`
	ExpiresAt    *time.Time `json:"expires_at,omitempty"`
}

func linkKey(shortCode string) string {
	return "link:" + shortCode
}

// NewLinkSnapshot 从模型构建快照
func NewLinkSnapshot(link *models.AffiliateLink) *LinkSnapshot {
	if link == nil {
		return nil
	}
	return &LinkSnapshot{
		ShortCode:    link.ShortCode,
		CreatorID:    link.CreatorID,
		AffiliateURL: link.AffiliateURL,
		IsActive:     link.IsActive,
		ExpiresAt:    link.ExpiresAt,
	}
}

// GetLinkSnapshot 读取短链快照
func GetLinkSnapshot(ctx context.Context, shortCode string) (*LinkSnapshot, bool, error) {
	var snapshot LinkSnapshot
	hit, err := getJSON(ctx, linkKey(shortCode), &snapshot)
	if err != nil || !hit {
		return nil, false, err
	}
	return &snapshot, true, nil
}

// SetLinkSnapshot 写入短链快照
func SetLinkSnapshot(ctx context.Context, snapshot *LinkSnapshot) error {
	if snapshot == nil {
		return nil
	}
	return setJSON(ctx, linkKey(snapshot.ShortCode), snapshot, linkCacheTTL)
}

// DeleteLinkSnapshot 失效短链快照
func DeleteLinkSnapshot(ctx context.Context, shortCode string) error {
	return del(ctx, linkKey(shortCode))
}
