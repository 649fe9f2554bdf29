package service

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/oneinfo/affiliate-backend/internal/logger"
	"github.com/oneinfo/affiliate-backend/internal/models"
	"github.com/oneinfo/affiliate-backend/internal/repository"

	"gorm.io/gorm"
)

// ClickInput 一次跳转点击
type ClickInput struct {
	ShortCode string
	CreatorID string
	IP        string
	UserAgent string
	Referrer  string
	At        time.Time
}

// ClickService 点击记录服务
type ClickService struct {
	linkRepo  repository.AffiliateLinkRepository
	clickRepo repository.ClickEventRepository
	statsRepo repository.CreatorStatsRepository
	fraud     *FraudService
	now       func() time.Time
}

// NewClickService 创建点击记录服务
func NewClickService(
	linkRepo repository.AffiliateLinkRepository,
	clickRepo repository.ClickEventRepository,
	statsRepo repository.CreatorStatsRepository,
	fraud *FraudService,
) *ClickService {
	return &ClickService{
		linkRepo:  linkRepo,
		clickRepo: clickRepo,
		statsRepo: statsRepo,
		fraud:     fraud,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// TrackClick 判定作弊并追加点击日志；仅非作弊点击计入各项计数
func (s *ClickService) TrackClick(ctx context.Context, input ClickInput) (*models.ClickEvent, error) {
	at := input.At
	if at.IsZero() {
		at = s.now()
	}
	at = at.UTC()
	ip := strings.TrimSpace(input.IP)

	verdict, err := s.fraud.Evaluate(ip, input.ShortCode, at)
	if err != nil {
		return nil, err
	}
	event := &models.ClickEvent{
		ShortCode:   input.ShortCode,
		CreatorID:   input.CreatorID,
		IPAddress:   ip,
		UserAgent:   truncateString(input.UserAgent, 1024),
		Referrer:    truncateString(input.Referrer, 1024),
		IsFraud:     verdict.IsFraud,
		FraudReason: verdict.Reason,
		CreatedAt:   at,
	}
	if err := s.clickRepo.Create(event); err != nil {
		return nil, err
	}
	if verdict.IsFraud {
		logger.FromContext(ctx).Warnw("click_flagged_fraud",
			"short_code", input.ShortCode,
			"ip", ip,
			"reason", verdict.Reason,
		)
		return event, nil
	}

	err = s.linkRepo.Transaction(func(tx *gorm.DB) error {
		linkRepo := s.linkRepo.WithTx(tx)
		if err := linkRepo.IncrementClickCount(input.ShortCode); err != nil {
			return err
		}
		if err := linkRepo.IncrementLinkStats(input.ShortCode, input.CreatorID); err != nil {
			return err
		}
		return s.statsRepo.WithTx(tx).ApplyDelta(input.CreatorID, repository.CreatorStatsDelta{TotalClicks: 1})
	})
	if err != nil {
		return event, err
	}
	return event, nil
}

// ListFraud 最近的作弊点击
func (s *ClickService) ListFraud(limit int) ([]models.ClickEvent, error) {
	return s.clickRepo.ListFraud(limit)
}

// truncateString 按字节截断，不拆分多字节字符
func truncateString(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
