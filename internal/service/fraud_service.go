package service

import (
	"time"

	"github.com/oneinfo/affiliate-backend/internal/config"
	"github.com/oneinfo/affiliate-backend/internal/constants"
	"github.com/oneinfo/affiliate-backend/internal/repository"
)

// FraudVerdict 点击判定结果
type FraudVerdict struct {
	IsFraud bool
	Reason  string
}

// FraudService 基于固定窗口阈值的点击反作弊
type FraudService struct {
	clickRepo       repository.ClickEventRepository
	window          time.Duration
	maxPerIP        int64
	maxPerShortCode int64
}

// NewFraudService 创建反作弊服务
func NewFraudService(clickRepo repository.ClickEventRepository, cfg config.FraudConfig) *FraudService {
	window := time.Duration(cfg.WindowSeconds) * time.Second
	if window <= 0 {
		window = 5 * time.Minute
	}
	maxPerIP := int64(cfg.MaxPerIP)
	if maxPerIP <= 0 {
		maxPerIP = 20
	}
	maxPerCode := int64(cfg.MaxPerShortCode)
	if maxPerCode <= 0 {
		maxPerCode = 200
	}
	return &FraudService{
		clickRepo:       clickRepo,
		window:          window,
		maxPerIP:        maxPerIP,
		maxPerShortCode: maxPerCode,
	}
}

// Evaluate 统计窗口内已记录的点击，加上本次点击后超过阈值即判定作弊
func (s *FraudService) Evaluate(ip, shortCode string, at time.Time) (FraudVerdict, error) {
	since := at.Add(-s.window)
	if ip != "" {
		count, err := s.clickRepo.CountByIPSince(ip, since)
		if err != nil {
			return FraudVerdict{}, err
		}
		if count+1 > s.maxPerIP {
			return FraudVerdict{IsFraud: true, Reason: constants.FraudReasonIPBurst}, nil
		}
	}
	count, err := s.clickRepo.CountByShortCodeSince(shortCode, since)
	if err != nil {
		return FraudVerdict{}, err
	}
	if count+1 > s.maxPerShortCode {
		return FraudVerdict{IsFraud: true, Reason: constants.FraudReasonShortCodeBurst}, nil
	}
	return FraudVerdict{}, nil
}
