package service

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"net/url"
	"strings"
	"time"

	"github.com/oneinfo/affiliate-backend/internal/cache"
	"github.com/oneinfo/affiliate-backend/internal/config"
	"github.com/oneinfo/affiliate-backend/internal/constants"
	"github.com/oneinfo/affiliate-backend/internal/logger"
	"github.com/oneinfo/affiliate-backend/internal/models"
	"github.com/oneinfo/affiliate-backend/internal/repository"
)

const (
	shortCodeAlphabet    = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	shortCodeMaxAttempts = 5
)

// DeeplinkBuilder 联盟跟踪链接生成
type DeeplinkBuilder interface {
	BuildDeeplink(landingURL, subID, creatorID string) (string, error)
	IsTrackingURL(raw string) bool
}

// CreateLinkInput 创建推广链接参数
type CreateLinkInput struct {
	CreatorID    string
	OriginalURL  string
	ProductTitle string
	ProductImage string
	ExpiresAt    *time.Time
}

// RedirectTarget 跳转目标
type RedirectTarget struct {
	ShortCode   string
	CreatorID   string
	TrackingURL string
}

// LinkService 推广链接服务
type LinkService struct {
	linkRepo repository.AffiliateLinkRepository
	deeplink DeeplinkBuilder
	cfg      config.LinksConfig
	now      func() time.Time
}

// NewLinkService 创建推广链接服务
func NewLinkService(linkRepo repository.AffiliateLinkRepository, deeplink DeeplinkBuilder, cfg config.LinksConfig) *LinkService {
	return &LinkService{
		linkRepo: linkRepo,
		deeplink: deeplink,
		cfg:      cfg,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// CreateLink 为达人生成短链与跟踪链接
func (s *LinkService) CreateLink(ctx context.Context, input CreateLinkInput) (*models.AffiliateLink, error) {
	creatorID := strings.TrimSpace(input.CreatorID)
	originalURL := strings.TrimSpace(input.OriginalURL)
	if creatorID == "" || originalURL == "" {
		return nil, ErrInvalidInput
	}
	if !s.isAllowedDomain(originalURL) {
		return nil, ErrLinkDomainNotAllowed
	}
	if s.deeplink == nil {
		return nil, ErrAdmitadDisabled
	}

	now := s.now()
	for attempt := 0; attempt < shortCodeMaxAttempts; attempt++ {
		code, err := s.generateShortCode()
		if err != nil {
			return nil, err
		}
		trackingURL, err := s.deeplink.BuildDeeplink(originalURL, code, creatorID)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrTrackingURLInvalid, err)
		}
		if !s.deeplink.IsTrackingURL(trackingURL) {
			return nil, ErrTrackingURLInvalid
		}
		link := &models.AffiliateLink{
			ShortCode:    code,
			CreatorID:    creatorID,
			OriginalURL:  originalURL,
			AffiliateURL: trackingURL,
			PublicURL:    s.publicURL(code),
			Platform:     constants.PlatformAdmitad,
			ProductTitle: strings.TrimSpace(input.ProductTitle),
			ProductImage: strings.TrimSpace(input.ProductImage),
			IsActive:     true,
			ExpiresAt:    input.ExpiresAt,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		if err := s.linkRepo.Create(link); err != nil {
			if isUniqueViolation(err) {
				logger.FromContext(ctx).Warnw("link_short_code_collision", "short_code", code, "attempt", attempt+1)
				continue
			}
			return nil, err
		}
		logger.FromContext(ctx).Infow("link_created", "short_code", code, "creator_id", creatorID)
		return link, nil
	}
	return nil, ErrShortCodeExhausted
}

// ListLinks 推广链接列表
func (s *LinkService) ListLinks(filter repository.LinkListFilter) ([]models.AffiliateLink, int64, error) {
	return s.linkRepo.List(filter)
}

// SetActive 启用或停用推广链接，并失效跳转缓存
func (s *LinkService) SetActive(ctx context.Context, shortCode string, active bool) error {
	code := strings.TrimSpace(shortCode)
	if code == "" {
		return ErrInvalidInput
	}
	changed, err := s.linkRepo.SetActive(code, active)
	if err != nil {
		return err
	}
	if !changed {
		return ErrLinkNotFound
	}
	if err := cache.DeleteLinkSnapshot(ctx, code); err != nil {
		logger.FromContext(ctx).Warnw("link_cache_invalidate_failed", "short_code", code, "error", err)
	}
	return nil
}

// Resolve 解析短码得到跳转目标
func (s *LinkService) Resolve(ctx context.Context, shortCode string) (*RedirectTarget, error) {
	code := strings.TrimSpace(shortCode)
	if code == "" {
		return nil, ErrLinkNotFound
	}
	snapshot, hit, err := cache.GetLinkSnapshot(ctx, code)
	if err != nil {
		logger.FromContext(ctx).Warnw("link_cache_get_failed", "short_code", code, "error", err)
	}
	if !hit {
		link, err := s.linkRepo.GetByShortCode(code)
		if err != nil {
			return nil, err
		}
		if link == nil {
			return nil, ErrLinkNotFound
		}
		snapshot = cache.NewLinkSnapshot(link)
		if err := cache.SetLinkSnapshot(ctx, snapshot); err != nil {
			logger.FromContext(ctx).Warnw("link_cache_set_failed", "short_code", code, "error", err)
		}
	}

	if !snapshot.IsActive {
		return nil, ErrLinkInactive
	}
	if snapshot.ExpiresAt != nil && !snapshot.ExpiresAt.After(s.now()) {
		return nil, ErrLinkExpired
	}
	if !isHTTPURL(snapshot.AffiliateURL) {
		return nil, ErrTrackingURLInvalid
	}
	return &RedirectTarget{
		ShortCode:   snapshot.ShortCode,
		CreatorID:   snapshot.CreatorID,
		TrackingURL: snapshot.AffiliateURL,
	}, nil
}

func (s *LinkService) isAllowedDomain(raw string) bool {
	parsed, err := url.Parse(raw)
	if err != nil || !isHTTPURL(raw) {
		return false
	}
	host := strings.ToLower(parsed.Hostname())
	if len(s.cfg.AllowedDomains) == 0 {
		return host != ""
	}
	for _, domain := range s.cfg.AllowedDomains {
		domain = strings.ToLower(strings.TrimSpace(domain))
		if domain == "" {
			continue
		}
		if host == domain || strings.HasSuffix(host, "."+domain) {
			return true
		}
	}
	return false
}

func (s *LinkService) generateShortCode() (string, error) {
	length := s.cfg.ShortCodeLength
	if length <= 0 {
		length = 6
	}
	prefix := s.cfg.ShortCodePrefix
	if prefix == "" {
		prefix = "OI-"
	}
	var b strings.Builder
	b.WriteString(prefix)
	limit := big.NewInt(int64(len(shortCodeAlphabet)))
	for i := 0; i < length; i++ {
		n, err := rand.Int(rand.Reader, limit)
		if err != nil {
			return "", err
		}
		b.WriteByte(shortCodeAlphabet[n.Int64()])
	}
	return b.String(), nil
}

func (s *LinkService) publicURL(code string) string {
	base := strings.TrimRight(strings.TrimSpace(s.cfg.BaseURL), "/")
	return base + "/share/" + code
}

func isHTTPURL(raw string) bool {
	parsed, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return false
	}
	scheme := strings.ToLower(parsed.Scheme)
	return (scheme == "http" || scheme == "https") && parsed.Host != ""
}
