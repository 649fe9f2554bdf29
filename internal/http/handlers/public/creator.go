package public

import (
	"errors"
	"time"

	handlershared "github.com/oneinfo/affiliate-backend/internal/http/handlers/shared"
	"github.com/oneinfo/affiliate-backend/internal/http/response"
	"github.com/oneinfo/affiliate-backend/internal/models"
	"github.com/oneinfo/affiliate-backend/internal/repository"
	"github.com/oneinfo/affiliate-backend/internal/service"

	"github.com/gin-gonic/gin"
)

// CreateLinkRequest 生成推广链接请求
type CreateLinkRequest struct {
	OriginalURL  string     `json:"original_url" binding:"required"`
	ProductTitle string     `json:"product_title"`
	ProductImage string     `json:"product_image"`
	ExpiresAt    *time.Time `json:"expires_at"`
}

// GetMyStats 当前达人汇总
func (h *Handler) GetMyStats(c *gin.Context) {
	creatorID, ok := getCreatorID(c)
	if !ok {
		return
	}
	stats, err := h.CreatorStatsService.GetByCreatorID(creatorID)
	if err != nil {
		respondError(c, response.CodeInternal, "stats fetch failed", err)
		return
	}
	if stats == nil {
		// 尚无订单与点击的达人返回零值汇总
		stats = &models.CreatorStats{CreatorID: creatorID}
	}
	response.Success(c, stats)
}

// ListMyLinks 当前达人的推广链接
func (h *Handler) ListMyLinks(c *gin.Context) {
	creatorID, ok := getCreatorID(c)
	if !ok {
		return
	}
	page, pageSize := handlershared.ParsePagination(c)
	links, total, err := h.LinkService.ListLinks(repository.LinkListFilter{
		Page:      page,
		PageSize:  pageSize,
		CreatorID: creatorID,
	})
	if err != nil {
		respondError(c, response.CodeInternal, "link fetch failed", err)
		return
	}
	response.SuccessWithPage(c, links, handlershared.BuildPagination(page, pageSize, total))
}

// CreateMyLink 为当前达人生成推广链接
func (h *Handler) CreateMyLink(c *gin.Context) {
	creatorID, ok := getCreatorID(c)
	if !ok {
		return
	}
	var req CreateLinkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "invalid link payload", err)
		return
	}
	link, err := h.LinkService.CreateLink(c.Request.Context(), service.CreateLinkInput{
		CreatorID:    creatorID,
		OriginalURL:  req.OriginalURL,
		ProductTitle: req.ProductTitle,
		ProductImage: req.ProductImage,
		ExpiresAt:    req.ExpiresAt,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidInput), errors.Is(err, service.ErrLinkDomainNotAllowed):
			respondError(c, response.CodeBadRequest, err.Error(), nil)
		case errors.Is(err, service.ErrAdmitadDisabled):
			respondError(c, response.CodeServiceUnavailable, "affiliate network unavailable", err)
		case errors.Is(err, service.ErrTrackingURLInvalid):
			respondError(c, response.CodeInternal, "tracking url generation failed", err)
		default:
			respondError(c, response.CodeInternal, "link create failed", err)
		}
		return
	}
	response.Success(c, link)
}
