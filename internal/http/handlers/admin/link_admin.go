package admin

import (
	"errors"
	"strings"

	handlershared "github.com/oneinfo/affiliate-backend/internal/http/handlers/shared"
	"github.com/oneinfo/affiliate-backend/internal/http/response"
	"github.com/oneinfo/affiliate-backend/internal/repository"
	"github.com/oneinfo/affiliate-backend/internal/service"

	"github.com/gin-gonic/gin"
)

// SetLinkActiveRequest 启停推广链接请求
type SetLinkActiveRequest struct {
	IsActive *bool `json:"is_active" binding:"required"`
}

// ListLinks 管理端推广链接列表
func (h *Handler) ListLinks(c *gin.Context) {
	page, pageSize := handlershared.ParsePagination(c)
	filter := repository.LinkListFilter{
		Page:      page,
		PageSize:  pageSize,
		CreatorID: strings.TrimSpace(c.Query("creator_id")),
		Platform:  strings.TrimSpace(c.Query("platform")),
		Keyword:   c.Query("keyword"),
	}
	switch strings.ToLower(strings.TrimSpace(c.Query("is_active"))) {
	case "true", "1":
		active := true
		filter.IsActive = &active
	case "false", "0":
		active := false
		filter.IsActive = &active
	}
	links, total, err := h.LinkService.ListLinks(filter)
	if err != nil {
		respondError(c, response.CodeInternal, "link fetch failed", err)
		return
	}
	response.SuccessWithPage(c, links, handlershared.BuildPagination(page, pageSize, total))
}

// SetLinkActive 启用或停用推广链接
func (h *Handler) SetLinkActive(c *gin.Context) {
	code := strings.TrimSpace(c.Param("code"))
	var req SetLinkActiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "invalid link payload", err)
		return
	}
	if err := h.LinkService.SetActive(c.Request.Context(), code, *req.IsActive); err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidInput):
			respondError(c, response.CodeBadRequest, "short code is required", nil)
			return
		case errors.Is(err, service.ErrLinkNotFound):
			respondError(c, response.CodeNotFound, err.Error(), nil)
			return
		}
		respondError(c, response.CodeInternal, "link update failed", err)
		return
	}
	requestLog(c).Infow("admin_link_active_changed", "short_code", code, "is_active", *req.IsActive, "admin_id", currentAdminID(c))
	response.Success(c, gin.H{"short_code": code, "is_active": *req.IsActive})
}
