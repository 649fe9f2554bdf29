package public

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/oneinfo/affiliate-backend/internal/service"

	"github.com/gin-gonic/gin"
)

// Redirect 短链跳转：记录点击后 302 到联盟跟踪链接。
// 浏览器直连接口，直接使用 HTTP 状态码而非统一响应结构。
func (h *Handler) Redirect(c *gin.Context) {
	code := strings.TrimSpace(c.Param("code"))
	if code == "" {
		c.String(http.StatusNotFound, "Link not found or expired.")
		return
	}

	target, err := h.LinkService.Resolve(c.Request.Context(), code)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrLinkNotFound):
			c.String(http.StatusNotFound, "Link not found or expired.")
		case errors.Is(err, service.ErrLinkInactive):
			c.String(http.StatusNotFound, "This link has been disabled.")
		case errors.Is(err, service.ErrLinkExpired):
			c.String(http.StatusGone, "This link has expired.")
		case errors.Is(err, service.ErrTrackingURLInvalid):
			requestLog(c).Errorw("redirect_tracking_url_invalid", "short_code", code)
			c.String(http.StatusNotFound, "Tracking link unavailable.")
		default:
			requestLog(c).Errorw("redirect_resolve_failed", "short_code", code, "error", err)
			c.String(http.StatusInternalServerError, "Something went wrong. Please try again.")
		}
		return
	}

	if h.ClickTracker != nil {
		referrer := strings.TrimSpace(c.GetHeader("Referer"))
		if referrer == "" {
			referrer = "direct"
		}
		h.ClickTracker.Dispatch(service.ClickInput{
			ShortCode: target.ShortCode,
			CreatorID: target.CreatorID,
			IP:        c.ClientIP(),
			UserAgent: c.Request.UserAgent(),
			Referrer:  referrer,
			At:        time.Now().UTC(),
		})
	}
	c.Redirect(http.StatusFound, target.TrackingURL)
}
