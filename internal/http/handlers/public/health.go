package public

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Health 进程健康状态：ready / degraded 返回 200，其余 503
func (h *Handler) Health(c *gin.Context) {
	if h.Lifecycle == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"state": "unknown"})
		return
	}
	snapshot := h.Lifecycle.Snapshot()
	status := http.StatusOK
	if !h.Lifecycle.State().Serving() {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, snapshot)
}
