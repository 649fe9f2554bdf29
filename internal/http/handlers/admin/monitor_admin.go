package admin

import (
	"github.com/oneinfo/affiliate-backend/internal/http/response"

	"github.com/gin-gonic/gin"
)

const (
	defaultTopCreators  = 20
	defaultFraudClicks  = 100
	defaultJobFailures  = 50
	maxAdminListResults = 500
)

// ListTopCreators 按累计营收排序的达人
func (h *Handler) ListTopCreators(c *gin.Context) {
	stats, err := h.CreatorStatsService.ListTop(parseLimit(c, defaultTopCreators, maxAdminListResults))
	if err != nil {
		respondError(c, response.CodeInternal, "creator stats fetch failed", err)
		return
	}
	response.Success(c, stats)
}

// ListFraudClicks 最近被判定为作弊的点击
func (h *Handler) ListFraudClicks(c *gin.Context) {
	clicks, err := h.ClickService.ListFraud(parseLimit(c, defaultFraudClicks, maxAdminListResults))
	if err != nil {
		respondError(c, response.CodeInternal, "fraud report fetch failed", err)
		return
	}
	response.Success(c, clicks)
}

// ListJobFailures 最近的失败任务
func (h *Handler) ListJobFailures(c *gin.Context) {
	failures, err := h.JobService.ListFailures(parseLimit(c, defaultJobFailures, maxAdminListResults))
	if err != nil {
		respondError(c, response.CodeInternal, "job failure fetch failed", err)
		return
	}
	response.Success(c, failures)
}

// ListJobMetrics 各任务类型的处理计数
func (h *Handler) ListJobMetrics(c *gin.Context) {
	metrics, err := h.JobService.ListMetrics()
	if err != nil {
		respondError(c, response.CodeInternal, "job metrics fetch failed", err)
		return
	}
	response.Success(c, metrics)
}
