package admin

import (
	"strconv"

	handlershared "github.com/oneinfo/affiliate-backend/internal/http/handlers/shared"
	"github.com/oneinfo/affiliate-backend/internal/http/response"
	"github.com/oneinfo/affiliate-backend/internal/provider"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Handler 管理端接口，路由层已完成 JWT 与 RBAC 校验
type Handler struct {
	*provider.Container
}

// New 创建后台处理器
func New(c *provider.Container) *Handler {
	return &Handler{Container: c}
}

// currentAdminID 当前操作的管理员
func currentAdminID(c *gin.Context) string {
	return c.GetString(handlershared.ContextAdminID)
}

func requestLog(c *gin.Context) *zap.SugaredLogger {
	return handlershared.RequestLog(c)
}

func respondError(c *gin.Context, code int, msg string, err error) {
	handlershared.RespondError(c, code, msg, err)
}

// parseIDParam 解析路径中的自增 ID，非法时直接响应 400
func parseIDParam(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		respondError(c, response.CodeBadRequest, "invalid id", nil)
		return 0, false
	}
	return uint(id), true
}

// parseLimit 读取 limit 查询参数并限制上限
func parseLimit(c *gin.Context, fallback, ceiling int) int {
	limit, err := strconv.Atoi(c.Query("limit"))
	if err != nil || limit <= 0 {
		return fallback
	}
	return min(limit, ceiling)
}
