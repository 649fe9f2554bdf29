package public

import (
	handlershared "github.com/oneinfo/affiliate-backend/internal/http/handlers/shared"
	"github.com/oneinfo/affiliate-backend/internal/provider"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Handler 公开与达人侧接口：短链跳转、健康检查、订单直推与达人自助查询
type Handler struct {
	*provider.Container
}

// New 创建前台处理器
func New(c *provider.Container) *Handler {
	return &Handler{Container: c}
}

// getCreatorID 读取 CreatorJWTMiddleware 写入的达人 ID
func getCreatorID(c *gin.Context) (string, bool) {
	return handlershared.GetContextString(c, handlershared.ContextCreatorID)
}

func requestLog(c *gin.Context) *zap.SugaredLogger {
	return handlershared.RequestLog(c)
}

func respondError(c *gin.Context, code int, msg string, err error) {
	handlershared.RespondError(c, code, msg, err)
}
