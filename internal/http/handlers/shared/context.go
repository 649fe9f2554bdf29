package shared

import (
	"strings"

	"github.com/oneinfo/affiliate-backend/internal/http/response"

	"github.com/gin-gonic/gin"
)

// 鉴权中间件写入的上下文键
const (
	ContextCreatorID = "creator_id"
	ContextAdminID   = "admin_id"
	ContextRole      = "role"
)

// GetContextString 从上下文读取字符串值，缺失时返回 401。
func GetContextString(c *gin.Context, key string) (string, bool) {
	value, exists := c.Get(key)
	if !exists {
		RespondError(c, response.CodeUnauthorized, "unauthorized", nil)
		return "", false
	}
	text, ok := value.(string)
	if !ok || strings.TrimSpace(text) == "" {
		RespondError(c, response.CodeUnauthorized, "unauthorized", nil)
		return "", false
	}
	return text, true
}
