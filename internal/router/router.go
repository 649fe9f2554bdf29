package router

import (
	"github.com/oneinfo/affiliate-backend/internal/cache"
	"github.com/oneinfo/affiliate-backend/internal/config"
	adminhandlers "github.com/oneinfo/affiliate-backend/internal/http/handlers/admin"
	publichandlers "github.com/oneinfo/affiliate-backend/internal/http/handlers/public"
	"github.com/oneinfo/affiliate-backend/internal/logger"
	"github.com/oneinfo/affiliate-backend/internal/provider"

	"github.com/gin-gonic/gin"
)

// SetupRouter 初始化路由
func SetupRouter(cfg *config.Config, c *provider.Container) *gin.Engine {
	log := logger.L
	if log == nil {
		log = logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	}
	r := gin.New()

	// 初始化 Handler（按前台/后台分组）
	publicHandler := publichandlers.New(c)
	adminHandler := adminhandlers.New(c)
	redisClient := cache.Client()
	redirectRule := RateLimitRule{
		Prefix:        cache.Key("rate", "redirect"),
		WindowSeconds: cfg.RateLimit.Redirect.WindowSeconds,
		MaxRequests:   cfg.RateLimit.Redirect.MaxRequests,
		Message:       "Too many clicks. Slow down.",
	}
	apiRule := RateLimitRule{
		Prefix:        cache.Key("rate", "api"),
		WindowSeconds: cfg.RateLimit.API.WindowSeconds,
		MaxRequests:   cfg.RateLimit.API.MaxRequests,
		Message:       "Too many requests. Please try again later.",
	}

	// 中间件
	r.Use(gin.Recovery())
	r.Use(RequestIDMiddleware())
	r.Use(LoggerMiddleware(log))
	r.Use(CORSMiddleware(cfg.CORS))

	r.GET("/health", publicHandler.Health)

	// 短链跳转（/go 为旧链接保留）
	redirectLimiter := RateLimitMiddleware(redisClient, redirectRule, KeyByIP)
	r.GET("/share/:code", redirectLimiter, publicHandler.Redirect)
	r.GET("/go/:code", redirectLimiter, publicHandler.Redirect)

	// API 路由组
	apiV1 := r.Group("/api/v1")
	apiLimiter := RateLimitMiddleware(redisClient, apiRule, KeyByIP)
	{
		// 订单直推（按密钥 + IP 限流）
		apiV1.POST("/orders",
			RateLimitMiddleware(redisClient, apiRule, KeyByHeader(apiKeyHeader)),
			APIKeyMiddleware(cfg.OrderAPI.APIKey),
			publicHandler.PushOrder,
		)

		// 达人接口
		me := apiV1.Group("/me")
		me.Use(apiLimiter, CreatorJWTMiddleware(cfg.CreatorJWT))
		{
			me.GET("/stats", publicHandler.GetMyStats)
			me.GET("/links", publicHandler.ListMyLinks)
			me.POST("/links", publicHandler.CreateMyLink)
		}

		// 管理端接口
		admin := apiV1.Group("/admin")
		admin.Use(apiLimiter, AdminJWTMiddleware(cfg.JWT), AdminRBACMiddleware(c.Authz))
		{
			admin.GET("/commission-rules", adminHandler.ListCommissionRules)
			admin.POST("/commission-rules", adminHandler.CreateCommissionRule)
			admin.PUT("/commission-rules/:id", adminHandler.UpdateCommissionRule)
			admin.DELETE("/commission-rules/:id", adminHandler.DeleteCommissionRule)

			admin.GET("/orders", adminHandler.ListOrders)
			admin.PATCH("/orders/:id/status", adminHandler.UpdateOrderStatus)
			admin.GET("/platform-profit", adminHandler.GetPlatformProfit)

			admin.GET("/creators/top", adminHandler.ListTopCreators)
			admin.GET("/fraud", adminHandler.ListFraudClicks)

			admin.GET("/payouts", adminHandler.ListPayouts)
			admin.POST("/payouts/generate", adminHandler.GeneratePayout)
			admin.PATCH("/payouts/:id/pay", adminHandler.MarkPayoutPaid)

			admin.GET("/jobs/failures", adminHandler.ListJobFailures)
			admin.GET("/jobs/metrics", adminHandler.ListJobMetrics)

			admin.POST("/reports/upload", adminHandler.UploadReport)

			admin.GET("/admitad/actions", adminHandler.ListAdmitadActions)
			admin.POST("/admitad/sync", adminHandler.SyncAdmitad)

			admin.GET("/links", adminHandler.ListLinks)
			admin.PATCH("/links/:code/active", adminHandler.SetLinkActive)

			admin.GET("/authz/me", adminHandler.GetAuthzMe)
			admin.GET("/authz/roles", adminHandler.ListAuthzRoles)
			admin.DELETE("/authz/roles/:role", adminHandler.DeleteAuthzRole)
			admin.GET("/authz/roles/:role/policies", adminHandler.GetAuthzRolePolicies)
			admin.POST("/authz/policies", adminHandler.GrantAuthzPolicy)
			admin.DELETE("/authz/policies", adminHandler.RevokeAuthzPolicy)
			admin.GET("/authz/audit-logs", adminHandler.ListAuthzAuditLogs)
		}
	}

	return r
}
