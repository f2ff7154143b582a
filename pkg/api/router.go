// Package api 提供审批引擎的HTTP API
package api

import (
	"github.com/gin-gonic/gin"

	"github.com/lanheader/Archery/pkg/api/handler"
	"github.com/lanheader/Archery/pkg/api/middleware"
	"github.com/lanheader/Archery/pkg/core/engine"
	"github.com/lanheader/Archery/pkg/core/events"
)

// SetupRouter 设置路由
func SetupRouter(eng *engine.Engine, pub *events.Publisher, version string) *gin.Engine {
	// 设置gin模式
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	// 全局中间件
	router.Use(middleware.Recovery())
	router.Use(middleware.Logger())

	// 创建handlers
	auditHandler := handler.NewAuditHandler(eng)
	healthHandler := handler.NewHealthHandler(version)

	// 健康检查路由（不带前缀）
	router.GET("/health", healthHandler.Health)
	router.GET("/ready", healthHandler.Ready)

	// 审批事件WebSocket
	if pub != nil {
		eventsHandler := handler.NewEventsHandler(pub)
		router.GET("/ws/audit-events", eventsHandler.Stream)
	}

	// API v1 路由组
	v1 := router.Group("/api/v1")
	{
		// 审批单路由
		audits := v1.Group("/audits")
		{
			audits.POST("", auditHandler.Create)
			audits.POST("/operate", auditHandler.Operate)
			audits.GET("/:id", auditHandler.Detail)
			audits.GET("/:id/logs", auditHandler.Logs)
		}

		// 待办路由
		v1.GET("/todo", auditHandler.Todo)

		// 业务工单视角路由
		workflows := v1.Group("/workflows")
		{
			workflows.GET("/:type/:id/review_info", auditHandler.ReviewInfo)
			workflows.GET("/:type/:id/can_review", auditHandler.CanReview)
		}

		// 审批流配置路由
		settings := v1.Group("/settings")
		{
			settings.GET("/:type/:group", auditHandler.GetSettings)
			settings.PUT("/:type/:group", auditHandler.PutSettings)
		}
	}

	return router
}
