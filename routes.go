package main

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/sirupsen/logrus"
)

// setupRoutes 设置路由配置
func setupRoutes(appServer *AppServer) *gin.Engine {
	// 设置 Gin 模式
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())

	// 添加中间件
	router.Use(errorHandlingMiddleware())
	router.Use(corsMiddleware())

	// 健康检查
	router.GET("/health", healthHandler)

	// MCP 端点 - 使用官方 SDK 的 Streamable HTTP Handler
	// 使用会话管理器为每个唯一会话维护独立的MCP Server实例
	mcpHandler := mcp.NewStreamableHTTPHandler(
		func(r *http.Request) *mcp.Server {
			// 从请求中获取会话ID，如果没有则使用默认会话
			// HTTP客户端应该在Header中提供 X-Session-Id
			sessionID := r.Header.Get("X-Session-Id")
			if sessionID == "" {
				// 如果没有提供会话ID，使用远程地址作为会话标识
				sessionID = r.RemoteAddr
			}

			// 获取或创建该会话的MCP Server实例
			return appServer.sessionManager.GetOrCreateSession(sessionID)
		},
		&mcp.StreamableHTTPOptions{
			JSONResponse: true, // 支持 JSON 响应
		},
	)
	router.POST("/mcp", gin.WrapH(mcpHandler))
	router.POST("/mcp/*path", gin.WrapH(mcpHandler))

	// API 路由组
	api := router.Group("/api/v1")
	{
		api.GET("/settings", appServer.getSettingsHandler)
		api.PUT("/settings", appServer.updateSettingsHandler)
		api.POST("/process", appServer.processNoteHandler)
		api.POST("/process_all", appServer.processAllHandler)
		api.POST("/paste", appServer.pasteHandler)
	}

	return router
}

// errorHandlingMiddleware 捕获 handler 里记录的错误，统一返回 500
func errorHandlingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) > 0 && !c.Writer.Written() {
			err := c.Errors.Last()
			logrus.Errorf("请求处理出错: %s %s: %v", c.Request.Method, c.Request.URL.Path, err)
			c.JSON(http.StatusInternalServerError, ErrorResponse{
				Error: err.Error(),
				Code:  "INTERNAL_ERROR",
			})
		}
	}
}

// corsMiddleware 跨域支持
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, X-Session-Id")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
