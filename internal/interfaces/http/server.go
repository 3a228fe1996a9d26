package http

import (
	"context"
	"net/http"
	"time"

	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/kakaosum/backend/internal/infrastructure/config"
	"github.com/kakaosum/backend/internal/infrastructure/log"
	"github.com/kakaosum/backend/internal/interfaces/http/handler"
)

// HTTPServer HTTP 服务器
type HTTPServer struct {
	router   *gin.Engine
	httpPort string
	server   *http.Server
	logger   *slog.Logger
}

// NewServer 创建 HTTP 服务器
func NewServer(
	cfg *config.ServerConfig,
	roomHandler *handler.RoomHandler,
	importHandler *handler.ImportHandler,
	summaryHandler *handler.SummaryHandler,
	urlHandler *handler.URLHandler,
	llmHandler *handler.LLMHandler,
) *HTTPServer {
	router := gin.Default()

	logger := log.NewModuleLogger("http", "server")

	// 注册路由
	api := router.Group("/api/v1")
	{
		// 房间相关路由
		api.GET("/rooms", roomHandler.List)
		api.GET("/rooms/:name", roomHandler.Get)
		api.DELETE("/rooms/:name", roomHandler.Delete)
		api.GET("/rooms/:name/stats", roomHandler.Stats)
		api.GET("/rooms/:name/senders", roomHandler.Senders)
		api.GET("/rooms/:name/messages", roomHandler.Messages)
		api.GET("/rooms/:name/sync-logs", roomHandler.SyncLogs)

		// 导入相关路由
		api.POST("/import/file", importHandler.ImportFile)
		api.POST("/import/directory", importHandler.ImportDirectory)
		api.POST("/import/rebuild", importHandler.Rebuild)

		// 总结相关路由
		api.GET("/rooms/:name/summaries", summaryHandler.List)
		api.GET("/rooms/:name/summaries/pending", summaryHandler.Pending)
		api.GET("/rooms/:name/summaries/:date", summaryHandler.Get)
		api.DELETE("/rooms/:name/summaries/:date", summaryHandler.Delete)
		api.POST("/rooms/:name/summaries", summaryHandler.Generate)

		// 总结任务路由
		api.GET("/jobs", summaryHandler.Jobs)
		api.GET("/jobs/:id", summaryHandler.Job)
		api.POST("/jobs/:id/cancel", summaryHandler.CancelJob)

		// 链接视图路由
		api.GET("/rooms/:name/urls", urlHandler.Window)
		api.GET("/rooms/:name/urls/all", urlHandler.All)

		// LLM 诊断路由
		api.GET("/llm/providers", llmHandler.Providers)
		api.POST("/llm/test", llmHandler.Test)
	}

	// 健康检查
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	return &HTTPServer{
		router:   router,
		httpPort: cfg.HTTPPort,
		logger:   logger,
	}
}

// Start 启动服务器
func (s *HTTPServer) Start() error {
	s.server = &http.Server{
		Addr:    s.httpPort,
		Handler: s.router,
	}

	s.logger.Info("HTTP server starting",
		"port", s.httpPort,
	)

	return s.server.ListenAndServe()
}

// Shutdown 优雅关闭
func (s *HTTPServer) Shutdown(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}

// Stop 停止服务器
func (s *HTTPServer) Stop() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.Shutdown(ctx)
}
