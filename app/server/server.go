package server

import (
	"context"
	"net/http"

	"asset-forge/app/config"
	"asset-forge/app/database"
	"asset-forge/app/handler"
	"asset-forge/app/logger"
	"asset-forge/app/middleware"
	"asset-forge/app/service"

	"github.com/gin-gonic/gin"
)

// Server 表示 HTTP 服务器
type Server struct {
	Config   *config.Config
	Logger   *logger.Logger
	gin      *gin.Engine
	http     *http.Server
	pipeline *service.Pipeline
}

// New 创建一个新的 Server 实例
func New(cfg *config.Config, log *logger.Logger, pipeline *service.Pipeline) *Server {
	gin.SetMode(gin.ReleaseMode)
	router := gin.Default()

	s := &Server{
		gin: router,
		http: &http.Server{
			Addr:    ":" + cfg.Server.Port,
			Handler: router,
		},
		Config:   cfg,
		Logger:   log,
		pipeline: pipeline,
	}

	// 设置路由
	s.setupRoutes()

	return s
}

// Start 启动服务器和导入管道
func (s *Server) Start() error {
	s.Logger.Infof("在端口 %s 启动服务器", s.http.Addr)

	if err := s.pipeline.Start(); err != nil {
		return err
	}

	return s.http.ListenAndServe()
}

// Shutdown 停止管道并关闭服务器
func (s *Server) Shutdown(ctx context.Context) error {
	s.pipeline.Stop()

	// 关闭数据库连接
	if err := database.Close(); err != nil {
		s.Logger.Errorf("关闭数据库连接失败: %v", err)
	}
	return s.http.Shutdown(ctx)
}

// setupRoutes 设置API路由
func (s *Server) setupRoutes() {
	authHandler := handler.NewAuthHandler(s.Config)
	pipelineHandler := handler.NewPipelineHandler(s.pipeline)

	// API路由组
	api := s.gin.Group("/api")

	// 认证相关路由（不需要JWT验证）
	auth := api.Group("/auth")
	{
		auth.POST("/login", authHandler.Login)
		auth.POST("/refresh", authHandler.RefreshToken)
	}

	// 需要JWT验证的路由
	protected := api.Group("/")
	protected.Use(middleware.JWTAuth(s.Config))
	{
		// 用户相关
		protected.GET("/me", authHandler.Me)

		// 管道状态
		protected.GET("/status", pipelineHandler.Status)

		// 任务相关路由
		tasks := protected.Group("/tasks")
		{
			tasks.GET("/", pipelineHandler.ListTasks)
			tasks.POST("/:id/cancel", pipelineHandler.CancelTask)
		}

		// 资产相关路由
		assets := protected.Group("/assets")
		{
			assets.GET("/records", pipelineHandler.ListRecords)
			assets.POST("/scan", pipelineHandler.TriggerScan)
		}
	}
}
