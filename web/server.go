package web

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Raj-Vaghela/AI-Architect/config"
	"github.com/Raj-Vaghela/AI-Architect/search"
)

type Server struct {
	router  *gin.Engine
	service *search.Service
	logger  *zap.Logger
	config  *config.Config
}

func NewServer(service *search.Service, logger *zap.Logger, config *config.Config) *Server {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(gin.Recovery())

	server := &Server{
		router:  router,
		service: service,
		logger:  logger,
		config:  config,
	}

	server.setupRoutes()
	return server
}

func (s *Server) setupRoutes() {
	s.router.GET("/healthz", s.health)
	s.router.GET("/report", s.report)

	api := s.router.Group("/api/search")
	api.POST("/models", s.searchModels)
	api.POST("/compute", s.searchCompute)
	api.POST("/packages", s.searchPackages)
}

func (s *Server) Start(ctx context.Context) error {
	addr := fmt.Sprintf(":%d", s.config.WebPort)
	s.logger.Info("Starting web server", zap.String("address", addr))

	srv := &http.Server{
		Addr:    addr,
		Handler: s.router,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Error("Web server failed to start", zap.Error(err))
		}
	}()

	<-ctx.Done()

	s.logger.Info("Shutting down web server")
	return srv.Shutdown(context.Background())
}
