package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/pprof"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	app "plantserv/src/app"
	cfg "plantserv/src/configuration"
)

// NewRouter wires the HTTP surface. Split from RunServer so tests can
// drive it with httptest.
func NewRouter(handler *AppHandler, corsOrigins []string, logger *zap.Logger) *gin.Engine {
	router := gin.New()
	router.Use(RequestLogger(logger), Recovery(logger))
	router.Use(cors.New(cors.Config{
		AllowOrigins:     corsOrigins,
		AllowMethods:     []string{"GET", "HEAD", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Content-Length", "Accept-Encoding", "Authorization", "Cache-Control"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	pprof.Register(router)

	router.GET("/health", handler.GetHealth)
	router.POST("/auth/signup", handler.Signup)
	router.POST("/auth/login", handler.Login)
	router.POST("/predict", handler.Predict)
	router.GET("/history", handler.GetHistory)
	router.GET("/diseases", handler.GetDiseases)
	router.GET("/diseases/:name", handler.GetDisease)

	router.NoRoute(func(ctx *gin.Context) { ctx.JSON(http.StatusNotFound, gin.H{"error": "not found"}) })
	return router
}

func RunServer(config *cfg.Properties, service *app.Service, logger *zap.Logger) error {
	handler := NewHandler(service, logger)
	router := NewRouter(handler, config.Server.CORSOrigins, logger)
	logger.Info("starting server", zap.String("port", config.Server.Port))
	return router.Run(fmt.Sprintf(":%s", config.Server.Port))
}
