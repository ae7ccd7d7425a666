package http

import (
	"time"

	"github.com/feelflow/auth-service/internal/adapters/transport/http/middleware"
	"github.com/feelflow/auth-service/internal/infra/config"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// RouterDeps.Metrics must be registered on Registry; one Metrics may back
// several routers.
type RouterDeps struct {
	Handler  *Handler
	Logger   *zap.Logger
	Config   *config.Config
	Metrics  *middleware.Metrics
	Registry *prometheus.Registry
}

func NewRouter(d RouterDeps) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger(d.Logger))
	router.Use(d.Metrics.Handler())

	router.Use(cors.New(cors.Config{
		AllowOrigins: d.Config.AllowedOrigins,
		AllowMethods: []string{"GET", "POST", "OPTIONS"},
		AllowHeaders: []string{
			"Origin", "Content-Type", "Accept",
			"Authorization",
			"X-Requested-With",
		},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: d.Config.AllowCredentials,
		MaxAge:           12 * time.Hour,
	}))

	d.Handler.Mount(router)
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(d.Registry, promhttp.HandlerOpts{})))

	return router
}
