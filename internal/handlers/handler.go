package handlers

import (
	"heating_controller/internal/logger"
	"heating_controller/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// Handler wires HTTP layer to services and logging.
type Handler struct {
	services    *service.Service
	log         *logger.Logger
	authEnabled bool
}

// NewHandler constructs a new HTTP handler with dependencies. When
// authEnabled is false the /auth routes are not registered and /api is open.
func NewHandler(services *service.Service, log *logger.Logger, authEnabled bool) *Handler {
	return &Handler{services: services, log: log, authEnabled: authEnabled}
}

// InitRoutes builds and returns the Gin router with all routes registered.
func (h *Handler) InitRoutes() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/health", h.health)

	if h.authEnabled {
		h.registerAuthRoutes(router)
	}
	h.registerAPIRoutes(router)

	// Live snapshot stream on the same port.
	router.GET("/ws", h.wsConnect)

	return router
}

func (h *Handler) registerAuthRoutes(r *gin.Engine) {
	auth := r.Group("/auth")
	{
		auth.POST("/sign-up", h.signUp)
		auth.POST("/sign-in", h.signIn)
	}
}

func (h *Handler) registerAPIRoutes(r *gin.Engine) {
	var middleware []gin.HandlerFunc
	if h.authEnabled {
		middleware = append(middleware, h.operatorIdentity)
	}
	api := r.Group("/api", middleware...)
	{
		h.registerMonitoringRoutes(api)
		h.registerLogRoutes(api)
	}
}

func (h *Handler) registerMonitoringRoutes(api *gin.RouterGroup) {
	api.GET("/temperatures", h.getTemperatures)
	api.GET("/temperatures/:key", h.getTemperature)
	api.GET("/state", h.getState)
}

func (h *Handler) registerLogRoutes(api *gin.RouterGroup) {
	api.GET("/v1/logs", h.getLogs)
}
