package handlers

import (
	"zonectl/internal/logger"
	"zonectl/internal/service"

	"github.com/gin-gonic/gin"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// Handler wires HTTP layer to services and logging.
type Handler struct {
	services *service.Service
	log      *logger.Logger
}

// NewHandler constructs a new HTTP handler with dependencies.
func NewHandler(services *service.Service, log *logger.Logger) *Handler {
	return &Handler{services: services, log: log}
}

// InitRoutes builds and returns the Gin router with all routes registered.
func (h *Handler) InitRoutes() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health endpoint
	router.GET("/health", h.health)

	// Auth endpoints
	h.registerAuthRoutes(router)

	// Versioned API endpoints (protected)
	h.registerAPIRoutes(router)

	// Live status stream (HTTP upgrade) — same port
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
	api := r.Group("/api/v1", h.requireAuth)
	{
		h.registerOutputRoutes(api)
		h.registerSafetyRoutes(api)
		h.registerEventRoutes(api)
		api.GET("/sensors", h.getSensors)
	}
}

func (h *Handler) registerOutputRoutes(api *gin.RouterGroup) {
	outputs := api.Group("/outputs")
	{
		outputs.GET("", h.getOutputs)
		outputs.GET("/:id", h.getOutput)
		outputs.PUT("/:id/profile", h.setProfile)
		outputs.PUT("/:id/mode", h.setMode)
		outputs.PUT("/:id/target", h.setTarget)
		outputs.PUT("/:id/power", h.setPower)
		outputs.PUT("/:id/pid", h.setPIDGains)
		outputs.PUT("/:id/timeprop", h.setTimeProportional)
		outputs.PUT("/:id/schedule", h.setSchedule)
		outputs.PUT("/:id/safety", h.setSafetyLimits)
		outputs.PUT("/:id/fault-response", h.setFaultResponse)
		outputs.PUT("/:id/device", h.setDevice)
		outputs.POST("/:id/fault/clear", h.clearFault)
	}
}

func (h *Handler) registerSafetyRoutes(api *gin.RouterGroup) {
	safety := api.Group("/safety")
	{
		safety.GET("", h.getSafety)
		safety.POST("/safe-mode", h.enterSafeMode)
		safety.DELETE("/safe-mode", h.exitSafeMode)
		safety.POST("/emergency-stop", h.emergencyStop)
	}
}

func (h *Handler) registerEventRoutes(api *gin.RouterGroup) {
	events := api.Group("/events")
	{
		events.GET("", h.getEvents)
	}
}
