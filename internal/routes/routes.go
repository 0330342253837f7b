// internal/routes/routes.go
package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerfiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"link-service/internal/config"
	"link-service/internal/discovery"
	"link-service/internal/handler"
	"link-service/internal/middleware"
	"link-service/internal/service"
	"link-service/internal/utils"
)

// Router holds all dependencies for routing
type Router struct {
	config      *config.Config
	logger      *zap.Logger
	db          handler.DatabaseChecker
	linkService *service.LinkService
	scanners    *discovery.ScannerManager
}

// NewRouter creates a new router instance. db is nil when the service runs
// without postgres.
func NewRouter(
	config *config.Config,
	logger *zap.Logger,
	db handler.DatabaseChecker,
	linkService *service.LinkService,
	scanners *discovery.ScannerManager,
) *Router {
	return &Router{
		config:      config,
		logger:      logger,
		db:          db,
		linkService: linkService,
		scanners:    scanners,
	}
}

// SetupRouter creates and configures the Gin router
func (r *Router) SetupRouter() *gin.Engine {
	// Set Gin mode
	switch {
	case r.config.IsProduction():
		gin.SetMode(gin.ReleaseMode)
	case r.config.App.Environment == "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.DebugMode)
	}

	router := gin.New()

	r.addMiddleware(router)
	r.addRoutes(router)

	return router
}

// addMiddleware adds middleware to the router
func (r *Router) addMiddleware(router *gin.Engine) {
	serviceLogger := utils.NewServiceLogger(r.logger, "http-server")

	// Recovery middleware
	router.Use(middleware.RecoveryMiddleware(serviceLogger))

	// Request ID middleware
	router.Use(middleware.RequestIDMiddleware())

	// Logging middleware
	router.Use(middleware.LoggingMiddleware(serviceLogger))

	// CORS middleware
	router.Use(middleware.CORSMiddleware(&r.config.Security))

	r.logger.Info("Middleware configured")
}

// addRoutes sets up all application routes
func (r *Router) addRoutes(router *gin.Engine) {
	healthHandler := handler.NewHealthHandler(r.db, r.linkService, r.config, r.logger)
	linkHandler := handler.NewLinkHandler(r.linkService, r.logger)
	discoveryHandler := handler.NewDiscoveryHandler(r.scanners, r.logger)

	// Health check routes (no auth required)
	r.addHealthRoutes(router, healthHandler)

	// API v1 routes
	apiV1 := router.Group("/api/v1")
	r.addURIRoutes(apiV1, linkHandler)
	r.addLinkRoutes(apiV1, linkHandler)
	r.addDiscoveryRoutes(apiV1, discoveryHandler)

	// Documentation routes
	r.addDocumentationRoutes(router)

	r.logger.Info("All routes configured successfully")
}

// addHealthRoutes sets up health check routes
func (r *Router) addHealthRoutes(router *gin.Engine, handler *handler.HealthHandler) {
	health := router.Group("")
	{
		health.GET("/health", handler.HealthCheck)
		health.GET("/health/db", handler.DatabaseHealthCheck)
		health.GET("/ready", handler.ReadinessCheck)
		health.GET("/live", handler.LivenessCheck)
	}
}

// addURIRoutes sets up stateless connection URI routes
func (r *Router) addURIRoutes(api *gin.RouterGroup, handler *handler.LinkHandler) {
	api.GET("/schemes", handler.ListSchemes)
	api.POST("/uri/parse", handler.ParseURI)
}

// addLinkRoutes sets up link management routes
func (r *Router) addLinkRoutes(api *gin.RouterGroup, handler *handler.LinkHandler) {
	links := api.Group("/links")
	{
		links.POST("", handler.RegisterLink)
		links.GET("", handler.ListLinks)

		link := links.Group("/:link_id")
		{
			link.GET("", handler.GetLink)
			link.PUT("", handler.UpdateLink)
			link.DELETE("", handler.DeleteLink)
			link.POST("/open", handler.OpenLink)
			link.POST("/close", handler.CloseLink)
			link.GET("/status", handler.LinkStatus)
			link.GET("/stream", handler.StreamLink)
		}
	}
}

// addDiscoveryRoutes sets up port discovery routes
func (r *Router) addDiscoveryRoutes(api *gin.RouterGroup, handler *handler.DiscoveryHandler) {
	scan := api.Group("/discovery")
	{
		scan.GET("/ports", handler.ScanPorts)
		scan.GET("/scanners", handler.GetScanners)
	}
}

// addDocumentationRoutes sets up documentation routes
func (r *Router) addDocumentationRoutes(router *gin.Engine) {
	// Swagger documentation
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerfiles.Handler))

	// Swagger redirect for convenience
	router.GET("/docs", func(c *gin.Context) {
		c.Redirect(http.StatusMovedPermanently, "/swagger/index.html")
	})
}
