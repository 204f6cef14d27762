package main

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/YashPS24/CAQMS/api"
	"github.com/YashPS24/CAQMS/internal/application"
	"github.com/YashPS24/CAQMS/internal/config"
	"github.com/YashPS24/CAQMS/pkg/logging"
	"github.com/YashPS24/CAQMS/pkg/metrics"
	"github.com/YashPS24/CAQMS/pkg/middleware"
)

type routerDeps struct {
	config     *config.Config
	logger     *logging.Logger
	metrics    *metrics.Metrics
	washSpecs  *application.WashSpecService
	buyerSpecs *application.BuyerSpecService
	ready      func(ctx context.Context) error
}

func newRouter(deps routerDeps) *gin.Engine {
	router := gin.New()
	router.MaxMultipartMemory = deps.config.Upload.MaxBytes

	// Standard middleware: recovery, request ID, correlation, logging, CORS, limits, errors
	middlewareConfig := middleware.DefaultConfig(config.ServiceName, deps.logger.Logger)
	middlewareConfig.AllowedOrigins = deps.config.Server.AllowedOrigins
	middlewareConfig.MaxBodyBytes = deps.config.Upload.MaxBytes
	middlewareConfig.RequestTimeout = deps.config.Server.RequestTimeout.Duration
	middleware.Setup(router, middlewareConfig)

	router.Use(middleware.MetricsMiddleware(deps.metrics))
	router.Use(middleware.TracingMiddleware(middleware.DefaultTracingConfig(config.ServiceName)))

	router.NoRoute(middleware.NoRoute())
	router.NoMethod(middleware.NoMethod())

	router.GET("/health", middleware.HealthCheck(config.ServiceName))
	router.GET("/ready", middleware.ReadinessCheck(config.ServiceName, deps.ready))
	router.GET("/metrics", middleware.MetricsEndpoint(deps.metrics))
	router.GET("/openapi.yaml", func(c *gin.Context) {
		c.Data(http.StatusOK, "application/yaml", api.OpenAPI)
	})

	routes := router.Group("/api")
	{
		washingSpecs := routes.Group("/washing-specs")
		{
			washingSpecs.POST("/ingest", ingestSheetHandler(deps.washSpecs, deps.logger))
			washingSpecs.POST("/ingest/file", ingestSheetFileHandler(deps.washSpecs, deps.logger))
			washingSpecs.POST("/save", saveWashingSpecsHandler(deps.washSpecs, deps.logger))
			washingSpecs.GET("/uploaded-list", listUploadedSpecsHandler(deps.washSpecs, deps.logger))
			washingSpecs.GET("/search-orders", searchOrdersHandler(deps.washSpecs, deps.logger))
			washingSpecs.GET("/order-colors/:orderNo", orderColorsHandler(deps.washSpecs, deps.logger))
		}

		routes.GET("/filter-options", filterOptionsHandler(deps.washSpecs, deps.logger))

		templates := routes.Group("/buyer-spec-templates")
		{
			templates.POST("", saveBuyerSpecTemplateHandler(deps.buyerSpecs, deps.logger))
			templates.GET("/mo-options", buyerSpecMoOptionsHandler(deps.buyerSpecs, deps.logger))
			templates.PUT("/:moNo", updateBuyerSpecTemplateHandler(deps.buyerSpecs, deps.logger))
		}

		routes.GET("/buyer-spec-order-details/:mono", buyerSpecOrderDetailsHandler(deps.buyerSpecs, deps.logger))
		routes.GET("/edit-specs-data/:moNo", editSpecsDataHandler(deps.buyerSpecs, deps.logger))
	}

	return router
}
