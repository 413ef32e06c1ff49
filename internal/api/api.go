package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/andresuchdata/shipment-priority/internal/api/handlers"
	"github.com/andresuchdata/shipment-priority/internal/api/middleware"
	"github.com/andresuchdata/shipment-priority/internal/metrics"
	"github.com/andresuchdata/shipment-priority/internal/service"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Services struct {
	PlannerService   *service.PlannerService
	ReferenceService *service.ReferenceService
	// UrgentThreshold is the default semaphore threshold when a request sets none.
	UrgentThreshold int
}

func NewRouter(services *Services, allowedOrigins []string) *gin.Engine {
	router := gin.New()

	router.Use(middleware.Logger())
	router.Use(middleware.Recovery())
	router.Use(metrics.PrometheusMiddleware())
	defaultOrigins := []string{"http://localhost:3000", "http://127.0.0.1:3000"}
	corsConfig := cors.Config{
		AllowOrigins:     defaultOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition", "X-Plan-Status"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(allowedOrigins) > 0 {
		normalizedOrigins, allowAll := normalizeAllowedOrigins(allowedOrigins)
		if allowAll {
			corsConfig.AllowOrigins = nil
			corsConfig.AllowOriginFunc = func(origin string) bool { return true }
		} else if len(normalizedOrigins) > 0 {
			corsConfig.AllowOrigins = normalizedOrigins
		}
	}
	router.Use(cors.New(corsConfig))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "time": time.Now().UTC()})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	apiGroup := router.Group("/api/v1")

	if services != nil {
		if services.PlannerService != nil {
			planHandler := handlers.NewPlanHandler(services.PlannerService, services.UrgentThreshold)
			planGroup := apiGroup.Group("/plan")
			{
				planGroup.GET("/queue", planHandler.GetQueue)
				planGroup.GET("/sequence", planHandler.GetSequence)
				planGroup.GET("/export", planHandler.GetExport)
				planGroup.GET("/nonusable", planHandler.GetNonUsable)
				planGroup.POST("/refresh", planHandler.Refresh)
			}
		}

		if services.ReferenceService != nil {
			referenceHandler := handlers.NewReferenceHandler(services.ReferenceService)
			referenceGroup := apiGroup.Group("/references")
			{
				referenceGroup.GET("", referenceHandler.List)
				referenceGroup.POST("", referenceHandler.Create)
				referenceGroup.POST("/import", referenceHandler.Import)
				referenceGroup.GET("/:partno", referenceHandler.Get)
				referenceGroup.PUT("/:partno", referenceHandler.Update)
				referenceGroup.DELETE("/:partno", referenceHandler.Delete)
			}
		}
	}

	return router
}

func normalizeAllowedOrigins(origins []string) ([]string, bool) {
	var (
		parsed   []string
		allowAll bool
	)
	for _, origin := range origins {
		parts := strings.Split(origin, ",")
		for _, part := range parts {
			trimmed := strings.TrimSpace(part)
			if trimmed == "" {
				continue
			}
			if trimmed == "*" {
				allowAll = true
				continue
			}
			parsed = append(parsed, trimmed)
		}
	}
	return parsed, allowAll
}
