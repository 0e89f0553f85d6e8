// internal/api/api.go
package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/masumrana0/Uploader/internal/api/handlers"
	"github.com/masumrana0/Uploader/internal/api/middleware"
	"github.com/masumrana0/Uploader/internal/service"
)

type Services struct {
	Uploader *service.Uploader
	Deleter  *service.Deleter
}

type RouterOptions struct {
	AllowedOrigins []string
	FormField      string
	MaxMemory      int64
	// MaxBody caps upload request bodies; zero derives it from the uploader.
	MaxBody int64
	// Metrics, when set, is served on /metrics.
	Metrics prometheus.Gatherer
}

func NewRouter(services *Services, opts RouterOptions) *gin.Engine {
	router := gin.New()
	if opts.MaxMemory > 0 {
		router.MaxMultipartMemory = opts.MaxMemory
	}

	// Add middleware
	router.Use(middleware.Logger())
	router.Use(middleware.Recovery())
	router.Use(cors.New(corsConfig(opts.AllowedOrigins)))

	router.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, "Uploader is running")
	})
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if opts.Metrics != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(opts.Metrics, promhttp.HandlerOpts{})))
	}

	apiGroup := router.Group("/api")

	if services != nil {
		if services.Uploader != nil {
			uploadHandler := handlers.NewUploadHandler(services.Uploader, opts.FormField, opts.MaxBody)
			apiGroup.POST("/upload", uploadHandler.Upload)
		}
		if services.Deleter != nil {
			deleteHandler := handlers.NewDeleteHandler(services.Deleter)
			apiGroup.DELETE("/delete", deleteHandler.Delete)
		}
	}

	return router
}

func corsConfig(allowedOrigins []string) cors.Config {
	corsConfig := cors.Config{
		AllowMethods:  []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders: []string{"Content-Length"},
		MaxAge:        12 * time.Hour,
	}
	normalizedOrigins, allowAll := normalizeAllowedOrigins(allowedOrigins)
	if allowAll || len(normalizedOrigins) == 0 {
		corsConfig.AllowAllOrigins = true
	} else {
		corsConfig.AllowOrigins = normalizedOrigins
		corsConfig.AllowCredentials = true
	}
	return corsConfig
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
