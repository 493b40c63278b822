// Package api wires the HTTP surface: routing, auth, and rate limiting.
package api

import (
	"github.com/gin-gonic/gin"

	"github.com/Junaid-liberatelabs/capterra-scrapper/api/handler"
	"github.com/Junaid-liberatelabs/capterra-scrapper/api/middleware"
	"github.com/Junaid-liberatelabs/capterra-scrapper/browser"
	"github.com/Junaid-liberatelabs/capterra-scrapper/cache"
	"github.com/Junaid-liberatelabs/capterra-scrapper/config"
	"github.com/Junaid-liberatelabs/capterra-scrapper/scraper"
)

// NewRouter builds the gin engine with all routes and middleware attached.
func NewRouter(cfg *config.Config, factory browser.Factory, orc *scraper.Orchestrator, cc *cache.Cache) *gin.Engine {
	switch cfg.Server.Mode {
	case "debug":
		gin.SetMode(gin.DebugMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(gin.Logger())

	v1 := r.Group("/api/v1")

	// Health stays outside auth so load balancers can probe it.
	v1.GET("/health", handler.Health(factory, orc))

	protected := v1.Group("")
	if cfg.Auth.Enabled {
		protected.Use(middleware.Auth(cfg.Auth.APIKeys))
	}
	if cfg.RateLimit.Enabled {
		protected.Use(middleware.RateLimit(cfg.RateLimit))
	}
	protected.POST("/scrape-capterra", handler.ScrapeCapterra(orc, cc, cfg.Webhook))

	return r
}
