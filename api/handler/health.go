package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Junaid-liberatelabs/capterra-scrapper/browser"
	"github.com/Junaid-liberatelabs/capterra-scrapper/models"
	"github.com/Junaid-liberatelabs/capterra-scrapper/scraper"
)

// Version is the service version reported by the health endpoint.
const Version = "1.0.0"

// Health returns the handler for GET /api/v1/health. The status flips to
// "degraded" when active browser sessions exceed 80% of the concurrency
// ceiling.
func Health(factory browser.Factory, orc *scraper.Orchestrator) gin.HandlerFunc {
	startedAt := time.Now()
	return func(c *gin.Context) {
		active := factory.ActiveSessions()
		maxConcurrent := orc.Concurrency()

		status := "healthy"
		if maxConcurrent > 0 && active*5 >= maxConcurrent*4 {
			status = "degraded"
		}

		c.JSON(http.StatusOK, models.HealthResponse{
			Status:         status,
			Uptime:         time.Since(startedAt).Round(time.Second).String(),
			ActiveSessions: active,
			MaxConcurrent:  maxConcurrent,
			Version:        Version,
		})
	}
}
