package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Junaid-liberatelabs/capterra-scrapper/cache"
	"github.com/Junaid-liberatelabs/capterra-scrapper/config"
	"github.com/Junaid-liberatelabs/capterra-scrapper/models"
	"github.com/Junaid-liberatelabs/capterra-scrapper/scraper"
	"github.com/Junaid-liberatelabs/capterra-scrapper/webhook"
)

// ScrapeCapterra returns the handler for POST /api/v1/scrape-capterra.
//
// The request is processed synchronously: the response is the full batch map
// keyed by each originally requested URL, one entry per URL, with partial
// success being the normal case.
func ScrapeCapterra(orc *scraper.Orchestrator, cc *cache.Cache, webhookCfg config.WebhookConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.ScrapeRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": models.ErrorDetail{
					Code:    models.ErrCodeInvalidInput,
					Message: "urls is required and must contain 1-50 entries",
				},
			})
			return
		}

		filter, err := req.ParseDateRange()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": models.AsScrapeError(err).ToDetail()})
			return
		}

		start := time.Now()

		// Cache pass: URLs with a fresh enough entry skip the browser.
		results := make(models.BatchResult, len(req.URLs))
		pending := make([]string, 0, len(req.URLs))
		for _, url := range req.URLs {
			if hit, ok := cc.Get(cache.Key(url, filter), req.CacheMaxAgeMs); ok {
				cached := *hit
				cached.CacheStatus = "hit"
				results[url] = &cached
				continue
			}
			pending = append(pending, url)
		}

		if len(pending) > 0 {
			fresh := orc.Run(c.Request.Context(), pending, filter)
			for url, result := range fresh {
				results[url] = result
				cc.Set(cache.Key(url, filter), result)
			}
		}

		if webhookCfg.URL != "" {
			webhook.DeliverAsync(webhookCfg.URL, webhookCfg.Secret, &webhook.Event{
				Type:      "batch.completed",
				Timestamp: time.Now().Unix(),
				Data:      summarize(results, time.Since(start)),
			})
		}

		c.JSON(http.StatusOK, results)
	}
}

func summarize(results models.BatchResult, elapsed time.Duration) webhook.BatchSummary {
	s := webhook.BatchSummary{
		Requested:       len(results),
		DurationSeconds: elapsed.Round(10 * time.Millisecond).Seconds(),
	}
	for _, r := range results {
		if r.Status == models.StatusError {
			s.Failed++
		} else {
			s.Succeeded++
		}
	}
	return s
}
