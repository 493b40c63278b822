package models

// Result statuses for one target entry in the batch map.
const (
	StatusSuccess        = "success"
	StatusNoReviewsFound = "no_reviews_found"
	StatusNoContainer    = "no_container"
	StatusError          = "error"
)

// Summary carries the per-target bookkeeping fields alongside the data.
type Summary struct {
	ProductURL      string  `json:"product_url"`
	ProductName     string  `json:"product_name,omitempty"`
	TotalScraped    int     `json:"total_reviews_scraped"`
	TriggerClicks   int     `json:"show_more_clicks"`
	DurationSeconds float64 `json:"duration_seconds"`
}

// TargetResult is the entry for one requested URL in the batch response.
// Exactly one of Data/Error is populated depending on Status.
type TargetResult struct {
	Status  string       `json:"status"`
	Message string       `json:"message,omitempty"`
	Data    *ReviewData  `json:"data,omitempty"`
	Summary *Summary     `json:"summary,omitempty"`
	Error   *ErrorDetail `json:"error,omitempty"`
	// CacheStatus is "hit" when the entry was served from cache.
	CacheStatus string `json:"cache_status,omitempty"`
}

// BatchResult maps each originally requested URL (valid or not) to its
// outcome. Keys are unique; every requested URL appears exactly once.
type BatchResult map[string]*TargetResult

// ErrorResult builds an error-status entry from a coded error.
func ErrorResult(err *ScrapeError) *TargetResult {
	return &TargetResult{
		Status:  StatusError,
		Message: err.Message,
		Error:   err.ToDetail(),
	}
}

// HealthResponse is the response for GET /api/v1/health.
type HealthResponse struct {
	Status         string `json:"status"` // "healthy" or "degraded"
	Uptime         string `json:"uptime"`
	ActiveSessions int    `json:"active_sessions"`
	MaxConcurrent  int    `json:"max_concurrent"`
	Version        string `json:"version"`
}
