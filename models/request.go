package models

import (
	"time"
)

// dateLayout is the wire format for the optional review date filter bounds.
const dateLayout = "2006-01-02"

// ScrapeRequest is the payload for POST /api/v1/scrape-capterra.
type ScrapeRequest struct {
	// URLs is the list of Capterra review pages to scrape. Required.
	URLs []string `json:"urls" binding:"required,min=1,max=50"`

	// StartDate is an optional inclusive lower bound (YYYY-MM-DD) on
	// review publication dates.
	StartDate string `json:"start_date,omitempty"`

	// EndDate is an optional inclusive upper bound (YYYY-MM-DD) on
	// review publication dates.
	EndDate string `json:"end_date,omitempty"`

	// CacheMaxAgeMs allows serving a previously scraped result younger
	// than this many milliseconds. 0 disables cache lookup.
	CacheMaxAgeMs int `json:"cache_max_age_ms,omitempty" binding:"omitempty,min=0"`
}

// DateRange is the parsed, validated filter carried into the orchestrator.
// Zero-valued bounds mean "unbounded" on that side.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// IsZero reports whether neither bound is set.
func (r DateRange) IsZero() bool {
	return r.Start.IsZero() && r.End.IsZero()
}

// Contains reports whether t falls inside the inclusive range.
func (r DateRange) Contains(t time.Time) bool {
	if !r.Start.IsZero() && t.Before(r.Start) {
		return false
	}
	if !r.End.IsZero() && t.After(r.End) {
		return false
	}
	return true
}

// ParseDateRange validates the request's filter bounds. An inverted range
// (start after end) rejects the whole request.
func (req *ScrapeRequest) ParseDateRange() (DateRange, error) {
	var dr DateRange
	if req.StartDate != "" {
		t, err := time.Parse(dateLayout, req.StartDate)
		if err != nil {
			return dr, NewScrapeError(ErrCodeInvalidInput,
				"invalid start_date format, expected YYYY-MM-DD", err)
		}
		dr.Start = t
	}
	if req.EndDate != "" {
		t, err := time.Parse(dateLayout, req.EndDate)
		if err != nil {
			return dr, NewScrapeError(ErrCodeInvalidInput,
				"invalid end_date format, expected YYYY-MM-DD", err)
		}
		dr.End = t
	}
	if !dr.Start.IsZero() && !dr.End.IsZero() && dr.Start.After(dr.End) {
		return dr, NewScrapeError(ErrCodeInvalidInput,
			"start_date cannot be after end_date", nil)
	}
	return dr, nil
}
