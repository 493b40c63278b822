// Package loader implements the incremental-load completion pipeline for one
// review page: the overlay interference handler, the load-more completion
// detector, and the controller composing them over one browser session.
package loader

import (
	"time"

	"github.com/Junaid-liberatelabs/capterra-scrapper/models"
)

// Status is the terminal classification of one load run.
type Status int

const (
	// StatusLoaded means pagination was driven to exhaustion and the final
	// snapshot was captured.
	StatusLoaded Status = iota

	// StatusNoContainer means the page rendered without the paginated
	// content container. A valid terminal outcome, not an error.
	StatusNoContainer

	// StatusFailed means an unrecoverable automation error aborted the run.
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusLoaded:
		return "loaded"
	case StatusNoContainer:
		return "no_container"
	default:
		return "failed"
	}
}

// Outcome is the immutable result of one controller run. HTML carries the
// final document snapshot for StatusLoaded and StatusNoContainer, and a
// best-effort partial snapshot for StatusFailed when one could be captured.
type Outcome struct {
	Status    Status
	HTML      string
	ItemCount int
	Clicks    int
	Elapsed   time.Duration
	Err       *models.ScrapeError
}

func loaded(html string, items, clicks int, elapsed time.Duration) Outcome {
	return Outcome{Status: StatusLoaded, HTML: html, ItemCount: items, Clicks: clicks, Elapsed: elapsed}
}

func noContainer(html string, elapsed time.Duration) Outcome {
	return Outcome{Status: StatusNoContainer, HTML: html, Elapsed: elapsed}
}

func failed(err *models.ScrapeError, partialHTML string, clicks int, elapsed time.Duration) Outcome {
	return Outcome{Status: StatusFailed, HTML: partialHTML, Clicks: clicks, Elapsed: elapsed, Err: err}
}
