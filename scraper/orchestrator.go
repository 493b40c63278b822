// Package scraper fans a batch of review-page targets out across a bounded
// pool of load controllers and aggregates their outcomes into one result map.
package scraper

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/Junaid-liberatelabs/capterra-scrapper/browser"
	"github.com/Junaid-liberatelabs/capterra-scrapper/config"
	"github.com/Junaid-liberatelabs/capterra-scrapper/loader"
	"github.com/Junaid-liberatelabs/capterra-scrapper/models"
)

// Extractor is the collaborator that maps a final document snapshot to
// structured records. It must represent missing optional fields rather than
// fail on them.
type Extractor interface {
	Extract(html string, target models.Target, filter models.DateRange) (*models.ReviewData, error)
}

// Orchestrator validates targets, bounds concurrency, isolates per-target
// failures, and guarantees exactly one result entry per requested URL.
type Orchestrator struct {
	factory    browser.Factory
	extractor  Extractor
	controller *loader.Controller
	cfg        config.LoaderConfig
}

// New wires an orchestrator. The factory is the only resource shared across
// targets; every controller run owns its session exclusively.
func New(factory browser.Factory, extractor Extractor, cfg config.LoaderConfig, sel config.SelectorConfig) *Orchestrator {
	return &Orchestrator{
		factory:    factory,
		extractor:  extractor,
		controller: loader.NewController(factory, cfg, sel),
		cfg:        cfg,
	}
}

// Concurrency reports the configured pool bound, for the health probe.
func (o *Orchestrator) Concurrency() int { return o.cfg.Concurrency }

// Run processes the batch and returns one entry per requested URL.
// Malformed URLs are rejected into the map up front and never reach a
// browser session. A failure in one target never affects its siblings.
func (o *Orchestrator) Run(ctx context.Context, urls []string, filter models.DateRange) models.BatchResult {
	results := make(models.BatchResult, len(urls))
	targets := make([]models.Target, 0, len(urls))
	scheduled := make(map[string]struct{}, len(urls))

	for _, raw := range urls {
		if _, dup := scheduled[raw]; dup {
			continue
		}
		scheduled[raw] = struct{}{}

		target, err := models.NewTarget(raw)
		if err != nil {
			slog.Info("rejecting malformed target", "url", raw)
			results[raw] = models.ErrorResult(models.AsScrapeError(err))
			continue
		}
		targets = append(targets, target)
	}

	if len(targets) == 0 {
		return results
	}

	slog.Info("batch starting", "targets", len(targets), "concurrency", o.cfg.Concurrency)

	var (
		mu  sync.Mutex
		wg  sync.WaitGroup
		sem = make(chan struct{}, o.cfg.Concurrency)
	)
	for _, target := range targets {
		wg.Add(1)
		go func(t models.Target) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			result := o.runOne(ctx, t, filter)
			mu.Lock()
			results[t.URL] = result
			mu.Unlock()
		}(target)
	}
	wg.Wait()

	slog.Info("batch finished", "targets", len(targets), "entries", len(results))
	return results
}

// runOne executes one target and converts every possible failure mode,
// including panics, into a result entry so siblings keep running.
func (o *Orchestrator) runOne(ctx context.Context, target models.Target, filter models.DateRange) (result *models.TargetResult) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("target run panicked", "label", target.Label(), "panic", r)
			result = models.ErrorResult(models.NewScrapeError(
				models.ErrCodeInternal, fmt.Sprintf("target run panicked: %v", r), nil))
		}
	}()

	start := time.Now()
	outcome := o.controller.Load(ctx, target)

	if outcome.Status == loader.StatusFailed {
		entry := models.ErrorResult(outcome.Err)
		entry.Summary = &models.Summary{
			ProductURL:      target.URL,
			ProductName:     target.NameGuess(),
			TriggerClicks:   outcome.Clicks,
			DurationSeconds: roundSeconds(time.Since(start)),
		}
		return entry
	}

	data, err := o.extractor.Extract(outcome.HTML, target, filter)
	if err != nil {
		slog.Error("extraction failed", "label", target.Label(), "error", err)
		entry := models.ErrorResult(models.AsScrapeError(err))
		entry.Summary = &models.Summary{
			ProductURL:      target.URL,
			ProductName:     target.NameGuess(),
			TriggerClicks:   outcome.Clicks,
			DurationSeconds: roundSeconds(time.Since(start)),
		}
		return entry
	}
	data.DurationSeconds = roundSeconds(time.Since(start))

	return &models.TargetResult{
		Status: statusFor(outcome, data),
		Data:   data,
		Summary: &models.Summary{
			ProductURL:      target.URL,
			ProductName:     data.ProductName,
			TotalScraped:    data.ReviewsCount,
			TriggerClicks:   outcome.Clicks,
			DurationSeconds: data.DurationSeconds,
		},
	}
}

// statusFor classifies a successful load. A missing container with zero
// extracted reviews is the no_container outcome; a missing container that
// still yielded reviews means the container selector rotted but the cards
// did not, which callers should treat as success.
func statusFor(outcome loader.Outcome, data *models.ReviewData) string {
	switch {
	case data.ReviewsCount > 0:
		return models.StatusSuccess
	case outcome.Status == loader.StatusNoContainer:
		return models.StatusNoContainer
	default:
		return models.StatusNoReviewsFound
	}
}

func roundSeconds(d time.Duration) float64 {
	return math.Round(d.Seconds()*100) / 100
}
