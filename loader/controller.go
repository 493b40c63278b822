package loader

import (
	"context"
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/Junaid-liberatelabs/capterra-scrapper/browser"
	"github.com/Junaid-liberatelabs/capterra-scrapper/config"
	"github.com/Junaid-liberatelabs/capterra-scrapper/models"
)

// ratingWithCountRe matches the "4.5 (1,234)" aggregate in the sticky header.
var ratingWithCountRe = regexp.MustCompile(`([\d.]+)\s*\((\d{1,3}(?:,\d{3})*|\d+)\)`)

// reviewCountOfRe matches "Showing 25 of 1,234 Reviews" style displays.
var reviewCountOfRe = regexp.MustCompile(`(?i)(?:of|from)\s+([\d,]+)\s+Reviews`)

// reviewCountOnlyRe matches a bare "1,234 Reviews" display.
var reviewCountOnlyRe = regexp.MustCompile(`(?i)^([\d,]+)\s+Reviews$`)

// Controller runs one target end to end: session acquisition, navigation,
// interference handling, the completion-detector loop, and snapshot capture.
// The session is disposed exactly once, on every exit path.
type Controller struct {
	factory      browser.Factory
	cfg          config.LoaderConfig
	sel          config.SelectorConfig
	interference *Interference
}

// NewController wires a controller over the given session factory.
func NewController(factory browser.Factory, cfg config.LoaderConfig, sel config.SelectorConfig) *Controller {
	return &Controller{
		factory:      factory,
		cfg:          cfg,
		sel:          sel,
		interference: NewInterference(sel.Interference, cfg.FindTimeout/4),
	}
}

// Load hydrates one target fully and returns its terminal outcome. It never
// panics or returns a raw error: every failure becomes a coded Outcome.
func (c *Controller) Load(ctx context.Context, target models.Target) Outcome {
	start := time.Now()
	label := target.Label()

	ctx, cancel := context.WithTimeout(ctx, c.cfg.TargetTimeout)
	defer cancel()

	session, err := c.factory.NewSession(ctx)
	if err != nil {
		return failed(models.AsScrapeError(err), "", 0, time.Since(start))
	}
	defer func() {
		if cerr := session.Close(); cerr != nil {
			slog.Warn("session dispose failed", "label", label, "error", cerr)
		}
	}()

	slog.Info("navigating", "label", label, "url", target.URL)
	if err := session.Navigate(ctx, target.URL, c.cfg.NavTimeout); err != nil {
		return failed(models.AsScrapeError(err), "", 0, time.Since(start))
	}

	// Settle delay: models real-world render completion and reduces false
	// "exhausted" reads on slow connections.
	sleepCtx(ctx, jitter(c.cfg.SettleMin, c.cfg.SettleMax))

	c.interference.Dismiss(ctx, session)

	containers, err := session.FindAll(c.sel.ReviewContainer, c.cfg.FindTimeout)
	if err != nil {
		return failed(models.AsScrapeError(err), "", 0, time.Since(start))
	}
	if len(containers) == 0 {
		slog.Info("review container not found, capturing page as-is", "label", label)
		html, herr := session.HTML()
		if herr != nil {
			return failed(models.AsScrapeError(herr), "", 0, time.Since(start))
		}
		return noContainer(html, time.Since(start))
	}

	declaredTotal := c.declaredTotal(session, label)
	detector := NewDetector(session, c.sel, c.cfg, label)
	detector.Refresh()

	outcome := c.runSteps(ctx, session, detector, declaredTotal, label, start)
	if outcome != nil {
		return *outcome
	}

	html, herr := session.HTML()
	if herr != nil {
		return failed(models.AsScrapeError(herr), "", detector.Clicks(), time.Since(start))
	}

	slog.Info("load complete",
		"label", label,
		"items", detector.ItemCount(),
		"clicks", detector.Clicks(),
		"declared_total", declaredTotal,
		"elapsed", time.Since(start).Round(time.Millisecond),
	)
	return loaded(html, detector.ItemCount(), detector.Clicks(), time.Since(start))
}

// runSteps drives detector steps until exhaustion. A non-nil return is an
// early terminal outcome (wall budget exceeded).
func (c *Controller) runSteps(ctx context.Context, session browser.Session, detector *Detector, declaredTotal int, label string, start time.Time) *Outcome {
	for {
		if ctx.Err() != nil {
			o := c.budgetExceeded(session, detector, label, start)
			return &o
		}

		// Early stop: the DOM already holds everything the site declares.
		if declaredTotal > 0 && detector.ItemCount() >= declaredTotal {
			slog.Info("declared total reached, stopping clicks early",
				"label", label, "items", detector.ItemCount(), "declared_total", declaredTotal)
			return nil
		}

		c.cooldown(ctx, detector)

		switch detector.Step(ctx) {
		case StepGrew:
			// Overlays can reappear after interaction.
			if c.cfg.InterferenceEvery > 0 && detector.Clicks()%c.cfg.InterferenceEvery == 0 {
				c.interference.Dismiss(ctx, session)
			}
		case StepStalled, StepFailed:
			// Both accumulate inside the detector toward exhaustion.
		case StepExhausted:
			return nil
		}
	}
}

// budgetExceeded converts a wall-clock abort into a failed outcome carrying
// whatever snapshot can still be captured.
func (c *Controller) budgetExceeded(session browser.Session, detector *Detector, label string, start time.Time) Outcome {
	slog.Warn("target wall-clock budget exceeded",
		"label", label, "items", detector.ItemCount(), "clicks", detector.Clicks())
	partial, _ := session.HTML()
	err := models.NewScrapeError(models.ErrCodeTimeout,
		"target exceeded its wall-clock budget", context.DeadlineExceeded)
	return failed(err, partial, detector.Clicks(), time.Since(start))
}

// cooldown applies the adaptive pacing the site tolerates on long runs:
// occasional longer sleeps as the click count climbs, and a pre-click jitter
// once past 25 clicks.
func (c *Controller) cooldown(ctx context.Context, detector *Detector) {
	clicks := detector.Clicks()
	switch {
	case clicks > 60 && clicks%7 == 0:
		sleepCtx(ctx, jitter(1500*time.Millisecond, 3*time.Second))
	case clicks > 30 && clicks%5 == 0:
		sleepCtx(ctx, jitter(800*time.Millisecond, 1800*time.Millisecond))
	}
	if clicks > 25 {
		detector.EnableClickJitter()
	}
}

// declaredTotal reads the site-declared review total, best effort. The
// primary source is the rating header aggregate "4.5 (1,234)"; the fallback
// is the "of N Reviews" count display. 0 means unknown.
func (c *Controller) declaredTotal(session browser.Session, label string) int {
	for _, sel := range []string{c.sel.RatingHeader, `span[class*="sr2r3oj"]`} {
		els, err := session.FindAll(sel, c.cfg.FindTimeout/4)
		if err != nil {
			continue
		}
		for _, el := range els {
			text, terr := el.Text()
			if terr != nil || text == "" {
				continue
			}
			if m := ratingWithCountRe.FindStringSubmatch(text); m != nil {
				if n := parseCount(m[2]); n > 0 {
					slog.Debug("declared total from rating header", "label", label, "total", n)
					return n
				}
			}
		}
	}

	els, err := session.FindAll(c.sel.ReviewCountText, c.cfg.FindTimeout/4)
	if err != nil {
		return 0
	}
	for _, el := range els {
		text, terr := el.Text()
		if terr != nil || text == "" {
			continue
		}
		if m := reviewCountOfRe.FindStringSubmatch(text); m != nil {
			if n := parseCount(m[1]); n > 0 {
				slog.Debug("declared total from count display", "label", label, "total", n)
				return n
			}
		}
		if m := reviewCountOnlyRe.FindStringSubmatch(strings.TrimSpace(text)); m != nil {
			if n := parseCount(m[1]); n > 0 {
				return n
			}
		}
	}
	return 0
}

func parseCount(s string) int {
	n, err := strconv.Atoi(strings.ReplaceAll(s, ",", ""))
	if err != nil {
		return 0
	}
	return n
}
