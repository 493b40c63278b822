package loader

import (
	"context"
	"log/slog"
	"time"

	"github.com/Junaid-liberatelabs/capterra-scrapper/browser"
	"github.com/Junaid-liberatelabs/capterra-scrapper/config"
)

// StepOutcome classifies one attempted load-more cycle.
type StepOutcome int

const (
	// StepGrew means new items arrived after the trigger activation.
	StepGrew StepOutcome = iota

	// StepStalled means the trigger was activated but no growth was
	// observed within the poll budget.
	StepStalled

	// StepExhausted means pagination is done: the trigger is gone or
	// disabled, the stall threshold was reached, or the click ceiling hit.
	StepExhausted

	// StepFailed means the trigger could not be activated this step.
	StepFailed
)

// maxConsecutiveFailures converts repeated activation failures into
// exhaustion instead of aborting the whole load.
const maxConsecutiveFailures = 2

// Detector is the completion state machine for one target's load-more loop.
// It decides, from noisy and delayed DOM signals, whether each trigger
// activation produced growth, stalled, or means pagination is exhausted.
//
// Not safe for concurrent use: one detector drives one session, and steps
// are strictly sequential.
type Detector struct {
	session browser.Session
	sel     config.SelectorConfig
	cfg     config.LoaderConfig
	label   string

	// lastCount is monotonically non-decreasing: the page can only add
	// items, so a smaller measurement is a stale read, not regression.
	lastCount int

	clicks      int
	stalls      int
	failures    int
	clickJitter bool
}

// NewDetector builds a detector over an already-navigated session.
func NewDetector(session browser.Session, sel config.SelectorConfig, cfg config.LoaderConfig, label string) *Detector {
	return &Detector{session: session, sel: sel, cfg: cfg, label: label}
}

// Clicks reports how many trigger activations have been performed.
func (d *Detector) Clicks() int { return d.clicks }

// Refresh re-reads the item count outside a step, for callers that gate on it
// before the first activation.
func (d *Detector) Refresh() int { return d.measure() }

// ItemCount reports the last known item count.
func (d *Detector) ItemCount() int { return d.lastCount }

// Step executes one load-more cycle: measure, locate and activate the
// trigger, then poll for growth. The caller loops until StepExhausted or an
// external budget ends the run.
func (d *Detector) Step(ctx context.Context) StepOutcome {
	// Safety bound against a trigger that never disables itself.
	if d.clicks >= d.cfg.MaxTriggerClicks {
		slog.Warn("trigger click ceiling reached", "label", d.label, "clicks", d.clicks)
		return StepExhausted
	}

	countBefore := d.measure()

	trigger, ok := d.findTrigger()
	if !ok {
		slog.Debug("trigger control absent or disabled, pagination exhausted",
			"label", d.label, "items", d.lastCount)
		return StepExhausted
	}

	if !d.activate(ctx, trigger) {
		d.failures++
		if d.failures >= maxConsecutiveFailures {
			slog.Warn("consecutive trigger failures, treating as exhausted",
				"label", d.label, "failures", d.failures)
			return StepExhausted
		}
		return StepFailed
	}
	d.failures = 0
	d.clicks++

	if d.waitForGrowth(ctx, countBefore) {
		d.stalls = 0
		slog.Debug("items grew", "label", d.label, "items", d.lastCount, "clicks", d.clicks)
		return StepGrew
	}

	d.stalls++
	if d.stalls >= d.cfg.StallThreshold {
		slog.Debug("stall threshold reached, pagination exhausted",
			"label", d.label, "items", d.lastCount, "clicks", d.clicks)
		return StepExhausted
	}
	return StepStalled
}

// measure reads the current item count, clamped to the monotonic floor.
// Errors and decreases read as "no change".
func (d *Detector) measure() int {
	n, err := d.session.CountItems(d.sel.CardFull())
	if err == nil && n > d.lastCount {
		d.lastCount = n
	}
	return d.lastCount
}

// findTrigger locates the load-more control. Absence or a disabled control
// is the normal end of pagination.
func (d *Detector) findTrigger() (browser.Element, bool) {
	els, err := d.session.FindAll(d.sel.ShowMoreButton, d.cfg.FindTimeout)
	if err != nil || len(els) == 0 {
		return nil, false
	}
	for _, el := range els {
		if el.Visible() && el.Enabled() {
			return el, true
		}
	}
	return nil, false
}

// activate tries a direct interaction, then retries with a forced low-level
// activation after a short jittered pause when the click is intercepted or
// the element is not interactable.
func (d *Detector) activate(ctx context.Context, trigger browser.Element) bool {
	_ = trigger.ScrollIntoView()
	if d.clickJitter {
		sleepCtx(ctx, jitter(200*time.Millisecond, 500*time.Millisecond))
	}

	err := trigger.Click()
	if err == nil {
		return true
	}
	slog.Debug("direct trigger click rejected, forcing scripted activation",
		"label", d.label, "error", err)

	if !sleepCtx(ctx, jitter(150*time.Millisecond, 400*time.Millisecond)) {
		return false
	}
	return trigger.ClickViaScript() == nil
}

// EnableClickJitter adds a small randomized pause before each direct click.
// The controller switches it on once a run has accumulated enough clicks to
// look machine-like.
func (d *Detector) EnableClickJitter() { d.clickJitter = true }

// waitForGrowth polls the item count at the configured interval until growth
// is seen or the budget runs out. A loading indicator that was observed
// active and later went inactive with no growth short-circuits the wait:
// the fetch finished and produced nothing new.
func (d *Detector) waitForGrowth(ctx context.Context, countBefore int) bool {
	deadline := time.Now().Add(d.cfg.PollBudget)
	spinnerSeen := false

	for time.Now().Before(deadline) {
		if d.measure() > countBefore {
			return true
		}

		spinnerActive := d.spinnerVisible()
		if spinnerSeen && !spinnerActive {
			slog.Debug("loading indicator cleared with no growth, stalling early",
				"label", d.label, "items", d.lastCount)
			return false
		}
		if spinnerActive {
			spinnerSeen = true
		}

		if !sleepCtx(ctx, d.cfg.PollInterval) {
			return false
		}
	}

	// One last read: growth may have landed right at the budget edge.
	return d.measure() > countBefore
}

func (d *Detector) spinnerVisible() bool {
	els, err := d.session.FindAll(d.sel.LoadingSpinner, 0)
	if err != nil {
		return false
	}
	for _, el := range els {
		if el.Visible() {
			return true
		}
	}
	return false
}
