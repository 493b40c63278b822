package loader

import (
	"context"
	"log/slog"
	"math/rand"
	"time"

	"github.com/Junaid-liberatelabs/capterra-scrapper/browser"
	"github.com/Junaid-liberatelabs/capterra-scrapper/config"
)

// dismissSettle is the pause after a successful dismissal, giving the page
// time to remove the overlay before the next pattern is checked.
const dismissSettle = 700 * time.Millisecond

// Interference dismisses known overlays (cookie banners, promotional dialogs,
// modals) that would otherwise intercept trigger clicks. It is best-effort
// and idempotent: a pattern with no matches or an inaccessible frame is
// silently skipped, and it never returns an error.
type Interference struct {
	patterns    []config.InterferencePattern
	findTimeout time.Duration
}

// NewInterference builds a handler for the ordered pattern list.
// findTimeout bounds the per-pattern element search.
func NewInterference(patterns []config.InterferencePattern, findTimeout time.Duration) *Interference {
	return &Interference{patterns: patterns, findTimeout: findTimeout}
}

// Dismiss runs one bounded pass over all patterns against the session's main
// document and, where a pattern asks for it, its nested frames. Multiple
// overlays can be present at once, so a success moves on to the next pattern
// rather than returning. Stray secondary windows are closed and focus is
// restored before returning.
//
// The returned bool only says whether anything was dismissed; callers must
// not branch control flow on it beyond deciding to re-check page state.
func (h *Interference) Dismiss(ctx context.Context, s browser.Session) bool {
	changed := false
	for _, pat := range h.patterns {
		scopes := []browser.Session{s}
		if pat.SearchFrames {
			scopes = append(scopes, s.Frames()...)
		}
		for _, scope := range scopes {
			if h.dismissIn(scope, pat.Selector) {
				changed = true
				sleepCtx(ctx, dismissSettle)
				break
			}
		}
	}
	s.CloseExtraPages()
	return changed
}

// dismissIn tries to dismiss the first visible, enabled match in one scope.
func (h *Interference) dismissIn(scope browser.Session, selector string) bool {
	els, err := scope.FindAll(selector, h.findTimeout)
	if err != nil {
		return false
	}
	for _, el := range els {
		if !el.Visible() || !el.Enabled() {
			continue
		}
		if activate(el) {
			slog.Debug("dismissed overlay", "selector", selector)
			return true
		}
	}
	return false
}

// activate tries a direct interaction first, falling back to a forced
// low-level trigger when the direct one is rejected.
func activate(el browser.Element) bool {
	_ = el.ScrollIntoView()
	if el.Click() == nil {
		return true
	}
	return el.ClickViaScript() == nil
}

// sleepCtx sleeps for d unless ctx expires first. Returns false when the
// context ended the sleep early.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	}
}

// jitter returns a uniformly random duration in [min, max].
func jitter(min, max time.Duration) time.Duration {
	if max <= min {
		return min
	}
	return min + time.Duration(rand.Int63n(int64(max-min)))
}
