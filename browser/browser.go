// Package browser defines the minimal automation capability set the load
// pipeline is written against, plus the Rod-backed implementation. Any
// backend that can navigate, query elements, run scripts, and dispose of
// itself can stand in (tests use an in-memory fake).
package browser

import (
	"context"
	"time"

	"github.com/ysmood/gson"
)

// Element is a live handle to one DOM node. Handles go stale when the page
// re-renders; read methods report that as a STALE_READ coded error.
type Element interface {
	// Text returns the node's rendered text.
	Text() (string, error)

	// Attribute returns the named attribute, or "" when absent.
	Attribute(name string) (string, error)

	// Visible reports whether the node is displayed. Errors (including
	// staleness) read as not visible.
	Visible() bool

	// Enabled reports whether the node accepts interaction (no disabled
	// attribute/property).
	Enabled() bool

	// ScrollIntoView brings the node into the viewport.
	ScrollIntoView() error

	// Click performs a direct, trusted interaction.
	Click() error

	// ClickViaScript performs a forced low-level activation in page
	// context, used when the direct click is intercepted.
	ClickViaScript() error
}

// Session owns one isolated automation context for one target. Sessions are
// never shared or reused; Close is idempotent and must release all process
// resources on every exit path.
type Session interface {
	// Navigate loads url and waits for the document ready state, failing
	// with a NAVIGATION_TIMEOUT coded error when the deadline passes.
	Navigate(ctx context.Context, url string, timeout time.Duration) error

	// FindAll waits up to timeout for at least one match, then returns all
	// matches. Zero matches is a normal outcome (empty slice, nil error),
	// never a fabricated error.
	FindAll(selector string, timeout time.Duration) ([]Element, error)

	// CountItems returns the number of nodes currently matching selector,
	// without waiting.
	CountItems(selector string) (int, error)

	// Eval runs a JS function against the live document.
	Eval(js string, args ...interface{}) (gson.JSON, error)

	// HTML returns the current document snapshot.
	HTML() (string, error)

	// Frames returns sessions scoped to the page's visible nested frames.
	// Inaccessible frames are silently omitted.
	Frames() []Session

	// CloseExtraPages closes unexpected secondary windows opened as a side
	// effect of interaction and restores focus to the original window.
	CloseExtraPages()

	// Close disposes the session. Safe to call multiple times.
	Close() error
}

// Factory creates sessions against a shared launched browser. The factory is
// the only shared resource; every session is exclusive to one target.
type Factory interface {
	NewSession(ctx context.Context) (Session, error)

	// ActiveSessions reports how many sessions are currently open, for the
	// health probe.
	ActiveSessions() int

	// Close tears the browser down. Call on shutdown.
	Close()
}
