package browser

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/launcher/flags"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
	"github.com/ysmood/gson"

	"github.com/Junaid-liberatelabs/capterra-scrapper/config"
	"github.com/Junaid-liberatelabs/capterra-scrapper/models"
)

// RodFactory launches one headless browser and hands out an exclusive page
// per session. It is safe for concurrent use.
type RodFactory struct {
	browser *rod.Browser
	cfg     config.BrowserConfig
	active  atomic.Int32
}

// NewRodFactory launches the browser with the stealth flag set.
func NewRodFactory(cfg config.BrowserConfig) (*RodFactory, error) {
	l := launcher.New().
		Headless(cfg.Headless).
		NoSandbox(cfg.NoSandbox)

	if cfg.BrowserBin != "" {
		l = l.Bin(cfg.BrowserBin)
	}
	if cfg.Proxy != "" {
		l = l.Proxy(cfg.Proxy)
	}

	// ── Stealth flags ────────────────────────────────────────────────
	l.Set(flags.Flag("disable-blink-features"), "AutomationControlled")
	l.Delete(flags.Flag("enable-automation"))
	l.Set(flags.Flag("disable-popup-blocking"))
	l.Set(flags.Flag("disable-dev-shm-usage"))
	l.Set(flags.Flag("disable-background-timer-throttling"))
	l.Set(flags.Flag("disable-backgrounding-occluded-windows"))
	l.Set(flags.Flag("disable-renderer-backgrounding"))
	l.Set(flags.Flag("disable-component-update"))
	l.Set(flags.Flag("disable-default-apps"))
	l.Set(flags.Flag("disable-extensions"))
	l.Set(flags.Flag("no-first-run"))

	controlURL, err := l.Launch()
	if err != nil {
		return nil, models.NewScrapeError(models.ErrCodeSetup, "failed to launch browser", err)
	}
	slog.Info("browser launched", "controlURL", controlURL)

	b := rod.New().ControlURL(controlURL)
	if err := b.Connect(); err != nil {
		return nil, models.NewScrapeError(models.ErrCodeSetup, "failed to connect to browser", err)
	}

	return &RodFactory{browser: b, cfg: cfg}, nil
}

// NewSession creates a fresh, exclusive page. The stealth script is injected
// before any navigation so it takes effect for the target document.
func (f *RodFactory) NewSession(ctx context.Context) (Session, error) {
	page, err := f.browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		return nil, models.NewScrapeError(models.ErrCodeSetup, "failed to create browser page", err)
	}

	if f.cfg.Stealth {
		if _, evalErr := page.EvalOnNewDocument(stealth.JS); evalErr != nil {
			slog.Warn("stealth injection failed, proceeding without stealth", "error", evalErr)
		}
	}

	f.active.Add(1)
	s := &rodSession{factory: f, page: page, ctx: ctx}
	s.ownTarget = page.TargetID
	return s, nil
}

// ActiveSessions reports currently open sessions.
func (f *RodFactory) ActiveSessions() int {
	return int(f.active.Load())
}

// Close kills the browser process. Call on graceful shutdown to prevent
// zombie Chrome processes.
func (f *RodFactory) Close() {
	slog.Info("browser factory shutting down")
	f.browser.MustClose()
}

// rodSession is one exclusive page bound to one target run.
type rodSession struct {
	factory   *RodFactory
	page      *rod.Page
	ctx       context.Context
	ownTarget proto.TargetTargetID
	closeOnce sync.Once
	closeErr  error
}

func (s *rodSession) Navigate(ctx context.Context, url string, timeout time.Duration) error {
	p := s.page.Context(ctx).Timeout(timeout)
	if err := p.Navigate(url); err != nil {
		return categorize(err, models.ErrCodeNavigation, "navigation to target URL failed")
	}
	if err := p.WaitLoad(); err != nil {
		return categorize(err, models.ErrCodeNavigation, "document did not reach ready state in time")
	}
	return nil
}

func (s *rodSession) FindAll(selector string, timeout time.Duration) ([]Element, error) {
	if timeout > 0 {
		// Best effort: give matches time to appear. Zero matches after the
		// wait is a normal outcome the caller interprets.
		_ = s.page.Context(s.ctx).Timeout(timeout).WaitElementsMoreThan(selector, 0)
	}
	els, err := s.page.Context(s.ctx).Elements(selector)
	if err != nil {
		return nil, categorize(err, models.ErrCodeStaleRead, "element query failed")
	}
	out := make([]Element, 0, len(els))
	for _, el := range els {
		out = append(out, &rodElement{el: el})
	}
	return out, nil
}

func (s *rodSession) CountItems(selector string) (int, error) {
	res, err := s.page.Context(s.ctx).Eval(`(sel) => document.querySelectorAll(sel).length`, selector)
	if err != nil {
		return 0, categorize(err, models.ErrCodeStaleRead, "item count query failed")
	}
	return res.Value.Int(), nil
}

func (s *rodSession) Eval(js string, args ...interface{}) (gson.JSON, error) {
	res, err := s.page.Context(s.ctx).Eval(js, args...)
	if err != nil {
		return gson.New(nil), categorize(err, models.ErrCodeInteraction, "script execution failed")
	}
	return res.Value, nil
}

func (s *rodSession) HTML() (string, error) {
	html, err := s.page.Context(s.ctx).HTML()
	if err != nil {
		return "", categorize(err, models.ErrCodeStaleRead, "failed to capture document snapshot")
	}
	return html, nil
}

func (s *rodSession) Frames() []Session {
	iframes, err := s.page.Context(s.ctx).Elements("iframe")
	if err != nil {
		return nil
	}
	frames := make([]Session, 0, len(iframes))
	for _, el := range iframes {
		if vis, verr := el.Visible(); verr != nil || !vis {
			continue
		}
		fp, ferr := el.Frame()
		if ferr != nil {
			continue
		}
		frames = append(frames, &rodSession{factory: s.factory, page: fp, ctx: s.ctx, ownTarget: s.ownTarget})
	}
	return frames
}

func (s *rodSession) CloseExtraPages() {
	pages, err := s.factory.browser.Pages()
	if err != nil {
		return
	}
	closed := 0
	for _, p := range pages {
		if p.TargetID == s.ownTarget {
			continue
		}
		if cerr := p.Close(); cerr == nil {
			closed++
		}
	}
	if closed > 0 {
		slog.Debug("closed unexpected secondary windows", "count", closed)
		if _, aerr := s.page.Activate(); aerr != nil {
			slog.Warn("failed to restore focus to original window", "error", aerr)
		}
	}
}

// Close disposes the page exactly once; subsequent calls return the first
// result. Frame sub-sessions never reach here because frame pages share the
// parent target and are not handed to controllers.
func (s *rodSession) Close() error {
	s.closeOnce.Do(func() {
		s.factory.active.Add(-1)
		if err := s.page.Close(); err != nil {
			slog.Warn("page close failed", "error", err)
			s.closeErr = models.NewScrapeError(models.ErrCodeSetup, "failed to dispose browser page", err)
		}
	})
	return s.closeErr
}

// rodElement adapts a rod element handle to the Element interface, mapping
// invalidated-handle errors to STALE_READ.
type rodElement struct {
	el *rod.Element
}

func (e *rodElement) Text() (string, error) {
	text, err := e.el.Text()
	if err != nil {
		return "", categorize(err, models.ErrCodeStaleRead, "element text read failed")
	}
	return text, nil
}

func (e *rodElement) Attribute(name string) (string, error) {
	attr, err := e.el.Attribute(name)
	if err != nil {
		return "", categorize(err, models.ErrCodeStaleRead, "element attribute read failed")
	}
	if attr == nil {
		return "", nil
	}
	return *attr, nil
}

func (e *rodElement) Visible() bool {
	vis, err := e.el.Visible()
	return err == nil && vis
}

func (e *rodElement) Enabled() bool {
	prop, err := e.el.Property("disabled")
	if err != nil {
		return false
	}
	return !prop.Bool()
}

func (e *rodElement) ScrollIntoView() error {
	if err := e.el.ScrollIntoView(); err != nil {
		return categorize(err, models.ErrCodeInteraction, "scroll into view failed")
	}
	return nil
}

func (e *rodElement) Click() error {
	if err := e.el.Click(proto.InputMouseButtonLeft, 1); err != nil {
		return categorize(err, models.ErrCodeInteraction, "direct click failed")
	}
	return nil
}

func (e *rodElement) ClickViaScript() error {
	if _, err := e.el.Eval(`() => this.click()`); err != nil {
		return categorize(err, models.ErrCodeInteraction, "scripted click failed")
	}
	return nil
}

// categorize wraps raw rod/CDP errors into coded ScrapeErrors so upper
// layers can branch on the code rather than on backend error types.
func categorize(err error, fallbackCode, msg string) *models.ScrapeError {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		if fallbackCode == models.ErrCodeNavigation {
			return models.NewScrapeError(models.ErrCodeNavigation, msg, err)
		}
		return models.NewScrapeError(models.ErrCodeTimeout, msg, err)
	case errors.Is(err, context.Canceled):
		return models.NewScrapeError(models.ErrCodeTimeout, "operation canceled", err)
	default:
		return models.NewScrapeError(fallbackCode, msg, err)
	}
}
