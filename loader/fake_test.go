package loader

import (
	"context"
	"sync"
	"time"

	"github.com/ysmood/gson"

	"github.com/Junaid-liberatelabs/capterra-scrapper/browser"
	"github.com/Junaid-liberatelabs/capterra-scrapper/config"
)

// fakeElement is an in-memory stand-in for one DOM node.
type fakeElement struct {
	text      string
	visible   bool
	enabled   bool
	clickErr  error
	scriptErr error

	clicks       int
	scriptClicks int
	onClick      func()
}

func (e *fakeElement) Text() (string, error)            { return e.text, nil }
func (e *fakeElement) Attribute(string) (string, error) { return "", nil }
func (e *fakeElement) Visible() bool                    { return e.visible }
func (e *fakeElement) Enabled() bool                    { return e.enabled }
func (e *fakeElement) ScrollIntoView() error            { return nil }

func (e *fakeElement) Click() error {
	e.clicks++
	if e.clickErr != nil {
		return e.clickErr
	}
	if e.onClick != nil {
		e.onClick()
	}
	return nil
}

func (e *fakeElement) ClickViaScript() error {
	e.scriptClicks++
	if e.scriptErr != nil {
		return e.scriptErr
	}
	if e.onClick != nil {
		e.onClick()
	}
	return nil
}

// fakeSession is an in-memory page. Element lookups dispatch on the selector
// strings from testSelectors(); the item count grows when the trigger element
// is activated, by the next delta in growth.
type fakeSession struct {
	mu sync.Mutex

	count      int
	growth     []int // per activation; 0 entries mean no growth
	growthIdx  int
	countReads []int // optional scripted CountItems values, then live count

	trigger    *fakeElement
	spinnerSeq []bool // per spinnerVisible call, then false
	container  bool
	headerText string // rating header text, "" for absent
	countText  string // review count display text, "" for absent
	overlay    *fakeElement
	overlaySel string
	frames     []browser.Session

	html   string
	navErr error

	navCalls    int
	closeCalls  int
	extraCloses int
}

func newFakeSession() *fakeSession {
	s := &fakeSession{container: true, html: "<html></html>"}
	s.trigger = &fakeElement{visible: true, enabled: true, onClick: s.applyGrowth}
	return s
}

func (s *fakeSession) applyGrowth() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.growthIdx < len(s.growth) {
		s.count += s.growth[s.growthIdx]
	}
	s.growthIdx++
}

func (s *fakeSession) Navigate(_ context.Context, _ string, _ time.Duration) error {
	s.navCalls++
	return s.navErr
}

func (s *fakeSession) FindAll(selector string, _ time.Duration) ([]browser.Element, error) {
	sel := testSelectors()
	switch selector {
	case sel.ShowMoreButton:
		if s.trigger == nil {
			return nil, nil
		}
		return []browser.Element{s.trigger}, nil
	case sel.LoadingSpinner:
		s.mu.Lock()
		active := false
		if len(s.spinnerSeq) > 0 {
			active = s.spinnerSeq[0]
			s.spinnerSeq = s.spinnerSeq[1:]
		}
		s.mu.Unlock()
		if !active {
			return nil, nil
		}
		return []browser.Element{&fakeElement{visible: true, enabled: true}}, nil
	case sel.ReviewContainer:
		if !s.container {
			return nil, nil
		}
		return []browser.Element{&fakeElement{visible: true, enabled: true}}, nil
	case sel.RatingHeader:
		if s.headerText == "" {
			return nil, nil
		}
		return []browser.Element{&fakeElement{text: s.headerText, visible: true, enabled: true}}, nil
	case sel.ReviewCountText:
		if s.countText == "" {
			return nil, nil
		}
		return []browser.Element{&fakeElement{text: s.countText, visible: true, enabled: true}}, nil
	case s.overlaySel:
		if s.overlay == nil {
			return nil, nil
		}
		return []browser.Element{s.overlay}, nil
	}
	return nil, nil
}

func (s *fakeSession) CountItems(string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.countReads) > 0 {
		n := s.countReads[0]
		s.countReads = s.countReads[1:]
		return n, nil
	}
	return s.count, nil
}

func (s *fakeSession) Eval(string, ...interface{}) (gson.JSON, error) {
	return gson.New(nil), nil
}

func (s *fakeSession) HTML() (string, error) { return s.html, nil }

func (s *fakeSession) Frames() []browser.Session { return s.frames }

func (s *fakeSession) CloseExtraPages() { s.extraCloses++ }

func (s *fakeSession) Close() error {
	s.closeCalls++
	return nil
}

// fakeFactory hands out prepared sessions in order.
type fakeFactory struct {
	mu       sync.Mutex
	sessions []*fakeSession
	next     int
	newErr   error
}

func (f *fakeFactory) NewSession(context.Context) (browser.Session, error) {
	if f.newErr != nil {
		return nil, f.newErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.next >= len(f.sessions) {
		s := newFakeSession()
		f.sessions = append(f.sessions, s)
	}
	s := f.sessions[f.next]
	f.next++
	return s, nil
}

func (f *fakeFactory) ActiveSessions() int { return 0 }
func (f *fakeFactory) Close()              {}

func testSelectors() config.SelectorConfig {
	return config.SelectorConfig{
		ReviewContainer: "#reviews",
		ReviewCard:      ".card",
		ShowMoreButton:  "#show-more",
		LoadingSpinner:  ".spinner",
		RatingHeader:    "#rating-header",
		ReviewCountText: "#review-count",
	}
}

// testLoaderConfig uses aggressive timings so polls settle in milliseconds.
func testLoaderConfig() config.LoaderConfig {
	return config.LoaderConfig{
		Concurrency:       2,
		TargetTimeout:     5 * time.Second,
		NavTimeout:        time.Second,
		FindTimeout:       time.Millisecond,
		SettleMin:         0,
		SettleMax:         0,
		PollInterval:      time.Millisecond,
		PollBudget:        25 * time.Millisecond,
		StallThreshold:    2,
		MaxTriggerClicks:  250,
		InterferenceEvery: 7,
	}
}
