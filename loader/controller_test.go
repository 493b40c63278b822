package loader

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Junaid-liberatelabs/capterra-scrapper/models"
)

func testTarget() models.Target {
	target, err := models.NewTarget("https://www.capterra.com/p/135003/Slack/reviews/")
	if err != nil {
		panic(err)
	}
	return target
}

func TestController_LoadToExhaustion(t *testing.T) {
	s := newFakeSession()
	s.count = 25
	s.trigger = nil
	s.html = "<html><body>final snapshot</body></html>"
	f := &fakeFactory{sessions: []*fakeSession{s}}

	c := NewController(f, testLoaderConfig(), testSelectors())
	outcome := c.Load(context.Background(), testTarget())

	if outcome.Status != StatusLoaded {
		t.Fatalf("status = %v, want StatusLoaded (err: %v)", outcome.Status, outcome.Err)
	}
	if outcome.HTML != s.html {
		t.Errorf("outcome did not carry the final snapshot")
	}
	if outcome.ItemCount != 25 {
		t.Errorf("item count = %d, want 25", outcome.ItemCount)
	}
	if s.closeCalls != 1 {
		t.Errorf("session close calls = %d, want exactly 1", s.closeCalls)
	}
}

func TestController_NoContainer(t *testing.T) {
	s := newFakeSession()
	s.container = false
	s.html = "<html><body>product page without reviews</body></html>"
	f := &fakeFactory{sessions: []*fakeSession{s}}

	c := NewController(f, testLoaderConfig(), testSelectors())
	outcome := c.Load(context.Background(), testTarget())

	if outcome.Status != StatusNoContainer {
		t.Fatalf("status = %v, want StatusNoContainer", outcome.Status)
	}
	if outcome.Err != nil {
		t.Errorf("no-container outcome carries an error: %v", outcome.Err)
	}
	if outcome.HTML != s.html {
		t.Errorf("no-container outcome should still capture the page snapshot")
	}
	if s.closeCalls != 1 {
		t.Errorf("session close calls = %d, want exactly 1", s.closeCalls)
	}
}

func TestController_NavigateFailureDisposesSession(t *testing.T) {
	s := newFakeSession()
	s.navErr = errors.New("net::ERR_CONNECTION_RESET")
	f := &fakeFactory{sessions: []*fakeSession{s}}

	c := NewController(f, testLoaderConfig(), testSelectors())
	outcome := c.Load(context.Background(), testTarget())

	if outcome.Status != StatusFailed {
		t.Fatalf("status = %v, want StatusFailed", outcome.Status)
	}
	if outcome.Err == nil {
		t.Fatal("failed outcome carries no error")
	}
	if s.closeCalls != 1 {
		t.Errorf("session close calls = %d, want exactly 1 even on failure", s.closeCalls)
	}
}

func TestController_SessionAcquisitionFailure(t *testing.T) {
	f := &fakeFactory{newErr: errors.New("browser gone")}

	c := NewController(f, testLoaderConfig(), testSelectors())
	outcome := c.Load(context.Background(), testTarget())

	if outcome.Status != StatusFailed {
		t.Fatalf("status = %v, want StatusFailed", outcome.Status)
	}
	if outcome.Err == nil {
		t.Fatal("failed outcome carries no error")
	}
}

func TestController_DeclaredTotalStopsEarly(t *testing.T) {
	s := newFakeSession()
	s.count = 30
	s.headerText = "4.5 (30)"
	s.growth = []int{10, 10}
	f := &fakeFactory{sessions: []*fakeSession{s}}

	c := NewController(f, testLoaderConfig(), testSelectors())
	outcome := c.Load(context.Background(), testTarget())

	if outcome.Status != StatusLoaded {
		t.Fatalf("status = %v, want StatusLoaded", outcome.Status)
	}
	if outcome.Clicks != 0 {
		t.Errorf("clicks = %d, want 0 when the DOM already holds the declared total", outcome.Clicks)
	}
	if outcome.ItemCount != 30 {
		t.Errorf("item count = %d, want 30", outcome.ItemCount)
	}
}

func TestController_WallBudgetExceeded(t *testing.T) {
	cfg := testLoaderConfig()
	cfg.TargetTimeout = time.Nanosecond

	s := newFakeSession()
	s.html = "<html><body>partial</body></html>"
	f := &fakeFactory{sessions: []*fakeSession{s}}

	c := NewController(f, cfg, testSelectors())
	outcome := c.Load(context.Background(), testTarget())

	if outcome.Status != StatusFailed {
		t.Fatalf("status = %v, want StatusFailed", outcome.Status)
	}
	if outcome.Err == nil || outcome.Err.Code != models.ErrCodeTimeout {
		t.Fatalf("error = %v, want code %s", outcome.Err, models.ErrCodeTimeout)
	}
	if outcome.HTML != s.html {
		t.Errorf("budget-exceeded outcome should carry the partial snapshot")
	}
	if s.closeCalls != 1 {
		t.Errorf("session close calls = %d, want exactly 1", s.closeCalls)
	}
}
