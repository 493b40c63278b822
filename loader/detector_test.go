package loader

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestDetector_GrowthThenStallsExhausts(t *testing.T) {
	s := newFakeSession()
	s.growth = []int{10, 10, 10, 10, 10}

	d := NewDetector(s, testSelectors(), testLoaderConfig(), "load-test")

	var outcomes []StepOutcome
	for {
		o := d.Step(context.Background())
		outcomes = append(outcomes, o)
		if o == StepExhausted {
			break
		}
		if len(outcomes) > 20 {
			t.Fatal("detector never exhausted")
		}
	}

	// Five growth steps, one stall under threshold, then exhaustion on the
	// second consecutive stall.
	want := []StepOutcome{StepGrew, StepGrew, StepGrew, StepGrew, StepGrew, StepStalled, StepExhausted}
	if len(outcomes) != len(want) {
		t.Fatalf("got %d step outcomes, want %d: %v", len(outcomes), len(want), outcomes)
	}
	for i, o := range outcomes {
		if o != want[i] {
			t.Errorf("step %d: got outcome %d, want %d", i, o, want[i])
		}
	}

	if d.ItemCount() != 50 {
		t.Errorf("final item count = %d, want 50", d.ItemCount())
	}
	if d.Clicks() != 7 {
		t.Errorf("trigger clicks = %d, want 7", d.Clicks())
	}
}

func TestDetector_TriggerAbsent(t *testing.T) {
	s := newFakeSession()
	s.trigger = nil

	d := NewDetector(s, testSelectors(), testLoaderConfig(), "load-test")

	if o := d.Step(context.Background()); o != StepExhausted {
		t.Errorf("step with absent trigger = %d, want StepExhausted", o)
	}
	if d.Clicks() != 0 {
		t.Errorf("clicks = %d, want 0", d.Clicks())
	}
}

func TestDetector_TriggerDisabled(t *testing.T) {
	s := newFakeSession()
	s.trigger.enabled = false

	d := NewDetector(s, testSelectors(), testLoaderConfig(), "load-test")

	if o := d.Step(context.Background()); o != StepExhausted {
		t.Errorf("step with disabled trigger = %d, want StepExhausted", o)
	}
}

func TestDetector_CountNeverDecreases(t *testing.T) {
	s := newFakeSession()
	s.count = 10
	// Stale reads below the known floor must register as "no change", not
	// regression and not growth.
	s.countReads = []int{10, 4, 6, 10}

	d := NewDetector(s, testSelectors(), testLoaderConfig(), "load-test")

	if o := d.Step(context.Background()); o != StepStalled {
		t.Errorf("step with stale decreasing reads = %d, want StepStalled", o)
	}
	if d.ItemCount() != 10 {
		t.Errorf("item count = %d, want 10 (monotonic floor)", d.ItemCount())
	}
}

func TestDetector_SpinnerClearShortCircuitsStall(t *testing.T) {
	cfg := testLoaderConfig()
	cfg.PollBudget = 500 * time.Millisecond

	s := newFakeSession()
	s.spinnerSeq = []bool{true, false}

	d := NewDetector(s, testSelectors(), cfg, "load-test")

	start := time.Now()
	if o := d.Step(context.Background()); o != StepStalled {
		t.Errorf("step = %d, want StepStalled", o)
	}
	if elapsed := time.Since(start); elapsed > 200*time.Millisecond {
		t.Errorf("spinner clear did not short-circuit the wait: took %v", elapsed)
	}
}

func TestDetector_ScriptedClickFallback(t *testing.T) {
	s := newFakeSession()
	s.growth = []int{10}
	s.trigger.clickErr = errors.New("element click intercepted")

	d := NewDetector(s, testSelectors(), testLoaderConfig(), "load-test")

	if o := d.Step(context.Background()); o != StepGrew {
		t.Errorf("step with intercepted direct click = %d, want StepGrew", o)
	}
	if s.trigger.scriptClicks != 1 {
		t.Errorf("scripted clicks = %d, want 1", s.trigger.scriptClicks)
	}
	if d.ItemCount() != 10 {
		t.Errorf("item count = %d, want 10", d.ItemCount())
	}
}

func TestDetector_ConsecutiveFailuresExhaust(t *testing.T) {
	s := newFakeSession()
	s.trigger.clickErr = errors.New("element click intercepted")
	s.trigger.scriptErr = errors.New("node detached")

	d := NewDetector(s, testSelectors(), testLoaderConfig(), "load-test")
	ctx := context.Background()

	if o := d.Step(ctx); o != StepFailed {
		t.Fatalf("first failing step = %d, want StepFailed", o)
	}
	if o := d.Step(ctx); o != StepExhausted {
		t.Errorf("second failing step = %d, want StepExhausted", o)
	}
	if d.Clicks() != 0 {
		t.Errorf("clicks = %d, want 0 after failed activations", d.Clicks())
	}
}

func TestDetector_ClickCeiling(t *testing.T) {
	cfg := testLoaderConfig()
	cfg.MaxTriggerClicks = 3

	s := newFakeSession()
	s.growth = []int{10, 10, 10, 10, 10}

	d := NewDetector(s, testSelectors(), cfg, "load-test")
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if o := d.Step(ctx); o != StepGrew {
			t.Fatalf("step %d = %d, want StepGrew", i, o)
		}
	}
	if o := d.Step(ctx); o != StepExhausted {
		t.Errorf("step past ceiling = %d, want StepExhausted", o)
	}
	if d.Clicks() != 3 {
		t.Errorf("clicks = %d, want 3", d.Clicks())
	}
}
