package session_test

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/lollipop-edu/lollipop-backend/internal/session"
)

func TestEngagementPauseResumeKeepsElapsed(t *testing.T) {
	clk := newFakeClock()
	e := session.NewEngagement(30*time.Second, nil, clk)
	e.Start()
	defer e.Stop()

	clk.Advance(17 * time.Second)
	e.Pause()

	// Time spent paused must not count against the window.
	clk.Advance(5 * time.Minute)
	if got := e.Remaining(); got != 13*time.Second {
		t.Fatalf("remaining while paused = %s, want 13s", got)
	}

	e.Resume()
	if got := e.Remaining(); got != 13*time.Second {
		t.Fatalf("remaining right after resume = %s, want 13s", got)
	}

	clk.Advance(13 * time.Second)
	if got := e.Remaining(); got != 0 {
		t.Fatalf("remaining = %s, want 0", got)
	}
}

func TestEngagementTouchResetsWindow(t *testing.T) {
	clk := newFakeClock()
	e := session.NewEngagement(30*time.Second, nil, clk)
	e.Start()
	defer e.Stop()

	clk.Advance(25 * time.Second)
	e.Touch()
	if got := e.Remaining(); got != 30*time.Second {
		t.Fatalf("remaining after touch = %s, want full window", got)
	}
	if got := e.Progress(); got != 0 {
		t.Fatalf("progress after touch = %f, want 0", got)
	}
}

func TestEngagementProgressIsClamped(t *testing.T) {
	clk := newFakeClock()
	e := session.NewEngagement(30*time.Second, nil, clk)
	e.Start()
	defer e.Stop()

	clk.Advance(15 * time.Second)
	if got := e.Progress(); got != 0.5 {
		t.Fatalf("progress = %f, want 0.5", got)
	}

	clk.Advance(time.Minute)
	if got := e.Progress(); got != 1 {
		t.Fatalf("progress = %f, want clamped to 1", got)
	}
	if got := e.Remaining(); got != 0 {
		t.Fatalf("remaining = %s, want clamped to 0", got)
	}
}

func TestEngagementExpiryRestartsOwnWindow(t *testing.T) {
	clk := newFakeClock()
	var fired int32
	e := session.NewEngagement(30*time.Second, func() { atomic.AddInt32(&fired, 1) }, clk)
	e.Start()
	defer e.Stop()

	tk := clk.ticker(t, 50*time.Millisecond)

	clk.Advance(31 * time.Second)
	tk.tick(clk.Now())
	waitFor(t, func() bool { return atomic.LoadInt32(&fired) == 1 }, "first expiry never fired")
	waitFor(t, func() bool { return e.Remaining() == 30*time.Second },
		"window did not restart after expiry")

	// It repeats without any external restart.
	clk.Advance(30 * time.Second)
	tk.tick(clk.Now())
	waitFor(t, func() bool { return atomic.LoadInt32(&fired) == 2 }, "second expiry never fired")
}

func TestEngagementDoesNotExpireWhilePaused(t *testing.T) {
	clk := newFakeClock()
	var fired int32
	e := session.NewEngagement(30*time.Second, func() { atomic.AddInt32(&fired, 1) }, clk)
	e.Start()
	defer e.Stop()

	tk := clk.ticker(t, 50*time.Millisecond)

	clk.Advance(20 * time.Second)
	e.Pause()
	clk.Advance(time.Hour)
	tk.tick(clk.Now())
	time.Sleep(20 * time.Millisecond)
	if got := atomic.LoadInt32(&fired); got != 0 {
		t.Fatalf("fired %d times while paused", got)
	}

	e.Resume()
	clk.Advance(10 * time.Second)
	tk.tick(clk.Now())
	waitFor(t, func() bool { return atomic.LoadInt32(&fired) == 1 },
		"expiry did not fire after resume completed the window")
}
