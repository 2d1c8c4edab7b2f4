package session_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/lollipop-edu/lollipop-backend/internal/session"
)

// TestFullSessionLifecycle walks a three-question homework end to end:
// question 1 is answered by the student, question 2 runs out of time, and
// question 3 is forfeited by a missed engagement check. Afterwards the
// homework has one stored answer per question, the session is finished,
// and a re-entry attempt is redirected.
func TestFullSessionLifecycle(t *testing.T) {
	b := newFakeBackend(3)
	clk := newFakeClock()
	c := newTestController(b, clk, session.Config{
		QuestionTimer:   2 * time.Second,
		EngagementTimer: 30 * time.Second,
	})
	defer c.Close()

	var finished int32
	c.OnFinished(func() { atomic.AddInt32(&finished, 1) })

	ctx := context.Background()
	if err := c.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	engagementTicker := clk.ticker(t, 50*time.Millisecond)
	clk.ticker(t, time.Second) // question 1 countdown, never expires

	// Question 1: the student answers within time.
	pick := b.questions[0].Choices[1].ID
	if err := c.Submit(ctx, &pick); err != nil {
		t.Fatalf("Submit q1: %v", err)
	}
	if err := c.Next(ctx); err != nil {
		t.Fatalf("Next q1: %v", err)
	}

	// Question 2: the countdown runs out.
	q2Countdown := clk.ticker(t, time.Second)
	q2Countdown.tick(clk.Now())
	q2Countdown.tick(clk.Now())
	waitFor(t, func() bool { return c.Snapshot().Phase == session.PhaseSubmitted },
		"q2 countdown expiry did not submit")
	waitFor(t, func() bool { return b.submitCount() == 3 }, "q2 auto-submit never landed")
	if c.EscapeAllowed() {
		t.Error("leaving must stay blocked between questions")
	}
	if err := c.Next(ctx); err != nil {
		t.Fatalf("Next q2: %v", err)
	}

	// Question 3: the engagement check goes unanswered.
	clk.Advance(31 * time.Second)
	engagementTicker.tick(clk.Now())
	waitFor(t, func() bool { return c.Snapshot().Phase == session.PhaseSubmitted },
		"q3 engagement expiry did not submit")
	waitFor(t, func() bool { return b.submitCount() == 4 }, "q3 auto-submit never landed")
	if err := c.Next(ctx); err != nil {
		t.Fatalf("Next q3: %v", err)
	}

	s := c.Snapshot()
	if s.Phase != session.PhaseFinished {
		t.Fatalf("phase = %s, want FINISHED", s.Phase)
	}
	if got := atomic.LoadInt32(&finished); got != 1 {
		t.Fatalf("finish hook fired %d times, want 1", got)
	}
	if !c.EscapeAllowed() {
		t.Error("leaving must be allowed after the last question")
	}

	// Marker, q1 user answer, q2 timeout, q3 timeout.
	if got := b.submitCount(); got != 4 {
		t.Fatalf("submit count = %d, want 4", got)
	}
	if got := b.submitAt(1).SelectedChoiceID; got == nil || *got != pick {
		t.Error("q1 answer lost")
	}
	for _, i := range []int{2, 3} {
		if b.submitAt(i).SelectedChoiceID != nil {
			t.Errorf("submission %d carries a choice, want empty", i)
		}
	}

	// Re-entering the finished homework must redirect, not restart.
	again := newTestController(b, newFakeClock(), session.Config{})
	if err := again.Start(ctx); err != session.ErrAlreadyCompleted {
		t.Fatalf("re-entry Start = %v, want ErrAlreadyCompleted", err)
	}
}

// TestEngagementAcknowledgeSpansQuestions checks that answering the
// attention check keeps the window alive across a question boundary: the
// window is not tied to question lifetimes.
func TestEngagementAcknowledgeSpansQuestions(t *testing.T) {
	b := newFakeBackend(2)
	clk := newFakeClock()
	c := newTestController(b, clk, session.Config{
		QuestionTimer:   time.Minute,
		EngagementTimer: 30 * time.Second,
	})
	defer c.Close()

	ctx := context.Background()
	if err := c.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	engagementTicker := clk.ticker(t, 50*time.Millisecond)

	clk.Advance(20 * time.Second)
	c.Heartbeat()
	if got := c.Snapshot().EngagementProgress; got != 0 {
		t.Fatalf("progress after heartbeat = %f, want 0", got)
	}

	// Submit freezes the window; advancing resumes it fresh.
	clk.Advance(10 * time.Second)
	pick := b.questions[0].Choices[0].ID
	if err := c.Submit(ctx, &pick); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	clk.Advance(time.Hour)
	engagementTicker.tick(clk.Now())
	time.Sleep(20 * time.Millisecond)
	if got := b.submitCount(); got != 2 {
		t.Fatalf("submit count = %d, engagement must not fire on a submitted question", got)
	}

	if err := c.Next(ctx); err != nil {
		t.Fatalf("Next: %v", err)
	}
	clk.Advance(31 * time.Second)
	engagementTicker.tick(clk.Now())
	waitFor(t, func() bool { return b.submitCount() == 3 },
		"engagement did not resume on the next question")
}
