package session_test

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/lollipop-edu/lollipop-backend/internal/model"
	"github.com/lollipop-edu/lollipop-backend/internal/session"
)

/* ---------------- In-memory fakes that satisfy session.Backend & session.Clock ---------------- */

type fakeClock struct {
	mu      sync.Mutex
	now     time.Time
	tickers []*fakeTicker
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Unix(1700000000, 0)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func (c *fakeClock) NewTicker(d time.Duration) session.Ticker {
	tk := &fakeTicker{interval: d, ch: make(chan time.Time)}
	c.mu.Lock()
	c.tickers = append(c.tickers, tk)
	c.mu.Unlock()
	return tk
}

// ticker waits for a timer goroutine to create a ticker with the given
// interval and claims it, so restarts hand out the newest loop's ticker.
func (c *fakeClock) ticker(t *testing.T, interval time.Duration) *fakeTicker {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		c.mu.Lock()
		for _, tk := range c.tickers {
			if tk.interval == interval && !tk.claimed {
				tk.claimed = true
				c.mu.Unlock()
				return tk
			}
		}
		c.mu.Unlock()
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("no ticker with interval %s was created", interval)
	return nil
}

type fakeTicker struct {
	interval time.Duration
	ch       chan time.Time
	claimed  bool
}

func (t *fakeTicker) C() <-chan time.Time { return t.ch }
func (t *fakeTicker) Stop()               {}

// tick delivers one tick and blocks until the timer loop consumes it.
func (t *fakeTicker) tick(now time.Time) { t.ch <- now }

type fakeBackend struct {
	mu        sync.Mutex
	questions []model.Question
	answers   []model.Answer
	correct   map[uuid.UUID]uuid.UUID

	submits      []session.SubmitRequest
	failNext     int // fail this many upcoming SubmitAnswer calls
	questionsErr error
	answersErr   error
	correctErr   map[uuid.UUID]error

	// onSubmit, when set, runs at the top of SubmitAnswer without the
	// lock held. Tests use it to block a call in flight.
	onSubmit func(req session.SubmitRequest, callNum int)
	calls    int32
}

// newFakeBackend builds n questions with three choices each; the second
// choice is always the correct one.
func newFakeBackend(n int) *fakeBackend {
	b := &fakeBackend{correct: map[uuid.UUID]uuid.UUID{}}
	homeworkID := uuid.New()
	for i := 0; i < n; i++ {
		q := model.Question{
			ID:           uuid.New(),
			HomeworkID:   homeworkID,
			QuestionText: fmt.Sprintf("question %d", i+1),
			OrderNum:     i + 1,
		}
		for j := 0; j < 3; j++ {
			q.Choices = append(q.Choices, model.Choice{
				ID:         uuid.New(),
				QuestionID: q.ID,
				ChoiceText: fmt.Sprintf("choice %d", j+1),
				IsCorrect:  j == 1,
			})
		}
		b.correct[q.ID] = q.Choices[1].ID
		b.questions = append(b.questions, q)
	}
	return b
}

func (b *fakeBackend) homeworkID() uuid.UUID { return b.questions[0].HomeworkID }

func (b *fakeBackend) FetchQuestions(ctx context.Context, homeworkID uuid.UUID, studentID int) ([]model.Question, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.questionsErr != nil {
		return nil, b.questionsErr
	}
	return append([]model.Question(nil), b.questions...), nil
}

func (b *fakeBackend) FetchAnswers(ctx context.Context, homeworkID uuid.UUID, studentID int) ([]model.Answer, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.answersErr != nil {
		return nil, b.answersErr
	}
	if len(b.answers) == 0 {
		return nil, session.ErrNotFound
	}
	return append([]model.Answer(nil), b.answers...), nil
}

func (b *fakeBackend) SubmitAnswer(ctx context.Context, req session.SubmitRequest) (uuid.UUID, error) {
	call := int(atomic.AddInt32(&b.calls, 1))
	if hook := b.onSubmit; hook != nil {
		hook(req, call)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.failNext > 0 {
		b.failNext--
		return uuid.Nil, fmt.Errorf("backend unavailable")
	}
	b.submits = append(b.submits, req)

	for i, a := range b.answers {
		if a.QuestionID == req.QuestionID {
			b.answers[i].SelectedChoiceID = req.SelectedChoiceID
			return b.correct[req.QuestionID], nil
		}
	}
	b.answers = append(b.answers, model.Answer{
		ID:               uuid.New(),
		QuestionID:       req.QuestionID,
		StudentID:        req.StudentID,
		SelectedChoiceID: req.SelectedChoiceID,
	})
	return b.correct[req.QuestionID], nil
}

func (b *fakeBackend) FetchCorrectChoice(ctx context.Context, questionID, homeworkID uuid.UUID) (uuid.UUID, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.correctErr[questionID]; err != nil {
		return uuid.Nil, err
	}
	return b.correct[questionID], nil
}

func (b *fakeBackend) submitCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.submits)
}

func (b *fakeBackend) submitAt(i int) session.SubmitRequest {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.submits[i]
}

func (b *fakeBackend) setFailNext(n int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failNext = n
}

func waitFor(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatal(msg)
}

func newTestController(b *fakeBackend, clk *fakeClock, cfg session.Config) *session.Controller {
	c := session.NewController(b, cfg, session.ModeAnswering, b.homeworkID(), 1, zerolog.Nop())
	c.SetClock(clk)
	return c
}

/* ---------------- Session start ---------------- */

func TestStartActivatesFirstQuestionAndRecordsMarker(t *testing.T) {
	b := newFakeBackend(3)
	c := newTestController(b, newFakeClock(), session.Config{})
	defer c.Close()

	if err := c.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}

	s := c.Snapshot()
	if s.Phase != session.PhaseActive {
		t.Fatalf("phase = %s, want ACTIVE", s.Phase)
	}
	if s.Index != 0 || s.Total != 3 || s.IsLastQuestion {
		t.Errorf("position = %d/%d last=%v, want 0/3 last=false", s.Index, s.Total, s.IsLastQuestion)
	}
	if s.Question == nil || s.Question.ID != b.questions[0].ID {
		t.Error("snapshot does not expose the first question")
	}
	if s.CorrectChoiceID != nil {
		t.Error("correct choice must not be revealed before submission")
	}

	if got := b.submitCount(); got != 1 {
		t.Fatalf("submit count = %d, want 1 started marker", got)
	}
	marker := b.submitAt(0)
	if marker.SelectedChoiceID != nil {
		t.Error("started marker must carry no choice")
	}
	if marker.QuestionID != b.questions[0].ID || marker.TotalQuestions != 3 {
		t.Errorf("marker = %+v, want first question with total 3", marker)
	}
}

func TestStartRedirectsWhenAnyAnswerHasChoice(t *testing.T) {
	b := newFakeBackend(3)
	choice := b.questions[1].Choices[0].ID
	b.answers = []model.Answer{
		{ID: uuid.New(), QuestionID: b.questions[0].ID, StudentID: 1},
		{ID: uuid.New(), QuestionID: b.questions[1].ID, StudentID: 1, SelectedChoiceID: &choice},
	}

	c := newTestController(b, newFakeClock(), session.Config{})
	if err := c.Start(context.Background()); err != session.ErrAlreadyCompleted {
		t.Fatalf("Start = %v, want ErrAlreadyCompleted", err)
	}
	if got := b.submitCount(); got != 0 {
		t.Errorf("submit count = %d, a completed homework must not be touched", got)
	}
}

func TestStartOnlyMarkerAnswersDoNotRedirect(t *testing.T) {
	b := newFakeBackend(2)
	b.answers = []model.Answer{
		{ID: uuid.New(), QuestionID: b.questions[0].ID, StudentID: 1},
	}

	c := newTestController(b, newFakeClock(), session.Config{})
	defer c.Close()
	if err := c.Start(context.Background()); err != nil {
		t.Fatalf("Start = %v, marker-only answers must not trip the guard", err)
	}
}

func TestStartFailsWithoutQuestions(t *testing.T) {
	b := newFakeBackend(1)
	b.questions = nil
	b.correct = map[uuid.UUID]uuid.UUID{}

	c := session.NewController(b, session.Config{}, session.ModeAnswering, uuid.New(), 1, zerolog.Nop())
	c.SetClock(newFakeClock())
	if err := c.Start(context.Background()); err != session.ErrNoQuestions {
		t.Fatalf("Start = %v, want ErrNoQuestions", err)
	}
}

func TestStartSurvivesMarkerFailure(t *testing.T) {
	b := newFakeBackend(2)
	b.setFailNext(1)

	c := newTestController(b, newFakeClock(), session.Config{})
	defer c.Close()
	if err := c.Start(context.Background()); err != nil {
		t.Fatalf("Start = %v, marker failure must not abort the session", err)
	}
	if s := c.Snapshot(); s.Phase != session.PhaseActive {
		t.Fatalf("phase = %s, want ACTIVE", s.Phase)
	}
}

func TestStartSurvivesAnswersFetchFailure(t *testing.T) {
	b := newFakeBackend(2)
	b.answersErr = fmt.Errorf("network unreachable")

	c := newTestController(b, newFakeClock(), session.Config{})
	defer c.Close()
	if err := c.Start(context.Background()); err != nil {
		t.Fatalf("Start = %v, a failed answer fetch means not started, not fatal", err)
	}

	s := c.Snapshot()
	if s.Phase != session.PhaseActive || s.Index != 0 {
		t.Fatalf("phase = %s index = %d, want first question ACTIVE", s.Phase, s.Index)
	}
	if got := b.submitCount(); got != 1 {
		t.Errorf("submit count = %d, want the started marker", got)
	}
}

/* ---------------- User submission ---------------- */

func TestSubmitRevealsCorrectChoice(t *testing.T) {
	b := newFakeBackend(2)
	c := newTestController(b, newFakeClock(), session.Config{})
	defer c.Close()
	if err := c.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}

	pick := b.questions[0].Choices[0].ID
	if err := c.Submit(context.Background(), &pick); err != nil {
		t.Fatalf("Submit: %v", err)
	}

	s := c.Snapshot()
	if s.Phase != session.PhaseSubmitted {
		t.Fatalf("phase = %s, want SUBMITTED", s.Phase)
	}
	want := b.correct[b.questions[0].ID]
	if s.CorrectChoiceID == nil || *s.CorrectChoiceID != want {
		t.Errorf("correct choice = %v, want %s", s.CorrectChoiceID, want)
	}

	if err := c.Submit(context.Background(), &pick); err != session.ErrNotActive {
		t.Errorf("second Submit = %v, want ErrNotActive", err)
	}
}

func TestSubmitFailureKeepsQuestionActive(t *testing.T) {
	b := newFakeBackend(2)
	c := newTestController(b, newFakeClock(), session.Config{})
	defer c.Close()
	if err := c.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}

	b.setFailNext(1)
	pick := b.questions[0].Choices[2].ID
	if err := c.Submit(context.Background(), &pick); err == nil {
		t.Fatal("Submit should surface the backend failure")
	}
	if s := c.Snapshot(); s.Phase != session.PhaseActive {
		t.Fatalf("phase = %s after failed submit, want ACTIVE", s.Phase)
	}

	// The student retries and it goes through.
	if err := c.Submit(context.Background(), &pick); err != nil {
		t.Fatalf("retry Submit: %v", err)
	}
	if s := c.Snapshot(); s.Phase != session.PhaseSubmitted {
		t.Fatalf("phase = %s after retry, want SUBMITTED", s.Phase)
	}
}

func TestSubmitRejectsWhileInFlight(t *testing.T) {
	b := newFakeBackend(2)
	gate := make(chan struct{})
	entered := make(chan struct{})
	b.onSubmit = func(req session.SubmitRequest, callNum int) {
		if callNum == 2 { // call 1 is the started marker
			close(entered)
			<-gate
		}
	}

	c := newTestController(b, newFakeClock(), session.Config{})
	defer c.Close()
	if err := c.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}

	pick := b.questions[0].Choices[1].ID
	done := make(chan error, 1)
	go func() { done <- c.Submit(context.Background(), &pick) }()
	<-entered

	if err := c.Submit(context.Background(), &pick); err != session.ErrInFlight {
		t.Errorf("concurrent Submit = %v, want ErrInFlight", err)
	}

	close(gate)
	if err := <-done; err != nil {
		t.Fatalf("first Submit: %v", err)
	}
	if s := c.Snapshot(); s.Phase != session.PhaseSubmitted {
		t.Fatalf("phase = %s, want SUBMITTED", s.Phase)
	}
	if got := b.submitCount(); got != 2 {
		t.Errorf("submit count = %d, want marker + one answer", got)
	}
}

/* ---------------- Timer-driven submission ---------------- */

func TestCountdownExpirySubmitsEmptyAnswer(t *testing.T) {
	b := newFakeBackend(2)
	clk := newFakeClock()
	c := newTestController(b, clk, session.Config{QuestionTimer: 2 * time.Second})
	defer c.Close()
	if err := c.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}

	countdownTicker := clk.ticker(t, time.Second)
	countdownTicker.tick(clk.Now())
	countdownTicker.tick(clk.Now())

	waitFor(t, func() bool { return c.Snapshot().Phase == session.PhaseSubmitted },
		"countdown expiry did not move the question to SUBMITTED")
	waitFor(t, func() bool { return b.submitCount() == 2 },
		"countdown expiry did not submit an answer")

	auto := b.submitAt(1)
	if auto.SelectedChoiceID != nil {
		t.Error("timer submission must carry no choice")
	}
	waitFor(t, func() bool {
		s := c.Snapshot()
		return s.CorrectChoiceID != nil && *s.CorrectChoiceID == b.correct[b.questions[0].ID]
	}, "correct choice from the auto-submit was not applied")

	// The user can still only advance, not re-answer.
	pick := b.questions[0].Choices[0].ID
	if err := c.Submit(context.Background(), &pick); err != session.ErrNotActive {
		t.Errorf("Submit after expiry = %v, want ErrNotActive", err)
	}
}

func TestAutoSubmitFailureIsNotRetried(t *testing.T) {
	b := newFakeBackend(2)
	clk := newFakeClock()
	c := newTestController(b, clk, session.Config{QuestionTimer: time.Second})
	defer c.Close()
	if err := c.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}

	b.setFailNext(1)
	clk.ticker(t, time.Second).tick(clk.Now())

	waitFor(t, func() bool { return c.Snapshot().Phase == session.PhaseSubmitted },
		"expiry must transition to SUBMITTED even when the post fails")
	waitFor(t, func() bool { return atomic.LoadInt32(&b.calls) == 2 },
		"auto-submit was never attempted")
	time.Sleep(20 * time.Millisecond)

	if got := b.submitCount(); got != 1 {
		t.Errorf("submit count = %d, failed auto-submit must not be retried", got)
	}
	if s := c.Snapshot(); s.CorrectChoiceID != nil {
		t.Error("no correct choice should be shown when the auto-submit failed")
	}

	// Advancing still works.
	if err := c.Next(context.Background()); err != nil {
		t.Fatalf("Next: %v", err)
	}
}

func TestStaleAutoSubmitResultIsDiscarded(t *testing.T) {
	b := newFakeBackend(2)
	gate := make(chan struct{})
	entered := make(chan struct{})
	b.onSubmit = func(req session.SubmitRequest, callNum int) {
		if callNum == 2 {
			close(entered)
			<-gate
		}
	}

	clk := newFakeClock()
	c := newTestController(b, clk, session.Config{QuestionTimer: time.Second})
	defer c.Close()
	if err := c.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}

	clk.ticker(t, time.Second).tick(clk.Now())
	<-entered

	waitFor(t, func() bool { return c.Snapshot().Phase == session.PhaseSubmitted },
		"expiry did not reach SUBMITTED")
	if err := c.Next(context.Background()); err != nil {
		t.Fatalf("Next: %v", err)
	}

	// The in-flight result now belongs to the previous question.
	close(gate)
	waitFor(t, func() bool { return b.submitCount() == 2 }, "auto-submit never completed")
	time.Sleep(20 * time.Millisecond)

	s := c.Snapshot()
	if s.Index != 1 || s.Phase != session.PhaseActive {
		t.Fatalf("position = %d phase = %s, want question 2 ACTIVE", s.Index, s.Phase)
	}
	if s.CorrectChoiceID != nil {
		t.Error("stale result leaked into the next question")
	}
}

func TestCountdownExpiryDuringInFlightSubmitIsIgnored(t *testing.T) {
	b := newFakeBackend(2)
	gate := make(chan struct{})
	entered := make(chan struct{})
	b.onSubmit = func(req session.SubmitRequest, callNum int) {
		if callNum == 2 { // call 1 is the started marker
			close(entered)
			<-gate
		}
	}

	clk := newFakeClock()
	c := newTestController(b, clk, session.Config{QuestionTimer: time.Second})
	defer c.Close()
	if err := c.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}

	pick := b.questions[0].Choices[0].ID
	done := make(chan error, 1)
	go func() { done <- c.Submit(context.Background(), &pick) }()
	<-entered

	// The countdown expires while the user's answer is still in flight.
	clk.ticker(t, time.Second).tick(clk.Now())
	time.Sleep(20 * time.Millisecond)

	if s := c.Snapshot(); s.Phase != session.PhaseActive {
		t.Fatalf("phase = %s, expiry must not preempt an in-flight user submit", s.Phase)
	}

	close(gate)
	if err := <-done; err != nil {
		t.Fatalf("Submit: %v", err)
	}

	s := c.Snapshot()
	if s.Phase != session.PhaseSubmitted {
		t.Fatalf("phase = %s, want SUBMITTED", s.Phase)
	}
	if s.CorrectChoiceID == nil || *s.CorrectChoiceID != b.correct[b.questions[0].ID] {
		t.Error("user submission did not reveal the correct choice")
	}

	time.Sleep(20 * time.Millisecond)
	if got := b.submitCount(); got != 2 {
		t.Fatalf("submit count = %d, want marker + exactly one answer", got)
	}
	last := b.submitAt(1)
	if last.SelectedChoiceID == nil || *last.SelectedChoiceID != pick {
		t.Error("the recorded answer must be the user's choice, not a timer null")
	}
	if calls := atomic.LoadInt32(&b.calls); calls != 2 {
		t.Errorf("backend calls = %d, the expiry must not post anything", calls)
	}
}

func TestSnapshotEngagementProgressFreezesWhileSubmitted(t *testing.T) {
	b := newFakeBackend(2)
	clk := newFakeClock()
	c := newTestController(b, clk, session.Config{EngagementTimer: 10 * time.Second})
	defer c.Close()
	if err := c.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}

	clk.Advance(4 * time.Second)
	pick := b.questions[0].Choices[1].ID
	if err := c.Submit(context.Background(), &pick); err != nil {
		t.Fatalf("Submit: %v", err)
	}

	// Submission pauses the window; the reported progress must hold the
	// frozen value no matter how much wall-clock time passes.
	clk.Advance(5 * time.Minute)
	if got := c.Snapshot().EngagementProgress; got != 0.4 {
		t.Fatalf("EngagementProgress = %v, want frozen 0.4", got)
	}

	// Acknowledging resets the window; the snapshot reports the reset, so
	// transports relaying it never have to invent a value.
	c.Heartbeat()
	if got := c.Snapshot().EngagementProgress; got != 0 {
		t.Errorf("EngagementProgress after heartbeat = %v, want 0", got)
	}
}

/* ---------------- Advancing and finishing ---------------- */

func TestNextRequiresSubmission(t *testing.T) {
	b := newFakeBackend(2)
	c := newTestController(b, newFakeClock(), session.Config{})
	defer c.Close()
	if err := c.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := c.Next(context.Background()); err != session.ErrNotSubmitted {
		t.Fatalf("Next on ACTIVE = %v, want ErrNotSubmitted", err)
	}
}

func TestFinishFiresHookOnce(t *testing.T) {
	b := newFakeBackend(1)
	c := newTestController(b, newFakeClock(), session.Config{})
	defer c.Close()

	var fired int32
	c.OnFinished(func() { atomic.AddInt32(&fired, 1) })

	if err := c.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if c.EscapeAllowed() {
		t.Error("leaving must be blocked while answering")
	}

	pick := b.questions[0].Choices[1].ID
	if err := c.Submit(context.Background(), &pick); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if err := c.Next(context.Background()); err != nil {
		t.Fatalf("Next: %v", err)
	}

	s := c.Snapshot()
	if s.Phase != session.PhaseFinished {
		t.Fatalf("phase = %s, want FINISHED", s.Phase)
	}
	if !c.EscapeAllowed() {
		t.Error("leaving must be allowed once finished")
	}
	if got := atomic.LoadInt32(&fired); got != 1 {
		t.Errorf("finish hook fired %d times, want 1", got)
	}
	if err := c.Next(context.Background()); err != session.ErrNotSubmitted {
		t.Errorf("Next after finish = %v, want ErrNotSubmitted", err)
	}
}

/* ---------------- Review mode ---------------- */

func TestReviewRejectsMutations(t *testing.T) {
	b := newFakeBackend(1)
	c := session.NewController(b, session.Config{}, session.ModeReview, b.homeworkID(), 1, zerolog.Nop())

	if err := c.Start(context.Background()); err != session.ErrReviewMode {
		t.Errorf("Start = %v, want ErrReviewMode", err)
	}
	pick := b.questions[0].Choices[0].ID
	if err := c.Submit(context.Background(), &pick); err != session.ErrReviewMode {
		t.Errorf("Submit = %v, want ErrReviewMode", err)
	}
	if err := c.Next(context.Background()); err != session.ErrReviewMode {
		t.Errorf("Next = %v, want ErrReviewMode", err)
	}
	if !c.EscapeAllowed() {
		t.Error("review sessions never block navigation")
	}
}

func TestLoadReviewReconstructsSession(t *testing.T) {
	b := newFakeBackend(3)
	picked := b.questions[0].Choices[2].ID
	b.answers = []model.Answer{
		{ID: uuid.New(), QuestionID: b.questions[0].ID, StudentID: 1, SelectedChoiceID: &picked},
		{ID: uuid.New(), QuestionID: b.questions[1].ID, StudentID: 1}, // timer-forced empty answer
	}
	b.correctErr = map[uuid.UUID]error{
		b.questions[2].ID: fmt.Errorf("key unavailable"),
	}

	c := session.NewController(b, session.Config{}, session.ModeReview, b.homeworkID(), 1, zerolog.Nop())
	if err := c.LoadReview(context.Background()); err != nil {
		t.Fatalf("LoadReview: %v", err)
	}

	items := c.ReviewItems()
	if len(items) != 3 {
		t.Fatalf("review items = %d, want 3", len(items))
	}
	if items[0].SelectedChoiceID == nil || *items[0].SelectedChoiceID != picked {
		t.Error("question 1 selection not reconstructed")
	}
	if items[0].CorrectChoiceID == nil || *items[0].CorrectChoiceID != b.correct[b.questions[0].ID] {
		t.Error("question 1 correct choice not reconstructed")
	}
	if items[1].SelectedChoiceID != nil {
		t.Error("empty answer must stay empty in review")
	}
	if items[2].CorrectChoiceID != nil {
		t.Error("unresolvable correct choice must be omitted, not invented")
	}

	if got := b.submitCount(); got != 0 {
		t.Errorf("submit count = %d, review must never write", got)
	}
}

func TestLoadReviewSurvivesAnswersFetchFailure(t *testing.T) {
	b := newFakeBackend(2)
	b.answersErr = fmt.Errorf("network unreachable")

	c := session.NewController(b, session.Config{}, session.ModeReview, b.homeworkID(), 1, zerolog.Nop())
	if err := c.LoadReview(context.Background()); err != nil {
		t.Fatalf("LoadReview = %v, a failed answer fetch degrades to empty selections", err)
	}

	items := c.ReviewItems()
	if len(items) != 2 {
		t.Fatalf("review items = %d, want 2", len(items))
	}
	for i, item := range items {
		if item.SelectedChoiceID != nil {
			t.Errorf("question %d selection = %v, want none", i+1, item.SelectedChoiceID)
		}
		if item.CorrectChoiceID == nil {
			t.Errorf("question %d answer key missing", i+1)
		}
	}
}
