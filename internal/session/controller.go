package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/lollipop-edu/lollipop-backend/internal/model"
	"github.com/rs/zerolog"
)

// Controller sequences one student through one homework's questions. It
// owns the answering state machine (Loading → Active → Submitted → … →
// Finished), mediates between the two timers and the backend, and enforces
// at-most-one real submission per question.
//
// All timer callbacks and user actions funnel into the same guarded
// transitions, so a race between a click and a timer expiry can only ever
// record a single submission.
type Controller struct {
	mu      sync.Mutex
	backend Backend
	cfg     Config
	clock   Clock
	log     zerolog.Logger

	mode       Mode
	homeworkID uuid.UUID
	studentID  int

	questions []model.Question
	idx       int
	phase     Phase

	// epoch increments on every advance; in-flight submission results that
	// arrive after the question changed are discarded.
	epoch        uint64
	submitting   bool
	correctID    *uuid.UUID
	finishedOnce bool
	onFinished   func()
	onSubmitted  func(Trigger)

	countdown  *Countdown
	engagement *Engagement

	// review mode state, keyed by question id
	reviewSelected map[uuid.UUID]*uuid.UUID
	reviewCorrect  map[uuid.UUID]uuid.UUID
}

// NewController creates a controller in the given mode. Timers only run in
// answering mode.
func NewController(backend Backend, cfg Config, mode Mode, homeworkID uuid.UUID, studentID int, log zerolog.Logger) *Controller {
	return &Controller{
		backend:    backend,
		cfg:        cfg.withDefaults(),
		clock:      RealClock{},
		log:        log.With().Str("component", "session_controller").Str("homework_id", homeworkID.String()).Logger(),
		mode:       mode,
		homeworkID: homeworkID,
		studentID:  studentID,
		phase:      PhaseLoading,
	}
}

// SetClock replaces the wall clock. Must be called before Start.
func (c *Controller) SetClock(clk Clock) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.clock = clk
}

// OnFinished registers a hook invoked exactly once when the session reaches
// Finished. Used for the one-time navigation away from the quiz screen.
func (c *Controller) OnFinished(fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onFinished = fn
}

// OnSubmitted registers a hook invoked after every Active → Submitted
// transition with the trigger that caused it.
func (c *Controller) OnSubmitted(fn func(Trigger)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onSubmitted = fn
}

// Start loads the session in answering mode. It first runs the resume
// guard: if any stored answer carries a non-nil choice the homework was
// already completed and ErrAlreadyCompleted is returned before any question
// is exposed. On success the first question is Active, the started
// placeholder has been recorded, and both timers are running.
func (c *Controller) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.mode != ModeAnswering {
		c.mu.Unlock()
		return ErrReviewMode
	}
	if c.phase != PhaseLoading {
		c.mu.Unlock()
		return fmt.Errorf("session already started (phase %s)", c.phase)
	}
	c.mu.Unlock()

	// Resume guard. A missing answer list is benign ("not started"), and
	// so is a failed fetch: the worst case is letting a completed session
	// back in, which the submit upsert path tolerates. Only an answer list
	// we actually obtained can block entry.
	answers, err := c.backend.FetchAnswers(ctx, c.homeworkID, c.studentID)
	if err != nil && !errors.Is(err, ErrNotFound) {
		c.log.Warn().Err(err).Msg("Failed to fetch prior answers, treating as not started")
		answers = nil
	}
	for _, a := range answers {
		if a.SelectedChoiceID != nil {
			return ErrAlreadyCompleted
		}
	}

	// Question fetch failures are fatal to the session.
	questions, err := c.backend.FetchQuestions(ctx, c.homeworkID, c.studentID)
	if err != nil {
		return fmt.Errorf("fetch questions: %w", err)
	}
	if len(questions) == 0 {
		return ErrNoQuestions
	}

	c.mu.Lock()
	c.questions = questions
	c.idx = 0
	c.phase = PhaseActive
	c.countdown = NewCountdown(c.cfg.QuestionTimer, func() { c.autoSubmit(TriggerCountdown) }, c.clock)
	c.engagement = NewEngagement(c.cfg.EngagementTimer, func() { c.autoSubmit(TriggerEngagement) }, c.clock)
	marker := SubmitRequest{
		QuestionID:     questions[0].ID,
		HomeworkID:     c.homeworkID,
		StudentID:      c.studentID,
		TotalQuestions: len(questions),
	}
	c.mu.Unlock()

	// Record "the student has reached question 1" so the resume guard can
	// see an in-progress or abandoned session. Failure is logged, not
	// fatal: the session itself can proceed.
	if _, err := c.backend.SubmitAnswer(ctx, marker); err != nil {
		c.log.Warn().Err(err).Msg("Failed to record started marker")
	}

	c.countdown.Start()
	c.engagement.Start()
	return nil
}

// Submit records the student's explicit answer for the current question.
// choiceID nil submits "no choice". While the call is in flight further
// submit attempts are rejected with ErrInFlight; a failure leaves the
// question Active so the student can retry.
func (c *Controller) Submit(ctx context.Context, choiceID *uuid.UUID) error {
	c.mu.Lock()
	if c.mode != ModeAnswering {
		c.mu.Unlock()
		return ErrReviewMode
	}
	if c.phase != PhaseActive {
		c.mu.Unlock()
		return ErrNotActive
	}
	if c.submitting {
		c.mu.Unlock()
		return ErrInFlight
	}
	c.submitting = true
	epoch := c.epoch
	req := SubmitRequest{
		QuestionID:       c.questions[c.idx].ID,
		HomeworkID:       c.homeworkID,
		StudentID:        c.studentID,
		SelectedChoiceID: choiceID,
		TotalQuestions:   len(c.questions),
	}
	c.mu.Unlock()

	// The backend call runs without the lock so timers and snapshots stay
	// responsive while the submission is in flight.
	correctID, err := c.backend.SubmitAnswer(ctx, req)

	c.mu.Lock()
	c.submitting = false

	if epoch != c.epoch {
		// The question changed while the call was in flight; the result no
		// longer applies. The submission itself was allowed to complete.
		c.mu.Unlock()
		return nil
	}
	if err != nil {
		c.mu.Unlock()
		return fmt.Errorf("submit answer: %w", err)
	}
	var hook func(Trigger)
	if c.phase == PhaseActive {
		c.markSubmittedLocked(&correctID)
		hook = c.onSubmitted
	}
	c.mu.Unlock()

	if hook != nil {
		hook(TriggerUser)
	}
	return nil
}

// autoSubmit is the shared expiry path for both timers. The transition to
// Submitted happens immediately; the empty answer is posted fire-and-forget
// since no UI affordance exists to retry a timer-driven action.
func (c *Controller) autoSubmit(trigger Trigger) {
	c.mu.Lock()
	if c.mode != ModeAnswering || c.phase != PhaseActive || c.submitting {
		c.mu.Unlock()
		return
	}
	epoch := c.epoch
	req := SubmitRequest{
		QuestionID:     c.questions[c.idx].ID,
		HomeworkID:     c.homeworkID,
		StudentID:      c.studentID,
		TotalQuestions: len(c.questions),
	}
	c.markSubmittedLocked(nil)
	hook := c.onSubmitted
	c.mu.Unlock()

	if hook != nil {
		hook(trigger)
	}

	c.log.Info().
		Str("trigger", string(trigger)).
		Str("question_id", req.QuestionID.String()).
		Msg("Timer expired, submitting empty answer")

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		correctID, err := c.backend.SubmitAnswer(ctx, req)
		if err != nil {
			c.log.Error().Err(err).
				Str("trigger", string(trigger)).
				Str("question_id", req.QuestionID.String()).
				Msg("Auto-submit failed")
			return
		}

		c.mu.Lock()
		if epoch == c.epoch && c.phase == PhaseSubmitted {
			c.correctID = &correctID
		}
		c.mu.Unlock()
	}()
}

// markSubmittedLocked performs the Active → Submitted transition: the
// revealed correct choice is stored, the countdown dies, and the engagement
// window freezes until the student advances.
func (c *Controller) markSubmittedLocked(correctID *uuid.UUID) {
	c.phase = PhaseSubmitted
	c.correctID = correctID
	if c.countdown != nil {
		c.countdown.Stop()
	}
	if c.engagement != nil {
		c.engagement.Pause()
	}
}

// Next advances past a submitted question: to the following question with
// both timers restarted, or to Finished after the last one. The Finished
// transition is irreversible and fires the OnFinished hook exactly once.
func (c *Controller) Next(ctx context.Context) error {
	c.mu.Lock()
	if c.mode != ModeAnswering {
		c.mu.Unlock()
		return ErrReviewMode
	}
	if c.phase != PhaseSubmitted {
		c.mu.Unlock()
		return ErrNotSubmitted
	}

	c.epoch++

	if c.idx == len(c.questions)-1 {
		c.phase = PhaseFinished
		if c.countdown != nil {
			c.countdown.Stop()
		}
		if c.engagement != nil {
			c.engagement.Stop()
		}
		var hook func()
		if !c.finishedOnce {
			c.finishedOnce = true
			hook = c.onFinished
		}
		c.mu.Unlock()

		c.log.Info().Int("questions", len(c.questions)).Msg("Session finished")
		if hook != nil {
			hook()
		}
		return nil
	}

	c.idx++
	c.phase = PhaseActive
	c.correctID = nil
	c.mu.Unlock()

	c.countdown.Start()
	c.engagement.Touch()
	c.engagement.Resume()
	return nil
}

// EscapeAllowed reports whether leaving the quiz screen is currently
// permitted. The navigation guard in the transport layer re-asserts the
// current location while this is false.
func (c *Controller) EscapeAllowed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mode == ModeReview || c.phase == PhaseFinished
}

// Heartbeat acknowledges the engagement check (the "PUSH" control).
func (c *Controller) Heartbeat() {
	c.mu.Lock()
	eng := c.engagement
	c.mu.Unlock()
	if eng != nil {
		eng.Touch()
	}
}

// Close tears the session down, cancelling both timers. Safe to call more
// than once; a stale timer can never fire into a new session's state.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.countdown != nil {
		c.countdown.Stop()
	}
	if c.engagement != nil {
		c.engagement.Stop()
	}
}

// Snapshot is the transport-facing view of the controller state.
type Snapshot struct {
	Mode               Mode            `json:"mode"`
	Phase              Phase           `json:"phase"`
	Index              int             `json:"index"`
	Total              int             `json:"total"`
	IsLastQuestion     bool            `json:"is_last_question"`
	Question           *model.Question `json:"question,omitempty"`
	CountdownRemaining int             `json:"countdown_remaining"`
	EngagementProgress float64         `json:"engagement_progress"`
	CorrectChoiceID    *uuid.UUID      `json:"correct_choice_id,omitempty"`
}

// Snapshot returns the current state for rendering. In answering mode only
// the current question is exposed, never the whole list.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := Snapshot{
		Mode:  c.mode,
		Phase: c.phase,
		Index: c.idx,
		Total: len(c.questions),
	}
	if len(c.questions) > 0 {
		s.IsLastQuestion = c.idx == len(c.questions)-1
	}
	if c.mode == ModeAnswering && (c.phase == PhaseActive || c.phase == PhaseSubmitted) {
		q := c.questions[c.idx]
		s.Question = &q
		s.CorrectChoiceID = c.correctID
	}
	if c.countdown != nil {
		s.CountdownRemaining = c.countdown.Remaining()
	}
	if c.engagement != nil {
		s.EngagementProgress = c.engagement.Progress()
	}
	return s
}
