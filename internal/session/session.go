package session

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/lollipop-edu/lollipop-backend/internal/model"
)

// Mode selects how a session behaves: answering drives the student through
// questions under timers; review reconstructs a completed session read-only.
type Mode string

const (
	ModeAnswering Mode = "answering"
	ModeReview    Mode = "review"
)

// Phase is the controller's position in the answering state machine.
type Phase string

const (
	PhaseLoading   Phase = "LOADING"
	PhaseActive    Phase = "ACTIVE"
	PhaseSubmitted Phase = "SUBMITTED"
	PhaseFinished  Phase = "FINISHED"
)

// Trigger identifies what caused a submission.
type Trigger string

const (
	TriggerUser       Trigger = "user"
	TriggerCountdown  Trigger = "countdown"
	TriggerEngagement Trigger = "engagement"
)

// Sentinel errors returned by the controller and expected from Backend
// implementations.
var (
	// ErrNotFound signals "no data yet" from a Backend call. It is benign
	// for answers (treated as not started) and fatal for questions.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyCompleted is returned by Start when a stored answer with a
	// non-nil choice exists: the homework was answered and must not be
	// retaken. Callers redirect away without exposing any question.
	ErrAlreadyCompleted = errors.New("homework already completed")

	ErrNoQuestions  = errors.New("homework has no questions")
	ErrNotActive    = errors.New("question is not active")
	ErrNotSubmitted = errors.New("question has not been submitted yet")
	ErrInFlight     = errors.New("a submission is already in flight")
	ErrReviewMode   = errors.New("session is read-only in review mode")
)

// SubmitRequest carries one answer submission to the backend.
// SelectedChoiceID nil means "no choice": the started placeholder or a
// timer-forced empty answer.
type SubmitRequest struct {
	QuestionID       uuid.UUID
	HomeworkID       uuid.UUID
	StudentID        int
	SelectedChoiceID *uuid.UUID
	TotalQuestions   int
}

// Backend is the set of remote collaborators the controller drives. The
// server-side implementation lives in the service package; tests substitute
// in-memory fakes.
type Backend interface {
	// FetchQuestions returns the ordered question list for one homework.
	// Returns ErrNotFound if no questions exist yet.
	FetchQuestions(ctx context.Context, homeworkID uuid.UUID, studentID int) ([]model.Question, error)

	// FetchAnswers returns all stored answers for one homework+student.
	// Returns ErrNotFound if none exist (treated as "not started").
	FetchAnswers(ctx context.Context, homeworkID uuid.UUID, studentID int) ([]model.Answer, error)

	// SubmitAnswer records an answer (idempotent per question+student) and
	// returns the authoritative correct-choice id for the question.
	SubmitAnswer(ctx context.Context, req SubmitRequest) (uuid.UUID, error)

	// FetchCorrectChoice resolves a question's correct choice. Review mode only.
	FetchCorrectChoice(ctx context.Context, questionID, homeworkID uuid.UUID) (uuid.UUID, error)
}

// Config holds the two timer durations. It is constructed explicitly (from
// app config) and passed into the controller; there is no process-wide
// default store.
type Config struct {
	QuestionTimer   time.Duration
	EngagementTimer time.Duration
}

// DefaultConfig returns the fallback durations used when configuration is
// unavailable.
func DefaultConfig() Config {
	return Config{
		QuestionTimer:   60 * time.Second,
		EngagementTimer: 30 * time.Second,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.QuestionTimer <= 0 {
		c.QuestionTimer = d.QuestionTimer
	}
	if c.EngagementTimer <= 0 {
		c.EngagementTimer = d.EngagementTimer
	}
	return c
}
