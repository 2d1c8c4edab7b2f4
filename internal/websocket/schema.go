package websocket

import (
	"github.com/google/uuid"

	"github.com/lollipop-edu/lollipop-backend/internal/model"
)

// ─── Actions (Client → Server) ──────────────────────────────────────

type Action string

const (
	ActionSelect    Action = "select"
	ActionSubmit    Action = "submit"
	ActionNext      Action = "next"
	ActionHeartbeat Action = "heartbeat"
	ActionBack      Action = "back"
)

// ClientMessage is the single inbound message shape. SelectedChoiceID is
// only meaningful for select and submit; an empty value on submit means
// "submit whatever was selected, possibly nothing".
type ClientMessage struct {
	Action           Action `json:"action"`
	SelectedChoiceID string `json:"selected_choice_id,omitempty"`
}

// ─── Events (Server → Client) ───────────────────────────────────────

type Event string

const (
	EventQuestion  Event = "question"
	EventTick      Event = "tick"
	EventFrame     Event = "frame"
	EventSubmitted Event = "submitted"
	EventFinished  Event = "finished"
	EventRejected  Event = "rejected"
	EventError     Event = "error"
)

// QuestionEvent presents the currently active question. It is sent when a
// question becomes active and again whenever blocked navigation forces the
// client back to it.
type QuestionEvent struct {
	Event              Event           `json:"event"`
	Index              int             `json:"index"`
	Total              int             `json:"total"`
	IsLastQuestion     bool            `json:"is_last_question"`
	Question           *model.Question `json:"question"`
	CountdownRemaining int             `json:"countdown_remaining"`
}

// TickEvent carries the per-question countdown, sent once per second.
type TickEvent struct {
	Event     Event `json:"event"`
	Remaining int   `json:"remaining"`
}

// FrameEvent carries the engagement window progress in [0, 1].
type FrameEvent struct {
	Event    Event   `json:"event"`
	Progress float64 `json:"progress"`
}

// SubmittedEvent reveals the outcome of the current question.
// CorrectChoiceID is null when the submission has not landed (timer-forced
// submissions resolve it asynchronously, or not at all on failure).
type SubmittedEvent struct {
	Event           Event      `json:"event"`
	CorrectChoiceID *uuid.UUID `json:"correct_choice_id"`
	IsLastQuestion  bool       `json:"is_last_question"`
}

// FinishedEvent marks the irreversible end of the session.
type FinishedEvent struct {
	Event Event `json:"event"`
}

// RejectedEvent reports a refused action with the reason code.
type RejectedEvent struct {
	Event   Event  `json:"event"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ErrorResponse struct {
	Event Event  `json:"event"`
	Error string `json:"error"`
}
