package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/lollipop-edu/lollipop-backend/internal/config"
	"github.com/lollipop-edu/lollipop-backend/internal/metrics"
	"github.com/lollipop-edu/lollipop-backend/internal/middleware"
	"github.com/lollipop-edu/lollipop-backend/internal/response"
	"github.com/lollipop-edu/lollipop-backend/internal/service"
	"github.com/lollipop-edu/lollipop-backend/internal/session"
	ws "github.com/lollipop-edu/lollipop-backend/internal/websocket"
)

// pushInterval is how often the push loop samples the controller. Tick and
// frame events only go out when their value changed.
const pushInterval = 200 * time.Millisecond

// buildUpgrader creates a WebSocket upgrader with origin validation.
// An empty allowedOrigins slice permits all origins (development mode).
func buildUpgrader(allowedOrigins []string) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			if len(allowedOrigins) == 0 {
				return true
			}
			origin := r.Header.Get("Origin")
			for _, allowed := range allowedOrigins {
				if strings.EqualFold(allowed, origin) {
					return true
				}
			}
			return false
		},
	}
}

// WSHandler runs live answering sessions over WebSocket. The timers are
// authoritative on the server: the client renders what it is told and sends
// intents, never state.
type WSHandler struct {
	cfg         *config.Config
	quizService *service.QuizService
	log         zerolog.Logger
	upgrader    websocket.Upgrader
}

// NewWSHandler creates a new WSHandler.
func NewWSHandler(cfg *config.Config, quizService *service.QuizService, log zerolog.Logger) *WSHandler {
	return &WSHandler{
		cfg:         cfg,
		quizService: quizService,
		log:         log.With().Str("component", "ws_handler").Logger(),
		upgrader:    buildUpgrader(cfg.AllowedOrigins),
	}
}

// QuizStream godoc
// WS /ws/v1/student/homeworks/:homework_id/session
// Upgrades to WebSocket and drives one answering session to completion.
func (h *WSHandler) QuizStream(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	homeworkID, err := uuid.Parse(c.Param("homework_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid homework ID"})
		return
	}

	rawConn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	conn := ws.NewConn(rawConn)
	defer conn.Close()

	wsLog := h.log.With().
		Int("student_id", claims.UserID).
		Str("homework_id", homeworkID.String()).
		Logger()

	ctrl := session.NewController(
		h.quizService,
		session.Config{QuestionTimer: h.cfg.QuestionTimer, EngagementTimer: h.cfg.EngagementTimer},
		session.ModeAnswering,
		homeworkID,
		claims.UserID,
		wsLog,
	)
	defer ctrl.Close()

	ctrl.OnFinished(func() {
		metrics.SessionsFinished.Inc()
		conn.WriteTyped(ws.FinishedEvent{Event: ws.EventFinished})
	})
	ctrl.OnSubmitted(func(trigger session.Trigger) {
		metrics.SubmissionsTotal.WithLabelValues(string(trigger)).Inc()
	})

	if err := ctrl.Start(c.Request.Context()); err != nil {
		h.writeStartFailure(conn, err)
		return
	}
	wsLog.Info().Msg("Session started")

	pushCtx, stopPush := context.WithCancel(context.Background())
	defer stopPush()
	go h.pushLoop(pushCtx, conn, ctrl)

	h.readLoop(conn, wsLog, ctrl)
}

func (h *WSHandler) writeStartFailure(conn *ws.Conn, err error) {
	switch {
	case errors.Is(err, session.ErrAlreadyCompleted):
		conn.WriteTyped(ws.RejectedEvent{
			Event:   ws.EventRejected,
			Code:    string(response.ErrHomeworkCompleted),
			Message: "homework already answered, open it in review mode",
		})
	case errors.Is(err, session.ErrNoQuestions):
		conn.WriteError("homework has no questions")
	default:
		conn.WriteError("failed to start session")
	}
}

// readLoop consumes client intents until the connection dies.
func (h *WSHandler) readLoop(conn *ws.Conn, wsLog zerolog.Logger, ctrl *session.Controller) {
	// The choice the client highlighted but has not yet committed.
	var pending *uuid.UUID

	for {
		var msg ws.ClientMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				wsLog.Warn().Err(err).Msg("Unexpected close")
			} else {
				wsLog.Debug().Msg("Connection closed")
			}
			return
		}

		switch msg.Action {
		case ws.ActionSelect:
			pending = parseChoice(conn, msg.SelectedChoiceID)

		case ws.ActionSubmit:
			choice := pending
			if msg.SelectedChoiceID != "" {
				choice = parseChoice(conn, msg.SelectedChoiceID)
			}
			h.handleSubmit(conn, wsLog, ctrl, choice)
			pending = nil

		case ws.ActionNext:
			h.handleNext(conn, ctrl)
			pending = nil

		case ws.ActionHeartbeat:
			ctrl.Heartbeat()
			conn.WriteTyped(ws.FrameEvent{Event: ws.EventFrame, Progress: ctrl.Snapshot().EngagementProgress})

		case ws.ActionBack:
			h.handleBack(conn, wsLog, ctrl)

		default:
			wsLog.Warn().Str("action", string(msg.Action)).Msg("Unknown action")
			conn.WriteError("unknown action: " + string(msg.Action))
		}
	}
}

func (h *WSHandler) handleSubmit(conn *ws.Conn, wsLog zerolog.Logger, ctrl *session.Controller, choice *uuid.UUID) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	err := ctrl.Submit(ctx, choice)
	switch {
	case err == nil:
		// The push loop announces the submitted state.
	case errors.Is(err, session.ErrNotActive):
		conn.WriteTyped(ws.RejectedEvent{
			Event:   ws.EventRejected,
			Code:    string(response.ErrQuestionNotActive),
			Message: "question already submitted",
		})
	case errors.Is(err, session.ErrInFlight):
		conn.WriteTyped(ws.RejectedEvent{
			Event:   ws.EventRejected,
			Code:    string(response.ErrSubmissionInFlight),
			Message: "previous submission still processing",
		})
	default:
		// The question stays active; the client may retry.
		wsLog.Error().Err(err).Msg("Submit failed")
		conn.WriteError("submit failed, try again")
	}
}

func (h *WSHandler) handleNext(conn *ws.Conn, ctrl *session.Controller) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := ctrl.Next(ctx); err != nil {
		conn.WriteTyped(ws.RejectedEvent{
			Event:   ws.EventRejected,
			Code:    string(response.ErrQuestionNotActive),
			Message: "submit the current question first",
		})
		return
	}

	snap := ctrl.Snapshot()
	if snap.Phase == session.PhaseActive {
		conn.WriteTyped(questionEvent(snap))
	}
}

// handleBack enforces the navigation guard: while answering, a back intent
// is refused and the current state is re-asserted so the client lands where
// it already was.
func (h *WSHandler) handleBack(conn *ws.Conn, wsLog zerolog.Logger, ctrl *session.Controller) {
	if ctrl.EscapeAllowed() {
		wsLog.Info().Msg("Session left")
		return
	}

	metrics.NavigationBlocked.Inc()
	conn.WriteTyped(ws.RejectedEvent{
		Event:   ws.EventRejected,
		Code:    string(response.ErrNavigationForbidden),
		Message: "leaving is blocked until the session finishes",
	})
	snap := ctrl.Snapshot()
	if snap.Question != nil {
		conn.WriteTyped(questionEvent(snap))
	}
}

// pushLoop streams controller state: question activations, countdown ticks,
// engagement frames, and submitted announcements. Announcing submissions
// here rather than in the read loop gives timer-forced and user submissions
// the same event flow, including the late-arriving correct choice of a
// timer-forced submission.
func (h *WSHandler) pushLoop(ctx context.Context, conn *ws.Conn, ctrl *session.Controller) {
	ticker := time.NewTicker(pushInterval)
	defer ticker.Stop()

	lastPhase := session.PhaseLoading
	lastIndex := -1
	lastRemaining := -1
	var lastCorrect *uuid.UUID

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		snap := ctrl.Snapshot()
		if snap.Phase == session.PhaseFinished {
			return
		}

		if snap.Phase == session.PhaseActive && snap.Index != lastIndex {
			lastIndex = snap.Index
			lastRemaining = -1
			if conn.WriteTyped(questionEvent(snap)) != nil {
				return
			}
		}

		if snap.Phase == session.PhaseActive && snap.CountdownRemaining != lastRemaining {
			lastRemaining = snap.CountdownRemaining
			if conn.WriteTyped(ws.TickEvent{Event: ws.EventTick, Remaining: snap.CountdownRemaining}) != nil {
				return
			}
		}

		if snap.Phase == session.PhaseSubmitted &&
			(lastPhase != session.PhaseSubmitted || !sameChoice(lastCorrect, snap.CorrectChoiceID)) {
			lastCorrect = snap.CorrectChoiceID
			event := ws.SubmittedEvent{
				Event:           ws.EventSubmitted,
				CorrectChoiceID: snap.CorrectChoiceID,
				IsLastQuestion:  snap.IsLastQuestion,
			}
			if conn.WriteTyped(event) != nil {
				return
			}
		}
		lastPhase = snap.Phase

		if conn.WriteTyped(ws.FrameEvent{Event: ws.EventFrame, Progress: snap.EngagementProgress}) != nil {
			return
		}
	}
}

func sameChoice(a, b *uuid.UUID) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func questionEvent(snap session.Snapshot) ws.QuestionEvent {
	return ws.QuestionEvent{
		Event:              ws.EventQuestion,
		Index:              snap.Index,
		Total:              snap.Total,
		IsLastQuestion:     snap.IsLastQuestion,
		Question:           snap.Question,
		CountdownRemaining: snap.CountdownRemaining,
	}
}

func parseChoice(conn *ws.Conn, raw string) *uuid.UUID {
	if raw == "" {
		return nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		conn.WriteError("invalid choice id")
		return nil
	}
	return &id
}
