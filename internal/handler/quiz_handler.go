package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/lollipop-edu/lollipop-backend/internal/config"
	"github.com/lollipop-edu/lollipop-backend/internal/metrics"
	"github.com/lollipop-edu/lollipop-backend/internal/middleware"
	"github.com/lollipop-edu/lollipop-backend/internal/model"
	"github.com/lollipop-edu/lollipop-backend/internal/repository"
	"github.com/lollipop-edu/lollipop-backend/internal/response"
	"github.com/lollipop-edu/lollipop-backend/internal/service"
	"github.com/lollipop-edu/lollipop-backend/internal/session"
	"github.com/lollipop-edu/lollipop-backend/internal/validator"
)

// QuizHandler handles the homework quiz REST endpoints.
type QuizHandler struct {
	cfg          *config.Config
	quizService  *service.QuizService
	homeworkRepo *repository.HomeworkRepository
	log          zerolog.Logger
}

// NewQuizHandler creates a new QuizHandler.
func NewQuizHandler(cfg *config.Config, quizService *service.QuizService, homeworkRepo *repository.HomeworkRepository, log zerolog.Logger) *QuizHandler {
	return &QuizHandler{
		cfg:          cfg,
		quizService:  quizService,
		homeworkRepo: homeworkRepo,
		log:          log.With().Str("component", "quiz_handler").Logger(),
	}
}

// ListHomeworks godoc
// GET /api/v1/student/homeworks
// Returns the homeworks assigned to the student's class.
func (h *QuizHandler) ListHomeworks(c *gin.Context) {
	claims := middleware.GetClaims(c)
	homeworks, err := h.homeworkRepo.ListByClass(c.Request.Context(), claims.ClassID)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"homeworks": homeworks})
}

// StartSession godoc
// POST /api/v1/student/homeworks/:homework_id/session
// Runs the entry checks for an answering session. A homework the student
// already answered returns 409 so the client redirects to review instead.
func (h *QuizHandler) StartSession(c *gin.Context) {
	claims := middleware.GetClaims(c)
	homeworkID, ok := parseHomeworkID(c)
	if !ok {
		return
	}

	hw, err := h.quizService.GetHomework(c.Request.Context(), homeworkID)
	if err != nil {
		h.failQuiz(c, err)
		return
	}

	completed, err := h.quizService.AlreadyCompleted(c.Request.Context(), homeworkID, claims.UserID)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	if completed {
		response.Fail(c, http.StatusConflict, response.ErrHomeworkCompleted)
		return
	}

	questions, err := h.quizService.FetchQuestions(c.Request.Context(), homeworkID, claims.UserID)
	if err != nil {
		h.failQuiz(c, err)
		return
	}
	if len(questions) == 0 {
		response.Fail(c, http.StatusNotFound, response.ErrNoQuestions)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{
		"homework":                 hw,
		"total_questions":          len(questions),
		"question_timer_seconds":   int(h.cfg.QuestionTimer.Seconds()),
		"engagement_timer_seconds": int(h.cfg.EngagementTimer.Seconds()),
	})
}

// GetQuestions godoc
// GET /api/v1/student/homeworks/:homework_id/questions
// Returns the full ordered question list. Correct flags never serialize.
func (h *QuizHandler) GetQuestions(c *gin.Context) {
	claims := middleware.GetClaims(c)
	homeworkID, ok := parseHomeworkID(c)
	if !ok {
		return
	}

	questions, err := h.quizService.FetchQuestions(c.Request.Context(), homeworkID, claims.UserID)
	if err != nil {
		h.failQuiz(c, err)
		return
	}
	if len(questions) == 0 {
		response.Fail(c, http.StatusNotFound, response.ErrNoQuestions)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"questions": questions})
}

// SubmitAnswer godoc
// POST /api/v1/student/homeworks/:homework_id/answers
// Records one answer and returns the question's correct choice. A missing
// selected_choice_id records a null answer.
func (h *QuizHandler) SubmitAnswer(c *gin.Context) {
	claims := middleware.GetClaims(c)
	homeworkID, ok := parseHomeworkID(c)
	if !ok {
		return
	}

	var req model.SubmitAnswerRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	questionID, err := uuid.Parse(req.QuestionID)
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	var selected *uuid.UUID
	if req.SelectedChoiceID != nil {
		choiceID, err := uuid.Parse(*req.SelectedChoiceID)
		if err != nil {
			response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
			return
		}
		selected = &choiceID
	}

	correctID, err := h.quizService.SubmitAnswer(c.Request.Context(), session.SubmitRequest{
		QuestionID:       questionID,
		HomeworkID:       homeworkID,
		StudentID:        claims.UserID,
		SelectedChoiceID: selected,
		TotalQuestions:   req.TotalQuestions,
	})
	if err != nil {
		h.failQuiz(c, err)
		return
	}

	metrics.SubmissionsTotal.WithLabelValues(string(session.TriggerUser)).Inc()
	response.Success(c, http.StatusOK, gin.H{"correct_choice_id": correctID})
}

// GetAnswers godoc
// GET /api/v1/student/homeworks/:homework_id/answers
// Returns the student's stored answers. The client's resume guard redirects
// when any carries a non-null choice.
func (h *QuizHandler) GetAnswers(c *gin.Context) {
	claims := middleware.GetClaims(c)
	homeworkID, ok := parseHomeworkID(c)
	if !ok {
		return
	}

	answers, err := h.quizService.FetchAnswers(c.Request.Context(), homeworkID, claims.UserID)
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"answers": answers})
}

// GetCorrectChoice godoc
// GET /api/v1/student/homeworks/:homework_id/questions/:question_id/correct-choice
// Resolves one question's correct choice, used by review reconstruction.
func (h *QuizHandler) GetCorrectChoice(c *gin.Context) {
	homeworkID, ok := parseHomeworkID(c)
	if !ok {
		return
	}
	questionID, err := uuid.Parse(c.Param("question_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	correctID, err := h.quizService.FetchCorrectChoice(c.Request.Context(), questionID, homeworkID)
	if err != nil {
		h.failQuiz(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"correct_choice_id": correctID})
}

// GetResult godoc
// GET /api/v1/student/homeworks/:homework_id/result
// Returns the persisted evaluation of a finished session.
func (h *QuizHandler) GetResult(c *gin.Context) {
	claims := middleware.GetClaims(c)
	homeworkID, ok := parseHomeworkID(c)
	if !ok {
		return
	}

	result, err := h.quizService.GetResult(c.Request.Context(), homeworkID, claims.UserID)
	if err != nil {
		if errors.Is(err, service.ErrResultNotReady) {
			response.Fail(c, http.StatusNotFound, response.ErrResultNotAvailable)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"result": result})
}

// GetReview godoc
// GET /api/v1/student/homeworks/:homework_id/review
// Reconstructs the completed session read-only: every question with the
// student's selection and the correct choice.
func (h *QuizHandler) GetReview(c *gin.Context) {
	claims := middleware.GetClaims(c)
	homeworkID, ok := parseHomeworkID(c)
	if !ok {
		return
	}

	ctrl := session.NewController(
		h.quizService,
		session.Config{QuestionTimer: h.cfg.QuestionTimer, EngagementTimer: h.cfg.EngagementTimer},
		session.ModeReview,
		homeworkID,
		claims.UserID,
		h.log,
	)
	if err := ctrl.LoadReview(c.Request.Context()); err != nil {
		if errors.Is(err, session.ErrNoQuestions) {
			response.Fail(c, http.StatusNotFound, response.ErrNoQuestions)
			return
		}
		h.failQuiz(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"items": ctrl.ReviewItems()})
}

// failQuiz maps quiz service errors onto the response envelope.
func (h *QuizHandler) failQuiz(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrHomeworkNotFound):
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
	case errors.Is(err, service.ErrHomeworkNotReady):
		response.Fail(c, http.StatusConflict, response.ErrQuestionsNotReady)
	case errors.Is(err, service.ErrQuestionNotFound):
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
	case errors.Is(err, service.ErrQuestionNotInHomework):
		response.Fail(c, http.StatusBadRequest, response.ErrQuestionNotInQuiz)
	default:
		h.log.Error().Err(err).Msg("Quiz request failed")
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
	}
}

func parseHomeworkID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("homework_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return uuid.Nil, false
	}
	return id, true
}
