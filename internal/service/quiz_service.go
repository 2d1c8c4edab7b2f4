package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/lollipop-edu/lollipop-backend/internal/config"
	"github.com/lollipop-edu/lollipop-backend/internal/model"
	"github.com/lollipop-edu/lollipop-backend/internal/repository"
	"github.com/lollipop-edu/lollipop-backend/internal/session"
)

// Common quiz errors.
var (
	ErrHomeworkNotFound      = errors.New("homework not found")
	ErrHomeworkNotReady      = errors.New("homework questions are still being generated")
	ErrQuestionNotFound      = errors.New("question not found")
	ErrQuestionNotInHomework = errors.New("question does not belong to this homework")
	ErrResultNotReady        = errors.New("result has not been evaluated yet")
)

// answersCacheTTL bounds how long a live session's answers stay in Redis.
// Sessions are minutes long; a day covers any realistic gap before the
// result worker clears the hash.
const answersCacheTTL = 24 * time.Hour

// QuizService implements the quiz data plane: question delivery, answer
// recording, and grading. It satisfies session.Backend so both the REST
// handlers and the live WebSocket controller run through the same path.
type QuizService struct {
	homeworkRepo *repository.HomeworkRepository
	questionRepo *repository.QuestionRepository
	answerRepo   *repository.AnswerRepository
	resultRepo   *repository.ResultRepository
	rdb          *redis.Client
	log          zerolog.Logger
}

// NewQuizService creates a new QuizService.
func NewQuizService(
	homeworkRepo *repository.HomeworkRepository,
	questionRepo *repository.QuestionRepository,
	answerRepo *repository.AnswerRepository,
	resultRepo *repository.ResultRepository,
	rdb *redis.Client,
	log zerolog.Logger,
) *QuizService {
	return &QuizService{
		homeworkRepo: homeworkRepo,
		questionRepo: questionRepo,
		answerRepo:   answerRepo,
		resultRepo:   resultRepo,
		rdb:          rdb,
		log:          log.With().Str("component", "quiz_service").Logger(),
	}
}

// GetHomework retrieves a homework and checks it is ready to be taken.
func (s *QuizService) GetHomework(ctx context.Context, id uuid.UUID) (*model.Homework, error) {
	hw, err := s.homeworkRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrHomeworkNotFound
		}
		return nil, fmt.Errorf("get homework: %w", err)
	}
	switch hw.State {
	case model.HomeworkStateQuestionsGenerated, model.HomeworkStateCompleted:
		return hw, nil
	default:
		return nil, ErrHomeworkNotReady
	}
}

// FetchQuestions returns the ordered question list for a homework.
func (s *QuizService) FetchQuestions(ctx context.Context, homeworkID uuid.UUID, studentID int) ([]model.Question, error) {
	if _, err := s.GetHomework(ctx, homeworkID); err != nil {
		return nil, err
	}
	questions, err := s.questionRepo.ListByHomework(ctx, homeworkID)
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}
	return questions, nil
}

// FetchAnswers returns the student's stored answers for a homework. The
// Redis session hash is authoritative while a session is live; PostgreSQL
// is the fallback once the worker has persisted and cleared it. Returns
// session.ErrNotFound when neither knows the student.
func (s *QuizService) FetchAnswers(ctx context.Context, homeworkID uuid.UUID, studentID int) ([]model.Answer, error) {
	answersKey := config.CacheKey.StudentAnswersKey(homeworkID.String(), studentID)
	cached, err := s.rdb.HGetAll(ctx, answersKey).Result()
	if err != nil {
		return nil, fmt.Errorf("get cached answers: %w", err)
	}

	if len(cached) > 0 {
		answers := make([]model.Answer, 0, len(cached))
		for qidStr, choiceStr := range cached {
			qid, err := uuid.Parse(qidStr)
			if err != nil {
				continue
			}
			a := model.Answer{QuestionID: qid, StudentID: studentID}
			if choiceStr != "" {
				cid, err := uuid.Parse(choiceStr)
				if err != nil {
					continue
				}
				a.SelectedChoiceID = &cid
			}
			answers = append(answers, a)
		}
		return answers, nil
	}

	answers, err := s.answerRepo.ListByHomeworkAndStudent(ctx, homeworkID, studentID)
	if err != nil {
		return nil, fmt.Errorf("list answers: %w", err)
	}
	if len(answers) == 0 {
		return nil, session.ErrNotFound
	}
	return answers, nil
}

// FetchCorrectChoice resolves a question's correct choice through the cache.
func (s *QuizService) FetchCorrectChoice(ctx context.Context, questionID, homeworkID uuid.UUID) (uuid.UUID, error) {
	return s.correctChoiceID(ctx, questionID)
}

// SubmitAnswer records one answer and returns the question's correct choice.
// The write path is Redis-first: the answer lands in the session hash and a
// queue item, and the worker moves it to PostgreSQL asynchronously. When the
// hash covers every question the session is graded in memory and a result
// queue item is produced.
func (s *QuizService) SubmitAnswer(ctx context.Context, req session.SubmitRequest) (uuid.UUID, error) {
	q, err := s.questionRepo.GetByID(ctx, req.QuestionID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return uuid.Nil, ErrQuestionNotFound
		}
		return uuid.Nil, fmt.Errorf("get question: %w", err)
	}
	if q.HomeworkID != req.HomeworkID {
		return uuid.Nil, ErrQuestionNotInHomework
	}

	correctID, err := s.correctChoiceID(ctx, req.QuestionID)
	if err != nil {
		return uuid.Nil, err
	}

	choiceStr := ""
	if req.SelectedChoiceID != nil {
		choiceStr = req.SelectedChoiceID.String()
	}

	answersKey := config.CacheKey.StudentAnswersKey(req.HomeworkID.String(), req.StudentID)
	pipe := s.rdb.Pipeline()
	pipe.HSet(ctx, answersKey, req.QuestionID.String(), choiceStr)
	pipe.Expire(ctx, answersKey, answersCacheTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return uuid.Nil, fmt.Errorf("cache answer: %w", err)
	}

	payload, _ := json.Marshal(map[string]interface{}{
		"student_id":         req.StudentID,
		"homework_id":        req.HomeworkID.String(),
		"question_id":        req.QuestionID.String(),
		"selected_choice_id": choiceStr,
	})
	if err := s.rdb.RPush(ctx, config.WorkerKey.PersistAnswersQueue, payload).Err(); err != nil {
		return uuid.Nil, fmt.Errorf("enqueue answer: %w", err)
	}

	if err := s.maybeGrade(ctx, req.HomeworkID, req.StudentID, req.TotalQuestions); err != nil {
		// Grading is recoverable (the result endpoint retriggers nothing,
		// but the worker queue still holds every answer), so the submit
		// itself succeeds.
		s.log.Error().Err(err).
			Str("homework_id", req.HomeworkID.String()).
			Int("student_id", req.StudentID).
			Msg("Grading check failed")
	}

	return correctID, nil
}

// AlreadyCompleted reports whether the student has a real (non-null) answer
// for this homework, the condition that locks out a retake.
func (s *QuizService) AlreadyCompleted(ctx context.Context, homeworkID uuid.UUID, studentID int) (bool, error) {
	answers, err := s.FetchAnswers(ctx, homeworkID, studentID)
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	for _, a := range answers {
		if a.SelectedChoiceID != nil {
			return true, nil
		}
	}
	return false, nil
}

// GetResult retrieves the persisted evaluation of a finished session.
func (s *QuizService) GetResult(ctx context.Context, homeworkID uuid.UUID, studentID int) (*model.Result, error) {
	res, err := s.resultRepo.GetByHomeworkAndStudent(ctx, homeworkID, studentID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrResultNotReady
		}
		return nil, fmt.Errorf("get result: %w", err)
	}
	return res, nil
}

// correctChoiceID reads a question's correct choice from Redis, falling back
// to PostgreSQL on a miss and self-healing the cache.
func (s *QuizService) correctChoiceID(ctx context.Context, questionID uuid.UUID) (uuid.UUID, error) {
	cacheKey := config.CacheKey.CorrectChoiceKey(questionID.String())

	val, err := s.rdb.Get(ctx, cacheKey).Result()
	if err == nil {
		id, parseErr := uuid.Parse(val)
		if parseErr == nil {
			return id, nil
		}
		// Poisoned entry, fall through to the database.
	} else if !errors.Is(err, redis.Nil) {
		return uuid.Nil, fmt.Errorf("get correct choice from cache: %w", err)
	}

	id, err := s.questionRepo.GetCorrectChoiceID(ctx, questionID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return uuid.Nil, ErrQuestionNotFound
		}
		return uuid.Nil, fmt.Errorf("get correct choice: %w", err)
	}

	_ = s.rdb.Set(ctx, cacheKey, id.String(), answersCacheTTL).Err()
	return id, nil
}

// maybeGrade evaluates the session once the answers hash covers every
// question, then queues the result for persistence.
func (s *QuizService) maybeGrade(ctx context.Context, homeworkID uuid.UUID, studentID, totalQuestions int) error {
	answersKey := config.CacheKey.StudentAnswersKey(homeworkID.String(), studentID)
	answers, err := s.rdb.HGetAll(ctx, answersKey).Result()
	if err != nil {
		return fmt.Errorf("get answers: %w", err)
	}
	if len(answers) < totalQuestions {
		return nil
	}

	key, err := s.answerKey(ctx, homeworkID)
	if err != nil {
		return err
	}

	correct := 0
	for qidStr, choiceStr := range answers {
		if choiceStr != "" && key[qidStr] == choiceStr {
			correct++
		}
	}

	score := float64(correct) / float64(totalQuestions) * 100

	payload, _ := json.Marshal(map[string]interface{}{
		"student_id":      studentID,
		"homework_id":     homeworkID.String(),
		"total_questions": totalQuestions,
		"correct_answers": correct,
		"score":           score,
	})
	if err := s.rdb.RPush(ctx, config.WorkerKey.PersistResultsQueue, payload).Err(); err != nil {
		return fmt.Errorf("enqueue result: %w", err)
	}

	s.log.Info().
		Str("homework_id", homeworkID.String()).
		Int("student_id", studentID).
		Int("correct", correct).
		Float64("score", score).
		Msg("Session graded")
	return nil
}

// answerKey returns the question -> correct choice map for a homework,
// cached in Redis as a hash of string ids.
func (s *QuizService) answerKey(ctx context.Context, homeworkID uuid.UUID) (map[string]string, error) {
	cacheKey := config.CacheKey.HomeworkAnswerKey(homeworkID.String())

	cached, err := s.rdb.HGetAll(ctx, cacheKey).Result()
	if err != nil {
		return nil, fmt.Errorf("get answer key from cache: %w", err)
	}
	if len(cached) > 0 {
		return cached, nil
	}

	key, err := s.questionRepo.AnswerKeyByHomework(ctx, homeworkID)
	if err != nil {
		return nil, fmt.Errorf("build answer key: %w", err)
	}

	flat := make(map[string]string, len(key))
	for qid, cid := range key {
		flat[qid.String()] = cid.String()
	}

	if len(flat) > 0 {
		pipe := s.rdb.Pipeline()
		pipe.HSet(ctx, cacheKey, flat)
		pipe.Expire(ctx, cacheKey, answersCacheTTL)
		_, _ = pipe.Exec(ctx)
	}

	return flat, nil
}
