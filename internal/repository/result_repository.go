package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lollipop-edu/lollipop-backend/internal/model"
)

// ResultRepository handles graded-session result data access.
type ResultRepository struct {
	pool *pgxpool.Pool
}

// NewResultRepository creates a new ResultRepository.
func NewResultRepository(pool *pgxpool.Pool) *ResultRepository {
	return &ResultRepository{pool: pool}
}

// GetByHomeworkAndStudent retrieves the result of one student for one homework.
func (r *ResultRepository) GetByHomeworkAndStudent(ctx context.Context, homeworkID uuid.UUID, studentID int) (*model.Result, error) {
	res := &model.Result{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, homework_id, student_id, total_questions, correct_answers, score, evaluated_at
		 FROM results WHERE homework_id = $1 AND student_id = $2`, homeworkID, studentID,
	).Scan(&res.ID, &res.HomeworkID, &res.StudentID, &res.TotalQuestions, &res.CorrectAnswers, &res.Score, &res.EvaluatedAt)
	if err != nil {
		return nil, err
	}
	return res, nil
}

// Upsert writes a result row, replacing any previous evaluation for the
// same (homework, student).
func (r *ResultRepository) Upsert(ctx context.Context, res *model.Result) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO results (homework_id, student_id, total_questions, correct_answers, score)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (homework_id, student_id) DO UPDATE
		 SET total_questions = EXCLUDED.total_questions,
		     correct_answers = EXCLUDED.correct_answers,
		     score = EXCLUDED.score,
		     evaluated_at = NOW()`,
		res.HomeworkID, res.StudentID, res.TotalQuestions, res.CorrectAnswers, res.Score,
	)
	return err
}

// BulkUpsert writes a batch of results in one statement.
func (r *ResultRepository) BulkUpsert(ctx context.Context, results []*model.Result) error {
	n := len(results)
	homeworkIDs := make([]uuid.UUID, 0, n)
	studentIDs := make([]int, 0, n)
	totals := make([]int, 0, n)
	corrects := make([]int, 0, n)
	scores := make([]float64, 0, n)

	for _, res := range results {
		homeworkIDs = append(homeworkIDs, res.HomeworkID)
		studentIDs = append(studentIDs, res.StudentID)
		totals = append(totals, res.TotalQuestions)
		corrects = append(corrects, res.CorrectAnswers)
		scores = append(scores, res.Score)
	}

	query := `
		INSERT INTO results (homework_id, student_id, total_questions, correct_answers, score)
		SELECT u.homework_id, u.student_id, u.total_questions, u.correct_answers, u.score
		FROM UNNEST(
			$1::uuid[],
			$2::int[],
			$3::int[],
			$4::int[],
			$5::float8[]
		) AS u (homework_id, student_id, total_questions, correct_answers, score)
		ON CONFLICT (homework_id, student_id) DO UPDATE
		SET total_questions = EXCLUDED.total_questions,
		    correct_answers = EXCLUDED.correct_answers,
		    score = EXCLUDED.score,
		    evaluated_at = NOW()
	`

	_, err := r.pool.Exec(ctx, query, homeworkIDs, studentIDs, totals, corrects, scores)
	return err
}
