package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lollipop-edu/lollipop-backend/internal/model"
)

// AnswerRepository handles answer data access.
type AnswerRepository struct {
	pool *pgxpool.Pool
}

// NewAnswerRepository creates a new AnswerRepository.
func NewAnswerRepository(pool *pgxpool.Pool) *AnswerRepository {
	return &AnswerRepository{pool: pool}
}

// Upsert creates or updates the single answer row for (question, student).
// A nil selectedChoiceID is stored as NULL and marks a reached question.
func (r *AnswerRepository) Upsert(ctx context.Context, questionID uuid.UUID, studentID int, selectedChoiceID *uuid.UUID) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO answers (question_id, student_id, selected_choice_id)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (question_id, student_id) DO UPDATE
		 SET selected_choice_id = EXCLUDED.selected_choice_id, updated_at = NOW()`,
		questionID, studentID, selectedChoiceID,
	)
	return err
}

// ListByHomeworkAndStudent retrieves all stored answers of one student for
// one homework, in question order.
func (r *AnswerRepository) ListByHomeworkAndStudent(ctx context.Context, homeworkID uuid.UUID, studentID int) ([]model.Answer, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT a.id, a.question_id, a.student_id, a.selected_choice_id, a.updated_at
		 FROM answers a
		 JOIN questions q ON q.id = a.question_id
		 WHERE q.homework_id = $1 AND a.student_id = $2
		 ORDER BY q.order_num`, homeworkID, studentID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var answers []model.Answer
	for rows.Next() {
		var a model.Answer
		if err := rows.Scan(&a.ID, &a.QuestionID, &a.StudentID, &a.SelectedChoiceID, &a.UpdatedAt); err != nil {
			return nil, err
		}
		answers = append(answers, a)
	}
	return answers, rows.Err()
}
