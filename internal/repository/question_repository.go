package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lollipop-edu/lollipop-backend/internal/model"
)

// QuestionRepository handles question and choice data access.
type QuestionRepository struct {
	pool *pgxpool.Pool
}

// NewQuestionRepository creates a new QuestionRepository.
func NewQuestionRepository(pool *pgxpool.Pool) *QuestionRepository {
	return &QuestionRepository{pool: pool}
}

// ListByHomework retrieves all questions for a homework with their choices,
// ordered by order_num. Choices come back in a single query and are grouped
// in memory to avoid one round trip per question.
func (r *QuestionRepository) ListByHomework(ctx context.Context, homeworkID uuid.UUID) ([]model.Question, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, homework_id, question_text, order_num, created_at
		 FROM questions WHERE homework_id = $1
		 ORDER BY order_num`, homeworkID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var questions []model.Question
	index := map[uuid.UUID]int{}
	for rows.Next() {
		var q model.Question
		if err := rows.Scan(&q.ID, &q.HomeworkID, &q.QuestionText, &q.OrderNum, &q.CreatedAt); err != nil {
			return nil, err
		}
		index[q.ID] = len(questions)
		questions = append(questions, q)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(questions) == 0 {
		return nil, nil
	}

	choiceRows, err := r.pool.Query(ctx,
		`SELECT c.id, c.question_id, c.choice_text, c.is_correct
		 FROM choices c
		 JOIN questions q ON q.id = c.question_id
		 WHERE q.homework_id = $1
		 ORDER BY c.id`, homeworkID,
	)
	if err != nil {
		return nil, err
	}
	defer choiceRows.Close()

	for choiceRows.Next() {
		var c model.Choice
		if err := choiceRows.Scan(&c.ID, &c.QuestionID, &c.ChoiceText, &c.IsCorrect); err != nil {
			return nil, err
		}
		if i, ok := index[c.QuestionID]; ok {
			questions[i].Choices = append(questions[i].Choices, c)
		}
	}
	return questions, choiceRows.Err()
}

// GetByID retrieves a single question without its choices.
func (r *QuestionRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Question, error) {
	q := &model.Question{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, homework_id, question_text, order_num, created_at
		 FROM questions WHERE id = $1`, id,
	).Scan(&q.ID, &q.HomeworkID, &q.QuestionText, &q.OrderNum, &q.CreatedAt)
	if err != nil {
		return nil, err
	}
	return q, nil
}

// GetCorrectChoiceID resolves the correct choice for a question.
func (r *QuestionRepository) GetCorrectChoiceID(ctx context.Context, questionID uuid.UUID) (uuid.UUID, error) {
	var id uuid.UUID
	err := r.pool.QueryRow(ctx,
		`SELECT id FROM choices WHERE question_id = $1 AND is_correct`, questionID,
	).Scan(&id)
	return id, err
}

// AnswerKeyByHomework returns the question -> correct choice map for a whole
// homework, used to grade a finished session in one pass.
func (r *QuestionRepository) AnswerKeyByHomework(ctx context.Context, homeworkID uuid.UUID) (map[uuid.UUID]uuid.UUID, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT c.question_id, c.id
		 FROM choices c
		 JOIN questions q ON q.id = c.question_id
		 WHERE q.homework_id = $1 AND c.is_correct`, homeworkID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	key := map[uuid.UUID]uuid.UUID{}
	for rows.Next() {
		var questionID, choiceID uuid.UUID
		if err := rows.Scan(&questionID, &choiceID); err != nil {
			return nil, err
		}
		key[questionID] = choiceID
	}
	return key, rows.Err()
}

// CreateWithChoices inserts a question and its choices in one transaction.
// Used by the seeding tool.
func (r *QuestionRepository) CreateWithChoices(ctx context.Context, q *model.Question) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	err = tx.QueryRow(ctx,
		`INSERT INTO questions (homework_id, question_text, order_num)
		 VALUES ($1, $2, $3)
		 RETURNING id, created_at`,
		q.HomeworkID, q.QuestionText, q.OrderNum,
	).Scan(&q.ID, &q.CreatedAt)
	if err != nil {
		return err
	}

	for i := range q.Choices {
		c := &q.Choices[i]
		c.QuestionID = q.ID
		err = tx.QueryRow(ctx,
			`INSERT INTO choices (question_id, choice_text, is_correct)
			 VALUES ($1, $2, $3)
			 RETURNING id`,
			c.QuestionID, c.ChoiceText, c.IsCorrect,
		).Scan(&c.ID)
		if err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}
