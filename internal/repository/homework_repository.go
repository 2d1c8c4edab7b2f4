package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lollipop-edu/lollipop-backend/internal/model"
)

// HomeworkRepository handles homework data access.
type HomeworkRepository struct {
	pool *pgxpool.Pool
}

// NewHomeworkRepository creates a new HomeworkRepository.
func NewHomeworkRepository(pool *pgxpool.Pool) *HomeworkRepository {
	return &HomeworkRepository{pool: pool}
}

// GetByID retrieves a homework by ID.
func (r *HomeworkRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Homework, error) {
	h := &model.Homework{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, class_id, title, description, due_date, state, created_at
		 FROM homeworks WHERE id = $1`, id,
	).Scan(&h.ID, &h.ClassID, &h.Title, &h.Description, &h.DueDate, &h.State, &h.CreatedAt)
	if err != nil {
		return nil, err
	}
	return h, nil
}

// ListByClass retrieves all homeworks assigned to a class, newest first.
func (r *HomeworkRepository) ListByClass(ctx context.Context, classID int) ([]model.Homework, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, class_id, title, description, due_date, state, created_at
		 FROM homeworks WHERE class_id = $1
		 ORDER BY created_at DESC`, classID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var homeworks []model.Homework
	for rows.Next() {
		var h model.Homework
		if err := rows.Scan(&h.ID, &h.ClassID, &h.Title, &h.Description, &h.DueDate, &h.State, &h.CreatedAt); err != nil {
			return nil, err
		}
		homeworks = append(homeworks, h)
	}
	return homeworks, rows.Err()
}

// Create inserts a new homework.
func (r *HomeworkRepository) Create(ctx context.Context, h *model.Homework) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO homeworks (class_id, title, description, due_date, state)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, created_at`,
		h.ClassID, h.Title, h.Description, h.DueDate, h.State,
	).Scan(&h.ID, &h.CreatedAt)
}
