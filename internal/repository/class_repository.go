package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lollipop-edu/lollipop-backend/internal/model"
)

// ClassRepository handles class data access.
type ClassRepository struct {
	pool *pgxpool.Pool
}

// NewClassRepository creates a new ClassRepository.
func NewClassRepository(pool *pgxpool.Pool) *ClassRepository {
	return &ClassRepository{pool: pool}
}

// GetByID retrieves a class by ID.
func (r *ClassRepository) GetByID(ctx context.Context, id int) (*model.Class, error) {
	cl := &model.Class{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, name, admission_year, major_code FROM classes WHERE id = $1`, id,
	).Scan(&cl.ID, &cl.Name, &cl.AdmissionYear, &cl.MajorCode)
	if err != nil {
		return nil, err
	}
	return cl, nil
}

// GetByName retrieves a class by its unique name.
func (r *ClassRepository) GetByName(ctx context.Context, name string) (*model.Class, error) {
	cl := &model.Class{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, name, admission_year, major_code FROM classes WHERE name = $1`, name,
	).Scan(&cl.ID, &cl.Name, &cl.AdmissionYear, &cl.MajorCode)
	if err != nil {
		return nil, err
	}
	return cl, nil
}

// Create inserts a new class.
func (r *ClassRepository) Create(ctx context.Context, cl *model.Class) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO classes (name, admission_year, major_code)
		 VALUES ($1, $2, $3)
		 RETURNING id`,
		cl.Name, cl.AdmissionYear, cl.MajorCode,
	).Scan(&cl.ID)
}
