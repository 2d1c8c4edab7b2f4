package service

import (
	"context"
	"fmt"

	"github.com/lollipop-edu/lollipop-backend/internal/model"
	"github.com/lollipop-edu/lollipop-backend/internal/repository"
)

// StudentService handles student account business logic.
type StudentService struct {
	studentRepo *repository.StudentRepository
	authService *AuthService
}

// NewStudentService creates a new StudentService.
func NewStudentService(studentRepo *repository.StudentRepository, authService *AuthService) *StudentService {
	return &StudentService{studentRepo: studentRepo, authService: authService}
}

// GetByID retrieves a student by ID.
func (s *StudentService) GetByID(ctx context.Context, id int) (*model.Student, error) {
	return s.studentRepo.GetByID(ctx, id)
}

// Authenticate verifies a student's credentials and returns the account.
func (s *StudentService) Authenticate(ctx context.Context, studentCode, password string) (*model.Student, error) {
	student, err := s.studentRepo.GetByCode(ctx, studentCode)
	if err != nil {
		// Do not leak whether the code exists.
		return nil, ErrInvalidCredentials
	}
	if err := s.authService.CheckPassword(student.PasswordHash, password); err != nil {
		return nil, ErrInvalidCredentials
	}
	return student, nil
}

// Create registers a new student with a hashed password.
func (s *StudentService) Create(ctx context.Context, student *model.Student, password string) error {
	hash, err := s.authService.HashPassword(password)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	student.PasswordHash = hash
	return s.studentRepo.Create(ctx, student)
}
