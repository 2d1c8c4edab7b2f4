package main

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/lollipop-edu/lollipop-backend/internal/config"
	"github.com/lollipop-edu/lollipop-backend/internal/database"
	"github.com/lollipop-edu/lollipop-backend/internal/logger"
	"github.com/lollipop-edu/lollipop-backend/internal/model"
	"github.com/lollipop-edu/lollipop-backend/internal/repository"
	"github.com/lollipop-edu/lollipop-backend/internal/service"
)

// seedQuestion is the shape of one demo question before insertion.
type seedQuestion struct {
	text    string
	choices []string
	correct int // index into choices
}

func main() {
	cfg := config.Load()
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	classRepo := repository.NewClassRepository(pool)
	studentRepo := repository.NewStudentRepository(pool)
	homeworkRepo := repository.NewHomeworkRepository(pool)
	questionRepo := repository.NewQuestionRepository(pool)

	authService := service.NewAuthService(cfg, nil)
	studentService := service.NewStudentService(studentRepo, authService)

	fmt.Println("=== Seeding Demo Data ===")

	// ─── Class ─────────────────────────────────────────────────────────
	className := "DEMO-2026-A"
	var classID int

	existing, err := classRepo.GetByName(ctx, className)
	switch {
	case err == nil:
		classID = existing.ID
		fmt.Printf("Found existing class with ID: %d\n", classID)
	case err == pgx.ErrNoRows:
		newClass := &model.Class{
			Name:          className,
			AdmissionYear: 2026,
			MajorCode:     "DEMO",
		}
		if err := classRepo.Create(ctx, newClass); err != nil {
			log.Fatal().Err(err).Msg("Failed to create class")
		}
		classID = newClass.ID
		fmt.Printf("Created class with ID: %d\n", classID)
	default:
		log.Fatal().Err(err).Msg("Failed to check existing class")
	}

	// ─── Students ──────────────────────────────────────────────────────
	names := []string{
		"Budi Santoso", "Siti Aminah", "Andi Pratama", "Rina Wati", "Joko Susilo",
		"Ayu Lestari", "Dodi Kusuma", "Eka Putri", "Fahri Hamzah", "Gita Savitri",
	}

	successCount := 0
	for i, name := range names {
		student := &model.Student{
			StudentCode: fmt.Sprintf("demo%03d", i+1),
			Name:        name,
			ClassID:     classID,
		}
		if err := studentService.Create(ctx, student, "lollipop123"); err != nil {
			fmt.Printf("Error creating student %s (%s): %v\n", student.Name, student.StudentCode, err)
			continue
		}
		successCount++
	}
	fmt.Printf("Seeded %d/%d students (password: lollipop123)\n", successCount, len(names))

	// ─── Homework & Questions ──────────────────────────────────────────
	desc := "Demo homework seeded for local development."
	due := time.Now().Add(7 * 24 * time.Hour)
	homework := &model.Homework{
		ClassID:     classID,
		Title:       "Demo Homework: Basic Arithmetic",
		Description: &desc,
		DueDate:     &due,
		State:       model.HomeworkStateQuestionsGenerated,
	}
	if err := homeworkRepo.Create(ctx, homework); err != nil {
		log.Fatal().Err(err).Msg("Failed to create homework")
	}
	fmt.Printf("Created homework %s\n", homework.ID)

	questions := []seedQuestion{
		{"What is 7 + 5?", []string{"10", "11", "12", "13"}, 2},
		{"What is 9 * 6?", []string{"54", "56", "45", "63"}, 0},
		{"What is 100 / 4?", []string{"20", "25", "40", "50"}, 1},
		{"What is 15 - 8?", []string{"6", "7", "8", "9"}, 1},
		{"What is 3 squared?", []string{"6", "8", "9", "27"}, 2},
	}

	for i, sq := range questions {
		q := &model.Question{
			HomeworkID:   homework.ID,
			QuestionText: sq.text,
			OrderNum:     i + 1,
		}
		for j, text := range sq.choices {
			q.Choices = append(q.Choices, model.Choice{
				ChoiceText: text,
				IsCorrect:  j == sq.correct,
			})
		}
		if err := questionRepo.CreateWithChoices(ctx, q); err != nil {
			log.Fatal().Err(err).Int("order_num", q.OrderNum).Msg("Failed to create question")
		}
	}

	fmt.Printf("\nSeed completed! Homework %s has %d questions.\n", homework.ID, len(questions))
}
