package model

import (
	"time"

	"github.com/google/uuid"
)

// Result is the durable aggregate of one completed session. It is written
// once per (homework_id, student_id) by the result worker after the final
// answer is recorded.
type Result struct {
	ID             uuid.UUID `json:"id"`
	HomeworkID     uuid.UUID `json:"homework_id"`
	StudentID      int       `json:"student_id"`
	TotalQuestions int       `json:"total_questions"`
	CorrectAnswers int       `json:"correct_answers"`
	Score          float64   `json:"score"`
	EvaluatedAt    time.Time `json:"evaluated_at"`
}
