package model

import (
	"time"

	"github.com/google/uuid"
)

// Question represents a single generated quiz question. The correct choice
// is never shipped with the question payload: Choice.IsCorrect is excluded
// from JSON and only revealed through the submit/correct-choice endpoints.
type Question struct {
	ID           uuid.UUID `json:"question_id"`
	HomeworkID   uuid.UUID `json:"homework_id"`
	QuestionText string    `json:"question_text"`
	OrderNum     int       `json:"order_num"`
	CreatedAt    time.Time `json:"created_at"`
	Choices      []Choice  `json:"choices"`
}

// Choice is one selectable option of a question.
type Choice struct {
	ID         uuid.UUID `json:"choice_id"`
	QuestionID uuid.UUID `json:"-"`
	ChoiceText string    `json:"choice_text"`
	IsCorrect  bool      `json:"-"`
}
