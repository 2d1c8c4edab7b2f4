package model

import (
	"time"

	"github.com/google/uuid"
)

// Answer records a student's submission for one question. At most one row
// exists per (question_id, student_id); re-submission updates the row.
// A nil SelectedChoiceID is a valid value: it marks a reached-but-unanswered
// question (the "started" placeholder or a timer-forced empty submission).
type Answer struct {
	ID               uuid.UUID  `json:"id"`
	QuestionID       uuid.UUID  `json:"question_id"`
	StudentID        int        `json:"student_id"`
	SelectedChoiceID *uuid.UUID `json:"selected_choice_id"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// SubmitAnswerRequest is the payload for recording an answer.
// SelectedChoiceID is deliberately optional: absence means "no choice".
type SubmitAnswerRequest struct {
	QuestionID       string  `json:"question_id" binding:"required,uuid"`
	SelectedChoiceID *string `json:"selected_choice_id" binding:"omitempty,uuid"`
	TotalQuestions   int     `json:"total_questions" binding:"required,min=1"`
}
