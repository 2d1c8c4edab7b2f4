package model

import (
	"time"

	"github.com/google/uuid"
)

// HomeworkState enumerates the question-generation lifecycle of a homework.
// Questions are produced by an external generator; this service only reads
// homeworks that reached QUESTIONS_GENERATED.
type HomeworkState string

const (
	HomeworkStateNotAssigned        HomeworkState = "NOT_ASSIGNED"
	HomeworkStateGenerating         HomeworkState = "GENERATING_QUESTIONS"
	HomeworkStateQuestionsGenerated HomeworkState = "QUESTIONS_GENERATED"
	HomeworkStateCompleted          HomeworkState = "COMPLETED"
	HomeworkStateFailed             HomeworkState = "FAILED"
)

// Homework represents one assignment for which a quiz has been generated.
type Homework struct {
	ID          uuid.UUID     `json:"id"`
	ClassID     int           `json:"class_id"`
	Title       string        `json:"title"`
	Description *string       `json:"description,omitempty"`
	DueDate     *time.Time    `json:"due_date,omitempty"`
	State       HomeworkState `json:"state"`
	CreatedAt   time.Time     `json:"created_at"`
}
