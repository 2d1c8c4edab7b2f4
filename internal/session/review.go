package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lollipop-edu/lollipop-backend/internal/model"
)

// ReviewItem pairs a question with what the student picked and what was
// actually correct. CorrectChoiceID is nil when the key could not be
// resolved for that question.
type ReviewItem struct {
	Question         model.Question `json:"question"`
	SelectedChoiceID *uuid.UUID     `json:"selected_choice_id"`
	CorrectChoiceID  *uuid.UUID     `json:"correct_choice_id"`
}

// LoadReview populates a review-mode controller: the full question list,
// the student's stored answers, and the per-question correct choices. No
// timers run and nothing is ever written back. A question whose correct
// choice cannot be resolved is kept with the key omitted rather than
// failing the whole review.
func (c *Controller) LoadReview(ctx context.Context) error {
	c.mu.Lock()
	if c.mode != ModeReview {
		c.mu.Unlock()
		return fmt.Errorf("load review on %s session", c.mode)
	}
	c.mu.Unlock()

	questions, err := c.backend.FetchQuestions(ctx, c.homeworkID, c.studentID)
	if err != nil {
		return fmt.Errorf("fetch questions: %w", err)
	}
	if len(questions) == 0 {
		return ErrNoQuestions
	}

	// A failed answer fetch degrades to "nothing recorded" so the review
	// still renders the questions and answer key.
	answers, err := c.backend.FetchAnswers(ctx, c.homeworkID, c.studentID)
	if err != nil && !errors.Is(err, ErrNotFound) {
		c.log.Warn().Err(err).Msg("Failed to fetch answers for review, rendering without selections")
		answers = nil
	}

	selected := make(map[uuid.UUID]*uuid.UUID, len(answers))
	for _, a := range answers {
		selected[a.QuestionID] = a.SelectedChoiceID
	}

	correct := make(map[uuid.UUID]uuid.UUID, len(questions))
	for _, q := range questions {
		id, err := c.backend.FetchCorrectChoice(ctx, q.ID, c.homeworkID)
		if err != nil {
			c.log.Warn().Err(err).Str("question_id", q.ID.String()).Msg("Failed to resolve correct choice for review")
			continue
		}
		correct[q.ID] = id
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.questions = questions
	c.reviewSelected = selected
	c.reviewCorrect = correct
	c.phase = PhaseFinished
	return nil
}

// ReviewItems returns the read-only reconstruction of the whole session in
// question order.
func (c *Controller) ReviewItems() []ReviewItem {
	c.mu.Lock()
	defer c.mu.Unlock()

	items := make([]ReviewItem, 0, len(c.questions))
	for _, q := range c.questions {
		item := ReviewItem{Question: q, SelectedChoiceID: c.reviewSelected[q.ID]}
		if id, ok := c.reviewCorrect[q.ID]; ok {
			cid := id
			item.CorrectChoiceID = &cid
		}
		items = append(items, item)
	}
	return items
}
