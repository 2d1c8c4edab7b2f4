package config

import (
	"fmt"
)

type CacheKeyStruct struct{}

func NewCacheKeyStruct() *CacheKeyStruct {
	return &CacheKeyStruct{}
}

// StudentSessionKey returns the cache key for a student's login session
func (r *CacheKeyStruct) StudentSessionKey(studentID int) string {
	return fmt.Sprintf("login:%d", studentID)
}

// StudentAnswersKey returns the cache key for a student's answers on a homework
func (r *CacheKeyStruct) StudentAnswersKey(homeworkID string, studentID int) string {
	return fmt.Sprintf("student:%d:homework:%s:answers", studentID, homeworkID)
}

// HomeworkAnswerKey returns the cache key for a homework's correct-choice map
func (r *CacheKeyStruct) HomeworkAnswerKey(homeworkID string) string {
	return fmt.Sprintf("homework:%s:key", homeworkID)
}

// CorrectChoiceKey returns the cache key for a single question's correct choice
func (r *CacheKeyStruct) CorrectChoiceKey(questionID string) string {
	return fmt.Sprintf("question:%s:correct_choice", questionID)
}

var CacheKey = NewCacheKeyStruct()
