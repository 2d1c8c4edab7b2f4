package model

import "time"

// Student represents a registered student account.
type Student struct {
	ID           int       `json:"id"`
	StudentCode  string    `json:"student_code"`
	Name         string    `json:"name"`
	ClassID      int       `json:"class_id"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// StudentLoginRequest is the payload for a student login.
type StudentLoginRequest struct {
	StudentCode string `json:"student_code" binding:"required,min=3,max=32,student_code"`
	Password    string `json:"password" binding:"required,min=6,max=72"`
}
