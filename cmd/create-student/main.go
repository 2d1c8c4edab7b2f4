package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"syscall"

	"golang.org/x/term"

	"github.com/lollipop-edu/lollipop-backend/internal/config"
	"github.com/lollipop-edu/lollipop-backend/internal/database"
	"github.com/lollipop-edu/lollipop-backend/internal/logger"
	"github.com/lollipop-edu/lollipop-backend/internal/model"
	"github.com/lollipop-edu/lollipop-backend/internal/repository"
	"github.com/lollipop-edu/lollipop-backend/internal/service"
)

func main() {
	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()

	// ─── Initialize Logger ─────────────────────────────────────────────
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)

	ctx := context.Background()

	// ─── Connect to PostgreSQL ─────────────────────────────────────────
	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	// ─── Initialize Service ────────────────────────────────────────────
	studentRepo := repository.NewStudentRepository(pool)
	classRepo := repository.NewClassRepository(pool)
	authService := service.NewAuthService(cfg, nil)
	studentService := service.NewStudentService(studentRepo, authService)

	// ─── CLI Input ─────────────────────────────────────────────────────
	reader := bufio.NewReader(os.Stdin)

	fmt.Println("=== Create New Student ===")

	// Name
	fmt.Print("Enter Name: ")
	name, _ := reader.ReadString('\n')
	name = strings.TrimSpace(name)
	if name == "" {
		fmt.Println("Error: Name is required")
		return
	}

	// Student Code
	fmt.Print("Enter Student Code: ")
	code, _ := reader.ReadString('\n')
	code = strings.TrimSpace(code)
	if code == "" {
		fmt.Println("Error: Student Code is required")
		return
	}

	// Class ID
	fmt.Print("Enter Class ID: ")
	classIDStr, _ := reader.ReadString('\n')
	classIDStr = strings.TrimSpace(classIDStr)
	classID, err := strconv.Atoi(classIDStr)
	if err != nil {
		fmt.Println("Error: Class ID must be a number")
		return
	}
	if _, err := classRepo.GetByID(ctx, classID); err != nil {
		fmt.Printf("Error: Class %d not found\n", classID)
		return
	}

	// Password
	fmt.Print("Enter Password: ")
	bytePassword, err := term.ReadPassword(int(syscall.Stdin))
	if err != nil {
		fmt.Println("\nError reading password")
		return
	}
	password := string(bytePassword)
	fmt.Println() // Newline after password input
	if len(password) < 6 {
		fmt.Println("Error: Password must be at least 6 characters")
		return
	}

	// ─── Logic ─────────────────────────────────────────────────────────
	newStudent := &model.Student{
		StudentCode: code,
		Name:        name,
		ClassID:     classID,
	}

	if err := studentService.Create(ctx, newStudent, password); err != nil {
		log.Fatal().Err(err).Msg("Failed to create student")
	}

	fmt.Printf("\nSuccess! Student '%s' (%s) created with ID: %d\n", newStudent.Name, newStudent.StudentCode, newStudent.ID)
}
