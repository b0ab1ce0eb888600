package database

import (
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/taskboard/taskboard-api/model"
	"github.com/taskboard/taskboard-api/utils/auth"
	"gorm.io/gorm"
)

// Seeder handles database seeding operations
type Seeder struct {
	db *gorm.DB
}

// NewSeeder creates a new seeder instance
func NewSeeder(db *gorm.DB) *Seeder {
	return &Seeder{db: db}
}

// RunSeeds executes all seed functions against the given connection
func RunSeeds(db *gorm.DB) error {
	return NewSeeder(db).SeedAll()
}

// SeedAll runs all seed functions
func (s *Seeder) SeedAll() error {
	log.Println("Starting database seeding...")

	user, err := s.SeedDemoUser()
	if err != nil {
		return fmt.Errorf("failed to seed demo user: %w", err)
	}
	if user == nil {
		log.Println("Demo user not configured, nothing to seed")
		return nil
	}

	if err := s.SeedDemoBoard(user); err != nil {
		return fmt.Errorf("failed to seed demo board: %w", err)
	}

	log.Println("Database seeding completed successfully!")
	return nil
}

// SeedDemoUser creates the demo account from DEMO_EMAIL / DEMO_PASSWORD.
// When the variables are unset, seeding is skipped entirely.
func (s *Seeder) SeedDemoUser() (*model.User, error) {
	demoEmail := os.Getenv("DEMO_EMAIL")
	demoPassword := os.Getenv("DEMO_PASSWORD")
	if demoEmail == "" || demoPassword == "" {
		log.Println("DEMO_EMAIL and DEMO_PASSWORD environment variables not set, skipping demo user creation")
		return nil, nil
	}

	var existing model.User
	err := s.db.Where("email = ?", demoEmail).First(&existing).Error
	if err == nil {
		log.Println("Demo user already exists, skipping...")
		return &existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	passwordHash, err := auth.HashPassword(demoPassword)
	if err != nil {
		return nil, err
	}

	user := model.User{
		Email:        demoEmail,
		Name:         "Demo User",
		PasswordHash: passwordHash,
	}
	if err := s.db.Create(&user).Error; err != nil {
		return nil, err
	}

	log.Printf("Created demo user: %s", demoEmail)
	return &user, nil
}

// SeedDemoBoard fills the demo user's board with a handful of todos
// spread across all three columns. Idempotent: an account that already
// owns todos is left alone.
func (s *Seeder) SeedDemoBoard(user *model.User) error {
	var count int64
	if err := s.db.Model(&model.Todo{}).Where("user_id = ?", user.ID).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		log.Println("Demo board already has todos, skipping...")
		return nil
	}

	tomorrow := time.Now().Add(24 * time.Hour)
	nextWeek := time.Now().Add(7 * 24 * time.Hour)
	yesterday := time.Now().Add(-24 * time.Hour)

	todos := []model.Todo{
		{Title: "Review project proposal", Description: "Go through the draft and leave comments", Status: model.StatusTodo, Priority: model.PriorityHigh, DueDate: &tomorrow, Order: 1, UserID: user.ID},
		{Title: "Plan sprint backlog", Status: model.StatusTodo, Priority: model.PriorityMedium, DueDate: &nextWeek, Order: 2, UserID: user.ID},
		{Title: "Renew gym membership", Status: model.StatusTodo, Priority: model.PriorityLow, DueDate: &yesterday, Order: 3, UserID: user.ID},
		{Title: "Write quarterly report", Description: "Numbers are in the shared spreadsheet", Status: model.StatusInProgress, Priority: model.PriorityUrgent, DueDate: &tomorrow, Order: 1, UserID: user.ID},
		{Title: "Fix login page styling", Status: model.StatusInProgress, Priority: model.PriorityMedium, Order: 2, UserID: user.ID},
		{Title: "Set up CI pipeline", Status: model.StatusDone, Priority: model.PriorityHigh, Order: 1, UserID: user.ID},
	}

	for i := range todos {
		if err := s.db.Create(&todos[i]).Error; err != nil {
			return err
		}
	}

	log.Printf("Seeded %d todos for the demo board", len(todos))
	return nil
}
