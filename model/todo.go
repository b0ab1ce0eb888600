package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Status represents the kanban column a todo lives in.
type Status string

const (
	StatusTodo       Status = "todo"
	StatusInProgress Status = "in_progress"
	StatusDone       Status = "done"
)

// Statuses lists all valid statuses in board display order.
func Statuses() []Status {
	return []Status{StatusTodo, StatusInProgress, StatusDone}
}

// IsValid reports whether s is one of the three defined statuses.
func (s Status) IsValid() bool {
	return s == StatusTodo || s == StatusInProgress || s == StatusDone
}

// Title returns the human-readable column title for the status.
func (s Status) Title() string {
	switch s {
	case StatusTodo:
		return "To Do"
	case StatusInProgress:
		return "In Progress"
	case StatusDone:
		return "Done"
	}
	return string(s)
}

// Priority represents the urgency of a todo.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// Priorities lists all valid priorities from least to most urgent.
func Priorities() []Priority {
	return []Priority{PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent}
}

// IsValid reports whether p is one of the four defined priorities.
func (p Priority) IsValid() bool {
	return p == PriorityLow || p == PriorityMedium || p == PriorityHigh || p == PriorityUrgent
}

// Rank returns the numeric urgency of the priority (urgent=4 ... low=1).
// Lexical ordering of the enum strings does not match urgency, so sorting
// by priority always goes through this rank.
func (p Priority) Rank() int {
	switch p {
	case PriorityUrgent:
		return 4
	case PriorityHigh:
		return 3
	case PriorityMedium:
		return 2
	case PriorityLow:
		return 1
	}
	return 0
}

const (
	// TitleMaxLength is the maximum title length after trimming
	TitleMaxLength = 200
	// DescriptionMaxLength is the maximum description length
	DescriptionMaxLength = 2000
)

// Todo represents a single task on a user's board. Its position on the
// kanban board is fully determined by (Status, Order).
type Todo struct {
	ID          string     `gorm:"primaryKey;type:uuid" json:"id"`
	Title       string     `gorm:"not null;size:200" json:"title"`
	Description string     `gorm:"size:2000;default:''" json:"description"`
	Status      Status     `gorm:"type:varchar(20);not null;default:'todo';index:idx_todos_user_status_order,priority:2" json:"status"`
	Priority    Priority   `gorm:"type:varchar(20);not null;default:'medium';index" json:"priority"`
	DueDate     *time.Time `gorm:"index" json:"dueDate"`
	Order       int        `gorm:"column:sort_order;not null;default:0;index:idx_todos_user_status_order,priority:3" json:"order"`
	UserID      uint       `gorm:"not null;index:idx_todos_user_status_order,priority:1" json:"user"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// BeforeCreate assigns the ID and places the todo at the end of its
// column when no explicit order was supplied.
func (t *Todo) BeforeCreate(tx *gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if t.Status == "" {
		t.Status = StatusTodo
	}
	if t.Priority == "" {
		t.Priority = PriorityMedium
	}
	if t.Order == 0 {
		var maxOrder int
		err := tx.Model(&Todo{}).
			Where("user_id = ? AND status = ?", t.UserID, t.Status).
			Select("COALESCE(MAX(sort_order), 0)").
			Scan(&maxOrder).
			Error
		if err != nil {
			return err
		}
		t.Order = maxOrder + 1
	}
	return nil
}
