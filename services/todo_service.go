package services

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/taskboard/taskboard-api/model"
	"gorm.io/gorm"
)

var (
	// ErrTodoNotFound means the id is well formed but resolves to no record.
	ErrTodoNotFound = errors.New("todo not found")
	// ErrNotOwner means the record exists but belongs to another user.
	ErrNotOwner = errors.New("user not authorized")
	// ErrBatchNotOwned rejects a reorder batch containing ids that are
	// missing or owned by another user. Nothing is written in that case.
	ErrBatchNotOwned = errors.New("one or more todos not found or not authorized")
)

// TodoService orchestrates todo queries, kanban aggregation, and the
// drag-and-drop reorder protocol. All operations are scoped to the
// requesting owner.
type TodoService struct {
	db *gorm.DB
}

// NewTodoService creates a new todo service
func NewTodoService(db *gorm.DB) *TodoService {
	return &TodoService{db: db}
}

// CreateTodoInput carries the fields accepted at creation. Zero values
// fall back to the model defaults (status todo, priority medium, order
// appended to the end of the column).
type CreateTodoInput struct {
	Title       string
	Description string
	Status      model.Status
	Priority    model.Priority
	DueDate     *time.Time
	Order       int
}

// Create inserts a new todo owned by userID.
func (s *TodoService) Create(ctx context.Context, userID uint, in CreateTodoInput) (*model.Todo, error) {
	todo := model.Todo{
		Title:       in.Title,
		Description: in.Description,
		Status:      in.Status,
		Priority:    in.Priority,
		DueDate:     in.DueDate,
		Order:       in.Order,
		UserID:      userID,
	}

	if err := s.db.WithContext(ctx).Create(&todo).Error; err != nil {
		return nil, err
	}

	return &todo, nil
}

// Get fetches a single todo, distinguishing not-found from not-owner.
func (s *TodoService) Get(ctx context.Context, userID uint, id string) (*model.Todo, error) {
	var todo model.Todo
	err := s.db.WithContext(ctx).First(&todo, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrTodoNotFound
	}
	if err != nil {
		return nil, err
	}
	if todo.UserID != userID {
		return nil, ErrNotOwner
	}
	return &todo, nil
}

// UpdateTodoInput carries a partial field set. Nil pointers mean the
// field was omitted and stays untouched. DueDateSet distinguishes an
// explicit `"dueDate": null` (clear the date) from an omitted field.
type UpdateTodoInput struct {
	Title       *string
	Description *string
	Status      *model.Status
	Priority    *model.Priority
	DueDate     *time.Time
	DueDateSet  bool
	Order       *int
}

// Update applies a partial update to a todo owned by userID.
func (s *TodoService) Update(ctx context.Context, userID uint, id string, in UpdateTodoInput) (*model.Todo, error) {
	todo, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if in.Title != nil {
		updates["title"] = *in.Title
	}
	if in.Description != nil {
		updates["description"] = *in.Description
	}
	if in.Status != nil {
		updates["status"] = *in.Status
	}
	if in.Priority != nil {
		updates["priority"] = *in.Priority
	}
	if in.DueDateSet {
		updates["due_date"] = in.DueDate
	}
	if in.Order != nil {
		updates["sort_order"] = *in.Order
	}

	if len(updates) == 0 {
		return todo, nil
	}

	if err := s.db.WithContext(ctx).Model(todo).Updates(updates).Error; err != nil {
		return nil, err
	}

	return s.Get(ctx, userID, id)
}

// Delete permanently removes a todo owned by userID.
func (s *TodoService) Delete(ctx context.Context, userID uint, id string) error {
	todo, err := s.Get(ctx, userID, id)
	if err != nil {
		return err
	}
	return s.db.WithContext(ctx).Delete(todo).Error
}

// ListTodosOptions are the filter and sort parameters of the list view.
// Status and Priority accept comma-separated value lists.
type ListTodosOptions struct {
	Status      string
	Priority    string
	Search      string
	SortBy      string
	SortOrder   string
	DueDateFrom *time.Time
	DueDateTo   *time.Time
	Overdue     bool
}

// List returns the owner's todos filtered and sorted per opts.
func (s *TodoService) List(ctx context.Context, userID uint, opts ListTodosOptions) ([]model.Todo, error) {
	q := s.db.WithContext(ctx).Where("user_id = ?", userID)

	if opts.Overdue {
		// The overdue view overrides explicit status and due-date filters.
		q = q.Where("due_date IS NOT NULL AND due_date < ?", time.Now()).
			Where("status <> ?", model.StatusDone)
	} else {
		if statuses := splitList(opts.Status); len(statuses) > 0 {
			q = q.Where("status IN ?", statuses)
		}
		if opts.DueDateFrom != nil {
			q = q.Where("due_date >= ?", *opts.DueDateFrom)
		}
		if opts.DueDateTo != nil {
			q = q.Where("due_date <= ?", *opts.DueDateTo)
		}
	}

	if priorities := splitList(opts.Priority); len(priorities) > 0 {
		q = q.Where("priority IN ?", priorities)
	}

	if opts.Search != "" {
		pattern := "%" + strings.ToLower(opts.Search) + "%"
		q = q.Where("(LOWER(title) LIKE ? OR LOWER(description) LIKE ?)", pattern, pattern)
	}

	var todos []model.Todo
	if err := q.Order(sortClause(opts.SortBy, opts.SortOrder)).Find(&todos).Error; err != nil {
		return nil, err
	}

	// The store cannot order the priority enum by urgency (lexical order
	// is wrong), so the priority sort re-sorts the materialized result.
	if opts.SortBy == "priority" {
		asc := opts.SortOrder == "asc"
		sort.SliceStable(todos, func(i, j int) bool {
			if asc {
				return todos[i].Priority.Rank() < todos[j].Priority.Rank()
			}
			return todos[i].Priority.Rank() > todos[j].Priority.Rank()
		})
	}

	return todos, nil
}

// sortClause maps a sortBy/sortOrder pair onto a SQL order clause.
// Order sorts ascending by default; dates and title default descending.
func sortClause(sortBy, sortOrder string) string {
	switch sortBy {
	case "priority":
		// DB pass orders by creation time; urgency sort happens in memory.
		return "created_at " + directionDefaultDesc(sortOrder)
	case "dueDate":
		return "due_date " + directionDefaultDesc(sortOrder)
	case "createdAt":
		return "created_at " + directionDefaultDesc(sortOrder)
	case "updatedAt":
		return "updated_at " + directionDefaultDesc(sortOrder)
	case "title":
		return "title " + directionDefaultDesc(sortOrder)
	default: // "order"
		if sortOrder == "desc" {
			return "sort_order desc"
		}
		return "sort_order asc"
	}
}

func directionDefaultDesc(sortOrder string) string {
	if sortOrder == "asc" {
		return "asc"
	}
	return "desc"
}

func splitList(value string) []string {
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// KanbanFilter narrows the kanban view before grouping. Status filtering
// is intentionally absent: grouping is by status.
type KanbanFilter struct {
	Priority    string
	Search      string
	DueDateFrom *time.Time
	DueDateTo   *time.Time
}

// KanbanColumn is one fixed status bucket of the board.
type KanbanColumn struct {
	Status model.Status `json:"status"`
	Title  string       `json:"title"`
	Todos  []model.Todo `json:"todos"`
	Count  int          `json:"count"`
}

// KanbanBoard always carries exactly three columns, present even when
// empty. The board layout is fixed regardless of data.
type KanbanBoard struct {
	Todo       KanbanColumn `json:"todo"`
	InProgress KanbanColumn `json:"in_progress"`
	Done       KanbanColumn `json:"done"`
}

// NewKanbanBoard returns an empty board with all three columns present.
func NewKanbanBoard() *KanbanBoard {
	return &KanbanBoard{
		Todo:       KanbanColumn{Status: model.StatusTodo, Title: model.StatusTodo.Title(), Todos: []model.Todo{}},
		InProgress: KanbanColumn{Status: model.StatusInProgress, Title: model.StatusInProgress.Title(), Todos: []model.Todo{}},
		Done:       KanbanColumn{Status: model.StatusDone, Title: model.StatusDone.Title(), Todos: []model.Todo{}},
	}
}

// Column returns the column for a status, or nil for an unknown status.
func (b *KanbanBoard) Column(status model.Status) *KanbanColumn {
	switch status {
	case model.StatusTodo:
		return &b.Todo
	case model.StatusInProgress:
		return &b.InProgress
	case model.StatusDone:
		return &b.Done
	}
	return nil
}

// Kanban groups the owner's todos into the three fixed columns, ordered
// by their in-column order, in a single read pass.
func (s *TodoService) Kanban(ctx context.Context, userID uint, filter KanbanFilter) (*KanbanBoard, error) {
	q := s.db.WithContext(ctx).Where("user_id = ?", userID)

	if priorities := splitList(filter.Priority); len(priorities) > 0 {
		q = q.Where("priority IN ?", priorities)
	}
	if filter.DueDateFrom != nil {
		q = q.Where("due_date >= ?", *filter.DueDateFrom)
	}
	if filter.DueDateTo != nil {
		q = q.Where("due_date <= ?", *filter.DueDateTo)
	}
	if filter.Search != "" {
		pattern := "%" + strings.ToLower(filter.Search) + "%"
		q = q.Where("(LOWER(title) LIKE ? OR LOWER(description) LIKE ?)", pattern, pattern)
	}

	var todos []model.Todo
	if err := q.Order("sort_order asc").Find(&todos).Error; err != nil {
		return nil, err
	}

	board := NewKanbanBoard()
	for _, t := range todos {
		col := board.Column(t.Status)
		if col == nil {
			continue
		}
		col.Todos = append(col.Todos, t)
		col.Count++
	}

	return board, nil
}

// StatusCounts breaks the total down by each of the three statuses.
type StatusCounts struct {
	Todo       int `json:"todo"`
	InProgress int `json:"in_progress"`
	Done       int `json:"done"`
}

// PriorityCounts breaks the total down by each of the four priorities.
type PriorityCounts struct {
	Low    int `json:"low"`
	Medium int `json:"medium"`
	High   int `json:"high"`
	Urgent int `json:"urgent"`
}

// TodoStats is the statistics view over the owner's full todo set.
type TodoStats struct {
	Total      int            `json:"total"`
	Overdue    int            `json:"overdue"`
	DueToday   int            `json:"dueToday"`
	ByStatus   StatusCounts   `json:"byStatus"`
	ByPriority PriorityCounts `json:"byPriority"`
}

// Stats computes all five facets from one consistent snapshot: a single
// read, so interleaved writes cannot skew totals across facets within
// one response.
func (s *TodoService) Stats(ctx context.Context, userID uint) (*TodoStats, error) {
	var todos []model.Todo
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).Find(&todos).Error; err != nil {
		return nil, err
	}

	now := time.Now()
	startOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	endOfDay := startOfDay.Add(24 * time.Hour)

	stats := &TodoStats{Total: len(todos)}
	for _, t := range todos {
		switch t.Status {
		case model.StatusTodo:
			stats.ByStatus.Todo++
		case model.StatusInProgress:
			stats.ByStatus.InProgress++
		case model.StatusDone:
			stats.ByStatus.Done++
		}

		switch t.Priority {
		case model.PriorityLow:
			stats.ByPriority.Low++
		case model.PriorityMedium:
			stats.ByPriority.Medium++
		case model.PriorityHigh:
			stats.ByPriority.High++
		case model.PriorityUrgent:
			stats.ByPriority.Urgent++
		}

		if t.DueDate != nil && t.Status != model.StatusDone {
			if t.DueDate.Before(now) {
				stats.Overdue++
			}
			if !t.DueDate.Before(startOfDay) && t.DueDate.Before(endOfDay) {
				stats.DueToday++
			}
		}
	}

	return stats, nil
}

// ReorderItem is one desired final state in a reorder batch. An empty
// Status leaves the todo's current status unchanged (in-column move).
type ReorderItem struct {
	ID     string       `json:"id"`
	Order  int          `json:"order"`
	Status model.Status `json:"status,omitempty"`
}

// Reorder applies a drag-and-drop batch. Ownership of every referenced
// id is verified as a single precondition before any write; a batch
// containing a missing or foreign id is rejected in full. The writes
// themselves are independent per-item updates — inter-item atomicity is
// not guaranteed, only the pre-check gate.
func (s *TodoService) Reorder(ctx context.Context, userID uint, items []ReorderItem) ([]model.Todo, error) {
	ids := make([]string, 0, len(items))
	seen := make(map[string]struct{}, len(items))
	for _, it := range items {
		if _, ok := seen[it.ID]; ok {
			continue
		}
		seen[it.ID] = struct{}{}
		ids = append(ids, it.ID)
	}

	var owned int64
	err := s.db.WithContext(ctx).Model(&model.Todo{}).
		Where("id IN ? AND user_id = ?", ids, userID).
		Count(&owned).
		Error
	if err != nil {
		return nil, err
	}
	if owned != int64(len(ids)) {
		return nil, ErrBatchNotOwned
	}

	for _, it := range items {
		updates := map[string]interface{}{"sort_order": it.Order}
		if it.Status != "" {
			updates["status"] = it.Status
		}
		err := s.db.WithContext(ctx).Model(&model.Todo{}).
			Where("id = ? AND user_id = ?", it.ID, userID).
			Updates(updates).
			Error
		if err != nil {
			return nil, err
		}
	}

	var todos []model.Todo
	err = s.db.WithContext(ctx).
		Where("id IN ?", ids).
		Order("sort_order asc").
		Find(&todos).
		Error
	if err != nil {
		return nil, err
	}

	return todos, nil
}
