package todo

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/google/uuid"
	"github.com/taskboard/taskboard-api/model"
	"github.com/taskboard/taskboard-api/services"
	"github.com/taskboard/taskboard-api/utils/middleware"
	"github.com/taskboard/taskboard-api/utils/response"
	"github.com/taskboard/taskboard-api/utils/validation"
)

// TodoHandler handles todo-related API endpoints
type TodoHandler struct {
	todoService *services.TodoService
	validator   *validation.Validator
}

// NewTodoHandler creates a new todo handler
func NewTodoHandler(todoService *services.TodoService) *TodoHandler {
	return &TodoHandler{
		todoService: todoService,
		validator:   validation.NewValidator(),
	}
}

// CreateTodoRequest represents a todo creation request
type CreateTodoRequest struct {
	Title       string     `json:"title" validate:"required,max=200"`
	Description string     `json:"description" validate:"max=2000"`
	Status      string     `json:"status" validate:"omitempty,oneof=todo in_progress done"`
	Priority    string     `json:"priority" validate:"omitempty,oneof=low medium high urgent"`
	DueDate     *time.Time `json:"dueDate"`
	Order       int        `json:"order" validate:"gte=0"`
}

// Create handles POST /api/v1/todos
func (h *TodoHandler) Create(c *fiber.Ctx) error {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "User not authenticated")
	}

	var req CreateTodoRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	req.Title = validation.SanitizeString(req.Title)
	req.Description = validation.SanitizeString(req.Description)

	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationFailed(c, validation.FormatValidationErrors(err))
	}

	todo, err := h.todoService.Create(c.Context(), userID, services.CreateTodoInput{
		Title:       req.Title,
		Description: req.Description,
		Status:      model.Status(req.Status),
		Priority:    model.Priority(req.Priority),
		DueDate:     req.DueDate,
		Order:       req.Order,
	})
	if err != nil {
		log.Errorf("create todo: %v", err)
		return response.InternalServerError(c, "Failed to create todo")
	}

	return response.Created(c, "Todo created successfully", todo)
}

// List handles GET /api/v1/todos with filtering, searching, and sorting
func (h *TodoHandler) List(c *fiber.Ctx) error {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "User not authenticated")
	}

	opts := services.ListTodosOptions{
		Status:    c.Query("status"),
		Priority:  c.Query("priority"),
		Search:    c.Query("search"),
		SortBy:    c.Query("sortBy", "order"),
		SortOrder: c.Query("sortOrder"),
		Overdue:   c.Query("overdue") == "true",
	}

	var err error
	if opts.DueDateFrom, err = parseDateQuery(c.Query("dueDateFrom")); err != nil {
		return response.BadRequest(c, "Invalid dueDateFrom date")
	}
	if opts.DueDateTo, err = parseDateQuery(c.Query("dueDateTo")); err != nil {
		return response.BadRequest(c, "Invalid dueDateTo date")
	}

	todos, err := h.todoService.List(c.Context(), userID, opts)
	if err != nil {
		log.Errorf("list todos: %v", err)
		return response.InternalServerError(c, "Failed to retrieve todos")
	}

	return response.SuccessWithCount(c, "All Todos retrieved successfully", todos, len(todos))
}

// Kanban handles GET /api/v1/todos/kanban
func (h *TodoHandler) Kanban(c *fiber.Ctx) error {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "User not authenticated")
	}

	filter := services.KanbanFilter{
		Priority: c.Query("priority"),
		Search:   c.Query("search"),
	}

	var err error
	if filter.DueDateFrom, err = parseDateQuery(c.Query("dueDateFrom")); err != nil {
		return response.BadRequest(c, "Invalid dueDateFrom date")
	}
	if filter.DueDateTo, err = parseDateQuery(c.Query("dueDateTo")); err != nil {
		return response.BadRequest(c, "Invalid dueDateTo date")
	}

	board, err := h.todoService.Kanban(c.Context(), userID, filter)
	if err != nil {
		log.Errorf("kanban board: %v", err)
		return response.InternalServerError(c, "Failed to retrieve kanban board")
	}

	return response.Success(c, "Kanban board data retrieved successfully", board)
}

// Stats handles GET /api/v1/todos/stats
func (h *TodoHandler) Stats(c *fiber.Ctx) error {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "User not authenticated")
	}

	stats, err := h.todoService.Stats(c.Context(), userID)
	if err != nil {
		log.Errorf("todo stats: %v", err)
		return response.InternalServerError(c, "Failed to retrieve statistics")
	}

	return response.Success(c, "Statistics retrieved successfully", stats)
}

// GetByID handles GET /api/v1/todos/:id
func (h *TodoHandler) GetByID(c *fiber.Ctx) error {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "User not authenticated")
	}

	id := c.Params("id")
	if _, err := uuid.Parse(id); err != nil {
		return response.BadRequest(c, "Invalid ID format")
	}

	todo, err := h.todoService.Get(c.Context(), userID, id)
	if err != nil {
		return h.todoError(c, id, err)
	}

	return response.Success(c, "Todo found successfully", todo)
}

// UpdateTodoRequest represents a partial todo update. It tracks which
// keys were present in the body so that an explicit null can be told
// apart from an omitted field.
type UpdateTodoRequest struct {
	Title       *string    `json:"title"`
	Description *string    `json:"description"`
	Status      *string    `json:"status"`
	Priority    *string    `json:"priority"`
	DueDate     *time.Time `json:"dueDate"`
	Order       *int       `json:"order"`

	provided map[string]bool
}

func (r *UpdateTodoRequest) UnmarshalJSON(data []byte) error {
	type alias UpdateTodoRequest
	var a alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	a.provided = make(map[string]bool, len(raw))
	for k := range raw {
		a.provided[k] = true
	}

	*r = UpdateTodoRequest(a)
	return nil
}

// Provided reports whether the named key appeared in the request body.
func (r *UpdateTodoRequest) Provided(field string) bool {
	return r.provided[field]
}

// validate checks the partial field set and returns all violations at once.
func (r *UpdateTodoRequest) validate() map[string]string {
	fieldErrors := map[string]string{}

	if r.Provided("title") {
		if r.Title == nil {
			fieldErrors["title"] = "Title cannot be empty"
		} else {
			title := validation.SanitizeString(*r.Title)
			if title == "" {
				fieldErrors["title"] = "Title cannot be empty"
			} else if len(title) > model.TitleMaxLength {
				fieldErrors["title"] = fmt.Sprintf("Title cannot exceed %d characters", model.TitleMaxLength)
			}
			r.Title = &title
		}
	}

	if r.Provided("description") && r.Description != nil {
		if len(*r.Description) > model.DescriptionMaxLength {
			fieldErrors["description"] = fmt.Sprintf("Description cannot exceed %d characters", model.DescriptionMaxLength)
		}
	}

	if r.Provided("status") {
		if r.Status == nil || !model.Status(*r.Status).IsValid() {
			fieldErrors["status"] = "Status must be: 'todo', 'in_progress', or 'done'"
		}
	}

	if r.Provided("priority") {
		if r.Priority == nil || !model.Priority(*r.Priority).IsValid() {
			fieldErrors["priority"] = "Priority must be: 'low', 'medium', 'high', or 'urgent'"
		}
	}

	if r.Provided("order") {
		if r.Order == nil || *r.Order < 0 {
			fieldErrors["order"] = "Order must be a positive integer"
		}
	}

	return fieldErrors
}

// Update handles PUT /api/v1/todos/:id with partial update semantics
func (h *TodoHandler) Update(c *fiber.Ctx) error {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "User not authenticated")
	}

	id := c.Params("id")
	if _, err := uuid.Parse(id); err != nil {
		return response.BadRequest(c, "Invalid ID format")
	}

	var req UpdateTodoRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	if fieldErrors := req.validate(); len(fieldErrors) > 0 {
		return response.ValidationFailed(c, fieldErrors)
	}

	in := services.UpdateTodoInput{
		Title:       req.Title,
		Description: req.Description,
		Order:       req.Order,
	}
	if req.Provided("description") && req.Description == nil {
		empty := ""
		in.Description = &empty
	}
	if req.Status != nil {
		status := model.Status(*req.Status)
		in.Status = &status
	}
	if req.Priority != nil {
		priority := model.Priority(*req.Priority)
		in.Priority = &priority
	}
	if req.Provided("dueDate") {
		in.DueDateSet = true
		in.DueDate = req.DueDate
	}

	todo, err := h.todoService.Update(c.Context(), userID, id, in)
	if err != nil {
		return h.todoError(c, id, err)
	}

	return response.Success(c, "Todo updated successfully", todo)
}

// ReorderTodoItem is one entry of a reorder batch
type ReorderTodoItem struct {
	ID     string `json:"id" validate:"required,uuid"`
	Order  int    `json:"order" validate:"gte=0"`
	Status string `json:"status" validate:"omitempty,oneof=todo in_progress done"`
}

// ReorderTodosRequest represents a drag-and-drop reorder batch
type ReorderTodosRequest struct {
	Todos []ReorderTodoItem `json:"todos" validate:"required,min=1,dive"`
}

// Reorder handles PUT /api/v1/todos/reorder
func (h *TodoHandler) Reorder(c *fiber.Ctx) error {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "User not authenticated")
	}

	var req ReorderTodosRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationFailed(c, validation.FormatValidationErrors(err))
	}

	items := make([]services.ReorderItem, len(req.Todos))
	for i, t := range req.Todos {
		items[i] = services.ReorderItem{
			ID:     t.ID,
			Order:  t.Order,
			Status: model.Status(t.Status),
		}
	}

	todos, err := h.todoService.Reorder(c.Context(), userID, items)
	if err != nil {
		if errors.Is(err, services.ErrBatchNotOwned) {
			return response.Unauthorized(c, "One or more todos not found or not authorized")
		}
		log.Errorf("reorder todos: %v", err)
		return response.InternalServerError(c, "Failed to reorder todos")
	}

	return response.Success(c, "Todos reordered successfully", todos)
}

// Delete handles DELETE /api/v1/todos/:id
func (h *TodoHandler) Delete(c *fiber.Ctx) error {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "User not authenticated")
	}

	id := c.Params("id")
	if _, err := uuid.Parse(id); err != nil {
		return response.BadRequest(c, "Invalid ID format")
	}

	if err := h.todoService.Delete(c.Context(), userID, id); err != nil {
		return h.todoError(c, id, err)
	}

	return response.Success(c, "Todo deleted successfully", fiber.Map{"id": id})
}

// todoError maps service errors onto the envelope, keeping not-found
// distinct from not-owner.
func (h *TodoHandler) todoError(c *fiber.Ctx, id string, err error) error {
	switch {
	case errors.Is(err, services.ErrTodoNotFound):
		return response.NotFound(c, fmt.Sprintf("No Todo found with ID %s", id))
	case errors.Is(err, services.ErrNotOwner):
		return response.Unauthorized(c, "User not authorized")
	default:
		log.Errorf("todo %s: %v", id, err)
		return response.InternalServerError(c, "")
	}
}

// parseDateQuery accepts RFC3339 timestamps or plain dates.
func parseDateQuery(value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return &t, nil
	}
	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
