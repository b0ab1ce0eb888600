package todo

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/taskboard/taskboard-api/model"
	"github.com/taskboard/taskboard-api/services"
)

func newTestApp(t *testing.T) (*fiber.App, *services.TodoService, uint) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(&model.User{}, &model.Todo{}))

	user := model.User{Email: "alice@example.com", Name: "Alice", PasswordHash: "x"}
	require.NoError(t, db.Create(&user).Error)

	svc := services.NewTodoService(db)
	handler := NewTodoHandler(svc)

	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		c.Locals("user_id", user.ID)
		return c.Next()
	})

	todos := app.Group("/api/v1/todos")
	todos.Get("/stats", handler.Stats)
	todos.Get("/kanban", handler.Kanban)
	todos.Put("/reorder", handler.Reorder)
	todos.Post("/", handler.Create)
	todos.Get("/", handler.List)
	todos.Get("/:id", handler.GetByID)
	todos.Put("/:id", handler.Update)
	todos.Delete("/:id", handler.Delete)

	return app, svc, user.ID
}

type envelope struct {
	Success bool              `json:"success"`
	Message string            `json:"message"`
	Data    json.RawMessage   `json:"data"`
	Error   string            `json:"error"`
	Errors  map[string]string `json:"errors"`
	Count   *int              `json:"count"`
}

func doJSON(t *testing.T, app *fiber.App, method, path string, body interface{}) (int, envelope) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")

	res, err := app.Test(req, -1)
	require.NoError(t, err)
	defer res.Body.Close()

	var env envelope
	require.NoError(t, json.NewDecoder(res.Body).Decode(&env))
	return res.StatusCode, env
}

func TestCreateEndpoint(t *testing.T) {
	app, _, _ := newTestApp(t)

	status, env := doJSON(t, app, http.MethodPost, "/api/v1/todos/", fiber.Map{"title": "Buy milk"})

	assert.Equal(t, http.StatusCreated, status)
	assert.True(t, env.Success)
	assert.Equal(t, "Todo created successfully", env.Message)

	var todo model.Todo
	require.NoError(t, json.Unmarshal(env.Data, &todo))
	assert.NotEmpty(t, todo.ID)
	assert.Equal(t, model.StatusTodo, todo.Status)
	assert.Equal(t, model.PriorityMedium, todo.Priority)
	assert.Equal(t, 1, todo.Order)
}

func TestCreateRejectsMissingTitle(t *testing.T) {
	app, _, _ := newTestApp(t)

	status, env := doJSON(t, app, http.MethodPost, "/api/v1/todos/", fiber.Map{"description": "no title"})

	assert.Equal(t, http.StatusBadRequest, status)
	assert.False(t, env.Success)
	assert.Contains(t, env.Errors, "title")
}

func TestCreateRejectsUnknownStatus(t *testing.T) {
	app, _, _ := newTestApp(t)

	status, env := doJSON(t, app, http.MethodPost, "/api/v1/todos/", fiber.Map{
		"title":  "bad status",
		"status": "archived",
	})

	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, env.Errors, "status")
}

func TestListReturnsCount(t *testing.T) {
	app, svc, userID := newTestApp(t)

	for _, title := range []string{"a", "b", "c"} {
		_, err := svc.Create(t.Context(), userID, services.CreateTodoInput{Title: title})
		require.NoError(t, err)
	}

	status, env := doJSON(t, app, http.MethodGet, "/api/v1/todos/", nil)

	assert.Equal(t, http.StatusOK, status)
	require.NotNil(t, env.Count)
	assert.Equal(t, 3, *env.Count)
}

func TestListRejectsBadDate(t *testing.T) {
	app, _, _ := newTestApp(t)

	status, env := doJSON(t, app, http.MethodGet, "/api/v1/todos/?dueDateFrom=not-a-date", nil)

	assert.Equal(t, http.StatusBadRequest, status)
	assert.False(t, env.Success)
}

func TestGetRejectsMalformedID(t *testing.T) {
	app, _, _ := newTestApp(t)

	status, env := doJSON(t, app, http.MethodGet, "/api/v1/todos/not-a-uuid", nil)

	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Invalid ID format", env.Error)
}

func TestGetUnknownIDIsNotFound(t *testing.T) {
	app, _, _ := newTestApp(t)

	id := "00000000-0000-0000-0000-000000000000"
	status, env := doJSON(t, app, http.MethodGet, "/api/v1/todos/"+id, nil)

	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "No Todo found with ID "+id, env.Error)
}

func TestUpdateKeepsOmittedDueDate(t *testing.T) {
	app, svc, userID := newTestApp(t)

	due := time.Now().Add(24 * time.Hour)
	created, err := svc.Create(t.Context(), userID, services.CreateTodoInput{Title: "Dated", DueDate: &due})
	require.NoError(t, err)

	status, env := doJSON(t, app, http.MethodPut, "/api/v1/todos/"+created.ID, fiber.Map{"title": "Renamed"})

	assert.Equal(t, http.StatusOK, status)
	var todo model.Todo
	require.NoError(t, json.Unmarshal(env.Data, &todo))
	assert.Equal(t, "Renamed", todo.Title)
	assert.NotNil(t, todo.DueDate)
}

func TestUpdateExplicitNullClearsDueDate(t *testing.T) {
	app, svc, userID := newTestApp(t)

	due := time.Now().Add(24 * time.Hour)
	created, err := svc.Create(t.Context(), userID, services.CreateTodoInput{Title: "Dated", DueDate: &due})
	require.NoError(t, err)

	status, env := doJSON(t, app, http.MethodPut, "/api/v1/todos/"+created.ID, map[string]interface{}{
		"dueDate": nil,
	})

	assert.Equal(t, http.StatusOK, status)
	var todo model.Todo
	require.NoError(t, json.Unmarshal(env.Data, &todo))
	assert.Nil(t, todo.DueDate)
}

func TestUpdateCollectsAllFieldErrors(t *testing.T) {
	app, svc, userID := newTestApp(t)

	created, err := svc.Create(t.Context(), userID, services.CreateTodoInput{Title: "Valid"})
	require.NoError(t, err)

	status, env := doJSON(t, app, http.MethodPut, "/api/v1/todos/"+created.ID, map[string]interface{}{
		"title":    "   ",
		"status":   "archived",
		"priority": "severe",
	})

	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, env.Errors, "title")
	assert.Contains(t, env.Errors, "status")
	assert.Contains(t, env.Errors, "priority")
}

func TestDeleteReturnsDeletedID(t *testing.T) {
	app, svc, userID := newTestApp(t)

	created, err := svc.Create(t.Context(), userID, services.CreateTodoInput{Title: "Doomed"})
	require.NoError(t, err)

	status, env := doJSON(t, app, http.MethodDelete, "/api/v1/todos/"+created.ID, nil)

	assert.Equal(t, http.StatusOK, status)
	var data map[string]string
	require.NoError(t, json.Unmarshal(env.Data, &data))
	assert.Equal(t, created.ID, data["id"])

	status, _ = doJSON(t, app, http.MethodGet, "/api/v1/todos/"+created.ID, nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestReorderEndpoint(t *testing.T) {
	app, svc, userID := newTestApp(t)

	a, err := svc.Create(t.Context(), userID, services.CreateTodoInput{Title: "a"})
	require.NoError(t, err)
	b, err := svc.Create(t.Context(), userID, services.CreateTodoInput{Title: "b"})
	require.NoError(t, err)

	status, env := doJSON(t, app, http.MethodPut, "/api/v1/todos/reorder", fiber.Map{
		"todos": []fiber.Map{
			{"id": b.ID, "order": 1},
			{"id": a.ID, "order": 2, "status": "in_progress"},
		},
	})

	assert.Equal(t, http.StatusOK, status)
	var todos []model.Todo
	require.NoError(t, json.Unmarshal(env.Data, &todos))
	require.Len(t, todos, 2)
	assert.Equal(t, b.ID, todos[0].ID)
	assert.Equal(t, a.ID, todos[1].ID)
	assert.Equal(t, model.StatusInProgress, todos[1].Status)
}

func TestReorderRejectsEmptyBatch(t *testing.T) {
	app, _, _ := newTestApp(t)

	status, env := doJSON(t, app, http.MethodPut, "/api/v1/todos/reorder", fiber.Map{"todos": []fiber.Map{}})

	assert.Equal(t, http.StatusBadRequest, status)
	assert.False(t, env.Success)
}

func TestReorderValidationKeysOnJSONNames(t *testing.T) {
	app, _, _ := newTestApp(t)

	status, env := doJSON(t, app, http.MethodPut, "/api/v1/todos/reorder", fiber.Map{
		"todos": []fiber.Map{
			{"id": "not-a-uuid", "order": -1},
		},
	})

	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, env.Errors, "id")
	assert.Contains(t, env.Errors, "order")
}

func TestReorderForeignIDIsUnauthorized(t *testing.T) {
	app, svc, userID := newTestApp(t)

	mine, err := svc.Create(t.Context(), userID, services.CreateTodoInput{Title: "mine"})
	require.NoError(t, err)

	status, env := doJSON(t, app, http.MethodPut, "/api/v1/todos/reorder", fiber.Map{
		"todos": []fiber.Map{
			{"id": mine.ID, "order": 1},
			{"id": "11111111-1111-1111-1111-111111111111", "order": 2},
		},
	})

	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "One or more todos not found or not authorized", env.Error)
}

func TestKanbanEndpointAlwaysHasColumns(t *testing.T) {
	app, _, _ := newTestApp(t)

	status, env := doJSON(t, app, http.MethodGet, "/api/v1/todos/kanban", nil)

	assert.Equal(t, http.StatusOK, status)
	var board services.KanbanBoard
	require.NoError(t, json.Unmarshal(env.Data, &board))
	assert.Equal(t, "To Do", board.Todo.Title)
	assert.NotNil(t, board.Todo.Todos)
	assert.NotNil(t, board.InProgress.Todos)
	assert.NotNil(t, board.Done.Todos)
}

func TestStatsEndpoint(t *testing.T) {
	app, svc, userID := newTestApp(t)

	_, err := svc.Create(t.Context(), userID, services.CreateTodoInput{Title: "one"})
	require.NoError(t, err)

	status, env := doJSON(t, app, http.MethodGet, "/api/v1/todos/stats", nil)

	assert.Equal(t, http.StatusOK, status)
	var stats services.TodoStats
	require.NoError(t, json.Unmarshal(env.Data, &stats))
	assert.Equal(t, 1, stats.Total)
	assert.Equal(t, 1, stats.ByStatus.Todo)
}
