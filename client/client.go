package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/taskboard/taskboard-api/model"
	"github.com/taskboard/taskboard-api/services"
)

// Client is a thin HTTP client for the taskboard API. It speaks the
// standard response envelope and keeps the bearer token issued at
// login for subsequent calls.
type Client struct {
	baseURL    string
	httpClient *http.Client
	token      string
}

// New creates a client for the API at baseURL (e.g. "http://localhost:8080").
func New(baseURL string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// SetToken installs a bearer token for authenticated requests.
func (c *Client) SetToken(token string) {
	c.token = token
}

// APIError carries the error payload of a failed request.
type APIError struct {
	StatusCode int
	Message    string
	Fields     map[string]string
}

func (e *APIError) Error() string {
	if len(e.Fields) > 0 {
		return fmt.Sprintf("api error (status %d): %s %v", e.StatusCode, e.Message, e.Fields)
	}
	return fmt.Sprintf("api error (status %d): %s", e.StatusCode, e.Message)
}

// envelope mirrors the server's uniform response shape.
type envelope struct {
	Success bool              `json:"success"`
	Message string            `json:"message,omitempty"`
	Data    json.RawMessage   `json:"data,omitempty"`
	Error   string            `json:"error,omitempty"`
	Errors  map[string]string `json:"errors,omitempty"`
	Count   *int              `json:"count,omitempty"`
}

func (c *Client) do(ctx context.Context, method, path string, body interface{}, out interface{}) error {
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	res, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	var env envelope
	if err := json.NewDecoder(res.Body).Decode(&env); err != nil {
		return fmt.Errorf("decoding response (status %d): %w", res.StatusCode, err)
	}

	if !env.Success {
		msg := env.Error
		if msg == "" {
			msg = env.Message
		}
		return &APIError{StatusCode: res.StatusCode, Message: msg, Fields: env.Errors}
	}

	if out != nil && env.Data != nil {
		return json.Unmarshal(env.Data, out)
	}
	return nil
}

// Register creates an account and stores the issued access token.
func (c *Client) Register(ctx context.Context, email, password, name string) (*Credentials, error) {
	body := map[string]string{"email": email, "password": password, "name": name}
	var creds Credentials
	if err := c.do(ctx, http.MethodPost, "/api/v1/auth/register", body, &creds); err != nil {
		return nil, err
	}
	c.token = creds.AccessToken
	return &creds, nil
}

// Login authenticates and stores the issued access token.
func (c *Client) Login(ctx context.Context, email, password string) (*Credentials, error) {
	body := map[string]string{"email": email, "password": password}
	var creds Credentials
	if err := c.do(ctx, http.MethodPost, "/api/v1/auth/login", body, &creds); err != nil {
		return nil, err
	}
	c.token = creds.AccessToken
	return &creds, nil
}

// Refresh exchanges a refresh token for fresh credentials.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (*Credentials, error) {
	body := map[string]string{"refresh_token": refreshToken}
	var creds Credentials
	if err := c.do(ctx, http.MethodPost, "/api/v1/auth/refresh", body, &creds); err != nil {
		return nil, err
	}
	c.token = creds.AccessToken
	return &creds, nil
}

// Logout revokes the current access token.
func (c *Client) Logout(ctx context.Context) error {
	if err := c.do(ctx, http.MethodPost, "/api/v1/auth/logout", nil, nil); err != nil {
		return err
	}
	c.token = ""
	return nil
}

// Credentials is the payload of the auth endpoints.
type Credentials struct {
	User         AccountInfo `json:"user"`
	AccessToken  string      `json:"access_token"`
	RefreshToken string      `json:"refresh_token"`
	ExpiresIn    int         `json:"expires_in"`
}

// AccountInfo describes the authenticated account.
type AccountInfo struct {
	ID        uint      `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CreateTodoParams carries the fields of a create request. Zero values
// are omitted and the server applies its defaults.
type CreateTodoParams struct {
	Title       string         `json:"title"`
	Description string         `json:"description,omitempty"`
	Status      model.Status   `json:"status,omitempty"`
	Priority    model.Priority `json:"priority,omitempty"`
	DueDate     *time.Time     `json:"dueDate,omitempty"`
	Order       int            `json:"order,omitempty"`
}

// UpdateTodoParams carries a partial update. Nil fields are omitted
// from the request and left untouched by the server.
type UpdateTodoParams struct {
	Title       *string         `json:"title,omitempty"`
	Description *string         `json:"description,omitempty"`
	Status      *model.Status   `json:"status,omitempty"`
	Priority    *model.Priority `json:"priority,omitempty"`
	DueDate     *time.Time      `json:"dueDate,omitempty"`
	Order       *int            `json:"order,omitempty"`
}

// CreateTodo creates a todo for the authenticated user.
func (c *Client) CreateTodo(ctx context.Context, params CreateTodoParams) (*model.Todo, error) {
	var todo model.Todo
	if err := c.do(ctx, http.MethodPost, "/api/v1/todos/", params, &todo); err != nil {
		return nil, err
	}
	return &todo, nil
}

// GetTodo fetches a single todo by id.
func (c *Client) GetTodo(ctx context.Context, id string) (*model.Todo, error) {
	var todo model.Todo
	if err := c.do(ctx, http.MethodGet, "/api/v1/todos/"+url.PathEscape(id), nil, &todo); err != nil {
		return nil, err
	}
	return &todo, nil
}

// ListTodos fetches the user's todos filtered and sorted per opts.
func (c *Client) ListTodos(ctx context.Context, opts services.ListTodosOptions) ([]model.Todo, error) {
	q := url.Values{}
	if opts.Status != "" {
		q.Set("status", opts.Status)
	}
	if opts.Priority != "" {
		q.Set("priority", opts.Priority)
	}
	if opts.Search != "" {
		q.Set("search", opts.Search)
	}
	if opts.SortBy != "" {
		q.Set("sortBy", opts.SortBy)
	}
	if opts.SortOrder != "" {
		q.Set("sortOrder", opts.SortOrder)
	}
	if opts.DueDateFrom != nil {
		q.Set("dueDateFrom", opts.DueDateFrom.Format(time.RFC3339))
	}
	if opts.DueDateTo != nil {
		q.Set("dueDateTo", opts.DueDateTo.Format(time.RFC3339))
	}
	if opts.Overdue {
		q.Set("overdue", "true")
	}

	path := "/api/v1/todos/"
	if encoded := q.Encode(); encoded != "" {
		path += "?" + encoded
	}

	var todos []model.Todo
	if err := c.do(ctx, http.MethodGet, path, nil, &todos); err != nil {
		return nil, err
	}
	return todos, nil
}

// UpdateTodo applies a partial update to a todo.
func (c *Client) UpdateTodo(ctx context.Context, id string, params UpdateTodoParams) (*model.Todo, error) {
	var todo model.Todo
	if err := c.do(ctx, http.MethodPut, "/api/v1/todos/"+url.PathEscape(id), params, &todo); err != nil {
		return nil, err
	}
	return &todo, nil
}

// ClearDueDate removes a todo's due date by sending an explicit null.
func (c *Client) ClearDueDate(ctx context.Context, id string) (*model.Todo, error) {
	body := map[string]interface{}{"dueDate": nil}
	var todo model.Todo
	if err := c.do(ctx, http.MethodPut, "/api/v1/todos/"+url.PathEscape(id), body, &todo); err != nil {
		return nil, err
	}
	return &todo, nil
}

// DeleteTodo deletes a todo by id.
func (c *Client) DeleteTodo(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/v1/todos/"+url.PathEscape(id), nil, nil)
}

// Kanban fetches the grouped board view.
func (c *Client) Kanban(ctx context.Context, filter services.KanbanFilter) (*services.KanbanBoard, error) {
	q := url.Values{}
	if filter.Priority != "" {
		q.Set("priority", filter.Priority)
	}
	if filter.Search != "" {
		q.Set("search", filter.Search)
	}
	if filter.DueDateFrom != nil {
		q.Set("dueDateFrom", filter.DueDateFrom.Format(time.RFC3339))
	}
	if filter.DueDateTo != nil {
		q.Set("dueDateTo", filter.DueDateTo.Format(time.RFC3339))
	}

	path := "/api/v1/todos/kanban"
	if encoded := q.Encode(); encoded != "" {
		path += "?" + encoded
	}

	var board services.KanbanBoard
	if err := c.do(ctx, http.MethodGet, path, nil, &board); err != nil {
		return nil, err
	}
	return &board, nil
}

// Stats fetches the dashboard counters.
func (c *Client) Stats(ctx context.Context) (*services.TodoStats, error) {
	var stats services.TodoStats
	if err := c.do(ctx, http.MethodGet, "/api/v1/todos/stats", nil, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

// ReorderTodos commits a drag-and-drop batch and returns the user's
// todos in their authoritative post-reorder order.
func (c *Client) ReorderTodos(ctx context.Context, items []services.ReorderItem) ([]model.Todo, error) {
	body := map[string]interface{}{"todos": items}
	var todos []model.Todo
	if err := c.do(ctx, http.MethodPut, "/api/v1/todos/reorder", body, &todos); err != nil {
		return nil, err
	}
	return todos, nil
}
