package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/studydesk/internal/middleware"
	"github.com/hitoshi/studydesk/internal/model"
)

// TaskServiceInterface はToDoハンドラーが必要とするサービスインターフェース。
type TaskServiceInterface interface {
	List(ctx context.Context, identity model.Identity) ([]*model.Task, error)
	Create(ctx context.Context, identity model.Identity, text string, priority string) (*model.Task, error)
	SetCompleted(ctx context.Context, identity model.Identity, id string, completed bool) (*model.Task, error)
	Delete(ctx context.Context, identity model.Identity, id string) error
}

// TodoHandler は個人タスク管理のHTTPハンドラー。
// すべてのエンドポイントはセッションミドルウェアの内側に配置される。
type TodoHandler struct {
	service TaskServiceInterface
}

// NewTodoHandler はTodoHandlerを生成する。
func NewTodoHandler(service TaskServiceInterface) *TodoHandler {
	return &TodoHandler{service: service}
}

// taskResponse はタスクのAPIレスポンス。
type taskResponse struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	Completed bool      `json:"completed"`
	Priority  string    `json:"priority"`
	CreatedAt time.Time `json:"created_at"`
}

func toTaskResponse(task *model.Task) taskResponse {
	return taskResponse{
		ID:        task.ID,
		Text:      task.Text,
		Completed: task.Completed,
		Priority:  string(task.Priority),
		CreatedAt: task.CreatedAt,
	}
}

// createTaskRequest はタスク作成リクエストのボディ。
// 旧クライアント互換のため text の別名として title も受け付ける。
type createTaskRequest struct {
	Text     string `json:"text"`
	Title    string `json:"title"`
	Priority string `json:"priority"`
}

func (r createTaskRequest) text() string {
	if r.Text != "" {
		return r.Text
	}
	return r.Title
}

// updateTaskRequest はタスク更新リクエストのボディ。
type updateTaskRequest struct {
	Completed bool `json:"completed"`
}

// ListTasks は所有タスクの一覧を取得する。
// GET /api/todos
func (h *TodoHandler) ListTasks(w http.ResponseWriter, r *http.Request) {
	identity, err := middleware.IdentityFromContext(r.Context())
	if err != nil {
		writeUnauthenticated(w)
		return
	}

	tasks, err := h.service.List(r.Context(), *identity)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	responses := make([]taskResponse, len(tasks))
	for i, task := range tasks {
		responses[i] = toTaskResponse(task)
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(responses)
}

// CreateTask は新しいタスクを作成する。
// POST /api/todos
func (h *TodoHandler) CreateTask(w http.ResponseWriter, r *http.Request) {
	identity, err := middleware.IdentityFromContext(r.Context())
	if err != nil {
		writeUnauthenticated(w)
		return
	}

	var req createTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError())
		return
	}

	task, err := h.service.Create(r.Context(), *identity, req.text(), req.Priority)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(toTaskResponse(task))
}

// UpdateTask はタスクの完了状態を更新する。
// PATCH /api/todos/:id
func (h *TodoHandler) UpdateTask(w http.ResponseWriter, r *http.Request) {
	identity, err := middleware.IdentityFromContext(r.Context())
	if err != nil {
		writeUnauthenticated(w)
		return
	}

	taskID := chi.URLParam(r, "id")

	var req updateTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError())
		return
	}

	task, err := h.service.SetCompleted(r.Context(), *identity, taskID, req.Completed)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(toTaskResponse(task))
}

// DeleteTask はタスクを削除する。
// DELETE /api/todos/:id
func (h *TodoHandler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	identity, err := middleware.IdentityFromContext(r.Context())
	if err != nil {
		writeUnauthenticated(w)
		return
	}

	taskID := chi.URLParam(r, "id")

	if err := h.service.Delete(r.Context(), *identity, taskID); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
