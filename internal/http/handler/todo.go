package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/jaekwang-park/todo-steps/internal/middleware"
	"github.com/jaekwang-park/todo-steps/internal/model"
	"github.com/jaekwang-park/todo-steps/internal/service"
)

const maxBodyBytes = 1 << 20

type TodoHandler struct {
	svc *service.TodoService
}

func NewTodoHandler(svc *service.TodoService) *TodoHandler {
	return &TodoHandler{svc: svc}
}

type todoListResponse struct {
	Todos []model.Todo `json:"todos"`
}

type stepUpdateResponse struct {
	Task model.Todo   `json:"task"`
	Step []model.Step `json:"step"`
}

type stepDeleteResponse struct {
	Task   model.Todo   `json:"task"`
	StepID []model.Step `json:"step_id"`
}

// List handles GET /
func (h *TodoHandler) List(w http.ResponseWriter, r *http.Request) {
	todos, err := h.svc.List(r.Context())
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	WriteJSON(w, http.StatusOK, todoListResponse{Todos: todos})
}

type createTodoRequest struct {
	Task string `json:"task"`
}

// Create handles POST /add
func (h *TodoHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createTodoRequest
	if !decodeBody(w, r, &req) {
		return
	}

	todos, err := h.svc.Create(r.Context(), service.CreateTodoInput{Task: req.Task})
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	WriteJSON(w, http.StatusOK, todoListResponse{Todos: todos})
}

type updateTodoRequest struct {
	Task    *string                `json:"task"`
	Status  *bool                  `json:"status"`
	DueDate model.Optional[string] `json:"due_date"`
	Memo    model.Optional[string] `json:"memo"`
}

// Update handles PUT /update/{todo_id}
func (h *TodoHandler) Update(w http.ResponseWriter, r *http.Request) {
	todoID, ok := pathID(w, r, "todo_id")
	if !ok {
		return
	}

	var req updateTodoRequest
	if !decodeBody(w, r, &req) {
		return
	}

	input := service.UpdateTodoInput{
		Task:    req.Task,
		Status:  req.Status,
		DueDate: req.DueDate,
		Memo:    req.Memo,
	}

	todos, err := h.svc.Update(r.Context(), todoID, input)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	WriteJSON(w, http.StatusOK, todoListResponse{Todos: todos})
}

// Delete handles DELETE /delete/{todo_id}
func (h *TodoHandler) Delete(w http.ResponseWriter, r *http.Request) {
	todoID, ok := pathID(w, r, "todo_id")
	if !ok {
		return
	}

	todos, err := h.svc.Delete(r.Context(), todoID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	WriteJSON(w, http.StatusOK, todoListResponse{Todos: todos})
}

type addStepRequest struct {
	Step string `json:"step"`
}

// AddStep handles POST /add/steps/{todo_id}
func (h *TodoHandler) AddStep(w http.ResponseWriter, r *http.Request) {
	todoID, ok := pathID(w, r, "todo_id")
	if !ok {
		return
	}

	var req addStepRequest
	if !decodeBody(w, r, &req) {
		return
	}

	step, err := h.svc.AddStep(r.Context(), todoID, service.AddStepInput{Step: req.Step})
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	WriteJSON(w, http.StatusOK, step)
}

type updateStepRequest struct {
	Step   *string `json:"step"`
	Status *bool   `json:"status"`
}

// UpdateStep handles PUT /update/steps/{step_id}
func (h *TodoHandler) UpdateStep(w http.ResponseWriter, r *http.Request) {
	stepID, ok := pathID(w, r, "step_id")
	if !ok {
		return
	}

	var req updateStepRequest
	if !decodeBody(w, r, &req) {
		return
	}

	result, err := h.svc.UpdateStep(r.Context(), stepID, service.UpdateStepInput{
		Step:   req.Step,
		Status: req.Status,
	})
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	WriteJSON(w, http.StatusOK, stepUpdateResponse{Task: result.Todo, Step: result.Steps})
}

// DeleteStep handles DELETE /delete/steps/{step_id}
func (h *TodoHandler) DeleteStep(w http.ResponseWriter, r *http.Request) {
	stepID, ok := pathID(w, r, "step_id")
	if !ok {
		return
	}

	result, err := h.svc.DeleteStep(r.Context(), stepID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	WriteJSON(w, http.StatusOK, stepDeleteResponse{Task: result.Todo, StepID: result.Steps})
}

// Search handles GET /search?search_term=
func (h *TodoHandler) Search(w http.ResponseWriter, r *http.Request) {
	todos, err := h.svc.Search(r.Context(), r.URL.Query().Get("search_term"))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	WriteJSON(w, http.StatusOK, todoListResponse{Todos: todos})
}

func pathID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue(name), 10, 64)
	if err != nil {
		WriteError(w, http.StatusUnprocessableEntity, name+" must be an integer")
		return 0, false
	}
	return id, true
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		WriteError(w, http.StatusUnprocessableEntity, "invalid request body")
		return false
	}
	return true
}

func handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, service.ErrNotFound):
		WriteError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrInvalidInput):
		WriteError(w, http.StatusUnprocessableEntity, err.Error())
	default:
		slog.ErrorContext(r.Context(), "request failed",
			"error", err,
			"request_id", middleware.GetRequestID(r.Context()),
		)
		WriteError(w, http.StatusInternalServerError, "internal server error")
	}
}
