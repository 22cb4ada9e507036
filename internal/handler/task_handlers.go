package handler

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/taskledger/taskledger/internal/domain"
	"github.com/taskledger/taskledger/internal/handler/dto"
	"github.com/taskledger/taskledger/internal/middleware"
	"github.com/taskledger/taskledger/internal/repository"
	"github.com/taskledger/taskledger/internal/service"
)

// handleCreateTask creates a new task owned by the authenticated user.
// @Summary Create a new task
// @Tags tasks
// @Accept json
// @Produce json
// @Param request body dto.CreateTaskRequest true "Task creation request"
// @Success 201 {object} dto.TaskResponse
// @Failure 422 {object} dto.ErrorResponse
// @Security BearerAuth
// @Router /tasks [post]
func (h *Handler) handleCreateTask(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user, err := middleware.GetUserFromContext(ctx)
	if err != nil {
		respondError(w, http.StatusUnauthorized, "INVALID_TOKEN", "Authentication required")
		return
	}

	var req dto.CreateTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	if req.Title == "" || len(req.Title) > 200 {
		respondError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "title must be between 1 and 200 characters")
		return
	}

	status := domain.TaskStatusTodo
	if req.Status != "" {
		status = domain.TaskStatus(req.Status)
		if !status.IsValid() {
			respondError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "status must be 'TODO', 'DOING', or 'DONE'")
			return
		}
	}

	var dueDate *time.Time
	if req.DueDate != "" {
		parsed, err := time.Parse(time.RFC3339, req.DueDate)
		if err != nil {
			respondError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "due_date must be RFC3339")
			return
		}
		dueDate = &parsed
	}

	task, err := h.taskService.CreateTask(ctx, user.ID, service.CreateTaskParams{
		Title:       req.Title,
		Description: req.Description,
		Status:      status,
		DueDate:     dueDate,
	})
	if err != nil {
		status, code, message := dto.MapDomainError(err)
		respondError(w, status, code, message)
		return
	}

	respondJSON(w, http.StatusCreated, dto.ToTaskResponse(task))
}

// handleGetTask retrieves a single task.
// @Summary Get task details
// @Tags tasks
// @Produce json
// @Param id path string true "Task ID"
// @Success 200 {object} dto.TaskResponse
// @Failure 404 {object} dto.ErrorResponse
// @Security BearerAuth
// @Router /tasks/{id} [get]
func (h *Handler) handleGetTask(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	taskID, ok := extractTaskID(w, r)
	if !ok {
		return
	}

	task, err := h.taskRepo.GetByID(ctx, taskID)
	if err != nil {
		status, code, message := dto.MapDomainError(err)
		respondError(w, status, code, message)
		return
	}

	respondJSON(w, http.StatusOK, dto.ToTaskResponse(task))
}

// handleUpdateTask applies a partial update to a task.
// @Summary Update a task
// @Tags tasks
// @Accept json
// @Produce json
// @Param id path string true "Task ID"
// @Param request body dto.UpdateTaskRequest true "Partial update request"
// @Success 200 {object} dto.TaskResponse
// @Failure 404 {object} dto.ErrorResponse
// @Security BearerAuth
// @Router /tasks/{id} [patch]
func (h *Handler) handleUpdateTask(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user, err := middleware.GetUserFromContext(ctx)
	if err != nil {
		respondError(w, http.StatusUnauthorized, "INVALID_TOKEN", "Authentication required")
		return
	}

	taskID, ok := extractTaskID(w, r)
	if !ok {
		return
	}

	var req dto.UpdateTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	if req.Title == nil && req.Description == nil && req.Status == nil && req.DueDate == nil {
		respondError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "at least one field must be provided")
		return
	}
	if req.Title != nil && (*req.Title == "" || len(*req.Title) > 200) {
		respondError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "title must be between 1 and 200 characters")
		return
	}

	upd := repository.TaskUpdate{
		Title:       req.Title,
		Description: req.Description,
	}

	if req.Status != nil {
		status := domain.TaskStatus(*req.Status)
		if !status.IsValid() {
			respondError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "status must be 'TODO', 'DOING', or 'DONE'")
			return
		}
		upd.Status = &status
	}

	if req.DueDate != nil {
		if *req.DueDate == "" {
			upd.ClearDueDate = true
		} else {
			parsed, err := time.Parse(time.RFC3339, *req.DueDate)
			if err != nil {
				respondError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "due_date must be RFC3339 or empty to clear")
				return
			}
			upd.DueDate = &parsed
		}
	}

	task, err := h.taskService.UpdateTask(ctx, taskID, user.ID, upd)
	if err != nil {
		status, code, message := dto.MapDomainError(err)
		respondError(w, status, code, message)
		return
	}

	respondJSON(w, http.StatusOK, dto.ToTaskResponse(task))
}

// handleDeleteTask deletes a task created by the authenticated user.
// @Summary Delete a task
// @Tags tasks
// @Produce json
// @Param id path string true "Task ID"
// @Success 200 {object} dto.DeleteTaskResponse
// @Failure 403 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Security BearerAuth
// @Router /tasks/{id} [delete]
func (h *Handler) handleDeleteTask(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user, err := middleware.GetUserFromContext(ctx)
	if err != nil {
		respondError(w, http.StatusUnauthorized, "INVALID_TOKEN", "Authentication required")
		return
	}

	taskID, ok := extractTaskID(w, r)
	if !ok {
		return
	}

	deletedID, err := h.taskService.DeleteTask(ctx, taskID, user.ID)
	if err != nil {
		status, code, message := dto.MapDomainError(err)
		respondError(w, status, code, message)
		return
	}

	respondJSON(w, http.StatusOK, dto.DeleteTaskResponse{ID: deletedID})
}

// handleListTasks returns a list of tasks with filters.
// @Summary List tasks
// @Tags tasks
// @Produce json
// @Param status query string false "Comma-separated statuses: TODO,DOING"
// @Param creator query string false "Filter by creator: 'me' or user UUID"
// @Param overdue query bool false "Show only overdue tasks"
// @Param sort query string false "Sort fields: -created_at,title"
// @Param limit query int false "Page size (1-200, default 50)"
// @Param offset query int false "Page offset (default 0)"
// @Success 200 {object} dto.TasksListResponse
// @Security BearerAuth
// @Router /tasks [get]
func (h *Handler) handleListTasks(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user, err := middleware.GetUserFromContext(ctx)
	if err != nil {
		respondError(w, http.StatusUnauthorized, "INVALID_TOKEN", "Authentication required")
		return
	}

	query := r.URL.Query()

	var statuses []string
	if statusParam := query.Get("status"); statusParam != "" {
		statuses = splitAndTrim(statusParam, ",")
	}

	var creatorID *string
	if creatorParam := query.Get("creator"); creatorParam != "" {
		if creatorParam == "me" {
			creatorID = &user.ID
		} else {
			creatorID = &creatorParam
		}
	}

	overdue := query.Get("overdue") == "true"

	var sort []string
	if sortParam := query.Get("sort"); sortParam != "" {
		sort = splitAndTrim(sortParam, ",")
	}

	limit, offset := parsePagination(query.Get("limit"), query.Get("offset"))

	tasks, total, err := h.taskRepo.List(ctx, repository.TaskListFilters{
		Statuses:  statuses,
		CreatorID: creatorID,
		Overdue:   overdue,
		Sort:      sort,
		Limit:     limit,
		Offset:    offset,
	})
	if err != nil {
		respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to list tasks")
		return
	}

	resp := dto.TasksListResponse{
		Tasks:  make([]dto.TaskResponse, len(tasks)),
		Total:  total,
		Limit:  limit,
		Offset: offset,
	}
	for i, task := range tasks {
		resp.Tasks[i] = dto.ToTaskResponse(task)
	}

	respondJSON(w, http.StatusOK, resp)
}

// splitAndTrim splits a string by delimiter and trims whitespace.
func splitAndTrim(s, sep string) []string {
	parts := strings.Split(s, sep)
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

// parsePagination parses limit/offset query values with defaults and caps.
func parsePagination(limitParam, offsetParam string) (limit, offset int) {
	limit = 50
	if limitParam != "" {
		if n, err := strconv.Atoi(limitParam); err == nil && n > 0 && n <= 200 {
			limit = n
		}
	}

	offset = 0
	if offsetParam != "" {
		if n, err := strconv.Atoi(offsetParam); err == nil && n >= 0 {
			offset = n
		}
	}

	return limit, offset
}
