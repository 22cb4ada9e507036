package handler

import (
	"net/http"

	"github.com/taskledger/taskledger/internal/domain"
	"github.com/taskledger/taskledger/internal/handler/dto"
	"github.com/taskledger/taskledger/internal/middleware"
	"golang.org/x/sync/errgroup"
)

// handleUndo reverses the authenticated user's most recent operation.
// @Summary Undo the last task operation
// @Tags undo
// @Produce json
// @Success 200 {object} dto.UndoResponse
// @Failure 409 {object} dto.ErrorResponse
// @Security BearerAuth
// @Router /undo [post]
func (h *Handler) handleUndo(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user, err := middleware.GetUserFromContext(ctx)
	if err != nil {
		respondError(w, http.StatusUnauthorized, "INVALID_TOKEN", "Authentication required")
		return
	}

	task, rec, err := h.undoService.Undo(ctx, user.ID)
	if err != nil {
		status, code, message := dto.MapDomainError(err)
		respondError(w, status, code, message)
		return
	}

	resp := dto.UndoResponse{
		UndoneOperation: rec.Operation.String(),
		HistoryID:       rec.ID,
	}
	if task != nil {
		taskResp := dto.ToTaskResponse(task)
		resp.Task = &taskResp
	}

	respondJSON(w, http.StatusOK, resp)
}

// handleListHistory returns the authenticated user's audit trail,
// newest first.
// @Summary List the caller's operation history
// @Tags undo
// @Produce json
// @Param limit query int false "Page size (1-200, default 50)"
// @Param offset query int false "Page offset (default 0)"
// @Success 200 {object} dto.HistoryListResponse
// @Security BearerAuth
// @Router /history [get]
func (h *Handler) handleListHistory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user, err := middleware.GetUserFromContext(ctx)
	if err != nil {
		respondError(w, http.StatusUnauthorized, "INVALID_TOKEN", "Authentication required")
		return
	}

	query := r.URL.Query()
	limit, offset := parsePagination(query.Get("limit"), query.Get("offset"))

	var (
		records []*domain.HistoryRecord
		total   int
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		records, err = h.historyRepo.ListByUser(gctx, user.ID, limit, offset)
		return err
	})
	g.Go(func() error {
		var err error
		total, err = h.historyRepo.CountByUser(gctx, user.ID)
		return err
	})
	if err := g.Wait(); err != nil {
		respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to list history")
		return
	}

	resp := dto.HistoryListResponse{
		Records: make([]dto.HistoryRecordResponse, len(records)),
		Total:   total,
		Limit:   limit,
		Offset:  offset,
	}
	for i, rec := range records {
		resp.Records[i] = dto.ToHistoryRecordResponse(rec)
	}

	respondJSON(w, http.StatusOK, resp)
}
