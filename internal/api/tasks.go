package api

import (
	"net/http"
	"strconv"

	"github.com/seantiz/stash/internal/model"
)

const (
	defaultListLimit = 20
	maxListLimit     = 100
)

// startTaskRequest is the JSON body for POST /v1/tasks.
type startTaskRequest struct {
	ID *uint32 `json:"id"`
}

type startTaskResponse struct {
	ID uint32 `json:"id"`
}

// listTasksResponse wraps the paginated ledger listing.
type listTasksResponse struct {
	Results []*model.ResultRecord `json:"results"`
	Total   int                   `json:"total"`
	Limit   int                   `json:"limit"`
	Offset  int                   `json:"offset"`
}

// handleStartTask queues a StartTask command. The outcome is not known yet,
// so the response is 202.
func (s *Server) handleStartTask(w http.ResponseWriter, r *http.Request) {
	var req startTaskRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.ID == nil {
		s.writeError(w, http.StatusBadRequest, "id is required")
		return
	}

	if err := s.commands.StartTask(r.Context(), *req.ID); err != nil {
		s.writeActorError(w, "start task", err)
		return
	}
	s.writeJSON(w, http.StatusAccepted, startTaskResponse{ID: *req.ID})
}

func (s *Server) handleListTasks(w http.ResponseWriter, r *http.Request) {
	limit := parseIntQuery(r, "limit", defaultListLimit)
	offset := parseIntQuery(r, "offset", 0)

	if limit <= 0 || limit > maxListLimit {
		limit = defaultListLimit
	}
	if offset < 0 {
		offset = 0
	}

	var taskID *uint32
	if v := r.URL.Query().Get("task_id"); v != "" {
		id, err := strconv.ParseUint(v, 10, 32)
		if err != nil {
			s.writeError(w, http.StatusBadRequest, "task_id must be an unsigned 32-bit integer")
			return
		}
		id32 := uint32(id)
		taskID = &id32
	}

	results, total, err := s.store.ListResults(r.Context(), taskID, limit, offset)
	if err != nil {
		s.logger.Error("list task results", "error", err)
		s.writeError(w, http.StatusInternalServerError, "failed to list task results")
		return
	}

	if results == nil {
		results = []*model.ResultRecord{}
	}

	s.writeJSON(w, http.StatusOK, listTasksResponse{
		Results: results,
		Total:   total,
		Limit:   limit,
		Offset:  offset,
	})
}
