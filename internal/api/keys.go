package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

type setKeyRequest struct {
	Value *string `json:"value"`
}

type keyResponse struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

func (s *Server) handleGetKey(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")

	v, ok, err := s.commands.Get(r.Context(), key)
	if err != nil {
		s.writeActorError(w, "get key", err)
		return
	}
	if !ok {
		s.writeError(w, http.StatusNotFound, "key not found")
		return
	}

	s.writeJSON(w, http.StatusOK, keyResponse{Key: key, Value: v})
}

func (s *Server) handleSetKey(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")

	var req setKeyRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Value == nil {
		s.writeError(w, http.StatusBadRequest, "value is required")
		return
	}

	if err := s.commands.Set(r.Context(), key, *req.Value); err != nil {
		s.writeActorError(w, "set key", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleClearKeys(w http.ResponseWriter, r *http.Request) {
	if err := s.commands.Clear(r.Context()); err != nil {
		s.writeActorError(w, "clear keys", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
