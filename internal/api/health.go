package api

import (
	"net/http"

	"github.com/seantiz/stash/internal/actor"
)

type healthResponse struct {
	Status  string `json:"status"`
	Phase   string `json:"phase"`
	Pending int    `json:"pending"`
}

// handleHealthz reports 200 while the actor accepts commands and 503 once it
// is draining or gone.
func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	phase := s.status.Phase()
	resp := healthResponse{
		Status:  "ok",
		Phase:   phase.String(),
		Pending: s.status.Pending(),
	}

	code := http.StatusOK
	if phase != actor.PhaseRunning {
		resp.Status = "unavailable"
		code = http.StatusServiceUnavailable
	}
	s.writeJSON(w, code, resp)
}
