package api

import "net/http"

func (s *Server) handleListPolicies(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, s.policies.List())
}
