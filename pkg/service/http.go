package service

import (
	"encoding/json"
	"net/http"
)

// Handler returns the http.Handler to mount at a POST-only RPC path.
// Unknown paths are left to the caller's mux to report as not-found; this
// handler only needs to reject the wrong verb and malformed envelopes
// itself.
func (s *Service) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeJSON(w, http.StatusMethodNotAllowed, fail(newError(InvalidData, "only POST is permitted")))
			return
		}

		var req Request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, fail(newError(InvalidData, "malformed request envelope: "+err.Error())))
			return
		}

		resp := s.Dispatch(r.Context(), req)
		writeJSON(w, http.StatusOK, resp)
	})
}

func writeJSON(w http.ResponseWriter, status int, resp Response) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}
