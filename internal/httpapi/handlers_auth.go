package httpapi

import (
	"net/http"

	"github.com/janus-access/server/internal/janus/types"
)

type loginRequest struct {
	Email      string `json:"email"`
	AccessCode string `json:"access_code"`
}

type loginResponse struct {
	Token string      `json:"token"`
	User  *types.User `json:"user"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	token, user, err := s.auth.Login(r.Context(), req.Email, req.AccessCode)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeData(w, http.StatusOK, loginResponse{Token: token, User: user})
}
