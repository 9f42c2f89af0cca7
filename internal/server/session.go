package server

import (
	"errors"
	"net/http"

	"github.com/clubledger/server/internal/auth"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token  string         `json:"token"`
	Member memberResponse `json:"member"`
}

// handleLogin verifies credentials and issues a session token.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	member, err := s.authenticator.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			writeJSON(w, http.StatusUnauthorized, ErrorResponse{Code: "unauthorized", Message: err.Error()})
			return
		}
		writeError(w, err)
		return
	}

	token, err := s.tokens.Generate(member)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, loginResponse{Token: token, Member: toMemberResponse(member)})
}
