package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/clubledger/server/internal/models"
	"github.com/clubledger/server/internal/service"
)

type memberResponse struct {
	ID             string          `json:"id"`
	Name           string          `json:"name"`
	Email          string          `json:"email"`
	Role           string          `json:"role"`
	Balance        decimal.Decimal `json:"balance"`
	MembershipType string          `json:"membership_type,omitempty"`
	CreatedAt      int64           `json:"created_at"`
}

func toMemberResponse(m *models.Member) memberResponse {
	return memberResponse{
		ID:             m.ID,
		Name:           m.Name,
		Email:          m.Email,
		Role:           m.Role,
		Balance:        m.Balance,
		MembershipType: m.MembershipType,
		CreatedAt:      m.CreatedAt,
	}
}

type createMemberRequest struct {
	Name           string `json:"name"`
	Email          string `json:"email"`
	Password       string `json:"password"`
	Role           string `json:"role"`
	MembershipType string `json:"membership_type"`
}

func (s *Server) handleCreateMember(w http.ResponseWriter, r *http.Request) {
	var req createMemberRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	m, err := s.members.CreateMember(r.Context(), service.CreateMemberInput{
		Name:           req.Name,
		Email:          req.Email,
		Password:       req.Password,
		Role:           req.Role,
		MembershipType: req.MembershipType,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toMemberResponse(m))
}

func (s *Server) handleGetMember(w http.ResponseWriter, r *http.Request) {
	m, err := s.members.GetMember(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toMemberResponse(m))
}

func (s *Server) handleListMembers(w http.ResponseWriter, r *http.Request) {
	members, err := s.members.ListMembers(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]memberResponse, 0, len(members))
	for i := range members {
		out = append(out, toMemberResponse(&members[i]))
	}
	writeJSON(w, http.StatusOK, map[string]any{"members": out})
}

func (s *Server) handleDeleteMember(w http.ResponseWriter, r *http.Request) {
	if err := s.members.DeleteMember(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type membershipTypeResponse struct {
	Name string          `json:"name"`
	Fee  decimal.Decimal `json:"fee"`
}

type createMembershipTypeRequest struct {
	Name string          `json:"name"`
	Fee  decimal.Decimal `json:"fee"`
}

func (s *Server) handleCreateMembershipType(w http.ResponseWriter, r *http.Request) {
	var req createMembershipTypeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	mt, err := s.members.CreateMembershipType(r.Context(), req.Name, req.Fee)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, membershipTypeResponse{Name: mt.Name, Fee: mt.Fee})
}

func (s *Server) handleListMembershipTypes(w http.ResponseWriter, r *http.Request) {
	types, err := s.members.ListMembershipTypes(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]membershipTypeResponse, 0, len(types))
	for _, mt := range types {
		out = append(out, membershipTypeResponse{Name: mt.Name, Fee: mt.Fee})
	}
	writeJSON(w, http.StatusOK, map[string]any{"membership_types": out})
}

type renameMembershipTypeRequest struct {
	NewName string `json:"new_name"`
}

func (s *Server) handleRenameMembershipType(w http.ResponseWriter, r *http.Request) {
	var req renameMembershipTypeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	if err := s.members.RenameMembershipType(r.Context(), chi.URLParam(r, "name"), req.NewName); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDeleteMembershipType(w http.ResponseWriter, r *http.Request) {
	if err := s.members.DeleteMembershipType(r.Context(), chi.URLParam(r, "name")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
