package http

import (
	"net/http"
	"time"

	"contas/internal/core"
)

type accountRequest struct {
	Name           string  `json:"name"`
	Type           string  `json:"type"`
	InitialBalance float64 `json:"initialBalance"`
	IncludeInTotal bool    `json:"includeInTotal"`
	Color          string  `json:"color"`
	Icon           string  `json:"icon"`
}

type accountResponse struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	Type           string    `json:"type"`
	InitialBalance float64   `json:"initialBalance"`
	CurrentBalance float64   `json:"currentBalance"`
	IsActive       bool      `json:"isActive"`
	IncludeInTotal bool      `json:"includeInTotal"`
	Color          string    `json:"color,omitempty"`
	Icon           string    `json:"icon,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
}

func toAccountResponse(a core.Account) accountResponse {
	return accountResponse{
		ID:             a.ID,
		Name:           a.Name,
		Type:           string(a.Type),
		InitialBalance: a.InitialBalance.Units(),
		CurrentBalance: a.CurrentBalance.Units(),
		IsActive:       a.IsActive,
		IncludeInTotal: a.IncludeInTotal,
		Color:          a.Color,
		Icon:           a.Icon,
		CreatedAt:      a.CreatedAt,
	}
}

func (req accountRequest) toDomain() core.Account {
	return core.Account{
		Name:           req.Name,
		Type:           core.AccountType(req.Type),
		InitialBalance: core.Money{Cents: core.CentsFromUnits(req.InitialBalance)},
		IsActive:       true,
		IncludeInTotal: req.IncludeInTotal,
		Color:          req.Color,
		Icon:           req.Icon,
	}
}

func (s *Server) handleListAccounts(w http.ResponseWriter, r *http.Request) {
	uid, ok := requireUser(w, r)
	if !ok {
		return
	}
	accounts, err := s.service.ListAccounts(r.Context(), uid)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	out := make([]accountResponse, 0, len(accounts))
	for _, a := range accounts {
		out = append(out, toAccountResponse(a))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateAccount(w http.ResponseWriter, r *http.Request) {
	uid, ok := requireUser(w, r)
	if !ok {
		return
	}
	var req accountRequest
	if !decodeBody(w, r, &req) {
		return
	}
	created, err := s.service.CreateAccount(r.Context(), uid, req.toDomain())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toAccountResponse(created))
}

func (s *Server) handleUpdateAccount(w http.ResponseWriter, r *http.Request) {
	uid, ok := requireUser(w, r)
	if !ok {
		return
	}
	var req accountRequest
	if !decodeBody(w, r, &req) {
		return
	}
	account := req.toDomain()
	account.ID = r.PathValue("id")
	updated, err := s.service.UpdateAccount(r.Context(), uid, account)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toAccountResponse(updated))
}

func (s *Server) handleDeleteAccount(w http.ResponseWriter, r *http.Request) {
	uid, ok := requireUser(w, r)
	if !ok {
		return
	}
	if err := s.service.DeleteAccount(r.Context(), uid, r.PathValue("id")); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
