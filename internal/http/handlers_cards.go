package http

import (
	"net/http"

	"contas/internal/core"
)

type cardRequest struct {
	CardBrand   string  `json:"cardBrand"`
	Nickname    string  `json:"nickname"`
	ClosingDay  int     `json:"closingDay"`
	DueDay      int     `json:"dueDay"`
	CreditLimit float64 `json:"creditLimit"`
}

type cardResponse struct {
	ID          string  `json:"id"`
	CardBrand   string  `json:"cardBrand"`
	Nickname    string  `json:"nickname,omitempty"`
	ClosingDay  int     `json:"closingDay"`
	DueDay      int     `json:"dueDay"`
	CreditLimit float64 `json:"creditLimit"`
	IsActive    bool    `json:"isActive"`
}

func toCardResponse(c core.CreditCard) cardResponse {
	return cardResponse{
		ID:          c.ID,
		CardBrand:   c.CardBrand,
		Nickname:    c.Nickname,
		ClosingDay:  c.ClosingDay,
		DueDay:      c.DueDay,
		CreditLimit: c.CreditLimit.Units(),
		IsActive:    c.IsActive,
	}
}

func (req cardRequest) toDomain() core.CreditCard {
	return core.CreditCard{
		CardBrand:   req.CardBrand,
		Nickname:    req.Nickname,
		ClosingDay:  req.ClosingDay,
		DueDay:      req.DueDay,
		CreditLimit: core.Money{Cents: core.CentsFromUnits(req.CreditLimit)},
		IsActive:    true,
	}
}

func (s *Server) handleListCards(w http.ResponseWriter, r *http.Request) {
	uid, ok := requireUser(w, r)
	if !ok {
		return
	}
	cards, err := s.service.ListCards(r.Context(), uid)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	out := make([]cardResponse, 0, len(cards))
	for _, c := range cards {
		out = append(out, toCardResponse(c))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateCard(w http.ResponseWriter, r *http.Request) {
	uid, ok := requireUser(w, r)
	if !ok {
		return
	}
	var req cardRequest
	if !decodeBody(w, r, &req) {
		return
	}
	created, err := s.service.CreateCard(r.Context(), uid, req.toDomain())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toCardResponse(created))
}

func (s *Server) handleUpdateCard(w http.ResponseWriter, r *http.Request) {
	uid, ok := requireUser(w, r)
	if !ok {
		return
	}
	var req cardRequest
	if !decodeBody(w, r, &req) {
		return
	}
	card := req.toDomain()
	card.ID = r.PathValue("id")
	updated, err := s.service.UpdateCard(r.Context(), uid, card)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toCardResponse(updated))
}

func (s *Server) handleDeleteCard(w http.ResponseWriter, r *http.Request) {
	uid, ok := requireUser(w, r)
	if !ok {
		return
	}
	if err := s.service.DeleteCard(r.Context(), uid, r.PathValue("id")); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
