package http

import (
	"net/http"
	"time"

	"contas/internal/core"
)

type goalRequest struct {
	Name         string  `json:"name"`
	TargetAmount float64 `json:"targetAmount"`
}

type contributionResponse struct {
	Amount float64   `json:"amount"`
	Date   time.Time `json:"date"`
	Note   string    `json:"note,omitempty"`
}

type goalResponse struct {
	ID            string                 `json:"id"`
	Name          string                 `json:"name"`
	TargetAmount  float64                `json:"targetAmount"`
	CurrentAmount float64                `json:"currentAmount"`
	Progress      float64                `json:"progress"`
	Status        string                 `json:"status"`
	Contributions []contributionResponse `json:"contributions"`
	CreatedAt     time.Time              `json:"createdAt"`
}

func toGoalResponse(g core.Goal) goalResponse {
	contributions := make([]contributionResponse, 0, len(g.Contributions))
	for _, c := range g.Contributions {
		contributions = append(contributions, contributionResponse{
			Amount: c.Amount.Units(),
			Date:   c.Date,
			Note:   c.Note,
		})
	}
	return goalResponse{
		ID:            g.ID,
		Name:          g.Name,
		TargetAmount:  g.TargetAmount.Units(),
		CurrentAmount: g.CurrentAmount.Units(),
		Progress:      g.Progress(),
		Status:        string(g.Status),
		Contributions: contributions,
		CreatedAt:     g.CreatedAt,
	}
}

func (s *Server) handleListGoals(w http.ResponseWriter, r *http.Request) {
	uid, ok := requireUser(w, r)
	if !ok {
		return
	}
	goals, err := s.service.ListGoals(r.Context(), uid)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	out := make([]goalResponse, 0, len(goals))
	for _, g := range goals {
		out = append(out, toGoalResponse(g))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateGoal(w http.ResponseWriter, r *http.Request) {
	uid, ok := requireUser(w, r)
	if !ok {
		return
	}
	var req goalRequest
	if !decodeBody(w, r, &req) {
		return
	}
	goal := core.Goal{
		Name:         req.Name,
		TargetAmount: core.Money{Cents: core.CentsFromUnits(req.TargetAmount)},
	}
	created, err := s.service.CreateGoal(r.Context(), uid, goal)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toGoalResponse(created))
}

type goalMoveRequest struct {
	AccountID string  `json:"accountId"`
	Amount    float64 `json:"amount"`
}

func (s *Server) handleGoalTransfer(w http.ResponseWriter, r *http.Request) {
	uid, ok := requireUser(w, r)
	if !ok {
		return
	}
	var req goalMoveRequest
	if !decodeBody(w, r, &req) {
		return
	}
	amount := core.Money{Cents: core.CentsFromUnits(req.Amount)}
	tx, err := s.service.TransferToGoal(r.Context(), uid, req.AccountID, r.PathValue("id"), amount)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toTransactionResponse(tx))
}

func (s *Server) handleGoalWithdraw(w http.ResponseWriter, r *http.Request) {
	uid, ok := requireUser(w, r)
	if !ok {
		return
	}
	var req goalMoveRequest
	if !decodeBody(w, r, &req) {
		return
	}
	amount := core.Money{Cents: core.CentsFromUnits(req.Amount)}
	tx, err := s.service.WithdrawFromGoal(r.Context(), uid, req.AccountID, r.PathValue("id"), amount)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toTransactionResponse(tx))
}
