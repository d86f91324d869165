package http

import (
	"net/http"
	"time"

	"contas/internal/core"
	"contas/internal/ledger"
	"contas/internal/storage"
)

type transactionRequest struct {
	Type        string  `json:"type"`
	Amount      float64 `json:"amount"`
	Description string  `json:"description"`
	CategoryID  string  `json:"categoryId"`
	AccountID   string  `json:"accountId"`
	CardID      string  `json:"cardId"`
	Date        string  `json:"date"`
	DueDate     string  `json:"dueDate"`
	IsPaid      bool    `json:"isPaid"`
	ExpenseType string  `json:"expenseType"`

	IsRecurring    bool   `json:"isRecurring"`
	RecurringDay   int    `json:"recurringDay"`
	RecurrenceType string `json:"recurrenceType"`

	Installments int     `json:"installments"`
	FirstDueDate string  `json:"firstDueDate"`
	DownPayment  float64 `json:"downPayment"`

	AssignedTo string `json:"assignedTo"`
}

type transactionResponse struct {
	ID          string  `json:"id"`
	Type        string  `json:"type"`
	Amount      float64 `json:"amount"`
	Description string  `json:"description"`
	CategoryID  string  `json:"categoryId"`
	AccountID   string  `json:"accountId,omitempty"`
	CardID      string  `json:"cardId,omitempty"`
	Date        string  `json:"date"`
	DueDate     string  `json:"dueDate,omitempty"`
	IsPaid      bool    `json:"isPaid"`
	ExpenseType string  `json:"expenseType,omitempty"`

	IsRecurring    bool   `json:"isRecurring,omitempty"`
	RecurringDay   int    `json:"recurringDay,omitempty"`
	RecurrenceType string `json:"recurrenceType,omitempty"`

	InstallmentID      string  `json:"installmentId,omitempty"`
	Installments       int     `json:"installments,omitempty"`
	CurrentInstallment int     `json:"currentInstallment,omitempty"`
	DownPayment        float64 `json:"downPayment,omitempty"`

	AssignedTo   string    `json:"assignedTo,omitempty"`
	ValueHistory []float64 `json:"valueHistory,omitempty"`
}

const dateLayout = "2006-01-02"

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(dateLayout)
}

func toTransactionResponse(t core.Transaction) transactionResponse {
	history := make([]float64, 0, len(t.ValueHistory))
	for _, cents := range t.ValueHistory {
		history = append(history, core.Money{Cents: cents}.Units())
	}
	return transactionResponse{
		ID:                 t.ID,
		Type:               string(t.Type),
		Amount:             t.Amount.Units(),
		Description:        t.Description,
		CategoryID:         t.CategoryID,
		AccountID:          t.AccountID,
		CardID:             t.CardID,
		Date:               formatDate(t.Date),
		DueDate:            formatDate(t.DueDate),
		IsPaid:             t.IsPaid,
		ExpenseType:        string(t.ExpenseType),
		IsRecurring:        t.IsRecurring,
		RecurringDay:       t.RecurringDay,
		RecurrenceType:     t.RecurrenceType,
		InstallmentID:      t.InstallmentID,
		Installments:       t.Installments,
		CurrentInstallment: t.CurrentInstallment,
		DownPayment:        t.DownPayment.Units(),
		AssignedTo:         t.AssignedTo,
		ValueHistory:       history,
	}
}

func (req transactionRequest) toCreateInput(w http.ResponseWriter) (ledger.CreateInput, bool) {
	in := ledger.CreateInput{
		Type:           core.TransactionType(req.Type),
		Amount:         core.Money{Cents: core.CentsFromUnits(req.Amount)},
		Description:    req.Description,
		CategoryID:     req.CategoryID,
		AccountID:      req.AccountID,
		CardID:         req.CardID,
		IsPaid:         req.IsPaid,
		ExpenseType:    core.ExpenseType(req.ExpenseType),
		IsRecurring:    req.IsRecurring,
		RecurringDay:   req.RecurringDay,
		RecurrenceType: req.RecurrenceType,
		Installments:   req.Installments,
		DownPayment:    core.Money{Cents: core.CentsFromUnits(req.DownPayment)},
		AssignedTo:     req.AssignedTo,
	}

	if req.Date == "" {
		writeError(w, http.StatusBadRequest, "missing date")
		return ledger.CreateInput{}, false
	}
	date, err := parseDate(req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid date: "+req.Date)
		return ledger.CreateInput{}, false
	}
	in.Date = date

	if req.DueDate != "" {
		due, err := parseDate(req.DueDate)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid due date: "+req.DueDate)
			return ledger.CreateInput{}, false
		}
		in.DueDate = due
	}
	if req.FirstDueDate != "" {
		first, err := parseDate(req.FirstDueDate)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid first due date: "+req.FirstDueDate)
			return ledger.CreateInput{}, false
		}
		in.FirstDueDate = first
	}

	return in, true
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	uid, ok := requireUser(w, r)
	if !ok {
		return
	}
	year, month := parseYearMonth(r)
	filters := storage.TransactionFilters{
		Year:      year,
		Month:     time.Month(month),
		AccountID: r.URL.Query().Get("accountId"),
		CardID:    r.URL.Query().Get("cardId"),
		Type:      core.TransactionType(r.URL.Query().Get("type")),
		Unpaid:    r.URL.Query().Get("unpaid") == "true",
	}
	txs, err := s.service.ListTransactions(r.Context(), uid, filters)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	out := make([]transactionResponse, 0, len(txs))
	for _, t := range txs {
		out = append(out, toTransactionResponse(t))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	uid, ok := requireUser(w, r)
	if !ok {
		return
	}
	var req transactionRequest
	if !decodeBody(w, r, &req) {
		return
	}
	in, ok := req.toCreateInput(w)
	if !ok {
		return
	}
	created, err := s.service.CreateTransaction(r.Context(), uid, in)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	out := make([]transactionResponse, 0, len(created))
	for _, t := range created {
		out = append(out, toTransactionResponse(t))
	}
	writeJSON(w, http.StatusCreated, out)
}

func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	uid, ok := requireUser(w, r)
	if !ok {
		return
	}
	var req transactionRequest
	if !decodeBody(w, r, &req) {
		return
	}

	// Overlay the editable fields on the stored row so cohort and
	// recurrence bookkeeping survive the write.
	existing, err := s.service.GetTransaction(r.Context(), uid, r.PathValue("id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	existing.Type = core.TransactionType(req.Type)
	existing.Amount = core.Money{Cents: core.CentsFromUnits(req.Amount)}
	existing.Description = req.Description
	existing.CategoryID = req.CategoryID
	existing.AccountID = req.AccountID
	existing.CardID = req.CardID
	existing.IsPaid = req.IsPaid
	existing.ExpenseType = core.ExpenseType(req.ExpenseType)
	existing.AssignedTo = req.AssignedTo
	if req.Date != "" {
		date, err := parseDate(req.Date)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid date: "+req.Date)
			return
		}
		existing.Date = date
	}
	if req.DueDate != "" {
		due, err := parseDate(req.DueDate)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid due date: "+req.DueDate)
			return
		}
		existing.DueDate = due
	}

	updated, err := s.service.UpdateTransaction(r.Context(), uid, existing)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toTransactionResponse(updated))
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	uid, ok := requireUser(w, r)
	if !ok {
		return
	}
	if err := s.service.DeleteTransaction(r.Context(), uid, r.PathValue("id")); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type confirmRequest struct {
	Amount     float64 `json:"amount"`
	LockFuture bool    `json:"lockFuture"`
}

func (s *Server) handleConfirmTransaction(w http.ResponseWriter, r *http.Request) {
	uid, ok := requireUser(w, r)
	if !ok {
		return
	}
	var req confirmRequest
	if !decodeBody(w, r, &req) {
		return
	}
	amount := core.Money{Cents: core.CentsFromUnits(req.Amount)}
	confirmed, err := s.service.ConfirmTransaction(r.Context(), uid, r.PathValue("id"), amount, req.LockFuture)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toTransactionResponse(confirmed))
}

func (s *Server) handleListPending(w http.ResponseWriter, r *http.Request) {
	uid, ok := requireUser(w, r)
	if !ok {
		return
	}
	txs, err := s.service.ListPendingConfirmation(r.Context(), uid)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	out := make([]transactionResponse, 0, len(txs))
	for _, t := range txs {
		out = append(out, toTransactionResponse(t))
	}
	writeJSON(w, http.StatusOK, out)
}
