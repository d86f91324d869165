package core

import (
	"errors"
	"strings"
	"time"
)

const (
	Checking   AccountType = "checking"
	Savings    AccountType = "savings"
	Cash       AccountType = "cash"
	Investment AccountType = "investment"

	Income   TransactionType = "income"
	Expense  TransactionType = "expense"
	Transfer TransactionType = "transfer"

	ExpenseCash        ExpenseType = "cash"
	ExpenseFixed       ExpenseType = "fixed"
	ExpenseInstallment ExpenseType = "installment"

	GoalActive    GoalStatus = "active"
	GoalCompleted GoalStatus = "completed"
	GoalCancelled GoalStatus = "cancelled"
)

// GoalTransferCategory tags the settled transactions created by goal
// transfers and withdrawals. The balance moves through the normal
// settlement path of these transactions and nowhere else.
const GoalTransferCategory = "goal_transfer"

// AssignedFamily is the sentinel for entries shared by the whole family
// rather than assigned to one member.
const AssignedFamily = "family"

// ValueHistoryLimit caps the trailing list of confirmed amounts kept on a
// recurring transaction for forecasting.
const ValueHistoryLimit = 5

type (
	AccountType     string
	TransactionType string
	ExpenseType     string
	GoalStatus      string

	Account struct {
		ID             string
		UserID         string
		Name           string
		Type           AccountType
		InitialBalance Money
		CurrentBalance Money
		IsActive       bool
		IncludeInTotal bool
		Color          string
		Icon           string
		CreatedAt      time.Time
	}

	CreditCard struct {
		ID          string
		UserID      string
		CardBrand   string
		Nickname    string
		ClosingDay  int
		DueDay      int
		CreditLimit Money
		IsActive    bool
	}

	Transaction struct {
		ID          string
		UserID      string
		Type        TransactionType
		Amount      Money
		Description string
		CategoryID  string
		AccountID   string // empty when no account is linked
		CardID      string // empty when not card-backed
		Date        time.Time
		DueDate     time.Time // zero when not scheduled
		IsPaid      bool
		ExpenseType ExpenseType

		IsRecurring    bool
		RecurringDay   int
		RecurrenceType string

		InstallmentID      string // cohort id shared by all rows of one purchase
		Installments       int
		CurrentInstallment int
		PurchaseDate       time.Time
		FirstDueDate       time.Time
		DownPayment        Money

		AssignedTo   string
		ValueHistory []int64 // cents, most recent last, capped to ValueHistoryLimit

		CreatedAt time.Time
		UpdatedAt time.Time
	}

	Contribution struct {
		Amount Money // signed: positive deposit, negative withdrawal
		Date   time.Time
		Note   string
	}

	Goal struct {
		ID            string
		UserID        string
		Name          string
		TargetAmount  Money
		CurrentAmount Money
		Status        GoalStatus
		Contributions []Contribution
		CreatedAt     time.Time
	}
)

var (
	ErrAccountNotFound     = errors.New("account not found")
	ErrCardNotFound        = errors.New("credit card not found")
	ErrGoalNotFound        = errors.New("goal not found")
	ErrTransactionNotFound = errors.New("transaction not found")
	ErrInsufficientBalance = errors.New("insufficient account balance")
	ErrInsufficientReserve = errors.New("insufficient goal reserve")
	ErrInvalidAmount       = errors.New("invalid amount")
	ErrMissingCategory     = errors.New("missing category")
	ErrEmptyDescription    = errors.New("empty description")
)

// AffectsBalance reports whether the transaction contributes to its
// account's balance: it must be settled, linked to an account, and not
// card-backed. Card purchases are absorbed by a separate billing process.
func (t Transaction) AffectsBalance() bool {
	return t.IsPaid && t.CardID == "" && t.AccountID != ""
}

// BalanceDelta is the signed effect of the transaction on its account in
// cents. Income credits the account; expenses and transfers debit it.
func (t Transaction) BalanceDelta() int64 {
	if t.Type == Income {
		return t.Amount.Cents
	}
	return -t.Amount.Cents
}

func (t Transaction) Validate() error {
	if t.Amount.Cents <= 0 {
		return ErrInvalidAmount
	}
	if strings.TrimSpace(t.CategoryID) == "" {
		return ErrMissingCategory
	}
	if len(t.Description) > 200 {
		return errors.New("description too long (max 200 characters)")
	}
	switch t.Type {
	case Income, Expense, Transfer:
	default:
		return errors.New("invalid transaction type")
	}
	return nil
}

func (a Account) Validate() error {
	if strings.TrimSpace(a.Name) == "" {
		return errors.New("empty account name")
	}
	switch a.Type {
	case Checking, Savings, Cash, Investment:
	default:
		return errors.New("invalid account type")
	}
	return nil
}

func (c CreditCard) Validate() error {
	if strings.TrimSpace(c.CardBrand) == "" {
		return errors.New("empty card brand")
	}
	if c.ClosingDay < 1 || c.ClosingDay > 31 {
		return errors.New("closing day out of range")
	}
	if c.DueDay < 1 || c.DueDay > 31 {
		return errors.New("due day out of range")
	}
	return nil
}

func (g Goal) Validate() error {
	if strings.TrimSpace(g.Name) == "" {
		return errors.New("empty goal name")
	}
	if g.TargetAmount.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

// Progress returns the goal completion as a fraction of the target.
func (g Goal) Progress() float64 {
	if g.TargetAmount.Cents <= 0 {
		return 0
	}
	return float64(g.CurrentAmount.Cents) / float64(g.TargetAmount.Cents)
}
