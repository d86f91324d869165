package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"

	"contas/internal/core"
)

const testUser = "user-1"

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "storage_test.db"))
	if err != nil {
		t.Fatalf("open test repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestAccountCRUD(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	a := core.Account{
		ID:             uuid.NewString(),
		UserID:         testUser,
		Name:           "Main",
		Type:           core.Checking,
		InitialBalance: core.Money{Cents: 10000},
		CurrentBalance: core.Money{Cents: 10000},
		IsActive:       true,
		IncludeInTotal: true,
		Color:          "#00ff00",
		CreatedAt:      time.Date(2025, time.June, 1, 12, 0, 0, 0, time.UTC),
	}
	if err := repo.CreateAccount(ctx, a); err != nil {
		t.Fatalf("create: %v", err)
	}

	got, err := repo.GetAccount(ctx, testUser, a.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Name != a.Name || got.Type != a.Type || got.CurrentBalance != a.CurrentBalance {
		t.Errorf("round trip mismatch: %+v", got)
	}
	if !got.CreatedAt.Equal(a.CreatedAt) {
		t.Errorf("created at = %v, want %v", got.CreatedAt, a.CreatedAt)
	}

	got.Name = "Renamed"
	if err := repo.UpdateAccount(ctx, got); err != nil {
		t.Fatalf("update: %v", err)
	}
	if err := repo.SetAccountBalance(ctx, testUser, a.ID, 4200); err != nil {
		t.Fatalf("set balance: %v", err)
	}

	got, err = repo.GetAccount(ctx, testUser, a.ID)
	if err != nil {
		t.Fatalf("get after update: %v", err)
	}
	if got.Name != "Renamed" || got.CurrentBalance.Cents != 4200 {
		t.Errorf("update not persisted: %+v", got)
	}

	if err := repo.DeleteAccount(ctx, testUser, a.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := repo.GetAccount(ctx, testUser, a.ID); !errors.Is(err, core.ErrAccountNotFound) {
		t.Errorf("get after delete = %v, want ErrAccountNotFound", err)
	}
}

func TestAccountUserScoping(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	a := core.Account{ID: uuid.NewString(), UserID: testUser, Name: "Mine", Type: core.Savings}
	if err := repo.CreateAccount(ctx, a); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := repo.GetAccount(ctx, "someone-else", a.ID); !errors.Is(err, core.ErrAccountNotFound) {
		t.Errorf("cross-user get = %v, want ErrAccountNotFound", err)
	}
	if err := repo.DeleteAccount(ctx, "someone-else", a.ID); !errors.Is(err, core.ErrAccountNotFound) {
		t.Errorf("cross-user delete = %v, want ErrAccountNotFound", err)
	}
}

func TestTransactionRoundTrip(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	tx := core.Transaction{
		ID:             uuid.NewString(),
		UserID:         testUser,
		Type:           core.Expense,
		Amount:         core.Money{Cents: 12345},
		Description:    "groceries",
		CategoryID:     "food",
		AccountID:      "a1",
		Date:           time.Date(2025, time.June, 10, 0, 0, 0, 0, time.UTC),
		DueDate:        time.Date(2025, time.June, 20, 0, 0, 0, 0, time.UTC),
		IsPaid:         true,
		ExpenseType:    core.ExpenseCash,
		IsRecurring:    true,
		RecurringDay:   10,
		RecurrenceType: "monthly",
		AssignedTo:     core.AssignedFamily,
		ValueHistory:   []int64{12000, 12345},
		CreatedAt:      time.Date(2025, time.June, 10, 9, 0, 0, 0, time.UTC),
		UpdatedAt:      time.Date(2025, time.June, 10, 9, 0, 0, 0, time.UTC),
	}
	if err := repo.CreateTransaction(ctx, tx); err != nil {
		t.Fatalf("create: %v", err)
	}

	got, err := repo.GetTransaction(ctx, testUser, tx.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Amount != tx.Amount || got.CategoryID != tx.CategoryID || !got.IsPaid {
		t.Errorf("round trip mismatch: %+v", got)
	}
	if !got.Date.Equal(tx.Date) || !got.DueDate.Equal(tx.DueDate) {
		t.Errorf("dates mismatch: %v / %v", got.Date, got.DueDate)
	}
	if len(got.ValueHistory) != 2 || got.ValueHistory[1] != 12345 {
		t.Errorf("value history = %v", got.ValueHistory)
	}
	if got.AssignedTo != core.AssignedFamily {
		t.Errorf("assigned to = %q", got.AssignedTo)
	}
}

func TestTransactionZeroDatesSurviveRoundTrip(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	tx := core.Transaction{
		ID:         uuid.NewString(),
		UserID:     testUser,
		Type:       core.Income,
		Amount:     core.Money{Cents: 100},
		CategoryID: "misc",
		Date:       time.Date(2025, time.June, 1, 0, 0, 0, 0, time.UTC),
	}
	if err := repo.CreateTransaction(ctx, tx); err != nil {
		t.Fatalf("create: %v", err)
	}
	got, err := repo.GetTransaction(ctx, testUser, tx.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !got.DueDate.IsZero() || !got.PurchaseDate.IsZero() || !got.FirstDueDate.IsZero() {
		t.Errorf("zero dates not preserved: %+v", got)
	}
}

func TestListTransactionsFilters(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	seed := []core.Transaction{
		{ID: "t1", UserID: testUser, Type: core.Expense, Amount: core.Money{Cents: 100},
			CategoryID: "food", AccountID: "a1", IsPaid: true,
			Date: time.Date(2025, time.June, 5, 0, 0, 0, 0, time.UTC)},
		{ID: "t2", UserID: testUser, Type: core.Income, Amount: core.Money{Cents: 200},
			CategoryID: "salary", AccountID: "a1", IsPaid: true,
			Date: time.Date(2025, time.June, 20, 0, 0, 0, 0, time.UTC)},
		{ID: "t3", UserID: testUser, Type: core.Expense, Amount: core.Money{Cents: 300},
			CategoryID: "food", AccountID: "a2",
			Date: time.Date(2025, time.May, 5, 0, 0, 0, 0, time.UTC)},
		{ID: "t4", UserID: "other", Type: core.Expense, Amount: core.Money{Cents: 400},
			CategoryID: "food", Date: time.Date(2025, time.June, 5, 0, 0, 0, 0, time.UTC)},
	}
	for _, tx := range seed {
		if err := repo.CreateTransaction(ctx, tx); err != nil {
			t.Fatalf("seed %s: %v", tx.ID, err)
		}
	}

	june, err := repo.ListTransactions(ctx, testUser, TransactionFilters{Year: 2025, Month: 6})
	if err != nil {
		t.Fatalf("list june: %v", err)
	}
	if len(june) != 2 {
		t.Errorf("june rows = %d, want 2", len(june))
	}
	// Newest first.
	if len(june) == 2 && june[0].ID != "t2" {
		t.Errorf("june order: %s first, want t2", june[0].ID)
	}

	incomes, err := repo.ListTransactions(ctx, testUser, TransactionFilters{Type: core.Income})
	if err != nil {
		t.Fatalf("list incomes: %v", err)
	}
	if len(incomes) != 1 || incomes[0].ID != "t2" {
		t.Errorf("incomes = %+v", incomes)
	}

	unpaid, err := repo.ListTransactions(ctx, testUser, TransactionFilters{Unpaid: true})
	if err != nil {
		t.Fatalf("list unpaid: %v", err)
	}
	if len(unpaid) != 1 || unpaid[0].ID != "t3" {
		t.Errorf("unpaid = %+v", unpaid)
	}

	byAccount, err := repo.ListByAccount(ctx, testUser, "a1")
	if err != nil {
		t.Fatalf("list by account: %v", err)
	}
	if len(byAccount) != 2 {
		t.Errorf("account rows = %d, want 2", len(byAccount))
	}
}

func TestListTransactionsBetween(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	for i, day := range []int{1, 15, 30} {
		tx := core.Transaction{
			ID: uuid.NewString(), UserID: testUser, Type: core.Expense,
			Amount: core.Money{Cents: int64(100 * (i + 1))}, CategoryID: "misc",
			Date: time.Date(2025, time.June, day, 0, 0, 0, 0, time.UTC),
		}
		if err := repo.CreateTransaction(ctx, tx); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	from := time.Date(2025, time.June, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2025, time.June, 30, 0, 0, 0, 0, time.UTC)
	got, err := repo.ListTransactionsBetween(ctx, testUser, from, to)
	if err != nil {
		t.Fatalf("list between: %v", err)
	}
	// The upper bound is exclusive.
	if len(got) != 2 {
		t.Fatalf("rows = %d, want 2", len(got))
	}
	if got[0].Date.After(got[1].Date) {
		t.Error("rows not in ascending date order")
	}
}

func TestListPendingConfirmation(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	seed := []core.Transaction{
		{ID: "paid", UserID: testUser, Type: core.Expense, Amount: core.Money{Cents: 100},
			CategoryID: "rent", ExpenseType: core.ExpenseFixed, IsPaid: true,
			Date: time.Date(2025, time.June, 1, 0, 0, 0, 0, time.UTC)},
		{ID: "pending-late", UserID: testUser, Type: core.Expense, Amount: core.Money{Cents: 100},
			CategoryID: "rent", ExpenseType: core.ExpenseFixed,
			Date: time.Date(2025, time.July, 1, 0, 0, 0, 0, time.UTC)},
		{ID: "pending-early", UserID: testUser, Type: core.Income, Amount: core.Money{Cents: 100},
			CategoryID: "salary", IsRecurring: true,
			Date: time.Date(2025, time.June, 25, 0, 0, 0, 0, time.UTC)},
		{ID: "plain-unpaid", UserID: testUser, Type: core.Expense, Amount: core.Money{Cents: 100},
			CategoryID: "misc", Date: time.Date(2025, time.June, 2, 0, 0, 0, 0, time.UTC)},
	}
	for _, tx := range seed {
		if err := repo.CreateTransaction(ctx, tx); err != nil {
			t.Fatalf("seed %s: %v", tx.ID, err)
		}
	}

	got, err := repo.ListPendingConfirmation(ctx, testUser)
	if err != nil {
		t.Fatalf("list pending: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("pending rows = %d, want 2", len(got))
	}
	if got[0].ID != "pending-early" || got[1].ID != "pending-late" {
		t.Errorf("pending order = %s, %s", got[0].ID, got[1].ID)
	}
}

func TestInstallmentGroup(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	cohort := uuid.NewString()
	for i := 0; i < 3; i++ {
		tx := core.Transaction{
			ID: uuid.NewString(), UserID: testUser, Type: core.Expense,
			Amount: core.Money{Cents: 1000}, CategoryID: "home",
			ExpenseType: core.ExpenseInstallment, InstallmentID: cohort,
			Installments: 3, CurrentInstallment: i + 1,
			Date: time.Date(2025, time.June, 1, 0, 0, 0, 0, time.UTC),
		}
		if err := repo.CreateTransaction(ctx, tx); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	group, err := repo.ListInstallmentGroup(ctx, testUser, cohort)
	if err != nil {
		t.Fatalf("list group: %v", err)
	}
	if len(group) != 3 {
		t.Fatalf("group size = %d, want 3", len(group))
	}

	if err := repo.DeleteInstallmentGroup(ctx, testUser, cohort); err != nil {
		t.Fatalf("delete group: %v", err)
	}
	group, err = repo.ListInstallmentGroup(ctx, testUser, cohort)
	if err != nil {
		t.Fatalf("list after delete: %v", err)
	}
	if len(group) != 0 {
		t.Errorf("group not emptied: %d rows", len(group))
	}
}

func TestGoalRoundTrip(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	g := core.Goal{
		ID:           uuid.NewString(),
		UserID:       testUser,
		Name:         "Trip",
		TargetAmount: core.Money{Cents: 100000},
		Status:       core.GoalActive,
		Contributions: []core.Contribution{
			{Amount: core.Money{Cents: 5000}, Date: time.Date(2025, time.June, 1, 0, 0, 0, 0, time.UTC), Note: "first"},
			{Amount: core.Money{Cents: -2000}, Date: time.Date(2025, time.June, 2, 0, 0, 0, 0, time.UTC)},
		},
		CurrentAmount: core.Money{Cents: 3000},
		CreatedAt:     time.Date(2025, time.May, 1, 0, 0, 0, 0, time.UTC),
	}
	if err := repo.CreateGoal(ctx, g); err != nil {
		t.Fatalf("create: %v", err)
	}

	got, err := repo.GetGoal(ctx, testUser, g.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.CurrentAmount.Cents != 3000 || len(got.Contributions) != 2 {
		t.Errorf("round trip mismatch: %+v", got)
	}
	if got.Contributions[1].Amount.Cents != -2000 {
		t.Errorf("signed contribution lost: %+v", got.Contributions[1])
	}

	got.Status = core.GoalCompleted
	if err := repo.UpdateGoal(ctx, got); err != nil {
		t.Fatalf("update: %v", err)
	}
	got, _ = repo.GetGoal(ctx, testUser, g.ID)
	if got.Status != core.GoalCompleted {
		t.Errorf("status = %s, want completed", got.Status)
	}

	if _, err := repo.GetGoal(ctx, testUser, "missing"); !errors.Is(err, core.ErrGoalNotFound) {
		t.Errorf("missing goal = %v, want ErrGoalNotFound", err)
	}
}
