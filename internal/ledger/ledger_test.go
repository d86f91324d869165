package ledger

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"

	"contas/internal/core"
	"contas/internal/storage"
)

const testUser = "user-1"

func newTestRepo(t *testing.T) *storage.SQLiteRepository {
	t.Helper()
	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "ledger_test.db"))
	if err != nil {
		t.Fatalf("open test repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func newTestEngine(t *testing.T) (*Engine, *storage.SQLiteRepository) {
	t.Helper()
	repo := newTestRepo(t)
	return NewEngine(repo), repo
}

func newTestManager(t *testing.T) (*Manager, *storage.SQLiteRepository) {
	t.Helper()
	repo := newTestRepo(t)
	return NewManager(repo, NewEngine(repo)), repo
}

func createAccount(t *testing.T, repo *storage.SQLiteRepository, initialCents int64) core.Account {
	t.Helper()
	a := core.Account{
		ID:             uuid.NewString(),
		UserID:         testUser,
		Name:           "Checking",
		Type:           core.Checking,
		InitialBalance: core.Money{Cents: initialCents},
		CurrentBalance: core.Money{Cents: initialCents},
		IsActive:       true,
		IncludeInTotal: true,
		CreatedAt:      time.Now().UTC(),
	}
	if err := repo.CreateAccount(context.Background(), a); err != nil {
		t.Fatalf("create account: %v", err)
	}
	return a
}

func createCard(t *testing.T, repo *storage.SQLiteRepository, closingDay int) core.CreditCard {
	t.Helper()
	c := core.CreditCard{
		ID:         uuid.NewString(),
		UserID:     testUser,
		CardBrand:  "visa",
		ClosingDay: closingDay,
		DueDay:     closingDay + 7,
		IsActive:   true,
	}
	if err := repo.CreateCard(context.Background(), c); err != nil {
		t.Fatalf("create card: %v", err)
	}
	return c
}

func createGoal(t *testing.T, repo *storage.SQLiteRepository, targetCents int64) core.Goal {
	t.Helper()
	g := core.Goal{
		ID:           uuid.NewString(),
		UserID:       testUser,
		Name:         "Vacation",
		TargetAmount: core.Money{Cents: targetCents},
		Status:       core.GoalActive,
		CreatedAt:    time.Now().UTC(),
	}
	if err := repo.CreateGoal(context.Background(), g); err != nil {
		t.Fatalf("create goal: %v", err)
	}
	return g
}

func accountBalance(t *testing.T, repo *storage.SQLiteRepository, id string) int64 {
	t.Helper()
	a, err := repo.GetAccount(context.Background(), testUser, id)
	if err != nil {
		t.Fatalf("get account: %v", err)
	}
	return a.CurrentBalance.Cents
}
