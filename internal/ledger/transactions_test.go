package ledger

import (
	"context"
	"testing"
	"time"

	"contas/internal/core"
)

func TestCreateInstallmentsConservesTotal(t *testing.T) {
	manager, repo := newTestManager(t)
	ctx := context.Background()
	acct := createAccount(t, repo, 0)

	tests := []struct {
		name         string
		totalCents   int64
		downCents    int64
		installments int
	}{
		{"even split", 90000, 0, 3},
		{"uneven split", 10000, 0, 3},
		{"with down payment", 100000, 10000, 7},
		{"two installments", 99999, 0, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			created, err := manager.Create(ctx, testUser, CreateInput{
				Type:         core.Expense,
				Amount:       core.Money{Cents: tt.totalCents},
				Description:  "tv",
				CategoryID:   "electronics",
				AccountID:    acct.ID,
				ExpenseType:  core.ExpenseInstallment,
				Installments: tt.installments,
				DownPayment:  core.Money{Cents: tt.downCents},
				Date:         time.Date(2025, time.March, 5, 0, 0, 0, 0, time.UTC),
				FirstDueDate: time.Date(2025, time.April, 5, 0, 0, 0, 0, time.UTC),
			})
			if err != nil {
				t.Fatalf("create installments: %v", err)
			}

			wantRows := tt.installments
			if tt.downCents > 0 {
				wantRows++
			}
			if len(created) != wantRows {
				t.Fatalf("created %d rows, want %d", len(created), wantRows)
			}

			var sum int64
			for _, row := range created {
				sum += row.Amount.Cents
			}
			diff := sum - tt.totalCents
			if diff < 0 {
				diff = -diff
			}
			if diff > int64(tt.installments) {
				t.Errorf("sum of rows %d drifts from total %d by %d cents", sum, tt.totalCents, diff)
			}
		})
	}
}

func TestCreateInstallmentsDueDates(t *testing.T) {
	manager, repo := newTestManager(t)
	ctx := context.Background()
	acct := createAccount(t, repo, 0)

	firstDue := time.Date(2025, time.January, 31, 0, 0, 0, 0, time.UTC)
	created, err := manager.Create(ctx, testUser, CreateInput{
		Type:         core.Expense,
		Amount:       core.Money{Cents: 30000},
		Description:  "sofa",
		CategoryID:   "home",
		AccountID:    acct.ID,
		ExpenseType:  core.ExpenseInstallment,
		Installments: 3,
		Date:         time.Date(2025, time.January, 20, 0, 0, 0, 0, time.UTC),
		FirstDueDate: firstDue,
	})
	if err != nil {
		t.Fatalf("create installments: %v", err)
	}

	wantDue := []time.Time{
		time.Date(2025, time.January, 31, 0, 0, 0, 0, time.UTC),
		time.Date(2025, time.February, 28, 0, 0, 0, 0, time.UTC),
		time.Date(2025, time.March, 31, 0, 0, 0, 0, time.UTC),
	}
	for i, row := range created {
		if !row.DueDate.Equal(wantDue[i]) {
			t.Errorf("installment %d due %v, want %v", i+1, row.DueDate, wantDue[i])
		}
		if row.CurrentInstallment != i+1 {
			t.Errorf("installment %d numbered %d", i+1, row.CurrentInstallment)
		}
		if row.IsPaid {
			t.Errorf("installment %d settled at creation", i+1)
		}
	}
}

func TestDownPaymentSettlesImmediately(t *testing.T) {
	manager, repo := newTestManager(t)
	ctx := context.Background()
	acct := createAccount(t, repo, 50000)

	created, err := manager.Create(ctx, testUser, CreateInput{
		Type:         core.Expense,
		Amount:       core.Money{Cents: 40000},
		Description:  "bike",
		CategoryID:   "sport",
		AccountID:    acct.ID,
		ExpenseType:  core.ExpenseInstallment,
		Installments: 3,
		DownPayment:  core.Money{Cents: 10000},
		Date:         time.Date(2025, time.March, 5, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("create installments: %v", err)
	}

	down := created[0]
	if !down.IsPaid || down.ExpenseType != core.ExpenseCash {
		t.Errorf("down payment row not settled cash: %+v", down)
	}
	if got := accountBalance(t, repo, acct.ID); got != 40000 {
		t.Errorf("balance after down payment = %d, want 40000", got)
	}
}

func TestCardClosingDayShift(t *testing.T) {
	manager, repo := newTestManager(t)
	ctx := context.Background()
	card := createCard(t, repo, 15)

	onClosing, err := manager.Create(ctx, testUser, CreateInput{
		Type:        core.Expense,
		Amount:      core.Money{Cents: 5000},
		CategoryID:  "dining",
		CardID:      card.ID,
		ExpenseType: core.ExpenseCash,
		Date:        time.Date(2025, time.March, 15, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("create on closing day: %v", err)
	}

	afterClosing, err := manager.Create(ctx, testUser, CreateInput{
		Type:        core.Expense,
		Amount:      core.Money{Cents: 5000},
		CategoryID:  "dining",
		CardID:      card.ID,
		ExpenseType: core.ExpenseCash,
		Date:        time.Date(2025, time.March, 16, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("create after closing day: %v", err)
	}

	if got := onClosing[0].Date; !got.Equal(time.Date(2025, time.March, 15, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("purchase on closing day shifted to %v", got)
	}
	if got := afterClosing[0].Date; !got.Equal(time.Date(2025, time.April, 16, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("purchase after closing day landed on %v, want next month", got)
	}
}

func TestCardShiftMovesDueDateForFixedExpenses(t *testing.T) {
	manager, repo := newTestManager(t)
	ctx := context.Background()
	card := createCard(t, repo, 10)

	created, err := manager.Create(ctx, testUser, CreateInput{
		Type:        core.Expense,
		Amount:      core.Money{Cents: 4999},
		CategoryID:  "subscriptions",
		CardID:      card.ID,
		ExpenseType: core.ExpenseFixed,
		Date:        time.Date(2025, time.March, 20, 0, 0, 0, 0, time.UTC),
		DueDate:     time.Date(2025, time.March, 25, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("create fixed card expense: %v", err)
	}

	first := created[0]
	if !first.Date.Equal(time.Date(2025, time.March, 20, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("fixed expense ledger date moved to %v", first.Date)
	}
	if !first.DueDate.Equal(time.Date(2025, time.April, 25, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("fixed expense due date = %v, want shifted one month", first.DueDate)
	}
}

func TestFixedExpenseSpawnsNextOccurrence(t *testing.T) {
	manager, repo := newTestManager(t)
	ctx := context.Background()
	acct := createAccount(t, repo, 100000)

	created, err := manager.Create(ctx, testUser, CreateInput{
		Type:        core.Expense,
		Amount:      core.Money{Cents: 120000},
		Description: "rent",
		CategoryID:  "housing",
		AccountID:   acct.ID,
		ExpenseType: core.ExpenseFixed,
		Date:        time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("create fixed expense: %v", err)
	}
	if len(created) != 2 {
		t.Fatalf("created %d rows, want principal plus next occurrence", len(created))
	}

	principal, next := created[0], created[1]
	if !principal.IsPaid {
		t.Error("fixed expense not settled at creation")
	}
	if next.IsPaid {
		t.Error("next occurrence settled at creation")
	}
	if !next.Date.Equal(time.Date(2025, time.April, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("next occurrence dated %v, want one month out", next.Date)
	}

	// Only the settled principal moved the balance.
	if got := accountBalance(t, repo, acct.ID); got != -20000 {
		t.Errorf("balance = %d, want -20000", got)
	}
}

func TestRecurringIncomeSpawnsNextOccurrence(t *testing.T) {
	manager, repo := newTestManager(t)
	ctx := context.Background()
	acct := createAccount(t, repo, 0)

	created, err := manager.Create(ctx, testUser, CreateInput{
		Type:        core.Income,
		Amount:      core.Money{Cents: 350000},
		Description: "salary",
		CategoryID:  "salary",
		AccountID:   acct.ID,
		IsPaid:      true,
		IsRecurring: true,
		Date:        time.Date(2025, time.March, 5, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("create recurring income: %v", err)
	}
	if len(created) != 2 {
		t.Fatalf("created %d rows, want 2", len(created))
	}
	if created[1].IsPaid {
		t.Error("next occurrence settled at creation")
	}
	if got := accountBalance(t, repo, acct.ID); got != 350000 {
		t.Errorf("balance = %d, want 350000", got)
	}
}

func TestDeleteInstallmentCohortLeavesNoOrphans(t *testing.T) {
	manager, repo := newTestManager(t)
	ctx := context.Background()
	acct := createAccount(t, repo, 100000)

	created, err := manager.Create(ctx, testUser, CreateInput{
		Type:         core.Expense,
		Amount:       core.Money{Cents: 60000},
		Description:  "fridge",
		CategoryID:   "home",
		AccountID:    acct.ID,
		ExpenseType:  core.ExpenseInstallment,
		Installments: 4,
		DownPayment:  core.Money{Cents: 20000},
		Date:         time.Date(2025, time.March, 5, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("create installments: %v", err)
	}

	// Delete via a middle child; the whole cohort must go.
	if err := manager.Delete(ctx, testUser, created[2].ID); err != nil {
		t.Fatalf("delete cohort: %v", err)
	}

	group, err := repo.ListInstallmentGroup(ctx, testUser, created[0].InstallmentID)
	if err != nil {
		t.Fatalf("list group: %v", err)
	}
	if len(group) != 0 {
		t.Errorf("cohort left %d orphan rows", len(group))
	}

	// The settled down payment was reversed.
	if got := accountBalance(t, repo, acct.ID); got != 100000 {
		t.Errorf("balance after cohort delete = %d, want 100000", got)
	}
}

func TestDeleteSingleReversesBalance(t *testing.T) {
	manager, repo := newTestManager(t)
	ctx := context.Background()
	acct := createAccount(t, repo, 5000)

	created, err := manager.Create(ctx, testUser, CreateInput{
		Type:        core.Expense,
		Amount:      core.Money{Cents: 2000},
		CategoryID:  "misc",
		AccountID:   acct.ID,
		ExpenseType: core.ExpenseCash,
		Date:        time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("create expense: %v", err)
	}
	if err := manager.Delete(ctx, testUser, created[0].ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if got := accountBalance(t, repo, acct.ID); got != 5000 {
		t.Errorf("balance after delete = %d, want 5000", got)
	}
}

func TestUpdateMovesEffectBetweenAccounts(t *testing.T) {
	manager, repo := newTestManager(t)
	ctx := context.Background()
	first := createAccount(t, repo, 0)
	second := createAccount(t, repo, 0)

	created, err := manager.Create(ctx, testUser, CreateInput{
		Type:        core.Expense,
		Amount:      core.Money{Cents: 10000},
		CategoryID:  "misc",
		AccountID:   first.ID,
		ExpenseType: core.ExpenseCash,
		Date:        time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("create expense: %v", err)
	}

	moved := created[0]
	moved.AccountID = second.ID
	if _, err := manager.Update(ctx, testUser, moved); err != nil {
		t.Fatalf("update: %v", err)
	}

	if got := accountBalance(t, repo, first.ID); got != 0 {
		t.Errorf("old account balance = %d, want 0", got)
	}
	if got := accountBalance(t, repo, second.ID); got != -10000 {
		t.Errorf("new account balance = %d, want -10000", got)
	}
}

func TestUpdateAmountAdjustsByDiff(t *testing.T) {
	manager, repo := newTestManager(t)
	ctx := context.Background()
	acct := createAccount(t, repo, 0)

	created, err := manager.Create(ctx, testUser, CreateInput{
		Type:        core.Expense,
		Amount:      core.Money{Cents: 10000},
		CategoryID:  "misc",
		AccountID:   acct.ID,
		ExpenseType: core.ExpenseCash,
		Date:        time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("create expense: %v", err)
	}

	changed := created[0]
	changed.Amount = core.Money{Cents: 7500}
	if _, err := manager.Update(ctx, testUser, changed); err != nil {
		t.Fatalf("update: %v", err)
	}
	if got := accountBalance(t, repo, acct.ID); got != -7500 {
		t.Errorf("balance = %d, want -7500", got)
	}
}

func TestUpdateTogglesSettlement(t *testing.T) {
	manager, repo := newTestManager(t)
	ctx := context.Background()
	acct := createAccount(t, repo, 0)

	created, err := manager.Create(ctx, testUser, CreateInput{
		Type:       core.Expense,
		Amount:     core.Money{Cents: 3000},
		CategoryID: "misc",
		AccountID:  acct.ID,
		IsPaid:     false,
		Date:       time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("create pending expense: %v", err)
	}
	if got := accountBalance(t, repo, acct.ID); got != 0 {
		t.Fatalf("pending expense moved balance: %d", got)
	}

	paid := created[0]
	paid.IsPaid = true
	if _, err := manager.Update(ctx, testUser, paid); err != nil {
		t.Fatalf("settle via update: %v", err)
	}
	if got := accountBalance(t, repo, acct.ID); got != -3000 {
		t.Errorf("balance after settle = %d, want -3000", got)
	}

	paid.IsPaid = false
	if _, err := manager.Update(ctx, testUser, paid); err != nil {
		t.Fatalf("unsettle via update: %v", err)
	}
	if got := accountBalance(t, repo, acct.ID); got != 0 {
		t.Errorf("balance after unsettle = %d, want 0", got)
	}
}

func TestUpdateCardLinkageReversesEffect(t *testing.T) {
	manager, repo := newTestManager(t)
	engine := NewEngine(repo)
	ctx := context.Background()
	acct := createAccount(t, repo, 10000)
	card := createCard(t, repo, 10)

	created, err := manager.Create(ctx, testUser, CreateInput{
		Type:        core.Expense,
		Amount:      core.Money{Cents: 4000},
		CategoryID:  "misc",
		AccountID:   acct.ID,
		ExpenseType: core.ExpenseCash,
		IsPaid:      true,
		Date:        time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("create expense: %v", err)
	}
	if got := accountBalance(t, repo, acct.ID); got != 6000 {
		t.Fatalf("balance after create = %d, want 6000", got)
	}

	// Moving the expense onto a card takes it out of the account's
	// settled set, so the old effect must come back off.
	onCard := created[0]
	onCard.CardID = card.ID
	if _, err := manager.Update(ctx, testUser, onCard); err != nil {
		t.Fatalf("update onto card: %v", err)
	}
	if got := accountBalance(t, repo, acct.ID); got != 10000 {
		t.Errorf("balance after card move = %d, want 10000", got)
	}
	replayed, err := engine.RecalculateBalance(ctx, testUser, acct.ID)
	if err != nil {
		t.Fatalf("recalculate: %v", err)
	}
	if replayed.Cents != 10000 {
		t.Errorf("replayed balance = %d, want 10000", replayed.Cents)
	}

	onCard.CardID = ""
	if _, err := manager.Update(ctx, testUser, onCard); err != nil {
		t.Fatalf("update off card: %v", err)
	}
	if got := accountBalance(t, repo, acct.ID); got != 6000 {
		t.Errorf("balance after card removal = %d, want 6000", got)
	}
	if replayed, err = engine.RecalculateBalance(ctx, testUser, acct.ID); err != nil {
		t.Fatalf("recalculate: %v", err)
	} else if replayed.Cents != 6000 {
		t.Errorf("replayed balance = %d, want 6000", replayed.Cents)
	}
}
