// Package export writes monthly ledger summaries to a Google spreadsheet.
package export

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"time"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"contas/internal/core"
)

// Options selects the target spreadsheet and the credentials source.
// Exactly one of CredentialsJSON or CredentialsFile must be set.
type Options struct {
	SpreadsheetID   string
	SheetName       string
	CredentialsJSON string
	CredentialsFile string
}

type SheetsExporter struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetName     string
}

func NewSheetsExporter(ctx context.Context, opts Options) (*SheetsExporter, error) {
	if opts.SpreadsheetID == "" {
		return nil, errors.New("missing spreadsheet ID")
	}
	if opts.SheetName == "" {
		return nil, errors.New("missing sheet name")
	}

	var credentials []byte
	switch {
	case opts.CredentialsJSON != "":
		credentials = []byte(opts.CredentialsJSON)
	case opts.CredentialsFile != "":
		data, err := os.ReadFile(opts.CredentialsFile)
		if err != nil {
			return nil, fmt.Errorf("read credentials file: %w", err)
		}
		credentials = data
	default:
		return nil, errors.New("missing service account credentials")
	}

	svc, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentials),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	return &SheetsExporter{
		svc:           svc,
		spreadsheetID: opts.SpreadsheetID,
		sheetName:     opts.SheetName,
	}, nil
}

// MonthSummary is one exported row.
type MonthSummary struct {
	Year       int
	Month      time.Month
	Income     core.Money
	Expenses   core.Money
	Net        core.Money
	ByCategory map[string]core.Money
}

// Summarize folds settled transactions into a per-month summary. Unsettled
// rows are excluded so the export matches account balances.
func Summarize(txs []core.Transaction, year int, month time.Month) MonthSummary {
	s := MonthSummary{Year: year, Month: month, ByCategory: map[string]core.Money{}}
	for _, t := range txs {
		if !t.IsPaid || t.Date.Year() != year || t.Date.Month() != month {
			continue
		}
		switch t.Type {
		case core.Income:
			s.Income.Cents += t.Amount.Cents
		case core.Expense:
			s.Expenses.Cents += t.Amount.Cents
			cat := s.ByCategory[t.CategoryID]
			cat.Cents += t.Amount.Cents
			s.ByCategory[t.CategoryID] = cat
		}
	}
	s.Net.Cents = s.Income.Cents - s.Expenses.Cents
	return s
}

// ExportMonth appends one summary row plus a row per category, in stable
// category order.
func (e *SheetsExporter) ExportMonth(ctx context.Context, summary MonthSummary) error {
	rows := [][]any{{
		fmt.Sprintf("%04d-%02d", summary.Year, summary.Month),
		"total",
		summary.Income.Units(),
		summary.Expenses.Units(),
		summary.Net.Units(),
	}}

	categories := make([]string, 0, len(summary.ByCategory))
	for cat := range summary.ByCategory {
		categories = append(categories, cat)
	}
	sort.Strings(categories)
	for _, cat := range categories {
		rows = append(rows, []any{
			fmt.Sprintf("%04d-%02d", summary.Year, summary.Month),
			cat,
			"",
			summary.ByCategory[cat].Units(),
			"",
		})
	}

	rng := fmt.Sprintf("%s!A:E", e.sheetName)
	vr := &gsheet.ValueRange{Values: rows}
	_, err := e.svc.Spreadsheets.Values.Append(e.spreadsheetID, rng, vr).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("append summary to sheet %s: %w", e.sheetName, err)
	}
	return nil
}
