// Package services holds the two exporters. Each one pulls from its source,
// runs the reconciliation engine, publishes the JSON artifacts, and records
// the run in the local journal.
package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/eqty-dao/treasury/internal/ledger"
	"github.com/eqty-dao/treasury/internal/moneybird"
	"github.com/eqty-dao/treasury/internal/publish"
	"github.com/eqty-dao/treasury/internal/report"
	"github.com/eqty-dao/treasury/internal/sheets"
	"github.com/eqty-dao/treasury/internal/storage"
)

// AccountingSource is the subset of the Moneybird client the exporter uses.
type AccountingSource interface {
	FinancialAccounts(ctx context.Context) ([]moneybird.FinancialAccount, error)
	LedgerAccounts(ctx context.Context) ([]moneybird.LedgerAccount, error)
	CashFlow(ctx context.Context, financialAccountID, period string) (moneybird.CashFlowReport, error)
	MutationCount(ctx context.Context, financialAccountID, period string) (int, error)
}

// RefreshNotifier publishes the post-run refresh event. A nil
// *publish.Notifier satisfies it and drops events.
type RefreshNotifier interface {
	NotifyRefresh(ctx context.Context, event publish.RefreshEvent) error
}

// RunJournal records exporter runs.
type RunJournal interface {
	RecordRun(ctx context.Context, run storage.Run) (int64, error)
	LastSuccessful(ctx context.Context, source string) (*storage.Run, error)
}

// AccountingExporter exports one financial account's year: the ledger-account
// snapshot, the monthly series, the account summary, the category rollups,
// and the meta document.
type AccountingExporter struct {
	source   AccountingSource
	writer   *publish.Writer
	notifier RefreshNotifier
	journal  RunJournal
	mirror   sheets.MonthlyWriter

	administrationID   string
	financialAccountID string
	year               int

	now func() time.Time
}

type AccountingOptions struct {
	AdministrationID   string
	FinancialAccountID string

	// Year selects the reporting year; zero means the current year.
	Year int

	// Mirror is optional; nil disables the spreadsheet mirror.
	Mirror sheets.MonthlyWriter

	// Now is optional and exists for tests.
	Now func() time.Time
}

func NewAccountingExporter(source AccountingSource, writer *publish.Writer, notifier RefreshNotifier, journal RunJournal, opts AccountingOptions) *AccountingExporter {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	year := opts.Year
	if year == 0 {
		year = now().Year()
	}
	return &AccountingExporter{
		source:   source,
		writer:   writer,
		notifier: notifier,
		journal:  journal,
		mirror:   opts.Mirror,

		administrationID:   opts.AdministrationID,
		financialAccountID: opts.FinancialAccountID,
		year:               year,

		now: now,
	}
}

// monthResult pairs one fetched month with its position in the series.
type monthResult struct {
	month    time.Month
	period   string
	cashFlow moneybird.CashFlowReport
	count    int
}

// Run performs one full export. Any upstream failure aborts the run; stale
// artifacts from the previous run stay in place untouched.
func (e *AccountingExporter) Run(ctx context.Context) error {
	startedAt := e.now()
	slog.InfoContext(ctx, "Starting accounting export",
		"administration", e.administrationID,
		"account", e.financialAccountID,
		"year", e.year)

	if last, err := e.journal.LastSuccessful(ctx, storage.SourceAccounting); err != nil {
		slog.WarnContext(ctx, "Could not read run journal", "error", err)
	} else if last != nil {
		slog.InfoContext(ctx, "Previous successful export",
			"finishedAt", last.FinishedAt, "artifacts", last.ArtifactCount)
	}

	artifacts, err := e.export(ctx)
	finishedAt := e.now()

	run := storage.Run{
		Source:        storage.SourceAccounting,
		StartedAt:     startedAt,
		FinishedAt:    finishedAt,
		Status:        storage.RunSucceeded,
		ArtifactCount: len(artifacts),
	}
	if err != nil {
		run.Status = storage.RunFailed
		run.Detail = err.Error()
	}
	if _, recordErr := e.journal.RecordRun(ctx, run); recordErr != nil {
		slog.ErrorContext(ctx, "Failed to record run", "error", recordErr)
	}

	if err != nil {
		return err
	}

	if err := e.notifier.NotifyRefresh(ctx, publish.RefreshEvent{
		Source:      storage.SourceAccounting,
		GeneratedAt: finishedAt.UTC(),
		Artifacts:   artifacts,
	}); err != nil {
		// Artifacts are already on disk; a lost event only delays readers.
		slog.ErrorContext(ctx, "Failed to publish refresh event", "error", err)
	}

	slog.InfoContext(ctx, "Accounting export finished",
		"artifacts", len(artifacts),
		"duration", finishedAt.Sub(startedAt))
	return nil
}

func (e *AccountingExporter) export(ctx context.Context) ([]string, error) {
	generatedAt := e.now()

	var financialAccounts []moneybird.FinancialAccount
	var ledgerAccounts []moneybird.LedgerAccount

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		financialAccounts, err = e.source.FinancialAccounts(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		ledgerAccounts, err = e.source.LedgerAccounts(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("fetch account metadata: %w", err)
	}

	meta, err := accountMeta(financialAccounts, e.financialAccountID)
	if err != nil {
		return nil, err
	}

	idx := ledgerIndex(ledgerAccounts)

	months, err := e.fetchMonths(ctx)
	if err != nil {
		return nil, err
	}

	series := report.MonthlySeries{
		GeneratedAt:        generatedAt.UTC().Format(time.RFC3339),
		Year:               fmt.Sprintf("%d", e.year),
		FinancialAccountID: e.financialAccountID,
		Months:             months,
	}
	summary := report.Assemble(meta, e.administrationID, e.year, months, generatedAt)
	latest := report.BuildCategoryRollup(report.ScopeLatestMonth, months, idx, meta.Currency, generatedAt)
	ytd := report.BuildCategoryRollup(report.ScopeYearToDate, months, idx, meta.Currency, generatedAt)

	accountingMeta := report.AccountingMeta{
		GeneratedAt:      generatedAt.UTC().Format(time.RFC3339),
		AdministrationID: e.administrationID,
		Year:             series.Year,
		Accounts:         map[string]string{e.financialAccountID: meta.Currency},
	}

	artifacts := []string{
		"moneybird/ledger_accounts.json",
		fmt.Sprintf("moneybird/bank/monthly-%d.json", e.year),
		"moneybird/bank/account.json",
		"categories-latest.json",
		"categories-ytd.json",
		"moneybird/meta.json",
	}
	documents := []any{
		ledgerAccountsDoc(ledgerAccounts, e.administrationID, generatedAt),
		series,
		summary,
		latest,
		ytd,
		accountingMeta,
	}
	for i, relPath := range artifacts {
		if err := e.writer.WriteJSON(relPath, documents[i]); err != nil {
			return nil, err
		}
	}

	if e.mirror != nil {
		if err := e.mirror.WriteMonthlySeries(ctx, series.Year, months); err != nil {
			// The mirror is a convenience view; the JSON artifacts are
			// already complete.
			slog.ErrorContext(ctx, "Failed to mirror monthly series", "error", err)
		}
	}

	return artifacts, nil
}

// fetchMonths fetches every month of the reporting year concurrently, one
// cash-flow report and one mutation count per month. Any month failing aborts
// the whole series; a partial series would silently skew the totals.
func (e *AccountingExporter) fetchMonths(ctx context.Context) ([]report.MonthlySnapshot, error) {
	lastMonth := report.MonthsInYear(e.year, e.now())
	results := make([]monthResult, lastMonth)

	g, gctx := errgroup.WithContext(ctx)
	for m := time.January; m <= lastMonth; m++ {
		period := moneybird.MonthPeriod(e.year, m)
		g.Go(func() error {
			cf, err := e.source.CashFlow(gctx, e.financialAccountID, period)
			if err != nil {
				return fmt.Errorf("cash flow for %s: %w", period, err)
			}
			count, err := e.source.MutationCount(gctx, e.financialAccountID, period)
			if err != nil {
				return fmt.Errorf("mutation count for %s: %w", period, err)
			}
			results[m-1] = monthResult{month: m, period: period, cashFlow: cf, count: count}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	months := make([]report.MonthlySnapshot, 0, len(results))
	for _, r := range results {
		months = append(months, report.BuildMonth(e.year, r.month, r.period, report.CashFlow{
			OpeningBalance:   r.cashFlow.OpeningBalance,
			ClosingBalance:   r.cashFlow.ClosingBalance,
			ReceivedByLedger: r.cashFlow.CashReceivedByLedgerAccount,
			PaidByLedger:     r.cashFlow.CashPaidByLedgerAccount,
		}, r.count))
	}
	return months, nil
}

func accountMeta(accounts []moneybird.FinancialAccount, financialAccountID string) (report.AccountMeta, error) {
	for _, a := range accounts {
		if a.ID.String() != financialAccountID {
			continue
		}
		return report.AccountMeta{
			ID:        a.ID.String(),
			Type:      a.Type,
			Name:      report.Nullable(a.Name),
			Currency:  a.Currency,
			Provider:  report.Nullable(a.Provider),
			Active:    a.Active,
			UpdatedAt: a.UpdatedAt,
		}, nil
	}
	return report.AccountMeta{}, fmt.Errorf("financial account %s not found in administration", financialAccountID)
}

func ledgerIndex(accounts []moneybird.LedgerAccount) ledger.Index {
	rows := make([]ledger.Account, 0, len(accounts))
	for _, a := range accounts {
		rows = append(rows, ledger.Account{
			ID:          a.ID.String(),
			Name:        a.Name,
			ParentID:    a.ParentID.String(),
			AccountType: a.AccountType,
		})
	}
	return ledger.NewIndex(rows)
}

func ledgerAccountsDoc(accounts []moneybird.LedgerAccount, administrationID string, generatedAt time.Time) report.LedgerAccountsDoc {
	rows := make([]report.LedgerAccountRow, 0, len(accounts))
	for _, a := range accounts {
		rows = append(rows, report.LedgerAccountRow{
			ID:          a.ID.String(),
			Name:        report.Nullable(a.Name),
			ParentID:    report.Nullable(a.ParentID.String()),
			AccountType: report.Nullable(a.AccountType),
		})
	}
	return report.LedgerAccountsDoc{
		GeneratedAt:      generatedAt.UTC().Format(time.RFC3339),
		AdministrationID: administrationID,
		LedgerAccounts:   rows,
	}
}
