package repositories

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/openledgerhq/posting-engine/internal/core/domain"
)

// ReportingRepository defines the read-side aggregations over posted lines.
// These are pure projections: no locks beyond the storage engine's ordinary
// read isolation, and they never observe a partially written entry because
// the writer commits atomically.
type ReportingRepository interface {
	// AccountBalance sums base-currency (debit - credit) over non-reversed
	// entries posted on or before asOf, signed by the account's normal side.
	AccountBalance(ctx context.Context, accountCode string, asOf time.Time) (decimal.Decimal, error)

	// TrialBalance returns per-account base-currency debit/credit totals over
	// the range, optionally filtered by branch.
	TrialBalance(ctx context.Context, from, to time.Time, branchID *string) ([]domain.TrialBalanceRow, error)
}

// PeriodRepository reads accounting periods. Period administration happens
// outside the engine; the writer only needs the period covering a date.
type PeriodRepository interface {
	// FindPeriodForDate returns the period covering d, or nil when no period
	// covers it (uncovered dates are open for posting).
	FindPeriodForDate(ctx context.Context, d time.Time) (*domain.AccountingPeriod, error)
}
