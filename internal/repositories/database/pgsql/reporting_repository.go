package pgsql

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/openledgerhq/posting-engine/internal/apperrors"
	"github.com/openledgerhq/posting-engine/internal/core/domain"
	portsrepo "github.com/openledgerhq/posting-engine/internal/core/ports/repositories"
)

type PgxReportingRepository struct {
	BaseRepository
}

// newPgxReportingRepository creates a new repository for balance reporting.
func newPgxReportingRepository(pool *pgxpool.Pool) portsrepo.ReportingRepository {
	return &PgxReportingRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.ReportingRepository = (*PgxReportingRepository)(nil)

// AccountBalance derives the balance strictly from journal lines, signed by
// the account's normal side. Reversed entries and their reversal mirrors are
// both excluded; including both would net to zero anyway, excluding both
// keeps the line counts honest.
func (r *PgxReportingRepository) AccountBalance(ctx context.Context, accountCode string, asOf time.Time) (decimal.Decimal, error) {
	query := `
		SELECT COALESCE(SUM(
			CASE WHEN a.normal_balance = 'CREDIT'
				THEN l.base_credit - l.base_debit
				ELSE l.base_debit - l.base_credit
			END
		), 0)
		FROM journal_lines l
		JOIN journal_entries e ON e.entry_id = l.entry_id
		JOIN gl_accounts a ON a.code = l.account_code
		WHERE l.account_code = $1
		  AND e.posting_date <= $2
		  AND e.status = 'POSTED'
		  AND e.original_entry_id IS NULL;
	`
	var balance decimal.Decimal
	if err := r.Pool.QueryRow(ctx, query, accountCode, asOf).Scan(&balance); err != nil {
		return decimal.Zero, apperrors.NewAppError(500, "failed to compute balance for account "+accountCode, err)
	}
	return balance, nil
}

// TrialBalance aggregates base-currency debit and credit totals per account
// over the posting-date range. Accounts with no activity in the range are
// omitted; total debits always equal total credits because every contributing
// entry was balanced at write time.
func (r *PgxReportingRepository) TrialBalance(ctx context.Context, from, to time.Time, branchID *string) ([]domain.TrialBalanceRow, error) {
	query := `
		SELECT a.code, a.name, a.account_type,
		       COALESCE(SUM(l.base_debit), 0)  AS total_debit,
		       COALESCE(SUM(l.base_credit), 0) AS total_credit
		FROM journal_lines l
		JOIN journal_entries e ON e.entry_id = l.entry_id
		JOIN gl_accounts a ON a.code = l.account_code
		WHERE e.posting_date >= $1
		  AND e.posting_date <= $2
		  AND e.status = 'POSTED'
		  AND e.original_entry_id IS NULL
		  AND ($3::text IS NULL OR e.branch_id = $3)
		GROUP BY a.code, a.name, a.account_type
		ORDER BY a.code;
	`
	rows, err := r.Pool.Query(ctx, query, from, to, branchID)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to query trial balance", err)
	}
	defer rows.Close()

	var result []domain.TrialBalanceRow
	for rows.Next() {
		var row domain.TrialBalanceRow
		if err := rows.Scan(&row.AccountCode, &row.AccountName, &row.AccountType, &row.TotalDebit, &row.TotalCredit); err != nil {
			return nil, apperrors.NewAppError(500, "failed to scan trial balance row", err)
		}
		result = append(result, row)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewAppError(500, "error iterating trial balance rows", err)
	}
	return result, nil
}
