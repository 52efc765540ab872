package pgsql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/openledgerhq/posting-engine/internal/apperrors"
	"github.com/openledgerhq/posting-engine/internal/core/domain"
	portsrepo "github.com/openledgerhq/posting-engine/internal/core/ports/repositories"
	"github.com/openledgerhq/posting-engine/internal/models"
	"github.com/openledgerhq/posting-engine/internal/utils/mapping"
)

const accountColumns = `code, name, account_type, normal_balance, parent_code, level, is_control_account, allows_posting, currency_code, is_active, opened_at, balance, created_at, created_by, last_updated_at, last_updated_by`

type PgxAccountRepository struct {
	BaseRepository
}

// newPgxAccountRepository creates a new repository for chart-of-accounts data.
func newPgxAccountRepository(pool *pgxpool.Pool) portsrepo.AccountRepositoryFacade {
	return &PgxAccountRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.AccountRepositoryFacade = (*PgxAccountRepository)(nil)

func scanAccount(row pgx.Row) (*domain.Account, error) {
	var m models.Account
	var parentCode sql.NullString
	err := row.Scan(
		&m.Code,
		&m.Name,
		&m.AccountType,
		&m.NormalBalance,
		&parentCode,
		&m.Level,
		&m.IsControlAccount,
		&m.AllowsPosting,
		&m.CurrencyCode,
		&m.IsActive,
		&m.OpenedAt,
		&m.Balance,
		&m.CreatedAt,
		&m.CreatedBy,
		&m.LastUpdatedAt,
		&m.LastUpdatedBy,
	)
	if err != nil {
		return nil, err
	}
	if parentCode.Valid {
		m.ParentCode = parentCode.String
	}
	acc := mapping.ToDomainAccount(m)
	return &acc, nil
}

// SaveAccount inserts a new account row. A duplicate code maps to
// apperrors.ErrDuplicate; codes are never reused.
func (r *PgxAccountRepository) SaveAccount(ctx context.Context, account domain.Account) error {
	m := mapping.ToModelAccount(account)
	var parentCode *string
	if m.ParentCode != "" {
		parentCode = &m.ParentCode
	}
	query := `
		INSERT INTO gl_accounts (` + accountColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16);
	`
	_, err := r.Pool.Exec(ctx, query,
		m.Code, m.Name, m.AccountType, m.NormalBalance, parentCode, m.Level,
		m.IsControlAccount, m.AllowsPosting, m.CurrencyCode, m.IsActive, m.OpenedAt, m.Balance,
		m.CreatedAt, m.CreatedBy, m.LastUpdatedAt, m.LastUpdatedBy,
	)
	if err != nil {
		if isUniqueViolation(err, "") {
			return fmt.Errorf("%w: account code %s", apperrors.ErrDuplicate, m.Code)
		}
		return apperrors.NewAppError(500, "failed to insert account "+m.Code, err)
	}
	return nil
}

// UpdateAccount persists the mutable subset of an account row.
func (r *PgxAccountRepository) UpdateAccount(ctx context.Context, account domain.Account) error {
	m := mapping.ToModelAccount(account)
	query := `
		UPDATE gl_accounts
		SET name = $2, allows_posting = $3, is_active = $4, last_updated_at = $5, last_updated_by = $6
		WHERE code = $1;
	`
	cmdTag, err := r.Pool.Exec(ctx, query, m.Code, m.Name, m.AllowsPosting, m.IsActive, m.LastUpdatedAt, m.LastUpdatedBy)
	if err != nil {
		return apperrors.NewAppError(500, "failed to update account "+m.Code, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.NewNotFoundError("account " + m.Code + " not found for update")
	}
	return nil
}

// FindAccountByCode retrieves a single account by its code.
func (r *PgxAccountRepository) FindAccountByCode(ctx context.Context, code string) (*domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM gl_accounts WHERE code = $1;`
	acc, err := scanAccount(r.Pool.QueryRow(ctx, query, code))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, apperrors.NewAppError(500, "failed to find account by code "+code, err)
	}
	return acc, nil
}

// FindAccountsByCodes retrieves multiple accounts keyed by code.
func (r *PgxAccountRepository) FindAccountsByCodes(ctx context.Context, codes []string) (map[string]domain.Account, error) {
	if len(codes) == 0 {
		return map[string]domain.Account{}, nil
	}
	query := `SELECT ` + accountColumns + ` FROM gl_accounts WHERE code = ANY($1);`
	rows, err := r.Pool.Query(ctx, query, codes)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to query accounts by codes", err)
	}
	defer rows.Close()

	accounts := make(map[string]domain.Account, len(codes))
	for rows.Next() {
		acc, err := scanAccount(rows)
		if err != nil {
			return nil, apperrors.NewAppError(500, "failed to scan account row", err)
		}
		accounts[acc.Code] = *acc
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewAppError(500, "error iterating account rows", err)
	}
	return accounts, nil
}

// ListAccounts returns the full chart of accounts ordered by code.
func (r *PgxAccountRepository) ListAccounts(ctx context.Context) ([]domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM gl_accounts ORDER BY code;`
	rows, err := r.Pool.Query(ctx, query)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to list accounts", err)
	}
	defer rows.Close()

	var accounts []domain.Account
	for rows.Next() {
		acc, err := scanAccount(rows)
		if err != nil {
			return nil, apperrors.NewAppError(500, "failed to scan account row", err)
		}
		accounts = append(accounts, *acc)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewAppError(500, "error iterating account rows", err)
	}
	return accounts, nil
}

// HasPostedLines reports whether any journal line references the account.
func (r *PgxAccountRepository) HasPostedLines(ctx context.Context, code string) (bool, error) {
	var exists bool
	err := r.Pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM journal_lines WHERE account_code = $1);`, code).Scan(&exists)
	if err != nil {
		return false, apperrors.NewAppError(500, "failed to check posted lines for account "+code, err)
	}
	return exists, nil
}

// HasChildren reports whether any account references code as its parent.
func (r *PgxAccountRepository) HasChildren(ctx context.Context, code string) (bool, error) {
	var exists bool
	err := r.Pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM gl_accounts WHERE parent_code = $1);`, code).Scan(&exists)
	if err != nil {
		return false, apperrors.NewAppError(500, "failed to check children of account "+code, err)
	}
	return exists, nil
}

// FindAccountsByCodesForUpdate locks the account rows FOR UPDATE in ascending
// code order. The ORDER BY inside the locking query, plus the pre-sorted code
// slice, fixes the lock acquisition order across all concurrent postings;
// that total order is what makes deadlock structurally impossible.
// Must be called within a transaction.
func (r *PgxAccountRepository) FindAccountsByCodesForUpdate(ctx context.Context, tx pgx.Tx, codes []string) (map[string]domain.Account, error) {
	if len(codes) == 0 {
		return map[string]domain.Account{}, nil
	}
	sorted := make([]string, len(codes))
	copy(sorted, codes)
	sort.Strings(sorted)

	query := `SELECT ` + accountColumns + ` FROM gl_accounts WHERE code = ANY($1) ORDER BY code FOR UPDATE;`
	rows, err := tx.Query(ctx, query, sorted)
	if err != nil {
		return nil, fmt.Errorf("failed to query accounts for update: %w", err)
	}
	defer rows.Close()

	accounts := make(map[string]domain.Account, len(sorted))
	for rows.Next() {
		acc, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan locked account row: %w", err)
		}
		accounts[acc.Code] = *acc
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating locked account rows: %w", err)
	}
	for _, code := range sorted {
		if _, ok := accounts[code]; !ok {
			return nil, fmt.Errorf("%w: account %s", apperrors.ErrNotFound, code)
		}
	}
	return accounts, nil
}

// ApplyBalanceDeltasInTx adds each signed delta to its account's stored
// balance. Must run inside the same transaction that holds the row locks.
func (r *PgxAccountRepository) ApplyBalanceDeltasInTx(ctx context.Context, tx pgx.Tx, deltas map[string]decimal.Decimal, actorID string, now time.Time) error {
	if len(deltas) == 0 {
		return nil
	}
	query := `
		UPDATE gl_accounts
		SET balance = balance + $2, last_updated_at = $3, last_updated_by = $4
		WHERE code = $1;
	`
	batch := &pgx.Batch{}
	codes := make([]string, 0, len(deltas))
	for code, delta := range deltas {
		if delta.IsZero() {
			continue
		}
		batch.Queue(query, code, delta, now, actorID)
		codes = append(codes, code)
	}
	if batch.Len() == 0 {
		return nil
	}

	br := tx.SendBatch(ctx, batch)
	var batchErr error
	for i := 0; i < batch.Len(); i++ {
		ct, err := br.Exec()
		if err != nil {
			if batchErr == nil {
				batchErr = fmt.Errorf("failed to update balance for account %s: %w", codes[i], err)
			}
		} else if ct.RowsAffected() == 0 && batchErr == nil {
			batchErr = fmt.Errorf("%w: account %s vanished during balance update", apperrors.ErrNotFound, codes[i])
		}
	}
	if closeErr := br.Close(); closeErr != nil && batchErr == nil {
		batchErr = fmt.Errorf("failed to close balance update batch: %w", closeErr)
	}
	return batchErr
}
