package pgsql

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/openledgerhq/posting-engine/internal/apperrors"
	"github.com/openledgerhq/posting-engine/internal/core/domain"
	portsrepo "github.com/openledgerhq/posting-engine/internal/core/ports/repositories"
	"github.com/openledgerhq/posting-engine/internal/models"
	"github.com/openledgerhq/posting-engine/internal/platform/logging"
	"github.com/openledgerhq/posting-engine/internal/utils/accounting"
	"github.com/openledgerhq/posting-engine/internal/utils/mapping"
)

const entryColumns = `entry_id, posting_date, source_type, source_id, narration, idempotency_key, branch_id, currency_code, status, is_reversed, reversal_entry_id, original_entry_id, total_amount, created_at, created_by, last_updated_at, last_updated_by`

const lineColumns = `line_id, entry_id, account_code, debit, credit, currency_code, exchange_rate, base_debit, base_credit, running_balance, created_at, created_by, last_updated_at, last_updated_by`

// idempotencyKeyConstraint is the unique constraint backing the idempotency
// store. The constraint, not the pre-insert lookup, is authoritative.
const idempotencyKeyConstraint = "journal_entries_idempotency_key_key"

type PgxJournalRepository struct {
	BaseRepository
	accounts portsrepo.AccountLocker
}

// newPgxJournalRepository creates a new repository for journal entries.
func newPgxJournalRepository(pool *pgxpool.Pool, accounts portsrepo.AccountLocker) portsrepo.JournalRepositoryFacade {
	return &PgxJournalRepository{
		BaseRepository: BaseRepository{Pool: pool},
		accounts:       accounts,
	}
}

var _ portsrepo.JournalRepositoryFacade = (*PgxJournalRepository)(nil)

type rowQuerier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func scanEntry(row pgx.Row) (*domain.JournalEntry, error) {
	var m models.JournalEntry
	err := row.Scan(
		&m.EntryID,
		&m.PostingDate,
		&m.SourceType,
		&m.SourceID,
		&m.Narration,
		&m.IdempotencyKey,
		&m.BranchID,
		&m.CurrencyCode,
		&m.Status,
		&m.IsReversed,
		&m.ReversalEntryID,
		&m.OriginalEntryID,
		&m.TotalAmount,
		&m.CreatedAt,
		&m.CreatedBy,
		&m.LastUpdatedAt,
		&m.LastUpdatedBy,
	)
	if err != nil {
		return nil, err
	}
	entry := mapping.ToDomainJournalEntry(m)
	return &entry, nil
}

func (r *PgxJournalRepository) findEntryByID(ctx context.Context, q rowQuerier, entryID string) (*domain.JournalEntry, error) {
	query := `SELECT ` + entryColumns + ` FROM journal_entries WHERE entry_id = $1;`
	entry, err := scanEntry(q.QueryRow(ctx, query, entryID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrEntryNotFound
		}
		return nil, apperrors.NewAppError(500, "failed to find journal entry "+entryID, err)
	}
	return entry, nil
}

// FindEntryByID retrieves an entry header by its id.
func (r *PgxJournalRepository) FindEntryByID(ctx context.Context, entryID string) (*domain.JournalEntry, error) {
	return r.findEntryByID(ctx, r.Pool, entryID)
}

// FindEntryByIdempotencyKey retrieves the entry previously stored for the key.
func (r *PgxJournalRepository) FindEntryByIdempotencyKey(ctx context.Context, key string) (*domain.JournalEntry, error) {
	query := `SELECT ` + entryColumns + ` FROM journal_entries WHERE idempotency_key = $1;`
	entry, err := scanEntry(r.Pool.QueryRow(ctx, query, key))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, apperrors.NewAppError(500, "failed to find journal entry by idempotency key", err)
	}
	return entry, nil
}

// FindLinesByEntryID retrieves all lines of an entry in insertion order.
func (r *PgxJournalRepository) FindLinesByEntryID(ctx context.Context, entryID string) ([]domain.JournalLine, error) {
	query := `SELECT ` + lineColumns + ` FROM journal_lines WHERE entry_id = $1 ORDER BY line_id;`
	rows, err := r.Pool.Query(ctx, query, entryID)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to query lines for entry "+entryID, err)
	}
	defer rows.Close()

	var lines []models.JournalLine
	for rows.Next() {
		var m models.JournalLine
		err := rows.Scan(
			&m.LineID, &m.EntryID, &m.AccountCode, &m.Debit, &m.Credit,
			&m.CurrencyCode, &m.ExchangeRate, &m.BaseDebit, &m.BaseCredit, &m.RunningBalance,
			&m.CreatedAt, &m.CreatedBy, &m.LastUpdatedAt, &m.LastUpdatedBy,
		)
		if err != nil {
			return nil, apperrors.NewAppError(500, "failed to scan journal line row", err)
		}
		lines = append(lines, m)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewAppError(500, "error iterating journal line rows", err)
	}
	return mapping.ToDomainJournalLineSlice(lines), nil
}

// CreateEntry persists a pre-validated entry, its lines, and the balance
// updates as one atomic unit. A concurrent posting with the same idempotency
// key loses the race on the unique constraint; the loser re-fetches the
// winner's entry and reports replayed=true.
func (r *PgxJournalRepository) CreateEntry(ctx context.Context, entry domain.JournalEntry, lines []domain.JournalLine) (*domain.JournalEntry, bool, error) {
	tx, err := r.BeginWrite(ctx)
	if err != nil {
		return nil, false, err
	}
	defer r.Rollback(ctx, tx)

	stored, err := r.insertEntryTx(ctx, tx, entry, lines)
	if err != nil {
		if isUniqueViolation(err, idempotencyKeyConstraint) {
			r.Rollback(ctx, tx)
			existing, findErr := r.FindEntryByIdempotencyKey(ctx, entry.IdempotencyKey)
			if findErr != nil {
				return nil, false, apperrors.NewAppError(500, "duplicate idempotency key but stored entry not found", findErr)
			}
			logging.FromCtx(ctx).InfoContext(ctx, "posting replayed on unique idempotency key",
				"idempotency_key", entry.IdempotencyKey, "entry_id", existing.EntryID)
			return existing, true, nil
		}
		return nil, false, err
	}

	if err := r.Commit(ctx, tx); err != nil {
		return nil, false, err
	}
	return stored, false, nil
}

// ReverseEntry posts the mirror entry and marks the original reversed in one
// transaction. The original header is locked first so concurrent reversals
// serialize; the second sees is_reversed and stops.
func (r *PgxJournalRepository) ReverseEntry(ctx context.Context, originalEntryID string, reversal domain.JournalEntry, lines []domain.JournalLine) (*domain.JournalEntry, error) {
	tx, err := r.BeginWrite(ctx)
	if err != nil {
		return nil, err
	}
	defer r.Rollback(ctx, tx)

	var isReversed bool
	lockQuery := `SELECT is_reversed FROM journal_entries WHERE entry_id = $1 FOR UPDATE;`
	if err := tx.QueryRow(ctx, lockQuery, originalEntryID).Scan(&isReversed); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrEntryNotFound
		}
		return nil, apperrors.NewAppError(500, "failed to lock original entry "+originalEntryID, err)
	}
	if isReversed {
		return nil, apperrors.ErrAlreadyReversed
	}

	stored, err := r.insertEntryTx(ctx, tx, reversal, lines)
	if err != nil {
		return nil, err
	}

	updateQuery := `
		UPDATE journal_entries
		SET is_reversed = TRUE, status = $2, reversal_entry_id = $3, last_updated_at = $4, last_updated_by = $5
		WHERE entry_id = $1;
	`
	_, err = tx.Exec(ctx, updateQuery,
		originalEntryID, models.Reversed, stored.EntryID, stored.LastUpdatedAt, stored.LastUpdatedBy)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to flag original entry as reversed", err)
	}

	if err := r.Commit(ctx, tx); err != nil {
		return nil, err
	}
	return stored, nil
}

// insertEntryTx writes the header, locks the touched accounts in ascending
// code order, re-checks posting eligibility under those locks, inserts the
// lines with running balances, and applies the balance deltas. The header
// goes in first so a duplicate idempotency key fails before any lock is taken.
func (r *PgxJournalRepository) insertEntryTx(ctx context.Context, tx pgx.Tx, entry domain.JournalEntry, lines []domain.JournalLine) (*domain.JournalEntry, error) {
	m := mapping.ToModelJournalEntry(entry)
	headerQuery := `
		INSERT INTO journal_entries (` + entryColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17);
	`
	_, err := tx.Exec(ctx, headerQuery,
		m.EntryID, m.PostingDate, m.SourceType, m.SourceID, m.Narration,
		m.IdempotencyKey, m.BranchID, m.CurrencyCode, m.Status, m.IsReversed,
		m.ReversalEntryID, m.OriginalEntryID, m.TotalAmount,
		m.CreatedAt, m.CreatedBy, m.LastUpdatedAt, m.LastUpdatedBy,
	)
	if err != nil {
		if isUniqueViolation(err, idempotencyKeyConstraint) {
			return nil, err
		}
		return nil, apperrors.NewAppError(500, "failed to insert journal entry header", err)
	}

	codes := make([]string, 0, len(lines))
	seen := make(map[string]struct{}, len(lines))
	for _, line := range lines {
		if _, ok := seen[line.AccountCode]; !ok {
			seen[line.AccountCode] = struct{}{}
			codes = append(codes, line.AccountCode)
		}
	}

	accounts, err := r.accounts.FindAccountsByCodesForUpdate(ctx, tx, codes)
	if err != nil {
		return nil, err
	}

	// Eligibility re-check under the locks: a concurrent deactivation that
	// committed between validation and here must still reject the posting.
	// Reversals skip this; an entry that made it in can always be undone.
	if entry.OriginalEntryID == nil {
		for _, code := range codes {
			acc := accounts[code]
			if !acc.IsActive {
				return nil, apperrors.NewRejection(apperrors.ReasonInactiveAccount, "account %s became inactive", code)
			}
			if acc.IsControlAccount || !acc.AllowsPosting {
				return nil, apperrors.NewRejection(apperrors.ReasonControlAccountPosting, "account %s no longer accepts direct postings", code)
			}
		}
	}

	// Running balances are sequential per account in line order, seeded from
	// the locked balance. The aggregate deltas hit gl_accounts afterwards.
	running := make(map[string]decimal.Decimal, len(codes))
	for code, acc := range accounts {
		running[code] = acc.Balance
	}
	for i := range lines {
		acc := accounts[lines[i].AccountCode]
		running[acc.Code] = running[acc.Code].Add(lines[i].BalanceDelta(acc.NormalBalance))
		lines[i].RunningBalance = running[acc.Code]
	}
	deltas, err := accounting.BalanceDeltas(lines, accounts)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to compute balance deltas", err)
	}

	lineQuery := `
		INSERT INTO journal_lines (` + lineColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14);
	`
	batch := &pgx.Batch{}
	for _, line := range lines {
		lm := mapping.ToModelJournalLine(line)
		batch.Queue(lineQuery,
			lm.LineID, lm.EntryID, lm.AccountCode, lm.Debit, lm.Credit,
			lm.CurrencyCode, lm.ExchangeRate, lm.BaseDebit, lm.BaseCredit, lm.RunningBalance,
			lm.CreatedAt, lm.CreatedBy, lm.LastUpdatedAt, lm.LastUpdatedBy,
		)
	}
	br := tx.SendBatch(ctx, batch)
	var batchErr error
	for i := 0; i < batch.Len(); i++ {
		if _, err := br.Exec(); err != nil && batchErr == nil {
			batchErr = fmt.Errorf("failed to insert journal line %d: %w", i, err)
		}
	}
	if closeErr := br.Close(); closeErr != nil && batchErr == nil {
		batchErr = fmt.Errorf("failed to close journal line batch: %w", closeErr)
	}
	if batchErr != nil {
		return nil, apperrors.NewAppError(500, "failed to insert journal lines", batchErr)
	}

	if err := r.accounts.ApplyBalanceDeltasInTx(ctx, tx, deltas, entry.CreatedBy, entry.LastUpdatedAt); err != nil {
		return nil, err
	}

	stored := entry
	stored.Lines = lines
	return &stored, nil
}
