package repositories

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/openledgerhq/posting-engine/internal/core/domain"
)

// AccountReader defines read operations for the chart of accounts.
type AccountReader interface {
	// FindAccountByCode retrieves a single account; apperrors.ErrNotFound when missing.
	FindAccountByCode(ctx context.Context, code string) (*domain.Account, error)

	// FindAccountsByCodes retrieves multiple accounts keyed by code. Missing
	// codes are simply absent from the map.
	FindAccountsByCodes(ctx context.Context, codes []string) (map[string]domain.Account, error)

	// ListAccounts returns the full chart of accounts ordered by code.
	ListAccounts(ctx context.Context) ([]domain.Account, error)

	// HasPostedLines reports whether any journal line references the account.
	HasPostedLines(ctx context.Context, code string) (bool, error)

	// HasChildren reports whether any account references code as its parent.
	HasChildren(ctx context.Context, code string) (bool, error)
}

// AccountWriter defines write operations for the chart of accounts.
type AccountWriter interface {
	SaveAccount(ctx context.Context, account domain.Account) error
	UpdateAccount(ctx context.Context, account domain.Account) error
}

// AccountLocker exposes the row-locking operations the ledger writer uses
// inside its transaction. Codes are always locked in ascending order; that
// total order is the deadlock-avoidance mechanism.
type AccountLocker interface {
	// FindAccountsByCodesForUpdate locks the rows FOR UPDATE in ascending code
	// order and returns them keyed by code. Must run inside tx.
	FindAccountsByCodesForUpdate(ctx context.Context, tx pgx.Tx, codes []string) (map[string]domain.Account, error)

	// ApplyBalanceDeltasInTx adds each delta to its account's stored balance.
	ApplyBalanceDeltasInTx(ctx context.Context, tx pgx.Tx, deltas map[string]decimal.Decimal, actorID string, now time.Time) error
}

// AccountRepositoryFacade combines all account repository interfaces.
type AccountRepositoryFacade interface {
	AccountReader
	AccountWriter
	AccountLocker
}
