package pgsql

import (
	"github.com/jackc/pgx/v5/pgxpool"

	portsrepo "github.com/openledgerhq/posting-engine/internal/core/ports/repositories"
)

// NewRepositoryProvider wires all pgx-backed repositories over one pool.
// The journal repository borrows the account repository's locking methods so
// both operate on the same rows inside one transaction.
func NewRepositoryProvider(pool *pgxpool.Pool) *portsrepo.RepositoryProvider {
	accountRepo := newPgxAccountRepository(pool)
	return &portsrepo.RepositoryProvider{
		AccountRepo:   accountRepo,
		JournalRepo:   newPgxJournalRepository(pool, accountRepo),
		ReportingRepo: newPgxReportingRepository(pool),
		PeriodRepo:    newPgxPeriodRepository(pool),
	}
}
