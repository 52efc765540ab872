package pgsql

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/openledgerhq/posting-engine/internal/apperrors"
	"github.com/openledgerhq/posting-engine/internal/core/domain"
	portsrepo "github.com/openledgerhq/posting-engine/internal/core/ports/repositories"
)

type PgxPeriodRepository struct {
	BaseRepository
}

// newPgxPeriodRepository creates a new repository for accounting periods.
func newPgxPeriodRepository(pool *pgxpool.Pool) portsrepo.PeriodRepository {
	return &PgxPeriodRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.PeriodRepository = (*PgxPeriodRepository)(nil)

// FindPeriodForDate returns the period covering d, or nil when none does.
// An uncovered date is treated as open by the posting path.
func (r *PgxPeriodRepository) FindPeriodForDate(ctx context.Context, d time.Time) (*domain.AccountingPeriod, error) {
	query := `
		SELECT period_id, name, start_date, end_date, status
		FROM accounting_periods
		WHERE start_date <= $1 AND end_date >= $1
		LIMIT 1;
	`
	var p domain.AccountingPeriod
	err := r.Pool.QueryRow(ctx, query, d).Scan(&p.PeriodID, &p.Name, &p.StartDate, &p.EndDate, &p.Status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, apperrors.NewAppError(500, "failed to find accounting period", err)
	}
	return &p, nil
}
