package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/openledgerhq/posting-engine/internal/apperrors"
	"github.com/openledgerhq/posting-engine/internal/core/domain"
	portsrepo "github.com/openledgerhq/posting-engine/internal/core/ports/repositories"
	portssvc "github.com/openledgerhq/posting-engine/internal/core/ports/services"
)

// reportingService computes read-side aggregations over posted lines. It
// takes no locks; read consistency comes from the writer's atomic commits.
type reportingService struct {
	reportingRepo portsrepo.ReportingRepository
	accountRepo   portsrepo.AccountReader
}

// NewReportingService creates the balance / trial-balance calculator.
func NewReportingService(reportingRepo portsrepo.ReportingRepository, accountRepo portsrepo.AccountReader) portssvc.ReportingService {
	return &reportingService{reportingRepo: reportingRepo, accountRepo: accountRepo}
}

var _ portssvc.ReportingService = (*reportingService)(nil)

// AccountBalance returns the account's base-currency balance as of the given
// date, signed by the account's normal side and excluding reversed activity.
func (s *reportingService) AccountBalance(ctx context.Context, accountCode string, asOf time.Time) (decimal.Decimal, error) {
	if _, err := s.accountRepo.FindAccountByCode(ctx, accountCode); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return decimal.Zero, apperrors.NewRejection(apperrors.ReasonAccountNotFound, "account %s does not exist", accountCode)
		}
		return decimal.Zero, fmt.Errorf("failed to resolve account %s: %w", accountCode, err)
	}
	balance, err := s.reportingRepo.AccountBalance(ctx, accountCode, asOf)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to compute balance for account %s: %w", accountCode, err)
	}
	return balance, nil
}

// TrialBalance returns per-account debit/credit totals over the range,
// optionally filtered by branch.
func (s *reportingService) TrialBalance(ctx context.Context, from, to time.Time, branchID *string) ([]domain.TrialBalanceRow, error) {
	if to.Before(from) {
		return nil, fmt.Errorf("%w: trial balance range end precedes start", apperrors.ErrValidation)
	}
	rows, err := s.reportingRepo.TrialBalance(ctx, from, to, branchID)
	if err != nil {
		return nil, fmt.Errorf("failed to compute trial balance: %w", err)
	}
	return rows, nil
}
