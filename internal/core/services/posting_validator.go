package services

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/openledgerhq/posting-engine/internal/apperrors"
	"github.com/openledgerhq/posting-engine/internal/core/domain"
	"github.com/openledgerhq/posting-engine/internal/dto"
	"github.com/openledgerhq/posting-engine/internal/utils/accounting"
)

const maxIdempotencyKeyLen = 128

// PostingValidator performs structural and semantic validation of a posting
// request before any write. It is pure: safe to call repeatedly, both on the
// dry-run path and again inside the writer's atomic unit.
type PostingValidator struct {
	baseCurrency string
	validate     *validator.Validate
}

// NewPostingValidator creates a validator bound to the engine's base currency.
func NewPostingValidator(baseCurrency string) *PostingValidator {
	return &PostingValidator{
		baseCurrency: baseCurrency,
		validate:     validator.New(validator.WithRequiredStructEnabled()),
	}
}

// ValidateStructural runs the checks that need no repository data: key shape,
// minimum line count, struct tags. The first failure wins.
func (v *PostingValidator) ValidateStructural(req dto.PostEntryRequest) error {
	key := req.IdempotencyKey
	if strings.TrimSpace(key) == "" || len(key) > maxIdempotencyKeyLen || strings.ContainsAny(key, " \t\n") {
		return apperrors.NewRejection(apperrors.ReasonMalformedKey, "idempotency key must be non-blank, at most %d chars, without whitespace", maxIdempotencyKeyLen)
	}
	if len(req.Lines) < 2 {
		return apperrors.NewRejection(apperrors.ReasonTooFewLines, "a journal entry needs at least two lines, got %d", len(req.Lines))
	}
	if err := v.validate.Struct(req); err != nil {
		var ve validator.ValidationErrors
		if errors.As(err, &ve) && len(ve) > 0 {
			reason := apperrors.ReasonMalformedRequest
			if strings.Contains(ve[0].Namespace(), ".Lines") {
				reason = apperrors.ReasonInvalidLineAmounts
			}
			return apperrors.NewRejection(reason, "field %s failed %s validation", ve[0].Namespace(), ve[0].Tag())
		}
		return err
	}
	return nil
}

// ValidateAndConvert runs the full check sequence against the referenced
// accounts and the accounting period covering the posting date, and returns
// the lines with base-currency amounts populated. accounts must contain every
// referenced code that exists; period may be nil when no period covers the
// date (uncovered dates are open).
func (v *PostingValidator) ValidateAndConvert(req dto.PostEntryRequest, accounts map[string]domain.Account, period *domain.AccountingPeriod) ([]domain.JournalLine, error) {
	if err := v.ValidateStructural(req); err != nil {
		return nil, err
	}

	for _, line := range req.Lines {
		acc, ok := accounts[line.AccountCode]
		if !ok {
			return nil, apperrors.NewRejection(apperrors.ReasonAccountNotFound, "account %s does not exist", line.AccountCode)
		}
		if !acc.IsActive {
			return nil, apperrors.NewRejection(apperrors.ReasonInactiveAccount, "account %s is inactive", line.AccountCode)
		}
		if acc.IsControlAccount {
			return nil, apperrors.NewRejection(apperrors.ReasonControlAccountPosting, "account %s is a control account and never receives posting lines", line.AccountCode)
		}
		if !acc.AllowsPosting {
			return nil, apperrors.NewRejection(apperrors.ReasonControlAccountPosting, "account %s does not allow posting", line.AccountCode)
		}
	}

	for i, line := range req.Lines {
		if line.Debit.IsNegative() || line.Credit.IsNegative() {
			return nil, apperrors.NewRejection(apperrors.ReasonInvalidLineAmounts, "line %d has a negative amount", i)
		}
		debitSet := line.Debit.IsPositive()
		creditSet := line.Credit.IsPositive()
		if debitSet == creditSet {
			return nil, apperrors.NewRejection(apperrors.ReasonInvalidLineAmounts, "line %d must have exactly one non-zero side", i)
		}
	}

	lines := make([]domain.JournalLine, len(req.Lines))
	for i, line := range req.Lines {
		currency := line.CurrencyCode
		if currency == "" {
			currency = req.CurrencyCode
		}
		baseDebit, baseCredit, err := accounting.BaseAmounts(line.Debit, line.Credit, currency, v.baseCurrency, line.ExchangeRate)
		if err != nil {
			return nil, apperrors.NewRejection(apperrors.ReasonMissingExchangeRate, "line %d: %v", i, err)
		}
		lines[i] = domain.JournalLine{
			AccountCode:  line.AccountCode,
			Debit:        line.Debit,
			Credit:       line.Credit,
			CurrencyCode: currency,
			ExchangeRate: line.ExchangeRate,
			BaseDebit:    baseDebit,
			BaseCredit:   baseCredit,
		}
	}

	totalDebit, totalCredit := accounting.SumBase(lines)
	if !totalDebit.Equal(totalCredit) {
		return nil, apperrors.NewRejection(apperrors.ReasonUnbalancedEntry, "base-currency debits %s do not equal credits %s", totalDebit.String(), totalCredit.String())
	}

	for _, line := range req.Lines {
		acc := accounts[line.AccountCode]
		if req.PostingDate.Before(acc.OpenedAt) {
			return nil, apperrors.NewRejection(apperrors.ReasonInvalidPostingDate, "posting date %s precedes opening of account %s", req.PostingDate.Format("2006-01-02"), acc.Code)
		}
	}
	if period != nil && period.Status == domain.PeriodClosed {
		return nil, apperrors.NewRejection(apperrors.ReasonInvalidPostingDate, "posting date %s falls in closed period %s", req.PostingDate.Format("2006-01-02"), period.Name)
	}

	return lines, nil
}

// EntryTotal is the economic value of a balanced entry: the base-currency
// debit side.
func EntryTotal(lines []domain.JournalLine) decimal.Decimal {
	totalDebit, _ := accounting.SumBase(lines)
	return totalDebit
}
