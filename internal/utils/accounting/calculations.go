package accounting

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/openledgerhq/posting-engine/internal/core/domain"
)

// BaseAmountScale is the fixed-point scale used for base-currency amounts.
// All monetary arithmetic stays in decimal; binary floating point is never
// involved anywhere on the posting path.
const BaseAmountScale = 4

// BaseAmounts converts a line's raw debit/credit into base currency. Lines
// already in base currency pass through unchanged; others require a positive
// exchange rate.
func BaseAmounts(debit, credit decimal.Decimal, currency, baseCurrency string, rate *decimal.Decimal) (baseDebit, baseCredit decimal.Decimal, err error) {
	if currency == baseCurrency {
		return debit, credit, nil
	}
	if rate == nil || rate.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero, decimal.Zero, fmt.Errorf("line currency %s needs a positive exchange rate to %s", currency, baseCurrency)
	}
	return debit.Mul(*rate).Round(BaseAmountScale), credit.Mul(*rate).Round(BaseAmountScale), nil
}

// SumBase returns the base-currency debit and credit totals over lines.
func SumBase(lines []domain.JournalLine) (totalDebit, totalCredit decimal.Decimal) {
	totalDebit = decimal.Zero
	totalCredit = decimal.Zero
	for _, l := range lines {
		totalDebit = totalDebit.Add(l.BaseDebit)
		totalCredit = totalCredit.Add(l.BaseCredit)
	}
	return totalDebit, totalCredit
}

// BalanceDeltas folds lines into one signed base-currency delta per account,
// using each account's normal side. This is the only way account balances
// ever change.
func BalanceDeltas(lines []domain.JournalLine, accounts map[string]domain.Account) (map[string]decimal.Decimal, error) {
	deltas := make(map[string]decimal.Decimal, len(accounts))
	for _, l := range lines {
		acc, ok := accounts[l.AccountCode]
		if !ok {
			return nil, fmt.Errorf("account %s missing during balance delta calculation", l.AccountCode)
		}
		deltas[l.AccountCode] = deltas[l.AccountCode].Add(l.BalanceDelta(acc.NormalBalance))
	}
	return deltas, nil
}
