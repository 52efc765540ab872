package domain

import (
	"github.com/shopspring/decimal"
)

// TrialBalanceRow represents a single account row in a trial balance report.
// Amounts are base-currency totals over the requested range.
type TrialBalanceRow struct {
	AccountCode string          `json:"accountCode"`
	AccountName string          `json:"accountName"`
	AccountType AccountType     `json:"accountType"`
	TotalDebit  decimal.Decimal `json:"totalDebit"`
	TotalCredit decimal.Decimal `json:"totalCredit"`
}
