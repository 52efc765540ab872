package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// AccountType defines the fundamental accounting type of a GL account.
type AccountType string

const (
	Asset     AccountType = "ASSET"
	Liability AccountType = "LIABILITY"
	Equity    AccountType = "EQUITY"
	Income    AccountType = "INCOME"
	Expense   AccountType = "EXPENSE"
)

// NormalBalance is the side on which an account normally carries its balance.
type NormalBalance string

const (
	DebitNormal  NormalBalance = "DEBIT"
	CreditNormal NormalBalance = "CREDIT"
)

// DefaultNormalBalance returns the conventional normal side for an account type.
func DefaultNormalBalance(t AccountType) NormalBalance {
	switch t {
	case Asset, Expense:
		return DebitNormal
	default:
		return CreditNormal
	}
}

// Account represents a GL account in the chart of accounts.
// Code is the business key; ParentCode is a code reference, never a live
// pointer, so the tree can be read concurrently while the registry mutates.
type Account struct {
	Code             string          `json:"code"`          // Unique, immutable
	Name             string          `json:"name"`          // User-defined name
	AccountType      AccountType     `json:"accountType"`   // ASSET, LIABILITY, etc.
	NormalBalance    NormalBalance   `json:"normalBalance"` // DEBIT or CREDIT
	ParentCode       string          `json:"parentCode"`    // Empty for root accounts
	Level            int             `json:"level"`         // Root = 1, child = parent + 1
	IsControlAccount bool            `json:"isControlAccount"`
	AllowsPosting    bool            `json:"allowsPosting"`
	CurrencyCode     string          `json:"currencyCode"`
	IsActive         bool            `json:"isActive"`
	OpenedAt         time.Time       `json:"openedAt"` // No posting dated before this
	Balance          decimal.Decimal `json:"balance"`  // Derived; mutated only by the ledger writer
	AuditFields
}
