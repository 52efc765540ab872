package models

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

// NormalBalance is the side an account normally carries its balance on.
type NormalBalance string

const (
	DebitNormal  NormalBalance = "DEBIT"
	CreditNormal NormalBalance = "CREDIT"
)

// Account is the persistence shape of a GL account row.
// ParentCode is the empty string for root accounts; the column is nullable.
type Account struct {
	Code             string          `db:"code"`
	Name             string          `db:"name"`
	AccountType      AccountType     `db:"account_type"`
	NormalBalance    NormalBalance   `db:"normal_balance"`
	ParentCode       string          `db:"parent_code"`
	Level            int             `db:"level"`
	IsControlAccount bool            `db:"is_control_account"`
	AllowsPosting    bool            `db:"allows_posting"`
	CurrencyCode     string          `db:"currency_code"`
	IsActive         bool            `db:"is_active"`
	OpenedAt         time.Time       `db:"opened_at"`
	Balance          decimal.Decimal `db:"balance"`
	AuditFields
}
