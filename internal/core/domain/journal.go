package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// EntryStatus indicates the state of a journal entry.
type EntryStatus string

const (
	Posted   EntryStatus = "POSTED"
	Reversed EntryStatus = "REVERSED"
)

// JournalEntry represents a single, balanced financial event composed of
// multiple lines. An entry and its lines are created once, atomically, and are
// read-only thereafter except for the reversal linkage fields.
type JournalEntry struct {
	EntryID        string      `json:"entryID"`     // Primary key (UUID)
	PostingDate    time.Time   `json:"postingDate"` // Date the event takes effect
	SourceType     string      `json:"sourceType"`  // Provenance of the originating business event
	SourceID       string      `json:"sourceID"`
	Narration      string      `json:"narration"`
	IdempotencyKey string      `json:"idempotencyKey"` // Unique; at most one entry per key
	BranchID       string      `json:"branchID"`
	CurrencyCode   string      `json:"currencyCode"` // Currency of the entry header
	Status         EntryStatus `json:"status"`
	IsReversed     bool        `json:"isReversed"`
	// ReversalEntryID points at the entry that undid this one; OriginalEntryID
	// points back from a reversal to the entry it undoes.
	ReversalEntryID *string         `json:"reversalEntryID,omitempty"`
	OriginalEntryID *string         `json:"originalEntryID,omitempty"`
	TotalAmount     decimal.Decimal `json:"totalAmount"` // Sum of base-currency debits
	Lines           []JournalLine   `json:"lines,omitempty"`
	AuditFields
}

// JournalLine is a single debit or credit against one account. Lines belong to
// exactly one entry and never outlive it. Exactly one of Debit/Credit is
// non-zero; the validator enforces that, not storage.
type JournalLine struct {
	LineID       string          `json:"lineID"`
	EntryID      string          `json:"entryID"`
	AccountCode  string          `json:"accountCode"`
	Debit        decimal.Decimal `json:"debit"`
	Credit       decimal.Decimal `json:"credit"`
	CurrencyCode string          `json:"currencyCode"`
	// ExchangeRate and the base amounts are populated when the line currency
	// differs from the engine's base currency.
	ExchangeRate   *decimal.Decimal `json:"exchangeRate,omitempty"`
	BaseDebit      decimal.Decimal  `json:"baseDebit"`
	BaseCredit     decimal.Decimal  `json:"baseCredit"`
	RunningBalance decimal.Decimal  `json:"runningBalance"` // Account balance after this line
	AuditFields
}

// BalanceDelta is the signed effect of this line on its account's running
// balance, given the account's normal side. A debit increases a debit-normal
// account and decreases a credit-normal one, and vice versa for credits.
// Evaluated in base currency.
func (l JournalLine) BalanceDelta(normal NormalBalance) decimal.Decimal {
	if normal == CreditNormal {
		return l.BaseCredit.Sub(l.BaseDebit)
	}
	return l.BaseDebit.Sub(l.BaseCredit)
}
