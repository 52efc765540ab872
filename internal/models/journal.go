package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// EntryStatus indicates the state of a journal entry row.
type EntryStatus string

const (
	Posted   EntryStatus = "POSTED"
	Reversed EntryStatus = "REVERSED"
)

// JournalEntry is the persistence shape of a journal entry header.
type JournalEntry struct {
	EntryID         string          `db:"entry_id"`
	PostingDate     time.Time       `db:"posting_date"`
	SourceType      string          `db:"source_type"`
	SourceID        string          `db:"source_id"`
	Narration       string          `db:"narration"`
	IdempotencyKey  string          `db:"idempotency_key"`
	BranchID        string          `db:"branch_id"`
	CurrencyCode    string          `db:"currency_code"`
	Status          EntryStatus     `db:"status"`
	IsReversed      bool            `db:"is_reversed"`
	ReversalEntryID *string         `db:"reversal_entry_id"`
	OriginalEntryID *string         `db:"original_entry_id"`
	TotalAmount     decimal.Decimal `db:"total_amount"`
	AuditFields
}

// JournalLine is the persistence shape of a single debit/credit line.
type JournalLine struct {
	LineID         string           `db:"line_id"`
	EntryID        string           `db:"entry_id"`
	AccountCode    string           `db:"account_code"`
	Debit          decimal.Decimal  `db:"debit"`
	Credit         decimal.Decimal  `db:"credit"`
	CurrencyCode   string           `db:"currency_code"`
	ExchangeRate   *decimal.Decimal `db:"exchange_rate"`
	BaseDebit      decimal.Decimal  `db:"base_debit"`
	BaseCredit     decimal.Decimal  `db:"base_credit"`
	RunningBalance decimal.Decimal  `db:"running_balance"`
	AuditFields
}

// AuditFields holds standard audit columns shared by all tables.
type AuditFields struct {
	CreatedAt     time.Time `db:"created_at"`
	CreatedBy     string    `db:"created_by"`
	LastUpdatedAt time.Time `db:"last_updated_at"`
	LastUpdatedBy string    `db:"last_updated_by"`
}
