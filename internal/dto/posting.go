package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/openledgerhq/posting-engine/internal/core/domain"
)

// PostingLineRequest is one debit or credit line of a posting request.
// Exactly one of Debit/Credit must be non-zero. CurrencyCode falls back to the
// entry currency when empty; a non-base currency requires ExchangeRate.
type PostingLineRequest struct {
	AccountCode  string           `json:"accountCode" validate:"required"`
	Debit        decimal.Decimal  `json:"debit"`
	Credit       decimal.Decimal  `json:"credit"`
	CurrencyCode string           `json:"currencyCode,omitempty" validate:"omitempty,len=3"`
	ExchangeRate *decimal.Decimal `json:"exchangeRate,omitempty"`
}

// PostEntryRequest is the logical posting contract consumed by surrounding
// services. Branch and actor arrive explicitly; the engine reads no ambient
// request state.
type PostEntryRequest struct {
	IdempotencyKey string               `json:"idempotencyKey" validate:"required,max=128"`
	PostingDate    time.Time            `json:"postingDate" validate:"required"`
	BranchID       string               `json:"branchID,omitempty"`
	CurrencyCode   string               `json:"currencyCode" validate:"required,len=3"`
	Narration      string               `json:"narration" validate:"required"`
	SourceType     string               `json:"sourceType,omitempty"`
	SourceID       string               `json:"sourceID,omitempty"`
	ActorID        string               `json:"actorID" validate:"required"`
	Lines          []PostingLineRequest `json:"lines" validate:"required,min=2,dive"`
}

// PostingResult is what every caller of a given idempotency key observes,
// replayed or not.
type PostingResult struct {
	EntryID        string             `json:"entryID"`
	Status         domain.EntryStatus `json:"status"`
	PostingDate    time.Time          `json:"postingDate"`
	IdempotencyKey string             `json:"idempotencyKey"`
	TotalAmount    decimal.Decimal    `json:"totalAmount"`
}

// ToPostingResult projects a stored journal entry onto the caller contract.
func ToPostingResult(entry *domain.JournalEntry) *PostingResult {
	return &PostingResult{
		EntryID:        entry.EntryID,
		Status:         entry.Status,
		PostingDate:    entry.PostingDate,
		IdempotencyKey: entry.IdempotencyKey,
		TotalAmount:    entry.TotalAmount,
	}
}
