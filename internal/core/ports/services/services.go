package services

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/openledgerhq/posting-engine/internal/core/domain"
	"github.com/openledgerhq/posting-engine/internal/dto"
)

// PostingService is the engine's logical request/response surface. Both the
// synchronous and the worker-driven asynchronous paths funnel into PostEntry.
type PostingService interface {
	// PostEntry posts a balanced journal entry exactly once per idempotency
	// key. A replay returns the original result, indistinguishable from the
	// first successful call.
	PostEntry(ctx context.Context, req dto.PostEntryRequest) (*dto.PostingResult, error)

	// ReverseEntry derives and posts the mirror of a prior entry and flags the
	// original, atomically.
	ReverseEntry(ctx context.Context, originalEntryID, reason, actorID string) (*dto.PostingResult, error)

	// ValidateEntry is the dry-run path: pure, repeatable, no writes.
	ValidateEntry(ctx context.Context, req dto.PostEntryRequest) error

	// IsAlreadyProcessed reports whether an idempotency key has a stored outcome.
	IsAlreadyProcessed(ctx context.Context, idempotencyKey string) (bool, error)

	// GetEntry retrieves a stored entry with its lines.
	GetEntry(ctx context.Context, entryID string) (*domain.JournalEntry, error)
}

// AsyncPoster defers a posting request to the worker queue. The eventual
// result is observable through the request's idempotency key.
type AsyncPoster interface {
	PostEntryAsync(ctx context.Context, req dto.PostEntryRequest) (taskID string, err error)
}

// ChartOfAccountsService owns the account tree: codes, types, posting
// eligibility, hierarchy levels.
type ChartOfAccountsService interface {
	CreateAccount(ctx context.Context, req dto.CreateAccountRequest, actorID string) (*domain.Account, error)
	ResolveAccount(ctx context.Context, code string) (*domain.Account, error)
	ListHierarchy(ctx context.Context) ([]*dto.AccountNode, error)
	UpdateAccount(ctx context.Context, code string, req dto.UpdateAccountRequest, actorID string) (*domain.Account, error)
}

// ReportingService computes point-in-time balances and trial balances.
type ReportingService interface {
	AccountBalance(ctx context.Context, accountCode string, asOf time.Time) (decimal.Decimal, error)
	TrialBalance(ctx context.Context, from, to time.Time, branchID *string) ([]domain.TrialBalanceRow, error)
}
