package repositories

import (
	"context"

	"github.com/openledgerhq/posting-engine/internal/core/domain"
)

// JournalReader defines read operations for journal data.
type JournalReader interface {
	// FindEntryByID retrieves an entry header; apperrors.ErrEntryNotFound when missing.
	FindEntryByID(ctx context.Context, entryID string) (*domain.JournalEntry, error)

	// FindEntryByIdempotencyKey retrieves the entry previously stored for the
	// key, or apperrors.ErrNotFound. This is the idempotency store lookup; it
	// shares durable storage with the writer by construction.
	FindEntryByIdempotencyKey(ctx context.Context, key string) (*domain.JournalEntry, error)

	// FindLinesByEntryID retrieves all lines of an entry in insertion order.
	FindLinesByEntryID(ctx context.Context, entryID string) ([]domain.JournalLine, error)
}

// JournalWriter is the transactional core. Implementations execute each call
// as one atomic unit: either the entry, all its lines, and every balance
// update become visible together, or none do.
type JournalWriter interface {
	// CreateEntry validates nothing by itself; it persists a pre-validated
	// entry. Account rows are locked in ascending code order, balances updated
	// under those locks, and the unique constraint on idempotency_key is the
	// last line of defense: on a duplicate key the already-stored entry is
	// returned with replayed=true and nothing is written.
	CreateEntry(ctx context.Context, entry domain.JournalEntry, lines []domain.JournalLine) (stored *domain.JournalEntry, replayed bool, err error)

	// ReverseEntry atomically posts the mirror entry and flags the original as
	// reversed with the linkage set. The two writes succeed or fail together.
	ReverseEntry(ctx context.Context, originalEntryID string, reversal domain.JournalEntry, lines []domain.JournalLine) (*domain.JournalEntry, error)
}

// JournalRepositoryFacade combines journal repository interfaces.
type JournalRepositoryFacade interface {
	JournalReader
	JournalWriter
}
