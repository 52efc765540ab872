package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/openledgerhq/posting-engine/internal/apperrors"
	"github.com/openledgerhq/posting-engine/internal/core/domain"
	portsrepo "github.com/openledgerhq/posting-engine/internal/core/ports/repositories"
	portssvc "github.com/openledgerhq/posting-engine/internal/core/ports/services"
	"github.com/openledgerhq/posting-engine/internal/dto"
	"github.com/openledgerhq/posting-engine/internal/platform/logging"
)

// SourceTypeReversal marks entries the reversal engine generated.
const SourceTypeReversal = "REVERSAL"

// postingService orchestrates validation, idempotent replay, and the atomic
// ledger write. The repository executes each post/reverse as a single unit of
// work; this service never observes partial state.
type postingService struct {
	journalRepo portsrepo.JournalRepositoryFacade
	accountRepo portsrepo.AccountReader
	periodRepo  portsrepo.PeriodRepository
	validator   *PostingValidator
	now         func() time.Time
}

// NewPostingService creates the posting engine's service facade.
func NewPostingService(journalRepo portsrepo.JournalRepositoryFacade, accountRepo portsrepo.AccountReader, periodRepo portsrepo.PeriodRepository, baseCurrency string) portssvc.PostingService {
	return &postingService{
		journalRepo: journalRepo,
		accountRepo: accountRepo,
		periodRepo:  periodRepo,
		validator:   NewPostingValidator(baseCurrency),
		now:         time.Now,
	}
}

var _ portssvc.PostingService = (*postingService)(nil)

// validationInputs fetches the referenced accounts and the accounting period
// covering the posting date. Pure reads, shared by the dry-run and post paths.
func (s *postingService) validationInputs(ctx context.Context, req dto.PostEntryRequest) (map[string]domain.Account, *domain.AccountingPeriod, error) {
	codes := make([]string, 0, len(req.Lines))
	for _, line := range req.Lines {
		codes = append(codes, line.AccountCode)
	}
	accounts, err := s.accountRepo.FindAccountsByCodes(ctx, uniqueStrings(codes))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to fetch accounts for validation: %w", err)
	}
	period, err := s.periodRepo.FindPeriodForDate(ctx, req.PostingDate)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to resolve accounting period: %w", err)
	}
	return accounts, period, nil
}

// ValidateEntry is the dry-run path: full validation, no side effects.
func (s *postingService) ValidateEntry(ctx context.Context, req dto.PostEntryRequest) error {
	if err := s.validator.ValidateStructural(req); err != nil {
		return err
	}
	accounts, period, err := s.validationInputs(ctx, req)
	if err != nil {
		return err
	}
	_, err = s.validator.ValidateAndConvert(req, accounts, period)
	return err
}

// PostEntry posts a balanced journal entry at most once per idempotency key.
func (s *postingService) PostEntry(ctx context.Context, req dto.PostEntryRequest) (*dto.PostingResult, error) {
	logger := logging.FromCtx(ctx)

	if err := s.validator.ValidateStructural(req); err != nil {
		return nil, err
	}

	// Idempotent-replay fast path. The unique constraint on the key inside
	// CreateEntry catches the race between this lookup and the write.
	if existing, err := s.journalRepo.FindEntryByIdempotencyKey(ctx, req.IdempotencyKey); err == nil {
		logger.Info("Idempotent replay, returning stored result", slog.String("idempotency_key", req.IdempotencyKey), slog.String("entry_id", existing.EntryID))
		return dto.ToPostingResult(existing), nil
	} else if !errors.Is(err, apperrors.ErrNotFound) {
		return nil, fmt.Errorf("idempotency lookup failed: %w", err)
	}

	accounts, period, err := s.validationInputs(ctx, req)
	if err != nil {
		return nil, err
	}
	lines, err := s.validator.ValidateAndConvert(req, accounts, period)
	if err != nil {
		return nil, err
	}

	entry := s.buildEntry(req, lines)
	stored, replayed, err := s.journalRepo.CreateEntry(ctx, entry, entry.Lines)
	if err != nil {
		logger.Error("Failed to post journal entry", slog.String("idempotency_key", req.IdempotencyKey), slog.String("error", err.Error()))
		return nil, err
	}
	if replayed {
		logger.Info("Concurrent duplicate detected by key constraint, returning stored result", slog.String("idempotency_key", req.IdempotencyKey), slog.String("entry_id", stored.EntryID))
	} else {
		logger.Info("Journal entry posted", slog.String("entry_id", stored.EntryID), slog.String("branch_id", stored.BranchID))
	}
	return dto.ToPostingResult(stored), nil
}

// buildEntry assembles the immutable entry and its lines from a validated request.
func (s *postingService) buildEntry(req dto.PostEntryRequest, lines []domain.JournalLine) domain.JournalEntry {
	now := s.now().UTC()
	entryID := uuid.NewString()
	audit := domain.AuditFields{
		CreatedAt:     now,
		CreatedBy:     req.ActorID,
		LastUpdatedAt: now,
		LastUpdatedBy: req.ActorID,
	}
	for i := range lines {
		lines[i].LineID = uuid.NewString()
		lines[i].EntryID = entryID
		lines[i].AuditFields = audit
	}
	return domain.JournalEntry{
		EntryID:        entryID,
		PostingDate:    req.PostingDate,
		SourceType:     req.SourceType,
		SourceID:       req.SourceID,
		Narration:      req.Narration,
		IdempotencyKey: req.IdempotencyKey,
		BranchID:       req.BranchID,
		CurrencyCode:   req.CurrencyCode,
		Status:         domain.Posted,
		TotalAmount:    EntryTotal(lines),
		Lines:          lines,
		AuditFields:    audit,
	}
}

// ReverseEntry derives the mirror of a posted entry and submits it through the
// same writer, flagging the original inside the same atomic unit. Posting date
// is now, never backdated to the original.
func (s *postingService) ReverseEntry(ctx context.Context, originalEntryID, reason, actorID string) (*dto.PostingResult, error) {
	logger := logging.FromCtx(ctx)

	original, err := s.journalRepo.FindEntryByID(ctx, originalEntryID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) || errors.Is(err, apperrors.ErrEntryNotFound) {
			return nil, apperrors.ErrEntryNotFound
		}
		return nil, fmt.Errorf("failed to fetch entry %s for reversal: %w", originalEntryID, err)
	}
	if original.IsReversed || original.Status == domain.Reversed {
		return nil, apperrors.ErrAlreadyReversed
	}
	// A mirror entry is never reversed in turn; undoing a reversal means
	// re-posting the original business event. Allowing a mirror-of-mirror
	// would put its deltas in the balance cache while reporting, which skips
	// every reversal row, never sees them.
	if original.OriginalEntryID != nil {
		return nil, fmt.Errorf("%w: entry %s is a reversal of %s and cannot itself be reversed", apperrors.ErrConflict, originalEntryID, *original.OriginalEntryID)
	}

	originalLines, err := s.journalRepo.FindLinesByEntryID(ctx, originalEntryID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch lines of entry %s: %w", originalEntryID, err)
	}

	now := s.now().UTC()
	period, err := s.periodRepo.FindPeriodForDate(ctx, now)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve accounting period for reversal: %w", err)
	}
	if period != nil && period.Status == domain.PeriodClosed {
		return nil, apperrors.NewRejection(apperrors.ReasonInvalidPostingDate, "reversal date %s falls in closed period %s", now.Format("2006-01-02"), period.Name)
	}

	reversal := s.buildReversal(*original, originalLines, reason, actorID, now)
	stored, err := s.journalRepo.ReverseEntry(ctx, originalEntryID, reversal, reversal.Lines)
	if err != nil {
		if errors.Is(err, apperrors.ErrAlreadyReversed) {
			return nil, apperrors.ErrAlreadyReversed
		}
		logger.Error("Failed to reverse journal entry", slog.String("entry_id", originalEntryID), slog.String("error", err.Error()))
		return nil, err
	}
	logger.Info("Journal entry reversed", slog.String("entry_id", originalEntryID), slog.String("reversal_entry_id", stored.EntryID))
	return dto.ToPostingResult(stored), nil
}

// buildReversal mirrors the original's lines with debit and credit swapped,
// base amounts included. The deterministic idempotency key makes a retried
// reversal replay instead of double-posting.
func (s *postingService) buildReversal(original domain.JournalEntry, originalLines []domain.JournalLine, reason, actorID string, now time.Time) domain.JournalEntry {
	entryID := uuid.NewString()
	audit := domain.AuditFields{
		CreatedAt:     now,
		CreatedBy:     actorID,
		LastUpdatedAt: now,
		LastUpdatedBy: actorID,
	}
	lines := make([]domain.JournalLine, len(originalLines))
	for i, orig := range originalLines {
		lines[i] = domain.JournalLine{
			LineID:       uuid.NewString(),
			EntryID:      entryID,
			AccountCode:  orig.AccountCode,
			Debit:        orig.Credit,
			Credit:       orig.Debit,
			CurrencyCode: orig.CurrencyCode,
			ExchangeRate: orig.ExchangeRate,
			BaseDebit:    orig.BaseCredit,
			BaseCredit:   orig.BaseDebit,
			AuditFields:  audit,
		}
	}
	originalID := original.EntryID
	return domain.JournalEntry{
		EntryID:         entryID,
		PostingDate:     now,
		SourceType:      SourceTypeReversal,
		SourceID:        originalID,
		Narration:       fmt.Sprintf("Reversal of entry %s: %s", originalID, reason),
		IdempotencyKey:  "rev:" + originalID,
		BranchID:        original.BranchID,
		CurrencyCode:    original.CurrencyCode,
		Status:          domain.Posted,
		OriginalEntryID: &originalID,
		TotalAmount:     original.TotalAmount,
		Lines:           lines,
		AuditFields:     audit,
	}
}

// IsAlreadyProcessed reports whether a stored outcome exists for the key.
func (s *postingService) IsAlreadyProcessed(ctx context.Context, idempotencyKey string) (bool, error) {
	_, err := s.journalRepo.FindEntryByIdempotencyKey(ctx, idempotencyKey)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, apperrors.ErrNotFound) {
		return false, nil
	}
	return false, err
}

// GetEntry retrieves a stored entry with its lines populated.
func (s *postingService) GetEntry(ctx context.Context, entryID string) (*domain.JournalEntry, error) {
	entry, err := s.journalRepo.FindEntryByID(ctx, entryID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.ErrEntryNotFound
		}
		return nil, err
	}
	lines, err := s.journalRepo.FindLinesByEntryID(ctx, entryID)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve lines for entry %s: %w", entryID, err)
	}
	entry.Lines = lines
	return entry, nil
}

// uniqueStrings returns a slice containing only the unique strings from the input.
func uniqueStrings(input []string) []string {
	seen := make(map[string]struct{}, len(input))
	result := make([]string, 0, len(input))
	for _, str := range input {
		if _, ok := seen[str]; !ok {
			seen[str] = struct{}{}
			result = append(result, str)
		}
	}
	return result
}
