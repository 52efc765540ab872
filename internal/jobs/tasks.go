package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/hibiken/asynq"

	"github.com/openledgerhq/posting-engine/internal/apperrors"
	portsservices "github.com/openledgerhq/posting-engine/internal/core/ports/services"
	"github.com/openledgerhq/posting-engine/internal/dto"
	"github.com/openledgerhq/posting-engine/internal/platform/logging"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskTypePostEntry is the task type for asynchronous journal postings.
	TaskTypePostEntry = "ledger:post_entry"
)

// NewPostEntryTask constructs an Asynq task carrying a full posting request.
// The idempotency key travels inside the payload; a redelivered task replays
// harmlessly against the journal's idempotency store.
func NewPostEntryTask(req dto.PostEntryRequest) (*asynq.Task, error) {
	data, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypePostEntry, data), nil
}

// NewPostEntryHandler processes TaskTypePostEntry tasks through the posting
// service. Validation rejections are deterministic, so they skip retry; only
// infrastructure errors are worth redelivering.
func NewPostEntryHandler(posting portsservices.PostingService) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		var req dto.PostEntryRequest
		if err := json.Unmarshal(t.Payload(), &req); err != nil {
			return fmt.Errorf("malformed post_entry payload: %v: %w", err, asynq.SkipRetry)
		}

		logger := logging.FromCtx(ctx)
		result, err := posting.PostEntry(ctx, req)
		if err != nil {
			var rejection *apperrors.RejectionError
			if errors.As(err, &rejection) {
				logger.WarnContext(ctx, "async posting rejected",
					"idempotency_key", req.IdempotencyKey, "reason", string(rejection.Reason))
				return fmt.Errorf("posting rejected (%s): %v: %w", rejection.Reason, err, asynq.SkipRetry)
			}
			return fmt.Errorf("async posting failed for key %s: %w", req.IdempotencyKey, err)
		}

		logger.InfoContext(ctx, "async posting completed",
			"idempotency_key", req.IdempotencyKey, "entry_id", result.EntryID)
		return nil
	}
}
