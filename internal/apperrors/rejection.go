package apperrors

import (
	"errors"
	"fmt"
)

// RejectionReason identifies why a posting or chart-of-accounts request was
// refused before any write. Rejections are caller-fixable and must never be
// retried automatically.
type RejectionReason string

const (
	ReasonMalformedRequest         RejectionReason = "MALFORMED_REQUEST"
	ReasonMalformedKey             RejectionReason = "MALFORMED_IDEMPOTENCY_KEY"
	ReasonTooFewLines              RejectionReason = "TOO_FEW_LINES"
	ReasonAccountNotFound          RejectionReason = "ACCOUNT_NOT_FOUND"
	ReasonInactiveAccount          RejectionReason = "INACTIVE_ACCOUNT"
	ReasonControlAccountPosting    RejectionReason = "CONTROL_ACCOUNT_POSTING"
	ReasonInvalidLineAmounts       RejectionReason = "INVALID_LINE_AMOUNTS"
	ReasonUnbalancedEntry          RejectionReason = "UNBALANCED_ENTRY"
	ReasonInvalidPostingDate       RejectionReason = "INVALID_POSTING_DATE"
	ReasonMissingExchangeRate      RejectionReason = "MISSING_EXCHANGE_RATE"
	ReasonDuplicateCode            RejectionReason = "DUPLICATE_ACCOUNT_CODE"
	ReasonInvalidParent            RejectionReason = "INVALID_PARENT"
	ReasonInvalidHierarchy         RejectionReason = "INVALID_HIERARCHY"
	ReasonAccountHasPostedActivity RejectionReason = "ACCOUNT_HAS_POSTED_ACTIVITY"
)

// RejectionError carries a machine-readable reason plus free-form detail.
// It matches ErrValidation via errors.Is so existing checks keep working.
type RejectionError struct {
	Reason RejectionReason
	Detail string
}

func (e *RejectionError) Error() string {
	if e.Detail == "" {
		return string(e.Reason)
	}
	return fmt.Sprintf("%s: %s", e.Reason, e.Detail)
}

func (e *RejectionError) Unwrap() error {
	return ErrValidation
}

// NewRejection builds a RejectionError with a formatted detail message.
func NewRejection(reason RejectionReason, format string, args ...any) *RejectionError {
	return &RejectionError{Reason: reason, Detail: fmt.Sprintf(format, args...)}
}

// RejectionReasonOf extracts the rejection reason from err, if any.
func RejectionReasonOf(err error) (RejectionReason, bool) {
	var re *RejectionError
	if errors.As(err, &re) {
		return re.Reason, true
	}
	return "", false
}
