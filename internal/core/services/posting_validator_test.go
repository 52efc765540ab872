package services_test

import (
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"

	"github.com/openledgerhq/posting-engine/internal/apperrors"
	"github.com/openledgerhq/posting-engine/internal/core/domain"
	"github.com/openledgerhq/posting-engine/internal/core/services"
	"github.com/openledgerhq/posting-engine/internal/dto"
)

type PostingValidatorTestSuite struct {
	suite.Suite
	validator       *services.PostingValidator
	cashAccount     domain.Account
	revenueAccount  domain.Account
	controlAccount  domain.Account
	inactiveAccount domain.Account
	accounts        map[string]domain.Account
	postingDate     time.Time
	accountOpenedAt time.Time
}

func (suite *PostingValidatorTestSuite) SetupTest() {
	suite.validator = services.NewPostingValidator("USD")
	suite.accountOpenedAt = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	suite.postingDate = time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)

	suite.cashAccount = domain.Account{
		Code:          "1000",
		Name:          "Cash",
		AccountType:   domain.Asset,
		NormalBalance: domain.DebitNormal,
		AllowsPosting: true,
		CurrencyCode:  "USD",
		IsActive:      true,
		OpenedAt:      suite.accountOpenedAt,
	}
	suite.revenueAccount = domain.Account{
		Code:          "4000",
		Name:          "Sales Revenue",
		AccountType:   domain.Income,
		NormalBalance: domain.CreditNormal,
		AllowsPosting: true,
		CurrencyCode:  "USD",
		IsActive:      true,
		OpenedAt:      suite.accountOpenedAt,
	}
	suite.controlAccount = domain.Account{
		Code:             "1",
		Name:             "Assets",
		AccountType:      domain.Asset,
		NormalBalance:    domain.DebitNormal,
		IsControlAccount: true,
		AllowsPosting:    false,
		CurrencyCode:     "USD",
		IsActive:         true,
		OpenedAt:         suite.accountOpenedAt,
	}
	suite.inactiveAccount = domain.Account{
		Code:          "1999",
		Name:          "Old Cash",
		AccountType:   domain.Asset,
		NormalBalance: domain.DebitNormal,
		AllowsPosting: true,
		CurrencyCode:  "USD",
		IsActive:      false,
		OpenedAt:      suite.accountOpenedAt,
	}
	suite.accounts = map[string]domain.Account{
		"1000": suite.cashAccount,
		"4000": suite.revenueAccount,
		"1":    suite.controlAccount,
		"1999": suite.inactiveAccount,
	}
}

func (suite *PostingValidatorTestSuite) validRequest() dto.PostEntryRequest {
	return dto.PostEntryRequest{
		IdempotencyKey: "inv-2025-0042",
		PostingDate:    suite.postingDate,
		CurrencyCode:   "USD",
		Narration:      "Invoice 42 settled",
		ActorID:        "user-1",
		Lines: []dto.PostingLineRequest{
			{AccountCode: "1000", Debit: decimal.NewFromInt(100)},
			{AccountCode: "4000", Credit: decimal.NewFromInt(100)},
		},
	}
}

func (suite *PostingValidatorTestSuite) assertRejection(err error, want apperrors.RejectionReason) {
	suite.Require().Error(err)
	reason, ok := apperrors.RejectionReasonOf(err)
	suite.Require().True(ok, "expected a rejection, got %v", err)
	suite.Equal(want, reason)
}

func (suite *PostingValidatorTestSuite) TestValidRequestPasses() {
	lines, err := suite.validator.ValidateAndConvert(suite.validRequest(), suite.accounts, nil)
	suite.Require().NoError(err)
	suite.Require().Len(lines, 2)
	suite.True(lines[0].BaseDebit.Equal(decimal.NewFromInt(100)))
	suite.True(lines[1].BaseCredit.Equal(decimal.NewFromInt(100)))
}

func (suite *PostingValidatorTestSuite) TestStructuralRejections() {
	tests := []struct {
		name   string
		mutate func(*dto.PostEntryRequest)
		want   apperrors.RejectionReason
	}{
		{
			name:   "blank key",
			mutate: func(r *dto.PostEntryRequest) { r.IdempotencyKey = "   " },
			want:   apperrors.ReasonMalformedKey,
		},
		{
			name:   "key with whitespace",
			mutate: func(r *dto.PostEntryRequest) { r.IdempotencyKey = "inv 42" },
			want:   apperrors.ReasonMalformedKey,
		},
		{
			name:   "key too long",
			mutate: func(r *dto.PostEntryRequest) { r.IdempotencyKey = strings.Repeat("k", 129) },
			want:   apperrors.ReasonMalformedKey,
		},
		{
			name:   "single line",
			mutate: func(r *dto.PostEntryRequest) { r.Lines = r.Lines[:1] },
			want:   apperrors.ReasonTooFewLines,
		},
		{
			name:   "no lines",
			mutate: func(r *dto.PostEntryRequest) { r.Lines = nil },
			want:   apperrors.ReasonTooFewLines,
		},
		{
			name:   "missing narration",
			mutate: func(r *dto.PostEntryRequest) { r.Narration = "" },
			want:   apperrors.ReasonMalformedRequest,
		},
		{
			name:   "missing actor",
			mutate: func(r *dto.PostEntryRequest) { r.ActorID = "" },
			want:   apperrors.ReasonMalformedRequest,
		},
		{
			name:   "missing line account code",
			mutate: func(r *dto.PostEntryRequest) { r.Lines[0].AccountCode = "" },
			want:   apperrors.ReasonInvalidLineAmounts,
		},
	}
	for _, tc := range tests {
		suite.Run(tc.name, func() {
			req := suite.validRequest()
			tc.mutate(&req)
			suite.assertRejection(suite.validator.ValidateStructural(req), tc.want)
		})
	}
}

func (suite *PostingValidatorTestSuite) TestAccountRejections() {
	tests := []struct {
		name string
		code string
		want apperrors.RejectionReason
	}{
		{name: "unknown account", code: "9999", want: apperrors.ReasonAccountNotFound},
		{name: "inactive account", code: "1999", want: apperrors.ReasonInactiveAccount},
		{name: "control account", code: "1", want: apperrors.ReasonControlAccountPosting},
	}
	for _, tc := range tests {
		suite.Run(tc.name, func() {
			req := suite.validRequest()
			req.Lines[0].AccountCode = tc.code
			_, err := suite.validator.ValidateAndConvert(req, suite.accounts, nil)
			suite.assertRejection(err, tc.want)
		})
	}
}

func (suite *PostingValidatorTestSuite) TestLineAmountRejections() {
	tests := []struct {
		name   string
		mutate func(*dto.PostEntryRequest)
	}{
		{
			name:   "negative debit",
			mutate: func(r *dto.PostEntryRequest) { r.Lines[0].Debit = decimal.NewFromInt(-100) },
		},
		{
			name: "both sides set",
			mutate: func(r *dto.PostEntryRequest) {
				r.Lines[0].Debit = decimal.NewFromInt(100)
				r.Lines[0].Credit = decimal.NewFromInt(100)
			},
		},
		{
			name: "neither side set",
			mutate: func(r *dto.PostEntryRequest) {
				r.Lines[0].Debit = decimal.Zero
				r.Lines[0].Credit = decimal.Zero
			},
		},
	}
	for _, tc := range tests {
		suite.Run(tc.name, func() {
			req := suite.validRequest()
			tc.mutate(&req)
			_, err := suite.validator.ValidateAndConvert(req, suite.accounts, nil)
			suite.assertRejection(err, apperrors.ReasonInvalidLineAmounts)
		})
	}
}

func (suite *PostingValidatorTestSuite) TestUnbalancedEntryRejected() {
	req := suite.validRequest()
	req.Lines[1].Credit = decimal.NewFromInt(90)
	_, err := suite.validator.ValidateAndConvert(req, suite.accounts, nil)
	suite.assertRejection(err, apperrors.ReasonUnbalancedEntry)
}

func (suite *PostingValidatorTestSuite) TestForeignCurrencyLineRequiresRate() {
	req := suite.validRequest()
	req.Lines[0].CurrencyCode = "EUR"
	_, err := suite.validator.ValidateAndConvert(req, suite.accounts, nil)
	suite.assertRejection(err, apperrors.ReasonMissingExchangeRate)
}

func (suite *PostingValidatorTestSuite) TestForeignCurrencyEntryConvertsAndBalances() {
	rate := decimal.RequireFromString("1.0850")
	req := suite.validRequest()
	req.Lines = []dto.PostingLineRequest{
		{AccountCode: "1000", Debit: decimal.NewFromInt(200), CurrencyCode: "EUR", ExchangeRate: &rate},
		{AccountCode: "4000", Credit: decimal.NewFromInt(200), CurrencyCode: "EUR", ExchangeRate: &rate},
	}
	lines, err := suite.validator.ValidateAndConvert(req, suite.accounts, nil)
	suite.Require().NoError(err)
	suite.True(lines[0].BaseDebit.Equal(decimal.RequireFromString("217")), "got %s", lines[0].BaseDebit)
	suite.True(lines[0].Debit.Equal(decimal.NewFromInt(200)), "original amount preserved")
	suite.True(lines[0].BaseDebit.Equal(lines[1].BaseCredit))
}

func (suite *PostingValidatorTestSuite) TestPostingBeforeAccountOpenedRejected() {
	req := suite.validRequest()
	req.PostingDate = suite.accountOpenedAt.AddDate(0, 0, -1)
	_, err := suite.validator.ValidateAndConvert(req, suite.accounts, nil)
	suite.assertRejection(err, apperrors.ReasonInvalidPostingDate)
}

func (suite *PostingValidatorTestSuite) TestPostingIntoClosedPeriodRejected() {
	period := &domain.AccountingPeriod{
		PeriodID:  "p-2025-06",
		Name:      "June 2025",
		StartDate: time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2025, 6, 30, 23, 59, 59, 0, time.UTC),
		Status:    domain.PeriodClosed,
	}
	_, err := suite.validator.ValidateAndConvert(suite.validRequest(), suite.accounts, period)
	suite.assertRejection(err, apperrors.ReasonInvalidPostingDate)
}

func (suite *PostingValidatorTestSuite) TestOpenPeriodAllowsPosting() {
	period := &domain.AccountingPeriod{
		PeriodID:  "p-2025-06",
		Name:      "June 2025",
		StartDate: time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2025, 6, 30, 23, 59, 59, 0, time.UTC),
		Status:    domain.PeriodOpen,
	}
	_, err := suite.validator.ValidateAndConvert(suite.validRequest(), suite.accounts, period)
	suite.NoError(err)
}

func (suite *PostingValidatorTestSuite) TestDryRunIsRepeatable() {
	req := suite.validRequest()
	for i := 0; i < 3; i++ {
		_, err := suite.validator.ValidateAndConvert(req, suite.accounts, nil)
		suite.Require().NoError(err)
	}
}

func TestPostingValidator(t *testing.T) {
	suite.Run(t, new(PostingValidatorTestSuite))
}
