package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	"github.com/openledgerhq/posting-engine/internal/apperrors"
	"github.com/openledgerhq/posting-engine/internal/core/domain"
	portsrepo "github.com/openledgerhq/posting-engine/internal/core/ports/repositories"
	portssvc "github.com/openledgerhq/posting-engine/internal/core/ports/services"
	"github.com/openledgerhq/posting-engine/internal/core/services"
)

// --- Mock ReportingRepository ---
type MockReportingRepository struct {
	mock.Mock
}

var _ portsrepo.ReportingRepository = (*MockReportingRepository)(nil)

func (m *MockReportingRepository) AccountBalance(ctx context.Context, accountCode string, asOf time.Time) (decimal.Decimal, error) {
	args := m.Called(ctx, accountCode, asOf)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

func (m *MockReportingRepository) TrialBalance(ctx context.Context, from, to time.Time, branchID *string) ([]domain.TrialBalanceRow, error) {
	args := m.Called(ctx, from, to, branchID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.TrialBalanceRow), args.Error(1)
}

type ReportingServiceTestSuite struct {
	suite.Suite
	mockReportingRepo *MockReportingRepository
	mockAccountRepo   *MockAccountReader
	service           portssvc.ReportingService
	asOf              time.Time
}

func (suite *ReportingServiceTestSuite) SetupTest() {
	suite.mockReportingRepo = new(MockReportingRepository)
	suite.mockAccountRepo = new(MockAccountReader)
	suite.service = services.NewReportingService(suite.mockReportingRepo, suite.mockAccountRepo)
	suite.asOf = time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC)
}

func (suite *ReportingServiceTestSuite) TestAccountBalance_Success() {
	ctx := context.Background()
	account := &domain.Account{Code: "1000", NormalBalance: domain.DebitNormal}

	suite.mockAccountRepo.On("FindAccountByCode", ctx, "1000").Return(account, nil).Once()
	suite.mockReportingRepo.On("AccountBalance", ctx, "1000", suite.asOf).Return(decimal.NewFromInt(250), nil).Once()

	balance, err := suite.service.AccountBalance(ctx, "1000", suite.asOf)

	suite.Require().NoError(err)
	suite.True(balance.Equal(decimal.NewFromInt(250)))
	suite.mockReportingRepo.AssertExpectations(suite.T())
}

func (suite *ReportingServiceTestSuite) TestAccountBalance_UnknownAccount() {
	ctx := context.Background()
	suite.mockAccountRepo.On("FindAccountByCode", ctx, "9999").Return(nil, apperrors.ErrNotFound).Once()

	_, err := suite.service.AccountBalance(ctx, "9999", suite.asOf)

	reason, ok := apperrors.RejectionReasonOf(err)
	suite.Require().True(ok)
	suite.Equal(apperrors.ReasonAccountNotFound, reason)
	suite.mockReportingRepo.AssertNotCalled(suite.T(), "AccountBalance", mock.Anything, mock.Anything, mock.Anything)
}

func (suite *ReportingServiceTestSuite) TestTrialBalance_Success() {
	ctx := context.Background()
	from := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	rows := []domain.TrialBalanceRow{
		{AccountCode: "1000", AccountName: "Cash", AccountType: domain.Asset, TotalDebit: decimal.NewFromInt(100), TotalCredit: decimal.Zero},
		{AccountCode: "4000", AccountName: "Sales Revenue", AccountType: domain.Income, TotalDebit: decimal.Zero, TotalCredit: decimal.NewFromInt(100)},
	}

	suite.mockReportingRepo.On("TrialBalance", ctx, from, suite.asOf, (*string)(nil)).Return(rows, nil).Once()

	got, err := suite.service.TrialBalance(ctx, from, suite.asOf, nil)

	suite.Require().NoError(err)
	suite.Require().Len(got, 2)

	var totalDebit, totalCredit decimal.Decimal
	for _, row := range got {
		totalDebit = totalDebit.Add(row.TotalDebit)
		totalCredit = totalCredit.Add(row.TotalCredit)
	}
	suite.True(totalDebit.Equal(totalCredit), "trial balance must balance")
}

func (suite *ReportingServiceTestSuite) TestTrialBalance_InvertedRange() {
	ctx := context.Background()
	from := time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)

	_, err := suite.service.TrialBalance(ctx, from, suite.asOf, nil)

	suite.ErrorIs(err, apperrors.ErrValidation)
	suite.mockReportingRepo.AssertNotCalled(suite.T(), "TrialBalance", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestReportingService(t *testing.T) {
	suite.Run(t, new(ReportingServiceTestSuite))
}
