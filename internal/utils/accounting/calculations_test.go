package accounting_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openledgerhq/posting-engine/internal/core/domain"
	"github.com/openledgerhq/posting-engine/internal/utils/accounting"
)

func TestBaseAmounts_BaseCurrencyPassthrough(t *testing.T) {
	debit := decimal.RequireFromString("123.45")
	baseDebit, baseCredit, err := accounting.BaseAmounts(debit, decimal.Zero, "USD", "USD", nil)
	require.NoError(t, err)
	assert.True(t, baseDebit.Equal(debit))
	assert.True(t, baseCredit.IsZero())
}

func TestBaseAmounts_ForeignCurrencyConversion(t *testing.T) {
	rate := decimal.RequireFromString("1.0850")
	baseDebit, _, err := accounting.BaseAmounts(decimal.NewFromInt(200), decimal.Zero, "EUR", "USD", &rate)
	require.NoError(t, err)
	assert.True(t, baseDebit.Equal(decimal.RequireFromString("217")), "got %s", baseDebit)
}

func TestBaseAmounts_RoundsToScale(t *testing.T) {
	rate := decimal.RequireFromString("0.333333")
	baseDebit, _, err := accounting.BaseAmounts(decimal.NewFromInt(1), decimal.Zero, "EUR", "USD", &rate)
	require.NoError(t, err)
	assert.Equal(t, int32(-accounting.BaseAmountScale), baseDebit.Exponent())
	assert.True(t, baseDebit.Equal(decimal.RequireFromString("0.3333")))
}

func TestBaseAmounts_MissingOrNonPositiveRate(t *testing.T) {
	_, _, err := accounting.BaseAmounts(decimal.NewFromInt(10), decimal.Zero, "EUR", "USD", nil)
	assert.Error(t, err)

	zero := decimal.Zero
	_, _, err = accounting.BaseAmounts(decimal.NewFromInt(10), decimal.Zero, "EUR", "USD", &zero)
	assert.Error(t, err)
}

func TestBalanceDeltas_SignedByNormalSide(t *testing.T) {
	accounts := map[string]domain.Account{
		"1000": {Code: "1000", NormalBalance: domain.DebitNormal},
		"4000": {Code: "4000", NormalBalance: domain.CreditNormal},
	}
	lines := []domain.JournalLine{
		{AccountCode: "1000", BaseDebit: decimal.NewFromInt(100)},
		{AccountCode: "4000", BaseCredit: decimal.NewFromInt(100)},
	}

	deltas, err := accounting.BalanceDeltas(lines, accounts)
	require.NoError(t, err)

	// A balanced entry grows both normal-side balances.
	assert.True(t, deltas["1000"].Equal(decimal.NewFromInt(100)))
	assert.True(t, deltas["4000"].Equal(decimal.NewFromInt(100)))
}

func TestBalanceDeltas_FoldsMultipleLinesPerAccount(t *testing.T) {
	accounts := map[string]domain.Account{
		"1000": {Code: "1000", NormalBalance: domain.DebitNormal},
		"4000": {Code: "4000", NormalBalance: domain.CreditNormal},
	}
	lines := []domain.JournalLine{
		{AccountCode: "1000", BaseDebit: decimal.NewFromInt(60)},
		{AccountCode: "1000", BaseCredit: decimal.NewFromInt(10)},
		{AccountCode: "4000", BaseCredit: decimal.NewFromInt(50)},
	}

	deltas, err := accounting.BalanceDeltas(lines, accounts)
	require.NoError(t, err)
	assert.True(t, deltas["1000"].Equal(decimal.NewFromInt(50)))
	assert.True(t, deltas["4000"].Equal(decimal.NewFromInt(50)))
}

func TestBalanceDeltas_UnknownAccount(t *testing.T) {
	lines := []domain.JournalLine{{AccountCode: "1000", BaseDebit: decimal.NewFromInt(1)}}
	_, err := accounting.BalanceDeltas(lines, map[string]domain.Account{})
	assert.Error(t, err)
}
