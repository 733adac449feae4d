package normalize

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qntropy/qntropy/internal/model"
	"github.com/qntropy/qntropy/internal/qerr"
)

func TestNormalize_MapsKnownTypes(t *testing.T) {
	rows := []SourceRow{
		{Type: "Deposit", BuyAmount: "1", BuyCurrency: "BTC", Date: "2023-01-01", Ordinal: 0},
		{Type: "Withdrawal", SellAmount: "0.5", SellCurrency: "BTC", Date: "2023-01-02", Ordinal: 1},
		{Type: "Buy", BuyAmount: "1", BuyCurrency: "BTC", SellAmount: "20000", SellCurrency: "EUR", Date: "2023-01-03", Ordinal: 2},
		{Type: "Staking Reward", BuyAmount: "10", BuyCurrency: "ADA", Date: "2023-01-04", Ordinal: 3},
	}

	res, err := Normalize(rows, Config{})
	require.NoError(t, err)
	require.Len(t, res.Txs, 4)
	assert.Equal(t, model.Deposit, res.Txs[0].Kind)
	assert.Equal(t, model.Withdrawal, res.Txs[1].Kind)
	assert.Equal(t, model.Trade, res.Txs[2].Kind)
	assert.Equal(t, model.StakingReward, res.Txs[3].Kind)
	assert.Empty(t, res.Audits)
}

func TestNormalize_UnknownKindFatalByDefault(t *testing.T) {
	rows := []SourceRow{{Type: "Bogus", BuyAmount: "1", BuyCurrency: "BTC", Date: "2023-01-01"}}

	_, err := Normalize(rows, Config{})
	require.Error(t, err)
	qe, ok := err.(*qerr.Error)
	require.True(t, ok)
	assert.Equal(t, qerr.UnknownTxKind, qe.Kind)
}

func TestNormalize_UnknownKindSkippedWhenConfigured(t *testing.T) {
	rows := []SourceRow{
		{Type: "Bogus", BuyAmount: "1", BuyCurrency: "BTC", Date: "2023-01-01", Ordinal: 0},
		{Type: "Deposit", BuyAmount: "1", BuyCurrency: "BTC", Date: "2023-01-02", Ordinal: 1},
	}

	res, err := Normalize(rows, Config{SkipUnknownKind: true})
	require.NoError(t, err)
	require.Len(t, res.Txs, 1)
	require.Len(t, res.Audits, 1)
	assert.Equal(t, model.AuditRowSkipped, res.Audits[0].Category)
}

func TestNormalize_InvalidAmountRecoveredAsSkip(t *testing.T) {
	rows := []SourceRow{
		{Type: "Deposit", BuyAmount: "not-a-number", BuyCurrency: "BTC", Date: "2023-01-01", Ordinal: 0},
		{Type: "Deposit", BuyAmount: "1", BuyCurrency: "BTC", Date: "2023-01-02", Ordinal: 1},
	}

	res, err := Normalize(rows, Config{})
	require.NoError(t, err)
	require.Len(t, res.Txs, 1)
	require.Len(t, res.Audits, 1)
}

func TestNormalize_CommaDecimalAccepted(t *testing.T) {
	rows := []SourceRow{{Type: "Deposit", BuyAmount: "1,5", BuyCurrency: "BTC", Date: "2023-01-01"}}

	res, err := Normalize(rows, Config{})
	require.NoError(t, err)
	require.Len(t, res.Txs, 1)
	assert.True(t, res.Txs[0].InLeg.Amount.Equal(decimal.RequireFromString("1.5")))
}

func TestNormalize_TradeRequiresBothLegs(t *testing.T) {
	rows := []SourceRow{{Type: "Buy", BuyAmount: "1", BuyCurrency: "BTC", Date: "2023-01-01"}}

	res, err := Normalize(rows, Config{})
	require.NoError(t, err)
	assert.Empty(t, res.Txs)
	require.Len(t, res.Audits, 1)
}

func TestNormalize_SortsByInstantThenKindPriorityThenOrdinal(t *testing.T) {
	rows := []SourceRow{
		{Type: "Withdrawal", SellAmount: "1", SellCurrency: "BTC", Date: "2023-01-01", Ordinal: 0},
		{Type: "Deposit", BuyAmount: "2", BuyCurrency: "BTC", Date: "2023-01-01", Ordinal: 1},
	}

	res, err := Normalize(rows, Config{})
	require.NoError(t, err)
	require.Len(t, res.Txs, 2)
	assert.Equal(t, model.Deposit, res.Txs[0].Kind, "acquisitions sharing an instant sort before disposals")
	assert.Equal(t, model.Withdrawal, res.Txs[1].Kind)
}

func TestNormalize_DateLayoutsParsed(t *testing.T) {
	loc := time.UTC
	for _, s := range []string{"2023-06-01", "2023-06-01 15:04:05", "01.06.2023 15:04", "01/06/2023 15:04:05"} {
		_, err := parseInstant(s, loc)
		assert.NoError(t, err, "layout for %q should parse", s)
	}
}
