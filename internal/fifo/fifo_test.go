package fifo

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qntropy/qntropy/internal/model"
	"github.com/qntropy/qntropy/internal/oracle"
)

func mustLeg(sym, amount string) *model.Leg {
	amt, err := decimal.NewFromString(amount)
	if err != nil {
		panic(err)
	}
	return &model.Leg{Asset: model.NewAsset(sym), Amount: amt}
}

func d(s string) decimal.Decimal {
	v, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return v
}

func at(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t.UTC()
}

// testOracle builds an Oracle over a StaticProvider keyed "ASSET:EUR", so
// tests pin the price fixture directly, per the determinism contract of
// §4.2's test suites.
func testOracle(t *testing.T, prices map[string]map[string]decimal.Decimal) *oracle.Oracle {
	t.Helper()
	cache, err := oracle.NewCache(t.TempDir())
	require.NoError(t, err)
	sp := &oracle.StaticProvider{ProviderName: "fixture", Prices: prices}
	return oracle.New(cache, []oracle.Provider{sp}, oracle.Config{}, nil)
}

func newEngine(t *testing.T, prices map[string]map[string]decimal.Decimal) *Engine {
	t.Helper()
	return New(testOracle(t, prices), Config{}, nil)
}

// S1 — pure buy-sell (spec §8).
func TestS1_PureBuySell(t *testing.T) {
	prices := map[string]map[string]decimal.Decimal{
		"BTC:EUR": {"2023-01-02": d("20000"), "2023-06-01": d("25000")},
	}
	e := newEngine(t, prices)

	buy := model.Tx{
		ID: "buy", Instant: at("2023-01-02"), Kind: model.Trade,
		InLeg: mustLeg("BTC", "1"), OutLeg: mustLeg("EUR", "20000"), FeeLeg: mustLeg("EUR", "10"),
	}
	sell := model.Tx{
		ID: "sell", Instant: at("2023-06-01"), Kind: model.Trade,
		InLeg: mustLeg("EUR", "25000"), OutLeg: mustLeg("BTC", "1"), FeeLeg: mustLeg("EUR", "12"),
	}

	res, err := e.Process(context.Background(), []model.Tx{buy, sell})
	require.NoError(t, err)
	require.Len(t, res.Events, 1)

	ev := res.Events[0]
	assert.Equal(t, model.CapitalDisposal, ev.Kind)
	assert.True(t, ev.ProceedsEUR.Equal(d("24988")), "proceeds: %s", ev.ProceedsEUR)
	assert.True(t, ev.CostBasisEUR.Equal(d("20010")), "basis: %s", ev.CostBasisEUR)
	assert.True(t, ev.GainEUR.Equal(d("4978")), "gain: %s", ev.GainEUR)
	assert.Equal(t, model.Short, ev.Holding)
}

// S3 — missing history repaired by a synthetic deposit upstream; FIFO must
// mark the resulting disposal's synthetic_inputs.
func TestS3_SyntheticLotPropagatesSyntheticInputs(t *testing.T) {
	prices := map[string]map[string]decimal.Decimal{
		"BTC:EUR": {"2022-05-10": d("30000")},
	}
	e := newEngine(t, prices)

	synth := model.Tx{
		ID: "synthetic-balance-1", Instant: at("2022-05-10").Add(-time.Microsecond),
		Kind: model.SyntheticBalancingDeposit, InLeg: mustLeg("BTC", "0.5"),
		Synthetic: true, OriginNote: "balance_repair for tx withdrawal-1, deficit 0.5",
	}
	withdrawal := model.Tx{
		ID: "withdrawal-1", Instant: at("2022-05-10"),
		Kind: model.Withdrawal, OutLeg: mustLeg("BTC", "0.5"),
	}

	res, err := e.Process(context.Background(), []model.Tx{synth, withdrawal})
	require.NoError(t, err)
	require.Len(t, res.Events, 1)

	ev := res.Events[0]
	assert.True(t, ev.CostBasisEUR.IsZero())
	assert.True(t, ev.ProceedsEUR.Equal(d("15000")), "proceeds: %s", ev.ProceedsEUR)
	assert.True(t, ev.GainEUR.Equal(d("15000")))
	assert.True(t, ev.SyntheticInputs, "disposal of a synthetic lot must flag synthetic_inputs")
}

// S4 — staking income recognized at receipt, then disposed at a different
// price, realizing a capital gain on top of the income event.
func TestS4_StakingIncomeThenDisposal(t *testing.T) {
	prices := map[string]map[string]decimal.Decimal{
		"ADA:EUR": {"2023-02-01": d("0.40"), "2023-05-01": d("0.60")},
	}
	e := newEngine(t, prices)

	reward := model.Tx{
		ID: "reward", Instant: at("2023-02-01"),
		Kind: model.StakingReward, InLeg: mustLeg("ADA", "10"),
	}
	sale := model.Tx{
		ID: "sale", Instant: at("2023-05-01"),
		Kind: model.Trade, InLeg: mustLeg("EUR", "6"), OutLeg: mustLeg("ADA", "10"),
	}

	res, err := e.Process(context.Background(), []model.Tx{reward, sale})
	require.NoError(t, err)
	require.Len(t, res.Events, 2)

	income := res.Events[0]
	assert.Equal(t, model.IncomeEvent, income.Kind)
	assert.Equal(t, model.MovableCapital, income.Category)
	assert.True(t, income.FMVEUR.Equal(d("4.00")), "fmv: %s", income.FMVEUR)

	disposal := res.Events[1]
	assert.Equal(t, model.CapitalDisposal, disposal.Kind)
	assert.True(t, disposal.ProceedsEUR.Equal(d("6.00")))
	assert.True(t, disposal.CostBasisEUR.Equal(d("4.00")))
	assert.True(t, disposal.GainEUR.Equal(d("2.00")))
}

// S5 — partial FIFO consumption across two lots spanning the 12-month
// long-term boundary.
func TestS5_PartialFIFOConsumption(t *testing.T) {
	prices := map[string]map[string]decimal.Decimal{}
	e := newEngine(t, prices)

	lot1 := model.Tx{ID: "lot1", Instant: at("2022-01-01"), Kind: model.Trade,
		InLeg: mustLeg("BTC", "1"), OutLeg: mustLeg("EUR", "10000")}
	lot2 := model.Tx{ID: "lot2", Instant: at("2023-01-01"), Kind: model.Trade,
		InLeg: mustLeg("BTC", "1"), OutLeg: mustLeg("EUR", "30000")}
	sale := model.Tx{ID: "sale", Instant: at("2024-02-01"), Kind: model.Trade,
		InLeg: mustLeg("EUR", "60000"), OutLeg: mustLeg("BTC", "1.5")}

	res, err := e.Process(context.Background(), []model.Tx{lot1, lot2, sale})
	require.NoError(t, err)
	require.Len(t, res.Events, 1)

	ev := res.Events[0]
	assert.True(t, ev.CostBasisEUR.Equal(d("25000")), "basis: %s", ev.CostBasisEUR)
	assert.True(t, ev.GainEUR.Equal(d("35000")))
	assert.Equal(t, model.Long, ev.Holding)
	assert.True(t, e.Balance("BTC").Equal(d("0.5")))
}

// S6 — final-balance consolidation disposes the excess via a synthetic
// withdrawal-shaped SyntheticConsolidation Tx.
func TestS6_ConsolidationWithdrawalDisposal(t *testing.T) {
	prices := map[string]map[string]decimal.Decimal{
		"BTC:EUR": {"2023-12-31": d("40000")},
	}
	e := newEngine(t, prices)

	lot := model.Tx{ID: "lot", Instant: at("2023-01-01"), Kind: model.Trade,
		InLeg: mustLeg("BTC", "0.3"), OutLeg: mustLeg("EUR", "9000")}
	consolidation := model.Tx{
		ID: "synthetic-consolidation-1", Instant: at("2023-12-31"),
		Kind: model.SyntheticConsolidation, OutLeg: mustLeg("BTC", "0.05"),
		Synthetic: true, OriginNote: "pre=0.3 post=0.25 snapshot_source=user_final_balance as_of=2023-12-31T00:00:00Z",
	}

	res, err := e.Process(context.Background(), []model.Tx{lot, consolidation})
	require.NoError(t, err)
	require.Len(t, res.Events, 1)

	ev := res.Events[0]
	assert.True(t, ev.ProceedsEUR.Equal(d("2000")), "proceeds: %s", ev.ProceedsEUR)
	assert.True(t, ev.SyntheticInputs, "a SyntheticConsolidation disposal is always synthetic_inputs")
}

// Deficit handling: a disposal exceeding the tracked queue still emits a
// diagnostic zero-basis slice and an audit entry rather than failing.
func TestConsumeDeficitEmitsDiagnostic(t *testing.T) {
	prices := map[string]map[string]decimal.Decimal{
		"ETH:EUR": {"2023-01-01": d("1500")},
	}
	e := newEngine(t, prices)

	sale := model.Tx{ID: "sale", Instant: at("2023-01-01"), Kind: model.Withdrawal, OutLeg: mustLeg("ETH", "2")}
	res, err := e.Process(context.Background(), []model.Tx{sale})
	require.NoError(t, err)
	require.Len(t, res.Events, 1)
	assert.True(t, res.Events[0].CostBasisEUR.IsZero())

	var found bool
	for _, a := range res.Audits {
		if a.Category == model.AuditDisposalDeficit {
			found = true
		}
	}
	assert.True(t, found, "expected an AuditDisposalDeficit entry")
}

// Internal transfer matching carries basis across a withdrawal/deposit pair
// tagged with the "internal_transfer" marker, within the configured window.
func TestInternalTransferMatchCarriesBasis(t *testing.T) {
	e := newEngine(t, map[string]map[string]decimal.Decimal{})

	acquire := model.Tx{ID: "acquire", Instant: at("2023-01-01"), Kind: model.Trade,
		InLeg: mustLeg("BTC", "1"), OutLeg: mustLeg("EUR", "20000")}
	transferOut := model.Tx{ID: "out", Instant: at("2023-01-02"), Kind: model.TransferInternal,
		OutLeg: mustLeg("BTC", "1")}
	transferIn := model.Tx{ID: "in", Instant: at("2023-01-02").Add(2 * time.Hour),
		Kind: model.Deposit, InLeg: mustLeg("BTC", "1"), Group: "internal_transfer"}

	res, err := e.Process(context.Background(), []model.Tx{acquire, transferOut, transferIn})
	require.NoError(t, err)
	assert.Empty(t, res.Events, "an internal transfer must not realize a disposal")
	assert.True(t, e.Balance("BTC").Equal(d("1")))

	var matched bool
	for _, a := range res.Audits {
		if a.Category == model.AuditTransferMatched {
			matched = true
		}
	}
	assert.True(t, matched)

	// The carried lot retains its original 20000 basis: disposing it now
	// should show the original cost, not a zero or re-priced basis.
	disposal := model.Tx{ID: "later-sale", Instant: at("2024-02-01"), Kind: model.Trade,
		InLeg: mustLeg("EUR", "30000"), OutLeg: mustLeg("BTC", "1")}
	res2, err := e.Process(context.Background(), []model.Tx{disposal})
	require.NoError(t, err)
	require.Len(t, res2.Events, 1)
	assert.True(t, res2.Events[0].CostBasisEUR.Equal(d("20000")))
}

// An internal-transfer-marked deposit with no matching withdrawal inside
// the window falls back to a zero-basis lot, never a silent basis carry.
func TestInternalTransferUnmatchedFallsBackToZeroBasis(t *testing.T) {
	e := newEngine(t, map[string]map[string]decimal.Decimal{})

	deposit := model.Tx{ID: "in", Instant: at("2023-01-01"), Kind: model.Deposit,
		InLeg: mustLeg("BTC", "1"), Group: "internal_transfer"}

	res, err := e.Process(context.Background(), []model.Tx{deposit})
	require.NoError(t, err)

	var unmatched bool
	for _, a := range res.Audits {
		if a.Category == model.AuditTransferUnmatched {
			unmatched = true
		}
	}
	assert.True(t, unmatched)
	assert.True(t, e.Balance("BTC").Equal(d("1")))
}
