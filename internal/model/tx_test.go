package model

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func leg(sym, amount string) *Leg {
	return &Leg{Asset: NewAsset(sym), Amount: decimal.RequireFromString(amount)}
}

func TestTxValidate(t *testing.T) {
	cases := []struct {
		name    string
		tx      Tx
		wantErr bool
	}{
		{"trade requires both legs", Tx{ID: "t1", Kind: Trade, InLeg: leg("BTC", "1")}, true},
		{"trade legs must differ", Tx{ID: "t2", Kind: Trade, InLeg: leg("BTC", "1"), OutLeg: leg("BTC", "1")}, true},
		{"valid trade", Tx{ID: "t3", Kind: Trade, InLeg: leg("BTC", "1"), OutLeg: leg("EUR", "20000")}, false},
		{"deposit forbids out_leg", Tx{ID: "t4", Kind: Deposit, InLeg: leg("BTC", "1"), OutLeg: leg("EUR", "1")}, true},
		{"deposit requires in_leg", Tx{ID: "t5", Kind: Deposit}, true},
		{"valid deposit", Tx{ID: "t6", Kind: Deposit, InLeg: leg("BTC", "1")}, false},
		{"withdrawal forbids in_leg", Tx{ID: "t7", Kind: Withdrawal, InLeg: leg("BTC", "1")}, true},
		{"valid withdrawal", Tx{ID: "t8", Kind: Withdrawal, OutLeg: leg("BTC", "1")}, false},
		{"fee only forbids legs", Tx{ID: "t9", Kind: FeeOnly, InLeg: leg("BTC", "1"), FeeLeg: leg("BTC", "0.01")}, true},
		{"fee only requires fee_leg", Tx{ID: "t10", Kind: FeeOnly}, true},
		{"valid fee only", Tx{ID: "t11", Kind: FeeOnly, FeeLeg: leg("BTC", "0.01")}, false},
		{
			"consolidation exactly one leg",
			Tx{ID: "t12", Kind: SyntheticConsolidation, InLeg: leg("BTC", "1"), OutLeg: leg("BTC", "1"),
				Synthetic: true, OriginNote: "x"},
			true,
		},
		{
			"valid consolidation deposit",
			Tx{ID: "t13", Kind: SyntheticConsolidation, InLeg: leg("BTC", "1"), Synthetic: true, OriginNote: "x"},
			false,
		},
		{
			"synthetic without origin_note",
			Tx{ID: "t14", Kind: Deposit, InLeg: leg("BTC", "1"), Synthetic: true},
			true,
		},
		{"negative amount rejected", Tx{ID: "t15", Kind: Deposit, InLeg: &Leg{Asset: NewAsset("BTC"), Amount: decimal.RequireFromString("-1")}}, true},
		{"unrecognized kind", Tx{ID: "t16", Kind: TxKind("Bogus")}, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.tx.Validate()
			if tc.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestKindPriorityOrdersAcquisitionBeforeDisposal(t *testing.T) {
	assert.Less(t, KindPriority(Deposit), KindPriority(StakingReward))
	assert.Less(t, KindPriority(StakingReward), KindPriority(Trade))
	assert.Less(t, KindPriority(Trade), KindPriority(Withdrawal))
	assert.Less(t, KindPriority(Withdrawal), KindPriority(FeeOnly))
	assert.Equal(t, KindPriority(Deposit), KindPriority(SyntheticBalancingDeposit))
}

func TestIsSyntheticKind(t *testing.T) {
	assert.True(t, IsSyntheticKind(SyntheticBalancingDeposit))
	assert.True(t, IsSyntheticKind(SyntheticConsolidation))
	assert.False(t, IsSyntheticKind(Trade))
}

func TestLegValid(t *testing.T) {
	assert.True(t, leg("BTC", "1").valid())
	zero := &Leg{Asset: NewAsset("BTC"), Amount: decimal.Zero}
	assert.False(t, zero.valid())
	var nilLeg *Leg
	assert.False(t, nilLeg.valid())
}

func TestTxInstantRoundTrip(t *testing.T) {
	now := time.Date(2023, 6, 1, 12, 0, 0, 0, time.UTC)
	tx := Tx{ID: "t", Kind: Deposit, InLeg: leg("BTC", "1"), Instant: now}
	assert.NoError(t, tx.Validate())
	assert.True(t, tx.Instant.Equal(now))
}
