package model

import (
	"fmt"
	"time"
)

// TxKind is a closed tagged variant. Switches over TxKind in this codebase
// list every kind explicitly; their default branches catch only
// unrecognized kinds: the classifier and Validate return an error for one,
// and KindPriority sorts it last.
type TxKind string

const (
	Deposit                   TxKind = "Deposit"
	Withdrawal                TxKind = "Withdrawal"
	Trade                     TxKind = "Trade"
	StakingReward             TxKind = "StakingReward"
	LendingInterest           TxKind = "LendingInterest"
	Airdrop                   TxKind = "Airdrop"
	Fork                      TxKind = "Fork"
	FeeOnly                   TxKind = "FeeOnly"
	TransferInternal          TxKind = "TransferInternal"
	Income                    TxKind = "Income"
	SyntheticBalancingDeposit TxKind = "SyntheticBalancingDeposit"
	SyntheticConsolidation    TxKind = "SyntheticConsolidation"
)

// KindPriority orders transaction kinds that share an instant so that
// acquisitions are always applied before disposals: Deposit < reward kinds
// < Trade < Withdrawal < FeeOnly. Both synthetic kinds share Deposit's
// priority, including a SyntheticConsolidation that carries an out_leg.
func KindPriority(k TxKind) int {
	switch k {
	case Deposit, SyntheticBalancingDeposit, SyntheticConsolidation:
		return 0
	case StakingReward, LendingInterest, Airdrop, Fork, Income:
		return 1
	case Trade:
		return 2
	case Withdrawal, TransferInternal:
		return 3
	case FeeOnly:
		return 4
	default:
		return 5
	}
}

// Tx is the canonical transaction record every pipeline stage operates on.
type Tx struct {
	ID         string
	Instant    time.Time
	Kind       TxKind
	InLeg      *Leg
	OutLeg     *Leg
	FeeLeg     *Leg
	Venue      string
	Group      string
	Comment    string
	Synthetic  bool
	OriginNote string

	// SourceOrdinal is the row index assigned by the normalizer; it is the
	// §4.3 tiebreaker for transactions sharing an Instant.
	SourceOrdinal int
}

// Validate enforces the leg-shape invariants of spec §3. It is called once
// at normalization time and again (defensively) whenever the reconciler
// constructs a synthetic Tx.
func (t Tx) Validate() error {
	if t.Synthetic && t.OriginNote == "" {
		return fmt.Errorf("tx %s: synthetic transaction missing origin_note", t.ID)
	}
	switch t.Kind {
	case Trade:
		if t.InLeg == nil || t.OutLeg == nil {
			return fmt.Errorf("tx %s: Trade requires both legs", t.ID)
		}
		if t.InLeg.Asset.Symbol == t.OutLeg.Asset.Symbol {
			return fmt.Errorf("tx %s: Trade legs must be on distinct assets", t.ID)
		}
	case Deposit, StakingReward, LendingInterest, Airdrop, Fork, Income,
		SyntheticBalancingDeposit:
		if t.OutLeg != nil {
			return fmt.Errorf("tx %s: %s must not have an out_leg", t.ID, t.Kind)
		}
		if t.InLeg == nil {
			return fmt.Errorf("tx %s: %s requires an in_leg", t.ID, t.Kind)
		}
	case SyntheticConsolidation:
		// Models either a consolidation deposit (in_leg) or a consolidation
		// withdrawal (out_leg), never both.
		if (t.InLeg == nil) == (t.OutLeg == nil) {
			return fmt.Errorf("tx %s: SyntheticConsolidation requires exactly one of in_leg/out_leg", t.ID)
		}
	case Withdrawal, TransferInternal:
		if t.InLeg != nil {
			return fmt.Errorf("tx %s: %s must not have an in_leg", t.ID, t.Kind)
		}
		if t.OutLeg == nil {
			return fmt.Errorf("tx %s: %s requires an out_leg", t.ID, t.Kind)
		}
	case FeeOnly:
		if t.InLeg != nil || t.OutLeg != nil {
			return fmt.Errorf("tx %s: FeeOnly must have only a fee_leg", t.ID)
		}
		if t.FeeLeg == nil {
			return fmt.Errorf("tx %s: FeeOnly requires a fee_leg", t.ID)
		}
	default:
		return fmt.Errorf("tx %s: unrecognized kind %q", t.ID, t.Kind)
	}
	for name, leg := range map[string]*Leg{"in_leg": t.InLeg, "out_leg": t.OutLeg, "fee_leg": t.FeeLeg} {
		if leg != nil && !leg.valid() {
			return fmt.Errorf("tx %s: %s amount must be > 0", t.ID, name)
		}
	}
	return nil
}

// IsSyntheticKind reports whether k is one of the Reconciler-generated
// synthetic kinds.
func IsSyntheticKind(k TxKind) bool {
	return k == SyntheticBalancingDeposit || k == SyntheticConsolidation
}
