// Package reconcile walks a time-sorted canonical transaction stream,
// tracks per-asset balances, and inserts synthetic transactions to repair
// any history gap it finds, per spec §4.3. It performs no I/O: Reconcile is
// a pure function over its inputs.
package reconcile

import (
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/qntropy/qntropy/internal/model"
	"github.com/qntropy/qntropy/internal/qerr"
)

// Snapshot is the user-supplied final-balance snapshot (§4.3, §6).
type Snapshot struct {
	AsOf     time.Time
	Balances map[string]decimal.Decimal // asset symbol -> amount
}

// Config tunes the reconciler.
type Config struct {
	// Tolerance is the absolute decimal tolerance (asset-quantity units)
	// below which a balance discrepancy is dropped as rounding noise.
	// Defaults to model.DefaultTolerance.
	Tolerance decimal.Decimal
}

// Result is the reconciled, possibly-lengthened stream plus the audit trail
// of every synthetic insertion.
type Result struct {
	Txs    []model.Tx
	Audits []model.AuditEntry
}

type balances map[string]decimal.Decimal

func (b balances) get(asset string) decimal.Decimal {
	if v, ok := b[asset]; ok {
		return v
	}
	return decimal.Zero
}

// Reconcile applies the per-transaction balance walk of §4.3, inserting a
// SyntheticBalancingDeposit immediately before any transaction that would
// otherwise drive an asset negative, then (if snapshot is non-nil) emits a
// SyntheticConsolidation to reconcile against the user's final-balance
// snapshot.
func Reconcile(txs []model.Tx, snapshot *Snapshot, cfg Config) (Result, error) {
	tol := cfg.Tolerance
	if tol.IsZero() {
		tol = model.DefaultTolerance
	}

	bal := balances{}
	var out []model.Tx
	var audits []model.AuditEntry
	syntheticSeq := 0

	for _, tx := range txs {
		delta := netDelta(tx)
		assets := sortedKeys(delta)

		for _, asset := range assets {
			d := delta[asset]
			projected := bal.get(asset).Add(d)
			if projected.LessThan(tol.Neg()) {
				deficit := projected.Neg()
				syntheticSeq++
				synth := model.Tx{
					ID:         fmt.Sprintf("synthetic-balance-%d", syntheticSeq),
					Instant:    tx.Instant.Add(-time.Microsecond),
					Kind:       model.SyntheticBalancingDeposit,
					InLeg:      &model.Leg{Asset: model.NewAsset(asset), Amount: deficit},
					Synthetic:  true,
					OriginNote: fmt.Sprintf("balance_repair for tx %s, deficit %s", tx.ID, deficit.String()),
				}
				if err := synth.Validate(); err != nil {
					return Result{}, fmt.Errorf("reconcile: %w", invariantViolation(err))
				}
				out = append(out, synth)
				bal[asset] = bal.get(asset).Add(deficit)
				audits = append(audits, model.AuditEntry{
					Instant:   synth.Instant,
					Category:  model.AuditSyntheticInserted,
					SubjectID: tx.ID,
					Reason:    synth.OriginNote,
				})
			}
		}

		for _, asset := range assets {
			d := delta[asset]
			bal[asset] = bal.get(asset).Add(d)
			if bal[asset].LessThan(tol.Neg()) {
				return Result{}, invariantViolation(fmt.Errorf("balance for %s still negative (%s) after repair, tx %s", asset, bal[asset].String(), tx.ID))
			}
		}

		out = append(out, tx)
	}

	if snapshot != nil {
		consolAudits, err := consolidate(&out, bal, *snapshot, tol)
		if err != nil {
			return Result{}, err
		}
		audits = append(audits, consolAudits...)
	}

	return Result{Txs: out, Audits: audits}, nil
}

// netDelta computes the per-asset balance delta implied by a Tx's legs:
// in_leg adds, out_leg subtracts, fee_leg subtracts from its own asset.
func netDelta(tx model.Tx) map[string]decimal.Decimal {
	d := map[string]decimal.Decimal{}
	add := func(leg *model.Leg, sign int64) {
		if leg == nil {
			return
		}
		sym := leg.Asset.Symbol
		delta := leg.Amount
		if sign < 0 {
			delta = delta.Neg()
		}
		d[sym] = d[sym].Add(delta)
	}
	add(tx.InLeg, 1)
	add(tx.OutLeg, -1)
	add(tx.FeeLeg, -1)
	return d
}

func consolidate(out *[]model.Tx, bal balances, snap Snapshot, tol decimal.Decimal) ([]model.AuditEntry, error) {
	assetSet := map[string]bool{}
	for a := range bal {
		assetSet[a] = true
	}
	for a := range snap.Balances {
		assetSet[a] = true
	}
	assets := sortedKeys(assetSet)

	var audits []model.AuditEntry
	seq := 0
	for _, asset := range assets {
		current := bal.get(asset)
		target, ok := snap.Balances[asset]
		if !ok {
			target = decimal.Zero
		}
		diff := target.Sub(current)

		if diff.Abs().Cmp(tol) <= 0 {
			audits = append(audits, model.AuditEntry{
				Instant:   snap.AsOf,
				Category:  model.AuditConsolidation,
				SubjectID: asset,
				Reason:    fmt.Sprintf("diff %s within tolerance %s, dropped", diff.String(), tol.String()),
			})
			continue
		}

		seq++
		note := fmt.Sprintf("pre=%s post=%s snapshot_source=user_final_balance as_of=%s", current.String(), target.String(), snap.AsOf.Format(time.RFC3339))

		var synth model.Tx
		if diff.IsPositive() {
			synth = model.Tx{
				ID:         fmt.Sprintf("synthetic-consolidation-%d", seq),
				Instant:    snap.AsOf,
				Kind:       model.SyntheticConsolidation,
				InLeg:      &model.Leg{Asset: model.NewAsset(asset), Amount: diff},
				Synthetic:  true,
				OriginNote: note,
			}
		} else {
			synth = model.Tx{
				ID:         fmt.Sprintf("synthetic-consolidation-%d", seq),
				Instant:    snap.AsOf,
				Kind:       model.SyntheticConsolidation,
				OutLeg:     &model.Leg{Asset: model.NewAsset(asset), Amount: diff.Neg()},
				Synthetic:  true,
				OriginNote: note,
			}
		}
		if err := synth.Validate(); err != nil {
			return nil, fmt.Errorf("reconcile: %w", invariantViolation(err))
		}
		*out = append(*out, synth)
		audits = append(audits, model.AuditEntry{
			Instant:   snap.AsOf,
			Category:  model.AuditConsolidation,
			SubjectID: asset,
			Reason:    note,
		})
	}
	return audits, nil
}

func invariantViolation(err error) error {
	return qerr.New(qerr.ReconciliationFatal, "", err)
}

// sortedKeys returns m's keys in ascending order, so a multi-asset Tx or
// snapshot walk processes assets in a deterministic sequence instead of
// Go's randomized map iteration order — required for the byte-identical
// TaxEvent output spec §8 demands.
func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
