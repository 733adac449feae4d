// Package fifo implements the per-asset acquisition queues and tax
// classification of §4.4: it consumes the reconciled Tx stream, maintains
// FIFO lot queues keyed by asset, and emits TaxEvent/AuditEntry records.
package fifo

import (
	"container/list"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/qntropy/qntropy/internal/model"
	"github.com/qntropy/qntropy/internal/oracle"
)

const transferMarker = "internal_transfer"

// Config tunes the engine. TransferMatchWindow/TransferMatchTolerance
// resolve spec §9 open question 1: the source is silent on the precise
// matching rule, so this implementation makes it an explicit, tunable
// policy rather than a silent basis carry-over.
type Config struct {
	TransferMatchWindow    time.Duration   // default 24h
	TransferMatchTolerance decimal.Decimal // relative fraction, default 0.005
	Timezone               *time.Location  // for tax_year; default Europe/Madrid
}

func (c *Config) applyDefaults() {
	if c.TransferMatchWindow == 0 {
		c.TransferMatchWindow = 24 * time.Hour
	}
	if c.TransferMatchTolerance.IsZero() {
		c.TransferMatchTolerance = decimal.New(5, -3) // 0.5%
	}
	if c.Timezone == nil {
		loc, err := time.LoadLocation("Europe/Madrid")
		if err != nil {
			loc = time.UTC
		}
		c.Timezone = loc
	}
}

// Result is the output of a Process run.
type Result struct {
	Events []model.TaxEvent
	Audits []model.AuditEntry
}

// pendingTransfer holds the lots popped from a TransferInternal withdrawal
// awaiting a matching marked Deposit, per §9 open question 1.
type pendingTransfer struct {
	Asset   string
	Qty     decimal.Decimal
	Lots    []*model.Lot
	Instant time.Time
	TxID    string
}

// Engine owns the per-asset FIFO queues and runs the tax classifier.
type Engine struct {
	queues  map[string]*list.List
	pending []*pendingTransfer
	oracle  *oracle.Oracle
	cfg     Config
	log     *zap.Logger
}

// New builds an Engine backed by o for price lookups.
func New(o *oracle.Oracle, cfg Config, log *zap.Logger) *Engine {
	cfg.applyDefaults()
	if log == nil {
		log = zap.NewNop()
	}
	return &Engine{
		queues: map[string]*list.List{},
		oracle: o,
		cfg:    cfg,
		log:    log,
	}
}

func (e *Engine) queueFor(asset string) *list.List {
	q, ok := e.queues[asset]
	if !ok {
		q = list.New()
		e.queues[asset] = q
	}
	return q
}

func (e *Engine) pushLot(asset string, lot *model.Lot) {
	e.queueFor(asset).PushBack(lot)
}

// Balance reports the total qty_remaining tracked for asset, used by tests
// asserting the lot-sum-equals-balance invariant (§8.2).
func (e *Engine) Balance(asset string) decimal.Decimal {
	total := decimal.Zero
	q, ok := e.queues[asset]
	if !ok {
		return total
	}
	for el := q.Front(); el != nil; el = el.Next() {
		total = total.Add(el.Value.(*model.Lot).QtyRemaining)
	}
	return total
}

// Process runs every Tx in order through the classifier, in the order
// given; callers are expected to have already normalized and reconciled
// the stream so it is time-sorted.
func (e *Engine) Process(ctx context.Context, txs []model.Tx) (Result, error) {
	var res Result
	for _, tx := range txs {
		e.expirePending(tx.Instant, &res)
		if err := e.processTx(ctx, tx, &res); err != nil {
			return Result{}, err
		}
	}
	return res, nil
}

func (e *Engine) processTx(ctx context.Context, tx model.Tx, out *Result) error {
	switch tx.Kind {
	case model.Trade:
		return e.processTrade(ctx, tx, out)
	case model.Deposit:
		return e.processDeposit(ctx, tx, out)
	case model.SyntheticBalancingDeposit:
		return e.processZeroBasisAcquisition(ctx, tx, out)
	case model.SyntheticConsolidation:
		if tx.InLeg != nil {
			return e.processZeroBasisAcquisition(ctx, tx, out)
		}
		return e.processDisposalSale(ctx, tx, out)
	case model.StakingReward, model.LendingInterest, model.Income:
		return e.processIncomeAcquisition(ctx, tx, out)
	case model.Airdrop, model.Fork:
		return e.processZeroBasisAcquisition(ctx, tx, out)
	case model.Withdrawal:
		return e.processDisposalSale(ctx, tx, out)
	case model.TransferInternal:
		return e.processTransferOut(ctx, tx, out)
	case model.FeeOnly:
		return e.processFeeOnly(ctx, tx, out)
	default:
		return fmt.Errorf("fifo: unhandled tx kind %q", tx.Kind)
	}
}

// ---- acquisition side ----

func (e *Engine) processZeroBasisAcquisition(ctx context.Context, tx model.Tx, out *Result) error {
	leg := tx.InLeg
	lot := &model.Lot{
		Asset:         leg.Asset,
		QtyRemaining:  leg.Amount,
		AcquiredAt:    tx.Instant,
		UnitBasisEUR:  decimal.Zero,
		SourceTxID:    tx.ID,
		FromSynthetic: tx.Synthetic,
	}
	e.pushLot(leg.Asset.Symbol, lot)
	return nil
}

func (e *Engine) processIncomeAcquisition(ctx context.Context, tx model.Tx, out *Result) error {
	leg := tx.InLeg
	quote, err := e.oracle.PriceEUR(ctx, leg.Asset, tx.Instant, &out.Audits)
	if err != nil {
		return err
	}
	fmvEUR := model.RoundEUR(quote.PriceEUR.Mul(leg.Amount))

	lot := &model.Lot{
		Asset:         leg.Asset,
		QtyRemaining:  leg.Amount,
		AcquiredAt:    tx.Instant,
		UnitBasisEUR:  quote.PriceEUR,
		SourceTxID:    tx.ID,
		FromSynthetic: tx.Synthetic,
	}
	e.pushLot(leg.Asset.Symbol, lot)

	out.Events = append(out.Events, model.TaxEvent{
		Kind:            model.IncomeEvent,
		TaxYear:         taxYear(tx.Instant, e.cfg.Timezone),
		AssetReceived:   leg.Asset,
		Qty:             leg.Amount,
		FMVEUR:          fmvEUR,
		Category:        incomeCategory(tx.Kind),
		SourceTxID:      tx.ID,
		SyntheticInputs: tx.Synthetic,
		Instant:         tx.Instant,
	})
	return nil
}

func incomeCategory(k model.TxKind) model.IncomeCategory {
	switch k {
	case model.StakingReward, model.LendingInterest:
		return model.MovableCapital
	default:
		return model.OtherIncome
	}
}

func (e *Engine) processDeposit(ctx context.Context, tx model.Tx, out *Result) error {
	leg := tx.InLeg
	if isTransferMarked(tx) {
		if lots, ok := e.tryMatchTransfer(leg.Asset.Symbol, leg.Amount, tx.Instant); ok {
			for _, l := range lots {
				e.pushLot(leg.Asset.Symbol, l)
			}
			out.Audits = append(out.Audits, model.AuditEntry{
				Instant:   tx.Instant,
				Category:  model.AuditTransferMatched,
				SubjectID: tx.ID,
				Reason:    fmt.Sprintf("internal transfer matched, basis carried over for %s %s", leg.Amount.String(), leg.Asset.Symbol),
			})
			return nil
		}
		lot := &model.Lot{
			Asset:         leg.Asset,
			QtyRemaining:  leg.Amount,
			AcquiredAt:    tx.Instant,
			UnitBasisEUR:  decimal.Zero,
			SourceTxID:    tx.ID,
			FromSynthetic: tx.Synthetic,
		}
		e.pushLot(leg.Asset.Symbol, lot)
		out.Audits = append(out.Audits, model.AuditEntry{
			Instant:   tx.Instant,
			Category:  model.AuditTransferUnmatched,
			SubjectID: tx.ID,
			Reason:    "internal transfer marker present but no matching withdrawal within window, recorded with zero basis",
		})
		return nil
	}

	quote, err := e.oracle.PriceEUR(ctx, leg.Asset, tx.Instant, &out.Audits)
	if err != nil {
		return err
	}
	unitBasis := quote.PriceEUR

	feeEUR, feeEvt, err := e.acquisitionFeeEUR(ctx, tx, out)
	if err != nil {
		return err
	}
	if feeEvt != nil {
		out.Events = append(out.Events, *feeEvt)
	}
	if feeEUR.IsPositive() {
		total := unitBasis.Mul(leg.Amount).Add(feeEUR)
		unitBasis = total.DivRound(leg.Amount, model.QuantityScale)
	}

	lot := &model.Lot{
		Asset:         leg.Asset,
		QtyRemaining:  leg.Amount,
		AcquiredAt:    tx.Instant,
		UnitBasisEUR:  unitBasis,
		SourceTxID:    tx.ID,
		FromSynthetic: tx.Synthetic,
	}
	e.pushLot(leg.Asset.Symbol, lot)
	return nil
}

// acquisitionFeeEUR resolves fee_leg into an EUR amount to be folded into an
// acquisition's basis, per the fee policy of §4.4. A fee paid in a third
// asset is itself a disposal (§9 open question 3): it is consumed from that
// asset's own queue and emits its own CapitalDisposal event.
func (e *Engine) acquisitionFeeEUR(ctx context.Context, tx model.Tx, out *Result) (decimal.Decimal, *model.TaxEvent, error) {
	if tx.FeeLeg == nil {
		return decimal.Zero, nil, nil
	}
	if tx.FeeLeg.Asset.IsEUR() {
		return tx.FeeLeg.Amount, nil, nil
	}
	return e.disposeFeeAsset(ctx, tx, out)
}

// disposeFeeAsset consumes fee_leg from its own queue as a disposal,
// returning its EUR fair value and the CapitalDisposal event produced.
func (e *Engine) disposeFeeAsset(ctx context.Context, tx model.Tx, out *Result) (decimal.Decimal, *model.TaxEvent, error) {
	leg := tx.FeeLeg
	slices, basis, audits := e.consume(leg.Asset.Symbol, leg.Amount, tx.Instant, tx.ID)
	out.Audits = append(out.Audits, audits...)

	quote, err := e.oracle.PriceEUR(ctx, leg.Asset, tx.Instant, &out.Audits)
	if err != nil {
		return decimal.Decimal{}, nil, err
	}
	proceeds := model.RoundEUR(quote.PriceEUR.Mul(leg.Amount))
	basis = model.RoundEUR(basis)

	evt := model.TaxEvent{
		Kind:            model.CapitalDisposal,
		TaxYear:         taxYear(tx.Instant, e.cfg.Timezone),
		AssetDisposed:   leg.Asset,
		Qty:             leg.Amount,
		ProceedsEUR:     proceeds,
		CostBasisEUR:    basis,
		GainEUR:         proceeds.Sub(basis),
		Holding:         holdingPeriod(tx.Instant, slices),
		LotsConsumed:    slices,
		SourceTxID:      tx.ID,
		SyntheticInputs: tx.Synthetic || anySynthetic(slices),
		Instant:         tx.Instant,
	}
	return proceeds, &evt, nil
}

// ---- disposal side ----

func (e *Engine) processDisposalSale(ctx context.Context, tx model.Tx, out *Result) error {
	leg := tx.OutLeg
	qty := leg.Amount

	var thirdAssetFeeEUR decimal.Decimal
	if tx.FeeLeg != nil {
		if tx.FeeLeg.Asset.Symbol == leg.Asset.Symbol {
			qty = qty.Add(tx.FeeLeg.Amount)
		} else if tx.FeeLeg.Asset.IsEUR() {
			thirdAssetFeeEUR = tx.FeeLeg.Amount
		} else {
			feeEUR, feeEvt, err := e.disposeFeeAsset(ctx, tx, out)
			if err != nil {
				return err
			}
			if feeEvt != nil {
				out.Events = append(out.Events, *feeEvt)
			}
			thirdAssetFeeEUR = feeEUR
		}
	}

	slices, basis, audits := e.consume(leg.Asset.Symbol, qty, tx.Instant, tx.ID)
	out.Audits = append(out.Audits, audits...)

	quote, err := e.oracle.PriceEUR(ctx, leg.Asset, tx.Instant, &out.Audits)
	if err != nil {
		return err
	}
	proceeds := model.RoundEUR(quote.PriceEUR.Mul(leg.Amount).Sub(thirdAssetFeeEUR))
	basis = model.RoundEUR(basis)

	out.Events = append(out.Events, model.TaxEvent{
		Kind:            model.CapitalDisposal,
		TaxYear:         taxYear(tx.Instant, e.cfg.Timezone),
		AssetDisposed:   leg.Asset,
		Qty:             leg.Amount,
		ProceedsEUR:     proceeds,
		CostBasisEUR:    basis,
		GainEUR:         proceeds.Sub(basis),
		Holding:         holdingPeriod(tx.Instant, slices),
		LotsConsumed:    slices,
		SourceTxID:      tx.ID,
		SyntheticInputs: tx.Synthetic || anySynthetic(slices),
		Instant:         tx.Instant,
	})
	return nil
}

func (e *Engine) processFeeOnly(ctx context.Context, tx model.Tx, out *Result) error {
	leg := tx.FeeLeg
	slices, basis, audits := e.consume(leg.Asset.Symbol, leg.Amount, tx.Instant, tx.ID)
	out.Audits = append(out.Audits, audits...)
	basis = model.RoundEUR(basis)

	out.Events = append(out.Events, model.TaxEvent{
		Kind:            model.CapitalDisposal,
		TaxYear:         taxYear(tx.Instant, e.cfg.Timezone),
		AssetDisposed:   leg.Asset,
		Qty:             leg.Amount,
		ProceedsEUR:     decimal.Zero,
		CostBasisEUR:    basis,
		GainEUR:         basis.Neg(),
		Holding:         holdingPeriod(tx.Instant, slices),
		LotsConsumed:    slices,
		SourceTxID:      tx.ID,
		SyntheticInputs: tx.Synthetic || anySynthetic(slices),
		Instant:         tx.Instant,
	})
	return nil
}

// processTrade handles a Tx with both legs. Per §4.4, basis of the acquired
// leg is valued off the out_leg consumed, while proceeds for the disposed
// leg are valued off the in_leg received: the two legs are priced
// independently rather than assumed equal, so a mispriced market (S2 of §8)
// shows up as a non-zero gain on one side.
func (e *Engine) processTrade(ctx context.Context, tx model.Tx, out *Result) error {
	inLeg, outLeg := tx.InLeg, tx.OutLeg

	// A Trade's fee is attributed to whichever side actually carries a
	// taxable lot: if the acquired leg is EUR (a "sell"), EUR has no basis
	// to absorb the fee, so it is taken from proceeds of the disposed leg
	// instead; otherwise it is added to the acquired leg's basis.
	feeOnDisposal := inLeg.Asset.IsEUR()

	var disposalFeeEUR decimal.Decimal
	var acquisitionFeeEUR decimal.Decimal
	var feeEvt *model.TaxEvent
	if tx.FeeLeg != nil {
		switch {
		case tx.FeeLeg.Asset.IsEUR():
			if feeOnDisposal {
				disposalFeeEUR = tx.FeeLeg.Amount
			} else {
				acquisitionFeeEUR = tx.FeeLeg.Amount
			}
		case tx.FeeLeg.Asset.Symbol == outLeg.Asset.Symbol:
			// Fee paid in-kind from the disposed asset: fold it into the
			// quantity consumed so its cost basis is absorbed there,
			// whichever side the fee is nominally attributed to.
			outLeg = &model.Leg{Asset: outLeg.Asset, Amount: outLeg.Amount.Add(tx.FeeLeg.Amount)}
		default:
			feeEUR, evt, err := e.disposeFeeAsset(ctx, tx, out)
			if err != nil {
				return err
			}
			feeEvt = evt
			if feeOnDisposal {
				disposalFeeEUR = feeEUR
			} else {
				acquisitionFeeEUR = feeEUR
			}
		}
	}
	if feeEvt != nil {
		out.Events = append(out.Events, *feeEvt)
	}

	// A EUR leg is valued at its amount. A non-EUR leg is priced only when
	// the other leg is non-EUR too: only then does its value enter the
	// acquired lot's basis or the disposal's proceeds below.
	var outLegFMV decimal.Decimal
	if outLeg.Asset.IsEUR() {
		outLegFMV = outLeg.Amount
	} else if !inLeg.Asset.IsEUR() {
		quote, err := e.oracle.PriceEUR(ctx, outLeg.Asset, tx.Instant, &out.Audits)
		if err != nil {
			return err
		}
		outLegFMV = quote.PriceEUR.Mul(outLeg.Amount)
	}

	var inLegFMV decimal.Decimal
	if inLeg.Asset.IsEUR() {
		inLegFMV = inLeg.Amount
	} else if !outLeg.Asset.IsEUR() {
		quote, err := e.oracle.PriceEUR(ctx, inLeg.Asset, tx.Instant, &out.Audits)
		if err != nil {
			return err
		}
		inLegFMV = quote.PriceEUR.Mul(inLeg.Amount)
	}

	if !outLeg.Asset.IsEUR() {
		slices, basis, audits := e.consume(outLeg.Asset.Symbol, outLeg.Amount, tx.Instant, tx.ID)
		out.Audits = append(out.Audits, audits...)
		proceeds := model.RoundEUR(inLegFMV.Sub(disposalFeeEUR))
		basis = model.RoundEUR(basis)
		out.Events = append(out.Events, model.TaxEvent{
			Kind:            model.CapitalDisposal,
			TaxYear:         taxYear(tx.Instant, e.cfg.Timezone),
			AssetDisposed:   outLeg.Asset,
			Qty:             outLeg.Amount,
			ProceedsEUR:     proceeds,
			CostBasisEUR:    basis,
			GainEUR:         proceeds.Sub(basis),
			Holding:         holdingPeriod(tx.Instant, slices),
			LotsConsumed:    slices,
			SourceTxID:      tx.ID,
			SyntheticInputs: tx.Synthetic || anySynthetic(slices),
			Instant:         tx.Instant,
		})
	}

	if !inLeg.Asset.IsEUR() {
		unitBasis := outLegFMV.Add(acquisitionFeeEUR).DivRound(inLeg.Amount, model.QuantityScale)
		lot := &model.Lot{
			Asset:         inLeg.Asset,
			QtyRemaining:  inLeg.Amount,
			AcquiredAt:    tx.Instant,
			UnitBasisEUR:  unitBasis,
			SourceTxID:    tx.ID,
			FromSynthetic: tx.Synthetic,
		}
		e.pushLot(inLeg.Asset.Symbol, lot)
	}
	return nil
}

// ---- internal transfer matching (§9 open question 1) ----

func isTransferMarked(tx model.Tx) bool {
	g := strings.ToLower(strings.TrimSpace(tx.Group))
	if g == transferMarker {
		return true
	}
	return strings.Contains(strings.ToLower(tx.Comment), transferMarker)
}

func (e *Engine) processTransferOut(ctx context.Context, tx model.Tx, out *Result) error {
	leg := tx.OutLeg
	qty := leg.Amount
	if tx.FeeLeg != nil {
		if tx.FeeLeg.Asset.Symbol == leg.Asset.Symbol {
			qty = qty.Add(tx.FeeLeg.Amount)
		} else if !tx.FeeLeg.Asset.IsEUR() {
			feeEUR, feeEvt, err := e.disposeFeeAsset(ctx, tx, out)
			if err != nil {
				return err
			}
			_ = feeEUR
			if feeEvt != nil {
				out.Events = append(out.Events, *feeEvt)
			}
		}
	}

	slices, _, audits := e.consume(leg.Asset.Symbol, qty, tx.Instant, tx.ID)
	out.Audits = append(out.Audits, audits...)

	lots := make([]*model.Lot, 0, len(slices))
	for _, s := range slices {
		lots = append(lots, &model.Lot{
			Asset:         leg.Asset,
			QtyRemaining:  s.ConsumedQty,
			AcquiredAt:    s.AcquiredAt,
			UnitBasisEUR:  s.UnitBasisEUR,
			SourceTxID:    s.LotSourceTxID,
			FromSynthetic: s.FromSynthetic,
		})
	}
	e.pending = append(e.pending, &pendingTransfer{
		Asset:   leg.Asset.Symbol,
		Qty:     qty,
		Lots:    lots,
		Instant: tx.Instant,
		TxID:    tx.ID,
	})
	return nil
}

func (e *Engine) tryMatchTransfer(asset string, qty decimal.Decimal, at time.Time) ([]*model.Lot, bool) {
	tol := e.cfg.TransferMatchTolerance
	for i, p := range e.pending {
		if p.Asset != asset {
			continue
		}
		delta := at.Sub(p.Instant)
		if delta < 0 || delta > e.cfg.TransferMatchWindow {
			continue
		}
		allowed := p.Qty.Mul(tol).Abs()
		if qty.Sub(p.Qty).Abs().GreaterThan(allowed) {
			continue
		}
		e.pending = append(e.pending[:i], e.pending[i+1:]...)
		return p.Lots, true
	}
	return nil, false
}

// expirePending drops any pending transfer whose match window has elapsed
// as of now, auditing the dropped lots as an untracked, zero-basis exit.
func (e *Engine) expirePending(now time.Time, out *Result) {
	var kept []*pendingTransfer
	for _, p := range e.pending {
		if now.Sub(p.Instant) > e.cfg.TransferMatchWindow {
			out.Audits = append(out.Audits, model.AuditEntry{
				Instant:   now,
				Category:  model.AuditTransferUnmatched,
				SubjectID: p.TxID,
				Reason:    fmt.Sprintf("internal transfer window elapsed with no matching deposit, %s %s dropped from tracking", p.Qty.String(), p.Asset),
			})
			continue
		}
		kept = append(kept, p)
	}
	e.pending = kept
}

// ---- lot consumption ----

// consume pops qty from asset's FIFO queue, splitting the last lot consumed
// as needed. If the queue is exhausted before qty is satisfied, the
// remainder is recorded as a diagnostic zero-basis slice (§4.4): this
// should not happen downstream of a correctly-run Reconciler and indicates
// a bug if it does, but the engine never fails on it.
func (e *Engine) consume(asset string, qty decimal.Decimal, instant time.Time, txID string) ([]model.LotSlice, decimal.Decimal, []model.AuditEntry) {
	q := e.queueFor(asset)
	remaining := qty
	var slices []model.LotSlice
	basis := decimal.Zero
	var audits []model.AuditEntry

	for remaining.GreaterThan(model.LotEpsilon) {
		front := q.Front()
		if front == nil {
			slices = append(slices, model.LotSlice{
				LotSourceTxID: "deficit:" + txID,
				AcquiredAt:    instant,
				ConsumedQty:   remaining,
				UnitBasisEUR:  decimal.Zero,
				BasisEUR:      decimal.Zero,
				FromSynthetic: true,
			})
			audits = append(audits, model.AuditEntry{
				Instant:   instant,
				Category:  model.AuditDisposalDeficit,
				SubjectID: txID,
				Reason:    fmt.Sprintf("lot queue exhausted for %s, deficit %s treated as zero-basis", asset, remaining.String()),
			})
			remaining = decimal.Zero
			break
		}

		lot := front.Value.(*model.Lot)
		take := lot.QtyRemaining
		if remaining.LessThan(take) {
			take = remaining
		}
		sliceBasis := take.Mul(lot.UnitBasisEUR)
		slices = append(slices, model.LotSlice{
			LotSourceTxID: lot.SourceTxID,
			AcquiredAt:    lot.AcquiredAt,
			ConsumedQty:   take,
			UnitBasisEUR:  lot.UnitBasisEUR,
			BasisEUR:      sliceBasis,
			FromSynthetic: lot.FromSynthetic,
		})
		basis = basis.Add(sliceBasis)
		lot.QtyRemaining = lot.QtyRemaining.Sub(take)
		remaining = remaining.Sub(take)
		if lot.QtyRemaining.LessThanOrEqual(model.LotEpsilon) {
			q.Remove(front)
		}
	}
	return slices, basis, audits
}

// ---- shared helpers ----

func anySynthetic(slices []model.LotSlice) bool {
	for _, s := range slices {
		if s.FromSynthetic {
			return true
		}
	}
	return false
}

// holdingPeriod classifies a disposal Long if more than 12 months elapsed
// since the earliest consumed lot was acquired, per §3/§4.4.
func holdingPeriod(instant time.Time, slices []model.LotSlice) model.HoldingPeriod {
	if len(slices) == 0 {
		return model.Short
	}
	earliest := slices[0].AcquiredAt
	for _, s := range slices[1:] {
		if s.AcquiredAt.Before(earliest) {
			earliest = s.AcquiredAt
		}
	}
	if instant.After(earliest.AddDate(1, 0, 0)) {
		return model.Long
	}
	return model.Short
}

func taxYear(instant time.Time, loc *time.Location) int {
	return instant.In(loc).Year()
}
