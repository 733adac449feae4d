package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Lot is a unit of acquisition held in a per-asset FIFO queue. Lots are
// owned by their queue; slices handed to TaxEvents are value copies.
type Lot struct {
	Asset         Asset
	QtyRemaining  decimal.Decimal
	AcquiredAt    time.Time
	UnitBasisEUR  decimal.Decimal
	SourceTxID    string
	FromSynthetic bool
}

// LotSlice is the value-copy record of a consumed fragment of a Lot, as
// attached to a CapitalDisposal TaxEvent.
type LotSlice struct {
	LotSourceTxID string
	AcquiredAt    time.Time
	ConsumedQty   decimal.Decimal
	UnitBasisEUR  decimal.Decimal
	BasisEUR      decimal.Decimal
	FromSynthetic bool
}
