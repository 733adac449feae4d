package model

import "github.com/shopspring/decimal"

// Leg is a signed-by-position (in/out/fee) amount of a single asset. Amount
// is always stored positive; its role is implied by which field of Tx it is
// attached to.
type Leg struct {
	Asset  Asset
	Amount decimal.Decimal
}

func (l *Leg) valid() bool {
	return l != nil && l.Amount.IsPositive()
}
