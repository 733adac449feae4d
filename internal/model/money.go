package model

import "github.com/shopspring/decimal"

// QuantityScale is the fractional-digit precision retained for asset
// quantities and EUR-per-unit prices.
const QuantityScale = 18

// EURScale is the fractional-digit precision EUR values are rounded to at
// reporting boundaries only; intermediate computation keeps full precision.
const EURScale = 2

// RoundEUR rounds d half-even to EURScale fractional digits. decimal.Round
// rounds half-away-from-zero; RoundBank is the half-even method.
func RoundEUR(d decimal.Decimal) decimal.Decimal {
	return d.RoundBank(EURScale)
}

// DefaultTolerance is the default absolute decimal tolerance (in asset-quantity
// units) below which balance discrepancies are treated as rounding noise.
var DefaultTolerance = decimal.New(1, -8) // 1e-8

// LotEpsilon is the tolerance used to decide whether a partially-consumed
// lot still holds a meaningful remaining quantity (spec §3 Lot invariant).
var LotEpsilon = decimal.New(1, -12) // 1e-12
