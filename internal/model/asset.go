// Package model holds the canonical data types shared by every stage of the
// transaction-processing pipeline: assets, transactions, lots, tax events and
// audit entries.
package model

import "strings"

// AssetClass is a closed classification for an Asset.
type AssetClass string

const (
	AssetFiatEUR   AssetClass = "fiat_eur"
	AssetFiatOther AssetClass = "fiat_other"
	AssetCrypto    AssetClass = "crypto"
)

// Asset is a case-normalized ticker plus its classification. EUR is the
// reporting numéraire.
type Asset struct {
	Symbol string
	Class  AssetClass
}

var fiatSymbols = map[string]bool{
	"EUR": true, "USD": true, "GBP": true, "CHF": true,
	"CAD": true, "AUD": true, "JPY": true,
}

// NewAsset normalizes sym (uppercases, trims) and classifies it.
func NewAsset(sym string) Asset {
	s := strings.ToUpper(strings.TrimSpace(sym))
	switch {
	case s == "EUR":
		return Asset{Symbol: s, Class: AssetFiatEUR}
	case fiatSymbols[s]:
		return Asset{Symbol: s, Class: AssetFiatOther}
	default:
		return Asset{Symbol: s, Class: AssetCrypto}
	}
}

func (a Asset) IsEUR() bool { return a.Class == AssetFiatEUR }

func (a Asset) String() string { return a.Symbol }
