package oracle

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Provider is the single dynamic-dispatch point in the pipeline (§9): a
// small ordered list of capability objects, each of which quotes an asset
// in a given currency for a given day, or declines. Quoting in "EUR" is
// the common case; quoting in a bridge currency (e.g. BTC priced in USD)
// is what lets the oracle cross-rate bridge when no provider quotes EUR
// directly.
type Provider interface {
	Name() string
	TryQuoteIn(ctx context.Context, asset, quoteCurrency, day string) (decimal.Decimal, bool, error)
}

// StaticProvider serves a fixed, in-memory price table keyed by
// "ASSET:QUOTE" -> day -> price. It is the provider used by tests to pin
// the oracle's response fixture (spec §4.2 "Determinism"), and it doubles
// as a minimal offline provider when no network upstream is configured.
type StaticProvider struct {
	ProviderName string
	// Prices maps "ASSET:QUOTE" (e.g. "BTC:EUR", "ETH:USD") to day to price.
	Prices map[string]map[string]decimal.Decimal
}

func (s *StaticProvider) Name() string { return s.ProviderName }

func (s *StaticProvider) TryQuoteIn(_ context.Context, asset, quoteCurrency, day string) (decimal.Decimal, bool, error) {
	byDay, ok := s.Prices[asset+":"+quoteCurrency]
	if !ok {
		return decimal.Decimal{}, false, nil
	}
	price, ok := byDay[day]
	if !ok {
		return decimal.Decimal{}, false, nil
	}
	return price, true, nil
}

// HTTPProviderFunc adapts an HTTP-backed fetch function (the shape of
// tugsousa-Rumoclaro's Yahoo-Finance price service, generalized) into a
// Provider, with the configured per-provider timeout applied to ctx.
type HTTPProviderFunc struct {
	ProviderName string
	Timeout      time.Duration
	Fetch        func(ctx context.Context, asset, quoteCurrency, day string) (decimal.Decimal, bool, error)
}

func (h *HTTPProviderFunc) Name() string { return h.ProviderName }

func (h *HTTPProviderFunc) TryQuoteIn(ctx context.Context, asset, quoteCurrency, day string) (decimal.Decimal, bool, error) {
	if h.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.Timeout)
		defer cancel()
	}
	price, ok, err := h.Fetch(ctx, asset, quoteCurrency, day)
	if err != nil {
		// A provider error (including a timeout) counts as a decline, per
		// §5/§7: the oracle falls through to the next provider.
		return decimal.Decimal{}, false, nil
	}
	return price, ok, nil
}
