// Package oracle implements the deterministic EUR price oracle of spec
// §4.2: price_eur(asset, instant) -> {price, source_tag}, backed by an
// on-disk cache, an ordered provider registry, and cross-rate bridging.
package oracle

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/qntropy/qntropy/internal/model"
	"github.com/qntropy/qntropy/internal/qerr"
)

const intrinsicSource = "intrinsic"

// Quote is the result of a successful price lookup.
type Quote struct {
	PriceEUR  decimal.Decimal
	Source    string
	Legs      []string // every provider/bridge leg consulted to produce PriceEUR
}

// Config tunes the oracle.
type Config struct {
	BridgeAssets       []string // tried in order, default ["USD"]
	FallbackWindowDays int      // default 7
}

// Oracle is the deterministic EUR price source consulted by the Reconciler
// (for synthetic-deposit valuation, if ever extended) and the FIFO engine
// (for every acquisition/disposal valuation).
type Oracle struct {
	cache     *Cache
	providers []Provider
	cfg       Config
	log       *zap.Logger
}

// New builds an Oracle over cache, consulting providers in the given order
// on a cache miss.
func New(cache *Cache, providers []Provider, cfg Config, log *zap.Logger) *Oracle {
	if len(cfg.BridgeAssets) == 0 {
		cfg.BridgeAssets = []string{"USD"}
	}
	if cfg.FallbackWindowDays == 0 {
		cfg.FallbackWindowDays = 7
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Oracle{cache: cache, providers: providers, cfg: cfg, log: log}
}

// PriceEUR returns the EUR-per-unit price of asset at instant, or a
// MissingPrice error. A nearest-earlier-day substitution is appended to
// audits; a cross-rate bridge is not audited and shows only in the returned
// Quote's Source and Legs.
func (o *Oracle) PriceEUR(ctx context.Context, asset model.Asset, instant time.Time, audits *[]model.AuditEntry) (Quote, error) {
	if asset.IsEUR() {
		return Quote{PriceEUR: decimal.New(1, 0), Source: intrinsicSource}, nil
	}

	day := instant.UTC().Format("2006-01-02")
	if q, ok, err := o.quoteOnDay(ctx, asset.Symbol, day); err != nil {
		return Quote{}, err
	} else if ok {
		return q, nil
	}

	// Nearest-earlier-day fallback, within the configured window.
	for n := 1; n <= o.cfg.FallbackWindowDays; n++ {
		d := instant.UTC().AddDate(0, 0, -n).Format("2006-01-02")
		q, ok, err := o.quoteOnDay(ctx, asset.Symbol, d)
		if err != nil {
			return Quote{}, err
		}
		if ok {
			*audits = append(*audits, model.AuditEntry{
				Instant:   instant,
				Category:  model.AuditPriceFallback,
				SubjectID: asset.Symbol,
				Reason:    fmt.Sprintf("price_fallback_days=%d", n),
			})
			return q, nil
		}
	}

	return Quote{}, qerr.New(qerr.MissingPrice, "", fmt.Errorf("no EUR price for %s on or before %s within %d days", asset.Symbol, day, o.cfg.FallbackWindowDays))
}

// quoteOnDay resolves (asset, day) exactly, via cache then providers then
// cross-rate bridge, with no fallback-window substitution.
func (o *Oracle) quoteOnDay(ctx context.Context, asset, day string) (Quote, bool, error) {
	rec, ok, err := o.cache.Lookup(asset, day)
	if err != nil {
		// A failed cache read is retried once; a second failure counts as
		// a cache miss, so the providers below are consulted instead.
		if rec, ok, err = o.cache.Lookup(asset, day); err != nil {
			o.log.Warn("price cache lookup failed twice, treating as a miss", zap.Error(err), zap.String("asset", asset), zap.String("day", day))
			ok = false
		}
	}
	if ok {
		return Quote{PriceEUR: rec.PriceEUR, Source: rec.Source, Legs: []string{rec.Source}}, true, nil
	}

	for _, p := range o.providers {
		price, ok, err := p.TryQuoteIn(ctx, asset, "EUR", day)
		if err != nil {
			return Quote{}, false, err
		}
		if !ok {
			continue
		}
		rec := Record{Day: day, Asset: asset, PriceEUR: price, Source: p.Name(), FetchedAt: time.Now().UTC()}
		if err := o.cache.Store(rec); err != nil {
			o.log.Warn("price cache store failed", zap.Error(err), zap.String("asset", asset), zap.String("day", day))
		}
		return Quote{PriceEUR: price, Source: p.Name(), Legs: []string{p.Name()}}, true, nil
	}

	// Cross-rate bridge: price_eur(A, t) = price_X(A, t) * price_eur(X, t).
	for _, bridge := range o.cfg.BridgeAssets {
		if bridge == asset {
			continue
		}
		legPrice, ok, err := o.quoteViaProvidersInAsset(ctx, asset, bridge, day)
		if err != nil {
			return Quote{}, false, err
		}
		if !ok {
			continue
		}
		bridgeEUR, ok, err := o.quoteOnDay(ctx, bridge, day)
		if err != nil {
			return Quote{}, false, err
		}
		if !ok {
			continue
		}
		price := legPrice.Mul(bridgeEUR.PriceEUR)
		rec := Record{Day: day, Asset: asset, PriceEUR: price, Source: "bridge:" + bridge, FetchedAt: time.Now().UTC()}
		if err := o.cache.Store(rec); err != nil {
			o.log.Warn("price cache store failed", zap.Error(err), zap.String("asset", asset), zap.String("day", day))
		}
		legs := append([]string{"bridge:" + bridge}, bridgeEUR.Legs...)
		return Quote{PriceEUR: price, Source: "bridge:" + bridge, Legs: legs}, true, nil
	}

	return Quote{}, false, nil
}

// quoteViaProvidersInAsset asks each provider for asset's price denominated
// in quoteAsset (e.g. BTC priced in USD) rather than in EUR, for the
// cross-rate bridge step.
func (o *Oracle) quoteViaProvidersInAsset(ctx context.Context, asset, quoteAsset, day string) (decimal.Decimal, bool, error) {
	for _, p := range o.providers {
		price, found, err := p.TryQuoteIn(ctx, asset, quoteAsset, day)
		if err != nil {
			return decimal.Decimal{}, false, err
		}
		if found {
			return price, true, nil
		}
	}
	return decimal.Decimal{}, false, nil
}
