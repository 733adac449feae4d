// Package prewarm implements the §5 pre-warm pass: the one place this
// pipeline parallelizes. It extracts every distinct (asset, day) pair the
// FIFO engine will need and fetches them into the price cache ahead of the
// single-threaded core run, bounded by golang.org/x/sync/errgroup the way
// dncohen-rcl bounds its concurrent RPC fan-out.
package prewarm

import (
	"context"
	"errors"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/qntropy/qntropy/internal/model"
	"github.com/qntropy/qntropy/internal/oracle"
	"github.com/qntropy/qntropy/internal/qerr"
)

// Pairs extracts every distinct (asset, day) the given Txs will need a
// price for: every non-EUR leg's asset on the day of its Tx.
func Pairs(txs []model.Tx) []Pair {
	seen := map[Pair]bool{}
	var out []Pair
	add := func(leg *model.Leg, day string) {
		if leg == nil || leg.Asset.IsEUR() {
			return
		}
		p := Pair{Asset: leg.Asset.Symbol, Day: day}
		if !seen[p] {
			seen[p] = true
			out = append(out, p)
		}
	}
	for _, tx := range txs {
		day := tx.Instant.UTC().Format("2006-01-02")
		add(tx.InLeg, day)
		add(tx.OutLeg, day)
		add(tx.FeeLeg, day)
	}
	return out
}

// Pair is one (asset, day) the FIFO engine will eventually price.
type Pair struct {
	Asset string
	Day   string
}

// Run fetches every pair into o's cache using up to concurrency workers.
// Per-pair MissingPrice failures are not fatal here — the fallback-window
// logic in oracle.PriceEUR will retry at run time — but any other error
// (e.g. a CacheIOError) aborts the whole pre-warm pass.
func Run(ctx context.Context, o *oracle.Oracle, pairs []Pair, concurrency int) error {
	if concurrency <= 0 {
		concurrency = 8
	}
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	for _, p := range pairs {
		p := p
		g.Go(func() error {
			day, err := time.Parse("2006-01-02", p.Day)
			if err != nil {
				return err
			}
			var audits []model.AuditEntry
			_, err = o.PriceEUR(ctx, model.NewAsset(p.Asset), day, &audits)
			if err != nil {
				// A price genuinely missing for this (asset, day) is
				// expected to happen for some pairs; the FIFO run will
				// surface MissingPrice itself if it still can't resolve
				// it. Swallow it here so one bad pair doesn't block the
				// rest of the pre-warm fan-out.
				var qe *qerr.Error
				if errors.As(err, &qe) && qe.Kind == qerr.MissingPrice {
					return nil
				}
				return err
			}
			return nil
		})
	}
	return g.Wait()
}
