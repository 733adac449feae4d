// Package normalize turns heterogeneous source rows (the third-party
// aggregator's CSV export, §6) into the canonical, time-sorted model.Tx
// stream every other pipeline stage consumes.
package normalize

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/shopspring/decimal"

	"github.com/qntropy/qntropy/internal/model"
	"github.com/qntropy/qntropy/internal/qerr"
)

// SourceRow is one row of the aggregator's trade-table export, §6.
type SourceRow struct {
	Type         string
	BuyAmount    string
	BuyCurrency  string
	SellAmount   string
	SellCurrency string
	Fee          string
	FeeCurrency  string
	Exchange     string
	Group        string
	Comment      string
	Date         string

	Ordinal int // 0-based position in the source file
}

// kindTable is the explicit, exhaustive mapping spec §4.1 requires. Any
// source "Type" string not present here fails with UnknownTxKind.
var kindTable = map[string]model.TxKind{
	"Trade":            model.Trade,
	"Buy":              model.Trade,
	"Sell":             model.Trade,
	"Deposit":          model.Deposit,
	"Withdrawal":       model.Withdrawal,
	"Staking":          model.StakingReward,
	"Staking Reward":   model.StakingReward,
	"Interest":         model.LendingInterest,
	"Lending Interest": model.LendingInterest,
	"Airdrop":          model.Airdrop,
	"Fork":             model.Fork,
	"Mining":           model.Income,
	"Income":           model.Income,
	"Transfer":         model.TransferInternal,
	"Fee":              model.FeeOnly,
}

// Config tunes the normalizer.
type Config struct {
	// Location is the timezone Date strings are parsed under before being
	// normalized to UTC. Defaults to Europe/Madrid (UTC if that zone cannot
	// be loaded).
	Location *time.Location
	// SkipUnknownKind, when true, downgrades UnknownTxKind from fatal to a
	// recovered per-row skip (the --skip-unknown CLI flag of §6).
	SkipUnknownKind bool
}

var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02",
	"02.01.2006 15:04",
	"02/01/2006 15:04:05",
}

// Result is the output of Normalize: the sorted canonical stream plus audit
// entries for any row that was skipped.
type Result struct {
	Txs    []model.Tx
	Audits []model.AuditEntry
}

// Normalize converts rows into a time-sorted canonical stream. Per-row
// failures (ParseError, InvalidAmount, and UnknownTxKind when
// cfg.SkipUnknownKind is set) are collected and recovered: the row is
// skipped and an AuditEntry records why. Any other UnknownTxKind is fatal
// and aborts the whole run, per §4.1/§7.
func Normalize(rows []SourceRow, cfg Config) (Result, error) {
	loc := cfg.Location
	if loc == nil {
		madrid, err := time.LoadLocation("Europe/Madrid")
		if err != nil {
			madrid = time.UTC
		}
		loc = madrid
	}

	var (
		res      Result
		skipErrs *multierror.Error
	)

	for _, row := range rows {
		tx, err := normalizeRow(row, loc)
		if err != nil {
			if qe, ok := err.(*qerr.Error); ok && qe.Kind == qerr.UnknownTxKind && !cfg.SkipUnknownKind {
				return Result{}, err
			}
			skipErrs = multierror.Append(skipErrs, err)
			res.Audits = append(res.Audits, model.AuditEntry{
				Instant:   time.Now().UTC(),
				Category:  model.AuditRowSkipped,
				SubjectID: fmt.Sprintf("row-%d", row.Ordinal),
				Reason:    err.Error(),
			})
			continue
		}
		res.Txs = append(res.Txs, tx)
	}

	sortTxs(res.Txs)
	if skipErrs != nil {
		return res, nil // recovered errors do not abort the run
	}
	return res, nil
}

func normalizeRow(row SourceRow, loc *time.Location) (model.Tx, error) {
	kind, ok := kindTable[strings.TrimSpace(row.Type)]
	if !ok {
		return model.Tx{}, qerr.New(qerr.UnknownTxKind, rowID(row), fmt.Errorf("unmapped source type %q", row.Type))
	}

	instant, err := parseInstant(row.Date, loc)
	if err != nil {
		return model.Tx{}, qerr.New(qerr.ParseError, rowID(row), fmt.Errorf("parsing Date %q: %w", row.Date, err))
	}

	inLeg, err := parseLeg(row.BuyAmount, row.BuyCurrency)
	if err != nil {
		return model.Tx{}, qerr.New(qerr.InvalidAmount, rowID(row), fmt.Errorf("Buy Amount: %w", err))
	}
	outLeg, err := parseLeg(row.SellAmount, row.SellCurrency)
	if err != nil {
		return model.Tx{}, qerr.New(qerr.InvalidAmount, rowID(row), fmt.Errorf("Sell Amount: %w", err))
	}
	feeLeg, err := parseLeg(row.Fee, row.FeeCurrency)
	if err != nil {
		return model.Tx{}, qerr.New(qerr.InvalidAmount, rowID(row), fmt.Errorf("Fee: %w", err))
	}

	if kind == model.Trade && (inLeg == nil || outLeg == nil) {
		return model.Tx{}, qerr.New(qerr.ParseError, rowID(row), fmt.Errorf("Trade row missing one leg (buy=%v sell=%v)", inLeg != nil, outLeg != nil))
	}

	tx := model.Tx{
		ID:            rowID(row),
		Instant:       instant,
		Kind:          kind,
		InLeg:         inLeg,
		OutLeg:        outLeg,
		FeeLeg:        feeLeg,
		Venue:         row.Exchange,
		Group:         row.Group,
		Comment:       row.Comment,
		SourceOrdinal: row.Ordinal,
	}
	if err := tx.Validate(); err != nil {
		return model.Tx{}, qerr.New(qerr.ParseError, rowID(row), err)
	}
	return tx, nil
}

func parseLeg(amountStr, currency string) (*model.Leg, error) {
	amountStr = strings.TrimSpace(amountStr)
	if amountStr == "" {
		return nil, nil // absent leg, not zero
	}
	amt, err := decimal.NewFromString(strings.ReplaceAll(amountStr, ",", "."))
	if err != nil {
		return nil, fmt.Errorf("invalid amount %q: %w", amountStr, err)
	}
	if !amt.IsPositive() {
		return nil, fmt.Errorf("amount must be > 0, got %s", amt.String())
	}
	return &model.Leg{Asset: model.NewAsset(currency), Amount: amt}, nil
}

func parseInstant(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	var lastErr error
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t.UTC(), nil
		} else {
			lastErr = err
		}
	}
	return time.Time{}, lastErr
}

func rowID(row SourceRow) string {
	h := sha256.Sum256([]byte(fmt.Sprintf("%s|%s|%s|%s|%s|%s|%s|%s",
		row.Type, row.Date, row.BuyAmount, row.BuyCurrency, row.SellAmount, row.SellCurrency, row.Exchange, row.Comment)))
	return fmt.Sprintf("%s-%d", hex.EncodeToString(h[:])[:16], row.Ordinal)
}

// sortTxs sorts by (instant, kind priority, source ordinal) per §4.1, so
// that acquisitions post before disposals sharing an instant.
func sortTxs(txs []model.Tx) {
	sort.SliceStable(txs, func(i, j int) bool {
		a, b := txs[i], txs[j]
		if !a.Instant.Equal(b.Instant) {
			return a.Instant.Before(b.Instant)
		}
		pa, pb := model.KindPriority(a.Kind), model.KindPriority(b.Kind)
		if pa != pb {
			return pa < pb
		}
		return a.SourceOrdinal < b.SourceOrdinal
	})
}
