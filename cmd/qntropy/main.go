// Command qntropy is the thin CLI front end of §6: it wires the
// normalization, reconciliation, price-oracle and FIFO-classifier
// components together and drives them from plain files, but carries no
// tax logic of its own.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/shopspring/decimal"

	"github.com/qntropy/qntropy/internal/artifact"
	"github.com/qntropy/qntropy/internal/config"
	"github.com/qntropy/qntropy/internal/csvio"
	"github.com/qntropy/qntropy/internal/fifo"
	"github.com/qntropy/qntropy/internal/logging"
	"github.com/qntropy/qntropy/internal/model"
	"github.com/qntropy/qntropy/internal/normalize"
	"github.com/qntropy/qntropy/internal/oracle"
	"github.com/qntropy/qntropy/internal/prewarm"
	"github.com/qntropy/qntropy/internal/qerr"
	"github.com/qntropy/qntropy/internal/reconcile"
	"github.com/qntropy/qntropy/internal/sink"

	"go.uber.org/zap"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}
	cmd := os.Args[1]
	args := os.Args[2:]

	var err error
	switch cmd {
	case "import":
		err = runImport(args)
	case "reconcile":
		err = runReconcile(args)
	case "compute":
		err = runCompute(args)
	case "report":
		err = runReport(args)
	default:
		usage()
		os.Exit(2)
	}

	if err != nil {
		fmt.Fprintln(os.Stderr, "qntropy:", err)
		os.Exit(exitCodeFor(err))
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, "Usage: %s <import|reconcile|compute|report> [flags]\n", os.Args[0])
}

func exitCodeFor(err error) int {
	var qe *qerr.Error
	if errors.As(err, &qe) {
		return qe.Kind.ExitCode()
	}
	return 2
}

// commonFlags is the §6 flag set shared by every subcommand.
type commonFlags struct {
	input     string
	snapshot  string
	out       string
	year      int
	tz        string
	tolerance string
	skip      bool
}

func parseCommon(fs *flag.FlagSet, args []string) (*commonFlags, error) {
	c := &commonFlags{}
	fs.StringVar(&c.input, "input", "", "path to the source CSV export")
	fs.StringVar(&c.snapshot, "snapshot", "", "path to the final-balance snapshot CSV")
	fs.StringVar(&c.out, "out", ".", "output directory for intermediate and final artifacts")
	fs.IntVar(&c.year, "year", 0, "restrict report output to this tax year (0 = all years)")
	fs.StringVar(&c.tz, "tz", "", "IANA timezone for Date parsing (overrides config)")
	fs.StringVar(&c.tolerance, "tolerance", "", "absolute decimal balance tolerance (overrides config)")
	fs.BoolVar(&c.skip, "skip-unknown", false, "downgrade UnknownTxKind from fatal to a recovered per-row skip")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	return c, nil
}

func runImport(args []string) error {
	fs := flag.NewFlagSet("import", flag.ExitOnError)
	c, err := parseCommon(fs, args)
	if err != nil {
		return err
	}
	if c.input == "" {
		return qerr.New(qerr.ParseError, "", fmt.Errorf("--input is required"))
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log, err := logging.New(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer log.Sync()

	loc, err := resolveLocation(c.tz, cfg.DefaultTimezone)
	if err != nil {
		return qerr.New(qerr.ParseError, "", err)
	}

	rows, err := csvio.ReadSourceRows(c.input)
	if err != nil {
		return qerr.New(qerr.ParseError, "", err)
	}

	res, err := normalize.Normalize(rows, normalize.Config{Location: loc, SkipUnknownKind: c.skip || cfg.SkipUnknownKind})
	if err != nil {
		return err
	}
	log.Info("normalized source rows", zap.Int("rows", len(rows)), zap.Int("txs", len(res.Txs)), zap.Int("skipped", len(res.Audits)))

	if err := os.MkdirAll(c.out, 0o755); err != nil {
		return err
	}
	if err := artifact.SaveTxs(c.out, artifact.CanonicalFile, res.Txs); err != nil {
		return err
	}
	return artifact.SaveAudits(c.out, res.Audits)
}

func runReconcile(args []string) error {
	fs := flag.NewFlagSet("reconcile", flag.ExitOnError)
	c, err := parseCommon(fs, args)
	if err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log, err := logging.New(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer log.Sync()

	txs, err := artifact.LoadTxs(c.out, artifact.CanonicalFile)
	if err != nil {
		return qerr.New(qerr.ParseError, "", err)
	}

	tol, err := resolveTolerance(c.tolerance, cfg.Tolerance)
	if err != nil {
		return qerr.New(qerr.ParseError, "", err)
	}

	var snap *reconcile.Snapshot
	if c.snapshot != "" {
		snap, err = csvio.ReadSnapshot(c.snapshot)
		if err != nil {
			return qerr.New(qerr.ParseError, "", err)
		}
	}

	res, err := reconcile.Reconcile(txs, snap, reconcile.Config{Tolerance: tol})
	if err != nil {
		return err
	}
	log.Info("reconciled transaction stream", zap.Int("txs", len(res.Txs)), zap.Int("synthetic_audits", len(res.Audits)))

	prior, _ := artifact.LoadAudits(c.out)
	if err := artifact.SaveTxs(c.out, artifact.ReconciledFile, res.Txs); err != nil {
		return err
	}
	return artifact.SaveAudits(c.out, append(prior, res.Audits...))
}

func runCompute(args []string) error {
	fs := flag.NewFlagSet("compute", flag.ExitOnError)
	c, err := parseCommon(fs, args)
	if err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log, err := logging.New(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer log.Sync()

	txs, err := artifact.LoadTxs(c.out, artifact.ReconciledFile)
	if err != nil {
		return qerr.New(qerr.ParseError, "", err)
	}

	providerTimeout := time.Duration(cfg.ProviderTimeout) * time.Second
	var providers []oracle.Provider
	if cfg.PriceProvider == "coingecko" {
		providers = append(providers, oracle.NewCoinGeckoProvider(cfg.PriceAPIKey, providerTimeout))
	}

	cache, err := oracle.NewCache(cfg.PriceCacheDir)
	if err != nil {
		return err
	}
	o := oracle.New(cache, providers, oracle.Config{BridgeAssets: cfg.BridgeAssets, FallbackWindowDays: cfg.FallbackWindow}, log)

	ctx := context.Background()
	if pairs := prewarm.Pairs(txs); len(pairs) > 0 {
		if err := prewarm.Run(ctx, o, pairs, 8); err != nil {
			return err
		}
	}

	loc, err := resolveLocation(c.tz, cfg.DefaultTimezone)
	if err != nil {
		return qerr.New(qerr.ParseError, "", err)
	}
	engine := fifo.New(o, fifo.Config{Timezone: loc}, log)

	result, err := engine.Process(ctx, txs)
	if err != nil {
		return err
	}
	log.Info("classified transaction stream", zap.Int("events", len(result.Events)), zap.Int("audits", len(result.Audits)))

	store := sink.New()
	store.AppendEvents(result.Events)
	store.AppendAudits(result.Audits)

	prior, _ := artifact.LoadAudits(c.out)
	if err := artifact.SaveEvents(c.out, store.Events()); err != nil {
		return err
	}
	return artifact.SaveAudits(c.out, append(prior, store.Audits()...))
}

func runReport(args []string) error {
	fs := flag.NewFlagSet("report", flag.ExitOnError)
	c, err := parseCommon(fs, args)
	if err != nil {
		return err
	}

	events, err := artifact.LoadEvents(c.out)
	if err != nil {
		return qerr.New(qerr.ParseError, "", err)
	}
	audits, err := artifact.LoadAudits(c.out)
	if err != nil {
		return qerr.New(qerr.ParseError, "", err)
	}

	if c.year != 0 {
		filtered := events[:0:0]
		for _, e := range events {
			if e.TaxYear == c.year {
				filtered = append(filtered, e)
			}
		}
		events = filtered
	}

	if err := os.MkdirAll(c.out, 0o755); err != nil {
		return err
	}
	if err := csvio.WriteTaxEvents(c.out+"/tax_events.csv", events); err != nil {
		return err
	}
	return csvio.WriteAudits(c.out+"/audit_log.csv", audits)
}

func resolveLocation(flagTZ, cfgTZ string) (*time.Location, error) {
	tz := flagTZ
	if tz == "" {
		tz = cfgTZ
	}
	if tz == "" {
		tz = "Europe/Madrid"
	}
	return time.LoadLocation(tz)
}

func resolveTolerance(flagTol, cfgTol string) (decimal.Decimal, error) {
	s := flagTol
	if s == "" {
		s = cfgTol
	}
	if s == "" {
		return model.DefaultTolerance, nil
	}
	return decimal.NewFromString(s)
}
