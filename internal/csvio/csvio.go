// Package csvio implements the §6 external CSV interfaces: the source
// aggregator export, the user final-balance snapshot, and the TaxEvent/
// Audit output files. No third-party CSV library exists anywhere in the
// example pack (every repo that touches CSV uses encoding/csv directly),
// so this is one of the few stdlib-only concerns in the pipeline.
package csvio

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/qntropy/qntropy/internal/model"
	"github.com/qntropy/qntropy/internal/normalize"
	"github.com/qntropy/qntropy/internal/reconcile"
)

// sourceColumns is the required header of §6's source row format.
var sourceColumns = []string{"Type", "Buy Amount", "Buy Currency", "Sell Amount", "Sell Currency", "Fee", "Fee Currency", "Exchange", "Group", "Comment", "Date"}

// ReadSourceRows parses the aggregator's trade-table export at path into
// normalize.SourceRow values, preserving row order as SourceRow.Ordinal.
func ReadSourceRows(path string) ([]normalize.SourceRow, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("reading header of %s: %w", path, err)
	}
	idx := map[string]int{}
	for i, h := range header {
		idx[strings.TrimSpace(h)] = i
	}
	for _, col := range sourceColumns {
		if _, ok := idx[col]; !ok {
			return nil, fmt.Errorf("%s: missing required column %q", path, col)
		}
	}
	get := func(rec []string, col string) string {
		i, ok := idx[col]
		if !ok || i >= len(rec) {
			return ""
		}
		return rec[i]
	}

	var rows []normalize.SourceRow
	ordinal := 0
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading %s row %d: %w", path, ordinal, err)
		}
		rows = append(rows, normalize.SourceRow{
			Type:         get(rec, "Type"),
			BuyAmount:    get(rec, "Buy Amount"),
			BuyCurrency:  get(rec, "Buy Currency"),
			SellAmount:   get(rec, "Sell Amount"),
			SellCurrency: get(rec, "Sell Currency"),
			Fee:          get(rec, "Fee"),
			FeeCurrency:  get(rec, "Fee Currency"),
			Exchange:     get(rec, "Exchange"),
			Group:        get(rec, "Group"),
			Comment:      get(rec, "Comment"),
			Date:         get(rec, "Date"),
			Ordinal:      ordinal,
		})
		ordinal++
	}
	return rows, nil
}

// ReadSnapshot parses the §6 final-balance snapshot format: a
// "# as_of=<ISO-8601>" comment header followed by a two-column
// "asset,amount" CSV.
func ReadSnapshot(path string) (*reconcile.Snapshot, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	var asOf time.Time
	var bodyLines []string
	found := false
	for scanner.Scan() {
		line := scanner.Text()
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "#") {
			if rest, ok := cutPrefix(trimmed, "# as_of="); ok {
				t, err := time.Parse(time.RFC3339, strings.TrimSpace(rest))
				if err != nil {
					return nil, fmt.Errorf("%s: invalid as_of header %q: %w", path, rest, err)
				}
				asOf = t
				found = true
			}
			continue
		}
		if trimmed == "" {
			continue
		}
		bodyLines = append(bodyLines, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	if !found {
		return nil, fmt.Errorf("%s: missing required \"# as_of=<ISO-8601>\" header", path)
	}

	balances := map[string]decimal.Decimal{}
	r := csv.NewReader(strings.NewReader(strings.Join(bodyLines, "\n")))
	r.FieldsPerRecord = -1
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		if len(rec) < 2 {
			continue
		}
		asset := strings.TrimSpace(rec[0])
		if asset == "" || strings.EqualFold(asset, "asset") {
			continue // header row of the two-column body, if present
		}
		amt, err := decimal.NewFromString(strings.TrimSpace(rec[1]))
		if err != nil {
			return nil, fmt.Errorf("%s: invalid amount for %s: %w", path, asset, err)
		}
		balances[model.NewAsset(asset).Symbol] = amt
	}

	return &reconcile.Snapshot{AsOf: asOf, Balances: balances}, nil
}

func cutPrefix(s, prefix string) (string, bool) {
	if !strings.HasPrefix(s, prefix) {
		return "", false
	}
	return s[len(prefix):], true
}

// WriteTaxEvents writes the §6 Output TaxEvent CSV.
func WriteTaxEvents(path string, events []model.TaxEvent) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	header := []string{"tax_year", "kind", "instant_utc", "asset", "qty", "proceeds_eur", "cost_basis_eur", "gain_eur", "holding", "income_category", "source_tx_id", "synthetic_inputs", "lots_consumed_json"}
	if err := w.Write(header); err != nil {
		return err
	}

	for _, e := range events {
		asset := e.AssetDisposed.Symbol
		qty := e.Qty
		if e.Kind == model.IncomeEvent {
			asset = e.AssetReceived.Symbol
		}
		lotsJSON := "[]"
		if len(e.LotsConsumed) > 0 {
			b, err := json.Marshal(e.LotsConsumed)
			if err != nil {
				return fmt.Errorf("marshaling lots for %s: %w", e.SourceTxID, err)
			}
			lotsJSON = string(b)
		}
		proceeds, basis, gain := e.ProceedsEUR, e.CostBasisEUR, e.GainEUR
		if e.Kind == model.IncomeEvent {
			proceeds, basis, gain = e.FMVEUR, decimal.Zero, decimal.Zero
		}
		rec := []string{
			strconv.Itoa(e.TaxYear),
			string(e.Kind),
			e.Instant.UTC().Format(time.RFC3339),
			asset,
			qty.String(),
			proceeds.String(),
			basis.String(),
			gain.String(),
			string(e.Holding),
			string(e.Category),
			e.SourceTxID,
			strconv.FormatBool(e.SyntheticInputs),
			lotsJSON,
		}
		if err := w.Write(rec); err != nil {
			return err
		}
	}
	return w.Error()
}

// WriteAudits writes the §6 Output Audit CSV.
func WriteAudits(path string, audits []model.AuditEntry) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	if err := w.Write([]string{"instant_utc", "category", "subject_tx_id", "reason"}); err != nil {
		return err
	}
	for _, a := range audits {
		rec := []string{a.Instant.UTC().Format(time.RFC3339), string(a.Category), a.SubjectID, a.Reason}
		if err := w.Write(rec); err != nil {
			return err
		}
	}
	return w.Error()
}
