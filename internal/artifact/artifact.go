// Package artifact persists the intermediate stages of the CLI pipeline
// (§6) to disk as plain JSON, so import/reconcile/compute/report can run as
// separate process invocations against the same --out directory.
package artifact

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/qntropy/qntropy/internal/model"
)

const (
	CanonicalFile  = "canonical.json"
	ReconciledFile = "reconciled.json"
	EventsFile     = "events.json"
	AuditsFile     = "audits.json"
)

func save(dir, name string, v any) error {
	path := dir + "/" + name
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer f.Close()
	enc := json.NewEncoder(f)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encoding %s: %w", path, err)
	}
	return nil
}

func load(dir, name string, v any) error {
	path := dir + "/" + name
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()
	if err := json.NewDecoder(f).Decode(v); err != nil {
		return fmt.Errorf("decoding %s: %w", path, err)
	}
	return nil
}

func SaveTxs(dir, name string, txs []model.Tx) error { return save(dir, name, txs) }
func LoadTxs(dir, name string) ([]model.Tx, error) {
	var txs []model.Tx
	err := load(dir, name, &txs)
	return txs, err
}

func SaveAudits(dir string, audits []model.AuditEntry) error { return save(dir, AuditsFile, audits) }
func LoadAudits(dir string) ([]model.AuditEntry, error) {
	var audits []model.AuditEntry
	err := load(dir, AuditsFile, &audits)
	return audits, err
}

func SaveEvents(dir string, events []model.TaxEvent) error { return save(dir, EventsFile, events) }
func LoadEvents(dir string) ([]model.TaxEvent, error) {
	var events []model.TaxEvent
	err := load(dir, EventsFile, &events)
	return events, err
}
