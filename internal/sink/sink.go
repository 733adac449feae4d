// Package sink implements the append-only Event Sink of §4.5: a typed
// store of TaxEvent and AuditEntry records, safe for the pre-warm pass's
// concurrent audit writes.
package sink

import (
	"sync"

	"github.com/qntropy/qntropy/internal/model"
)

// Store is an append-only, ordered sequence of TaxEvents and AuditEntries.
// Records are never mutated once appended; Events/Audits return copies of
// the backing slices so callers cannot retroactively edit history.
type Store struct {
	mu     sync.Mutex
	events []model.TaxEvent
	audits []model.AuditEntry
}

// New returns an empty Store.
func New() *Store {
	return &Store{}
}

// AppendEvent appends a TaxEvent.
func (s *Store) AppendEvent(e model.TaxEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, e)
}

// AppendEvents appends a batch of TaxEvents in order.
func (s *Store) AppendEvents(es []model.TaxEvent) {
	if len(es) == 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, es...)
}

// AppendAudit appends an AuditEntry. Safe to call from the price-oracle
// pre-warm pass's concurrent workers (§5).
func (s *Store) AppendAudit(a model.AuditEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.audits = append(s.audits, a)
}

// AppendAudits appends a batch of AuditEntries in order.
func (s *Store) AppendAudits(as []model.AuditEntry) {
	if len(as) == 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.audits = append(s.audits, as...)
}

// Events returns an ordered snapshot of every TaxEvent appended so far.
func (s *Store) Events() []model.TaxEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.TaxEvent, len(s.events))
	copy(out, s.events)
	return out
}

// Audits returns an ordered snapshot of every AuditEntry appended so far.
func (s *Store) Audits() []model.AuditEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.AuditEntry, len(s.audits))
	copy(out, s.audits)
	return out
}

// Len reports the number of events and audits currently held.
func (s *Store) Len() (events, audits int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.events), len(s.audits)
}
