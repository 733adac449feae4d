// Package qerr defines the closed error taxonomy of §7: every failure mode
// the pipeline can produce is a distinct Kind, never a bare string.
package qerr

import "fmt"

// Kind is a closed tagged variant over the pipeline's failure modes.
type Kind string

const (
	// ParseError is per-row; the row is skipped and audited, the run
	// continues.
	ParseError Kind = "ParseError"
	// UnknownTxKind is fatal unless --skip-unknown is set.
	UnknownTxKind Kind = "UnknownTxKind"
	// InvalidAmount is per-row, skipped with audit.
	InvalidAmount Kind = "InvalidAmount"
	// MissingPrice stops the FIFO run at the first Tx that cannot be priced
	// (exit code 3); the Txs after it are not processed.
	MissingPrice Kind = "MissingPrice"
	// ReconciliationFatal is an internal invariant violation (exit code 4).
	ReconciliationFatal Kind = "ReconciliationFatal"
	// CacheIOError on a price-cache read is retried once; a second failure
	// counts as a cache miss and the providers are consulted.
	CacheIOError Kind = "CacheIOError"
)

// Error wraps an underlying error with its Kind and, where applicable, the
// Tx it concerns.
type Error struct {
	Kind Kind
	TxID string
	Err  error
}

func (e *Error) Error() string {
	if e.TxID != "" {
		return fmt.Sprintf("%s: tx %s: %v", e.Kind, e.TxID, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// New builds an Error of the given kind wrapping err.
func New(kind Kind, txID string, err error) *Error {
	return &Error{Kind: kind, TxID: txID, Err: err}
}

// ExitCode maps a Kind to the process exit code contract of §6. Kinds with
// no dedicated code (ParseError, InvalidAmount, CacheIOError) map to 2, the
// input validation error code.
func (k Kind) ExitCode() int {
	switch k {
	case UnknownTxKind:
		return 2
	case MissingPrice:
		return 3
	case ReconciliationFatal:
		return 4
	default:
		return 2
	}
}
