package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// EventKind is the closed tagged variant for TaxEvent.
type EventKind string

const (
	CapitalDisposal EventKind = "CapitalDisposal"
	IncomeEvent     EventKind = "Income"
)

// HoldingPeriod classifies a disposal as Short or Long per the 12-month
// IRPF boundary.
type HoldingPeriod string

const (
	Short HoldingPeriod = "Short"
	Long  HoldingPeriod = "Long"
)

// IncomeCategory is the closed tagged variant for Income TaxEvents.
type IncomeCategory string

const (
	MovableCapital IncomeCategory = "MovableCapital"
	OtherIncome    IncomeCategory = "Other"
)

// TaxEvent is an emitted, never-mutated record of a taxable occurrence.
type TaxEvent struct {
	Kind    EventKind
	TaxYear int

	// CapitalDisposal fields.
	AssetDisposed Asset
	Qty           decimal.Decimal
	ProceedsEUR   decimal.Decimal
	CostBasisEUR  decimal.Decimal
	GainEUR       decimal.Decimal
	Holding       HoldingPeriod
	LotsConsumed  []LotSlice

	// Income fields.
	AssetReceived Asset
	FMVEUR        decimal.Decimal
	Category      IncomeCategory

	SourceTxID      string
	SyntheticInputs bool
	Instant         time.Time
}

// AuditCategory is the closed tagged variant for AuditEntry.
type AuditCategory string

const (
	AuditSyntheticInserted AuditCategory = "SyntheticInserted"
	AuditPriceFallback     AuditCategory = "PriceFallback"
	AuditRoundingSplit     AuditCategory = "RoundingSplit"
	AuditRowSkipped        AuditCategory = "RowSkipped"
	AuditDisposalDeficit   AuditCategory = "DisposalDeficit"
	AuditConsolidation     AuditCategory = "Consolidation"
	AuditTransferMatched   AuditCategory = "TransferMatched"
	AuditTransferUnmatched AuditCategory = "TransferUnmatched"
)

// AuditEntry records any reconciliation, pricing, or recovery action taken
// by the pipeline.
type AuditEntry struct {
	Instant    time.Time
	Category   AuditCategory
	SubjectID  string
	Reason     string
}
