package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// BalanceStatus is the lifecycle state of a single ledger row.
type BalanceStatus string

// Possible balance statuses.
const (
	BalanceStatusOutstanding BalanceStatus = "OUTSTANDING"
	BalanceStatusPartial     BalanceStatus = "PARTIAL"
	BalanceStatusPaid        BalanceStatus = "PAID"
	BalanceStatusOverdue     BalanceStatus = "OVERDUE"
)

// StudentFeeBalance is the per-student, per-item ledger row. Unique on
// (student_number, fee_structure_item_id). The outstanding amount always
// equals max(0, total - paid) after any mutation.
type StudentFeeBalance struct {
	ID                 string          `db:"id" json:"id"`
	StudentNumber      string          `db:"student_number" json:"student_number"`
	FeeStructureItemID string          `db:"fee_structure_item_id" json:"fee_structure_item_id"`
	TotalAmount        decimal.Decimal `db:"total_amount" json:"total_amount"`
	AmountPaid         decimal.Decimal `db:"amount_paid" json:"amount_paid"`
	OutstandingBalance decimal.Decimal `db:"outstanding_balance" json:"outstanding_balance"`
	DueDate            time.Time       `db:"due_date" json:"due_date"`
	Status             BalanceStatus   `db:"status" json:"status"`
	Active             bool            `db:"active" json:"active"`
	Notes              string          `db:"notes" json:"notes"`
	CreatedAt          time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time       `db:"updated_at" json:"updated_at"`
}

// BalanceFilter encapsulates search parameters for listing ledger rows.
type BalanceFilter struct {
	StudentNumber  string
	FeeStructureID string
	Status         BalanceStatus
	Page           int
	PageSize       int
	SortBy         string
	SortOrder      string
}

// StudentBalanceSummary aggregates a student's ledger including applied
// additional fees. Cached with a short TTL and invalidated on any mutation.
type StudentBalanceSummary struct {
	StudentNumber         string          `json:"student_number"`
	TotalCharged          decimal.Decimal `json:"total_charged"`
	TotalPaid             decimal.Decimal `json:"total_paid"`
	TotalOutstanding      decimal.Decimal `json:"total_outstanding"`
	AdditionalOutstanding decimal.Decimal `json:"additional_outstanding"`
	OpenItems             int             `json:"open_items"`
	GeneratedAt           time.Time       `json:"generated_at"`
}

// ReconciliationReport summarises a reconciliation sweep.
type ReconciliationReport struct {
	BalancesChecked int       `json:"balances_checked"`
	BalancesChanged int       `json:"balances_changed"`
	StartedAt       time.Time `json:"started_at"`
	FinishedAt      time.Time `json:"finished_at"`
}
