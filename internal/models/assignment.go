package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// StudentFeeAssignment binds a student to a fee structure for one academic
// period. Unique on (student_number, fee_structure_id, academic_year, semester).
// Assignments are created once and never mutated, only removable.
type StudentFeeAssignment struct {
	ID             string    `db:"id" json:"id"`
	StudentNumber  string    `db:"student_number" json:"student_number"`
	FeeStructureID string    `db:"fee_structure_id" json:"fee_structure_id"`
	AcademicYear   string    `db:"academic_year" json:"academic_year"`
	Semester       string    `db:"semester" json:"semester"`
	AssignedAt     time.Time `db:"assigned_at" json:"assigned_at"`
	AssignedBy     string    `db:"assigned_by" json:"assigned_by"`
}

// AssignToAllResult reports the outcome of assigning a structure to every
// unassigned student, including prior-period debt carried into the new ledger.
type AssignToAllResult struct {
	AssignedCount            int             `json:"assigned_count"`
	OutstandingBalancesAdded int             `json:"outstanding_balances_added"`
	TotalOutstandingAmount   decimal.Decimal `json:"total_outstanding_amount"`
}
