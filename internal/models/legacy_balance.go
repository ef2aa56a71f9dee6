package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// LegacyStudentBalance is a row of the deprecated single-balance-per-semester
// table, kept read-only until migration completes.
type LegacyStudentBalance struct {
	ID            string          `db:"id" json:"id"`
	StudentNumber string          `db:"student_number" json:"student_number"`
	AcademicYear  string          `db:"academic_year" json:"academic_year"`
	Semester      string          `db:"semester" json:"semester"`
	TotalAmount   decimal.Decimal `db:"total_amount" json:"total_amount"`
	AmountPaid    decimal.Decimal `db:"amount_paid" json:"amount_paid"`
	Status        string          `db:"status" json:"status"`
	DueDate       *time.Time      `db:"due_date" json:"due_date,omitempty"`
}

// MigrationResult reports how a legacy migration walk finished.
type MigrationResult struct {
	Migrated int      `json:"migrated"`
	Skipped  int      `json:"skipped"`
	Errored  int      `json:"errored"`
	Errors   []string `json:"errors,omitempty"`
}
