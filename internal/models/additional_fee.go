package models

import (
	"time"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

// FeeApplicability selects which population an additional fee reaches.
type FeeApplicability string

// Possible applicability kinds.
const (
	FeeApplicabilityAll        FeeApplicability = "ALL"
	FeeApplicabilityProgram    FeeApplicability = "PROGRAM"
	FeeApplicabilityClass      FeeApplicability = "CLASS"
	FeeApplicabilityIndividual FeeApplicability = "INDIVIDUAL"
)

// AdditionalFee is a charge defined outside the regular fee structures,
// targeted at a subset of students. Scope holds the programs, classes or
// student numbers the applicability kind refers to; it is empty for ALL.
type AdditionalFee struct {
	ID            string           `db:"id" json:"id"`
	Name          string           `db:"name" json:"name"`
	Description   string           `db:"description" json:"description"`
	Amount        decimal.Decimal  `db:"amount" json:"amount"`
	Frequency     FeeFrequency     `db:"frequency" json:"frequency"`
	Applicability FeeApplicability `db:"applicability" json:"applicability"`
	Scope         pq.StringArray   `db:"scope" json:"scope"`
	ValidFrom     *time.Time       `db:"valid_from" json:"valid_from,omitempty"`
	ValidUntil    *time.Time       `db:"valid_until" json:"valid_until,omitempty"`
	Active        bool             `db:"active" json:"active"`
	CreatedBy     string           `db:"created_by" json:"created_by"`
	CreatedAt     time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time        `db:"updated_at" json:"updated_at"`
}

// StudentAdditionalFee is the per-student materialisation of an additional
// fee. Amount is a snapshot taken at application time; later edits to the fee
// definition never change applied records. Unique on
// (student_number, additional_fee_id).
type StudentAdditionalFee struct {
	ID              string          `db:"id" json:"id"`
	StudentNumber   string          `db:"student_number" json:"student_number"`
	AdditionalFeeID string          `db:"additional_fee_id" json:"additional_fee_id"`
	Amount          decimal.Decimal `db:"amount" json:"amount"`
	DueDate         time.Time       `db:"due_date" json:"due_date"`
	Status          BalanceStatus   `db:"status" json:"status"`
	CreatedAt       time.Time       `db:"created_at" json:"created_at"`
}

// ApplyFeeResult reports how an additional fee application fanned out.
type ApplyFeeResult struct {
	FeeID          string   `json:"fee_id"`
	TargetCount    int      `json:"target_count"`
	AppliedCount   int      `json:"applied_count"`
	SkippedCount   int      `json:"skipped_count"`
	FailedStudents []string `json:"failed_students,omitempty"`
}
