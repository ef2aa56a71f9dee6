package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// FeeStructure is a period-scoped bundle of charges for one cohort.
// Unique on (academic_year, semester, name).
type FeeStructure struct {
	ID           string    `db:"id" json:"id"`
	Name         string    `db:"name" json:"name"`
	Description  string    `db:"description" json:"description"`
	AcademicYear string    `db:"academic_year" json:"academic_year"`
	Semester     string    `db:"semester" json:"semester"`
	Active       bool      `db:"active" json:"active"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`

	Items []FeeStructureItem `db:"-" json:"items,omitempty"`
}

// FeeStructureItem is one line within a structure: a category, an amount and
// an optional due date. Items are owned by their structure.
type FeeStructureItem struct {
	ID             string          `db:"id" json:"id"`
	FeeStructureID string          `db:"fee_structure_id" json:"fee_structure_id"`
	FeeCategoryID  string          `db:"fee_category_id" json:"fee_category_id"`
	Amount         decimal.Decimal `db:"amount" json:"amount"`
	Required       bool            `db:"required" json:"required"`
	Description    string          `db:"description" json:"description"`
	DueDate        *time.Time      `db:"due_date" json:"due_date,omitempty"`
}

// FeeStructureFilter encapsulates search parameters for listing structures.
type FeeStructureFilter struct {
	AcademicYear    string
	Semester        string
	Search          string
	IncludeInactive bool
	Page            int
	PageSize        int
	SortBy          string
	SortOrder       string
}
