package models

import "time"

// FeeCategoryType distinguishes regular structure charges from ad-hoc ones.
type FeeCategoryType string

// Possible fee category types.
const (
	FeeCategoryTypeStandard   FeeCategoryType = "STANDARD"
	FeeCategoryTypeAdditional FeeCategoryType = "ADDITIONAL"
)

// FeeFrequency describes how often a charge recurs.
type FeeFrequency string

// Possible fee frequencies.
const (
	FeeFrequencyOneTime   FeeFrequency = "ONE_TIME"
	FeeFrequencyRecurring FeeFrequency = "RECURRING"
)

// FeeCategory is a reusable named kind of charge (e.g. Tuition, Library).
type FeeCategory struct {
	ID          string          `db:"id" json:"id"`
	Name        string          `db:"name" json:"name"`
	Description string          `db:"description" json:"description"`
	Type        FeeCategoryType `db:"type" json:"type"`
	Frequency   FeeFrequency    `db:"frequency" json:"frequency"`
	Required    bool            `db:"required" json:"required"`
	Active      bool            `db:"active" json:"active"`
	CreatedAt   time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time       `db:"updated_at" json:"updated_at"`
}

// FeeCategoryFilter encapsulates allowed search parameters for listing categories.
type FeeCategoryFilter struct {
	Type      FeeCategoryType
	Active    *bool
	Search    string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
