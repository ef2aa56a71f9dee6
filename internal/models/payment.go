package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// PaymentRecord is one row of the append-only payment stream, the single
// source of truth for money actually received. The fee subsystem only reads
// it; recording payments happens in the payment gateway.
type PaymentRecord struct {
	ID               string          `db:"id" json:"id"`
	StudentNumber    string          `db:"student_number" json:"student_number"`
	AmountPaid       decimal.Decimal `db:"amount_paid" json:"amount_paid"`
	PaymentDate      time.Time       `db:"payment_date" json:"payment_date"`
	PaymentReference string          `db:"payment_reference" json:"payment_reference"`
}
