package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/uni-finance-api/internal/models"
)

// PaymentRepository reads the append-only payment record stream. Recording
// payments is the payment gateway's job; this subsystem only aggregates.
type PaymentRepository struct {
	db *sqlx.DB
}

// NewPaymentRepository constructs the repository.
func NewPaymentRepository(db *sqlx.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

// ListByStudent returns a student's payment history, newest first.
func (r *PaymentRepository) ListByStudent(ctx context.Context, studentNumber string) ([]models.PaymentRecord, error) {
	const query = `SELECT id, student_number, amount_paid, payment_date, payment_reference
        FROM payment_records WHERE student_number = $1 ORDER BY payment_date DESC`
	var payments []models.PaymentRecord
	if err := r.db.SelectContext(ctx, &payments, query, studentNumber); err != nil {
		return nil, fmt.Errorf("list student payments: %w", err)
	}
	return payments, nil
}

// SumByStudent returns the cumulative amount ever paid by one student.
func (r *PaymentRepository) SumByStudent(ctx context.Context, studentNumber string) (decimal.Decimal, error) {
	const query = `SELECT COALESCE(SUM(amount_paid), 0) FROM payment_records WHERE student_number = $1`
	var total decimal.Decimal
	if err := r.db.GetContext(ctx, &total, query, studentNumber); err != nil {
		return decimal.Zero, fmt.Errorf("sum student payments: %w", err)
	}
	return total, nil
}

// SumAllByStudent returns the cumulative paid total for every student that
// ever made a payment. The full reconciliation sweep loads this map once
// instead of querying per balance row.
func (r *PaymentRepository) SumAllByStudent(ctx context.Context) (map[string]decimal.Decimal, error) {
	const query = `SELECT student_number, COALESCE(SUM(amount_paid), 0) AS total
        FROM payment_records GROUP BY student_number`
	rows, err := r.db.QueryxContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("sum all payments: %w", err)
	}
	defer rows.Close()

	totals := make(map[string]decimal.Decimal)
	for rows.Next() {
		var studentNumber string
		var total decimal.Decimal
		if err := rows.Scan(&studentNumber, &total); err != nil {
			return nil, fmt.Errorf("scan payment total: %w", err)
		}
		totals[studentNumber] = total
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate payment totals: %w", err)
	}
	return totals, nil
}
