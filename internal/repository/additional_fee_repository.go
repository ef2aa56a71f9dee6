package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/uni-finance-api/internal/models"
)

// AdditionalFeeRepository handles persistence of additional fee definitions
// and their per-student applications.
type AdditionalFeeRepository struct {
	db *sqlx.DB
}

// NewAdditionalFeeRepository constructs the repository.
func NewAdditionalFeeRepository(db *sqlx.DB) *AdditionalFeeRepository {
	return &AdditionalFeeRepository{db: db}
}

const additionalFeeColumns = `id, name, description, amount, frequency, applicability, scope, valid_from, valid_until, active, created_by, created_at, updated_at`

// List returns fee definitions, optionally restricted to active ones.
func (r *AdditionalFeeRepository) List(ctx context.Context, activeOnly bool) ([]models.AdditionalFee, error) {
	query := fmt.Sprintf(`SELECT %s FROM additional_fees`, additionalFeeColumns)
	if activeOnly {
		query += ` WHERE active = TRUE`
	}
	query += ` ORDER BY created_at DESC`
	var fees []models.AdditionalFee
	if err := r.db.SelectContext(ctx, &fees, query); err != nil {
		return nil, fmt.Errorf("list additional fees: %w", err)
	}
	return fees, nil
}

// FindByID returns a fee definition by its ID.
func (r *AdditionalFeeRepository) FindByID(ctx context.Context, id string) (*models.AdditionalFee, error) {
	query := fmt.Sprintf(`SELECT %s FROM additional_fees WHERE id = $1`, additionalFeeColumns)
	var fee models.AdditionalFee
	if err := r.db.GetContext(ctx, &fee, query, id); err != nil {
		return nil, err
	}
	return &fee, nil
}

// Create persists a new fee definition.
func (r *AdditionalFeeRepository) Create(ctx context.Context, fee *models.AdditionalFee) error {
	if fee.ID == "" {
		fee.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	fee.CreatedAt = now
	fee.UpdatedAt = now
	fee.Scope = normalizeScope(fee.Scope)
	const query = `INSERT INTO additional_fees (id, name, description, amount, frequency, applicability, scope, valid_from, valid_until, active, created_by, created_at, updated_at)
        VALUES (:id, :name, :description, :amount, :frequency, :applicability, :scope, :valid_from, :valid_until, :active, :created_by, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, fee); err != nil {
		return fmt.Errorf("create additional fee: %w", err)
	}
	return nil
}

// Update persists mutable fee definition fields. Applied student records keep
// their snapshot amounts.
func (r *AdditionalFeeRepository) Update(ctx context.Context, fee *models.AdditionalFee) error {
	fee.UpdatedAt = time.Now().UTC()
	fee.Scope = normalizeScope(fee.Scope)
	const query = `UPDATE additional_fees SET name = :name, description = :description, amount = :amount,
        frequency = :frequency, applicability = :applicability, scope = :scope, valid_from = :valid_from,
        valid_until = :valid_until, active = :active, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, fee); err != nil {
		return fmt.Errorf("update additional fee: %w", err)
	}
	return nil
}

// Delete removes a fee definition.
func (r *AdditionalFeeRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM additional_fees WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete additional fee: %w", err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// ExistsForStudent checks the per-(student, fee) application guard.
func (r *AdditionalFeeRepository) ExistsForStudent(ctx context.Context, studentNumber, feeID string) (bool, error) {
	const query = `SELECT 1 FROM student_additional_fees WHERE student_number = $1 AND additional_fee_id = $2 LIMIT 1`
	var exists int
	if err := r.db.GetContext(ctx, &exists, query, studentNumber, feeID); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check student fee: %w", err)
	}
	return true, nil
}

// CreateStudentFee persists one per-student application snapshot.
func (r *AdditionalFeeRepository) CreateStudentFee(ctx context.Context, studentFee *models.StudentAdditionalFee) error {
	if studentFee.ID == "" {
		studentFee.ID = uuid.NewString()
	}
	if studentFee.CreatedAt.IsZero() {
		studentFee.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO student_additional_fees (id, student_number, additional_fee_id, amount, due_date, status, created_at)
        VALUES (:id, :student_number, :additional_fee_id, :amount, :due_date, :status, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, studentFee); err != nil {
		return fmt.Errorf("create student additional fee: %w", err)
	}
	return nil
}

// ListStudentFees returns a student's applied additional fees.
func (r *AdditionalFeeRepository) ListStudentFees(ctx context.Context, studentNumber string) ([]models.StudentAdditionalFee, error) {
	const query = `SELECT id, student_number, additional_fee_id, amount, due_date, status, created_at
        FROM student_additional_fees WHERE student_number = $1 ORDER BY due_date, id`
	var fees []models.StudentAdditionalFee
	if err := r.db.SelectContext(ctx, &fees, query, studentNumber); err != nil {
		return nil, fmt.Errorf("list student additional fees: %w", err)
	}
	return fees, nil
}

// SumOpenByStudent returns the total of a student's applied fees that are not
// yet fully paid, consumed by the balance summary.
func (r *AdditionalFeeRepository) SumOpenByStudent(ctx context.Context, studentNumber string) (decimal.Decimal, error) {
	const query = `SELECT COALESCE(SUM(amount), 0) FROM student_additional_fees
        WHERE student_number = $1 AND status <> $2`
	var total decimal.Decimal
	if err := r.db.GetContext(ctx, &total, query, studentNumber, models.BalanceStatusPaid); err != nil {
		return decimal.Zero, fmt.Errorf("sum open student fees: %w", err)
	}
	return total, nil
}

// normalizeScope trims blank entries out of an applicability scope list.
func normalizeScope(scope []string) []string {
	result := make([]string, 0, len(scope))
	for _, entry := range scope {
		if trimmed := strings.TrimSpace(entry); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}
