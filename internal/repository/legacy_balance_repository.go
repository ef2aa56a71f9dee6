package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/uni-finance-api/internal/models"
)

// LegacyBalanceRepository reads the deprecated single-balance-per-semester
// table. It exists only to feed the one-time migration.
type LegacyBalanceRepository struct {
	db *sqlx.DB
}

// NewLegacyBalanceRepository constructs the repository.
func NewLegacyBalanceRepository(db *sqlx.DB) *LegacyBalanceRepository {
	return &LegacyBalanceRepository{db: db}
}

// ListAll returns every legacy balance row.
func (r *LegacyBalanceRepository) ListAll(ctx context.Context) ([]models.LegacyStudentBalance, error) {
	const query = `SELECT id, student_number, academic_year, semester, total_amount, amount_paid, status, due_date
        FROM legacy_student_balances ORDER BY academic_year, semester, student_number`
	var balances []models.LegacyStudentBalance
	if err := r.db.SelectContext(ctx, &balances, query); err != nil {
		return nil, fmt.Errorf("list legacy balances: %w", err)
	}
	return balances, nil
}
