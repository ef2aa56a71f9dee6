package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/uni-finance-api/internal/models"
)

// FeeBalanceRepository handles persistence of the per-item balance ledger.
type FeeBalanceRepository struct {
	db *sqlx.DB
}

// NewFeeBalanceRepository constructs the repository.
func NewFeeBalanceRepository(db *sqlx.DB) *FeeBalanceRepository {
	return &FeeBalanceRepository{db: db}
}

const balanceColumns = `id, student_number, fee_structure_item_id, total_amount, amount_paid, outstanding_balance, due_date, status, active, notes, created_at, updated_at`

// Create persists a new ledger row.
func (r *FeeBalanceRepository) Create(ctx context.Context, balance *models.StudentFeeBalance) error {
	if balance.ID == "" {
		balance.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	balance.CreatedAt = now
	balance.UpdatedAt = now
	const query = `INSERT INTO student_fee_balances (id, student_number, fee_structure_item_id, total_amount, amount_paid, outstanding_balance, due_date, status, active, notes, created_at, updated_at)
        VALUES (:id, :student_number, :fee_structure_item_id, :total_amount, :amount_paid, :outstanding_balance, :due_date, :status, :active, :notes, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, balance); err != nil {
		return fmt.Errorf("create fee balance: %w", err)
	}
	return nil
}

// FindByID returns a ledger row by its ID.
func (r *FeeBalanceRepository) FindByID(ctx context.Context, id string) (*models.StudentFeeBalance, error) {
	query := fmt.Sprintf(`SELECT %s FROM student_fee_balances WHERE id = $1`, balanceColumns)
	var balance models.StudentFeeBalance
	if err := r.db.GetContext(ctx, &balance, query, id); err != nil {
		return nil, err
	}
	return &balance, nil
}

// FindByStudentAndItem returns the unique row for a (student, item) pair.
func (r *FeeBalanceRepository) FindByStudentAndItem(ctx context.Context, studentNumber, itemID string) (*models.StudentFeeBalance, error) {
	query := fmt.Sprintf(`SELECT %s FROM student_fee_balances WHERE student_number = $1 AND fee_structure_item_id = $2`, balanceColumns)
	var balance models.StudentFeeBalance
	if err := r.db.GetContext(ctx, &balance, query, studentNumber, itemID); err != nil {
		return nil, err
	}
	return &balance, nil
}

// ListByStudent returns every ledger row of a student.
func (r *FeeBalanceRepository) ListByStudent(ctx context.Context, studentNumber string) ([]models.StudentFeeBalance, error) {
	query := fmt.Sprintf(`SELECT %s FROM student_fee_balances WHERE student_number = $1 ORDER BY due_date, id`, balanceColumns)
	var balances []models.StudentFeeBalance
	if err := r.db.SelectContext(ctx, &balances, query, studentNumber); err != nil {
		return nil, fmt.Errorf("list student balances: %w", err)
	}
	return balances, nil
}

// ListByStudentAndStructure returns a student's rows belonging to one structure.
func (r *FeeBalanceRepository) ListByStudentAndStructure(ctx context.Context, studentNumber, feeStructureID string) ([]models.StudentFeeBalance, error) {
	query := fmt.Sprintf(`SELECT b.%s FROM student_fee_balances b
        JOIN fee_structure_items i ON i.id = b.fee_structure_item_id
        WHERE b.student_number = $1 AND i.fee_structure_id = $2 ORDER BY b.due_date, b.id`,
		strings.ReplaceAll(balanceColumns, ", ", ", b."))
	var balances []models.StudentFeeBalance
	if err := r.db.SelectContext(ctx, &balances, query, studentNumber, feeStructureID); err != nil {
		return nil, fmt.Errorf("list structure balances: %w", err)
	}
	return balances, nil
}

// ListAll returns the full ledger. The reconciliation sweep loads it into
// memory, so growth is linear with the table size.
func (r *FeeBalanceRepository) ListAll(ctx context.Context) ([]models.StudentFeeBalance, error) {
	query := fmt.Sprintf(`SELECT %s FROM student_fee_balances ORDER BY student_number, id`, balanceColumns)
	var balances []models.StudentFeeBalance
	if err := r.db.SelectContext(ctx, &balances, query); err != nil {
		return nil, fmt.Errorf("list all balances: %w", err)
	}
	return balances, nil
}

// List returns ledger rows filtered by the provided criteria.
func (r *FeeBalanceRepository) List(ctx context.Context, filter models.BalanceFilter) ([]models.StudentFeeBalance, int, error) {
	base := `FROM student_fee_balances b`
	var conditions []string
	var args []interface{}

	if filter.FeeStructureID != "" {
		base += ` JOIN fee_structure_items i ON i.id = b.fee_structure_item_id`
		conditions = append(conditions, fmt.Sprintf("i.fee_structure_id = $%d", len(args)+1))
		args = append(args, filter.FeeStructureID)
	}
	if filter.StudentNumber != "" {
		conditions = append(conditions, fmt.Sprintf("b.student_number = $%d", len(args)+1))
		args = append(args, filter.StudentNumber)
	}
	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("b.status = $%d", len(args)+1))
		args = append(args, filter.Status)
	}

	clause := ""
	if len(conditions) > 0 {
		clause = " WHERE " + strings.Join(conditions, " AND ")
	}

	allowedSorts := map[string]string{
		"due_date":       "b.due_date",
		"student_number": "b.student_number",
		"outstanding":    "b.outstanding_balance",
	}
	orderBy := allowedSorts[filter.SortBy]
	if orderBy == "" {
		orderBy = "b.due_date"
	}
	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "ASC"
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf(`SELECT b.%s %s ORDER BY %s %s LIMIT %d OFFSET %d`,
		strings.ReplaceAll(balanceColumns, ", ", ", b."), base+clause, orderBy, order, size, offset)

	var balances []models.StudentFeeBalance
	if err := r.db.SelectContext(ctx, &balances, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list balances: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base+clause)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count balances: %w", err)
	}
	return balances, total, nil
}

// UpdateAmounts persists recomputed amounts and status for one row.
func (r *FeeBalanceRepository) UpdateAmounts(ctx context.Context, id string, amountPaid, outstanding decimal.Decimal, status models.BalanceStatus) error {
	const query = `UPDATE student_fee_balances SET amount_paid = $2, outstanding_balance = $3, status = $4, updated_at = $5 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, amountPaid, outstanding, status, time.Now().UTC()); err != nil {
		return fmt.Errorf("update balance amounts: %w", err)
	}
	return nil
}

// UpdateStatus persists a status change without touching amounts.
func (r *FeeBalanceRepository) UpdateStatus(ctx context.Context, id string, status models.BalanceStatus) error {
	const query = `UPDATE student_fee_balances SET status = $2, updated_at = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, status, time.Now().UTC()); err != nil {
		return fmt.Errorf("update balance status: %w", err)
	}
	return nil
}

// SumOutstandingByStudents returns, per student, the positive outstanding
// total accumulated outside the given structure. Assign-to-all uses it to
// carry prior-period debt into the new ledger.
func (r *FeeBalanceRepository) SumOutstandingByStudents(ctx context.Context, excludeStructureID string) (map[string]decimal.Decimal, error) {
	const query = `SELECT b.student_number, COALESCE(SUM(b.outstanding_balance), 0) AS total
        FROM student_fee_balances b
        JOIN fee_structure_items i ON i.id = b.fee_structure_item_id
        WHERE i.fee_structure_id <> $1 AND b.outstanding_balance > 0
        GROUP BY b.student_number`
	rows, err := r.db.QueryxContext(ctx, query, excludeStructureID)
	if err != nil {
		return nil, fmt.Errorf("sum outstanding by students: %w", err)
	}
	defer rows.Close()

	totals := make(map[string]decimal.Decimal)
	for rows.Next() {
		var studentNumber string
		var total decimal.Decimal
		if err := rows.Scan(&studentNumber, &total); err != nil {
			return nil, fmt.Errorf("scan outstanding total: %w", err)
		}
		totals[studentNumber] = total
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate outstanding totals: %w", err)
	}
	return totals, nil
}
