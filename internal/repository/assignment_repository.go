package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/uni-finance-api/internal/models"
)

// AssignmentRepository handles persistence of student fee assignments.
type AssignmentRepository struct {
	db *sqlx.DB
}

// NewAssignmentRepository constructs the repository.
func NewAssignmentRepository(db *sqlx.DB) *AssignmentRepository {
	return &AssignmentRepository{db: db}
}

const assignmentColumns = `id, student_number, fee_structure_id, academic_year, semester, assigned_at, assigned_by`

// Create persists a new assignment record.
func (r *AssignmentRepository) Create(ctx context.Context, assignment *models.StudentFeeAssignment) error {
	if assignment.ID == "" {
		assignment.ID = uuid.NewString()
	}
	if assignment.AssignedAt.IsZero() {
		assignment.AssignedAt = time.Now().UTC()
	}
	const query = `INSERT INTO student_fee_assignments (id, student_number, fee_structure_id, academic_year, semester, assigned_at, assigned_by)
        VALUES (:id, :student_number, :fee_structure_id, :academic_year, :semester, :assigned_at, :assigned_by)`
	if _, err := r.db.NamedExecContext(ctx, query, assignment); err != nil {
		return fmt.Errorf("create assignment: %w", err)
	}
	return nil
}

// Exists checks whether the unique assignment key is already taken.
func (r *AssignmentRepository) Exists(ctx context.Context, studentNumber, feeStructureID, academicYear, semester string) (bool, error) {
	const query = `SELECT 1 FROM student_fee_assignments
        WHERE student_number = $1 AND fee_structure_id = $2 AND academic_year = $3 AND semester = $4 LIMIT 1`
	var exists int
	if err := r.db.GetContext(ctx, &exists, query, studentNumber, feeStructureID, academicYear, semester); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check assignment: %w", err)
	}
	return true, nil
}

// FindByID returns an assignment by its ID.
func (r *AssignmentRepository) FindByID(ctx context.Context, id string) (*models.StudentFeeAssignment, error) {
	query := fmt.Sprintf(`SELECT %s FROM student_fee_assignments WHERE id = $1`, assignmentColumns)
	var assignment models.StudentFeeAssignment
	if err := r.db.GetContext(ctx, &assignment, query, id); err != nil {
		return nil, err
	}
	return &assignment, nil
}

// ListByStudent returns a student's assignments.
func (r *AssignmentRepository) ListByStudent(ctx context.Context, studentNumber string) ([]models.StudentFeeAssignment, error) {
	query := fmt.Sprintf(`SELECT %s FROM student_fee_assignments WHERE student_number = $1 ORDER BY assigned_at DESC`, assignmentColumns)
	var assignments []models.StudentFeeAssignment
	if err := r.db.SelectContext(ctx, &assignments, query, studentNumber); err != nil {
		return nil, fmt.Errorf("list student assignments: %w", err)
	}
	return assignments, nil
}

// ListStudentNumbersByStructure returns every student number already bound to
// the structure, used to skip them during assign-to-all.
func (r *AssignmentRepository) ListStudentNumbersByStructure(ctx context.Context, feeStructureID string) ([]string, error) {
	const query = `SELECT student_number FROM student_fee_assignments WHERE fee_structure_id = $1`
	var numbers []string
	if err := r.db.SelectContext(ctx, &numbers, query, feeStructureID); err != nil {
		return nil, fmt.Errorf("list assigned students: %w", err)
	}
	return numbers, nil
}

// Delete removes an assignment. Balances issued from it are never touched.
func (r *AssignmentRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM student_fee_assignments WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete assignment: %w", err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// CreateAllWithBalances writes a batch of assignments and their generated
// balance rows as a single unit of work. Used by assign-to-all, which must
// flush the whole population together.
func (r *AssignmentRepository) CreateAllWithBalances(ctx context.Context, assignments []models.StudentFeeAssignment, balances []models.StudentFeeBalance) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin assign-to-all: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	const insertAssignment = `INSERT INTO student_fee_assignments (id, student_number, fee_structure_id, academic_year, semester, assigned_at, assigned_by)
        VALUES (:id, :student_number, :fee_structure_id, :academic_year, :semester, :assigned_at, :assigned_by)`
	for i := range assignments {
		if _, err := tx.NamedExecContext(ctx, insertAssignment, &assignments[i]); err != nil {
			return fmt.Errorf("create assignment for %s: %w", assignments[i].StudentNumber, err)
		}
	}

	const insertBalance = `INSERT INTO student_fee_balances (id, student_number, fee_structure_item_id, total_amount, amount_paid, outstanding_balance, due_date, status, active, notes, created_at, updated_at)
        VALUES (:id, :student_number, :fee_structure_item_id, :total_amount, :amount_paid, :outstanding_balance, :due_date, :status, :active, :notes, :created_at, :updated_at)`
	for i := range balances {
		if _, err := tx.NamedExecContext(ctx, insertBalance, &balances[i]); err != nil {
			return fmt.Errorf("create balance for %s: %w", balances[i].StudentNumber, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit assign-to-all: %w", err)
	}
	return nil
}
