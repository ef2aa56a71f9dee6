package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/uni-finance-api/internal/models"
)

// StudentRepository reads the institution's student directory. The fee
// subsystem never writes to it.
type StudentRepository struct {
	db *sqlx.DB
}

// NewStudentRepository constructs the repository.
func NewStudentRepository(db *sqlx.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

const studentColumns = `student_number, full_name, program, class_name, active`

// FindByNumber returns a student by their student number.
func (r *StudentRepository) FindByNumber(ctx context.Context, studentNumber string) (*models.Student, error) {
	query := fmt.Sprintf(`SELECT %s FROM students WHERE student_number = $1`, studentColumns)
	var student models.Student
	if err := r.db.GetContext(ctx, &student, query, studentNumber); err != nil {
		return nil, err
	}
	return &student, nil
}

// ListActive returns every active student.
func (r *StudentRepository) ListActive(ctx context.Context) ([]models.Student, error) {
	query := fmt.Sprintf(`SELECT %s FROM students WHERE active = TRUE ORDER BY student_number`, studentColumns)
	var students []models.Student
	if err := r.db.SelectContext(ctx, &students, query); err != nil {
		return nil, fmt.Errorf("list active students: %w", err)
	}
	return students, nil
}

// ListByPrograms returns active students enrolled in any of the programs.
func (r *StudentRepository) ListByPrograms(ctx context.Context, programs []string) ([]models.Student, error) {
	return r.listIn(ctx, "program", programs)
}

// ListByClasses returns active students in any of the classes.
func (r *StudentRepository) ListByClasses(ctx context.Context, classes []string) ([]models.Student, error) {
	return r.listIn(ctx, "class_name", classes)
}

// ListByNumbers returns students matching the given student numbers.
func (r *StudentRepository) ListByNumbers(ctx context.Context, numbers []string) ([]models.Student, error) {
	return r.listIn(ctx, "student_number", numbers)
}

func (r *StudentRepository) listIn(ctx context.Context, column string, values []string) ([]models.Student, error) {
	if len(values) == 0 {
		return nil, nil
	}
	placeholders := make([]string, len(values))
	args := make([]interface{}, len(values))
	for i, value := range values {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args[i] = value
	}
	query := fmt.Sprintf(`SELECT %s FROM students WHERE %s IN (%s) AND active = TRUE ORDER BY student_number`,
		studentColumns, column, strings.Join(placeholders, ","))
	var students []models.Student
	if err := r.db.SelectContext(ctx, &students, query, args...); err != nil {
		return nil, fmt.Errorf("list students by %s: %w", column, err)
	}
	return students, nil
}
