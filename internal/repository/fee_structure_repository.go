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

// FeeStructureRepository handles persistence of fee structures and their items.
type FeeStructureRepository struct {
	db *sqlx.DB
}

// NewFeeStructureRepository constructs the repository.
func NewFeeStructureRepository(db *sqlx.DB) *FeeStructureRepository {
	return &FeeStructureRepository{db: db}
}

const structureColumns = `id, name, description, academic_year, semester, active, created_at, updated_at`
const itemColumns = `id, fee_structure_id, fee_category_id, amount, required, description, due_date`

// List returns structures filtered by the provided criteria. Inactive
// structures only appear when the filter asks for them.
func (r *FeeStructureRepository) List(ctx context.Context, filter models.FeeStructureFilter) ([]models.FeeStructure, int, error) {
	base := `FROM fee_structures`
	var conditions []string
	var args []interface{}

	if !filter.IncludeInactive {
		conditions = append(conditions, "active = TRUE")
	}
	if filter.AcademicYear != "" {
		conditions = append(conditions, fmt.Sprintf("academic_year = $%d", len(args)+1))
		args = append(args, filter.AcademicYear)
	}
	if filter.Semester != "" {
		conditions = append(conditions, fmt.Sprintf("semester = $%d", len(args)+1))
		args = append(args, filter.Semester)
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("name ILIKE $%d", len(args)+1))
		args = append(args, "%"+filter.Search+"%")
	}

	clause := ""
	if len(conditions) > 0 {
		clause = " WHERE " + strings.Join(conditions, " AND ")
	}

	allowedSorts := map[string]string{
		"name":          "name",
		"academic_year": "academic_year",
		"created_at":    "created_at",
	}
	orderBy := allowedSorts[filter.SortBy]
	if orderBy == "" {
		orderBy = "academic_year"
	}
	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "DESC"
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

	query := fmt.Sprintf(`SELECT %s %s ORDER BY %s %s LIMIT %d OFFSET %d`,
		structureColumns, base+clause, orderBy, order, size, offset)

	var structures []models.FeeStructure
	if err := r.db.SelectContext(ctx, &structures, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list fee structures: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base+clause)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count fee structures: %w", err)
	}
	return structures, total, nil
}

// FindByID returns a structure with its items.
func (r *FeeStructureRepository) FindByID(ctx context.Context, id string) (*models.FeeStructure, error) {
	query := fmt.Sprintf(`SELECT %s FROM fee_structures WHERE id = $1`, structureColumns)
	var structure models.FeeStructure
	if err := r.db.GetContext(ctx, &structure, query, id); err != nil {
		return nil, err
	}
	items, err := r.ListItems(ctx, id)
	if err != nil {
		return nil, err
	}
	structure.Items = items
	return &structure, nil
}

// FindByNaturalKey returns a structure by its (academic year, semester, name) key.
func (r *FeeStructureRepository) FindByNaturalKey(ctx context.Context, academicYear, semester, name string) (*models.FeeStructure, error) {
	query := fmt.Sprintf(`SELECT %s FROM fee_structures WHERE academic_year = $1 AND semester = $2 AND name = $3`, structureColumns)
	var structure models.FeeStructure
	if err := r.db.GetContext(ctx, &structure, query, academicYear, semester, name); err != nil {
		return nil, err
	}
	return &structure, nil
}

// CreateWithItems persists a structure and all of its items in one
// transaction so a partial item set never exists.
func (r *FeeStructureRepository) CreateWithItems(ctx context.Context, structure *models.FeeStructure) error {
	if structure.ID == "" {
		structure.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	structure.CreatedAt = now
	structure.UpdatedAt = now

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create structure: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	const insertStructure = `INSERT INTO fee_structures (id, name, description, academic_year, semester, active, created_at, updated_at)
        VALUES (:id, :name, :description, :academic_year, :semester, :active, :created_at, :updated_at)`
	if _, err := tx.NamedExecContext(ctx, insertStructure, structure); err != nil {
		return fmt.Errorf("create fee structure: %w", err)
	}

	const insertItem = `INSERT INTO fee_structure_items (id, fee_structure_id, fee_category_id, amount, required, description, due_date)
        VALUES (:id, :fee_structure_id, :fee_category_id, :amount, :required, :description, :due_date)`
	for i := range structure.Items {
		item := &structure.Items[i]
		if item.ID == "" {
			item.ID = uuid.NewString()
		}
		item.FeeStructureID = structure.ID
		if _, err := tx.NamedExecContext(ctx, insertItem, item); err != nil {
			return fmt.Errorf("create structure item: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit create structure: %w", err)
	}
	return nil
}

// Update persists mutable structure fields, leaving items untouched.
func (r *FeeStructureRepository) Update(ctx context.Context, structure *models.FeeStructure) error {
	structure.UpdatedAt = time.Now().UTC()
	const query = `UPDATE fee_structures SET name = :name, description = :description,
        academic_year = :academic_year, semester = :semester, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, structure); err != nil {
		return fmt.Errorf("update fee structure: %w", err)
	}
	return nil
}

// SetActive flips the active flag. Deactivation removes the structure from
// default listings without touching already-issued balances.
func (r *FeeStructureRepository) SetActive(ctx context.Context, id string, active bool) error {
	const query = `UPDATE fee_structures SET active = $2, updated_at = $3 WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id, active, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("set structure active: %w", err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// ListItems returns a structure's items in insertion order.
func (r *FeeStructureRepository) ListItems(ctx context.Context, structureID string) ([]models.FeeStructureItem, error) {
	query := fmt.Sprintf(`SELECT %s FROM fee_structure_items WHERE fee_structure_id = $1 ORDER BY id`, itemColumns)
	var items []models.FeeStructureItem
	if err := r.db.SelectContext(ctx, &items, query, structureID); err != nil {
		return nil, fmt.Errorf("list structure items: %w", err)
	}
	return items, nil
}

// FindItemByID returns a single structure item.
func (r *FeeStructureRepository) FindItemByID(ctx context.Context, id string) (*models.FeeStructureItem, error) {
	query := fmt.Sprintf(`SELECT %s FROM fee_structure_items WHERE id = $1`, itemColumns)
	var item models.FeeStructureItem
	if err := r.db.GetContext(ctx, &item, query, id); err != nil {
		return nil, err
	}
	return &item, nil
}

// FindItemByCategoryAndAmount locates an item inside a structure matching the
// category and amount, used by the legacy migration's find-or-create step.
func (r *FeeStructureRepository) FindItemByCategoryAndAmount(ctx context.Context, structureID, categoryID string, amount decimal.Decimal) (*models.FeeStructureItem, error) {
	query := fmt.Sprintf(`SELECT %s FROM fee_structure_items WHERE fee_structure_id = $1 AND fee_category_id = $2 AND amount = $3`, itemColumns)
	var item models.FeeStructureItem
	if err := r.db.GetContext(ctx, &item, query, structureID, categoryID, amount); err != nil {
		return nil, err
	}
	return &item, nil
}

// CreateItem appends a single item to an existing structure.
func (r *FeeStructureRepository) CreateItem(ctx context.Context, item *models.FeeStructureItem) error {
	if item.ID == "" {
		item.ID = uuid.NewString()
	}
	const query = `INSERT INTO fee_structure_items (id, fee_structure_id, fee_category_id, amount, required, description, due_date)
        VALUES (:id, :fee_structure_id, :fee_category_id, :amount, :required, :description, :due_date)`
	if _, err := r.db.NamedExecContext(ctx, query, item); err != nil {
		return fmt.Errorf("create structure item: %w", err)
	}
	return nil
}
