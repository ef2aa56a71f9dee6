package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/uni-finance-api/internal/models"
)

// FeeCategoryRepository handles persistence of fee categories.
type FeeCategoryRepository struct {
	db *sqlx.DB
}

// NewFeeCategoryRepository constructs the repository.
func NewFeeCategoryRepository(db *sqlx.DB) *FeeCategoryRepository {
	return &FeeCategoryRepository{db: db}
}

// List returns categories filtered by the provided criteria.
func (r *FeeCategoryRepository) List(ctx context.Context, filter models.FeeCategoryFilter) ([]models.FeeCategory, int, error) {
	base := `FROM fee_categories`
	var conditions []string
	var args []interface{}

	if filter.Type != "" {
		conditions = append(conditions, fmt.Sprintf("type = $%d", len(args)+1))
		args = append(args, filter.Type)
	}
	if filter.Active != nil {
		conditions = append(conditions, fmt.Sprintf("active = $%d", len(args)+1))
		args = append(args, *filter.Active)
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
		"name":       "name",
		"created_at": "created_at",
	}
	orderBy := allowedSorts[filter.SortBy]
	if orderBy == "" {
		orderBy = "name"
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

	query := fmt.Sprintf(`SELECT id, name, description, type, frequency, required, active, created_at, updated_at
        %s ORDER BY %s %s LIMIT %d OFFSET %d`, base+clause, orderBy, order, size, offset)

	var categories []models.FeeCategory
	if err := r.db.SelectContext(ctx, &categories, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list fee categories: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base+clause)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count fee categories: %w", err)
	}
	return categories, total, nil
}

// FindByID returns a category by its ID.
func (r *FeeCategoryRepository) FindByID(ctx context.Context, id string) (*models.FeeCategory, error) {
	const query = `SELECT id, name, description, type, frequency, required, active, created_at, updated_at FROM fee_categories WHERE id = $1`
	var category models.FeeCategory
	if err := r.db.GetContext(ctx, &category, query, id); err != nil {
		return nil, err
	}
	return &category, nil
}

// FindByName returns a category by its unique name.
func (r *FeeCategoryRepository) FindByName(ctx context.Context, name string) (*models.FeeCategory, error) {
	const query = `SELECT id, name, description, type, frequency, required, active, created_at, updated_at FROM fee_categories WHERE name = $1`
	var category models.FeeCategory
	if err := r.db.GetContext(ctx, &category, query, name); err != nil {
		return nil, err
	}
	return &category, nil
}

// Create persists a new category.
func (r *FeeCategoryRepository) Create(ctx context.Context, category *models.FeeCategory) error {
	if category.ID == "" {
		category.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	category.CreatedAt = now
	category.UpdatedAt = now
	const query = `INSERT INTO fee_categories (id, name, description, type, frequency, required, active, created_at, updated_at)
        VALUES (:id, :name, :description, :type, :frequency, :required, :active, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, category); err != nil {
		return fmt.Errorf("create fee category: %w", err)
	}
	return nil
}

// Update persists mutable category fields.
func (r *FeeCategoryRepository) Update(ctx context.Context, category *models.FeeCategory) error {
	category.UpdatedAt = time.Now().UTC()
	const query = `UPDATE fee_categories SET name = :name, description = :description, type = :type,
        frequency = :frequency, required = :required, active = :active, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, category); err != nil {
		return fmt.Errorf("update fee category: %w", err)
	}
	return nil
}

// Delete removes a category. Already-issued balances keep referencing items
// that point at the deleted category; no cascade is performed.
func (r *FeeCategoryRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM fee_categories WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("delete fee category: %w", err)
	}
	return nil
}
