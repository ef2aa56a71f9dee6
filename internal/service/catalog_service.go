package service

import (
	"context"
	"database/sql"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/noah-isme/uni-finance-api/internal/models"
	"github.com/noah-isme/uni-finance-api/internal/repository"
	appErrors "github.com/noah-isme/uni-finance-api/pkg/errors"
)

type feeCategoryRepository interface {
	List(ctx context.Context, filter models.FeeCategoryFilter) ([]models.FeeCategory, int, error)
	FindByID(ctx context.Context, id string) (*models.FeeCategory, error)
	FindByName(ctx context.Context, name string) (*models.FeeCategory, error)
	Create(ctx context.Context, category *models.FeeCategory) error
	Update(ctx context.Context, category *models.FeeCategory) error
	Delete(ctx context.Context, id string) error
}

type feeStructureRepository interface {
	List(ctx context.Context, filter models.FeeStructureFilter) ([]models.FeeStructure, int, error)
	FindByID(ctx context.Context, id string) (*models.FeeStructure, error)
	FindByNaturalKey(ctx context.Context, academicYear, semester, name string) (*models.FeeStructure, error)
	CreateWithItems(ctx context.Context, structure *models.FeeStructure) error
	Update(ctx context.Context, structure *models.FeeStructure) error
	SetActive(ctx context.Context, id string, active bool) error
	ListItems(ctx context.Context, structureID string) ([]models.FeeStructureItem, error)
}

// CreateFeeCategoryRequest describes category creation payload.
type CreateFeeCategoryRequest struct {
	Name        string `json:"name" validate:"required"`
	Description string `json:"description"`
	Type        string `json:"type" validate:"required,oneof=STANDARD ADDITIONAL"`
	Frequency   string `json:"frequency" validate:"required,oneof=ONE_TIME RECURRING"`
	Required    bool   `json:"required"`
}

// UpdateFeeCategoryRequest describes category update payload.
type UpdateFeeCategoryRequest struct {
	Name        string `json:"name" validate:"required"`
	Description string `json:"description"`
	Type        string `json:"type" validate:"required,oneof=STANDARD ADDITIONAL"`
	Frequency   string `json:"frequency" validate:"required,oneof=ONE_TIME RECURRING"`
	Required    bool   `json:"required"`
	Active      bool   `json:"active"`
}

// FeeStructureItemSpec describes one line of a structure being created.
type FeeStructureItemSpec struct {
	FeeCategoryID string          `json:"fee_category_id" validate:"required"`
	Amount        decimal.Decimal `json:"amount" validate:"required"`
	Required      bool            `json:"required"`
	Description   string          `json:"description"`
	DueDate       *time.Time      `json:"due_date"`
}

// CreateFeeStructureRequest describes structure creation payload. The
// structure and all items persist atomically.
type CreateFeeStructureRequest struct {
	Name         string                 `json:"name" validate:"required"`
	Description  string                 `json:"description"`
	AcademicYear string                 `json:"academic_year" validate:"required"`
	Semester     string                 `json:"semester" validate:"required"`
	Items        []FeeStructureItemSpec `json:"items" validate:"required,min=1,dive"`
}

// UpdateFeeStructureRequest describes structure update payload.
type UpdateFeeStructureRequest struct {
	Name         string `json:"name" validate:"required"`
	Description  string `json:"description"`
	AcademicYear string `json:"academic_year" validate:"required"`
	Semester     string `json:"semester" validate:"required"`
}

// CatalogService maintains the fee catalog: categories, structures and items.
type CatalogService struct {
	categories feeCategoryRepository
	structures feeStructureRepository
	validator  *validator.Validate
	logger     *zap.Logger
}

// NewCatalogService constructs CatalogService.
func NewCatalogService(categories feeCategoryRepository, structures feeStructureRepository, validate *validator.Validate, logger *zap.Logger) *CatalogService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CatalogService{categories: categories, structures: structures, validator: validate, logger: logger}
}

// ListCategories returns categories with pagination metadata.
func (s *CatalogService) ListCategories(ctx context.Context, filter models.FeeCategoryFilter) ([]models.FeeCategory, *models.Pagination, error) {
	categories, total, err := s.categories.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list fee categories")
	}
	return categories, paginationFor(filter.Page, filter.PageSize, total), nil
}

// GetCategory returns one category by ID.
func (s *CatalogService) GetCategory(ctx context.Context, id string) (*models.FeeCategory, error) {
	category, err := s.categories.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "fee category not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load fee category")
	}
	return category, nil
}

// CreateCategory registers a new fee category. The category name is the
// natural key; reusing it fails with a duplicate key error.
func (s *CatalogService) CreateCategory(ctx context.Context, req CreateFeeCategoryRequest) (*models.FeeCategory, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid fee category payload")
	}
	if _, err := s.categories.FindByName(ctx, req.Name); err == nil {
		return nil, appErrors.Clone(appErrors.ErrDuplicateKey, "fee category name already in use")
	} else if err != sql.ErrNoRows {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check category name")
	}

	category := &models.FeeCategory{
		Name:        req.Name,
		Description: req.Description,
		Type:        models.FeeCategoryType(req.Type),
		Frequency:   models.FeeFrequency(req.Frequency),
		Required:    req.Required,
		Active:      true,
	}
	if err := s.categories.Create(ctx, category); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, appErrors.Clone(appErrors.ErrDuplicateKey, "fee category name already in use")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create fee category")
	}
	return category, nil
}

// UpdateCategory updates an existing fee category.
func (s *CatalogService) UpdateCategory(ctx context.Context, id string, req UpdateFeeCategoryRequest) (*models.FeeCategory, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid fee category payload")
	}
	category, err := s.categories.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "fee category not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load fee category")
	}
	category.Name = req.Name
	category.Description = req.Description
	category.Type = models.FeeCategoryType(req.Type)
	category.Frequency = models.FeeFrequency(req.Frequency)
	category.Required = req.Required
	category.Active = req.Active
	if err := s.categories.Update(ctx, category); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, appErrors.Clone(appErrors.ErrDuplicateKey, "fee category name already in use")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update fee category")
	}
	return category, nil
}

// DeleteCategory removes a category definition.
func (s *CatalogService) DeleteCategory(ctx context.Context, id string) error {
	if _, err := s.categories.FindByID(ctx, id); err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "fee category not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load fee category")
	}
	if err := s.categories.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete fee category")
	}
	return nil
}

// ListStructures returns structures with pagination metadata. Inactive
// structures appear only when IncludeInactive is set, which backs the
// administrative recovery view.
func (s *CatalogService) ListStructures(ctx context.Context, filter models.FeeStructureFilter) ([]models.FeeStructure, *models.Pagination, error) {
	structures, total, err := s.structures.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list fee structures")
	}
	return structures, paginationFor(filter.Page, filter.PageSize, total), nil
}

// GetStructure returns one structure with its items.
func (s *CatalogService) GetStructure(ctx context.Context, id string) (*models.FeeStructure, error) {
	structure, err := s.structures.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "fee structure not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load fee structure")
	}
	return structure, nil
}

// CreateStructure persists a structure and its items atomically. The
// (academic year, semester, name) triple is the natural key.
func (s *CatalogService) CreateStructure(ctx context.Context, req CreateFeeStructureRequest) (*models.FeeStructure, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid fee structure payload")
	}
	if _, err := s.structures.FindByNaturalKey(ctx, req.AcademicYear, req.Semester, req.Name); err == nil {
		return nil, appErrors.Clone(appErrors.ErrDuplicateKey, "fee structure already exists for period")
	} else if err != sql.ErrNoRows {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check structure key")
	}

	items := make([]models.FeeStructureItem, 0, len(req.Items))
	for _, spec := range req.Items {
		if spec.Amount.Sign() <= 0 {
			return nil, appErrors.Clone(appErrors.ErrValidation, "item amount must be positive")
		}
		if _, err := s.categories.FindByID(ctx, spec.FeeCategoryID); err != nil {
			if err == sql.ErrNoRows {
				return nil, appErrors.Clone(appErrors.ErrNotFound, "fee category not found")
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load fee category")
		}
		items = append(items, models.FeeStructureItem{
			FeeCategoryID: spec.FeeCategoryID,
			Amount:        spec.Amount.Round(2),
			Required:      spec.Required,
			Description:   spec.Description,
			DueDate:       spec.DueDate,
		})
	}

	structure := &models.FeeStructure{
		Name:         req.Name,
		Description:  req.Description,
		AcademicYear: req.AcademicYear,
		Semester:     req.Semester,
		Active:       true,
		Items:        items,
	}
	if err := s.structures.CreateWithItems(ctx, structure); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, appErrors.Clone(appErrors.ErrDuplicateKey, "fee structure already exists for period")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create fee structure")
	}
	s.logger.Info("fee structure created",
		zap.String("structure_id", structure.ID),
		zap.String("academic_year", structure.AcademicYear),
		zap.String("semester", structure.Semester),
		zap.Int("items", len(structure.Items)))
	return structure, nil
}

// UpdateStructure updates structure header fields, leaving items untouched.
func (s *CatalogService) UpdateStructure(ctx context.Context, id string, req UpdateFeeStructureRequest) (*models.FeeStructure, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid fee structure payload")
	}
	structure, err := s.structures.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "fee structure not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load fee structure")
	}
	structure.Name = req.Name
	structure.Description = req.Description
	structure.AcademicYear = req.AcademicYear
	structure.Semester = req.Semester
	if err := s.structures.Update(ctx, structure); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, appErrors.Clone(appErrors.ErrDuplicateKey, "fee structure already exists for period")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update fee structure")
	}
	return structure, nil
}

// DeactivateStructure soft-deletes a structure: it disappears from default
// listings while already-issued balances stay untouched.
func (s *CatalogService) DeactivateStructure(ctx context.Context, id string) error {
	if err := s.structures.SetActive(ctx, id, false); err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "fee structure not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to deactivate fee structure")
	}
	return nil
}

// ReactivateStructure flips the active flag back on. It never regenerates
// balances.
func (s *CatalogService) ReactivateStructure(ctx context.Context, id string) error {
	if err := s.structures.SetActive(ctx, id, true); err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "fee structure not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reactivate fee structure")
	}
	return nil
}

func paginationFor(page, size, total int) *models.Pagination {
	if page < 1 {
		page = 1
	}
	if size <= 0 {
		size = 20
	}
	return &models.Pagination{Page: page, PageSize: size, TotalCount: total}
}
