package service

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/noah-isme/uni-finance-api/internal/models"
	"github.com/noah-isme/uni-finance-api/internal/repository"
	appErrors "github.com/noah-isme/uni-finance-api/pkg/errors"
)

// Names given to the synthetic catalog entries backing migrated rows.
const (
	legacyCategoryName  = "Legacy Balance"
	legacyStructureName = "Legacy Carryover"
)

type legacyBalanceReader interface {
	ListAll(ctx context.Context) ([]models.LegacyStudentBalance, error)
}

type migrationCategoryRepository interface {
	FindByName(ctx context.Context, name string) (*models.FeeCategory, error)
	Create(ctx context.Context, category *models.FeeCategory) error
}

type migrationStructureRepository interface {
	FindByNaturalKey(ctx context.Context, academicYear, semester, name string) (*models.FeeStructure, error)
	CreateWithItems(ctx context.Context, structure *models.FeeStructure) error
	FindItemByCategoryAndAmount(ctx context.Context, structureID, categoryID string, amount decimal.Decimal) (*models.FeeStructureItem, error)
	CreateItem(ctx context.Context, item *models.FeeStructureItem) error
}

type migrationBalanceRepository interface {
	FindByStudentAndItem(ctx context.Context, studentNumber, itemID string) (*models.StudentFeeBalance, error)
	Create(ctx context.Context, balance *models.StudentFeeBalance) error
}

// MigrationService rewrites rows of the deprecated single-balance table into
// per-item ledger rows. Each legacy row becomes a balance against a synthetic
// carryover structure for its period; the legacy table is only read.
type MigrationService struct {
	legacy     legacyBalanceReader
	categories migrationCategoryRepository
	structures migrationStructureRepository
	balances   migrationBalanceRepository
	cache      studentInvalidator
	dueWindow  time.Duration
	logger     *zap.Logger
}

// NewMigrationService constructs MigrationService.
func NewMigrationService(legacy legacyBalanceReader, categories migrationCategoryRepository, structures migrationStructureRepository, balances migrationBalanceRepository, cache studentInvalidator, dueWindow time.Duration, logger *zap.Logger) *MigrationService {
	if dueWindow <= 0 {
		dueWindow = 30 * 24 * time.Hour
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MigrationService{
		legacy:     legacy,
		categories: categories,
		structures: structures,
		balances:   balances,
		cache:      cache,
		dueWindow:  dueWindow,
		logger:     logger,
	}
}

// Migrate walks every legacy row. Rows whose ledger counterpart already
// exists are skipped, so re-running after a partial failure finishes the
// remainder without duplicating anything. Per-row failures are recorded and
// the walk continues.
func (s *MigrationService) Migrate(ctx context.Context) (*models.MigrationResult, error) {
	rows, err := s.legacy.ListAll(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to read legacy balances")
	}

	category, err := s.findOrCreateCategory(ctx)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	result := &models.MigrationResult{}
	structureCache := make(map[string]*models.FeeStructure)

	for _, row := range rows {
		structureKey := row.AcademicYear + "/" + row.Semester
		structure, ok := structureCache[structureKey]
		if !ok {
			structure, err = s.findOrCreateStructure(ctx, row.AcademicYear, row.Semester)
			if err != nil {
				result.Errored++
				result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", row.ID, err))
				continue
			}
			structureCache[structureKey] = structure
		}

		item, err := s.findOrCreateItem(ctx, structure, category, row.TotalAmount)
		if err != nil {
			result.Errored++
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", row.ID, err))
			continue
		}

		if _, err := s.balances.FindByStudentAndItem(ctx, row.StudentNumber, item.ID); err == nil {
			result.Skipped++
			continue
		} else if err != sql.ErrNoRows {
			result.Errored++
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", row.ID, err))
			continue
		}

		status, known := ParseLegacyStatus(row.Status)
		if !known {
			s.logger.Warn("unknown legacy status, defaulting to outstanding",
				zap.String("legacy_id", row.ID),
				zap.String("student_number", row.StudentNumber),
				zap.String("raw_status", row.Status))
		}
		dueDate := now.Add(s.dueWindow)
		if row.DueDate != nil {
			dueDate = *row.DueDate
		}
		balance := models.StudentFeeBalance{
			StudentNumber:      row.StudentNumber,
			FeeStructureItemID: item.ID,
			TotalAmount:        row.TotalAmount,
			AmountPaid:         row.AmountPaid,
			OutstandingBalance: ComputeOutstanding(row.TotalAmount, row.AmountPaid),
			DueDate:            dueDate,
			Status:             status,
			Active:             true,
		}
		if err := s.balances.Create(ctx, &balance); err != nil {
			if repository.IsUniqueViolation(err) {
				result.Skipped++
				continue
			}
			result.Errored++
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", row.ID, err))
			continue
		}
		result.Migrated++
		if s.cache != nil {
			s.cache.InvalidateStudent(ctx, row.StudentNumber)
		}
	}

	s.logger.Info("legacy migration finished",
		zap.Int("migrated", result.Migrated),
		zap.Int("skipped", result.Skipped),
		zap.Int("errored", result.Errored))
	return result, nil
}

func (s *MigrationService) findOrCreateCategory(ctx context.Context) (*models.FeeCategory, error) {
	category, err := s.categories.FindByName(ctx, legacyCategoryName)
	if err == nil {
		return category, nil
	}
	if err != sql.ErrNoRows {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to look up legacy category")
	}
	category = &models.FeeCategory{
		Name:        legacyCategoryName,
		Description: "Balances carried over from the retired per-semester table",
		Type:        models.FeeCategoryTypeStandard,
		Frequency:   models.FeeFrequencyOneTime,
		Required:    true,
		Active:      true,
	}
	if err := s.categories.Create(ctx, category); err != nil {
		if repository.IsUniqueViolation(err) {
			return s.categories.FindByName(ctx, legacyCategoryName)
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create legacy category")
	}
	return category, nil
}

func (s *MigrationService) findOrCreateStructure(ctx context.Context, academicYear, semester string) (*models.FeeStructure, error) {
	structure, err := s.structures.FindByNaturalKey(ctx, academicYear, semester, legacyStructureName)
	if err == nil {
		return structure, nil
	}
	if err != sql.ErrNoRows {
		return nil, fmt.Errorf("look up carryover structure: %w", err)
	}
	structure = &models.FeeStructure{
		Name:         legacyStructureName,
		Description:  "Synthetic structure holding migrated legacy balances",
		AcademicYear: academicYear,
		Semester:     semester,
		Active:       true,
	}
	if err := s.structures.CreateWithItems(ctx, structure); err != nil {
		if repository.IsUniqueViolation(err) {
			return s.structures.FindByNaturalKey(ctx, academicYear, semester, legacyStructureName)
		}
		return nil, fmt.Errorf("create carryover structure: %w", err)
	}
	return structure, nil
}

func (s *MigrationService) findOrCreateItem(ctx context.Context, structure *models.FeeStructure, category *models.FeeCategory, amount decimal.Decimal) (*models.FeeStructureItem, error) {
	item, err := s.structures.FindItemByCategoryAndAmount(ctx, structure.ID, category.ID, amount)
	if err == nil {
		return item, nil
	}
	if err != sql.ErrNoRows {
		return nil, fmt.Errorf("look up carryover item: %w", err)
	}
	item = &models.FeeStructureItem{
		FeeStructureID: structure.ID,
		FeeCategoryID:  category.ID,
		Amount:         amount,
		Required:       true,
		Description:    "Migrated legacy balance",
	}
	if err := s.structures.CreateItem(ctx, item); err != nil {
		return nil, fmt.Errorf("create carryover item: %w", err)
	}
	return item, nil
}
