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

type additionalFeeRepository interface {
	List(ctx context.Context, activeOnly bool) ([]models.AdditionalFee, error)
	FindByID(ctx context.Context, id string) (*models.AdditionalFee, error)
	Create(ctx context.Context, fee *models.AdditionalFee) error
	Update(ctx context.Context, fee *models.AdditionalFee) error
	Delete(ctx context.Context, id string) error
	ExistsForStudent(ctx context.Context, studentNumber, feeID string) (bool, error)
	CreateStudentFee(ctx context.Context, studentFee *models.StudentAdditionalFee) error
	ListStudentFees(ctx context.Context, studentNumber string) ([]models.StudentAdditionalFee, error)
}

type scopedStudentDirectory interface {
	ListActive(ctx context.Context) ([]models.Student, error)
	ListByPrograms(ctx context.Context, programs []string) ([]models.Student, error)
	ListByClasses(ctx context.Context, classes []string) ([]models.Student, error)
	ListByNumbers(ctx context.Context, numbers []string) ([]models.Student, error)
}

// CreateAdditionalFeeRequest describes a fee definition payload.
type CreateAdditionalFeeRequest struct {
	Name          string          `json:"name" validate:"required"`
	Description   string          `json:"description"`
	Amount        decimal.Decimal `json:"amount" validate:"required"`
	Frequency     string          `json:"frequency" validate:"required,oneof=ONE_TIME RECURRING"`
	Applicability string          `json:"applicability" validate:"required,oneof=ALL PROGRAM CLASS INDIVIDUAL"`
	Scope         []string        `json:"scope"`
	ValidFrom     *time.Time      `json:"valid_from"`
	ValidUntil    *time.Time      `json:"valid_until"`
	CreatedBy     string          `json:"created_by"`
}

// UpdateAdditionalFeeRequest describes an update payload. Applied snapshots
// are never touched by updates.
type UpdateAdditionalFeeRequest struct {
	Name          string          `json:"name" validate:"required"`
	Description   string          `json:"description"`
	Amount        decimal.Decimal `json:"amount" validate:"required"`
	Frequency     string          `json:"frequency" validate:"required,oneof=ONE_TIME RECURRING"`
	Applicability string          `json:"applicability" validate:"required,oneof=ALL PROGRAM CLASS INDIVIDUAL"`
	Scope         []string        `json:"scope"`
	ValidFrom     *time.Time      `json:"valid_from"`
	ValidUntil    *time.Time      `json:"valid_until"`
	Active        *bool           `json:"active"`
}

// AdditionalFeeService manages fee definitions and fans them out to the
// students their applicability selects.
type AdditionalFeeService struct {
	fees      additionalFeeRepository
	students  scopedStudentDirectory
	cache     studentInvalidator
	metrics   *MetricsService
	dueWindow time.Duration
	validator *validator.Validate
	logger    *zap.Logger
}

// NewAdditionalFeeService constructs AdditionalFeeService.
func NewAdditionalFeeService(fees additionalFeeRepository, students scopedStudentDirectory, cache studentInvalidator, metrics *MetricsService, dueWindow time.Duration, validate *validator.Validate, logger *zap.Logger) *AdditionalFeeService {
	if dueWindow <= 0 {
		dueWindow = 30 * 24 * time.Hour
	}
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AdditionalFeeService{
		fees:      fees,
		students:  students,
		cache:     cache,
		metrics:   metrics,
		dueWindow: dueWindow,
		validator: validate,
		logger:    logger,
	}
}

// List returns fee definitions.
func (s *AdditionalFeeService) List(ctx context.Context, activeOnly bool) ([]models.AdditionalFee, error) {
	fees, err := s.fees.List(ctx, activeOnly)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list additional fees")
	}
	return fees, nil
}

// Get returns a fee definition by ID.
func (s *AdditionalFeeService) Get(ctx context.Context, id string) (*models.AdditionalFee, error) {
	fee, err := s.fees.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "additional fee not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load additional fee")
	}
	return fee, nil
}

// Create registers a new fee definition.
func (s *AdditionalFeeService) Create(ctx context.Context, req CreateAdditionalFeeRequest) (*models.AdditionalFee, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid additional fee payload")
	}
	applicability := models.FeeApplicability(req.Applicability)
	if err := validateScope(applicability, req.Scope); err != nil {
		return nil, err
	}
	if req.Amount.Sign() <= 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "fee amount must be positive")
	}

	fee := &models.AdditionalFee{
		Name:          req.Name,
		Description:   req.Description,
		Amount:        req.Amount.Round(2),
		Frequency:     models.FeeFrequency(req.Frequency),
		Applicability: applicability,
		Scope:         req.Scope,
		ValidFrom:     req.ValidFrom,
		ValidUntil:    req.ValidUntil,
		Active:        true,
		CreatedBy:     req.CreatedBy,
	}
	if err := s.fees.Create(ctx, fee); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create additional fee")
	}
	return fee, nil
}

// Update rewrites a fee definition.
func (s *AdditionalFeeService) Update(ctx context.Context, id string, req UpdateAdditionalFeeRequest) (*models.AdditionalFee, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid additional fee payload")
	}
	applicability := models.FeeApplicability(req.Applicability)
	if err := validateScope(applicability, req.Scope); err != nil {
		return nil, err
	}
	if req.Amount.Sign() <= 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "fee amount must be positive")
	}

	fee, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	fee.Name = req.Name
	fee.Description = req.Description
	fee.Amount = req.Amount.Round(2)
	fee.Frequency = models.FeeFrequency(req.Frequency)
	fee.Applicability = applicability
	fee.Scope = req.Scope
	fee.ValidFrom = req.ValidFrom
	fee.ValidUntil = req.ValidUntil
	if req.Active != nil {
		fee.Active = *req.Active
	}
	if err := s.fees.Update(ctx, fee); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update additional fee")
	}
	return fee, nil
}

// Delete removes a fee definition. Applied per-student snapshots survive.
func (s *AdditionalFeeService) Delete(ctx context.Context, id string) error {
	if err := s.fees.Delete(ctx, id); err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "additional fee not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete additional fee")
	}
	return nil
}

// Apply fans the fee out to every student its applicability selects. Students
// who already carry the fee are skipped, individual failures are recorded and
// the fan-out keeps going. The amount written per student is a snapshot of
// the definition at apply time.
func (s *AdditionalFeeService) Apply(ctx context.Context, feeID string) (*models.ApplyFeeResult, error) {
	fee, err := s.Get(ctx, feeID)
	if err != nil {
		return nil, err
	}
	if !fee.Active {
		return nil, appErrors.Clone(appErrors.ErrValidation, "cannot apply an inactive fee")
	}
	now := time.Now().UTC()
	if fee.ValidFrom != nil && now.Before(*fee.ValidFrom) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "fee is not yet valid")
	}
	if fee.ValidUntil != nil && now.After(*fee.ValidUntil) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "fee validity has expired")
	}

	targets, err := s.resolveTargets(ctx, fee)
	if err != nil {
		return nil, err
	}

	result := &models.ApplyFeeResult{FeeID: fee.ID, TargetCount: len(targets)}
	dueDate := now.Add(s.dueWindow)
	if fee.ValidUntil != nil {
		dueDate = *fee.ValidUntil
	}
	for _, student := range targets {
		exists, err := s.fees.ExistsForStudent(ctx, student.StudentNumber, fee.ID)
		if err != nil {
			result.FailedStudents = append(result.FailedStudents, student.StudentNumber)
			s.metrics.RecordBatchFailure("apply_additional_fee")
			s.logger.Warn("additional fee check failed",
				zap.String("student_number", student.StudentNumber),
				zap.String("fee_id", fee.ID),
				zap.Error(err))
			continue
		}
		if exists {
			result.SkippedCount++
			continue
		}
		studentFee := &models.StudentAdditionalFee{
			StudentNumber:   student.StudentNumber,
			AdditionalFeeID: fee.ID,
			Amount:          fee.Amount,
			DueDate:         dueDate,
			Status:          models.BalanceStatusOutstanding,
		}
		if err := s.fees.CreateStudentFee(ctx, studentFee); err != nil {
			if repository.IsUniqueViolation(err) {
				result.SkippedCount++
				continue
			}
			result.FailedStudents = append(result.FailedStudents, student.StudentNumber)
			s.metrics.RecordBatchFailure("apply_additional_fee")
			s.logger.Warn("additional fee apply failed",
				zap.String("student_number", student.StudentNumber),
				zap.String("fee_id", fee.ID),
				zap.Error(err))
			continue
		}
		result.AppliedCount++
		if s.cache != nil {
			s.cache.InvalidateStudent(ctx, student.StudentNumber)
		}
	}

	s.logger.Info("additional fee applied",
		zap.String("fee_id", fee.ID),
		zap.Int("targets", result.TargetCount),
		zap.Int("applied", result.AppliedCount),
		zap.Int("skipped", result.SkippedCount),
		zap.Int("failed", len(result.FailedStudents)))
	return result, nil
}

// ListStudentFees returns a student's applied additional fees.
func (s *AdditionalFeeService) ListStudentFees(ctx context.Context, studentNumber string) ([]models.StudentAdditionalFee, error) {
	fees, err := s.fees.ListStudentFees(ctx, studentNumber)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list student fees")
	}
	return fees, nil
}

// resolveTargets expands the applicability into a deduplicated student set.
func (s *AdditionalFeeService) resolveTargets(ctx context.Context, fee *models.AdditionalFee) ([]models.Student, error) {
	var (
		students []models.Student
		err      error
	)
	switch fee.Applicability {
	case models.FeeApplicabilityAll:
		students, err = s.students.ListActive(ctx)
	case models.FeeApplicabilityProgram:
		students, err = s.students.ListByPrograms(ctx, fee.Scope)
	case models.FeeApplicabilityClass:
		students, err = s.students.ListByClasses(ctx, fee.Scope)
	case models.FeeApplicabilityIndividual:
		students, err = s.students.ListByNumbers(ctx, fee.Scope)
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown fee applicability")
	}
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve fee targets")
	}

	seen := make(map[string]struct{}, len(students))
	result := students[:0]
	for _, student := range students {
		if _, ok := seen[student.StudentNumber]; ok {
			continue
		}
		seen[student.StudentNumber] = struct{}{}
		result = append(result, student)
	}
	return result, nil
}

func validateScope(applicability models.FeeApplicability, scope []string) error {
	switch applicability {
	case models.FeeApplicabilityAll:
		if len(scope) > 0 {
			return appErrors.Clone(appErrors.ErrValidation, "scope must be empty for ALL applicability")
		}
	case models.FeeApplicabilityProgram, models.FeeApplicabilityClass, models.FeeApplicabilityIndividual:
		if len(scope) == 0 {
			return appErrors.Clone(appErrors.ErrValidation, "scope is required for targeted applicability")
		}
	}
	return nil
}
