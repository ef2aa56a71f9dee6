package service

import (
	"context"
	"database/sql"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/noah-isme/uni-finance-api/internal/models"
	"github.com/noah-isme/uni-finance-api/internal/repository"
	appErrors "github.com/noah-isme/uni-finance-api/pkg/errors"
)

type assignmentRepository interface {
	Create(ctx context.Context, assignment *models.StudentFeeAssignment) error
	Exists(ctx context.Context, studentNumber, feeStructureID, academicYear, semester string) (bool, error)
	FindByID(ctx context.Context, id string) (*models.StudentFeeAssignment, error)
	Delete(ctx context.Context, id string) error
	ListStudentNumbersByStructure(ctx context.Context, feeStructureID string) ([]string, error)
	CreateAllWithBalances(ctx context.Context, assignments []models.StudentFeeAssignment, balances []models.StudentFeeBalance) error
}

type structureReader interface {
	FindByID(ctx context.Context, id string) (*models.FeeStructure, error)
}

type studentDirectory interface {
	FindByNumber(ctx context.Context, studentNumber string) (*models.Student, error)
	ListActive(ctx context.Context) ([]models.Student, error)
}

type balanceGenerator interface {
	GenerateForStudent(ctx context.Context, studentNumber, feeStructureID string) ([]models.StudentFeeBalance, error)
}

type structureReconciler interface {
	ReconcileStudentStructure(ctx context.Context, studentNumber, feeStructureID string) (int, error)
}

type outstandingReader interface {
	SumOutstandingByStudents(ctx context.Context, excludeStructureID string) (map[string]decimal.Decimal, error)
}

// AssignFeeStructureRequest describes a single assignment payload.
type AssignFeeStructureRequest struct {
	StudentNumber  string `json:"student_number" validate:"required"`
	FeeStructureID string `json:"fee_structure_id" validate:"required"`
	AcademicYear   string `json:"academic_year" validate:"required"`
	Semester       string `json:"semester" validate:"required"`
	AssignedBy     string `json:"assigned_by"`
}

// BulkAssignRequest describes a bulk assignment payload.
type BulkAssignRequest struct {
	FeeStructureID string   `json:"fee_structure_id" validate:"required"`
	StudentNumbers []string `json:"student_numbers" validate:"required,min=1"`
	AssignedBy     string   `json:"assigned_by"`
}

// AssignmentService binds students to fee structures and drives the balance
// generation that follows.
type AssignmentService struct {
	assignments assignmentRepository
	structures  structureReader
	students    studentDirectory
	balances    balanceGenerator
	outstanding outstandingReader
	reconciler  structureReconciler
	cache       studentInvalidator
	metrics     *MetricsService
	dueWindow   time.Duration
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewAssignmentService constructs AssignmentService.
func NewAssignmentService(assignments assignmentRepository, structures structureReader, students studentDirectory, balances balanceGenerator, outstanding outstandingReader, reconciler structureReconciler, cache studentInvalidator, metrics *MetricsService, dueWindow time.Duration, validate *validator.Validate, logger *zap.Logger) *AssignmentService {
	if dueWindow <= 0 {
		dueWindow = 30 * 24 * time.Hour
	}
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AssignmentService{
		assignments: assignments,
		structures:  structures,
		students:    students,
		balances:    balances,
		outstanding: outstanding,
		reconciler:  reconciler,
		cache:       cache,
		metrics:     metrics,
		dueWindow:   dueWindow,
		validator:   validate,
		logger:      logger,
	}
}

// Assign binds one student to a structure for one period and generates the
// per-item balances. A second call with the same key fails with a duplicate
// key error and leaves exactly one assignment row.
func (s *AssignmentService) Assign(ctx context.Context, req AssignFeeStructureRequest) (*models.StudentFeeAssignment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid assignment payload")
	}
	if _, err := s.students.FindByNumber(ctx, req.StudentNumber); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	if _, err := s.structures.FindByID(ctx, req.FeeStructureID); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "fee structure not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load fee structure")
	}
	exists, err := s.assignments.Exists(ctx, req.StudentNumber, req.FeeStructureID, req.AcademicYear, req.Semester)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check assignment")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrDuplicateKey, "student already assigned to structure for period")
	}

	assignment := &models.StudentFeeAssignment{
		StudentNumber:  req.StudentNumber,
		FeeStructureID: req.FeeStructureID,
		AcademicYear:   req.AcademicYear,
		Semester:       req.Semester,
		AssignedAt:     time.Now().UTC(),
		AssignedBy:     req.AssignedBy,
	}
	if err := s.assignments.Create(ctx, assignment); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, appErrors.Clone(appErrors.ErrDuplicateKey, "student already assigned to structure for period")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create assignment")
	}

	if _, err := s.balances.GenerateForStudent(ctx, req.StudentNumber, req.FeeStructureID); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "assignment created but balance generation failed")
	}
	return assignment, nil
}

// Remove deletes an assignment record. Balances issued from it stay in the
// ledger; removal only targets the binding.
func (s *AssignmentService) Remove(ctx context.Context, id string) error {
	if _, err := s.assignments.FindByID(ctx, id); err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "assignment not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load assignment")
	}
	if err := s.assignments.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete assignment")
	}
	return nil
}

// BulkAssign applies the single-assignment operation per student without
// aborting the batch on individual failures, then reconciles the new
// balances against payments the student already made. The aggregate result
// is the contract: callers inspect counts, not a thrown error.
func (s *AssignmentService) BulkAssign(ctx context.Context, req BulkAssignRequest) (*models.BatchResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid bulk assignment payload")
	}
	structure, err := s.structures.FindByID(ctx, req.FeeStructureID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "fee structure not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load fee structure")
	}

	result := &models.BatchResult{}
	for _, studentNumber := range req.StudentNumbers {
		_, err := s.Assign(ctx, AssignFeeStructureRequest{
			StudentNumber:  studentNumber,
			FeeStructureID: structure.ID,
			AcademicYear:   structure.AcademicYear,
			Semester:       structure.Semester,
			AssignedBy:     req.AssignedBy,
		})
		if err != nil {
			result.Failed = append(result.Failed, models.BatchFailure{StudentNumber: studentNumber, Reason: err.Error()})
			s.metrics.RecordBatchFailure("bulk_assign")
			s.logger.Warn("bulk assign item failed",
				zap.String("student_number", studentNumber),
				zap.String("structure_id", structure.ID),
				zap.Error(err))
			continue
		}
		if _, err := s.reconciler.ReconcileStudentStructure(ctx, studentNumber, structure.ID); err != nil {
			s.logger.Warn("post-assign reconciliation failed",
				zap.String("student_number", studentNumber),
				zap.String("structure_id", structure.ID),
				zap.Error(err))
		}
		result.Succeeded = append(result.Succeeded, studentNumber)
	}
	return result, nil
}

// AssignToAll onboards every active student not yet bound to the structure.
// Positive outstanding debt from other structures is carried into the first
// item of the new ledger rows, so prior-period debt surfaces inside the new
// period instead of as a separate line. All writes flush together in one
// unit of work.
func (s *AssignmentService) AssignToAll(ctx context.Context, feeStructureID, assignedBy string) (*models.AssignToAllResult, error) {
	structure, err := s.structures.FindByID(ctx, feeStructureID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "fee structure not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load fee structure")
	}

	students, err := s.students.ListActive(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list students")
	}
	assignedNumbers, err := s.assignments.ListStudentNumbersByStructure(ctx, feeStructureID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list assigned students")
	}
	alreadyAssigned := make(map[string]struct{}, len(assignedNumbers))
	for _, number := range assignedNumbers {
		alreadyAssigned[number] = struct{}{}
	}

	carryTotals, err := s.outstanding.SumOutstandingByStudents(ctx, feeStructureID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sum carried balances")
	}

	now := time.Now().UTC()
	result := &models.AssignToAllResult{TotalOutstandingAmount: decimal.Zero}
	var assignments []models.StudentFeeAssignment
	var balances []models.StudentFeeBalance

	for _, student := range students {
		if _, ok := alreadyAssigned[student.StudentNumber]; ok {
			continue
		}
		assignments = append(assignments, models.StudentFeeAssignment{
			ID:             uuid.NewString(),
			StudentNumber:  student.StudentNumber,
			FeeStructureID: structure.ID,
			AcademicYear:   structure.AcademicYear,
			Semester:       structure.Semester,
			AssignedAt:     now,
			AssignedBy:     assignedBy,
		})

		carried := carryTotals[student.StudentNumber]
		if carried.Sign() > 0 {
			result.OutstandingBalancesAdded++
			result.TotalOutstandingAmount = result.TotalOutstandingAmount.Add(carried)
		}
		for i, item := range structure.Items {
			dueDate := now.Add(s.dueWindow)
			if item.DueDate != nil {
				dueDate = *item.DueDate
			}
			total := item.Amount
			if i == 0 && carried.Sign() > 0 {
				// Carried debt raises the charged total too, keeping
				// outstanding == max(0, total - paid) intact.
				total = total.Add(carried)
			}
			balances = append(balances, models.StudentFeeBalance{
				ID:                 uuid.NewString(),
				StudentNumber:      student.StudentNumber,
				FeeStructureItemID: item.ID,
				TotalAmount:        total,
				AmountPaid:         decimal.Zero,
				OutstandingBalance: total,
				DueDate:            dueDate,
				Status:             models.BalanceStatusOutstanding,
				Active:             true,
				CreatedAt:          now,
				UpdatedAt:          now,
			})
		}
		result.AssignedCount++
	}

	if len(assignments) > 0 {
		if err := s.assignments.CreateAllWithBalances(ctx, assignments, balances); err != nil {
			if repository.IsUniqueViolation(err) {
				// A concurrent writer created rows between the snapshot and the
				// flush; the batch now contradicts the stored ledger.
				return nil, appErrors.Wrap(err, appErrors.ErrInconsistentState.Code, appErrors.ErrInconsistentState.Status, "ledger changed during assign-to-all")
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist assign-to-all")
		}
		for _, assignment := range assignments {
			if s.cache != nil {
				s.cache.InvalidateStudent(ctx, assignment.StudentNumber)
			}
		}
	}

	s.logger.Info("assign-to-all finished",
		zap.String("structure_id", structure.ID),
		zap.Int("assigned", result.AssignedCount),
		zap.Int("carried", result.OutstandingBalancesAdded),
		zap.String("carried_total", result.TotalOutstandingAmount.StringFixed(2)))
	return result, nil
}
