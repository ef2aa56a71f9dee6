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

type feeBalanceRepository interface {
	Create(ctx context.Context, balance *models.StudentFeeBalance) error
	FindByID(ctx context.Context, id string) (*models.StudentFeeBalance, error)
	FindByStudentAndItem(ctx context.Context, studentNumber, itemID string) (*models.StudentFeeBalance, error)
	ListByStudent(ctx context.Context, studentNumber string) ([]models.StudentFeeBalance, error)
	List(ctx context.Context, filter models.BalanceFilter) ([]models.StudentFeeBalance, int, error)
	UpdateAmounts(ctx context.Context, id string, amountPaid, outstanding decimal.Decimal, status models.BalanceStatus) error
}

type structureItemReader interface {
	ListItems(ctx context.Context, structureID string) ([]models.FeeStructureItem, error)
}

type additionalFeeReader interface {
	SumOpenByStudent(ctx context.Context, studentNumber string) (decimal.Decimal, error)
}

type balanceCache interface {
	Enabled() bool
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	InvalidateStudent(ctx context.Context, studentNumber string)
}

// ApplyPaymentRequest describes a manual payment application payload.
type ApplyPaymentRequest struct {
	Amount decimal.Decimal `json:"amount" validate:"required"`
	Notes  string          `json:"notes"`
}

// BalanceService owns the per-item ledger: generation, payment application
// and recalculation.
type BalanceService struct {
	balances       feeBalanceRepository
	items          structureItemReader
	additionalFees additionalFeeReader
	cache          balanceCache
	dueWindow      time.Duration
	summaryTTL     time.Duration
	validator      *validator.Validate
	logger         *zap.Logger
}

// NewBalanceService constructs BalanceService.
func NewBalanceService(balances feeBalanceRepository, items structureItemReader, additionalFees additionalFeeReader, cache balanceCache, dueWindow, summaryTTL time.Duration, validate *validator.Validate, logger *zap.Logger) *BalanceService {
	if dueWindow <= 0 {
		dueWindow = 30 * 24 * time.Hour
	}
	if summaryTTL <= 0 {
		summaryTTL = 15 * time.Minute
	}
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BalanceService{
		balances:       balances,
		items:          items,
		additionalFees: additionalFees,
		cache:          cache,
		dueWindow:      dueWindow,
		summaryTTL:     summaryTTL,
		validator:      validate,
		logger:         logger,
	}
}

// GenerateForStudent creates one ledger row per structure item the student
// does not have a row for yet. Existing rows are never duplicated or
// overwritten, so repeated calls settle on the same set.
func (s *BalanceService) GenerateForStudent(ctx context.Context, studentNumber, feeStructureID string) ([]models.StudentFeeBalance, error) {
	items, err := s.items.ListItems(ctx, feeStructureID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load structure items")
	}

	now := time.Now().UTC()
	var created []models.StudentFeeBalance
	for _, item := range items {
		if _, err := s.balances.FindByStudentAndItem(ctx, studentNumber, item.ID); err == nil {
			continue
		} else if err != sql.ErrNoRows {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check existing balance")
		}

		dueDate := now.Add(s.dueWindow)
		if item.DueDate != nil {
			dueDate = *item.DueDate
		}
		balance := models.StudentFeeBalance{
			StudentNumber:      studentNumber,
			FeeStructureItemID: item.ID,
			TotalAmount:        item.Amount,
			AmountPaid:         decimal.Zero,
			OutstandingBalance: item.Amount,
			DueDate:            dueDate,
			Status:             models.BalanceStatusOutstanding,
			Active:             true,
		}
		if err := s.balances.Create(ctx, &balance); err != nil {
			if repository.IsUniqueViolation(err) {
				// Lost a race with a concurrent generation; the row exists, which
				// is all idempotence promises.
				continue
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create balance")
		}
		created = append(created, balance)
	}
	if len(created) > 0 {
		s.invalidate(ctx, studentNumber)
	}
	return created, nil
}

// ApplyPayment increments a row's paid amount and recomputes outstanding and
// status deterministically.
func (s *BalanceService) ApplyPayment(ctx context.Context, balanceID string, req ApplyPaymentRequest) (*models.StudentFeeBalance, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payment payload")
	}
	if req.Amount.Sign() <= 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "payment amount must be positive")
	}
	balance, err := s.balances.FindByID(ctx, balanceID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "balance not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load balance")
	}

	now := time.Now().UTC()
	newPaid := balance.AmountPaid.Add(req.Amount.Round(2))
	newOutstanding := ComputeOutstanding(balance.TotalAmount, newPaid)
	newStatus := ComputeStatus(balance.TotalAmount, newPaid, balance.DueDate, now)

	if err := s.balances.UpdateAmounts(ctx, balance.ID, newPaid, newOutstanding, newStatus); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update balance")
	}
	balance.AmountPaid = newPaid
	balance.OutstandingBalance = newOutstanding
	balance.Status = newStatus
	balance.UpdatedAt = now

	s.invalidate(ctx, balance.StudentNumber)
	s.logger.Info("payment applied",
		zap.String("balance_id", balance.ID),
		zap.String("student_number", balance.StudentNumber),
		zap.String("amount", req.Amount.StringFixed(2)),
		zap.String("status", string(newStatus)))
	return balance, nil
}

// RecalculateStudent re-derives outstanding and status for every row of a
// student from the row's own fields. Used after manual corrections; it never
// consults the payment stream.
func (s *BalanceService) RecalculateStudent(ctx context.Context, studentNumber string) (int, error) {
	balances, err := s.balances.ListByStudent(ctx, studentNumber)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student balances")
	}

	now := time.Now().UTC()
	changed := 0
	for i := range balances {
		balance := &balances[i]
		outstanding := ComputeOutstanding(balance.TotalAmount, balance.AmountPaid)
		status := ComputeStatus(balance.TotalAmount, balance.AmountPaid, balance.DueDate, now)
		if balance.OutstandingBalance.Equal(outstanding) && balance.Status == status {
			continue
		}
		if err := s.balances.UpdateAmounts(ctx, balance.ID, balance.AmountPaid, outstanding, status); err != nil {
			return changed, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update balance")
		}
		changed++
	}
	if changed > 0 {
		s.invalidate(ctx, studentNumber)
	}
	return changed, nil
}

// ListByStudent returns a student's full ledger.
func (s *BalanceService) ListByStudent(ctx context.Context, studentNumber string) ([]models.StudentFeeBalance, error) {
	balances, err := s.balances.ListByStudent(ctx, studentNumber)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list balances")
	}
	return balances, nil
}

// List returns ledger rows with pagination metadata.
func (s *BalanceService) List(ctx context.Context, filter models.BalanceFilter) ([]models.StudentFeeBalance, *models.Pagination, error) {
	balances, total, err := s.balances.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list balances")
	}
	return balances, paginationFor(filter.Page, filter.PageSize, total), nil
}

// Summary aggregates a student's ledger including open additional fees,
// serving from cache when possible.
func (s *BalanceService) Summary(ctx context.Context, studentNumber string) (*models.StudentBalanceSummary, error) {
	key := repository.SummaryKey(studentNumber)
	if s.cache != nil && s.cache.Enabled() {
		var cached models.StudentBalanceSummary
		if hit, err := s.cache.Get(ctx, key, &cached); err == nil && hit {
			return &cached, nil
		}
	}

	balances, err := s.balances.ListByStudent(ctx, studentNumber)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student balances")
	}

	summary := &models.StudentBalanceSummary{
		StudentNumber: studentNumber,
		GeneratedAt:   time.Now().UTC(),
	}
	for _, balance := range balances {
		summary.TotalCharged = summary.TotalCharged.Add(balance.TotalAmount)
		summary.TotalPaid = summary.TotalPaid.Add(balance.AmountPaid)
		summary.TotalOutstanding = summary.TotalOutstanding.Add(balance.OutstandingBalance)
		if balance.Status != models.BalanceStatusPaid {
			summary.OpenItems++
		}
	}

	additional, err := s.additionalFees.SumOpenByStudent(ctx, studentNumber)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sum additional fees")
	}
	summary.AdditionalOutstanding = additional
	summary.TotalOutstanding = summary.TotalOutstanding.Add(additional)

	if s.cache != nil && s.cache.Enabled() {
		_ = s.cache.Set(ctx, key, summary, s.summaryTTL)
	}
	return summary, nil
}

func (s *BalanceService) invalidate(ctx context.Context, studentNumber string) {
	if s.cache == nil {
		return
	}
	s.cache.InvalidateStudent(ctx, studentNumber)
}
