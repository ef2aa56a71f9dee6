package service

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/noah-isme/uni-finance-api/internal/models"
	appErrors "github.com/noah-isme/uni-finance-api/pkg/errors"
)

type reconcilableBalanceRepository interface {
	ListAll(ctx context.Context) ([]models.StudentFeeBalance, error)
	ListByStudent(ctx context.Context, studentNumber string) ([]models.StudentFeeBalance, error)
	ListByStudentAndStructure(ctx context.Context, studentNumber, feeStructureID string) ([]models.StudentFeeBalance, error)
	UpdateAmounts(ctx context.Context, id string, amountPaid, outstanding decimal.Decimal, status models.BalanceStatus) error
	UpdateStatus(ctx context.Context, id string, status models.BalanceStatus) error
}

type paymentReader interface {
	SumByStudent(ctx context.Context, studentNumber string) (decimal.Decimal, error)
	SumAllByStudent(ctx context.Context) (map[string]decimal.Decimal, error)
}

type studentInvalidator interface {
	InvalidateStudent(ctx context.Context, studentNumber string)
}

// ReconciliationService keeps the ledger consistent with the authoritative
// payment stream. The whole payment and balance sets are read into memory
// before comparing, so runtime grows linearly with both tables; callers
// should not run sweeps in tight loops.
type ReconciliationService struct {
	balances reconcilableBalanceRepository
	payments paymentReader
	cache    studentInvalidator
	metrics  *MetricsService
	logger   *zap.Logger
}

// NewReconciliationService constructs ReconciliationService.
func NewReconciliationService(balances reconcilableBalanceRepository, payments paymentReader, cache studentInvalidator, metrics *MetricsService, logger *zap.Logger) *ReconciliationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReconciliationService{balances: balances, payments: payments, cache: cache, metrics: metrics, logger: logger}
}

// ReconcileAll sweeps the full ledger against every student's cumulative
// payment total, rewriting rows whose paid or outstanding figures drifted.
// Running it twice with no new payments changes zero rows.
func (s *ReconciliationService) ReconcileAll(ctx context.Context) (*models.ReconciliationReport, error) {
	started := time.Now().UTC()

	balances, err := s.balances.ListAll(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load ledger")
	}
	paidTotals, err := s.payments.SumAllByStudent(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load payment totals")
	}

	changes := ReconcileAgainstTotals(balances, paidTotals)
	touched := make(map[string]struct{}, len(changes))
	for _, change := range changes {
		if err := s.balances.UpdateAmounts(ctx, change.BalanceID, change.AmountPaid, change.Outstanding, change.Status); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to write reconciled balance")
		}
		touched[change.StudentNumber] = struct{}{}
	}
	for studentNumber := range touched {
		if s.cache != nil {
			s.cache.InvalidateStudent(ctx, studentNumber)
		}
	}

	report := &models.ReconciliationReport{
		BalancesChecked: len(balances),
		BalancesChanged: len(changes),
		StartedAt:       started,
		FinishedAt:      time.Now().UTC(),
	}
	s.metrics.ObserveReconciliation(report.BalancesChecked, report.BalancesChanged, report.FinishedAt.Sub(report.StartedAt))
	s.logger.Info("reconciliation sweep finished",
		zap.Int("checked", report.BalancesChecked),
		zap.Int("changed", report.BalancesChanged))
	return report, nil
}

// ReconcileStudentStructure is the narrow variant used right after bulk
// assignment: only the newly created rows of the just-assigned structure are
// compared against the student's total payments, with the same formula as
// the full sweep.
func (s *ReconciliationService) ReconcileStudentStructure(ctx context.Context, studentNumber, feeStructureID string) (int, error) {
	balances, err := s.balances.ListByStudentAndStructure(ctx, studentNumber, feeStructureID)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load structure balances")
	}
	totalPaid, err := s.payments.SumByStudent(ctx, studentNumber)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sum student payments")
	}

	changes := ReconcileAgainstTotals(balances, map[string]decimal.Decimal{studentNumber: totalPaid})
	for _, change := range changes {
		if err := s.balances.UpdateAmounts(ctx, change.BalanceID, change.AmountPaid, change.Outstanding, change.Status); err != nil {
			return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to write reconciled balance")
		}
	}
	if len(changes) > 0 && s.cache != nil {
		s.cache.InvalidateStudent(ctx, studentNumber)
	}
	return len(changes), nil
}

// RefreshStatuses recomputes every row's status from its stored amounts and
// due date without touching amounts. It reports whether anything changed.
func (s *ReconciliationService) RefreshStatuses(ctx context.Context) (bool, error) {
	balances, err := s.balances.ListAll(ctx)
	if err != nil {
		return false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load ledger")
	}

	now := time.Now().UTC()
	changed := false
	for i := range balances {
		balance := &balances[i]
		status := ComputeStatus(balance.TotalAmount, balance.AmountPaid, balance.DueDate, now)
		if status == balance.Status {
			continue
		}
		if err := s.balances.UpdateStatus(ctx, balance.ID, status); err != nil {
			return changed, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update balance status")
		}
		if s.cache != nil {
			s.cache.InvalidateStudent(ctx, balance.StudentNumber)
		}
		changed = true
	}
	return changed, nil
}
