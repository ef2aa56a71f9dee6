package service

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/uni-finance-api/internal/models"
)

type mockReconBalanceRepo struct {
	rows     []models.StudentFeeBalance
	statuses map[string]models.BalanceStatus
	writes   int
}

func (m *mockReconBalanceRepo) ListAll(ctx context.Context) ([]models.StudentFeeBalance, error) {
	return m.rows, nil
}

func (m *mockReconBalanceRepo) ListByStudent(ctx context.Context, studentNumber string) ([]models.StudentFeeBalance, error) {
	var list []models.StudentFeeBalance
	for _, row := range m.rows {
		if row.StudentNumber == studentNumber {
			list = append(list, row)
		}
	}
	return list, nil
}

func (m *mockReconBalanceRepo) ListByStudentAndStructure(ctx context.Context, studentNumber, feeStructureID string) ([]models.StudentFeeBalance, error) {
	return m.ListByStudent(ctx, studentNumber)
}

func (m *mockReconBalanceRepo) UpdateAmounts(ctx context.Context, id string, amountPaid, outstanding decimal.Decimal, status models.BalanceStatus) error {
	for i := range m.rows {
		if m.rows[i].ID == id {
			m.rows[i].AmountPaid = amountPaid
			m.rows[i].OutstandingBalance = outstanding
			m.rows[i].Status = status
		}
	}
	m.writes++
	return nil
}

func (m *mockReconBalanceRepo) UpdateStatus(ctx context.Context, id string, status models.BalanceStatus) error {
	if m.statuses == nil {
		m.statuses = make(map[string]models.BalanceStatus)
	}
	m.statuses[id] = status
	for i := range m.rows {
		if m.rows[i].ID == id {
			m.rows[i].Status = status
		}
	}
	return nil
}

type mockPaymentReader struct {
	totals map[string]decimal.Decimal
}

func (m *mockPaymentReader) SumByStudent(ctx context.Context, studentNumber string) (decimal.Decimal, error) {
	return m.totals[studentNumber], nil
}

func (m *mockPaymentReader) SumAllByStudent(ctx context.Context) (map[string]decimal.Decimal, error) {
	return m.totals, nil
}

func TestReconcileAllRewritesDriftedRows(t *testing.T) {
	repo := &mockReconBalanceRepo{rows: []models.StudentFeeBalance{
		{ID: "b1", StudentNumber: "S-1", TotalAmount: d("1000"), AmountPaid: d("0"), OutstandingBalance: d("1000"), Status: models.BalanceStatusOutstanding},
		{ID: "b2", StudentNumber: "S-1", TotalAmount: d("400"), AmountPaid: d("0"), OutstandingBalance: d("400"), Status: models.BalanceStatusOutstanding},
		{ID: "b3", StudentNumber: "S-2", TotalAmount: d("500"), AmountPaid: d("0"), OutstandingBalance: d("500"), Status: models.BalanceStatusOutstanding},
	}}
	payments := &mockPaymentReader{totals: map[string]decimal.Decimal{"S-1": d("600")}}
	svc := NewReconciliationService(repo, payments, nil, nil, nil)

	report, err := svc.ReconcileAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, report.BalancesChecked)
	assert.Equal(t, 2, report.BalancesChanged)

	assert.True(t, repo.rows[0].AmountPaid.Equal(d("600")))
	assert.True(t, repo.rows[0].OutstandingBalance.Equal(d("400")))
	assert.Equal(t, models.BalanceStatusPartial, repo.rows[0].Status)
	assert.True(t, repo.rows[1].OutstandingBalance.IsZero())
	assert.Equal(t, models.BalanceStatusPaid, repo.rows[1].Status)
	// S-2 made no payments; the row is untouched.
	assert.True(t, repo.rows[2].AmountPaid.IsZero())
}

func TestReconcileAllSecondRunChangesNothing(t *testing.T) {
	repo := &mockReconBalanceRepo{rows: []models.StudentFeeBalance{
		{ID: "b1", StudentNumber: "S-1", TotalAmount: d("1000"), AmountPaid: d("0"), OutstandingBalance: d("1000"), Status: models.BalanceStatusOutstanding},
	}}
	payments := &mockPaymentReader{totals: map[string]decimal.Decimal{"S-1": d("250")}}
	svc := NewReconciliationService(repo, payments, nil, nil, nil)

	first, err := svc.ReconcileAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, first.BalancesChanged)

	second, err := svc.ReconcileAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, second.BalancesChanged)
	assert.Equal(t, 1, repo.writes)
}

func TestReconcileStudentStructureOnlyTouchesThatStudent(t *testing.T) {
	repo := &mockReconBalanceRepo{rows: []models.StudentFeeBalance{
		{ID: "b1", StudentNumber: "S-1", TotalAmount: d("300"), AmountPaid: d("0"), OutstandingBalance: d("300"), Status: models.BalanceStatusOutstanding},
	}}
	payments := &mockPaymentReader{totals: map[string]decimal.Decimal{"S-1": d("300")}}
	svc := NewReconciliationService(repo, payments, nil, nil, nil)

	changed, err := svc.ReconcileStudentStructure(context.Background(), "S-1", "fs-1")
	require.NoError(t, err)
	assert.Equal(t, 1, changed)
	assert.Equal(t, models.BalanceStatusPaid, repo.rows[0].Status)
}

func TestRefreshStatusesMarksOverdue(t *testing.T) {
	past := time.Now().UTC().Add(-24 * time.Hour)
	future := time.Now().UTC().Add(24 * time.Hour)
	repo := &mockReconBalanceRepo{rows: []models.StudentFeeBalance{
		{ID: "b1", StudentNumber: "S-1", TotalAmount: d("100"), AmountPaid: d("0"), OutstandingBalance: d("100"), DueDate: past, Status: models.BalanceStatusOutstanding},
		{ID: "b2", StudentNumber: "S-1", TotalAmount: d("100"), AmountPaid: d("0"), OutstandingBalance: d("100"), DueDate: future, Status: models.BalanceStatusOutstanding},
	}}
	svc := NewReconciliationService(repo, &mockPaymentReader{}, nil, nil, nil)

	changed, err := svc.RefreshStatuses(context.Background())
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, models.BalanceStatusOverdue, repo.statuses["b1"])
	_, touched := repo.statuses["b2"]
	assert.False(t, touched)
}
