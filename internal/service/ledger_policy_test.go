package service

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/uni-finance-api/internal/models"
)

func d(value string) decimal.Decimal {
	return decimal.RequireFromString(value)
}

func TestComputeOutstanding(t *testing.T) {
	tests := []struct {
		name     string
		total    string
		paid     string
		expected string
	}{
		{"unpaid", "3000.00", "0", "3000.00"},
		{"partial", "3000.00", "1200.00", "1800.00"},
		{"exact", "3000.00", "3000.00", "0"},
		{"overpaid clamps to zero", "3000.00", "3500.00", "0"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := ComputeOutstanding(d(tc.total), d(tc.paid))
			assert.True(t, got.Equal(d(tc.expected)), "got %s", got)
		})
	}
}

func TestComputeStatus(t *testing.T) {
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	future := now.Add(48 * time.Hour)
	past := now.Add(-48 * time.Hour)

	tests := []struct {
		name     string
		total    string
		paid     string
		dueDate  time.Time
		expected models.BalanceStatus
	}{
		{"fully covered", "1000", "1000", future, models.BalanceStatusPaid},
		{"overpaid is still paid", "1000", "1500", past, models.BalanceStatusPaid},
		{"partial beats overdue", "1000", "100", past, models.BalanceStatusPartial},
		{"partial before due", "1000", "100", future, models.BalanceStatusPartial},
		{"unpaid past due", "1000", "0", past, models.BalanceStatusOverdue},
		{"unpaid before due", "1000", "0", future, models.BalanceStatusOutstanding},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := ComputeStatus(d(tc.total), d(tc.paid), tc.dueDate, now)
			assert.Equal(t, tc.expected, got)
		})
	}
}

func TestReconcileAgainstTotalsAppliesFullTotalToEveryRow(t *testing.T) {
	balances := []models.StudentFeeBalance{
		{ID: "b1", StudentNumber: "S-1", TotalAmount: d("1000"), AmountPaid: d("0"), OutstandingBalance: d("1000")},
		{ID: "b2", StudentNumber: "S-1", TotalAmount: d("400"), AmountPaid: d("0"), OutstandingBalance: d("400")},
	}
	totals := map[string]decimal.Decimal{"S-1": d("600")}

	changes := ReconcileAgainstTotals(balances, totals)
	require.Len(t, changes, 2)

	assert.Equal(t, "b1", changes[0].BalanceID)
	assert.True(t, changes[0].AmountPaid.Equal(d("600")))
	assert.True(t, changes[0].Outstanding.Equal(d("400")))
	assert.Equal(t, models.BalanceStatusPartial, changes[0].Status)

	// The same undivided total also covers the second row.
	assert.Equal(t, "b2", changes[1].BalanceID)
	assert.True(t, changes[1].AmountPaid.Equal(d("600")))
	assert.True(t, changes[1].Outstanding.Equal(d("0")))
	assert.Equal(t, models.BalanceStatusPaid, changes[1].Status)
}

func TestReconcileAgainstTotalsIsIdempotent(t *testing.T) {
	balances := []models.StudentFeeBalance{
		{ID: "b1", StudentNumber: "S-1", TotalAmount: d("1000"), AmountPaid: d("0"), OutstandingBalance: d("1000")},
	}
	totals := map[string]decimal.Decimal{"S-1": d("250")}

	first := ReconcileAgainstTotals(balances, totals)
	require.Len(t, first, 1)

	balances[0].AmountPaid = first[0].AmountPaid
	balances[0].OutstandingBalance = first[0].Outstanding
	balances[0].Status = first[0].Status

	second := ReconcileAgainstTotals(balances, totals)
	assert.Empty(t, second)
}

func TestReconcileAgainstTotalsMissingStudentMeansZero(t *testing.T) {
	balances := []models.StudentFeeBalance{
		{ID: "b1", StudentNumber: "S-9", TotalAmount: d("500"), AmountPaid: d("200"), OutstandingBalance: d("300")},
	}

	changes := ReconcileAgainstTotals(balances, map[string]decimal.Decimal{})
	require.Len(t, changes, 1)
	assert.True(t, changes[0].AmountPaid.Equal(d("0")))
	assert.True(t, changes[0].Outstanding.Equal(d("500")))
	assert.Equal(t, models.BalanceStatusOutstanding, changes[0].Status)
}

func TestReconciledStatusNeverOverdue(t *testing.T) {
	// The sweep variant only looks at money, so an unpaid row stays
	// OUTSTANDING regardless of its due date.
	assert.Equal(t, models.BalanceStatusOutstanding, reconciledStatus(d("100"), d("0")))
	assert.Equal(t, models.BalanceStatusPartial, reconciledStatus(d("100"), d("40")))
	assert.Equal(t, models.BalanceStatusPaid, reconciledStatus(d("100"), d("100")))
}

func TestParseLegacyStatus(t *testing.T) {
	tests := []struct {
		raw      string
		expected models.BalanceStatus
		known    bool
	}{
		{"paid", models.BalanceStatusPaid, true},
		{"PAID", models.BalanceStatusPaid, true},
		{" Partial ", models.BalanceStatusPartial, true},
		{"overdue", models.BalanceStatusOverdue, true},
		{"outstanding", models.BalanceStatusOutstanding, true},
		{"lunas", models.BalanceStatusOutstanding, false},
		{"", models.BalanceStatusOutstanding, false},
	}
	for _, tc := range tests {
		t.Run(tc.raw, func(t *testing.T) {
			status, known := ParseLegacyStatus(tc.raw)
			assert.Equal(t, tc.expected, status)
			assert.Equal(t, tc.known, known)
		})
	}
}
