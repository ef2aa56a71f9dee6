package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/uni-finance-api/internal/models"
)

func newBalanceMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func balanceRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "student_number", "fee_structure_item_id", "total_amount", "amount_paid", "outstanding_balance", "due_date", "status", "active", "notes", "created_at", "updated_at"})
}

func TestFeeBalanceRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newBalanceMock(t)
	defer cleanup()
	repo := NewFeeBalanceRepository(db)

	mock.ExpectExec("INSERT INTO student_fee_balances").
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	balance := &models.StudentFeeBalance{
		StudentNumber:      "S-1",
		FeeStructureItemID: "item-1",
		TotalAmount:        decimal.RequireFromString("3000.00"),
		AmountPaid:         decimal.Zero,
		OutstandingBalance: decimal.RequireFromString("3000.00"),
		DueDate:            time.Now().UTC(),
		Status:             models.BalanceStatusOutstanding,
		Active:             true,
	}
	err := repo.Create(context.Background(), balance)
	require.NoError(t, err)
	assert.NotEmpty(t, balance.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFeeBalanceRepositoryFindByStudentAndItem(t *testing.T) {
	db, mock, cleanup := newBalanceMock(t)
	defer cleanup()
	repo := NewFeeBalanceRepository(db)

	now := time.Now().UTC()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, student_number, fee_structure_item_id, total_amount, amount_paid, outstanding_balance, due_date, status, active, notes, created_at, updated_at FROM student_fee_balances WHERE student_number = $1 AND fee_structure_item_id = $2")).
		WithArgs("S-1", "item-1").
		WillReturnRows(balanceRows().AddRow("bal-1", "S-1", "item-1", "3000.00", "1200.00", "1800.00", now, "PARTIAL", true, "", now, now))

	balance, err := repo.FindByStudentAndItem(context.Background(), "S-1", "item-1")
	require.NoError(t, err)
	assert.Equal(t, "bal-1", balance.ID)
	assert.True(t, balance.OutstandingBalance.Equal(decimal.RequireFromString("1800.00")))
	assert.Equal(t, models.BalanceStatusPartial, balance.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFeeBalanceRepositoryListByStudentAndStructure(t *testing.T) {
	db, mock, cleanup := newBalanceMock(t)
	defer cleanup()
	repo := NewFeeBalanceRepository(db)

	now := time.Now().UTC()
	mock.ExpectQuery("SELECT b.id, b.student_number, b.fee_structure_item_id, .+ FROM student_fee_balances b\\s+JOIN fee_structure_items i ON i.id = b.fee_structure_item_id").
		WithArgs("S-1", "fs-1").
		WillReturnRows(balanceRows().AddRow("bal-1", "S-1", "item-1", "3000.00", "0", "3000.00", now, "OUTSTANDING", true, "", now, now))

	balances, err := repo.ListByStudentAndStructure(context.Background(), "S-1", "fs-1")
	require.NoError(t, err)
	require.Len(t, balances, 1)
	assert.Equal(t, "item-1", balances[0].FeeStructureItemID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFeeBalanceRepositoryUpdateAmounts(t *testing.T) {
	db, mock, cleanup := newBalanceMock(t)
	defer cleanup()
	repo := NewFeeBalanceRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE student_fee_balances SET amount_paid = $2, outstanding_balance = $3, status = $4, updated_at = $5 WHERE id = $1")).
		WithArgs("bal-1", sqlmock.AnyArg(), sqlmock.AnyArg(), string(models.BalanceStatusPaid), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.UpdateAmounts(context.Background(), "bal-1",
		decimal.RequireFromString("3000.00"), decimal.Zero, models.BalanceStatusPaid)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFeeBalanceRepositorySumOutstandingByStudents(t *testing.T) {
	db, mock, cleanup := newBalanceMock(t)
	defer cleanup()
	repo := NewFeeBalanceRepository(db)

	mock.ExpectQuery("SELECT b.student_number, COALESCE\\(SUM\\(b.outstanding_balance\\), 0\\) AS total").
		WithArgs("fs-new").
		WillReturnRows(sqlmock.NewRows([]string{"student_number", "total"}).
			AddRow("S-1", "200.00").
			AddRow("S-2", "75.50"))

	totals, err := repo.SumOutstandingByStudents(context.Background(), "fs-new")
	require.NoError(t, err)
	require.Len(t, totals, 2)
	assert.True(t, totals["S-1"].Equal(decimal.RequireFromString("200.00")))
	assert.True(t, totals["S-2"].Equal(decimal.RequireFromString("75.50")))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFeeBalanceRepositoryListWithFilter(t *testing.T) {
	db, mock, cleanup := newBalanceMock(t)
	defer cleanup()
	repo := NewFeeBalanceRepository(db)

	now := time.Now().UTC()
	mock.ExpectQuery("SELECT b.id, .+ FROM student_fee_balances b WHERE b.student_number = \\$1 AND b.status = \\$2 ORDER BY b.due_date ASC LIMIT 20 OFFSET 0").
		WithArgs("S-1", string(models.BalanceStatusOverdue)).
		WillReturnRows(balanceRows().AddRow("bal-1", "S-1", "item-1", "500.00", "0", "500.00", now, "OVERDUE", true, "", now, now))
	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM student_fee_balances b WHERE b.student_number = \\$1 AND b.status = \\$2").
		WithArgs("S-1", string(models.BalanceStatusOverdue)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	balances, total, err := repo.List(context.Background(), models.BalanceFilter{
		StudentNumber: "S-1",
		Status:        models.BalanceStatusOverdue,
	})
	require.NoError(t, err)
	assert.Len(t, balances, 1)
	assert.Equal(t, 1, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}
