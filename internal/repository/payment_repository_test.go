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
)

func newPaymentMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestPaymentRepositoryListByStudent(t *testing.T) {
	db, mock, cleanup := newPaymentMock(t)
	defer cleanup()
	repo := NewPaymentRepository(db)

	now := time.Now().UTC()
	rows := sqlmock.NewRows([]string{"id", "student_number", "amount_paid", "payment_date", "payment_reference"}).
		AddRow("p-2", "S-1", "600.00", now, "TRX-2").
		AddRow("p-1", "S-1", "400.00", now.Add(-time.Hour), "TRX-1")
	mock.ExpectQuery("SELECT id, student_number, amount_paid, payment_date, payment_reference\\s+FROM payment_records WHERE student_number = \\$1 ORDER BY payment_date DESC").
		WithArgs("S-1").
		WillReturnRows(rows)

	payments, err := repo.ListByStudent(context.Background(), "S-1")
	require.NoError(t, err)
	require.Len(t, payments, 2)
	assert.Equal(t, "TRX-2", payments[0].PaymentReference)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPaymentRepositorySumByStudent(t *testing.T) {
	db, mock, cleanup := newPaymentMock(t)
	defer cleanup()
	repo := NewPaymentRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COALESCE(SUM(amount_paid), 0) FROM payment_records WHERE student_number = $1")).
		WithArgs("S-1").
		WillReturnRows(sqlmock.NewRows([]string{"coalesce"}).AddRow("1000.00"))

	total, err := repo.SumByStudent(context.Background(), "S-1")
	require.NoError(t, err)
	assert.True(t, total.Equal(decimal.RequireFromString("1000.00")))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPaymentRepositorySumAllByStudent(t *testing.T) {
	db, mock, cleanup := newPaymentMock(t)
	defer cleanup()
	repo := NewPaymentRepository(db)

	mock.ExpectQuery("SELECT student_number, COALESCE\\(SUM\\(amount_paid\\), 0\\) AS total\\s+FROM payment_records GROUP BY student_number").
		WillReturnRows(sqlmock.NewRows([]string{"student_number", "total"}).
			AddRow("S-1", "1000.00").
			AddRow("S-2", "0"))

	totals, err := repo.SumAllByStudent(context.Background())
	require.NoError(t, err)
	require.Len(t, totals, 2)
	assert.True(t, totals["S-1"].Equal(decimal.RequireFromString("1000.00")))
	assert.True(t, totals["S-2"].IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}
