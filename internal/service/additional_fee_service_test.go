package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/uni-finance-api/internal/models"
	appErrors "github.com/noah-isme/uni-finance-api/pkg/errors"
)

type mockAdditionalFeeRepo struct {
	fees        map[string]models.AdditionalFee
	studentFees map[string]models.StudentAdditionalFee
}

func newMockAdditionalFeeRepo() *mockAdditionalFeeRepo {
	return &mockAdditionalFeeRepo{
		fees:        make(map[string]models.AdditionalFee),
		studentFees: make(map[string]models.StudentAdditionalFee),
	}
}

func (m *mockAdditionalFeeRepo) List(ctx context.Context, activeOnly bool) ([]models.AdditionalFee, error) {
	var list []models.AdditionalFee
	for _, fee := range m.fees {
		if activeOnly && !fee.Active {
			continue
		}
		list = append(list, fee)
	}
	return list, nil
}

func (m *mockAdditionalFeeRepo) FindByID(ctx context.Context, id string) (*models.AdditionalFee, error) {
	if fee, ok := m.fees[id]; ok {
		return &fee, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockAdditionalFeeRepo) Create(ctx context.Context, fee *models.AdditionalFee) error {
	if fee.ID == "" {
		fee.ID = "fee-1"
	}
	m.fees[fee.ID] = *fee
	return nil
}

func (m *mockAdditionalFeeRepo) Update(ctx context.Context, fee *models.AdditionalFee) error {
	m.fees[fee.ID] = *fee
	return nil
}

func (m *mockAdditionalFeeRepo) Delete(ctx context.Context, id string) error {
	if _, ok := m.fees[id]; !ok {
		return sql.ErrNoRows
	}
	delete(m.fees, id)
	return nil
}

func (m *mockAdditionalFeeRepo) ExistsForStudent(ctx context.Context, studentNumber, feeID string) (bool, error) {
	_, ok := m.studentFees[studentNumber+"|"+feeID]
	return ok, nil
}

func (m *mockAdditionalFeeRepo) CreateStudentFee(ctx context.Context, studentFee *models.StudentAdditionalFee) error {
	m.studentFees[studentFee.StudentNumber+"|"+studentFee.AdditionalFeeID] = *studentFee
	return nil
}

func (m *mockAdditionalFeeRepo) ListStudentFees(ctx context.Context, studentNumber string) ([]models.StudentAdditionalFee, error) {
	var list []models.StudentAdditionalFee
	for _, fee := range m.studentFees {
		if fee.StudentNumber == studentNumber {
			list = append(list, fee)
		}
	}
	return list, nil
}

type mockScopedStudents struct {
	all []models.Student
}

func (m *mockScopedStudents) ListActive(ctx context.Context) ([]models.Student, error) {
	return m.all, nil
}

func (m *mockScopedStudents) ListByPrograms(ctx context.Context, programs []string) ([]models.Student, error) {
	return m.filter(func(s models.Student) bool { return contains(programs, s.Program) }), nil
}

func (m *mockScopedStudents) ListByClasses(ctx context.Context, classes []string) ([]models.Student, error) {
	return m.filter(func(s models.Student) bool { return contains(classes, s.ClassName) }), nil
}

func (m *mockScopedStudents) ListByNumbers(ctx context.Context, numbers []string) ([]models.Student, error) {
	return m.filter(func(s models.Student) bool { return contains(numbers, s.StudentNumber) }), nil
}

func (m *mockScopedStudents) filter(keep func(models.Student) bool) []models.Student {
	var list []models.Student
	for _, s := range m.all {
		if keep(s) {
			list = append(list, s)
		}
	}
	return list
}

func contains(values []string, value string) bool {
	for _, v := range values {
		if v == value {
			return true
		}
	}
	return false
}

func newAdditionalFeeService(repo *mockAdditionalFeeRepo, students *mockScopedStudents) *AdditionalFeeService {
	return NewAdditionalFeeService(repo, students, nil, nil, 30*24*time.Hour, nil, nil)
}

func registryStudents() *mockScopedStudents {
	return &mockScopedStudents{all: []models.Student{
		{StudentNumber: "S-1", Program: "CS", ClassName: "CS-A", Active: true},
		{StudentNumber: "S-2", Program: "CS", ClassName: "CS-B", Active: true},
		{StudentNumber: "S-3", Program: "EE", ClassName: "EE-A", Active: true},
	}}
}

func TestCreateAdditionalFeeValidatesScope(t *testing.T) {
	svc := newAdditionalFeeService(newMockAdditionalFeeRepo(), registryStudents())

	_, err := svc.Create(context.Background(), CreateAdditionalFeeRequest{
		Name:          "Lab Fee",
		Amount:        d("50.00"),
		Frequency:     "ONE_TIME",
		Applicability: "PROGRAM",
	})
	require.Error(t, err)
	assert.True(t, appErrors.HasCode(err, appErrors.ErrValidation.Code))

	_, err = svc.Create(context.Background(), CreateAdditionalFeeRequest{
		Name:          "Lab Fee",
		Amount:        d("50.00"),
		Frequency:     "ONE_TIME",
		Applicability: "ALL",
		Scope:         []string{"CS"},
	})
	require.Error(t, err)
	assert.True(t, appErrors.HasCode(err, appErrors.ErrValidation.Code))
}

func TestApplyFanOutByProgram(t *testing.T) {
	repo := newMockAdditionalFeeRepo()
	repo.fees["fee-1"] = models.AdditionalFee{
		ID:            "fee-1",
		Name:          "Lab Fee",
		Amount:        d("50.00"),
		Frequency:     models.FeeFrequencyOneTime,
		Applicability: models.FeeApplicabilityProgram,
		Scope:         []string{"CS"},
		Active:        true,
	}
	svc := newAdditionalFeeService(repo, registryStudents())

	result, err := svc.Apply(context.Background(), "fee-1")
	require.NoError(t, err)
	assert.Equal(t, 2, result.TargetCount)
	assert.Equal(t, 2, result.AppliedCount)
	assert.Equal(t, 0, result.SkippedCount)
	assert.Empty(t, result.FailedStudents)

	applied := repo.studentFees["S-1|fee-1"]
	assert.True(t, applied.Amount.Equal(d("50.00")))
	assert.Equal(t, models.BalanceStatusOutstanding, applied.Status)
}

func TestApplySkipsStudentsAlreadyCharged(t *testing.T) {
	repo := newMockAdditionalFeeRepo()
	repo.fees["fee-1"] = models.AdditionalFee{
		ID:            "fee-1",
		Name:          "Graduation Fee",
		Amount:        d("120.00"),
		Frequency:     models.FeeFrequencyOneTime,
		Applicability: models.FeeApplicabilityAll,
		Active:        true,
	}
	repo.studentFees["S-2|fee-1"] = models.StudentAdditionalFee{StudentNumber: "S-2", AdditionalFeeID: "fee-1"}
	svc := newAdditionalFeeService(repo, registryStudents())

	result, err := svc.Apply(context.Background(), "fee-1")
	require.NoError(t, err)
	assert.Equal(t, 3, result.TargetCount)
	assert.Equal(t, 2, result.AppliedCount)
	assert.Equal(t, 1, result.SkippedCount)

	// A second pass applies nothing new.
	result, err = svc.Apply(context.Background(), "fee-1")
	require.NoError(t, err)
	assert.Equal(t, 0, result.AppliedCount)
	assert.Equal(t, 3, result.SkippedCount)
}

func TestApplyIndividualScope(t *testing.T) {
	repo := newMockAdditionalFeeRepo()
	repo.fees["fee-1"] = models.AdditionalFee{
		ID:            "fee-1",
		Name:          "Replacement ID Card",
		Amount:        d("15.00"),
		Frequency:     models.FeeFrequencyOneTime,
		Applicability: models.FeeApplicabilityIndividual,
		Scope:         []string{"S-3"},
		Active:        true,
	}
	svc := newAdditionalFeeService(repo, registryStudents())

	result, err := svc.Apply(context.Background(), "fee-1")
	require.NoError(t, err)
	assert.Equal(t, 1, result.TargetCount)
	assert.Equal(t, 1, result.AppliedCount)
	_, ok := repo.studentFees["S-3|fee-1"]
	assert.True(t, ok)
}

func TestApplyRejectsInactiveFee(t *testing.T) {
	repo := newMockAdditionalFeeRepo()
	repo.fees["fee-1"] = models.AdditionalFee{
		ID:            "fee-1",
		Name:          "Old Fee",
		Amount:        d("10.00"),
		Frequency:     models.FeeFrequencyOneTime,
		Applicability: models.FeeApplicabilityAll,
		Active:        false,
	}
	svc := newAdditionalFeeService(repo, registryStudents())

	_, err := svc.Apply(context.Background(), "fee-1")
	require.Error(t, err)
	assert.True(t, appErrors.HasCode(err, appErrors.ErrValidation.Code))
}

func TestApplyRejectsExpiredFee(t *testing.T) {
	expired := time.Now().UTC().Add(-24 * time.Hour)
	repo := newMockAdditionalFeeRepo()
	repo.fees["fee-1"] = models.AdditionalFee{
		ID:            "fee-1",
		Name:          "Past Event Fee",
		Amount:        d("30.00"),
		Frequency:     models.FeeFrequencyOneTime,
		Applicability: models.FeeApplicabilityAll,
		ValidUntil:    &expired,
		Active:        true,
	}
	svc := newAdditionalFeeService(repo, registryStudents())

	_, err := svc.Apply(context.Background(), "fee-1")
	require.Error(t, err)
	assert.True(t, appErrors.HasCode(err, appErrors.ErrValidation.Code))
}

func TestUpdateKeepsAppliedSnapshots(t *testing.T) {
	repo := newMockAdditionalFeeRepo()
	repo.fees["fee-1"] = models.AdditionalFee{
		ID:            "fee-1",
		Name:          "Lab Fee",
		Amount:        d("50.00"),
		Frequency:     models.FeeFrequencyOneTime,
		Applicability: models.FeeApplicabilityAll,
		Active:        true,
	}
	repo.studentFees["S-1|fee-1"] = models.StudentAdditionalFee{
		StudentNumber: "S-1", AdditionalFeeID: "fee-1", Amount: d("50.00"),
	}
	svc := newAdditionalFeeService(repo, registryStudents())

	_, err := svc.Update(context.Background(), "fee-1", UpdateAdditionalFeeRequest{
		Name:          "Lab Fee",
		Amount:        d("80.00"),
		Frequency:     "ONE_TIME",
		Applicability: "ALL",
	})
	require.NoError(t, err)

	assert.True(t, repo.fees["fee-1"].Amount.Equal(d("80.00")))
	assert.True(t, repo.studentFees["S-1|fee-1"].Amount.Equal(d("50.00")))
}
