package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/uni-finance-api/internal/models"
	appErrors "github.com/noah-isme/uni-finance-api/pkg/errors"
)

type mockAssignmentRepo struct {
	existing    map[string]bool
	assignments map[string]models.StudentFeeAssignment
	byStructure map[string][]string
	flushedA    []models.StudentFeeAssignment
	flushedB    []models.StudentFeeBalance
	flushErr    error
}

func newMockAssignmentRepo() *mockAssignmentRepo {
	return &mockAssignmentRepo{
		existing:    make(map[string]bool),
		assignments: make(map[string]models.StudentFeeAssignment),
		byStructure: make(map[string][]string),
	}
}

func assignmentKey(studentNumber, feeStructureID, academicYear, semester string) string {
	return studentNumber + "|" + feeStructureID + "|" + academicYear + "|" + semester
}

func (m *mockAssignmentRepo) Create(ctx context.Context, assignment *models.StudentFeeAssignment) error {
	if assignment.ID == "" {
		assignment.ID = "assign-" + assignment.StudentNumber
	}
	m.assignments[assignment.ID] = *assignment
	m.existing[assignmentKey(assignment.StudentNumber, assignment.FeeStructureID, assignment.AcademicYear, assignment.Semester)] = true
	m.byStructure[assignment.FeeStructureID] = append(m.byStructure[assignment.FeeStructureID], assignment.StudentNumber)
	return nil
}

func (m *mockAssignmentRepo) Exists(ctx context.Context, studentNumber, feeStructureID, academicYear, semester string) (bool, error) {
	return m.existing[assignmentKey(studentNumber, feeStructureID, academicYear, semester)], nil
}

func (m *mockAssignmentRepo) FindByID(ctx context.Context, id string) (*models.StudentFeeAssignment, error) {
	if a, ok := m.assignments[id]; ok {
		return &a, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockAssignmentRepo) Delete(ctx context.Context, id string) error {
	delete(m.assignments, id)
	return nil
}

func (m *mockAssignmentRepo) ListStudentNumbersByStructure(ctx context.Context, feeStructureID string) ([]string, error) {
	return m.byStructure[feeStructureID], nil
}

func (m *mockAssignmentRepo) CreateAllWithBalances(ctx context.Context, assignments []models.StudentFeeAssignment, balances []models.StudentFeeBalance) error {
	if m.flushErr != nil {
		return m.flushErr
	}
	m.flushedA = assignments
	m.flushedB = balances
	for i := range assignments {
		a := assignments[i]
		m.assignments[a.ID] = a
		m.byStructure[a.FeeStructureID] = append(m.byStructure[a.FeeStructureID], a.StudentNumber)
	}
	return nil
}

type mockStructureReader struct {
	structures map[string]models.FeeStructure
}

func (m *mockStructureReader) FindByID(ctx context.Context, id string) (*models.FeeStructure, error) {
	if s, ok := m.structures[id]; ok {
		return &s, nil
	}
	return nil, sql.ErrNoRows
}

type mockStudentDir struct {
	students []models.Student
}

func (m *mockStudentDir) FindByNumber(ctx context.Context, studentNumber string) (*models.Student, error) {
	for _, s := range m.students {
		if s.StudentNumber == studentNumber {
			return &s, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockStudentDir) ListActive(ctx context.Context) ([]models.Student, error) {
	return m.students, nil
}

type mockGenerator struct {
	generated []string
}

func (m *mockGenerator) GenerateForStudent(ctx context.Context, studentNumber, feeStructureID string) ([]models.StudentFeeBalance, error) {
	m.generated = append(m.generated, studentNumber)
	return nil, nil
}

type mockOutstandingReader struct {
	totals map[string]decimal.Decimal
}

func (m *mockOutstandingReader) SumOutstandingByStudents(ctx context.Context, excludeStructureID string) (map[string]decimal.Decimal, error) {
	return m.totals, nil
}

type mockReconciler struct {
	reconciled []string
}

func (m *mockReconciler) ReconcileStudentStructure(ctx context.Context, studentNumber, feeStructureID string) (int, error) {
	m.reconciled = append(m.reconciled, studentNumber)
	return 0, nil
}

func testStructure() models.FeeStructure {
	return models.FeeStructure{
		ID:           "fs-1",
		Name:         "Undergraduate Fees",
		AcademicYear: "2026/2027",
		Semester:     "1",
		Active:       true,
		Items: []models.FeeStructureItem{
			{ID: "item-1", FeeStructureID: "fs-1", Amount: d("3000.00")},
			{ID: "item-2", FeeStructureID: "fs-1", Amount: d("450.00")},
		},
	}
}

func newAssignmentService(repo *mockAssignmentRepo, structures *mockStructureReader, students *mockStudentDir, generator *mockGenerator, outstanding *mockOutstandingReader, reconciler *mockReconciler) *AssignmentService {
	return NewAssignmentService(repo, structures, students, generator, outstanding, reconciler, nil, nil, 30*24*time.Hour, nil, nil)
}

func TestAssignCreatesAssignmentAndBalances(t *testing.T) {
	repo := newMockAssignmentRepo()
	generator := &mockGenerator{}
	svc := newAssignmentService(repo,
		&mockStructureReader{structures: map[string]models.FeeStructure{"fs-1": testStructure()}},
		&mockStudentDir{students: []models.Student{{StudentNumber: "S-1", Active: true}}},
		generator, &mockOutstandingReader{}, &mockReconciler{})

	assignment, err := svc.Assign(context.Background(), AssignFeeStructureRequest{
		StudentNumber:  "S-1",
		FeeStructureID: "fs-1",
		AcademicYear:   "2026/2027",
		Semester:       "1",
	})
	require.NoError(t, err)
	assert.Equal(t, "S-1", assignment.StudentNumber)
	assert.Equal(t, []string{"S-1"}, generator.generated)
}

func TestAssignRejectsDuplicate(t *testing.T) {
	repo := newMockAssignmentRepo()
	svc := newAssignmentService(repo,
		&mockStructureReader{structures: map[string]models.FeeStructure{"fs-1": testStructure()}},
		&mockStudentDir{students: []models.Student{{StudentNumber: "S-1", Active: true}}},
		&mockGenerator{}, &mockOutstandingReader{}, &mockReconciler{})

	req := AssignFeeStructureRequest{
		StudentNumber:  "S-1",
		FeeStructureID: "fs-1",
		AcademicYear:   "2026/2027",
		Semester:       "1",
	}
	_, err := svc.Assign(context.Background(), req)
	require.NoError(t, err)

	_, err = svc.Assign(context.Background(), req)
	require.Error(t, err)
	assert.True(t, appErrors.HasCode(err, appErrors.ErrDuplicateKey.Code))
	assert.Len(t, repo.assignments, 1)
}

func TestAssignUnknownStudent(t *testing.T) {
	svc := newAssignmentService(newMockAssignmentRepo(),
		&mockStructureReader{structures: map[string]models.FeeStructure{"fs-1": testStructure()}},
		&mockStudentDir{}, &mockGenerator{}, &mockOutstandingReader{}, &mockReconciler{})

	_, err := svc.Assign(context.Background(), AssignFeeStructureRequest{
		StudentNumber:  "S-404",
		FeeStructureID: "fs-1",
		AcademicYear:   "2026/2027",
		Semester:       "1",
	})
	require.Error(t, err)
	assert.True(t, appErrors.HasCode(err, appErrors.ErrNotFound.Code))
}

func TestBulkAssignContinuesPastFailures(t *testing.T) {
	repo := newMockAssignmentRepo()
	structure := testStructure()
	repo.existing[assignmentKey("S-2", structure.ID, structure.AcademicYear, structure.Semester)] = true

	reconciler := &mockReconciler{}
	svc := newAssignmentService(repo,
		&mockStructureReader{structures: map[string]models.FeeStructure{"fs-1": structure}},
		&mockStudentDir{students: []models.Student{
			{StudentNumber: "S-1", Active: true},
			{StudentNumber: "S-2", Active: true},
			{StudentNumber: "S-3", Active: true},
		}},
		&mockGenerator{}, &mockOutstandingReader{}, reconciler)

	result, err := svc.BulkAssign(context.Background(), BulkAssignRequest{
		FeeStructureID: "fs-1",
		StudentNumbers: []string{"S-1", "S-2", "S-3"},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, result.SuccessCount())
	assert.Equal(t, 1, result.FailureCount())
	assert.Equal(t, "S-2", result.Failed[0].StudentNumber)
	assert.Equal(t, []string{"S-1", "S-3"}, reconciler.reconciled)
}

func TestAssignToAllCarriesForwardOutstandingDebt(t *testing.T) {
	repo := newMockAssignmentRepo()
	structure := testStructure()
	repo.byStructure["fs-1"] = []string{"S-3"}

	svc := newAssignmentService(repo,
		&mockStructureReader{structures: map[string]models.FeeStructure{"fs-1": structure}},
		&mockStudentDir{students: []models.Student{
			{StudentNumber: "S-1", Active: true},
			{StudentNumber: "S-2", Active: true},
			{StudentNumber: "S-3", Active: true},
		}},
		&mockGenerator{},
		&mockOutstandingReader{totals: map[string]decimal.Decimal{"S-1": d("200.00")}},
		&mockReconciler{})

	result, err := svc.AssignToAll(context.Background(), "fs-1", "bursar")
	require.NoError(t, err)

	// S-3 is skipped, S-1 and S-2 are onboarded.
	assert.Equal(t, 2, result.AssignedCount)
	assert.Equal(t, 1, result.OutstandingBalancesAdded)
	assert.True(t, result.TotalOutstandingAmount.Equal(d("200.00")))

	require.Len(t, repo.flushedA, 2)
	require.Len(t, repo.flushedB, 4)

	var carried, plain *models.StudentFeeBalance
	for i := range repo.flushedB {
		b := &repo.flushedB[i]
		if b.StudentNumber == "S-1" && b.FeeStructureItemID == "item-1" {
			carried = b
		}
		if b.StudentNumber == "S-2" && b.FeeStructureItemID == "item-1" {
			plain = b
		}
	}
	require.NotNil(t, carried)
	require.NotNil(t, plain)

	// Prior debt lands in the first item only.
	assert.True(t, carried.TotalAmount.Equal(d("3200.00")))
	assert.True(t, carried.OutstandingBalance.Equal(d("3200.00")))
	assert.True(t, plain.TotalAmount.Equal(d("3000.00")))
	assert.True(t, plain.OutstandingBalance.Equal(d("3000.00")))
}

func TestAssignToAllNoEligibleStudents(t *testing.T) {
	repo := newMockAssignmentRepo()
	structure := testStructure()
	repo.byStructure["fs-1"] = []string{"S-1"}

	svc := newAssignmentService(repo,
		&mockStructureReader{structures: map[string]models.FeeStructure{"fs-1": structure}},
		&mockStudentDir{students: []models.Student{{StudentNumber: "S-1", Active: true}}},
		&mockGenerator{}, &mockOutstandingReader{}, &mockReconciler{})

	result, err := svc.AssignToAll(context.Background(), "fs-1", "bursar")
	require.NoError(t, err)
	assert.Equal(t, 0, result.AssignedCount)
	assert.Empty(t, repo.flushedA)
}

func TestAssignToAllRaceReportsInconsistentState(t *testing.T) {
	repo := newMockAssignmentRepo()
	repo.flushErr = &pq.Error{Code: "23505"}

	svc := newAssignmentService(repo,
		&mockStructureReader{structures: map[string]models.FeeStructure{"fs-1": testStructure()}},
		&mockStudentDir{students: []models.Student{{StudentNumber: "S-1", Active: true}}},
		&mockGenerator{}, &mockOutstandingReader{}, &mockReconciler{})

	_, err := svc.AssignToAll(context.Background(), "fs-1", "bursar")
	require.Error(t, err)
	assert.True(t, appErrors.HasCode(err, appErrors.ErrInconsistentState.Code))
}

func TestRemoveUnknownAssignment(t *testing.T) {
	svc := newAssignmentService(newMockAssignmentRepo(),
		&mockStructureReader{structures: map[string]models.FeeStructure{}},
		&mockStudentDir{}, &mockGenerator{}, &mockOutstandingReader{}, &mockReconciler{})

	err := svc.Remove(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, appErrors.HasCode(err, appErrors.ErrNotFound.Code))
}
