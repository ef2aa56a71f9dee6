package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/uni-finance-api/internal/models"
)

type mockLegacyReader struct {
	rows []models.LegacyStudentBalance
}

func (m *mockLegacyReader) ListAll(ctx context.Context) ([]models.LegacyStudentBalance, error) {
	return m.rows, nil
}

type mockMigCategoryRepo struct {
	byName map[string]models.FeeCategory
}

func (m *mockMigCategoryRepo) FindByName(ctx context.Context, name string) (*models.FeeCategory, error) {
	if c, ok := m.byName[name]; ok {
		return &c, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockMigCategoryRepo) Create(ctx context.Context, category *models.FeeCategory) error {
	if category.ID == "" {
		category.ID = "cat-legacy"
	}
	if m.byName == nil {
		m.byName = make(map[string]models.FeeCategory)
	}
	m.byName[category.Name] = *category
	return nil
}

type mockMigStructureRepo struct {
	structures map[string]models.FeeStructure
	items      map[string]models.FeeStructureItem
}

func newMockMigStructureRepo() *mockMigStructureRepo {
	return &mockMigStructureRepo{
		structures: make(map[string]models.FeeStructure),
		items:      make(map[string]models.FeeStructureItem),
	}
}

func structureKey(academicYear, semester, name string) string {
	return academicYear + "|" + semester + "|" + name
}

func (m *mockMigStructureRepo) FindByNaturalKey(ctx context.Context, academicYear, semester, name string) (*models.FeeStructure, error) {
	if s, ok := m.structures[structureKey(academicYear, semester, name)]; ok {
		return &s, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockMigStructureRepo) CreateWithItems(ctx context.Context, structure *models.FeeStructure) error {
	if structure.ID == "" {
		structure.ID = "fs-" + structure.AcademicYear + "-" + structure.Semester
	}
	m.structures[structureKey(structure.AcademicYear, structure.Semester, structure.Name)] = *structure
	return nil
}

func (m *mockMigStructureRepo) FindItemByCategoryAndAmount(ctx context.Context, structureID, categoryID string, amount decimal.Decimal) (*models.FeeStructureItem, error) {
	key := structureID + "|" + categoryID + "|" + amount.String()
	if item, ok := m.items[key]; ok {
		return &item, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockMigStructureRepo) CreateItem(ctx context.Context, item *models.FeeStructureItem) error {
	if item.ID == "" {
		item.ID = "item-" + item.Amount.String()
	}
	m.items[item.FeeStructureID+"|"+item.FeeCategoryID+"|"+item.Amount.String()] = *item
	return nil
}

func newMigrationService(legacy *mockLegacyReader, categories *mockMigCategoryRepo, structures *mockMigStructureRepo, balances *mockBalanceRepo) *MigrationService {
	return NewMigrationService(legacy, categories, structures, balances, nil, 30*24*time.Hour, nil)
}

func TestMigrateCreatesLedgerRowsFromLegacyTable(t *testing.T) {
	due := time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC)
	legacy := &mockLegacyReader{rows: []models.LegacyStudentBalance{
		{ID: "L1", StudentNumber: "S-1", AcademicYear: "2024/2025", Semester: "2", TotalAmount: d("2500.00"), AmountPaid: d("1000.00"), Status: "partial", DueDate: &due},
		{ID: "L2", StudentNumber: "S-2", AcademicYear: "2024/2025", Semester: "2", TotalAmount: d("2500.00"), AmountPaid: d("2500.00"), Status: "PAID"},
	}}
	balances := newMockBalanceRepo()
	svc := newMigrationService(legacy, &mockMigCategoryRepo{}, newMockMigStructureRepo(), balances)

	result, err := svc.Migrate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, result.Migrated)
	assert.Equal(t, 0, result.Skipped)
	assert.Equal(t, 0, result.Errored)

	// Both rows share one synthetic item because amount and period match.
	require.Len(t, balances.balances, 2)
	for _, balance := range balances.balances {
		switch balance.StudentNumber {
		case "S-1":
			assert.True(t, balance.OutstandingBalance.Equal(d("1500.00")))
			assert.Equal(t, models.BalanceStatusPartial, balance.Status)
			assert.Equal(t, due, balance.DueDate)
		case "S-2":
			assert.True(t, balance.OutstandingBalance.IsZero())
			assert.Equal(t, models.BalanceStatusPaid, balance.Status)
		}
	}
}

func TestMigrateSkipsAlreadyMigratedRows(t *testing.T) {
	legacy := &mockLegacyReader{rows: []models.LegacyStudentBalance{
		{ID: "L1", StudentNumber: "S-1", AcademicYear: "2024/2025", Semester: "1", TotalAmount: d("900.00"), AmountPaid: d("0"), Status: "outstanding"},
	}}
	balances := newMockBalanceRepo()
	svc := newMigrationService(legacy, &mockMigCategoryRepo{}, newMockMigStructureRepo(), balances)

	first, err := svc.Migrate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, first.Migrated)

	second, err := svc.Migrate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, second.Migrated)
	assert.Equal(t, 1, second.Skipped)
	assert.Len(t, balances.balances, 1)
}

func TestMigrateUnknownStatusDefaultsToOutstanding(t *testing.T) {
	legacy := &mockLegacyReader{rows: []models.LegacyStudentBalance{
		{ID: "L1", StudentNumber: "S-1", AcademicYear: "2023/2024", Semester: "1", TotalAmount: d("700.00"), AmountPaid: d("0"), Status: "belum lunas"},
	}}
	balances := newMockBalanceRepo()
	svc := newMigrationService(legacy, &mockMigCategoryRepo{}, newMockMigStructureRepo(), balances)

	result, err := svc.Migrate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, result.Migrated)
	for _, balance := range balances.balances {
		assert.Equal(t, models.BalanceStatusOutstanding, balance.Status)
	}
}

func TestMigrateReusesExistingCategory(t *testing.T) {
	categories := &mockMigCategoryRepo{byName: map[string]models.FeeCategory{
		legacyCategoryName: {ID: "cat-existing", Name: legacyCategoryName},
	}}
	structures := newMockMigStructureRepo()
	legacy := &mockLegacyReader{rows: []models.LegacyStudentBalance{
		{ID: "L1", StudentNumber: "S-1", AcademicYear: "2024/2025", Semester: "1", TotalAmount: d("100.00"), AmountPaid: d("0"), Status: "outstanding"},
	}}
	svc := newMigrationService(legacy, categories, structures, newMockBalanceRepo())

	_, err := svc.Migrate(context.Background())
	require.NoError(t, err)
	for _, item := range structures.items {
		assert.Equal(t, "cat-existing", item.FeeCategoryID)
	}
}
