package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/civicreport/api/internal/database"
	"github.com/civicreport/api/internal/model"
	"github.com/civicreport/api/internal/validator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "store.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	s, err := New(db)
	require.NoError(t, err)
	return s
}

func insertReport(t *testing.T, s *Store, r model.Report) model.Report {
	t.Helper()
	if r.Description == "" {
		r.Description = "description"
	}
	if r.CitizenContact == "" {
		r.CitizenContact = "citizen@example.com"
	}
	if r.Priority == "" {
		r.Priority = model.PriorityMedium
	}
	if r.Status == "" {
		r.Status = model.StatusPending
	}
	out, err := s.Reports.Insert(context.Background(), &r)
	require.NoError(t, err)
	return *out
}

func TestInsertReturnsStoredRecord(t *testing.T) {
	s := newTestStore(t)

	r := insertReport(t, s, model.Report{Title: "Pothole", Category: "Roads"})

	assert.NotZero(t, r.ID)
	assert.False(t, r.CreatedAt.IsZero())
	assert.False(t, r.UpdatedAt.IsZero())
}

func TestSelectByStatus(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	insertReport(t, s, model.Report{Title: "a", Category: "Roads", Status: model.StatusPending})
	insertReport(t, s, model.Report{Title: "b", Category: "Roads", Status: model.StatusResolved})
	insertReport(t, s, model.Report{Title: "c", Category: "Water", Status: model.StatusPending})
	insertReport(t, s, model.Report{Title: "d", Category: "Water", Status: model.StatusInProgress})

	pending, err := s.Reports.Select(ctx, Where().Eq("status", model.StatusPending), nil)
	require.NoError(t, err)

	titles := make([]string, 0, len(pending))
	for _, r := range pending {
		assert.Equal(t, model.StatusPending, r.Status)
		titles = append(titles, r.Title)
	}
	assert.ElementsMatch(t, []string{"a", "c"}, titles)

	all, err := s.Reports.Select(ctx, nil, nil)
	require.NoError(t, err)
	assert.Len(t, all, 4)

	both, err := s.Reports.Select(ctx, Where().Eq("status", model.StatusPending).Eq("category", "Water"), nil)
	require.NoError(t, err)
	require.Len(t, both, 1)
	assert.Equal(t, "c", both[0].Title)
}

func TestSelectContainsIsCaseInsensitiveAndLiteral(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	insertReport(t, s, model.Report{Title: "Broken STREET light", Category: "Lights"})
	insertReport(t, s, model.Report{Title: "Street sign", Category: "Signs"})
	insertReport(t, s, model.Report{Title: "100% blocked drain", Category: "Water"})
	insertReport(t, s, model.Report{Title: "1000 litres leaked", Category: "Water"})

	street, err := s.Reports.Select(ctx, Where().Contains("title", "street"), nil)
	require.NoError(t, err)
	assert.Len(t, street, 2)

	percent, err := s.Reports.Select(ctx, Where().Contains("title", "0%"), nil)
	require.NoError(t, err)
	require.Len(t, percent, 1)
	assert.Equal(t, "100% blocked drain", percent[0].Title)
}

func TestSelectOrdering(t *testing.T) {
	s := newTestStore(t)
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	insertReport(t, s, model.Report{Title: "old", Category: "x", CreatedAt: base})
	insertReport(t, s, model.Report{Title: "new", Category: "x", CreatedAt: base.Add(2 * time.Hour)})
	insertReport(t, s, model.Report{Title: "mid", Category: "x", CreatedAt: base.Add(time.Hour)})

	desc, err := s.Reports.Select(context.Background(), nil, Desc("created_at"))
	require.NoError(t, err)
	require.Len(t, desc, 3)
	assert.Equal(t, []string{"new", "mid", "old"}, []string{desc[0].Title, desc[1].Title, desc[2].Title})

	asc, err := s.Reports.Select(context.Background(), nil, Asc("title"))
	require.NoError(t, err)
	assert.Equal(t, "mid", asc[0].Title)
}

func TestUnknownFieldIsValidationError(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.Reports.Select(ctx, Where().Eq("colour", "red"), nil)
	assert.True(t, validator.IsValidationError(err))
	assert.False(t, errors.Is(err, ErrBackend))

	_, err = s.Reports.Select(ctx, nil, Desc("status; DROP TABLE reports"))
	assert.True(t, validator.IsValidationError(err))

	_, err = s.Reports.Count(ctx, Where().Contains("title", "x").Eq("nope", 1))
	assert.True(t, validator.IsValidationError(err))
}

func TestUpdateReturnsUpdatedRecords(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	a := insertReport(t, s, model.Report{Title: "a", Category: "Roads"})
	insertReport(t, s, model.Report{Title: "b", Category: "Roads"})
	insertReport(t, s, model.Report{Title: "c", Category: "Water"})

	updated, err := s.Reports.Update(ctx, Patch{"status": model.StatusResolved}, Where().Eq("category", "Roads"))
	require.NoError(t, err)
	require.Len(t, updated, 2)
	for _, r := range updated {
		assert.Equal(t, model.StatusResolved, r.Status)
	}

	one, err := s.Reports.Update(ctx, Patch{"internal_notes": "crew sent"}, Where().Eq("id", a.ID))
	require.NoError(t, err)
	require.Len(t, one, 1)
	assert.Equal(t, "crew sent", one[0].InternalNotes)
	assert.Equal(t, model.StatusResolved, one[0].Status)

	none, err := s.Reports.Update(ctx, Patch{"status": model.StatusPending}, Where().Eq("id", int64(9999)))
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestUpdateRejectsBadInput(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.Reports.Update(ctx, Patch{"status": "Resolved"}, Where().Contains("title", "a"))
	assert.True(t, validator.IsValidationError(err))

	_, err = s.Reports.Update(ctx, Patch{}, Where().Eq("id", int64(1)))
	assert.True(t, validator.IsValidationError(err))

	_, err = s.Reports.Update(ctx, Patch{"id": int64(2)}, Where().Eq("id", int64(1)))
	assert.True(t, validator.IsValidationError(err))

	_, err = s.Reports.Update(ctx, Patch{"bogus": 1}, Where().Eq("id", int64(1)))
	assert.True(t, validator.IsValidationError(err))
}

func TestDelete(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	a := insertReport(t, s, model.Report{Title: "a", Category: "Roads"})
	insertReport(t, s, model.Report{Title: "b", Category: "Roads"})

	assert.NoError(t, s.Reports.Delete(ctx, Where().Eq("id", int64(12345))))
	assert.NoError(t, s.Reports.Delete(ctx, Where().Eq("id", a.ID)))

	n, err := s.Reports.Count(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	err = s.Reports.Delete(ctx, nil)
	assert.True(t, validator.IsValidationError(err))
}

func TestCountAndFirst(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	insertReport(t, s, model.Report{Title: "a", Category: "Roads", Status: model.StatusPending})
	insertReport(t, s, model.Report{Title: "b", Category: "Roads", Status: model.StatusResolved})

	n, err := s.Reports.Count(ctx, Where().Eq("status", model.StatusResolved))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	r, err := s.Reports.First(ctx, Where().Eq("title", "b"))
	require.NoError(t, err)
	assert.Equal(t, model.StatusResolved, r.Status)

	_, err = s.Reports.First(ctx, Where().Eq("title", "zzz"))
	assert.True(t, errors.Is(err, ErrNotFound))
	var nf *NotFoundError
	require.True(t, errors.As(err, &nf))
	assert.Equal(t, "reports", nf.Collection)
}

func TestBackendErrorsAreWrapped(t *testing.T) {
	s := newTestStore(t)

	sqlDB, err := s.DB().DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())

	_, err = s.Reports.Select(context.Background(), nil, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrBackend))

	var be *BackendError
	require.True(t, errors.As(err, &be))
	assert.Equal(t, "select", be.Op)
	assert.Equal(t, "reports", be.Collection)
}

func TestReportsWithDetails(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	_, err := s.Categories.Insert(ctx, &model.Category{Name: "Roads", DepartmentMapping: "Public Works"})
	require.NoError(t, err)
	_, err = s.Departments.Insert(ctx, &model.Department{Name: "Public Works"})
	require.NoError(t, err)

	insertReport(t, s, model.Report{Title: "older", Category: "Roads", AssignedDepartment: "Public Works", CreatedAt: base})
	insertReport(t, s, model.Report{Title: "newer", Category: "Unknown", AssignedDepartment: "Nobody", CreatedAt: base.Add(time.Hour)})

	rows, err := s.ReportsWithDetails(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, "newer", rows[0].Title)
	assert.Nil(t, rows[0].CategoryDetails)
	assert.Nil(t, rows[0].DepartmentDetails)

	assert.Equal(t, "older", rows[1].Title)
	require.NotNil(t, rows[1].CategoryDetails)
	assert.Equal(t, "Public Works", rows[1].CategoryDetails.DepartmentMapping)
	require.NotNil(t, rows[1].DepartmentDetails)
	assert.Equal(t, "Public Works", rows[1].DepartmentDetails.Name)
}

func TestJoinDetailsUsesFirstMatch(t *testing.T) {
	reports := []model.Report{{ID: 1, Category: "Roads", AssignedDepartment: "PW"}}
	categories := []model.Category{
		{ID: 1, Name: "Roads", DepartmentMapping: "first"},
		{ID: 2, Name: "Roads", DepartmentMapping: "second"},
	}
	departments := []model.Department{{ID: 7, Name: "PW"}, {ID: 8, Name: "PW"}}

	rows := JoinDetails(reports, categories, departments)
	require.Len(t, rows, 1)
	assert.Equal(t, "first", rows[0].CategoryDetails.DepartmentMapping)
	assert.Equal(t, int64(7), rows[0].DepartmentDetails.ID)
}

func TestReportStatistics(t *testing.T) {
	s := newTestStore(t)

	insertReport(t, s, model.Report{Title: "1", Category: "CategoryA", Status: model.StatusPending, Priority: model.PriorityHigh, AssignedDepartment: "PW"})
	insertReport(t, s, model.Report{Title: "2", Category: "CategoryA", Status: model.StatusPending, Priority: model.PriorityLow, AssignedDepartment: "PW"})
	insertReport(t, s, model.Report{Title: "3", Category: "CategoryB", Status: model.StatusResolved, Priority: model.PriorityLow, AssignedDepartment: "Water"})

	stats, err := s.ReportStatistics(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 3, stats.Total)
	assert.Equal(t, 2, stats.Pending)
	assert.Equal(t, 0, stats.InProgress)
	assert.Equal(t, 1, stats.Resolved)
	assert.Equal(t, map[string]int{"CategoryA": 2, "CategoryB": 1}, stats.ByCategory)
	assert.Equal(t, map[string]int{"PW": 2, "Water": 1}, stats.ByDepartment)
	assert.Equal(t, map[string]int{"High": 1, "Low": 2}, stats.ByPriority)
}

func TestCounts(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	insertReport(t, s, model.Report{Title: "a", Category: "Roads"})
	_, err := s.Departments.Insert(ctx, &model.Department{Name: "PW"})
	require.NoError(t, err)

	counts, err := s.Counts(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]int64{"reports": 1, "users": 0, "categories": 0, "departments": 1}, counts)
}

func TestFilterBuildersDoNotAlias(t *testing.T) {
	base := Where().Eq("status", "Pending")
	a := base.Eq("category", "A")
	b := base.Eq("category", "B")

	assert.Len(t, base, 1)
	assert.Equal(t, "A", a[1].Value)
	assert.Equal(t, "B", b[1].Value)
	assert.Equal(t, "contains", OpContains.String())
	assert.Equal(t, "%50!%!_off!!%", likePattern("50%_OFF!"))
}
