package filter

import (
	"testing"

	"github.com/civicreport/api/internal/model"
	"github.com/civicreport/api/internal/store"
	"github.com/stretchr/testify/assert"
)

func fixtures() []store.ReportWithDetails {
	mk := func(id int64, title, desc, addr, cat, status, dept string) store.ReportWithDetails {
		return store.ReportWithDetails{Report: model.Report{
			ID: id, Title: title, Description: desc, Address: addr,
			Category: cat, Status: status, AssignedDepartment: dept, Priority: model.PriorityMedium,
		}}
	}
	return []store.ReportWithDetails{
		mk(3, "Broken light", "Lamp out on corner", "5 Oak Ave", "Street Lights", model.StatusPending, "Utilities"),
		mk(2, "Pothole", "Huge crater", "12 Main St", "Potholes", model.StatusInProgress, "Public Works"),
		mk(1, "Trash pile", "Near the MAIN square", "Plaza", "Trash Collection", model.StatusPending, "Sanitation"),
	}
}

func ids(reports []store.ReportWithDetails) []int64 {
	out := make([]int64, 0, len(reports))
	for _, r := range reports {
		out = append(out, r.ID)
	}
	return out
}

func TestApply(t *testing.T) {
	tests := []struct {
		name  string
		query ReportQuery
		want  []int64
	}{
		{"empty query keeps all", ReportQuery{}, []int64{3, 2, 1}},
		{"status", ReportQuery{Status: model.StatusPending}, []int64{3, 1}},
		{"category", ReportQuery{Category: "Potholes"}, []int64{2}},
		{"department", ReportQuery{Department: "Sanitation"}, []int64{1}},
		{"search title", ReportQuery{Search: "LIGHT"}, []int64{3}},
		{"search description and address", ReportQuery{Search: "main"}, []int64{2, 1}},
		{"search combined with status", ReportQuery{Search: "main", Status: model.StatusPending}, []int64{1}},
		{"no match", ReportQuery{Category: "Graffiti"}, []int64{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ids(Apply(tt.query, fixtures())))
		})
	}
}

func TestFilter(t *testing.T) {
	assert.Empty(t, ReportQuery{Search: "x"}.Filter())

	f := ReportQuery{Category: "Potholes", Status: model.StatusPending, Department: "Public Works", Priority: "High"}.Filter()
	assert.Equal(t, store.Filter{
		{Field: "category", Op: store.OpEquals, Value: "Potholes"},
		{Field: "status", Op: store.OpEquals, Value: model.StatusPending},
		{Field: "assigned_department", Op: store.OpEquals, Value: "Public Works"},
		{Field: "priority", Op: store.OpEquals, Value: "High"},
	}, f)
}
