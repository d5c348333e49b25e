package filter

import (
	"strings"

	"github.com/civicreport/api/internal/model"
	"github.com/civicreport/api/internal/store"
)

// ReportQuery is the staff report search: exact matches on category,
// status and department plus a free-text search over title, description
// and address.
type ReportQuery struct {
	Category   string `form:"category"`
	Status     string `form:"status"`
	Department string `form:"department"`
	Priority   string `form:"priority"`
	Search     string `form:"search"`
}

// Filter returns the exact-match part of q for the store. The free-text
// search spans several columns with OR and is applied by Match.
func (q ReportQuery) Filter() store.Filter {
	f := store.Where()
	if q.Category != "" {
		f = f.Eq("category", q.Category)
	}
	if q.Status != "" {
		f = f.Eq("status", q.Status)
	}
	if q.Department != "" {
		f = f.Eq("assigned_department", q.Department)
	}
	if q.Priority != "" {
		f = f.Eq("priority", q.Priority)
	}
	return f
}

// Match reports whether r satisfies every part of q.
func (q ReportQuery) Match(r *model.Report) bool {
	if q.Category != "" && r.Category != q.Category {
		return false
	}
	if q.Status != "" && r.Status != q.Status {
		return false
	}
	if q.Department != "" && r.AssignedDepartment != q.Department {
		return false
	}
	if q.Priority != "" && r.Priority != q.Priority {
		return false
	}

	term := strings.ToLower(strings.TrimSpace(q.Search))
	if term == "" {
		return true
	}
	return strings.Contains(strings.ToLower(r.Title), term) ||
		strings.Contains(strings.ToLower(r.Description), term) ||
		strings.Contains(strings.ToLower(r.Address), term)
}

// Apply keeps the reports matching q, preserving their order.
func Apply(q ReportQuery, reports []store.ReportWithDetails) []store.ReportWithDetails {
	filtered := make([]store.ReportWithDetails, 0, len(reports))
	for i := range reports {
		if q.Match(&reports[i].Report) {
			filtered = append(filtered, reports[i])
		}
	}
	return filtered
}
