package store

import (
	"context"

	"github.com/civicreport/api/internal/model"
)

type ReportWithDetails struct {
	model.Report
	CategoryDetails   *model.Category   `json:"category_details,omitempty"`
	DepartmentDetails *model.Department `json:"department_details,omitempty"`
}

type Statistics struct {
	Total        int            `json:"total"`
	Pending      int            `json:"pending"`
	InProgress   int            `json:"inProgress"`
	Resolved     int            `json:"resolved"`
	ByCategory   map[string]int `json:"byCategory"`
	ByDepartment map[string]int `json:"byDepartment"`
	ByPriority   map[string]int `json:"byPriority"`
}

// ReportsWithDetails returns every report newest first, each joined with its
// category and assigned department.
func (s *Store) ReportsWithDetails(ctx context.Context) ([]ReportWithDetails, error) {
	reports, err := s.Reports.Select(ctx, nil, Desc("created_at"))
	if err != nil {
		return nil, err
	}
	categories, err := s.Categories.Select(ctx, nil, nil)
	if err != nil {
		return nil, err
	}
	departments, err := s.Departments.Select(ctx, nil, nil)
	if err != nil {
		return nil, err
	}
	return JoinDetails(reports, categories, departments), nil
}

// JoinDetails left-joins reports with the first category whose name equals
// the report's category and the first department whose name equals the
// report's assigned department. Missing matches stay nil.
func JoinDetails(reports []model.Report, categories []model.Category, departments []model.Department) []ReportWithDetails {
	catByName := make(map[string]*model.Category, len(categories))
	for i := range categories {
		if _, seen := catByName[categories[i].Name]; !seen {
			catByName[categories[i].Name] = &categories[i]
		}
	}
	deptByName := make(map[string]*model.Department, len(departments))
	for i := range departments {
		if _, seen := deptByName[departments[i].Name]; !seen {
			deptByName[departments[i].Name] = &departments[i]
		}
	}

	out := make([]ReportWithDetails, len(reports))
	for i, r := range reports {
		out[i] = ReportWithDetails{
			Report:            r,
			CategoryDetails:   catByName[r.Category],
			DepartmentDetails: deptByName[r.AssignedDepartment],
		}
	}
	return out
}

func (s *Store) ReportStatistics(ctx context.Context) (*Statistics, error) {
	reports, err := s.Reports.Select(ctx, nil, nil)
	if err != nil {
		return nil, err
	}
	return ComputeStatistics(reports), nil
}

// ComputeStatistics aggregates reports in a single pass.
func ComputeStatistics(reports []model.Report) *Statistics {
	stats := &Statistics{
		Total:        len(reports),
		ByCategory:   make(map[string]int),
		ByDepartment: make(map[string]int),
		ByPriority:   make(map[string]int),
	}
	for _, r := range reports {
		switch r.Status {
		case model.StatusPending:
			stats.Pending++
		case model.StatusInProgress:
			stats.InProgress++
		case model.StatusResolved:
			stats.Resolved++
		}
		stats.ByCategory[r.Category]++
		stats.ByDepartment[r.AssignedDepartment]++
		stats.ByPriority[r.Priority]++
	}
	return stats
}
