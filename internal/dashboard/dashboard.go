// Package dashboard assembles the read-only views shown on the landing
// page, the admin dashboard, the analytics tab and the map.
package dashboard

import (
	"context"
	"math"
	"sort"
	"time"

	"github.com/civicreport/api/internal/model"
	"github.com/civicreport/api/internal/store"
)

const (
	urgentLimit = 5
	recentLimit = 5
)

type Workload struct {
	Department string `json:"department"`
	Pending    int    `json:"pending"`
	InProgress int    `json:"inProgress"`
	Total      int    `json:"total"`
}

type Dashboard struct {
	Stats    *store.Statistics         `json:"stats"`
	Urgent   []store.ReportWithDetails `json:"urgent"`
	Recent   []store.ReportWithDetails `json:"recent"`
	Workload []Workload                `json:"workload"`
}

// Build loads everything the admin dashboard tab shows.
func Build(ctx context.Context, s *store.Store) (*Dashboard, error) {
	reports, err := s.ReportsWithDetails(ctx)
	if err != nil {
		return nil, err
	}
	departments, err := s.Departments.Select(ctx, nil, store.Asc("name"))
	if err != nil {
		return nil, err
	}
	return Assemble(reports, departments), nil
}

// Assemble expects reports newest first.
func Assemble(reports []store.ReportWithDetails, departments []model.Department) *Dashboard {
	plain := make([]model.Report, len(reports))
	for i := range reports {
		plain[i] = reports[i].Report
	}

	d := &Dashboard{
		Stats:    store.ComputeStatistics(plain),
		Urgent:   []store.ReportWithDetails{},
		Recent:   append([]store.ReportWithDetails{}, reports[:min(recentLimit, len(reports))]...),
		Workload: make([]Workload, 0, len(departments)),
	}

	for i := range reports {
		if len(d.Urgent) == urgentLimit {
			break
		}
		if reports[i].IsUrgent() {
			d.Urgent = append(d.Urgent, reports[i])
		}
	}

	for _, dept := range departments {
		w := Workload{Department: dept.Name}
		for i := range plain {
			if plain[i].AssignedDepartment != dept.Name {
				continue
			}
			w.Total++
			switch plain[i].Status {
			case model.StatusPending:
				w.Pending++
			case model.StatusInProgress:
				w.InProgress++
			}
		}
		d.Workload = append(d.Workload, w)
	}
	return d
}

// LandingStats are the public numbers on the landing page.
type LandingStats struct {
	Total    int `json:"total"`
	Resolved int `json:"resolved"`
	Pending  int `json:"pending"`
}

func Landing(stats *store.Statistics) LandingStats {
	return LandingStats{Total: stats.Total, Resolved: stats.Resolved, Pending: stats.Pending}
}

type MonthCount struct {
	Month string `json:"month"`
	Count int    `json:"count"`
}

type Analytics struct {
	*store.Statistics
	ResolutionRate      float64            `json:"resolutionRate"`
	Monthly             []MonthCount       `json:"monthly"`
	AvgDaysToResolution map[string]float64 `json:"avgDaysToResolution"`
}

func BuildAnalytics(ctx context.Context, s *store.Store) (*Analytics, error) {
	reports, err := s.Reports.Select(ctx, nil, store.Asc("created_at"))
	if err != nil {
		return nil, err
	}
	return ComputeAnalytics(reports), nil
}

// ComputeAnalytics expects reports oldest first. A resolved report's
// resolution time is approximated by its last update.
func ComputeAnalytics(reports []model.Report) *Analytics {
	a := &Analytics{
		Statistics:          store.ComputeStatistics(reports),
		Monthly:             []MonthCount{},
		AvgDaysToResolution: make(map[string]float64),
	}
	if a.Total > 0 {
		a.ResolutionRate = round1(float64(a.Resolved) * 100 / float64(a.Total))
	}

	index := make(map[string]int)
	days := make(map[string]float64)
	resolved := make(map[string]int)
	for _, r := range reports {
		month := r.CreatedAt.Format("Jan 2006")
		i, ok := index[month]
		if !ok {
			i = len(a.Monthly)
			index[month] = i
			a.Monthly = append(a.Monthly, MonthCount{Month: month})
		}
		a.Monthly[i].Count++

		if r.Status == model.StatusResolved {
			days[r.Category] += r.UpdatedAt.Sub(r.CreatedAt).Hours() / 24
			resolved[r.Category]++
		}
	}
	for category, total := range days {
		a.AvgDaysToResolution[category] = round1(total / float64(resolved[category]))
	}
	return a
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

// Map marker styling.
var (
	statusColors = map[string]string{
		model.StatusPending:    "#FFC185",
		model.StatusInProgress: "#1FB8CD",
		model.StatusResolved:   "#5D878F",
	}
	priorityRadius = map[string]int{
		model.PriorityEmergency: 12,
		model.PriorityHigh:      10,
		model.PriorityMedium:    8,
		model.PriorityLow:       6,
	}
	categoryColors = map[string]string{
		"Potholes":           "#1FB8CD",
		"Street Lights":      "#FFC185",
		"Trash Collection":   "#B4413C",
		"Water Issues":       "#ECEBD5",
		"Traffic Signs":      "#5D878F",
		"Graffiti":           "#DB4545",
		"Parks & Recreation": "#D2BA4C",
		"Other":              "#964325",
	}
)

const defaultColor = "#964325"

func StatusColor(status string) string {
	if c, ok := statusColors[status]; ok {
		return c
	}
	return defaultColor
}

func PriorityRadius(priority string) int {
	if r, ok := priorityRadius[priority]; ok {
		return r
	}
	return 8
}

func CategoryColor(category string) string {
	if c, ok := categoryColors[category]; ok {
		return c
	}
	return defaultColor
}

type Marker struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Category    string    `json:"category"`
	Priority    string    `json:"priority"`
	Status      string    `json:"status"`
	Department  string    `json:"department"`
	Address     string    `json:"address,omitempty"`
	Latitude    float64   `json:"latitude"`
	Longitude   float64   `json:"longitude"`
	Radius      int       `json:"radius"`
	FillColor   string    `json:"fillColor"`
	BorderColor string    `json:"borderColor"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Markers converts the geolocated reports to map markers. Reports without
// coordinates are skipped.
func Markers(reports []model.Report) []Marker {
	markers := make([]Marker, 0, len(reports))
	for i := range reports {
		r := &reports[i]
		if !r.HasLocation() {
			continue
		}
		markers = append(markers, Marker{
			ID:          r.ID,
			Title:       r.Title,
			Description: r.Description,
			Category:    r.Category,
			Priority:    r.Priority,
			Status:      r.Status,
			Department:  r.AssignedDepartment,
			Address:     r.Address,
			Latitude:    *r.Latitude,
			Longitude:   *r.Longitude,
			Radius:      PriorityRadius(r.Priority),
			FillColor:   CategoryColor(r.Category),
			BorderColor: StatusColor(r.Status),
			CreatedAt:   r.CreatedAt,
		})
	}
	return markers
}

// Legend lists the category colours in a stable order.
func Legend() []map[string]string {
	names := make([]string, 0, len(categoryColors))
	for name := range categoryColors {
		names = append(names, name)
	}
	sort.Strings(names)

	legend := make([]map[string]string, 0, len(names))
	for _, name := range names {
		legend = append(legend, map[string]string{"category": name, "color": categoryColors[name]})
	}
	return legend
}
