package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/civicreport/api/internal/config"
	"github.com/civicreport/api/internal/database"
	"github.com/civicreport/api/internal/model"
	"github.com/civicreport/api/internal/store"
	"github.com/joho/godotenv"
)

// Issue types
const (
	IssueUnknownCategory   = "UNKNOWN_CATEGORY"
	IssueUnknownDepartment = "UNKNOWN_DEPARTMENT"
	IssueWrongDepartment   = "WRONG_DEPARTMENT"
	IssueInvalidStatus     = "INVALID_STATUS"
	IssueInvalidPriority   = "INVALID_PRIORITY"
)

type Issue struct {
	ReportID int64  `json:"reportId"`
	Title    string `json:"title"`
	Type     string `json:"type"`
	Details  string `json:"details"`
	// Expected is the department the category maps to, for WRONG_DEPARTMENT.
	Expected string `json:"expected,omitempty"`
}

// catalog is the read-only lookup every worker shares.
type catalog struct {
	mapping     map[string]string
	departments map[string]bool
}

func loadCatalog(ctx context.Context, s *store.Store) (*catalog, error) {
	categories, err := s.Categories.Select(ctx, nil, nil)
	if err != nil {
		return nil, err
	}
	departments, err := s.Departments.Select(ctx, nil, nil)
	if err != nil {
		return nil, err
	}

	c := &catalog{mapping: make(map[string]string), departments: make(map[string]bool)}
	for _, cat := range categories {
		c.mapping[cat.Name] = cat.DepartmentMapping
	}
	for _, d := range departments {
		c.departments[d.Name] = true
	}
	return c, nil
}

// auditReport checks one report against the catalog. Reports whose
// department was reassigned by staff are not expected to follow the
// category mapping.
func auditReport(r model.Report, c *catalog) []Issue {
	var issues []Issue
	add := func(typ, details string) {
		issues = append(issues, Issue{ReportID: r.ID, Title: r.Title, Type: typ, Details: details})
	}

	if !model.IsValidStatus(r.Status) {
		add(IssueInvalidStatus, fmt.Sprintf("status %q is not a known status", r.Status))
	}
	if !model.IsValidPriority(r.Priority) {
		add(IssueInvalidPriority, fmt.Sprintf("priority %q is not a known priority", r.Priority))
	}
	if !c.departments[r.AssignedDepartment] {
		add(IssueUnknownDepartment, fmt.Sprintf("department %q does not exist", r.AssignedDepartment))
	}

	expected, ok := c.mapping[r.Category]
	if !ok {
		add(IssueUnknownCategory, fmt.Sprintf("category %q does not exist", r.Category))
		return issues
	}
	if !r.DepartmentLocked && r.AssignedDepartment != expected {
		issues = append(issues, Issue{
			ReportID: r.ID,
			Title:    r.Title,
			Type:     IssueWrongDepartment,
			Details:  fmt.Sprintf("assigned to %q but %s maps to %q", r.AssignedDepartment, r.Category, expected),
			Expected: expected,
		})
	}
	return issues
}

func main() {
	workers := flag.Int("workers", 10, "Number of parallel workers")
	outputFile := flag.String("output", "audit_results.json", "Output file for results")
	fix := flag.Bool("fix", false, "Reassign reports whose department does not match their category")
	flag.Parse()

	_ = godotenv.Load()

	cfg := config.Load()
	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	s, err := store.New(db)
	if err != nil {
		log.Fatalf("Failed to initialize store: %v", err)
	}

	ctx := context.Background()
	cat, err := loadCatalog(ctx, s)
	if err != nil {
		log.Fatalf("Failed to load categories: %v", err)
	}
	reports, err := s.Reports.Select(ctx, nil, store.Asc("id"))
	if err != nil {
		log.Fatalf("Failed to load reports: %v", err)
	}
	total := len(reports)

	fmt.Printf("Auditing %d reports with %d workers...\n", total, *workers)

	reportChan := make(chan model.Report, *workers*10)
	issueChan := make(chan Issue, 1000)

	var processed int64
	var fixed int64
	var wg sync.WaitGroup

	// Start workers
	for i := 0; i < *workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for r := range reportChan {
				for _, issue := range auditReport(r, cat) {
					if *fix && issue.Type == IssueWrongDepartment {
						_, err := s.Reports.Update(ctx, store.Patch{"assigned_department": issue.Expected}, store.Where().Eq("id", r.ID))
						if err != nil {
							log.Printf("Failed to fix report #%d: %v", r.ID, err)
						} else {
							atomic.AddInt64(&fixed, 1)
						}
					}
					issueChan <- issue
				}
				p := atomic.AddInt64(&processed, 1)
				if p%500 == 0 {
					fmt.Printf("Progress: %d/%d (%.1f%%)\n", p, total, float64(p)/float64(total)*100)
				}
			}
		}()
	}

	// Collect issues
	var issues []Issue
	done := make(chan bool)
	go func() {
		for issue := range issueChan {
			issues = append(issues, issue)
		}
		done <- true
	}()

	startTime := time.Now()
	for _, r := range reports {
		reportChan <- r
	}
	close(reportChan)
	wg.Wait()
	close(issueChan)
	<-done

	elapsed := time.Since(startTime)
	fmt.Printf("\n=== Audit Complete ===\n")
	fmt.Printf("Total reports: %d\n", total)
	fmt.Printf("Issues found: %d\n", len(issues))
	if *fix {
		fmt.Printf("Reports reassigned: %d\n", atomic.LoadInt64(&fixed))
	}
	fmt.Printf("Time elapsed: %v\n", elapsed)

	// Group issues by type
	issuesByType := make(map[string][]Issue)
	for _, issue := range issues {
		issuesByType[issue.Type] = append(issuesByType[issue.Type], issue)
	}

	fmt.Printf("\n=== Issues by Type ===\n")
	for typ, typeIssues := range issuesByType {
		fmt.Printf("%s: %d\n", typ, len(typeIssues))
	}

	// Save results
	output := map[string]interface{}{
		"summary": map[string]interface{}{
			"total":   total,
			"issues":  len(issues),
			"fixed":   atomic.LoadInt64(&fixed),
			"elapsed": elapsed.String(),
		},
		"issuesByType": issuesByType,
		"issues":       issues,
	}

	jsonData, _ := json.MarshalIndent(output, "", "  ")
	if err := os.WriteFile(*outputFile, jsonData, 0644); err != nil {
		log.Printf("Failed to write output file: %v", err)
	} else {
		fmt.Printf("\nResults saved to %s\n", *outputFile)
	}
}
