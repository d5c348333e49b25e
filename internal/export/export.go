package export

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/civicreport/api/internal/model"
	"github.com/civicreport/api/internal/store"
	"gorm.io/datatypes"
)

type BackupData struct {
	Reports     []model.Report     `json:"reports"`
	Users       []model.User       `json:"users"`
	Categories  []model.Category   `json:"categories"`
	Departments []model.Department `json:"departments"`
}

// Backup is the full-database download. Password hashes never leave the
// server.
type Backup struct {
	Timestamp time.Time  `json:"timestamp"`
	Data      BackupData `json:"data"`
}

func BackupFilename(t time.Time) string {
	return "civic-reports-backup-" + t.UTC().Format("2006-01-02") + ".json"
}

func CSVFilename(t time.Time) string {
	return fmt.Sprintf("reports-%d.csv", t.UnixMilli())
}

func TextFilename(t time.Time) string {
	return fmt.Sprintf("reports-%d.txt", t.UnixMilli())
}

func BuildBackup(ctx context.Context, s *store.Store, now time.Time) (*Backup, error) {
	b := &Backup{Timestamp: now.UTC()}
	var err error

	if b.Data.Reports, err = s.Reports.Select(ctx, nil, store.Asc("id")); err != nil {
		return nil, err
	}
	if b.Data.Users, err = s.Users.Select(ctx, nil, store.Asc("id")); err != nil {
		return nil, err
	}
	if b.Data.Categories, err = s.Categories.Select(ctx, nil, store.Asc("id")); err != nil {
		return nil, err
	}
	if b.Data.Departments, err = s.Departments.Select(ctx, nil, store.Asc("id")); err != nil {
		return nil, err
	}
	return b, nil
}

func (b *Backup) Counts() map[string]int {
	return map[string]int{
		"reports":     len(b.Data.Reports),
		"users":       len(b.Data.Users),
		"categories":  len(b.Data.Categories),
		"departments": len(b.Data.Departments),
	}
}

// WriteJSON writes the backup indented by two spaces.
func (b *Backup) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(b)
}

// Record stores that a backup was taken, for the settings page.
func Record(ctx context.Context, s *store.Store, b *Backup, filename string, createdBy *int64) (*model.Backup, error) {
	counts, err := json.Marshal(b.Counts())
	if err != nil {
		return nil, err
	}
	return s.Backups.Insert(ctx, &model.Backup{
		Filename:  filename,
		Counts:    datatypes.JSON(counts),
		CreatedBy: createdBy,
		CreatedAt: b.Timestamp,
	})
}

// LastBackup returns the most recent backup record, or nil if there is none.
func LastBackup(ctx context.Context, s *store.Store) (*model.Backup, error) {
	backups, err := s.Backups.Select(ctx, nil, store.Desc("created_at"))
	if err != nil {
		return nil, err
	}
	if len(backups) == 0 {
		return nil, nil
	}
	return &backups[0], nil
}

var csvHeader = []string{
	"id", "title", "description", "category", "subcategory", "priority", "status",
	"citizen_contact", "latitude", "longitude", "address", "assigned_department",
	"department_contact", "internal_notes", "created_at", "updated_at",
}

// WriteCSV writes joined reports, one row each. Photos are omitted.
func WriteCSV(w io.Writer, reports []store.ReportWithDetails) error {
	writer := csv.NewWriter(w)

	if err := writer.Write(csvHeader); err != nil {
		return err
	}
	for _, r := range reports {
		contact := ""
		if r.DepartmentDetails != nil && r.DepartmentDetails.ContactEmail != nil {
			contact = *r.DepartmentDetails.ContactEmail
		}
		row := []string{
			strconv.FormatInt(r.ID, 10),
			r.Title,
			r.Description,
			r.Category,
			deref(r.Subcategory),
			r.Priority,
			r.Status,
			r.CitizenContact,
			formatCoord(r.Latitude),
			formatCoord(r.Longitude),
			r.Address,
			r.AssignedDepartment,
			contact,
			r.InternalNotes,
			r.CreatedAt.UTC().Format(time.RFC3339),
			r.UpdatedAt.UTC().Format(time.RFC3339),
		}
		if err := writer.Write(row); err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}

// WriteText writes the plain-text report listing.
func WriteText(w io.Writer, reports []store.ReportWithDetails, generated time.Time) error {
	if _, err := fmt.Fprintf(w, "Civic Reports\nGenerated: %s\n\n", generated.Format("2006-01-02 15:04:05")); err != nil {
		return err
	}
	for _, r := range reports {
		if _, err := fmt.Fprintf(w, "#%d | %s\nPriority: %s\nStatus: %s\n\n", r.ID, r.Title, r.Priority, r.Status); err != nil {
			return err
		}
	}
	return nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func formatCoord(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}
