package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/civicreport/api/internal/auth"
	"github.com/civicreport/api/internal/dashboard"
	"github.com/civicreport/api/internal/filter"
	"github.com/civicreport/api/internal/middleware"
	"github.com/civicreport/api/internal/model"
	"github.com/civicreport/api/internal/notification"
	"github.com/civicreport/api/internal/store"
	"github.com/civicreport/api/internal/validator"
	"github.com/gin-gonic/gin"
)

type ReportHandler struct {
	store    *store.Store
	notifier *Notifier
}

func NewReportHandler(s *store.Store, notifier *Notifier) *ReportHandler {
	return &ReportHandler{store: s, notifier: notifier}
}

type SubmitReportRequest struct {
	Title          string   `json:"title" binding:"required"`
	Description    string   `json:"description" binding:"required"`
	Category       string   `json:"category" binding:"required"`
	Subcategory    string   `json:"subcategory"`
	Priority       string   `json:"priority" binding:"required,priority"`
	CitizenContact string   `json:"citizen_contact" binding:"omitempty,email"`
	Latitude       *float64 `json:"latitude"`
	Longitude      *float64 `json:"longitude"`
	Address        string   `json:"address"`
	Photo          string   `json:"photo"`
}

// Submit files a new report. The session's submission guard keeps a second
// submit from running while the first is still in flight.
func (h *ReportHandler) Submit(c *gin.Context) {
	sess := middleware.CurrentSession(c)
	if sess == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	release, err := sess.BeginSubmit()
	if err != nil {
		respondError(c, err)
		return
	}
	defer release()

	var req SubmitReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, bindError(err, "Please fill in all required fields"))
		return
	}
	if err := validator.ValidatePhoto(req.Photo); err != nil {
		respondError(c, err)
		return
	}
	if err := validator.ValidateCoordinates(req.Latitude, req.Longitude); err != nil {
		respondError(c, err)
		return
	}

	ctx := c.Request.Context()
	category, err := h.store.Categories.First(ctx, store.Where().Eq("name", req.Category))
	if errors.Is(err, store.ErrNotFound) {
		respondError(c, validator.New("category", "unknown category "+req.Category))
		return
	}
	if err != nil {
		respondError(c, err)
		return
	}

	contact := normalizeEmail(req.CitizenContact)
	if sess.Role() == model.RoleCitizen || contact == "" {
		contact = normalizeEmail(sess.User.Email)
	}

	report := &model.Report{
		Title:              strings.TrimSpace(req.Title),
		Description:        strings.TrimSpace(req.Description),
		Category:           category.Name,
		Priority:           req.Priority,
		Status:             model.StatusPending,
		CitizenContact:     contact,
		Latitude:           req.Latitude,
		Longitude:          req.Longitude,
		Address:            req.Address,
		AssignedDepartment: category.DepartmentMapping,
	}
	if req.Subcategory != "" {
		sub := req.Subcategory
		report.Subcategory = &sub
	}
	if req.Photo != "" {
		photo := req.Photo
		report.PhotoPath = &photo
	}

	report, err = h.store.Reports.Insert(ctx, report)
	if err != nil {
		respondError(c, err)
		return
	}
	middleware.RecordReportSubmission(report.Category, report.Priority)

	h.notifier.Notify(ctx, report.CitizenContact, notification.TypeNewReport, notification.ReportPayload(report))
	if dept, err := h.store.Departments.First(ctx, store.Where().Eq("name", report.AssignedDepartment)); err == nil {
		h.notifier.MailDepartment(dept, *report)
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": fmt.Sprintf("Report #%d submitted successfully! Department has been notified.", report.ID),
		"report":  report,
	})
}

// Track lists the reports filed under a contact email, newest first.
// Citizens can only track their own.
func (h *ReportHandler) Track(c *gin.Context) {
	sess := middleware.CurrentSession(c)
	email := normalizeEmail(c.Query("email"))
	if sess != nil && sess.Role() == model.RoleCitizen {
		own := normalizeEmail(sess.User.Email)
		if email != "" && email != own {
			respondError(c, auth.ErrForbidden)
			return
		}
		email = own
	}
	if email == "" {
		respondError(c, validator.New("email", "Please enter your email address"))
		return
	}

	reports, err := h.store.Reports.Select(c.Request.Context(), store.Where().Eq("citizen_contact", email), store.Desc("created_at"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"reports": reports, "count": len(reports)})
}

// Map returns markers for the geolocated reports matching the query.
func (h *ReportHandler) Map(c *gin.Context) {
	var q filter.ReportQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		respondError(c, bindError(err, "invalid query"))
		return
	}
	reports, err := h.store.Reports.Select(c.Request.Context(), q.Filter(), store.Desc("created_at"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"markers": dashboard.Markers(reports),
		"legend":  dashboard.Legend(),
	})
}

// Get returns one report with its category and department.
func (h *ReportHandler) Get(c *gin.Context) {
	id, err := paramID(c)
	if err != nil {
		respondError(c, err)
		return
	}
	detailed, err := h.load(c, id)
	if err != nil {
		respondError(c, err)
		return
	}

	sess := middleware.CurrentSession(c)
	if sess != nil && !auth.Allowed(sess.Role(), auth.ActionViewReports) &&
		detailed.CitizenContact != normalizeEmail(sess.User.Email) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Report not found"})
		return
	}
	c.JSON(http.StatusOK, detailed)
}

func (h *ReportHandler) load(c *gin.Context, id int64) (*store.ReportWithDetails, error) {
	ctx := c.Request.Context()
	report, err := h.store.Reports.First(ctx, store.Where().Eq("id", id))
	if err != nil {
		return nil, err
	}
	categories, err := h.store.Categories.Select(ctx, store.Where().Eq("name", report.Category), nil)
	if err != nil {
		return nil, err
	}
	departments, err := h.store.Departments.Select(ctx, store.Where().Eq("name", report.AssignedDepartment), nil)
	if err != nil {
		return nil, err
	}
	joined := store.JoinDetails([]model.Report{*report}, categories, departments)
	return &joined[0], nil
}

// List returns the management view: all reports, filtered and paginated.
func (h *ReportHandler) List(c *gin.Context) {
	var q filter.ReportQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		respondError(c, bindError(err, "invalid query"))
		return
	}
	page, limit := pagination(c)

	reports, err := h.store.ReportsWithDetails(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	matched := filter.Apply(q, reports)

	total := len(matched)
	start := min((page-1)*limit, total)
	end := min(start+limit, total)

	c.JSON(http.StatusOK, gin.H{
		"data":       matched[start:end],
		"page":       page,
		"limit":      limit,
		"totalCount": total,
		"totalPages": (total + limit - 1) / limit,
	})
}

type UpdateReportRequest struct {
	Status             string  `json:"status" binding:"omitempty,status"`
	AssignedDepartment string  `json:"assigned_department"`
	InternalNotes      *string `json:"internal_notes"`
}

// Update changes status, department and notes and tells the citizen what
// changed.
func (h *ReportHandler) Update(c *gin.Context) {
	id, err := paramID(c)
	if err != nil {
		respondError(c, err)
		return
	}
	var req UpdateReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, bindError(err, "invalid update"))
		return
	}

	ctx := c.Request.Context()
	current, err := h.store.Reports.First(ctx, store.Where().Eq("id", id))
	if err != nil {
		respondError(c, err)
		return
	}

	patch := store.Patch{}
	statusChanged := req.Status != "" && req.Status != current.Status
	if statusChanged {
		patch["status"] = req.Status
	}
	reassigned := req.AssignedDepartment != "" && req.AssignedDepartment != current.AssignedDepartment
	if reassigned {
		n, err := h.store.Departments.Count(ctx, store.Where().Eq("name", req.AssignedDepartment))
		if err != nil {
			respondError(c, err)
			return
		}
		if n == 0 {
			respondError(c, validator.New("assigned_department", "unknown department "+req.AssignedDepartment))
			return
		}
		patch["assigned_department"] = req.AssignedDepartment
		patch["department_locked"] = true
	}
	if req.InternalNotes != nil {
		patch["internal_notes"] = *req.InternalNotes
	}
	if len(patch) == 0 {
		c.JSON(http.StatusOK, gin.H{"message": "Report updated successfully", "report": current})
		return
	}

	updated, err := h.store.Reports.Update(ctx, patch, store.Where().Eq("id", id))
	if err != nil {
		respondError(c, err)
		return
	}
	if len(updated) == 0 {
		respondError(c, &store.NotFoundError{Collection: "reports"})
		return
	}
	report := &updated[0]

	message := "Report updated successfully"
	if statusChanged {
		message += " - Status changed to " + report.Status
		h.notifier.Notify(ctx, report.CitizenContact, notification.TypeStatusUpdate, notification.ReportPayload(report))
	}
	if reassigned {
		message += " - Reassigned to " + report.AssignedDepartment
		h.notifier.Notify(ctx, report.CitizenContact, notification.TypeReassignment, notification.ReportPayload(report))
	}

	c.JSON(http.StatusOK, gin.H{"message": message, "report": report})
}

// UpdatePriority sets the priority of one report.
func (h *ReportHandler) UpdatePriority(c *gin.Context) {
	id, err := paramID(c)
	if err != nil {
		respondError(c, err)
		return
	}
	var req struct {
		Priority string `json:"priority" binding:"required,priority"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, bindError(err, "priority must be one of Low, Medium, High, Emergency"))
		return
	}

	updated, err := h.store.Reports.Update(c.Request.Context(), store.Patch{"priority": req.Priority}, store.Where().Eq("id", id))
	if err != nil {
		respondError(c, err)
		return
	}
	if len(updated) == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Report not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Priority updated successfully", "report": updated[0]})
}

// Delete removes a report. Deleting an id that no longer exists succeeds.
func (h *ReportHandler) Delete(c *gin.Context) {
	id, err := paramID(c)
	if err != nil {
		respondError(c, err)
		return
	}
	if err := h.store.Reports.Delete(c.Request.Context(), store.Where().Eq("id", id)); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Report deleted successfully"})
}
