package handler

import (
	"log"
	"net/http"
	"strings"

	"github.com/civicreport/api/internal/auth"
	"github.com/civicreport/api/internal/dashboard"
	"github.com/civicreport/api/internal/export"
	"github.com/civicreport/api/internal/model"
	"github.com/civicreport/api/internal/session"
	"github.com/civicreport/api/internal/store"
	"github.com/civicreport/api/internal/validator"
	"github.com/gin-gonic/gin"
)

type AdminHandler struct {
	store    *store.Store
	sessions *session.Manager
}

func NewAdminHandler(s *store.Store, sessions *session.Manager) *AdminHandler {
	return &AdminHandler{store: s, sessions: sessions}
}

// GetStats returns the public landing page numbers.
func (h *AdminHandler) GetStats(c *gin.Context) {
	stats, err := h.store.ReportStatistics(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dashboard.Landing(stats))
}

// Dashboard returns stats, urgent and recent reports and department
// workload.
func (h *AdminHandler) Dashboard(c *gin.Context) {
	d, err := dashboard.Build(c.Request.Context(), h.store)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, d)
}

func (h *AdminHandler) Analytics(c *gin.Context) {
	a, err := dashboard.BuildAnalytics(c.Request.Context(), h.store)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, a)
}

// Settings returns the catalog, the record total and the last backup.
func (h *AdminHandler) Settings(c *gin.Context) {
	ctx := c.Request.Context()

	categories, err := h.store.Categories.Select(ctx, nil, store.Asc("name"))
	if err != nil {
		respondError(c, err)
		return
	}
	departments, err := h.store.Departments.Select(ctx, nil, store.Asc("name"))
	if err != nil {
		respondError(c, err)
		return
	}
	reports, err := h.store.Reports.Count(ctx, nil)
	if err != nil {
		respondError(c, err)
		return
	}
	last, err := export.LastBackup(ctx, h.store)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"categories":   categories,
		"departments":  departments,
		"totalRecords": reports + int64(len(categories)) + int64(len(departments)),
		"lastBackup":   last,
	})
}

// ListUsers returns every account, staff and admins first.
func (h *AdminHandler) ListUsers(c *gin.Context) {
	users, err := h.store.Users.Select(c.Request.Context(), nil, store.Asc("name"))
	if err != nil {
		respondError(c, err)
		return
	}

	counts := map[string]int{}
	for _, u := range users {
		counts[u.Role]++
	}
	c.JSON(http.StatusOK, gin.H{"users": users, "counts": counts})
}

type CreateUserRequest struct {
	Name            string `json:"name"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
	Role            string `json:"role"`
	Department      string `json:"department"`
}

// CreateUser adds a staff or admin account.
func (h *AdminHandler) CreateUser(c *gin.Context) {
	var req CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, validator.New("", "All fields are required"))
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" || req.Email == "" || req.Password == "" {
		respondError(c, validator.New("", "All fields are required"))
		return
	}
	if req.Role != model.RoleStaff && req.Role != model.RoleAdmin {
		respondError(c, validator.New("role", "role must be staff or admin"))
		return
	}
	confirm := req.ConfirmPassword
	if confirm == "" {
		confirm = req.Password
	}
	if err := validator.ValidatePassword(req.Password, confirm); err != nil {
		respondError(c, err)
		return
	}

	ctx := c.Request.Context()
	email := normalizeEmail(req.Email)
	n, err := h.store.Users.Count(ctx, store.Where().Eq("email", email))
	if err != nil {
		respondError(c, err)
		return
	}
	if n > 0 {
		respondError(c, errConflict("Email already exists"))
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		respondError(c, err)
		return
	}
	user := &model.User{
		Name:         req.Name,
		Email:        email,
		PasswordHash: hash,
		Provider:     model.ProviderLocal,
		Role:         req.Role,
	}
	if req.Department != "" {
		dept := req.Department
		user.Department = &dept
	}
	user, err = h.store.Users.Insert(ctx, user)
	if err != nil {
		respondError(c, conflictOnDuplicate(err, "Email already exists"))
		return
	}

	message := "Staff created"
	if user.Role == model.RoleAdmin {
		message = "Admin created"
	}
	c.JSON(http.StatusCreated, gin.H{"message": message, "user": user})
}

// DeleteUser removes an account, revokes its refresh tokens and ends its
// live sessions. Admins cannot delete themselves.
func (h *AdminHandler) DeleteUser(c *gin.Context) {
	id, err := paramID(c)
	if err != nil {
		respondError(c, err)
		return
	}
	if id == currentUserID(c) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Cannot delete your own account"})
		return
	}

	ctx := c.Request.Context()
	if _, err := h.store.Users.First(ctx, store.Where().Eq("id", id)); err != nil {
		respondError(c, err)
		return
	}
	if err := h.store.Users.Delete(ctx, store.Where().Eq("id", id)); err != nil {
		respondError(c, err)
		return
	}

	err = h.store.DB().WithContext(ctx).
		Model(&model.RefreshToken{}).
		Where("user_id = ?", id).
		Update("revoked", true).Error
	if err != nil {
		log.Printf("Warning: failed to revoke refresh tokens for user %d: %v", id, err)
	}
	if n := h.sessions.EndUser(id); n > 0 {
		log.Printf("Ended %d sessions of deleted user %d", n, id)
	}

	c.JSON(http.StatusOK, gin.H{"message": "User deleted successfully"})
}
