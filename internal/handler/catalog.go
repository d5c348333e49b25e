package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/civicreport/api/internal/model"
	"github.com/civicreport/api/internal/store"
	"github.com/civicreport/api/internal/validator"
	"github.com/gin-gonic/gin"
)

// CatalogHandler serves the categories and departments reports are filed
// against.
type CatalogHandler struct {
	store *store.Store
}

func NewCatalogHandler(s *store.Store) *CatalogHandler {
	return &CatalogHandler{store: s}
}

func (h *CatalogHandler) ListCategories(c *gin.Context) {
	categories, err := h.store.Categories.Select(c.Request.Context(), nil, store.Asc("name"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"categories": categories})
}

// ListSubcategories returns the subcategories of the named category. An
// unknown category simply has none.
func (h *CatalogHandler) ListSubcategories(c *gin.Context) {
	subs, err := h.store.Subcategories.Select(c.Request.Context(),
		store.Where().Eq("category_name", c.Param("name")), store.Asc("subcategory_name"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"subcategories": subs})
}

func (h *CatalogHandler) ListDepartments(c *gin.Context) {
	departments, err := h.store.Departments.Select(c.Request.Context(), nil, store.Asc("name"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"departments": departments})
}

type CreateCategoryRequest struct {
	Name              string `json:"name" binding:"required"`
	DepartmentMapping string `json:"department_mapping" binding:"required"`
	Description       string `json:"description"`
}

// CreateCategory adds a category mapped to an existing department. Names
// are unique regardless of case.
func (h *CatalogHandler) CreateCategory(c *gin.Context) {
	var req CreateCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, bindError(err, "name and department_mapping are required"))
		return
	}
	req.Name = strings.TrimSpace(req.Name)

	ctx := c.Request.Context()
	existing, err := h.store.Categories.Select(ctx, nil, nil)
	if err != nil {
		respondError(c, err)
		return
	}
	for _, cat := range existing {
		if strings.EqualFold(cat.Name, req.Name) {
			respondError(c, errConflict("Category exists"))
			return
		}
	}

	_, err = h.store.Departments.First(ctx, store.Where().Eq("name", req.DepartmentMapping))
	if errors.Is(err, store.ErrNotFound) {
		respondError(c, validator.New("department_mapping", "unknown department "+req.DepartmentMapping))
		return
	}
	if err != nil {
		respondError(c, err)
		return
	}

	category := &model.Category{Name: req.Name, DepartmentMapping: req.DepartmentMapping}
	if req.Description != "" {
		desc := req.Description
		category.Description = &desc
	}
	category, err = h.store.Categories.Insert(ctx, category)
	if err != nil {
		respondError(c, conflictOnDuplicate(err, "Category exists"))
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Category added", "category": category})
}

type CreateDepartmentRequest struct {
	Name         string `json:"name" binding:"required"`
	ContactEmail string `json:"contact_email" binding:"omitempty,email"`
	ContactPhone string `json:"contact_phone"`
}

func (h *CatalogHandler) CreateDepartment(c *gin.Context) {
	var req CreateDepartmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, bindError(err, "name is required"))
		return
	}
	req.Name = strings.TrimSpace(req.Name)

	ctx := c.Request.Context()
	existing, err := h.store.Departments.Select(ctx, nil, nil)
	if err != nil {
		respondError(c, err)
		return
	}
	for _, d := range existing {
		if strings.EqualFold(d.Name, req.Name) {
			respondError(c, errConflict("Department exists"))
			return
		}
	}

	dept := &model.Department{Name: req.Name}
	if req.ContactEmail != "" {
		email := normalizeEmail(req.ContactEmail)
		dept.ContactEmail = &email
	}
	if req.ContactPhone != "" {
		phone := req.ContactPhone
		dept.ContactPhone = &phone
	}
	dept, err = h.store.Departments.Insert(ctx, dept)
	if err != nil {
		respondError(c, conflictOnDuplicate(err, "Department exists"))
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Department added", "department": dept})
}
