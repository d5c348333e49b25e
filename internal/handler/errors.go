package handler

import (
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/civicreport/api/internal/auth"
	"github.com/civicreport/api/internal/middleware"
	"github.com/civicreport/api/internal/session"
	"github.com/civicreport/api/internal/store"
	"github.com/civicreport/api/internal/validator"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// errConflict marks a duplicate name or email.
type errConflict string

func (e errConflict) Error() string { return string(e) }

// conflictOnDuplicate reports a unique index violation as errConflict with
// msg. A concurrent insert can pass the existence check and still lose.
func conflictOnDuplicate(err error, msg string) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return errConflict(msg)
	}
	return err
}

// respondError maps the error taxonomy to a status code and a JSON body.
func respondError(c *gin.Context, err error) {
	var ve *validator.ValidationError
	var conflict errConflict

	switch {
	case errors.As(err, &ve):
		c.JSON(http.StatusBadRequest, gin.H{"error": ve.Message, "field": ve.Field})
	case errors.As(err, &conflict):
		c.JSON(http.StatusConflict, gin.H{"error": conflict.Error()})
	case errors.Is(err, store.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": notFoundMessage(err)})
	case errors.Is(err, auth.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
	case errors.Is(err, auth.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": "insufficient permissions"})
	case errors.Is(err, session.ErrSubmissionInProgress):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, store.ErrBackend):
		log.Printf("Database error on %s %s: %v", c.Request.Method, c.FullPath(), err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
	default:
		log.Printf("Unexpected error on %s %s: %v", c.Request.Method, c.FullPath(), err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}

var notFoundMessages = map[string]string{
	"reports":     "Report not found",
	"users":       "User not found",
	"categories":  "Category not found",
	"departments": "Department not found",
}

func notFoundMessage(err error) string {
	var nf *store.NotFoundError
	if errors.As(err, &nf) {
		if msg, ok := notFoundMessages[nf.Collection]; ok {
			return msg
		}
	}
	return "not found"
}

// bindError turns a gin binding failure into a validation error naming the
// first offending field.
func bindError(err error, fallback string) error {
	return validator.FromBinding(err, fallback)
}

func paramID(c *gin.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, validator.New("id", "invalid id")
	}
	return id, nil
}

// pagination reads page and limit, defaulting to the first 20 records.
func pagination(c *gin.Context) (int, int) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	return page, limit
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func currentUserID(c *gin.Context) int64 {
	id, _ := c.Get(middleware.KeyUserID)
	v, _ := id.(int64)
	return v
}
