package handler

import (
	"bytes"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/civicreport/api/internal/export"
	"github.com/civicreport/api/internal/store"
	"github.com/gin-gonic/gin"
)

type ExportHandler struct {
	store *store.Store
	now   func() time.Time
}

func NewExportHandler(s *store.Store) *ExportHandler {
	return &ExportHandler{store: s, now: time.Now}
}

// Backup downloads every collection as one JSON document and records that
// the backup was taken.
func (h *ExportHandler) Backup(c *gin.Context) {
	ctx := c.Request.Context()
	now := h.now()

	b, err := export.BuildBackup(ctx, h.store, now)
	if err != nil {
		respondError(c, err)
		return
	}

	var buf bytes.Buffer
	if err := b.WriteJSON(&buf); err != nil {
		respondError(c, err)
		return
	}

	filename := export.BackupFilename(now)
	createdBy := currentUserID(c)
	if _, err := export.Record(ctx, h.store, b, filename, &createdBy); err != nil {
		log.Printf("Warning: failed to record backup %s: %v", filename, err)
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))
	c.Data(http.StatusOK, "application/json", buf.Bytes())
}

// Export downloads the joined report list as csv or text.
func (h *ExportHandler) Export(c *gin.Context) {
	format := c.DefaultQuery("format", "csv")
	if format != "csv" && format != "text" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid format. Use csv or text"})
		return
	}

	reports, err := h.store.ReportsWithDetails(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	now := h.now()
	var buf bytes.Buffer
	switch format {
	case "csv":
		if err := export.WriteCSV(&buf, reports); err != nil {
			respondError(c, err)
			return
		}
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s", export.CSVFilename(now)))
		c.Data(http.StatusOK, "text/csv", buf.Bytes())
	case "text":
		if err := export.WriteText(&buf, reports, now); err != nil {
			respondError(c, err)
			return
		}
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s", export.TextFilename(now)))
		c.Data(http.StatusOK, "text/plain; charset=utf-8", buf.Bytes())
	}
}
