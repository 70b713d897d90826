package handlers

import (
	"errors"
	"net/http"
	"os"
	"path/filepath"

	"github.com/gin-gonic/gin"

	"lidar_maintenance/internal/models"
	"lidar_maintenance/internal/prompt"
	"lidar_maintenance/internal/service"
)

const (
	statusOK = "ok"

	errMissingReportFile = "multipart field 'report' is required"
	errSaveReportFile    = "failed to store uploaded report"
	errProcessReport     = "failed to process report"
)

func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": statusOK,
	})
}

// processReport accepts a maintenance report workbook and runs it through
// the pipeline. The server cannot ask questions, so the form carries the
// answers up front: allow_new_device, allow_new_location, country, client.
func (h *Handler) processReport(c *gin.Context) {
	file, err := c.FormFile("report")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": errMissingReportFile})
		return
	}

	tmpDir, err := os.MkdirTemp("", "report-upload-*")
	if err != nil {
		h.logAndJSONError(c, http.StatusInternalServerError, errSaveReportFile, "report_tmp_dir_failed", err)
		return
	}
	defer func() { _ = os.RemoveAll(tmpDir) }()

	reportPath := filepath.Join(tmpDir, filepath.Base(file.Filename))
	if err := c.SaveUploadedFile(file, reportPath); err != nil {
		h.logAndJSONError(c, http.StatusInternalServerError, errSaveReportFile, "report_save_failed", err)
		return
	}

	policy := &prompt.Policy{
		AllowNewDevice:   c.PostForm("allow_new_device") == "true",
		AllowNewLocation: c.PostForm("allow_new_location") == "true",
		Answers: map[string]string{
			"País":    c.PostForm("country"),
			"Cliente": c.PostForm("client"),
		},
	}

	summary, err := h.services.Processor.Process(c.Request.Context(), service.ProcessRequest{
		ReportPath: reportPath,
		Confirmer:  policy,
	})
	if err != nil {
		h.respondProcessError(c, err)
		return
	}

	c.JSON(http.StatusOK, summary)
}

// respondProcessError maps pipeline errors onto HTTP statuses.
func (h *Handler) respondProcessError(c *gin.Context, err error) {
	var (
		formatErr     *models.FormatError
		validationErr *models.ValidationError
	)
	switch {
	case errors.Is(err, service.ErrDuplicateVisit):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, models.ErrCancelled):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	case errors.Is(err, models.ErrConcurrentAccess):
		c.JSON(http.StatusLocked, gin.H{"error": err.Error()})
	case errors.As(err, &formatErr), errors.As(err, &validationErr),
		errors.Is(err, models.ErrMissingOperators), errors.Is(err, models.ErrAmbiguousStatus):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		h.logAndJSONError(c, http.StatusInternalServerError, errProcessReport, "report_process_failed", err)
	}
}

// Centralized error logging and response.
func (h *Handler) logAndJSONError(c *gin.Context, httpCode int, userMsg, logKey string, err error, kv ...interface{}) {
	if h.log != nil && err != nil {
		fields := append([]interface{}{"err", err}, kv...)
		h.log.Errorw(logKey, fields...)
	}
	c.JSON(httpCode, gin.H{"error": userMsg})
}
