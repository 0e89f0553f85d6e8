// internal/api/handlers/upload_handler.go
package handlers

import (
	"errors"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/masumrana0/Uploader/internal/config"
	"github.com/masumrana0/Uploader/internal/domain"
	"github.com/masumrana0/Uploader/internal/service"
)

const defaultFormField = "images"

type UploadHandler struct {
	uploader  *service.Uploader
	formField string
	maxBody   int64
}

// NewUploadHandler reads files from formField. Request bodies larger than
// maxBody are rejected; zero derives the bound from the uploader limits.
func NewUploadHandler(uploader *service.Uploader, formField string, maxBody int64) *UploadHandler {
	if formField == "" {
		formField = defaultFormField
	}
	if maxBody <= 0 {
		cfg := uploader.Config()
		maxBody = config.UploadConfig{MaxFiles: cfg.MaxFiles, MaxFileSize: cfg.MaxFileSize}.MaxRequestBytes()
	}
	return &UploadHandler{
		uploader:  uploader,
		formField: formField,
		maxBody:   maxBody,
	}
}

// Upload handles multipart image uploads
func (h *UploadHandler) Upload(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxBody)

	form, err := c.MultipartForm()
	if err != nil {
		log.Warn().Err(err).Msg("failed to parse multipart form")
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid form data", "error": err.Error()})
		return
	}
	defer func() {
		if err := form.RemoveAll(); err != nil {
			log.Warn().Err(err).Msg("failed to remove multipart temp files")
		}
	}()

	headers := form.File[h.formField]
	if len(headers) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"message": "No files uploaded"})
		return
	}
	if limit := h.uploader.Config().MaxFiles; len(headers) > limit {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Too many files", "maxFiles": limit})
		return
	}

	files, err := h.stage(headers)
	if err != nil {
		h.uploader.Discard(files)
		log.Error().Err(err).Msg("failed to stage uploaded files")
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Upload process failed", "error": err.Error()})
		return
	}

	if err := h.uploader.Validate(files); err != nil {
		h.uploader.Discard(files)
		writeError(c, err)
		return
	}

	result, err := h.uploader.Process(c.Request.Context(), files)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(batchStatus(result), batchResponse(result))
}

func (h *UploadHandler) stage(headers []*multipart.FileHeader) ([]domain.StagedFile, error) {
	files := make([]domain.StagedFile, 0, len(headers))
	for _, header := range headers {
		src, err := header.Open()
		if err != nil {
			return files, err
		}
		file, err := h.uploader.Stage(header.Filename, header.Header.Get("Content-Type"), src)
		src.Close()
		if err != nil {
			return files, err
		}
		files = append(files, file)
	}
	return files, nil
}

func batchStatus(result domain.BatchResult) int {
	if result.AllSucceeded() {
		return http.StatusOK
	}
	return http.StatusMultiStatus
}

func batchResponse(result domain.BatchResult) gin.H {
	message := "All uploads successful"
	switch {
	case result.SuccessCount == 0 && result.FailureCount > 0:
		message = "All uploads failed"
	case result.FailureCount > 0:
		message = "Some uploads failed"
	}

	resp := gin.H{
		"message":        message,
		"totalProcessed": result.TotalProcessed,
		"successCount":   result.SuccessCount,
		"failureCount":   result.FailureCount,
		"successful":     result.Successful,
	}
	if result.FailureCount > 0 {
		resp["failed"] = result.Failed
	}
	return resp
}

// writeError maps a classified error to its HTTP response
func writeError(c *gin.Context, err error) {
	var derr *domain.Error
	if !errors.As(err, &derr) {
		log.Error().Err(err).Str("path", c.Request.URL.Path).Msg("unclassified error")
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Internal server error", "error": err.Error()})
		return
	}

	status := http.StatusInternalServerError
	body := gin.H{"message": derr.Message}
	switch derr.Kind {
	case domain.KindValidation:
		status = http.StatusBadRequest
		if len(derr.Invalid) > 0 {
			body["invalidFiles"] = derr.Invalid
		} else if derr.Err != nil {
			body["error"] = derr.Err.Error()
		}
	case domain.KindNotFound:
		status = http.StatusNotFound
		body["error"] = errorText(derr)
	case domain.KindCatastrophic:
		body["message"] = "Upload process failed"
		body["error"] = derr.Error()
		log.Error().Err(err).Msg("upload batch failed")
	default:
		body["error"] = errorText(derr)
	}
	if body["message"] == "" {
		body["message"] = http.StatusText(status)
	}
	c.JSON(status, body)
}

func errorText(derr *domain.Error) string {
	if derr.Err != nil {
		return derr.Err.Error()
	}
	return derr.Error()
}
