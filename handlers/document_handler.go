package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/Novicer18/lexadvisor/middleware"
	"github.com/Novicer18/lexadvisor/models"
	"github.com/Novicer18/lexadvisor/repository"
	"github.com/Novicer18/lexadvisor/service"
)

// DocumentHandler handles HTTP requests for the document catalog
type DocumentHandler struct {
	docService       *service.DocumentService
	maxFileSize      int64
	allowedMimeTypes map[string]bool
}

// NewDocumentHandler creates a new document handler
func NewDocumentHandler(docService *service.DocumentService) *DocumentHandler {
	return &DocumentHandler{
		docService:  docService,
		maxFileSize: 10 * 1024 * 1024, // 10MB
		allowedMimeTypes: map[string]bool{
			"application/pdf":    true,
			"text/plain":         true,
			"text/markdown":      true,
			"application/msword": true, // .doc
			"application/vnd.openxmlformats-officedocument.wordprocessingml.document": true, // .docx
		},
	}
}

// ListDocuments handles GET /api/documents
func (h *DocumentHandler) ListDocuments(c *gin.Context) {
	ident := middleware.IdentityFrom(c)

	filter := repository.DocumentFilter{Limit: 100}
	if domainStr := c.Query("domain"); domainStr != "" {
		domain := models.Domain(domainStr)
		if !domain.Valid() {
			c.JSON(http.StatusBadRequest, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "INVALID_DOMAIN",
					"message": "Unknown legal domain",
				},
			})
			return
		}
		filter.Domain = &domain
	}
	filter.ValidatedOnly = c.Query("validated") == "true"

	docs, err := h.docService.List(c.Request.Context(), ident, filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "LIST_FAILED",
				"message": err.Error(),
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    docs,
	})
}

// UploadDocument handles POST /api/documents (multipart form)
func (h *DocumentHandler) UploadDocument(c *gin.Context) {
	ident := middleware.IdentityFrom(c)

	title := c.PostForm("title")
	domainStr := c.PostForm("domain")
	if title == "" || domainStr == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "MISSING_FIELDS",
				"message": "title and domain are required",
			},
		})
		return
	}

	req := service.UploadRequest{
		Title:  title,
		Domain: models.Domain(domainStr),
	}
	if v := c.PostForm("description"); v != "" {
		req.Description = &v
	}
	if v := c.PostForm("content"); v != "" {
		req.Content = &v
	}
	if v := c.PostForm("jurisdiction"); v != "" {
		req.Jurisdiction = &v
	}
	if v := c.PostForm("year"); v != "" {
		year, err := strconv.Atoi(v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "INVALID_YEAR",
					"message": "year must be a number",
				},
			})
			return
		}
		req.Year = &year
	}
	if tags := c.PostFormArray("tags"); len(tags) > 0 {
		req.Tags = tags
	}

	fileHeader, err := c.FormFile("file")
	if err == nil && fileHeader != nil {
		if fileHeader.Size > h.maxFileSize {
			c.JSON(http.StatusBadRequest, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "FILE_TOO_LARGE",
					"message": fmt.Sprintf("File exceeds maximum size of %d bytes", h.maxFileSize),
				},
			})
			return
		}

		mimeType := fileHeader.Header.Get("Content-Type")
		if !h.allowedMimeTypes[mimeType] {
			c.JSON(http.StatusBadRequest, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "UNSUPPORTED_FILE_TYPE",
					"message": fmt.Sprintf("File type %s is not supported", mimeType),
				},
			})
			return
		}

		file, err := fileHeader.Open()
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "FILE_OPEN_FAILED",
					"message": err.Error(),
				},
			})
			return
		}
		defer file.Close()

		req.File = file
		req.FileName = fileHeader.Filename
		req.FileSize = fileHeader.Size
		req.MimeType = mimeType
	}

	doc, err := h.docService.Upload(c.Request.Context(), ident, req)
	if err != nil {
		status, code := documentErrorStatus(err)
		c.JSON(status, gin.H{
			"success": false,
			"error": gin.H{
				"code":    code,
				"message": err.Error(),
			},
		})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    doc,
	})
}

// ValidateDocument handles POST /api/documents/:id/validate
func (h *DocumentHandler) ValidateDocument(c *gin.Context) {
	ident := middleware.IdentityFrom(c)

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_ID",
				"message": "Invalid document ID format",
			},
		})
		return
	}

	doc, err := h.docService.Validate(c.Request.Context(), ident, id)
	if err != nil {
		status, code := documentErrorStatus(err)
		c.JSON(status, gin.H{
			"success": false,
			"error": gin.H{
				"code":    code,
				"message": err.Error(),
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    doc,
	})
}

// DeleteDocument handles DELETE /api/documents/:id
func (h *DocumentHandler) DeleteDocument(c *gin.Context) {
	ident := middleware.IdentityFrom(c)

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_ID",
				"message": "Invalid document ID format",
			},
		})
		return
	}

	if err := h.docService.Delete(c.Request.Context(), ident, id); err != nil {
		status, code := documentErrorStatus(err)
		c.JSON(status, gin.H{
			"success": false,
			"error": gin.H{
				"code":    code,
				"message": err.Error(),
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// DownloadDocument handles GET /api/documents/:id/download
func (h *DocumentHandler) DownloadDocument(c *gin.Context) {
	ident := middleware.IdentityFrom(c)

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_ID",
				"message": "Invalid document ID format",
			},
		})
		return
	}

	reader, doc, err := h.docService.Download(c.Request.Context(), ident, id)
	if err != nil {
		status, code := documentErrorStatus(err)
		c.JSON(status, gin.H{
			"success": false,
			"error": gin.H{
				"code":    code,
				"message": err.Error(),
			},
		})
		return
	}
	defer reader.Close()

	filename := doc.Title
	if doc.FileName != nil {
		filename = *doc.FileName
	}
	contentType := "application/octet-stream"
	if doc.MimeType != nil {
		contentType = *doc.MimeType
	}

	headers := map[string]string{
		"Content-Disposition": fmt.Sprintf("attachment; filename=%q", filename),
	}
	c.DataFromReader(http.StatusOK, fileSizeOrUnknown(doc.FileSize), contentType, reader, headers)
}

func fileSizeOrUnknown(size *int64) int64 {
	if size != nil {
		return *size
	}
	return -1
}

func documentErrorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, service.ErrDocumentNotFound):
		return http.StatusNotFound, "DOCUMENT_NOT_FOUND"
	case errors.Is(err, service.ErrPermissionDenied):
		return http.StatusForbidden, "FORBIDDEN"
	case errors.Is(err, service.ErrInvalidDomain):
		return http.StatusBadRequest, "INVALID_DOMAIN"
	default:
		return http.StatusInternalServerError, "INTERNAL_ERROR"
	}
}
