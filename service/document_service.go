package service

import (
	"context"
	"errors"
	"io"
	"log"

	"github.com/google/uuid"

	"github.com/Novicer18/lexadvisor/models"
	"github.com/Novicer18/lexadvisor/policy"
	"github.com/Novicer18/lexadvisor/repository"
	"github.com/Novicer18/lexadvisor/session"
	"github.com/Novicer18/lexadvisor/storage"
)

var (
	ErrDocumentNotFound = errors.New("document not found")
	ErrPermissionDenied = errors.New("your role does not permit this action")
	ErrInvalidDomain    = errors.New("unknown legal domain")
)

// DocumentService handles the document catalog: uploads, validation, deletion
type DocumentService struct {
	docs  *repository.DocumentRepository
	store storage.Storage
	logs  *repository.SystemLogRepository
}

// NewDocumentService creates a new document service
func NewDocumentService(docs *repository.DocumentRepository, store storage.Storage, logs *repository.SystemLogRepository) *DocumentService {
	return &DocumentService{
		docs:  docs,
		store: store,
		logs:  logs,
	}
}

// List returns the documents visible to the caller
func (s *DocumentService) List(ctx context.Context, ident *session.Identity, filter repository.DocumentFilter) ([]*models.LegalDocument, error) {
	return s.docs.ListVisible(ctx, ident.UserID, ident.Role, filter)
}

// Get returns one document after the visibility check
func (s *DocumentService) Get(ctx context.Context, ident *session.Identity, id uuid.UUID) (*models.LegalDocument, error) {
	doc, err := s.docs.GetByID(ctx, id)
	if err != nil {
		return nil, ErrDocumentNotFound
	}
	if !policy.CanViewDocument(ident.UserID, ident.Role, doc) {
		return nil, ErrDocumentNotFound
	}
	return doc, nil
}

// UploadRequest describes a new corpus document. File is optional; a document
// may carry inline content instead of (or in addition to) a file.
type UploadRequest struct {
	Title        string
	Description  *string
	Content      *string
	Domain       models.Domain
	Jurisdiction *string
	Year         *int
	Tags         []string

	FileName string
	FileSize int64
	MimeType string
	File     io.Reader
}

// Upload adds a document to the corpus. Staff only; admin uploads are created
// already validated, analyst uploads await validation.
func (s *DocumentService) Upload(ctx context.Context, ident *session.Identity, req UploadRequest) (*models.LegalDocument, error) {
	if !policy.CanUploadDocument(ident.Role) {
		return nil, ErrPermissionDenied
	}
	if !req.Domain.Valid() {
		return nil, ErrInvalidDomain
	}

	doc := &models.LegalDocument{
		Title:        req.Title,
		Description:  req.Description,
		Content:      req.Content,
		Domain:       req.Domain,
		Jurisdiction: req.Jurisdiction,
		Year:         req.Year,
		Tags:         req.Tags,
		Validated:    ident.Role == models.RoleAdmin,
		UploadedBy:   ident.UserID,
	}
	if doc.Validated {
		doc.ValidatedBy = &ident.UserID
	}

	if req.File != nil {
		fileID := uuid.New()
		storagePath, err := s.store.Upload(ctx, fileID, req.FileName, req.File)
		if err != nil {
			return nil, err
		}
		doc.FileName = &req.FileName
		doc.MimeType = &req.MimeType
		doc.FileSize = &req.FileSize
		doc.StoragePath = &storagePath
	}

	if err := s.docs.Create(ctx, doc); err != nil {
		// Do not leave an orphaned file behind
		if doc.StoragePath != nil {
			if cleanupErr := s.store.Delete(ctx, *doc.StoragePath); cleanupErr != nil {
				log.Printf("Failed to clean up orphaned file: %v", cleanupErr)
			}
		}
		return nil, err
	}

	s.audit(ctx, "document.upload", models.LogDetail{
		"document_id": doc.ID.String(),
		"title":       doc.Title,
		"domain":      string(doc.Domain),
	}, ident.UserID)

	return doc, nil
}

// Validate marks a document as eligible to ground assistant answers
func (s *DocumentService) Validate(ctx context.Context, ident *session.Identity, id uuid.UUID) (*models.LegalDocument, error) {
	if !policy.CanValidateDocument(ident.Role) {
		return nil, ErrPermissionDenied
	}

	if err := s.docs.Validate(ctx, id, ident.UserID); err != nil {
		return nil, ErrDocumentNotFound
	}

	s.audit(ctx, "document.validate", models.LogDetail{"document_id": id.String()}, ident.UserID)

	return s.docs.GetByID(ctx, id)
}

// Delete removes a document, its chunks (by cascade) and its stored file
func (s *DocumentService) Delete(ctx context.Context, ident *session.Identity, id uuid.UUID) error {
	if !policy.CanDeleteDocument(ident.Role) {
		return ErrPermissionDenied
	}

	doc, err := s.docs.GetByID(ctx, id)
	if err != nil {
		return ErrDocumentNotFound
	}

	if err := s.docs.Delete(ctx, id); err != nil {
		return err
	}

	if doc.StoragePath != nil {
		if err := s.store.Delete(ctx, *doc.StoragePath); err != nil {
			log.Printf("Failed to delete stored file %s: %v", *doc.StoragePath, err)
		}
	}

	s.audit(ctx, "document.delete", models.LogDetail{
		"document_id": id.String(),
		"title":       doc.Title,
	}, ident.UserID)

	return nil
}

// Download opens the stored file for a visible document
func (s *DocumentService) Download(ctx context.Context, ident *session.Identity, id uuid.UUID) (io.ReadCloser, *models.LegalDocument, error) {
	doc, err := s.Get(ctx, ident, id)
	if err != nil {
		return nil, nil, err
	}
	if doc.StoragePath == nil {
		return nil, nil, ErrDocumentNotFound
	}

	reader, err := s.store.Download(ctx, *doc.StoragePath)
	if err != nil {
		return nil, nil, err
	}
	return reader, doc, nil
}

func (s *DocumentService) audit(ctx context.Context, action string, detail models.LogDetail, userID uuid.UUID) {
	if s.logs == nil {
		return
	}
	if err := s.logs.Append(ctx, action, detail, &userID); err != nil {
		log.Printf("Failed to record %s log: %v", action, err)
	}
}
