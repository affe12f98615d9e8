package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Novicer18/lexadvisor/models"
	"github.com/Novicer18/lexadvisor/policy"
)

// DocumentRepository handles database operations for legal documents
type DocumentRepository struct {
	db *pgxpool.Pool
}

// NewDocumentRepository creates a new document repository
func NewDocumentRepository(db *pgxpool.Pool) *DocumentRepository {
	return &DocumentRepository{db: db}
}

const documentColumns = `
	id, title, description, content, domain, jurisdiction, year, tags,
	validated, uploaded_by, validated_by,
	file_name, mime_type, file_size, storage_path,
	created_at, updated_at`

func scanDocument(row interface{ Scan(...interface{}) error }) (*models.LegalDocument, error) {
	doc := &models.LegalDocument{}
	err := row.Scan(
		&doc.ID,
		&doc.Title,
		&doc.Description,
		&doc.Content,
		&doc.Domain,
		&doc.Jurisdiction,
		&doc.Year,
		&doc.Tags,
		&doc.Validated,
		&doc.UploadedBy,
		&doc.ValidatedBy,
		&doc.FileName,
		&doc.MimeType,
		&doc.FileSize,
		&doc.StoragePath,
		&doc.CreatedAt,
		&doc.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// Create inserts a new document record
func (r *DocumentRepository) Create(ctx context.Context, doc *models.LegalDocument) error {
	query := `
		INSERT INTO legal_documents (
			title, description, content, domain, jurisdiction, year, tags,
			validated, uploaded_by, validated_by,
			file_name, mime_type, file_size, storage_path
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14
		) RETURNING id, created_at, updated_at`

	err := r.db.QueryRow(
		ctx, query,
		doc.Title,
		doc.Description,
		doc.Content,
		doc.Domain,
		doc.Jurisdiction,
		doc.Year,
		doc.Tags,
		doc.Validated,
		doc.UploadedBy,
		doc.ValidatedBy,
		doc.FileName,
		doc.MimeType,
		doc.FileSize,
		doc.StoragePath,
	).Scan(&doc.ID, &doc.CreatedAt, &doc.UpdatedAt)

	return err
}

// GetByID retrieves a document by ID without visibility filtering; callers
// must apply policy checks before acting on the result.
func (r *DocumentRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.LegalDocument, error) {
	query := `SELECT ` + documentColumns + ` FROM legal_documents WHERE id = $1`
	return scanDocument(r.db.QueryRow(ctx, query, id))
}

// DocumentFilter narrows a document listing
type DocumentFilter struct {
	Domain        *models.Domain
	ValidatedOnly bool
	Limit         int
	Offset        int
}

// ListVisible retrieves documents visible to the viewer: validated ones, the
// viewer's own uploads, and everything for staff. This mirrors the row
// visibility rule in the policy package.
func (r *DocumentRepository) ListVisible(ctx context.Context, viewerID uuid.UUID, role models.Role, filter DocumentFilter) ([]*models.LegalDocument, error) {
	query := `SELECT ` + documentColumns + ` FROM legal_documents`

	var args []interface{}
	argIndex := 1

	if policy.IsStaff(role) {
		query += " WHERE TRUE"
	} else {
		query += fmt.Sprintf(" WHERE (validated = true OR uploaded_by = $%d)", argIndex)
		args = append(args, viewerID)
		argIndex++
	}

	if filter.ValidatedOnly {
		query += " AND validated = true"
	}
	if filter.Domain != nil {
		query += fmt.Sprintf(" AND domain = $%d", argIndex)
		args = append(args, *filter.Domain)
		argIndex++
	}

	query += " ORDER BY created_at DESC"

	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argIndex)
		args = append(args, filter.Limit)
		argIndex++
		if filter.Offset > 0 {
			query += fmt.Sprintf(" OFFSET $%d", argIndex)
			args = append(args, filter.Offset)
		}
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var docs []*models.LegalDocument
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}

	return docs, rows.Err()
}

// Validate marks a document validated by the given staff member
func (r *DocumentRepository) Validate(ctx context.Context, id, validatorID uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE legal_documents SET
			validated = true,
			validated_by = $2,
			updated_at = NOW()
		WHERE id = $1`,
		id, validatorID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("document %s not found", id)
	}
	return nil
}

// Delete removes a document; its embedding chunks cascade with it
func (r *DocumentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.Exec(ctx, `DELETE FROM legal_documents WHERE id = $1`, id)
	return err
}
