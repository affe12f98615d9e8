package models

import (
	"time"

	"github.com/google/uuid"
)

// Domain is the closed classification set for legal documents
type Domain string

const (
	DomainCriminal       Domain = "criminal"
	DomainCivil          Domain = "civil"
	DomainCorporate      Domain = "corporate"
	DomainLabor          Domain = "labor"
	DomainTax            Domain = "tax"
	DomainProperty       Domain = "property"
	DomainFamily         Domain = "family"
	DomainConstitutional Domain = "constitutional"
	DomainInternational  Domain = "international"
	DomainOther          Domain = "other"
)

// Domains lists every known legal domain
func Domains() []Domain {
	return []Domain{
		DomainCriminal,
		DomainCivil,
		DomainCorporate,
		DomainLabor,
		DomainTax,
		DomainProperty,
		DomainFamily,
		DomainConstitutional,
		DomainInternational,
		DomainOther,
	}
}

// Valid reports whether the domain belongs to the closed set
func (d Domain) Valid() bool {
	for _, known := range Domains() {
		if d == known {
			return true
		}
	}
	return false
}

// LegalDocument represents a document in the curated corpus.
// Only validated documents are eligible to ground assistant answers.
type LegalDocument struct {
	ID           uuid.UUID  `json:"id"`
	Title        string     `json:"title"`
	Description  *string    `json:"description,omitempty"`
	Content      *string    `json:"content,omitempty"`
	Domain       Domain     `json:"domain"`
	Jurisdiction *string    `json:"jurisdiction,omitempty"`
	Year         *int       `json:"year,omitempty"`
	Tags         []string   `json:"tags,omitempty"`
	Validated    bool       `json:"validated"`
	UploadedBy   uuid.UUID  `json:"uploaded_by"`
	ValidatedBy  *uuid.UUID `json:"validated_by,omitempty"`
	FileName     *string    `json:"file_name,omitempty"`
	MimeType     *string    `json:"mime_type,omitempty"`
	FileSize     *int64     `json:"file_size,omitempty"`
	StoragePath  *string    `json:"-"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// DocumentChunk is one ordered text chunk of a document together with its
// embedding metadata. Chunks are produced by the external ingestion pipeline;
// this application only reads them via similarity search.
type DocumentChunk struct {
	ID             uuid.UUID              `json:"id"`
	DocumentID     uuid.UUID              `json:"document_id"`
	ChunkIndex     int                    `json:"chunk_index"`
	ChunkText      string                 `json:"chunk_text"`
	Metadata       map[string]interface{} `json:"metadata,omitempty"`
	DocumentTitle  string                 `json:"document_title"`
	DocumentDomain Domain                 `json:"document_domain"`
	Distance       float64                `json:"distance,omitempty"` // Vector similarity distance
}
