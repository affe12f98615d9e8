package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Novicer18/lexadvisor/models"
)

// EmbeddingRepository performs similarity search over document chunks.
// Chunks and their embeddings are written by the external ingestion pipeline;
// this repository only reads them.
type EmbeddingRepository struct {
	db *pgxpool.Pool
}

// NewEmbeddingRepository creates a new embedding repository
func NewEmbeddingRepository(db *pgxpool.Pool) *EmbeddingRepository {
	return &EmbeddingRepository{db: db}
}

// formatVector formats an embedding vector as a string for pgx
func formatVector(embedding []float64) string {
	if len(embedding) == 0 {
		return "[]"
	}
	var parts []string
	for _, v := range embedding {
		parts = append(parts, fmt.Sprintf("%.6f", v))
	}
	return "[" + strings.Join(parts, ",") + "]"
}

// Search returns the chunks nearest to the query embedding, restricted to
// validated documents so only the curated corpus grounds assistant answers.
// domain optionally narrows the corpus to one legal domain.
func (r *EmbeddingRepository) Search(
	ctx context.Context,
	embedding []float64,
	domain *models.Domain,
	limit int,
) ([]models.DocumentChunk, error) {
	if len(embedding) != 768 {
		return nil, fmt.Errorf("embedding must be 768 dimensions, got %d", len(embedding))
	}

	vectorStr := formatVector(embedding)

	var domainFilter string
	args := []interface{}{vectorStr}
	if domain != nil {
		domainFilter = "AND d.domain = $2"
		args = append(args, *domain, limit)
	} else {
		args = append(args, limit)
	}

	query := fmt.Sprintf(`
		SELECT
			e.id,
			e.document_id,
			e.chunk_index,
			e.chunk_text,
			e.metadata,
			d.title,
			d.domain,
			e.embedding <=> $1::vector AS distance
		FROM document_embeddings e
		JOIN legal_documents d ON d.id = e.document_id
		WHERE
			d.validated = true
			%s
		ORDER BY
			e.embedding <=> $1::vector
		LIMIT $%d`, domainFilter, len(args))

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query document chunks: %w", err)
	}
	defer rows.Close()

	var chunks []models.DocumentChunk
	for rows.Next() {
		var chunk models.DocumentChunk
		err := rows.Scan(
			&chunk.ID,
			&chunk.DocumentID,
			&chunk.ChunkIndex,
			&chunk.ChunkText,
			&chunk.Metadata,
			&chunk.DocumentTitle,
			&chunk.DocumentDomain,
			&chunk.Distance,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan document chunk: %w", err)
		}
		chunks = append(chunks, chunk)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating document chunks: %w", err)
	}

	return chunks, nil
}
