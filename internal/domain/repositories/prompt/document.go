package prompt

import (
	"context"

	"promptforge/internal/domain/models/prompt"
)

// DocumentRepository defines data access operations for prompt documents.
type DocumentRepository interface {
	// Create persists a new document
	Create(ctx context.Context, doc *prompt.Document) error

	// GetByID retrieves a document by ID
	GetByID(ctx context.Context, id string) (*prompt.Document, error)

	// Update persists document content, elements and version pointer.
	// When expectedVersion is non-nil the write is rejected with a
	// ConflictError if the stored current_version no longer matches,
	// so stale-write races surface instead of clobbering.
	Update(ctx context.Context, doc *prompt.Document, expectedVersion *int) error

	// Delete removes a document and its versions
	Delete(ctx context.Context, id string) error

	// List returns all documents, most recently updated first
	List(ctx context.Context) ([]prompt.Document, error)
}
