package prompt

import (
	"context"

	"promptforge/internal/domain/models/prompt"
)

// VersionRepository defines data access operations for document versions.
// Versions are append-only: there is no Update.
type VersionRepository interface {
	// Create persists a new version snapshot
	Create(ctx context.Context, version *prompt.Version) error

	// GetByID retrieves a version by ID
	GetByID(ctx context.Context, id string) (*prompt.Version, error)

	// ListByDocument returns all versions for a document, newest first
	ListByDocument(ctx context.Context, documentID string) ([]prompt.Version, error)

	// MaxVersionNumber returns the highest version number recorded for a
	// document, or 0 when the document has no versions yet
	MaxVersionNumber(ctx context.Context, documentID string) (int, error)

	// Delete permanently removes a version. The current-version guard lives
	// in the ledger service, not here.
	Delete(ctx context.Context, id string) error
}
