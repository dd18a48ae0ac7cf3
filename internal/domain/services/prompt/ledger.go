package prompt

import (
	"context"

	"promptforge/internal/domain/models/prompt"
)

// VersionService is the append-only version ledger for prompt documents.
//
// CreateVersion's two writes (version insert, document pointer update) are
// one atomic unit; implementations must wrap them in a transaction.
type VersionService interface {
	// CreateVersion snapshots content+elements as version max+1 and applies
	// it to the document (content, elements, current_version)
	CreateVersion(ctx context.Context, req *CreateVersionRequest) (*prompt.Version, error)

	// GetVersion retrieves a version by ID
	GetVersion(ctx context.Context, versionID string) (*prompt.Version, error)

	// ListVersions returns a document's versions, newest first
	ListVersions(ctx context.Context, documentID string) ([]prompt.Version, error)

	// DeleteVersion permanently removes a non-current version. Deleting the
	// version whose number equals the document's current_version fails with
	// a ConflictError.
	DeleteVersion(ctx context.Context, versionID string) error

	// Restore snapshots an old version's content/elements as a brand new
	// version (restored_from set) and applies it. There is deliberately no
	// guard against restoring the already-current version.
	Restore(ctx context.Context, versionID string) (*prompt.Version, error)
}

// CreateVersionRequest commits one document state to the ledger.
type CreateVersionRequest struct {
	DocumentID      string           `json:"document_id"`
	Content         string           `json:"content"`
	Elements        []prompt.Element `json:"elements"`
	Summary         string           `json:"summary,omitempty"`
	ExpectedVersion *int             `json:"expected_version,omitempty"`
}

// Differencer compares two document states.
type Differencer interface {
	// DiffContent is a positional line diff: entries are keyed by line
	// index, not by minimal edit script
	DiffContent(oldText, newText string) *prompt.ContentDiff

	// DiffElements is an identity-based diff over element IDs
	DiffElements(oldElements, newElements []prompt.Element) *prompt.ElementDiff
}
