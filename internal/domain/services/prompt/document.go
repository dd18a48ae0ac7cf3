package prompt

import (
	"context"

	"promptforge/internal/domain/models/prompt"
)

// DocumentService is the caller-facing mutation surface for prompt documents.
// Every content-affecting mutation commits a version through the ledger and
// returns a MutationResult so callers can roll back on downstream failure.
type DocumentService interface {
	// CreateDocument creates a document, parsing initial text into elements
	CreateDocument(ctx context.Context, req *CreateDocumentRequest) (*prompt.Document, error)

	// GetDocument retrieves a document by ID
	GetDocument(ctx context.Context, documentID string) (*prompt.Document, error)

	// ListDocuments returns all documents, most recently updated first
	ListDocuments(ctx context.Context) ([]prompt.Document, error)

	// DeleteDocument removes a document and its version history
	DeleteDocument(ctx context.Context, documentID string) error

	// UpdateContent stages a raw content edit. Elements are intentionally
	// left untouched until Reparse is called (asymmetric sync).
	UpdateContent(ctx context.Context, req *UpdateContentRequest) (*MutationResult, error)

	// Reparse re-runs the element parser over the document's current
	// content and replaces the element list
	Reparse(ctx context.Context, req *ReparseRequest) (*MutationResult, error)

	// EditElement updates one element's content via the synchronizer
	EditElement(ctx context.Context, req *EditElementRequest) (*MutationResult, error)

	// AddElement appends a new element via the synchronizer
	AddElement(ctx context.Context, req *AddElementRequest) (*MutationResult, error)

	// RemoveElement removes an element via the synchronizer
	RemoveElement(ctx context.Context, req *RemoveElementRequest) (*MutationResult, error)

	// ReorderElements rearranges elements via the synchronizer
	ReorderElements(ctx context.Context, req *ReorderElementsRequest) (*MutationResult, error)

	// SetElementLock toggles an element's advisory lock flag
	SetElementLock(ctx context.Context, req *SetElementLockRequest) (*MutationResult, error)
}

// MutationResult reports an applied mutation together with the prior
// snapshot, making optimistic-edit rollback explicit rather than implicit.
type MutationResult struct {
	Applied  *prompt.Document `json:"applied"`
	Previous *prompt.Document `json:"previous"`
	Version  *prompt.Version  `json:"version"`
}

// CreateDocumentRequest creates a document from initial text ("" for empty).
type CreateDocumentRequest struct {
	Content string `json:"content"`
	Summary string `json:"summary,omitempty"`
}

// UpdateContentRequest stages a raw content edit.
// ExpectedVersion, when set, enables stale-write detection.
type UpdateContentRequest struct {
	DocumentID      string `json:"document_id"`
	Content         string `json:"content"`
	Summary         string `json:"summary,omitempty"`
	ExpectedVersion *int   `json:"expected_version,omitempty"`
}

// ReparseRequest re-derives elements from the document's content.
type ReparseRequest struct {
	DocumentID      string `json:"document_id"`
	Summary         string `json:"summary,omitempty"`
	ExpectedVersion *int   `json:"expected_version,omitempty"`
}

// EditElementRequest replaces one element's content.
type EditElementRequest struct {
	DocumentID      string `json:"document_id"`
	ElementID       string `json:"element_id"`
	Content         string `json:"content"`
	Summary         string `json:"summary,omitempty"`
	ExpectedVersion *int   `json:"expected_version,omitempty"`
}

// AddElementRequest appends a new element.
type AddElementRequest struct {
	DocumentID      string          `json:"document_id"`
	Type            prompt.Category `json:"type"`
	Content         string          `json:"content"`
	Summary         string          `json:"summary,omitempty"`
	ExpectedVersion *int            `json:"expected_version,omitempty"`
}

// RemoveElementRequest removes one element.
type RemoveElementRequest struct {
	DocumentID      string `json:"document_id"`
	ElementID       string `json:"element_id"`
	Summary         string `json:"summary,omitempty"`
	ExpectedVersion *int   `json:"expected_version,omitempty"`
}

// ReorderElementsRequest rearranges elements to the given id order.
type ReorderElementsRequest struct {
	DocumentID      string   `json:"document_id"`
	OrderedIDs      []string `json:"ordered_ids"`
	Summary         string   `json:"summary,omitempty"`
	ExpectedVersion *int     `json:"expected_version,omitempty"`
}

// SetElementLockRequest toggles an element's advisory lock.
type SetElementLockRequest struct {
	DocumentID      string `json:"document_id"`
	ElementID       string `json:"element_id"`
	Locked          bool   `json:"locked"`
	ExpectedVersion *int   `json:"expected_version,omitempty"`
}
