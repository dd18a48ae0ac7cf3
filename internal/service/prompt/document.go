package prompt

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"

	"promptforge/internal/config"
	"promptforge/internal/domain"
	models "promptforge/internal/domain/models/prompt"
	promptRepo "promptforge/internal/domain/repositories/prompt"
	promptSvc "promptforge/internal/domain/services/prompt"
)

// documentService implements the DocumentService interface.
//
// Mutations are optimistic: the edit is applied to a local clone, committed
// through the ledger, and reported back as MutationResult{Applied, Previous}.
// On any failure the store is untouched and Previous remains the caller's
// rollback point.
type documentService struct {
	docRepo      promptRepo.DocumentRepository
	parser       promptSvc.ElementParser
	synchronizer promptSvc.Synchronizer
	ledger       promptSvc.VersionService
	logger       *slog.Logger
}

// NewDocumentService creates a new document service.
func NewDocumentService(
	docRepo promptRepo.DocumentRepository,
	parser promptSvc.ElementParser,
	synchronizer promptSvc.Synchronizer,
	ledger promptSvc.VersionService,
	logger *slog.Logger,
) promptSvc.DocumentService {
	return &documentService{
		docRepo:      docRepo,
		parser:       parser,
		synchronizer: synchronizer,
		ledger:       ledger,
		logger:       logger,
	}
}

// CreateDocument creates a document from initial text and commits version 1.
func (s *documentService) CreateDocument(ctx context.Context, req *promptSvc.CreateDocumentRequest) (*models.Document, error) {
	if err := validation.ValidateStruct(req,
		validation.Field(&req.Content, validation.Length(0, config.MaxContentLength)),
		validation.Field(&req.Summary, validation.Length(0, config.MaxSummaryLength)),
	); err != nil {
		return nil, &domain.ValidationError{Message: fmt.Sprintf("create document: %v", err)}
	}

	now := time.Now().UTC()
	doc := &models.Document{
		ID:        uuid.NewString(),
		Content:   req.Content,
		Elements:  s.parser.Parse(req.Content),
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.docRepo.Create(ctx, doc); err != nil {
		return nil, fmt.Errorf("create document: %w", err)
	}

	version, err := s.ledger.CreateVersion(ctx, &promptSvc.CreateVersionRequest{
		DocumentID: doc.ID,
		Content:    doc.Content,
		Elements:   doc.Elements,
		Summary:    summaryOr(req.Summary, "Initial version"),
	})
	if err != nil {
		return nil, err
	}
	doc.CurrentVersion = version.VersionNumber

	s.logger.Info("document created",
		"document_id", doc.ID,
		"elements", len(doc.Elements),
	)
	return doc, nil
}

// GetDocument retrieves a document by ID.
func (s *documentService) GetDocument(ctx context.Context, documentID string) (*models.Document, error) {
	if documentID == "" {
		return nil, &domain.ValidationError{Message: "document id is required"}
	}
	return s.docRepo.GetByID(ctx, documentID)
}

// ListDocuments returns all documents, most recently updated first.
func (s *documentService) ListDocuments(ctx context.Context) ([]models.Document, error) {
	return s.docRepo.List(ctx)
}

// DeleteDocument removes a document and its version history.
func (s *documentService) DeleteDocument(ctx context.Context, documentID string) error {
	if documentID == "" {
		return &domain.ValidationError{Message: "document id is required"}
	}
	return s.docRepo.Delete(ctx, documentID)
}

// UpdateContent stages a raw content edit.
//
// Elements are deliberately carried over unchanged: direct content edits do
// not regenerate the element list until Reparse runs. Variation and
// exclusion assembly keep consuming whichever side is authoritative for them.
func (s *documentService) UpdateContent(ctx context.Context, req *promptSvc.UpdateContentRequest) (*promptSvc.MutationResult, error) {
	if err := validation.ValidateStruct(req,
		validation.Field(&req.DocumentID, validation.Required),
		validation.Field(&req.Content, validation.Length(0, config.MaxContentLength)),
		validation.Field(&req.Summary, validation.Length(0, config.MaxSummaryLength)),
	); err != nil {
		return nil, &domain.ValidationError{Message: fmt.Sprintf("update content: %v", err)}
	}

	return s.mutate(ctx, req.DocumentID, req.ExpectedVersion, summaryOr(req.Summary, "Edited content"),
		func(doc *models.Document) (*models.Document, error) {
			updated := doc.Clone()
			updated.Content = req.Content
			return updated, nil
		})
}

// Reparse re-derives the element list from the document's current content,
// restoring full content/element consistency after direct content edits.
func (s *documentService) Reparse(ctx context.Context, req *promptSvc.ReparseRequest) (*promptSvc.MutationResult, error) {
	if err := validation.ValidateStruct(req,
		validation.Field(&req.DocumentID, validation.Required),
		validation.Field(&req.Summary, validation.Length(0, config.MaxSummaryLength)),
	); err != nil {
		return nil, &domain.ValidationError{Message: fmt.Sprintf("reparse: %v", err)}
	}

	return s.mutate(ctx, req.DocumentID, req.ExpectedVersion, summaryOr(req.Summary, "Re-parsed content into elements"),
		func(doc *models.Document) (*models.Document, error) {
			updated := doc.Clone()
			updated.Elements = s.parser.Parse(updated.Content)
			return updated, nil
		})
}

// EditElement updates one element's content via the synchronizer.
func (s *documentService) EditElement(ctx context.Context, req *promptSvc.EditElementRequest) (*promptSvc.MutationResult, error) {
	if err := validation.ValidateStruct(req,
		validation.Field(&req.DocumentID, validation.Required),
		validation.Field(&req.ElementID, validation.Required),
		validation.Field(&req.Content, validation.Required, validation.Length(1, config.MaxElementContentLength)),
		validation.Field(&req.Summary, validation.Length(0, config.MaxSummaryLength)),
	); err != nil {
		return nil, &domain.ValidationError{Message: fmt.Sprintf("edit element: %v", err)}
	}

	return s.mutate(ctx, req.DocumentID, req.ExpectedVersion, summaryOr(req.Summary, "Edited element"),
		func(doc *models.Document) (*models.Document, error) {
			return s.synchronizer.ApplyElementEdit(doc, req.ElementID, req.Content)
		})
}

// AddElement appends a new element via the synchronizer.
func (s *documentService) AddElement(ctx context.Context, req *promptSvc.AddElementRequest) (*promptSvc.MutationResult, error) {
	if err := validation.ValidateStruct(req,
		validation.Field(&req.DocumentID, validation.Required),
		validation.Field(&req.Content, validation.Required, validation.Length(1, config.MaxElementContentLength)),
		validation.Field(&req.Summary, validation.Length(0, config.MaxSummaryLength)),
	); err != nil {
		return nil, &domain.ValidationError{Message: fmt.Sprintf("add element: %v", err)}
	}

	return s.mutate(ctx, req.DocumentID, req.ExpectedVersion, summaryOr(req.Summary, "Added element"),
		func(doc *models.Document) (*models.Document, error) {
			updated, _, err := s.synchronizer.AddElement(doc, req.Type, req.Content)
			return updated, err
		})
}

// RemoveElement removes an element via the synchronizer.
func (s *documentService) RemoveElement(ctx context.Context, req *promptSvc.RemoveElementRequest) (*promptSvc.MutationResult, error) {
	if err := validation.ValidateStruct(req,
		validation.Field(&req.DocumentID, validation.Required),
		validation.Field(&req.ElementID, validation.Required),
		validation.Field(&req.Summary, validation.Length(0, config.MaxSummaryLength)),
	); err != nil {
		return nil, &domain.ValidationError{Message: fmt.Sprintf("remove element: %v", err)}
	}

	return s.mutate(ctx, req.DocumentID, req.ExpectedVersion, summaryOr(req.Summary, "Removed element"),
		func(doc *models.Document) (*models.Document, error) {
			return s.synchronizer.RemoveElement(doc, req.ElementID)
		})
}

// ReorderElements rearranges elements via the synchronizer.
func (s *documentService) ReorderElements(ctx context.Context, req *promptSvc.ReorderElementsRequest) (*promptSvc.MutationResult, error) {
	if err := validation.ValidateStruct(req,
		validation.Field(&req.DocumentID, validation.Required),
		validation.Field(&req.OrderedIDs, validation.Required),
		validation.Field(&req.Summary, validation.Length(0, config.MaxSummaryLength)),
	); err != nil {
		return nil, &domain.ValidationError{Message: fmt.Sprintf("reorder elements: %v", err)}
	}

	return s.mutate(ctx, req.DocumentID, req.ExpectedVersion, summaryOr(req.Summary, "Reordered elements"),
		func(doc *models.Document) (*models.Document, error) {
			return s.synchronizer.Reorder(doc, req.OrderedIDs)
		})
}

// SetElementLock toggles an element's advisory lock flag. The flag is
// consumed by the variation assembler; content is untouched, but the change
// still commits a version since element snapshots carry the flag.
func (s *documentService) SetElementLock(ctx context.Context, req *promptSvc.SetElementLockRequest) (*promptSvc.MutationResult, error) {
	if err := validation.ValidateStruct(req,
		validation.Field(&req.DocumentID, validation.Required),
		validation.Field(&req.ElementID, validation.Required),
	); err != nil {
		return nil, &domain.ValidationError{Message: fmt.Sprintf("set element lock: %v", err)}
	}

	summary := "Locked element"
	if !req.Locked {
		summary = "Unlocked element"
	}

	return s.mutate(ctx, req.DocumentID, req.ExpectedVersion, summary,
		func(doc *models.Document) (*models.Document, error) {
			updated := doc.Clone()
			for i := range updated.Elements {
				if updated.Elements[i].ID == req.ElementID {
					updated.Elements[i].IsLocked = req.Locked
					return updated, nil
				}
			}
			return nil, &domain.NotFoundError{
				Message: fmt.Sprintf("element %s not found in document %s", req.ElementID, doc.ID),
			}
		})
}

// mutate loads the document, applies the edit to a clone, and commits the
// result as a new version. The stored document is only touched inside the
// ledger's transaction, so a failed commit leaves the prior state intact.
func (s *documentService) mutate(ctx context.Context, documentID string, expectedVersion *int, summary string, edit func(*models.Document) (*models.Document, error)) (*promptSvc.MutationResult, error) {
	doc, err := s.docRepo.GetByID(ctx, documentID)
	if err != nil {
		return nil, err
	}
	previous := doc.Clone()

	updated, err := edit(doc)
	if err != nil {
		return nil, err
	}

	version, err := s.ledger.CreateVersion(ctx, &promptSvc.CreateVersionRequest{
		DocumentID:      documentID,
		Content:         updated.Content,
		Elements:        updated.Elements,
		Summary:         summary,
		ExpectedVersion: expectedVersion,
	})
	if err != nil {
		return nil, err
	}

	applied := updated.Clone()
	applied.CurrentVersion = version.VersionNumber
	applied.UpdatedAt = version.CreatedAt

	return &promptSvc.MutationResult{
		Applied:  applied,
		Previous: previous,
		Version:  version,
	}, nil
}

func summaryOr(summary, fallback string) string {
	if summary != "" {
		return summary
	}
	return fallback
}
