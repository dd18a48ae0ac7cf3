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
	"promptforge/internal/domain/repositories"
	promptRepo "promptforge/internal/domain/repositories/prompt"
	promptSvc "promptforge/internal/domain/services/prompt"
)

// ledgerService implements the VersionService interface.
//
// The version insert and the document pointer update always run inside one
// transaction. If either write fails the transaction rolls back, so the
// ledger can never hold a version the document pointer does not know about.
type ledgerService struct {
	docRepo     promptRepo.DocumentRepository
	versionRepo promptRepo.VersionRepository
	txManager   repositories.TransactionManager
	logger      *slog.Logger
}

// NewVersionService creates a new version ledger service.
func NewVersionService(
	docRepo promptRepo.DocumentRepository,
	versionRepo promptRepo.VersionRepository,
	txManager repositories.TransactionManager,
	logger *slog.Logger,
) promptSvc.VersionService {
	return &ledgerService{
		docRepo:     docRepo,
		versionRepo: versionRepo,
		txManager:   txManager,
		logger:      logger,
	}
}

// CreateVersion snapshots the given state as the document's next version and
// applies it to the document.
func (s *ledgerService) CreateVersion(ctx context.Context, req *promptSvc.CreateVersionRequest) (*models.Version, error) {
	if err := validation.ValidateStruct(req,
		validation.Field(&req.DocumentID, validation.Required),
		validation.Field(&req.Summary, validation.Length(0, config.MaxSummaryLength)),
	); err != nil {
		return nil, &domain.ValidationError{Message: fmt.Sprintf("create version: %v", err)}
	}

	return s.commit(ctx, req.DocumentID, req.Content, req.Elements, req.Summary, nil, req.ExpectedVersion)
}

// GetVersion retrieves a version by ID.
func (s *ledgerService) GetVersion(ctx context.Context, versionID string) (*models.Version, error) {
	if versionID == "" {
		return nil, &domain.ValidationError{Message: "version id is required"}
	}
	return s.versionRepo.GetByID(ctx, versionID)
}

// ListVersions returns a document's versions, newest first.
func (s *ledgerService) ListVersions(ctx context.Context, documentID string) ([]models.Version, error) {
	if documentID == "" {
		return nil, &domain.ValidationError{Message: "document id is required"}
	}
	if _, err := s.docRepo.GetByID(ctx, documentID); err != nil {
		return nil, err
	}
	return s.versionRepo.ListByDocument(ctx, documentID)
}

// DeleteVersion permanently removes a non-current version.
//
// The guard compares version numbers against the document's pointer, not
// version IDs: whichever row carries the number the document points at is
// the one that must survive.
func (s *ledgerService) DeleteVersion(ctx context.Context, versionID string) error {
	version, err := s.versionRepo.GetByID(ctx, versionID)
	if err != nil {
		return err
	}

	doc, err := s.docRepo.GetByID(ctx, version.DocumentID)
	if err != nil {
		return err
	}

	if version.VersionNumber == doc.CurrentVersion {
		return &domain.ConflictError{
			Message:      fmt.Sprintf("version %d is the current version of document %s and cannot be deleted", version.VersionNumber, doc.ID),
			ResourceType: "version",
			ResourceID:   version.ID,
		}
	}

	if err := s.versionRepo.Delete(ctx, versionID); err != nil {
		return fmt.Errorf("delete version: %w", err)
	}

	s.logger.Info("version deleted",
		"document_id", version.DocumentID,
		"version_number", version.VersionNumber,
	)
	return nil
}

// Restore snapshots an old version's state as a brand new version with
// restored_from set, and applies it to the document.
//
// Unlike DeleteVersion there is no guard against the already-current
// version: restoring it simply appends an identical snapshot.
func (s *ledgerService) Restore(ctx context.Context, versionID string) (*models.Version, error) {
	source, err := s.versionRepo.GetByID(ctx, versionID)
	if err != nil {
		return nil, err
	}

	summary := fmt.Sprintf("Restored from version %d", source.VersionNumber)
	return s.commit(ctx, source.DocumentID, source.Content, source.Elements, summary, &source.ID, nil)
}

// commit runs the two-write sequence (version insert, document pointer
// update) as one atomic unit.
func (s *ledgerService) commit(ctx context.Context, documentID, content string, elements []models.Element, summary string, restoredFrom *string, expectedVersion *int) (*models.Version, error) {
	var version *models.Version

	err := s.txManager.ExecTx(ctx, func(txCtx context.Context) error {
		doc, err := s.docRepo.GetByID(txCtx, documentID)
		if err != nil {
			return err
		}

		max, err := s.versionRepo.MaxVersionNumber(txCtx, documentID)
		if err != nil {
			return fmt.Errorf("resolve next version number: %w", err)
		}
		next := max + 1

		now := time.Now().UTC()
		version = &models.Version{
			ID:            uuid.NewString(),
			DocumentID:    documentID,
			VersionNumber: next,
			Content:       content,
			Elements:      models.CloneElements(elements),
			ChangeSummary: summary,
			CreatedAt:     now,
			RestoredFrom:  restoredFrom,
		}
		if err := s.versionRepo.Create(txCtx, version); err != nil {
			return fmt.Errorf("insert version: %w", err)
		}

		doc.Content = content
		doc.Elements = models.CloneElements(elements)
		doc.CurrentVersion = next
		doc.UpdatedAt = now
		if err := s.docRepo.Update(txCtx, doc, expectedVersion); err != nil {
			return fmt.Errorf("apply version to document: %w", err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("version committed",
		"document_id", documentID,
		"version_number", version.VersionNumber,
		"restored", restoredFrom != nil,
	)
	return version, nil
}
