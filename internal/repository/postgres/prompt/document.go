package prompt

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"promptforge/internal/domain"
	models "promptforge/internal/domain/models/prompt"
	promptRepo "promptforge/internal/domain/repositories/prompt"
	"promptforge/internal/repository/postgres"
)

// PostgresDocumentRepository implements the DocumentRepository interface.
type PostgresDocumentRepository struct {
	pool   *pgxpool.Pool
	tables *postgres.TableNames
	logger *slog.Logger
}

// NewDocumentRepository creates a new document repository.
func NewDocumentRepository(config *postgres.RepositoryConfig) promptRepo.DocumentRepository {
	return &PostgresDocumentRepository{
		pool:   config.Pool,
		tables: config.Tables,
		logger: config.Logger,
	}
}

// Create persists a new document.
func (r *PostgresDocumentRepository) Create(ctx context.Context, doc *models.Document) error {
	elements, err := marshalElements(doc.Elements)
	if err != nil {
		return fmt.Errorf("create document: %w", err)
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (id, content, elements, current_version, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, r.tables.Documents)

	executor := postgres.GetExecutor(ctx, r.pool)
	if _, err := executor.Exec(ctx, query,
		doc.ID,
		doc.Content,
		elements,
		doc.CurrentVersion,
		doc.CreatedAt,
		doc.UpdatedAt,
	); err != nil {
		if postgres.IsPgDuplicateError(err) {
			return &domain.ConflictError{
				Message:      fmt.Sprintf("document %s already exists", doc.ID),
				ResourceType: "document",
				ResourceID:   doc.ID,
			}
		}
		return fmt.Errorf("create document: %w", err)
	}

	return nil
}

// GetByID retrieves a document by ID.
func (r *PostgresDocumentRepository) GetByID(ctx context.Context, id string) (*models.Document, error) {
	query := fmt.Sprintf(`
		SELECT id, content, elements, current_version, created_at, updated_at
		FROM %s
		WHERE id = $1
	`, r.tables.Documents)

	var (
		doc models.Document
		raw []byte
	)
	executor := postgres.GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query, id).Scan(
		&doc.ID,
		&doc.Content,
		&raw,
		&doc.CurrentVersion,
		&doc.CreatedAt,
		&doc.UpdatedAt,
	)
	if err != nil {
		if postgres.IsPgNoRowsError(err) {
			return nil, &domain.NotFoundError{Message: fmt.Sprintf("document %s not found", id)}
		}
		return nil, fmt.Errorf("get document: %w", err)
	}

	if doc.Elements, err = unmarshalElements(doc.ID, raw); err != nil {
		return nil, err
	}

	return &doc, nil
}

// Update persists content, elements and the version pointer. A non-nil
// expectedVersion turns the write into a compare-and-set against the stored
// current_version, surfacing stale writes as ConflictError.
func (r *PostgresDocumentRepository) Update(ctx context.Context, doc *models.Document, expectedVersion *int) error {
	elements, err := marshalElements(doc.Elements)
	if err != nil {
		return fmt.Errorf("update document: %w", err)
	}

	query := fmt.Sprintf(`
		UPDATE %s
		SET content = $2, elements = $3, current_version = $4, updated_at = $5
		WHERE id = $1
	`, r.tables.Documents)
	args := []interface{}{doc.ID, doc.Content, elements, doc.CurrentVersion, doc.UpdatedAt}

	if expectedVersion != nil {
		query += ` AND current_version = $6`
		args = append(args, *expectedVersion)
	}

	executor := postgres.GetExecutor(ctx, r.pool)
	tag, err := executor.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update document: %w", err)
	}

	if tag.RowsAffected() == 0 {
		if expectedVersion != nil {
			// Distinguish a stale pointer from a missing row
			if _, getErr := r.GetByID(ctx, doc.ID); getErr == nil {
				return &domain.ConflictError{
					Message:      fmt.Sprintf("document %s changed since version %d was read", doc.ID, *expectedVersion),
					ResourceType: "document",
					ResourceID:   doc.ID,
				}
			}
		}
		return &domain.NotFoundError{Message: fmt.Sprintf("document %s not found", doc.ID)}
	}

	return nil
}

// Delete removes a document; versions cascade at the schema level.
func (r *PostgresDocumentRepository) Delete(ctx context.Context, id string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, r.tables.Documents)

	executor := postgres.GetExecutor(ctx, r.pool)
	tag, err := executor.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return &domain.NotFoundError{Message: fmt.Sprintf("document %s not found", id)}
	}

	return nil
}

// List returns all documents, most recently updated first.
func (r *PostgresDocumentRepository) List(ctx context.Context) ([]models.Document, error) {
	query := fmt.Sprintf(`
		SELECT id, content, elements, current_version, created_at, updated_at
		FROM %s
		ORDER BY updated_at DESC
	`, r.tables.Documents)

	executor := postgres.GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()

	var docs []models.Document
	for rows.Next() {
		var (
			doc models.Document
			raw []byte
		)
		if err := rows.Scan(&doc.ID, &doc.Content, &raw, &doc.CurrentVersion, &doc.CreatedAt, &doc.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		if doc.Elements, err = unmarshalElements(doc.ID, raw); err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}

	return docs, nil
}

func marshalElements(elements []models.Element) ([]byte, error) {
	if elements == nil {
		elements = []models.Element{}
	}
	return json.Marshal(elements)
}

func unmarshalElements(documentID string, raw []byte) ([]models.Element, error) {
	if len(raw) == 0 {
		return []models.Element{}, nil
	}
	var elements []models.Element
	if err := json.Unmarshal(raw, &elements); err != nil {
		return nil, &domain.ElementParseError{DocumentID: documentID, Err: err}
	}
	return elements, nil
}
