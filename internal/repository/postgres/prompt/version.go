package prompt

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"promptforge/internal/domain"
	models "promptforge/internal/domain/models/prompt"
	promptRepo "promptforge/internal/domain/repositories/prompt"
	"promptforge/internal/repository/postgres"
)

// PostgresVersionRepository implements the VersionRepository interface.
type PostgresVersionRepository struct {
	pool   *pgxpool.Pool
	tables *postgres.TableNames
	logger *slog.Logger
}

// NewVersionRepository creates a new version repository.
func NewVersionRepository(config *postgres.RepositoryConfig) promptRepo.VersionRepository {
	return &PostgresVersionRepository{
		pool:   config.Pool,
		tables: config.Tables,
		logger: config.Logger,
	}
}

// Create persists a new version snapshot.
func (r *PostgresVersionRepository) Create(ctx context.Context, version *models.Version) error {
	elements, err := marshalElements(version.Elements)
	if err != nil {
		return fmt.Errorf("create version: %w", err)
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (id, document_id, version_number, content, elements, change_summary, created_at, restored_from)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, r.tables.Versions)

	executor := postgres.GetExecutor(ctx, r.pool)
	if _, err := executor.Exec(ctx, query,
		version.ID,
		version.DocumentID,
		version.VersionNumber,
		version.Content,
		elements,
		version.ChangeSummary,
		version.CreatedAt,
		version.RestoredFrom,
	); err != nil {
		if postgres.IsPgDuplicateError(err) {
			// Two writers raced for the same version number; the loser's
			// transaction rolls back and may retry against the new max
			return &domain.ConflictError{
				Message:      fmt.Sprintf("version %d already exists for document %s", version.VersionNumber, version.DocumentID),
				ResourceType: "version",
				ResourceID:   version.ID,
			}
		}
		if postgres.IsPgForeignKeyError(err) {
			return &domain.NotFoundError{Message: fmt.Sprintf("document %s not found", version.DocumentID)}
		}
		return fmt.Errorf("create version: %w", err)
	}

	return nil
}

// GetByID retrieves a version by ID.
func (r *PostgresVersionRepository) GetByID(ctx context.Context, id string) (*models.Version, error) {
	query := fmt.Sprintf(`
		SELECT id, document_id, version_number, content, elements, change_summary, created_at, restored_from
		FROM %s
		WHERE id = $1
	`, r.tables.Versions)

	var (
		version models.Version
		raw     []byte
	)
	executor := postgres.GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query, id).Scan(
		&version.ID,
		&version.DocumentID,
		&version.VersionNumber,
		&version.Content,
		&raw,
		&version.ChangeSummary,
		&version.CreatedAt,
		&version.RestoredFrom,
	)
	if err != nil {
		if postgres.IsPgNoRowsError(err) {
			return nil, &domain.NotFoundError{Message: fmt.Sprintf("version %s not found", id)}
		}
		return nil, fmt.Errorf("get version: %w", err)
	}

	if version.Elements, err = unmarshalElements(version.DocumentID, raw); err != nil {
		return nil, err
	}

	return &version, nil
}

// ListByDocument returns all versions for a document, newest first.
func (r *PostgresVersionRepository) ListByDocument(ctx context.Context, documentID string) ([]models.Version, error) {
	query := fmt.Sprintf(`
		SELECT id, document_id, version_number, content, elements, change_summary, created_at, restored_from
		FROM %s
		WHERE document_id = $1
		ORDER BY version_number DESC
	`, r.tables.Versions)

	executor := postgres.GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, documentID)
	if err != nil {
		return nil, fmt.Errorf("list versions: %w", err)
	}
	defer rows.Close()

	var versions []models.Version
	for rows.Next() {
		var (
			version models.Version
			raw     []byte
		)
		if err := rows.Scan(
			&version.ID,
			&version.DocumentID,
			&version.VersionNumber,
			&version.Content,
			&raw,
			&version.ChangeSummary,
			&version.CreatedAt,
			&version.RestoredFrom,
		); err != nil {
			return nil, fmt.Errorf("scan version: %w", err)
		}
		if version.Elements, err = unmarshalElements(version.DocumentID, raw); err != nil {
			return nil, err
		}
		versions = append(versions, version)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list versions: %w", err)
	}

	return versions, nil
}

// MaxVersionNumber returns the highest version number for a document, or 0.
func (r *PostgresVersionRepository) MaxVersionNumber(ctx context.Context, documentID string) (int, error) {
	query := fmt.Sprintf(`
		SELECT COALESCE(MAX(version_number), 0)
		FROM %s
		WHERE document_id = $1
	`, r.tables.Versions)

	var max int
	executor := postgres.GetExecutor(ctx, r.pool)
	if err := executor.QueryRow(ctx, query, documentID).Scan(&max); err != nil {
		return 0, fmt.Errorf("max version number: %w", err)
	}

	return max, nil
}

// Delete permanently removes a version.
func (r *PostgresVersionRepository) Delete(ctx context.Context, id string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, r.tables.Versions)

	executor := postgres.GetExecutor(ctx, r.pool)
	tag, err := executor.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete version: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return &domain.NotFoundError{Message: fmt.Sprintf("version %s not found", id)}
	}

	return nil
}
