// Package memory provides map-backed repository implementations. They honor
// the same contracts as the postgres repositories and back the CLI when no
// database is configured, as well as the service test suites.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"promptforge/internal/domain"
	models "promptforge/internal/domain/models/prompt"
	"promptforge/internal/domain/repositories"
	promptRepo "promptforge/internal/domain/repositories/prompt"
)

// Store holds all in-memory state behind a single mutex.
type Store struct {
	mu        sync.Mutex
	documents map[string]*models.Document
	versions  map[string]*models.Version
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		documents: make(map[string]*models.Document),
		versions:  make(map[string]*models.Version),
	}
}

// Documents returns a DocumentRepository view of the store.
func (s *Store) Documents() promptRepo.DocumentRepository {
	return &documentRepository{store: s}
}

// Versions returns a VersionRepository view of the store.
func (s *Store) Versions() promptRepo.VersionRepository {
	return &versionRepository{store: s}
}

// TxManager returns a TransactionManager that serializes callers and rolls
// the store back to its pre-transaction snapshot when fn fails.
func (s *Store) TxManager() repositories.TransactionManager {
	return &txManager{store: s}
}

type txManager struct {
	txMu  sync.Mutex
	store *Store
}

func (tm *txManager) ExecTx(ctx context.Context, fn repositories.TxFn) error {
	tm.txMu.Lock()
	defer tm.txMu.Unlock()

	docs, versions := tm.store.snapshot()
	if err := fn(ctx); err != nil {
		tm.store.restore(docs, versions)
		return err
	}
	return nil
}

func (s *Store) snapshot() (map[string]*models.Document, map[string]*models.Version) {
	s.mu.Lock()
	defer s.mu.Unlock()

	docs := make(map[string]*models.Document, len(s.documents))
	for id, doc := range s.documents {
		docs[id] = doc.Clone()
	}
	versions := make(map[string]*models.Version, len(s.versions))
	for id, version := range s.versions {
		clone := *version
		clone.Elements = models.CloneElements(version.Elements)
		versions[id] = &clone
	}
	return docs, versions
}

func (s *Store) restore(docs map[string]*models.Document, versions map[string]*models.Version) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.documents = docs
	s.versions = versions
}

type documentRepository struct {
	store *Store
}

func (r *documentRepository) Create(ctx context.Context, doc *models.Document) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, exists := r.store.documents[doc.ID]; exists {
		return &domain.ConflictError{
			Message:      fmt.Sprintf("document %s already exists", doc.ID),
			ResourceType: "document",
			ResourceID:   doc.ID,
		}
	}
	r.store.documents[doc.ID] = doc.Clone()
	return nil
}

func (r *documentRepository) GetByID(ctx context.Context, id string) (*models.Document, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	doc, ok := r.store.documents[id]
	if !ok {
		return nil, &domain.NotFoundError{Message: fmt.Sprintf("document %s not found", id)}
	}
	return doc.Clone(), nil
}

func (r *documentRepository) Update(ctx context.Context, doc *models.Document, expectedVersion *int) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	current, ok := r.store.documents[doc.ID]
	if !ok {
		return &domain.NotFoundError{Message: fmt.Sprintf("document %s not found", doc.ID)}
	}
	if expectedVersion != nil && current.CurrentVersion != *expectedVersion {
		return &domain.ConflictError{
			Message:      fmt.Sprintf("document %s changed since version %d was read", doc.ID, *expectedVersion),
			ResourceType: "document",
			ResourceID:   doc.ID,
		}
	}
	r.store.documents[doc.ID] = doc.Clone()
	return nil
}

func (r *documentRepository) Delete(ctx context.Context, id string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, ok := r.store.documents[id]; !ok {
		return &domain.NotFoundError{Message: fmt.Sprintf("document %s not found", id)}
	}
	delete(r.store.documents, id)
	for versionID, version := range r.store.versions {
		if version.DocumentID == id {
			delete(r.store.versions, versionID)
		}
	}
	return nil
}

func (r *documentRepository) List(ctx context.Context) ([]models.Document, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	docs := make([]models.Document, 0, len(r.store.documents))
	for _, doc := range r.store.documents {
		docs = append(docs, *doc.Clone())
	}
	sort.Slice(docs, func(i, j int) bool {
		return docs[i].UpdatedAt.After(docs[j].UpdatedAt)
	})
	return docs, nil
}

type versionRepository struct {
	store *Store
}

func (r *versionRepository) Create(ctx context.Context, version *models.Version) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, exists := r.store.versions[version.ID]; exists {
		return &domain.ConflictError{
			Message:      fmt.Sprintf("version %s already exists", version.ID),
			ResourceType: "version",
			ResourceID:   version.ID,
		}
	}
	if _, ok := r.store.documents[version.DocumentID]; !ok {
		return &domain.NotFoundError{Message: fmt.Sprintf("document %s not found", version.DocumentID)}
	}
	for _, existing := range r.store.versions {
		if existing.DocumentID == version.DocumentID && existing.VersionNumber == version.VersionNumber {
			return &domain.ConflictError{
				Message:      fmt.Sprintf("version %d already exists for document %s", version.VersionNumber, version.DocumentID),
				ResourceType: "version",
				ResourceID:   version.ID,
			}
		}
	}

	clone := *version
	clone.Elements = models.CloneElements(version.Elements)
	r.store.versions[version.ID] = &clone
	return nil
}

func (r *versionRepository) GetByID(ctx context.Context, id string) (*models.Version, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	version, ok := r.store.versions[id]
	if !ok {
		return nil, &domain.NotFoundError{Message: fmt.Sprintf("version %s not found", id)}
	}
	clone := *version
	clone.Elements = models.CloneElements(version.Elements)
	return &clone, nil
}

func (r *versionRepository) ListByDocument(ctx context.Context, documentID string) ([]models.Version, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	var versions []models.Version
	for _, version := range r.store.versions {
		if version.DocumentID != documentID {
			continue
		}
		clone := *version
		clone.Elements = models.CloneElements(version.Elements)
		versions = append(versions, clone)
	}
	sort.Slice(versions, func(i, j int) bool {
		return versions[i].VersionNumber > versions[j].VersionNumber
	})
	return versions, nil
}

func (r *versionRepository) MaxVersionNumber(ctx context.Context, documentID string) (int, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	max := 0
	for _, version := range r.store.versions {
		if version.DocumentID == documentID && version.VersionNumber > max {
			max = version.VersionNumber
		}
	}
	return max, nil
}

func (r *versionRepository) Delete(ctx context.Context, id string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, ok := r.store.versions[id]; !ok {
		return &domain.NotFoundError{Message: fmt.Sprintf("version %s not found", id)}
	}
	delete(r.store.versions, id)
	return nil
}
