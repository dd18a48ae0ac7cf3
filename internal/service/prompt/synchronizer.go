package prompt

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"promptforge/internal/domain"
	models "promptforge/internal/domain/models/prompt"
	promptSvc "promptforge/internal/domain/services/prompt"
)

// synchronizerService implements the Synchronizer interface. It is a pure
// content/position rebuilder: lock flags pass through untouched, and the
// content-edit path never routes through here (asymmetric sync).
type synchronizerService struct {
	logger *slog.Logger
}

// NewSynchronizer creates a new document synchronizer.
func NewSynchronizer(logger *slog.Logger) promptSvc.Synchronizer {
	return &synchronizerService{logger: logger}
}

// RebuildContent renders elements sorted by position, joined with ", ".
func (s *synchronizerService) RebuildContent(elements []models.Element) string {
	return models.JoinElements(elements)
}

// ApplyElementEdit replaces one element's content and rebuilds the
// document's flat content.
func (s *synchronizerService) ApplyElementEdit(doc *models.Document, elementID, content string) (*models.Document, error) {
	updated := doc.Clone()

	found := false
	for i := range updated.Elements {
		if updated.Elements[i].ID == elementID {
			updated.Elements[i].Content = content
			found = true
			break
		}
	}
	if !found {
		return nil, &domain.NotFoundError{
			Message: fmt.Sprintf("element %s not found in document %s", elementID, doc.ID),
		}
	}

	s.rebuild(updated)
	return updated, nil
}

// AddElement appends a new element at position = len(elements).
func (s *synchronizerService) AddElement(doc *models.Document, elementType models.Category, content string) (*models.Document, *models.Element, error) {
	if !elementType.Valid() {
		return nil, nil, &domain.ValidationError{
			Message: fmt.Sprintf("unknown element type %q", elementType),
		}
	}

	updated := doc.Clone()
	element := models.Element{
		ID:       uuid.NewString(),
		Type:     elementType,
		Content:  content,
		Position: len(updated.Elements),
	}
	updated.Elements = append(updated.Elements, element)

	s.rebuild(updated)
	return updated, &element, nil
}

// RemoveElement filters the element out of the list. Remaining positions are
// deliberately not compacted: only relative order matters for the rebuild,
// and compacting would churn positions the differ treats as identity-stable.
func (s *synchronizerService) RemoveElement(doc *models.Document, elementID string) (*models.Document, error) {
	updated := doc.Clone()

	kept := make([]models.Element, 0, len(updated.Elements))
	found := false
	for _, el := range updated.Elements {
		if el.ID == elementID {
			found = true
			continue
		}
		kept = append(kept, el)
	}
	if !found {
		return nil, &domain.NotFoundError{
			Message: fmt.Sprintf("element %s not found in document %s", elementID, doc.ID),
		}
	}
	updated.Elements = kept

	s.rebuild(updated)
	return updated, nil
}

// Reorder rearranges elements to match orderedIDs and reassigns
// position = index for every element. orderedIDs must be a permutation of
// the document's element IDs.
func (s *synchronizerService) Reorder(doc *models.Document, orderedIDs []string) (*models.Document, error) {
	if len(orderedIDs) != len(doc.Elements) {
		return nil, &domain.ValidationError{
			Message: fmt.Sprintf("reorder expects %d element ids, got %d", len(doc.Elements), len(orderedIDs)),
		}
	}

	byID := make(map[string]models.Element, len(doc.Elements))
	for _, el := range doc.Elements {
		byID[el.ID] = el
	}

	updated := doc.Clone()
	reordered := make([]models.Element, 0, len(orderedIDs))
	for index, id := range orderedIDs {
		el, ok := byID[id]
		if !ok {
			return nil, &domain.ValidationError{
				Message: fmt.Sprintf("reorder references unknown or duplicate element %s", id),
			}
		}
		delete(byID, id) // reject duplicate ids in the order
		el.Position = index
		reordered = append(reordered, el)
	}
	updated.Elements = reordered

	s.rebuild(updated)
	return updated, nil
}

// rebuild re-derives Content from Elements and bumps UpdatedAt. Fires on
// every element-list mutation, never on direct content edits.
func (s *synchronizerService) rebuild(doc *models.Document) {
	doc.Content = models.JoinElements(doc.Elements)
	doc.UpdatedAt = time.Now().UTC()
}
