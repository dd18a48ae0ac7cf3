package prompt

import (
	"strings"

	models "promptforge/internal/domain/models/prompt"
	promptSvc "promptforge/internal/domain/services/prompt"
)

// differService implements the Differencer interface.
type differService struct{}

// NewDifferencer creates a new version differencer.
func NewDifferencer() promptSvc.Differencer {
	return &differService{}
}

// DiffContent is a positional line diff: both texts are split on newline and
// compared index by index. It is line-position-sensitive, not minimal - a
// single inserted line shifts every subsequent line into modification
// status. Callers needing semantic diffs must not rely on minimal-edit
// properties.
func (d *differService) DiffContent(oldText, newText string) *models.ContentDiff {
	oldLines := strings.Split(oldText, "\n")
	newLines := strings.Split(newText, "\n")

	diff := &models.ContentDiff{Changes: []models.ContentChange{}}

	max := len(oldLines)
	if len(newLines) > max {
		max = len(newLines)
	}

	for i := 0; i < max; i++ {
		hasOld := i < len(oldLines)
		hasNew := i < len(newLines)

		switch {
		case hasNew && !hasOld:
			diff.Changes = append(diff.Changes, models.ContentChange{
				Type:  models.ChangeAddition,
				Line:  i,
				After: newLines[i],
			})
			diff.Additions++
		case hasOld && !hasNew:
			diff.Changes = append(diff.Changes, models.ContentChange{
				Type:   models.ChangeDeletion,
				Line:   i,
				Before: oldLines[i],
			})
			diff.Deletions++
		case oldLines[i] != newLines[i]:
			diff.Changes = append(diff.Changes, models.ContentChange{
				Type:   models.ChangeModification,
				Line:   i,
				Before: oldLines[i],
				After:  newLines[i],
			})
			diff.Modifications++
		}
	}

	return diff
}

// DiffElements is an identity-based diff keyed on element IDs. Modified
// compares content and type only; position and lock changes are reported
// through Reordered, which is independent of the membership sets.
func (d *differService) DiffElements(oldElements, newElements []models.Element) *models.ElementDiff {
	oldByID := make(map[string]models.Element, len(oldElements))
	for _, el := range oldElements {
		oldByID[el.ID] = el
	}
	newByID := make(map[string]models.Element, len(newElements))
	for _, el := range newElements {
		newByID[el.ID] = el
	}

	diff := &models.ElementDiff{
		Added:    []models.Element{},
		Removed:  []models.Element{},
		Modified: []models.Element{},
	}

	for _, el := range models.SortedByPosition(newElements) {
		if _, ok := oldByID[el.ID]; !ok {
			diff.Added = append(diff.Added, el)
		}
	}
	for _, el := range models.SortedByPosition(oldElements) {
		if _, ok := newByID[el.ID]; !ok {
			diff.Removed = append(diff.Removed, el)
		}
	}
	for _, el := range models.SortedByPosition(newElements) {
		before, ok := oldByID[el.ID]
		if !ok {
			continue
		}
		if before.Content != el.Content || before.Type != el.Type {
			diff.Modified = append(diff.Modified, el)
		}
	}

	diff.Reordered = orderedIDs(oldElements) != orderedIDs(newElements)

	return diff
}

// orderedIDs joins element IDs in position order into one comparable key.
func orderedIDs(elements []models.Element) string {
	ids := make([]string, 0, len(elements))
	for _, el := range models.SortedByPosition(elements) {
		ids = append(ids, el.ID)
	}
	return strings.Join(ids, "|")
}
