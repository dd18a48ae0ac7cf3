package prompt

import "promptforge/internal/domain/models/prompt"

// Synchronizer rebuilds a document's flat content from its element list and
// maintains the position invariants across element mutations.
//
// The sync is asymmetric on purpose: every element mutation rebuilds Content
// synchronously, but a direct Content edit does not regenerate Elements.
// Callers restore full consistency by re-running the parser and replacing the
// element list. Downstream consumers (variation/exclusion assembly) rely on
// whichever side is authoritative at call time, so this must not be "fixed".
//
// IsLocked is advisory metadata here; the synchronizer rebuilds regardless.
// Lock semantics are enforced by the variation assembler.
type Synchronizer interface {
	// RebuildContent renders elements sorted by position, joined with ", "
	RebuildContent(elements []prompt.Element) string

	// ApplyElementEdit replaces one element's content and rebuilds
	ApplyElementEdit(doc *prompt.Document, elementID, content string) (*prompt.Document, error)

	// AddElement appends a new element at position = len(elements)
	AddElement(doc *prompt.Document, elementType prompt.Category, content string) (*prompt.Document, *prompt.Element, error)

	// RemoveElement filters the element out. Remaining positions are NOT
	// compacted; gaps are tolerated since only relative order matters.
	RemoveElement(doc *prompt.Document, elementID string) (*prompt.Document, error)

	// Reorder rearranges elements to match orderedIDs and reassigns
	// position = index for every element
	Reorder(doc *prompt.Document, orderedIDs []string) (*prompt.Document, error)
}
