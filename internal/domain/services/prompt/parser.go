package prompt

import "promptforge/internal/domain/models/prompt"

// ElementParser decomposes raw prompt text into typed, ordered elements.
//
// Parsing is pure text processing with no error states: a malformed trigger
// table fails at parser construction, never per call. Note the ordering
// property: elements come out grouped by category (all subject elements,
// then all style elements, ...), not in left-to-right text order. Existing
// consumers depend on this category-major order.
type ElementParser interface {
	Parse(text string) []prompt.Element
}
