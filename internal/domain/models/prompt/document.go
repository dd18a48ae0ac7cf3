package prompt

import (
	"sort"
	"strings"
	"time"
)

// Category classifies a prompt element. The set is closed: adding a category
// means updating the trigger table, the variation vocabularies, and every
// switch over Category in the same change.
type Category string

const (
	CategorySubject     Category = "subject"
	CategoryBackground  Category = "background"
	CategoryStyle       Category = "style"
	CategoryLighting    Category = "lighting"
	CategoryComposition Category = "composition"
	CategoryColor       Category = "color"
	CategoryMood        Category = "mood"
	CategoryQuality     Category = "quality"
	CategoryCustom      Category = "custom"
)

// Categories lists every category in trigger-table order. CategoryCustom is
// last: it is never matched by a trigger, only assigned to leftover fragments.
var Categories = []Category{
	CategorySubject,
	CategoryBackground,
	CategoryStyle,
	CategoryLighting,
	CategoryComposition,
	CategoryColor,
	CategoryMood,
	CategoryQuality,
	CategoryCustom,
}

// Valid reports whether c is a known category.
func (c Category) Valid() bool {
	switch c {
	case CategorySubject, CategoryBackground, CategoryStyle, CategoryLighting,
		CategoryComposition, CategoryColor, CategoryMood, CategoryQuality, CategoryCustom:
		return true
	}
	return false
}

// Element is one typed, positioned fragment of a document's content.
// IDs are assigned once at creation and never reused.
type Element struct {
	ID         string   `json:"id" db:"id"`
	Type       Category `json:"type" db:"type"`
	Content    string   `json:"content" db:"content"`
	Position   int      `json:"position" db:"position"`
	IsLocked   bool     `json:"is_locked" db:"is_locked"`
	Variations []string `json:"variations,omitempty" db:"variations"`
}

// Document is the editable prompt record holding both flat text and the
// structured element list.
//
// Content is derivable from Elements (position-sorted, joined with ", ")
// except immediately after a direct content edit that has not been re-parsed.
// The sync is deliberately asymmetric: element mutations rebuild Content,
// content edits never regenerate Elements on their own.
type Document struct {
	ID             string    `json:"id" db:"id"`
	Content        string    `json:"content" db:"content"`
	Elements       []Element `json:"elements" db:"elements"`
	CurrentVersion int       `json:"current_version" db:"current_version"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time `json:"updated_at" db:"updated_at"`
}

// Clone returns a deep copy of the document. Mutation paths operate on clones
// so the prior snapshot stays restorable on persistence failure.
func (d *Document) Clone() *Document {
	if d == nil {
		return nil
	}
	cp := *d
	cp.Elements = CloneElements(d.Elements)
	return &cp
}

// CloneElements deep-copies an element list, including variation slices.
func CloneElements(elements []Element) []Element {
	if elements == nil {
		return nil
	}
	out := make([]Element, len(elements))
	copy(out, elements)
	for i := range out {
		if out[i].Variations != nil {
			v := make([]string, len(out[i].Variations))
			copy(v, out[i].Variations)
			out[i].Variations = v
		}
	}
	return out
}

// SortedByPosition returns the elements ordered by ascending position.
// The input is not modified.
func SortedByPosition(elements []Element) []Element {
	out := make([]Element, len(elements))
	copy(out, elements)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Position < out[j].Position })
	return out
}

// JoinElements renders a position-sorted element list as flat prompt text.
func JoinElements(elements []Element) string {
	sorted := SortedByPosition(elements)
	parts := make([]string, 0, len(sorted))
	for _, el := range sorted {
		parts = append(parts, el.Content)
	}
	return strings.Join(parts, ", ")
}
