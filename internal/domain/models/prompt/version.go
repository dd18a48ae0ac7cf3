package prompt

import "time"

// Version is an immutable, numbered snapshot of a document. Version numbers
// per document form a contiguous ascending sequence starting at 1; the
// document's CurrentVersion always equals the highest applied number.
type Version struct {
	ID            string    `json:"id" db:"id"`
	DocumentID    string    `json:"document_id" db:"document_id"`
	VersionNumber int       `json:"version_number" db:"version_number"`
	Content       string    `json:"content" db:"content"`
	Elements      []Element `json:"elements" db:"elements"`
	ChangeSummary string    `json:"change_summary" db:"change_summary"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
	RestoredFrom  *string   `json:"restored_from,omitempty" db:"restored_from"`
}

// ChangeType labels a single line-level content change.
type ChangeType string

const (
	ChangeAddition     ChangeType = "addition"
	ChangeDeletion     ChangeType = "deletion"
	ChangeModification ChangeType = "modification"
)

// ContentChange is one entry of a positional content diff.
type ContentChange struct {
	Type   ChangeType `json:"type"`
	Line   int        `json:"line"`
	Before string     `json:"before,omitempty"`
	After  string     `json:"after,omitempty"`
}

// ContentDiff is the result of a positional line diff between two texts.
// The diff is line-position-sensitive, not minimal: a single inserted line
// shifts every subsequent line into modification status.
type ContentDiff struct {
	Changes       []ContentChange `json:"changes"`
	Additions     int             `json:"additions"`
	Deletions     int             `json:"deletions"`
	Modifications int             `json:"modifications"`
}

// ElementDiff is an identity-based diff between two element lists.
// Reordered is independent of the membership sets: it reports whether the
// position-ordered id sequence changed at all.
type ElementDiff struct {
	Added     []Element `json:"added"`
	Removed   []Element `json:"removed"`
	Modified  []Element `json:"modified"`
	Reordered bool      `json:"reordered"`
}
