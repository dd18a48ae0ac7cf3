package prompt

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	models "promptforge/internal/domain/models/prompt"
)

func TestDiffContent(t *testing.T) {
	differ := NewDifferencer()

	tests := []struct {
		name    string
		oldText string
		newText string
		want    *models.ContentDiff
	}{
		{
			name:    "identical texts",
			oldText: "a girl, anime",
			newText: "a girl, anime",
			want:    &models.ContentDiff{Changes: []models.ContentChange{}},
		},
		{
			name:    "modified line",
			oldText: "a girl, anime",
			newText: "a boy, anime",
			want: &models.ContentDiff{
				Changes: []models.ContentChange{
					{Type: models.ChangeModification, Line: 0, Before: "a girl, anime", After: "a boy, anime"},
				},
				Modifications: 1,
			},
		},
		{
			name:    "added lines",
			oldText: "one",
			newText: "one\ntwo\nthree",
			want: &models.ContentDiff{
				Changes: []models.ContentChange{
					{Type: models.ChangeAddition, Line: 1, After: "two"},
					{Type: models.ChangeAddition, Line: 2, After: "three"},
				},
				Additions: 2,
			},
		},
		{
			name:    "deleted line",
			oldText: "one\ntwo",
			newText: "one",
			want: &models.ContentDiff{
				Changes: []models.ContentChange{
					{Type: models.ChangeDeletion, Line: 1, Before: "two"},
				},
				Deletions: 1,
			},
		},
		{
			name:    "inserted line shifts the rest into modifications",
			oldText: "one\ntwo",
			newText: "zero\none\ntwo",
			want: &models.ContentDiff{
				Changes: []models.ContentChange{
					{Type: models.ChangeModification, Line: 0, Before: "one", After: "zero"},
					{Type: models.ChangeModification, Line: 1, Before: "two", After: "one"},
					{Type: models.ChangeAddition, Line: 2, After: "two"},
				},
				Additions:     1,
				Modifications: 2,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := differ.DiffContent(tt.oldText, tt.newText)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("DiffContent() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestDiffElements(t *testing.T) {
	differ := NewDifferencer()

	base := []models.Element{
		{ID: "a", Type: models.CategorySubject, Content: "a girl", Position: 0},
		{ID: "b", Type: models.CategoryStyle, Content: "anime", Position: 1},
	}

	t.Run("identical lists", func(t *testing.T) {
		diff := differ.DiffElements(base, base)
		if len(diff.Added)+len(diff.Removed)+len(diff.Modified) != 0 {
			t.Errorf("unexpected changes: %+v", diff)
		}
		if diff.Reordered {
			t.Error("Reordered = true for identical lists")
		}
	})

	t.Run("added and removed", func(t *testing.T) {
		next := []models.Element{
			base[0],
			{ID: "c", Type: models.CategoryMood, Content: "serene", Position: 1},
		}
		diff := differ.DiffElements(base, next)
		if len(diff.Added) != 1 || diff.Added[0].ID != "c" {
			t.Errorf("Added = %+v", diff.Added)
		}
		if len(diff.Removed) != 1 || diff.Removed[0].ID != "b" {
			t.Errorf("Removed = %+v", diff.Removed)
		}
	})

	t.Run("content change is a modification", func(t *testing.T) {
		next := []models.Element{
			{ID: "a", Type: models.CategorySubject, Content: "a boy", Position: 0},
			base[1],
		}
		diff := differ.DiffElements(base, next)
		if len(diff.Modified) != 1 || diff.Modified[0].ID != "a" {
			t.Errorf("Modified = %+v", diff.Modified)
		}
		if diff.Reordered {
			t.Error("Reordered = true, want false")
		}
	})

	t.Run("position swap is reorder only", func(t *testing.T) {
		next := []models.Element{
			{ID: "a", Type: models.CategorySubject, Content: "a girl", Position: 1},
			{ID: "b", Type: models.CategoryStyle, Content: "anime", Position: 0},
		}
		diff := differ.DiffElements(base, next)
		if len(diff.Modified) != 0 {
			t.Errorf("Modified = %+v, want none", diff.Modified)
		}
		if !diff.Reordered {
			t.Error("Reordered = false, want true")
		}
	})

	t.Run("lock change alone is invisible", func(t *testing.T) {
		next := []models.Element{
			{ID: "a", Type: models.CategorySubject, Content: "a girl", Position: 0, IsLocked: true},
			base[1],
		}
		diff := differ.DiffElements(base, next)
		if len(diff.Modified) != 0 || diff.Reordered {
			t.Errorf("lock-only change reported: %+v", diff)
		}
	})
}
