package prompt

import (
	"context"
	"errors"
	"testing"

	"promptforge/internal/domain"
	models "promptforge/internal/domain/models/prompt"
	promptSvc "promptforge/internal/domain/services/prompt"
	"promptforge/internal/repository/memory"
)

func newDocumentFixture(t *testing.T) promptSvc.DocumentService {
	t.Helper()
	store := memory.NewStore()
	parser, err := NewElementParser(testLogger())
	if err != nil {
		t.Fatalf("NewElementParser: %v", err)
	}
	ledger := NewVersionService(store.Documents(), store.Versions(), store.TxManager(), testLogger())
	return NewDocumentService(store.Documents(), parser, NewSynchronizer(testLogger()), ledger, testLogger())
}

func TestCreateDocument(t *testing.T) {
	ctx := context.Background()
	svc := newDocumentFixture(t)

	doc, err := svc.CreateDocument(ctx, &promptSvc.CreateDocumentRequest{
		Content: "beautiful anime girl, soft lighting",
	})
	if err != nil {
		t.Fatalf("CreateDocument: %v", err)
	}

	if doc.CurrentVersion != 1 {
		t.Errorf("current version = %d, want 1", doc.CurrentVersion)
	}
	if len(doc.Elements) == 0 {
		t.Error("initial content was not parsed into elements")
	}

	stored, err := svc.GetDocument(ctx, doc.ID)
	if err != nil {
		t.Fatalf("GetDocument: %v", err)
	}
	if stored.Content != "beautiful anime girl, soft lighting" {
		t.Errorf("stored content = %q", stored.Content)
	}
}

func TestCreateDocument_Empty(t *testing.T) {
	svc := newDocumentFixture(t)

	doc, err := svc.CreateDocument(context.Background(), &promptSvc.CreateDocumentRequest{})
	if err != nil {
		t.Fatalf("CreateDocument: %v", err)
	}
	if len(doc.Elements) != 0 {
		t.Errorf("empty document has %d elements", len(doc.Elements))
	}
	if doc.CurrentVersion != 1 {
		t.Errorf("current version = %d, want 1", doc.CurrentVersion)
	}
}

func TestUpdateContent_KeepsElements(t *testing.T) {
	ctx := context.Background()
	svc := newDocumentFixture(t)

	doc, err := svc.CreateDocument(ctx, &promptSvc.CreateDocumentRequest{Content: "a girl, anime"})
	if err != nil {
		t.Fatalf("CreateDocument: %v", err)
	}

	result, err := svc.UpdateContent(ctx, &promptSvc.UpdateContentRequest{
		DocumentID: doc.ID,
		Content:    "completely different text",
	})
	if err != nil {
		t.Fatalf("UpdateContent: %v", err)
	}

	// Content changes, elements stay stale until Reparse
	if result.Applied.Content != "completely different text" {
		t.Errorf("content = %q", result.Applied.Content)
	}
	if len(result.Applied.Elements) != len(doc.Elements) {
		t.Errorf("elements changed on content edit: %d -> %d", len(doc.Elements), len(result.Applied.Elements))
	}
	if result.Applied.CurrentVersion != 2 {
		t.Errorf("current version = %d, want 2", result.Applied.CurrentVersion)
	}
	if result.Previous.Content != "a girl, anime" {
		t.Errorf("previous content = %q", result.Previous.Content)
	}
}

func TestReparse_RederivesElements(t *testing.T) {
	ctx := context.Background()
	svc := newDocumentFixture(t)

	doc, err := svc.CreateDocument(ctx, &promptSvc.CreateDocumentRequest{Content: "a girl"})
	if err != nil {
		t.Fatalf("CreateDocument: %v", err)
	}
	if _, err := svc.UpdateContent(ctx, &promptSvc.UpdateContentRequest{
		DocumentID: doc.ID,
		Content:    "misty forest, watercolor",
	}); err != nil {
		t.Fatalf("UpdateContent: %v", err)
	}

	result, err := svc.Reparse(ctx, &promptSvc.ReparseRequest{DocumentID: doc.ID})
	if err != nil {
		t.Fatalf("Reparse: %v", err)
	}

	types := make(map[models.Category]bool)
	for _, el := range result.Applied.Elements {
		types[el.Type] = true
	}
	if !types[models.CategoryBackground] || !types[models.CategoryStyle] {
		t.Errorf("reparsed elements = %+v, want background and style", result.Applied.Elements)
	}
}

func TestEditElement_RebuildsContent(t *testing.T) {
	ctx := context.Background()
	svc := newDocumentFixture(t)

	doc, err := svc.CreateDocument(ctx, &promptSvc.CreateDocumentRequest{Content: "a girl, anime"})
	if err != nil {
		t.Fatalf("CreateDocument: %v", err)
	}
	target := models.SortedByPosition(doc.Elements)[0]

	result, err := svc.EditElement(ctx, &promptSvc.EditElementRequest{
		DocumentID: doc.ID,
		ElementID:  target.ID,
		Content:    "a knight",
	})
	if err != nil {
		t.Fatalf("EditElement: %v", err)
	}

	if result.Applied.Content != "a knight, anime" {
		t.Errorf("content = %q, want rebuilt from elements", result.Applied.Content)
	}
	if result.Version.ChangeSummary != "Edited element" {
		t.Errorf("summary = %q", result.Version.ChangeSummary)
	}
}

func TestAddAndRemoveElement(t *testing.T) {
	ctx := context.Background()
	svc := newDocumentFixture(t)

	doc, err := svc.CreateDocument(ctx, &promptSvc.CreateDocumentRequest{Content: "a girl"})
	if err != nil {
		t.Fatalf("CreateDocument: %v", err)
	}

	added, err := svc.AddElement(ctx, &promptSvc.AddElementRequest{
		DocumentID: doc.ID,
		Type:       models.CategoryMood,
		Content:    "serene",
	})
	if err != nil {
		t.Fatalf("AddElement: %v", err)
	}
	if added.Applied.Content != "a girl, serene" {
		t.Errorf("content after add = %q", added.Applied.Content)
	}

	var moodID string
	for _, el := range added.Applied.Elements {
		if el.Type == models.CategoryMood {
			moodID = el.ID
		}
	}
	removed, err := svc.RemoveElement(ctx, &promptSvc.RemoveElementRequest{
		DocumentID: doc.ID,
		ElementID:  moodID,
	})
	if err != nil {
		t.Fatalf("RemoveElement: %v", err)
	}
	if removed.Applied.Content != "a girl" {
		t.Errorf("content after remove = %q", removed.Applied.Content)
	}
	if removed.Applied.CurrentVersion != 3 {
		t.Errorf("current version = %d, want 3", removed.Applied.CurrentVersion)
	}
}

func TestSetElementLock(t *testing.T) {
	ctx := context.Background()
	svc := newDocumentFixture(t)

	doc, err := svc.CreateDocument(ctx, &promptSvc.CreateDocumentRequest{Content: "a girl, anime"})
	if err != nil {
		t.Fatalf("CreateDocument: %v", err)
	}
	target := models.SortedByPosition(doc.Elements)[1]

	result, err := svc.SetElementLock(ctx, &promptSvc.SetElementLockRequest{
		DocumentID: doc.ID,
		ElementID:  target.ID,
		Locked:     true,
	})
	if err != nil {
		t.Fatalf("SetElementLock: %v", err)
	}

	// Lock is recorded without touching content, but still commits a version
	if result.Applied.Content != doc.Content {
		t.Errorf("content changed by lock: %q", result.Applied.Content)
	}
	if result.Version.ChangeSummary != "Locked element" {
		t.Errorf("summary = %q", result.Version.ChangeSummary)
	}
	locked := false
	for _, el := range result.Applied.Elements {
		if el.ID == target.ID && el.IsLocked {
			locked = true
		}
	}
	if !locked {
		t.Error("element not locked")
	}
}

func TestMutations_ValidateRequests(t *testing.T) {
	ctx := context.Background()
	svc := newDocumentFixture(t)

	tests := []struct {
		name string
		call func() error
	}{
		{"update without document id", func() error {
			_, err := svc.UpdateContent(ctx, &promptSvc.UpdateContentRequest{Content: "x"})
			return err
		}},
		{"edit without element id", func() error {
			_, err := svc.EditElement(ctx, &promptSvc.EditElementRequest{DocumentID: "doc", Content: "x"})
			return err
		}},
		{"edit with empty content", func() error {
			_, err := svc.EditElement(ctx, &promptSvc.EditElementRequest{DocumentID: "doc", ElementID: "el"})
			return err
		}},
		{"reorder without ids", func() error {
			_, err := svc.ReorderElements(ctx, &promptSvc.ReorderElementsRequest{DocumentID: "doc"})
			return err
		}},
		{"get with empty id", func() error {
			_, err := svc.GetDocument(ctx, "")
			return err
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var ve *domain.ValidationError
			if err := tt.call(); !errors.As(err, &ve) {
				t.Errorf("error = %v, want ValidationError", err)
			}
		})
	}
}

func TestDeleteDocument_RemovesHistory(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	parser, err := NewElementParser(testLogger())
	if err != nil {
		t.Fatalf("NewElementParser: %v", err)
	}
	ledger := NewVersionService(store.Documents(), store.Versions(), store.TxManager(), testLogger())
	svc := NewDocumentService(store.Documents(), parser, NewSynchronizer(testLogger()), ledger, testLogger())

	doc, err := svc.CreateDocument(ctx, &promptSvc.CreateDocumentRequest{Content: "a girl"})
	if err != nil {
		t.Fatalf("CreateDocument: %v", err)
	}
	if err := svc.DeleteDocument(ctx, doc.ID); err != nil {
		t.Fatalf("DeleteDocument: %v", err)
	}

	if _, err := svc.GetDocument(ctx, doc.ID); err == nil {
		t.Error("deleted document still retrievable")
	}
	versions, err := store.Versions().ListByDocument(ctx, doc.ID)
	if err != nil {
		t.Fatalf("ListByDocument: %v", err)
	}
	if len(versions) != 0 {
		t.Errorf("%d versions survived document deletion", len(versions))
	}
}
