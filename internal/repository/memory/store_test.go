package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"promptforge/internal/domain"
	models "promptforge/internal/domain/models/prompt"
)

func seedDoc(t *testing.T, store *Store, id string) {
	t.Helper()
	now := time.Now().UTC()
	err := store.Documents().Create(context.Background(), &models.Document{
		ID:        id,
		Content:   "a girl",
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		t.Fatalf("seed document: %v", err)
	}
}

func TestDocumentRepository_Roundtrip(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	seedDoc(t, store, "doc-1")

	doc, err := store.Documents().GetByID(ctx, "doc-1")
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}

	// Returned documents are copies; mutating them must not leak
	doc.Content = "mutated"
	again, _ := store.Documents().GetByID(ctx, "doc-1")
	if again.Content != "a girl" {
		t.Errorf("stored document mutated through a returned copy: %q", again.Content)
	}
}

func TestDocumentRepository_UpdateExpectedVersion(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	seedDoc(t, store, "doc-1")

	doc, _ := store.Documents().GetByID(ctx, "doc-1")
	doc.CurrentVersion = 1

	stale := 5
	err := store.Documents().Update(ctx, doc, &stale)
	var conflict *domain.ConflictError
	if !errors.As(err, &conflict) {
		t.Errorf("stale update: error = %v, want ConflictError", err)
	}

	current := 0
	if err := store.Documents().Update(ctx, doc, &current); err != nil {
		t.Errorf("matching update: %v", err)
	}
}

func TestVersionRepository_DuplicateNumberRejected(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	seedDoc(t, store, "doc-1")

	base := &models.Version{ID: "v-1", DocumentID: "doc-1", VersionNumber: 1}
	if err := store.Versions().Create(ctx, base); err != nil {
		t.Fatalf("Create: %v", err)
	}

	err := store.Versions().Create(ctx, &models.Version{ID: "v-2", DocumentID: "doc-1", VersionNumber: 1})
	var conflict *domain.ConflictError
	if !errors.As(err, &conflict) {
		t.Errorf("duplicate number: error = %v, want ConflictError", err)
	}
}

func TestTxManager_RollsBackOnError(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	seedDoc(t, store, "doc-1")

	boom := errors.New("boom")
	err := store.TxManager().ExecTx(ctx, func(txCtx context.Context) error {
		if err := store.Versions().Create(txCtx, &models.Version{
			ID: "v-1", DocumentID: "doc-1", VersionNumber: 1,
		}); err != nil {
			return err
		}
		doc, _ := store.Documents().GetByID(txCtx, "doc-1")
		doc.CurrentVersion = 1
		if err := store.Documents().Update(txCtx, doc, nil); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("ExecTx error = %v, want boom", err)
	}

	// Both writes were undone
	if _, err := store.Versions().GetByID(ctx, "v-1"); err == nil {
		t.Error("version survived rollback")
	}
	doc, _ := store.Documents().GetByID(ctx, "doc-1")
	if doc.CurrentVersion != 0 {
		t.Errorf("document pointer survived rollback: %d", doc.CurrentVersion)
	}
}

func TestDocumentRepository_DeleteCascades(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	seedDoc(t, store, "doc-1")
	seedDoc(t, store, "doc-2")

	if err := store.Versions().Create(ctx, &models.Version{ID: "v-1", DocumentID: "doc-1", VersionNumber: 1}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := store.Versions().Create(ctx, &models.Version{ID: "v-2", DocumentID: "doc-2", VersionNumber: 1}); err != nil {
		t.Fatalf("Create: %v", err)
	}

	if err := store.Documents().Delete(ctx, "doc-1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	if _, err := store.Versions().GetByID(ctx, "v-1"); err == nil {
		t.Error("version of deleted document survived")
	}
	if _, err := store.Versions().GetByID(ctx, "v-2"); err != nil {
		t.Errorf("unrelated version removed: %v", err)
	}
}

func TestVersionRepository_MaxVersionNumber(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	seedDoc(t, store, "doc-1")

	if max, _ := store.Versions().MaxVersionNumber(ctx, "doc-1"); max != 0 {
		t.Errorf("max for empty history = %d, want 0", max)
	}

	for i := 1; i <= 3; i++ {
		if err := store.Versions().Create(ctx, &models.Version{
			ID: string(rune('a' + i)), DocumentID: "doc-1", VersionNumber: i,
		}); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}
	if max, _ := store.Versions().MaxVersionNumber(ctx, "doc-1"); max != 3 {
		t.Errorf("max = %d, want 3", max)
	}
}
