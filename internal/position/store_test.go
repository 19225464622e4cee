package position

import (
	"context"
	"errors"
	"testing"
	"time"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestStore_SaveAndGet(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	pos := Position{DocumentPath: "/books/moby.pdf", Page: 42, TotalPages: 600}
	if err := store.Save(ctx, pos); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := store.Get(ctx, "/books/moby.pdf")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Page != 42 || got.TotalPages != 600 {
		t.Errorf("got %+v", got)
	}
	if got.UpdatedAt.IsZero() {
		t.Error("UpdatedAt not set on save")
	}
}

func TestStore_SaveUpserts(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	for _, page := range []int{1, 5, 9} {
		if err := store.Save(ctx, Position{DocumentPath: "/d.txt", Page: page, TotalPages: 10}); err != nil {
			t.Fatalf("Save page %d: %v", page, err)
		}
	}

	got, err := store.Get(ctx, "/d.txt")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Page != 9 {
		t.Errorf("Page = %d, want latest save 9", got.Page)
	}
}

func TestStore_GetMissing(t *testing.T) {
	store := newTestStore(t)

	_, err := store.Get(context.Background(), "/never/saved.pdf")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestStore_SaveRequiresPath(t *testing.T) {
	store := newTestStore(t)

	if err := store.Save(context.Background(), Position{Page: 1}); err == nil {
		t.Fatal("expected error for empty document path")
	}
}

func TestStore_Delete(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if err := store.Save(ctx, Position{DocumentPath: "/d.txt", Page: 3, TotalPages: 10}); err != nil {
		t.Fatal(err)
	}
	if err := store.Delete(ctx, "/d.txt"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := store.Get(ctx, "/d.txt"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Get after delete = %v, want ErrNotFound", err)
	}

	// Deleting a missing row is not an error.
	if err := store.Delete(ctx, "/d.txt"); err != nil {
		t.Fatalf("second Delete: %v", err)
	}
}

func TestStore_ListRecentFirst(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	base := time.Now().UTC().Add(-time.Hour)
	docs := []Position{
		{DocumentPath: "/a.txt", Page: 1, TotalPages: 5, UpdatedAt: base},
		{DocumentPath: "/b.txt", Page: 2, TotalPages: 5, UpdatedAt: base.Add(time.Minute)},
		{DocumentPath: "/c.txt", Page: 3, TotalPages: 5, UpdatedAt: base.Add(2 * time.Minute)},
	}
	for _, pos := range docs {
		if err := store.Save(ctx, pos); err != nil {
			t.Fatal(err)
		}
	}

	got, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("List returned %d positions, want 3", len(got))
	}
	if got[0].DocumentPath != "/c.txt" || got[2].DocumentPath != "/a.txt" {
		t.Errorf("order = [%s %s %s], want most recent first",
			got[0].DocumentPath, got[1].DocumentPath, got[2].DocumentPath)
	}
}
