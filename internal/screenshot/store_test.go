package screenshot

import (
	"testing"
	"time"
)

func TestSaveAndGetRoundTrip(t *testing.T) {
	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}

	id := NewID()
	meta := Meta{
		ID:     id,
		Name:   "login-page",
		URL:    "https://example.com/login",
		Format: "PNG",
	}
	img := []byte("not-a-real-png")

	if err := store.Save(meta, img); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	got, err := store.Get(id)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Format != "png" {
		t.Fatalf("Get().Format = %q, want %q", got.Format, "png")
	}
	if got.SizeBytes != len(img) {
		t.Fatalf("Get().SizeBytes = %d, want %d", got.SizeBytes, len(img))
	}
	if got.CreatedAt.IsZero() {
		t.Fatal("Get().CreatedAt is zero")
	}

	data, format, err := store.ReadImage(id)
	if err != nil {
		t.Fatalf("ReadImage() error = %v", err)
	}
	if format != "png" {
		t.Fatalf("ReadImage() format = %q, want %q", format, "png")
	}
	if string(data) != string(img) {
		t.Fatalf("ReadImage() data mismatch")
	}
}

func TestSaveRejectsInvalidID(t *testing.T) {
	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}

	if err := store.Save(Meta{ID: "../../etc/passwd", Format: "png"}, []byte("x")); err == nil {
		t.Fatal("Save() accepted a path-traversal ID")
	}
}

func TestListSortsNewestFirst(t *testing.T) {
	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}

	older := Meta{ID: NewID(), Format: "png", CreatedAt: time.Now().UTC().Add(-time.Hour)}
	newer := Meta{ID: NewID(), Format: "png", CreatedAt: time.Now().UTC()}

	if err := store.Save(older, []byte("a")); err != nil {
		t.Fatalf("Save(older) error = %v", err)
	}
	if err := store.Save(newer, []byte("b")); err != nil {
		t.Fatalf("Save(newer) error = %v", err)
	}

	metas, err := store.List()
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(metas) != 2 {
		t.Fatalf("List() returned %d entries, want 2", len(metas))
	}
	if metas[0].ID != newer.ID {
		t.Fatalf("List()[0].ID = %q, want newest %q", metas[0].ID, newer.ID)
	}
}

func TestDeleteRemovesBothFiles(t *testing.T) {
	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}

	id := NewID()
	if err := store.Save(Meta{ID: id, Format: "png"}, []byte("x")); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if err := store.Delete(id); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := store.Get(id); err == nil {
		t.Fatal("Get() after Delete() succeeded; want not-found error")
	}
}
