package store

import (
	"context"
	"testing"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()

	s, err := OpenSQLite(":memory:")
	if err != nil {
		t.Fatalf("OpenSQLite() unexpected error: %v", err)
	}
	t.Cleanup(func() {
		_ = s.Close()
	})
	return s
}

func TestSQLiteStore_GetMissing(t *testing.T) {
	s := newTestStore(t)

	value, ok, err := s.Get(context.Background(), "nope")
	if err != nil {
		t.Fatalf("Get() unexpected error: %v", err)
	}
	if ok {
		t.Errorf("Get() ok = true for missing key")
	}
	if value != nil {
		t.Errorf("Get() value = %q, want nil", value)
	}
}

func TestSQLiteStore_PutGetOverwrite(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.Put(ctx, "artist:1", []byte(`{"id":1}`)); err != nil {
		t.Fatalf("Put() unexpected error: %v", err)
	}

	value, ok, err := s.Get(ctx, "artist:1")
	if err != nil || !ok {
		t.Fatalf("Get() = %v, %v; want value present", ok, err)
	}
	if string(value) != `{"id":1}` {
		t.Errorf("Get() value = %s, want %s", value, `{"id":1}`)
	}

	if err := s.Put(ctx, "artist:1", []byte(`{"id":1,"name":"A"}`)); err != nil {
		t.Fatalf("Put() overwrite unexpected error: %v", err)
	}

	value, _, _ = s.Get(ctx, "artist:1")
	if string(value) != `{"id":1,"name":"A"}` {
		t.Errorf("Get() after overwrite = %s, want %s", value, `{"id":1,"name":"A"}`)
	}
}

func TestSQLiteStore_Delete(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.Put(ctx, "artist:1", []byte(`x`)); err != nil {
		t.Fatalf("Put() unexpected error: %v", err)
	}
	if err := s.Delete(ctx, "artist:1"); err != nil {
		t.Fatalf("Delete() unexpected error: %v", err)
	}

	_, ok, err := s.Get(ctx, "artist:1")
	if err != nil {
		t.Fatalf("Get() unexpected error: %v", err)
	}
	if ok {
		t.Errorf("Get() ok = true after delete")
	}

	// Deleting an absent key is not an error.
	if err := s.Delete(ctx, "artist:1"); err != nil {
		t.Errorf("Delete() absent key unexpected error: %v", err)
	}
}
