package keystore

import (
	"bytes"
	"context"
	"errors"
	"testing"
)

func TestMemoryStoreRoundTrip(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	rec := testRecord("k-1")
	if err := store.PutRecord(ctx, rec); err != nil {
		t.Fatalf("put record: %v", err)
	}
	if err := store.PutMaterial(ctx, "k-1", []byte("blob")); err != nil {
		t.Fatalf("put material: %v", err)
	}

	got, err := store.GetRecord(ctx, "k-1")
	if err != nil {
		t.Fatalf("get record: %v", err)
	}
	if got.ID != "k-1" || got.Status != "active" {
		t.Fatalf("record mismatch: %+v", got)
	}

	blob, err := store.GetMaterial(ctx, "k-1")
	if err != nil {
		t.Fatalf("get material: %v", err)
	}
	if !bytes.Equal(blob, []byte("blob")) {
		t.Fatalf("material mismatch: %q", blob)
	}
}

func TestMemoryStoreMissing(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	if _, err := store.GetRecord(ctx, "absent"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("record: expected ErrNotFound, got %v", err)
	}
	if _, err := store.GetMaterial(ctx, "absent"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("material: expected ErrNotFound, got %v", err)
	}
	if err := store.Delete(ctx, "absent"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("delete: expected ErrNotFound, got %v", err)
	}
}

func TestMemoryStoreDelete(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	if err := store.PutRecord(ctx, testRecord("k-1")); err != nil {
		t.Fatalf("put record: %v", err)
	}
	if err := store.Delete(ctx, "k-1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := store.GetRecord(ctx, "k-1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("record survived delete: %v", err)
	}

	recs, err := store.ListRecords(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(recs) != 0 {
		t.Fatalf("expected empty listing, got %d", len(recs))
	}
}

func TestMemoryStoreIsolatesCallers(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	rec := testRecord("k-1")
	if err := store.PutRecord(ctx, rec); err != nil {
		t.Fatalf("put record: %v", err)
	}

	// Mutating the caller's copy must not reach the stored record.
	rec.Metadata["team"] = "mutated"
	got, err := store.GetRecord(ctx, "k-1")
	if err != nil {
		t.Fatalf("get record: %v", err)
	}
	if got.Metadata["team"] != "payments" {
		t.Fatalf("stored record aliased caller map: %+v", got.Metadata)
	}

	blob := []byte("blob")
	if err := store.PutMaterial(ctx, "k-1", blob); err != nil {
		t.Fatalf("put material: %v", err)
	}
	blob[0] = 'X'
	stored, err := store.GetMaterial(ctx, "k-1")
	if err != nil {
		t.Fatalf("get material: %v", err)
	}
	if !bytes.Equal(stored, []byte("blob")) {
		t.Fatalf("stored material aliased caller slice: %q", stored)
	}
}
