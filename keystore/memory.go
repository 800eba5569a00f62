package keystore

import (
	"bytes"
	"context"
	"maps"
	"sync"
)

// MemoryStore is an in-process Store for embedders that do not run Redis,
// and for tests. All methods are safe for concurrent use.
type MemoryStore struct {
	mu       sync.RWMutex
	records  map[string]Record
	material map[string][]byte
}

// NewMemoryStore describes the newmemorystore operation and its observable behavior.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		records:  make(map[string]Record),
		material: make(map[string][]byte),
	}
}

// PutRecord creates or replaces the metadata record for rec.ID.
func (s *MemoryStore) PutRecord(_ context.Context, rec Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[rec.ID] = cloneRecord(rec)
	return nil
}

// GetRecord fetches the metadata record, or ErrNotFound.
func (s *MemoryStore) GetRecord(_ context.Context, id string) (Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[id]
	if !ok {
		return Record{}, ErrNotFound
	}
	return cloneRecord(rec), nil
}

// ListRecords returns all metadata records in unspecified order.
func (s *MemoryStore) ListRecords(_ context.Context) ([]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Record, 0, len(s.records))
	for _, rec := range s.records {
		out = append(out, cloneRecord(rec))
	}
	return out, nil
}

// PutMaterial stores the opaque material blob for id.
func (s *MemoryStore) PutMaterial(_ context.Context, id string, blob []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.material[id] = bytes.Clone(blob)
	return nil
}

// GetMaterial fetches the material blob, or ErrNotFound.
func (s *MemoryStore) GetMaterial(_ context.Context, id string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	blob, ok := s.material[id]
	if !ok {
		return nil, ErrNotFound
	}
	return bytes.Clone(blob), nil
}

// Delete removes the record and material blob for id, or ErrNotFound when
// nothing was stored under id.
func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, hadRecord := s.records[id]
	_, hadMaterial := s.material[id]
	if !hadRecord && !hadMaterial {
		return ErrNotFound
	}
	delete(s.records, id)
	delete(s.material, id)
	return nil
}

func cloneRecord(rec Record) Record {
	out := rec
	if rec.Metadata != nil {
		out.Metadata = maps.Clone(rec.Metadata)
	}
	return out
}
