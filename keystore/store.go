package keystore

import (
	"context"
	"errors"
)

// ErrNotFound is returned when no record or material exists for the
// requested key identifier.
var ErrNotFound = errors.New("keystore: key not found")

// ErrCorruptRecord is returned when a persisted metadata record cannot be
// decoded.
var ErrCorruptRecord = errors.New("keystore: corrupt metadata record")

// Record is the persisted metadata shape for one key. It never carries key
// material; the material blob is stored and fetched separately under the
// same identifier.
//
// Status holds only stored states ("active", "deprecated", "revoked");
// expiry is derived at read time by the key manager, never persisted.
type Record struct {
	ID               string            `json:"id"`
	Usage            string            `json:"usage"`
	Algorithm        string            `json:"algorithm"`
	KeySizeBits      int               `json:"key_size_bits,omitempty"`
	Status           string            `json:"status"`
	CreatedAt        int64             `json:"created_at"`
	ExpiresAt        int64             `json:"expires_at,omitempty"`
	RotationInterval int64             `json:"rotation_interval,omitempty"`
	RotationAuto     bool              `json:"rotation_auto,omitempty"`
	RotatedFrom      string            `json:"rotated_from,omitempty"`
	Metadata         map[string]string `json:"metadata,omitempty"`
}

// Store is the secure persistent key store collaborator. Implementations
// must tolerate concurrent callers; the key manager serializes writes per
// key identifier but reads may race with writes on distinct keys.
type Store interface {
	// PutRecord creates or replaces the metadata record for rec.ID.
	PutRecord(ctx context.Context, rec Record) error
	// GetRecord fetches the metadata record, or ErrNotFound.
	GetRecord(ctx context.Context, id string) (Record, error)
	// ListRecords returns all metadata records in unspecified order.
	ListRecords(ctx context.Context) ([]Record, error)
	// PutMaterial stores the opaque material blob for id.
	PutMaterial(ctx context.Context, id string, blob []byte) error
	// GetMaterial fetches the material blob, or ErrNotFound.
	GetMaterial(ctx context.Context, id string) ([]byte, error)
	// Delete removes the record, the material blob, and any index entry
	// for id as one operation. It returns ErrNotFound when nothing was
	// stored under id.
	Delete(ctx context.Context, id string) error
}
