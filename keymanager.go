package keygate

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"sort"
	"sync"
	"time"

	"github.com/MrEthical07/keygate/crypto"
	"github.com/MrEthical07/keygate/internal"
	"github.com/MrEthical07/keygate/keystore"
)

const keyLockStripes = 64

// KeyManager owns the key lifecycle state machine. It is the only
// component that writes to the keystore; all mutations of a single key
// identifier are serialized through a striped lock so concurrent rotations
// of the same key cannot lose an update. Operations on distinct keys
// proceed concurrently.
type KeyManager struct {
	store   keystore.Store
	clock   Clock
	audit   *auditDispatcher
	metrics *Metrics
	locks   [keyLockStripes]sync.Mutex
}

func newKeyManager(store keystore.Store, clock Clock, audit *auditDispatcher, metrics *Metrics) *KeyManager {
	return &KeyManager{
		store:   store,
		clock:   clock,
		audit:   audit,
		metrics: metrics,
	}
}

func (m *KeyManager) lockFor(id string) *sync.Mutex {
	h := fnv.New32a()
	_, _ = h.Write([]byte(id))
	return &m.locks[h.Sum32()%keyLockStripes]
}

// GenerateKey validates the usage/algorithm pairing, creates fresh
// material, persists it, and returns the new key identifier. The material
// blob is written before the metadata record so a failure can never leave
// a record pointing at nothing.
//
// GenerateKey fails with [ErrUnsupportedAlgorithm] when the pairing is
// invalid or the requested size does not match the algorithm.
func (m *KeyManager) GenerateKey(ctx context.Context, input GenerateKeyInput) (string, error) {
	if !crypto.Compatible(input.Usage, input.Algorithm) {
		return "", ErrUnsupportedAlgorithm
	}
	if input.KeySizeBits != 0 && input.KeySizeBits != input.Algorithm.KeySizeBits() {
		return "", ErrUnsupportedAlgorithm
	}

	key, err := crypto.Generate(input.Algorithm)
	if err != nil {
		return "", err
	}

	now := m.clock.Now()
	meta := KeyMetadata{
		ID:          internal.NewKeyID(),
		Usage:       input.Usage,
		Algorithm:   input.Algorithm,
		KeySizeBits: input.Algorithm.KeySizeBits(),
		Status:      KeyActive,
		CreatedAt:   now,
		Rotation:    input.Rotation,
		Annotations: input.Annotations,
	}
	if input.ExpiresIn > 0 {
		meta.ExpiresAt = now.Add(input.ExpiresIn)
	}

	if err := m.persistNewKey(ctx, meta, key.Secret); err != nil {
		return "", err
	}

	m.metrics.Inc(MetricKeyGenerated)
	m.emit(ctx, AuditEvent{
		EventType: EventKeyGenerated,
		KeyID:     meta.ID,
		Success:   true,
		Metadata: map[string]string{
			"usage":     meta.Usage.String(),
			"algorithm": meta.Algorithm.String(),
		},
	})
	return meta.ID, nil
}

func (m *KeyManager) persistNewKey(ctx context.Context, meta KeyMetadata, material []byte) error {
	if err := m.store.PutMaterial(ctx, meta.ID, material); err != nil {
		return err
	}
	if err := m.store.PutRecord(ctx, recordFromMetadata(meta)); err != nil {
		// Roll the material back so no orphan blob survives a failed
		// generation. Best effort: the blob is unreachable without a record.
		_ = m.store.Delete(ctx, meta.ID)
		return err
	}
	return nil
}

// GetKey returns raw key material. Material is returned even for
// deprecated, revoked, or expired keys: decrypt-only use of old keys is
// legitimate. Callers performing new-encryption operations must check
// status through [KeyManager.GetKeyMetadata] and reject non-active keys.
func (m *KeyManager) GetKey(ctx context.Context, keyID string) (crypto.Key, error) {
	rec, err := m.store.GetRecord(ctx, keyID)
	if err != nil {
		return crypto.Key{}, mapStoreErr(err)
	}
	material, err := m.store.GetMaterial(ctx, keyID)
	if err != nil {
		return crypto.Key{}, mapStoreErr(err)
	}
	return crypto.Key{
		Algorithm: crypto.ParseAlgorithm(rec.Algorithm),
		Secret:    material,
	}, nil
}

// GetKeyMetadata returns the metadata for one key with its status derived
// against the current clock.
func (m *KeyManager) GetKeyMetadata(ctx context.Context, keyID string) (KeyMetadata, error) {
	rec, err := m.store.GetRecord(ctx, keyID)
	if err != nil {
		return KeyMetadata{}, mapStoreErr(err)
	}
	return metadataFromRecord(rec, m.clock.Now()), nil
}

// ListKeys returns metadata for every key, never raw material. Expired
// keys are included only when requested; expiry is computed against the
// clock at call time, not read from a stored flag. Results are ordered by
// creation time, then identifier.
func (m *KeyManager) ListKeys(ctx context.Context, includeExpired bool) ([]KeyMetadata, error) {
	recs, err := m.store.ListRecords(ctx)
	if err != nil {
		return nil, err
	}

	now := m.clock.Now()
	out := make([]KeyMetadata, 0, len(recs))
	for _, rec := range recs {
		meta := metadataFromRecord(rec, now)
		if meta.Status == KeyExpired && !includeExpired {
			continue
		}
		out = append(out, meta)
	}

	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// RotateKey generates a replacement key with the same usage and algorithm.
// With retainOldVersion the old key is deprecated and stays usable for
// decryption; otherwise it is revoked. The old key is never deleted by
// rotation.
//
// RotateKey fails with [ErrKeyNotFound] when keyID does not exist.
func (m *KeyManager) RotateKey(ctx context.Context, keyID string, retainOldVersion bool) (string, error) {
	lock := m.lockFor(keyID)
	lock.Lock()
	defer lock.Unlock()

	oldRec, err := m.store.GetRecord(ctx, keyID)
	if err != nil {
		return "", mapStoreErr(err)
	}

	now := m.clock.Now()
	old := metadataFromRecord(oldRec, now)

	key, err := crypto.Generate(old.Algorithm)
	if err != nil {
		return "", err
	}

	next := KeyMetadata{
		ID:          internal.NewKeyID(),
		Usage:       old.Usage,
		Algorithm:   old.Algorithm,
		KeySizeBits: old.KeySizeBits,
		Status:      KeyActive,
		CreatedAt:   now,
		Rotation:    old.Rotation,
		RotatedFrom: old.ID,
		Annotations: old.Annotations,
	}
	// The replacement inherits the old key's lifetime, measured from now.
	if !old.ExpiresAt.IsZero() {
		next.ExpiresAt = now.Add(old.ExpiresAt.Sub(old.CreatedAt))
	}

	if err := m.persistNewKey(ctx, next, key.Secret); err != nil {
		return "", err
	}

	if retainOldVersion {
		oldRec.Status = KeyDeprecated.String()
	} else {
		oldRec.Status = KeyRevoked.String()
	}
	if err := m.store.PutRecord(ctx, oldRec); err != nil {
		// Withdraw the replacement so a failed rotation leaves exactly the
		// state it found.
		_ = m.store.Delete(ctx, next.ID)
		return "", err
	}

	m.metrics.Inc(MetricKeyRotated)
	m.emit(ctx, AuditEvent{
		EventType: EventKeyRotated,
		KeyID:     keyID,
		Success:   true,
		Metadata: map[string]string{
			"new_key_id": next.ID,
			"retained":   fmt.Sprintf("%t", retainOldVersion),
		},
	})
	return next.ID, nil
}

// RevokeKey sets the key's status to revoked unconditionally. Revoking an
// already-revoked key is a no-op success.
func (m *KeyManager) RevokeKey(ctx context.Context, keyID string) error {
	lock := m.lockFor(keyID)
	lock.Lock()
	defer lock.Unlock()

	rec, err := m.store.GetRecord(ctx, keyID)
	if err != nil {
		return mapStoreErr(err)
	}
	if rec.Status == KeyRevoked.String() {
		return nil
	}

	rec.Status = KeyRevoked.String()
	if err := m.store.PutRecord(ctx, rec); err != nil {
		return err
	}

	m.metrics.Inc(MetricKeyRevoked)
	m.emit(ctx, AuditEvent{
		EventType: EventKeyRevoked,
		KeyID:     keyID,
		Success:   true,
	})
	return nil
}

// DeleteKey permanently removes the key's record and material. Any
// ciphertext encrypted under the key becomes permanently undecryptable by
// this core; warning the user is the caller's concern.
//
// DeleteKey fails with [ErrKeyNotFound] when keyID does not exist.
func (m *KeyManager) DeleteKey(ctx context.Context, keyID string) error {
	lock := m.lockFor(keyID)
	lock.Lock()
	defer lock.Unlock()

	if err := m.store.Delete(ctx, keyID); err != nil {
		return mapStoreErr(err)
	}

	m.metrics.Inc(MetricKeyDeleted)
	m.emit(ctx, AuditEvent{
		EventType: EventKeyDeleted,
		KeyID:     keyID,
		Success:   true,
	})
	return nil
}

func (m *KeyManager) emit(ctx context.Context, event AuditEvent) {
	if m.audit == nil {
		return
	}
	event.Timestamp = m.clock.Now()
	m.audit.Emit(ctx, event)
}

func mapStoreErr(err error) error {
	if errors.Is(err, keystore.ErrNotFound) {
		return ErrKeyNotFound
	}
	return err
}

func recordFromMetadata(meta KeyMetadata) keystore.Record {
	rec := keystore.Record{
		ID:          meta.ID,
		Usage:       meta.Usage.String(),
		Algorithm:   meta.Algorithm.String(),
		KeySizeBits: meta.KeySizeBits,
		Status:      meta.Status.String(),
		CreatedAt:   meta.CreatedAt.Unix(),
		RotatedFrom: meta.RotatedFrom,
		Metadata:    meta.Annotations,
	}
	if !meta.ExpiresAt.IsZero() {
		rec.ExpiresAt = meta.ExpiresAt.Unix()
	}
	if meta.Rotation != nil {
		rec.RotationInterval = int64(meta.Rotation.Interval / time.Second)
		rec.RotationAuto = meta.Rotation.Automatic
	}
	return rec
}

func metadataFromRecord(rec keystore.Record, now time.Time) KeyMetadata {
	meta := KeyMetadata{
		ID:          rec.ID,
		Usage:       crypto.ParseUsage(rec.Usage),
		Algorithm:   crypto.ParseAlgorithm(rec.Algorithm),
		KeySizeBits: rec.KeySizeBits,
		Status:      parseStoredStatus(rec.Status),
		CreatedAt:   time.Unix(rec.CreatedAt, 0),
		RotatedFrom: rec.RotatedFrom,
		Annotations: rec.Metadata,
	}
	if rec.ExpiresAt != 0 {
		meta.ExpiresAt = time.Unix(rec.ExpiresAt, 0)
	}
	if rec.RotationInterval != 0 || rec.RotationAuto {
		meta.Rotation = &RotationPolicy{
			Interval:  time.Duration(rec.RotationInterval) * time.Second,
			Automatic: rec.RotationAuto,
		}
	}
	// Expired status is derived, never stored. Revoked keys stay revoked
	// past their expiry.
	if meta.Status != KeyRevoked && !meta.ExpiresAt.IsZero() && !meta.ExpiresAt.After(now) {
		meta.Status = KeyExpired
	}
	return meta
}
