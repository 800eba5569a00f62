package keygate

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/MrEthical07/keygate/crypto"
)

func TestGenerateKeyMetadata(t *testing.T) {
	engine, clock, _, done := newTestEngine(t, testConfig())
	defer done()
	ctx := context.Background()

	id, err := engine.Keys().GenerateKey(ctx, GenerateKeyInput{
		Usage:       crypto.UsageSymmetricEncryption,
		Algorithm:   crypto.AES256GCM,
		ExpiresIn:   24 * time.Hour,
		Annotations: map[string]string{"purpose": "vault"},
	})
	if err != nil {
		t.Fatalf("GenerateKey: %v", err)
	}
	if id == "" {
		t.Fatal("expected a non-empty key ID")
	}

	meta, err := engine.Keys().GetKeyMetadata(ctx, id)
	if err != nil {
		t.Fatalf("GetKeyMetadata: %v", err)
	}
	if meta.Status != KeyActive {
		t.Fatalf("status = %v, want active", meta.Status)
	}
	if meta.Algorithm != crypto.AES256GCM {
		t.Fatalf("algorithm = %v, want AES256GCM", meta.Algorithm)
	}
	if meta.KeySizeBits != 256 {
		t.Fatalf("key size = %d, want 256", meta.KeySizeBits)
	}
	want := clock.Now().Add(24 * time.Hour)
	if !meta.ExpiresAt.Equal(want) {
		t.Fatalf("expires at %v, want %v", meta.ExpiresAt, want)
	}
	if meta.Annotations["purpose"] != "vault" {
		t.Fatalf("annotations = %v", meta.Annotations)
	}
}

func TestGenerateKeyRejectsBadPairing(t *testing.T) {
	engine, _, _, done := newTestEngine(t, testConfig())
	defer done()
	ctx := context.Background()

	cases := []struct {
		name  string
		input GenerateKeyInput
	}{
		{"mac usage with aead algorithm", GenerateKeyInput{Usage: crypto.UsageMAC, Algorithm: crypto.AES256GCM}},
		{"symmetric usage with rsa algorithm", GenerateKeyInput{Usage: crypto.UsageSymmetricEncryption, Algorithm: crypto.RSAOAEP2048}},
		{"size mismatch", GenerateKeyInput{Usage: crypto.UsageSymmetricEncryption, Algorithm: crypto.AES256GCM, KeySizeBits: 128}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := engine.Keys().GenerateKey(ctx, tc.input); !errors.Is(err, ErrUnsupportedAlgorithm) {
				t.Fatalf("err = %v, want ErrUnsupportedAlgorithm", err)
			}
		})
	}
}

func TestGetKeyMissing(t *testing.T) {
	engine, _, _, done := newTestEngine(t, testConfig())
	defer done()

	if _, err := engine.Keys().GetKey(context.Background(), "nope"); !errors.Is(err, ErrKeyNotFound) {
		t.Fatalf("err = %v, want ErrKeyNotFound", err)
	}
	if _, err := engine.Keys().GetKeyMetadata(context.Background(), "nope"); !errors.Is(err, ErrKeyNotFound) {
		t.Fatalf("metadata err = %v, want ErrKeyNotFound", err)
	}
}

func TestRotateKeyRetainsOldVersion(t *testing.T) {
	engine, _, _, done := newTestEngine(t, testConfig())
	defer done()
	ctx := context.Background()

	oldID := generateTestKey(t, engine, crypto.UsageSymmetricEncryption, crypto.AES256GCM)

	newID, err := engine.Keys().RotateKey(ctx, oldID, true)
	if err != nil {
		t.Fatalf("RotateKey: %v", err)
	}
	if newID == oldID {
		t.Fatal("rotation returned the same key ID")
	}

	oldMeta, err := engine.Keys().GetKeyMetadata(ctx, oldID)
	if err != nil {
		t.Fatalf("old metadata: %v", err)
	}
	if oldMeta.Status != KeyDeprecated {
		t.Fatalf("old status = %v, want deprecated", oldMeta.Status)
	}

	newMeta, err := engine.Keys().GetKeyMetadata(ctx, newID)
	if err != nil {
		t.Fatalf("new metadata: %v", err)
	}
	if newMeta.Status != KeyActive {
		t.Fatalf("new status = %v, want active", newMeta.Status)
	}
	if newMeta.RotatedFrom != oldID {
		t.Fatalf("rotated from = %q, want %q", newMeta.RotatedFrom, oldID)
	}
	if newMeta.Algorithm != oldMeta.Algorithm || newMeta.Usage != oldMeta.Usage {
		t.Fatal("rotation changed the usage or algorithm")
	}

	oldKey, err := engine.Keys().GetKey(ctx, oldID)
	if err != nil {
		t.Fatalf("old key material: %v", err)
	}
	newKey, err := engine.Keys().GetKey(ctx, newID)
	if err != nil {
		t.Fatalf("new key material: %v", err)
	}
	if string(oldKey.Secret) == string(newKey.Secret) {
		t.Fatal("rotation reused the old key material")
	}
}

func TestRotateKeyWithoutRetentionRevokes(t *testing.T) {
	engine, _, _, done := newTestEngine(t, testConfig())
	defer done()
	ctx := context.Background()

	oldID := generateTestKey(t, engine, crypto.UsageMAC, crypto.HMACSHA256)

	if _, err := engine.Keys().RotateKey(ctx, oldID, false); err != nil {
		t.Fatalf("RotateKey: %v", err)
	}

	meta, err := engine.Keys().GetKeyMetadata(ctx, oldID)
	if err != nil {
		t.Fatalf("old metadata: %v", err)
	}
	if meta.Status != KeyRevoked {
		t.Fatalf("old status = %v, want revoked", meta.Status)
	}
}

func TestRotateKeyInheritsLifetime(t *testing.T) {
	engine, clock, _, done := newTestEngine(t, testConfig())
	defer done()
	ctx := context.Background()

	oldID, err := engine.Keys().GenerateKey(ctx, GenerateKeyInput{
		Usage:     crypto.UsageSymmetricEncryption,
		Algorithm: crypto.ChaCha20Poly1305,
		ExpiresIn: 48 * time.Hour,
	})
	if err != nil {
		t.Fatalf("GenerateKey: %v", err)
	}

	clock.Advance(12 * time.Hour)

	newID, err := engine.Keys().RotateKey(ctx, oldID, true)
	if err != nil {
		t.Fatalf("RotateKey: %v", err)
	}
	meta, err := engine.Keys().GetKeyMetadata(ctx, newID)
	if err != nil {
		t.Fatalf("new metadata: %v", err)
	}
	want := clock.Now().Add(48 * time.Hour)
	if !meta.ExpiresAt.Equal(want) {
		t.Fatalf("expires at %v, want %v", meta.ExpiresAt, want)
	}
}

func TestRevokeKeyIdempotent(t *testing.T) {
	engine, _, _, done := newTestEngine(t, testConfig())
	defer done()
	ctx := context.Background()

	id := generateTestKey(t, engine, crypto.UsageSymmetricEncryption, crypto.AES256GCM)

	if err := engine.Keys().RevokeKey(ctx, id); err != nil {
		t.Fatalf("first revoke: %v", err)
	}
	if err := engine.Keys().RevokeKey(ctx, id); err != nil {
		t.Fatalf("second revoke: %v", err)
	}

	meta, err := engine.Keys().GetKeyMetadata(ctx, id)
	if err != nil {
		t.Fatalf("metadata: %v", err)
	}
	if meta.Status != KeyRevoked {
		t.Fatalf("status = %v, want revoked", meta.Status)
	}
}

func TestRevokedKeyStaysRevokedPastExpiry(t *testing.T) {
	engine, clock, _, done := newTestEngine(t, testConfig())
	defer done()
	ctx := context.Background()

	id, err := engine.Keys().GenerateKey(ctx, GenerateKeyInput{
		Usage:     crypto.UsageSymmetricEncryption,
		Algorithm: crypto.AES256GCM,
		ExpiresIn: time.Hour,
	})
	if err != nil {
		t.Fatalf("GenerateKey: %v", err)
	}
	if err := engine.Keys().RevokeKey(ctx, id); err != nil {
		t.Fatalf("RevokeKey: %v", err)
	}

	clock.Advance(2 * time.Hour)

	meta, err := engine.Keys().GetKeyMetadata(ctx, id)
	if err != nil {
		t.Fatalf("metadata: %v", err)
	}
	if meta.Status != KeyRevoked {
		t.Fatalf("status = %v, want revoked even after expiry passed", meta.Status)
	}
}

func TestDeleteKey(t *testing.T) {
	engine, _, _, done := newTestEngine(t, testConfig())
	defer done()
	ctx := context.Background()

	id := generateTestKey(t, engine, crypto.UsageSymmetricEncryption, crypto.AES256GCM)

	if err := engine.Keys().DeleteKey(ctx, id); err != nil {
		t.Fatalf("DeleteKey: %v", err)
	}
	if _, err := engine.Keys().GetKey(ctx, id); !errors.Is(err, ErrKeyNotFound) {
		t.Fatalf("GetKey after delete = %v, want ErrKeyNotFound", err)
	}
	if err := engine.Keys().DeleteKey(ctx, id); !errors.Is(err, ErrKeyNotFound) {
		t.Fatalf("second delete = %v, want ErrKeyNotFound", err)
	}
}

func TestListKeysExpiryBoundary(t *testing.T) {
	engine, clock, _, done := newTestEngine(t, testConfig())
	defer done()
	ctx := context.Background()

	forever := generateTestKey(t, engine, crypto.UsageSymmetricEncryption, crypto.AES256GCM)
	shortLived, err := engine.Keys().GenerateKey(ctx, GenerateKeyInput{
		Usage:     crypto.UsageSymmetricEncryption,
		Algorithm: crypto.AES256GCM,
		ExpiresIn: time.Hour,
	})
	if err != nil {
		t.Fatalf("GenerateKey: %v", err)
	}

	// One second before expiry the key is still active.
	clock.Advance(time.Hour - time.Second)
	listed, err := engine.Keys().ListKeys(ctx, false)
	if err != nil {
		t.Fatalf("ListKeys: %v", err)
	}
	if len(listed) != 2 {
		t.Fatalf("listed %d keys before expiry, want 2", len(listed))
	}

	// At the expiry instant the key is expired and filtered out.
	clock.Advance(time.Second)
	listed, err = engine.Keys().ListKeys(ctx, false)
	if err != nil {
		t.Fatalf("ListKeys: %v", err)
	}
	if len(listed) != 1 || listed[0].ID != forever {
		t.Fatalf("listed = %v, want only the non-expiring key", listed)
	}

	all, err := engine.Keys().ListKeys(ctx, true)
	if err != nil {
		t.Fatalf("ListKeys(includeExpired): %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("listed %d keys with includeExpired, want 2", len(all))
	}
	for _, meta := range all {
		if meta.ID == shortLived && meta.Status != KeyExpired {
			t.Fatalf("short-lived key status = %v, want expired", meta.Status)
		}
	}
}
