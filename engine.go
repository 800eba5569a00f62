package keygate

import (
	"context"
	"errors"

	"github.com/MrEthical07/keygate/biometric"
	"github.com/MrEthical07/keygate/crypto"
)

// Engine is the composition root and the encryption-operations façade: it
// resolves keys through the KeyManager, enforces status rules, and hands
// material to the crypto primitives.
//
// Engine instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Engine struct {
	config      Config
	keys        *KeyManager
	gate        *biometric.Gate
	monitor     *SessionMonitor
	auditor     *SecurityAuditor
	attestation *attestationSigner
	audit       *auditDispatcher
	metrics     *Metrics
	clock       Clock
}

// Keys returns the key lifecycle manager.
func (e *Engine) Keys() *KeyManager {
	if e == nil {
		return nil
	}
	return e.keys
}

// Sessions returns the session monitor.
func (e *Engine) Sessions() *SessionMonitor {
	if e == nil {
		return nil
	}
	return e.monitor
}

// Auditor returns the security auditor.
func (e *Engine) Auditor() *SecurityAuditor {
	if e == nil {
		return nil
	}
	return e.auditor
}

// CheckCapabilities queries the platform biometric capability through the
// gate. The snapshot is recomputed on every call.
func (e *Engine) CheckCapabilities(ctx context.Context) (biometric.Capability, error) {
	if e == nil {
		return biometric.Capability{}, ErrEngineNotReady
	}
	return e.gate.CheckCapabilities(ctx)
}

// Encrypt performs authenticated symmetric encryption under the named
// key. New encryption requires an active key: deprecated, revoked, and
// expired keys are rejected with [ErrKeyNotActive].
func (e *Engine) Encrypt(ctx context.Context, keyID string, plaintext []byte) (crypto.Envelope, error) {
	if e == nil {
		return crypto.Envelope{}, ErrEngineNotReady
	}
	key, err := e.activeKey(ctx, keyID, crypto.UsageSymmetricEncryption)
	if err != nil {
		return crypto.Envelope{}, err
	}

	env, err := crypto.EncryptSymmetric(plaintext, key)
	if err != nil {
		return crypto.Envelope{}, err
	}
	e.metrics.Inc(MetricEncrypt)
	return env, nil
}

// Decrypt reverses [Engine.Encrypt]. Unlike new encryption, decryption is
// legitimate under deprecated, revoked, and expired keys; only a deleted
// key makes prior ciphertext unrecoverable.
func (e *Engine) Decrypt(ctx context.Context, keyID string, env crypto.Envelope) ([]byte, error) {
	if e == nil {
		return nil, ErrEngineNotReady
	}
	key, err := e.keys.GetKey(ctx, keyID)
	if err != nil {
		return nil, err
	}

	plaintext, err := crypto.DecryptSymmetric(env, key)
	if err != nil {
		if errors.Is(err, crypto.ErrAuthenticationFailed) {
			e.metrics.Inc(MetricDecryptAuthFailure)
		}
		return nil, err
	}
	e.metrics.Inc(MetricDecrypt)
	return plaintext, nil
}

// EncryptAsymmetric encrypts to the public half of the named RSA key.
// Requires an active key.
func (e *Engine) EncryptAsymmetric(ctx context.Context, keyID string, plaintext []byte) ([]byte, error) {
	if e == nil {
		return nil, ErrEngineNotReady
	}
	key, err := e.activeKey(ctx, keyID, crypto.UsageAsymmetricEncryption)
	if err != nil {
		return nil, err
	}

	out, err := crypto.EncryptAsymmetric(plaintext, key)
	if err != nil {
		return nil, err
	}
	e.metrics.Inc(MetricEncrypt)
	return out, nil
}

// DecryptAsymmetric reverses [Engine.EncryptAsymmetric]; allowed under any
// non-deleted key status.
func (e *Engine) DecryptAsymmetric(ctx context.Context, keyID string, ciphertext []byte) ([]byte, error) {
	if e == nil {
		return nil, ErrEngineNotReady
	}
	key, err := e.keys.GetKey(ctx, keyID)
	if err != nil {
		return nil, err
	}

	out, err := crypto.DecryptAsymmetric(ciphertext, key)
	if err != nil {
		return nil, err
	}
	e.metrics.Inc(MetricDecrypt)
	return out, nil
}

// ComputeMAC produces a deterministic keyed tag over data under the named
// MAC key. Requires an active key.
func (e *Engine) ComputeMAC(ctx context.Context, keyID string, data []byte) ([]byte, error) {
	if e == nil {
		return nil, ErrEngineNotReady
	}
	key, err := e.activeKey(ctx, keyID, crypto.UsageMAC)
	if err != nil {
		return nil, err
	}

	tag, err := crypto.ComputeMAC(data, key)
	if err != nil {
		return nil, err
	}
	e.metrics.Inc(MetricMAC)
	return tag, nil
}

// VerifyMAC recomputes and compares the tag for data in constant time.
// Verification, like decryption, is allowed under any non-deleted key.
func (e *Engine) VerifyMAC(ctx context.Context, keyID string, data, tag []byte) (bool, error) {
	if e == nil {
		return false, ErrEngineNotReady
	}
	key, err := e.keys.GetKey(ctx, keyID)
	if err != nil {
		return false, err
	}
	return crypto.VerifyMAC(data, tag, key)
}

// activeKey resolves material for a new cryptographic operation: the key
// must exist, carry the expected usage, and be active right now.
func (e *Engine) activeKey(ctx context.Context, keyID string, usage crypto.Usage) (crypto.Key, error) {
	meta, err := e.keys.GetKeyMetadata(ctx, keyID)
	if err != nil {
		return crypto.Key{}, err
	}
	if meta.Usage != usage {
		return crypto.Key{}, crypto.ErrKeyMismatch
	}
	if meta.Status != KeyActive {
		return crypto.Key{}, ErrKeyNotActive
	}
	return e.keys.GetKey(ctx, keyID)
}

// AttestSession mints a signed token describing the current valid session
// for sibling in-process components. Fails with [ErrNoSession] or
// [ErrSessionExpired] when there is nothing valid to attest, and with
// [ErrAttestationDisabled] when attestation is not configured.
func (e *Engine) AttestSession() (string, error) {
	if e == nil {
		return "", ErrEngineNotReady
	}
	if e.attestation == nil {
		return "", ErrAttestationDisabled
	}

	info, state := e.monitor.CurrentSession()
	switch state {
	case StateValid:
		return e.attestation.mint(info)
	case StateExpired:
		return "", ErrSessionExpired
	default:
		return "", ErrNoSession
	}
}

// ValidateAttestation verifies a token minted by [Engine.AttestSession].
func (e *Engine) ValidateAttestation(token string) (AttestationClaims, error) {
	if e == nil {
		return AttestationClaims{}, ErrEngineNotReady
	}
	if e.attestation == nil {
		return AttestationClaims{}, ErrAttestationDisabled
	}
	return e.attestation.verify(token)
}

// MetricsSnapshot describes the metricssnapshot operation and its observable behavior.
//
// MetricsSnapshot does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil {
		return MetricsSnapshot{Counters: map[MetricID]uint64{}}
	}
	return e.metrics.Snapshot()
}

// AuditDropped reports how many audit events were discarded under
// back-pressure.
func (e *Engine) AuditDropped() uint64 {
	if e == nil {
		return 0
	}
	return e.audit.Dropped()
}

// Close stops the background tasks (session revalidation, periodic audit,
// audit dispatch) and blocks until they have exited. Safe to call more
// than once.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	if e.monitor != nil {
		e.monitor.Close()
	}
	if e.auditor != nil {
		e.auditor.Close()
	}
	if e.audit != nil {
		e.audit.Close()
	}
}
