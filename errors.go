package keygate

import (
	"errors"

	"github.com/MrEthical07/keygate/biometric"
	"github.com/MrEthical07/keygate/crypto"
)

var (
	// ErrKeyNotFound is an exported constant or variable used by the key lifecycle engine.
	ErrKeyNotFound = errors.New("key not found")
	// ErrUnsupportedAlgorithm is an exported constant or variable used by the key lifecycle engine.
	ErrUnsupportedAlgorithm = errors.New("unsupported usage/algorithm pairing")
	// ErrKeyNotActive is returned when a new-encryption operation names a
	// key whose status is not active. Decryption of prior ciphertext under
	// such keys remains legitimate and is not guarded by this error.
	ErrKeyNotActive = errors.New("key not active for new encryption")
	// ErrNoSession is an exported constant or variable used by the key lifecycle engine.
	ErrNoSession = errors.New("no active session")
	// ErrSessionExpired is an exported constant or variable used by the key lifecycle engine.
	ErrSessionExpired = errors.New("session expired")
	// ErrStrongAuthRequired is returned when the active policy demands
	// strong authentication and a quick prompt was requested.
	ErrStrongAuthRequired = errors.New("policy requires strong authentication")
	// ErrAttestationDisabled is an exported constant or variable used by the key lifecycle engine.
	ErrAttestationDisabled = errors.New("session attestation disabled")
	// ErrAttestationInvalid is an exported constant or variable used by the key lifecycle engine.
	ErrAttestationInvalid = errors.New("invalid session attestation token")
	// ErrMonitorClosed is an exported constant or variable used by the key lifecycle engine.
	ErrMonitorClosed = errors.New("session monitor closed")
	// ErrEngineNotReady is an exported constant or variable used by the key lifecycle engine.
	ErrEngineNotReady = errors.New("engine not ready")
)

// Re-exported collaborator sentinels so callers can depend on this package
// alone for errors.Is checks across the whole taxonomy.
var (
	// ErrKeyMismatch is an exported constant or variable used by the key lifecycle engine.
	ErrKeyMismatch = crypto.ErrKeyMismatch
	// ErrCryptoFailure is an exported constant or variable used by the key lifecycle engine.
	ErrCryptoFailure = crypto.ErrCryptoFailure
	// ErrCiphertextAuthentication is the AEAD tag-verification failure from
	// crypto.DecryptSymmetric, distinct from the biometric prompt outcome.
	ErrCiphertextAuthentication = crypto.ErrAuthenticationFailed
	// ErrAuthenticationFailed is an exported constant or variable used by the key lifecycle engine.
	ErrAuthenticationFailed = biometric.ErrAuthenticationFailed
	// ErrUserCancelled is an exported constant or variable used by the key lifecycle engine.
	ErrUserCancelled = biometric.ErrUserCancelled
	// ErrNoBiometricsEnrolled is an exported constant or variable used by the key lifecycle engine.
	ErrNoBiometricsEnrolled = biometric.ErrNoBiometricsEnrolled
	// ErrPlatformUnavailable is an exported constant or variable used by the key lifecycle engine.
	ErrPlatformUnavailable = biometric.ErrPlatformUnavailable
)
