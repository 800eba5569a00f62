package keygate

import (
	"time"

	"github.com/MrEthical07/keygate/biometric"
	"github.com/MrEthical07/keygate/crypto"
)

// KeyStatus represents the lifecycle state of a key. Stored states are
// active, deprecated, and revoked; expired is derived at read time from
// the expiry timestamp and is never persisted.
//
// The machine is one-way: active → deprecated (rotation with retention),
// active → revoked (explicit), any non-revoked state → expired (derived).
type KeyStatus uint8

const (
	// KeyActive is an exported constant or variable used by the key lifecycle engine.
	KeyActive KeyStatus = iota
	// KeyDeprecated is an exported constant or variable used by the key lifecycle engine.
	KeyDeprecated
	// KeyRevoked is an exported constant or variable used by the key lifecycle engine.
	KeyRevoked
	// KeyExpired is derived from the expiry timestamp at read time.
	KeyExpired
)

// String describes the string operation and its observable behavior.
func (s KeyStatus) String() string {
	switch s {
	case KeyActive:
		return "active"
	case KeyDeprecated:
		return "deprecated"
	case KeyRevoked:
		return "revoked"
	case KeyExpired:
		return "expired"
	default:
		return "unknown"
	}
}

func parseStoredStatus(s string) KeyStatus {
	switch s {
	case "deprecated":
		return KeyDeprecated
	case "revoked":
		return KeyRevoked
	default:
		return KeyActive
	}
}

// RotationPolicy describes an automatic future rotation cadence. The core
// exposes the field; an external scheduler is responsible for triggering
// the actual RotateKey calls.
type RotationPolicy struct {
	Interval  time.Duration
	Automatic bool
}

// KeyMetadata is the caller-visible description of one key. It never
// carries raw material.
type KeyMetadata struct {
	ID          string
	Usage       crypto.Usage
	Algorithm   crypto.Algorithm
	KeySizeBits int
	Status      KeyStatus
	CreatedAt   time.Time
	// ExpiresAt is the zero time when the key never expires.
	ExpiresAt   time.Time
	Rotation    *RotationPolicy
	RotatedFrom string
	Annotations map[string]string
}

// GenerateKeyInput carries the parameters for one key generation.
// KeySizeBits is optional; when non-zero it must match the algorithm's
// intrinsic size.
type GenerateKeyInput struct {
	Usage       crypto.Usage
	Algorithm   crypto.Algorithm
	KeySizeBits int
	// ExpiresIn of zero means the key never expires.
	ExpiresIn   time.Duration
	Rotation    *RotationPolicy
	Annotations map[string]string
}

// SessionState is the observable state of the single session slot.
type SessionState uint8

const (
	// StateNoSession is an exported constant or variable used by the key lifecycle engine.
	StateNoSession SessionState = iota
	// StateValid is an exported constant or variable used by the key lifecycle engine.
	StateValid
	// StateExpired covers a session that failed a validity check but has
	// not yet been collected by the periodic revalidation pass.
	StateExpired
)

// String describes the string operation and its observable behavior.
func (s SessionState) String() string {
	switch s {
	case StateValid:
		return "valid"
	case StateExpired:
		return "expired"
	default:
		return "no-session"
	}
}

// SessionInfo is a snapshot of the current session slot.
type SessionInfo struct {
	SessionID string
	Strength  biometric.Strength
	Modality  biometric.Modality
	CreatedAt time.Time
	ExpiresAt time.Time
}

// AuthResult is returned by [SessionMonitor.Authenticate] on success.
type AuthResult struct {
	SessionID string
	Strength  biometric.Strength
	Modality  biometric.Modality
	ExpiresAt time.Time
}

// AuthenticationPolicy configures session issuance and revalidation.
// Mutating it through [SessionMonitor.UpdatePolicy] makes stale sessions
// immediately evaluable as invalid under the new durations.
type AuthenticationPolicy struct {
	// RequiredStrength rejects quick prompts when set to StrengthStrong.
	RequiredStrength biometric.Strength
	// QuickSessionTTL bounds sessions established by QuickAuth.
	QuickSessionTTL time.Duration
	// StrongSessionTTL bounds sessions established by StrongAuth.
	StrongSessionTTL time.Duration
	// RevalidateInterval is the cadence of the background validity check.
	RevalidateInterval time.Duration
}

func (p AuthenticationPolicy) ttlFor(strength biometric.Strength) time.Duration {
	if strength == biometric.StrengthStrong {
		return p.StrongSessionTTL
	}
	return p.QuickSessionTTL
}
