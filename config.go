package keygate

import (
	"errors"
	"time"

	"github.com/MrEthical07/keygate/biometric"
)

// Config defines a public type used by keygate APIs.
//
// Config instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Config struct {
	Keys        KeysConfig
	Session     SessionConfig
	Attestation AttestationConfig
	Audit       AuditConfig
	Auditor     AuditorConfig
	Metrics     MetricsConfig
}

/*
====================================
KEYS CONFIG
====================================
*/

// KeysConfig defines a public type used by keygate APIs.
//
// KeysConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type KeysConfig struct {
	// RedisPrefix namespaces the keystore when built from a Redis client.
	RedisPrefix string
}

/*
====================================
SESSION CONFIG
====================================
*/

// SessionConfig defines a public type used by keygate APIs.
//
// SessionConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type SessionConfig struct {
	// RequiredStrength rejects quick prompts when set to StrengthStrong.
	RequiredStrength biometric.Strength
	// QuickSessionTTL bounds sessions established by QuickAuth.
	QuickSessionTTL time.Duration
	// StrongSessionTTL bounds sessions established by StrongAuth.
	StrongSessionTTL time.Duration
	// RevalidateInterval is the cadence of the background validity check.
	RevalidateInterval time.Duration
}

/*
====================================
ATTESTATION CONFIG
====================================
*/

// AttestationConfig controls minting of in-process session attestation
// tokens. The secret is expanded through HKDF before signing; it is never
// used raw.
type AttestationConfig struct {
	Enabled bool
	Secret  []byte
	TTL     time.Duration
}

/*
====================================
AUDIT CONFIG
====================================
*/

// AuditConfig defines a public type used by keygate APIs.
//
// AuditConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

/*
====================================
AUDITOR CONFIG
====================================
*/

// AuditorConfig defines a public type used by keygate APIs.
//
// AuditorConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type AuditorConfig struct {
	// DeprecatedKeyThreshold is the deprecated-key count above which the
	// auditor raises an issue.
	DeprecatedKeyThreshold int
	// Interval enables periodic background audits when > 0; zero means
	// audits run only on demand.
	Interval time.Duration
}

func defaultConfig() Config {
	return Config{
		Keys: KeysConfig{
			RedisPrefix: "kg",
		},
		Session: SessionConfig{
			RequiredStrength:   biometric.StrengthQuick,
			QuickSessionTTL:    5 * time.Minute,
			StrongSessionTTL:   30 * time.Minute,
			RevalidateInterval: time.Minute,
		},
		Attestation: AttestationConfig{
			Enabled: false,
			TTL:     time.Minute,
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 256,
			DropIfFull: true,
		},
		Auditor: AuditorConfig{
			DeprecatedKeyThreshold: 5,
		},
		Metrics: MetricsConfig{
			Enabled: true,
		},
	}
}

func cloneConfig(cfg Config) Config {
	out := cfg
	out.Attestation.Secret = cloneBytes(cfg.Attestation.Secret)
	return out
}

func cloneBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

// Validate describes the validate operation and its observable behavior.
//
// Validate may return an error when input validation, dependency calls, or security checks fail.
func (c *Config) Validate() error {
	// Session
	if c.Session.QuickSessionTTL <= 0 {
		return errors.New("Session QuickSessionTTL must be > 0")
	}
	if c.Session.StrongSessionTTL <= 0 {
		return errors.New("Session StrongSessionTTL must be > 0")
	}
	if c.Session.StrongSessionTTL < c.Session.QuickSessionTTL {
		return errors.New("Session StrongSessionTTL must be >= QuickSessionTTL")
	}
	if c.Session.RevalidateInterval <= 0 {
		return errors.New("Session RevalidateInterval must be > 0")
	}

	// Attestation
	if c.Attestation.Enabled {
		if len(c.Attestation.Secret) < 32 {
			return errors.New("Attestation Secret must be >= 32 bytes")
		}
		if c.Attestation.TTL <= 0 {
			return errors.New("Attestation TTL must be > 0")
		}
	}

	// Audit
	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		return errors.New("Audit BufferSize must be > 0")
	}

	// Auditor
	if c.Auditor.DeprecatedKeyThreshold < 0 {
		return errors.New("Auditor DeprecatedKeyThreshold must be >= 0")
	}
	if c.Auditor.Interval < 0 {
		return errors.New("Auditor Interval must be >= 0")
	}

	return nil
}
