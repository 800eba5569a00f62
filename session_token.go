package keygate

import (
	"crypto/sha256"
	"fmt"
	"io"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/hkdf"
)

// AttestationClaims is the payload of an in-process session attestation
// token: enough for a sibling component to verify that a valid biometric
// session backed the caller at mint time, without holding a
// SessionMonitor reference. These tokens are not remote-API credentials.
type AttestationClaims struct {
	SessionID string `json:"sid"`
	Strength  string `json:"str"`
	jwt.RegisteredClaims
}

// attestationSigner mints and verifies HS256 tokens over a signing key
// expanded from the configured secret via HKDF-SHA256. The raw secret is
// never used directly.
type attestationSigner struct {
	key   []byte
	ttl   time.Duration
	clock Clock
}

const attestationIssuer = "keygate"

func newAttestationSigner(cfg AttestationConfig, clock Clock) (*attestationSigner, error) {
	if !cfg.Enabled {
		return nil, nil
	}

	h := hkdf.New(sha256.New, cfg.Secret, nil, []byte("keygate-attestation-v1"))
	key := make([]byte, 32)
	if _, err := io.ReadFull(h, key); err != nil {
		return nil, fmt.Errorf("attestation key derivation: %w", err)
	}

	return &attestationSigner{
		key:   key,
		ttl:   cfg.TTL,
		clock: clock,
	}, nil
}

func (a *attestationSigner) mint(info SessionInfo) (string, error) {
	now := a.clock.Now()

	// The token never outlives the session it attests.
	expiry := now.Add(a.ttl)
	if info.ExpiresAt.Before(expiry) {
		expiry = info.ExpiresAt
	}

	claims := AttestationClaims{
		SessionID: info.SessionID,
		Strength:  info.Strength.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    attestationIssuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiry),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(a.key)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrAttestationInvalid, err)
	}
	return signed, nil
}

func (a *attestationSigner) verify(tokenString string) (AttestationClaims, error) {
	var claims AttestationClaims

	token, err := jwt.ParseWithClaims(tokenString, &claims, func(t *jwt.Token) (interface{}, error) {
		// Pin the method so an attacker-chosen alg header is rejected.
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrAttestationInvalid
		}
		return a.key, nil
	},
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithIssuer(attestationIssuer),
		jwt.WithTimeFunc(a.clock.Now),
	)
	if err != nil || !token.Valid {
		return AttestationClaims{}, ErrAttestationInvalid
	}
	return claims, nil
}
