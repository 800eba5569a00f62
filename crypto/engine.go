package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/hmac"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/sha512"
	"crypto/x509"
	"errors"
	"fmt"
	"hash"
	"io"

	"golang.org/x/crypto/chacha20poly1305"
)

var (
	// ErrKeyMismatch is returned when an operation is invoked with a key of
	// the wrong kind, e.g. a symmetric operation on an RSA key.
	ErrKeyMismatch = errors.New("key algorithm mismatch")
	// ErrAuthenticationFailed is returned when an authentication tag does
	// not verify during decryption. No plaintext is ever returned alongside it.
	ErrAuthenticationFailed = errors.New("ciphertext authentication failed")
	// ErrCryptoFailure is returned on unexpected failure inside an
	// underlying primitive. It is fatal to the operation and never retried.
	ErrCryptoFailure = errors.New("cryptographic primitive failure")
	// ErrPayloadTooLarge is returned when an asymmetric plaintext exceeds
	// the key's maximum payload size.
	ErrPayloadTooLarge = errors.New("plaintext exceeds asymmetric payload limit")
	// ErrUnsupportedAlgorithm is returned when a key carries an algorithm
	// this engine does not implement.
	ErrUnsupportedAlgorithm = errors.New("unsupported algorithm")
)

// Key is the raw cryptographic material handed to the primitive operations.
// Secret holds the symmetric or MAC secret, or a PKCS#8 DER-encoded RSA
// private key for asymmetric algorithms.
type Key struct {
	Algorithm Algorithm
	Secret    []byte
}

// Envelope carries the output of authenticated symmetric encryption. The
// tag is kept separate from the ciphertext so callers can store or
// transmit the parts independently.
type Envelope struct {
	Ciphertext []byte
	Nonce      []byte
	Tag        []byte
}

const aeadTagSize = 16

// Generate creates fresh key material for the given algorithm.
func Generate(a Algorithm) (Key, error) {
	switch a {
	case AES256GCM, ChaCha20Poly1305, HMACSHA256:
		secret, err := randomBytes(32)
		if err != nil {
			return Key{}, err
		}
		return Key{Algorithm: a, Secret: secret}, nil
	case HMACSHA512:
		secret, err := randomBytes(64)
		if err != nil {
			return Key{}, err
		}
		return Key{Algorithm: a, Secret: secret}, nil
	case RSAOAEP2048, RSAOAEP4096:
		priv, err := rsa.GenerateKey(rand.Reader, a.KeySizeBits())
		if err != nil {
			return Key{}, fmt.Errorf("%w: %v", ErrCryptoFailure, err)
		}
		der, err := x509.MarshalPKCS8PrivateKey(priv)
		if err != nil {
			return Key{}, fmt.Errorf("%w: %v", ErrCryptoFailure, err)
		}
		return Key{Algorithm: a, Secret: der}, nil
	default:
		return Key{}, ErrUnsupportedAlgorithm
	}
}

// EncryptSymmetric performs authenticated encryption of plaintext under a
// symmetric AEAD key. A fresh random nonce is drawn per call.
//
// EncryptSymmetric fails with [ErrKeyMismatch] when the key is not a
// symmetric AEAD key and with [ErrCryptoFailure] on any primitive error.
func EncryptSymmetric(plaintext []byte, key Key) (Envelope, error) {
	aead, err := newAEAD(key)
	if err != nil {
		return Envelope{}, err
	}

	nonce, err := randomBytes(aead.NonceSize())
	if err != nil {
		return Envelope{}, err
	}

	sealed := aead.Seal(nil, nonce, plaintext, nil)
	if len(sealed) < aeadTagSize {
		return Envelope{}, ErrCryptoFailure
	}

	split := len(sealed) - aeadTagSize
	return Envelope{
		Ciphertext: sealed[:split:split],
		Nonce:      nonce,
		Tag:        sealed[split:],
	}, nil
}

// DecryptSymmetric reverses [EncryptSymmetric]. It fails with
// [ErrAuthenticationFailed] when the tag does not verify and never returns
// partial plaintext on failure.
func DecryptSymmetric(env Envelope, key Key) ([]byte, error) {
	aead, err := newAEAD(key)
	if err != nil {
		return nil, err
	}

	if len(env.Nonce) != aead.NonceSize() || len(env.Tag) != aeadTagSize {
		return nil, ErrAuthenticationFailed
	}

	sealed := make([]byte, 0, len(env.Ciphertext)+len(env.Tag))
	sealed = append(sealed, env.Ciphertext...)
	sealed = append(sealed, env.Tag...)

	plaintext, err := aead.Open(nil, env.Nonce, sealed, nil)
	if err != nil {
		return nil, ErrAuthenticationFailed
	}
	return plaintext, nil
}

// EncryptAsymmetric encrypts plaintext to the public half of an RSA key
// using OAEP with SHA-256. Plaintext is size-limited to the key's maximum
// payload; callers must chunk or hybrid-encrypt larger payloads.
func EncryptAsymmetric(plaintext []byte, key Key) ([]byte, error) {
	if key.Algorithm.Usage() != UsageAsymmetricEncryption {
		return nil, ErrKeyMismatch
	}

	priv, err := parseRSAKey(key)
	if err != nil {
		return nil, err
	}

	limit := priv.PublicKey.Size() - 2*sha256.Size - 2
	if len(plaintext) > limit {
		return nil, ErrPayloadTooLarge
	}

	out, err := rsa.EncryptOAEP(sha256.New(), rand.Reader, &priv.PublicKey, plaintext, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCryptoFailure, err)
	}
	return out, nil
}

// DecryptAsymmetric reverses [EncryptAsymmetric] using the private half of
// the RSA key.
func DecryptAsymmetric(ciphertext []byte, key Key) ([]byte, error) {
	if key.Algorithm.Usage() != UsageAsymmetricEncryption {
		return nil, ErrKeyMismatch
	}

	priv, err := parseRSAKey(key)
	if err != nil {
		return nil, err
	}

	out, err := rsa.DecryptOAEP(sha256.New(), rand.Reader, priv, ciphertext, nil)
	if err != nil {
		return nil, ErrAuthenticationFailed
	}
	return out, nil
}

// ComputeMAC produces a keyed message authentication tag over data. It is
// deterministic: the same data and key always yield the same tag.
func ComputeMAC(data []byte, key Key) ([]byte, error) {
	var newHash func() hash.Hash
	switch key.Algorithm {
	case HMACSHA256:
		newHash = sha256.New
	case HMACSHA512:
		newHash = sha512.New
	default:
		return nil, ErrKeyMismatch
	}

	mac := hmac.New(newHash, key.Secret)
	mac.Write(data)
	return mac.Sum(nil), nil
}

// VerifyMAC recomputes the tag for data and compares it in constant time.
func VerifyMAC(data, tag []byte, key Key) (bool, error) {
	expected, err := ComputeMAC(data, key)
	if err != nil {
		return false, err
	}
	return hmac.Equal(expected, tag), nil
}

func newAEAD(key Key) (cipher.AEAD, error) {
	switch key.Algorithm {
	case AES256GCM:
		block, err := aes.NewCipher(key.Secret)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCryptoFailure, err)
		}
		aead, err := cipher.NewGCM(block)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCryptoFailure, err)
		}
		return aead, nil
	case ChaCha20Poly1305:
		aead, err := chacha20poly1305.New(key.Secret)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCryptoFailure, err)
		}
		return aead, nil
	default:
		return nil, ErrKeyMismatch
	}
}

func parseRSAKey(key Key) (*rsa.PrivateKey, error) {
	parsed, err := x509.ParsePKCS8PrivateKey(key.Secret)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCryptoFailure, err)
	}
	priv, ok := parsed.(*rsa.PrivateKey)
	if !ok {
		return nil, ErrKeyMismatch
	}
	return priv, nil
}

func randomBytes(n int) ([]byte, error) {
	b := make([]byte, n)
	if _, err := io.ReadFull(rand.Reader, b); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCryptoFailure, err)
	}
	return b, nil
}
